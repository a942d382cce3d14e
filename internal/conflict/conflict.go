// Package conflict builds the per-field diff presented to a user whose
// write lost an optimistic-concurrency race. The diff compares the
// values the client submitted against what another writer committed in
// the meantime, keyed by field name, so the form can annotate exactly
// the fields that changed underneath the user.
package conflict

import "encoding/hex"

// Field describes one diffable field of an entity type. Compare yields
// the value used for equality; Display yields the human-readable
// "Current value" text (formatted SIN, resolved FK name, and so on).
// A nil Display falls back to Compare.
type Field[T any] struct {
	Name    string
	Compare func(*T) string
	Display func(*T) string
}

// FieldMessage is one conflict annotation keyed to a form field.
type FieldMessage struct {
	Field   string
	Message string
}

// ModifiedMessage is appended to every conflict report, inviting the
// user to resubmit or abandon.
const ModifiedMessage = "The record you attempted to edit was modified by another user after you received your values. " +
	"The edit operation was canceled and the current values in the database have been displayed. " +
	"If you still want to save your version of this record, submit it again. Otherwise return to the list."

// DeletedMessage replaces the diff when the record no longer exists.
const DeletedMessage = "Unable to save changes. The record was deleted by another user."

// DeleteBlockedMessage is used when a delete loses the race.
const DeleteBlockedMessage = "The record you attempted to delete has been modified by another user. Please go back and refresh."

// Diff returns a "Current value: X" message for every field whose
// stored value differs from the submitted one, in field order.
func Diff[T any](submitted, stored *T, fields []Field[T]) []FieldMessage {
	var out []FieldMessage
	for _, f := range fields {
		if f.Compare(submitted) == f.Compare(stored) {
			continue
		}
		display := f.Display
		if display == nil {
			display = f.Compare
		}
		out = append(out, FieldMessage{
			Field:   f.Name,
			Message: "Current value: " + display(stored),
		})
	}
	return out
}

// Report is the terminal payload of a failed concurrency check: the
// per-field annotations, the generic explanation, and the fresh version
// token the client needs to resubmit.
type Report struct {
	FieldErrors map[string]string `json:"fieldErrors,omitempty"`
	Message     string            `json:"message"`
	RowVersion  string            `json:"rowVersion,omitempty"`
}

// Error satisfies the error interface so a Report can travel up the
// service call chain and be matched with errors.As.
func (r *Report) Error() string {
	return "concurrency conflict: " + r.Message
}

// NewReport assembles a Report from a diff and the freshly stored
// version token.
func NewReport(diffs []FieldMessage, freshToken []byte) *Report {
	r := &Report{
		Message:    ModifiedMessage,
		RowVersion: hex.EncodeToString(freshToken),
	}
	if len(diffs) > 0 {
		r.FieldErrors = make(map[string]string, len(diffs))
		for _, d := range diffs {
			r.FieldErrors[d.Field] = d.Message
		}
	}
	return r
}

// DeletedReport reports that the record vanished before the write.
func DeletedReport() *Report {
	return &Report{Message: DeletedMessage}
}
