// Package apperr defines the error taxonomy shared across the service.
//
// Sentinels are matched with errors.Is; structured errors carry extra
// context and are matched with errors.As. Handlers translate these to
// HTTP statuses and user-facing messages; raw backend error text is
// never forwarded to clients.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the identifier did not resolve to an entity.
	ErrNotFound = errors.New("not found")
	// ErrConflict indicates a version-token mismatch on update or delete.
	ErrConflict = errors.New("conflict")
	// ErrInvalidArgument indicates a caller-side contract violation,
	// e.g. a page size below one or an unparseable ID.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrStorage is the generic storage failure, including exhausted
	// transient retries inside the driver.
	ErrStorage = errors.New("storage error")
)

// GenericSaveMessage is shown whenever a write fails for a reason the
// user cannot act on.
const GenericSaveMessage = "Unable to save changes. Try again, and if the problem persists see your system administrator."

// UniqueError reports a violated unique constraint by name, so callers
// can map it to a field-level message without matching on driver text.
type UniqueError struct {
	Constraint string // e.g. "musicians.sin"
}

func (e *UniqueError) Error() string {
	return fmt.Sprintf("unique constraint: %s", e.Constraint)
}

// IntegrityError reports a delete blocked by dependent rows.
// Entity and Dependent are display names used to build the
// "cannot delete X" message.
type IntegrityError struct {
	Entity    string
	Dependent string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("cannot delete %s: linked %s records exist", e.Entity, e.Dependent)
}

// Message returns the user-facing text for a blocked delete.
func (e *IntegrityError) Message() string {
	return fmt.Sprintf("Unable to delete this %s. Remember, you cannot delete a %s that is linked to any %s.",
		e.Entity, e.Entity, e.Dependent)
}
