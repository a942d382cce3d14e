// Package musicservice coordinates validation, persistence, file
// storage, and change events for the roster and catalogue entities.
// The save pipeline is uniform: validate, write under the version-token
// precondition, and on a lost race turn the stored row into a per-field
// conflict report instead of surfacing a bare error.
package musicservice

import (
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/ensemble/internal/apperr"
	"github.com/starford/ensemble/internal/sse"
	"github.com/starford/ensemble/internal/storage"
	"github.com/starford/ensemble/internal/store"
)

// Service coordinates store, upload sink, and event broker.
type Service struct {
	db     *store.DB
	sink   storage.Sink
	broker *sse.Broker
	log    *slog.Logger
}

// NewService creates a music service. The broker may be nil when no
// event stream is wanted.
func NewService(db *store.DB, sink storage.Sink, broker *sse.Broker, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{db: db, sink: sink, broker: broker, log: log}
}

func (s *Service) publish(entity, kind string, id int64) {
	if s.broker != nil {
		s.broker.PublishChange(entity, kind, id)
	}
}

// purge best-effort deletes sink handles left behind by a removed row.
// Failures are logged, not returned: the database row is already gone.
func (s *Service) purge(handles []string) {
	for _, h := range handles {
		if h == "" {
			continue
		}
		if err := s.sink.Delete(h); err != nil {
			s.log.Warn("purge upload", "handle", h, "error", err)
		}
	}
}

// uniqueFieldError turns a named unique-constraint violation into the
// field-keyed message the form expects. Unknown constraints pass
// through unchanged.
func uniqueFieldError(u *apperr.UniqueError) error {
	switch u.Constraint {
	case "musicians.sin":
		return validation.Errors{"sin": validation.NewError("unique",
			"Unable to save changes. Remember, you cannot have duplicate SIN numbers.")}
	case "songs.album_title":
		return validation.Errors{"title": validation.NewError("unique",
			"Unable to save changes. Remember, you cannot have duplicate Song titles on the same Album.")}
	case "performances.song_musician_instrument":
		return validation.Errors{"musicianId": validation.NewError("unique",
			"Unable to save changes. Remember, a musician cannot have duplicate performances on a song with the same instrument.")}
	}
	return u
}
