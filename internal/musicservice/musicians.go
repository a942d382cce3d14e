package musicservice

import (
	"context"
	"errors"
	"strconv"

	"github.com/starford/ensemble/internal/apperr"
	"github.com/starford/ensemble/internal/conflict"
	"github.com/starford/ensemble/internal/listquery"
	"github.com/starford/ensemble/internal/models"
	"github.com/starford/ensemble/internal/reconcile"
	"github.com/starford/ensemble/internal/store"
)

// musicianFields drives the conflict diff for musicians. Compare works
// on raw values; Display resolves formatted and joined forms so the
// "Current value" text reads like the detail page.
var musicianFields = []conflict.Field[models.Musician]{
	{Name: "firstName", Compare: func(m *models.Musician) string { return m.FirstName }},
	{Name: "middleName", Compare: func(m *models.Musician) string { return m.MiddleName }},
	{Name: "lastName", Compare: func(m *models.Musician) string { return m.LastName }},
	{
		Name:    "phone",
		Compare: func(m *models.Musician) string { return m.Phone },
		Display: func(m *models.Musician) string { return m.PhoneFormatted() },
	},
	{Name: "dob", Compare: func(m *models.Musician) string { return m.DOB }},
	{
		Name:    "sin",
		Compare: func(m *models.Musician) string { return m.SIN },
		Display: func(m *models.Musician) string { return m.SINFormatted() },
	},
	{
		Name:    "instrumentId",
		Compare: func(m *models.Musician) string { return strconv.FormatInt(m.InstrumentID, 10) },
		Display: func(m *models.Musician) string { return m.Instrument },
	},
}

func playID(p models.Play) int64 { return p.InstrumentID }

// ListMusicians runs the musician list pipeline.
func (s *Service) ListMusicians(ctx context.Context, q listquery.Query, filter store.MusicianFilter) (listquery.Page[models.Musician], listquery.Resolved, int, error) {
	return s.db.ListMusicians(ctx, q, filter)
}

// GetMusician fetches one musician with plays attached.
func (s *Service) GetMusician(ctx context.Context, id int64) (*models.Musician, error) {
	return s.db.GetMusician(ctx, id)
}

// CreateMusician validates and inserts a musician together with the
// selected extra instruments.
func (s *Service) CreateMusician(ctx context.Context, m *models.Musician, playIDs []int64) error {
	if err := m.Validate(); err != nil {
		return err
	}
	if err := s.db.CreateMusician(ctx, m, playIDs); err != nil {
		var unique *apperr.UniqueError
		if errors.As(err, &unique) {
			return uniqueFieldError(unique)
		}
		return err
	}
	s.publish("musician", "created", m.ID)
	return nil
}

// UpdateMusician validates and saves a musician under the version-token
// precondition, reconciling the plays selection in the same
// transaction. A lost race becomes a *conflict.Report.
func (s *Service) UpdateMusician(ctx context.Context, m *models.Musician, playIDs []int64) error {
	if err := m.Validate(); err != nil {
		return err
	}
	delta, err := s.playsDelta(ctx, m.ID, playIDs)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return conflict.DeletedReport()
		}
		return err
	}
	if err := s.db.UpdateMusician(ctx, m, delta); err != nil {
		var unique *apperr.UniqueError
		if errors.As(err, &unique) {
			return uniqueFieldError(unique)
		}
		if errors.Is(err, apperr.ErrConflict) {
			return s.musicianConflict(ctx, m)
		}
		return err
	}
	s.publish("musician", "updated", m.ID)
	return nil
}

func (s *Service) playsDelta(ctx context.Context, musicianID int64, desired []int64) (reconcile.Delta[models.Play], error) {
	var none reconcile.Delta[models.Play]
	current, err := s.db.GetMusician(ctx, musicianID)
	if err != nil {
		return none, err
	}
	universe, err := s.instrumentUniverse(ctx)
	if err != nil {
		return none, err
	}
	delta := reconcile.Assignments(desired, universe, current.Plays, playID,
		func(id int64) models.Play { return models.Play{MusicianID: musicianID, InstrumentID: id} })
	return delta, nil
}

func (s *Service) instrumentUniverse(ctx context.Context) ([]int64, error) {
	opts, err := s.db.InstrumentOptions(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, len(opts))
	for i, o := range opts {
		ids[i] = o.ID
	}
	return ids, nil
}

func (s *Service) musicianConflict(ctx context.Context, submitted *models.Musician) error {
	stored, err := s.db.GetMusician(ctx, submitted.ID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return conflict.DeletedReport()
		}
		return err
	}
	diffs := conflict.Diff(submitted, stored, musicianFields)
	return conflict.NewReport(diffs, stored.RowVersion)
}

// DeleteMusician removes a musician under the version token and purges
// the cascaded uploads from the sink.
func (s *Service) DeleteMusician(ctx context.Context, id int64, token models.Version) error {
	handles, err := s.db.DeleteMusician(ctx, id, token)
	if err != nil {
		return err
	}
	s.purge(handles)
	s.publish("musician", "deleted", id)
	return nil
}

// InstrumentOptionsFor lists every instrument flagged with whether the
// musician currently plays it, for the checkbox list.
func (s *Service) InstrumentOptionsFor(ctx context.Context, musicianID int64) ([]store.Option, error) {
	m, err := s.db.GetMusician(ctx, musicianID)
	if err != nil {
		return nil, err
	}
	assigned := make(map[int64]bool, len(m.Plays))
	for _, p := range m.Plays {
		assigned[p.InstrumentID] = true
	}
	opts, err := s.db.InstrumentOptions(ctx)
	if err != nil {
		return nil, err
	}
	for i := range opts {
		opts[i].Assigned = assigned[opts[i].ID]
	}
	return opts, nil
}

// AssignInstruments reconciles the musician's plays against the
// submitted selection without touching the musician row itself.
func (s *Service) AssignInstruments(ctx context.Context, musicianID int64, instrumentIDs []int64) error {
	delta, err := s.playsDelta(ctx, musicianID, instrumentIDs)
	if err != nil {
		return err
	}
	if err := s.db.ApplyPlays(ctx, musicianID, delta); err != nil {
		return err
	}
	if !delta.Empty() {
		s.publish("musician", "updated", musicianID)
	}
	return nil
}

// InstrumentPlayers lists every musician flagged with whether they play
// the given instrument, for the dual listbox on the instrument side.
func (s *Service) InstrumentPlayers(ctx context.Context, instrumentID int64) ([]store.Option, error) {
	if _, err := s.db.GetInstrument(ctx, instrumentID); err != nil {
		return nil, err
	}
	playing, err := s.db.InstrumentPlayerIDs(ctx, instrumentID)
	if err != nil {
		return nil, err
	}
	assigned := make(map[int64]bool, len(playing))
	for _, id := range playing {
		assigned[id] = true
	}
	opts, err := s.db.MusicianOptions(ctx)
	if err != nil {
		return nil, err
	}
	for i := range opts {
		opts[i].Assigned = assigned[opts[i].ID]
	}
	return opts, nil
}

// AssignPlayers reconciles which musicians play an instrument against
// the submitted selection, the instrument-side half of the plays
// association.
func (s *Service) AssignPlayers(ctx context.Context, instrumentID int64, musicianIDs []int64) error {
	if _, err := s.db.GetInstrument(ctx, instrumentID); err != nil {
		return err
	}
	current, err := s.db.InstrumentPlayerIDs(ctx, instrumentID)
	if err != nil {
		return err
	}
	universe, err := s.db.MusicianIDs(ctx)
	if err != nil {
		return err
	}
	delta := reconcile.Assignments(musicianIDs, universe, current,
		func(id int64) int64 { return id },
		func(id int64) int64 { return id })
	if err := s.db.ApplyInstrumentPlayers(ctx, instrumentID, delta); err != nil {
		return err
	}
	if !delta.Empty() {
		s.publish("instrument", "updated", instrumentID)
	}
	return nil
}
