package musicservice

import (
	"context"
	"errors"
	"strconv"

	"github.com/starford/ensemble/internal/apperr"
	"github.com/starford/ensemble/internal/conflict"
	"github.com/starford/ensemble/internal/listquery"
	"github.com/starford/ensemble/internal/models"
	"github.com/starford/ensemble/internal/store"
)

// performanceFields omits the song: a performance cannot move to a
// different song once recorded.
var performanceFields = []conflict.Field[models.Performance]{
	{
		Name:    "musicianId",
		Compare: func(p *models.Performance) string { return strconv.FormatInt(p.MusicianID, 10) },
		Display: func(p *models.Performance) string { return p.Musician },
	},
	{
		Name:    "instrumentId",
		Compare: func(p *models.Performance) string { return strconv.FormatInt(p.InstrumentID, 10) },
		Display: func(p *models.Performance) string { return p.Instrument },
	},
	{
		Name:    "feePaid",
		Compare: func(p *models.Performance) string { return strconv.FormatFloat(p.FeePaid, 'f', 2, 64) },
		Display: func(p *models.Performance) string { return "$" + strconv.FormatFloat(p.FeePaid, 'f', 2, 64) },
	},
	{Name: "comments", Compare: func(p *models.Performance) string { return p.Comments }},
}

// ListPerformances runs the performance list pipeline.
func (s *Service) ListPerformances(ctx context.Context, q listquery.Query, filter store.PerformanceFilter) (listquery.Page[models.Performance], listquery.Resolved, int, error) {
	return s.db.ListPerformances(ctx, q, filter)
}

// GetPerformance fetches one performance.
func (s *Service) GetPerformance(ctx context.Context, id int64) (*models.Performance, error) {
	return s.db.GetPerformance(ctx, id)
}

// CreatePerformance validates and inserts a performance.
func (s *Service) CreatePerformance(ctx context.Context, p *models.Performance) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if err := s.db.CreatePerformance(ctx, p); err != nil {
		var unique *apperr.UniqueError
		if errors.As(err, &unique) {
			return uniqueFieldError(unique)
		}
		return err
	}
	s.publish("performance", "created", p.ID)
	return nil
}

// UpdatePerformance validates and saves a performance under the
// version-token precondition. The song is immutable.
func (s *Service) UpdatePerformance(ctx context.Context, p *models.Performance) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if err := s.db.UpdatePerformance(ctx, p); err != nil {
		var unique *apperr.UniqueError
		if errors.As(err, &unique) {
			return uniqueFieldError(unique)
		}
		if errors.Is(err, apperr.ErrConflict) {
			return s.performanceConflict(ctx, p)
		}
		return err
	}
	s.publish("performance", "updated", p.ID)
	return nil
}

func (s *Service) performanceConflict(ctx context.Context, submitted *models.Performance) error {
	stored, err := s.db.GetPerformance(ctx, submitted.ID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return conflict.DeletedReport()
		}
		return err
	}
	diffs := conflict.Diff(submitted, stored, performanceFields)
	return conflict.NewReport(diffs, stored.RowVersion)
}

// DeletePerformance removes a performance under the version token.
func (s *Service) DeletePerformance(ctx context.Context, id int64, token models.Version) error {
	if err := s.db.DeletePerformance(ctx, id, token); err != nil {
		return err
	}
	s.publish("performance", "deleted", id)
	return nil
}

// PerformanceSummaries returns the per-musician fee aggregates.
func (s *Service) PerformanceSummaries(ctx context.Context) ([]models.PerformanceSummary, error) {
	return s.db.PerformanceSummaries(ctx)
}
