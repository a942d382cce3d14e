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

var albumFields = []conflict.Field[models.Album]{
	{Name: "name", Compare: func(a *models.Album) string { return a.Name }},
	{Name: "yearProduced", Compare: func(a *models.Album) string { return a.YearProduced }},
	{
		Name:    "price",
		Compare: func(a *models.Album) string { return strconv.FormatFloat(a.Price, 'f', 2, 64) },
		Display: func(a *models.Album) string { return "$" + strconv.FormatFloat(a.Price, 'f', 2, 64) },
	},
	{
		Name:    "genreId",
		Compare: func(a *models.Album) string { return strconv.FormatInt(a.GenreID, 10) },
		Display: func(a *models.Album) string { return a.Genre },
	},
}

// ListGenres returns all genres ordered by name.
func (s *Service) ListGenres(ctx context.Context) ([]models.Genre, error) {
	return s.db.ListGenres(ctx)
}

// GetGenre fetches one genre.
func (s *Service) GetGenre(ctx context.Context, id int64) (*models.Genre, error) {
	return s.db.GetGenre(ctx, id)
}

// CreateGenre validates and inserts a genre.
func (s *Service) CreateGenre(ctx context.Context, g *models.Genre) error {
	if err := g.Validate(); err != nil {
		return err
	}
	if err := s.db.CreateGenre(ctx, g); err != nil {
		return err
	}
	s.publish("genre", "created", g.ID)
	return nil
}

// UpdateGenre validates and saves a genre. Genres carry no version
// token; last write wins.
func (s *Service) UpdateGenre(ctx context.Context, g *models.Genre) error {
	if err := g.Validate(); err != nil {
		return err
	}
	if err := s.db.UpdateGenre(ctx, g); err != nil {
		return err
	}
	s.publish("genre", "updated", g.ID)
	return nil
}

// DeleteGenre removes a genre unless an album references it.
func (s *Service) DeleteGenre(ctx context.Context, id int64) error {
	if err := s.db.DeleteGenre(ctx, id); err != nil {
		return err
	}
	s.publish("genre", "deleted", id)
	return nil
}

// ListInstruments returns all instruments ordered by name.
func (s *Service) ListInstruments(ctx context.Context) ([]models.Instrument, error) {
	return s.db.ListInstruments(ctx)
}

// GetInstrument fetches one instrument.
func (s *Service) GetInstrument(ctx context.Context, id int64) (*models.Instrument, error) {
	return s.db.GetInstrument(ctx, id)
}

// CreateInstrument validates and inserts an instrument.
func (s *Service) CreateInstrument(ctx context.Context, i *models.Instrument) error {
	if err := i.Validate(); err != nil {
		return err
	}
	if err := s.db.CreateInstrument(ctx, i); err != nil {
		return err
	}
	s.publish("instrument", "created", i.ID)
	return nil
}

// UpdateInstrument validates and saves an instrument.
func (s *Service) UpdateInstrument(ctx context.Context, i *models.Instrument) error {
	if err := i.Validate(); err != nil {
		return err
	}
	if err := s.db.UpdateInstrument(ctx, i); err != nil {
		return err
	}
	s.publish("instrument", "updated", i.ID)
	return nil
}

// DeleteInstrument removes an instrument unless a musician plays it.
func (s *Service) DeleteInstrument(ctx context.Context, id int64) error {
	if err := s.db.DeleteInstrument(ctx, id); err != nil {
		return err
	}
	s.publish("instrument", "deleted", id)
	return nil
}

// ListAlbums runs the album list pipeline.
func (s *Service) ListAlbums(ctx context.Context, q listquery.Query, filter store.AlbumFilter) (listquery.Page[models.Album], listquery.Resolved, int, error) {
	return s.db.ListAlbums(ctx, q, filter)
}

// GetAlbum fetches one album.
func (s *Service) GetAlbum(ctx context.Context, id int64) (*models.Album, error) {
	return s.db.GetAlbum(ctx, id)
}

// CreateAlbum validates and inserts an album.
func (s *Service) CreateAlbum(ctx context.Context, a *models.Album) error {
	if err := a.Validate(); err != nil {
		return err
	}
	if err := s.db.CreateAlbum(ctx, a); err != nil {
		return err
	}
	s.publish("album", "created", a.ID)
	return nil
}

// UpdateAlbum validates and saves an album under the version-token
// precondition.
func (s *Service) UpdateAlbum(ctx context.Context, a *models.Album) error {
	if err := a.Validate(); err != nil {
		return err
	}
	if err := s.db.UpdateAlbum(ctx, a); err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			return s.albumConflict(ctx, a)
		}
		return err
	}
	s.publish("album", "updated", a.ID)
	return nil
}

func (s *Service) albumConflict(ctx context.Context, submitted *models.Album) error {
	stored, err := s.db.GetAlbum(ctx, submitted.ID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return conflict.DeletedReport()
		}
		return err
	}
	diffs := conflict.Diff(submitted, stored, albumFields)
	return conflict.NewReport(diffs, stored.RowVersion)
}

// DeleteAlbum removes an album under the version token unless a song
// references it.
func (s *Service) DeleteAlbum(ctx context.Context, id int64, token models.Version) error {
	if err := s.db.DeleteAlbum(ctx, id, token); err != nil {
		return err
	}
	s.publish("album", "deleted", id)
	return nil
}
