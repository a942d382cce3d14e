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

var songFields = []conflict.Field[models.Song]{
	{Name: "title", Compare: func(s *models.Song) string { return s.Title }},
	{Name: "dateRecorded", Compare: func(s *models.Song) string { return s.DateRecorded }},
	{
		Name:    "albumId",
		Compare: func(s *models.Song) string { return strconv.FormatInt(s.AlbumID, 10) },
		Display: func(s *models.Song) string { return s.Album },
	},
	{
		Name: "genreId",
		Compare: func(s *models.Song) string {
			if s.GenreID == nil {
				return ""
			}
			return strconv.FormatInt(*s.GenreID, 10)
		},
		Display: func(s *models.Song) string {
			if s.GenreID == nil {
				return "None"
			}
			return s.Genre
		},
	},
}

// ListSongs runs the song list pipeline.
func (s *Service) ListSongs(ctx context.Context, q listquery.Query, filter store.SongFilter) (listquery.Page[models.Song], listquery.Resolved, int, error) {
	return s.db.ListSongs(ctx, q, filter)
}

// GetSong fetches one song.
func (s *Service) GetSong(ctx context.Context, id int64) (*models.Song, error) {
	return s.db.GetSong(ctx, id)
}

// CreateSong validates and inserts a song.
func (s *Service) CreateSong(ctx context.Context, song *models.Song) error {
	if err := song.Validate(); err != nil {
		return err
	}
	if err := s.db.CreateSong(ctx, song); err != nil {
		var unique *apperr.UniqueError
		if errors.As(err, &unique) {
			return uniqueFieldError(unique)
		}
		return err
	}
	s.publish("song", "created", song.ID)
	return nil
}

// UpdateSong validates and saves a song under the version-token
// precondition.
func (s *Service) UpdateSong(ctx context.Context, song *models.Song) error {
	if err := song.Validate(); err != nil {
		return err
	}
	if err := s.db.UpdateSong(ctx, song); err != nil {
		var unique *apperr.UniqueError
		if errors.As(err, &unique) {
			return uniqueFieldError(unique)
		}
		if errors.Is(err, apperr.ErrConflict) {
			return s.songConflict(ctx, song)
		}
		return err
	}
	s.publish("song", "updated", song.ID)
	return nil
}

func (s *Service) songConflict(ctx context.Context, submitted *models.Song) error {
	stored, err := s.db.GetSong(ctx, submitted.ID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return conflict.DeletedReport()
		}
		return err
	}
	diffs := conflict.Diff(submitted, stored, songFields)
	return conflict.NewReport(diffs, stored.RowVersion)
}

// DeleteSong removes a song under the version token; its performances
// go with it.
func (s *Service) DeleteSong(ctx context.Context, id int64, token models.Version) error {
	if err := s.db.DeleteSong(ctx, id, token); err != nil {
		return err
	}
	s.publish("song", "deleted", id)
	return nil
}
