package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/starford/ensemble/internal/apperr"
	"github.com/starford/ensemble/internal/listquery"
	"github.com/starford/ensemble/internal/models"
)

// SongFilter carries the recognised song list filters.
type SongFilter struct {
	SearchString string // title containment
	AlbumID      *int64
	GenreID      *int64
}

// SongSortOptions are the sortable column headings of the song list.
var SongSortOptions = []listquery.SortOption{
	{Name: "Title", Expr: "s.title"},
	{Name: "Date Recorded", Expr: "s.date_recorded"},
	{Name: "Album", Expr: "al.name"},
	{Name: "Genre", Expr: "g.name"},
}

const songColumns = `s.id, s.title, s.date_recorded, s.album_id, al.name, s.genre_id,
	COALESCE(g.name, ''), s.row_version`

const songFrom = ` FROM songs s
	JOIN albums al ON al.id = s.album_id
	LEFT JOIN genres g ON g.id = s.genre_id`

// ListSongs runs the song list pipeline.
func (db *DB) ListSongs(ctx context.Context, q listquery.Query, filter SongFilter) (listquery.Page[models.Song], listquery.Resolved, int, error) {
	var none listquery.Page[models.Song]
	if q.PageSize < 1 {
		return none, listquery.Resolved{}, 0, fmt.Errorf("store: page size %d: %w", q.PageSize, apperr.ErrInvalidArgument)
	}

	var f listquery.Filters
	if filter.AlbumID != nil {
		f.Equal("s.album_id", *filter.AlbumID)
	}
	if filter.GenreID != nil {
		f.Equal("s.genre_id", *filter.GenreID)
	}
	f.ContainsFold("s.title", filter.SearchString)
	where, args := f.Where()

	resolved := listquery.ResolveSort(q, SongSortOptions, "Title")

	total, err := db.count(ctx, songFrom+where, args)
	if err != nil {
		return none, resolved, f.Applied(), err
	}
	page := listquery.ClampPage(resolved.Page, q.PageSize, total)
	resolved.Page = page
	limit, offset := listquery.Window(page, q.PageSize)

	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+songColumns+songFrom+where+` ORDER BY `+resolved.OrderBy+` LIMIT ? OFFSET ?`,
		append(args, limit, offset)...)
	if err != nil {
		return none, resolved, f.Applied(), fmt.Errorf("store: list songs: %w", err)
	}
	defer rows.Close()

	var items []models.Song
	for rows.Next() {
		s, err := scanSong(rows)
		if err != nil {
			return none, resolved, f.Applied(), err
		}
		items = append(items, *s)
	}
	if err := rows.Err(); err != nil {
		return none, resolved, f.Applied(), fmt.Errorf("store: list songs: %w", err)
	}
	return listquery.NewPage(items, page, q.PageSize, total), resolved, f.Applied(), nil
}

func scanSong(r rowScanner) (*models.Song, error) {
	var s models.Song
	var version []byte
	var genreID sql.NullInt64
	if err := r.Scan(&s.ID, &s.Title, &s.DateRecorded, &s.AlbumID, &s.Album, &genreID, &s.Genre, &version); err != nil {
		return nil, fmt.Errorf("store: scan song: %w", err)
	}
	if genreID.Valid {
		s.GenreID = &genreID.Int64
	}
	s.RowVersion = version
	return &s, nil
}

// GetSong fetches one song.
func (db *DB) GetSong(ctx context.Context, id int64) (*models.Song, error) {
	row := db.conn.QueryRowContext(ctx, `SELECT `+songColumns+songFrom+` WHERE s.id = ?`, id)
	s, err := scanSong(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return s, nil
}

// CreateSong inserts a song and assigns its first version token. The
// title is unique within its album.
func (db *DB) CreateSong(ctx context.Context, s *models.Song) error {
	token := newToken()
	res, err := db.conn.ExecContext(ctx, `
		INSERT INTO songs (title, date_recorded, album_id, genre_id, row_version)
		VALUES (?, ?, ?, ?, ?)`,
		s.Title, s.DateRecorded, s.AlbumID, nullableID(s.GenreID), []byte(token))
	if err != nil {
		if uerr := uniqueErr(err, "songs.album_title"); uerr != nil {
			return uerr
		}
		return fmt.Errorf("store: insert song: %w", err)
	}
	s.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("store: song id: %w", err)
	}
	s.RowVersion = token
	return nil
}

// UpdateSong writes the song under the version-token precondition.
func (db *DB) UpdateSong(ctx context.Context, s *models.Song) error {
	token := newToken()
	res, err := db.conn.ExecContext(ctx, `
		UPDATE songs SET title = ?, date_recorded = ?, album_id = ?, genre_id = ?, row_version = ?
		WHERE id = ? AND row_version = ?`,
		s.Title, s.DateRecorded, s.AlbumID, nullableID(s.GenreID), []byte(token), s.ID, []byte(s.RowVersion))
	if err != nil {
		if uerr := uniqueErr(err, "songs.album_title"); uerr != nil {
			return uerr
		}
		return fmt.Errorf("store: update song: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return db.checkVersioned(ctx, "songs", s.ID)
	}
	s.RowVersion = token
	return nil
}

// DeleteSong removes a song under the version-token precondition.
// Performances cascade with it.
func (db *DB) DeleteSong(ctx context.Context, id int64, token models.Version) error {
	res, err := db.conn.ExecContext(ctx,
		`DELETE FROM songs WHERE id = ? AND row_version = ?`, id, []byte(token))
	if err != nil {
		return fmt.Errorf("store: delete song: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return db.checkVersioned(ctx, "songs", id)
	}
	return nil
}

func nullableID(id *int64) any {
	if id == nil {
		return nil
	}
	return *id
}
