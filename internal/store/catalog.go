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

// Genres and instruments are small lookup sets: listed whole, ordered
// by name, no version tokens.

// ListGenres returns every genre ordered by name.
func (db *DB) ListGenres(ctx context.Context) ([]models.Genre, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT id, name FROM genres ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("store: list genres: %w", err)
	}
	defer rows.Close()
	var out []models.Genre
	for rows.Next() {
		var g models.Genre
		if err := rows.Scan(&g.ID, &g.Name); err != nil {
			return nil, fmt.Errorf("store: scan genre: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// GetGenre fetches one genre.
func (db *DB) GetGenre(ctx context.Context, id int64) (*models.Genre, error) {
	var g models.Genre
	err := db.conn.QueryRowContext(ctx, `SELECT id, name FROM genres WHERE id = ?`, id).Scan(&g.ID, &g.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get genre: %w", err)
	}
	return &g, nil
}

// CreateGenre inserts a genre.
func (db *DB) CreateGenre(ctx context.Context, g *models.Genre) error {
	res, err := db.conn.ExecContext(ctx, `INSERT INTO genres (name) VALUES (?)`, g.Name)
	if err != nil {
		return fmt.Errorf("store: insert genre: %w", err)
	}
	g.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("store: genre id: %w", err)
	}
	return nil
}

// UpdateGenre renames a genre.
func (db *DB) UpdateGenre(ctx context.Context, g *models.Genre) error {
	res, err := db.conn.ExecContext(ctx, `UPDATE genres SET name = ? WHERE id = ?`, g.Name, g.ID)
	if err != nil {
		return fmt.Errorf("store: update genre: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// DeleteGenre removes a genre; albums (and genre-tagged songs) block
// the delete.
func (db *DB) DeleteGenre(ctx context.Context, id int64) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM genres WHERE id = ?`, id)
	if err != nil {
		if ierr := integrityErr(err, "Genre", "Album"); ierr != nil {
			return ierr
		}
		return fmt.Errorf("store: delete genre: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// ListInstruments returns every instrument ordered by name.
func (db *DB) ListInstruments(ctx context.Context) ([]models.Instrument, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT id, name FROM instruments ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("store: list instruments: %w", err)
	}
	defer rows.Close()
	var out []models.Instrument
	for rows.Next() {
		var i models.Instrument
		if err := rows.Scan(&i.ID, &i.Name); err != nil {
			return nil, fmt.Errorf("store: scan instrument: %w", err)
		}
		out = append(out, i)
	}
	return out, rows.Err()
}

// GetInstrument fetches one instrument.
func (db *DB) GetInstrument(ctx context.Context, id int64) (*models.Instrument, error) {
	var i models.Instrument
	err := db.conn.QueryRowContext(ctx, `SELECT id, name FROM instruments WHERE id = ?`, id).Scan(&i.ID, &i.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get instrument: %w", err)
	}
	return &i, nil
}

// CreateInstrument inserts an instrument.
func (db *DB) CreateInstrument(ctx context.Context, i *models.Instrument) error {
	res, err := db.conn.ExecContext(ctx, `INSERT INTO instruments (name) VALUES (?)`, i.Name)
	if err != nil {
		return fmt.Errorf("store: insert instrument: %w", err)
	}
	i.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("store: instrument id: %w", err)
	}
	return nil
}

// UpdateInstrument renames an instrument.
func (db *DB) UpdateInstrument(ctx context.Context, i *models.Instrument) error {
	res, err := db.conn.ExecContext(ctx, `UPDATE instruments SET name = ? WHERE id = ?`, i.Name, i.ID)
	if err != nil {
		return fmt.Errorf("store: update instrument: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// DeleteInstrument removes an instrument; musicians, plays, and
// performances block the delete.
func (db *DB) DeleteInstrument(ctx context.Context, id int64) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM instruments WHERE id = ?`, id)
	if err != nil {
		if ierr := integrityErr(err, "Instrument", "Musician"); ierr != nil {
			return ierr
		}
		return fmt.Errorf("store: delete instrument: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// AlbumFilter carries the recognised album list filters.
type AlbumFilter struct {
	SearchString string
	GenreID      *int64
}

// AlbumSortOptions are the sortable column headings of the album list.
var AlbumSortOptions = []listquery.SortOption{
	{Name: "Name", Expr: "a.name"},
	{Name: "Year Produced", Expr: "a.year_produced"},
	{Name: "Price", Expr: "a.price"},
	{Name: "Genre", Expr: "g.name"},
}

const albumColumns = `a.id, a.name, a.year_produced, a.price, a.genre_id, g.name, a.row_version`
const albumFrom = ` FROM albums a JOIN genres g ON g.id = a.genre_id`

// ListAlbums runs the album list pipeline.
func (db *DB) ListAlbums(ctx context.Context, q listquery.Query, filter AlbumFilter) (listquery.Page[models.Album], listquery.Resolved, int, error) {
	var none listquery.Page[models.Album]
	if q.PageSize < 1 {
		return none, listquery.Resolved{}, 0, fmt.Errorf("store: page size %d: %w", q.PageSize, apperr.ErrInvalidArgument)
	}

	var f listquery.Filters
	if filter.GenreID != nil {
		f.Equal("a.genre_id", *filter.GenreID)
	}
	f.ContainsFold("a.name", filter.SearchString)
	where, args := f.Where()

	resolved := listquery.ResolveSort(q, AlbumSortOptions, "Name")

	total, err := db.count(ctx, albumFrom+where, args)
	if err != nil {
		return none, resolved, f.Applied(), err
	}
	page := listquery.ClampPage(resolved.Page, q.PageSize, total)
	resolved.Page = page
	limit, offset := listquery.Window(page, q.PageSize)

	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+albumColumns+albumFrom+where+` ORDER BY `+resolved.OrderBy+` LIMIT ? OFFSET ?`,
		append(args, limit, offset)...)
	if err != nil {
		return none, resolved, f.Applied(), fmt.Errorf("store: list albums: %w", err)
	}
	defer rows.Close()

	var items []models.Album
	for rows.Next() {
		a, err := scanAlbum(rows)
		if err != nil {
			return none, resolved, f.Applied(), err
		}
		items = append(items, *a)
	}
	if err := rows.Err(); err != nil {
		return none, resolved, f.Applied(), fmt.Errorf("store: list albums: %w", err)
	}
	return listquery.NewPage(items, page, q.PageSize, total), resolved, f.Applied(), nil
}

func scanAlbum(r rowScanner) (*models.Album, error) {
	var a models.Album
	var version []byte
	if err := r.Scan(&a.ID, &a.Name, &a.YearProduced, &a.Price, &a.GenreID, &a.Genre, &version); err != nil {
		return nil, fmt.Errorf("store: scan album: %w", err)
	}
	a.RowVersion = version
	return &a, nil
}

// GetAlbum fetches one album.
func (db *DB) GetAlbum(ctx context.Context, id int64) (*models.Album, error) {
	row := db.conn.QueryRowContext(ctx, `SELECT `+albumColumns+albumFrom+` WHERE a.id = ?`, id)
	a, err := scanAlbum(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return a, nil
}

// CreateAlbum inserts an album and assigns its first version token.
func (db *DB) CreateAlbum(ctx context.Context, a *models.Album) error {
	token := newToken()
	res, err := db.conn.ExecContext(ctx, `
		INSERT INTO albums (name, year_produced, price, genre_id, row_version)
		VALUES (?, ?, ?, ?, ?)`,
		a.Name, a.YearProduced, a.Price, a.GenreID, []byte(token))
	if err != nil {
		return fmt.Errorf("store: insert album: %w", err)
	}
	a.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("store: album id: %w", err)
	}
	a.RowVersion = token
	return nil
}

// UpdateAlbum writes the album under the version-token precondition.
func (db *DB) UpdateAlbum(ctx context.Context, a *models.Album) error {
	token := newToken()
	res, err := db.conn.ExecContext(ctx, `
		UPDATE albums SET name = ?, year_produced = ?, price = ?, genre_id = ?, row_version = ?
		WHERE id = ? AND row_version = ?`,
		a.Name, a.YearProduced, a.Price, a.GenreID, []byte(token), a.ID, []byte(a.RowVersion))
	if err != nil {
		return fmt.Errorf("store: update album: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return db.checkVersioned(ctx, "albums", a.ID)
	}
	a.RowVersion = token
	return nil
}

// DeleteAlbum removes an album under the version-token precondition;
// songs block the delete.
func (db *DB) DeleteAlbum(ctx context.Context, id int64, token models.Version) error {
	res, err := db.conn.ExecContext(ctx,
		`DELETE FROM albums WHERE id = ? AND row_version = ?`, id, []byte(token))
	if err != nil {
		if ierr := integrityErr(err, "Album", "Song"); ierr != nil {
			return ierr
		}
		return fmt.Errorf("store: delete album: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return db.checkVersioned(ctx, "albums", id)
	}
	return nil
}
