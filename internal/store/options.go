package store

import (
	"context"
	"fmt"
)

// Option is one entry for a select or checkbox list.
type Option struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Assigned bool   `json:"assigned,omitempty"`
}

func (db *DB) options(ctx context.Context, query string, args ...any) ([]Option, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: options: %w", err)
	}
	defer rows.Close()

	var out []Option
	for rows.Next() {
		var o Option
		if err := rows.Scan(&o.ID, &o.Name); err != nil {
			return nil, fmt.Errorf("store: scan option: %w", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: options: %w", err)
	}
	return out, nil
}

// MusicianOptions lists all musicians as formal-name options.
func (db *DB) MusicianOptions(ctx context.Context) ([]Option, error) {
	return db.options(ctx,
		`SELECT id, last_name || ', ' || first_name FROM musicians ORDER BY last_name, first_name`)
}

// InstrumentOptions lists all instruments ordered by name.
func (db *DB) InstrumentOptions(ctx context.Context) ([]Option, error) {
	return db.options(ctx, `SELECT id, name FROM instruments ORDER BY name`)
}

// GenreOptions lists all genres ordered by name.
func (db *DB) GenreOptions(ctx context.Context) ([]Option, error) {
	return db.options(ctx, `SELECT id, name FROM genres ORDER BY name`)
}

// AlbumOptions lists all albums ordered by name.
func (db *DB) AlbumOptions(ctx context.Context) ([]Option, error) {
	return db.options(ctx, `SELECT id, name FROM albums ORDER BY name`)
}

// SongOptions lists all songs as "Title (Album)" options.
func (db *DB) SongOptions(ctx context.Context) ([]Option, error) {
	return db.options(ctx,
		`SELECT s.id, s.title || ' (' || a.name || ')'
		 FROM songs s JOIN albums a ON a.id = s.album_id
		 ORDER BY s.title, a.name`)
}

// InstrumentPlayerIDs returns the ids of musicians who play the given
// instrument, beyond or including their primary one.
func (db *DB) InstrumentPlayerIDs(ctx context.Context, instrumentID int64) ([]int64, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT musician_id FROM plays WHERE instrument_id = ? ORDER BY musician_id`, instrumentID)
	if err != nil {
		return nil, fmt.Errorf("store: instrument players: %w", err)
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("store: scan player id: %w", err)
		}
		out = append(out, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: instrument players: %w", err)
	}
	return out, nil
}

// MusicianIDs returns all musician ids, the assignment universe for the
// instrument-side player reconciliation.
func (db *DB) MusicianIDs(ctx context.Context) ([]int64, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT id FROM musicians ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("store: musician ids: %w", err)
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("store: scan musician id: %w", err)
		}
		out = append(out, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: musician ids: %w", err)
	}
	return out, nil
}
