package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/starford/ensemble/internal/apperr"
	"github.com/starford/ensemble/internal/listquery"
	"github.com/starford/ensemble/internal/models"
	"github.com/starford/ensemble/internal/reconcile"
)

// MusicianFilter carries the recognised musician list filters. Nil or
// empty members are ignored.
type MusicianFilter struct {
	SearchName        string
	SearchPhone       string
	InstrumentID      *int64 // primary instrument
	OtherInstrumentID *int64 // any played instrument
}

// MusicianSortOptions are the sortable column headings of the musician
// list. Ties break on last then first name; the name sort itself
// follows the requested direction on both keys.
var MusicianSortOptions = []listquery.SortOption{
	{Name: "Musician", Expr: "m.last_name", TieBreak: []string{"m.first_name"}, TieFollows: true},
	{Name: "Phone", Expr: "m.phone", TieBreak: []string{"m.last_name", "m.first_name"}},
	{Name: "Age", Expr: "m.dob", Invert: true, TieBreak: []string{"m.last_name", "m.first_name"}},
	{Name: "Instruments", Expr: "i.name", TieBreak: []string{"m.last_name", "m.first_name"}},
}

const musicianColumns = `m.id, m.first_name, m.middle_name, m.last_name, m.phone, m.dob, m.sin,
	m.instrument_id, i.name, m.row_version,
	EXISTS (SELECT 1 FROM photos ph WHERE ph.musician_id = m.id)`

const musicianFrom = ` FROM musicians m JOIN instruments i ON i.id = m.instrument_id`

// ListMusicians runs the full list pipeline: filter, sort, count, page.
func (db *DB) ListMusicians(ctx context.Context, q listquery.Query, filter MusicianFilter) (listquery.Page[models.Musician], listquery.Resolved, int, error) {
	var none listquery.Page[models.Musician]
	if q.PageSize < 1 {
		return none, listquery.Resolved{}, 0, fmt.Errorf("store: page size %d: %w", q.PageSize, apperr.ErrInvalidArgument)
	}

	var f listquery.Filters
	if filter.InstrumentID != nil {
		f.Equal("m.instrument_id", *filter.InstrumentID)
	}
	if filter.OtherInstrumentID != nil {
		f.Exists("SELECT 1 FROM plays p WHERE p.musician_id = m.id AND p.instrument_id = ?", *filter.OtherInstrumentID)
	}
	f.ContainsFoldAny(filter.SearchName, "m.last_name", "m.first_name")
	f.ContainsFold("m.phone", filter.SearchPhone)
	where, args := f.Where()

	resolved := listquery.ResolveSort(q, MusicianSortOptions, "Musician")

	total, err := db.count(ctx, musicianFrom+where, args)
	if err != nil {
		return none, resolved, f.Applied(), err
	}
	page := listquery.ClampPage(resolved.Page, q.PageSize, total)
	resolved.Page = page
	limit, offset := listquery.Window(page, q.PageSize)

	query := `SELECT ` + musicianColumns + musicianFrom + where +
		` ORDER BY ` + resolved.OrderBy + ` LIMIT ? OFFSET ?`
	rows, err := db.conn.QueryContext(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return none, resolved, f.Applied(), fmt.Errorf("store: list musicians: %w", err)
	}
	defer rows.Close()

	var items []models.Musician
	for rows.Next() {
		m, err := scanMusician(rows)
		if err != nil {
			return none, resolved, f.Applied(), err
		}
		items = append(items, *m)
	}
	if err := rows.Err(); err != nil {
		return none, resolved, f.Applied(), fmt.Errorf("store: list musicians: %w", err)
	}
	if err := db.attachPlays(ctx, items); err != nil {
		return none, resolved, f.Applied(), err
	}
	return listquery.NewPage(items, page, q.PageSize, total), resolved, f.Applied(), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMusician(r rowScanner) (*models.Musician, error) {
	var m models.Musician
	var version []byte
	if err := r.Scan(&m.ID, &m.FirstName, &m.MiddleName, &m.LastName, &m.Phone, &m.DOB, &m.SIN,
		&m.InstrumentID, &m.Instrument, &version, &m.HasPhoto); err != nil {
		return nil, fmt.Errorf("store: scan musician: %w", err)
	}
	m.RowVersion = version
	return &m, nil
}

// attachPlays loads the played-instrument associations for a page of
// musicians in one query.
func (db *DB) attachPlays(ctx context.Context, items []models.Musician) error {
	if len(items) == 0 {
		return nil
	}
	placeholders := make([]string, len(items))
	args := make([]any, len(items))
	index := make(map[int64]*models.Musician, len(items))
	for i := range items {
		placeholders[i] = "?"
		args[i] = items[i].ID
		index[items[i].ID] = &items[i]
	}
	rows, err := db.conn.QueryContext(ctx, `
		SELECT p.musician_id, p.instrument_id, i.name
		FROM plays p JOIN instruments i ON i.id = p.instrument_id
		WHERE p.musician_id IN (`+strings.Join(placeholders, ", ")+`)
		ORDER BY i.name`, args...)
	if err != nil {
		return fmt.Errorf("store: load plays: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var play models.Play
		if err := rows.Scan(&play.MusicianID, &play.InstrumentID, &play.Instrument); err != nil {
			return fmt.Errorf("store: scan play: %w", err)
		}
		if m, ok := index[play.MusicianID]; ok {
			m.Plays = append(m.Plays, play)
		}
	}
	return rows.Err()
}

// GetMusician fetches one musician with plays and photo flag.
func (db *DB) GetMusician(ctx context.Context, id int64) (*models.Musician, error) {
	row := db.conn.QueryRowContext(ctx, `SELECT `+musicianColumns+musicianFrom+` WHERE m.id = ?`, id)
	m, err := scanMusician(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	items := []models.Musician{*m}
	if err := db.attachPlays(ctx, items); err != nil {
		return nil, err
	}
	return &items[0], nil
}

// CreateMusician inserts a musician and their initial plays in one
// transaction and assigns the first version token.
func (db *DB) CreateMusician(ctx context.Context, m *models.Musician, playIDs []int64) error {
	token := newToken()
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	res, err := tx.ExecContext(ctx, `
		INSERT INTO musicians (first_name, middle_name, last_name, phone, dob, sin, instrument_id, row_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		m.FirstName, m.MiddleName, m.LastName, m.Phone, m.DOB, m.SIN, m.InstrumentID, []byte(token))
	if err != nil {
		if uerr := uniqueErr(err, "musicians.sin"); uerr != nil {
			return uerr
		}
		return fmt.Errorf("store: insert musician: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("store: musician id: %w", err)
	}
	for _, instrumentID := range playIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO plays (musician_id, instrument_id) VALUES (?, ?)`, id, instrumentID); err != nil {
			return fmt.Errorf("store: insert play: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit: %w", err)
	}
	m.ID = id
	m.RowVersion = token
	return nil
}

// UpdateMusician writes the scalar fields under the version-token
// precondition and applies the plays delta in the same transaction.
// On success the musician carries the fresh token.
func (db *DB) UpdateMusician(ctx context.Context, m *models.Musician, delta reconcile.Delta[models.Play]) error {
	token := newToken()
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx, `
		UPDATE musicians
		SET first_name = ?, middle_name = ?, last_name = ?, phone = ?, dob = ?, sin = ?,
		    instrument_id = ?, row_version = ?
		WHERE id = ? AND row_version = ?`,
		m.FirstName, m.MiddleName, m.LastName, m.Phone, m.DOB, m.SIN, m.InstrumentID,
		[]byte(token), m.ID, []byte(m.RowVersion))
	if err != nil {
		if uerr := uniqueErr(err, "musicians.sin"); uerr != nil {
			return uerr
		}
		return fmt.Errorf("store: update musician: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: rows affected: %w", err)
	}
	if affected == 0 {
		return db.checkVersioned(ctx, "musicians", m.ID)
	}

	if err := applyPlaysDelta(ctx, tx, m.ID, delta); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit: %w", err)
	}
	m.RowVersion = token
	return nil
}

// ApplyPlays applies a plays delta on its own, for the dedicated
// assignment endpoint.
func (db *DB) ApplyPlays(ctx context.Context, musicianID int64, delta reconcile.Delta[models.Play]) error {
	if delta.Empty() {
		return nil
	}
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck
	if err := applyPlaysDelta(ctx, tx, musicianID, delta); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit: %w", err)
	}
	return nil
}

func applyPlaysDelta(ctx context.Context, tx *sql.Tx, musicianID int64, delta reconcile.Delta[models.Play]) error {
	for _, play := range delta.ToRemove {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM plays WHERE musician_id = ? AND instrument_id = ?`,
			musicianID, play.InstrumentID); err != nil {
			return fmt.Errorf("store: remove play: %w", err)
		}
	}
	for _, play := range delta.ToAdd {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO plays (musician_id, instrument_id) VALUES (?, ?)`,
			musicianID, play.InstrumentID); err != nil {
			return fmt.Errorf("store: add play: %w", err)
		}
	}
	return nil
}

// ApplyInstrumentPlayers applies a player delta from the instrument
// side, where the reconciled ids are musicians.
func (db *DB) ApplyInstrumentPlayers(ctx context.Context, instrumentID int64, delta reconcile.Delta[int64]) error {
	if delta.Empty() {
		return nil
	}
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck
	for _, musicianID := range delta.ToRemove {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM plays WHERE musician_id = ? AND instrument_id = ?`,
			musicianID, instrumentID); err != nil {
			return fmt.Errorf("store: remove play: %w", err)
		}
	}
	for _, musicianID := range delta.ToAdd {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO plays (musician_id, instrument_id) VALUES (?, ?)`,
			musicianID, instrumentID); err != nil {
			return fmt.Errorf("store: add play: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit: %w", err)
	}
	return nil
}

// DeleteMusician removes a musician under the version-token
// precondition. Documents, photos, and plays cascade; performances
// block the delete. It returns the sink handles of any cascaded files
// so the caller can purge them.
func (db *DB) DeleteMusician(ctx context.Context, id int64, token models.Version) ([]string, error) {
	handles, err := db.musicianHandles(ctx, id)
	if err != nil {
		return nil, err
	}
	res, err := db.conn.ExecContext(ctx,
		`DELETE FROM musicians WHERE id = ? AND row_version = ?`, id, []byte(token))
	if err != nil {
		if ierr := integrityErr(err, "Musician", "Performance"); ierr != nil {
			return nil, ierr
		}
		return nil, fmt.Errorf("store: delete musician: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("store: rows affected: %w", err)
	}
	if affected == 0 {
		return nil, db.checkVersioned(ctx, "musicians", id)
	}
	return handles, nil
}

// musicianHandles collects the sink handles owned by a musician's
// documents and photo.
func (db *DB) musicianHandles(ctx context.Context, id int64) ([]string, error) {
	var handles []string
	rows, err := db.conn.QueryContext(ctx, `SELECT handle FROM documents WHERE musician_id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("store: document handles: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			return nil, err
		}
		handles = append(handles, h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	var photo, thumb string
	err = db.conn.QueryRowContext(ctx,
		`SELECT handle, thumb_handle FROM photos WHERE musician_id = ?`, id).Scan(&photo, &thumb)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return nil, fmt.Errorf("store: photo handles: %w", err)
	default:
		handles = append(handles, photo, thumb)
	}
	return handles, nil
}
