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

// PerformanceFilter carries the recognised performance list filters.
type PerformanceFilter struct {
	SearchString string // comments containment
	SongID       *int64
	MusicianID   *int64
	InstrumentID *int64
}

// PerformanceSortOptions are the sortable column headings of the
// performance list.
var PerformanceSortOptions = []listquery.SortOption{
	{Name: "Song", Expr: "s.title"},
	{Name: "Musician", Expr: "m.last_name", TieBreak: []string{"m.first_name"}, TieFollows: true},
	{Name: "Instrument", Expr: "i.name", TieBreak: []string{"m.last_name", "m.first_name"}},
	{Name: "Fee Paid", Expr: "p.fee_paid"},
}

const performanceColumns = `p.id, p.song_id, s.title, p.musician_id,
	m.last_name || ', ' || m.first_name, p.instrument_id, i.name, p.fee_paid, p.comments, p.row_version`

const performanceFrom = ` FROM performances p
	JOIN songs s ON s.id = p.song_id
	JOIN musicians m ON m.id = p.musician_id
	JOIN instruments i ON i.id = p.instrument_id`

// ListPerformances runs the performance list pipeline.
func (db *DB) ListPerformances(ctx context.Context, q listquery.Query, filter PerformanceFilter) (listquery.Page[models.Performance], listquery.Resolved, int, error) {
	var none listquery.Page[models.Performance]
	if q.PageSize < 1 {
		return none, listquery.Resolved{}, 0, fmt.Errorf("store: page size %d: %w", q.PageSize, apperr.ErrInvalidArgument)
	}

	var f listquery.Filters
	if filter.SongID != nil {
		f.Equal("p.song_id", *filter.SongID)
	}
	if filter.MusicianID != nil {
		f.Equal("p.musician_id", *filter.MusicianID)
	}
	if filter.InstrumentID != nil {
		f.Equal("p.instrument_id", *filter.InstrumentID)
	}
	f.ContainsFold("p.comments", filter.SearchString)
	where, args := f.Where()

	resolved := listquery.ResolveSort(q, PerformanceSortOptions, "Song")

	total, err := db.count(ctx, performanceFrom+where, args)
	if err != nil {
		return none, resolved, f.Applied(), err
	}
	page := listquery.ClampPage(resolved.Page, q.PageSize, total)
	resolved.Page = page
	limit, offset := listquery.Window(page, q.PageSize)

	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+performanceColumns+performanceFrom+where+` ORDER BY `+resolved.OrderBy+` LIMIT ? OFFSET ?`,
		append(args, limit, offset)...)
	if err != nil {
		return none, resolved, f.Applied(), fmt.Errorf("store: list performances: %w", err)
	}
	defer rows.Close()

	var items []models.Performance
	for rows.Next() {
		p, err := scanPerformance(rows)
		if err != nil {
			return none, resolved, f.Applied(), err
		}
		items = append(items, *p)
	}
	if err := rows.Err(); err != nil {
		return none, resolved, f.Applied(), fmt.Errorf("store: list performances: %w", err)
	}
	return listquery.NewPage(items, page, q.PageSize, total), resolved, f.Applied(), nil
}

func scanPerformance(r rowScanner) (*models.Performance, error) {
	var p models.Performance
	var version []byte
	if err := r.Scan(&p.ID, &p.SongID, &p.SongTitle, &p.MusicianID, &p.Musician,
		&p.InstrumentID, &p.Instrument, &p.FeePaid, &p.Comments, &version); err != nil {
		return nil, fmt.Errorf("store: scan performance: %w", err)
	}
	p.RowVersion = version
	return &p, nil
}

// GetPerformance fetches one performance.
func (db *DB) GetPerformance(ctx context.Context, id int64) (*models.Performance, error) {
	row := db.conn.QueryRowContext(ctx, `SELECT `+performanceColumns+performanceFrom+` WHERE p.id = ?`, id)
	p, err := scanPerformance(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

// CreatePerformance inserts a performance; the (song, musician,
// instrument) triple is unique.
func (db *DB) CreatePerformance(ctx context.Context, p *models.Performance) error {
	token := newToken()
	res, err := db.conn.ExecContext(ctx, `
		INSERT INTO performances (song_id, musician_id, instrument_id, fee_paid, comments, row_version)
		VALUES (?, ?, ?, ?, ?, ?)`,
		p.SongID, p.MusicianID, p.InstrumentID, p.FeePaid, p.Comments, []byte(token))
	if err != nil {
		if uerr := uniqueErr(err, "performances.song_musician_instrument"); uerr != nil {
			return uerr
		}
		return fmt.Errorf("store: insert performance: %w", err)
	}
	p.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("store: performance id: %w", err)
	}
	p.RowVersion = token
	return nil
}

// UpdatePerformance writes the performance under the version-token
// precondition. The song cannot change, matching the add/update flow
// the form offers.
func (db *DB) UpdatePerformance(ctx context.Context, p *models.Performance) error {
	token := newToken()
	res, err := db.conn.ExecContext(ctx, `
		UPDATE performances SET musician_id = ?, instrument_id = ?, fee_paid = ?, comments = ?, row_version = ?
		WHERE id = ? AND row_version = ?`,
		p.MusicianID, p.InstrumentID, p.FeePaid, p.Comments, []byte(token), p.ID, []byte(p.RowVersion))
	if err != nil {
		if uerr := uniqueErr(err, "performances.song_musician_instrument"); uerr != nil {
			return uerr
		}
		return fmt.Errorf("store: update performance: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return db.checkVersioned(ctx, "performances", p.ID)
	}
	p.RowVersion = token
	return nil
}

// DeletePerformance removes a performance under the version-token
// precondition.
func (db *DB) DeletePerformance(ctx context.Context, id int64, token models.Version) error {
	res, err := db.conn.ExecContext(ctx,
		`DELETE FROM performances WHERE id = ? AND row_version = ?`, id, []byte(token))
	if err != nil {
		return fmt.Errorf("store: delete performance: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return db.checkVersioned(ctx, "performances", id)
	}
	return nil
}

// PerformanceSummaries aggregates fee statistics per musician, ordered
// by formal name.
func (db *DB) PerformanceSummaries(ctx context.Context) ([]models.PerformanceSummary, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT m.id, m.last_name || ', ' || m.first_name,
		       COUNT(p.id), AVG(p.fee_paid), MAX(p.fee_paid), MIN(p.fee_paid)
		FROM performances p
		JOIN musicians m ON m.id = p.musician_id
		GROUP BY m.id
		ORDER BY m.last_name, m.first_name`)
	if err != nil {
		return nil, fmt.Errorf("store: performance summaries: %w", err)
	}
	defer rows.Close()
	var out []models.PerformanceSummary
	for rows.Next() {
		var s models.PerformanceSummary
		if err := rows.Scan(&s.MusicianID, &s.FormalName, &s.Performances,
			&s.AverageFee, &s.HighestFee, &s.LowestFee); err != nil {
			return nil, fmt.Errorf("store: scan summary: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
