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

// DocumentFilter carries the recognised document list filters.
type DocumentFilter struct {
	SearchString string // file name containment
	MusicianID   *int64
}

const documentColumns = `d.id, d.musician_id, m.last_name || ', ' || m.first_name,
	d.file_name, d.mime_type, d.description, d.handle, d.etag, d.size`

const documentFrom = ` FROM documents d JOIN musicians m ON m.id = d.musician_id`

// ListDocuments pages the document list. The order is fixed by file
// name; documents have no sort buttons.
func (db *DB) ListDocuments(ctx context.Context, q listquery.Query, filter DocumentFilter) (listquery.Page[models.Document], int, error) {
	var none listquery.Page[models.Document]
	if q.PageSize < 1 {
		return none, 0, fmt.Errorf("store: page size %d: %w", q.PageSize, apperr.ErrInvalidArgument)
	}

	var f listquery.Filters
	if filter.MusicianID != nil {
		f.Equal("d.musician_id", *filter.MusicianID)
	}
	f.ContainsFold("d.file_name", filter.SearchString)
	where, args := f.Where()

	total, err := db.count(ctx, documentFrom+where, args)
	if err != nil {
		return none, f.Applied(), err
	}
	page := listquery.ClampPage(q.Page, q.PageSize, total)
	limit, offset := listquery.Window(page, q.PageSize)

	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+documentColumns+documentFrom+where+` ORDER BY d.file_name LIMIT ? OFFSET ?`,
		append(args, limit, offset)...)
	if err != nil {
		return none, f.Applied(), fmt.Errorf("store: list documents: %w", err)
	}
	defer rows.Close()

	var items []models.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return none, f.Applied(), err
		}
		items = append(items, *d)
	}
	if err := rows.Err(); err != nil {
		return none, f.Applied(), fmt.Errorf("store: list documents: %w", err)
	}
	return listquery.NewPage(items, page, q.PageSize, total), f.Applied(), nil
}

func scanDocument(r rowScanner) (*models.Document, error) {
	var d models.Document
	if err := r.Scan(&d.ID, &d.MusicianID, &d.Musician, &d.FileName, &d.MimeType,
		&d.Description, &d.Handle, &d.ETag, &d.Size); err != nil {
		return nil, fmt.Errorf("store: scan document: %w", err)
	}
	return &d, nil
}

// GetDocument fetches one document's metadata.
func (db *DB) GetDocument(ctx context.Context, id int64) (*models.Document, error) {
	row := db.conn.QueryRowContext(ctx, `SELECT `+documentColumns+documentFrom+` WHERE d.id = ?`, id)
	d, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return d, nil
}

// CreateDocument records an uploaded file against a musician.
func (db *DB) CreateDocument(ctx context.Context, d *models.Document) error {
	res, err := db.conn.ExecContext(ctx, `
		INSERT INTO documents (musician_id, file_name, mime_type, description, handle, etag, size)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		d.MusicianID, d.FileName, d.MimeType, d.Description, d.Handle, d.ETag, d.Size)
	if err != nil {
		return fmt.Errorf("store: insert document: %w", err)
	}
	d.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("store: document id: %w", err)
	}
	return nil
}

// UpdateDocument rewrites the editable metadata: file name,
// description, and owning musician. Content is immutable.
func (db *DB) UpdateDocument(ctx context.Context, d *models.Document) error {
	res, err := db.conn.ExecContext(ctx, `
		UPDATE documents SET file_name = ?, description = ?, musician_id = ? WHERE id = ?`,
		d.FileName, d.Description, d.MusicianID, d.ID)
	if err != nil {
		return fmt.Errorf("store: update document: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// DeleteDocument removes a document row and returns the sink handle so
// the caller can purge the bytes.
func (db *DB) DeleteDocument(ctx context.Context, id int64) (string, error) {
	var handle string
	err := db.conn.QueryRowContext(ctx, `SELECT handle FROM documents WHERE id = ?`, id).Scan(&handle)
	if errors.Is(err, sql.ErrNoRows) {
		return "", apperr.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("store: document handle: %w", err)
	}
	if _, err := db.conn.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id); err != nil {
		return "", fmt.Errorf("store: delete document: %w", err)
	}
	return handle, nil
}

// GetPhoto fetches a musician's photo record.
func (db *DB) GetPhoto(ctx context.Context, musicianID int64) (*models.Photo, error) {
	var p models.Photo
	err := db.conn.QueryRowContext(ctx,
		`SELECT musician_id, handle, thumb_handle, mime_type FROM photos WHERE musician_id = ?`, musicianID).
		Scan(&p.MusicianID, &p.Handle, &p.ThumbHandle, &p.MimeType)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get photo: %w", err)
	}
	return &p, nil
}

// SetPhoto inserts or replaces a musician's photo record and returns
// the handles of the replaced renditions, if any.
func (db *DB) SetPhoto(ctx context.Context, p *models.Photo) ([]string, error) {
	old, err := db.GetPhoto(ctx, p.MusicianID)
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}
	_, err = db.conn.ExecContext(ctx, `
		INSERT INTO photos (musician_id, handle, thumb_handle, mime_type)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(musician_id) DO UPDATE SET
			handle       = excluded.handle,
			thumb_handle = excluded.thumb_handle,
			mime_type    = excluded.mime_type`,
		p.MusicianID, p.Handle, p.ThumbHandle, p.MimeType)
	if err != nil {
		return nil, fmt.Errorf("store: set photo: %w", err)
	}
	if old == nil {
		return nil, nil
	}
	return []string{old.Handle, old.ThumbHandle}, nil
}

// DeletePhoto removes a musician's photo record and returns the
// replaced handles. A missing photo is not an error.
func (db *DB) DeletePhoto(ctx context.Context, musicianID int64) ([]string, error) {
	old, err := db.GetPhoto(ctx, musicianID)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if _, err := db.conn.ExecContext(ctx, `DELETE FROM photos WHERE musician_id = ?`, musicianID); err != nil {
		return nil, fmt.Errorf("store: delete photo: %w", err)
	}
	return []string{old.Handle, old.ThumbHandle}, nil
}
