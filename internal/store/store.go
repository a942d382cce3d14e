// Package store provides SQLite-backed persistence for the roster and
// catalog. Every versioned table carries a row_version BLOB the store
// regenerates on each successful write; updates and deletes carry the
// token as a precondition, which is the whole optimistic-concurrency
// story — no locks are taken.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	sqlite3 "github.com/mattn/go-sqlite3"

	"github.com/starford/ensemble/internal/apperr"
	"github.com/starford/ensemble/internal/models"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS genres (
	id   INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS instruments (
	id   INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS albums (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	name          TEXT NOT NULL,
	year_produced TEXT NOT NULL DEFAULT '',
	price         REAL NOT NULL DEFAULT 0,
	genre_id      INTEGER NOT NULL REFERENCES genres(id) ON DELETE RESTRICT,
	row_version   BLOB NOT NULL
);

CREATE TABLE IF NOT EXISTS musicians (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	first_name    TEXT NOT NULL,
	middle_name   TEXT NOT NULL DEFAULT '',
	last_name     TEXT NOT NULL,
	phone         TEXT NOT NULL,
	dob           TEXT NOT NULL,
	sin           TEXT NOT NULL,
	instrument_id INTEGER NOT NULL REFERENCES instruments(id) ON DELETE RESTRICT,
	row_version   BLOB NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_musicians_sin ON musicians(sin);

CREATE TABLE IF NOT EXISTS plays (
	musician_id   INTEGER NOT NULL REFERENCES musicians(id) ON DELETE CASCADE,
	instrument_id INTEGER NOT NULL REFERENCES instruments(id) ON DELETE RESTRICT,
	PRIMARY KEY (musician_id, instrument_id)
);

CREATE TABLE IF NOT EXISTS songs (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	title         TEXT NOT NULL,
	date_recorded TEXT NOT NULL,
	album_id      INTEGER NOT NULL REFERENCES albums(id) ON DELETE RESTRICT,
	genre_id      INTEGER REFERENCES genres(id) ON DELETE RESTRICT,
	row_version   BLOB NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_songs_album_title ON songs(album_id, title);

CREATE TABLE IF NOT EXISTS performances (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	song_id       INTEGER NOT NULL REFERENCES songs(id) ON DELETE CASCADE,
	musician_id   INTEGER NOT NULL REFERENCES musicians(id) ON DELETE RESTRICT,
	instrument_id INTEGER NOT NULL REFERENCES instruments(id) ON DELETE RESTRICT,
	fee_paid      REAL NOT NULL DEFAULT 0,
	comments      TEXT NOT NULL DEFAULT '',
	row_version   BLOB NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_performances_triple
	ON performances(song_id, musician_id, instrument_id);

CREATE TABLE IF NOT EXISTS documents (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	musician_id INTEGER NOT NULL REFERENCES musicians(id) ON DELETE CASCADE,
	file_name   TEXT NOT NULL,
	mime_type   TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	handle      TEXT NOT NULL,
	etag        TEXT NOT NULL DEFAULT '',
	size        INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_documents_musician ON documents(musician_id);

CREATE TABLE IF NOT EXISTS photos (
	musician_id  INTEGER PRIMARY KEY REFERENCES musicians(id) ON DELETE CASCADE,
	handle       TEXT NOT NULL,
	thumb_handle TEXT NOT NULL,
	mime_type    TEXT NOT NULL
);
`

// DB wraps a sql.DB with roster-specific operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
// Foreign keys are enforced so RESTRICT constraints produce integrity
// errors instead of orphans.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// newToken mints a fresh opaque version token.
func newToken() models.Version {
	id := uuid.New()
	return models.Version(id[:])
}

// uniqueErr translates a driver unique-constraint failure into a
// structured error carrying the application-level constraint name.
// Each versioned table has at most one such constraint, so the call
// site knows which one fired without inspecting driver text.
func uniqueErr(err error, constraint string) error {
	var se sqlite3.Error
	if errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintUnique {
		return &apperr.UniqueError{Constraint: constraint}
	}
	return nil
}

// integrityErr translates a driver foreign-key failure on delete into
// the named "linked records" error.
func integrityErr(err error, entity, dependent string) error {
	var se sqlite3.Error
	if errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintForeignKey {
		return &apperr.IntegrityError{Entity: entity, Dependent: dependent}
	}
	return nil
}

// checkVersioned classifies a zero-rows-affected write: the row is
// either gone (not found) or its token moved on (conflict).
func (db *DB) checkVersioned(ctx context.Context, table string, id int64) error {
	var one int
	err := db.conn.QueryRowContext(ctx, `SELECT 1 FROM `+table+` WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("store: check %s: %w", table, err)
	}
	return apperr.ErrConflict
}

// count runs a COUNT(*) with the given FROM/WHERE tail.
func (db *DB) count(ctx context.Context, tail string, args []any) (int, error) {
	var total int
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) `+tail, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("store: count: %w", err)
	}
	return total, nil
}
