// Package history records finished downloads in a SQLite database so they
// can be listed and re-run. Re-running a link overwrites its previous row.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"linkgrab/internal/media"
)

// Status of a recorded download.
const (
	StatusCompleted = "completed"
	StatusPartial   = "partial"
	StatusFailed    = "failed"
)

// Entry is one recorded download, keyed by the link it was resolved from.
type Entry struct {
	ID        int64
	SourceURL string
	Title     string
	Platform  string
	Kind      media.Kind
	TargetDir string
	// Path is the video file, empty for image sets.
	Path   string
	Status string
	Err    string

	Succeeded int
	Skipped   int
	Failed    int

	UpdatedAt time.Time
}

const schema = `
CREATE TABLE IF NOT EXISTS downloads (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	source_url TEXT    NOT NULL UNIQUE,
	title      TEXT    NOT NULL DEFAULT '',
	platform   TEXT    NOT NULL DEFAULT '',
	kind       TEXT    NOT NULL DEFAULT 'video',
	target_dir TEXT    NOT NULL DEFAULT '',
	path       TEXT    NOT NULL DEFAULT '',
	status     TEXT    NOT NULL DEFAULT '',
	error      TEXT    NOT NULL DEFAULT '',
	succeeded  INTEGER NOT NULL DEFAULT 0,
	skipped    INTEGER NOT NULL DEFAULT 0,
	failed     INTEGER NOT NULL DEFAULT 0,
	updated_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS downloads_updated ON downloads (updated_at DESC);
`

// Store is a handle on the history database.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating history dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening history: %w", err)
	}
	// one writer at a time; SQLite would otherwise return SQLITE_BUSY
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating history schema: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save inserts e, or replaces the entry with the same SourceURL. It sets
// e.ID and e.UpdatedAt.
func (s *Store) Save(ctx context.Context, e *Entry) error {
	if e.SourceURL == "" {
		return errors.New("history entry has no source URL")
	}
	e.UpdatedAt = s.now()

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO downloads (source_url, title, platform, kind, target_dir, path,
			status, error, succeeded, skipped, failed, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (source_url) DO UPDATE SET
			title = excluded.title,
			platform = excluded.platform,
			kind = excluded.kind,
			target_dir = excluded.target_dir,
			path = excluded.path,
			status = excluded.status,
			error = excluded.error,
			succeeded = excluded.succeeded,
			skipped = excluded.skipped,
			failed = excluded.failed,
			updated_at = excluded.updated_at
		RETURNING id`,
		e.SourceURL, e.Title, e.Platform, e.Kind.String(), e.TargetDir, e.Path,
		e.Status, e.Err, e.Succeeded, e.Skipped, e.Failed, e.UpdatedAt.UnixMilli(),
	).Scan(&e.ID)
	if err != nil {
		return fmt.Errorf("saving history: %w", err)
	}
	return nil
}

const columns = `id, source_url, title, platform, kind, target_dir, path,
	status, error, succeeded, skipped, failed, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (Entry, error) {
	var (
		e       Entry
		kind    string
		updated int64
	)
	err := row.Scan(&e.ID, &e.SourceURL, &e.Title, &e.Platform, &kind, &e.TargetDir, &e.Path,
		&e.Status, &e.Err, &e.Succeeded, &e.Skipped, &e.Failed, &updated)
	if err != nil {
		return Entry{}, err
	}
	e.Kind = media.ParseKind(kind)
	e.UpdatedAt = time.UnixMilli(updated)
	return e, nil
}

// Load returns all entries, most recently updated first.
func (s *Store) Load(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+columns+` FROM downloads ORDER BY updated_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("loading history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("reading history row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading history: %w", err)
	}
	return entries, nil
}

// Get returns the entry for sourceURL. ok is false if there is none.
func (s *Store) Get(ctx context.Context, sourceURL string) (e Entry, ok bool, err error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+columns+` FROM downloads WHERE source_url = ?`, sourceURL)
	e, err = scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("reading history: %w", err)
	}
	return e, true, nil
}

// Remove deletes the entry for sourceURL and reports whether it existed.
func (s *Store) Remove(ctx context.Context, sourceURL string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM downloads WHERE source_url = ?`, sourceURL)
	if err != nil {
		return false, fmt.Errorf("removing history entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("removing history entry: %w", err)
	}
	return n > 0, nil
}

// FormatForDisplay creates display strings for fzf selection from history entries.
func FormatForDisplay(entries []Entry) []string {
	items := make([]string, 0, len(entries))
	for _, e := range entries {
		display := fmt.Sprintf("[%s] %s", e.Platform, e.Title)
		if e.Kind == media.ImageSet {
			display += fmt.Sprintf(" (%d images", e.Succeeded+e.Skipped)
			if e.Failed > 0 {
				display += fmt.Sprintf(", %d failed", e.Failed)
			}
			display += ")"
		}
		if e.Status != StatusCompleted && e.Status != "" {
			display += " !" + e.Status
		}
		display += "  " + e.UpdatedAt.Format("2006-01-02 15:04")
		items = append(items, display)
	}
	return items
}
