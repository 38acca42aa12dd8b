// Package store persists browsing history, bookmarks and the theme customization in a
// local SQLite database.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// ErrClosed is returned by every operation after Close.
var ErrClosed = errors.New("store is closed")

// timeLayout sorts lexically and is understood by SQLite date functions.
const timeLayout = "2006-01-02 15:04:05.000"

const schema = `
CREATE TABLE IF NOT EXISTS history (
    id INTEGER PRIMARY KEY,
    url TEXT,
    title TEXT,
    timestamp DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS bookmarks (
    id INTEGER PRIMARY KEY,
    url TEXT,
    title TEXT
);

CREATE TABLE IF NOT EXISTS customization (
    id INTEGER PRIMARY KEY,
    bg_color TEXT,
    text_color TEXT
);
`

// HistoryEntry is one recorded navigation.
type HistoryEntry struct {
	ID        int64
	URL       string
	Title     string
	Timestamp time.Time
}

// Bookmark is a saved page.
type Bookmark struct {
	ID    int64
	URL   string
	Title string
}

// Customization is the persisted visual theme.
type Customization struct {
	ID         int64
	Background string
	Text       string
}

// Store is the SQLite-backed data store. It keeps one long-lived handle limited to a
// single connection; every statement borrows that connection for its own duration.
type Store struct {
	db  *sql.DB
	now func() time.Time

	mu     sync.RWMutex
	closed bool
}

// Open opens (creating if needed) the database at path and ensures the schema exists.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	s := &Store{db: db, now: time.Now}
	if err := s.withConn(ctx, func(conn *sql.Conn) error {
		_, err := conn.ExecContext(ctx, schema)
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return s, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// withConn runs fn on a connection acquired for this call only.
func (s *Store) withConn(ctx context.Context, fn func(*sql.Conn) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}

	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Close()

	return fn(conn)
}

// AddHistory appends a history entry stamped with the current time.
func (s *Store) AddHistory(ctx context.Context, url, title string) error {
	stamp := s.now().UTC().Format(timeLayout)
	err := s.withConn(ctx, func(conn *sql.Conn) error {
		_, err := conn.ExecContext(ctx,
			`INSERT INTO history (url, title, timestamp) VALUES (?, ?, ?)`, url, title, stamp)
		return err
	})
	if err != nil {
		return fmt.Errorf("insert history: %w", err)
	}
	return nil
}

// History lists every history entry, newest first.
func (s *Store) History(ctx context.Context) ([]HistoryEntry, error) {
	var entries []HistoryEntry
	err := s.withConn(ctx, func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx,
			`SELECT id, url, title, timestamp FROM history ORDER BY timestamp DESC, id DESC`)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var e HistoryEntry
			var url, title sql.NullString
			var stamp timestamp
			if err := rows.Scan(&e.ID, &url, &title, &stamp); err != nil {
				return err
			}
			e.URL, e.Title, e.Timestamp = url.String, title.String, stamp.Time
			entries = append(entries, e)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	return entries, nil
}

// AddBookmark appends a bookmark. The same URL may be bookmarked more than once.
func (s *Store) AddBookmark(ctx context.Context, url, title string) error {
	err := s.withConn(ctx, func(conn *sql.Conn) error {
		_, err := conn.ExecContext(ctx, `INSERT INTO bookmarks (url, title) VALUES (?, ?)`, url, title)
		return err
	})
	if err != nil {
		return fmt.Errorf("insert bookmark: %w", err)
	}
	return nil
}

// Bookmarks lists bookmarks in the order they were added.
func (s *Store) Bookmarks(ctx context.Context) ([]Bookmark, error) {
	var marks []Bookmark
	err := s.withConn(ctx, func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, `SELECT id, url, title FROM bookmarks ORDER BY id`)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var b Bookmark
			var url, title sql.NullString
			if err := rows.Scan(&b.ID, &url, &title); err != nil {
				return err
			}
			b.URL, b.Title = url.String, title.String
			marks = append(marks, b)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("list bookmarks: %w", err)
	}
	return marks, nil
}

// SaveCustomization replaces the stored customization with c.
func (s *Store) SaveCustomization(ctx context.Context, c Customization) error {
	err := s.withConn(ctx, func(conn *sql.Conn) error {
		tx, err := conn.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer tx.Rollback()

		if _, err := tx.ExecContext(ctx, `DELETE FROM customization`); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO customization (bg_color, text_color) VALUES (?, ?)`, c.Background, c.Text); err != nil {
			return err
		}
		return tx.Commit()
	})
	if err != nil {
		return fmt.Errorf("save customization: %w", err)
	}
	return nil
}

// Customization returns the most recent customization. ok is false when none was saved.
func (s *Store) Customization(ctx context.Context) (c Customization, ok bool, err error) {
	err = s.withConn(ctx, func(conn *sql.Conn) error {
		var bg, text sql.NullString
		row := conn.QueryRowContext(ctx,
			`SELECT id, bg_color, text_color FROM customization ORDER BY id DESC LIMIT 1`)
		switch err := row.Scan(&c.ID, &bg, &text); {
		case errors.Is(err, sql.ErrNoRows):
			return nil
		case err != nil:
			return err
		}
		c.Background, c.Text = bg.String, text.String
		ok = true
		return nil
	})
	if err != nil {
		return Customization{}, false, fmt.Errorf("load customization: %w", err)
	}
	return c, ok, nil
}

// timestamp scans the history timestamp column whether the driver hands back text or a
// time value.
type timestamp struct {
	time.Time
}

func (t *timestamp) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		t.Time = time.Time{}
		return nil
	case time.Time:
		t.Time = v
		return nil
	case string:
		return t.parse(v)
	case []byte:
		return t.parse(string(v))
	}
	return fmt.Errorf("unsupported timestamp type %T", src)
}

func (t *timestamp) parse(s string) error {
	for _, layout := range []string{timeLayout, time.DateTime, time.RFC3339Nano} {
		if parsed, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("unrecognized timestamp %q", s)
}
