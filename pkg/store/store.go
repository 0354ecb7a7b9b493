// Package store manages the SQLite-backed append-only event log.
//
// Every mutation in the system is represented as one row in a single
// events table; nothing else is ever written transactionally. SQLite runs
// in WAL mode so the engine actor's writer and any concurrent readers
// (CLI inspection commands, a future HTTP surface) never block each
// other.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/elfiee/elfiee/pkg/model"
	"github.com/elfiee/elfiee/pkg/vclock"

	_ "modernc.org/sqlite"
)

// Store manages the SQLite connection backing one archive's event log.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the SQLite database at path and ensures the
// events schema exists.
func New(path string) (*Store, error) {
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(60000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error { return s.db.Close() }

// retryOnContention wraps retryOp from retry.go with the default config.
// All store write operations should use this to handle transient SQLite
// errors (BUSY, LOCKED, IOERR_SHORT_READ) under concurrent access.
func retryOnContention(fn func() error) error {
	return retryOp(defaultRetryConfig, fn)
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS events (
		event_id  TEXT PRIMARY KEY,
		entity    TEXT NOT NULL,
		attribute TEXT NOT NULL,
		value     TEXT NOT NULL,
		timestamp TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_entity ON events(entity);
	CREATE INDEX IF NOT EXISTS idx_events_attribute ON events(attribute);
	`
	_, err := s.db.Exec(schema)
	return err
}

// AppendEvent inserts one event row. The caller is responsible for having
// already stamped e.Timestamp and stripped any runtime-only fields from
// e.Value.
func (s *Store) AppendEvent(e model.Event) error {
	ts, err := json.Marshal(e.Timestamp)
	if err != nil {
		return fmt.Errorf("marshal timestamp: %w", err)
	}
	return retryOnContention(func() error {
		_, err := s.db.Exec(
			`INSERT INTO events (event_id, entity, attribute, value, timestamp) VALUES (?, ?, ?, ?, ?)`,
			e.EventID, e.Entity, e.Attribute, string(e.Value), string(ts),
		)
		return err
	})
}

// AppendEvents inserts a batch of events in a single transaction, so a
// multi-event command commits atomically or not at all.
func (s *Store) AppendEvents(events []model.Event) error {
	if len(events) == 0 {
		return nil
	}
	return retryOnContention(func() error {
		tx, err := s.db.Begin()
		if err != nil {
			return err
		}
		defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

		stmt, err := tx.Prepare(
			`INSERT INTO events (event_id, entity, attribute, value, timestamp) VALUES (?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, e := range events {
			ts, err := json.Marshal(e.Timestamp)
			if err != nil {
				return fmt.Errorf("marshal timestamp: %w", err)
			}
			if _, err := stmt.Exec(e.EventID, e.Entity, e.Attribute, string(e.Value), string(ts)); err != nil {
				return err
			}
		}
		return tx.Commit()
	})
}

// GetAllEvents returns every event in insertion order (rowid order, which
// SQLite preserves for an INTEGER-free TEXT primary key table as physical
// insertion order in the absence of vacuum/rewrite).
func (s *Store) GetAllEvents() ([]model.Event, error) {
	rows, err := s.db.Query(
		`SELECT event_id, entity, attribute, value, timestamp FROM events ORDER BY rowid ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEvents(rows)
}

// GetEventsByEntity returns every event recorded against a single entity
// (a block ID or editor ID), in insertion order.
func (s *Store) GetEventsByEntity(entity string) ([]model.Event, error) {
	rows, err := s.db.Query(
		`SELECT event_id, entity, attribute, value, timestamp FROM events WHERE entity = ? ORDER BY rowid ASC`,
		entity,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEvents(rows)
}

// GetEventsByAttribute returns every event whose attribute matches exactly
// (the canonical "{editor_id}/{cap_id}" form), in insertion order.
func (s *Store) GetEventsByAttribute(attribute string) ([]model.Event, error) {
	rows, err := s.db.Query(
		`SELECT event_id, entity, attribute, value, timestamp FROM events WHERE attribute = ? ORDER BY rowid ASC`,
		attribute,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEvents(rows)
}

// CountEvents returns the total number of events in the log.
func (s *Store) CountEvents() int64 {
	var count int64
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM events`).Scan(&count); err != nil {
		return 0
	}
	return count
}

func scanEvents(rows *sql.Rows) ([]model.Event, error) {
	var events []model.Event
	for rows.Next() {
		var e model.Event
		var value, ts string
		if err := rows.Scan(&e.EventID, &e.Entity, &e.Attribute, &value, &ts); err != nil {
			return nil, err
		}
		if !json.Valid([]byte(value)) {
			return nil, model.DecodeError(fmt.Sprintf("value for event %s", e.EventID), fmt.Errorf("not valid JSON"))
		}
		e.Value = json.RawMessage(value)
		var clock vclock.Clock
		if err := json.Unmarshal([]byte(ts), &clock); err != nil {
			return nil, model.DecodeError(fmt.Sprintf("timestamp for event %s", e.EventID), err)
		}
		e.Timestamp = clock
		events = append(events, e)
	}
	return events, rows.Err()
}
