// one-time-pass
// Copyright 2026 Ayumu Iida
// This program is free software licensed under the GNU General Public License,
// version 3.0. The full text of the license can be found in LICENSE.txt.
// SPDX-License-Identifier: GPL-3.0-only

package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// cursorKey keys the singleton cursor row.
const cursorKey = "default"

// schema is idempotent and runs on every open. The statements are limited
// to syntax shared by SQLite and Postgres.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS otp_cursor (
		mailbox         TEXT PRIMARY KEY,
		last_history_id TEXT NOT NULL,
		updated_at      TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS otp_locks (
		history_id TEXT PRIMARY KEY,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS otp_failures (
		history_id TEXT NOT NULL,
		message    TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	)`,
}

type sqlStore struct {
	db  *sqlx.DB
	now func() time.Time
}

func openSQL(driver, dsn string) (*sqlStore, error) {
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("state: open %s: %w", driver, err)
	}
	if driver == "sqlite" {
		// SQLite permits one writer at a time; funnel every statement
		// through a single connection instead of surfacing SQLITE_BUSY.
		db.SetMaxOpenConns(1)
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("state: enable WAL: %w", err)
		}
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("state: ensure schema: %w", err)
		}
	}
	return &sqlStore{db: db, now: time.Now}, nil
}

func (s *sqlStore) Cursor(ctx context.Context) (string, bool, error) {
	var historyID string
	err := s.db.GetContext(ctx, &historyID,
		s.db.Rebind("SELECT last_history_id FROM otp_cursor WHERE mailbox = ?"), cursorKey)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("state: read cursor: %w", err)
	}
	return historyID, true, nil
}

func (s *sqlStore) SetCursor(ctx context.Context, historyID string) error {
	_, err := s.db.ExecContext(ctx, s.db.Rebind(`
		INSERT INTO otp_cursor (mailbox, last_history_id, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (mailbox)
		DO UPDATE SET last_history_id = EXCLUDED.last_history_id, updated_at = EXCLUDED.updated_at`),
		cursorKey, historyID, s.now().UTC())
	if err != nil {
		return fmt.Errorf("state: set cursor: %w", err)
	}
	return nil
}

func (s *sqlStore) AcquireLock(ctx context.Context, historyID string) (bool, error) {
	// The conflict clause makes the existence check and the insert a
	// single atomic statement; a losing concurrent caller affects no rows.
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`
		INSERT INTO otp_locks (history_id, created_at)
		VALUES (?, ?)
		ON CONFLICT (history_id) DO NOTHING`),
		historyID, s.now().UTC())
	if err != nil {
		return false, fmt.Errorf("state: acquire lock %s: %w", historyID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("state: acquire lock %s: %w", historyID, err)
	}
	return n == 0, nil
}

func (s *sqlStore) RecordFailure(ctx context.Context, historyID, message string) error {
	_, err := s.db.ExecContext(ctx, s.db.Rebind(`
		INSERT INTO otp_failures (history_id, message, created_at)
		VALUES (?, ?, ?)`),
		historyID, message, s.now().UTC())
	if err != nil {
		return fmt.Errorf("state: record failure %s: %w", historyID, err)
	}
	return nil
}

func (s *sqlStore) Close() error {
	return s.db.Close()
}

var _ Store = (*sqlStore)(nil)
