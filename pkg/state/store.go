// one-time-pass
// Copyright 2026 Ayumu Iida
// This program is free software licensed under the GNU General Public License,
// version 3.0. The full text of the license can be found in LICENSE.txt.
// SPDX-License-Identifier: GPL-3.0-only

// Package state persists the reconciliation cursor, the per-notification
// dedup locks, and the failure ledger.
package state

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// Store is the persistence surface used by the reconciler.
type Store interface {
	// Cursor returns the last fully reconciled history position. ok is
	// false when no notification has ever been reconciled.
	Cursor(ctx context.Context) (historyID string, ok bool, err error)

	// SetCursor overwrites the cursor. Last writer wins; there is no
	// coupling to the lock.
	SetCursor(ctx context.Context, historyID string) error

	// AcquireLock records historyID in the seen set. It returns
	// alreadyLocked=true without writing when the id was recorded before.
	// The insert is atomic against concurrent callers: of any number of
	// simultaneous acquisitions for the same id, exactly one observes
	// alreadyLocked=false. Locks are permanent; there is no release.
	AcquireLock(ctx context.Context, historyID string) (alreadyLocked bool, err error)

	// RecordFailure appends a reconciliation failure to the ledger. The
	// push endpoint acknowledges deliveries unconditionally, so the ledger
	// is the durable trace of dropped notifications.
	RecordFailure(ctx context.Context, historyID, message string) error

	Close() error
}

// Open selects a Store implementation from a DSN. A postgres:// URL opens
// Postgres, "memory:" opens a non-durable in-process store, and anything
// else is treated as a SQLite database path.
func Open(dsn string) (Store, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, fmt.Errorf("state: empty DSN")
	}
	if parsed, err := url.Parse(dsn); err == nil {
		switch strings.ToLower(parsed.Scheme) {
		case "postgres", "postgresql":
			return openSQL("postgres", dsn)
		case "memory", "mem":
			return NewMemoryStore(), nil
		}
	}
	return openSQL("sqlite", dsn)
}
