// one-time-pass
// Copyright 2026 Ayumu Iida
// This program is free software licensed under the GNU General Public License,
// version 3.0. The full text of the license can be found in LICENSE.txt.
// SPDX-License-Identifier: GPL-3.0-only

// Package mailbox provides the narrow Gmail surface the reconciler needs,
// plus the fetched-message model and body text extraction.
package mailbox

import "context"

// Client is the provider capability consumed by the reconciler.
type Client interface {
	// EnsureLabel returns the id of the named label, creating it on first
	// use.
	EnsureLabel(ctx context.Context, name string) (string, error)

	// HistoryAdded returns the ids of messages added to the mailbox after
	// startHistoryID, following pagination until the diff is exhausted.
	// A message id may appear more than once; callers deduplicate.
	HistoryAdded(ctx context.Context, startHistoryID string, pageSize int64) ([]string, error)

	// GetMessage fetches the full message, headers and payload tree.
	GetMessage(ctx context.Context, id string) (*Message, error)

	// SendRaw sends a URL-safe base64 encoded RFC 5322 message.
	SendRaw(ctx context.Context, raw string) error

	// AddLabel attaches labelID to the message. Idempotent on the
	// provider side.
	AddLabel(ctx context.Context, id, labelID string) error
}
