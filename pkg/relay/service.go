// one-time-pass
// Copyright 2026 Ayumu Iida
// This program is free software licensed under the GNU General Public License,
// version 3.0. The full text of the license can be found in LICENSE.txt.
// SPDX-License-Identifier: GPL-3.0-only

package relay

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/AyumuIIDA/one-time-pass/pkg/mailbox"
	"github.com/AyumuIIDA/one-time-pass/pkg/state"
)

// Service reconciles one push notification against the mailbox change
// history. One invocation is sequential end-to-end; concurrency exists
// only across invocations, where the store's lock is the sole
// synchronization boundary.
type Service struct {
	Client   mailbox.Client
	Store    state.Store
	Log      *zap.Logger
	Filter   Filter
	Passcode *PasscodeExtractor

	// SelfAddress is the forward sender, ForwardTo its recipient.
	SelfAddress string
	ForwardTo   string

	// LabelName marks processed messages. Resolved lazily on the first
	// eligible message so that empty reconciliations touch no labels.
	LabelName string

	// PageSize bounds a single history page; the diff still runs to
	// exhaustion.
	PageSize int64
}

// Reconcile runs the state machine for one history position. Any failure
// after the lock is acquired aborts the remainder and leaves the cursor
// unadvanced; the notification is permanently absorbed by the lock either
// way.
func (s *Service) Reconcile(ctx context.Context, historyID string) error {
	log := s.Log.With(zap.String("historyId", historyID))

	alreadyLocked, err := s.Store.AcquireLock(ctx, historyID)
	if err != nil {
		return err
	}
	if alreadyLocked {
		log.Info("Duplicate delivery suppressed")
		return nil
	}

	cursor, ok, err := s.Store.Cursor(ctx)
	if err != nil {
		return err
	}
	if !ok {
		// First-ever notification: there is nothing prior to diff
		// against, so just record the position.
		if err := s.Store.SetCursor(ctx, historyID); err != nil {
			return err
		}
		log.Info("Initialized cursor")
		return nil
	}

	added, err := s.Client.HistoryAdded(ctx, cursor, s.PageSize)
	if err != nil {
		return err
	}
	ids := dedup(added)
	log.Info("History diff", zap.String("from", cursor), zap.Int("messages", len(ids)))

	labelID := ""
	for _, id := range ids {
		mlog := log.With(zap.String("id", id))

		msg, err := s.Client.GetMessage(ctx, id)
		if err != nil {
			return err
		}
		sig := Signals{
			From:          msg.Header("From"),
			Subject:       msg.Header("Subject"),
			AutoSubmitted: msg.Header("Auto-Submitted"),
			Precedence:    msg.Header("Precedence"),
			ListID:        msg.Header("List-Id"),
		}
		if !s.Filter.Eligible(sig) {
			mlog.Info("Message not eligible")
			continue
		}

		text, found := mailbox.ExtractText(msg.Payload)
		if !found {
			return fmt.Errorf("message %s: no text body", id)
		}
		passcode, err := s.Passcode.Extract(text)
		if err != nil {
			return fmt.Errorf("message %s: %w", id, err)
		}

		raw, err := ComposeForward(s.SelfAddress, s.ForwardTo, sig.Subject, passcode)
		if err != nil {
			return fmt.Errorf("message %s: %w", id, err)
		}
		if labelID == "" {
			labelID, err = s.Client.EnsureLabel(ctx, s.LabelName)
			if err != nil {
				return err
			}
		}
		if err := s.Client.SendRaw(ctx, raw); err != nil {
			return fmt.Errorf("message %s: %w", id, err)
		}
		mlog.Info("Forwarded passcode", zap.String("to", s.ForwardTo))
		if err := s.Client.AddLabel(ctx, id, labelID); err != nil {
			return fmt.Errorf("message %s: %w", id, err)
		}
	}

	// The cursor advances even when nothing matched; the diff for this
	// position has been fully consumed.
	if err := s.Store.SetCursor(ctx, historyID); err != nil {
		return err
	}
	return nil
}

// dedup keeps the first occurrence of each id, preserving order.
func dedup(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
