// one-time-pass
// Copyright 2026 Ayumu Iida
// This program is free software licensed under the GNU General Public License,
// version 3.0. The full text of the license can be found in LICENSE.txt.
// SPDX-License-Identifier: GPL-3.0-only

package state

import (
	"context"
	"sync"
)

// Failure is one recorded reconciliation failure.
type Failure struct {
	HistoryID string
	Message   string
}

// MemoryStore is a non-durable Store. It exists for tests and for running
// the server without persistence (dedup then only holds per-process).
type MemoryStore struct {
	mu       sync.Mutex
	cursor   string
	hasCur   bool
	locks    map[string]struct{}
	failures []Failure
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{locks: make(map[string]struct{})}
}

func (s *MemoryStore) Cursor(ctx context.Context) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor, s.hasCur, nil
}

func (s *MemoryStore) SetCursor(ctx context.Context, historyID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursor = historyID
	s.hasCur = true
	return nil
}

func (s *MemoryStore) AcquireLock(ctx context.Context, historyID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.locks[historyID]; ok {
		return true, nil
	}
	s.locks[historyID] = struct{}{}
	return false, nil
}

func (s *MemoryStore) RecordFailure(ctx context.Context, historyID, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = append(s.failures, Failure{HistoryID: historyID, Message: message})
	return nil
}

// Failures returns a copy of the recorded failures.
func (s *MemoryStore) Failures() []Failure {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Failure, len(s.failures))
	copy(out, s.failures)
	return out
}

func (s *MemoryStore) Close() error { return nil }

var _ Store = (*MemoryStore)(nil)
