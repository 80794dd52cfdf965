// one-time-pass
// Copyright 2026 Ayumu Iida
// This program is free software licensed under the GNU General Public License,
// version 3.0. The full text of the license can be found in LICENSE.txt.
// SPDX-License-Identifier: GPL-3.0-only

package push

import (
	"bytes"
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
)

type testReconciler struct {
	historyIDs []string
	err        error
}

func (r *testReconciler) Reconcile(ctx context.Context, historyID string) error {
	r.historyIDs = append(r.historyIDs, historyID)
	return r.err
}

type testFailureSink struct {
	records []string
}

func (f *testFailureSink) RecordFailure(ctx context.Context, historyID, message string) error {
	f.records = append(f.records, historyID)
	return nil
}

func postPush(t *testing.T, handler http.Handler, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", "/", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestPushInvokesReconciler(t *testing.T) {
	r := &testReconciler{}
	f := &testFailureSink{}
	srv := NewServer(r, f, zap.NewNop())

	rec := postPush(t, srv.Handler(), envelopeFor(t, `{"historyId":555}`))
	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("expected empty body, got %q", rec.Body.String())
	}
	if len(r.historyIDs) != 1 || r.historyIDs[0] != "555" {
		t.Errorf("reconciled %v", r.historyIDs)
	}
	if len(f.records) != 0 {
		t.Errorf("unexpected failure records: %v", f.records)
	}
}

func TestPushAcksWithoutHistoryID(t *testing.T) {
	r := &testReconciler{}
	srv := NewServer(r, &testFailureSink{}, zap.NewNop())

	for i, body := range [][]byte{
		[]byte(`{}`),
		[]byte(`garbage`),
		envelopeFor(t, `{"emailAddress":"me@example.com"}`),
	} {
		rec := postPush(t, srv.Handler(), body)
		if rec.Code != http.StatusNoContent {
			t.Errorf("case %d: status = %d", i, rec.Code)
		}
	}
	if len(r.historyIDs) != 0 {
		t.Errorf("reconciler invoked for empty pushes: %v", r.historyIDs)
	}
}

func TestPushAcksReconcileFailure(t *testing.T) {
	r := &testReconciler{err: errors.New("provider down")}
	f := &testFailureSink{}
	srv := NewServer(r, f, zap.NewNop())

	rec := postPush(t, srv.Handler(), envelopeFor(t, `{"historyId":777}`))
	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, delivery must still be acknowledged", rec.Code)
	}
	if len(f.records) != 1 || f.records[0] != "777" {
		t.Errorf("failure records = %v", f.records)
	}
}

// ctxAwareReconciler and ctxAwareSink fail like their real counterparts
// when handed an already-cancelled context.
type ctxAwareReconciler struct{}

func (ctxAwareReconciler) Reconcile(ctx context.Context, historyID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return errors.New("provider down")
}

type ctxAwareSink struct {
	records []string
}

func (f *ctxAwareSink) RecordFailure(ctx context.Context, historyID, message string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.records = append(f.records, historyID)
	return nil
}

func TestPushRecordsFailureAfterClientDisconnect(t *testing.T) {
	f := &ctxAwareSink{}
	srv := NewServer(ctxAwareReconciler{}, f, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest("POST", "/", bytes.NewReader(envelopeFor(t, `{"historyId":777}`))).WithContext(ctx)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d", rec.Code)
	}
	if len(f.records) != 1 || f.records[0] != "777" {
		t.Errorf("failure records = %v, a dropped connection must not lose the ledger write", f.records)
	}
}

func TestPushAcksOversizedBody(t *testing.T) {
	r := &testReconciler{}
	srv := NewServer(r, &testFailureSink{}, zap.NewNop())

	rec := postPush(t, srv.Handler(), bytes.Repeat([]byte("a"), maxPushBytes+1))
	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d", rec.Code)
	}
	if len(r.historyIDs) != 0 {
		t.Errorf("reconciler invoked for oversized push: %v", r.historyIDs)
	}
}

type blockingReconciler struct {
	entered chan struct{}
	release chan struct{}
}

func (r *blockingReconciler) Reconcile(ctx context.Context, historyID string) error {
	close(r.entered)
	<-r.release
	return nil
}

func TestRunDrainsInFlightPush(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := ln.Addr().String()
	ln.Close()

	r := &blockingReconciler{entered: make(chan struct{}), release: make(chan struct{})}
	srv := NewServer(r, &testFailureSink{}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	srv.Run(ctx, addr)

	body := envelopeFor(t, `{"historyId":555}`)
	type result struct {
		code int
		err  error
	}
	done := make(chan result, 1)
	go func() {
		var resp *http.Response
		var err error
		for i := 0; i < 50; i++ {
			resp, err = http.Post("http://"+addr+"/", "application/json", bytes.NewReader(body))
			if err == nil {
				break
			}
			time.Sleep(20 * time.Millisecond)
		}
		if err != nil {
			done <- result{err: err}
			return
		}
		resp.Body.Close()
		done <- result{code: resp.StatusCode}
	}()

	<-r.entered
	cancel()
	time.Sleep(50 * time.Millisecond)
	close(r.release)

	res := <-done
	if res.err != nil {
		t.Fatalf("push request: %v", res.err)
	}
	if res.code != http.StatusNoContent {
		t.Errorf("status = %d, shutdown must drain the in-flight push", res.code)
	}
}

func TestPushRejectsOtherMethods(t *testing.T) {
	srv := NewServer(&testReconciler{}, &testFailureSink{}, zap.NewNop())
	req := httptest.NewRequest("GET", "/", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code == http.StatusNoContent {
		t.Errorf("GET acknowledged, status = %d", rec.Code)
	}
}
