// one-time-pass
// Copyright 2026 Ayumu Iida
// This program is free software licensed under the GNU General Public License,
// version 3.0. The full text of the license can be found in LICENSE.txt.
// SPDX-License-Identifier: GPL-3.0-only

package push

import (
	"context"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Pub/Sub push payloads are capped at 10MB.
const maxPushBytes = 10 << 20

// shutdownGrace bounds how long an in-flight reconciliation may hold up
// server shutdown.
const shutdownGrace = 10 * time.Second

// Reconciler processes one notification position. Implemented by
// relay.Service.
type Reconciler interface {
	Reconcile(ctx context.Context, historyID string) error
}

// FailureSink durably records reconciliations that were acknowledged but
// not completed. Implemented by state.Store.
type FailureSink interface {
	RecordFailure(ctx context.Context, historyID, message string) error
}

type Server struct {
	log        *zap.Logger
	reconciler Reconciler
	failures   FailureSink
}

func NewServer(reconciler Reconciler, failures FailureSink, log *zap.Logger) *Server {
	return &Server{
		log:        log,
		reconciler: reconciler,
		failures:   failures,
	}
}

// Handler returns the push endpoint. Only POST / is served.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /{$}", s.handlePush)
	return mux
}

// Run serves the push endpoint until ctx is done.
func (s *Server) Run(ctx context.Context, addr string) {
	srv := &http.Server{
		Handler: s.Handler(),
		Addr:    addr,
	}
	go func() {
		s.log.Info("Starting push server", zap.String("addr", srv.Addr))
		err := srv.ListenAndServe()
		if err == http.ErrServerClosed {
			s.log.Info("Stopping push server")
		} else {
			s.log.Error("ListenAndServe", zap.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			srv.Close()
		}
	}()
}

// handlePush always acknowledges the delivery with 204. Pub/Sub's own
// retry policy only helps before acknowledgement; a reconciliation that
// fails after decode is logged and recorded, not retried.
func (s *Server) handlePush(rw http.ResponseWriter, req *http.Request) {
	defer rw.WriteHeader(http.StatusNoContent)

	body, err := io.ReadAll(http.MaxBytesReader(rw, req.Body, maxPushBytes))
	if err != nil {
		s.log.Error("Failed to read push body", zap.Error(err))
		return
	}

	notif, err := DecodeEnvelope(body)
	if err != nil {
		s.log.Warn("Malformed push envelope", zap.Error(err))
		return
	}
	if notif == nil || notif.HistoryID.String() == "" {
		s.log.Info("Push carried no history position")
		return
	}

	historyID := notif.HistoryID.String()
	log := s.log.With(zap.String("historyId", historyID))
	log.Info("Push received", zap.String("emailAddress", notif.EmailAddress))

	// The push sender cancels the request context once its delivery
	// deadline passes. The delivery is absorbed at decode time, so the
	// reconciliation and the failure ledger must survive that
	// disconnect.
	ctx := context.WithoutCancel(req.Context())
	if err := s.reconciler.Reconcile(ctx, historyID); err != nil {
		log.Error("Reconciliation failed", zap.Error(err))
		if rerr := s.failures.RecordFailure(ctx, historyID, err.Error()); rerr != nil {
			log.Error("Failed to record failure", zap.Error(rerr))
		}
	}
}
