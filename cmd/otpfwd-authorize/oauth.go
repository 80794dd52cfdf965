// one-time-pass
// Copyright 2026 Ayumu Iida
// This program is free software licensed under the GNU General Public License,
// version 3.0. The full text of the license can be found in LICENSE.txt.
// SPDX-License-Identifier: GPL-3.0-only

package main

import (
	"context"
	"fmt"
	"math/rand/v2"
	"net/http"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

type consentServer struct {
	log       *zap.Logger
	mu        sync.Mutex
	tokenReqs map[string]chan<- string
}

func runConsentServer(ctx context.Context, addr string, log *zap.Logger) *consentServer {
	s := &consentServer{
		log:       log,
		tokenReqs: make(map[string]chan<- string),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleRequest)
	srv := &http.Server{
		Handler: mux,
		Addr:    addr,
	}
	go func() {
		log.Info("Starting OAuth callback server", zap.String("addr", srv.Addr))
		err := srv.ListenAndServe()
		if err == http.ErrServerClosed {
			log.Info("Stopping OAuth callback server")
		} else {
			log.Error("ListenAndServe", zap.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		srv.Close()
	}()
	return s
}

// requestCode registers a state nonce and returns the authorization URL
// together with the channel the consent code will arrive on.
func (s *consentServer) requestCode(o2c *oauth2.Config) (string, <-chan string) {
	nonce := fmt.Sprintf("rd%d", rand.Int64())
	ch := make(chan string)

	s.mu.Lock()
	s.tokenReqs[nonce] = ch
	s.mu.Unlock()

	// `ApprovalForce` is needed in combination with `AccessTypeOffline` in
	// order to get a refresh token.
	url := o2c.AuthCodeURL(nonce, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	return url, ch
}

func (s *consentServer) handleRequest(rw http.ResponseWriter, req *http.Request) {
	id := req.FormValue("state")
	s.mu.Lock()
	ch, ok := s.tokenReqs[id]
	if ok {
		delete(s.tokenReqs, id)
		defer close(ch)
	}
	s.mu.Unlock()

	log := s.log.With(zap.String("id", id))

	if !ok {
		log.Error("No channel for token", zap.String("id", id))
		http.Error(rw, "Invalid State", http.StatusBadRequest)
		return
	}
	if code := req.FormValue("code"); code != "" {
		fmt.Fprintln(rw, "<h1>Authorized!</h1> You can close this window.")
		log.Info("Received authorization code")
		ch <- code
		return
	}
	log.Error("Invalid request - missing code")
	http.Error(rw, "Invalid Code", http.StatusBadRequest)
}
