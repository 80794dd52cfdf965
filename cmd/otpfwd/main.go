// one-time-pass
// Copyright 2026 Ayumu Iida
// This program is free software licensed under the GNU General Public License,
// version 3.0. The full text of the license can be found in LICENSE.txt.
// SPDX-License-Identifier: GPL-3.0-only

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/AyumuIIDA/one-time-pass/pkg/auth"
	"github.com/AyumuIIDA/one-time-pass/pkg/config"
	"github.com/AyumuIIDA/one-time-pass/pkg/mailbox"
	"github.com/AyumuIIDA/one-time-pass/pkg/push"
	"github.com/AyumuIIDA/one-time-pass/pkg/relay"
	"github.com/AyumuIIDA/one-time-pass/pkg/state"
	"github.com/AyumuIIDA/one-time-pass/pkg/version"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s config.json\n", os.Args[0])
		os.Exit(1)
	}

	if os.Args[1] == "version" {
		fmt.Print(version.VersionString)
		os.Exit(0)
	}

	cfg, err := config.Load(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(2)
	}

	logConfig := zap.NewDevelopmentConfig()
	logConfig.Development = false
	logConfig.DisableStacktrace = true
	logConfig.Level.SetLevel(zap.InfoLevel)
	log, err := logConfig.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "create logger: %v\n", err)
		os.Exit(3)
	}

	log.Info("Starting otpfwd")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	store, err := state.Open(cfg.StateDSN)
	if err != nil {
		log.Fatal("Failed to open state store", zap.Error(err))
	}
	defer store.Close()

	clientSecret, err := os.ReadFile(cfg.CredentialsPath)
	if err != nil {
		log.Fatal("Failed to read client secret", zap.Error(err))
	}
	oauthConfig, err := google.ConfigFromJSON(clientSecret, gmail.GmailModifyScope, gmail.GmailSendScope)
	if err != nil {
		log.Fatal("Failed to load API config", zap.Error(err))
	}
	tokenSource, err := auth.TokenSource(ctx, oauthConfig, cfg.TokenStorePath, cfg.Account)
	if err != nil {
		log.Fatal("Failed to load token", zap.Error(err))
	}

	svc, err := gmail.NewService(ctx,
		option.WithHTTPClient(oauth2.NewClient(ctx, tokenSource)),
		option.WithUserAgent("otpfwd"))
	if err != nil {
		log.Fatal("Failed to create GMail client", zap.Error(err))
	}

	extractor, err := relay.NewPasscodeExtractor(cfg.PasscodeMarker)
	if err != nil {
		log.Fatal("Invalid passcode marker", zap.Error(err))
	}

	reconciler := &relay.Service{
		Client:   mailbox.NewGoogleClient(svc),
		Store:    store,
		Log:      log,
		Filter:   relay.Filter{SelfAddress: cfg.SelfAddress, TargetAddress: cfg.TargetAddress},
		Passcode: extractor,

		SelfAddress: cfg.SelfAddress,
		ForwardTo:   cfg.ForwardTo,
		LabelName:   cfg.CheckedLabel,
		PageSize:    cfg.HistoryPageSize,
	}

	push.NewServer(reconciler, store, log).Run(ctx, cfg.ListenAddr)

	<-ctx.Done()
	log.Info("Shutting down")
}
