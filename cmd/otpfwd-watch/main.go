// one-time-pass
// Copyright 2026 Ayumu Iida
// This program is free software licensed under the GNU General Public License,
// version 3.0. The full text of the license can be found in LICENSE.txt.
// SPDX-License-Identifier: GPL-3.0-only

// otpfwd-watch subscribes the mailbox INBOX to the configured Pub/Sub
// topic so that Gmail delivers push notifications to otpfwd. The watch
// expires after about a week; re-run this binary to renew it.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/AyumuIIDA/one-time-pass/pkg/auth"
	"github.com/AyumuIIDA/one-time-pass/pkg/config"
	"github.com/AyumuIIDA/one-time-pass/pkg/version"
)

func main() {
	stop := flag.Bool("stop", false, "stop the mailbox watch instead of registering one")
	check := flag.Bool("check", false, "print the mailbox profile and exit")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Usage: %s [-stop|-check] config.json\n", os.Args[0])
		os.Exit(1)
	}

	if flag.Arg(0) == "version" {
		fmt.Print(version.VersionString)
		os.Exit(0)
	}

	cfg, err := config.Load(flag.Arg(0))
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

	ctx := context.Background()

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
		option.WithUserAgent("otpfwd-watch"))
	if err != nil {
		log.Fatal("Failed to create GMail client", zap.Error(err))
	}

	switch {
	case *check:
		profile, err := svc.Users.GetProfile("me").Context(ctx).Do()
		if err != nil {
			log.Fatal("Failed to get profile", zap.Error(err))
		}
		log.Info("Profile",
			zap.String("emailAddress", profile.EmailAddress),
			zap.Uint64("historyId", profile.HistoryId),
			zap.Int64("messagesTotal", profile.MessagesTotal))

	case *stop:
		if err := svc.Users.Stop("me").Context(ctx).Do(); err != nil {
			log.Fatal("Failed to stop watch", zap.Error(err))
		}
		log.Info("Watch stopped")

	default:
		if cfg.PubSubTopic == "" {
			log.Fatal("Missing PubSubTopic in config")
		}
		res, err := svc.Users.Watch("me", &gmail.WatchRequest{
			TopicName:         cfg.PubSubTopic,
			LabelIds:          []string{"INBOX"},
			LabelFilterAction: "include",
		}).Context(ctx).Do()
		if err != nil {
			log.Fatal("Failed to register watch", zap.Error(err))
		}
		log.Info("Watch registered",
			zap.String("topic", cfg.PubSubTopic),
			zap.Uint64("historyId", res.HistoryId),
			zap.Int64("expiration", res.Expiration))
	}
}
