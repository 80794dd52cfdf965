// one-time-pass
// Copyright 2026 Ayumu Iida
// This program is free software licensed under the GNU General Public License,
// version 3.0. The full text of the license can be found in LICENSE.txt.
// SPDX-License-Identifier: GPL-3.0-only

// otpfwd-authorize runs the one-time interactive consent flow: it prints
// an authorization URL, waits for the OAuth callback on a local HTTP
// server, exchanges the consent code, and persists the resulting refresh
// token to the token store for otpfwd and otpfwd-watch to use.
package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"

	"github.com/AyumuIIDA/one-time-pass/pkg/auth"
	"github.com/AyumuIIDA/one-time-pass/pkg/config"
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
	if cfg.OAuthRedirectURL == "" || cfg.OAuthListenAddr == "" {
		fmt.Fprintf(os.Stderr, "missing OAuthRedirectURL or OAuthListenAddr\n")
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

	clientSecret, err := os.ReadFile(cfg.CredentialsPath)
	if err != nil {
		log.Fatal("Failed to read client secret", zap.Error(err))
	}
	oauthConfig, err := google.ConfigFromJSON(clientSecret, gmail.GmailModifyScope, gmail.GmailSendScope)
	if err != nil {
		log.Fatal("Failed to load API config", zap.Error(err))
	}
	oauthConfig.RedirectURL = cfg.OAuthRedirectURL

	ctx := context.Background()
	server := runConsentServer(ctx, cfg.OAuthListenAddr, log)

	url, codeCh := server.requestCode(oauthConfig)
	log.Info("Open this URL in your browser", zap.String("url", url))

	code := <-codeCh
	log.Info("Received code, exchanging for token")
	token, err := oauthConfig.Exchange(ctx, code)
	if err != nil {
		log.Fatal("Failed to exchange code", zap.Error(err))
	}
	if token.RefreshToken == "" {
		log.Warn("Token has no refresh token; revoke access and authorize again")
	}

	ts, err := auth.ReadTokenStore(cfg.TokenStorePath)
	if err != nil {
		log.Fatal("Failed to read token store", zap.Error(err))
	}
	ts.Tokens[cfg.Account] = token
	if err := ts.Save(cfg.TokenStorePath); err != nil {
		log.Fatal("Failed to save token store", zap.Error(err))
	}

	log.Info("Authorization complete",
		zap.String("account", cfg.Account),
		zap.String("tokenStore", cfg.TokenStorePath))
}
