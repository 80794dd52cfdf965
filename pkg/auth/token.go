// one-time-pass
// Copyright 2026 Ayumu Iida
// This program is free software licensed under the GNU General Public License,
// version 3.0. The full text of the license can be found in LICENSE.txt.
// SPDX-License-Identifier: GPL-3.0-only

// Package auth persists OAuth tokens between the one-time consent flow and
// the long-running server.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"golang.org/x/oauth2"
)

const tokenStoreVersion = 1

type tokenMap map[string]*oauth2.Token

// TokenStore is the on-disk token file, keyed by account address. It is
// written by otpfwd-authorize and read by otpfwd and otpfwd-watch.
type TokenStore struct {
	Version int
	Tokens  tokenMap
}

// ReadTokenStore loads the store at path. A missing file yields an empty
// store.
func ReadTokenStore(path string) (*TokenStore, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &TokenStore{Version: tokenStoreVersion, Tokens: make(tokenMap)}, nil
		}
		return nil, err
	}
	defer f.Close()
	var ts *TokenStore
	if err := json.NewDecoder(f).Decode(&ts); err != nil {
		return nil, err
	}
	if ts.Version != tokenStoreVersion {
		return nil, fmt.Errorf("invalid token store version, got %d, expected %d", ts.Version, tokenStoreVersion)
	}
	return ts, nil
}

func (ts *TokenStore) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(ts)
}

// TokenSource returns a self-refreshing token source for account, backed
// by the refresh token persisted in the store at path.
func TokenSource(ctx context.Context, o2c *oauth2.Config, path, account string) (oauth2.TokenSource, error) {
	ts, err := ReadTokenStore(path)
	if err != nil {
		return nil, fmt.Errorf("read token store: %w", err)
	}
	token, ok := ts.Tokens[account]
	if !ok {
		return nil, fmt.Errorf("no token for %s in %s; run otpfwd-authorize first", account, path)
	}
	return o2c.TokenSource(ctx, token), nil
}
