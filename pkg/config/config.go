// one-time-pass
// Copyright 2026 Ayumu Iida
// This program is free software licensed under the GNU General Public License,
// version 3.0. The full text of the license can be found in LICENSE.txt.
// SPDX-License-Identifier: GPL-3.0-only

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
)

// DefaultCheckedLabel is applied to messages that have been forwarded.
const DefaultCheckedLabel = "CHECKED"

// DefaultPasscodeMarker matches a run of digits following the passcode
// marker used by the bank's mail. Exactly one capture group.
const DefaultPasscodeMarker = `【ワンタイムパスワード】([0-9]+)`

// DefaultHistoryPageSize bounds a single history.list page. The reconciler
// follows nextPageToken, so this is only a page size, not a diff limit.
const DefaultHistoryPageSize = 100

type Config struct {
	// ListenAddr is the address the Pub/Sub push endpoint listens on.
	ListenAddr string

	// StateDSN locates the cursor/lock store. A postgres:// URL selects
	// Postgres, "memory:" selects a non-durable in-process store, anything
	// else is treated as a SQLite database path.
	StateDSN string

	// CredentialsPath points at the OAuth client secret JSON downloaded
	// from the Google Cloud console.
	CredentialsPath string

	// TokenStorePath is the JSON file holding refresh tokens, written by
	// otpfwd-authorize.
	TokenStorePath string

	// Account is the watched mailbox address, used as the token store key.
	Account string

	// SelfAddress is the sender of forwarded mail. Messages whose From
	// header contains it are never processed.
	SelfAddress string

	// TargetAddress, when set, restricts processing to messages whose bare
	// sender address equals it exactly.
	TargetAddress string

	// ForwardTo receives the extracted passcodes.
	ForwardTo string

	// CheckedLabel names the label attached to processed messages.
	// Defaults to DefaultCheckedLabel.
	CheckedLabel string

	// PasscodeMarker is the passcode capture pattern. Must compile and
	// contain exactly one capture group. Defaults to DefaultPasscodeMarker.
	PasscodeMarker string

	// HistoryPageSize bounds a single history.list page.
	HistoryPageSize int64

	// PubSubTopic is the fully qualified topic the mailbox is watched
	// into, e.g. projects/<project>/topics/gmail-notify. Only used by
	// otpfwd-watch.
	PubSubTopic string

	// OAuthRedirectURL and OAuthListenAddr configure the one-time consent
	// flow run by otpfwd-authorize.
	OAuthRedirectURL string
	OAuthListenAddr  string
}

// Load reads and validates a config file, applying defaults.
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("config file: %w", err)
	}
	defer f.Close()

	var c Config
	if err := json.NewDecoder(f).Decode(&c); err != nil {
		return Config{}, fmt.Errorf("config file: %w", err)
	}
	c.ApplyDefaults()
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c *Config) ApplyDefaults() {
	if c.CheckedLabel == "" {
		c.CheckedLabel = DefaultCheckedLabel
	}
	if c.PasscodeMarker == "" {
		c.PasscodeMarker = DefaultPasscodeMarker
	}
	if c.HistoryPageSize <= 0 {
		c.HistoryPageSize = DefaultHistoryPageSize
	}
}

func (c Config) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("missing ListenAddr")
	}
	if c.StateDSN == "" {
		return fmt.Errorf("missing StateDSN")
	}
	if c.CredentialsPath == "" {
		return fmt.Errorf("missing CredentialsPath")
	}
	if c.TokenStorePath == "" {
		return fmt.Errorf("missing TokenStorePath")
	}
	if c.Account == "" {
		return fmt.Errorf("missing Account")
	}
	if c.SelfAddress == "" {
		return fmt.Errorf("missing SelfAddress")
	}
	if c.ForwardTo == "" {
		return fmt.Errorf("missing ForwardTo")
	}
	re, err := regexp.Compile(c.PasscodeMarker)
	if err != nil {
		return fmt.Errorf("invalid PasscodeMarker: %w", err)
	}
	if re.NumSubexp() != 1 {
		return fmt.Errorf("PasscodeMarker must have exactly one capture group, has %d", re.NumSubexp())
	}
	return nil
}
