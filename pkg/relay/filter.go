// one-time-pass
// Copyright 2026 Ayumu Iida
// This program is free software licensed under the GNU General Public License,
// version 3.0. The full text of the license can be found in LICENSE.txt.
// SPDX-License-Identifier: GPL-3.0-only

// Package relay implements the notification reconciliation pipeline:
// eligibility filtering, passcode extraction, forward composition, and the
// lock/cursor state machine that drives them.
package relay

import (
	"regexp"
	"strings"

	"github.com/AyumuIIDA/one-time-pass/pkg/mailbox"
)

// Signals are the header values the eligibility filter inspects.
type Signals struct {
	From          string
	Subject       string
	AutoSubmitted string
	Precedence    string
	ListID        string
}

// Filter decides whether a fetched message warrants forwarding.
type Filter struct {
	// SelfAddress excludes the system's own outbound mail.
	SelfAddress string
	// TargetAddress, when set, is the only accepted sender.
	TargetAddress string
}

var noReplyPattern = regexp.MustCompile(`(?i)no-reply`)

// Eligible applies every check; only a message passing all of them is
// forwarded.
func (f Filter) Eligible(s Signals) bool {
	if s.From == "" || s.Subject == "" {
		return false
	}
	// Never react to our own forwards.
	if f.SelfAddress != "" && strings.Contains(strings.ToLower(s.From), strings.ToLower(f.SelfAddress)) {
		return false
	}
	if auto := strings.ToLower(s.AutoSubmitted); auto != "" && auto != "no" {
		return false
	}
	precedence := strings.ToLower(s.Precedence)
	if strings.Contains(precedence, "bulk") || strings.Contains(precedence, "list") {
		return false
	}
	if s.ListID != "" {
		return false
	}
	if noReplyPattern.MatchString(s.From) {
		return false
	}
	if f.TargetAddress != "" && mailbox.BareAddress(s.From) != strings.ToLower(f.TargetAddress) {
		return false
	}
	return true
}
