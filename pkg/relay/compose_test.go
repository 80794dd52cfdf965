// one-time-pass
// Copyright 2026 Ayumu Iida
// This program is free software licensed under the GNU General Public License,
// version 3.0. The full text of the license can be found in LICENSE.txt.
// SPDX-License-Identifier: GPL-3.0-only

package relay

import (
	"encoding/base64"
	"io"
	"strings"
	"testing"

	"github.com/emersion/go-message/mail"
)

func TestComposeForward(t *testing.T) {
	raw, err := ComposeForward("me@example.com", "phone@example.com", "Login code", "998877")
	if err != nil {
		t.Fatal(err)
	}

	// The provider transport encoding is URL-safe base64 without padding.
	decoded, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		t.Fatalf("raw message is not unpadded URL-safe base64: %v", err)
	}

	r, err := mail.CreateReader(strings.NewReader(string(decoded)))
	if err != nil {
		t.Fatalf("parse composed message: %v", err)
	}
	from, err := r.Header.AddressList("From")
	if err != nil || len(from) != 1 || from[0].Address != "me@example.com" {
		t.Errorf("From = %v (err %v)", from, err)
	}
	to, err := r.Header.AddressList("To")
	if err != nil || len(to) != 1 || to[0].Address != "phone@example.com" {
		t.Errorf("To = %v (err %v)", to, err)
	}
	subject, err := r.Header.Subject()
	if err != nil || subject != "Login code" {
		t.Errorf("Subject = %q (err %v)", subject, err)
	}

	part, err := r.NextPart()
	if err != nil {
		t.Fatalf("read body part: %v", err)
	}
	body, err := io.ReadAll(part.Body)
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimSpace(string(body)); got != "998877" {
		t.Errorf("body = %q, expected only the passcode", got)
	}
}

func TestComposeForwardKeepsSubject(t *testing.T) {
	raw, err := ComposeForward("me@example.com", "phone@example.com", "【重要】ログインコード", "1234")
	if err != nil {
		t.Fatal(err)
	}
	decoded, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		t.Fatal(err)
	}
	r, err := mail.CreateReader(strings.NewReader(string(decoded)))
	if err != nil {
		t.Fatal(err)
	}
	subject, err := r.Header.Subject()
	if err != nil || subject != "【重要】ログインコード" {
		t.Errorf("Subject = %q (err %v)", subject, err)
	}
}
