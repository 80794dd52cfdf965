// one-time-pass
// Copyright 2026 Ayumu Iida
// This program is free software licensed under the GNU General Public License,
// version 3.0. The full text of the license can be found in LICENSE.txt.
// SPDX-License-Identifier: GPL-3.0-only

package push

import (
	"encoding/base64"
	"testing"
)

func envelopeFor(t *testing.T, notifJSON string) []byte {
	t.Helper()
	data := base64.StdEncoding.EncodeToString([]byte(notifJSON))
	return []byte(`{"message":{"data":"` + data + `"},"subscription":"projects/p/subscriptions/s"}`)
}

func TestDecodeEnvelope(t *testing.T) {
	notif, err := DecodeEnvelope(envelopeFor(t, `{"emailAddress":"me@example.com","historyId":12345}`))
	if err != nil {
		t.Fatal(err)
	}
	if notif == nil {
		t.Fatal("expected notification")
	}
	if notif.EmailAddress != "me@example.com" {
		t.Errorf("EmailAddress = %q", notif.EmailAddress)
	}
	if notif.HistoryID.String() != "12345" {
		t.Errorf("HistoryID = %q", notif.HistoryID.String())
	}
}

func TestDecodeEnvelopeStringHistoryID(t *testing.T) {
	notif, err := DecodeEnvelope(envelopeFor(t, `{"historyId":"67890"}`))
	if err != nil {
		t.Fatal(err)
	}
	if notif.HistoryID.String() != "67890" {
		t.Errorf("HistoryID = %q", notif.HistoryID.String())
	}
}

func TestDecodeEnvelopeAbsent(t *testing.T) {
	for i, body := range []string{
		`{}`,
		`{"message":{}}`,
		`{"message":{"data":""}}`,
		`{"subscription":"s"}`,
	} {
		notif, err := DecodeEnvelope([]byte(body))
		if err != nil {
			t.Errorf("case %d: unexpected error: %v", i, err)
		}
		if notif != nil {
			t.Errorf("case %d: expected nil notification", i)
		}
	}
}

func TestDecodeEnvelopeMalformed(t *testing.T) {
	for i, body := range []string{
		`not json`,
		`{"message":{"data":"!!not-base64!!"}}`,
		`{"message":{"data":"` + base64.StdEncoding.EncodeToString([]byte("not json either")) + `"}}`,
	} {
		notif, err := DecodeEnvelope([]byte(body))
		if err == nil {
			t.Errorf("case %d: expected decode error", i)
		}
		if notif != nil {
			t.Errorf("case %d: expected nil notification", i)
		}
	}
}
