// one-time-pass
// Copyright 2026 Ayumu Iida
// This program is free software licensed under the GNU General Public License,
// version 3.0. The full text of the license can be found in LICENSE.txt.
// SPDX-License-Identifier: GPL-3.0-only

// Package push receives Gmail Pub/Sub push deliveries.
package push

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// Notification is the decoded Gmail watch event.
type Notification struct {
	EmailAddress string `json:"emailAddress"`
	// HistoryID accepts both the string and numeric forms Pub/Sub has
	// delivered over time.
	HistoryID json.Number `json:"historyId"`
}

type envelope struct {
	Message *struct {
		Data string `json:"data"`
	} `json:"message"`
	Subscription string `json:"subscription"`
}

// DecodeEnvelope unwraps a Pub/Sub push body into a Notification. A body
// without a message payload yields (nil, nil); a payload that fails to
// decode yields an error. Callers treat both as "nothing to reconcile",
// but only the latter is worth logging.
func DecodeEnvelope(body []byte) (*Notification, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	if env.Message == nil || env.Message.Data == "" {
		return nil, nil
	}
	data, err := base64.StdEncoding.DecodeString(env.Message.Data)
	if err != nil {
		return nil, fmt.Errorf("decode message data: %w", err)
	}
	var notif Notification
	if err := json.Unmarshal(data, &notif); err != nil {
		return nil, fmt.Errorf("decode notification: %w", err)
	}
	return &notif, nil
}
