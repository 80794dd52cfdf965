// one-time-pass
// Copyright 2026 Ayumu Iida
// This program is free software licensed under the GNU General Public License,
// version 3.0. The full text of the license can be found in LICENSE.txt.
// SPDX-License-Identifier: GPL-3.0-only

package relay

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"time"

	"github.com/emersion/go-message/mail"
)

// ComposeForward builds the outbound forward: original subject, body
// containing only the passcode, serialized URL-safe base64 without padding
// for users.messages.send.
func ComposeForward(from, to, subject, passcode string) (string, error) {
	var h mail.Header
	h.SetDate(time.Now())
	h.SetAddressList("From", []*mail.Address{{Address: from}})
	h.SetAddressList("To", []*mail.Address{{Address: to}})
	h.SetSubject(subject)

	var buf bytes.Buffer
	w, err := mail.CreateSingleInlineWriter(&buf, h)
	if err != nil {
		return "", fmt.Errorf("compose forward: %w", err)
	}
	if _, err := io.WriteString(w, passcode); err != nil {
		w.Close()
		return "", fmt.Errorf("compose forward: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("compose forward: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf.Bytes()), nil
}
