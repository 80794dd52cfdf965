// one-time-pass
// Copyright 2026 Ayumu Iida
// This program is free software licensed under the GNU General Public License,
// version 3.0. The full text of the license can be found in LICENSE.txt.
// SPDX-License-Identifier: GPL-3.0-only

package mailbox

import (
	"encoding/base64"
	"strings"
)

type Header struct {
	Name  string
	Value string
}

// Part is one node of a MIME payload tree: a leaf carrying body data, a
// branch carrying child parts, or both.
type Part struct {
	MIMEType string
	Data     string // URL-safe base64 body data, empty when absent
	Parts    []*Part
}

// Message is the fetched representation of a mailbox message.
type Message struct {
	ID      string
	Headers []Header
	Payload *Part
}

// Header returns the value of the first header matching name
// case-insensitively, or "".
func (m *Message) Header(name string) string {
	for _, h := range m.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

// findPartByMIME walks the tree depth-first for a part of exactly mimeType
// that carries body data.
func findPartByMIME(p *Part, mimeType string) *Part {
	if p == nil {
		return nil
	}
	if p.MIMEType == mimeType && p.Data != "" {
		return p
	}
	for _, child := range p.Parts {
		if found := findPartByMIME(child, mimeType); found != nil {
			return found
		}
	}
	return nil
}

// ExtractText recovers the best-available body text from a payload tree:
// text/plain anywhere in the tree is preferred over text/html, regardless
// of tree order. Returns false when neither is present.
func ExtractText(payload *Part) (string, bool) {
	for _, mimeType := range []string{"text/plain", "text/html"} {
		part := findPartByMIME(payload, mimeType)
		if part == nil {
			continue
		}
		text, err := decodeBody(part.Data)
		if err != nil {
			continue
		}
		return text, true
	}
	return "", false
}

// decodeBody decodes URL-safe base64 body data, with or without padding.
func decodeBody(data string) (string, error) {
	b, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(data, "="))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// BareAddress extracts the lower-cased address from a From header: the
// text inside angle brackets, or the whole header when there are none.
func BareAddress(from string) string {
	addr := from
	if i := strings.Index(from, "<"); i >= 0 {
		if j := strings.Index(from[i:], ">"); j > 0 {
			addr = from[i+1 : i+j]
		}
	}
	return strings.ToLower(strings.TrimSpace(addr))
}
