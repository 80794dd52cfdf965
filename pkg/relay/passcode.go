// one-time-pass
// Copyright 2026 Ayumu Iida
// This program is free software licensed under the GNU General Public License,
// version 3.0. The full text of the license can be found in LICENSE.txt.
// SPDX-License-Identifier: GPL-3.0-only

package relay

import (
	"errors"
	"fmt"
	"regexp"
)

// ErrNoPasscode is returned when the marker pattern does not match an
// eligible message body.
var ErrNoPasscode = errors.New("passcode marker not found")

// PasscodeExtractor captures the one-time passcode following a marker
// pattern.
type PasscodeExtractor struct {
	re *regexp.Regexp
}

// NewPasscodeExtractor compiles pattern, which must contain exactly one
// capture group.
func NewPasscodeExtractor(pattern string) (*PasscodeExtractor, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("passcode pattern: %w", err)
	}
	if n := re.NumSubexp(); n != 1 {
		return nil, fmt.Errorf("passcode pattern must have exactly one capture group, has %d", n)
	}
	return &PasscodeExtractor{re: re}, nil
}

// Extract returns the captured passcode, or ErrNoPasscode when the marker
// is absent. Absence is an error, not a skip: an eligible message without
// a passcode means the marker pattern is wrong.
func (e *PasscodeExtractor) Extract(text string) (string, error) {
	m := e.re.FindStringSubmatch(text)
	if m == nil {
		return "", ErrNoPasscode
	}
	return m[1], nil
}
