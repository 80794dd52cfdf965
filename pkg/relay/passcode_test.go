// one-time-pass
// Copyright 2026 Ayumu Iida
// This program is free software licensed under the GNU General Public License,
// version 3.0. The full text of the license can be found in LICENSE.txt.
// SPDX-License-Identifier: GPL-3.0-only

package relay

import (
	"errors"
	"testing"

	"github.com/AyumuIIDA/one-time-pass/pkg/config"
)

func TestPasscodeExtract(t *testing.T) {
	e, err := NewPasscodeExtractor(config.DefaultPasscodeMarker)
	if err != nil {
		t.Fatal(err)
	}

	code, err := e.Extract("ご利用ありがとうございます。\n【ワンタイムパスワード】123456\n有効期限は10分です。")
	if err != nil {
		t.Fatal(err)
	}
	if code != "123456" {
		t.Errorf("code = %q", code)
	}

	_, err = e.Extract("no marker in this body")
	if !errors.Is(err, ErrNoPasscode) {
		t.Errorf("err = %v, expected ErrNoPasscode", err)
	}

	// Digits must immediately follow the marker.
	_, err = e.Extract("【ワンタイムパスワード】 is 123456")
	if !errors.Is(err, ErrNoPasscode) {
		t.Errorf("err = %v, expected ErrNoPasscode", err)
	}
}

func TestPasscodeCustomPattern(t *testing.T) {
	e, err := NewPasscodeExtractor(`Your code is ([0-9]{6})`)
	if err != nil {
		t.Fatal(err)
	}
	code, err := e.Extract("Your code is 998877. Do not share it.")
	if err != nil {
		t.Fatal(err)
	}
	if code != "998877" {
		t.Errorf("code = %q", code)
	}
}

func TestPasscodePatternValidation(t *testing.T) {
	cases := []string{
		`([0-9]+`,          // does not compile
		`CODE: [0-9]+`,     // no capture group
		`(CODE): ([0-9]+)`, // two capture groups
	}
	for i, pattern := range cases {
		if _, err := NewPasscodeExtractor(pattern); err == nil {
			t.Errorf("case %d: expected error for pattern %q", i, pattern)
		}
	}
}
