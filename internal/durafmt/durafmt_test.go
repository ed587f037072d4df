/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package durafmt

import (
	"errors"
	"testing"
)

func TestParse(t *testing.T) {
	cases := []struct {
		input   string
		want    int64
		wantErr bool
	}{
		{"1:12", 72_000, false},
		{"12", 12_000, false},
		{"1:12:13", 4_333_000, false},
		{"1:12:13.123", 4_333_123, false},
		{"12.345", 12_345, false},
		{"12.34567", 12_346, false},
		{"", 0, false},
		{"00:00:00", 0, false},
		{"1:12:13,123", 0, true},
		{"1:1:12:13", 0, true},
		{"1:a:13", 0, true},
		{"a", 0, true},
		{"-1", 0, true},
	}

	for _, tc := range cases {
		got, err := Parse(tc.input)
		if tc.wantErr {
			if err == nil {
				t.Errorf("Parse(%q): expected error, got %d", tc.input, got)
				continue
			}
			var perr *ParseError
			if !errors.As(err, &perr) {
				t.Errorf("Parse(%q): expected *ParseError, got %T", tc.input, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("Parse(%q): unexpected error: %v", tc.input, err)
			continue
		}
		if got != tc.want {
			t.Errorf("Parse(%q) = %d, want %d", tc.input, got, tc.want)
		}
	}
}

func TestFormat(t *testing.T) {
	cases := []struct {
		ms   int64
		want string
	}{
		{123, "00:00:00"},
		{1_234, "00:00:01"},
		{61_000, "00:01:01"},
		{3_661_000, "01:01:01"},
	}
	for _, tc := range cases {
		if got := Format(tc.ms); got != tc.want {
			t.Errorf("Format(%d) = %q, want %q", tc.ms, got, tc.want)
		}
	}
}

func TestFormatMillis(t *testing.T) {
	if got := FormatMillis(3_661_042); got != "01:01:01.042" {
		t.Errorf("FormatMillis(3661042) = %q", got)
	}
}

func TestParseFormatRoundTrip(t *testing.T) {
	for _, ms := range []int64{0, 1000, 59_000, 3_600_000, 4_333_000} {
		got, err := Parse(Format(ms))
		if err != nil {
			t.Fatalf("round trip %d: %v", ms, err)
		}
		if got != ms {
			t.Errorf("round trip %d: got %d", ms, got)
		}
	}
}
