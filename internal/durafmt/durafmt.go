/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package durafmt parses and formats the colon-separated duration strings
// used in manifests and feed output ("HH:MM:SS", "MM:SS", "SS", each with an
// optional ".mmm" fractional suffix).
package durafmt

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseError reports a duration string that does not match any supported form.
type ParseError struct {
	Input  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid duration %q: %s", e.Input, e.Reason)
}

// Parse converts a duration string into milliseconds. The empty string parses
// to zero. Malformed input is never coerced: it returns a *ParseError.
func Parse(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}

	input := s
	var millis int64
	if i := strings.LastIndexByte(s, '.'); i != -1 {
		frac, err := strconv.ParseFloat(s[i:], 64)
		if err != nil {
			return 0, &ParseError{Input: input, Reason: "fractional part is not numeric"}
		}
		millis = int64(math.Round(frac * 1000))
		s = s[:i]
	}

	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return 0, &ParseError{Input: input, Reason: "unsupported number of ':' separators"}
	}

	var total int64
	for _, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return 0, &ParseError{Input: input, Reason: fmt.Sprintf("component %q is not a non-negative integer", part)}
		}
		total = total*60 + int64(n)
	}

	return total*1000 + millis, nil
}

// Format renders milliseconds in the canonical "HH:MM:SS" form. Sub-second
// precision is dropped; use FormatMillis when it must be kept.
func Format(ms int64) string {
	seconds := ms / 1000
	minutes, seconds := seconds/60, seconds%60
	hours, minutes := minutes/60, minutes%60
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}

// FormatMillis renders milliseconds as "HH:MM:SS.mmm".
func FormatMillis(ms int64) string {
	return fmt.Sprintf("%s.%03d", Format(ms), ms%1000)
}
