/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package slug derives URL-safe audiobook identifiers from titles.
package slug

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const separator = '_'

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Make converts a title into a slug: accents are stripped, letters are
// case-folded, and every run of non-alphanumeric characters collapses into a
// single underscore. Leading and trailing separators are trimmed, so the
// result may be empty for input with no alphanumeric content.
func Make(s string) string {
	if folded, _, err := transform.String(stripMarks, s); err == nil {
		s = folded
	}

	var b strings.Builder
	b.Grow(len(s))
	prevSep := true
	for _, r := range strings.ToLower(s) {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			b.WriteRune(r)
			prevSep = false
			continue
		}
		if !prevSep {
			b.WriteRune(separator)
			prevSep = true
		}
	}

	return strings.TrimRight(b.String(), string(separator))
}
