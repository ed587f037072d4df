/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package tags extracts embedded metadata from audio files. Extraction is an
// interface so the model builder can be exercised without media files; the
// production implementation shells out to ffprobe.
package tags

import (
	"context"
	"fmt"
	"strings"
)

// Tags is the metadata record extracted from one audio file. Absent fields
// stay zero; extraction fails only for unreadable or corrupt files.
type Tags struct {
	Artists     []string
	Album       string
	Title       string
	Genres      []string
	Description string
	Duration    int64 // milliseconds
	Explicit    bool
	Chapters    []ChapterMarker
}

// ChapterMarker is one chapter parsed from embedded tag data.
type ChapterMarker struct {
	Name  string
	Start int64 // milliseconds
	URL   string
}

// Extractor produces a Tags record for an audio file.
type Extractor interface {
	Extract(ctx context.Context, path string) (Tags, error)
}

// ChaptersFromRaw extracts chapter markers from a raw tag map using the
// CHAPTERnnn / CHAPTERnnnNAME / CHAPTERnnnURL comment convention. Markers
// must form a contiguous run numbered from 0 or 1 (both conventions occur in
// the wild); extraction stops at the first gap. Start values are duration
// strings and a malformed one is a hard error, never coerced to zero.
func ChaptersFromRaw(raw map[string]string, parseStart func(string) (int64, error)) ([]ChapterMarker, error) {
	start := -1
	if _, ok := raw[chapterKey(0)]; ok {
		start = 0
	} else if _, ok := raw[chapterKey(1)]; ok {
		start = 1
	}
	if start < 0 {
		return nil, nil
	}

	var chapters []ChapterMarker
	for n := start; ; n++ {
		key := chapterKey(n)
		startValue, ok := raw[key]
		name := raw[key+"NAME"]
		if !ok || name == "" {
			break
		}
		startMS, err := parseStart(startValue)
		if err != nil {
			return nil, fmt.Errorf("chapter %d: %w", n, err)
		}
		chapters = append(chapters, ChapterMarker{
			Name:  name,
			Start: startMS,
			URL:   raw[key+"URL"],
		})
	}

	return chapters, nil
}

func chapterKey(n int) string {
	return fmt.Sprintf("CHAPTER%03d", n)
}

// NormalizeRaw upper-cases tag keys so lookups are case-insensitive across
// container formats.
func NormalizeRaw(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[strings.ToUpper(k)] = v
	}
	return out
}
