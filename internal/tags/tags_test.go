/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package tags

import (
	"reflect"
	"testing"

	"github.com/friendsincode/audiocast/internal/durafmt"
)

func TestChaptersFromRawZeroBased(t *testing.T) {
	raw := map[string]string{
		"CHAPTER000":     "00:00:00",
		"CHAPTER000NAME": "Intro",
		"CHAPTER001":     "00:05:00",
		"CHAPTER001NAME": "Chapter One",
		"CHAPTER001URL":  "https://example.com/1",
	}
	chapters, err := ChaptersFromRaw(raw, durafmt.Parse)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []ChapterMarker{
		{Name: "Intro", Start: 0},
		{Name: "Chapter One", Start: 300_000, URL: "https://example.com/1"},
	}
	if !reflect.DeepEqual(chapters, want) {
		t.Errorf("chapters = %+v, want %+v", chapters, want)
	}
}

func TestChaptersFromRawOneBased(t *testing.T) {
	raw := map[string]string{
		"CHAPTER001":     "00:00:00",
		"CHAPTER001NAME": "One",
		"CHAPTER002":     "00:01:00",
		"CHAPTER002NAME": "Two",
	}
	chapters, err := ChaptersFromRaw(raw, durafmt.Parse)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chapters) != 2 {
		t.Fatalf("got %d chapters, want 2", len(chapters))
	}
}

func TestChaptersFromRawStopsAtGap(t *testing.T) {
	raw := map[string]string{
		"CHAPTER000":     "00:00:00",
		"CHAPTER000NAME": "Zero",
		// CHAPTER001 missing
		"CHAPTER002":     "00:02:00",
		"CHAPTER002NAME": "Two",
	}
	chapters, err := ChaptersFromRaw(raw, durafmt.Parse)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chapters) != 1 || chapters[0].Name != "Zero" {
		t.Errorf("chapters = %+v, want only the run before the gap", chapters)
	}
}

func TestChaptersFromRawNoChapters(t *testing.T) {
	chapters, err := ChaptersFromRaw(map[string]string{"TITLE": "x"}, durafmt.Parse)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if chapters != nil {
		t.Errorf("chapters = %+v, want nil", chapters)
	}
}

func TestChaptersFromRawBadStart(t *testing.T) {
	raw := map[string]string{
		"CHAPTER000":     "1:1:1:1",
		"CHAPTER000NAME": "Bad",
	}
	if _, err := ChaptersFromRaw(raw, durafmt.Parse); err == nil {
		t.Fatal("expected error for malformed chapter start")
	}
}

func TestParseProbeOutput(t *testing.T) {
	output := []byte(`{
		"format": {
			"duration": "4333.123",
			"tags": {
				"title": "Some Episode",
				"artist": "Jane Doe; John Smith",
				"album": "Test Book",
				"genre": "Audiobook",
				"comment": "A fine tale",
				"CHAPTER000": "00:00:00",
				"CHAPTER000NAME": "Intro"
			}
		}
	}`)

	got, err := parseProbeOutput(output)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got.Title != "Some Episode" || got.Album != "Test Book" {
		t.Errorf("title/album = %q/%q", got.Title, got.Album)
	}
	if !reflect.DeepEqual(got.Artists, []string{"Jane Doe", "John Smith"}) {
		t.Errorf("artists = %v", got.Artists)
	}
	if got.Duration != 4_333_123 {
		t.Errorf("duration = %d, want 4333123", got.Duration)
	}
	if got.Description != "A fine tale" {
		t.Errorf("description = %q", got.Description)
	}
	if len(got.Chapters) != 1 || got.Chapters[0].Name != "Intro" {
		t.Errorf("chapters = %+v", got.Chapters)
	}
}

func TestParseProbeOutputEmptyTags(t *testing.T) {
	got, err := parseProbeOutput([]byte(`{"format": {"duration": "12.5"}}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got.Duration != 12_500 {
		t.Errorf("duration = %d", got.Duration)
	}
	if got.Title != "" || got.Artists != nil {
		t.Errorf("expected zero tags, got %+v", got)
	}
}
