/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package transcode

import (
	"reflect"
	"testing"

	"github.com/friendsincode/audiocast/internal/book"
)

func TestEncodeArgs(t *testing.T) {
	b := &book.Audiobook{Title: "Test Book"}
	item := &book.AudioItem{
		Title:   "Part One",
		Authors: []string{"Jane Doe", "John Smith"},
		Chapters: []book.Chapter{
			{Name: "Intro", Start: 0},
			{Name: "Body", Start: 90_500},
		},
	}

	got := encodeArgs(b, item, "/in/01.mp3", "/out/01.opus", "48k")
	want := []string{
		"-y",
		"-i", "/in/01.mp3",
		"-vn",
		"-c:a", "libopus",
		"-b:a", "48k",
		"-metadata", "title=Part One",
		"-metadata", "artist=Jane Doe; John Smith",
		"-metadata", "album=Test Book",
		"-metadata", "CHAPTER001=00:00:00.000",
		"-metadata", "CHAPTER001NAME=Intro",
		"-metadata", "CHAPTER002=00:01:30.500",
		"-metadata", "CHAPTER002NAME=Body",
		"/out/01.opus",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("args:\ngot  %q\nwant %q", got, want)
	}
}

func TestEncodeArgsWithoutChapters(t *testing.T) {
	b := &book.Audiobook{Title: "Test Book"}
	item := &book.AudioItem{Title: "Part One", Authors: []string{"Jane Doe"}}

	got := encodeArgs(b, item, "in.mp3", "out.opus", "32k")
	for _, arg := range got {
		if len(arg) >= 7 && arg[:7] == "CHAPTER" {
			t.Errorf("unexpected chapter metadata %q", arg)
		}
	}
}
