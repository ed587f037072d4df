/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package book

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/rs/zerolog"

	"github.com/friendsincode/audiocast/internal/scan"
	"github.com/friendsincode/audiocast/internal/tags"
)

// fakeExtractor serves canned tags keyed by base filename.
type fakeExtractor struct {
	byName map[string]tags.Tags
	err    error
}

func (f fakeExtractor) Extract(_ context.Context, path string) (tags.Tags, error) {
	if f.err != nil {
		return tags.Tags{}, f.err
	}
	return f.byName[filepath.Base(path)], nil
}

func writeAudio(t *testing.T, root string, names ...string) []string {
	t.Helper()
	paths := make([]string, 0, len(names))
	for _, name := range names {
		p := filepath.Join(root, name)
		if err := os.WriteFile(p, []byte("audio-bytes"), 0o644); err != nil {
			t.Fatal(err)
		}
		paths = append(paths, p)
	}
	return paths
}

func TestBuildFallbacks(t *testing.T) {
	root := t.TempDir()
	audio := writeAudio(t, root, "01 intro.mp3")

	b := NewBuilder(fakeExtractor{}, zerolog.Nop())
	book, err := b.Build(context.Background(), root, map[string][]string{scan.LabelAudio: audio}, nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	item := book.Items[0]
	if item.Title != "01 intro" {
		t.Errorf("title = %q, want file stem", item.Title)
	}
	if !reflect.DeepEqual(item.Authors, []string{"Unknown author"}) {
		t.Errorf("authors = %v", item.Authors)
	}
	if item.Duration != 0 {
		t.Errorf("duration = %d, want 0", item.Duration)
	}
	if item.Mimetype != "audio/mpeg" {
		t.Errorf("mimetype = %q", item.Mimetype)
	}
	if item.Size != int64(len("audio-bytes")) {
		t.Errorf("size = %d", item.Size)
	}
	if book.Title != "Unknown title" || book.Slug != "unknown_title" {
		t.Errorf("book title/slug = %q/%q", book.Title, book.Slug)
	}
}

func TestBuildAggregates(t *testing.T) {
	root := t.TempDir()
	audio := writeAudio(t, root, "01.mp3", "02.mp3")

	extractor := fakeExtractor{byName: map[string]tags.Tags{
		"01.mp3": {
			Title:    "One",
			Artists:  []string{"Jane Doe"},
			Album:    "Test Book",
			Genres:   []string{"Audiobook"},
			Duration: 1000,
		},
		"02.mp3": {
			Title:    "Two",
			Artists:  []string{"John Smith", "Jane Doe"},
			Album:    "Other Album",
			Genres:   []string{"Audiobook"},
			Explicit: true,
		},
	}}

	b := NewBuilder(extractor, zerolog.Nop())
	book, err := b.Build(context.Background(), root, map[string][]string{scan.LabelAudio: audio}, nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	// First distinct album wins; slug follows it.
	if book.Title != "Test Book" || book.Slug != "test_book" {
		t.Errorf("title/slug = %q/%q", book.Title, book.Slug)
	}
	if !reflect.DeepEqual(book.Authors, []string{"Jane Doe", "John Smith"}) {
		t.Errorf("authors = %v", book.Authors)
	}
	if !book.Explicit {
		t.Error("book should be explicit when any item is")
	}
	if !reflect.DeepEqual(book.Categories, []string{"Audiobook"}) {
		t.Errorf("categories = %v", book.Categories)
	}
	// Identical category sets collapse off the items.
	for _, item := range book.Items {
		if item.Categories != nil {
			t.Errorf("item %s categories not collapsed: %v", item.Path, item.Categories)
		}
	}
}

func TestBuildUniquePaths(t *testing.T) {
	root := t.TempDir()
	audio := writeAudio(t, root, "01.mp3", "02.mp3", "03.mp3")

	b := NewBuilder(fakeExtractor{}, zerolog.Nop())
	book, err := b.Build(context.Background(), root, map[string][]string{scan.LabelAudio: audio}, nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	seen := map[string]bool{}
	for _, item := range book.Items {
		if seen[item.Path] {
			t.Errorf("duplicate path %q", item.Path)
		}
		seen[item.Path] = true
	}
}

func TestBuildNoAudioIsFatal(t *testing.T) {
	b := NewBuilder(fakeExtractor{}, zerolog.Nop())
	_, err := b.Build(context.Background(), t.TempDir(), map[string][]string{}, nil)
	if !errors.Is(err, ErrNoAudioFiles) {
		t.Fatalf("err = %v, want ErrNoAudioFiles", err)
	}
}

func TestBuildIgnoreSet(t *testing.T) {
	root := t.TempDir()
	audio := writeAudio(t, root, "01.mp3", "02.mp3")

	ignore, err := ResolveIgnoreSet([]string{audio[1]})
	if err != nil {
		t.Fatalf("resolve ignore set: %v", err)
	}

	b := NewBuilder(fakeExtractor{}, zerolog.Nop())
	book, err := b.Build(context.Background(), root, map[string][]string{scan.LabelAudio: audio}, ignore)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(book.Items) != 1 || book.Items[0].Path != "01.mp3" {
		t.Errorf("items = %+v, want only 01.mp3", book.Items)
	}
}

func TestBuildIgnoreSetResolvesSymlinks(t *testing.T) {
	root := t.TempDir()
	audio := writeAudio(t, root, "01.mp3")
	link := filepath.Join(root, "linked.mp3")
	if err := os.Symlink(audio[0], link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	// Ignoring the symlink must also drop the file it points at.
	ignore, err := ResolveIgnoreSet([]string{link})
	if err != nil {
		t.Fatalf("resolve ignore set: %v", err)
	}

	b := NewBuilder(fakeExtractor{}, zerolog.Nop())
	_, err = b.Build(context.Background(), root, map[string][]string{scan.LabelAudio: audio}, ignore)
	if !errors.Is(err, ErrNoAudioFiles) {
		t.Fatalf("err = %v, want ErrNoAudioFiles after ignoring the only file", err)
	}
}

func TestBuildArtifacts(t *testing.T) {
	root := t.TempDir()
	audio := writeAudio(t, root, "01.mp3")
	cover := filepath.Join(root, "cover.jpg")
	if err := os.WriteFile(cover, []byte("img"), 0o644); err != nil {
		t.Fatal(err)
	}

	b := NewBuilder(fakeExtractor{}, zerolog.Nop())
	book, err := b.Build(context.Background(), root, map[string][]string{
		scan.LabelAudio: audio,
		scan.LabelCover: {cover},
	}, nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if book.Cover == nil || book.Cover.Path != "cover.jpg" {
		t.Errorf("cover = %+v", book.Cover)
	}
	if book.Fanart != nil {
		t.Errorf("fanart = %+v, want nil", book.Fanart)
	}
}

func TestBuildChapters(t *testing.T) {
	root := t.TempDir()
	audio := writeAudio(t, root, "01.mp3")

	extractor := fakeExtractor{byName: map[string]tags.Tags{
		"01.mp3": {Chapters: []tags.ChapterMarker{
			{Name: "Intro", Start: 0},
			{Name: "One", Start: 60_000, URL: "https://example.com"},
		}},
	}}

	b := NewBuilder(extractor, zerolog.Nop())
	book, err := b.Build(context.Background(), root, map[string][]string{scan.LabelAudio: audio}, nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	chapters := book.Items[0].Chapters
	if len(chapters) != 2 || chapters[1].Start != 60_000 || chapters[1].URL != "https://example.com" {
		t.Errorf("chapters = %+v", chapters)
	}
}
