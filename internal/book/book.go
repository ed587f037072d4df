/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package book holds the canonical audiobook model and the three
// transformations over it: building from a scanned directory, merging a
// manifest overlay, and exporting back to a manifest document.
package book

import "errors"

var (
	// ErrNoAudioFiles is returned when a directory yields no audio items.
	ErrNoAudioFiles = errors.New("no audio files found")
	// ErrEmptySlug is returned when slug derivation produces an empty string.
	ErrEmptySlug = errors.New("audiobook slug is empty")
)

// Chapter is one chapter marker inside an item. Immutable once constructed.
type Chapter struct {
	Name  string
	Start int64 // milliseconds
	End   *int64
	URL   string
}

// AudioItem is one episode. Built by the Builder, mutated only by Merge
// applying manifest overrides, read-only afterwards.
type AudioItem struct {
	Path        string // relative to the audiobook root
	Title       string
	Authors     []string
	Description string
	Categories  []string
	Duration    int64 // milliseconds
	Size        int64
	Mimetype    string
	Explicit    *bool
	Chapters    []Chapter
	Sequence    *int // explicit manifest-assigned rank
}

// Artifact is a non-audio file belonging to the audiobook (cover, fanart).
type Artifact struct {
	Path string // relative to the audiobook root
	Kind string
}

// Audiobook is the channel-level aggregate. It owns its items exclusively;
// after merge it is treated as an immutable value shared by concurrent
// readers.
type Audiobook struct {
	Root        string
	Title       string
	Authors     []string
	Slug        string
	Description string
	Categories  []string
	Language    string
	Explicit    bool
	Cover       *Artifact
	Fanart      *Artifact
	Items       []AudioItem
}

// HasSlug reports whether slug identifies this audiobook. The serving layer
// uses this as its existence check.
func (b *Audiobook) HasSlug(slug string) bool {
	return b.Slug == slug
}

// Clone returns a deep copy. Merge operates on a clone so the derived input
// is never mutated.
func (b *Audiobook) Clone() *Audiobook {
	out := *b
	out.Authors = append([]string(nil), b.Authors...)
	out.Categories = append([]string(nil), b.Categories...)
	if b.Cover != nil {
		cover := *b.Cover
		out.Cover = &cover
	}
	if b.Fanart != nil {
		fanart := *b.Fanart
		out.Fanart = &fanart
	}
	if b.Items != nil {
		out.Items = make([]AudioItem, len(b.Items))
		for i, item := range b.Items {
			out.Items[i] = item.clone()
		}
	}
	return &out
}

func (it AudioItem) clone() AudioItem {
	out := it
	out.Authors = append([]string(nil), it.Authors...)
	out.Categories = append([]string(nil), it.Categories...)
	if it.Explicit != nil {
		explicit := *it.Explicit
		out.Explicit = &explicit
	}
	if it.Sequence != nil {
		seq := *it.Sequence
		out.Sequence = &seq
	}
	if it.Chapters != nil {
		out.Chapters = make([]Chapter, len(it.Chapters))
		for i, ch := range it.Chapters {
			out.Chapters[i] = ch
			if ch.End != nil {
				end := *ch.End
				out.Chapters[i].End = &end
			}
		}
	}
	return out
}
