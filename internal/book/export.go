/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package book

import (
	"path/filepath"
	"sort"

	"github.com/friendsincode/audiocast/internal/manifest"
)

// Export projects an audiobook back into a manifest document containing only
// the externally-stable fields: derived internals (size, mimetype, duration)
// are dropped and paths are kept root-relative. When every item's authors
// equal the channel authors the per-item lists are elided. Field order is
// fixed by the document type, so repeated exports are byte-stable.
func Export(b *Audiobook) *manifest.Document {
	doc := &manifest.Document{
		Authors:    append([]string(nil), b.Authors...),
		Title:      ptr(b.Title),
		Slug:       ptr(b.Slug),
		Categories: append([]string(nil), b.Categories...),
	}
	if b.Description != "" {
		doc.Description = ptr(b.Description)
	}
	if b.Language != "" {
		doc.Language = ptr(b.Language)
	}
	if b.Explicit {
		v := true
		doc.Explicit = &v
	}
	if b.Cover != nil {
		doc.Cover = ptr(filepath.ToSlash(b.Cover.Path))
	}

	elideAuthors := allAuthorsMatchChannel(b)
	for i := range b.Items {
		item := &b.Items[i]

		entry := manifest.Item{Path: filepath.ToSlash(item.Path)}
		if !elideAuthors {
			entry.Authors = append([]string(nil), item.Authors...)
		}
		entry.Categories = append([]string(nil), item.Categories...)
		if item.Description != "" {
			entry.Description = ptr(item.Description)
		}
		if item.Explicit != nil {
			explicit := *item.Explicit
			entry.Explicit = &explicit
		}
		entry.Title = ptr(item.Title)
		for _, ch := range item.Chapters {
			entry.Chapters = append(entry.Chapters, manifest.NewChapter(ch.Name, ch.Start, ch.End, ch.URL))
		}

		doc.Items = append(doc.Items, entry)
	}

	return doc
}

// allAuthorsMatchChannel reports whether the union of per-item authors is
// set-equal to the channel-level author list.
func allAuthorsMatchChannel(b *Audiobook) bool {
	seen := map[string]struct{}{}
	var union []string
	for i := range b.Items {
		for _, a := range b.Items[i].Authors {
			if _, ok := seen[a]; !ok {
				seen[a] = struct{}{}
				union = append(union, a)
			}
		}
	}
	return setsEqual(union, b.Authors)
}

func setsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	as := append([]string(nil), a...)
	bs := append([]string(nil), b...)
	sort.Strings(as)
	sort.Strings(bs)
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}

func ptr(s string) *string { return &s }
