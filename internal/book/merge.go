/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package book

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/rs/zerolog"

	"github.com/friendsincode/audiocast/internal/manifest"
	"github.com/friendsincode/audiocast/internal/slug"
)

// Merge reconciles a derived audiobook with an optional manifest overlay and
// resolves the final item ordering. The derived input is never mutated; with
// a nil manifest the result is value-equal to the input. The merged slug must
// be non-empty or the merge fails with ErrEmptySlug.
func Merge(derived *Audiobook, doc *manifest.Document, logger zerolog.Logger) (*Audiobook, error) {
	logger = logger.With().Str("component", "merge").Logger()
	result := derived.Clone()

	// Join table: derived items indexed by their root-relative path.
	byPath := make(map[string]*AudioItem, len(result.Items))
	for i := range result.Items {
		byPath[filepath.Clean(result.Items[i].Path)] = &result.Items[i]
	}

	var joined []string // manifest order of successfully joined paths
	joinedSet := make(map[string]struct{})
	if doc != nil {
		// A manifest that renames the book without supplying a slug gets a
		// slug recomputed from the new title; an explicit slug always wins.
		if doc.Title != nil && *doc.Title != derived.Title && doc.Slug == nil {
			result.Slug = slug.Make(*doc.Title)
		}

		if doc.Title != nil {
			result.Title = *doc.Title
		}
		if doc.Authors != nil {
			result.Authors = append([]string(nil), doc.Authors...)
		}
		if doc.Categories != nil {
			result.Categories = append([]string(nil), doc.Categories...)
		}
		if doc.Description != nil {
			result.Description = *doc.Description
		}
		if doc.Slug != nil {
			result.Slug = *doc.Slug
		}
		if doc.Language != nil {
			result.Language = *doc.Language
		}

		for i := range doc.Items {
			entry := &doc.Items[i]
			path := filepath.Clean(entry.Path)

			item, ok := byPath[path]
			if !ok {
				// Stale entries must not break the feed.
				logger.Warn().Str("path", entry.Path).Msg("manifest references unknown item, skipping")
				continue
			}
			applyItemOverrides(item, entry)
			if _, ok := joinedSet[path]; !ok {
				joinedSet[path] = struct{}{}
				joined = append(joined, path)
			}
		}
	}

	// Ordering resolution: a manifest listing every item expresses an order
	// by its listing; a partial (or absent) manifest does not, and sorted
	// path order is the stable fallback.
	fallback := make(map[string]int, len(byPath))
	if len(joined) == len(byPath) && len(joined) > 0 {
		for i, path := range joined {
			fallback[path] = i + 1
		}
	} else {
		paths := make([]string, 0, len(byPath))
		for path := range byPath {
			paths = append(paths, path)
		}
		sort.Strings(paths)
		for i, path := range paths {
			fallback[path] = i + 1
		}
	}

	sortKey := func(it *AudioItem) int {
		if it.Sequence != nil {
			return *it.Sequence
		}
		return fallback[filepath.Clean(it.Path)]
	}
	sort.SliceStable(result.Items, func(i, j int) bool {
		ki, kj := sortKey(&result.Items[i]), sortKey(&result.Items[j])
		if ki != kj {
			return ki < kj
		}
		return result.Items[i].Path < result.Items[j].Path
	})

	if result.Slug == "" {
		return nil, fmt.Errorf("title %q: %w", result.Title, ErrEmptySlug)
	}

	return result, nil
}

// applyItemOverrides copies only the fields present in the manifest entry.
// Path, size, mimetype, duration, and authors always stay derived.
func applyItemOverrides(item *AudioItem, entry *manifest.Item) {
	if entry.Title != nil {
		item.Title = *entry.Title
	}
	if entry.Categories != nil {
		item.Categories = append([]string(nil), entry.Categories...)
	}
	if entry.Description != nil {
		item.Description = *entry.Description
	}
	if entry.Chapters != nil {
		chapters := make([]Chapter, len(entry.Chapters))
		for i := range entry.Chapters {
			ch := &entry.Chapters[i]
			chapters[i] = Chapter{
				Name:  ch.Name,
				Start: ch.StartMillis(),
				End:   ch.EndMillis(),
				URL:   ch.URL,
			}
		}
		item.Chapters = chapters
	}
	if entry.Sequence != nil {
		seq := *entry.Sequence
		item.Sequence = &seq
	}
	if entry.Explicit != nil {
		explicit := *entry.Explicit
		item.Explicit = &explicit
	}
}
