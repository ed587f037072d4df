/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package book

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/friendsincode/audiocast/internal/scan"
	"github.com/friendsincode/audiocast/internal/slug"
	"github.com/friendsincode/audiocast/internal/tags"
)

const unknownAuthor = "Unknown author"

// Builder derives the canonical audiobook model from scan results.
type Builder struct {
	extractor tags.Extractor
	logger    zerolog.Logger
}

// NewBuilder creates a Builder using the given tag extractor.
func NewBuilder(extractor tags.Extractor, logger zerolog.Logger) *Builder {
	return &Builder{
		extractor: extractor,
		logger:    logger.With().Str("component", "builder").Logger(),
	}
}

// ResolveIgnoreSet expands the given paths into fully-resolved absolute
// paths for use as a Build ignore set. Paths that do not exist are an error:
// an ignore flag pointing nowhere is a typo worth surfacing.
func ResolveIgnoreSet(paths []string) (map[string]struct{}, error) {
	set := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		resolved, err := filepath.EvalSymlinks(p)
		if err != nil {
			return nil, fmt.Errorf("resolve ignored path %s: %w", p, err)
		}
		abs, err := filepath.Abs(resolved)
		if err != nil {
			return nil, fmt.Errorf("resolve ignored path %s: %w", p, err)
		}
		set[abs] = struct{}{}
	}
	return set, nil
}

// Build constructs an Audiobook from scan results. Per-item fields fall back
// independently (file stem for title, a sentinel author, zero duration);
// channel-level fields are aggregated in a single pass over all items.
// Returns ErrNoAudioFiles when nothing is left to build from.
func (b *Builder) Build(ctx context.Context, root string, results map[string][]string, ignore map[string]struct{}) (*Audiobook, error) {
	var (
		items        []AudioItem
		albums       []string
		descriptions []string
		authors      []string
		authorSeen   = map[string]struct{}{}
		categorySets = map[string]struct{}{}
		categorySeen = map[string]struct{}{}
		categories   []string
		explicit     bool
	)

	for _, path := range results[scan.LabelAudio] {
		if ignored(path, ignore) {
			b.logger.Debug().Str("path", path).Msg("ignoring audio file")
			continue
		}

		info, err := os.Stat(path)
		if err != nil {
			b.logger.Warn().Str("path", path).Err(err).Msg("skipping unreadable file")
			continue
		}

		t, err := b.extractor.Extract(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("extract tags: %w", err)
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil, fmt.Errorf("relativize %s: %w", path, err)
		}

		item := AudioItem{
			Path:        rel,
			Title:       t.Title,
			Authors:     dedupe(t.Artists),
			Description: t.Description,
			Categories:  dedupe(t.Genres),
			Duration:    t.Duration,
			Size:        info.Size(),
			Mimetype:    MimeType(path),
		}
		if item.Title == "" {
			base := filepath.Base(path)
			item.Title = strings.TrimSuffix(base, filepath.Ext(base))
		}
		if len(item.Authors) == 0 {
			item.Authors = []string{unknownAuthor}
		}
		if t.Explicit {
			v := true
			item.Explicit = &v
			explicit = true
		}
		for _, ch := range t.Chapters {
			item.Chapters = append(item.Chapters, Chapter{Name: ch.Name, Start: ch.Start, URL: ch.URL})
		}

		if t.Album != "" && !contains(albums, t.Album) {
			albums = append(albums, t.Album)
		}
		if t.Description != "" && !contains(descriptions, t.Description) {
			descriptions = append(descriptions, t.Description)
		}
		for _, a := range item.Authors {
			if a == unknownAuthor {
				continue
			}
			if _, ok := authorSeen[a]; !ok {
				authorSeen[a] = struct{}{}
				authors = append(authors, a)
			}
		}
		if len(item.Categories) > 0 {
			categorySets[categoryKey(item.Categories)] = struct{}{}
			for _, c := range item.Categories {
				if _, ok := categorySeen[c]; !ok {
					categorySeen[c] = struct{}{}
					categories = append(categories, c)
				}
			}
		}

		items = append(items, item)
	}

	if len(items) == 0 {
		return nil, fmt.Errorf("%s: %w", root, ErrNoAudioFiles)
	}

	// Collapse: metadata identical across all items lives at channel level.
	for i := range items {
		if len(descriptions) == 1 {
			items[i].Description = ""
		}
		if len(categorySets) == 1 {
			items[i].Categories = nil
		}
	}

	title := "Unknown title"
	if len(albums) > 0 {
		if len(albums) > 1 {
			b.logger.Warn().Strs("albums", albums).Msg("multiple album titles found, using the first one")
		}
		title = albums[0]
	}
	if len(descriptions) > 1 {
		b.logger.Warn().Msg("multiple descriptions found, using the first one")
	}
	if len(authors) == 0 {
		authors = []string{unknownAuthor}
	}
	sort.Strings(categories)

	out := &Audiobook{
		Root:       root,
		Title:      title,
		Authors:    authors,
		Slug:       slug.Make(title),
		Categories: categories,
		Explicit:   explicit,
		Items:      items,
	}
	if len(descriptions) > 0 {
		out.Description = descriptions[0]
	}
	if covers := results[scan.LabelCover]; len(covers) > 0 {
		out.Cover = b.artifact(root, covers[0], scan.LabelCover)
	}
	if fanarts := results[scan.LabelFanart]; len(fanarts) > 0 {
		out.Fanart = b.artifact(root, fanarts[0], scan.LabelFanart)
	}

	return out, nil
}

func (b *Builder) artifact(root, path, kind string) *Artifact {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		b.logger.Warn().Str("path", path).Err(err).Msg("skipping artifact outside root")
		return nil
	}
	return &Artifact{Path: rel, Kind: kind}
}

// ignored resolves path to its real location before testing membership, so
// symlinked files compare equal to their targets.
func ignored(path string, ignore map[string]struct{}) bool {
	if len(ignore) == 0 {
		return false
	}
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		resolved = path
	}
	if abs, err := filepath.Abs(resolved); err == nil {
		resolved = abs
	}
	_, ok := ignore[resolved]
	return ok
}

func dedupe(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func contains(in []string, v string) bool {
	for _, s := range in {
		if s == v {
			return true
		}
	}
	return false
}

// categoryKey is a canonical representation of a category set, used to count
// distinct per-item sets for the collapse rule.
func categoryKey(categories []string) string {
	sorted := append([]string(nil), categories...)
	sort.Strings(sorted)
	return strings.Join(sorted, "\x00")
}
