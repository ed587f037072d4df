/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package scan walks an audiobook directory and labels files by classifier
// predicates (audio, cover art, fanart).
package scan

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"
)

// Well-known classifier labels.
const (
	LabelAudio  = "audio"
	LabelCover  = "cover"
	LabelFanart = "fanart"
	LabelImage  = "image"
)

var (
	// AudioExtensions is the whitelist of recognized audio file extensions.
	AudioExtensions = []string{"m4a", "m4b", "mp3", "ogg", "opus", "flac"}
	// ImageExtensions is the whitelist of recognized image file extensions.
	ImageExtensions = []string{"jpeg", "jpg", "png"}
	// CoverStems are filename stems recognized as cover art.
	CoverStems = []string{"cover", "cover_art", "folder"}
	// FanartStems are filename stems recognized as fanart.
	FanartStems = []string{"fanart"}
)

// Matcher reports whether a path belongs to a classifier's label.
type Matcher func(path string) bool

// NewMatcher builds a Matcher from a filename-stem set and an extension set,
// both matched case-insensitively. An empty set matches everything, so an
// extension-only matcher accepts any stem and vice versa.
func NewMatcher(stems, extensions []string) Matcher {
	stemSet := make(map[string]struct{}, len(stems))
	for _, s := range stems {
		stemSet[strings.ToLower(s)] = struct{}{}
	}
	extSet := make(map[string]struct{}, len(extensions))
	for _, e := range extensions {
		extSet[strings.ToLower(e)] = struct{}{}
	}

	return func(path string) bool {
		base := filepath.Base(path)
		ext := filepath.Ext(base)
		stem := strings.ToLower(strings.TrimSuffix(base, ext))
		ext = strings.ToLower(strings.TrimPrefix(ext, "."))

		if len(extSet) > 0 {
			if _, ok := extSet[ext]; !ok {
				return false
			}
		}
		if len(stemSet) > 0 {
			if _, ok := stemSet[stem]; !ok {
				return false
			}
		}
		return true
	}
}

// DefaultClassifiers returns the standard label set used for audiobook
// directories.
func DefaultClassifiers() map[string]Matcher {
	return map[string]Matcher{
		LabelAudio:  NewMatcher(nil, AudioExtensions),
		LabelCover:  NewMatcher(CoverStems, ImageExtensions),
		LabelFanart: NewMatcher(FanartStems, ImageExtensions),
		LabelImage:  NewMatcher(nil, ImageExtensions),
	}
}

// Scanner labels files under a directory tree.
type Scanner struct {
	logger zerolog.Logger
}

// New creates a Scanner.
func New(logger zerolog.Logger) *Scanner {
	return &Scanner{logger: logger.With().Str("component", "scan").Logger()}
}

// Scan recurses depth-first under root and returns, per label, the paths
// matched by that label's classifier, sorted lexicographically. A file
// matching several classifiers appears under each label; a file matching
// none is skipped. An unreadable directory aborts the scan, an unreadable
// file is logged and skipped.
func (s *Scanner) Scan(root string, classifiers map[string]Matcher) (map[string][]string, error) {
	results := make(map[string][]string, len(classifiers))
	if err := s.walk(root, classifiers, results); err != nil {
		return nil, err
	}
	for _, paths := range results {
		sort.Strings(paths)
	}
	return results, nil
}

func (s *Scanner) walk(dir string, classifiers map[string]Matcher, results map[string][]string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read directory %s: %w", dir, err)
	}

	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())

		isDir := entry.IsDir()
		isFile := entry.Type().IsRegular()
		if entry.Type()&fs.ModeSymlink != 0 {
			info, err := os.Stat(path)
			if err != nil {
				s.logger.Warn().Str("path", path).Err(err).Msg("skipping unreadable file")
				continue
			}
			isDir = info.IsDir()
			isFile = info.Mode().IsRegular()
		}

		switch {
		case isDir:
			if err := s.walk(path, classifiers, results); err != nil {
				return err
			}
		case isFile:
			for label, match := range classifiers {
				if match(path) {
					results[label] = append(results[label], path)
				}
			}
		}
	}

	return nil
}
