/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package manifest loads, validates, and writes the optional human-edited
// overlay document (audiocast.yaml) that overrides directory-derived
// audiobook metadata. Documents are validated as a whole and rejected
// fail-fast: a partially valid manifest is never applied.
package manifest

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/friendsincode/audiocast/internal/durafmt"
)

// Filename is the canonical manifest file name inside an audiobook directory.
const Filename = "audiocast.yaml"

// Document is the manifest overlay. Field order mirrors the fixed export key
// priority, which keeps repeated exports byte-stable. Pointer fields
// distinguish "explicitly set" from "absent".
type Document struct {
	Authors     []string `yaml:"authors,omitempty"`
	Title       *string  `yaml:"title,omitempty"`
	Slug        *string  `yaml:"slug,omitempty"`
	Description *string  `yaml:"description,omitempty"`
	Categories  []string `yaml:"categories,omitempty"`
	Language    *string  `yaml:"language,omitempty"`
	Explicit    *bool    `yaml:"explicit,omitempty"`
	Cover       *string  `yaml:"cover,omitempty"`
	Items       []Item   `yaml:"items,omitempty"`
}

// Item is a partial per-episode override, keyed by path.
type Item struct {
	Authors     []string  `yaml:"authors,omitempty"`
	Categories  []string  `yaml:"categories,omitempty"`
	Chapters    []Chapter `yaml:"chapters,omitempty"`
	Description *string   `yaml:"description,omitempty"`
	Explicit    *bool     `yaml:"explicit,omitempty"`
	Path        string    `yaml:"path"`
	Sequence    *int      `yaml:"sequence,omitempty"`
	Title       *string   `yaml:"title,omitempty"`
}

// Chapter is a manifest chapter entry. Start and End are duration strings
// ("HH:MM:SS", "MM:SS" or "SS", optionally with ".mmm"); the parsed values
// are populated during validation.
type Chapter struct {
	Name  string `yaml:"name"`
	Start string `yaml:"start"`
	End   string `yaml:"end,omitempty"`
	URL   string `yaml:"url,omitempty"`

	startMS int64
	endMS   *int64
}

// NewChapter builds a chapter entry from parsed millisecond values,
// formatting the duration strings canonically.
func NewChapter(name string, startMS int64, endMS *int64, url string) Chapter {
	c := Chapter{Name: name, Start: formatMS(startMS), URL: url, startMS: startMS}
	if endMS != nil {
		end := *endMS
		c.End = formatMS(end)
		c.endMS = &end
	}
	return c
}

func formatMS(ms int64) string {
	if ms%1000 != 0 {
		return durafmt.FormatMillis(ms)
	}
	return durafmt.Format(ms)
}

// StartMillis returns the validated start offset.
func (c *Chapter) StartMillis() int64 { return c.startMS }

// EndMillis returns the validated end offset, or nil when absent.
func (c *Chapter) EndMillis() *int64 { return c.endMS }

// ValidationError aggregates every schema problem found in a manifest.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid manifest: %s", strings.Join(e.Problems, "; "))
}

// Load decodes and validates a manifest document. Unknown fields are
// rejected so typos do not silently drop overrides.
func Load(r io.Reader) (*Document, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &ValidationError{Problems: []string{"document is empty"}}
		}
		return nil, &ValidationError{Problems: []string{err.Error()}}
	}

	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// LoadFile loads the manifest at path. A missing file is not an error: it
// returns (nil, nil) so callers treat it as "no manifest".
func LoadFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	defer f.Close()

	doc, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Validate checks the schema constraints and parses embedded duration
// strings. All problems are collected before failing.
func (d *Document) Validate() error {
	var problems []string

	if d.Language != nil {
		if _, err := language.Parse(*d.Language); err != nil {
			problems = append(problems, fmt.Sprintf("language: invalid tag %q", *d.Language))
		}
	}

	for i := range d.Items {
		item := &d.Items[i]
		if strings.TrimSpace(item.Path) == "" {
			problems = append(problems, fmt.Sprintf("items[%d]: path is required", i))
		}
		for j := range item.Chapters {
			ch := &item.Chapters[j]
			where := fmt.Sprintf("items[%d].chapters[%d]", i, j)
			if strings.TrimSpace(ch.Name) == "" {
				problems = append(problems, where+": name is required")
			}

			start, err := durafmt.Parse(ch.Start)
			if err != nil {
				problems = append(problems, fmt.Sprintf("%s: %v", where, err))
				continue
			}
			ch.startMS = start

			if ch.End != "" {
				end, err := durafmt.Parse(ch.End)
				switch {
				case err != nil:
					problems = append(problems, fmt.Sprintf("%s: %v", where, err))
				case end < start:
					problems = append(problems, fmt.Sprintf("%s: end %s precedes start %s", where, ch.End, ch.Start))
				default:
					ch.endMS = &end
				}
			}
		}
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

// Dump writes the document as YAML with deterministic formatting.
func Dump(w io.Writer, doc *Document) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	return enc.Close()
}
