/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package tags

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/friendsincode/audiocast/internal/durafmt"
)

const probeTimeout = 10 * time.Second

// FFProbe extracts tags by invoking the ffprobe binary.
type FFProbe struct {
	binary string
	logger zerolog.Logger
}

// NewFFProbe creates an Extractor backed by the given ffprobe binary
// ("ffprobe" resolves via PATH).
func NewFFProbe(binary string, logger zerolog.Logger) *FFProbe {
	if binary == "" {
		binary = "ffprobe"
	}
	return &FFProbe{
		binary: binary,
		logger: logger.With().Str("component", "ffprobe").Logger(),
	}
}

// Extract runs ffprobe against path and parses the JSON output. Missing tags
// are not an error; a non-zero ffprobe exit (unreadable or corrupt file) is.
func (f *FFProbe) Extract(ctx context.Context, path string) (Tags, error) {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, f.binary,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		path,
	)
	output, err := cmd.Output()
	if err != nil {
		return Tags{}, fmt.Errorf("ffprobe %s: %w", path, err)
	}

	t, err := parseProbeOutput(output)
	if err != nil {
		return Tags{}, fmt.Errorf("ffprobe %s: %w", path, err)
	}
	return t, nil
}

// parseProbeOutput converts ffprobe's -show_format JSON into a Tags record.
func parseProbeOutput(output []byte) (Tags, error) {
	var probe struct {
		Format struct {
			Duration string            `json:"duration"`
			Tags     map[string]string `json:"tags"`
		} `json:"format"`
	}
	if err := json.Unmarshal(output, &probe); err != nil {
		return Tags{}, fmt.Errorf("parse output: %w", err)
	}

	var t Tags
	if probe.Format.Duration != "" {
		secs, err := strconv.ParseFloat(probe.Format.Duration, 64)
		if err != nil {
			return Tags{}, fmt.Errorf("parse duration %q: %w", probe.Format.Duration, err)
		}
		t.Duration = int64(math.Round(secs * 1000))
	}

	raw := NormalizeRaw(probe.Format.Tags)
	if v := raw["ARTIST"]; v != "" {
		t.Artists = splitMulti(v)
	}
	t.Album = raw["ALBUM"]
	t.Title = raw["TITLE"]
	if v := raw["GENRE"]; v != "" {
		t.Genres = splitMulti(v)
	}
	if v := raw["DESCRIPTION"]; v != "" {
		t.Description = v
	} else {
		t.Description = raw["COMMENT"]
	}
	if v := raw["ITUNESADVISORY"]; v == "1" {
		t.Explicit = true
	}

	chapters, err := ChaptersFromRaw(raw, durafmt.Parse)
	if err != nil {
		return Tags{}, err
	}
	t.Chapters = chapters

	return t, nil
}

// splitMulti splits a multi-valued vorbis/id3 tag on the common ";"
// separator and trims whitespace.
func splitMulti(v string) []string {
	parts := strings.Split(v, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
