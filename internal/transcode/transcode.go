/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package transcode re-encodes audiobook items to Opus with a fixed worker
// pool. Tags and chapter markers are carried over as Vorbis comments so the
// result feeds back through the same scan/extract pipeline.
package transcode

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/friendsincode/audiocast/internal/book"
	"github.com/friendsincode/audiocast/internal/durafmt"
	"github.com/friendsincode/audiocast/internal/telemetry"
)

// job is a unit of work sent to encode workers.
type job struct {
	item   *book.AudioItem
	source string
	dest   string
}

type result struct {
	dest string
	err  error
}

// Pool encodes items concurrently with a bounded number of ffmpeg processes.
type Pool struct {
	ffmpeg  string
	bitrate string
	workers int
	logger  zerolog.Logger
}

// NewPool creates a Pool. workers <= 0 means one worker per CPU.
func NewPool(ffmpegBin, bitrate string, workers int, logger zerolog.Logger) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Pool{
		ffmpeg:  ffmpegBin,
		bitrate: bitrate,
		workers: workers,
		logger:  logger.With().Str("component", "transcode").Logger(),
	}
}

// Run encodes every item of the audiobook into outDir. Individual failures
// do not stop the remaining jobs; all errors are reported together.
func (p *Pool) Run(ctx context.Context, b *book.Audiobook, outDir string) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	jobs := make(chan job, p.workers*2)
	results := make(chan result, p.workers*2)

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				results <- result{dest: j.dest, err: p.encode(ctx, b, j)}
			}
		}()
	}

	var errs []error
	var collectDone sync.WaitGroup
	collectDone.Add(1)
	go func() {
		defer collectDone.Done()
		for r := range results {
			if r.err != nil {
				telemetry.TranscodeJobsTotal.WithLabelValues("error").Inc()
				p.logger.Warn().Str("dest", r.dest).Err(r.err).Msg("encode failed")
				errs = append(errs, r.err)
				continue
			}
			telemetry.TranscodeJobsTotal.WithLabelValues("ok").Inc()
			p.logger.Info().Str("dest", r.dest).Msg("encoded")
		}
	}()

	for i := range b.Items {
		item := &b.Items[i]
		stem := strings.TrimSuffix(filepath.Base(item.Path), filepath.Ext(item.Path))
		jobs <- job{
			item:   item,
			source: filepath.Join(b.Root, item.Path),
			dest:   filepath.Join(outDir, stem+".opus"),
		}
	}

	close(jobs)
	wg.Wait()
	close(results)
	collectDone.Wait()

	return errors.Join(errs...)
}

func (p *Pool) encode(ctx context.Context, b *book.Audiobook, j job) error {
	args := encodeArgs(b, j.item, j.source, j.dest, p.bitrate)

	cmd := exec.CommandContext(ctx, p.ffmpeg, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w: %s", j.source, err, lastLine(out))
	}
	return nil
}

// encodeArgs builds the ffmpeg invocation for one item. Chapter markers use
// the CHAPTERnnn/CHAPTERnnnNAME Vorbis comment convention.
func encodeArgs(b *book.Audiobook, item *book.AudioItem, source, dest, bitrate string) []string {
	args := []string{
		"-y",
		"-i", source,
		"-vn",
		"-c:a", "libopus",
		"-b:a", bitrate,
		"-metadata", "title=" + item.Title,
		"-metadata", "artist=" + strings.Join(item.Authors, "; "),
		"-metadata", "album=" + b.Title,
	}
	for i, ch := range item.Chapters {
		key := fmt.Sprintf("CHAPTER%03d", i+1)
		args = append(args,
			"-metadata", fmt.Sprintf("%s=%s", key, durafmt.FormatMillis(ch.Start)),
			"-metadata", fmt.Sprintf("%sNAME=%s", key, ch.Name),
		)
	}
	return append(args, dest)
}

func lastLine(out []byte) string {
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	return lines[len(lines)-1]
}
