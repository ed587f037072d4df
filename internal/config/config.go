/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Config covers process level configuration read from environment variables.
type Config struct {
	Environment string
	HTTPBind    string
	HTTPPort    int
	BaseURL     string // Public base URL (e.g., http://192.168.1.10:8000); derived from the request when empty
	LibraryRoot string // Default audiobook directory when the CLI gets no argument

	FFProbeBin string
	FFMpegBin  string

	// Transcode pool configuration
	TranscodeWorkers int    // 0 means one worker per CPU
	OpusBitrate      string // Passed to ffmpeg -b:a

	InstanceID        string // Unique per process, stamped into logs
	LegacyEnvWarnings []string
}

// Load reads environment variables, applies defaults, and validates the result.
func Load() (*Config, error) {
	cfg := &Config{
		Environment: getEnv("AUDIOCAST_ENV", "development"),
		HTTPBind:    getEnv("AUDIOCAST_HTTP_BIND", "0.0.0.0"),
		HTTPPort:    getEnvInt("AUDIOCAST_HTTP_PORT", 8000),
		BaseURL:     getEnv("AUDIOCAST_BASE_URL", ""),
		LibraryRoot: getEnv("AUDIOCAST_LIBRARY_ROOT", "."),

		FFProbeBin: getEnv("AUDIOCAST_FFPROBE_BIN", "ffprobe"),
		FFMpegBin:  getEnv("AUDIOCAST_FFMPEG_BIN", "ffmpeg"),

		TranscodeWorkers: getEnvInt("AUDIOCAST_TRANSCODE_WORKERS", 0),
		OpusBitrate:      getEnv("AUDIOCAST_OPUS_BITRATE", "48k"),

		InstanceID: getEnv("AUDIOCAST_INSTANCE_ID", uuid.NewString()),
	}

	if cfg.HTTPPort < 1 || cfg.HTTPPort > 65535 {
		return nil, fmt.Errorf("AUDIOCAST_HTTP_PORT %d is out of range", cfg.HTTPPort)
	}
	if cfg.TranscodeWorkers < 0 {
		return nil, fmt.Errorf("AUDIOCAST_TRANSCODE_WORKERS must not be negative")
	}
	if cfg.BaseURL != "" && !strings.HasPrefix(cfg.BaseURL, "http") {
		return nil, fmt.Errorf("AUDIOCAST_BASE_URL must be an absolute http(s) URL")
	}
	if strings.EqualFold(cfg.Environment, "production") && cfg.BaseURL == "" {
		return nil, fmt.Errorf("AUDIOCAST_BASE_URL must be provided in production so feed URLs do not depend on request headers")
	}

	cfg.LegacyEnvWarnings = detectLegacyEnvWarnings()

	return cfg, nil
}

func detectLegacyEnvWarnings() []string {
	legacy := map[string]string{
		"PORT":     "use AUDIOCAST_HTTP_PORT",
		"BASE_URL": "use AUDIOCAST_BASE_URL",
	}

	warnings := make([]string, 0, len(legacy))
	for key, recommendation := range legacy {
		if os.Getenv(key) != "" {
			warnings = append(warnings, fmt.Sprintf("legacy env key %s is ignored; %s", key, recommendation))
		}
	}
	return warnings
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return def
}
