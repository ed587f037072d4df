/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package server exposes a merged audiobook over HTTP: the RSS feed, episode
// streaming, cover and fanart artifacts, and the metrics endpoint.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/friendsincode/audiocast/internal/book"
	"github.com/friendsincode/audiocast/internal/config"
	"github.com/friendsincode/audiocast/internal/feed"
	"github.com/friendsincode/audiocast/internal/telemetry"
	"github.com/friendsincode/audiocast/internal/version"
)

// Server serves one merged audiobook. The audiobook is read-only after
// construction, so concurrent requests never race on shared state.
type Server struct {
	cfg        *config.Config
	logger     zerolog.Logger
	router     chi.Router
	httpServer *http.Server

	book            *book.Audiobook
	manifestModTime time.Time // zero when no manifest exists
}

// New builds a Server around an already merged audiobook.
func New(cfg *config.Config, b *book.Audiobook, manifestModTime time.Time, logger zerolog.Logger) *Server {
	for _, warn := range cfg.LegacyEnvWarnings {
		logger.Warn().Msg(warn)
	}

	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(securityHeadersMiddleware)
	router.Use(telemetry.MetricsMiddleware)
	// Skip the timeout for episode streaming; an audiobook chapter download
	// can legitimately take longer than any sane request deadline.
	router.Use(func(next http.Handler) http.Handler {
		timeout := middleware.Timeout(60 * time.Second)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.Contains(r.URL.Path, "/episode/") {
				next.ServeHTTP(w, r)
				return
			}
			timeout(next).ServeHTTP(w, r)
		})
	})

	srv := &Server{
		cfg:             cfg,
		logger:          logger.With().Str("component", "server").Logger(),
		router:          router,
		book:            b,
		manifestModTime: manifestModTime,
	}

	srv.configureRoutes()

	addr := fmt.Sprintf("%s:%d", cfg.HTTPBind, cfg.HTTPPort)
	srv.httpServer = &http.Server{
		Addr:              addr,
		Handler:           srv.router,
		ReadHeaderTimeout: 15 * time.Second,
		// WriteTimeout stays 0 so long episode downloads are not cut off;
		// the middleware timeout covers the non-streaming routes.
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	return srv
}

func securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("X-Frame-Options", "DENY")

		// Only advertise HSTS for requests served over HTTPS.
		if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
			w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) configureRoutes() {
	s.router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	s.router.Handle("/metrics", telemetry.Handler())

	s.router.Route("/abook/{slug}", func(r chi.Router) {
		r.Use(s.requireSlug)
		r.Get("/feed/rss", s.handleFeed)
		r.Get("/episode/{sequence}.{ext}", s.handleEpisode)
		r.Get("/cover", s.handleCover)
		r.Get("/fanart", s.handleFanart)
	})
}

// HTTPServer exposes the underlying server for lifecycle management.
func (s *Server) HTTPServer() *http.Server {
	return s.httpServer
}

// Run serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.httpServer.Addr).Str("slug", s.book.Slug).Msg("listening")
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}

// requireSlug rejects requests whose slug does not identify the served
// audiobook.
func (s *Server) requireSlug(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.book.HasSlug(chi.URLParam(r, "slug")) {
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	resolver := s.resolver(r)
	extensions := feed.DefaultExtensions(resolver, "audiocast/"+version.Version, s.manifestModTime)
	renderer := feed.NewRenderer(extensions, s.logger)

	out, err := renderer.Render(s.book)
	if err != nil {
		telemetry.FeedRendersTotal.WithLabelValues("error").Inc()
		s.logger.Error().Err(err).Msg("feed render failed")
		http.Error(w, "failed to render feed", http.StatusInternalServerError)
		return
	}
	telemetry.FeedRendersTotal.WithLabelValues("ok").Inc()

	w.Header().Set("Content-Type", feed.ContentType)
	_, _ = w.Write(out)
}

func (s *Server) handleEpisode(w http.ResponseWriter, r *http.Request) {
	sequence, err := strconv.Atoi(chi.URLParam(r, "sequence"))
	if err != nil || sequence < 1 || sequence > len(s.book.Items) {
		http.NotFound(w, r)
		return
	}
	item := &s.book.Items[sequence-1]

	ext := chi.URLParam(r, "ext")
	if !strings.EqualFold("."+ext, filepath.Ext(item.Path)) {
		http.NotFound(w, r)
		return
	}

	s.serveFile(w, r, filepath.Join(s.book.Root, item.Path), item.Mimetype)
}

func (s *Server) handleCover(w http.ResponseWriter, r *http.Request) {
	s.serveArtifact(w, r, s.book.Cover)
}

func (s *Server) handleFanart(w http.ResponseWriter, r *http.Request) {
	s.serveArtifact(w, r, s.book.Fanart)
}

func (s *Server) serveArtifact(w http.ResponseWriter, r *http.Request, artifact *book.Artifact) {
	if artifact == nil {
		http.NotFound(w, r)
		return
	}
	path := filepath.Join(s.book.Root, artifact.Path)
	s.serveFile(w, r, path, book.MimeType(path))
}

// serveFile streams a file with an explicit content type. ServeContent
// handles range requests, which podcast clients rely on for resume.
func (s *Server) serveFile(w http.ResponseWriter, r *http.Request, path, contentType string) {
	f, err := os.Open(path)
	if err != nil {
		s.logger.Warn().Str("path", path).Err(err).Msg("file missing on disk")
		http.NotFound(w, r)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		http.Error(w, "stat failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", contentType)
	http.ServeContent(w, r, filepath.Base(path), info.ModTime(), f)
}

// resolver builds feed URLs from the configured base URL, falling back to
// the request's host so an unconfigured instance still produces usable links.
func (s *Server) resolver(r *http.Request) feed.URLResolver {
	base := s.cfg.BaseURL
	if base == "" {
		scheme := "http"
		if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
			scheme = "https"
		}
		base = scheme + "://" + r.Host
	}
	base = strings.TrimRight(base, "/")

	return func(endpoint string, params map[string]string) string {
		slug := params["slug"]
		switch endpoint {
		case feed.EndpointFeed:
			return fmt.Sprintf("%s/abook/%s/feed/rss", base, slug)
		case feed.EndpointEpisode:
			return fmt.Sprintf("%s/abook/%s/episode/%s.%s", base, slug, params["sequence"], params["ext"])
		case feed.EndpointCover:
			return fmt.Sprintf("%s/abook/%s/cover", base, slug)
		case feed.EndpointFanart:
			return fmt.Sprintf("%s/abook/%s/fanart", base, slug)
		default:
			return base + "/" + endpoint
		}
	}
}
