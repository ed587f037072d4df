/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package feed

import (
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/friendsincode/audiocast/internal/book"
	"github.com/friendsincode/audiocast/internal/durafmt"
)

// Feed TTL, in minutes. Audiobooks are static, so clients may cache for a year.
const defaultTTL = 60 * 24 * 365

const (
	itunesNamespace = "http://www.itunes.com/dtds/podcast-1.0.dtd"
	pscNamespace    = "http://podlove.org/simple-chapters"
	pscVersion      = "1.2"
	atomNamespace   = "http://www.w3.org/2005/Atom"
)

// DefaultExtensions is the standard extension set in its canonical order.
func DefaultExtensions(resolver URLResolver, generator string, lastBuild time.Time) []Extension {
	return []Extension{
		NewCore(resolver, generator, lastBuild),
		NewITunes(resolver),
		NewPodloveChapters(),
		NewAtom(resolver),
	}
}

// Core emits the plain RSS 2.0 channel and item fields.
type Core struct {
	resolver  URLResolver
	generator string
	lastBuild time.Time
	now       func() time.Time
}

// NewCore creates the core extension. A zero lastBuild means the feed was
// rendered without a manifest and the render time is used instead.
func NewCore(resolver URLResolver, generator string, lastBuild time.Time) *Core {
	return &Core{
		resolver:  resolver,
		generator: generator,
		lastBuild: lastBuild,
		now:       time.Now,
	}
}

func (c *Core) Namespaces() []Namespace { return nil }

func (c *Core) RenderChannel(b *book.Audiobook) ([]*Node, error) {
	link := c.resolver(EndpointFeed, map[string]string{"slug": b.Slug})

	nodes := []*Node{
		El("generator", c.generator),
		El("title", b.Title),
		El("link", link),
	}
	if b.Description != "" {
		nodes = append(nodes, El("description", b.Description))
	}
	if b.Language != "" {
		nodes = append(nodes, El("language", b.Language))
	}
	for _, category := range b.Categories {
		nodes = append(nodes, El("category", category))
	}

	image := &Node{Name: "image"}
	image.Append(
		El("url", c.resolver(EndpointCover, map[string]string{"slug": b.Slug})),
		El("title", b.Title),
		El("link", link),
	)
	nodes = append(nodes, image)

	lastBuild := c.lastBuild
	if lastBuild.IsZero() {
		lastBuild = c.now()
	}
	nodes = append(nodes,
		El("lastBuildDate", rfc822(lastBuild)),
		El("ttl", strconv.Itoa(defaultTTL)),
	)
	return nodes, nil
}

func (c *Core) RenderItem(b *book.Audiobook, item *book.AudioItem, sequence int) ([]*Node, error) {
	// Synthesized pubDates decrease with the sequence number so clients that
	// sort newest-first preserve book order.
	pubDate := c.now().Add(-time.Duration(sequence) * time.Minute)

	enclosure := &Node{Name: "enclosure"}
	enclosure.Attr("type", item.Mimetype)
	enclosure.Attr("length", strconv.FormatInt(item.Size, 10))
	enclosure.Attr("url", c.resolver(EndpointEpisode, map[string]string{
		"slug":     b.Slug,
		"sequence": strconv.Itoa(sequence),
		"ext":      strings.TrimPrefix(filepath.Ext(item.Path), "."),
	}))

	return []*Node{
		El("title", item.Title),
		El("guid", strconv.Itoa(sequence)).Attr("isPermaLink", "false"),
		El("pubDate", rfc822(pubDate)),
		enclosure,
	}, nil
}

// ITunes emits the iTunes podcast directory tags.
type ITunes struct {
	resolver URLResolver
}

func NewITunes(resolver URLResolver) *ITunes {
	return &ITunes{resolver: resolver}
}

func (e *ITunes) Namespaces() []Namespace {
	return []Namespace{{Prefix: "itunes", URI: itunesNamespace}}
}

func (e *ITunes) RenderChannel(b *book.Audiobook) ([]*Node, error) {
	nodes := []*Node{
		El("itunes:author", strings.Join(b.Authors, ", ")),
	}
	for _, category := range b.Categories {
		nodes = append(nodes, El("itunes:category", category))
	}
	cover := e.resolver(EndpointCover, map[string]string{"slug": b.Slug})
	nodes = append(nodes, (&Node{Name: "itunes:image"}).Attr("href", cover))
	return nodes, nil
}

func (e *ITunes) RenderItem(_ *book.Audiobook, item *book.AudioItem, _ int) ([]*Node, error) {
	nodes := []*Node{
		El("itunes:duration", durafmt.Format(item.Duration)),
	}
	if item.Explicit != nil {
		marker := "No"
		if *item.Explicit {
			marker = "Yes"
		}
		nodes = append(nodes, El("itunes:explicit", marker))
	}
	return nodes, nil
}

// PodloveChapters emits Podlove Simple Chapters for items that have chapter
// markers.
type PodloveChapters struct{}

func NewPodloveChapters() *PodloveChapters { return &PodloveChapters{} }

func (e *PodloveChapters) Namespaces() []Namespace {
	return []Namespace{{Prefix: "psc", URI: pscNamespace}}
}

func (e *PodloveChapters) RenderChannel(*book.Audiobook) ([]*Node, error) {
	return nil, nil
}

func (e *PodloveChapters) RenderItem(_ *book.Audiobook, item *book.AudioItem, _ int) ([]*Node, error) {
	if len(item.Chapters) == 0 {
		return nil, nil
	}
	chapters := (&Node{Name: "psc:chapters"}).Attr("version", pscVersion)
	for _, ch := range item.Chapters {
		chapter := (&Node{Name: "psc:chapter"}).
			Attr("title", ch.Name).
			Attr("start", durafmt.Format(ch.Start))
		if ch.URL != "" {
			chapter.Attr("href", ch.URL)
		}
		chapters.Append(chapter)
	}
	return []*Node{chapters}, nil
}

// Atom emits channel-level icon and logo links for the cover and fanart
// artifacts.
type Atom struct {
	resolver URLResolver
}

func NewAtom(resolver URLResolver) *Atom {
	return &Atom{resolver: resolver}
}

func (e *Atom) Namespaces() []Namespace {
	return []Namespace{{Prefix: "atom", URI: atomNamespace}}
}

func (e *Atom) RenderChannel(b *book.Audiobook) ([]*Node, error) {
	var nodes []*Node
	if b.Cover != nil {
		nodes = append(nodes, El("atom:icon", e.resolver(EndpointCover, map[string]string{"slug": b.Slug})))
	}
	if b.Fanart != nil {
		nodes = append(nodes, El("atom:logo", e.resolver(EndpointFanart, map[string]string{"slug": b.Slug})))
	}
	return nodes, nil
}

func (e *Atom) RenderItem(*book.Audiobook, *book.AudioItem, int) ([]*Node, error) {
	return nil, nil
}

// rfc822 formats a timestamp the way RSS clients expect.
func rfc822(t time.Time) string {
	return t.UTC().Format(time.RFC1123Z)
}
