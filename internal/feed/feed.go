/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package feed renders a merged audiobook as a namespaced RSS 2.0 document.
// The renderer is a structural composer: registered extensions contribute
// channel- and item-level nodes in registration order, and the renderer never
// interprets their content.
package feed

import (
	"bytes"
	"encoding/xml"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/friendsincode/audiocast/internal/book"
)

// ContentType is the HTTP content type for rendered feeds.
const ContentType = `application/rss+xml; charset="utf-8"`

const rssVersion = "2.0"

// Well-known endpoint names resolved through a URLResolver.
const (
	EndpointFeed    = "feed"
	EndpointEpisode = "episode"
	EndpointCover   = "cover"
	EndpointFanart  = "fanart"
)

// URLResolver builds URLs for named endpoints so extensions stay ignorant of
// the serving layer's routing scheme.
type URLResolver func(endpoint string, params map[string]string) string

// Namespace is an XML namespace declaration contributed by an extension.
type Namespace struct {
	Prefix string
	URI    string
}

// Node is one XML element in the rendered tree. Children and character data
// are mutually exclusive in practice; names carry their prefix literally
// ("itunes:author") while the matching xmlns declarations live on the root.
type Node struct {
	Name     string
	Attrs    []xml.Attr
	Text     string
	Children []*Node
}

// El builds a leaf element.
func El(name, text string) *Node {
	return &Node{Name: name, Text: text}
}

// Attr adds an attribute and returns the node for chaining.
func (n *Node) Attr(name, value string) *Node {
	n.Attrs = append(n.Attrs, xml.Attr{Name: xml.Name{Local: name}, Value: value})
	return n
}

// Append adds child elements and returns the node for chaining.
func (n *Node) Append(children ...*Node) *Node {
	n.Children = append(n.Children, children...)
	return n
}

// MarshalXML emits the node with its literal name, attributes, character
// data, and children.
func (n *Node) MarshalXML(e *xml.Encoder, _ xml.StartElement) error {
	start := xml.StartElement{Name: xml.Name{Local: n.Name}, Attr: n.Attrs}
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	if n.Text != "" {
		if err := e.EncodeToken(xml.CharData(n.Text)); err != nil {
			return err
		}
	}
	for _, child := range n.Children {
		if err := child.MarshalXML(e, start); err != nil {
			return err
		}
	}
	return e.EncodeToken(start.End())
}

// Extension contributes a disjoint slice of the feed. Extensions run in
// registration order, once over the channel and once per item.
type Extension interface {
	// Namespaces lists the declarations this extension's nodes rely on.
	// They are registered on the root element before anything is emitted.
	Namespaces() []Namespace
	// RenderChannel returns nodes appended inside <channel>.
	RenderChannel(b *book.Audiobook) ([]*Node, error)
	// RenderItem returns nodes appended inside the <item> for the given
	// 1-based sequence number.
	RenderItem(b *book.Audiobook, item *book.AudioItem, sequence int) ([]*Node, error)
}

// Renderer composes extension output into a complete RSS document.
type Renderer struct {
	extensions []Extension
	logger     zerolog.Logger
}

// NewRenderer creates a Renderer over a fixed, ordered extension list.
func NewRenderer(extensions []Extension, logger zerolog.Logger) *Renderer {
	return &Renderer{
		extensions: extensions,
		logger:     logger.With().Str("component", "feed").Logger(),
	}
}

// Render produces the pretty-printed UTF-8 document. A failing extension
// aborts the whole render; a partial feed is never returned.
func (r *Renderer) Render(b *book.Audiobook) ([]byte, error) {
	root := &Node{Name: "rss"}
	root.Attr("version", rssVersion)

	registered := map[string]string{}
	for _, ext := range r.extensions {
		for _, ns := range ext.Namespaces() {
			if uri, ok := registered[ns.Prefix]; ok {
				if uri != ns.URI {
					return nil, fmt.Errorf("namespace prefix %q bound to both %s and %s", ns.Prefix, uri, ns.URI)
				}
				continue
			}
			registered[ns.Prefix] = ns.URI
			root.Attr("xmlns:"+ns.Prefix, ns.URI)
		}
	}

	channel := &Node{Name: "channel"}
	root.Append(channel)

	for _, ext := range r.extensions {
		nodes, err := ext.RenderChannel(b)
		if err != nil {
			return nil, fmt.Errorf("render channel: %w", err)
		}
		channel.Append(nodes...)
	}

	for i := range b.Items {
		sequence := i + 1
		item := &Node{Name: "item"}
		for _, ext := range r.extensions {
			nodes, err := ext.RenderItem(b, &b.Items[i], sequence)
			if err != nil {
				return nil, fmt.Errorf("render item %d: %w", sequence, err)
			}
			item.Append(nodes...)
		}
		channel.Append(item)
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(root); err != nil {
		return nil, fmt.Errorf("encode feed: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode feed: %w", err)
	}
	buf.WriteByte('\n')

	r.logger.Debug().Str("slug", b.Slug).Int("items", len(b.Items)).Msg("rendered feed")
	return buf.Bytes(), nil
}
