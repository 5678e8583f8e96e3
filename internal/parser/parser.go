// Package parser turns fetched web content into feed items. Parsers are
// selected from a priority-ordered registry: the first parser that declares
// it can handle a URL wins, scanning from the highest priority down.
package parser

import (
	"sort"

	"github.com/linkfeed/linkfeed/internal/feed"
)

// Input is the fetched content handed to a parser.
type Input struct {
	URL           string // final URL after redirects
	Body          []byte
	ContentType   string
	ContentLength int64 // -1 when unknown
}

// Parser extracts a feed item from fetched content.
type Parser interface {
	Name() string
	Priority() int
	CanHandle(url string) bool
	Parse(in Input) (*feed.Item, error)
}

// Registry holds parsers sorted by descending priority. Registration order
// breaks ties.
type Registry struct {
	parsers []Parser
}

// NewRegistry builds a registry from the given parsers.
func NewRegistry(parsers ...Parser) *Registry {
	r := &Registry{}
	for _, p := range parsers {
		r.Register(p)
	}
	return r
}

// Register adds a parser and keeps the priority order.
func (r *Registry) Register(p Parser) {
	r.parsers = append(r.parsers, p)
	sort.SliceStable(r.parsers, func(i, j int) bool {
		return r.parsers[i].Priority() > r.parsers[j].Priority()
	})
}

// Lookup returns the highest-priority parser that can handle the URL, or
// nil when none matches.
func (r *Registry) Lookup(url string) Parser {
	for _, p := range r.parsers {
		if p.CanHandle(url) {
			return p
		}
	}
	return nil
}

// Default returns the standard registry: YouTube pages, direct media files,
// and a generic HTML fallback.
func Default() *Registry {
	return NewRegistry(NewYouTube(), NewMedia(), NewGeneric())
}
