// Package router implements the URL routing trie: registration of
// (method, pattern, handler) triples and deterministic priority
// matching of incoming (method, URL) pairs against them.
package router

import (
	"strings"

	"github.com/corehttpd/webkit/errs"
)

// SegmentKind distinguishes a literal path segment from a named
// capture segment in a route pattern.
type SegmentKind int

const (
	Static SegmentKind = iota
	Dynamic
)

// Segment is one element of a parsed route Pattern.
type Segment struct {
	Kind  SegmentKind
	Value string // literal text for Static, capture name for Dynamic
}

// Pattern is an ordered list of Segments produced by ParsePattern.
type Pattern struct {
	Segments []Segment
}

// ParsePattern parses a template such as "/print/<color>/<text>" into
// a Pattern. The portion between a matched "<" and ">" becomes a
// Dynamic segment bound to the enclosed name; everything else is
// Static. The template must start with '/' and contain no empty
// segments; it must be ASCII.
func ParsePattern(template string) (*Pattern, error) {
	for i := 0; i < len(template); i++ {
		if template[i] > 0x7F {
			return nil, errs.New(errs.InvalidEndpoint, "template must be ASCII")
		}
	}
	if !strings.HasPrefix(template, "/") {
		return nil, errs.New(errs.InvalidEndpoint, "template must start with '/'")
	}

	var segs []Segment
	for _, part := range strings.Split(template, "/")[1:] {
		if part == "" {
			return nil, errs.New(errs.InvalidEndpoint, "empty segment in template")
		}
		if strings.HasPrefix(part, "<") {
			if !strings.HasSuffix(part, ">") || len(part) < 3 {
				return nil, errs.New(errs.InvalidEndpoint, "malformed dynamic segment")
			}
			segs = append(segs, Segment{Kind: Dynamic, Value: part[1 : len(part)-1]})
			continue
		}
		segs = append(segs, Segment{Kind: Static, Value: part})
	}
	return &Pattern{Segments: segs}, nil
}
