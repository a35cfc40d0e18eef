// Package ident canonicalizes source-specific author and work identifiers.
//
// Some sources return the same identifier in two forms: a bare token and a
// fully-qualified URL sharing a constant prefix. Every comparison in the
// aggregation pipeline must happen on the canonical (stripped) form, so
// adapters run all identifiers through a Normalizer before they cross the
// adapter boundary.
package ident

import "strings"

// Normalizer strips a source's known URL prefix from identifiers.
type Normalizer struct {
	prefix string
}

// New returns a Normalizer for the given source prefix. An empty prefix
// yields the identity normalizer (for sources with bare IDs only).
func New(prefix string) Normalizer {
	return Normalizer{prefix: prefix}
}

// Normalize returns the canonical form of raw: the input with the source
// prefix removed if present, otherwise the input unchanged. Idempotent.
func (n Normalizer) Normalize(raw string) string {
	if n.prefix == "" {
		return raw
	}
	for strings.HasPrefix(raw, n.prefix) {
		raw = raw[len(n.prefix):]
	}
	return raw
}
