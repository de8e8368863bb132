package backend

import (
	"net/url"
	"strings"
)

// Links builds collaborator resource URLs from a base address. The base may be
// absolute ("http://host/api") or relative ("/api") when links are handed to a
// browser that reaches the collaborator through a proxy.
type Links struct {
	base string
}

// NewLinks returns a Links for base with any trailing slash removed.
func NewLinks(base string) Links {
	return Links{base: strings.TrimRight(strings.TrimSpace(base), "/")}
}

// Base returns the normalized base address.
func (l Links) Base() string { return l.base }

// ImageURL returns {base}/images/{escaped id}.
func (l Links) ImageURL(id string) string {
	return l.base + "/images/" + EscapeSegment(id)
}

// ArchiveURL returns {base}/zip/{escaped name}.
func (l Links) ArchiveURL(name string) string {
	return l.base + "/zip/" + EscapeSegment(name)
}

// Refs maps identifiers to references, preserving order and duplicates.
func (l Links) Refs(ids []string) []ImageRef {
	refs := make([]ImageRef, 0, len(ids))
	for _, id := range ids {
		refs = append(refs, ImageRef{ID: id, URL: l.ImageURL(id)})
	}
	return refs
}

// EscapeSegment percent-encodes s so it forms exactly one path segment.
// Every reserved character is escaped, including '/', '?', '#', '&', '+' and
// ':', and spaces become %20. url.PathUnescape reverses it.
func EscapeSegment(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
