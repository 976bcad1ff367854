// Package header implements the multi-valued, case-sensitive HTTP
// header container used by the request/response codec.
package header

import "strings"

// Field is a single (key, value) entry in a Header.
type Field struct {
	Key   string
	Value string
}

// Header is an ordered sequence of Fields. Multiple entries may share
// a key (e.g. Set-Cookie, Cookie). Iteration order is stable across
// reads until a mutation occurs.
type Header struct {
	fields []Field
}

// New returns an empty Header.
func New() *Header {
	return &Header{}
}

// Add appends a (key, value) entry, preserving any existing entries
// for the same key.
func (h *Header) Add(key, value string) {
	h.fields = append(h.fields, Field{Key: key, Value: value})
}

// Replace removes every existing entry for key, then adds (key, value).
func (h *Header) Replace(key, value string) {
	h.Remove(key)
	h.Add(key, value)
}

// Remove deletes every entry matching key.
func (h *Header) Remove(key string) {
	out := h.fields[:0]
	for _, f := range h.fields {
		if f.Key != key {
			out = append(out, f)
		}
	}
	h.fields = out
}

// GetFirst returns the first entry matching key, in iteration order.
func (h *Header) GetFirst(key string) (string, bool) {
	for _, f := range h.fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return "", false
}

// GetAll returns every entry matching key, in iteration order.
func (h *Header) GetAll(key string) []string {
	var out []string
	for _, f := range h.fields {
		if f.Key == key {
			out = append(out, f.Value)
		}
	}
	return out
}

// Cookie splits each Cookie header entry on the first '=' and
// returns the value of the first entry whose key equals name.
func (h *Header) Cookie(name string) (string, bool) {
	for _, raw := range h.GetAll("Cookie") {
		k, v, found := strings.Cut(raw, "=")
		if found && k == name {
			return v, true
		}
	}
	return "", false
}

// All returns a borrowed view of every field in iteration order. The
// caller must not mutate the returned slice.
func (h *Header) All() []Field {
	return h.fields
}

// Fields returns a by-value copy of every field in iteration order,
// safe to retain or mutate after h changes.
func (h *Header) Fields() []Field {
	out := make([]Field, len(h.fields))
	copy(out, h.fields)
	return out
}

// Clone returns a deep copy of h.
func (h *Header) Clone() *Header {
	out := &Header{fields: make([]Field, len(h.fields))}
	copy(out.fields, h.fields)
	return out
}

// Len reports the number of entries, counting duplicates.
func (h *Header) Len() int {
	return len(h.fields)
}
