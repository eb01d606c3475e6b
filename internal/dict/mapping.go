// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package dict holds the wildcard dictionary: an ordered mapping from
// normalized slot keys to raw entry lists, and the Store that guards it.
package dict

import (
	"iter"
	"maps"
	"slices"
)

// Mapping is an insertion-ordered map from slot key to entries.
// Keys are normalized on write. A Mapping is not safe for concurrent
// mutation; the Store publishes mappings that are never mutated again.
type Mapping struct {
	keys    []string
	entries map[string][]string
}

// NewMapping creates an empty mapping.
func NewMapping() *Mapping {
	return &Mapping{entries: make(map[string][]string)}
}

// Len returns the number of slots.
func (m *Mapping) Len() int {
	return len(m.keys)
}

// Keys returns the slot keys in order.
func (m *Mapping) Keys() []string {
	return slices.Clone(m.keys)
}

// Get returns the entries of key.
func (m *Mapping) Get(key string) ([]string, bool) {
	v, ok := m.entries[key]
	return v, ok
}

// Has reports whether key exists.
func (m *Mapping) Has(key string) bool {
	_, ok := m.entries[key]
	return ok
}

// All iterates over slots in order.
func (m *Mapping) All() iter.Seq2[string, []string] {
	return func(yield func(string, []string) bool) {
		for _, k := range m.keys {
			if !yield(k, m.entries[k]) {
				return
			}
		}
	}
}

// Set stores entries under the normalized key. An existing key keeps its
// position; a new key is appended.
func (m *Mapping) Set(key string, entries []string) {
	key = Normalize(key)
	m.init()
	if _, ok := m.entries[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.entries[key] = entries
}

// Delete removes key. It reports whether the key existed.
func (m *Mapping) Delete(key string) bool {
	i := m.Index(key)
	if i < 0 {
		return false
	}
	m.keys = slices.Delete(m.keys, i, i+1)
	delete(m.entries, key)
	return true
}

// Index returns the position of key, or -1.
func (m *Mapping) Index(key string) int {
	if !m.Has(key) {
		return -1
	}
	return slices.Index(m.keys, key)
}

// Insert places a new key at position i, clamped to the mapping bounds.
// If the key already exists it is moved.
func (m *Mapping) Insert(i int, key string, entries []string) {
	key = Normalize(key)
	m.init()
	if j := m.Index(key); j >= 0 {
		m.keys = slices.Delete(m.keys, j, j+1)
		if j < i {
			i--
		}
	}
	i = max(0, min(i, len(m.keys)))
	m.keys = slices.Insert(m.keys, i, key)
	m.entries[key] = entries
}

func (m *Mapping) init() {
	if m.entries == nil {
		m.entries = make(map[string][]string)
	}
}

// Clone returns a copy whose key order can be edited independently.
// Entry slices are shared.
func (m *Mapping) Clone() *Mapping {
	return &Mapping{
		keys:    slices.Clone(m.keys),
		entries: maps.Clone(m.entries),
	}
}

// Merge copies every slot of other into m, overriding existing keys.
func (m *Mapping) Merge(other *Mapping) {
	for k, v := range other.All() {
		m.Set(k, v)
	}
}

// Group returns the keys under group, in order.
func (m *Mapping) Group(group string) []string {
	var out []string
	for _, k := range m.keys {
		if InGroup(k, group) {
			out = append(out, k)
		}
	}
	return out
}
