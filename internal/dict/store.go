// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package dict

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// DefaultRoot is the group holding user-editable slots.
const DefaultRoot = "m"

// Backend loads and saves whole mappings.
type Backend interface {
	// LoadAll reads every configured source. Later sources override earlier ones.
	LoadAll() (*Mapping, error)
	// Persist saves the full mapping.
	Persist(*Mapping) error
}

// Store is the process-wide wildcard dictionary. Reads take a snapshot of
// the current mapping; edits build a new mapping and swap it in whole.
type Store struct {
	mu      sync.RWMutex
	current *Mapping

	// persistMu orders persist calls the same way edits were applied.
	persistMu sync.Mutex

	backend Backend
	root    string
	log     *zap.SugaredLogger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger. The store names it "dict".
func WithLogger(log *zap.SugaredLogger) Option {
	return func(s *Store) {
		s.log = log
	}
}

// WithRoot sets the editable root group.
func WithRoot(root string) Option {
	return func(s *Store) {
		s.root = Normalize(root)
	}
}

// WithMapping seeds the store with an initial mapping.
func WithMapping(m *Mapping) Option {
	return func(s *Store) {
		s.current = m.Clone()
	}
}

// NewStore creates a store backed by b. A nil backend keeps edits in memory
// only. The store starts empty until Reload is called.
func NewStore(b Backend, opts ...Option) *Store {
	s := &Store{
		current: NewMapping(),
		backend: b,
		root:    DefaultRoot,
		log:     zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.Named("dict")
	return s
}

// Root returns the editable root group.
func (s *Store) Root() string {
	return s.root
}

// Snapshot returns the current mapping without copying. Callers must not
// modify it; Clone it first.
func (s *Store) Snapshot() *Mapping {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Reload discards the current mapping and loads a new one from the backend.
func (s *Store) Reload() error {
	if s.backend == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	m, err := s.backend.LoadAll()
	if err != nil {
		return fmt.Errorf("reload: %w", err)
	}
	s.current = m
	s.log.Infof("Wildcards loaded: %d slots", m.Len())
	return nil
}

// WildcardList returns every key as a "__key__" token.
func (s *Store) WildcardList() []string {
	m := s.Snapshot()
	out := make([]string, 0, m.Len())
	for k := range m.All() {
		out = append(out, "__"+k+"__")
	}
	return out
}

// MenuItem is one editable slot offered for explicit selection.
type MenuItem struct {
	Name    string
	Choices []string
}

// Menu sentinel choices.
const (
	ChoiceDisabled = "disabled"
	ChoiceRandom   = "random"
)

// Menu lists every slot under the editable root with its selectable values.
func (s *Store) Menu() []MenuItem {
	m := s.Snapshot()
	var out []MenuItem
	for _, k := range m.Group(s.root) {
		entries, _ := m.Get(k)
		choices := make([]string, 0, len(entries)+2)
		choices = append(choices, ChoiceDisabled, ChoiceRandom)
		choices = append(choices, entries...)
		out = append(out, MenuItem{Name: ShortName(k, s.root), Choices: choices})
	}
	return out
}

// mutate applies edit to a copy of the current mapping and publishes it.
// The backend is called after the swap; its failure is logged and the
// edit stays applied.
func (s *Store) mutate(op string, edit func(*Mapping) error) error {
	s.mu.Lock()
	next := s.current.Clone()
	if err := edit(next); err != nil {
		s.mu.Unlock()
		return err
	}
	s.current = next
	s.persistMu.Lock()
	s.mu.Unlock()
	defer s.persistMu.Unlock()

	if s.backend == nil {
		return nil
	}
	if err := s.backend.Persist(next); err != nil {
		s.log.Warnf("Persist after %s failed: %v", op, err)
		return nil
	}
	s.log.Infof("Persisted %s: %d slots", op, next.Len())
	return nil
}
