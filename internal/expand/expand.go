// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package expand rewrites wildcard templates into concrete text.
//
// Each iteration of the rewrite loop runs three passes over the text:
//
//	N#__kw__     quantifiers, rewritten to N copies of __kw__ joined by "|"
//	{a|b|c}      option groups, innermost first, until none remain
//	__kw__       one wildcard substitution from the dictionary
//
// The loop stops when an iteration changes nothing or the iteration cap is
// reached.
package expand

import (
	"maps"
	"strings"
	"sync"
	"unicode"

	"go.uber.org/zap"

	"nickandperla.net/wildprompt/internal/choice"
	"nickandperla.net/wildprompt/internal/dict"
	"nickandperla.net/wildprompt/internal/expr"
	"nickandperla.net/wildprompt/internal/scanner"
	"nickandperla.net/wildprompt/internal/token"
)

// DefaultMaxIterations bounds the rewrite loop.
const DefaultMaxIterations = 1000

// Source supplies the dictionary snapshot an expansion reads from.
type Source interface {
	Snapshot() *dict.Mapping
}

// Engine expands templates against a dictionary source.
type Engine struct {
	src           Source
	root          string
	maxIterations int
	log           *zap.SugaredLogger

	mu   sync.Mutex
	last map[string]string
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. The engine names it "expand".
func WithLogger(log *zap.SugaredLogger) Option {
	return func(e *Engine) { e.log = log }
}

// WithRoot sets the editable root stripped from keys in the chosen-value map.
func WithRoot(root string) Option {
	return func(e *Engine) { e.root = dict.Normalize(root) }
}

// WithMaxIterations overrides the rewrite loop bound.
func WithMaxIterations(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxIterations = n
		}
	}
}

// New creates an engine reading from src.
func New(src Source, opts ...Option) *Engine {
	e := &Engine{
		src:           src,
		root:          dict.DefaultRoot,
		maxIterations: DefaultMaxIterations,
		log:           zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.log = e.log.Named("expand")
	return e
}

// Params are the per-call inputs of Expand.
type Params struct {
	// Seed makes the expansion reproducible when Seeded is set.
	Seed   uint64
	Seeded bool
	// Overrides pins slots by short name. "disabled" resolves to empty
	// text and "random" resolves normally.
	Overrides map[string]string
}

// Seed returns Params for a reproducible expansion.
func Seed(seed uint64) Params {
	return Params{Seed: seed, Seeded: true}
}

// Expand rewrites text and returns it with the value chosen for each slot,
// keyed by short name.
func (e *Engine) Expand(text string, p Params) (string, map[string]string) {
	gen := choice.NewUnseeded()
	if p.Seeded {
		gen = choice.NewGenerators(p.Seed)
	}
	x := &expansion{
		Engine:    e,
		m:         e.src.Snapshot(),
		gen:       gen,
		overrides: p.Overrides,
		chosen:    make(map[string]string),
		entries:   make(map[string]expr.Entry),
	}
	out := x.run(FoldComments(text))

	e.mu.Lock()
	e.last = maps.Clone(x.chosen)
	e.mu.Unlock()
	return out, x.chosen
}

// LastGenerated returns the chosen-value map of the most recent expansion.
func (e *Engine) LastGenerated() map[string]string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return maps.Clone(e.last)
}

// FoldComments removes lines starting with "#". The line after a comment is
// joined to the line before it with a space. Comments before the first
// content line are dropped without joining anything.
func FoldComments(text string) string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	folding := false
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimLeftFunc(line, unicode.IsSpace), string(token.RuneComment)) {
			folding = true
			continue
		}
		if folding && len(out) > 0 {
			out[len(out)-1] += " " + line
		} else {
			out = append(out, line)
		}
		folding = false
	}
	return strings.Join(out, "\n")
}

// expansion is the state of one Expand call.
type expansion struct {
	*Engine
	m         *dict.Mapping
	gen       *choice.Generators
	overrides map[string]string
	chosen    map[string]string
	entries   map[string]expr.Entry
}

func (x *expansion) run(text string) string {
	for i := 0; i < x.maxIterations; i++ {
		text = x.expandQuantifiers(text)

		var optionsChanged bool
		text, optionsChanged = x.expandOptions(text)

		var wildcardChanged bool
		text, wildcardChanged = x.expandWildcard(text)

		if !optionsChanged && !wildcardChanged {
			return text
		}
	}
	x.log.Warnf("Stopped after %d iterations", x.maxIterations)
	return text
}

// expandQuantifiers rewrites every N#__kw__ until none remain.
func (x *expansion) expandQuantifiers(text string) string {
	for {
		items := scanner.All(text, token.QUANTIFIER)
		if len(items) == 0 {
			return text
		}
		var b strings.Builder
		prev := 0
		for _, item := range items {
			b.WriteString(text[prev:item.Start])
			if count := x.quantity(item); count > 0 {
				kw := strings.ToLower(item.Value)
				copies := make([]string, count)
				for i := range copies {
					copies[i] = kw
				}
				b.WriteString(token.WildcardDelim)
				b.WriteString(strings.Join(copies, token.WildcardDelim+string(token.RuneOption)+token.WildcardDelim))
				b.WriteString(token.WildcardDelim)
			}
			prev = item.End
		}
		b.WriteString(text[prev:])
		text = b.String()
	}
}

// quantity bounds a quantifier count by the iteration cap. Each copy needs
// its own wildcard pass, so copies beyond the cap could never resolve.
func (x *expansion) quantity(item *scanner.Item) int {
	if item.Count > x.maxIterations {
		x.log.Warnf("Quantifier %d#__%s__ capped at %d", item.Count, item.Value, x.maxIterations)
		return x.maxIterations
	}
	return item.Count
}

// expandOptions replaces innermost option groups one at a time until none
// remain. It reports whether any group was replaced.
func (x *expansion) expandOptions(text string) (string, bool) {
	changed := false
	for i := 0; i < x.maxIterations; i++ {
		item, ok := scanner.First(text, token.GROUP)
		if !ok {
			return text, changed
		}
		text = text[:item.Start] + x.resolveGroup(item.Value) + text[item.End:]
		changed = true
	}
	x.log.Warnf("Option groups still unresolved after %d replacements", x.maxIterations)
	return text, changed
}

// expandWildcard substitutes the first resolvable wildcard token. Tokens
// that resolve to nothing are left in place and skipped.
func (x *expansion) expandWildcard(text string) (string, bool) {
	for _, item := range scanner.All(text, token.WILDCARD) {
		value, ok := x.resolveWildcard(dict.Normalize(item.Value), text[:item.Start])
		if !ok {
			continue
		}
		return text[:item.Start] + value + text[item.End:], true
	}
	return text, false
}
