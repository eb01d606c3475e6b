// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package expr classifies raw slot entries into candidate expressions.
//
// An entry is one of:
//
//	plain text                  always a candidate
//	/pattern/replacement        contextual candidate when pattern matches
//	/!pattern/replacement       contextual candidate when pattern does not match
//	+/pattern/replacement       plain candidate when pattern matches
//	+/!pattern/replacement      plain candidate when pattern does not match
//	-/pattern/replacement       plain candidate when pattern does not match
//	expr=>replacement           plain candidate when the boolean expr holds
//
// Legacy patterns may end in "=" (exclusive) or "=~" (exclusive, else plain).
// Boolean exprs may end in "=" (exclusive) or "?" (exclusive, else plain).
package expr

import (
	"fmt"
	"regexp"
	"strings"

	"nickandperla.net/wildprompt/internal/pattern"
)

// Pool is the candidate pool an entry contributes to for a given context.
type Pool int

const (
	// None means the entry offers nothing in this context.
	None Pool = iota
	// Always candidates are used when no contextual or exclusive ones exist.
	Always
	// Contextual candidates replace Always candidates when any exist.
	Contextual
	// Exclusive candidates replace every other pool when any exist.
	Exclusive
)

// String returns the string representation of a Pool.
func (p Pool) String() string {
	switch p {
	case None:
		return "NONE"
	case Always:
		return "ALWAYS"
	case Contextual:
		return "CONTEXTUAL"
	case Exclusive:
		return "EXCLUSIVE"
	}
	return "UNKNOWN"
}

// Modifier is the exclusivity suffix of a conditional entry.
type Modifier int

const (
	NoModifier Modifier = iota
	ExclusiveOnly
	ExclusiveElse
)

// Entry is the interface all classified entries implement.
type Entry interface {
	// String returns the raw entry text.
	String() string
	// Offer reports which pool the entry joins for context and with what value.
	Offer(context string) (Pool, string)
}

// Plain is an unconditional candidate.
type Plain struct {
	Value string
}

func (p Plain) String() string              { return p.Value }
func (p Plain) Offer(string) (Pool, string) { return Always, p.Value }

// Invalid is an entry whose condition could not be parsed. It never offers a
// candidate.
type Invalid struct {
	Raw string
	Err error
}

func (i Invalid) String() string              { return i.Raw }
func (i Invalid) Offer(string) (Pool, string) { return None, "" }
func (i Invalid) Error() string               { return fmt.Sprintf("entry %q: %v", i.Raw, i.Err) }
func (i Invalid) Unwrap() error               { return i.Err }

// LegacyMode is the prefix form of a legacy conditional.
type LegacyMode int

const (
	Bare  LegacyMode = iota // "/"
	Plus                    // "+/"
	Minus                   // "-/"
)

// Legacy is a "/pattern/replacement" entry. The pattern is a single
// case-insensitive regex.
type Legacy struct {
	Raw         string
	Mode        LegacyMode
	Negate      bool
	Modifier    Modifier
	Pattern     *regexp.Regexp
	Replacement string
}

func (l Legacy) String() string { return l.Raw }

// Offer evaluates the pattern against context.
func (l Legacy) Offer(context string) (Pool, string) {
	holds := l.Pattern.MatchString(context)
	if l.Negate || l.Mode == Minus {
		holds = !holds
	}

	pool := Always
	if l.Mode == Bare {
		pool = Contextual
	}
	return offer(holds, l.Modifier, pool), l.Replacement
}

// Conditional is an "expr=>replacement" entry evaluated with the boolean
// pattern language.
type Conditional struct {
	Raw         string
	Modifier    Modifier
	Pattern     *pattern.Node
	Replacement string
}

func (c Conditional) String() string { return c.Raw }

// Offer evaluates the boolean pattern against context.
func (c Conditional) Offer(context string) (Pool, string) {
	return offer(c.Pattern.Match(context), c.Modifier, Always), c.Replacement
}

func offer(holds bool, mod Modifier, pool Pool) Pool {
	switch mod {
	case ExclusiveOnly:
		if holds {
			return Exclusive
		}
		return None
	case ExclusiveElse:
		if holds {
			return Exclusive
		}
		return Always
	}
	if holds {
		return pool
	}
	return None
}

var legacyPrefixes = []struct {
	prefix string
	mode   LegacyMode
	negate bool
}{
	{"+/!", Plus, true},
	{"+/", Plus, false},
	{"-/", Minus, false},
	{"/!", Bare, true},
	{"/", Bare, false},
}

// Classify parses a raw entry into its tagged form.
func Classify(raw string) Entry {
	if strings.HasPrefix(raw, "-/!") {
		return Invalid{Raw: raw, Err: fmt.Errorf("modifier combination %q is undefined", "-/!")}
	}
	for _, lp := range legacyPrefixes {
		if strings.HasPrefix(raw, lp.prefix) {
			return classifyLegacy(raw, raw[len(lp.prefix):], lp.mode, lp.negate)
		}
	}
	if left, right, ok := strings.Cut(raw, "=>"); ok {
		return classifyConditional(raw, left, right)
	}
	return Plain{Value: raw}
}

func classifyLegacy(raw, body string, mode LegacyMode, negate bool) Entry {
	src, replacement, ok := strings.Cut(body, "/")
	if !ok {
		return Invalid{Raw: raw, Err: fmt.Errorf("missing replacement separator")}
	}

	mod := NoModifier
	switch {
	case strings.HasSuffix(src, "=~"):
		mod = ExclusiveElse
		src = strings.TrimSuffix(src, "=~")
	case strings.HasSuffix(src, "="):
		mod = ExclusiveOnly
		src = strings.TrimSuffix(src, "=")
	}

	re, err := regexp.Compile("(?i)" + src)
	if err != nil {
		return Invalid{Raw: raw, Err: err}
	}
	return Legacy{
		Raw:         raw,
		Mode:        mode,
		Negate:      negate,
		Modifier:    mod,
		Pattern:     re,
		Replacement: replacement,
	}
}

func classifyConditional(raw, left, right string) Entry {
	src := strings.TrimSpace(left)
	mod := NoModifier
	switch {
	case strings.HasSuffix(src, "="):
		mod = ExclusiveOnly
		src = strings.TrimSuffix(src, "=")
	case strings.HasSuffix(src, "?"):
		mod = ExclusiveElse
		src = strings.TrimSuffix(src, "?")
	}

	n, err := pattern.Parse(src)
	if err != nil {
		return Invalid{Raw: raw, Err: err}
	}
	return Conditional{
		Raw:         raw,
		Modifier:    mod,
		Pattern:     n,
		Replacement: strings.TrimSpace(right),
	}
}

// Select returns the candidates for context: the exclusive pool if it is not
// empty, otherwise the contextual pool if it is not empty, otherwise the
// always pool.
func Select(entries []Entry, context string) []string {
	var pools [Exclusive + 1][]string
	for _, e := range entries {
		pool, value := e.Offer(context)
		if pool != None {
			pools[pool] = append(pools[pool], value)
		}
	}
	for p := Exclusive; p > None; p-- {
		if len(pools[p]) > 0 {
			return pools[p]
		}
	}
	return nil
}
