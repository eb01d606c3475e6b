// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package token defines wildcard template token types and delimiter constants.
package token

// Token represents a template token type.
type Token int

const (
	EOF Token = iota
	TEXT

	WILDCARD   // __keyword__ - Dictionary lookup
	QUANTIFIER // N#__keyword__ - N draws of the same wildcard
	GROUP      // {a|b|c} - Innermost option group
)

// Delimiters used by the template syntax.
const (
	RuneGroupOpen  = '{'
	RuneGroupClose = '}'
	RuneOption     = '|'
	RuneQuantifier = '#'
	RuneComment    = '#'

	WildcardDelim = "__"
	MultiSelect   = "$$"
	WeightSep     = "::"
)

// Set is a bitmask of token kinds a scanner should recognize.
type Set uint8

// Bit returns the mask bit for t.
func (t Token) Bit() Set {
	switch t {
	case WILDCARD, QUANTIFIER, GROUP:
		return 1 << uint(t)
	}
	return 0
}

// Has reports whether t is in the set.
func (s Set) Has(t Token) bool {
	b := t.Bit()
	return b != 0 && s&b != 0
}

// Of builds a set from token kinds.
func Of(tokens ...Token) Set {
	var s Set
	for _, t := range tokens {
		s |= t.Bit()
	}
	return s
}

// String returns the string representation of a token.
func (t Token) String() string {
	switch t {
	case EOF:
		return "EOF"
	case TEXT:
		return "TEXT"
	case WILDCARD:
		return "WILDCARD"
	case QUANTIFIER:
		return "QUANTIFIER"
	case GROUP:
		return "GROUP"
	}
	return "UNKNOWN"
}
