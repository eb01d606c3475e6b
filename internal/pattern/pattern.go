// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package pattern parses and evaluates boolean regex patterns against context text.
//
// Grammar, lowest to highest precedence:
//
//	pattern     := pattern '|' and_pattern | and_pattern
//	and_pattern := and_pattern '&' not_pattern | not_pattern
//	not_pattern := '~' term | term
//	term        := STRING | '(' pattern ')'
//
// A STRING is a maximal run of characters other than | & ~ ( ), trimmed of
// surrounding whitespace, and is compiled as a regular expression.
package pattern

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// Kind is the type of a pattern node.
type Kind int

const (
	TERM Kind = iota
	NOT
	AND
	OR
)

// String returns the string representation of a Kind.
func (k Kind) String() string {
	switch k {
	case TERM:
		return "TERM"
	case NOT:
		return "NOT"
	case AND:
		return "AND"
	case OR:
		return "OR"
	}
	return "UNKNOWN"
}

// Node is an immutable pattern tree node.
type Node struct {
	Kind  Kind
	Value string // regex source for TERM
	Left  *Node  // child for NOT, left operand for AND/OR
	Right *Node

	re *regexp.Regexp
}

// SyntaxError reports a malformed pattern.
type SyntaxError struct {
	Pattern string
	Pos     int
	Msg     string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("pattern %q: %s at position %d", e.Pattern, e.Msg, e.Pos)
}

const operators = "|&~()"

type parser struct {
	src string
	pos int
}

// Parse builds the tree for a pattern string.
func Parse(src string) (*Node, error) {
	p := &parser{src: src}
	n, err := p.parsePattern()
	if err != nil {
		return nil, err
	}
	p.skipWhitespace()
	if p.pos < len(p.src) {
		return nil, p.errorf("unexpected %q", p.src[p.pos])
	}
	return n, nil
}

// MustParse is like Parse but panics on error.
func MustParse(src string) *Node {
	n, err := Parse(src)
	if err != nil {
		panic(err)
	}
	return n
}

func (p *parser) errorf(format string, args ...any) error {
	return &SyntaxError{Pattern: p.src, Pos: p.pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) peek() byte {
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) skipWhitespace() {
	for p.pos < len(p.src) && unicode.IsSpace(rune(p.src[p.pos])) {
		p.pos++
	}
}

func (p *parser) parsePattern() (*Node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	p.skipWhitespace()
	for p.peek() == '|' {
		p.pos++
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &Node{Kind: OR, Left: left, Right: right}
		p.skipWhitespace()
	}
	return left, nil
}

func (p *parser) parseAnd() (*Node, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	p.skipWhitespace()
	for p.peek() == '&' {
		p.pos++
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = &Node{Kind: AND, Left: left, Right: right}
		p.skipWhitespace()
	}
	return left, nil
}

func (p *parser) parseNot() (*Node, error) {
	p.skipWhitespace()
	if p.peek() == '~' {
		p.pos++
		term, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		return &Node{Kind: NOT, Left: term}, nil
	}
	return p.parseTerm()
}

func (p *parser) parseTerm() (*Node, error) {
	p.skipWhitespace()
	if p.pos >= len(p.src) {
		return nil, p.errorf("unexpected end of pattern")
	}
	if p.peek() != '(' {
		return p.parseString()
	}

	p.pos++
	n, err := p.parsePattern()
	if err != nil {
		return nil, err
	}
	p.skipWhitespace()
	if p.peek() != ')' {
		return nil, p.errorf("expected ')'")
	}
	p.pos++
	return n, nil
}

func (p *parser) parseString() (*Node, error) {
	start := p.pos
	for p.pos < len(p.src) && !strings.ContainsRune(operators, rune(p.src[p.pos])) {
		p.pos++
	}
	value := strings.TrimSpace(p.src[start:p.pos])
	if value == "" {
		p.pos = start
		return nil, p.errorf("expected string")
	}
	re, err := regexp.Compile(value)
	if err != nil {
		p.pos = start
		return nil, p.errorf("invalid regex %q: %v", value, err)
	}
	return &Node{Kind: TERM, Value: value, re: re}, nil
}

// Evaluate reports whether the pattern holds for context. A TERM holds when its
// regex matches anywhere in context.
func Evaluate(n *Node, context string) bool {
	switch n.Kind {
	case TERM:
		return n.re.MatchString(context)
	case NOT:
		return !Evaluate(n.Left, context)
	case AND:
		return Evaluate(n.Left, context) && Evaluate(n.Right, context)
	case OR:
		return Evaluate(n.Left, context) || Evaluate(n.Right, context)
	}
	return false
}

// Match is shorthand for Evaluate(n, context).
func (n *Node) Match(context string) bool {
	return Evaluate(n, context)
}

// String renders the tree in fully parenthesized form.
func (n *Node) String() string {
	switch n.Kind {
	case TERM:
		return n.Value
	case NOT:
		return "~" + n.Left.String()
	case AND:
		return "(" + n.Left.String() + " & " + n.Right.String() + ")"
	case OR:
		return "(" + n.Left.String() + " | " + n.Right.String() + ")"
	}
	return ""
}
