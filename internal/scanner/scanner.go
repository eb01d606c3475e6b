// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package scanner provides a positioned lexer for wildcard templates.
package scanner

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	"nickandperla.net/wildprompt/internal/token"
)

// KeywordPattern matches the characters allowed in a wildcard keyword.
const KeywordPattern = `[\w.\-+/*\\]+`

var (
	wildcardRe   = regexp.MustCompile(`__(` + KeywordPattern + `)__`)
	quantifierRe = regexp.MustCompile(`(\d+)#__(` + KeywordPattern + `)__`)
)

// Scanner tokenizes template text, recognizing only the requested token kinds.
// Everything else is returned as TEXT.
type Scanner struct {
	src    string
	pos    int
	line   int // Current line number (1-based)
	kinds  token.Set
	peeked *Item
}

// Item represents a scanned token with its value and byte span in the source.
type Item struct {
	Token token.Token
	Value string // keyword for WILDCARD/QUANTIFIER, body for GROUP, raw text for TEXT
	Count int    // repetition count for QUANTIFIER
	Start int
	End   int
	Line  int // Line number where this token started
}

// Raw returns the source text the item was scanned from.
func (i *Item) Raw(src string) string {
	return src[i.Start:i.End]
}

// New creates a new Scanner over src.
func New(src string, kinds token.Set) *Scanner {
	return &Scanner{src: src, line: 1, kinds: kinds}
}

// Line returns the current line number (1-based).
func (s *Scanner) Line() int {
	return s.line
}

// Peek returns the next item without consuming it.
func (s *Scanner) Peek() *Item {
	if s.peeked == nil {
		s.peeked = s.scan()
	}
	return s.peeked
}

// Next returns the next item from the input.
func (s *Scanner) Next() *Item {
	if s.peeked != nil {
		item := s.peeked
		s.peeked = nil
		return item
	}
	return s.scan()
}

func (s *Scanner) scan() *Item {
	if s.pos >= len(s.src) {
		return &Item{Token: token.EOF, Start: s.pos, End: s.pos, Line: s.line}
	}

	next := s.nextToken()
	if next == nil {
		return s.emitText(len(s.src))
	}
	if next.Start > s.pos {
		return s.emitText(next.Start)
	}

	next.Line = s.line
	s.advance(next.End)
	return next
}

func (s *Scanner) emitText(end int) *Item {
	item := &Item{Token: token.TEXT, Value: s.src[s.pos:end], Start: s.pos, End: end, Line: s.line}
	s.advance(end)
	return item
}

func (s *Scanner) advance(to int) {
	s.line += strings.Count(s.src[s.pos:to], "\n")
	s.pos = to
}

// nextToken finds the leftmost recognized token at or after pos.
func (s *Scanner) nextToken() *Item {
	var best *Item
	consider := func(item *Item) {
		if item != nil && (best == nil || item.Start < best.Start) {
			best = item
		}
	}

	rest := s.src[s.pos:]
	if s.kinds.Has(token.QUANTIFIER) {
		if m := quantifierRe.FindStringSubmatchIndex(rest); m != nil {
			n, err := strconv.Atoi(rest[m[2]:m[3]])
			if err == nil || errors.Is(err, strconv.ErrRange) {
				consider(&Item{
					Token: token.QUANTIFIER,
					Value: rest[m[4]:m[5]],
					Count: n,
					Start: s.pos + m[0],
					End:   s.pos + m[1],
				})
			}
		}
	}
	if s.kinds.Has(token.WILDCARD) {
		if m := wildcardRe.FindStringSubmatchIndex(rest); m != nil {
			consider(&Item{
				Token: token.WILDCARD,
				Value: rest[m[2]:m[3]],
				Start: s.pos + m[0],
				End:   s.pos + m[1],
			})
		}
	}
	if s.kinds.Has(token.GROUP) {
		if start, end, ok := innermostGroup(rest); ok {
			consider(&Item{
				Token: token.GROUP,
				Value: rest[start+1 : end-1],
				Start: s.pos + start,
				End:   s.pos + end,
			})
		}
	}
	return best
}

// innermostGroup returns the span of the leftmost brace group that contains no
// other braces. An opener without a matching closer is plain text.
func innermostGroup(src string) (start, end int, ok bool) {
	i := strings.IndexByte(src, token.RuneGroupOpen)
	for i >= 0 {
		j := strings.IndexAny(src[i+1:], "{}")
		if j < 0 {
			return 0, 0, false
		}
		j += i + 1
		if src[j] == token.RuneGroupClose {
			return i, j + 1, true
		}
		i = j
	}
	return 0, 0, false
}

// All returns every item of the given kind in src, in order.
func All(src string, kind token.Token) []*Item {
	var items []*Item
	s := New(src, token.Of(kind))
	for {
		item := s.Next()
		if item.Token == token.EOF {
			return items
		}
		if item.Token == kind {
			items = append(items, item)
		}
	}
}

// First returns the first item of the given kind in src.
func First(src string, kind token.Token) (*Item, bool) {
	s := New(src, token.Of(kind))
	for {
		item := s.Next()
		switch item.Token {
		case token.EOF:
			return nil, false
		case kind:
			return item, true
		}
	}
}
