// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package expand

import (
	"regexp"
	"strings"

	"nickandperla.net/wildprompt/internal/choice"
	"nickandperla.net/wildprompt/internal/dict"
	"nickandperla.net/wildprompt/internal/expr"
	"nickandperla.net/wildprompt/internal/scanner"
	"nickandperla.net/wildprompt/internal/token"
)

var (
	rangeRe        = regexp.MustCompile(`^(\d+)(-(\d+))?`)
	upperBoundRe   = regexp.MustCompile(`^-(\d+)`)
	weightPrefixRe = regexp.MustCompile(`^\s*[0-9.]+::`)
)

// resolveWildcard looks keyword up by exact key, then as a glob, then as
// "*/keyword". It reports false when nothing matched.
func (x *expansion) resolveWildcard(keyword, context string) (string, bool) {
	name := dict.ShortName(keyword, x.root)
	if entries, ok := x.m.Get(keyword); ok {
		return x.pick(name, entries, context), true
	}
	pattern := keyword
	if !strings.Contains(keyword, "*") {
		if strings.Contains(keyword, dict.Sep) {
			return "", false
		}
		pattern = "*" + dict.Sep + keyword
	}
	entries := x.glob(pattern)
	if len(entries) == 0 {
		return "", false
	}
	return x.pick(name, entries, context), true
}

// glob collects the entries of every key matching keyword, where "*" matches
// any run of characters. Matching is anchored at the start of the key only.
func (x *expansion) glob(keyword string) []string {
	src := strings.ReplaceAll(keyword, "+", `\+`)
	src = strings.ReplaceAll(src, "*", ".*")
	re, err := regexp.Compile("^" + src)
	if err != nil {
		x.log.Debugf("Bad glob %q: %v", keyword, err)
		return nil
	}
	var out []string
	for k, v := range x.m.All() {
		if re.MatchString(k) || re.MatchString(k+dict.Sep) {
			out = append(out, v...)
		}
	}
	return out
}

// pick chooses one value for a slot and records it under name. Overrides
// take precedence.
func (x *expansion) pick(name string, raw []string, context string) string {
	if v, ok := x.overrides[name]; ok {
		switch v {
		case dict.ChoiceDisabled:
			return ""
		case dict.ChoiceRandom:
		default:
			x.chosen[name] = v
			return v
		}
	}

	entries := make([]expr.Entry, len(raw))
	for i, r := range raw {
		entries[i] = x.classify(name, r)
	}
	value := choice.Choose(x.gen.General, expr.Select(entries, context))
	x.chosen[name] = value
	return value
}

func (x *expansion) classify(name, raw string) expr.Entry {
	if e, ok := x.entries[raw]; ok {
		return e
	}
	e := expr.Classify(raw)
	if inv, ok := e.(expr.Invalid); ok {
		x.log.Debugf("Ignoring entry of %s: %v", name, inv)
	}
	x.entries[raw] = e
	return e
}

// resolveGroup draws from the alternatives of one option group body.
//
// A first alternative containing "$$" is a multi-select directive:
//
//	N$$a|b         draw N
//	N-M$$a|b       draw between N and M
//	-M$$a|b        draw between 1 and M
//	N$$__kw__      draw from the entries of kw
//	N$$, $$a|b     join with ", "
//
// Alternatives may carry a "weight::" prefix.
func (x *expansion) resolveGroup(body string) string {
	options := strings.Split(body, string(token.RuneOption))
	sep := choice.DefaultSeparator
	count := choice.Range{Min: 1, Max: 1}

	if segs := strings.Split(options[0], token.MultiSelect); len(segs) > 1 {
		if rg, ok := parseRange(segs[0]); ok {
			count = rg
		}
		switch len(segs) {
		case 2:
			options[0] = segs[1]
			if len(options) == 1 {
				if item, ok := scanner.First(segs[1], token.WILDCARD); ok {
					if entries, found := x.m.Get(dict.Normalize(item.Value)); found && len(entries) > 0 {
						options = entries
					}
				}
			}
		default:
			sep = segs[1]
			options[0] = strings.Join(segs[2:], token.MultiSelect)
		}
	}

	weights := make([]float64, len(options))
	for i, opt := range options {
		weights[i] = 1
		if left, _, ok := strings.Cut(opt, token.WeightSep); ok {
			if w, numeric := choice.ParseNumber(strings.TrimSpace(left)); numeric {
				weights[i] = w
			}
		}
	}

	picked := choice.Sample(x.gen.Numeric, weights, count.Pick(x.gen.Numeric))
	out := make([]string, len(picked))
	for i, idx := range picked {
		out[i] = weightPrefixRe.ReplaceAllString(options[idx], "")
	}
	return strings.Join(out, sep)
}

// parseRange reads the draw count in front of "$$".
func parseRange(s string) (choice.Range, bool) {
	if m := rangeRe.FindStringSubmatch(s); m != nil {
		low, _ := choice.ParseCount(m[1])
		if m[3] == "" {
			return choice.Range{Min: low, Max: low}, true
		}
		high, _ := choice.ParseCount(m[3])
		return choice.Range{Min: low, Max: high}, true
	}
	if m := upperBoundRe.FindStringSubmatch(s); m != nil {
		high, _ := choice.ParseCount(m[1])
		return choice.Range{Min: 1, Max: high}, true
	}
	return choice.Range{}, false
}
