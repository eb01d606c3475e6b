// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package choice implements seeded weighted sampling without replacement.
package choice

import (
	"errors"
	"math"
	"math/rand/v2"
	"regexp"
	"strconv"
	"strings"
)

var (
	numericRe   = regexp.MustCompile(`^-?\d+(\.\d+)?$`)
	directiveRe = regexp.MustCompile(`^\s*(\d+)~(\d+)\s*$`)
)

// DefaultSeparator joins multiple drawn items.
const DefaultSeparator = " "

// IsNumeric reports whether s is a plain decimal number such as 3, -1 or 0.25.
func IsNumeric(s string) bool {
	return numericRe.MatchString(s)
}

// ParseNumber returns s as a float when IsNumeric(s).
func ParseNumber(s string) (float64, bool) {
	if !IsNumeric(s) {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// Item is a candidate with its selection weight.
type Item struct {
	Weight  float64
	Content string
}

// ParseItem splits "weight,content" on the first comma. Items without a
// numeric weight prefix get weight 1 and keep their full text.
func ParseItem(raw string) Item {
	left, right, found := strings.Cut(raw, ",")
	if w, ok := ParseNumber(strings.TrimSpace(left)); ok {
		if !found {
			right = ""
		}
		return Item{Weight: w, Content: right}
	}
	return Item{Weight: 1, Content: raw}
}

// Range is an inclusive draw-count range.
type Range struct {
	Min, Max int
}

// Pick returns a count drawn uniformly from the range. The full int range
// is supported.
func (rg Range) Pick(r *rand.Rand) int {
	if rg.Max <= rg.Min {
		return rg.Min
	}
	width := uint64(rg.Max) - uint64(rg.Min)
	if width < math.MaxInt {
		return rg.Min + r.IntN(int(width)+1)
	}
	if width == math.MaxUint64 {
		return rg.Min + int(r.Uint64())
	}
	return rg.Min + int(r.Uint64N(width+1))
}

// ParseCount reads a decimal draw count. Counts too large for an int
// saturate at math.MaxInt.
func ParseCount(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, false
	}
	return n, true
}

// ParseDirective recognizes a leading "N~M" count directive.
func ParseDirective(s string) (Range, bool) {
	m := directiveRe.FindStringSubmatch(s)
	if m == nil {
		return Range{}, false
	}
	low, ok1 := ParseCount(m[1])
	high, ok2 := ParseCount(m[2])
	if !ok1 || !ok2 {
		return Range{}, false
	}
	return Range{Min: low, Max: high}, true
}

// Sample draws n distinct indexes from weights. Each draw picks a uniform
// value in [0, total) and walks the remaining items until the running sum
// exceeds it. When n exceeds the number of items, all indexes are returned
// shuffled.
func Sample(r *rand.Rand, weights []float64, n int) []int {
	remaining := make([]int, len(weights))
	for i := range remaining {
		remaining[i] = i
	}
	if n <= 0 || len(remaining) == 0 {
		return nil
	}
	if n > len(remaining) {
		r.Shuffle(len(remaining), func(i, j int) {
			remaining[i], remaining[j] = remaining[j], remaining[i]
		})
		return remaining
	}

	picked := make([]int, 0, n)
	for len(picked) < n {
		total := 0.0
		for _, idx := range remaining {
			total += weightOf(weights[idx])
		}

		pos := len(remaining) - 1
		if total <= 0 {
			pos = r.IntN(len(remaining))
		} else {
			x := r.Float64() * total
			acc := 0.0
			for i, idx := range remaining {
				acc += weightOf(weights[idx])
				if acc > x {
					pos = i
					break
				}
			}
		}

		picked = append(picked, remaining[pos])
		remaining = append(remaining[:pos], remaining[pos+1:]...)
	}
	return picked
}

func weightOf(w float64) float64 {
	if w < 0 {
		return 0
	}
	return w
}

// Choose draws from raw entries. A leading "N~M" entry sets how many items
// to draw; otherwise one is drawn. Drawn contents are joined by a space.
func Choose(r *rand.Rand, raw []string) string {
	return strings.Join(ChooseAll(r, raw), DefaultSeparator)
}

// ChooseAll is like Choose but returns the drawn contents unjoined.
func ChooseAll(r *rand.Rand, raw []string) []string {
	count := 1
	if len(raw) > 0 {
		if rg, ok := ParseDirective(raw[0]); ok {
			count = rg.Pick(r)
			raw = raw[1:]
		}
	}

	items := make([]Item, len(raw))
	weights := make([]float64, len(raw))
	for i, s := range raw {
		items[i] = ParseItem(s)
		weights[i] = items[i].Weight
	}

	out := make([]string, 0, min(count, len(items)))
	for _, idx := range Sample(r, weights, count) {
		out = append(out, items[idx].Content)
	}
	return out
}
