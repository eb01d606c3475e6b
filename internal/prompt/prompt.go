// Package prompt splits expanded text into the parts an image pipeline
// consumes: option directives, [SEP] separated prompts, lora tags and
// BREAK separated chunks.
package prompt

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"nickandperla.net/wildprompt/internal/lora"
)

const (
	// PartSeparator splits the text into independent prompts.
	PartSeparator = "[SEP]"
	// ChunkSeparator splits one prompt into separately encoded chunks.
	ChunkSeparator = "BREAK"
)

var (
	optionRe = regexp.MustCompile(`opt:(\w+)`)
	sizeRe   = regexp.MustCompile(`^(\d+)x(\d+)`)
)

// Options are the "opt:" directives found in a prompt. "opt:WxH" sets the
// size; any other word becomes a flag.
type Options struct {
	Width  int
	Height int
	Flags  map[string]bool
}

// Part is one [SEP] separated prompt.
type Part struct {
	// Text is the part as written, tags included.
	Text string
	// Stripped is Text with lora tags removed.
	Stripped string
	Loras    []lora.Tag
	// Chunks holds the trimmed BREAK separated pieces of Stripped. It is
	// never empty.
	Chunks []string
}

// Result is the outcome of Process.
type Result struct {
	Text    string
	Options Options
	Parts   []Part
}

// ExtractOptions removes every "opt:word" directive from text.
func ExtractOptions(text string) (string, Options) {
	opts := Options{Flags: make(map[string]bool)}
	out := optionRe.ReplaceAllStringFunc(text, func(match string) string {
		word := match[len("opt:"):]
		if m := sizeRe.FindStringSubmatch(word); m != nil {
			opts.Width, _ = strconv.Atoi(m[1])
			opts.Height, _ = strconv.Atoi(m[2])
			return ""
		}
		opts.Flags[word] = true
		return ""
	})
	return out, opts
}

// Process splits already expanded text into parts.
func Process(text string) Result {
	stripped, opts := ExtractOptions(text)
	parts := lo.Map(strings.Split(stripped, PartSeparator), func(s string, _ int) Part {
		return newPart(s)
	})
	return Result{Text: stripped, Options: opts, Parts: parts}
}

func newPart(text string) Part {
	stripped, tags := lora.Extract(text)
	chunks := lo.Compact(lo.Map(strings.Split(stripped, ChunkSeparator), func(s string, _ int) string {
		return strings.TrimSpace(s)
	}))
	if len(chunks) == 0 {
		chunks = []string{""}
	}
	return Part{Text: text, Stripped: stripped, Loras: tags, Chunks: chunks}
}
