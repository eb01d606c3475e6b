// Package lora extracts <lora:...> tags from prompt text.
//
// A tag body is colon separated:
//
//	<lora:name[:model[:clip]][:LBW=[author:]blocks;A=a;B=b]>
//
// Missing weights default to 1.0 and the clip weight defaults to the model
// weight.
package lora

import (
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"nickandperla.net/wildprompt/internal/choice"
)

var (
	tagRe       = regexp.MustCompile(`<lora:([^>]+)>`)
	lbwAuthorRe = regexp.MustCompile(`LBW=[A-Za-z][A-Za-z0-9_-]*:`)
)

const lbwPrefix = "LBW="

// Tag is one parsed lora reference.
type Tag struct {
	Name        string
	ModelWeight float64
	ClipWeight  float64
	// LBW is the block weight descriptor, empty when absent.
	LBW  string
	LBWA *float64
	LBWB *float64
}

// Extract returns the tags in text, in order, skipping repeated names, along
// with the text stripped of every tag.
func Extract(text string) (string, []Tag) {
	return Strip(text), Parse(text)
}

// Strip removes every lora tag from text.
func Strip(text string) string {
	return tagRe.ReplaceAllString(text, "")
}

// Parse returns the tags in text without modifying it.
func Parse(text string) []Tag {
	var tags []Tag
	for _, m := range tagRe.FindAllStringSubmatch(text, -1) {
		tags = append(tags, parseBody(m[1]))
	}
	return lo.UniqBy(tags, func(t Tag) string { return t.Name })
}

func parseBody(body string) Tag {
	body = lbwAuthorRe.ReplaceAllString(strings.Trim(body, ":"), lbwPrefix)
	fields := strings.Split(body, ":")

	t := Tag{Name: fields[0]}
	var weights []float64
	for _, f := range fields[1:] {
		if w, ok := choice.ParseNumber(f); ok {
			weights = append(weights, w)
			continue
		}
		if spec, ok := strings.CutPrefix(f, lbwPrefix); ok {
			t.parseLBW(spec)
		}
	}

	t.ModelWeight, t.ClipWeight = 1, 1
	if len(weights) > 0 {
		t.ModelWeight, t.ClipWeight = weights[0], weights[0]
	}
	if len(weights) > 1 {
		t.ClipWeight = weights[1]
	}
	return t
}

func (t *Tag) parseLBW(spec string) {
	for _, item := range strings.Split(spec, ";") {
		switch {
		case strings.HasPrefix(item, "A="):
			t.LBWA = lo.ToPtr(numberOr1(item[2:]))
		case strings.HasPrefix(item, "B="):
			t.LBWB = lo.ToPtr(numberOr1(item[2:]))
		case strings.TrimSpace(item) != "":
			t.LBW = item
		}
	}
}

func numberOr1(s string) float64 {
	if f, ok := choice.ParseNumber(strings.TrimSpace(s)); ok {
		return f
	}
	return 1
}

// ModelExtensions are the file extensions recognized as model weights.
var ModelExtensions = []string{".ckpt", ".pt", ".pt2", ".bin", ".pth", ".safetensors", ".pkl", ".sft"}

// FileName appends ".safetensors" to name unless it already carries a model
// extension.
func FileName(name string) string {
	if lo.Contains(ModelExtensions, path.Ext(name)) {
		return name
	}
	return name + ".safetensors"
}

// ResolveName finds the file in files that ends with the file name of the
// tag name.
func ResolveName(name string, files []string) (string, bool) {
	name = FileName(name)
	return lo.Find(files, func(f string) bool {
		return strings.HasSuffix(f, name)
	})
}

// String renders the tag back into its tag form.
func (t Tag) String() string {
	var b strings.Builder
	b.WriteString("<lora:")
	b.WriteString(t.Name)
	b.WriteString(":")
	b.WriteString(strconv.FormatFloat(t.ModelWeight, 'f', -1, 64))
	b.WriteString(":")
	b.WriteString(strconv.FormatFloat(t.ClipWeight, 'f', -1, 64))
	if t.LBW != "" || t.LBWA != nil || t.LBWB != nil {
		var parts []string
		if t.LBW != "" {
			parts = append(parts, t.LBW)
		}
		if t.LBWA != nil {
			parts = append(parts, "A="+strconv.FormatFloat(*t.LBWA, 'f', -1, 64))
		}
		if t.LBWB != nil {
			parts = append(parts, "B="+strconv.FormatFloat(*t.LBWB, 'f', -1, 64))
		}
		b.WriteString(":" + lbwPrefix + strings.Join(parts, ";"))
	}
	b.WriteString(">")
	return b.String()
}
