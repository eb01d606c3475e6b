package expand

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nickandperla.net/wildprompt/internal/dict"
)

func newEngine(t *testing.T, slots map[string][]string, opts ...Option) *Engine {
	t.Helper()
	m := dict.NewMapping()
	for k, v := range slots {
		m.Set(k, v)
	}
	return New(dict.NewStore(nil, dict.WithMapping(m)), opts...)
}

func TestFoldComments(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"line1\n# comment\nline2", "line1 line2"},
		{"# leading\na\nb", "a\nb"},
		{"a\n  # one\n# two\nb\nc", "a b\nc"},
		{"a\n# trailing", "a"},
		{"no comments", "no comments"},
		{"2#__x__\n#c\ny", "2#__x__ y"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FoldComments(tt.in), tt.in)
	}
}

func TestExpandPlainTextUnchanged(t *testing.T) {
	e := newEngine(t, map[string][]string{"color": {"red"}})
	for _, text := range []string{"", "a cat | on a mat", "under_score and $$ signs", "{unclosed|group", "__"} {
		out, chosen := e.Expand(text, Seed(1))
		assert.Equal(t, text, out)
		assert.Empty(t, chosen)
	}
}

func TestExpandDeterministic(t *testing.T) {
	e := newEngine(t, map[string][]string{
		"color":  {"red", "blue", "green", "2,black"},
		"animal": {"cat", "dog", "/red/fox", "1~2", "bird"},
		"m/pose": {"sitting", "standing", "{lying|kneeling}"},
	})
	text := "a {big|small|1-3$$tiny|huge|odd} __color__ __animal__, __pose__, 2#__color__"
	for seed := uint64(0); seed < 30; seed++ {
		out1, chosen1 := e.Expand(text, Seed(seed))
		out2, chosen2 := e.Expand(text, Seed(seed))
		assert.Equal(t, out1, out2)
		assert.Equal(t, chosen1, chosen2)
		assert.NotContains(t, out1, "__")
		assert.NotContains(t, out1, "{")
	}
}

func TestExpandMultiSelectExactCount(t *testing.T) {
	e := newEngine(t, nil)
	for seed := uint64(0); seed < 200; seed++ {
		out, _ := e.Expand("{2-2$$a|b|c}", Seed(seed))
		parts := strings.Split(out, " ")
		require.Len(t, parts, 2, out)
		assert.NotEqual(t, parts[0], parts[1])
		for _, p := range parts {
			assert.Contains(t, []string{"a", "b", "c"}, p)
		}
	}
}

func TestExpandMultiSelectForms(t *testing.T) {
	e := newEngine(t, map[string][]string{"color": {"red", "blue"}})

	for seed := uint64(0); seed < 50; seed++ {
		out, _ := e.Expand("{2$$, $$a|b}", Seed(seed))
		assert.Contains(t, []string{"a, b", "b, a"}, out)

		out, _ = e.Expand("{2$$__color__}", Seed(seed))
		assert.Contains(t, []string{"red blue", "blue red"}, out)

		out, _ = e.Expand("{-1$$x|y}", Seed(seed))
		assert.Contains(t, []string{"x", "y"}, out)

		out, _ = e.Expand("{5$$x|y}", Seed(seed))
		assert.Contains(t, []string{"x y", "y x"}, out)

		out, _ = e.Expand("{0::a|3::b}", Seed(seed))
		assert.Equal(t, "b", out)
	}
}

func TestExpandOversizedCounts(t *testing.T) {
	e := newEngine(t, map[string][]string{
		"a": {"red"},
		"d": {"0~9223372036854775807", "p", "q"},
		"e": {"99999999999999999999~99999999999999999999", "p", "q"},
	})
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"range at max int", "{0-9223372036854775807$$a|b}", []string{"", "a", "b", "a b", "b a"}},
		{"range past max int", "{0-99999999999999999999$$a|b}", []string{"", "a", "b", "a b", "b a"}},
		{"exact count past max int", "{99999999999999999999$$a|b}", []string{"a b", "b a"}},
		{"upper bound past max int", "{-99999999999999999999$$a|b}", []string{"a", "b", "a b", "b a"}},
		{"slot directive at max int", "__d__", []string{"", "p", "q", "p q", "q p"}},
		{"slot directive past max int", "__e__", []string{"p q", "q p"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for seed := uint64(0); seed < 20; seed++ {
				var out string
				require.NotPanics(t, func() { out, _ = e.Expand(tt.text, Seed(seed)) })
				assert.Contains(t, tt.want, out)
			}
		})
	}
}

func TestExpandQuantifierCappedByIterations(t *testing.T) {
	e := newEngine(t, map[string][]string{"a": {"red"}}, WithMaxIterations(50))
	for _, text := range []string{"1000000000000000#__a__", "99999999999999999999#__a__"} {
		var out string
		require.NotPanics(t, func() { out, _ = e.Expand(text, Seed(1)) })
		parts := strings.Split(out, "|")
		assert.Len(t, parts, 50, text)
		for _, p := range parts {
			assert.Equal(t, "red", p)
		}
	}
}

func TestExpandNestedGroups(t *testing.T) {
	e := newEngine(t, nil)
	for seed := uint64(0); seed < 50; seed++ {
		out, _ := e.Expand("{a {x|y}|b}", Seed(seed))
		assert.Contains(t, []string{"a x", "a y", "b"}, out)
	}
}

func TestExpandQuantifier(t *testing.T) {
	e := newEngine(t, map[string][]string{"color": {"red", "blue"}})
	for seed := uint64(0); seed < 50; seed++ {
		out, _ := e.Expand("2#__color__", Seed(seed))
		parts := strings.Split(out, "|")
		require.Len(t, parts, 2, out)
		for _, p := range parts {
			assert.Contains(t, []string{"red", "blue"}, p)
		}
	}

	out, _ := e.Expand("{2$$3#__Color__}", Seed(4))
	assert.Len(t, strings.Split(out, " "), 2)
}

func TestExpandNestedWildcards(t *testing.T) {
	e := newEngine(t, map[string][]string{
		"outer": {"__inner__ x"},
		"inner": {"y"},
	})
	out, chosen := e.Expand("__outer__", Seed(1))
	assert.Equal(t, "y x", out)
	assert.Equal(t, map[string]string{"outer": "__inner__ x", "inner": "y"}, chosen)
}

func TestExpandUnresolvedLeftInPlace(t *testing.T) {
	e := newEngine(t, map[string][]string{"color": {"red"}})
	out, _ := e.Expand("__missing__ and __color__ and __a/missing__", Seed(1))
	assert.Equal(t, "__missing__ and red and __a/missing__", out)
}

func TestExpandGlobAndGroupFallback(t *testing.T) {
	e := newEngine(t, map[string][]string{
		"m/hair/color": {"red"},
		"m/eye/color":  {"blue"},
		"other":        {"x"},
	})
	seen := map[string]bool{}
	for seed := uint64(0); seed < 50; seed++ {
		out, _ := e.Expand("__m/*/color__", Seed(seed))
		seen[out] = true
	}
	assert.Equal(t, map[string]bool{"red": true, "blue": true}, seen)

	out, _ := e.Expand("__hair/*__", Seed(1))
	assert.Equal(t, "__hair/*__", out)

	e = newEngine(t, map[string][]string{"m/hair/color": {"red"}})
	out, chosen := e.Expand("__Color__", Seed(1))
	assert.Equal(t, "red", out)
	assert.Equal(t, "red", chosen["color"])
}

func TestExpandContextualEntries(t *testing.T) {
	e := newEngine(t, map[string][]string{
		"hair":  {"/girl/long hair", "short hair"},
		"acc":   {"hat", "scarf", "/cat=/collar"},
		"dress": {"girl & ~boy => dress", "pants"},
		"bad":   {"/unclosed[/x", "ok"},
	})
	for seed := uint64(0); seed < 20; seed++ {
		out, _ := e.Expand("a girl with __hair__", Seed(seed))
		assert.Equal(t, "a girl with long hair", out)

		out, _ = e.Expand("a boy with __hair__", Seed(seed))
		assert.Equal(t, "a boy with short hair", out)

		out, _ = e.Expand("a cat wearing __acc__", Seed(seed))
		assert.Equal(t, "a cat wearing collar", out)

		out, _ = e.Expand("a girl in __dress__", Seed(seed))
		assert.Contains(t, []string{"a girl in dress", "a girl in pants"}, out)

		out, _ = e.Expand("a boy in __dress__", Seed(seed))
		assert.Equal(t, "a boy in pants", out)

		out, _ = e.Expand("__bad__", Seed(seed))
		assert.Equal(t, "ok", out)
	}
}

func TestExpandContextIsPrecedingTextOnly(t *testing.T) {
	e := newEngine(t, map[string][]string{"hair": {"/girl/long hair"}})
	out, chosen := e.Expand("__hair__ girl", Seed(1))
	assert.Equal(t, " girl", out)
	assert.Equal(t, "", chosen["hair"])
}

func TestExpandOverrides(t *testing.T) {
	e := newEngine(t, map[string][]string{"m/color": {"red", "blue"}})

	out, chosen := e.Expand("__m/color__", Params{Seed: 1, Seeded: true, Overrides: map[string]string{"color": "green"}})
	assert.Equal(t, "green", out)
	assert.Equal(t, map[string]string{"color": "green"}, chosen)

	out, chosen = e.Expand("x __m/color__", Params{Seeded: true, Overrides: map[string]string{"color": "disabled"}})
	assert.Equal(t, "x ", out)
	assert.Empty(t, chosen)

	out, chosen = e.Expand("__m/color__", Params{Seeded: true, Overrides: map[string]string{"color": "random"}})
	assert.Contains(t, []string{"red", "blue"}, out)
	assert.Equal(t, out, chosen["color"])
}

func TestExpandIterationCap(t *testing.T) {
	e := newEngine(t, map[string][]string{"loop": {"__loop__"}}, WithMaxIterations(10))
	out, _ := e.Expand("__loop__", Seed(1))
	assert.Equal(t, "__loop__", out)
}

func TestLastGenerated(t *testing.T) {
	e := newEngine(t, map[string][]string{"m/color": {"red"}})
	assert.Empty(t, e.LastGenerated())

	_, chosen := e.Expand("__m/color__", Seed(1))
	last := e.LastGenerated()
	assert.Equal(t, chosen, last)

	last["color"] = "changed"
	assert.Equal(t, "red", e.LastGenerated()["color"])
}

func TestExpandUnseeded(t *testing.T) {
	e := newEngine(t, map[string][]string{"color": {"red"}})
	out, _ := e.Expand("__color__", Params{})
	assert.Equal(t, "red", out)
}
