package dict

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestFlatten(t *testing.T) {
	src := `
m:
  Hair Color: [red, blue]
  outfit:
    top:
      - shirt
      - /girl/blouse
  single: lonely
other/flat: [x]
empty: ~
`
	var doc yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte(src), &doc))
	m, err := Flatten(&doc)
	require.NoError(t, err)

	assert.Equal(t, []string{"m/hair-color", "m/outfit/top", "m/single", "other/flat"}, m.Keys())
	v, _ := m.Get("m/outfit/top")
	assert.Equal(t, []string{"shirt", "/girl/blouse"}, v)
	v, _ = m.Get("m/single")
	assert.Equal(t, []string{"lonely"}, v)
}

func TestFlattenRejectsNonMapping(t *testing.T) {
	var doc yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte("- a\n- b\n"), &doc))
	_, err := Flatten(&doc)
	assert.Error(t, err)
}

func TestNestRoundTrip(t *testing.T) {
	m := NewMapping()
	m.Set("m/hair/color", []string{"red", "blue"})
	m.Set("other/flat", []string{"x"})
	m.Set("m/hair/style", []string{"long"})
	m.Set("m/template", []string{"__m/hair/color__"})
	m.Set("m/a", []string{"leaf"})
	m.Set("m/a/b", []string{"nested under a slot"})
	m.Set("m/empty", []string{})

	out, err := yaml.Marshal(Nest(m, "m"))
	require.NoError(t, err)

	var doc yaml.Node
	require.NoError(t, yaml.Unmarshal(out, &doc))
	back, err := Flatten(&doc)
	require.NoError(t, err)

	assert.ElementsMatch(t, m.Keys(), back.Keys())
	for k, v := range m.All() {
		got, ok := back.Get(k)
		require.True(t, ok, k)
		assert.Equal(t, v, got, k)
	}
}

func TestNestShape(t *testing.T) {
	m := NewMapping()
	m.Set("m/hair/color", []string{"red"})
	m.Set("flat/key", []string{"x"})

	out, err := yaml.Marshal(Nest(m, "m"))
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal(out, &decoded))
	assert.Equal(t, map[string]any{
		"m":        map[string]any{"hair": map[string]any{"color": []any{"red"}}},
		"flat/key": []any{"x"},
	}, decoded)
}

func TestNestRootSlotWritesFlat(t *testing.T) {
	m := NewMapping()
	m.Set("m/a", []string{"x"})
	m.Set("m", []string{"bare"})
	m.Set("m/b/c", []string{"y"})

	out, err := yaml.Marshal(Nest(m, "m"))
	require.NoError(t, err)

	var doc yaml.Node
	require.NoError(t, yaml.Unmarshal(out, &doc))
	back, err := Flatten(&doc)
	require.NoError(t, err)
	assert.Equal(t, m.Keys(), back.Keys())
	v, _ := back.Get("m")
	assert.Equal(t, []string{"bare"}, v)

	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal(out, &decoded))
	assert.Len(t, decoded, 3)
}

func TestNestGroupsInterleavedRootKeys(t *testing.T) {
	m := NewMapping()
	m.Set("m/a", []string{"1"})
	m.Set("other", []string{"2"})
	m.Set("m/b", []string{"3"})

	out, err := yaml.Marshal(Nest(m, "m"))
	require.NoError(t, err)

	var doc yaml.Node
	require.NoError(t, yaml.Unmarshal(out, &doc))
	back, err := Flatten(&doc)
	require.NoError(t, err)
	assert.Equal(t, []string{"m/a", "m/b", "other"}, back.Keys())
}
