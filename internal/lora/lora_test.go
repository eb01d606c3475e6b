package lora

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract(t *testing.T) {
	text, tags := Extract("foo <lora:bar:0.8:0.5> baz")
	assert.Equal(t, "foo  baz", text)
	assert.Equal(t, []Tag{{Name: "bar", ModelWeight: 0.8, ClipWeight: 0.5}}, tags)
}

func TestParseDefaults(t *testing.T) {
	tags := Parse("<lora:a> <lora:b:0.7> <lora:c::>")
	require.Len(t, tags, 3)
	assert.Equal(t, Tag{Name: "a", ModelWeight: 1, ClipWeight: 1}, tags[0])
	assert.Equal(t, Tag{Name: "b", ModelWeight: 0.7, ClipWeight: 0.7}, tags[1])
	assert.Equal(t, "c", tags[2].Name)
}

func TestParseDuplicatesKeepFirst(t *testing.T) {
	tags := Parse("<lora:a:0.3> x <lora:b> y <lora:a:0.9>")
	require.Len(t, tags, 2)
	assert.Equal(t, "a", tags[0].Name)
	assert.Equal(t, 0.3, tags[0].ModelWeight)
	assert.Equal(t, "b", tags[1].Name)
}

func TestParseLBW(t *testing.T) {
	tags := Parse("<lora:style:0.6:LBW=inspire:1,0,0,1;A=0.5;B=x>")
	require.Len(t, tags, 1)
	tag := tags[0]
	assert.Equal(t, 0.6, tag.ModelWeight)
	assert.Equal(t, 0.6, tag.ClipWeight)
	assert.Equal(t, "1,0,0,1", tag.LBW)
	require.NotNil(t, tag.LBWA)
	require.NotNil(t, tag.LBWB)
	assert.Equal(t, 0.5, *tag.LBWA)
	assert.Equal(t, 1.0, *tag.LBWB)
}

func TestParseIgnoresThirdWeight(t *testing.T) {
	tags := Parse("<lora:x:0.1:0.2:0.3>")
	require.Len(t, tags, 1)
	assert.Equal(t, 0.1, tags[0].ModelWeight)
	assert.Equal(t, 0.2, tags[0].ClipWeight)
}

func TestStripOnlyTags(t *testing.T) {
	assert.Equal(t, "a <b> c", Strip("a <b> <lora:q>c"))
	assert.Equal(t, "no tags", Strip("no tags"))
}

func TestResolveName(t *testing.T) {
	files := []string{"style/anime.safetensors", "detail.pt", "other.ckpt"}

	got, ok := ResolveName("anime", files)
	require.True(t, ok)
	assert.Equal(t, "style/anime.safetensors", got)

	got, ok = ResolveName("detail.pt", files)
	require.True(t, ok)
	assert.Equal(t, "detail.pt", got)

	_, ok = ResolveName("missing", files)
	assert.False(t, ok)

	assert.Equal(t, "v1.5.safetensors", FileName("v1.5"))
}

func TestTagString(t *testing.T) {
	tags := Parse("<lora:s:0.5:0.25:LBW=ALL;A=2>")
	require.Len(t, tags, 1)
	assert.Equal(t, "<lora:s:0.5:0.25:LBW=ALL;A=2>", tags[0].String())
	assert.Equal(t, tags, Parse(tags[0].String()))
}
