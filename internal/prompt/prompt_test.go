package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nickandperla.net/wildprompt/internal/lora"
)

func TestExtractOptions(t *testing.T) {
	text, opts := ExtractOptions("a cat opt:832x1216 opt:hires, sitting")
	assert.Equal(t, "a cat  , sitting", text)
	assert.Equal(t, 832, opts.Width)
	assert.Equal(t, 1216, opts.Height)
	assert.Equal(t, map[string]bool{"hires": true}, opts.Flags)
}

func TestProcess(t *testing.T) {
	res := Process("a cat <lora:fur:0.7> BREAK  sunset [SEP]a dog opt:512x512[SEP]")
	require.Len(t, res.Parts, 3)

	first := res.Parts[0]
	assert.Equal(t, []lora.Tag{{Name: "fur", ModelWeight: 0.7, ClipWeight: 0.7}}, first.Loras)
	assert.Equal(t, []string{"a cat", "sunset"}, first.Chunks)
	assert.NotContains(t, first.Stripped, "<lora")

	assert.Equal(t, []string{"a dog"}, res.Parts[1].Chunks)
	assert.Equal(t, 512, res.Options.Width)

	assert.Equal(t, []string{""}, res.Parts[2].Chunks)
	assert.Empty(t, res.Parts[2].Loras)
}

func TestProcessBreakOnly(t *testing.T) {
	res := Process(" BREAK BREAK ")
	require.Len(t, res.Parts, 1)
	assert.Equal(t, []string{""}, res.Parts[0].Chunks)
}
