package wildprompt

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nickandperla.net/wildprompt/internal/config"
)

func newMemoryRuntime(t *testing.T, kv ...string) *Runtime {
	t.Helper()
	m := NewMapping()
	for i := 0; i+1 < len(kv); i += 2 {
		m.Set(kv[i], []string{kv[i+1]})
	}
	r, err := New(WithMemoryStore(m))
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r
}

func TestNewDefaultsToMemory(t *testing.T) {
	r, err := New()
	require.NoError(t, err)
	defer r.Close()
	assert.Empty(t, r.WildcardList())

	key, err := r.Add("color", []string{"red"})
	require.NoError(t, err)
	assert.Equal(t, "m/color", key)
	out, _ := r.Expand("__color__", Seed(1))
	assert.Equal(t, "red", out)
}

func TestGeneratePrompt(t *testing.T) {
	r := newMemoryRuntime(t,
		"m/template", "a __m/hair__ girl",
		"m/hair", "{long|short}",
	)
	out := r.GeneratePrompt(3, nil)
	assert.Contains(t, []string{"a long girl", "a short girl"}, out)
	assert.Equal(t, out, r.GeneratePrompt(3, nil))

	out = r.GeneratePrompt(3, map[string]string{"hair": "blonde"})
	assert.Equal(t, "a blonde girl", out)
	assert.Equal(t, "blonde", r.LastGenerated()["hair"])
}

func TestProcess(t *testing.T) {
	r := newMemoryRuntime(t, "style", "<lora:ink:0.7> ink")
	res := r.Process("opt:512x768 __style__ BREAK sky [SEP] sea", Seed(1))
	assert.Equal(t, 512, res.Options.Width)
	assert.Equal(t, 768, res.Options.Height)
	require.Len(t, res.Parts, 2)
	require.Len(t, res.Parts[0].Loras, 1)
	assert.Equal(t, "ink", res.Parts[0].Loras[0].Name)
	assert.Equal(t, []string{"ink", "sky"}, res.Parts[0].Chunks)
	assert.Equal(t, []string{"sea"}, res.Parts[1].Chunks)
}

func TestExtractLoraTags(t *testing.T) {
	r := newMemoryRuntime(t)
	text, tags := r.ExtractLoraTags("foo <lora:bar:0.8:0.5> baz")
	assert.Equal(t, "foo  baz", text)
	require.Len(t, tags, 1)
	assert.Equal(t, 0.8, tags[0].ModelWeight)
	assert.Equal(t, 0.5, tags[0].ClipWeight)
}

func TestEditsThroughRuntime(t *testing.T) {
	r := newMemoryRuntime(t, "m/a/x", "1", "m/a/y", "2", "m/b/z", "3")

	res, err := r.MoveSlot("m/a/x", "m/b", true, false, false)
	require.NoError(t, err)
	assert.Equal(t, MoveDone, res.Status)
	assert.Equal(t, []string{"m/a/y", "m/b/x", "m/b/z"}, r.Snapshot().Keys())

	require.NoError(t, r.ReorderGroup("m/b", "m/a", Before))
	assert.Equal(t, []string{"m/b/x", "m/b/z", "m/a/y"}, r.Snapshot().Keys())

	require.NoError(t, r.Rename("m/a/y", "m/a/w"))
	require.NoError(t, r.EditGroup("m/a", "m/c"))
	assert.Equal(t, []string{"m/b/x", "m/b/z", "m/c/w"}, r.Snapshot().Keys())

	var conflict *ConflictError
	assert.ErrorAs(t, r.Rename("m/b/x", "m/b/z"), &conflict)

	require.NoError(t, r.DeleteGroup("m/b"))
	require.NoError(t, r.DeleteSlot("m/c/w"))
	assert.Zero(t, r.Snapshot().Len())
	assert.ErrorIs(t, r.DeleteSlot("m/c/w"), ErrNotFound)
}

func TestSnapshotIsACopy(t *testing.T) {
	r := newMemoryRuntime(t, "color", "red")

	snap := r.Snapshot()
	snap.Set("color", []string{"changed"})
	snap.Delete("color")
	snap.Set("extra", []string{"x"})

	out, _ := r.Expand("__color__", Seed(1))
	assert.Equal(t, "red", out)
	assert.Equal(t, []string{"__color__"}, r.WildcardList())
}

func TestMenu(t *testing.T) {
	r := newMemoryRuntime(t, "m/hair", "long", "other", "x")
	menu := r.Menu()
	require.Len(t, menu, 1)
	assert.Equal(t, "hair", menu[0].Name)
	assert.Equal(t, []string{"disabled", "random", "long"}, menu[0].Choices)
}

func TestSQLiteRuntimePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wildcards.db")
	r, err := New(WithSQLiteStore(path))
	require.NoError(t, err)
	_, err = r.Add("hair", []string{"long", "short"})
	require.NoError(t, err)
	require.NoError(t, r.Close())

	r, err = New(WithSQLiteStore(path))
	require.NoError(t, err)
	defer r.Close()
	assert.Equal(t, []string{"__m/hair__"}, r.WildcardList())
}

func TestFromConfig(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "color.txt"), []byte("red\n"), 0o644))

	cfg := &config.Config{Backend: config.BackendDir, Wildcards: []string{dir}}
	cfg.SetDefaults()
	require.NoError(t, cfg.Validate())

	r, err := New(FromConfig(cfg)...)
	require.NoError(t, err)
	defer r.Close()

	_, err = r.Add("hair", []string{"long"})
	require.NoError(t, err)
	_, err = os.Stat(cfg.PersistFile)
	assert.NoError(t, err)
}

func TestWatchReloads(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "color.txt"), []byte("red\n"), 0o644))

	r, err := New(WithDirStore([]string{dir}, ""), WithWatch(true))
	require.NoError(t, err)
	defer r.Close()

	out, _ := r.Expand("__color__", Seed(1))
	require.Equal(t, "red", out)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "color.txt"), []byte("blue\n"), 0o644))
	assert.Eventually(t, func() bool {
		out, _ := r.Expand("__color__", Seed(1))
		return out == "blue"
	}, 5*time.Second, 20*time.Millisecond)
}

func TestNewFailsOnBadStore(t *testing.T) {
	dir := t.TempDir()
	_, err := New(WithSQLiteStore(filepath.Join(dir, "missing", "x.db")))
	assert.Error(t, err)
}
