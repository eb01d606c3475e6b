package wildprompt

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"nickandperla.net/wildprompt/internal/dict"
	"nickandperla.net/wildprompt/internal/expand"
	"nickandperla.net/wildprompt/internal/lora"
	"nickandperla.net/wildprompt/internal/prompt"
	"nickandperla.net/wildprompt/internal/store"
)

// Params are the per-call inputs of an expansion.
type Params = expand.Params

// Result is the output of the prompt pipeline.
type Result = prompt.Result

// LoraTag is one lora reference extracted from a prompt.
type LoraTag = lora.Tag

// MenuItem is one editable slot with its selectable values.
type MenuItem = dict.MenuItem

// MoveResult reports the outcome of MoveSlot.
type MoveResult = dict.MoveResult

// Position is where ReorderGroup places a group.
type Position = dict.Position

// Move statuses and reorder positions.
const (
	MoveDone     = dict.MoveDone
	MoveConflict = dict.MoveConflict
	MoveFailed   = dict.MoveFailed
	Before       = dict.Before
	End          = dict.End
)

// ErrNotFound is returned by edits naming a slot or group that does not exist.
var ErrNotFound = dict.ErrNotFound

// ConflictError reports an edit that would overwrite an existing key.
type ConflictError = dict.ConflictError

// Seed returns Params for a reproducible expansion.
func Seed(seed uint64) Params {
	return expand.Seed(seed)
}

// Runtime is the wildcard prompt runtime.
type Runtime struct {
	backend store.Store
	dir     *store.Dir
	dict    *dict.Store
	engine  *expand.Engine

	open          opener
	log           *zap.SugaredLogger
	root          string
	maxIterations int
	watch         bool

	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a runtime with the given options and loads the dictionary.
// Without a store option the dictionary lives in memory.
func New(opts ...Option) (*Runtime, error) {
	r := &Runtime{
		log:           zap.NewNop().Sugar(),
		root:          dict.DefaultRoot,
		maxIterations: expand.DefaultMaxIterations,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.open == nil {
		WithMemoryStore(nil)(r)
	}

	backend, err := r.open(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	r.backend = backend

	r.dict = dict.NewStore(backend, dict.WithRoot(r.root), dict.WithLogger(r.log))
	r.engine = expand.New(r.dict,
		expand.WithRoot(r.root),
		expand.WithMaxIterations(r.maxIterations),
		expand.WithLogger(r.log),
	)
	if err := r.dict.Reload(); err != nil {
		backend.Close()
		return nil, fmt.Errorf("failed to load wildcards: %w", err)
	}

	if r.watch && r.dir != nil {
		if err := r.startWatch(); err != nil {
			backend.Close()
			return nil, err
		}
	}
	return r, nil
}

func (r *Runtime) startWatch() error {
	ctx, cancel := context.WithCancel(context.Background())
	changes, err := r.dir.Watch(ctx)
	if err != nil {
		cancel()
		return err
	}
	r.cancel = cancel
	r.done = make(chan struct{})
	go func() {
		defer close(r.done)
		for range changes {
			if err := r.dict.Reload(); err != nil {
				r.log.Warnf("Reload after file change failed: %v", err)
			}
		}
	}()
	return nil
}

// Expand rewrites a template and returns it with the value chosen per slot.
func (r *Runtime) Expand(text string, p Params) (string, map[string]string) {
	return r.engine.Expand(text, p)
}

// Process expands a template and runs the prompt pipeline over the result.
func (r *Runtime) Process(text string, p Params) Result {
	out, _ := r.engine.Expand(text, p)
	return prompt.Process(out)
}

// ExtractLoraTags removes lora tags from text and returns them.
func (r *Runtime) ExtractLoraTags(text string) (string, []LoraTag) {
	return lora.Extract(text)
}

// GeneratePrompt expands the root template with selections pinning slots by
// short name.
func (r *Runtime) GeneratePrompt(seed uint64, selections map[string]string) string {
	p := Seed(seed)
	p.Overrides = selections
	out, _ := r.engine.Expand("__"+dict.Join(r.root, "template")+"__", p)
	return out
}

// LastGenerated returns the chosen-value map of the most recent expansion.
func (r *Runtime) LastGenerated() map[string]string {
	return r.engine.LastGenerated()
}

// Snapshot returns a copy of the current dictionary.
func (r *Runtime) Snapshot() *Mapping {
	return r.dict.Snapshot().Clone()
}

// WildcardList returns every key as a __key__ token.
func (r *Runtime) WildcardList() []string {
	return r.dict.WildcardList()
}

// Menu returns the editable slots with their selectable values.
func (r *Runtime) Menu() []MenuItem {
	return r.dict.Menu()
}

// Add creates or replaces a slot under the editable root and returns its key.
func (r *Runtime) Add(name string, values []string) (string, error) {
	return r.dict.Add(name, values)
}

// Rename renames a slot in place.
func (r *Runtime) Rename(name, newName string) error {
	return r.dict.Rename(name, newName)
}

// EditGroup renames a group prefix.
func (r *Runtime) EditGroup(name, newName string) error {
	return r.dict.EditGroup(name, newName)
}

// DeleteGroup removes every slot in a group.
func (r *Runtime) DeleteGroup(name string) error {
	return r.dict.DeleteGroup(name)
}

// DeleteSlot removes one slot.
func (r *Runtime) DeleteSlot(name string) error {
	return r.dict.DeleteSlot(name)
}

// MoveSlot moves or copies a slot next to another slot or into a group.
func (r *Runtime) MoveSlot(from, to string, isTargetGroup, isCopy, force bool) (MoveResult, error) {
	return r.dict.MoveSlot(from, to, isTargetGroup, isCopy, force)
}

// ReorderGroup moves a group's block of keys.
func (r *Runtime) ReorderGroup(fromGroup, toGroup string, pos Position) error {
	return r.dict.ReorderGroup(fromGroup, toGroup, pos)
}

// Reload re-reads the dictionary from the store.
func (r *Runtime) Reload() error {
	return r.dict.Reload()
}

// Close stops watching and releases the store.
func (r *Runtime) Close() error {
	if r.cancel != nil {
		r.cancel()
		<-r.done
		r.cancel = nil
	}
	return r.backend.Close()
}

// ParsePosition parses "before", "end" or "last".
func ParsePosition(s string) (Position, bool) {
	return dict.ParsePosition(s)
}
