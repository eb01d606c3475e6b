package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"nickandperla.net/wildprompt/internal/dict"
)

// ErrReadOnly is returned by Persist when no persist file is configured.
var ErrReadOnly = errors.New("no persist file configured")

// Dir loads wildcards from directories of .txt and .yaml files.
//
// A .txt file becomes one slot keyed by its path relative to the directory,
// one entry per line. A .yaml file holds nested groups of entry lists.
// Directories are read in order and later ones override earlier ones.
//
// Edits are written to a single persist file holding the whole mapping.
// When that file exists it is loaded last: its slots keep their persisted
// order and values, and slots found only in the directories are appended.
type Dir struct {
	dirs        []string
	persistFile string
	root        string
	log         *zap.SugaredLogger

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	closed  bool
}

// DirOption configures a Dir.
type DirOption func(*Dir)

// WithPersistFile sets the YAML file edits are written to.
func WithPersistFile(path string) DirOption {
	return func(d *Dir) { d.persistFile = path }
}

// WithRoot sets the editable root group nested by Persist.
func WithRoot(root string) DirOption {
	return func(d *Dir) { d.root = dict.Normalize(root) }
}

// WithLogger sets the logger. The store names it "store".
func WithLogger(log *zap.SugaredLogger) DirOption {
	return func(d *Dir) { d.log = log }
}

// NewDir creates a directory store.
func NewDir(dirs []string, opts ...DirOption) *Dir {
	d := &Dir{
		dirs: dirs,
		root: dict.DefaultRoot,
		log:  zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.log = d.log.Named("store")
	return d
}

// LoadAll reads every directory, then the persist file.
func (d *Dir) LoadAll() (*dict.Mapping, error) {
	m := dict.NewMapping()
	for _, dir := range d.dirs {
		if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
			d.log.Warnf("Wildcard directory %s does not exist", dir)
			continue
		}
		if err := d.loadDir(m, dir); err != nil {
			return nil, err
		}
	}

	if d.persistFile == "" {
		return m, nil
	}
	persisted := dict.NewMapping()
	if err := d.loadYAML(persisted, d.persistFile); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return m, nil
		}
		return nil, err
	}
	for k, v := range m.All() {
		if !persisted.Has(k) {
			persisted.Set(k, v)
		}
	}
	return persisted, nil
}

func (d *Dir) loadDir(m *dict.Mapping, dir string) error {
	persistAbs, _ := filepath.Abs(d.persistFile)
	return filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		if abs, _ := filepath.Abs(path); d.persistFile != "" && abs == persistAbs {
			return nil
		}
		switch filepath.Ext(path) {
		case ".txt":
			rel, err := filepath.Rel(dir, path)
			if err != nil {
				return err
			}
			lines, err := readLines(path)
			if err != nil {
				return err
			}
			m.Set(filepath.ToSlash(strings.TrimSuffix(rel, ".txt")), lines)
		case ".yaml", ".yml":
			if err := d.loadYAML(m, path); err != nil {
				return err
			}
		}
		return nil
	})
}

func (d *Dir) loadYAML(m *dict.Mapping, path string) error {
	data, err := readText(path)
	if err != nil {
		return err
	}
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(data), &doc); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	if doc.Kind == 0 {
		return nil
	}
	if err := dict.FlattenInto(m, &doc); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// readText reads a file as UTF-8, falling back to Latin-1 for files that
// are not valid UTF-8.
func readText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if utf8.Valid(data) {
		return string(data), nil
	}
	runes := make([]rune, len(data))
	for i, b := range data {
		runes[i] = rune(b)
	}
	return string(runes), nil
}

func readLines(path string) ([]string, error) {
	text, err := readText(path)
	if err != nil {
		return nil, err
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return []string{}, nil
	}
	return strings.Split(text, "\n"), nil
}

// Persist writes the full mapping to the persist file. Keys under the root
// are nested by group.
func (d *Dir) Persist(m *dict.Mapping) error {
	if d.persistFile == "" {
		return ErrReadOnly
	}
	data, err := yaml.Marshal(dict.Nest(m, d.root))
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(d.persistFile), 0o755); err != nil {
		return err
	}
	tmp := d.persistFile + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, d.persistFile)
}

// Watch starts watching the directories for wildcard file changes.
// Returns a channel that receives a value when a file changes. Writes to
// the persist file are ignored.
func (d *Dir) Watch(ctx context.Context) (<-chan struct{}, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, fmt.Errorf("store is closed")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	for _, dir := range d.dirs {
		if err := addTree(watcher, dir); err != nil {
			watcher.Close()
			return nil, err
		}
	}
	d.watcher = watcher

	ch := make(chan struct{}, 1)
	go d.watchLoop(ctx, watcher, ch)

	d.log.Infof("Watching %d wildcard directories", len(d.dirs))
	return ch, nil
}

// addTree watches dir and every directory below it.
func addTree(w *fsnotify.Watcher, dir string) error {
	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			if err := w.Add(path); err != nil {
				return fmt.Errorf("failed to watch directory %s: %w", path, err)
			}
		}
		return nil
	})
}

func (d *Dir) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, ch chan<- struct{}) {
	defer close(ch)
	defer watcher.Close()

	// Debounce timer to coalesce rapid changes
	const debounceDelay = 100 * time.Millisecond
	var debounce *time.Timer
	var fire <-chan time.Time
	persistAbs, _ := filepath.Abs(d.persistFile)

	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			return

		case <-fire:
			fire = nil
			select {
			case ch <- struct{}{}:
				d.log.Debugf("Wildcard files changed")
			default:
				// Change already pending
			}

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if abs, _ := filepath.Abs(event.Name); d.persistFile != "" && (abs == persistAbs || abs == persistAbs+".tmp") {
				continue
			}
			if event.Op&fsnotify.Create == fsnotify.Create {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := addTree(watcher, event.Name); err != nil {
						d.log.Warnf("Watch new directory: %v", err)
					}
				}
			}
			if !isWildcardFile(event.Name) {
				continue
			}
			if debounce == nil {
				debounce = time.NewTimer(debounceDelay)
			} else {
				debounce.Reset(debounceDelay)
			}
			fire = debounce.C

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			d.log.Errorf("File watcher error: %v", err)
		}
	}
}

func isWildcardFile(name string) bool {
	switch filepath.Ext(name) {
	case ".txt", ".yaml", ".yml":
		return true
	}
	return false
}

// Close stops watching and releases resources.
func (d *Dir) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.closed = true
	if d.watcher != nil {
		err := d.watcher.Close()
		d.watcher = nil
		return err
	}
	return nil
}
