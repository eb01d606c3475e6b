package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/tidwall/buntdb"

	"nickandperla.net/wildprompt/internal/dict"
)

const (
	slotPrefix = "slot:"
	metaPrefix = "meta:"
)

type storedSlot struct {
	Key     string   `json:"key"`
	Pos     int      `json:"pos"`
	Entries []string `json:"entries"`
}

// Bunt is a buntdb-backed store. Each slot is a JSON record under
// "slot:<key>" carrying its position.
type Bunt struct {
	db *buntdb.DB
}

// NewBunt opens the database at path. ":memory:" keeps it in memory.
func NewBunt(path string) (*Bunt, error) {
	db, err := buntdb.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open buntdb %s: %w", path, err)
	}
	b := &Bunt{db: db}

	version, err := b.GetMetadata(MetaSchemaVersion)
	if err != nil {
		db.Close()
		return nil, err
	}
	switch version {
	case "":
		if err := b.SetMetadata(MetaSchemaVersion, SchemaVersion); err != nil {
			db.Close()
			return nil, err
		}
	case SchemaVersion:
	default:
		db.Close()
		return nil, fmt.Errorf("unsupported schema version: %s (expected %s)", version, SchemaVersion)
	}
	return b, nil
}

// LoadAll reads every slot record and orders them by position.
func (b *Bunt) LoadAll() (*dict.Mapping, error) {
	var slots []storedSlot
	err := b.db.View(func(tx *buntdb.Tx) error {
		var innerErr error
		err := tx.AscendKeys(slotPrefix+"*", func(key, value string) bool {
			var rec storedSlot
			if err := json.Unmarshal([]byte(value), &rec); err != nil {
				innerErr = fmt.Errorf("%s: %w", key, err)
				return false
			}
			if rec.Key == "" {
				rec.Key = strings.TrimPrefix(key, slotPrefix)
			}
			slots = append(slots, rec)
			return true
		})
		if innerErr != nil {
			return innerErr
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(slots, func(a, b storedSlot) int { return a.Pos - b.Pos })
	m := dict.NewMapping()
	for _, rec := range slots {
		m.Set(rec.Key, rec.Entries)
	}
	return m, nil
}

// Persist replaces every slot record in one update transaction.
func (b *Bunt) Persist(m *dict.Mapping) error {
	return b.db.Update(func(tx *buntdb.Tx) error {
		var stale []string
		if err := tx.AscendKeys(slotPrefix+"*", func(key, _ string) bool {
			stale = append(stale, key)
			return true
		}); err != nil {
			return err
		}
		for _, key := range stale {
			if _, err := tx.Delete(key); err != nil && !errors.Is(err, buntdb.ErrNotFound) {
				return err
			}
		}

		pos := 0
		for key, entries := range m.All() {
			if entries == nil {
				entries = []string{}
			}
			payload, err := json.Marshal(storedSlot{Key: key, Pos: pos, Entries: entries})
			if err != nil {
				return err
			}
			if _, _, err := tx.Set(slotPrefix+key, string(payload), nil); err != nil {
				return err
			}
			pos++
		}
		_, _, err := tx.Set(metaPrefix+MetaSlotCount, strconv.Itoa(pos), nil)
		return err
	})
}

// Close closes the database.
func (b *Bunt) Close() error {
	return b.db.Close()
}

// GetMetadata retrieves a metadata value by key.
func (b *Bunt) GetMetadata(key string) (string, error) {
	var value string
	err := b.db.View(func(tx *buntdb.Tx) error {
		v, err := tx.Get(metaPrefix + key)
		if err != nil {
			if errors.Is(err, buntdb.ErrNotFound) {
				return nil
			}
			return err
		}
		value = v
		return nil
	})
	return value, err
}

// SetMetadata stores a metadata value by key.
func (b *Bunt) SetMetadata(key, value string) error {
	return b.db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(metaPrefix+key, value, nil)
		return err
	})
}
