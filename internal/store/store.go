// Package store provides persistence for the wildcard dictionary.
package store

import "nickandperla.net/wildprompt/internal/dict"

// Store is the interface for dictionary persistence.
type Store interface {
	// LoadAll reads the full mapping.
	LoadAll() (*dict.Mapping, error)
	// Persist replaces the stored mapping with m.
	Persist(m *dict.Mapping) error
	// Close releases resources.
	Close() error
}

// MetadataStore extends Store with metadata operations.
type MetadataStore interface {
	Store
	GetMetadata(key string) (string, error)
	SetMetadata(key, value string) error
}

// Metadata keys maintained by the stores.
const (
	MetaSchemaVersion = "schema_version"
	MetaSlotCount     = "slot_count"
)
