// Package config holds the user's persisted flashcard settings.
package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// StorageKey is the key the settings blob is stored under.
const StorageKey = "jisho2anki_config"

// DefaultBackendURL is where AnkiConnect listens by default.
const DefaultBackendURL = "http://127.0.0.1:8765"

// Sentinel errors.
var (
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
)

// Error describes a missing or invalid setting.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("configuration: %s: %s", e.Field, e.Message)
}

func (e *Error) Unwrap() error { return ErrConfiguration }

// FieldMapping maps a destination field to its ordered source keys.
type FieldMapping map[string][]string

// Tags is an ordered tag list. It also decodes the older form where all
// tags were one space-separated string.
type Tags []string

func (t *Tags) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*t = strings.Fields(s)
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("tags: %w", err)
	}
	*t = list
	return nil
}

// MappingConfig is the persisted settings blob.
type MappingConfig struct {
	BackendURL   string `json:"ankiUrl"`
	DeckName     string `json:"deckName"`
	NoteTypeName string `json:"modelName"`
	Tags         Tags   `json:"tags"`
	// FieldMapping is keyed by note type name.
	FieldMapping map[string]FieldMapping `json:"fieldMapping"`
}

// Default returns the settings used before anything was saved.
func Default() MappingConfig {
	return MappingConfig{
		BackendURL:   DefaultBackendURL,
		Tags:         Tags{"jisho.org"},
		FieldMapping: map[string]FieldMapping{},
	}
}

// Validate checks the settings a submission needs.
func (c MappingConfig) Validate() error {
	if strings.TrimSpace(c.DeckName) == "" {
		return &Error{Field: "deckName", Message: "deck is not configured"}
	}
	if strings.TrimSpace(c.NoteTypeName) == "" {
		return &Error{Field: "modelName", Message: "note type is not configured"}
	}
	return nil
}

// Mapping returns the field mapping for noteType. A note type without a
// mapping entry is a configuration error; an empty mapping is not.
func (c MappingConfig) Mapping(noteType string) (FieldMapping, error) {
	m, ok := c.FieldMapping[noteType]
	if !ok {
		return nil, &Error{Field: "fieldMapping", Message: fmt.Sprintf("no field mapping for note type %q", noteType)}
	}
	return m, nil
}

// SetMapping replaces the mapping of noteType, dropping fields with no
// sources.
func (c *MappingConfig) SetMapping(noteType string, m FieldMapping) {
	if c.FieldMapping == nil {
		c.FieldMapping = map[string]FieldMapping{}
	}
	clean := FieldMapping{}
	for field, keys := range m {
		if len(keys) > 0 {
			clean[field] = append([]string(nil), keys...)
		}
	}
	c.FieldMapping[noteType] = clean
}

// Store persists JSON blobs by key.
type Store interface {
	// Get returns ErrNotFound when key was never stored.
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
}

// Load reads the settings and fills keys missing from the stored blob with
// their defaults. Older blob shapes are only merged this way, not migrated.
func Load(ctx context.Context, s Store) (MappingConfig, error) {
	cfg := Default()
	blob, err := s.Get(ctx, StorageKey)
	if errors.Is(err, ErrNotFound) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("load config: %w", err)
	}
	if err := json.Unmarshal(blob, &cfg); err != nil {
		return Default(), fmt.Errorf("decode config: %w", err)
	}
	if cfg.FieldMapping == nil {
		cfg.FieldMapping = map[string]FieldMapping{}
	}
	return cfg, nil
}

// Save writes the settings.
func Save(ctx context.Context, s Store, cfg MappingConfig) error {
	blob, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := s.Put(ctx, StorageKey, blob); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	return nil
}
