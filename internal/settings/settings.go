// Package settings persists the viewer configuration record.
//
// The record lives under a single key in a Storage backend and is always
// read and written whole. Loading never fails: a missing or unparsable
// record yields the built-in defaults.
package settings

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
)

// Key is the storage key holding the JSON-encoded Configuration.
const Key = "cogneeConfig"

// DefaultDatasetName is the dataset name bootstrap looks for when no dataset is configured.
const DefaultDatasetName = "main_dataset"

// Configuration is the persisted viewer configuration.
// An empty Dataset or DatasetName means no dataset is selected.
type Configuration struct {
	ServerURL    string `json:"serverUrl" yaml:"serverUrl"`
	Dataset      string `json:"dataset" yaml:"dataset"`
	DatasetName  string `json:"datasetName" yaml:"datasetName"`
	SystemPrompt string `json:"systemPrompt" yaml:"systemPrompt"`
}

// Defaults returns the built-in configuration.
func Defaults() Configuration {
	return Configuration{
		ServerURL:    "http://localhost:8000",
		SystemPrompt: "You are a helpful assistant.",
	}
}

// HasDataset reports whether a dataset is selected.
func (c Configuration) HasDataset() bool {
	return c.Dataset != ""
}

// WithDataset returns a copy of c with the dataset selection replaced.
func (c Configuration) WithDataset(id, name string) Configuration {
	c.Dataset = id
	c.DatasetName = name
	return c
}

// Store loads and saves the Configuration through a Storage backend.
type Store struct {
	storage Storage
	logger  *slog.Logger
}

// NewStore creates a store over storage. A nil logger discards logs.
func NewStore(storage Storage, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{storage: storage, logger: logger}
}

// Load returns the stored configuration, or Defaults when nothing is stored
// or the stored value is not a decodable JSON object.
func (s *Store) Load() Configuration {
	data, err := s.storage.Get(Key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Warn("read configuration failed, using defaults", "error", err)
		}
		return Defaults()
	}

	// Only a JSON object is a record; null or a bare value falls back too.
	if trimmed := bytes.TrimSpace(data); len(trimmed) == 0 || trimmed[0] != '{' {
		s.logger.Warn("stored configuration is not an object, using defaults")
		return Defaults()
	}

	var cfg Configuration
	if err := json.Unmarshal(data, &cfg); err != nil {
		s.logger.Warn("stored configuration is not parseable, using defaults", "error", err)
		return Defaults()
	}
	return cfg
}

// Save overwrites the stored configuration with cfg. Values are not validated.
func (s *Store) Save(cfg Configuration) error {
	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal configuration: %w", err)
	}
	if err := s.storage.Set(Key, data); err != nil {
		return fmt.Errorf("write configuration: %w", err)
	}
	s.logger.Debug("configuration saved", "dataset", cfg.Dataset, "server_url", cfg.ServerURL)
	return nil
}
