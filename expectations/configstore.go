package expectations

import (
	"errors"
	"sort"
	"sync"
)

var errMissingAssetName = errors.New("data asset config has no data_asset_name")

// ConfigStore manages data asset config persistence and retrieval.
type ConfigStore interface {
	// ListNames returns the names of all stored configs.
	ListNames() ([]string, error)

	// Load returns the config for a data asset. A name with no stored
	// document returns a fresh empty skeleton, not an error.
	Load(name string) (*DataAssetConfig, error)

	// Save persists a config.
	Save(cfg *DataAssetConfig) error
}

// NewDataAssetConfig returns an empty config skeleton for the given asset,
// tagged with the current schema version.
func NewDataAssetConfig(name string) *DataAssetConfig {
	return &DataAssetConfig{
		DataAssetName: name,
		Meta: map[string]any{
			"great_expectations_version": SchemaVersion,
		},
		Expectations: []Expectation{},
	}
}

// InMemoryConfigStore implements ConfigStore using an in-memory map.
// Thread-safe with RWMutex.
type InMemoryConfigStore struct {
	mu      sync.RWMutex
	configs map[string]*DataAssetConfig
}

// NewInMemoryConfigStore creates a new in-memory config store.
func NewInMemoryConfigStore() *InMemoryConfigStore {
	return &InMemoryConfigStore{
		configs: make(map[string]*DataAssetConfig),
	}
}

// ListNames returns the stored config names in sorted order.
func (s *InMemoryConfigStore) ListNames() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.configs))
	for name := range s.configs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Load returns the stored config, or a fresh skeleton if none exists.
func (s *InMemoryConfigStore) Load(name string) (*DataAssetConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cfg, ok := s.configs[name]
	if !ok {
		return NewDataAssetConfig(name), nil
	}
	return cfg, nil
}

// Save stores the config under its data asset name.
func (s *InMemoryConfigStore) Save(cfg *DataAssetConfig) error {
	if cfg.DataAssetName == "" {
		return errMissingAssetName
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.configs[cfg.DataAssetName] = cfg
	return nil
}
