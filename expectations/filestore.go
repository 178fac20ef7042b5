package expectations

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FileConfigStore implements ConfigStore over a directory of <name>.json
// documents, one per data asset.
type FileConfigStore struct {
	dir string
}

// NewFileConfigStore creates a file-backed config store rooted at dir,
// creating the directory if needed.
func NewFileConfigStore(dir string) (*FileConfigStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create config directory %s: %w", dir, err)
	}
	return &FileConfigStore{dir: dir}, nil
}

// Dir returns the directory backing this store.
func (s *FileConfigStore) Dir() string {
	return s.dir
}

// ListNames returns the names of all .json config documents, sorted.
func (s *FileConfigStore) ListNames() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read config directory %s: %w", s.dir, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), ".json"))
	}
	sort.Strings(names)
	return names, nil
}

// Load reads the config document for a data asset. A missing file returns a
// fresh skeleton, not an error.
func (s *FileConfigStore) Load(name string) (*DataAssetConfig, error) {
	data, err := os.ReadFile(s.path(name))
	if os.IsNotExist(err) {
		return NewDataAssetConfig(name), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config for %s: %w", name, err)
	}

	var cfg DataAssetConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config document for %s: %w", name, err)
	}
	return &cfg, nil
}

// Save writes the config document for its data asset.
func (s *FileConfigStore) Save(cfg *DataAssetConfig) error {
	if cfg.DataAssetName == "" {
		return errMissingAssetName
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config for %s: %w", cfg.DataAssetName, err)
	}

	if err := os.WriteFile(s.path(cfg.DataAssetName), data, 0o644); err != nil {
		return fmt.Errorf("failed to write config for %s: %w", cfg.DataAssetName, err)
	}
	return nil
}

func (s *FileConfigStore) path(name string) string {
	return filepath.Join(s.dir, name+".json")
}
