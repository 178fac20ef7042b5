package expectations

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/lib/pq"
)

// PostgresConfigStore implements ConfigStore backed by PostgreSQL. Config
// documents are stored as jsonb rows keyed by data asset name.
type PostgresConfigStore struct {
	db *sql.DB
}

// NewPostgresConfigStore creates a PostgreSQL-backed config store.
func NewPostgresConfigStore(db *sql.DB) *PostgresConfigStore {
	return &PostgresConfigStore{db: db}
}

// ListNames returns all stored config names ordered by name.
func (s *PostgresConfigStore) ListNames() ([]string, error) {
	rows, err := s.db.Query(`
		SELECT name FROM data_asset_configs ORDER BY name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list data asset configs: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan config name: %w", err)
		}
		names = append(names, name)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating config names: %w", err)
	}

	return names, nil
}

// Load reads the config document for a data asset. A name with no row
// returns a fresh skeleton, not an error.
func (s *PostgresConfigStore) Load(name string) (*DataAssetConfig, error) {
	var document []byte
	err := s.db.QueryRow(`
		SELECT document FROM data_asset_configs WHERE name = $1
	`, name).Scan(&document)

	if err == sql.ErrNoRows {
		return NewDataAssetConfig(name), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config for %s: %w", name, err)
	}

	var cfg DataAssetConfig
	if err := json.Unmarshal(document, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config document for %s: %w", name, err)
	}
	return &cfg, nil
}

// Save upserts the config document for its data asset.
func (s *PostgresConfigStore) Save(cfg *DataAssetConfig) error {
	if cfg.DataAssetName == "" {
		return errMissingAssetName
	}

	document, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config for %s: %w", cfg.DataAssetName, err)
	}

	_, err = s.db.Exec(`
		INSERT INTO data_asset_configs (name, document, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())
		ON CONFLICT (name) DO UPDATE
		SET document = EXCLUDED.document, updated_at = NOW()
	`, cfg.DataAssetName, document)

	if err != nil {
		return fmt.Errorf("failed to save config for %s: %w", cfg.DataAssetName, err)
	}
	return nil
}
