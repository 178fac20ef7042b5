package expectations

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/liamcoop/expectations/internal/logger"
)

// DataContext ties together a config store, a parameter store and the
// compiled parameter index. It is the owner of the index lifecycle: any
// config save marks the index stale and the next registration recompiles it
// in full before use. The published index is an immutable snapshot swapped
// atomically, so readers never observe a partially built index.
type DataContext struct {
	configs ConfigStore
	params  ParameterStore

	index     atomic.Pointer[CompiledParameterIndex]
	stale     atomic.Bool
	compileMu sync.Mutex
}

// NewDataContext creates a context over the given config store with an
// in-memory parameter store.
func NewDataContext(configs ConfigStore) *DataContext {
	return NewDataContextWithParameterStore(configs, NewInMemoryParameterStore())
}

// NewDataContextWithParameterStore creates a context with a caller-supplied
// parameter store.
func NewDataContextWithParameterStore(configs ConfigStore, params ParameterStore) *DataContext {
	dc := &DataContext{
		configs: configs,
		params:  params,
	}
	dc.stale.Store(true)
	return dc
}

// ListDataAssetConfigs returns the names of all known data asset configs.
func (dc *DataContext) ListDataAssetConfigs() ([]string, error) {
	return dc.configs.ListNames()
}

// GetDataAssetConfig returns the config for a data asset, creating an empty
// skeleton for names with no stored document.
func (dc *DataContext) GetDataAssetConfig(name string) (*DataAssetConfig, error) {
	return dc.configs.Load(name)
}

// SaveDataAssetConfig persists a config and marks the parameter index stale.
func (dc *DataContext) SaveDataAssetConfig(cfg *DataAssetConfig) error {
	if err := dc.configs.Save(cfg); err != nil {
		return err
	}
	dc.stale.Store(true)
	return nil
}

// RegisterValidationResults extracts every indexed parameter from one
// validation run's output and stores it under runID. The index is recompiled
// first when stale or never built. Per-parameter problems are returned as
// warnings, never as errors; the error return covers config store failures
// during recompilation only.
func (dc *DataContext) RegisterValidationResults(runID string, result *ValidationResult) (int, []Warning, error) {
	idx, err := dc.currentIndex()
	if err != nil {
		return 0, nil, err
	}

	stored, warnings := registerParameters(runID, result, idx, dc.params)
	for _, w := range warnings {
		logger.Warn(w.Message, "code", string(w.Code), "urn", w.URN)
	}
	return stored, warnings, nil
}

// BindEvaluationParameters returns every parameter stored for a run, or an
// empty mapping for runs with nothing registered. It never fails.
func (dc *DataContext) BindEvaluationParameters(runID string) map[string]any {
	return dc.params.GetAll(runID)
}

// StoreEvaluationParameter upserts a single parameter value for a run.
func (dc *DataContext) StoreEvaluationParameter(runID, urn string, value any) {
	dc.params.Put(runID, urn, value)
}

// GetEvaluationParameter returns a single stored parameter value for a run.
func (dc *DataContext) GetEvaluationParameter(runID, urn string) (any, bool) {
	return dc.params.Get(runID, urn)
}

// ValidateDataset runs every expectation in the named asset's config against
// a dataset, binding stored evaluation parameters for runID into reference
// arguments, then registers the produced result so downstream configs can
// consume its values.
func (dc *DataContext) ValidateDataset(en *Engine, ds Tabular, assetName, runID string) (*ValidationResult, []Warning, error) {
	cfg, err := dc.configs.Load(assetName)
	if err != nil {
		return nil, nil, err
	}

	result, warnings := en.Validate(ds, cfg, runID, dc.BindEvaluationParameters(runID))

	stored, regWarnings, err := dc.RegisterValidationResults(runID, result)
	if err != nil {
		return nil, nil, err
	}
	warnings = append(warnings, regWarnings...)

	logger.Info("validated dataset",
		"data_asset", assetName,
		"run_id", runID,
		"expectations", len(result.Results),
		"parameters_stored", stored,
	)
	return result, warnings, nil
}

// currentIndex returns the published index, recompiling it first when stale
// or never built. Compilation is serialized; the stale flag is cleared before
// compiling so a save racing with a compile leaves the index stale again.
func (dc *DataContext) currentIndex() (*CompiledParameterIndex, error) {
	if idx := dc.index.Load(); idx != nil && !dc.stale.Load() {
		return idx, nil
	}

	dc.compileMu.Lock()
	defer dc.compileMu.Unlock()

	if idx := dc.index.Load(); idx != nil && !dc.stale.Load() {
		return idx, nil
	}

	names, err := dc.configs.ListNames()
	if err != nil {
		return nil, fmt.Errorf("failed to list data asset configs: %w", err)
	}

	configs := make([]*DataAssetConfig, 0, len(names))
	for _, name := range names {
		cfg, err := dc.configs.Load(name)
		if err != nil {
			return nil, fmt.Errorf("failed to load config %s: %w", name, err)
		}
		configs = append(configs, cfg)
	}

	dc.stale.Store(false)
	idx, warnings := CompileParameterIndex(configs, names)
	for _, w := range warnings {
		logger.Warn(w.Message, "code", string(w.Code), "urn", w.URN)
	}
	dc.index.Store(idx)

	logger.Debug("compiled parameter index",
		"configs", len(configs),
		"parameters", len(idx.Raw),
	)
	return idx, nil
}
