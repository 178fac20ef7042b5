package expectations

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestFileConfigStoreImplementsInterface(t *testing.T) {
	var _ ConfigStore = (*FileConfigStore)(nil)
}

func TestFileConfigStoreRoundTrip(t *testing.T) {
	store, err := NewFileConfigStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileConfigStore() failed: %v", err)
	}

	cfg := configWithReferences("downstream", ordersMinURN)
	if err := store.Save(cfg); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	loaded, err := store.Load("downstream")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if !reflect.DeepEqual(loaded, cfg) {
		t.Errorf("Load() = %+v, want the saved config %+v", loaded, cfg)
	}
}

func TestFileConfigStoreLoadMissingCreatesSkeleton(t *testing.T) {
	store, err := NewFileConfigStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileConfigStore() failed: %v", err)
	}

	cfg, err := store.Load("never-saved")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.DataAssetName != "never-saved" {
		t.Errorf("DataAssetName = %s, want never-saved", cfg.DataAssetName)
	}
	if len(cfg.Expectations) != 0 {
		t.Error("skeleton should have no expectations")
	}

	// Loading alone must not create the file.
	if _, err := os.Stat(filepath.Join(store.Dir(), "never-saved.json")); !os.IsNotExist(err) {
		t.Error("Load() should not persist the skeleton")
	}
}

func TestFileConfigStoreListNames(t *testing.T) {
	store, err := NewFileConfigStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileConfigStore() failed: %v", err)
	}

	for _, name := range []string{"zeta", "alpha"} {
		if err := store.Save(NewDataAssetConfig(name)); err != nil {
			t.Fatalf("Save(%s) failed: %v", name, err)
		}
	}
	// Non-json clutter is ignored.
	if err := os.WriteFile(filepath.Join(store.Dir(), "README.md"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	names, err := store.ListNames()
	if err != nil {
		t.Fatalf("ListNames() failed: %v", err)
	}
	if !reflect.DeepEqual(names, []string{"alpha", "zeta"}) {
		t.Errorf("ListNames() = %v, want sorted [alpha zeta]", names)
	}
}

func TestFileConfigStoreSaveRequiresName(t *testing.T) {
	store, err := NewFileConfigStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileConfigStore() failed: %v", err)
	}

	if err := store.Save(&DataAssetConfig{}); err == nil {
		t.Error("Save() should reject a config without a data asset name")
	}
}

func TestFileConfigStoreCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "configs")

	if _, err := NewFileConfigStore(dir); err != nil {
		t.Fatalf("NewFileConfigStore() failed: %v", err)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("store directory should exist: %v", err)
	}
}
