package expectations

import (
	"fmt"
	"sync"
	"testing"
)

func TestParameterStoreInterfaceExists(t *testing.T) {
	var _ ParameterStore = (*InMemoryParameterStore)(nil)
}

func TestParameterStoreRoundTrip(t *testing.T) {
	store := NewInMemoryParameterStore()

	store.Put("run-1", ordersMinURN, float64(5))

	v, ok := store.Get("run-1", ordersMinURN)
	if !ok {
		t.Fatal("Get() should find a stored value")
	}
	if v != float64(5) {
		t.Errorf("Get() = %v, want 5", v)
	}

	all := store.GetAll("run-1")
	if len(all) != 1 || all[ordersMinURN] != float64(5) {
		t.Errorf("GetAll() = %v, want the stored pair", all)
	}
}

func TestParameterStoreLastWriteWins(t *testing.T) {
	store := NewInMemoryParameterStore()

	store.Put("run-1", ordersMinURN, float64(5))
	store.Put("run-1", ordersMinURN, float64(7))

	if v, _ := store.Get("run-1", ordersMinURN); v != float64(7) {
		t.Errorf("Get() = %v, want the last written value 7", v)
	}
}

func TestParameterStoreUnknownRun(t *testing.T) {
	store := NewInMemoryParameterStore()

	if _, ok := store.Get("never-registered", ordersMinURN); ok {
		t.Error("Get() should miss for an unknown run")
	}

	all := store.GetAll("never-registered")
	if all == nil {
		t.Fatal("GetAll() should return an empty map, not nil")
	}
	if len(all) != 0 {
		t.Errorf("GetAll() = %v, want empty", all)
	}
}

func TestParameterStoreRunsAreIndependent(t *testing.T) {
	store := NewInMemoryParameterStore()

	store.Put("run-1", ordersMinURN, float64(5))
	store.Put("run-2", ordersMinURN, float64(9))

	if v, _ := store.Get("run-1", ordersMinURN); v != float64(5) {
		t.Errorf("run-1 value = %v, want 5", v)
	}
	if v, _ := store.Get("run-2", ordersMinURN); v != float64(9) {
		t.Errorf("run-2 value = %v, want 9", v)
	}
}

func TestParameterStoreGetAllReturnsCopy(t *testing.T) {
	store := NewInMemoryParameterStore()
	store.Put("run-1", ordersMinURN, float64(5))

	all := store.GetAll("run-1")
	all[ordersMinURN] = float64(99)

	if v, _ := store.Get("run-1", ordersMinURN); v != float64(5) {
		t.Error("mutating the GetAll() result should not affect the store")
	}
}

func TestParameterStoreConcurrentPuts(t *testing.T) {
	store := NewInMemoryParameterStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			runID := fmt.Sprintf("run-%d", i%5)
			store.Put(runID, fmt.Sprintf("%sasset:expectations:kind:result:key_%d", ValidationsURNPrefix, i), i)
		}(i)
	}
	wg.Wait()

	var total int
	for i := 0; i < 5; i++ {
		total += len(store.GetAll(fmt.Sprintf("run-%d", i)))
	}
	if total != 50 {
		t.Errorf("stored %d parameters across runs, want 50", total)
	}
}
