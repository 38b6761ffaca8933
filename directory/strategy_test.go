package directory_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/mwantia/uvfs/backend"
	"github.com/mwantia/uvfs/backend/local"
	"github.com/mwantia/uvfs/backend/memory"
	"github.com/mwantia/uvfs/data"
	"github.com/mwantia/uvfs/directory"
	"github.com/spf13/afero"
)

type TestStrategyFactory func(tst *testing.T) (backend.Driver, directory.Strategy)

func GetTestStrategyFactories() map[string]TestStrategyFactory {
	flat := func(t directory.Type) TestStrategyFactory {
		return func(tst *testing.T) (backend.Driver, directory.Strategy) {
			driver := memory.NewMemoryBackend(memory.NewStore())
			strategy, err := directory.New(t, driver)
			if err != nil {
				tst.Fatalf("New failed: %v", err)
			}
			return driver, strategy
		}
	}

	return map[string]TestStrategyFactory{
		"prefix": flat(directory.TypePrefix),
		"marker": flat(directory.TypeMarker),
		"native": func(tst *testing.T) (backend.Driver, directory.Strategy) {
			driver := local.NewLocalBackend(afero.NewMemMapFs())
			if err := driver.Open(tst.Context()); err != nil {
				tst.Fatalf("Open failed: %v", err)
			}
			strategy, err := directory.New(directory.TypeNative, driver)
			if err != nil {
				tst.Fatalf("New failed: %v", err)
			}
			return driver, strategy
		},
	}
}

func TestStrategies_MakeListRemove(t *testing.T) {
	for name, factory := range GetTestStrategyFactories() {
		t.Run(name, func(tst *testing.T) {
			ctx := tst.Context()
			driver, strategy := factory(tst)

			if err := strategy.Make(ctx, "x"); err != nil {
				tst.Fatalf("Make failed: %v", err)
			}
			if err := strategy.Make(ctx, "x/z"); err != nil {
				tst.Fatalf("Make failed: %v", err)
			}
			if _, err := driver.Create(ctx, "x/y.txt", bytes.NewReader([]byte("hello"))); err != nil {
				tst.Fatalf("Create failed: %v", err)
			}

			exists, err := strategy.Exists(ctx, "x")
			if err != nil || !exists {
				tst.Fatalf("Expected 'x' to exist: %v, %v", exists, err)
			}

			entries, err := strategy.List(ctx, "x")
			if err != nil {
				tst.Fatalf("List failed: %v", err)
			}
			if len(entries) != 2 {
				tst.Fatalf("Expected 2 entries, got %d: %+v", len(entries), entries)
			}
			if entries[0].Key != "x/y.txt" || entries[0].Kind != data.KindFile || entries[0].Size != 5 {
				tst.Errorf("Unexpected file entry: %+v", entries[0])
			}
			if entries[1].Key != "x/z" || entries[1].Kind != data.KindDirectory {
				tst.Errorf("Unexpected directory entry: %+v", entries[1])
			}

			if err := strategy.RemoveAll(ctx, "x"); err != nil {
				tst.Fatalf("RemoveAll failed: %v", err)
			}

			for _, key := range []string{"x", "x/z"} {
				exists, err := strategy.Exists(ctx, key)
				if err != nil {
					tst.Fatalf("Exists failed: %v", err)
				}
				if exists {
					tst.Errorf("Expected '%s' to be removed", key)
				}
			}
			if _, err := driver.Stat(ctx, "x/y.txt"); !errors.Is(err, data.ErrNotExist) {
				tst.Errorf("Expected ErrNotExist, got %v", err)
			}
		})
	}
}

func TestStrategies_MakeConflictsWithObject(t *testing.T) {
	for name, factory := range GetTestStrategyFactories() {
		t.Run(name, func(tst *testing.T) {
			ctx := tst.Context()
			driver, strategy := factory(tst)

			if _, err := driver.Create(ctx, "file", bytes.NewReader([]byte("data"))); err != nil {
				tst.Fatalf("Create failed: %v", err)
			}

			if err := strategy.Make(ctx, "file"); !errors.Is(err, data.ErrConflict) {
				tst.Errorf("Expected ErrConflict, got %v", err)
			}

			exists, err := strategy.Exists(ctx, "file")
			if err != nil {
				tst.Fatalf("Exists failed: %v", err)
			}
			if exists {
				tst.Errorf("Expected file not to be reported as directory")
			}
		})
	}
}

func TestStrategies_RootAlwaysExists(t *testing.T) {
	for name, factory := range GetTestStrategyFactories() {
		t.Run(name, func(tst *testing.T) {
			_, strategy := factory(tst)

			exists, err := strategy.Exists(tst.Context(), "")
			if err != nil || !exists {
				tst.Errorf("Expected root to exist: %v, %v", exists, err)
			}
		})
	}
}

func TestMarkerStrategy_PersistsAcrossInstances(t *testing.T) {
	ctx := t.Context()
	store := memory.NewStore()

	first, err := directory.New(directory.TypeMarker, memory.NewMemoryBackend(store))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := first.Make(ctx, "empty"); err != nil {
		t.Fatalf("Make failed: %v", err)
	}

	second, err := directory.New(directory.TypeMarker, memory.NewMemoryBackend(store))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	exists, err := second.Exists(ctx, "empty")
	if err != nil || !exists {
		t.Errorf("Expected marker directory to survive: %v, %v", exists, err)
	}

	entries, err := second.List(ctx, "empty")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Expected marker to be hidden, got %+v", entries)
	}
}

func TestPrefixStrategy_PendingIsProcessLocal(t *testing.T) {
	ctx := t.Context()
	store := memory.NewStore()

	first, err := directory.New(directory.TypePrefix, memory.NewMemoryBackend(store))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := first.Make(ctx, "empty"); err != nil {
		t.Fatalf("Make failed: %v", err)
	}
	if store.Len() != 0 {
		t.Errorf("Expected no placeholder object, got %d objects", store.Len())
	}

	second, err := directory.New(directory.TypePrefix, memory.NewMemoryBackend(store))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	exists, err := second.Exists(ctx, "empty")
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if exists {
		t.Errorf("Expected empty directory to be gone for a fresh pending set")
	}
}

func TestNew_Mismatch(t *testing.T) {
	flat := memory.NewMemoryBackend(memory.NewStore())
	if _, err := directory.New(directory.TypeNative, flat); !errors.Is(err, data.ErrConstruction) {
		t.Errorf("Expected ErrConstruction for native on flat driver, got %v", err)
	}

	tree := local.NewLocalBackend(afero.NewMemMapFs())
	for _, typ := range []directory.Type{directory.TypePrefix, directory.TypeMarker} {
		if _, err := directory.New(typ, tree); !errors.Is(err, data.ErrConstruction) {
			t.Errorf("Expected ErrConstruction for %s on hierarchical driver, got %v", typ, err)
		}
	}

	if typ := directory.DefaultType(flat); typ != directory.TypePrefix {
		t.Errorf("Expected prefix default, got %s", typ)
	}
	if typ := directory.DefaultType(tree); typ != directory.TypeNative {
		t.Errorf("Expected native default, got %s", typ)
	}
}

func TestParseType(t *testing.T) {
	if typ, err := directory.ParseType(" Marker "); err != nil || typ != directory.TypeMarker {
		t.Errorf("Expected marker, got %s, %v", typ, err)
	}
	if _, err := directory.ParseType("folders"); !errors.Is(err, data.ErrInvalid) {
		t.Errorf("Expected ErrInvalid, got %v", err)
	}
}
