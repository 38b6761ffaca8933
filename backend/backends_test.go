package backend_test

import (
	"bytes"
	"errors"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/mwantia/uvfs/backend"
	"github.com/mwantia/uvfs/backend/local"
	"github.com/mwantia/uvfs/backend/memory"
	"github.com/mwantia/uvfs/backend/sftp"
	"github.com/mwantia/uvfs/backend/sqlite"
	"github.com/mwantia/uvfs/data"
	"github.com/mwantia/uvfs/internal/sftptest"
	"github.com/spf13/afero"

	_ "github.com/mwantia/uvfs/backend/consul"
	_ "github.com/mwantia/uvfs/backend/postgres"
	_ "github.com/mwantia/uvfs/backend/s3"
)

// TestBackendFactory creates a new, unopened driver instance for testing.
type TestBackendFactory func(t *testing.T) (backend.Driver, error)

// GetTestBackendFactories returns all driver implementations to test.
// Drivers that require an external service are only included when the
// matching environment variable is set.
func GetTestBackendFactories() map[string]TestBackendFactory {
	factories := map[string]TestBackendFactory{
		"memory": func(t *testing.T) (backend.Driver, error) {
			return memory.NewMemoryBackend(memory.NewStore()), nil
		},
		"sqlite": func(t *testing.T) (backend.Driver, error) {
			return sqlite.NewSQLiteBackend(":memory:")
		},
		"local": func(t *testing.T) (backend.Driver, error) {
			return local.NewLocalBackend(afero.NewBasePathFs(afero.NewOsFs(), t.TempDir())), nil
		},
		"memmap": func(t *testing.T) (backend.Driver, error) {
			return local.NewLocalBackend(afero.NewMemMapFs()), nil
		},
		"sftp": func(t *testing.T) (backend.Driver, error) {
			return sftp.NewWithClient(sftptest.NewClient(t), "/"), nil
		},
	}

	if url := os.Getenv("UVFS_TEST_POSTGRES_URL"); url != "" {
		factories["postgres"] = func(t *testing.T) (backend.Driver, error) {
			return backend.New("postgres", backend.Config{"url": url})
		}
	}
	if address := os.Getenv("UVFS_TEST_CONSUL_ADDR"); address != "" {
		factories["consul"] = func(t *testing.T) (backend.Driver, error) {
			return backend.New("consul", backend.Config{
				"address": address,
				"prefix":  "uvfs-test/" + strings.ReplaceAll(t.Name(), "/", "-"),
			})
		}
	}
	if endpoint := os.Getenv("UVFS_TEST_S3_ENDPOINT"); endpoint != "" {
		factories["s3"] = func(t *testing.T) (backend.Driver, error) {
			return backend.New("s3", backend.Config{
				"endpoint":   endpoint,
				"bucket":     os.Getenv("UVFS_TEST_S3_BUCKET"),
				"access_key": os.Getenv("UVFS_TEST_S3_ACCESS_KEY"),
				"secret_key": os.Getenv("UVFS_TEST_S3_SECRET_KEY"),
			})
		}
	}

	return factories
}

func openDriver(tst *testing.T, factory TestBackendFactory) backend.Driver {
	tst.Helper()

	driver, err := factory(tst)
	if err != nil {
		tst.Fatalf("Backend init failed: %v", err)
	}
	if err := driver.Open(tst.Context()); err != nil {
		tst.Fatalf("Backend open failed: %v", err)
	}

	tst.Cleanup(func() {
		driver.Close(tst.Context())
	})

	return driver
}

// ensureDir creates key on hierarchical drivers. Flat drivers accept nested
// keys without any directory present.
func ensureDir(tst *testing.T, driver backend.Driver, key string) {
	tst.Helper()

	if dirs, ok := driver.(backend.Directories); ok && driver.Capabilities().IsHierarchical() {
		if err := dirs.MakeDirectory(tst.Context(), key); err != nil {
			tst.Fatalf("MakeDirectory '%s' failed: %v", key, err)
		}
	}
}

func create(tst *testing.T, driver backend.Driver, key, content string) {
	tst.Helper()

	size, err := driver.Create(tst.Context(), key, strings.NewReader(content))
	if err != nil {
		tst.Fatalf("Create '%s' failed: %v", key, err)
	}
	if size != int64(len(content)) {
		tst.Fatalf("Expected size %d for '%s', got %d", len(content), key, size)
	}
}

func keys(entries []*data.Entry, kind data.FileKind) []string {
	result := []string{}
	for _, entry := range entries {
		if entry.Kind == kind {
			result = append(result, entry.Key)
		}
	}

	return result
}

// TestAllBackends_ObjectOperations verifies create, stat and read across all
// driver implementations.
func TestAllBackends_ObjectOperations(t *testing.T) {
	for name, factory := range GetTestBackendFactories() {
		t.Run(name, func(tst *testing.T) {
			ctx := tst.Context()
			driver := openDriver(tst, factory)

			if driver.Name() != name && !(name == "memmap" && driver.Name() == local.Kind) {
				tst.Errorf("Unexpected driver name %s", driver.Name())
			}

			buffer := bytes.Repeat([]byte("hello world "), 512)
			size, err := driver.Create(ctx, "test.txt", bytes.NewReader(buffer))
			if err != nil {
				tst.Fatalf("Create failed: %v", err)
			}
			if size != int64(len(buffer)) {
				tst.Errorf("Expected size %d, got %d", len(buffer), size)
			}

			entry, err := driver.Stat(ctx, "test.txt")
			if err != nil {
				tst.Fatalf("Stat failed: %v", err)
			}
			if entry.Key != "test.txt" || entry.Kind != data.KindFile || entry.Size != int64(len(buffer)) {
				tst.Errorf("Unexpected entry %+v", entry)
			}

			rc, err := driver.OpenRead(ctx, "test.txt")
			if err != nil {
				tst.Fatalf("OpenRead failed: %v", err)
			}
			got, err := io.ReadAll(rc)
			rc.Close()
			if err != nil {
				tst.Fatalf("ReadAll failed: %v", err)
			}
			if !bytes.Equal(got, buffer) {
				tst.Errorf("Content mismatch")
			}

			if _, err := driver.Create(ctx, "test.txt", strings.NewReader("other")); !errors.Is(err, data.ErrConflict) {
				tst.Errorf("Expected ErrConflict, got %v", err)
			}

			if _, err := driver.Stat(ctx, "missing.txt"); !errors.Is(err, data.ErrNotExist) {
				tst.Errorf("Expected ErrNotExist for Stat, got %v", err)
			}
			if _, err := driver.OpenRead(ctx, "missing.txt"); !errors.Is(err, data.ErrNotExist) {
				tst.Errorf("Expected ErrNotExist for OpenRead, got %v", err)
			}
		})
	}
}

func TestAllBackends_EmptyObject(t *testing.T) {
	for name, factory := range GetTestBackendFactories() {
		t.Run(name, func(tst *testing.T) {
			ctx := tst.Context()
			driver := openDriver(tst, factory)

			create(tst, driver, "empty.txt", "")

			entry, err := driver.Stat(ctx, "empty.txt")
			if err != nil {
				tst.Fatalf("Stat failed: %v", err)
			}
			if entry.Size != 0 || entry.Kind != data.KindFile {
				tst.Errorf("Unexpected entry %+v", entry)
			}
		})
	}
}

func TestAllBackends_List(t *testing.T) {
	for name, factory := range GetTestBackendFactories() {
		t.Run(name, func(tst *testing.T) {
			ctx := tst.Context()
			driver := openDriver(tst, factory)

			ensureDir(tst, driver, "a")
			ensureDir(tst, driver, "a/b")
			create(tst, driver, "a/x.txt", "x")
			create(tst, driver, "a/b/c.txt", "c")
			create(tst, driver, "ab.txt", "ab")

			root, err := driver.List(ctx, "", false)
			if err != nil {
				tst.Fatalf("List root failed: %v", err)
			}
			if got := strings.Join(keys(root, data.KindDirectory), ","); got != "a" {
				tst.Errorf("Expected directory 'a' in root, got %q", got)
			}
			if got := strings.Join(keys(root, data.KindFile), ","); got != "ab.txt" {
				tst.Errorf("Expected file 'ab.txt' in root, got %q", got)
			}

			entries, err := driver.List(ctx, "a", false)
			if err != nil {
				tst.Fatalf("List failed: %v", err)
			}
			if got := strings.Join(keys(entries, data.KindDirectory), ","); got != "a/b" {
				tst.Errorf("Expected directory 'a/b', got %q", got)
			}
			if got := strings.Join(keys(entries, data.KindFile), ","); got != "a/x.txt" {
				tst.Errorf("Expected file 'a/x.txt', got %q", got)
			}

			recursive, err := driver.List(ctx, "a", true)
			if err != nil {
				tst.Fatalf("Recursive list failed: %v", err)
			}
			if got := strings.Join(keys(recursive, data.KindFile), ","); got != "a/b/c.txt,a/x.txt" {
				tst.Errorf("Expected both files below 'a', got %q", got)
			}

			for i := 1; i < len(recursive); i++ {
				if recursive[i-1].Key > recursive[i].Key {
					tst.Errorf("Expected sorted keys, got %s before %s", recursive[i-1].Key, recursive[i].Key)
				}
			}
		})
	}
}

func TestAllBackends_Delete(t *testing.T) {
	for name, factory := range GetTestBackendFactories() {
		t.Run(name, func(tst *testing.T) {
			ctx := tst.Context()
			driver := openDriver(tst, factory)

			create(tst, driver, "one.txt", "1")
			create(tst, driver, "two.txt", "2")
			create(tst, driver, "three.txt", "3")

			if err := driver.Delete(ctx, "one.txt"); err != nil {
				tst.Fatalf("Delete failed: %v", err)
			}
			if _, err := driver.Stat(ctx, "one.txt"); !errors.Is(err, data.ErrNotExist) {
				tst.Errorf("Expected deleted object to be gone, got %v", err)
			}

			results := driver.DeleteMany(ctx, []string{"two.txt", "three.txt"})
			if len(results) != 2 {
				tst.Fatalf("Expected 2 results, got %d", len(results))
			}
			if err := backend.JoinResults(results); err != nil {
				tst.Errorf("DeleteMany failed: %v", err)
			}

			entries, err := driver.List(ctx, "", true)
			if err != nil {
				tst.Fatalf("List failed: %v", err)
			}
			if len(entries) != 0 {
				tst.Errorf("Expected empty backend, got %d entries", len(entries))
			}
		})
	}
}

// TestAllBackends_MarkerObjects verifies that flat drivers report stored keys
// with a trailing slash as directory entries.
func TestAllBackends_MarkerObjects(t *testing.T) {
	for name, factory := range GetTestBackendFactories() {
		t.Run(name, func(tst *testing.T) {
			ctx := tst.Context()
			driver := openDriver(tst, factory)
			if driver.Capabilities().IsHierarchical() {
				tst.Skip("hierarchical drivers store real directories")
			}

			create(tst, driver, "docs/", "")

			entries, err := driver.List(ctx, "", false)
			if err != nil {
				tst.Fatalf("List failed: %v", err)
			}
			if len(entries) != 1 || entries[0].Key != "docs" || !entries[0].Kind.IsDir() {
				tst.Fatalf("Expected single directory entry 'docs', got %v", entries)
			}
			if backend.ObjectKey(entries[0]) != "docs/" {
				tst.Errorf("Unexpected object key %s", backend.ObjectKey(entries[0]))
			}

			// The marker of the listed directory is reported as itself
			self, err := driver.List(ctx, "docs", false)
			if err != nil {
				tst.Fatalf("List failed: %v", err)
			}
			if len(self) != 1 || self[0].Key != "docs" {
				tst.Errorf("Expected self marker entry, got %v", self)
			}
		})
	}
}

func TestAllBackends_Directories(t *testing.T) {
	for name, factory := range GetTestBackendFactories() {
		t.Run(name, func(tst *testing.T) {
			ctx := tst.Context()
			driver := openDriver(tst, factory)

			dirs, ok := driver.(backend.Directories)
			if !ok || !driver.Capabilities().IsHierarchical() {
				tst.Skip("driver has no native directories")
			}

			if err := dirs.MakeDirectory(ctx, "x"); err != nil {
				tst.Fatalf("MakeDirectory failed: %v", err)
			}
			if err := dirs.MakeDirectory(ctx, "x/y"); err != nil {
				tst.Fatalf("MakeDirectory nested failed: %v", err)
			}
			create(tst, driver, "x/y/z.txt", "z")

			entry, err := driver.Stat(ctx, "x")
			if err != nil || !entry.Kind.IsDir() || entry.Size != 0 {
				tst.Fatalf("Expected directory entry for 'x': %+v, %v", entry, err)
			}

			if err := dirs.RemoveDirectory(ctx, "x"); !errors.Is(err, data.ErrConflict) {
				tst.Errorf("Expected ErrConflict for non-empty directory, got %v", err)
			}
			if _, err := driver.OpenRead(ctx, "x"); !errors.Is(err, data.ErrIsDirectory) {
				tst.Errorf("Expected ErrIsDirectory, got %v", err)
			}

			create(tst, driver, "file.txt", "f")
			if err := dirs.MakeDirectory(ctx, "file.txt"); !errors.Is(err, data.ErrConflict) {
				tst.Errorf("Expected ErrConflict for existing file, got %v", err)
			}

			if err := dirs.RemoveTree(ctx, "x"); err != nil {
				tst.Fatalf("RemoveTree failed: %v", err)
			}
			if _, err := driver.Stat(ctx, "x/y/z.txt"); !errors.Is(err, data.ErrNotExist) {
				tst.Errorf("Expected tree to be removed, got %v", err)
			}
			if _, err := driver.Stat(ctx, "x"); !errors.Is(err, data.ErrNotExist) {
				tst.Errorf("Expected directory to be removed, got %v", err)
			}
		})
	}
}

func TestRegistry(t *testing.T) {
	kinds := strings.Join(backend.Kinds(), ",")
	if kinds != "consul,local,memory,postgres,s3,sftp,sqlite" {
		t.Errorf("Unexpected registered kinds %s", kinds)
	}

	if _, err := backend.New("unknown", nil); !errors.Is(err, data.ErrConstruction) {
		t.Errorf("Expected ErrConstruction for unknown kind, got %v", err)
	}
	if _, err := backend.New("s3", backend.Config{}); !errors.Is(err, data.ErrConstruction) {
		t.Errorf("Expected ErrConstruction for missing settings, got %v", err)
	}

	driver, err := backend.New("sqlite", backend.Config{"path": ":memory:"})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if driver.Name() != "sqlite" {
		t.Errorf("Unexpected driver %s", driver.Name())
	}

	defer func() {
		if recover() == nil {
			t.Errorf("Expected duplicate registration to panic")
		}
	}()
	backend.Register("memory", func(cfg backend.Config) (backend.Driver, error) {
		return nil, nil
	})
}
