package transfer_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/mwantia/uvfs"
	"github.com/mwantia/uvfs/backend"
	"github.com/mwantia/uvfs/backend/local"
	"github.com/mwantia/uvfs/backend/memory"
	"github.com/mwantia/uvfs/backend/sqlite"
	"github.com/mwantia/uvfs/data"
	"github.com/mwantia/uvfs/transfer"
	"github.com/spf13/afero"
)

func openSession(tst *testing.T, driver backend.Driver) vfs.VirtualFileSystem {
	tst.Helper()

	fs, err := vfs.NewVirtualFileSystem(driver)
	if err != nil {
		tst.Fatalf("NewVirtualFileSystem failed: %v", err)
	}
	if err := fs.Open(tst.Context()); err != nil {
		tst.Fatalf("Open failed: %v", err)
	}

	tst.Cleanup(func() {
		fs.Close(context.Background())
	})

	return fs
}

func newMemory(tst *testing.T) vfs.VirtualFileSystem {
	return openSession(tst, memory.NewMemoryBackend(memory.NewStore()))
}

func newLocal(tst *testing.T) vfs.VirtualFileSystem {
	return openSession(tst, local.NewLocalBackend(afero.NewBasePathFs(afero.NewOsFs(), tst.TempDir())))
}

func newSQLite(tst *testing.T) vfs.VirtualFileSystem {
	driver, err := sqlite.NewSQLiteBackend(":memory:")
	if err != nil {
		tst.Fatalf("Backend init failed: %v", err)
	}
	return openSession(tst, driver)
}

// seed creates /src/a.txt, /src/b/c.txt and /src/b/d/e.bin.
func seed(tst *testing.T, fs vfs.VirtualFileSystem) map[string][]byte {
	tst.Helper()
	ctx := tst.Context()

	files := map[string][]byte{
		"/src/a.txt":     []byte("alpha"),
		"/src/b/c.txt":   []byte("charlie"),
		"/src/b/d/e.bin": bytes.Repeat([]byte{0, 1, 2, 3, 4, 5, 6, 7}, 40000),
	}

	for _, dir := range []string{"/src", "/src/b", "/src/b/d"} {
		if _, err := fs.Mkdir(ctx, fs.Path(dir)); err != nil {
			tst.Fatalf("Mkdir '%s' failed: %v", dir, err)
		}
	}
	for path, content := range files {
		if _, err := fs.MkFile(ctx, fs.Path(path), bytes.NewReader(content)); err != nil {
			tst.Fatalf("MkFile '%s' failed: %v", path, err)
		}
	}

	return files
}

func read(tst *testing.T, fs vfs.VirtualFileSystem, path string) []byte {
	tst.Helper()
	ctx := tst.Context()

	f, err := fs.Resolve(ctx, fs.Path(path))
	if err != nil || f == nil {
		tst.Fatalf("Resolve '%s' failed: %v", path, err)
	}

	rc, err := fs.OpenRead(ctx, f)
	if err != nil {
		tst.Fatalf("OpenRead '%s' failed: %v", path, err)
	}
	defer rc.Close()

	content, err := io.ReadAll(rc)
	if err != nil {
		tst.Fatalf("ReadAll '%s' failed: %v", path, err)
	}

	return content
}

func resolve(tst *testing.T, fs vfs.VirtualFileSystem, path string) *vfs.VirtualFile {
	tst.Helper()

	f, err := fs.Resolve(tst.Context(), fs.Path(path))
	if err != nil || f == nil {
		tst.Fatalf("Resolve '%s' failed: %v", path, err)
	}

	return f
}

type sessionPair struct {
	src func(tst *testing.T) vfs.VirtualFileSystem
	dst func(tst *testing.T) vfs.VirtualFileSystem
}

func TestCopier_RecursiveCopy(t *testing.T) {
	pairs := map[string]sessionPair{
		"memory-to-memory": {newMemory, newMemory},
		"memory-to-local":  {newMemory, newLocal},
		"local-to-sqlite":  {newLocal, newSQLite},
		"sqlite-to-local":  {newSQLite, newLocal},
	}

	for name, pair := range pairs {
		t.Run(name, func(tst *testing.T) {
			ctx := tst.Context()
			src := pair.src(tst)
			dst := pair.dst(tst)
			files := seed(tst, src)

			var events []transfer.Event
			copier, err := transfer.NewCopier(transfer.WithVerify(), transfer.WithProgress(func(e transfer.Event) {
				events = append(events, e)
			}))
			if err != nil {
				tst.Fatalf("NewCopier failed: %v", err)
			}

			stats, err := copier.Copy(ctx, resolve(tst, src, "/src"), dst.Path("/dst"))
			if err != nil {
				tst.Fatalf("Copy failed: %v", err)
			}
			if stats.Files != 3 || stats.Directories != 3 {
				tst.Errorf("Unexpected stats %+v", stats)
			}
			if len(events) != 6 || events[0].Destination.String() != "/dst" {
				tst.Errorf("Unexpected events %v", events)
			}

			// The copy must not depend on the source afterwards
			if err := src.Rmdir(ctx, src.Path("/src"), true); err != nil {
				tst.Fatalf("Rmdir source failed: %v", err)
			}

			var total int64
			for path, content := range files {
				target := "/dst" + strings.TrimPrefix(path, "/src")
				if got := read(tst, dst, target); !bytes.Equal(got, content) {
					tst.Errorf("Content mismatch for '%s'", target)
				}
				total += int64(len(content))
			}
			if stats.Bytes != total {
				tst.Errorf("Expected %d bytes, got %d", total, stats.Bytes)
			}

			entries, err := dst.List(ctx, dst.Path("/dst"))
			if err != nil {
				tst.Fatalf("List failed: %v", err)
			}
			if len(entries) != 2 || entries[0].Name() != "a.txt" || entries[1].Name() != "b" {
				tst.Errorf("Unexpected listing %v", entries)
			}
		})
	}
}

func TestCopier_FailFastKeepsPartialState(t *testing.T) {
	ctx := t.Context()
	src := newMemory(t)
	dst := newMemory(t)
	seed(t, src)

	for _, dir := range []string{"/dst", "/dst/b"} {
		if _, err := dst.Mkdir(ctx, dst.Path(dir)); err != nil {
			t.Fatalf("Mkdir failed: %v", err)
		}
	}
	if _, err := dst.MkFile(ctx, dst.Path("/dst/b/c.txt"), strings.NewReader("existing")); err != nil {
		t.Fatalf("MkFile failed: %v", err)
	}

	copier, err := transfer.NewCopier()
	if err != nil {
		t.Fatalf("NewCopier failed: %v", err)
	}

	stats, err := copier.Copy(ctx, resolve(t, src, "/src"), dst.Path("/dst"))
	if !errors.Is(err, vfs.ErrConflict) {
		t.Fatalf("Expected ErrConflict, got %v", err)
	}
	if stats.Files != 1 {
		t.Errorf("Expected one file to be copied before the failure, got %+v", stats)
	}

	if got := string(read(t, dst, "/dst/a.txt")); got != "alpha" {
		t.Errorf("Expected copied file to remain, got %q", got)
	}
	if got := string(read(t, dst, "/dst/b/c.txt")); got != "existing" {
		t.Errorf("Expected existing file to be untouched, got %q", got)
	}
	if exists, _ := dst.Exists(ctx, dst.Path("/dst/b/d")); exists {
		t.Errorf("Expected copy to stop before '/dst/b/d'")
	}
}

func TestCopier_SingleFile(t *testing.T) {
	ctx := t.Context()
	src := newMemory(t)
	dst := newSQLite(t)

	if _, err := src.MkFile(ctx, src.Path("/note.md"), strings.NewReader("# note")); err != nil {
		t.Fatalf("MkFile failed: %v", err)
	}

	copier, err := transfer.NewCopier(transfer.WithBufferSize(16))
	if err != nil {
		t.Fatalf("NewCopier failed: %v", err)
	}

	if _, err := copier.Copy(ctx, resolve(t, src, "/note.md"), dst.Path("/copy.md")); err != nil {
		t.Fatalf("Copy failed: %v", err)
	}
	if got := string(read(t, dst, "/copy.md")); got != "# note" {
		t.Errorf("Unexpected content %q", got)
	}

	if _, err := copier.Copy(ctx, resolve(t, src, "/note.md"), dst.Path("/missing/copy.md")); !errors.Is(err, vfs.ErrNotExist) {
		t.Errorf("Expected ErrNotExist for missing destination parent, got %v", err)
	}
}

func TestCopier_Move(t *testing.T) {
	ctx := t.Context()
	src := newMemory(t)
	dst := newLocal(t)
	seed(t, src)

	copier, err := transfer.NewCopier()
	if err != nil {
		t.Fatalf("NewCopier failed: %v", err)
	}

	if _, err := copier.Move(ctx, resolve(t, src, "/src"), dst.Path("/moved")); err != nil {
		t.Fatalf("Move failed: %v", err)
	}

	if exists, _ := src.Exists(ctx, src.Path("/src")); exists {
		t.Errorf("Expected source to be removed")
	}
	if got := string(read(t, dst, "/moved/b/c.txt")); got != "charlie" {
		t.Errorf("Unexpected content %q", got)
	}
}

func TestCopier_SameSessionHook(t *testing.T) {
	ctx := t.Context()
	fs := newMemory(t)
	other := newMemory(t)

	if _, err := fs.MkFile(ctx, fs.Path("/a.txt"), strings.NewReader("a")); err != nil {
		t.Fatalf("MkFile failed: %v", err)
	}

	calls := 0
	copier, err := transfer.NewCopier(transfer.WithSameSessionHook(
		func(ctx context.Context, session vfs.VirtualFileSystem, src *vfs.VirtualFile, dst vfs.VirtualPath) (bool, error) {
			calls++
			return false, nil
		}))
	if err != nil {
		t.Fatalf("NewCopier failed: %v", err)
	}

	if _, err := copier.Copy(ctx, resolve(t, fs, "/a.txt"), fs.Path("/b.txt")); err != nil {
		t.Fatalf("Copy failed: %v", err)
	}
	if _, err := copier.Copy(ctx, resolve(t, fs, "/a.txt"), other.Path("/b.txt")); err != nil {
		t.Fatalf("Cross-session copy failed: %v", err)
	}

	if calls != 1 {
		t.Errorf("Expected hook to be consulted once, got %d", calls)
	}
	if got := string(read(t, fs, "/b.txt")); got != "a" {
		t.Errorf("Expected fallback to stream the file, got %q", got)
	}
}

func TestCopier_InvalidTargets(t *testing.T) {
	ctx := t.Context()
	fs := newMemory(t)
	seed(t, fs)

	copier, err := transfer.NewCopier()
	if err != nil {
		t.Fatalf("NewCopier failed: %v", err)
	}

	if _, err := copier.Copy(ctx, resolve(t, fs, "/src"), fs.Path("/src/b/inner")); !errors.Is(err, vfs.ErrInvalid) {
		t.Errorf("Expected ErrInvalid for copy into itself, got %v", err)
	}

	closed := newMemory(t)
	closed.Close(ctx)
	if _, err := copier.Copy(ctx, resolve(t, fs, "/src/a.txt"), closed.Path("/a.txt")); !errors.Is(err, vfs.ErrClosed) {
		t.Errorf("Expected ErrClosed for closed destination, got %v", err)
	}

	if _, err := transfer.NewCopier(transfer.WithBufferSize(0)); !errors.Is(err, vfs.ErrInvalid) {
		t.Errorf("Expected ErrInvalid for zero buffer, got %v", err)
	}
}

// trackingDriver records how the copy engine consumes source streams and can
// report a different chunk size or fail every create.
type trackingDriver struct {
	backend.Driver

	chunkSize  int64
	failCreate bool

	mu     sync.Mutex
	closes int
	reads  []int
}

func (d *trackingDriver) Capabilities() *backend.Capabilities {
	caps := *d.Driver.Capabilities()
	if d.chunkSize > 0 {
		caps.MinChunkSize = d.chunkSize
	}

	return &caps
}

func (d *trackingDriver) OpenRead(ctx context.Context, key string) (io.ReadCloser, error) {
	rc, err := d.Driver.OpenRead(ctx, key)
	if err != nil {
		return nil, err
	}

	return &trackedStream{rc: rc, driver: d}, nil
}

func (d *trackingDriver) Create(ctx context.Context, key string, r io.Reader) (int64, error) {
	if d.failCreate {
		// Consume part of the stream before failing like a broken upload
		io.CopyN(io.Discard, r, 4)
		return 0, data.IOFailure("create", key, errors.New("connection reset"))
	}

	return d.Driver.Create(ctx, key, r)
}

func (d *trackingDriver) stats() (int, []int) {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.closes, slices.Clone(d.reads)
}

type trackedStream struct {
	rc     io.ReadCloser
	driver *trackingDriver
}

func (s *trackedStream) Read(p []byte) (int, error) {
	s.driver.mu.Lock()
	s.driver.reads = append(s.driver.reads, len(p))
	s.driver.mu.Unlock()

	return s.rc.Read(p)
}

func (s *trackedStream) Close() error {
	s.driver.mu.Lock()
	s.driver.closes++
	s.driver.mu.Unlock()

	return s.rc.Close()
}

func TestCopier_ClosesSourceOnFailure(t *testing.T) {
	tests := map[string]struct {
		dst    *trackingDriver
		seeded bool
		kind   error
	}{
		"existing-destination": {
			dst:    &trackingDriver{Driver: memory.NewMemoryBackend(memory.NewStore())},
			seeded: true,
			kind:   vfs.ErrConflict,
		},
		"failing-destination": {
			dst:  &trackingDriver{Driver: memory.NewMemoryBackend(memory.NewStore()), failCreate: true},
			kind: vfs.ErrIO,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(tst *testing.T) {
			ctx := tst.Context()

			source := &trackingDriver{Driver: memory.NewMemoryBackend(memory.NewStore())}
			src := openSession(tst, source)
			dst := openSession(tst, tt.dst)

			if _, err := src.MkFile(ctx, src.Path("/a.txt"), strings.NewReader("alpha")); err != nil {
				tst.Fatalf("MkFile failed: %v", err)
			}
			if tt.seeded {
				if _, err := dst.MkFile(ctx, dst.Path("/a.txt"), strings.NewReader("existing")); err != nil {
					tst.Fatalf("MkFile failed: %v", err)
				}
			}

			copier, err := transfer.NewCopier()
			if err != nil {
				tst.Fatalf("NewCopier failed: %v", err)
			}

			if _, err := copier.Copy(ctx, resolve(tst, src, "/a.txt"), dst.Path("/a.txt")); !errors.Is(err, tt.kind) {
				tst.Fatalf("Expected %v, got %v", tt.kind, err)
			}

			if closes, _ := source.stats(); closes != 1 {
				tst.Errorf("Expected source stream to be closed once, got %d", closes)
			}
		})
	}
}

func TestCopier_BufferSize(t *testing.T) {
	tests := map[string]struct {
		srcChunk int64
		dstChunk int64
		expected int
	}{
		"default":           {expected: transfer.DefaultBufferSize},
		"small-chunks":      {srcChunk: 1024, dstChunk: 4096, expected: transfer.DefaultBufferSize},
		"source-chunk":      {srcChunk: 1 << 20, expected: 1 << 20},
		"destination-chunk": {dstChunk: 256 << 10, expected: 256 << 10},
		"largest-wins":      {srcChunk: 128 << 10, dstChunk: 512 << 10, expected: 512 << 10},
	}

	for name, tt := range tests {
		t.Run(name, func(tst *testing.T) {
			ctx := tst.Context()

			source := &trackingDriver{Driver: memory.NewMemoryBackend(memory.NewStore()), chunkSize: tt.srcChunk}
			src := openSession(tst, source)
			dst := openSession(tst, &trackingDriver{Driver: memory.NewMemoryBackend(memory.NewStore()), chunkSize: tt.dstChunk})

			// Smaller than any buffer so every fill is a single full-size read
			content := strings.Repeat("x", 100)
			if _, err := src.MkFile(ctx, src.Path("/a.txt"), strings.NewReader(content)); err != nil {
				tst.Fatalf("MkFile failed: %v", err)
			}

			copier, err := transfer.NewCopier()
			if err != nil {
				tst.Fatalf("NewCopier failed: %v", err)
			}
			if _, err := copier.Copy(ctx, resolve(tst, src, "/a.txt"), dst.Path("/a.txt")); err != nil {
				tst.Fatalf("Copy failed: %v", err)
			}

			_, reads := source.stats()
			if len(reads) == 0 {
				tst.Fatalf("Expected the source stream to be read")
			}
			if reads[0] != tt.expected {
				tst.Errorf("Expected reads of %d bytes, got %v", tt.expected, reads)
			}
			if got := string(read(tst, dst, "/a.txt")); got != content {
				tst.Errorf("Expected copied content, got %q", got)
			}
		})
	}
}
