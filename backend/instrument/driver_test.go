package instrument_test

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/mwantia/uvfs/backend"
	"github.com/mwantia/uvfs/backend/instrument"
	"github.com/mwantia/uvfs/backend/local"
	"github.com/mwantia/uvfs/backend/memory"
	"github.com/mwantia/uvfs/data"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/spf13/afero"
)

func TestWrap_CountsOperations(t *testing.T) {
	ctx := t.Context()

	metrics, err := instrument.NewMetrics(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("NewMetrics failed: %v", err)
	}

	driver := instrument.Wrap(memory.NewMemoryBackend(memory.NewStore()), metrics)
	if _, ok := driver.(backend.Directories); ok {
		t.Errorf("Expected flat driver to stay flat")
	}

	if _, err := driver.Create(ctx, "a.txt", strings.NewReader("hello")); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := driver.Stat(ctx, "missing.txt"); !errors.Is(err, data.ErrNotExist) {
		t.Fatalf("Expected ErrNotExist, got %v", err)
	}

	rc, err := driver.OpenRead(ctx, "a.txt")
	if err != nil {
		t.Fatalf("OpenRead failed: %v", err)
	}
	io.ReadAll(rc)
	rc.Close()

	if got := testutil.ToFloat64(metrics.Operations.WithLabelValues("memory", "create")); got != 1 {
		t.Errorf("Expected 1 create, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.Errors.WithLabelValues("memory", "stat")); got != 1 {
		t.Errorf("Expected 1 failed stat, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.Bytes.WithLabelValues("memory", "write")); got != 5 {
		t.Errorf("Expected 5 bytes written, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.Bytes.WithLabelValues("memory", "read")); got != 5 {
		t.Errorf("Expected 5 bytes read, got %v", got)
	}
}

func TestWrap_KeepsDirectories(t *testing.T) {
	metrics, err := instrument.NewMetrics(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("NewMetrics failed: %v", err)
	}

	driver := instrument.Wrap(local.NewLocalBackend(afero.NewMemMapFs()), metrics)

	dirs, ok := driver.(backend.Directories)
	if !ok {
		t.Fatalf("Expected hierarchical driver to implement Directories")
	}
	if err := dirs.MakeDirectory(t.Context(), "x"); err != nil {
		t.Fatalf("MakeDirectory failed: %v", err)
	}

	if got := testutil.ToFloat64(metrics.Operations.WithLabelValues("local", "make_directory")); got != 1 {
		t.Errorf("Expected 1 make_directory, got %v", got)
	}
}

func TestNewMetrics_Reregister(t *testing.T) {
	registry := prometheus.NewRegistry()

	first, err := instrument.NewMetrics(registry)
	if err != nil {
		t.Fatalf("NewMetrics failed: %v", err)
	}
	second, err := instrument.NewMetrics(registry)
	if err != nil {
		t.Fatalf("Second NewMetrics failed: %v", err)
	}

	if first.Operations != second.Operations {
		t.Errorf("Expected registered collectors to be reused")
	}
}
