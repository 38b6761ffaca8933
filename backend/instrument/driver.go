package instrument

import (
	"context"
	"io"
	"time"

	"github.com/mwantia/uvfs/backend"
	"github.com/mwantia/uvfs/data"
)

type instrumentedDriver struct {
	backend.Driver
	metrics *Metrics
}

type instrumentedHierarchy struct {
	*instrumentedDriver
	dirs backend.Directories
}

// Wrap decorates d so that every primitive operation is counted and timed.
// Drivers with native directories keep implementing backend.Directories.
func Wrap(d backend.Driver, m *Metrics) backend.Driver {
	wrapped := &instrumentedDriver{
		Driver:  d,
		metrics: m,
	}

	if dirs, ok := d.(backend.Directories); ok {
		return &instrumentedHierarchy{
			instrumentedDriver: wrapped,
			dirs:               dirs,
		}
	}

	return wrapped
}

func (d *instrumentedDriver) observe(op string, start time.Time, err error) {
	name := d.Driver.Name()

	d.metrics.Operations.WithLabelValues(name, op).Inc()
	d.metrics.Duration.WithLabelValues(name, op).Observe(time.Since(start).Seconds())
	if err != nil {
		d.metrics.Errors.WithLabelValues(name, op).Inc()
	}
}

func (d *instrumentedDriver) Stat(ctx context.Context, key string) (*data.Entry, error) {
	start := time.Now()
	entry, err := d.Driver.Stat(ctx, key)
	d.observe("stat", start, err)

	return entry, err
}

func (d *instrumentedDriver) List(ctx context.Context, dir string, recursive bool) ([]*data.Entry, error) {
	start := time.Now()
	entries, err := d.Driver.List(ctx, dir, recursive)
	d.observe("list", start, err)

	return entries, err
}

func (d *instrumentedDriver) OpenRead(ctx context.Context, key string) (io.ReadCloser, error) {
	start := time.Now()
	rc, err := d.Driver.OpenRead(ctx, key)
	d.observe("open_read", start, err)
	if err != nil {
		return nil, err
	}

	return &countingReader{
		ReadCloser: rc,
		counter:    d.metrics.Bytes.WithLabelValues(d.Driver.Name(), "read"),
	}, nil
}

func (d *instrumentedDriver) Create(ctx context.Context, key string, r io.Reader) (int64, error) {
	start := time.Now()
	n, err := d.Driver.Create(ctx, key, r)
	d.observe("create", start, err)
	if n > 0 {
		d.metrics.Bytes.WithLabelValues(d.Driver.Name(), "write").Add(float64(n))
	}

	return n, err
}

func (d *instrumentedDriver) Delete(ctx context.Context, key string) error {
	start := time.Now()
	err := d.Driver.Delete(ctx, key)
	d.observe("delete", start, err)

	return err
}

func (d *instrumentedDriver) DeleteMany(ctx context.Context, keys []string) []backend.DeleteResult {
	start := time.Now()
	results := d.Driver.DeleteMany(ctx, keys)
	d.observe("delete_many", start, backend.JoinResults(results))

	return results
}

func (d *instrumentedHierarchy) MakeDirectory(ctx context.Context, key string) error {
	start := time.Now()
	err := d.dirs.MakeDirectory(ctx, key)
	d.observe("make_directory", start, err)

	return err
}

func (d *instrumentedHierarchy) RemoveDirectory(ctx context.Context, key string) error {
	start := time.Now()
	err := d.dirs.RemoveDirectory(ctx, key)
	d.observe("remove_directory", start, err)

	return err
}

func (d *instrumentedHierarchy) RemoveTree(ctx context.Context, key string) error {
	start := time.Now()
	err := d.dirs.RemoveTree(ctx, key)
	d.observe("remove_tree", start, err)

	return err
}

type countingReader struct {
	io.ReadCloser
	counter interface{ Add(float64) }
}

func (r *countingReader) Read(p []byte) (int, error) {
	n, err := r.ReadCloser.Read(p)
	if n > 0 {
		r.counter.Add(float64(n))
	}

	return n, err
}
