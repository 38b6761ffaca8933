package backend

import (
	"sort"
	"strings"
	"time"

	"github.com/mwantia/uvfs/data"
)

// Listing turns a prefix scan over stored object keys into the entries of one
// directory. Flat drivers feed every key starting with DirPrefix(dir) into Add.
type Listing struct {
	dir       string
	prefix    string
	recursive bool

	dirs    map[string]struct{}
	entries []*data.Entry
}

func NewListing(dir string, recursive bool) *Listing {
	return &Listing{
		dir:       dir,
		prefix:    data.DirPrefix(dir),
		recursive: recursive,
		dirs:      make(map[string]struct{}),
	}
}

// Prefix returns the key prefix the scan has to cover.
func (l *Listing) Prefix() string {
	return l.prefix
}

// Add records a stored object. Keys outside the listed directory are ignored.
func (l *Listing) Add(key string, size int64, modTime time.Time) {
	if !strings.HasPrefix(key, l.prefix) {
		return
	}

	rel := strings.TrimPrefix(key, l.prefix)
	if rel == "" {
		// Marker of the listed directory itself
		l.addDir(l.dir, modTime)
		return
	}

	if !l.recursive {
		if i := strings.Index(rel, "/"); i >= 0 {
			l.addDir(l.prefix+rel[:i], modTime)
			return
		}
	} else if strings.HasSuffix(rel, "/") {
		l.addDir(l.prefix+strings.TrimSuffix(rel, "/"), modTime)
		return
	}

	l.entries = append(l.entries, &data.Entry{
		Key:         key,
		Kind:        data.KindFile,
		Size:        size,
		ModifyTime:  modTime,
		ContentType: data.ContentTypeOf(key),
	})
}

func (l *Listing) addDir(key string, modTime time.Time) {
	if _, seen := l.dirs[key]; seen {
		return
	}
	l.dirs[key] = struct{}{}

	l.entries = append(l.entries, &data.Entry{
		Key:        key,
		Kind:       data.KindDirectory,
		ModifyTime: modTime,
	})
}

// Entries returns the collected entries sorted by key.
func (l *Listing) Entries() []*data.Entry {
	sort.Slice(l.entries, func(i, j int) bool {
		return l.entries[i].Key < l.entries[j].Key
	})

	return l.entries
}
