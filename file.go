package vfs

import (
	"fmt"
	"time"

	"github.com/mwantia/uvfs/data"
)

// VirtualFile is an immutable snapshot of what a path held at the moment it
// was resolved. It is never refreshed; resolve again for a current view.
// Directories always report a size of 0.
type VirtualFile struct {
	path        VirtualPath
	kind        data.FileKind
	size        int64
	modifyTime  time.Time
	contentType string
	etag        string
}

func newVirtualFile(p VirtualPath, entry *data.Entry) *VirtualFile {
	f := &VirtualFile{
		path:        p,
		kind:        entry.Kind,
		size:        entry.Size,
		modifyTime:  entry.ModifyTime,
		contentType: entry.ContentType,
		etag:        entry.ETag,
	}

	if f.kind.IsDir() {
		f.size = 0
		f.contentType = ""
	}

	return f
}

func newDirectory(p VirtualPath, modifyTime time.Time) *VirtualFile {
	return &VirtualFile{
		path:       p,
		kind:       data.KindDirectory,
		modifyTime: modifyTime,
	}
}

func (f *VirtualFile) Path() VirtualPath {
	return f.path
}

func (f *VirtualFile) Name() string {
	return f.path.Name()
}

func (f *VirtualFile) Session() SessionID {
	return f.path.Session()
}

func (f *VirtualFile) Kind() data.FileKind {
	return f.kind
}

func (f *VirtualFile) IsDir() bool {
	return f.kind.IsDir()
}

func (f *VirtualFile) Size() int64 {
	return f.size
}

// ModifyTime is the zero time if the backend does not track one.
func (f *VirtualFile) ModifyTime() time.Time {
	return f.modifyTime
}

func (f *VirtualFile) ContentType() string {
	return f.contentType
}

func (f *VirtualFile) ETag() string {
	return f.etag
}

func (f *VirtualFile) String() string {
	return fmt.Sprintf("%s %s (%d bytes)", f.kind, f.path, f.size)
}
