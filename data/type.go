package data

// FileKind identifies what a position in the filesystem holds.
type FileKind int

const (
	KindFile      FileKind = iota // Simple file with byte content
	KindDirectory                 // Directory, native or emulated
)

func (k FileKind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDirectory:
		return "directory"
	default:
		return "unknown"
	}
}

// IsDir reports whether k describes a directory.
func (k FileKind) IsDir() bool {
	return k == KindDirectory
}
