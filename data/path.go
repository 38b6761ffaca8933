package data

import (
	"strings"
)

// Backend keys are slash separated, relative and never carry a leading or
// trailing slash. The empty key addresses the root.

// CleanKey normalizes key into its canonical form, dropping empty and "." segments.
func CleanKey(key string) string {
	if key == "" {
		return ""
	}

	parts := strings.Split(key, "/")
	segments := parts[:0]
	for _, part := range parts {
		if part == "" || part == "." {
			continue
		}
		segments = append(segments, part)
	}

	return strings.Join(segments, "/")
}

// JoinKey joins dir and name into a child key.
func JoinKey(dir, name string) string {
	if dir == "" {
		return name
	}
	if name == "" {
		return dir
	}

	return dir + "/" + name
}

// BaseKey returns the last segment of key.
func BaseKey(key string) string {
	if i := strings.LastIndex(key, "/"); i >= 0 {
		return key[i+1:]
	}

	return key
}

// DirPrefix returns the listing prefix for the children of dir.
func DirPrefix(dir string) string {
	if dir == "" {
		return ""
	}

	return dir + "/"
}

// ToRelativePath removes the prefix from path and any leading slash left over.
func ToRelativePath(path, prefix string) string {
	if prefix == "" {
		return strings.TrimPrefix(path, "/")
	}

	if path == prefix {
		return ""
	}

	return strings.TrimPrefix(path, prefix+"/")
}

// HasPrefix reports whether key is dir itself or lies beneath it.
func HasPrefix(key, dir string) bool {
	// Root matches everything
	if dir == "" {
		return true
	}

	if key == dir {
		return true
	}

	return strings.HasPrefix(key, dir+"/")
}
