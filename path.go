package vfs

import (
	"fmt"
	"strings"
)

// SessionID identifies an open session in the process wide registry.
type SessionID string

// VirtualPath is an immutable, canonical absolute path within one session.
// It only carries the session id and never keeps the session alive.
type VirtualPath struct {
	session SessionID
	path    string
	level   int
}

// NewPath builds the canonical form of abs within session. Empty and "."
// segments are dropped and ".." moves one level up, stopping at the root.
func NewPath(session SessionID, abs string) VirtualPath {
	return VirtualPath{session: session, path: "/"}.Join(abs)
}

// Join appends the segments of rel and returns the new path.
func (p VirtualPath) Join(rel string) VirtualPath {
	segments := p.segments()

	for _, segment := range strings.Split(rel, "/") {
		switch segment {
		case "", ".":
			continue
		case "..":
			if len(segments) > 0 {
				segments = segments[:len(segments)-1]
			}
		default:
			segments = append(segments, segment)
		}
	}

	return VirtualPath{
		session: p.session,
		path:    "/" + strings.Join(segments, "/"),
		level:   len(segments),
	}
}

// Back returns the parent path. The parent of the root is the root.
func (p VirtualPath) Back() VirtualPath {
	if p.IsRoot() {
		return VirtualPath{session: p.session, path: "/"}
	}

	i := strings.LastIndex(p.path, "/")
	parent := p.path[:i]
	if parent == "" {
		parent = "/"
	}

	return VirtualPath{
		session: p.session,
		path:    parent,
		level:   p.level - 1,
	}
}

// BackN applies Back n times. Negative n is rejected.
func (p VirtualPath) BackN(n int) (VirtualPath, error) {
	if n < 0 {
		return p, fmt.Errorf("%w: negative level count %d", ErrInvalid, n)
	}

	for i := 0; i < n && !p.IsRoot(); i++ {
		p = p.Back()
	}

	return p, nil
}

func (p VirtualPath) Level() int {
	return p.level
}

// Name returns the last segment, or "/" for the root.
func (p VirtualPath) Name() string {
	if p.IsRoot() {
		return "/"
	}

	return p.path[strings.LastIndex(p.path, "/")+1:]
}

func (p VirtualPath) IsRoot() bool {
	return p.level == 0
}

func (p VirtualPath) String() string {
	if p.path == "" {
		return "/"
	}

	return p.path
}

// Key returns the backend key, which is the path without its leading slash.
func (p VirtualPath) Key() string {
	if p.IsRoot() {
		return ""
	}

	return p.path[1:]
}

func (p VirtualPath) Session() SessionID {
	return p.session
}

// Compare orders paths by session id first and canonical path second.
func (p VirtualPath) Compare(other VirtualPath) int {
	if c := strings.Compare(string(p.session), string(other.session)); c != 0 {
		return c
	}

	return strings.Compare(p.String(), other.String())
}

func (p VirtualPath) Equal(other VirtualPath) bool {
	return p.Compare(other) == 0
}

func (p VirtualPath) segments() []string {
	if p.IsRoot() {
		return nil
	}

	return strings.Split(p.path[1:], "/")
}
