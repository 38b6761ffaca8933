package data

import (
	"encoding/json"
	"time"
)

// Entry is the primitive stat result a backend driver reports for a key.
type Entry struct {
	// Relative key within the backend, never with a leading or trailing slash
	Key string `json:"key"`

	Kind FileKind `json:"kind"`

	// Size in bytes (0 for directories)
	Size int64 `json:"size"`

	ModifyTime time.Time `json:"modify_time"`

	// Content MIME type, if the backend tracks one
	ContentType string `json:"content_type,omitempty"`

	ETag string `json:"etag,omitempty"`
}

// Name returns the last segment of the entry key.
func (e *Entry) Name() string {
	return BaseKey(e.Key)
}

// Marshal provides JSON serialization for Entry.
func (e *Entry) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// Unmarshal provides JSON deserialization for Entry.
func (e *Entry) Unmarshal(data []byte) error {
	return json.Unmarshal(data, e)
}
