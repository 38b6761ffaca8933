package backend

import "slices"

// Capability represents something a driver can do natively.
type Capability string

const (
	// Real directories exist and are managed through Directories
	CapabilityHierarchy Capability = "hierarchy"
	// Create-if-absent is atomic on the backend itself
	CapabilityConditionalWrite Capability = "conditional_write"
	// DeleteMany issues a single batched request
	CapabilityBatchDelete Capability = "batch_delete"
	// Entries carry a modification time
	CapabilityModifyTime Capability = "modify_time"
	// Objects can be streamed without buffering them completely
	CapabilityStreaming Capability = "streaming"
)

// Capabilities describes what a driver supports.
type Capabilities struct {
	Capabilities []Capability

	// Smallest write chunk the backend accepts efficiently (e.g. multipart part size)
	MinChunkSize int64
	// Largest object the backend accepts, 0 for unlimited
	MaxObjectSize int64
}

// Contains checks if a capability is supported
func (c *Capabilities) Contains(cap Capability) bool {
	if c == nil {
		return false
	}

	return slices.Contains(c.Capabilities, cap)
}

// IsHierarchical reports whether the driver has native directories.
func (c *Capabilities) IsHierarchical() bool {
	return c.Contains(CapabilityHierarchy)
}
