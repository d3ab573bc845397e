package serialization

import (
	"time"
)

// Format constants.
const (
	MagicBytes     = "BRNC"
	FormatVersion  = 1
	ChecksumSize   = 32 // SHA-256
	MaxHeaderSize  = 1 << 20
	MaxPayloadSize = 1 << 34
	MaxSliceLength = 1 << 28 // Upper bound on decoded float64 slices and strings
)

// Value tags written before every optional vector or matrix.
const (
	TagAbsent byte = 0
	TagVector byte = 1
	TagMatrix byte = 2
)

// tagName returns a printable name for a value tag.
func tagName(tag byte) string {
	switch tag {
	case TagAbsent:
		return "absent"
	case TagVector:
		return "vector"
	case TagMatrix:
		return "matrix"
	default:
		return "unknown"
	}
}

// Header is the JSON metadata block of a checkpoint file.
type Header struct {
	FormatVersion int               `json:"format_version"`     // Version of the checkpoint format
	RunID         string            `json:"run_id,omitempty"`   // Training run that produced the checkpoint
	Kind          string            `json:"kind"`               // Payload kind (e.g., "bilinear")
	CreatedAt     time.Time         `json:"created_at"`         // When the file was written
	Epoch         int               `json:"epoch,omitempty"`    // Training epoch number
	Metadata      map[string]string `json:"metadata,omitempty"` // Custom metadata
}
