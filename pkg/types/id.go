package types

import (
	"strings"

	"github.com/google/uuid"
)

// NewThoughtID generates an opaque thought identifier.
// Format: thought:<8 hex chars from a v4 UUID>.
func NewThoughtID() string {
	return "thought:" + shortUUID()
}

// NewTaskID generates an identifier for a background synthesis task.
func NewTaskID() string {
	return "task:" + shortUUID()
}

func shortUUID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
