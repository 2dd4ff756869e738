package types

import (
	"fmt"
	"strings"
)

// Entity is a named concept extracted from a thought. Identity is the
// case-insensitive (type, name) pair; the stored name keeps the casing of
// the first mention.
type Entity struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

// Key returns the canonical identity key, lower(type):lower(name).
func (e Entity) Key() string {
	return fmt.Sprintf("%s:%s", strings.ToLower(e.Type), strings.ToLower(e.Name))
}

// Validate checks that the entity can be merged into the graph.
func (e Entity) Validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return &ValidationError{Field: "name", Message: "entity name cannot be empty"}
	}
	if strings.TrimSpace(e.Type) == "" {
		return &ValidationError{Field: "type", Message: "entity type cannot be empty"}
	}
	return nil
}
