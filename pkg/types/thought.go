package types

import "time"

// MinEaseFactor is the floor for the spaced-repetition ease factor.
// Review quality can never drive the factor below this value.
const MinEaseFactor = 1.3

// DefaultEaseFactor is the ease factor assigned to a freshly saved thought.
const DefaultEaseFactor = 2.5

// Thought is one atomic unit of user input, immutable once saved except for
// the spaced-repetition review fields.
type Thought struct {
	ID        string    `json:"id"`        // Opaque unique token
	Content   string    `json:"content"`   // Raw thought text as submitted
	Summary   string    `json:"summary"`   // Derived one-liner, at most 150 chars
	Timestamp time.Time `json:"timestamp"` // Creation instant

	// Extraction outputs. Entity order is insertion order; identity does
	// not depend on it.
	Entities   []Entity   `json:"entities,omitempty"`
	Categories []Category `json:"categories,omitempty"`

	// Enrichment outputs persisted alongside the thought.
	Actions         []ActionItem  `json:"actions,omitempty"`
	Nudges          []SocialNudge `json:"nudges,omitempty"`
	IsBlocker       bool          `json:"is_blocker"`
	AffectedProject string        `json:"affected_project,omitempty"`
	PARABucket      string        `json:"para_bucket,omitempty"`
	Salience        float64       `json:"salience"` // Importance score in [0,1]

	// Spaced-repetition review state.
	ReviewCount  int        `json:"review_count"`
	LastReviewed *time.Time `json:"last_reviewed,omitempty"`
	EaseFactor   float64    `json:"ease_factor"`
}

// Category is a (name, confidence) pair from the fixed vocabulary.
type Category struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"` // In [0,1]
}

// ActionItem is a task extracted from a thought.
type ActionItem struct {
	Description string `json:"description"`
	Urgency     int    `json:"urgency"` // 1 (someday) to 5 (now)
	Status      string `json:"status"`  // pending or done
	Deadline    string `json:"deadline,omitempty"` // ISO date when one was stated
}

// SocialNudge suggests reaching out to a person mentioned in a thought.
type SocialNudge struct {
	PersonName string `json:"person_name"`
	Reason     string `json:"reason"`
	Suggestion string `json:"suggestion"`
}

// Serendipity is one structural-hole finding: an entity connected to the
// current thought's entities only indirectly, via shared past thoughts.
type Serendipity struct {
	DisconnectedEntity string `json:"disconnected_entity"`
	ConnectedVia       string `json:"connected_via"`
	SharedCount        int    `json:"shared_count"`
	Nudge              string `json:"nudge,omitempty"`
}

// NewThought builds a thought with a fresh ID, the current timestamp, and
// the default ease factor.
func NewThought(content string) *Thought {
	return &Thought{
		ID:         NewThoughtID(),
		Content:    content,
		Timestamp:  time.Now().UTC(),
		EaseFactor: DefaultEaseFactor,
	}
}

// Validate checks the invariants a thought must satisfy before it is saved.
func (t *Thought) Validate() error {
	if t.ID == "" {
		return &ValidationError{Field: "id", Message: "thought ID is required"}
	}
	if t.Content == "" {
		return &ValidationError{Field: "content", Message: "thought content cannot be empty"}
	}
	if t.EaseFactor < MinEaseFactor {
		return &ValidationError{Field: "ease_factor", Message: "ease factor below minimum"}
	}
	for _, e := range t.Entities {
		if e.Name == "" {
			return &ValidationError{Field: "entities", Message: "entity with empty name attached to thought"}
		}
	}
	for _, c := range t.Categories {
		if c.Confidence < 0 || c.Confidence > 1 {
			return &ValidationError{Field: "categories", Message: "category confidence out of range"}
		}
	}
	return nil
}
