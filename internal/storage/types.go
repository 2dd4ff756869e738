package storage

import "errors"

var (
	// ErrNotFound indicates that the requested record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrInvalidInput indicates that the input parameters are invalid.
	ErrInvalidInput = errors.New("invalid input")
)

// SimilarResult is one hit from a vector similarity query. Distance is a
// cosine distance: 0 is identical, 2 is opposite.
type SimilarResult struct {
	ID       string
	Text     string
	Distance float64
}

// Hole is one structural-hole row: an entity that co-occurs with one of the
// queried entities in past thoughts without being in the query set itself.
type Hole struct {
	DisconnectedEntity string
	ConnectedVia       string
	SharedCount        int
}

// Stats summarizes the store contents for health and briefing surfaces.
type Stats struct {
	Thoughts      int `json:"thoughts"`
	Entities      int `json:"entities"`
	Conversations int `json:"conversations"`
	PendingTasks  int `json:"pending_actions"`
}

// QueryLimits bounds read queries. Zero values get defaults applied.
type QueryLimits struct {
	// Limit caps the number of rows returned (default 10, max 100).
	Limit int
}

// Normalize applies defaults and caps to the limits.
func (q *QueryLimits) Normalize() {
	if q.Limit < 1 {
		q.Limit = 10
	}
	if q.Limit > 100 {
		q.Limit = 100
	}
}
