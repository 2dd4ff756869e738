package types

import "time"

// PersonProfile is the synthesized view of a person accumulated across
// thoughts. Written only by background synthesis, never by the main
// pipeline; readers must tolerate it lagging recent thoughts.
type PersonProfile struct {
	Name        string    `json:"name"`
	Summary     string    `json:"summary"`
	LastContact string    `json:"last_contact,omitempty"` // Last point of contact, free text
	OpenLoops   []string  `json:"open_loops,omitempty"`   // Unresolved topics with this person
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProjectProfile is the synthesized view of a project.
type ProjectProfile struct {
	Name      string    `json:"name"`
	Status    string    `json:"status"` // One-paragraph status summary
	Blockers  []string  `json:"blockers,omitempty"`
	NextSteps []string  `json:"next_steps,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Task status constants for the background synthesis registry.
const (
	TaskPending   = "pending"
	TaskRunning   = "running"
	TaskCompleted = "completed"
	TaskFailed    = "failed"
)

// TaskRecord tracks one background synthesis task in the registry.
type TaskRecord struct {
	ID         string     `json:"id"`
	ThoughtID  string     `json:"thought_id"`
	Status     string     `json:"status"`
	Error      string     `json:"error,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// Done reports whether the task has reached a terminal status.
func (t *TaskRecord) Done() bool {
	return t.Status == TaskCompleted || t.Status == TaskFailed
}

// Review quality grades mapped onto the SM-2 quality scale.
const (
	ReviewEasy   = "easy"   // quality 5
	ReviewMedium = "medium" // quality 4
	ReviewHard   = "hard"   // quality 3
)
