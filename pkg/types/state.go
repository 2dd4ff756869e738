package types

// Pipeline stage markers recorded on the state for observability.
const (
	StageStart         = "start"
	StageLoadContext   = "load_context"
	StageRoute         = "route"
	StageExtract       = "extract"
	StageReflect       = "reflect"
	StageRefine        = "refine"
	StageEnrich        = "enrich"
	StageRespond       = "respond"
	StageSimpleRespond = "simple_respond"
	StageSave          = "save"
	StageSynthesize    = "synthesize"
	StageEnd           = "end"
)

// MaxReflectionIterations is the hard cap on the reflect/refine loop.
// The routing decision concludes unconditionally once the counter reaches it.
const MaxReflectionIterations = 2

// AgentState is the working memory of one thought's trip through the
// pipeline. It is created fresh per thought, mutated by each stage in turn,
// and discarded after the terminal stage; it is never persisted directly.
type AgentState struct {
	// Input.
	Thought   string
	ThoughtID string

	// Context loading.
	IsQuestion          string // "yes" or "no"; string to keep prompts trivial
	ConversationDigest  string
	RetrievedNotes      string
	RelatedContext      string
	ContextCompressed   bool

	// Extraction.
	Entities   []Entity
	Categories []Category
	Summary    string

	// Reflection.
	Critique             string
	ReflectionIterations int

	// Enrichment.
	IsBlocker       bool
	RiskLevel       string
	AffectedProject string
	Actions         []ActionItem
	Nudges          []SocialNudge
	Serendipities   []Serendipity
	ConsistencyNote string
	EmotionalNote   string
	PARABucket      string
	Intent          string
	Salience        float64

	// Output.
	Response string

	// Observability.
	Stage string
}

// NewAgentState initializes the state for an incoming thought. Reflection
// counters start at zero and the stage marker at "start".
func NewAgentState(thought string) *AgentState {
	return &AgentState{
		Thought:    thought,
		ThoughtID:  NewThoughtID(),
		IsQuestion: "no",
		Stage:      StageStart,
	}
}

// Result is the projection of a terminal state returned to the caller.
type Result struct {
	ThoughtID  string        `json:"thought_id"`
	Response   string        `json:"response"`
	Entities   []Entity      `json:"entities,omitempty"`
	Categories []Category    `json:"categories,omitempty"`
	Summary    string        `json:"summary,omitempty"`
	Actions    []ActionItem  `json:"actions,omitempty"`
	Nudges     []SocialNudge `json:"nudges,omitempty"`
	IsBlocker  bool          `json:"is_blocker"`
}

// ToResult projects the terminal fields of the state.
func (s *AgentState) ToResult() *Result {
	return &Result{
		ThoughtID:  s.ThoughtID,
		Response:   s.Response,
		Entities:   s.Entities,
		Categories: s.Categories,
		Summary:    s.Summary,
		Actions:    s.Actions,
		Nudges:     s.Nudges,
		IsBlocker:  s.IsBlocker,
	}
}
