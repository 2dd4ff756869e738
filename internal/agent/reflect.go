package agent

import (
	"context"
	"log"
	"strings"

	"github.com/scrypster/reverie/internal/oracle"
	"github.com/scrypster/reverie/pkg/types"
)

// defaultCritique is the substitute used when the critic oracle fails. It
// deliberately matches the "looks good" conclude rule so a broken critic
// cannot spin the loop.
const defaultCritique = "Looks good."

// critiqueSignalWords in a critique route the loop back into refinement.
var critiqueSignalWords = []string{
	"missing", "should include", "overlooked", "incomplete",
	"forgot", "person", "project", "relationship", "also mention",
}

// substantiveWordCount is the word count above which a thought with a thin
// entity list earns one forced refinement.
const substantiveWordCount = 20

// reflector runs the bounded critic/refiner loop over the extracted
// entities. The refiner's output always re-enters the critic; the hard
// iteration cap guarantees termination no matter what the critic says.
type reflector struct {
	generator oracle.TextGenerator
	resolver  *entityResolver
}

func newReflector(generator oracle.TextGenerator, resolver *entityResolver) *reflector {
	return &reflector{generator: generator, resolver: resolver}
}

// Reflect critiques the current entity list and increments the iteration
// counter. Oracle failure substitutes a concluding critique.
func (r *reflector) Reflect(ctx context.Context, state *types.AgentState) {
	state.ReflectionIterations++

	prompt := oracle.CritiquePrompt(state.Thought, state.RetrievedNotes, entityNames(state.Entities))
	critique, err := r.generator.Complete(ctx, prompt)
	if err != nil {
		log.Printf("agent: critique generation failed: %v", err)
		critique = defaultCritique
	}
	state.Critique = strings.TrimSpace(critique)
}

// ShouldRefine is the routing decision after a critique. The rules are
// checked in order; the hard cap always wins.
func (r *reflector) ShouldRefine(state *types.AgentState) bool {
	if state.ReflectionIterations >= types.MaxReflectionIterations {
		return false
	}

	critique := strings.TrimSpace(state.Critique)
	if len(critique) < 30 && strings.HasPrefix(strings.ToLower(critique), "looks good") {
		return false
	}

	lower := strings.ToLower(critique)
	for _, signal := range critiqueSignalWords {
		if strings.Contains(lower, signal) {
			return true
		}
	}

	// A substantive thought that yielded almost no entities earns exactly
	// one forced second look.
	if wordCount(state.Thought) > substantiveWordCount &&
		len(state.Entities) < 2 &&
		state.ReflectionIterations == 1 {
		return true
	}

	return false
}

// Refine merges the critique's corrections into the entity list. A trivial
// or "looks good" critique leaves the list unchanged, as does any oracle
// failure.
func (r *reflector) Refine(ctx context.Context, state *types.AgentState) {
	critique := strings.TrimSpace(state.Critique)
	if critique == "" || strings.HasPrefix(strings.ToLower(critique), "looks good") {
		return
	}

	prompt := oracle.RefinePrompt(state.Thought, critique, entityNames(state.Entities))
	reply, err := r.generator.Complete(ctx, prompt)
	if err != nil {
		log.Printf("agent: refinement generation failed, keeping entities: %v", err)
		return
	}

	refined, err := oracle.ParseEntityList(reply)
	if err != nil {
		log.Printf("agent: refinement reply unparseable, keeping entities: %v", err)
		return
	}
	if len(refined) == 0 {
		return
	}

	// Union of current and refined, resolved and deduplicated in one pass.
	combined := append(append([]types.Entity{}, state.Entities...), toEntities(refined)...)
	state.Entities = r.resolver.ResolveBatch(ctx, combined, state.Thought)
}

func entityNames(entities []types.Entity) []string {
	names := make([]string, 0, len(entities))
	for _, e := range entities {
		names = append(names, e.Name)
	}
	return names
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}
