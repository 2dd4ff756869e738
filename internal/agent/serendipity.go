package agent

import (
	"context"
	"fmt"
	"log"

	"github.com/scrypster/reverie/internal/oracle"
	"github.com/scrypster/reverie/internal/storage"
	"github.com/scrypster/reverie/pkg/types"
)

const maxSerendipities = 3

// serendipityFinder surfaces non-obvious connections: entities that share
// past thoughts with what was just mentioned but were not mentioned
// themselves. The graph query and the per-hole text generation are
// independent stages; a generation failure falls back to a deterministic
// template so the discovered hole is never dropped.
type serendipityFinder struct {
	gateway   storage.Gateway
	generator oracle.TextGenerator
}

func newSerendipityFinder(gateway storage.Gateway, generator oracle.TextGenerator) *serendipityFinder {
	return &serendipityFinder{gateway: gateway, generator: generator}
}

// Find queries structural holes for the state's entities and attaches a
// nudge to each.
func (f *serendipityFinder) Find(ctx context.Context, state *types.AgentState) {
	if len(state.Entities) == 0 {
		return
	}

	holes, err := f.gateway.StructuralHoles(ctx, entityNames(state.Entities), maxSerendipities)
	if err != nil {
		log.Printf("agent: structural hole query failed: %v", err)
		return
	}

	serendipities := make([]types.Serendipity, 0, len(holes))
	for _, hole := range holes {
		serendipities = append(serendipities, types.Serendipity{
			DisconnectedEntity: hole.DisconnectedEntity,
			ConnectedVia:       hole.ConnectedVia,
			SharedCount:        hole.SharedCount,
			Nudge:              f.nudgeFor(ctx, hole),
		})
	}
	state.Serendipities = serendipities
}

// nudgeFor asks the oracle for a one-line connection question, falling back
// to a template when generation fails.
func (f *serendipityFinder) nudgeFor(ctx context.Context, hole storage.Hole) string {
	prompt := oracle.SerendipityPrompt(hole.ConnectedVia, hole.DisconnectedEntity, hole.SharedCount)
	nudge, err := f.generator.Complete(ctx, prompt)
	if err != nil || nudge == "" {
		return fmt.Sprintf("You've connected %s and %s through %d shared notes. Is there something there?",
			hole.ConnectedVia, hole.DisconnectedEntity, hole.SharedCount)
	}
	return nudge
}
