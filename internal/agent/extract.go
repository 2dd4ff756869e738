package agent

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/scrypster/reverie/internal/oracle"
	"github.com/scrypster/reverie/internal/storage"
	"github.com/scrypster/reverie/pkg/types"
)

const (
	// Second-hop lookup caps. Enough history to let the responder speak
	// to past mentions without bloating the prompt.
	relatedContextEntities  = 3
	relatedContextPerEntity = 2
)

// extractor runs the first-pass structured read of a thought: entities,
// categories, and a one-line summary, followed by a second hop over the
// resolved entities to pull in past thoughts about them. A failed generation
// or an unparseable reply degrades to an empty extraction; the thought is
// still captured.
type extractor struct {
	generator oracle.TextGenerator
	resolver  *entityResolver
	gateway   storage.Gateway
}

func newExtractor(generator oracle.TextGenerator, resolver *entityResolver, gateway storage.Gateway) *extractor {
	return &extractor{generator: generator, resolver: resolver, gateway: gateway}
}

// Extract populates Entities, Categories, Summary, and RelatedContext on the
// state. The raw extracted entities are resolved against the stored graph
// before they land on the state; the related context is a second hop over
// the resolved names.
func (e *extractor) Extract(ctx context.Context, state *types.AgentState) {
	prompt := oracle.ExtractionPrompt(state.Thought, state.RetrievedNotes)
	reply, err := e.generator.Complete(ctx, prompt)
	if err != nil {
		log.Printf("agent: extraction generation failed: %v", err)
		state.Entities = nil
		state.Categories = nil
		state.Summary = fallbackSummary(state.Thought)
		return
	}

	extraction, err := oracle.ParseExtraction(reply)
	if err != nil {
		log.Printf("agent: extraction reply unparseable: %v", err)
		state.Entities = nil
		state.Categories = nil
		state.Summary = fallbackSummary(state.Thought)
		return
	}

	state.Entities = e.resolver.ResolveBatch(ctx, toEntities(extraction.Entities), state.Thought)
	state.Categories = toCategories(extraction.Categories)
	state.Summary = extraction.Summary
	if state.Summary == "" {
		state.Summary = fallbackSummary(state.Thought)
	}
	state.RelatedContext = e.relatedContext(ctx, state)
}

// relatedContext collects past thoughts mentioning the resolved entities,
// one line per thought tagged with the entity that linked it. Lookup
// failures degrade to empty; the responder just sees less history.
func (e *extractor) relatedContext(ctx context.Context, state *types.AgentState) string {
	entities := state.Entities
	if len(entities) > relatedContextEntities {
		entities = entities[:relatedContextEntities]
	}

	seen := make(map[string]bool)
	var lines []string
	for _, entity := range entities {
		thoughts, err := e.gateway.FindByEntity(ctx, entity.Name, relatedContextPerEntity)
		if err != nil {
			log.Printf("agent: related context lookup for %q failed: %v", entity.Name, err)
			continue
		}
		for _, t := range thoughts {
			if t.ID == state.ThoughtID || seen[t.ID] {
				continue
			}
			seen[t.ID] = true
			line := t.Summary
			if line == "" {
				line = t.Content
			}
			lines = append(lines, fmt.Sprintf("- [%s] %s", entity.Name, line))
		}
	}
	return strings.Join(lines, "\n")
}

func toEntities(responses []oracle.EntityResponse) []types.Entity {
	entities := make([]types.Entity, 0, len(responses))
	for _, r := range responses {
		entities = append(entities, types.Entity{
			Name:        r.Name,
			Type:        r.Type,
			Description: r.Description,
		})
	}
	return entities
}

func toCategories(responses []oracle.CategoryResponse) []types.Category {
	categories := make([]types.Category, 0, len(responses))
	for _, r := range responses {
		categories = append(categories, types.Category{
			Name:       r.Name,
			Confidence: r.Confidence,
		})
	}
	return categories
}

// fallbackSummary trims the raw thought to the summary length cap.
func fallbackSummary(thought string) string {
	const maxLen = 150
	return truncateRunes(thought, maxLen)
}
