package agent

import (
	"context"
	"log"
	"sort"
	"strings"

	"github.com/scrypster/reverie/internal/storage"
	"github.com/scrypster/reverie/pkg/types"
)

// Resolution thresholds. Above candidateThreshold an existing entity is
// considered a possible match; above autoMergeThreshold (with matching type)
// the merge happens without consulting context.
const (
	candidateThreshold = 0.85
	autoMergeThreshold = 0.9
)

// contextWindow is the number of characters inspected on each side of a
// mention when looking for distinguishing signals.
const contextWindow = 50

// distinguishingKeywords mark a mention as referring to a specific person or
// thing among same-named ones ("John from Engineering"). Their presence near
// the mention keeps the new entity separate instead of merging.
var distinguishingKeywords = []string{
	"from", "in the", "at the", "department", "team",
	"engineering", "marketing", "sales", "finance", "legal",
	"distinct from", "not the same", "different", "other",
	"senior", "junior", "new", "former",
}

// entityResolver decides whether an extracted entity is a new thing or a
// mention of something already in the graph. It reads the entity list once
// per batch and never writes; persistence happens at the save stage.
type entityResolver struct {
	gateway storage.Gateway
}

func newEntityResolver(gateway storage.Gateway) *entityResolver {
	return &entityResolver{gateway: gateway}
}

// resolution is the outcome for one mention.
type resolution struct {
	Entity types.Entity
	IsNew  bool
}

// ResolveBatch resolves each extracted entity against the stored graph and
// deduplicates within the batch itself. Resolution is idempotent: feeding
// the output back in yields the same entities.
func (r *entityResolver) ResolveBatch(ctx context.Context, extracted []types.Entity, thoughtContent string) []types.Entity {
	if len(extracted) == 0 {
		return nil
	}

	existing, err := r.gateway.ListEntities(ctx)
	if err != nil {
		log.Printf("agent: entity listing failed, treating all mentions as new: %v", err)
		existing = nil
	}

	resolved := make([]types.Entity, 0, len(extracted))
	seen := make(map[string]bool)
	for _, mention := range extracted {
		res := r.resolve(mention, existing, thoughtContent)
		key := res.Entity.Key()
		if seen[key] {
			continue
		}
		seen[key] = true
		resolved = append(resolved, res.Entity)
		if res.IsNew {
			// Later mentions in the same batch must see this one.
			existing = append(existing, res.Entity)
		}
	}
	return resolved
}

// resolve applies the matching ladder for a single mention: exact
// case-insensitive match, then similarity candidates, then the
// distinguishing-context check.
func (r *entityResolver) resolve(mention types.Entity, existing []types.Entity, content string) resolution {
	for _, e := range existing {
		if strings.EqualFold(e.Name, mention.Name) {
			return resolution{Entity: canonical(e, mention), IsNew: false}
		}
	}

	candidates := r.candidates(mention, existing)
	if len(candidates) == 0 {
		return resolution{Entity: mention, IsNew: true}
	}

	top := candidates[0]
	if top.score > autoMergeThreshold && top.entity.Type == mention.Type {
		return resolution{Entity: canonical(top.entity, mention), IsNew: false}
	}

	// Near-threshold match: look for context that marks this as a distinct
	// same-named thing. This is a tunable heuristic, not an oracle; when in
	// doubt it keeps entities separate, which a later merge can repair.
	if hasDistinguishingContext(content, mention.Name) {
		return resolution{Entity: mention, IsNew: true}
	}
	return resolution{Entity: canonical(top.entity, mention), IsNew: false}
}

type scoredEntity struct {
	entity types.Entity
	score  float64
}

func (r *entityResolver) candidates(mention types.Entity, existing []types.Entity) []scoredEntity {
	var out []scoredEntity
	for _, e := range existing {
		score := similarityRatio(e.Name, mention.Name)
		if score >= candidateThreshold {
			out = append(out, scoredEntity{entity: e, score: score})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].score != out[j].score {
			return out[i].score > out[j].score
		}
		iMatch := out[i].entity.Type == mention.Type
		jMatch := out[j].entity.Type == mention.Type
		return iMatch && !jMatch
	})
	return out
}

// canonical merges a mention into an existing entity, keeping the stored
// casing and filling in a description only when the store has none.
func canonical(existing, mention types.Entity) types.Entity {
	merged := existing
	if merged.Description == "" {
		merged.Description = mention.Description
	}
	return merged
}

// hasDistinguishingContext scans a character window around each occurrence
// of the name for keywords that suggest the mention refers to a distinct
// same-named entity.
func hasDistinguishingContext(content, name string) bool {
	lowerContent := strings.ToLower(content)
	lowerName := strings.ToLower(name)

	offset := 0
	for {
		idx := strings.Index(lowerContent[offset:], lowerName)
		if idx < 0 {
			return false
		}
		idx += offset

		start := idx - contextWindow
		if start < 0 {
			start = 0
		}
		end := idx + len(lowerName) + contextWindow
		if end > len(lowerContent) {
			end = len(lowerContent)
		}
		window := lowerContent[start:end]
		for _, kw := range distinguishingKeywords {
			if strings.Contains(window, kw) {
				return true
			}
		}
		offset = idx + len(lowerName)
	}
}
