package agent

import (
	"context"
	"strings"

	"github.com/scrypster/reverie/pkg/types"
)

// Salience is a cheap keyword-weighted score of how much a thought matters,
// used to rank the resurfacing queue. Deliberately not an oracle call; it
// runs on every thought.
var (
	emotionalKeywords = []string{
		"excited", "worried", "anxious", "frustrated", "thrilled",
		"scared", "angry", "love", "hate", "afraid", "proud", "stressed",
	}
	commitmentPhrases = []string{
		"i will", "i'll", "i must", "i need to", "i promise",
		"i'm going to", "committed to",
	}
	noveltyPhrases = []string{
		"just realized", "it occurred to me", "new idea",
		"what if", "never thought", "for the first time",
	}
)

// scoreSalience computes the weighted score and clamps it to [0,1].
func scoreSalience(state *types.AgentState) float64 {
	lower := strings.ToLower(state.Thought)
	score := 0.0

	emotional := 0.0
	for _, kw := range emotionalKeywords {
		if strings.Contains(lower, kw) {
			emotional += 0.1
		}
	}
	if emotional > 0.3 {
		emotional = 0.3
	}
	score += emotional

	for _, phrase := range commitmentPhrases {
		if strings.Contains(lower, phrase) {
			score += 0.2
			break
		}
	}

	density := 0.05 * float64(len(state.Entities))
	if density > 0.3 {
		density = 0.3
	}
	score += density

	if state.IsQuestion == "yes" {
		score += 0.1
	}

	for _, phrase := range noveltyPhrases {
		if strings.Contains(lower, phrase) {
			score += 0.1
			break
		}
	}

	if score > 1.0 {
		score = 1.0
	}
	return score
}

// Intent classification picks the responder's register.
var (
	utilityPhrases = []string{
		"remind me", "todo", "to-do", "task", "schedule", "deadline",
		"buy", "call", "email", "book", "pay",
	}
	strategicPhrases = []string{
		"long term", "long-term", "career", "vision", "goal",
		"direction", "strategy", "priorit", "trade-off", "tradeoff",
		"should i", "big picture",
	}
)

// classifyIntent returns simple, utility, or strategic based on keyword
// heuristics. Strategic outranks utility when both match.
func classifyIntent(thought string) string {
	lower := strings.ToLower(thought)
	for _, phrase := range strategicPhrases {
		if strings.Contains(lower, phrase) {
			return types.IntentStrategic
		}
	}
	for _, phrase := range utilityPhrases {
		if strings.Contains(lower, phrase) {
			return types.IntentUtility
		}
	}
	return types.IntentSimple
}

// scoreAndClassify stamps salience and intent onto the state during the
// enrich stage.
func scoreAndClassify(_ context.Context, state *types.AgentState) {
	state.Salience = scoreSalience(state)
	state.Intent = classifyIntent(state.Thought)
}
