package agent

import (
	"context"
	"log"
	"sync"

	"github.com/scrypster/reverie/internal/oracle"
	"github.com/scrypster/reverie/internal/profile"
	"github.com/scrypster/reverie/pkg/types"
)

// deepAnalysisMinLength gates the consistency and emotional analyzers.
// The fast analyzers always run; the deep ones only earn their latency on
// substantive input.
const deepAnalysisMinLength = 50

// enrichmentBank fans a thought out to independent analyzers. Each analyzer
// reads the same immutable inputs, writes its own result slot, and falls
// back to a neutral default on any failure. One broken analyzer never
// touches another's output.
type enrichmentBank struct {
	generator oracle.TextGenerator
	gateway   brainGateway
	profiles  *profile.Service
}

// brainGateway is the slice of storage the bank reads.
type brainGateway interface {
	FindByEntity(ctx context.Context, name string, limit int) ([]*types.Thought, error)
}

func newEnrichmentBank(generator oracle.TextGenerator, gateway brainGateway, profiles *profile.Service) *enrichmentBank {
	return &enrichmentBank{generator: generator, gateway: gateway, profiles: profiles}
}

// enrichmentResult carries one analyzer's output into the state merge.
type enrichmentResult struct {
	isBlocker       bool
	riskLevel       string
	affectedProject string
	nudges          []types.SocialNudge
	actions         []types.ActionItem
}

// Enrich runs all applicable analyzers concurrently and merges their
// results into the state.
func (b *enrichmentBank) Enrich(ctx context.Context, state *types.AgentState) {
	var projects, people []string
	if prof, err := b.profiles.Load(); err == nil {
		projects = prof.ProjectNames()
		people = prof.PeopleNames()
	} else {
		log.Printf("agent: profile unavailable for enrichment: %v", err)
	}

	var (
		wg      sync.WaitGroup
		blocker enrichmentResult
		nudges  []types.SocialNudge
		actions []types.ActionItem
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		blocker = b.analyzeBlocker(ctx, state.Thought, projects)
	}()
	go func() {
		defer wg.Done()
		nudges = b.analyzeNudges(ctx, state.Thought, people)
	}()
	go func() {
		defer wg.Done()
		actions = b.analyzeActions(ctx, state.Thought)
	}()

	deep := len(state.Thought) > deepAnalysisMinLength
	var consistency, emotion string
	if deep {
		wg.Add(2)
		go func() {
			defer wg.Done()
			consistency = b.analyzeConsistency(ctx, state)
		}()
		go func() {
			defer wg.Done()
			emotion = b.analyzeEmotion(ctx, state.Thought)
		}()
	}
	wg.Wait()

	state.IsBlocker = blocker.isBlocker
	state.RiskLevel = blocker.riskLevel
	state.AffectedProject = blocker.affectedProject
	state.Nudges = nudges
	state.Actions = actions
	state.ConsistencyNote = consistency
	state.EmotionalNote = emotion
}

// analyzeBlocker detects whether the thought reports something blocking a
// known project. Neutral default: not a blocker, no risk.
func (b *enrichmentBank) analyzeBlocker(ctx context.Context, thought string, projects []string) enrichmentResult {
	neutral := enrichmentResult{riskLevel: types.RiskNone}

	reply, err := b.generator.Complete(ctx, oracle.BlockerPrompt(thought, projects))
	if err != nil {
		log.Printf("agent: blocker analysis failed: %v", err)
		return neutral
	}
	parsed, err := oracle.ParseBlocker(reply)
	if err != nil {
		log.Printf("agent: blocker reply unparseable: %v", err)
		return neutral
	}
	// A blocker with no named project is recorded but never drives a
	// graph side effect; the save stage relies on this.
	return enrichmentResult{
		isBlocker:       parsed.IsBlocker,
		riskLevel:       parsed.RiskLevel,
		affectedProject: parsed.AffectedProject,
	}
}

// analyzeNudges looks for social follow-ups ("haven't talked to Sam in a
// while"). Neutral default: no nudges.
func (b *enrichmentBank) analyzeNudges(ctx context.Context, thought string, people []string) []types.SocialNudge {
	reply, err := b.generator.Complete(ctx, oracle.NudgePrompt(thought, people))
	if err != nil {
		log.Printf("agent: nudge analysis failed: %v", err)
		return nil
	}
	parsed, err := oracle.ParseNudges(reply)
	if err != nil {
		log.Printf("agent: nudge reply unparseable: %v", err)
		return nil
	}
	nudges := make([]types.SocialNudge, 0, len(parsed))
	for _, n := range parsed {
		nudges = append(nudges, types.SocialNudge{
			PersonName: n.PersonName,
			Reason:     n.Reason,
			Suggestion: n.Suggestion,
		})
	}
	return nudges
}

// analyzeActions extracts actionable tasks with urgency and deadlines.
// Neutral default: no actions.
func (b *enrichmentBank) analyzeActions(ctx context.Context, thought string) []types.ActionItem {
	reply, err := b.generator.Complete(ctx, oracle.ActionPrompt(thought))
	if err != nil {
		log.Printf("agent: action analysis failed: %v", err)
		return nil
	}
	parsed, err := oracle.ParseActions(reply)
	if err != nil {
		log.Printf("agent: action reply unparseable: %v", err)
		return nil
	}
	actions := make([]types.ActionItem, 0, len(parsed))
	for _, a := range parsed {
		actions = append(actions, types.ActionItem{
			Description: a.Description,
			Urgency:     a.Urgency,
			Status:      types.ActionPending,
			Deadline:    NormalizeDeadline(a.Deadline, timeNow()),
		})
	}
	return actions
}

// analyzeConsistency checks the thought against recent notes that mention
// the same entities, flagging contradictions. Neutral default: empty note.
func (b *enrichmentBank) analyzeConsistency(ctx context.Context, state *types.AgentState) string {
	prior := b.priorNotes(ctx, state.Entities)
	if prior == "" {
		return ""
	}
	reply, err := b.generator.Complete(ctx, oracle.ConsistencyPrompt(state.Thought, prior))
	if err != nil {
		log.Printf("agent: consistency analysis failed: %v", err)
		return ""
	}
	parsed, err := oracle.ParseConsistency(reply)
	if err != nil || !parsed.HasContradiction {
		return ""
	}
	return parsed.Analysis
}

// analyzeEmotion produces a short emotional read of the thought. Neutral
// default: empty note.
func (b *enrichmentBank) analyzeEmotion(ctx context.Context, thought string) string {
	reply, err := b.generator.Complete(ctx, oracle.EmotionPrompt(thought))
	if err != nil {
		log.Printf("agent: emotional analysis failed: %v", err)
		return ""
	}
	return reply
}

// priorNotes gathers summaries of past thoughts sharing this thought's
// entities, for the consistency check.
func (b *enrichmentBank) priorNotes(ctx context.Context, entities []types.Entity) string {
	var notes []string
	for _, e := range entities {
		thoughts, err := b.gateway.FindByEntity(ctx, e.Name, 3)
		if err != nil {
			continue
		}
		for _, t := range thoughts {
			if t.Summary != "" {
				notes = append(notes, t.Summary)
			}
		}
		if len(notes) >= 6 {
			break
		}
	}
	return joinLines(notes)
}

func joinLines(lines []string) string {
	out := ""
	for i, line := range lines {
		if i > 0 {
			out += "\n"
		}
		out += "- " + line
	}
	return out
}
