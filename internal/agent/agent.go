// Package agent is the orchestration core: a state machine that carries one
// thought from raw text through context loading, extraction, a bounded
// reflection loop, enrichment, response generation, persistence, and
// fire-and-forget background synthesis.
package agent

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/scrypster/reverie/internal/oracle"
	"github.com/scrypster/reverie/internal/profile"
	"github.com/scrypster/reverie/internal/storage"
	"github.com/scrypster/reverie/pkg/types"
)

// Routing constants for should_use_full_pipeline.
const minFullPipelineLength = 15

// greetings route straight to the simple path regardless of length.
var greetings = map[string]bool{
	"hi": true, "hello": true, "hey": true, "yo": true,
	"thanks": true, "thank you": true, "ok": true, "okay": true,
	"good morning": true, "good night": true, "bye": true,
}

// Agent wires the pipeline stages to shared infrastructure. One Agent
// serves all concurrent pipeline executions; per-thought state lives in
// types.AgentState.
type Agent struct {
	gateway   storage.Gateway
	index     storage.VectorIndex
	generator oracle.TextGenerator
	profiles  *profile.Service

	loader     *contextLoader
	resolver   *entityResolver
	extractor  *extractor
	reflector  *reflector
	enricher   *enrichmentBank
	finder     *serendipityFinder
	classifier *classifier
	responder  *responder
	reviewer   *reviewer
	pool       *synthesisPool
}

// Options tune the agent beyond its collaborators.
type Options struct {
	SynthesisWorkers int
	// OnSynthesisComplete is invoked from a worker goroutine whenever a
	// background task finishes.
	OnSynthesisComplete func(task *types.TaskRecord)
}

// New builds an agent and starts its background workers. Call Close to
// drain them.
func New(gateway storage.Gateway, index storage.VectorIndex, generator oracle.TextGenerator, profiles *profile.Service, opts Options) *Agent {
	resolver := newEntityResolver(gateway)
	a := &Agent{
		gateway:    gateway,
		index:      index,
		generator:  generator,
		profiles:   profiles,
		loader:     newContextLoader(gateway, index),
		resolver:   resolver,
		extractor:  newExtractor(generator, resolver, gateway),
		reflector:  newReflector(generator, resolver),
		enricher:   newEnrichmentBank(generator, gateway, profiles),
		finder:     newSerendipityFinder(gateway, generator),
		classifier: newClassifier(generator),
		responder:  newResponder(generator, profiles),
		reviewer:   newReviewer(gateway),
	}
	a.pool = newSynthesisPool(newSynthesizer(gateway, generator, profiles), opts.SynthesisWorkers)
	a.pool.onComplete = opts.OnSynthesisComplete
	a.pool.Start(context.Background())
	return a
}

// Close drains the background workers.
func (a *Agent) Close() {
	a.pool.Stop(10 * time.Second)
}

// Process is the sole public entry point per interaction. It runs the full
// state machine for one thought and returns the projection of its terminal
// state. Oracle failures degrade stage by stage; only a save failure is
// surfaced.
func (a *Agent) Process(ctx context.Context, thought string) (*types.Result, error) {
	if strings.TrimSpace(thought) == "" {
		return nil, &types.ValidationError{Field: "thought", Message: "thought must not be empty"}
	}

	state := types.NewAgentState(thought)
	log.Printf("agent: processing %s (%d chars)", state.ThoughtID, len(thought))

	state.Stage = types.StageLoadContext
	a.loader.Load(ctx, state)

	state.Stage = types.StageRoute
	if !shouldUseFullPipeline(thought) {
		state.Stage = types.StageSimpleRespond
		a.responder.SimpleRespond(ctx, state)

		state.Stage = types.StageSave
		if err := a.save(ctx, state); err != nil {
			return nil, err
		}
		state.Stage = types.StageEnd
		return state.ToResult(), nil
	}

	state.Stage = types.StageExtract
	a.extractor.Extract(ctx, state)

	for {
		state.Stage = types.StageReflect
		a.reflector.Reflect(ctx, state)
		if !a.reflector.ShouldRefine(state) {
			break
		}
		state.Stage = types.StageRefine
		a.reflector.Refine(ctx, state)
	}

	state.Stage = types.StageEnrich
	a.enricher.Enrich(ctx, state)
	a.finder.Find(ctx, state)
	a.classifier.Classify(ctx, state)
	scoreAndClassify(ctx, state)

	state.Stage = types.StageRespond
	a.responder.Respond(ctx, state)

	state.Stage = types.StageSave
	saved, err := a.saveFull(ctx, state)
	if err != nil {
		return nil, err
	}

	state.Stage = types.StageSynthesize
	a.pool.Enqueue(saved)

	state.Stage = types.StageEnd
	return state.ToResult(), nil
}

// shouldUseFullPipeline is the routing rule: short thoughts and greetings
// take the simple path.
func shouldUseFullPipeline(thought string) bool {
	trimmed := strings.TrimSpace(thought)
	if len(trimmed) < minFullPipelineLength {
		return false
	}
	normalized := strings.ToLower(strings.Trim(trimmed, "!.,? "))
	if greetings[normalized] {
		return false
	}
	return true
}

// save persists a simple-path thought: no extraction outputs, just the
// content and conversation history.
func (a *Agent) save(ctx context.Context, state *types.AgentState) error {
	thought := a.project(state)
	return a.persist(ctx, state, thought)
}

// saveFull persists a full-path thought and returns it for synthesis.
func (a *Agent) saveFull(ctx context.Context, state *types.AgentState) (*types.Thought, error) {
	thought := a.project(state)
	if err := a.persist(ctx, state, thought); err != nil {
		return nil, err
	}
	return thought, nil
}

// project turns the terminal state into a Thought record.
func (a *Agent) project(state *types.AgentState) *types.Thought {
	thought := types.NewThought(state.Thought)
	thought.ID = state.ThoughtID
	thought.Summary = state.Summary
	thought.Entities = state.Entities
	thought.Categories = state.Categories
	thought.Actions = state.Actions
	thought.Nudges = state.Nudges
	thought.IsBlocker = state.IsBlocker
	thought.AffectedProject = state.AffectedProject
	thought.PARABucket = state.PARABucket
	thought.Salience = state.Salience
	return thought
}

// persist is the single write point of the pipeline. Ordering matters: the
// thought is upserted and indexed only after its response is set, then the
// conversation history is appended, user message before assistant reply.
// This is the one stage whose failure reaches the caller.
func (a *Agent) persist(ctx context.Context, state *types.AgentState, thought *types.Thought) error {
	if err := thought.Validate(); err != nil {
		return err
	}

	if err := a.gateway.UpsertThought(ctx, thought); err != nil {
		return fmt.Errorf("failed to save thought: %w", err)
	}

	metadata := map[string]string{"thought_id": thought.ID}
	if thought.Summary != "" {
		metadata["summary"] = thought.Summary
	}
	if err := a.index.Index(ctx, thought.ID, thought.Content, metadata); err != nil {
		// Indexing failure loses retrieval, not the record itself.
		log.Printf("agent: vector indexing failed for %s: %v", thought.ID, err)
	}

	if err := a.gateway.AppendConversationMessage(ctx, "user", state.Thought, thought.ID); err != nil {
		return fmt.Errorf("failed to append user message: %w", err)
	}
	if err := a.gateway.AppendConversationMessage(ctx, "assistant", state.Response, thought.ID); err != nil {
		return fmt.Errorf("failed to append assistant message: %w", err)
	}
	return nil
}

// MarkReviewed records a spaced-repetition review.
func (a *Agent) MarkReviewed(ctx context.Context, thoughtID, rating string) (*types.Thought, error) {
	return a.reviewer.MarkReviewed(ctx, thoughtID, rating)
}

// ResurfaceQueue returns thoughts due for review.
func (a *Agent) ResurfaceQueue(ctx context.Context, limit int) ([]*types.Thought, error) {
	return a.reviewer.DueForReview(ctx, limit)
}

// Search runs a keyword search over saved thoughts.
func (a *Agent) Search(ctx context.Context, query string, limit int) ([]*types.Thought, error) {
	return a.gateway.SearchContent(ctx, query, limit)
}

// Stats reports store-level counts.
func (a *Agent) Stats(ctx context.Context) (*storage.Stats, error) {
	return a.gateway.Stats(ctx)
}

// SynthesisStatus reports the background task for a thought, if any.
func (a *Agent) SynthesisStatus(thoughtID string) (*types.TaskRecord, bool) {
	return a.pool.TaskStatus(thoughtID)
}

// CleanupSynthesisTasks drops completed registry entries.
func (a *Agent) CleanupSynthesisTasks() int {
	return a.pool.CleanupCompleted()
}
