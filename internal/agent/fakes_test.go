package agent

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/scrypster/reverie/internal/storage"
	"github.com/scrypster/reverie/pkg/types"
)

// fakeGenerator replies with the first scripted response whose key appears
// in the prompt. Unmatched prompts get a generic acknowledgement unless
// failAll is set.
type fakeGenerator struct {
	mu        sync.Mutex
	responses map[string]string
	failAll   bool
	calls     []string
}

func newFakeGenerator() *fakeGenerator {
	return &fakeGenerator{responses: make(map[string]string)}
}

func (g *fakeGenerator) on(promptFragment, reply string) {
	g.responses[promptFragment] = reply
}

func (g *fakeGenerator) Complete(_ context.Context, prompt string) (string, error) {
	g.mu.Lock()
	g.calls = append(g.calls, prompt)
	g.mu.Unlock()

	if g.failAll {
		return "", errors.New("oracle down")
	}
	for fragment, reply := range g.responses {
		if strings.Contains(prompt, fragment) {
			return reply, nil
		}
	}
	return "Noted.", nil
}

func (g *fakeGenerator) callCount(promptFragment string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for _, prompt := range g.calls {
		if strings.Contains(prompt, promptFragment) {
			n++
		}
	}
	return n
}

type conversationMessage struct {
	role    string
	content string
}

// fakeGateway is an in-memory storage.Gateway.
type fakeGateway struct {
	mu         sync.Mutex
	thoughts   map[string]*types.Thought
	entities   []types.Entity
	messages   []conversationMessage
	holes      []storage.Hole
	upserts    int
	failUpsert bool
	failAppend bool
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{thoughts: make(map[string]*types.Thought)}
}

func (g *fakeGateway) UpsertThought(_ context.Context, thought *types.Thought) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failUpsert {
		return errors.New("disk full")
	}
	g.upserts++
	g.thoughts[thought.ID] = thought
	return nil
}

func (g *fakeGateway) GetThought(_ context.Context, id string) (*types.Thought, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	t, ok := g.thoughts[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return t, nil
}

func (g *fakeGateway) MergeEntity(_ context.Context, entity types.Entity) (types.Entity, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, e := range g.entities {
		if strings.EqualFold(e.Name, entity.Name) && strings.EqualFold(e.Type, entity.Type) {
			return e, nil
		}
	}
	g.entities = append(g.entities, entity)
	return entity, nil
}

func (g *fakeGateway) ListEntities(_ context.Context) ([]types.Entity, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]types.Entity{}, g.entities...), nil
}

func (g *fakeGateway) FindByEntity(_ context.Context, name string, limit int) ([]*types.Thought, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []*types.Thought
	for _, t := range g.thoughts {
		for _, e := range t.Entities {
			if strings.EqualFold(e.Name, name) {
				out = append(out, t)
				break
			}
		}
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (g *fakeGateway) FindByCategory(_ context.Context, name string, limit int) ([]*types.Thought, error) {
	return nil, nil
}

func (g *fakeGateway) SearchContent(_ context.Context, query string, limit int) ([]*types.Thought, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []*types.Thought
	for _, t := range g.thoughts {
		if strings.Contains(strings.ToLower(t.Content), strings.ToLower(query)) {
			out = append(out, t)
		}
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (g *fakeGateway) StructuralHoles(_ context.Context, _ []string, limit int) ([]storage.Hole, error) {
	if len(g.holes) > limit {
		return g.holes[:limit], nil
	}
	return g.holes, nil
}

func (g *fakeGateway) AppendConversationMessage(_ context.Context, role, content, _ string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failAppend {
		return errors.New("disk full")
	}
	g.messages = append(g.messages, conversationMessage{role: role, content: content})
	return nil
}

func (g *fakeGateway) GetConversationDigest(_ context.Context, limit int) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	start := len(g.messages) - limit
	if start < 0 {
		start = 0
	}
	var lines []string
	for _, m := range g.messages[start:] {
		lines = append(lines, m.role+": "+m.content)
	}
	return strings.Join(lines, "\n"), nil
}

func (g *fakeGateway) UpdateReview(_ context.Context, thoughtID string, reviewCount int, easeFactor float64, reviewedAt time.Time) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	t, ok := g.thoughts[thoughtID]
	if !ok {
		return storage.ErrNotFound
	}
	t.ReviewCount = reviewCount
	t.EaseFactor = easeFactor
	t.LastReviewed = &reviewedAt
	return nil
}

func (g *fakeGateway) ResurfaceQueue(_ context.Context, now time.Time, limit int) ([]*types.Thought, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []*types.Thought
	for _, t := range g.thoughts {
		if !now.Before(storage.ReviewDueAt(t)) {
			out = append(out, t)
		}
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (g *fakeGateway) SavePersonProfile(_ context.Context, _ *types.PersonProfile) error { return nil }
func (g *fakeGateway) GetPersonProfile(_ context.Context, _ string) (*types.PersonProfile, error) {
	return nil, storage.ErrNotFound
}
func (g *fakeGateway) SaveProjectProfile(_ context.Context, _ *types.ProjectProfile) error {
	return nil
}
func (g *fakeGateway) GetProjectProfile(_ context.Context, _ string) (*types.ProjectProfile, error) {
	return nil, storage.ErrNotFound
}

func (g *fakeGateway) PendingActions(_ context.Context, limit int) ([]types.ActionItem, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []types.ActionItem
	for _, t := range g.thoughts {
		for _, a := range t.Actions {
			if a.Status == types.ActionPending {
				out = append(out, a)
			}
		}
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (g *fakeGateway) RecentNudges(_ context.Context, limit int) ([]types.SocialNudge, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []types.SocialNudge
	for _, t := range g.thoughts {
		out = append(out, t.Nudges...)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (g *fakeGateway) Stats(_ context.Context) (*storage.Stats, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return &storage.Stats{
		Thoughts:      len(g.thoughts),
		Entities:      len(g.entities),
		Conversations: len(g.messages),
	}, nil
}

func (g *fakeGateway) Close() error { return nil }

var _ storage.Gateway = (*fakeGateway)(nil)

// fakeIndex records indexed texts and serves canned similarity results.
type fakeIndex struct {
	mu      sync.Mutex
	indexed map[string]string
	results []storage.SimilarResult
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{indexed: make(map[string]string)}
}

func (i *fakeIndex) Index(_ context.Context, id, text string, _ map[string]string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.indexed[id] = text
	return nil
}

func (i *fakeIndex) QuerySimilar(_ context.Context, _ string, limit int) ([]storage.SimilarResult, error) {
	if len(i.results) > limit {
		return i.results[:limit], nil
	}
	return i.results, nil
}

var _ storage.VectorIndex = (*fakeIndex)(nil)
