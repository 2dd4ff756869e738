// Package storage defines the persistence contracts the agent pipeline is
// written against. Driver subpackages (sqlite, postgres) implement them;
// the pipeline never sees a concrete driver type.
package storage

import (
	"context"
	"time"

	"github.com/scrypster/reverie/pkg/types"
)

// Gateway is the durable thought/entity store plus conversation log.
// All write operations are idempotent merges keyed on record identity, so
// concurrent pipelines referencing the same entity cannot create duplicates.
type Gateway interface {
	// UpsertThought writes a thought and its attached entities, categories,
	// actions, and nudges. Calling it twice with the same ID replaces the
	// previous version.
	UpsertThought(ctx context.Context, thought *types.Thought) error

	// GetThought loads a thought by ID. Returns ErrNotFound if absent.
	GetThought(ctx context.Context, id string) (*types.Thought, error)

	// MergeEntity merges an entity by its case-insensitive (type, name)
	// identity and returns the canonical record. The stored name keeps the
	// casing of the first mention; descriptions of later mentions are kept
	// only when the canonical description is empty.
	MergeEntity(ctx context.Context, entity types.Entity) (types.Entity, error)

	// ListEntities returns the full entity population, used by the
	// resolver to match new mentions against existing identities.
	ListEntities(ctx context.Context) ([]types.Entity, error)

	// FindByEntity returns thoughts mentioning the named entity,
	// newest first.
	FindByEntity(ctx context.Context, name string, limit int) ([]*types.Thought, error)

	// FindByCategory returns thoughts carrying the named category,
	// newest first.
	FindByCategory(ctx context.Context, name string, limit int) ([]*types.Thought, error)

	// SearchContent returns thoughts whose content matches the query,
	// newest first.
	SearchContent(ctx context.Context, query string, limit int) ([]*types.Thought, error)

	// StructuralHoles finds entities that co-occur with the given entity
	// names in past thoughts but are not in the given set, ranked by the
	// number of shared thoughts descending.
	StructuralHoles(ctx context.Context, entityNames []string, limit int) ([]Hole, error)

	// AppendConversationMessage appends one message to the conversation
	// log. Role is "user" or "assistant"; thoughtID links the message to
	// the thought that produced it.
	AppendConversationMessage(ctx context.Context, role, content, thoughtID string) error

	// GetConversationDigest formats the last N conversation messages as a
	// newline-joined "role: content" digest, oldest first.
	GetConversationDigest(ctx context.Context, limit int) (string, error)

	// UpdateReview persists the spaced-repetition state of a thought after
	// a review. The caller computes the new values; the gateway only
	// stores them.
	UpdateReview(ctx context.Context, thoughtID string, reviewCount int, easeFactor float64, reviewedAt time.Time) error

	// ResurfaceQueue returns thoughts due for review, most overdue first.
	// A thought is due when now >= last_reviewed + interval, where the
	// interval grows with review_count and ease_factor. Never-reviewed
	// thoughts are due one day after creation.
	ResurfaceQueue(ctx context.Context, now time.Time, limit int) ([]*types.Thought, error)

	// SavePersonProfile and SaveProjectProfile upsert synthesized
	// profiles by name. Only background synthesis calls these.
	SavePersonProfile(ctx context.Context, profile *types.PersonProfile) error
	GetPersonProfile(ctx context.Context, name string) (*types.PersonProfile, error)
	SaveProjectProfile(ctx context.Context, profile *types.ProjectProfile) error
	GetProjectProfile(ctx context.Context, name string) (*types.ProjectProfile, error)

	// PendingActions returns action items still pending, most urgent
	// first. RecentNudges returns the latest social nudges.
	PendingActions(ctx context.Context, limit int) ([]types.ActionItem, error)
	RecentNudges(ctx context.Context, limit int) ([]types.SocialNudge, error)

	// Stats summarizes store contents.
	Stats(ctx context.Context) (*Stats, error)

	// Close releases the underlying connection.
	Close() error
}

// Embedder produces vector embeddings for text. The oracle clients satisfy
// this; vector index implementations depend on it rather than on a concrete
// client.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// VectorIndex is the similarity-search contract. Index is idempotent on ID.
type VectorIndex interface {
	// Index embeds the text and stores the vector under the given ID,
	// replacing any previous vector for that ID.
	Index(ctx context.Context, id, text string, metadata map[string]string) error

	// QuerySimilar embeds the query text and returns the closest indexed
	// entries by cosine distance, nearest first.
	QuerySimilar(ctx context.Context, text string, limit int) ([]SimilarResult, error)
}
