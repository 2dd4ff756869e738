// Package sqlite implements the storage contracts on an embedded SQLite
// database. It is the default backend: zero external services, one file.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"os"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/scrypster/reverie/internal/storage"
	"github.com/scrypster/reverie/pkg/types"
)

// Gateway implements storage.Gateway using SQLite.
type Gateway struct {
	db *sql.DB
}

// NewGateway opens a SQLite-backed gateway with WAL self-healing. If the
// initial open fails in a way that suggests stale WAL files left behind by a
// crashed process, the stale -shm/-wal files are removed and the open is
// retried once.
func NewGateway(dsn string) (*Gateway, error) {
	gw, err := openGateway(dsn)
	if err == nil {
		return gw, nil
	}

	if !isRecoverableWALError(err) {
		return nil, err
	}

	dbPath := dbPathFromDSN(dsn)
	if dbPath == "" || dbPath == ":memory:" {
		return nil, err
	}

	removeStaleWAL(dbPath)

	gw, retryErr := openGateway(dsn)
	if retryErr != nil {
		return nil, fmt.Errorf("failed after WAL recovery: %w (original: %v)", retryErr, err)
	}

	log.Printf("storage: recovered from stale WAL files for %s", dbPath)
	return gw, nil
}

// openGateway opens the database, configures WAL mode, and applies the schema.
func openGateway(dsn string) (*Gateway, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite supports one concurrent writer. A single open connection
	// serialises writes and avoids SQLITE_BUSY under concurrent pipelines;
	// WAL mode lets readers proceed without blocking the writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Gateway{db: db}, nil
}

// Close releases the database connection.
func (g *Gateway) Close() error {
	return g.db.Close()
}

// DB exposes the underlying handle so the vector index can share the
// single-connection pool instead of opening a second one.
func (g *Gateway) DB() *sql.DB {
	return g.db
}

// UpsertThought writes the thought and all attachments in one transaction.
func (g *Gateway) UpsertThought(ctx context.Context, thought *types.Thought) error {
	if thought == nil {
		return storage.ErrInvalidInput
	}
	if err := thought.Validate(); err != nil {
		return fmt.Errorf("%w: %v", storage.ErrInvalidInput, err)
	}

	tx, err := g.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO thoughts (id, content, summary, timestamp, is_blocker,
			affected_project, para_bucket, salience, review_count,
			last_reviewed, ease_factor)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			content = excluded.content,
			summary = excluded.summary,
			is_blocker = excluded.is_blocker,
			affected_project = excluded.affected_project,
			para_bucket = excluded.para_bucket,
			salience = excluded.salience`,
		thought.ID, thought.Content, thought.Summary, thought.Timestamp.UTC(),
		thought.IsBlocker, thought.AffectedProject, thought.PARABucket,
		thought.Salience, thought.ReviewCount, nullableTime(thought.LastReviewed),
		thought.EaseFactor)
	if err != nil {
		return fmt.Errorf("failed to upsert thought: %w", err)
	}

	// Attachments are replaced wholesale; the thought is the unit of write.
	for _, table := range []string{"thought_entities", "thought_categories", "actions", "nudges"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE thought_id = ?", thought.ID); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	for i, entity := range thought.Entities {
		entityID, err := mergeEntityTx(ctx, tx, entity)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO thought_entities (thought_id, entity_id, position)
			VALUES (?, ?, ?)`, thought.ID, entityID, i)
		if err != nil {
			return fmt.Errorf("failed to link entity: %w", err)
		}
	}

	for _, cat := range thought.Categories {
		_, err := tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO thought_categories (thought_id, name, confidence)
			VALUES (?, ?, ?)`, thought.ID, strings.ToLower(cat.Name), cat.Confidence)
		if err != nil {
			return fmt.Errorf("failed to store category: %w", err)
		}
	}

	for _, action := range thought.Actions {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO actions (thought_id, description, urgency, status, deadline)
			VALUES (?, ?, ?, ?, ?)`,
			thought.ID, action.Description, action.Urgency, action.Status, action.Deadline)
		if err != nil {
			return fmt.Errorf("failed to store action: %w", err)
		}
	}

	for _, nudge := range thought.Nudges {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO nudges (thought_id, person_name, reason, suggestion)
			VALUES (?, ?, ?, ?)`,
			thought.ID, nudge.PersonName, nudge.Reason, nudge.Suggestion)
		if err != nil {
			return fmt.Errorf("failed to store nudge: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit thought: %w", err)
	}
	return nil
}

// GetThought loads one thought with all attachments.
func (g *Gateway) GetThought(ctx context.Context, id string) (*types.Thought, error) {
	row := g.db.QueryRowContext(ctx, `
		SELECT id, content, summary, timestamp, is_blocker, affected_project,
			para_bucket, salience, review_count, last_reviewed, ease_factor
		FROM thoughts WHERE id = ?`, id)

	thought, err := scanThought(row)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load thought: %w", err)
	}
	if err := g.loadAttachments(ctx, thought); err != nil {
		return nil, err
	}
	return thought, nil
}

// MergeEntity merges by case-insensitive identity and returns the canonical
// record. The first mention's casing wins.
func (g *Gateway) MergeEntity(ctx context.Context, entity types.Entity) (types.Entity, error) {
	if err := entity.Validate(); err != nil {
		return types.Entity{}, fmt.Errorf("%w: %v", storage.ErrInvalidInput, err)
	}

	tx, err := g.db.BeginTx(ctx, nil)
	if err != nil {
		return types.Entity{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := mergeEntityTx(ctx, tx, entity); err != nil {
		return types.Entity{}, err
	}

	var canonical types.Entity
	err = tx.QueryRowContext(ctx, `
		SELECT name, type, description FROM entities
		WHERE lower(type) = lower(?) AND lower(name) = lower(?)`,
		entity.Type, entity.Name).Scan(&canonical.Name, &canonical.Type, &canonical.Description)
	if err != nil {
		return types.Entity{}, fmt.Errorf("failed to load canonical entity: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return types.Entity{}, fmt.Errorf("failed to commit entity merge: %w", err)
	}
	return canonical, nil
}

// mergeEntityTx inserts or updates an entity within a transaction and returns
// its row ID. A later mention only fills in a missing description; it never
// overwrites name casing or an existing description.
func mergeEntityTx(ctx context.Context, tx *sql.Tx, entity types.Entity) (int64, error) {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO entities (name, type, description)
		VALUES (?, ?, ?)
		ON CONFLICT(lower(type), lower(name)) DO UPDATE SET
			description = CASE WHEN entities.description = ''
				THEN excluded.description ELSE entities.description END`,
		entity.Name, entity.Type, entity.Description)
	if err != nil {
		return 0, fmt.Errorf("failed to merge entity %q: %w", entity.Name, err)
	}

	var id int64
	err = tx.QueryRowContext(ctx, `
		SELECT id FROM entities
		WHERE lower(type) = lower(?) AND lower(name) = lower(?)`,
		entity.Type, entity.Name).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve entity id: %w", err)
	}
	return id, nil
}

// ListEntities returns the full entity population.
func (g *Gateway) ListEntities(ctx context.Context) ([]types.Entity, error) {
	rows, err := g.db.QueryContext(ctx, `SELECT name, type, description FROM entities ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list entities: %w", err)
	}
	defer rows.Close()

	var entities []types.Entity
	for rows.Next() {
		var e types.Entity
		if err := rows.Scan(&e.Name, &e.Type, &e.Description); err != nil {
			return nil, fmt.Errorf("failed to scan entity: %w", err)
		}
		entities = append(entities, e)
	}
	return entities, rows.Err()
}

// FindByEntity returns thoughts mentioning the named entity, newest first.
func (g *Gateway) FindByEntity(ctx context.Context, name string, limit int) ([]*types.Thought, error) {
	limits := storage.QueryLimits{Limit: limit}
	limits.Normalize()

	rows, err := g.db.QueryContext(ctx, `
		SELECT t.id, t.content, t.summary, t.timestamp, t.is_blocker,
			t.affected_project, t.para_bucket, t.salience, t.review_count,
			t.last_reviewed, t.ease_factor
		FROM thoughts t
		JOIN thought_entities te ON te.thought_id = t.id
		JOIN entities e ON e.id = te.entity_id
		WHERE lower(e.name) = lower(?)
		ORDER BY t.timestamp DESC
		LIMIT ?`, name, limits.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to find by entity: %w", err)
	}
	return g.collectThoughts(ctx, rows)
}

// FindByCategory returns thoughts carrying the named category, newest first.
func (g *Gateway) FindByCategory(ctx context.Context, name string, limit int) ([]*types.Thought, error) {
	limits := storage.QueryLimits{Limit: limit}
	limits.Normalize()

	rows, err := g.db.QueryContext(ctx, `
		SELECT t.id, t.content, t.summary, t.timestamp, t.is_blocker,
			t.affected_project, t.para_bucket, t.salience, t.review_count,
			t.last_reviewed, t.ease_factor
		FROM thoughts t
		JOIN thought_categories tc ON tc.thought_id = t.id
		WHERE tc.name = lower(?)
		ORDER BY t.timestamp DESC
		LIMIT ?`, name, limits.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to find by category: %w", err)
	}
	return g.collectThoughts(ctx, rows)
}

// SearchContent runs a full-text search over thought content. The query is
// quoted per term so FTS5 operators in user input cannot break the match
// expression; if FTS still rejects it, fall back to a LIKE scan.
func (g *Gateway) SearchContent(ctx context.Context, query string, limit int) ([]*types.Thought, error) {
	limits := storage.QueryLimits{Limit: limit}
	limits.Normalize()

	match := ftsQuote(query)
	if match != "" {
		rows, err := g.db.QueryContext(ctx, `
			SELECT t.id, t.content, t.summary, t.timestamp, t.is_blocker,
				t.affected_project, t.para_bucket, t.salience, t.review_count,
				t.last_reviewed, t.ease_factor
			FROM thoughts_fts f
			JOIN thoughts t ON t.id = f.thought_id
			WHERE thoughts_fts MATCH ?
			ORDER BY t.timestamp DESC
			LIMIT ?`, match, limits.Limit)
		if err == nil {
			return g.collectThoughts(ctx, rows)
		}
	}

	rows, err := g.db.QueryContext(ctx, `
		SELECT id, content, summary, timestamp, is_blocker, affected_project,
			para_bucket, salience, review_count, last_reviewed, ease_factor
		FROM thoughts
		WHERE content LIKE '%' || ? || '%'
		ORDER BY timestamp DESC
		LIMIT ?`, query, limits.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search content: %w", err)
	}
	return g.collectThoughts(ctx, rows)
}

// ftsQuote wraps each whitespace-separated term in double quotes so the
// combined expression is a plain AND of literal terms.
func ftsQuote(query string) string {
	fields := strings.Fields(query)
	if len(fields) == 0 {
		return ""
	}
	quoted := make([]string, 0, len(fields))
	for _, f := range fields {
		quoted = append(quoted, `"`+strings.ReplaceAll(f, `"`, ``)+`"`)
	}
	return strings.Join(quoted, " ")
}

// StructuralHoles finds entities co-occurring with the given names in past
// thoughts without being in the given set, ranked by shared thought count.
func (g *Gateway) StructuralHoles(ctx context.Context, entityNames []string, limit int) ([]storage.Hole, error) {
	if len(entityNames) == 0 {
		return nil, nil
	}
	limits := storage.QueryLimits{Limit: limit}
	limits.Normalize()

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(entityNames)), ",")
	args := make([]interface{}, 0, 2*len(entityNames)+1)
	for _, n := range entityNames {
		args = append(args, strings.ToLower(n))
	}
	for _, n := range entityNames {
		args = append(args, strings.ToLower(n))
	}
	args = append(args, limits.Limit)

	rows, err := g.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT b.name, a.name, COUNT(DISTINCT ta.thought_id) AS shared
		FROM entities a
		JOIN thought_entities ta ON ta.entity_id = a.id
		JOIN thought_entities tb ON tb.thought_id = ta.thought_id AND tb.entity_id != a.id
		JOIN entities b ON b.id = tb.entity_id
		WHERE lower(a.name) IN (%s) AND lower(b.name) NOT IN (%s)
		GROUP BY b.id, a.id
		ORDER BY shared DESC
		LIMIT ?`, placeholders, placeholders), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query structural holes: %w", err)
	}
	defer rows.Close()

	var holes []storage.Hole
	for rows.Next() {
		var h storage.Hole
		if err := rows.Scan(&h.DisconnectedEntity, &h.ConnectedVia, &h.SharedCount); err != nil {
			return nil, fmt.Errorf("failed to scan structural hole: %w", err)
		}
		holes = append(holes, h)
	}
	return holes, rows.Err()
}

// AppendConversationMessage appends one message to the conversation log.
func (g *Gateway) AppendConversationMessage(ctx context.Context, role, content, thoughtID string) error {
	if role == "" || content == "" {
		return fmt.Errorf("%w: role and content are required", storage.ErrInvalidInput)
	}
	_, err := g.db.ExecContext(ctx, `
		INSERT INTO conversation_messages (role, content, thought_id, created_at)
		VALUES (?, ?, ?, ?)`, role, content, thoughtID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to append conversation message: %w", err)
	}
	return nil
}

// GetConversationDigest formats the last N messages, oldest first.
func (g *Gateway) GetConversationDigest(ctx context.Context, limit int) (string, error) {
	limits := storage.QueryLimits{Limit: limit}
	limits.Normalize()

	rows, err := g.db.QueryContext(ctx, `
		SELECT role, content FROM conversation_messages
		ORDER BY id DESC LIMIT ?`, limits.Limit)
	if err != nil {
		return "", fmt.Errorf("failed to load conversation: %w", err)
	}
	defer rows.Close()

	var lines []string
	for rows.Next() {
		var role, content string
		if err := rows.Scan(&role, &content); err != nil {
			return "", fmt.Errorf("failed to scan message: %w", err)
		}
		lines = append(lines, role+": "+content)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}

	// Rows come back newest first; the digest reads oldest first.
	for i, j := 0, len(lines)-1; i < j; i, j = i+1, j-1 {
		lines[i], lines[j] = lines[j], lines[i]
	}
	return strings.Join(lines, "\n"), nil
}

// UpdateReview persists spaced-repetition state after a review.
func (g *Gateway) UpdateReview(ctx context.Context, thoughtID string, reviewCount int, easeFactor float64, reviewedAt time.Time) error {
	if easeFactor < types.MinEaseFactor {
		return fmt.Errorf("%w: ease factor below minimum", storage.ErrInvalidInput)
	}
	res, err := g.db.ExecContext(ctx, `
		UPDATE thoughts SET review_count = ?, ease_factor = ?, last_reviewed = ?
		WHERE id = ?`, reviewCount, easeFactor, reviewedAt.UTC(), thoughtID)
	if err != nil {
		return fmt.Errorf("failed to update review state: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ResurfaceQueue returns thoughts due for review, most overdue first. Due
// instants depend on ease_factor arithmetic, so candidates are fetched by
// review-anchor age and filtered in Go.
func (g *Gateway) ResurfaceQueue(ctx context.Context, now time.Time, limit int) ([]*types.Thought, error) {
	limits := storage.QueryLimits{Limit: limit}
	limits.Normalize()

	rows, err := g.db.QueryContext(ctx, `
		SELECT id, content, summary, timestamp, is_blocker, affected_project,
			para_bucket, salience, review_count, last_reviewed, ease_factor
		FROM thoughts
		ORDER BY COALESCE(last_reviewed, timestamp) ASC
		LIMIT 500`)
	if err != nil {
		return nil, fmt.Errorf("failed to load review candidates: %w", err)
	}
	candidates, err := g.collectThoughts(ctx, rows)
	if err != nil {
		return nil, err
	}

	var due []*types.Thought
	for _, t := range candidates {
		if !storage.ReviewDueAt(t).After(now) {
			due = append(due, t)
		}
	}
	sort.SliceStable(due, func(i, j int) bool {
		return storage.ReviewDueAt(due[i]).Before(storage.ReviewDueAt(due[j]))
	})
	if len(due) > limits.Limit {
		due = due[:limits.Limit]
	}
	return due, nil
}

// SavePersonProfile upserts a synthesized person profile by name.
func (g *Gateway) SavePersonProfile(ctx context.Context, profile *types.PersonProfile) error {
	if profile == nil || profile.Name == "" {
		return fmt.Errorf("%w: profile name is required", storage.ErrInvalidInput)
	}
	loops, err := json.Marshal(profile.OpenLoops)
	if err != nil {
		return fmt.Errorf("failed to marshal open loops: %w", err)
	}
	_, err = g.db.ExecContext(ctx, `
		INSERT INTO person_profiles (name, summary, last_contact, open_loops, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			summary = excluded.summary,
			last_contact = excluded.last_contact,
			open_loops = excluded.open_loops,
			updated_at = excluded.updated_at`,
		profile.Name, profile.Summary, profile.LastContact, string(loops), profile.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to save person profile: %w", err)
	}
	return nil
}

// GetPersonProfile loads a synthesized person profile.
func (g *Gateway) GetPersonProfile(ctx context.Context, name string) (*types.PersonProfile, error) {
	var p types.PersonProfile
	var loops string
	var updatedAt sql.NullTime
	err := g.db.QueryRowContext(ctx, `
		SELECT name, summary, last_contact, open_loops, updated_at
		FROM person_profiles WHERE lower(name) = lower(?)`, name).
		Scan(&p.Name, &p.Summary, &p.LastContact, &loops, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load person profile: %w", err)
	}
	if err := json.Unmarshal([]byte(loops), &p.OpenLoops); err != nil {
		return nil, fmt.Errorf("failed to unmarshal open loops: %w", err)
	}
	if updatedAt.Valid {
		p.UpdatedAt = updatedAt.Time
	}
	return &p, nil
}

// SaveProjectProfile upserts a synthesized project profile by name.
func (g *Gateway) SaveProjectProfile(ctx context.Context, profile *types.ProjectProfile) error {
	if profile == nil || profile.Name == "" {
		return fmt.Errorf("%w: profile name is required", storage.ErrInvalidInput)
	}
	blockers, err := json.Marshal(profile.Blockers)
	if err != nil {
		return fmt.Errorf("failed to marshal blockers: %w", err)
	}
	steps, err := json.Marshal(profile.NextSteps)
	if err != nil {
		return fmt.Errorf("failed to marshal next steps: %w", err)
	}
	_, err = g.db.ExecContext(ctx, `
		INSERT INTO project_profiles (name, status, blockers, next_steps, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			status = excluded.status,
			blockers = excluded.blockers,
			next_steps = excluded.next_steps,
			updated_at = excluded.updated_at`,
		profile.Name, profile.Status, string(blockers), string(steps), profile.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to save project profile: %w", err)
	}
	return nil
}

// GetProjectProfile loads a synthesized project profile.
func (g *Gateway) GetProjectProfile(ctx context.Context, name string) (*types.ProjectProfile, error) {
	var p types.ProjectProfile
	var blockers, steps string
	var updatedAt sql.NullTime
	err := g.db.QueryRowContext(ctx, `
		SELECT name, status, blockers, next_steps, updated_at
		FROM project_profiles WHERE lower(name) = lower(?)`, name).
		Scan(&p.Name, &p.Status, &blockers, &steps, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load project profile: %w", err)
	}
	if err := json.Unmarshal([]byte(blockers), &p.Blockers); err != nil {
		return nil, fmt.Errorf("failed to unmarshal blockers: %w", err)
	}
	if err := json.Unmarshal([]byte(steps), &p.NextSteps); err != nil {
		return nil, fmt.Errorf("failed to unmarshal next steps: %w", err)
	}
	if updatedAt.Valid {
		p.UpdatedAt = updatedAt.Time
	}
	return &p, nil
}

// PendingActions returns action items still pending, most urgent first.
func (g *Gateway) PendingActions(ctx context.Context, limit int) ([]types.ActionItem, error) {
	limits := storage.QueryLimits{Limit: limit}
	limits.Normalize()

	rows, err := g.db.QueryContext(ctx, `
		SELECT description, urgency, status, deadline FROM actions
		WHERE status = ?
		ORDER BY urgency DESC, id DESC
		LIMIT ?`, types.ActionPending, limits.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load pending actions: %w", err)
	}
	defer rows.Close()

	var actions []types.ActionItem
	for rows.Next() {
		var a types.ActionItem
		if err := rows.Scan(&a.Description, &a.Urgency, &a.Status, &a.Deadline); err != nil {
			return nil, fmt.Errorf("failed to scan action: %w", err)
		}
		actions = append(actions, a)
	}
	return actions, rows.Err()
}

// RecentNudges returns the latest social nudges.
func (g *Gateway) RecentNudges(ctx context.Context, limit int) ([]types.SocialNudge, error) {
	limits := storage.QueryLimits{Limit: limit}
	limits.Normalize()

	rows, err := g.db.QueryContext(ctx, `
		SELECT person_name, reason, suggestion FROM nudges
		ORDER BY id DESC LIMIT ?`, limits.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load nudges: %w", err)
	}
	defer rows.Close()

	var nudges []types.SocialNudge
	for rows.Next() {
		var n types.SocialNudge
		if err := rows.Scan(&n.PersonName, &n.Reason, &n.Suggestion); err != nil {
			return nil, fmt.Errorf("failed to scan nudge: %w", err)
		}
		nudges = append(nudges, n)
	}
	return nudges, rows.Err()
}

// Stats summarizes store contents.
func (g *Gateway) Stats(ctx context.Context) (*storage.Stats, error) {
	stats := &storage.Stats{}
	queries := []struct {
		query string
		dest  *int
	}{
		{"SELECT COUNT(*) FROM thoughts", &stats.Thoughts},
		{"SELECT COUNT(*) FROM entities", &stats.Entities},
		{"SELECT COUNT(*) FROM conversation_messages", &stats.Conversations},
		{"SELECT COUNT(*) FROM actions WHERE status = 'pending'", &stats.PendingTasks},
	}
	for _, q := range queries {
		if err := g.db.QueryRowContext(ctx, q.query).Scan(q.dest); err != nil {
			return nil, fmt.Errorf("failed to compute stats: %w", err)
		}
	}
	return stats, nil
}

// scanner matches both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanThought(row scanner) (*types.Thought, error) {
	var t types.Thought
	var lastReviewed sql.NullTime
	err := row.Scan(&t.ID, &t.Content, &t.Summary, &t.Timestamp, &t.IsBlocker,
		&t.AffectedProject, &t.PARABucket, &t.Salience, &t.ReviewCount,
		&lastReviewed, &t.EaseFactor)
	if err != nil {
		return nil, err
	}
	if lastReviewed.Valid {
		t.LastReviewed = &lastReviewed.Time
	}
	return &t, nil
}

// collectThoughts drains a thought row set and loads attachments for each.
func (g *Gateway) collectThoughts(ctx context.Context, rows *sql.Rows) ([]*types.Thought, error) {
	defer rows.Close()

	var thoughts []*types.Thought
	for rows.Next() {
		t, err := scanThought(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan thought: %w", err)
		}
		thoughts = append(thoughts, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, t := range thoughts {
		if err := g.loadAttachments(ctx, t); err != nil {
			return nil, err
		}
	}
	return thoughts, nil
}

// loadAttachments fills in entities, categories, actions, and nudges.
func (g *Gateway) loadAttachments(ctx context.Context, t *types.Thought) error {
	rows, err := g.db.QueryContext(ctx, `
		SELECT e.name, e.type, e.description
		FROM entities e
		JOIN thought_entities te ON te.entity_id = e.id
		WHERE te.thought_id = ?
		ORDER BY te.position`, t.ID)
	if err != nil {
		return fmt.Errorf("failed to load entities: %w", err)
	}
	for rows.Next() {
		var e types.Entity
		if err := rows.Scan(&e.Name, &e.Type, &e.Description); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan entity: %w", err)
		}
		t.Entities = append(t.Entities, e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = g.db.QueryContext(ctx, `
		SELECT name, confidence FROM thought_categories WHERE thought_id = ?`, t.ID)
	if err != nil {
		return fmt.Errorf("failed to load categories: %w", err)
	}
	for rows.Next() {
		var c types.Category
		if err := rows.Scan(&c.Name, &c.Confidence); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan category: %w", err)
		}
		t.Categories = append(t.Categories, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = g.db.QueryContext(ctx, `
		SELECT description, urgency, status, deadline FROM actions WHERE thought_id = ? ORDER BY id`, t.ID)
	if err != nil {
		return fmt.Errorf("failed to load actions: %w", err)
	}
	for rows.Next() {
		var a types.ActionItem
		if err := rows.Scan(&a.Description, &a.Urgency, &a.Status, &a.Deadline); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan action: %w", err)
		}
		t.Actions = append(t.Actions, a)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = g.db.QueryContext(ctx, `
		SELECT person_name, reason, suggestion FROM nudges WHERE thought_id = ? ORDER BY id`, t.ID)
	if err != nil {
		return fmt.Errorf("failed to load nudges: %w", err)
	}
	for rows.Next() {
		var n types.SocialNudge
		if err := rows.Scan(&n.PersonName, &n.Reason, &n.Suggestion); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan nudge: %w", err)
		}
		t.Nudges = append(t.Nudges, n)
	}
	rows.Close()
	return rows.Err()
}

// nullableTime converts a time pointer to sql.NullTime.
func nullableTime(t *time.Time) sql.NullTime {
	if t == nil || t.IsZero() {
		return sql.NullTime{Valid: false}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

// dbPathFromDSN extracts the filesystem path from a SQLite DSN. Handles bare
// paths and file: URIs; returns empty for in-memory databases.
func dbPathFromDSN(dsn string) string {
	if dsn == ":memory:" || dsn == "" {
		return ""
	}
	if strings.HasPrefix(dsn, "file:") {
		u, err := url.Parse(dsn)
		if err != nil {
			return ""
		}
		path := u.Path
		if path == "" {
			path = u.Opaque
		}
		if path == ":memory:" || path == "" {
			return ""
		}
		return path
	}
	return dsn
}

// isRecoverableWALError matches error patterns caused by stale WAL files
// left behind after a crash.
func isRecoverableWALError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "disk I/O error") ||
		strings.Contains(msg, "database is locked")
}

// removeStaleWAL deletes leftover -shm/-wal files for the given database.
func removeStaleWAL(dbPath string) {
	for _, suffix := range []string{"-shm", "-wal"} {
		if err := os.Remove(dbPath + suffix); err != nil && !os.IsNotExist(err) {
			log.Printf("storage: could not remove %s%s: %v", dbPath, suffix, err)
		}
	}
}

// Compile-time assertion that Gateway satisfies the storage contract.
var _ storage.Gateway = (*Gateway)(nil)
