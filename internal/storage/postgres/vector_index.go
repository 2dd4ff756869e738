package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	pgvector "github.com/pgvector/pgvector-go"

	"github.com/scrypster/reverie/internal/storage"
)

// VectorIndex implements storage.VectorIndex on the embeddings table using
// pgvector cosine distance. When the extension is unavailable the index
// stores text rows without vectors and QuerySimilar degrades to recency
// ordering with a sentinel distance.
type VectorIndex struct {
	db                *sql.DB
	embedder          storage.Embedder
	pgvectorAvailable bool
}

// NewVectorIndex builds a vector index sharing the gateway's pool.
func NewVectorIndex(gw *Gateway, embedder storage.Embedder) *VectorIndex {
	return &VectorIndex{
		db:                gw.DB(),
		embedder:          embedder,
		pgvectorAvailable: gw.PgvectorAvailable(),
	}
}

// Index embeds the text and stores the vector under the given ID.
func (v *VectorIndex) Index(ctx context.Context, id, text string, metadata map[string]string) error {
	if id == "" || text == "" {
		return fmt.Errorf("%w: id and text are required", storage.ErrInvalidInput)
	}
	if metadata == nil {
		metadata = map[string]string{}
	}
	metaJSON, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	if !v.pgvectorAvailable {
		_, err := v.db.ExecContext(ctx, `
			INSERT INTO embeddings (id, text, metadata)
			VALUES ($1, $2, $3)
			ON CONFLICT (id) DO UPDATE SET
				text = EXCLUDED.text,
				metadata = EXCLUDED.metadata`,
			id, text, string(metaJSON))
		if err != nil {
			return fmt.Errorf("failed to store embedding row: %w", err)
		}
		return nil
	}

	vector, err := v.embedder.Embed(ctx, text)
	if err != nil {
		return fmt.Errorf("failed to embed text: %w", err)
	}

	_, err = v.db.ExecContext(ctx, `
		INSERT INTO embeddings (id, text, metadata, embedding)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			text = EXCLUDED.text,
			metadata = EXCLUDED.metadata,
			embedding = EXCLUDED.embedding`,
		id, text, string(metaJSON), pgvector.NewVector(vector))
	if err != nil {
		return fmt.Errorf("failed to store embedding: %w", err)
	}
	return nil
}

// QuerySimilar embeds the query and returns the nearest entries by cosine
// distance, nearest first.
func (v *VectorIndex) QuerySimilar(ctx context.Context, text string, limit int) ([]storage.SimilarResult, error) {
	limits := storage.QueryLimits{Limit: limit}
	limits.Normalize()

	if !v.pgvectorAvailable {
		rows, err := v.db.QueryContext(ctx, `
			SELECT id, text FROM embeddings ORDER BY id DESC LIMIT $1`, limits.Limit)
		if err != nil {
			return nil, fmt.Errorf("failed to load recent embeddings: %w", err)
		}
		defer rows.Close()

		var results []storage.SimilarResult
		for rows.Next() {
			var r storage.SimilarResult
			if err := rows.Scan(&r.ID, &r.Text); err != nil {
				return nil, fmt.Errorf("failed to scan embedding row: %w", err)
			}
			r.Distance = 1
			results = append(results, r)
		}
		return results, rows.Err()
	}

	queryVec, err := v.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	rows, err := v.db.QueryContext(ctx, `
		SELECT id, text, embedding <=> $1 AS distance
		FROM embeddings
		WHERE embedding IS NOT NULL
		ORDER BY distance ASC
		LIMIT $2`, pgvector.NewVector(queryVec), limits.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query similar embeddings: %w", err)
	}
	defer rows.Close()

	var results []storage.SimilarResult
	for rows.Next() {
		var r storage.SimilarResult
		if err := rows.Scan(&r.ID, &r.Text, &r.Distance); err != nil {
			return nil, fmt.Errorf("failed to scan similarity row: %w", err)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// Compile-time assertion that VectorIndex satisfies the storage contract.
var _ storage.VectorIndex = (*VectorIndex)(nil)
