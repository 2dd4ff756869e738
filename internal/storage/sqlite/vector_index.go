package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"github.com/scrypster/reverie/internal/storage"
)

// VectorIndex implements storage.VectorIndex on the embeddings table.
// Vectors are stored as JSON arrays and compared with a brute-force cosine
// scan. That is fine at personal-knowledge scale; the postgres backend is
// the answer when it stops being fine.
type VectorIndex struct {
	db       *sql.DB
	embedder storage.Embedder
}

// NewVectorIndex builds a vector index sharing the gateway's connection.
func NewVectorIndex(gw *Gateway, embedder storage.Embedder) *VectorIndex {
	return &VectorIndex{db: gw.DB(), embedder: embedder}
}

// Index embeds the text and stores the vector under the given ID.
func (v *VectorIndex) Index(ctx context.Context, id, text string, metadata map[string]string) error {
	if id == "" || text == "" {
		return fmt.Errorf("%w: id and text are required", storage.ErrInvalidInput)
	}

	vector, err := v.embedder.Embed(ctx, text)
	if err != nil {
		return fmt.Errorf("failed to embed text: %w", err)
	}
	vectorJSON, err := json.Marshal(vector)
	if err != nil {
		return fmt.Errorf("failed to marshal vector: %w", err)
	}
	if metadata == nil {
		metadata = map[string]string{}
	}
	metaJSON, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	_, err = v.db.ExecContext(ctx, `
		INSERT INTO embeddings (id, text, vector, metadata)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			text = excluded.text,
			vector = excluded.vector,
			metadata = excluded.metadata`,
		id, text, string(vectorJSON), string(metaJSON))
	if err != nil {
		return fmt.Errorf("failed to store embedding: %w", err)
	}
	return nil
}

// QuerySimilar embeds the query and returns the nearest entries by cosine
// distance.
func (v *VectorIndex) QuerySimilar(ctx context.Context, text string, limit int) ([]storage.SimilarResult, error) {
	limits := storage.QueryLimits{Limit: limit}
	limits.Normalize()

	queryVec, err := v.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	rows, err := v.db.QueryContext(ctx, `SELECT id, text, vector FROM embeddings`)
	if err != nil {
		return nil, fmt.Errorf("failed to scan embeddings: %w", err)
	}
	defer rows.Close()

	var results []storage.SimilarResult
	for rows.Next() {
		var id, entryText, vectorJSON string
		if err := rows.Scan(&id, &entryText, &vectorJSON); err != nil {
			return nil, fmt.Errorf("failed to scan embedding row: %w", err)
		}
		var vector []float32
		if err := json.Unmarshal([]byte(vectorJSON), &vector); err != nil {
			return nil, fmt.Errorf("failed to unmarshal vector for %s: %w", id, err)
		}
		results = append(results, storage.SimilarResult{
			ID:       id,
			Text:     entryText,
			Distance: cosineDistance(queryVec, vector),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Distance < results[j].Distance
	})
	if len(results) > limits.Limit {
		results = results[:limits.Limit]
	}
	return results, nil
}

// cosineDistance returns 1 - cosine similarity. Mismatched or zero-length
// vectors count as maximally distant.
func cosineDistance(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 2
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 2
	}
	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}

// Compile-time assertion that VectorIndex satisfies the storage contract.
var _ storage.VectorIndex = (*VectorIndex)(nil)
