package analytics

import (
	"context"
	"fmt"

	"github.com/pgvector/pgvector-go"
)

// SimilarResponse is one hit from the semantic index. Distance is cosine
// distance: smaller is more similar.
type SimilarResponse struct {
	SessionID  string  `json:"session_id"`
	QuestionID string  `json:"question_id"`
	Transcript string  `json:"transcript"`
	Distance   float64 `json:"distance"`
}

// IndexResponse embeds a response transcript and stores it in the semantic
// index. No-op when the store has no embedder; empty transcripts are
// skipped.
func (s *Store) IndexResponse(ctx context.Context, sessionID, questionID, transcript string) error {
	if s.embedder == nil || transcript == "" {
		return nil
	}

	vec, err := s.embedder.Embed(ctx, transcript)
	if err != nil {
		return fmt.Errorf("analytics: embed response: %w", err)
	}

	const q = `
INSERT INTO response_embeddings (session_id, question_id, transcript, embedding)
VALUES ($1, $2, $3, $4)`
	if _, err := s.pool.Exec(ctx, q, sessionID, questionID, transcript, pgvector.NewVector(vec)); err != nil {
		return fmt.Errorf("analytics: index response: %w", err)
	}
	return nil
}

// SimilarResponses finds past responses semantically close to text. Returns
// at most limit hits, nearest first.
func (s *Store) SimilarResponses(ctx context.Context, text string, limit int) ([]SimilarResponse, error) {
	if s.embedder == nil {
		return nil, fmt.Errorf("analytics: semantic index not configured")
	}
	if limit <= 0 {
		limit = 5
	}

	vec, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("analytics: embed query: %w", err)
	}

	const q = `
SELECT session_id, question_id, transcript, embedding <=> $1 AS distance
FROM response_embeddings
ORDER BY embedding <=> $1
LIMIT $2`

	rows, err := s.pool.Query(ctx, q, pgvector.NewVector(vec), limit)
	if err != nil {
		return nil, fmt.Errorf("analytics: similarity query: %w", err)
	}
	defer rows.Close()

	var out []SimilarResponse
	for rows.Next() {
		var r SimilarResponse
		if err := rows.Scan(&r.SessionID, &r.QuestionID, &r.Transcript, &r.Distance); err != nil {
			return nil, fmt.Errorf("analytics: scan similarity row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
