// Package analytics persists interview reports to Postgres and answers
// cross-session questions: report history, per-metric improvement trends,
// and semantic lookups over past response transcripts (pgvector).
//
// The store is optional. With no DSN configured the process runs without
// it; the orchestrator and report writer are unaffected.
package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgxvec "github.com/pgvector/pgvector-go/pgx"

	"github.com/MdSameerBaba/orbmech-interview/internal/report"
	"github.com/MdSameerBaba/orbmech-interview/pkg/provider/embeddings"
)

// Store is a Postgres-backed report archive with a pgvector semantic index.
type Store struct {
	pool     *pgxpool.Pool
	embedder embeddings.Provider
	dims     int
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithEmbedder enables the semantic index. dims must match the provider's
// output dimensionality.
func WithEmbedder(p embeddings.Provider, dims int) StoreOption {
	return func(s *Store) {
		s.embedder = p
		s.dims = dims
	}
}

// Open connects to Postgres and applies the schema. An empty DSN is an
// error; callers should skip the store entirely when analytics is not
// configured.
func Open(ctx context.Context, dsn string, opts ...StoreOption) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("analytics: empty dsn")
	}

	s := &Store{}
	for _, o := range opts {
		o(s)
	}

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("analytics: parse dsn: %w", err)
	}
	if s.embedder != nil {
		cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
			return pgxvec.RegisterTypes(ctx, conn)
		}
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("analytics: connect: %w", err)
	}
	s.pool = pool

	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// Ping checks connectivity, for readiness probes.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) migrate(ctx context.Context) error {
	const reports = `
CREATE TABLE IF NOT EXISTS interview_reports (
	id              bigserial PRIMARY KEY,
	session_id      text NOT NULL UNIQUE,
	user_id         text NOT NULL,
	company         text NOT NULL DEFAULT '',
	role            text NOT NULL DEFAULT '',
	interview_type  text NOT NULL DEFAULT '',
	difficulty      text NOT NULL DEFAULT '',
	started_at      timestamptz NOT NULL,
	ended_at        timestamptz NOT NULL,
	overall         double precision NOT NULL,
	communication   double precision NOT NULL,
	confidence      double precision NOT NULL,
	professionalism double precision NOT NULL,
	technical       double precision NOT NULL,
	report          jsonb NOT NULL,
	created_at      timestamptz NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS interview_reports_user_idx
	ON interview_reports (user_id, ended_at);`

	if _, err := s.pool.Exec(ctx, reports); err != nil {
		return fmt.Errorf("analytics: migrate reports: %w", err)
	}

	if s.embedder == nil {
		return nil
	}
	embeddingsDDL := fmt.Sprintf(`
CREATE EXTENSION IF NOT EXISTS vector;
CREATE TABLE IF NOT EXISTS response_embeddings (
	id          bigserial PRIMARY KEY,
	session_id  text NOT NULL,
	question_id text NOT NULL,
	transcript  text NOT NULL,
	embedding   vector(%d) NOT NULL,
	created_at  timestamptz NOT NULL DEFAULT now()
);`, s.dims)
	if _, err := s.pool.Exec(ctx, embeddingsDDL); err != nil {
		return fmt.Errorf("analytics: migrate embeddings: %w", err)
	}
	return nil
}

// SaveReport archives one finished report. Re-saving the same session
// overwrites the earlier row.
func (s *Store) SaveReport(ctx context.Context, r report.Report) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("analytics: marshal report %s: %w", r.Metadata.SessionID, err)
	}

	const q = `
INSERT INTO interview_reports
	(session_id, user_id, company, role, interview_type, difficulty,
	 started_at, ended_at, overall, communication, confidence,
	 professionalism, technical, report)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
ON CONFLICT (session_id) DO UPDATE SET
	ended_at = EXCLUDED.ended_at,
	overall = EXCLUDED.overall,
	communication = EXCLUDED.communication,
	confidence = EXCLUDED.confidence,
	professionalism = EXCLUDED.professionalism,
	technical = EXCLUDED.technical,
	report = EXCLUDED.report`

	m := r.Metadata
	_, err = s.pool.Exec(ctx, q,
		m.SessionID, m.UserID, m.Company, m.Role, m.Type, m.Difficulty,
		m.StartedAt, m.EndedAt,
		r.Scores.Overall, r.Scores.Communication, r.Scores.Confidence,
		r.Scores.Professionalism, r.Scores.Technical, payload)
	if err != nil {
		return fmt.Errorf("analytics: save report %s: %w", m.SessionID, err)
	}
	slog.Debug("report archived", "session", m.SessionID, "user", m.UserID)
	return nil
}

// ListReports returns a user's reports, oldest first.
func (s *Store) ListReports(ctx context.Context, userID string) ([]report.Report, error) {
	const q = `
SELECT report FROM interview_reports
WHERE user_id = $1
ORDER BY ended_at`

	rows, err := s.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("analytics: list reports for %q: %w", userID, err)
	}
	defer rows.Close()

	var out []report.Report
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("analytics: scan report: %w", err)
		}
		var r report.Report
		if err := json.Unmarshal(payload, &r); err != nil {
			return nil, fmt.Errorf("analytics: decode report: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Trend summarises a user's improvement between their first and most recent
// session.
type Trend struct {
	Sessions int `json:"sessions"`

	// Deltas are most-recent minus first; positive means improvement.
	Overall         float64 `json:"overall_delta"`
	Communication   float64 `json:"communication_delta"`
	Confidence      float64 `json:"confidence_delta"`
	Professionalism float64 `json:"professionalism_delta"`
	Technical       float64 `json:"technical_delta"`

	FirstSession time.Time `json:"first_session"`
	LastSession  time.Time `json:"last_session"`
}

// Trend computes per-metric deltas across a user's sessions. Fewer than two
// sessions yields zero deltas.
func (s *Store) Trend(ctx context.Context, userID string) (Trend, error) {
	const q = `
SELECT ended_at, overall, communication, confidence, professionalism, technical
FROM interview_reports
WHERE user_id = $1
ORDER BY ended_at`

	rows, err := s.pool.Query(ctx, q, userID)
	if err != nil {
		return Trend{}, fmt.Errorf("analytics: trend for %q: %w", userID, err)
	}
	defer rows.Close()

	type point struct {
		endedAt                         time.Time
		overall, comm, conf, prof, tech float64
	}
	var first, last point
	t := Trend{}
	for rows.Next() {
		var p point
		if err := rows.Scan(&p.endedAt, &p.overall, &p.comm, &p.conf, &p.prof, &p.tech); err != nil {
			return Trend{}, fmt.Errorf("analytics: scan trend row: %w", err)
		}
		if t.Sessions == 0 {
			first = p
		}
		last = p
		t.Sessions++
	}
	if err := rows.Err(); err != nil {
		return Trend{}, err
	}
	if t.Sessions == 0 {
		return t, nil
	}

	t.FirstSession = first.endedAt
	t.LastSession = last.endedAt
	if t.Sessions > 1 {
		t.Overall = last.overall - first.overall
		t.Communication = last.comm - first.comm
		t.Confidence = last.conf - first.conf
		t.Professionalism = last.prof - first.prof
		t.Technical = last.tech - first.tech
	}
	return t, nil
}
