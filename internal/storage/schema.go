package storage

import (
	"context"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS qc_reports (
		id           UUID PRIMARY KEY,
		draft_id     TEXT NOT NULL,
		passed       BOOLEAN NOT NULL,
		word_count   INTEGER NOT NULL,
		failed_count INTEGER NOT NULL,
		need_review  TEXT NOT NULL DEFAULT '',
		warnings     TEXT NOT NULL DEFAULT '',
		evaluated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS qc_reports_draft_idx ON qc_reports (draft_id, evaluated_at DESC)`,
	`CREATE TABLE IF NOT EXISTS qc_rule_results (
		report_id UUID NOT NULL REFERENCES qc_reports (id) ON DELETE CASCADE,
		position  INTEGER NOT NULL,
		rule_id   TEXT NOT NULL,
		status    TEXT NOT NULL,
		detail    TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (report_id, position)
	)`,
	`CREATE TABLE IF NOT EXISTS subject_scores (
		id                UUID PRIMARY KEY,
		draft_id          TEXT NOT NULL,
		subject           TEXT NOT NULL,
		length            INTEGER NOT NULL,
		caps_percentage   DOUBLE PRECISION NOT NULL,
		spam_hits         TEXT NOT NULL DEFAULT '',
		length_score      DOUBLE PRECISION NOT NULL,
		caps_score        DOUBLE PRECISION NOT NULL,
		spam_score        DOUBLE PRECISION NOT NULL,
		punctuation_score DOUBLE PRECISION NOT NULL,
		keyword_bonus     DOUBLE PRECISION NOT NULL,
		overall_score     DOUBLE PRECISION NOT NULL,
		created_at        TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS content_scores (
		id                    UUID PRIMARY KEY,
		draft_id              TEXT NOT NULL,
		intro_word_count      INTEGER NOT NULL,
		bullets_position      TEXT NOT NULL,
		cta_count             INTEGER NOT NULL,
		external_domain_count INTEGER NOT NULL,
		raw_score             DOUBLE PRECISION NOT NULL,
		overall_score         DOUBLE PRECISION NOT NULL,
		created_at            TIMESTAMPTZ NOT NULL
	)`,
}

// Migrate creates the tables if they do not exist
func (s *Store) Migrate(ctx context.Context) error {
	for i, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate step %d: %w", i+1, err)
		}
	}
	return nil
}
