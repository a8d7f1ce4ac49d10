// Package storage persists QC reports and scores in Postgres as flat rows.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	_ "github.com/lib/pq" // postgres driver

	"github.com/ppiankov/cfpqc/internal/model"
)

// ErrNotFound is returned when no stored report matches
var ErrNotFound = errors.New("report not found")

const (
	tableReports       = "qc_reports"
	tableRuleResults   = "qc_rule_results"
	tableSubjectScores = "subject_scores"
	tableContentScores = "content_scores"
)

// Store writes reports and scores through database/sql
type Store struct {
	db  *sql.DB
	sb  sq.StatementBuilderType
	now func() time.Time
}

// Open connects to Postgres and verifies the connection
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return New(db), nil
}

// New wraps an existing database handle
func New(db *sql.DB) *Store {
	return &Store{
		db:  db,
		sb:  sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
		now: time.Now,
	}
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveReport stores a report and one row per rule result in a single
// transaction. It returns the generated report id.
func (s *Store) SaveReport(ctx context.Context, draftID string, report model.QCReport) (string, error) {
	id := uuid.NewString()
	evaluatedAt := report.EvaluatedAt
	if evaluatedAt.IsZero() {
		evaluatedAt = s.now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query, args, err := s.sb.Insert(tableReports).
		Columns("id", "draft_id", "passed", "word_count", "failed_count", "need_review", "warnings", "evaluated_at").
		Values(id, draftID, report.Passed, report.WordCount, len(report.Failed()),
			strings.Join(report.NeedReview, ","), strings.Join(report.Warnings, "; "), evaluatedAt.UTC()).
		ToSql()
	if err != nil {
		return "", fmt.Errorf("build report insert: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return "", fmt.Errorf("insert report: %w", err)
	}

	if len(report.Results) > 0 {
		insert := s.sb.Insert(tableRuleResults).Columns("report_id", "position", "rule_id", "status", "detail")
		for i, res := range report.Results {
			insert = insert.Values(id, i, res.RuleID, string(res.Status), res.Detail)
		}
		query, args, err = insert.ToSql()
		if err != nil {
			return "", fmt.Errorf("build rule insert: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return "", fmt.Errorf("insert rule results: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit report: %w", err)
	}
	return id, nil
}

// SaveSubjectScore stores a subject breakdown and returns its id
func (s *Store) SaveSubjectScore(ctx context.Context, draftID string, score model.SubjectScore) (string, error) {
	return s.insertRecord(ctx, tableSubjectScores, draftID, score.Record())
}

// SaveContentScore stores a content breakdown and returns its id
func (s *Store) SaveContentScore(ctx context.Context, draftID string, score model.ContentScore) (string, error) {
	return s.insertRecord(ctx, tableContentScores, draftID, score.Record())
}

func (s *Store) insertRecord(ctx context.Context, table, draftID string, rec map[string]interface{}) (string, error) {
	id := uuid.NewString()
	rec["id"] = id
	rec["draft_id"] = draftID
	rec["created_at"] = s.now().UTC()

	query, args, err := s.sb.Insert(table).SetMap(rec).ToSql()
	if err != nil {
		return "", fmt.Errorf("build %s insert: %w", table, err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return "", fmt.Errorf("insert %s: %w", table, err)
	}
	return id, nil
}

// LatestReport loads the most recently evaluated report for a draft
func (s *Store) LatestReport(ctx context.Context, draftID string) (model.QCReport, error) {
	query, args, err := s.sb.Select("id", "passed", "word_count", "need_review", "warnings", "evaluated_at").
		From(tableReports).
		Where(sq.Eq{"draft_id": draftID}).
		OrderBy("evaluated_at DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return model.QCReport{}, fmt.Errorf("build report select: %w", err)
	}

	var (
		id, needReview, warnings string
		report                   = model.QCReport{DraftID: draftID}
	)
	err = s.db.QueryRowContext(ctx, query, args...).
		Scan(&id, &report.Passed, &report.WordCount, &needReview, &warnings, &report.EvaluatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.QCReport{}, ErrNotFound
	}
	if err != nil {
		return model.QCReport{}, fmt.Errorf("select report: %w", err)
	}
	report.NeedReview = splitNonEmpty(needReview, ",")
	report.Warnings = splitNonEmpty(warnings, "; ")

	results, err := s.ruleResults(ctx, id)
	if err != nil {
		return model.QCReport{}, err
	}
	report.Results = results
	return report, nil
}

func (s *Store) ruleResults(ctx context.Context, reportID string) ([]model.RuleResult, error) {
	query, args, err := s.sb.Select("rule_id", "status", "detail").
		From(tableRuleResults).
		Where(sq.Eq{"report_id": reportID}).
		OrderBy("position").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build rule select: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query rule results: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []model.RuleResult
	for rows.Next() {
		var (
			res    model.RuleResult
			status string
		)
		if err := rows.Scan(&res.RuleID, &status, &res.Detail); err != nil {
			return nil, fmt.Errorf("scan rule result: %w", err)
		}
		res.Status = model.RuleStatus(status)
		res.Passed = res.Status == model.StatusPass
		results = append(results, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return results, nil
}

func splitNonEmpty(s, sep string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, sep)
}
