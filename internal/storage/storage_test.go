package storage

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/cfpqc/internal/model"
)

var fixedNow = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

func setupStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	store := New(db)
	store.now = func() time.Time { return fixedNow }
	return store, mock
}

func sampleReport() model.QCReport {
	var r model.QCReport
	r.Add(model.Pass("word_count"))
	r.Add(model.Fail("no_indexing", "found forbidden term: scopus"))
	r.Add(model.NeedReview("hook_quality", "needs a reviewer"))
	r.WordCount = 340
	r.Warnings = []string{"body HTML is malformed"}
	r.EvaluatedAt = fixedNow
	return r
}

func TestSaveReport(t *testing.T) {
	store, mock := setupStore(t)
	report := sampleReport()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO qc_reports (id,draft_id,passed,word_count,failed_count,need_review,warnings,evaluated_at) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)")).
		WithArgs(sqlmock.AnyArg(), "draft-1", false, 340, 1, "hook_quality", "body HTML is malformed", fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO qc_rule_results (report_id,position,rule_id,status,detail)")).
		WithArgs(
			sqlmock.AnyArg(), 0, "word_count", "pass", "",
			sqlmock.AnyArg(), 1, "no_indexing", "fail", "found forbidden term: scopus",
			sqlmock.AnyArg(), 2, "hook_quality", "need_review", "needs a reviewer",
		).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	id, err := store.SaveReport(context.Background(), "draft-1", report)
	require.NoError(t, err)
	assert.Len(t, id, 36)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveReport_RollsBackOnRuleFailure(t *testing.T) {
	store, mock := setupStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO qc_reports").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO qc_rule_results").WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	_, err := store.SaveReport(context.Background(), "draft-1", sampleReport())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert rule results")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveReport_DefaultsEvaluatedAt(t *testing.T) {
	store, mock := setupStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO qc_reports").
		WithArgs(sqlmock.AnyArg(), "d", true, 0, 0, "", "", fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	_, err := store.SaveReport(context.Background(), "d", model.QCReport{Passed: true})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveContentScore(t *testing.T) {
	store, mock := setupStore(t)
	score := model.ContentScore{
		IntroWordCount:      42,
		BulletsPosition:     model.BulletsCase1,
		CTACount:            1,
		ExternalDomainCount: 0,
		RawScore:            55,
		OverallScore:        100,
	}

	// SetMap orders columns alphabetically
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO content_scores (bullets_position,created_at,cta_count,draft_id,external_domain_count,id,intro_word_count,overall_score,raw_score) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)")).
		WithArgs("case_1", fixedNow, 1, "draft-1", 0, sqlmock.AnyArg(), 42, 100.0, 55.0).
		WillReturnResult(sqlmock.NewResult(0, 1))

	id, err := store.SaveContentScore(context.Background(), "draft-1", score)
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveSubjectScore(t *testing.T) {
	store, mock := setupStore(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO subject_scores (caps_percentage,caps_score,created_at,draft_id,id,keyword_bonus,length,length_score,overall_score,punctuation_score,spam_hits,spam_score,subject)")).
		WithArgs(0.0, 0.0, fixedNow, "draft-1", sqlmock.AnyArg(), 8.0, 40, 30.0, 100.0, 0.0, "free", -5.0, "Call for papers").
		WillReturnResult(sqlmock.NewResult(0, 1))

	_, err := store.SaveSubjectScore(context.Background(), "draft-1", model.SubjectScore{
		Subject:      "Call for papers",
		Length:       40,
		SpamHits:     []string{"free"},
		LengthScore:  30,
		SpamScore:    -5,
		KeywordBonus: 8,
		OverallScore: 100,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveContentScore_Error(t *testing.T) {
	store, mock := setupStore(t)
	mock.ExpectExec("INSERT INTO content_scores").WillReturnError(errors.New("connection lost"))

	_, err := store.SaveContentScore(context.Background(), "draft-1", model.ContentScore{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection lost")
}

func TestLatestReport(t *testing.T) {
	store, mock := setupStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, passed, word_count, need_review, warnings, evaluated_at FROM qc_reports WHERE draft_id = $1 ORDER BY evaluated_at DESC LIMIT 1")).
		WithArgs("draft-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "passed", "word_count", "need_review", "warnings", "evaluated_at"}).
			AddRow("r-1", false, 340, "hook_quality", "", fixedNow))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT rule_id, status, detail FROM qc_rule_results WHERE report_id = $1 ORDER BY position")).
		WithArgs("r-1").
		WillReturnRows(sqlmock.NewRows([]string{"rule_id", "status", "detail"}).
			AddRow("word_count", "pass", "").
			AddRow("no_indexing", "fail", "found forbidden term: scopus").
			AddRow("hook_quality", "need_review", "needs a reviewer"))

	report, err := store.LatestReport(context.Background(), "draft-1")
	require.NoError(t, err)

	assert.Equal(t, "draft-1", report.DraftID)
	assert.False(t, report.Passed)
	assert.Equal(t, 340, report.WordCount)
	assert.Equal(t, []string{"hook_quality"}, report.NeedReview)
	assert.Nil(t, report.Warnings)
	assert.Equal(t, fixedNow, report.EvaluatedAt)
	require.Len(t, report.Results, 3)
	assert.True(t, report.Results[0].Passed)
	assert.Equal(t, model.StatusFail, report.Results[1].Status)
	assert.Equal(t, "found forbidden term: scopus", report.Results[1].Detail)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLatestReport_NotFound(t *testing.T) {
	store, mock := setupStore(t)
	mock.ExpectQuery("SELECT (.+) FROM qc_reports").WillReturnError(sql.ErrNoRows)

	_, err := store.LatestReport(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMigrate(t *testing.T) {
	store, mock := setupStore(t)
	for range schema {
		mock.ExpectExec("CREATE").WillReturnResult(sqlmock.NewResult(0, 0))
	}

	require.NoError(t, store.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrate_Error(t *testing.T) {
	store, mock := setupStore(t)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS qc_reports").WillReturnError(errors.New("permission denied"))

	err := store.Migrate(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "migrate step 1")
}
