package analyses

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func newMockRepo(t *testing.T) (*PGRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return &PGRepo{DB: db}, mock
}

func TestPGRepoSaveCompleted(t *testing.T) {
	repo, mock := newMockRepo(t)
	generatedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	result := Result{
		ApplicantID:  "a1",
		CohortID:     "c1",
		Status:       StatusCompleted,
		Analysis:     &Analysis{MarketSizing: MarketSizing{Category: "Fintech"}},
		ThreadID:     "thread_1",
		DeckIncluded: true,
		GeneratedAt:  generatedAt,
	}

	mock.ExpectExec("INSERT INTO ai_analyses").
		WithArgs(
			"a1",
			"c1",
			StatusCompleted,
			nil,
			sqlmock.AnyArg(), // analysis
			"thread_1",
			true,
			generatedAt,
			"[]",
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Save(context.Background(), result); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoSaveFailedHasNoAnalysis(t *testing.T) {
	repo, mock := newMockRepo(t)
	generatedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectExec("INSERT INTO ai_analyses").
		WithArgs(
			"a1",
			"",
			StatusFailed,
			"timed out",
			nil,
			nil,
			false,
			generatedAt,
			"[]",
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Save(context.Background(), Result{ApplicantID: "a1", Status: StatusFailed, Error: "timed out", GeneratedAt: generatedAt})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGet(t *testing.T) {
	repo, mock := newMockRepo(t)
	generatedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{
		"applicant_id", "cohort_id", "status", "error", "analysis", "thread_id", "deck_included", "generated_at", "chat_history",
	}).AddRow(
		"a1", "c1", StatusCompleted, nil,
		`{"marketSizing":{"category":"Fintech","tam":{"qualitative":"","bottomUp":"","topDown":""}}}`,
		"thread_1", false, generatedAt,
		`[{"role":"user","content":"hi","timestamp":"2026-03-01T12:01:00Z"}]`,
	)
	mock.ExpectQuery("SELECT applicant_id").WithArgs("a1").WillReturnRows(rows)

	got, err := repo.Get(context.Background(), "a1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Analysis == nil || got.Analysis.MarketSizing.Category != "Fintech" {
		t.Fatalf("unexpected analysis: %+v", got.Analysis)
	}
	if got.ThreadID != "thread_1" || len(got.ChatHistory) != 1 || got.ChatHistory[0].Content != "hi" {
		t.Fatalf("unexpected record: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGetNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery("SELECT applicant_id").WithArgs("missing").WillReturnError(sql.ErrNoRows)

	if _, err := repo.Get(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGRepoAppendChatUsesAtomicConcat(t *testing.T) {
	repo, mock := newMockRepo(t)
	turn := ChatTurn{Role: "user", Content: "hi", Timestamp: time.Date(2026, 3, 1, 12, 1, 0, 0, time.UTC)}

	mock.ExpectExec(`UPDATE ai_analyses\s+SET chat_history = chat_history \|\| jsonb_build_array`).
		WithArgs("a1", `{"role":"user","content":"hi","timestamp":"2026-03-01T12:01:00Z"}`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.AppendChat(context.Background(), "a1", turn); err != nil {
		t.Fatalf("AppendChat: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoAppendChatMissingRecord(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectExec("UPDATE ai_analyses").WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.AppendChat(context.Background(), "missing", ChatTurn{Role: "user"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
