package analyses

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// PGRepo implements Repo using the ai_analyses table.
type PGRepo struct {
	DB *sql.DB
}

// Save upserts the record and resets its chat history.
func (r *PGRepo) Save(ctx context.Context, result Result) error {
	const query = `
INSERT INTO ai_analyses (
	applicant_id, cohort_id, status, error, analysis, thread_id, deck_included, generated_at, chat_history
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (applicant_id) DO UPDATE SET
	cohort_id = EXCLUDED.cohort_id,
	status = EXCLUDED.status,
	error = EXCLUDED.error,
	analysis = EXCLUDED.analysis,
	thread_id = EXCLUDED.thread_id,
	deck_included = EXCLUDED.deck_included,
	generated_at = EXCLUDED.generated_at,
	chat_history = EXCLUDED.chat_history`

	analysisPayload, err := marshalJSONB(result.Analysis)
	if err != nil {
		return err
	}
	history := result.ChatHistory
	if history == nil {
		history = []ChatTurn{}
	}
	historyPayload, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("marshal chat history: %w", err)
	}

	_, err = r.DB.ExecContext(ctx, query,
		result.ApplicantID,
		result.CohortID,
		result.Status,
		nullString(result.Error),
		analysisPayload,
		nullString(result.ThreadID),
		result.DeckIncluded,
		result.GeneratedAt,
		string(historyPayload),
	)
	return err
}

// Get returns the record for applicantID.
func (r *PGRepo) Get(ctx context.Context, applicantID string) (Result, error) {
	const query = `
SELECT applicant_id, cohort_id, status, error, analysis, thread_id, deck_included, generated_at, chat_history
FROM ai_analyses
WHERE applicant_id = $1`

	var (
		res          Result
		errorMessage sql.NullString
		analysisRaw  sql.NullString
		threadID     sql.NullString
		historyRaw   sql.NullString
	)
	err := r.DB.QueryRowContext(ctx, query, applicantID).Scan(
		&res.ApplicantID,
		&res.CohortID,
		&res.Status,
		&errorMessage,
		&analysisRaw,
		&threadID,
		&res.DeckIncluded,
		&res.GeneratedAt,
		&historyRaw,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Result{}, ErrNotFound
	}
	if err != nil {
		return Result{}, err
	}

	res.Error = errorMessage.String
	res.ThreadID = threadID.String
	if analysisRaw.Valid && analysisRaw.String != "" && analysisRaw.String != "null" {
		var a Analysis
		if err := json.Unmarshal([]byte(analysisRaw.String), &a); err != nil {
			return Result{}, fmt.Errorf("decode analysis for %s: %w", applicantID, err)
		}
		res.Analysis = &a
	}
	res.ChatHistory = []ChatTurn{}
	if historyRaw.Valid && historyRaw.String != "" {
		if err := json.Unmarshal([]byte(historyRaw.String), &res.ChatHistory); err != nil {
			return Result{}, fmt.Errorf("decode chat history for %s: %w", applicantID, err)
		}
	}
	return res, nil
}

// AppendChat appends a turn with a single jsonb concatenation so concurrent turns are not lost.
func (r *PGRepo) AppendChat(ctx context.Context, applicantID string, turn ChatTurn) error {
	const query = `
UPDATE ai_analyses
SET chat_history = chat_history || jsonb_build_array($2::jsonb)
WHERE applicant_id = $1`

	payload, err := json.Marshal(turn)
	if err != nil {
		return fmt.Errorf("marshal chat turn: %w", err)
	}
	res, err := r.DB.ExecContext(ctx, query, applicantID, string(payload))
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func marshalJSONB(v *Analysis) (any, error) {
	if v == nil {
		return nil, nil
	}
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal analysis: %w", err)
	}
	return string(payload), nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

var _ Repo = (*PGRepo)(nil)
