package analyses

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"vetted-backend/internal/llm"
	"vetted-backend/internal/shared/metrics"
	"vetted-backend/internal/shared/storage/object"
	"vetted-backend/internal/shared/telemetry"
)

// DeckReader extracts text from a pitch deck URL.
type DeckReader interface {
	TextFromURL(ctx context.Context, url string) (string, error)
}

// Service runs the analysis pipeline for one applicant at a time.
type Service struct {
	Assistant llm.Assistant
	Driver    *llm.Driver
	Repo      Repo
	Poll      llm.PollPolicy
	// Archive receives the raw assistant reply; nil disables archiving.
	Archive object.ObjectStore
	// Deck supplies the optional prompt excerpt; nil skips extraction.
	Deck DeckReader
	Now  func() time.Time
}

// Analyze runs persona resolution, optional deck upload, thread creation, the prompt
// message, the run and its parse, then persists a completed record. Any failure aborts
// the remaining steps and triggers one best-effort failure-record write.
func (s *Service) Analyze(ctx context.Context, req Request) (string, error) {
	req.ApplicantID = strings.TrimSpace(req.ApplicantID)
	if req.ApplicantID == "" {
		return "", ErrApplicantRequired
	}

	start := s.now()
	metrics.IncAnalysisStarted()
	s.logStatus(ctx, req, "started", nil)

	threadID, err := s.run(ctx, req)
	metrics.ObserveAnalysisDuration(s.now().Sub(start))
	if err != nil {
		metrics.IncAnalysisFailed()
		s.logStatus(ctx, req, StatusFailed, map[string]any{"error": err.Error()})
		if recErr := s.recordFailure(ctx, req, err); recErr != nil {
			telemetry.Error("analysis.failure_record.error", map[string]any{
				"applicant_id": req.ApplicantID,
				"request_id":   RequestIDFromContext(ctx),
				"error":        recErr.Error(),
			})
		}
		return "", err
	}
	metrics.IncAnalysisCompleted()
	s.logStatus(ctx, req, StatusCompleted, map[string]any{"thread_id": threadID})
	return threadID, nil
}

func (s *Service) run(ctx context.Context, req Request) (string, error) {
	personaID, err := s.Assistant.ResolvePersona(ctx)
	if err != nil {
		return "", err
	}

	var fileID, excerpt string
	deckURL := strings.TrimSpace(req.DeckURL)
	if deckURL != "" {
		fileID, err = s.Assistant.UploadDocument(ctx, deckURL)
		if err != nil {
			return "", err
		}
		excerpt = s.deckExcerpt(ctx, req.ApplicantID, deckURL)
	}

	threadID, err := s.Assistant.CreateThread(ctx)
	if err != nil {
		return "", err
	}

	prompt, err := llm.BuildAnalysisPrompt(llm.AnalysisPromptInput{
		Phase1:       req.Phase1Data,
		Phase3:       req.Phase3Data,
		DeckIncluded: fileID != "",
		DeckExcerpt:  excerpt,
	})
	if err != nil {
		return "", err
	}
	if err := s.Assistant.AppendMessage(ctx, threadID, prompt, fileID); err != nil {
		return "", err
	}

	run, err := s.Assistant.StartRun(ctx, threadID, personaID)
	if err != nil {
		return "", err
	}
	reply, err := s.Driver.AwaitCompletion(ctx, threadID, run.ID, s.Poll)
	if err != nil {
		return "", err
	}
	s.archiveReply(ctx, req.ApplicantID, threadID, reply)

	var analysis Analysis
	if err := ParseReply(reply, &analysis); err != nil {
		return "", err
	}

	result := Result{
		ApplicantID:  req.ApplicantID,
		CohortID:     req.CohortID,
		Status:       StatusCompleted,
		Analysis:     &analysis,
		ThreadID:     threadID,
		DeckIncluded: fileID != "",
		GeneratedAt:  s.now(),
		ChatHistory:  []ChatTurn{},
	}
	if err := s.Repo.Save(ctx, result); err != nil {
		return "", fmt.Errorf("save analysis: %w", err)
	}
	return threadID, nil
}

// recordFailure writes the failed record. Its error is for logging only and must never
// replace the pipeline error returned to the caller.
func (s *Service) recordFailure(ctx context.Context, req Request, cause error) error {
	if s.Repo == nil {
		return errors.New("no repository configured")
	}
	return s.Repo.Save(context.WithoutCancel(ctx), Result{
		ApplicantID:  req.ApplicantID,
		CohortID:     req.CohortID,
		Status:       StatusFailed,
		Error:        cause.Error(),
		DeckIncluded: false,
		GeneratedAt:  s.now(),
		ChatHistory:  []ChatTurn{},
	})
}

func (s *Service) deckExcerpt(ctx context.Context, applicantID, deckURL string) string {
	if s.Deck == nil {
		return ""
	}
	text, err := s.Deck.TextFromURL(ctx, deckURL)
	if err != nil {
		telemetry.Warn("analysis.deck_excerpt.error", map[string]any{
			"applicant_id": applicantID,
			"error":        err.Error(),
		})
		return ""
	}
	return text
}

func (s *Service) archiveReply(ctx context.Context, applicantID, threadID, reply string) {
	if s.Archive == nil {
		return
	}
	key := ArchiveKey(applicantID, threadID)
	if _, err := s.Archive.Put(ctx, key, "text/plain; charset=utf-8", strings.NewReader(reply)); err != nil {
		telemetry.Warn("analysis.archive.error", map[string]any{
			"applicant_id": applicantID,
			"key":          key,
			"error":        err.Error(),
		})
	}
}

// ArchiveKey is the object key of a run's raw reply.
func ArchiveKey(applicantID, threadID string) string {
	return "analyses/" + url.PathEscape(applicantID) + "/" + url.PathEscape(threadID) + ".txt"
}

func (s *Service) logStatus(ctx context.Context, req Request, status string, extra map[string]any) {
	fields := map[string]any{
		"applicant_id":  req.ApplicantID,
		"cohort_id":     req.CohortID,
		"deck_supplied": strings.TrimSpace(req.DeckURL) != "",
		"status":        status,
	}
	if id := RequestIDFromContext(ctx); id != "" {
		fields["request_id"] = id
	}
	for k, v := range extra {
		fields[k] = v
	}
	if status == StatusFailed {
		telemetry.Error("analysis.status", fields)
		return
	}
	telemetry.Info("analysis.status", fields)
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}
