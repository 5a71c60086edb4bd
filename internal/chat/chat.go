package chat

import (
	"context"
	"errors"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"vetted-backend/internal/analyses"
	"vetted-backend/internal/llm"
	"vetted-backend/internal/shared/telemetry"
)

var (
	ErrMissingFields        = errors.New("applicantId and message are required")
	ErrNoAnalysis           = errors.New("no analysis found: run the analysis first")
	ErrNoThread             = errors.New("no thread ID found: analysis predates chat feature")
	ErrPersonaNotConfigured = errors.New("assistant id not configured")
)

const streamBuffer = 16

// Request is one chat turn against an applicant's analysis thread.
type Request struct {
	ApplicantID string `json:"applicantId"`
	Message     string `json:"message"`
	Stream      bool   `json:"stream"`
}

// Service continues the conversation started by an applicant's analysis.
type Service struct {
	Assistant llm.Assistant
	Driver    *llm.Driver
	Repo      analyses.Repo
	// PersonaID must be configured; chat never creates a persona.
	PersonaID string
	Poll      llm.PollPolicy
	Now       func() time.Time
}

// Reply runs one blocking chat turn and returns the assistant's full reply.
func (s *Service) Reply(ctx context.Context, req Request) (string, error) {
	threadID, err := s.begin(ctx, req)
	if err != nil {
		return "", err
	}
	run, err := s.Assistant.StartRun(ctx, threadID, s.PersonaID)
	if err != nil {
		return "", err
	}
	reply, err := s.Driver.AwaitCompletion(ctx, threadID, run.ID, s.Poll)
	if err != nil {
		return "", err
	}
	s.recordTurn(ctx, req.ApplicantID, openai.ChatMessageRoleAssistant, reply)
	return reply, nil
}

// Stream checks preconditions and posts the message synchronously, then relays the
// run's events on the returned channel. The channel is closed when the run ends, and
// the assistant turn is recorded only once the run reports completion.
func (s *Service) Stream(ctx context.Context, req Request) (<-chan llm.StreamEvent, error) {
	threadID, err := s.begin(ctx, req)
	if err != nil {
		return nil, err
	}

	raw := make(chan llm.StreamEvent, streamBuffer)
	out := make(chan llm.StreamEvent, streamBuffer)
	go s.Driver.StreamCompletion(ctx, threadID, s.PersonaID, raw)
	go func() {
		defer close(out)
		var (
			text      strings.Builder
			completed bool
		)
		for ev := range raw {
			text.WriteString(ev.Text)
			if ev.Done {
				completed = true
			}
			select {
			case out <- ev:
			case <-ctx.Done():
			}
		}
		if !completed || ctx.Err() != nil || text.Len() == 0 {
			return
		}
		s.recordTurn(ctx, req.ApplicantID, openai.ChatMessageRoleAssistant, text.String())
	}()
	return out, nil
}

// begin validates the turn, records the user message, and posts it to the thread.
func (s *Service) begin(ctx context.Context, req Request) (string, error) {
	applicantID := strings.TrimSpace(req.ApplicantID)
	if applicantID == "" || strings.TrimSpace(req.Message) == "" {
		return "", ErrMissingFields
	}
	record, err := s.Repo.Get(ctx, applicantID)
	if errors.Is(err, analyses.ErrNotFound) {
		return "", ErrNoAnalysis
	}
	if err != nil {
		return "", err
	}
	if record.ThreadID == "" {
		return "", ErrNoThread
	}
	if s.PersonaID == "" {
		return "", ErrPersonaNotConfigured
	}

	s.recordTurn(ctx, applicantID, openai.ChatMessageRoleUser, req.Message)
	if err := s.Assistant.AppendMessage(ctx, record.ThreadID, req.Message, ""); err != nil {
		return "", err
	}
	return record.ThreadID, nil
}

// recordTurn appends to the chat history. A failed write is logged and does not fail the turn.
func (s *Service) recordTurn(ctx context.Context, applicantID, role, content string) {
	turn := analyses.ChatTurn{Role: role, Content: content, Timestamp: s.now()}
	if err := s.Repo.AppendChat(context.WithoutCancel(ctx), strings.TrimSpace(applicantID), turn); err != nil {
		telemetry.Warn("chat.history.error", map[string]any{
			"applicant_id": applicantID,
			"role":         role,
			"error":        err.Error(),
		})
	}
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}
