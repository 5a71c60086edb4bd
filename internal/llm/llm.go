package llm

import (
	"context"
	"errors"
	"io"

	openai "github.com/sashabaranov/go-openai"
)

// Assistant is the remote conversational-assistant API. Implementations issue one
// remote call per method and never retry.
type Assistant interface {
	// ResolvePersona returns the configured persona id, creating one remotely when none is configured.
	ResolvePersona(ctx context.Context) (string, error)
	// UploadDocument fetches the document at url and uploads it for file search.
	UploadDocument(ctx context.Context, url string) (string, error)
	CreateThread(ctx context.Context) (string, error)
	// AppendMessage posts a user message; a non-empty fileID is attached with file search enabled.
	AppendMessage(ctx context.Context, threadID, content, fileID string) error
	StartRun(ctx context.Context, threadID, personaID string) (Run, error)
	// StartRunStream starts a run and returns the raw server-sent event stream.
	StartRunStream(ctx context.Context, threadID, personaID string) (io.ReadCloser, error)
	PollRun(ctx context.Context, threadID, runID string) (Run, error)
	// LatestMessage returns the newest message on the thread.
	LatestMessage(ctx context.Context, threadID string) (Message, error)
}

// Run is the locally observed state of a remote run.
type Run struct {
	ID        string
	Status    openai.RunStatus
	LastError string
}

// Terminal reports whether the run can no longer make progress.
func (r Run) Terminal() bool {
	switch r.Status {
	case openai.RunStatusCompleted, openai.RunStatusFailed, openai.RunStatusCancelled, openai.RunStatusExpired:
		return true
	default:
		return false
	}
}

// Message is a single thread message flattened to its text.
type Message struct {
	Role string
	Text string
}

// ErrNotConfigured is returned by the placeholder assistant.
var ErrNotConfigured = errors.New("assistant API key not configured")

// PlaceholderAssistant stands in when no API key is configured.
type PlaceholderAssistant struct{}

func (PlaceholderAssistant) ResolvePersona(ctx context.Context) (string, error) {
	return "", ErrNotConfigured
}

func (PlaceholderAssistant) UploadDocument(ctx context.Context, url string) (string, error) {
	return "", ErrNotConfigured
}

func (PlaceholderAssistant) CreateThread(ctx context.Context) (string, error) {
	return "", ErrNotConfigured
}

func (PlaceholderAssistant) AppendMessage(ctx context.Context, threadID, content, fileID string) error {
	return ErrNotConfigured
}

func (PlaceholderAssistant) StartRun(ctx context.Context, threadID, personaID string) (Run, error) {
	return Run{}, ErrNotConfigured
}

func (PlaceholderAssistant) StartRunStream(ctx context.Context, threadID, personaID string) (io.ReadCloser, error) {
	return nil, ErrNotConfigured
}

func (PlaceholderAssistant) PollRun(ctx context.Context, threadID, runID string) (Run, error) {
	return Run{}, ErrNotConfigured
}

func (PlaceholderAssistant) LatestMessage(ctx context.Context, threadID string) (Message, error) {
	return Message{}, ErrNotConfigured
}

var _ Assistant = PlaceholderAssistant{}
