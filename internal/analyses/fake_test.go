package analyses

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"vetted-backend/internal/llm"
)

type appendedMessage struct {
	threadID string
	content  string
	fileID   string
}

// fakeAssistant records the order of remote operations and can fail any of them.
type fakeAssistant struct {
	mu       sync.Mutex
	calls    []string
	failOn   map[string]error
	reply    string
	status   openai.RunStatus
	appended []appendedMessage
}

func newFakeAssistant(reply string) *fakeAssistant {
	return &fakeAssistant{reply: reply, status: openai.RunStatusCompleted, failOn: map[string]error{}}
}

func (f *fakeAssistant) record(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, op)
	return f.failOn[op]
}

func (f *fakeAssistant) called(op string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.calls {
		if c == op {
			return true
		}
	}
	return false
}

func (f *fakeAssistant) ResolvePersona(ctx context.Context) (string, error) {
	if err := f.record("persona"); err != nil {
		return "", err
	}
	return "asst_1", nil
}

func (f *fakeAssistant) UploadDocument(ctx context.Context, url string) (string, error) {
	if err := f.record("upload"); err != nil {
		return "", err
	}
	return "file_1", nil
}

func (f *fakeAssistant) CreateThread(ctx context.Context) (string, error) {
	if err := f.record("thread"); err != nil {
		return "", err
	}
	return "thread_1", nil
}

func (f *fakeAssistant) AppendMessage(ctx context.Context, threadID, content, fileID string) error {
	if err := f.record("append"); err != nil {
		return err
	}
	f.mu.Lock()
	f.appended = append(f.appended, appendedMessage{threadID: threadID, content: content, fileID: fileID})
	f.mu.Unlock()
	return nil
}

func (f *fakeAssistant) StartRun(ctx context.Context, threadID, personaID string) (llm.Run, error) {
	if err := f.record("run"); err != nil {
		return llm.Run{}, err
	}
	return llm.Run{ID: "run_1", Status: openai.RunStatusQueued}, nil
}

func (f *fakeAssistant) StartRunStream(ctx context.Context, threadID, personaID string) (io.ReadCloser, error) {
	if err := f.record("stream"); err != nil {
		return nil, err
	}
	return io.NopCloser(strings.NewReader("")), nil
}

func (f *fakeAssistant) PollRun(ctx context.Context, threadID, runID string) (llm.Run, error) {
	if err := f.record("poll"); err != nil {
		return llm.Run{}, err
	}
	return llm.Run{ID: runID, Status: f.status, LastError: "quota exceeded"}, nil
}

func (f *fakeAssistant) LatestMessage(ctx context.Context, threadID string) (llm.Message, error) {
	if err := f.record("latest"); err != nil {
		return llm.Message{}, err
	}
	return llm.Message{Role: openai.ChatMessageRoleAssistant, Text: f.reply}, nil
}

// failingRepo fails every write.
type failingRepo struct {
	*MemoryRepo
	saves int
}

func (r *failingRepo) Save(ctx context.Context, result Result) error {
	r.saves++
	return errors.New("datastore unavailable")
}

type fakeDeck struct {
	text string
	err  error
	urls []string
}

func (d *fakeDeck) TextFromURL(ctx context.Context, url string) (string, error) {
	d.urls = append(d.urls, url)
	return d.text, d.err
}

func noSleep(context.Context, time.Duration) error { return nil }

func fixedNow() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }

func newTestService(api llm.Assistant, repo Repo) *Service {
	return &Service{
		Assistant: api,
		Driver:    &llm.Driver{API: api, Sleep: noSleep},
		Repo:      repo,
		Poll:      llm.PollPolicy{MaxAttempts: 3, Interval: time.Millisecond},
		Now:       fixedNow,
	}
}

const fencedReply = "```json\n" + `{"marketSizing":{"category":"Fintech","tam":{"qualitative":"large","bottomUp":"$1B","topDown":"$10B"}},"competitiveLandscape":{"directCompetitors":[],"legacyCompetitors":[],"differentiatorAnalysis":"none"},"readinessSummary":{"investmentThesis":"strong"}}` + "\n```"
