package chat

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"vetted-backend/internal/analyses"
	"vetted-backend/internal/llm"
)

// callLog records remote calls and store writes in one sequence.
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(call string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, call)
}

func (l *callLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

type fakeAssistant struct {
	log       *callLog
	reply     string
	status    openai.RunStatus
	stream    string
	appendErr error
}

func (f *fakeAssistant) ResolvePersona(ctx context.Context) (string, error) {
	f.log.add("remote:persona")
	return "asst_1", nil
}

func (f *fakeAssistant) UploadDocument(ctx context.Context, url string) (string, error) {
	f.log.add("remote:upload")
	return "file_1", nil
}

func (f *fakeAssistant) CreateThread(ctx context.Context) (string, error) {
	f.log.add("remote:thread")
	return "thread_new", nil
}

func (f *fakeAssistant) AppendMessage(ctx context.Context, threadID, content, fileID string) error {
	f.log.add("remote:append:" + threadID + ":" + content)
	return f.appendErr
}

func (f *fakeAssistant) StartRun(ctx context.Context, threadID, personaID string) (llm.Run, error) {
	f.log.add("remote:run:" + personaID)
	return llm.Run{ID: "run_1", Status: openai.RunStatusQueued}, nil
}

func (f *fakeAssistant) StartRunStream(ctx context.Context, threadID, personaID string) (io.ReadCloser, error) {
	f.log.add("remote:stream:" + personaID)
	return io.NopCloser(strings.NewReader(f.stream)), nil
}

func (f *fakeAssistant) PollRun(ctx context.Context, threadID, runID string) (llm.Run, error) {
	f.log.add("remote:poll")
	status := f.status
	if status == "" {
		status = openai.RunStatusCompleted
	}
	return llm.Run{ID: runID, Status: status}, nil
}

func (f *fakeAssistant) LatestMessage(ctx context.Context, threadID string) (llm.Message, error) {
	f.log.add("remote:latest")
	return llm.Message{Role: openai.ChatMessageRoleAssistant, Text: f.reply}, nil
}

// recordingRepo logs history appends into the shared call log.
type recordingRepo struct {
	*analyses.MemoryRepo
	log *callLog
}

func (r *recordingRepo) AppendChat(ctx context.Context, applicantID string, turn analyses.ChatTurn) error {
	r.log.add("store:" + turn.Role)
	return r.MemoryRepo.AppendChat(ctx, applicantID, turn)
}

func noSleep(context.Context, time.Duration) error { return nil }

func fixedNow() time.Time { return time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC) }

func newTestService(t testing.TB, threadID string) (*Service, *fakeAssistant, *recordingRepo, *callLog) {
	t.Helper()
	log := &callLog{}
	api := &fakeAssistant{log: log, reply: "The moat is thin."}
	repo := &recordingRepo{MemoryRepo: analyses.NewMemoryRepo(), log: log}
	if threadID != "-" {
		_ = repo.Save(context.Background(), analyses.Result{
			ApplicantID: "a1",
			Status:      analyses.StatusCompleted,
			ThreadID:    threadID,
		})
	}
	svc := &Service{
		Assistant: api,
		Driver:    &llm.Driver{API: api, Sleep: noSleep},
		Repo:      repo,
		PersonaID: "asst_1",
		Poll:      llm.PollPolicy{MaxAttempts: 2, Interval: time.Millisecond},
		Now:       fixedNow,
	}
	return svc, api, repo, log
}

func sseStream(fragments []string, final string) string {
	var b strings.Builder
	for _, frag := range fragments {
		fmt.Fprintf(&b, "data: {\"object\":\"thread.message.delta\",\"delta\":{\"content\":[{\"type\":\"text\",\"text\":{\"value\":%q}}]}}\n\n", frag)
	}
	b.WriteString(final + "\n\n")
	return b.String()
}
