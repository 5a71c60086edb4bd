package llm

import (
	"context"
	"io"
	"strings"
	"time"
)

type fakeAssistant struct {
	runs       []Run
	pollErr    error
	polls      int
	latest     Message
	latestErr  error
	latestHits int
	stream     string
	streamErr  error
}

func (f *fakeAssistant) ResolvePersona(ctx context.Context) (string, error) { return "asst_1", nil }

func (f *fakeAssistant) UploadDocument(ctx context.Context, url string) (string, error) {
	return "file_1", nil
}

func (f *fakeAssistant) CreateThread(ctx context.Context) (string, error) { return "thread_1", nil }

func (f *fakeAssistant) AppendMessage(ctx context.Context, threadID, content, fileID string) error {
	return nil
}

func (f *fakeAssistant) StartRun(ctx context.Context, threadID, personaID string) (Run, error) {
	return Run{ID: "run_1", Status: "queued"}, nil
}

func (f *fakeAssistant) StartRunStream(ctx context.Context, threadID, personaID string) (io.ReadCloser, error) {
	if f.streamErr != nil {
		return nil, f.streamErr
	}
	return io.NopCloser(strings.NewReader(f.stream)), nil
}

func (f *fakeAssistant) PollRun(ctx context.Context, threadID, runID string) (Run, error) {
	f.polls++
	if f.pollErr != nil {
		return Run{}, f.pollErr
	}
	if len(f.runs) == 0 {
		return Run{ID: runID, Status: "in_progress"}, nil
	}
	idx := f.polls - 1
	if idx >= len(f.runs) {
		idx = len(f.runs) - 1
	}
	return f.runs[idx], nil
}

func (f *fakeAssistant) LatestMessage(ctx context.Context, threadID string) (Message, error) {
	f.latestHits++
	return f.latest, f.latestErr
}

func noSleep(context.Context, time.Duration) error { return nil }
