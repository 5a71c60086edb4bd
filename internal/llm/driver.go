package llm

import (
	"context"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// PollPolicy bounds the blocking driver: at most MaxAttempts polls, Interval apart.
type PollPolicy struct {
	MaxAttempts int
	Interval    time.Duration
}

// Driver turns a started run into the assistant's final reply.
type Driver struct {
	API Assistant
	// Sleep waits between polls; nil uses a context-aware timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

// AwaitCompletion sleeps then polls, up to policy.MaxAttempts times. A completed run
// yields the newest message text; failed, cancelled and expired runs fail immediately.
// The abandoned remote run is not cancelled on timeout.
func (d *Driver) AwaitCompletion(ctx context.Context, threadID, runID string, policy PollPolicy) (string, error) {
	sleep := d.Sleep
	if sleep == nil {
		sleep = sleepContext
	}
	for attempt := 0; attempt < policy.MaxAttempts; attempt++ {
		if err := sleep(ctx, policy.Interval); err != nil {
			return "", err
		}
		run, err := d.API.PollRun(ctx, threadID, runID)
		if err != nil {
			return "", err
		}
		if !run.Terminal() {
			continue
		}
		if run.Status != openai.RunStatusCompleted {
			return "", &RunError{Status: string(run.Status), Detail: run.LastError}
		}
		msg, err := d.API.LatestMessage(ctx, threadID)
		if err != nil {
			return "", err
		}
		if msg.Role != openai.ChatMessageRoleAssistant {
			return "", ErrNoAssistantResponse
		}
		return msg.Text, nil
	}
	return "", ErrRunTimedOut
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
