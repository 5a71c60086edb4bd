package llm

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

const (
	dataPrefix        = "data:"
	eventPrefix       = "event:"
	eventError        = "error"
	scannerInitialBuf = 12 * 1024
	scannerMaxBuf     = 10 * 1024 * 1024

	objectMessageDelta = "thread.message.delta"
	objectRun          = "thread.run"
)

// StreamEvent is one relayed event. Exactly one of the fields is set.
type StreamEvent struct {
	Text  string `json:"text,omitempty"`
	Done  bool   `json:"done,omitempty"`
	Error string `json:"error,omitempty"`
}

type streamPayload struct {
	Object string           `json:"object"`
	Status openai.RunStatus `json:"status"`
	Delta  struct {
		Content []struct {
			Type string `json:"type"`
			Text *struct {
				Value string `json:"value"`
			} `json:"text"`
		} `json:"content"`
	} `json:"delta"`
	LastError *struct {
		Message string `json:"message"`
	} `json:"last_error"`

	// error frames carry either a top-level message or a nested error object
	Message string `json:"message"`
	Error   *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// ErrStreamEnded is relayed when the upstream stream closes before the run reaches a terminal state.
var ErrStreamEnded = errors.New("stream ended before run completed")

func (p streamPayload) errorDetail() string {
	if p.Error != nil && p.Error.Message != "" {
		return p.Error.Message
	}
	if p.Message != "" {
		return p.Message
	}
	return "assistant stream error"
}

// StreamCompletion starts a streaming run and relays its events into out.
// out is always closed before StreamCompletion returns.
func (d *Driver) StreamCompletion(ctx context.Context, threadID, personaID string, out chan<- StreamEvent) {
	defer close(out)

	body, err := d.API.StartRunStream(ctx, threadID, personaID)
	if err != nil {
		emit(ctx, out, StreamEvent{Error: err.Error()})
		return
	}
	defer body.Close()

	relayEvents(ctx, body, out)
}

// relayEvents forwards message deltas until the run completes or fails. Every stream
// that is not abandoned through ctx ends with exactly one Done or Error event: an
// upstream error frame, a read error or an early EOF all become an Error event.
// Data lines that are not JSON are dropped.
func relayEvents(ctx context.Context, r io.Reader, out chan<- StreamEvent) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, scannerInitialBuf), scannerMaxBuf)

	var event string
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			event = ""
			continue
		}
		if name, ok := strings.CutPrefix(line, eventPrefix); ok {
			event = strings.TrimSpace(name)
			continue
		}
		data, ok := strings.CutPrefix(line, dataPrefix)
		if !ok {
			continue
		}
		var payload streamPayload
		if err := json.Unmarshal([]byte(strings.TrimSpace(data)), &payload); err != nil {
			continue
		}

		if event == eventError || (payload.Object == "" && payload.Error != nil) {
			emit(ctx, out, StreamEvent{Error: payload.errorDetail()})
			return
		}
		switch payload.Object {
		case objectMessageDelta:
			for _, part := range payload.Delta.Content {
				if part.Text == nil || part.Text.Value == "" {
					continue
				}
				if !emit(ctx, out, StreamEvent{Text: part.Text.Value}) {
					return
				}
			}
		case objectRun:
			switch payload.Status {
			case openai.RunStatusCompleted:
				emit(ctx, out, StreamEvent{Done: true})
				return
			case openai.RunStatusFailed, openai.RunStatusCancelled, openai.RunStatusExpired:
				detail := "run " + string(payload.Status)
				if payload.LastError != nil && payload.LastError.Message != "" {
					detail = payload.LastError.Message
				}
				emit(ctx, out, StreamEvent{Error: detail})
				return
			}
		}
	}
	if err := scanner.Err(); err != nil {
		emit(ctx, out, StreamEvent{Error: err.Error()})
		return
	}
	emit(ctx, out, StreamEvent{Error: ErrStreamEnded.Error()})
}

func emit(ctx context.Context, out chan<- StreamEvent, ev StreamEvent) bool {
	select {
	case out <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
