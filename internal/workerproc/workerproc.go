package workerproc

import (
	"context"
	"errors"
	"strings"

	"vetted-backend/internal/analyses"
	"vetted-backend/internal/queue"
	"vetted-backend/internal/shared/util"
)

// Processor runs the analysis pipeline for a decoded job.
type Processor interface {
	Analyze(ctx context.Context, req analyses.Request) (string, error)
}

// MessageMeta captures details useful for logging and diagnostics.
type MessageMeta struct {
	BodyLen int
	BodySHA string
}

// ComputeMeta returns the body length and SHA-256 hash.
func ComputeMeta(body string) MessageMeta {
	if body == "" {
		return MessageMeta{}
	}
	return MessageMeta{BodyLen: len(body), BodySHA: util.SHA256Hex(body)}
}

// ErrEmptyBody indicates an empty queue payload.
type ErrEmptyBody struct {
	Meta MessageMeta
}

func (e ErrEmptyBody) Error() string { return "empty message body" }

// ErrDecode indicates a JSON decode failure.
type ErrDecode struct {
	Meta MessageMeta
	Err  error
}

func (e ErrDecode) Error() string {
	if e.Err == nil {
		return "decode message"
	}
	return "decode message: " + e.Err.Error()
}

func (e ErrDecode) Unwrap() error { return e.Err }

// ErrMissingApplicantID indicates a message without an applicant id.
type ErrMissingApplicantID struct {
	Meta      MessageMeta
	RequestID string
}

func (e ErrMissingApplicantID) Error() string { return "missing applicant id" }

// ErrProcess indicates the pipeline failed after the message was parsed. The failure
// record has already been written by the time this is returned.
type ErrProcess struct {
	ApplicantID string
	RequestID   string
	Err         error
}

func (e ErrProcess) Error() string {
	if e.Err == nil {
		return "process analysis"
	}
	return "process analysis: " + e.Err.Error()
}

func (e ErrProcess) Unwrap() error { return e.Err }

// ParseMessage validates and decodes the queue payload.
func ParseMessage(body string) (queue.Message, MessageMeta, error) {
	meta := ComputeMeta(body)
	if strings.TrimSpace(body) == "" {
		return queue.Message{}, meta, ErrEmptyBody{Meta: meta}
	}

	msg, err := queue.DecodeMessage([]byte(body))
	if err != nil {
		return queue.Message{}, meta, ErrDecode{Meta: meta, Err: err}
	}
	if strings.TrimSpace(msg.ApplicantID) == "" {
		return msg, meta, ErrMissingApplicantID{Meta: meta, RequestID: msg.RequestID}
	}
	return msg, meta, nil
}

// HandleMessage runs the analysis carried by a parsed message.
func HandleMessage(ctx context.Context, proc Processor, msg queue.Message) (string, error) {
	if proc == nil {
		return "", errors.New("analysis service not configured")
	}
	if strings.TrimSpace(msg.ApplicantID) == "" {
		return "", ErrMissingApplicantID{RequestID: msg.RequestID}
	}

	ctx = analyses.WithRequestID(ctx, msg.RequestID)
	threadID, err := proc.Analyze(ctx, analyses.RequestFromMessage(msg))
	if err != nil {
		return "", ErrProcess{ApplicantID: msg.ApplicantID, RequestID: msg.RequestID, Err: err}
	}
	return threadID, nil
}

// HandleBody parses body and runs it. It is the single-call entrypoint for Lambda.
func HandleBody(ctx context.Context, proc Processor, body string) (string, error) {
	msg, _, err := ParseMessage(body)
	if err != nil {
		return "", err
	}
	return HandleMessage(ctx, proc, msg)
}
