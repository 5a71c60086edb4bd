package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	goopenai "github.com/sashabaranov/go-openai"

	"vetted-backend/internal/llm"
	"vetted-backend/internal/shared/metrics"
	"vetted-backend/internal/shared/telemetry"
)

const (
	betaHeader       = "OpenAI-Beta"
	betaVersion      = "assistants=v2"
	deckFileName     = "pitch_deck.pdf"
	defaultBaseURL   = "https://api.openai.com/v1"
	defaultTimeout   = 120 * time.Second
	defaultFetchWait = 60 * time.Second
)

// Config configures the Assistants API client.
type Config struct {
	APIKey       string
	BaseURL      string
	Timeout      time.Duration
	AssistantID  string
	Model        string
	FetchTimeout time.Duration
}

// Client implements llm.Assistant against the OpenAI Assistants v2 API.
type Client struct {
	api    *resty.Client
	stream *resty.Client
	fetch  *resty.Client
	model  string

	mu        sync.Mutex
	personaID string
}

// NewClient constructs a new Assistants client.
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, fmt.Errorf("OPENAI_ASSISTANT_MODEL is required")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	fetchTimeout := cfg.FetchTimeout
	if fetchTimeout <= 0 {
		fetchTimeout = defaultFetchWait
	}

	return &Client{
		api: newAPIClient(baseURL, cfg.APIKey).SetTimeout(timeout),
		// Streams stay open for the whole run; the request context bounds them.
		stream:    newAPIClient(baseURL, cfg.APIKey),
		fetch:     resty.New().SetTimeout(fetchTimeout),
		model:     strings.TrimSpace(cfg.Model),
		personaID: strings.TrimSpace(cfg.AssistantID),
	}, nil
}

func newAPIClient(baseURL, apiKey string) *resty.Client {
	return resty.New().
		SetBaseURL(baseURL).
		SetAuthToken(apiKey).
		SetHeader(betaHeader, betaVersion)
}

type toolSpec struct {
	Type goopenai.AssistantToolType `json:"type"`
}

type createAssistantRequest struct {
	Model        string     `json:"model"`
	Name         string     `json:"name"`
	Instructions string     `json:"instructions"`
	Tools        []toolSpec `json:"tools"`
}

type attachment struct {
	FileID string     `json:"file_id"`
	Tools  []toolSpec `json:"tools"`
}

type createMessageRequest struct {
	Role        string       `json:"role"`
	Content     string       `json:"content"`
	Attachments []attachment `json:"attachments,omitempty"`
}

type createRunRequest struct {
	AssistantID string `json:"assistant_id"`
	Stream      bool   `json:"stream,omitempty"`
}

// ResolvePersona returns the configured assistant id without a network call.
// With none configured it creates the persona once and keeps its id for the process lifetime.
func (c *Client) ResolvePersona(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.personaID != "" {
		return c.personaID, nil
	}

	var created goopenai.Assistant
	req := c.api.R().SetContext(ctx).SetBody(createAssistantRequest{
		Model:        c.model,
		Name:         llm.PersonaName,
		Instructions: llm.PersonaInstructions(),
		Tools:        []toolSpec{{Type: goopenai.AssistantToolTypeFileSearch}},
	})
	if err := c.do(llm.OpCreatePersona, req, http.MethodPost, "/assistants", &created); err != nil {
		return "", err
	}
	c.personaID = created.ID
	telemetry.Warn("assistant.persona.created", map[string]any{
		"assistant_id": created.ID,
		"hint":         "set OPENAI_ASSISTANT_ID to reuse this persona",
	})
	return created.ID, nil
}

// UploadDocument downloads url and uploads it as an assistants file.
func (c *Client) UploadDocument(ctx context.Context, url string) (string, error) {
	fetched, err := c.fetch.R().SetContext(ctx).Get(url)
	metrics.IncRemoteCall(llm.OpFetchDocument, err)
	if err != nil {
		return "", &llm.RemoteError{Op: llm.OpFetchDocument, Err: err}
	}
	if fetched.IsError() {
		return "", &llm.RemoteError{Op: llm.OpFetchDocument, Status: fetched.StatusCode()}
	}

	var file goopenai.File
	req := c.api.R().
		SetContext(ctx).
		SetFileReader("file", deckFileName, bytes.NewReader(fetched.Body())).
		SetFormData(map[string]string{"purpose": string(goopenai.PurposeAssistants)})
	if err := c.do(llm.OpUpload, req, http.MethodPost, "/files", &file); err != nil {
		return "", err
	}
	return file.ID, nil
}

func (c *Client) CreateThread(ctx context.Context) (string, error) {
	var thread goopenai.Thread
	req := c.api.R().SetContext(ctx).SetBody(map[string]any{})
	if err := c.do(llm.OpCreateThread, req, http.MethodPost, "/threads", &thread); err != nil {
		return "", err
	}
	return thread.ID, nil
}

func (c *Client) AppendMessage(ctx context.Context, threadID, content, fileID string) error {
	body := createMessageRequest{Role: goopenai.ChatMessageRoleUser, Content: content}
	if fileID != "" {
		body.Attachments = []attachment{{
			FileID: fileID,
			Tools:  []toolSpec{{Type: goopenai.AssistantToolTypeFileSearch}},
		}}
	}
	req := c.api.R().SetContext(ctx).SetPathParam("threadID", threadID).SetBody(body)
	return c.do(llm.OpAppend, req, http.MethodPost, "/threads/{threadID}/messages", nil)
}

func (c *Client) StartRun(ctx context.Context, threadID, personaID string) (llm.Run, error) {
	var run goopenai.Run
	req := c.api.R().
		SetContext(ctx).
		SetPathParam("threadID", threadID).
		SetBody(createRunRequest{AssistantID: personaID})
	if err := c.do(llm.OpStartRun, req, http.MethodPost, "/threads/{threadID}/runs", &run); err != nil {
		return llm.Run{}, err
	}
	return toRun(run), nil
}

// StartRunStream starts a streaming run. The caller owns the returned body.
func (c *Client) StartRunStream(ctx context.Context, threadID, personaID string) (io.ReadCloser, error) {
	resp, err := c.stream.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		SetHeader("Accept", "text/event-stream").
		SetPathParam("threadID", threadID).
		SetBody(createRunRequest{AssistantID: personaID, Stream: true}).
		Post("/threads/{threadID}/runs")
	metrics.IncRemoteCall(llm.OpStartRun, err)
	if err != nil {
		return nil, &llm.RemoteError{Op: llm.OpStartRun, Err: err}
	}
	body := resp.RawBody()
	if resp.IsError() {
		defer body.Close()
		raw, _ := io.ReadAll(body)
		return nil, &llm.RemoteError{Op: llm.OpStartRun, Status: resp.StatusCode(), Body: string(raw)}
	}
	return body, nil
}

func (c *Client) PollRun(ctx context.Context, threadID, runID string) (llm.Run, error) {
	var run goopenai.Run
	req := c.api.R().SetContext(ctx).SetPathParams(map[string]string{
		"threadID": threadID,
		"runID":    runID,
	})
	if err := c.do(llm.OpPollRun, req, http.MethodGet, "/threads/{threadID}/runs/{runID}", &run); err != nil {
		return llm.Run{}, err
	}
	return toRun(run), nil
}

// LatestMessage fetches the newest message on the thread. An empty thread yields a zero Message.
func (c *Client) LatestMessage(ctx context.Context, threadID string) (llm.Message, error) {
	var list goopenai.MessagesList
	req := c.api.R().
		SetContext(ctx).
		SetPathParam("threadID", threadID).
		SetQueryParams(map[string]string{"order": "desc", "limit": "1"})
	if err := c.do(llm.OpLatestMessage, req, http.MethodGet, "/threads/{threadID}/messages", &list); err != nil {
		return llm.Message{}, err
	}
	if len(list.Messages) == 0 {
		return llm.Message{}, nil
	}
	msg := list.Messages[0]
	var text strings.Builder
	for _, part := range msg.Content {
		if part.Text != nil {
			text.WriteString(part.Text.Value)
		}
	}
	return llm.Message{Role: msg.Role, Text: text.String()}, nil
}

func (c *Client) do(op string, req *resty.Request, method, path string, out any) error {
	resp, err := req.Execute(method, path)
	metrics.IncRemoteCall(op, err)
	if err != nil {
		return &llm.RemoteError{Op: op, Err: err}
	}
	if resp.IsError() {
		return &llm.RemoteError{Op: op, Status: resp.StatusCode(), Body: resp.String()}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return &llm.RemoteError{Op: op, Status: resp.StatusCode(), Body: resp.String(), Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func toRun(run goopenai.Run) llm.Run {
	out := llm.Run{ID: run.ID, Status: run.Status}
	if run.LastError != nil {
		out.LastError = run.LastError.Message
	}
	return out
}

var _ llm.Assistant = (*Client)(nil)
