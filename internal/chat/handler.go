package chat

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"vetted-backend/internal/shared/metrics"
	"vetted-backend/internal/shared/server/respond"
)

// Handler serves the chat endpoint.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches the chat route to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.Any("/chat", h.chat)
}

// requestBody is the wire form of Request. stream accepts any JSON value and is
// read by truthiness, so "true", 1 and true all select streaming.
type requestBody struct {
	ApplicantID string          `json:"applicantId"`
	Message     string          `json:"message"`
	Stream      json.RawMessage `json:"stream"`
}

func (b requestBody) request() Request {
	return Request{ApplicantID: b.ApplicantID, Message: b.Message, Stream: truthy(b.Stream)}
}

func truthy(raw json.RawMessage) bool {
	if len(raw) == 0 {
		return false
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return false
	}
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != ""
	default:
		return true
	}
}

func (h *Handler) chat(c *gin.Context) {
	switch c.Request.Method {
	case http.MethodOptions:
		c.AbortWithStatus(http.StatusNoContent)
		return
	case http.MethodPost:
	default:
		respond.Failure(c, http.StatusInternalServerError, "Method not allowed")
		return
	}

	var body requestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respond.Failure(c, http.StatusInternalServerError, "invalid request body")
		return
	}
	req := body.request()
	c.Set("applicantId", strings.TrimSpace(req.ApplicantID))
	c.Set("stream", req.Stream)

	if req.Stream {
		h.stream(c, req)
		return
	}

	reply, err := h.Svc.Reply(c.Request.Context(), req)
	if err != nil {
		metrics.IncChatTurn("blocking", "error")
		respond.Failure(c, http.StatusInternalServerError, err.Error())
		return
	}
	metrics.IncChatTurn("blocking", "ok")
	respond.Success(c, http.StatusOK, gin.H{"response": reply})
}

func (h *Handler) stream(c *gin.Context, req Request) {
	events, err := h.Svc.Stream(c.Request.Context(), req)
	if err != nil {
		metrics.IncChatTurn("stream", "error")
		respond.Failure(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	outcome := "ok"
	for ev := range events {
		if ev.Error != "" {
			outcome = "error"
		}
		payload, err := json.Marshal(ev)
		if err != nil {
			continue
		}
		if _, err := fmt.Fprintf(c.Writer, "data: %s\n\n", payload); err != nil {
			outcome = "disconnected"
			continue
		}
		c.Writer.Flush()
	}
	metrics.IncChatTurn("stream", outcome)
}
