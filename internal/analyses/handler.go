package analyses

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"vetted-backend/internal/queue"
	"vetted-backend/internal/shared/metrics"
	"vetted-backend/internal/shared/server/middleware"
	"vetted-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the analyses service.
type Handler struct {
	Svc   *Service
	Repo  Repo
	Queue queue.Client
	Now   func() time.Time
}

// NewHandler constructs a Handler. q may be nil when no job queue is configured.
func NewHandler(svc *Service, repo Repo, q queue.Client) *Handler {
	return &Handler{Svc: svc, Repo: repo, Queue: q}
}

// RegisterRoutes attaches analysis routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.Any("/analyses", h.analyze)
	rg.GET("/analyses/:applicantId", h.getAnalysis)
	rg.POST("/analysis-jobs", h.enqueueAnalysis)
}

func (h *Handler) analyze(c *gin.Context) {
	if c.Request.Method != http.MethodPost {
		respond.Failure(c, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	var req Request
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Failure(c, http.StatusInternalServerError, bindErrorMessage(err))
		return
	}
	c.Set("applicantId", req.ApplicantID)

	// The pipeline outlives a disconnected client so the record is always written.
	ctx := WithRequestID(context.WithoutCancel(c.Request.Context()), middleware.RequestIDFromContext(c))
	threadID, err := h.Svc.Analyze(ctx, req)
	if err != nil {
		respond.Failure(c, http.StatusInternalServerError, err.Error())
		return
	}
	respond.Success(c, http.StatusOK, gin.H{"threadId": threadID})
}

func (h *Handler) getAnalysis(c *gin.Context) {
	applicantID := strings.TrimSpace(c.Param("applicantId"))
	c.Set("applicantId", applicantID)

	result, err := h.Repo.Get(c.Request.Context(), applicantID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Failure(c, http.StatusNotFound, "analysis not found")
		default:
			respond.Failure(c, http.StatusInternalServerError, "failed to fetch analysis")
		}
		return
	}
	respond.OK(c, result)
}

func (h *Handler) enqueueAnalysis(c *gin.Context) {
	if h.Queue == nil {
		respond.Failure(c, http.StatusServiceUnavailable, ErrQueueNotConfigured.Error())
		return
	}
	var req Request
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Failure(c, http.StatusBadRequest, bindErrorMessage(err))
		return
	}
	if strings.TrimSpace(req.ApplicantID) == "" {
		respond.Failure(c, http.StatusBadRequest, ErrApplicantRequired.Error())
		return
	}
	c.Set("applicantId", req.ApplicantID)

	requestID := middleware.RequestIDFromContext(c)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	msg := queue.Message{
		Version:     queue.MessageVersion,
		RequestID:   requestID,
		EnqueuedAt:  h.now().Format(time.RFC3339),
		ApplicantID: strings.TrimSpace(req.ApplicantID),
		CohortID:    req.CohortID,
		Phase1Data:  req.Phase1Data,
		Phase3Data:  req.Phase3Data,
		DeckURL:     req.DeckURL,
	}
	if err := h.Queue.Send(c.Request.Context(), msg); err != nil {
		metrics.IncQueueJob("enqueue_failed")
		respond.Failure(c, http.StatusInternalServerError, "failed to enqueue analysis")
		return
	}
	metrics.IncQueueJob("enqueued")
	respond.Success(c, http.StatusAccepted, gin.H{"requestId": requestID})
}

// bindErrorMessage tells a failed field rule apart from a body that is not JSON.
func bindErrorMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			if fe.Field() == "ApplicantID" {
				return ErrApplicantRequired.Error()
			}
		}
		return "invalid request: " + verrs.Error()
	}
	return "invalid request body"
}

// RequestFromMessage rebuilds the analysis request carried by a queue message.
func RequestFromMessage(msg queue.Message) Request {
	return Request{
		ApplicantID: msg.ApplicantID,
		CohortID:    msg.CohortID,
		Phase1Data:  msg.Phase1Data,
		Phase3Data:  msg.Phase3Data,
		DeckURL:     msg.DeckURL,
	}
}

func (h *Handler) now() time.Time {
	if h.Now != nil {
		return h.Now().UTC()
	}
	return time.Now().UTC()
}
