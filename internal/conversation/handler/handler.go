// Package handler is the thin HTTP layer over the conversation service. It
// reproduces the legacy response envelopes exactly, so channel integrations
// keep working against the same contract.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mssola/useragent"

	"mia/internal/conversation/models"
	"mia/internal/conversation/service"
	dErrors "mia/pkg/domain-errors"
	"mia/pkg/platform/httputil"
	"mia/pkg/requestcontext"
)

// Service defines the conversation operations the handler depends on.
type Service interface {
	HandleMessage(ctx context.Context, req service.MessageRequest) (service.Result, error)
}

// Handler wires the conversation endpoints to the service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a conversation handler.
func New(svc Service, logger *slog.Logger) *Handler {
	return &Handler{service: svc, logger: logger}
}

// Register mounts the conversation endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/api/v1/conversation/message", h.HandleMessage)
}

// messageRequest is the HTTP request body for POST /api/v1/conversation/message.
type messageRequest struct {
	SessionID  string `json:"sessionId"`
	Message    string `json:"message"`
	CustomerID string `json:"customerId"`
	Channel    string `json:"channel"`
}

// messageResponse is the legacy success envelope.
type messageResponse struct {
	Success   bool         `json:"success"`
	Response  string       `json:"response"`
	State     models.State `json:"state"`
	SessionID string       `json:"sessionId"`
}

// errorResponse is the legacy failure envelope.
type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// HandleMessage handles POST /api/v1/conversation/message.
func (h *Handler) HandleMessage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	// An empty body is treated as an empty request, like the legacy JSON
	// body parser did; it then fails the customerId check below.
	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.logger.WarnContext(ctx, "invalid message request body",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	// First message needs a customer id to open the conversation.
	if req.SessionID == "" && req.CustomerID == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, errorResponse{
			Error: "customerId é obrigatório na primeira mensagem",
		})
		return
	}

	channel := req.Channel
	if channel == "" {
		channel = classifyChannel(r.UserAgent())
	}

	result, err := h.service.HandleMessage(ctx, service.MessageRequest{
		SessionID:  req.SessionID,
		Message:    req.Message,
		CustomerID: req.CustomerID,
		Channel:    channel,
	})
	if err != nil {
		h.writeFailure(ctx, w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, messageResponse{
		Success:   true,
		Response:  result.Response,
		State:     result.State,
		SessionID: result.SessionID,
	})
}

// writeFailure collapses service errors into the legacy envelopes. Client
// input errors keep their message; everything else is a generic 500 so no
// internal detail leaks.
func (h *Handler) writeFailure(ctx context.Context, w http.ResponseWriter, err error) {
	if dErrors.HasCode(err, dErrors.CodeBadRequest) {
		httputil.WriteJSON(w, http.StatusBadRequest, errorResponse{Error: dErrors.Message(err)})
		return
	}
	if errors.Is(err, service.ErrSessionWithoutID) {
		httputil.WriteJSON(w, http.StatusInternalServerError, errorResponse{Error: "Session id not found"})
		return
	}

	h.logger.ErrorContext(ctx, "message handling failed",
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	)
	httputil.WriteJSON(w, http.StatusInternalServerError, errorResponse{Error: "Internal server error"})
}

// HandleHealth handles GET /health.
func HandleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// classifyChannel derives the conversation channel from the User-Agent when
// the caller didn't name one.
func classifyChannel(rawUA string) string {
	if rawUA == "" {
		return "chat"
	}
	ua := useragent.New(rawUA)
	switch {
	case ua.Bot():
		return "bot"
	case ua.Mobile():
		return "mobile"
	default:
		return "web"
	}
}
