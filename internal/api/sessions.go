package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/leadops/synergy-agents/internal/domain"
	"github.com/leadops/synergy-agents/internal/workflow"
)

// Engine is the workflow surface the session handler drives.
type Engine interface {
	Start(ctx context.Context, request domain.StartSessionRequest) (domain.SessionEnvelope, error)
	Decide(ctx context.Context, sessionID, stepID string, decision domain.StepDecisionRequest) (domain.SessionEnvelope, error)
	Get(sessionID string) (domain.SessionEnvelope, error)
}

// SessionHandler exposes the delegation workflow over HTTP.
type SessionHandler struct {
	engine Engine
}

// NewSessionHandler creates a session handler.
func NewSessionHandler(engine Engine) *SessionHandler {
	return &SessionHandler{engine: engine}
}

// RegisterRoutes registers the session routes.
func (h *SessionHandler) RegisterRoutes(r chi.Router) {
	r.Route("/v1/sessions", func(r chi.Router) {
		r.Post("/start", h.Start)
		r.Post("/{sessionID}/steps/{stepID}/decision", h.Decide)
		r.Get("/{sessionID}", h.Get)
	})
}

// Start opens a new delegation session.
func (h *SessionHandler) Start(w http.ResponseWriter, r *http.Request) {
	var request domain.StartSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validateStartRequest(request); err != nil {
		Error(w, http.StatusBadRequest, err.Error())
		return
	}

	envelope, err := h.engine.Start(r.Context(), request)
	if err != nil {
		slog.Error("Failed to start session", "error", err, "session_id", request.SessionID)
		Error(w, http.StatusInternalServerError, err.Error())
		return
	}

	JSON(w, http.StatusOK, envelope)
}

// Decide applies a reviewer verdict to a pending delegation step.
func (h *SessionHandler) Decide(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	stepID := chi.URLParam(r, "stepID")

	var decision domain.StepDecisionRequest
	if err := json.NewDecoder(r.Body).Decode(&decision); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validateDecision(decision); err != nil {
		Error(w, http.StatusBadRequest, err.Error())
		return
	}

	envelope, err := h.engine.Decide(r.Context(), sessionID, stepID, decision)
	if err != nil {
		if errors.Is(err, workflow.ErrSessionNotFound) || errors.Is(err, workflow.ErrStepNotFound) {
			Error(w, http.StatusNotFound, err.Error())
			return
		}
		slog.Error("Failed to apply decision", "error", err, "session_id", sessionID, "step_id", stepID)
		Error(w, http.StatusInternalServerError, err.Error())
		return
	}

	JSON(w, http.StatusOK, envelope)
}

// Get returns the current session projection.
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	envelope, err := h.engine.Get(sessionID)
	if err != nil {
		if errors.Is(err, workflow.ErrSessionNotFound) {
			Error(w, http.StatusNotFound, err.Error())
			return
		}
		slog.Error("Failed to get session", "error", err, "session_id", sessionID)
		Error(w, http.StatusInternalServerError, err.Error())
		return
	}

	JSON(w, http.StatusOK, envelope)
}

func validateStartRequest(request domain.StartSessionRequest) error {
	switch {
	case request.SessionID == "":
		return errors.New("sessionId is required")
	case request.RoutingRunID == "":
		return errors.New("routingRunId is required")
	case request.LeadID == "":
		return errors.New("leadId is required")
	case request.TriggeredBy == "":
		return errors.New("triggeredBy is required")
	case request.ThreadID == "":
		return errors.New("threadId is required")
	}
	return nil
}

func validateDecision(decision domain.StepDecisionRequest) error {
	if decision.Decision != domain.DecisionApprove && decision.Decision != domain.DecisionReject {
		return errors.New("decision must be APPROVE or REJECT")
	}
	if decision.ReviewerID == "" {
		return errors.New("reviewerId is required")
	}
	return nil
}
