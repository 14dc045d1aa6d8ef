package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/leadops/synergy-agents/internal/domain"
	"github.com/leadops/synergy-agents/internal/workflow"
)

type fakeEngine struct {
	envelope domain.SessionEnvelope
	err      error

	startRequest *domain.StartSessionRequest
	sessionID    string
	stepID       string
	decision     *domain.StepDecisionRequest
}

func (f *fakeEngine) Start(_ context.Context, request domain.StartSessionRequest) (domain.SessionEnvelope, error) {
	f.startRequest = &request
	return f.envelope, f.err
}

func (f *fakeEngine) Decide(_ context.Context, sessionID, stepID string, decision domain.StepDecisionRequest) (domain.SessionEnvelope, error) {
	f.sessionID = sessionID
	f.stepID = stepID
	f.decision = &decision
	return f.envelope, f.err
}

func (f *fakeEngine) Get(sessionID string) (domain.SessionEnvelope, error) {
	f.sessionID = sessionID
	return f.envelope, f.err
}

func newTestRouter(engine Engine) chi.Router {
	r := chi.NewRouter()
	NewSessionHandler(engine).RegisterRoutes(r)
	return r
}

const validStartBody = `{
	"sessionId": "sess-1",
	"routingRunId": "run-1",
	"leadId": "lead-1",
	"triggeredBy": "router",
	"threadId": "thread-1"
}`

func TestStartSession(t *testing.T) {
	t.Parallel()

	engine := &fakeEngine{envelope: domain.SessionEnvelope{
		SessionID: "sess-1",
		Status:    domain.StatusPendingApproval,
	}}
	router := newTestRouter(engine)

	req := httptest.NewRequest(http.MethodPost, "/v1/sessions/start", strings.NewReader(validStartBody))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if engine.startRequest == nil || engine.startRequest.LeadID != "lead-1" {
		t.Fatalf("unexpected engine request: %+v", engine.startRequest)
	}

	var envelope domain.SessionEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.SessionID != "sess-1" || envelope.Status != domain.StatusPendingApproval {
		t.Errorf("unexpected envelope: %+v", envelope)
	}
}

func TestStartSessionValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"invalid json", `{`, "invalid request body"},
		{"missing session id", `{"routingRunId":"r","leadId":"l","triggeredBy":"t","threadId":"th"}`, "sessionId is required"},
		{"missing routing run id", `{"sessionId":"s","leadId":"l","triggeredBy":"t","threadId":"th"}`, "routingRunId is required"},
		{"missing lead id", `{"sessionId":"s","routingRunId":"r","triggeredBy":"t","threadId":"th"}`, "leadId is required"},
		{"missing triggered by", `{"sessionId":"s","routingRunId":"r","leadId":"l","threadId":"th"}`, "triggeredBy is required"},
		{"missing thread id", `{"sessionId":"s","routingRunId":"r","leadId":"l","triggeredBy":"t"}`, "threadId is required"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			engine := &fakeEngine{}
			router := newTestRouter(engine)

			req := httptest.NewRequest(http.MethodPost, "/v1/sessions/start", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
			var body map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if body["error"] != tt.wantErr {
				t.Errorf("expected error %q, got %q", tt.wantErr, body["error"])
			}
			if engine.startRequest != nil {
				t.Error("engine must not be called on invalid input")
			}
		})
	}
}

func TestDecideRoutesParams(t *testing.T) {
	t.Parallel()

	engine := &fakeEngine{envelope: domain.SessionEnvelope{SessionID: "sess-1", Status: domain.StatusRejected}}
	router := newTestRouter(engine)

	body := `{"decision": "REJECT", "reviewerId": "reviewer-1", "reason": "not relevant"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/sessions/sess-1/steps/step-9/decision", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if engine.sessionID != "sess-1" || engine.stepID != "step-9" {
		t.Errorf("unexpected routing: session=%q step=%q", engine.sessionID, engine.stepID)
	}
	if engine.decision == nil || engine.decision.Decision != domain.DecisionReject || engine.decision.Reason != "not relevant" {
		t.Errorf("unexpected decision: %+v", engine.decision)
	}
}

func TestDecideValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"unknown decision", `{"decision": "MAYBE", "reviewerId": "r"}`, "decision must be APPROVE or REJECT"},
		{"missing reviewer", `{"decision": "APPROVE"}`, "reviewerId is required"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			router := newTestRouter(&fakeEngine{})
			req := httptest.NewRequest(http.MethodPost, "/v1/sessions/s/steps/x/decision", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
			var body map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if body["error"] != tt.wantErr {
				t.Errorf("expected error %q, got %q", tt.wantErr, body["error"])
			}
		})
	}
}

func TestDecideNotFoundMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
	}{
		{"unknown session", workflow.ErrSessionNotFound},
		{"stale step", workflow.ErrStepNotFound},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			router := newTestRouter(&fakeEngine{err: tt.err})
			body := `{"decision": "APPROVE", "reviewerId": "r"}`
			req := httptest.NewRequest(http.MethodPost, "/v1/sessions/s/steps/x/decision", strings.NewReader(body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != http.StatusNotFound {
				t.Fatalf("expected 404, got %d", rec.Code)
			}
		})
	}
}

func TestGetSession(t *testing.T) {
	t.Parallel()

	engine := &fakeEngine{envelope: domain.SessionEnvelope{SessionID: "sess-1", Status: domain.StatusCompleted}}
	router := newTestRouter(engine)

	req := httptest.NewRequest(http.MethodGet, "/v1/sessions/sess-1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if engine.sessionID != "sess-1" {
		t.Errorf("unexpected session id %q", engine.sessionID)
	}

	var envelope domain.SessionEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Status != domain.StatusCompleted {
		t.Errorf("unexpected status %s", envelope.Status)
	}
}

func TestGetSessionNotFound(t *testing.T) {
	t.Parallel()

	router := newTestRouter(&fakeEngine{err: workflow.ErrSessionNotFound})
	req := httptest.NewRequest(http.MethodGet, "/v1/sessions/ghost", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
