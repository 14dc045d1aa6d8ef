// Package domain contains core domain types for the synergy agents service.
package domain

// SessionStatus describes the lifecycle state of a delegation session.
type SessionStatus string

const (
	// StatusInProgress is reserved for future multi-step execution; the
	// current workflow always lands on an approval gate or a terminal state.
	StatusInProgress SessionStatus = "IN_PROGRESS"
	// StatusPendingApproval means a delegation step is waiting for a reviewer.
	StatusPendingApproval SessionStatus = "PENDING_APPROVAL"
	// StatusCompleted means the workflow produced a final result.
	StatusCompleted SessionStatus = "COMPLETED"
	// StatusRejected means a reviewer rejected a delegation step.
	StatusRejected SessionStatus = "REJECTED"
	// StatusFailed means the workflow hit an unrecoverable condition.
	StatusFailed SessionStatus = "FAILED"
)

// IsTerminal reports whether no further transitions are possible.
func (s SessionStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusRejected || s == StatusFailed
}

// DecisionType is a reviewer verdict on a pending delegation step.
type DecisionType string

const (
	// DecisionApprove lets the delegated subagent run.
	DecisionApprove DecisionType = "APPROVE"
	// DecisionReject stops the workflow at the current step.
	DecisionReject DecisionType = "REJECT"
)

// Subagent names in the fixed two-stage delegation sequence.
const (
	SubagentBuSelector  = "bu_selector"
	SubagentSkuSelector = "sku_selector"
)

// CoordinatorID identifies the orchestrating agent in the message trail.
const CoordinatorID = "synergy_coordinator"

// PendingStep is a delegation step waiting for reviewer approval.
type PendingStep struct {
	StepID         string `json:"stepId"`
	StepIndex      int    `json:"stepIndex"`
	SubagentName   string `json:"subagentName"`
	RequestPayload any    `json:"requestPayload"`
}

// BuSelectionTask is the request payload attached to the bu_selector step.
type BuSelectionTask struct {
	Objective          string        `json:"objective"`
	Lead               *Lead         `json:"lead"`
	FactsCount         int           `json:"factsCount"`
	BusinessUnitCount  int           `json:"businessUnitCount"`
	SimilarLeadSignals []SimilarLead `json:"similarLeadSignals"`
}

// SkuSelectionTask is the request payload attached to the sku_selector step.
type SkuSelectionTask struct {
	Objective         string                  `json:"objective"`
	BuRecommendations []RecommendationPreview `json:"buRecommendations"`
}

// SessionEnvelope is the caller-facing projection of session state.
type SessionEnvelope struct {
	SessionID     string         `json:"sessionId"`
	Status        SessionStatus  `json:"status"`
	PendingStep   *PendingStep   `json:"pendingStep"`
	AgentMessages []AgentMessage `json:"agentMessages"`
	Draft         Draft          `json:"draft"`
	FinalResult   *FinalResult   `json:"finalResult"`
	Error         string         `json:"error,omitempty"`
}

// Draft is the scratch state accumulated across approval stages.
type Draft struct {
	Constraints       RoutingConstraints `json:"constraints"`
	SimilarLeads      []SimilarLead      `json:"similarLeads"`
	BuRecommendations []BuRecommendation `json:"buRecommendations,omitempty"`
	MarketSignals     []MarketSignal     `json:"marketSignals,omitempty"`
}

// StartSessionRequest asks the engine to open a new delegation session.
type StartSessionRequest struct {
	SessionID    string `json:"sessionId"`
	RoutingRunID string `json:"routingRunId"`
	LeadID       string `json:"leadId"`
	TriggeredBy  string `json:"triggeredBy"`
	ThreadID     string `json:"threadId"`
}

// StepDecisionRequest carries a reviewer verdict for the pending step.
type StepDecisionRequest struct {
	Decision   DecisionType `json:"decision"`
	ReviewerID string       `json:"reviewerId"`
	Reason     string       `json:"reason,omitempty"`
}
