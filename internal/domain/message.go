package domain

// MessageType tags an audit-trail entry by the kind of event it records.
type MessageType string

const (
	// MessageDelegationRequest opens a delegation to a subagent.
	MessageDelegationRequest MessageType = "DELEGATION_REQUEST"
	// MessageDelegationDecision records a reviewer verdict.
	MessageDelegationDecision MessageType = "DELEGATION_DECISION"
	// MessageBuSelectionDraft carries the drafted BU recommendations.
	MessageBuSelectionDraft MessageType = "BU_SELECTION_DRAFT"
	// MessageSkuSelectionDraft closes the SKU proposal stage.
	MessageSkuSelectionDraft MessageType = "SKU_SELECTION_DRAFT"
	// MessageBuProposal summarizes one recommended business unit.
	MessageBuProposal MessageType = "BU_PROPOSAL"
)

// AgentMessage is an immutable audit record. Messages are append-only and
// their creation order is the audit trail.
type AgentMessage struct {
	AgentID      string      `json:"agentId"`
	RecipientID  string      `json:"recipientId,omitempty"`
	MessageType  MessageType `json:"messageType"`
	Content      string      `json:"content"`
	EvidenceRefs Evidence    `json:"evidenceRefs"`
}

// Evidence carries the supporting data attached to an audit message. Each
// message kind populates its own subset of fields.
type Evidence struct {
	StepID          string                  `json:"stepId,omitempty"`
	ThreadID        string                  `json:"threadId,omitempty"`
	ReviewerID      string                  `json:"reviewerId,omitempty"`
	Reason          *string                 `json:"reason,omitempty"`
	Recommendations []RecommendationPreview `json:"recommendations,omitempty"`
	ProposalCount   *int                    `json:"proposalCount,omitempty"`
	Profile         *BusinessUnitProfile    `json:"profile,omitempty"`
}
