// Package workflow implements the human-supervised delegation workflow: a
// two-stage session state machine that sequences business-unit and SKU
// selection behind reviewer approval gates and keeps an auditable message
// trail.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/leadops/synergy-agents/internal/domain"
	"github.com/leadops/synergy-agents/internal/recommend"
	"github.com/leadops/synergy-agents/internal/scoring"
	"github.com/leadops/synergy-agents/internal/store"
)

var (
	// ErrSessionNotFound is returned for decisions or reads on unknown sessions.
	ErrSessionNotFound = errors.New("session not found")
	// ErrStepNotFound is returned when a decision targets a step that is not
	// the current pending step. Stale and duplicate decisions land here.
	ErrStepNotFound = errors.New("pending delegation step not found")
)

// skusPerBusinessUnit caps SKU proposals per approved business unit.
const skusPerBusinessUnit = 3

// Selector resolves business-unit recommendations for a lead.
type Selector interface {
	Select(ctx context.Context, in recommend.Input) ([]domain.BuRecommendation, error)
}

// MarketSearcher looks up external market signals. Implementations absorb
// their own failures and return an empty slice instead of an error.
type MarketSearcher interface {
	Search(ctx context.Context, query string) []domain.MarketSignal
}

// Engine owns per-session workflow state and drives the approval-gated
// transitions. Sessions live in memory for the lifetime of the process.
type Engine struct {
	repo        store.Repository
	selector    Selector
	market      MarketSearcher
	constraints domain.RoutingConstraints
	sessions    *SessionStore
}

// NewEngine creates a workflow engine. market may be nil when the
// market-signal feature is disabled.
func NewEngine(repo store.Repository, selector Selector, market MarketSearcher, constraints domain.RoutingConstraints) *Engine {
	return &Engine{
		repo:        repo,
		selector:    selector,
		market:      market,
		constraints: constraints,
		sessions:    NewSessionStore(),
	}
}

func newStep(subagentName string, stepIndex int, payload any) *domain.PendingStep {
	return &domain.PendingStep{
		StepID:         uuid.New().String(),
		StepIndex:      stepIndex,
		SubagentName:   subagentName,
		RequestPayload: payload,
	}
}

// Start opens a new delegation session for a lead and parks it at the first
// approval gate. A missing lead yields a session already in FAILED state.
func (e *Engine) Start(ctx context.Context, request domain.StartSessionRequest) (domain.SessionEnvelope, error) {
	snapshot, err := e.repo.GetLeadSnapshot(ctx, request.LeadID)
	if err != nil {
		return domain.SessionEnvelope{}, fmt.Errorf("fetch lead snapshot: %w", err)
	}
	businessUnits, err := e.repo.ListBusinessUnits(ctx)
	if err != nil {
		return domain.SessionEnvelope{}, fmt.Errorf("list business units: %w", err)
	}

	if snapshot.Lead == nil {
		failed := &session{
			request:       request,
			status:        domain.StatusFailed,
			snapshot:      snapshot,
			businessUnits: businessUnits,
			errText:       "Lead snapshot not found.",
		}
		e.sessions.put(request.SessionID, failed)
		slog.Error("Session start failed: lead not found",
			"session_id", request.SessionID,
			"lead_id", request.LeadID,
			"routing_run_id", request.RoutingRunID,
		)
		failed.mu.Lock()
		defer failed.mu.Unlock()
		return failed.envelope(), nil
	}

	facts := scoring.NormalizeFacts(snapshot.Facts)
	similar, err := e.repo.FindSimilarLeads(ctx, facts)
	if err != nil {
		return domain.SessionEnvelope{}, fmt.Errorf("find similar leads: %w", err)
	}

	firstStep := newStep(domain.SubagentBuSelector, 1, domain.BuSelectionTask{
		Objective:          "Select up to 3 business units for cross-sell.",
		Lead:               snapshot.Lead,
		FactsCount:         len(snapshot.Facts),
		BusinessUnitCount:  len(businessUnits),
		SimilarLeadSignals: similar,
	})

	sess := &session{
		request:       request,
		status:        domain.StatusPendingApproval,
		snapshot:      snapshot,
		businessUnits: businessUnits,
		pendingStep:   firstStep,
		draft: domain.Draft{
			Constraints:  e.constraints,
			SimilarLeads: similar,
		},
		messages: []domain.AgentMessage{
			{
				AgentID:     domain.CoordinatorID,
				RecipientID: domain.SubagentBuSelector,
				MessageType: domain.MessageDelegationRequest,
				Content:     "Requesting BU selection review for this lead.",
				EvidenceRefs: domain.Evidence{
					StepID:   firstStep.StepID,
					ThreadID: request.ThreadID,
				},
			},
		},
	}

	e.sessions.put(request.SessionID, sess)
	slog.Info("Session started and waiting for approval",
		"session_id", request.SessionID,
		"routing_run_id", request.RoutingRunID,
		"lead_id", request.LeadID,
		"pending_step_id", firstStep.StepID,
		"pending_subagent", firstStep.SubagentName,
		"facts_count", len(snapshot.Facts),
		"business_unit_count", len(businessUnits),
	)

	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.envelope(), nil
}

// Decide applies a reviewer verdict to the session's pending step. A decision
// for an unknown session or a non-current step fails without modifying state.
func (e *Engine) Decide(ctx context.Context, sessionID, stepID string, decision domain.StepDecisionRequest) (domain.SessionEnvelope, error) {
	sess, ok := e.sessions.get(sessionID)
	if !ok {
		slog.Warn("Decision received for unknown session", "session_id", sessionID, "step_id", stepID)
		return domain.SessionEnvelope{}, ErrSessionNotFound
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	pending := sess.pendingStep
	if pending == nil || pending.StepID != stepID {
		pendingID := ""
		if pending != nil {
			pendingID = pending.StepID
		}
		slog.Warn("Decision step mismatch",
			"session_id", sessionID,
			"requested_step_id", stepID,
			"pending_step_id", pendingID,
		)
		return domain.SessionEnvelope{}, ErrStepNotFound
	}

	slog.Info("Applying delegation decision",
		"session_id", sessionID,
		"step_id", stepID,
		"subagent", pending.SubagentName,
		"decision", decision.Decision,
		"reviewer", decision.ReviewerID,
	)

	reason := decision.Reason
	sess.messages = append(sess.messages, domain.AgentMessage{
		AgentID:     domain.CoordinatorID,
		RecipientID: pending.SubagentName,
		MessageType: domain.MessageDelegationDecision,
		Content:     fmt.Sprintf("Synergy decision for %s: %s.", pending.SubagentName, decision.Decision),
		EvidenceRefs: domain.Evidence{
			StepID:     pending.StepID,
			ReviewerID: decision.ReviewerID,
			Reason:     &reason,
		},
	})

	if decision.Decision == domain.DecisionReject {
		sess.status = domain.StatusRejected
		sess.pendingStep = nil
		if decision.Reason != "" {
			sess.errText = decision.Reason
		} else {
			sess.errText = fmt.Sprintf("Delegation rejected by %s.", decision.ReviewerID)
		}
		slog.Info("Delegation rejected",
			"session_id", sessionID,
			"step_id", stepID,
			"reviewer", decision.ReviewerID,
			"reason", decision.Reason,
		)
		return sess.envelope(), nil
	}

	switch pending.SubagentName {
	case domain.SubagentBuSelector:
		return e.completeBuSelection(ctx, sess, stepID)
	case domain.SubagentSkuSelector:
		return e.completeSkuSelection(ctx, sess)
	default:
		sess.status = domain.StatusFailed
		sess.pendingStep = nil
		sess.errText = fmt.Sprintf("Unsupported subagent: %s.", pending.SubagentName)
		slog.Error("Session failed due to unsupported subagent",
			"session_id", sessionID,
			"subagent", pending.SubagentName,
		)
		return sess.envelope(), nil
	}
}

// completeBuSelection runs the recommendation source and opens the SKU
// approval gate. Callers hold the session mutex.
func (e *Engine) completeBuSelection(ctx context.Context, sess *session, stepID string) (domain.SessionEnvelope, error) {
	constraints := sess.draft.Constraints
	if constraints.MaxBusinessUnits == 0 {
		constraints = e.constraints
	}

	recommendations, err := e.selector.Select(ctx, recommend.Input{
		Snapshot:      sess.snapshot,
		BusinessUnits: sess.businessUnits,
		Constraints:   constraints,
	})
	if err != nil {
		slog.Warn("Recommendation selection errored", "session_id", sess.request.SessionID, "error", err)
	}

	if len(recommendations) == 0 {
		sess.status = domain.StatusFailed
		sess.pendingStep = nil
		sess.errText = "No eligible business unit recommendations generated."
		slog.Error("BU selection failed with no recommendations",
			"session_id", sess.request.SessionID,
			"step_id", stepID,
		)
		return sess.envelope(), nil
	}

	sess.draft.BuRecommendations = recommendations

	preview := make([]domain.RecommendationPreview, 0, len(recommendations))
	codes := make([]string, 0, len(recommendations))
	for _, recommendation := range recommendations {
		preview = append(preview, recommendation.Preview())
		codes = append(codes, recommendation.BusinessUnitCode)
	}

	sess.messages = append(sess.messages, domain.AgentMessage{
		AgentID:      domain.SubagentBuSelector,
		RecipientID:  domain.CoordinatorID,
		MessageType:  domain.MessageBuSelectionDraft,
		Content:      "BU selector prepared draft recommendations.",
		EvidenceRefs: domain.Evidence{Recommendations: preview},
	})

	nextStep := newStep(domain.SubagentSkuSelector, 2, domain.SkuSelectionTask{
		Objective:         "Select SKU proposals for approved business units.",
		BuRecommendations: preview,
	})
	sess.pendingStep = nextStep
	sess.status = domain.StatusPendingApproval

	slog.Info("BU draft completed; waiting for SKU step approval",
		"session_id", sess.request.SessionID,
		"next_step_id", nextStep.StepID,
		"next_subagent", nextStep.SubagentName,
		"selected_bu_codes", codes,
	)
	return sess.envelope(), nil
}

// completeSkuSelection builds SKU proposals for the approved business units
// and finishes the session. Callers hold the session mutex.
func (e *Engine) completeSkuSelection(ctx context.Context, sess *session) (domain.SessionEnvelope, error) {
	facts := scoring.NormalizeFacts(sess.snapshot.Facts)
	recommendations := sess.draft.BuRecommendations

	proposals, err := e.buildSkuProposals(ctx, facts, recommendations)
	if err != nil {
		return domain.SessionEnvelope{}, err
	}

	if e.market != nil {
		topic := facts["project_type"]
		if topic == "" {
			topic = "construction"
		}
		query := fmt.Sprintf("Malaysia %s construction demand trends", topic)
		sess.draft.MarketSignals = e.market.Search(ctx, query)
	}

	summary := "Synergy coordinator completed BU and SKU delegation with human approvals."
	if len(recommendations) > 0 {
		codes := make([]string, 0, len(recommendations))
		for _, recommendation := range recommendations {
			codes = append(codes, recommendation.BusinessUnitCode)
		}
		summary += " Selected BUs: " + strings.Join(codes, ", ")
	}

	// The final trail snapshots the messages so far plus the closing draft
	// note; the BU_PROPOSAL messages below land on the live session only.
	proposalCount := len(proposals)
	finalMessages := make([]domain.AgentMessage, len(sess.messages), len(sess.messages)+1)
	copy(finalMessages, sess.messages)
	finalMessages = append(finalMessages, domain.AgentMessage{
		AgentID:      domain.SubagentSkuSelector,
		RecipientID:  domain.CoordinatorID,
		MessageType:  domain.MessageSkuSelectionDraft,
		Content:      "SKU selector finalized proposal set.",
		EvidenceRefs: domain.Evidence{ProposalCount: &proposalCount},
	})

	finalResult := &domain.FinalResult{
		Summary:           summary,
		BuRecommendations: recommendations,
		SkuProposals:      proposals,
		AgentMessages:     finalMessages,
	}

	for _, recommendation := range recommendations {
		profile, err := e.repo.GetBusinessUnitProfile(ctx, recommendation.BusinessUnitCode)
		if err != nil {
			return domain.SessionEnvelope{}, fmt.Errorf("fetch business unit profile: %w", err)
		}
		sess.messages = append(sess.messages, domain.AgentMessage{
			AgentID:      strings.ToLower(recommendation.BusinessUnitCode) + "_agent",
			RecipientID:  domain.CoordinatorID,
			MessageType:  domain.MessageBuProposal,
			Content:      recommendation.ReasonSummary,
			EvidenceRefs: domain.Evidence{Profile: &profile},
		})
	}

	sess.status = domain.StatusCompleted
	sess.pendingStep = nil
	sess.finalResult = finalResult

	slog.Info("Session completed with final recommendations",
		"session_id", sess.request.SessionID,
		"bu_count", len(recommendations),
		"sku_count", len(proposals),
	)
	return sess.envelope(), nil
}

// buildSkuProposals scores each approved business unit's catalog and keeps
// the top SKUs per unit, ranked from 1.
func (e *Engine) buildSkuProposals(ctx context.Context, facts map[string]string, recommendations []domain.BuRecommendation) ([]domain.SkuProposal, error) {
	proposals := []domain.SkuProposal{}

	for _, recommendation := range recommendations {
		skus, err := e.repo.ListSkus(ctx, recommendation.BusinessUnitCode)
		if err != nil {
			return nil, fmt.Errorf("list skus for %s: %w", recommendation.BusinessUnitCode, err)
		}

		ranked := rankSkus(skus, facts)
		if len(ranked) > skusPerBusinessUnit {
			ranked = ranked[:skusPerBusinessUnit]
		}

		for index, sku := range ranked {
			confidence := scoring.ScoreSku(scoring.SkuText(sku), facts)
			proposals = append(proposals, domain.SkuProposal{
				BusinessUnitCode: recommendation.BusinessUnitCode,
				BuSkuID:          sku.ID,
				Rank:             index + 1,
				Confidence:       scoring.Round4(confidence),
				Rationale: fmt.Sprintf("%s aligns with lead context and %s scope.",
					sku.SkuName, recommendation.BusinessUnitCode),
			})
		}
	}

	return proposals, nil
}

// rankSkus sorts a catalog by SKU fit score descending, stable on ties so the
// catalog's SKU-code order survives.
func rankSkus(skus []domain.Sku, facts map[string]string) []domain.Sku {
	ranked := make([]domain.Sku, len(skus))
	copy(ranked, skus)
	sort.SliceStable(ranked, func(i, j int) bool {
		return scoring.ScoreSku(scoring.SkuText(ranked[i]), facts) >
			scoring.ScoreSku(scoring.SkuText(ranked[j]), facts)
	})
	return ranked
}

// Get returns the current session projection.
func (e *Engine) Get(sessionID string) (domain.SessionEnvelope, error) {
	sess, ok := e.sessions.get(sessionID)
	if !ok {
		return domain.SessionEnvelope{}, ErrSessionNotFound
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.envelope(), nil
}
