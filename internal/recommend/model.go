package recommend

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/leadops/synergy-agents/internal/agentrt"
	"github.com/leadops/synergy-agents/internal/domain"
)

// Invoker is the external model runtime dependency of the model strategy.
type Invoker interface {
	Invoke(ctx context.Context, prompt agentrt.Prompt) (json.RawMessage, error)
}

// ModelStrategy delegates business-unit selection to the deep-agent runtime
// and validates its output. Every failure mode yields "no result" rather than
// an error so the source falls through to the heuristic.
type ModelStrategy struct {
	invoker Invoker
}

// NewModelStrategy creates the model-backed strategy. A nil invoker is valid
// and makes the strategy always yield no result.
func NewModelStrategy(invoker Invoker) *ModelStrategy {
	return &ModelStrategy{invoker: invoker}
}

type modelCandidate struct {
	BusinessUnitCode string   `json:"businessUnitCode"`
	FinalScore       *float64 `json:"finalScore"`
	Confidence       *float64 `json:"confidence"`
	ReasonSummary    string   `json:"reasonSummary"`
}

// Select asks the model runtime to pick business units. The response is
// accepted only if it is a JSON object (or a string that parses to one) with a
// buRecommendations list; candidates without a business unit code are dropped.
func (m *ModelStrategy) Select(ctx context.Context, in Input) ([]domain.BuRecommendation, error) {
	if m.invoker == nil {
		return nil, nil
	}

	prompt := agentrt.Prompt{
		Task:          "Select business units for this lead.",
		Policy:        agentrt.SystemPolicy,
		Lead:          in.Snapshot,
		BusinessUnits: in.BusinessUnits,
		Constraints:   in.Constraints,
	}

	raw, err := m.invoker.Invoke(ctx, prompt)
	if err != nil {
		slog.Warn("model runtime invocation failed", "error", err)
		return nil, nil
	}

	candidates, ok := extractCandidates(raw)
	if !ok {
		slog.Warn("model runtime returned an unusable payload")
		return nil, nil
	}

	recommendations := make([]domain.BuRecommendation, 0, len(candidates))
	for _, item := range candidates {
		var candidate modelCandidate
		if err := json.Unmarshal(item, &candidate); err != nil {
			continue
		}
		code := strings.TrimSpace(candidate.BusinessUnitCode)
		if code == "" {
			continue
		}

		role := domain.RoleCrossSell
		if len(recommendations) == 0 {
			role = domain.RolePrimary
		}
		recommendations = append(recommendations, domain.BuRecommendation{
			BusinessUnitCode: code,
			Role:             role,
			FinalScore:       valueOr(candidate.FinalScore, 0.5),
			Confidence:       valueOr(candidate.Confidence, 0.5),
			ReasonSummary:    reasonOr(candidate.ReasonSummary),
		})
	}

	if len(recommendations) == 0 {
		return nil, nil
	}
	if top := in.maxBusinessUnits(); len(recommendations) > top {
		recommendations = recommendations[:top]
	}
	return recommendations, nil
}

// extractCandidates pulls the buRecommendations list out of the raw model
// output, unwrapping one level of JSON string encoding if present.
func extractCandidates(raw json.RawMessage) ([]json.RawMessage, bool) {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(raw, &payload); err != nil {
		var encoded string
		if err := json.Unmarshal(raw, &encoded); err != nil {
			// Not an object and not a string: try the bytes as a JSON
			// document directly, since the runtime returns plain text.
			encoded = string(raw)
		}
		if err := json.Unmarshal([]byte(encoded), &payload); err != nil {
			return nil, false
		}
	}

	listRaw, ok := payload["buRecommendations"]
	if !ok {
		return nil, false
	}
	var candidates []json.RawMessage
	if err := json.Unmarshal(listRaw, &candidates); err != nil {
		return nil, false
	}
	return candidates, true
}

func valueOr(v *float64, fallback float64) float64 {
	if v == nil {
		return fallback
	}
	return *v
}

func reasonOr(reason string) string {
	if reason == "" {
		return "Recommended by deep agent."
	}
	return reason
}
