// Package recommend produces ranked business-unit recommendations for a lead.
// Two strategies exist: a model-backed one that delegates to the external
// deep-agent runtime, and a heuristic one built on the scoring rules. The
// source tries the model first and falls back to the heuristic on any failure.
package recommend

import (
	"context"
	"log/slog"

	"github.com/leadops/synergy-agents/internal/domain"
)

// defaultMaxBusinessUnits caps the recommendation list when the routing
// constraints carry no usable value.
const defaultMaxBusinessUnits = 3

// Input bundles the lead context a strategy selects from.
type Input struct {
	Snapshot      domain.LeadSnapshot
	BusinessUnits []domain.BusinessUnit
	Constraints   domain.RoutingConstraints
}

func (in Input) maxBusinessUnits() int {
	if in.Constraints.MaxBusinessUnits > 0 {
		return in.Constraints.MaxBusinessUnits
	}
	return defaultMaxBusinessUnits
}

// Strategy produces ranked recommendations for a lead. A strategy may return
// (nil, nil) to signal it has no result, letting the caller fall through.
type Strategy interface {
	Select(ctx context.Context, in Input) ([]domain.BuRecommendation, error)
}

// Source resolves recommendations through a fixed-order strategy chain.
type Source struct {
	primary  Strategy
	fallback Strategy
}

// NewSource builds the standard model-then-heuristic source. The primary
// strategy may be nil when no model runtime is configured.
func NewSource(primary, fallback Strategy) *Source {
	return &Source{primary: primary, fallback: fallback}
}

// Select returns ranked recommendations, never more than the business-unit
// cap. A primary-strategy failure is absorbed and falls through to the
// fallback; the result is empty only when the fallback itself yields nothing.
func (s *Source) Select(ctx context.Context, in Input) ([]domain.BuRecommendation, error) {
	if s.primary != nil {
		recommendations, err := s.primary.Select(ctx, in)
		if err != nil {
			slog.Warn("primary recommendation strategy failed, falling back", "error", err)
		} else if len(recommendations) > 0 {
			return recommendations, nil
		}
	}
	return s.fallback.Select(ctx, in)
}
