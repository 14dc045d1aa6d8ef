package recommend

import (
	"context"
	"math"
	"sort"

	"github.com/leadops/synergy-agents/internal/domain"
	"github.com/leadops/synergy-agents/internal/scoring"
)

// HeuristicStrategy ranks the business-unit catalog with the deterministic
// scoring rules. It is always available and never errors.
type HeuristicStrategy struct{}

// NewHeuristicStrategy creates the heuristic strategy.
func NewHeuristicStrategy() *HeuristicStrategy {
	return &HeuristicStrategy{}
}

type scoredUnit struct {
	unit   domain.BusinessUnit
	score  float64
	reason string
}

// Select scores every catalog unit, sorts by score descending (stable, so
// ties keep catalog order) and keeps the top maxBusinessUnits. The result is
// empty only when the catalog itself is empty.
func (h *HeuristicStrategy) Select(_ context.Context, in Input) ([]domain.BuRecommendation, error) {
	facts := scoring.NormalizeFacts(in.Snapshot.Facts)

	scored := make([]scoredUnit, 0, len(in.BusinessUnits))
	for _, unit := range in.BusinessUnits {
		score, reason := scoring.ScoreBusinessUnit(unit.Code, facts)
		scored = append(scored, scoredUnit{unit: unit, score: score, reason: reason})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})

	if top := in.maxBusinessUnits(); len(scored) > top {
		scored = scored[:top]
	}

	recommendations := make([]domain.BuRecommendation, 0, len(scored))
	for index, entry := range scored {
		role := domain.RoleCrossSell
		if index == 0 {
			role = domain.RolePrimary
		}
		recommendations = append(recommendations, domain.BuRecommendation{
			BusinessUnitCode: entry.unit.Code,
			Role:             role,
			FinalScore:       scoring.Round4(entry.score),
			Confidence:       scoring.Round4(math.Min(0.99, 0.45+entry.score*0.45)),
			ReasonSummary:    entry.reason,
		})
	}
	return recommendations, nil
}
