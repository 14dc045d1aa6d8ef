// Package scoring provides the deterministic fit scores used by the
// heuristic recommendation path. All functions are pure.
package scoring

import (
	"math"
	"strings"

	"github.com/leadops/synergy-agents/internal/domain"
)

const (
	buBaseScore  = 0.36
	skuBaseScore = 0.42
	maxScore     = 0.98
)

// NormalizeFacts flattens lead facts into a key/value map. The first value
// seen for a key wins; entries with an empty key or value are discarded.
func NormalizeFacts(facts []domain.LeadFact) map[string]string {
	normalized := make(map[string]string, len(facts))
	for _, fact := range facts {
		key := strings.TrimSpace(fact.FactKey)
		value := strings.TrimSpace(fact.FactValue)
		if key == "" || value == "" {
			continue
		}
		if _, seen := normalized[key]; seen {
			continue
		}
		normalized[key] = value
	}
	return normalized
}

// ScoreBusinessUnit computes a fit score in [0, 0.98] for a business unit code
// against normalized lead facts, with a human-readable reason summary.
func ScoreBusinessUnit(code string, facts map[string]string) (float64, string) {
	projectType := strings.ToLower(facts["project_type"])
	developmentType := strings.ToLower(facts["development_type"])
	projectStage := strings.ToLower(facts["project_stage"])

	score := buBaseScore
	var reasons []string

	if code == "GCAST" && strings.Contains(projectType, "infrastructure") {
		score += 0.37
		reasons = append(reasons, "Infrastructure profile matches GCAST precast offerings.")
	}
	if code == "SAG" && (developmentType == "fit_out" || developmentType == "refurbishment") {
		score += 0.33
		reasons = append(reasons, "Fit-out/refurbishment scope aligns with SAG delivery.")
	}
	if code == "MAKNA" && (projectStage == "tender" || projectStage == "construction") {
		score += 0.25
		reasons = append(reasons, "Tender/construction timeline favors MAKNA packages.")
	}
	if code == "STARKEN_AAC" && (projectType == "residential" || projectType == "commercial") {
		score += 0.27
		reasons = append(reasons, "Envelope demand suggests AAC product fit.")
	}
	if code == "STARKEN_DRYMIX" && developmentType != "" {
		score += 0.23
		reasons = append(reasons, "Development scope indicates finishing material demand.")
	}

	if len(reasons) == 0 {
		reasons = append(reasons, "General product-service fit from lead metadata.")
	}

	return math.Min(score, maxScore), strings.Join(reasons, " ")
}

// ScoreSku computes a fit score in [0, 0.98] for a SKU described by the
// concatenated code/name/category text against normalized lead facts.
func ScoreSku(name string, facts map[string]string) float64 {
	normalized := strings.ToLower(name)
	projectType := strings.ToLower(facts["project_type"])
	developmentType := strings.ToLower(facts["development_type"])

	score := skuBaseScore

	if containsAny(normalized, "aac", "panel", "block") {
		score += 0.2
	}
	if containsAny(normalized, "drymix", "render", "skim") {
		score += 0.2
	}
	if containsAny(normalized, "drain", "manhole", "precast") {
		score += 0.2
	}
	if containsAny(normalized, "fit", "interior") {
		score += 0.18
	}

	if projectType == "infrastructure" && containsAny(normalized, "drain", "manhole", "precast") {
		score += 0.12
	}
	if (developmentType == "fit_out" || developmentType == "refurbishment") &&
		containsAny(normalized, "fit", "interior", "render", "skim") {
		score += 0.12
	}

	return math.Min(score, maxScore)
}

// SkuText builds the lowercase-scorable text for a catalog SKU.
func SkuText(sku domain.Sku) string {
	return sku.SkuCode + " " + sku.SkuName + " " + sku.SkuCategory
}

// Round4 trims a score to four decimal places for stable wire output.
func Round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

func containsAny(s string, keywords ...string) bool {
	for _, keyword := range keywords {
		if strings.Contains(s, keyword) {
			return true
		}
	}
	return false
}
