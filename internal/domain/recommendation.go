package domain

// RecommendationRole distinguishes the top pick from cross-sell candidates.
type RecommendationRole string

const (
	// RolePrimary marks the single top business unit choice.
	RolePrimary RecommendationRole = "PRIMARY"
	// RoleCrossSell marks every other recommended business unit.
	RoleCrossSell RecommendationRole = "CROSS_SELL"
)

// BuRecommendation is one ranked business-unit recommendation.
type BuRecommendation struct {
	BusinessUnitCode string             `json:"businessUnitCode"`
	Role             RecommendationRole `json:"role"`
	FinalScore       float64            `json:"finalScore"`
	Confidence       float64            `json:"confidence"`
	ReasonSummary    string             `json:"reasonSummary"`
}

// RecommendationPreview is the compact recommendation shape embedded in audit
// messages and step payloads.
type RecommendationPreview struct {
	BusinessUnitCode string             `json:"businessUnitCode"`
	Role             RecommendationRole `json:"role"`
	Confidence       float64            `json:"confidence"`
}

// Preview projects a recommendation into its audit-trail shape.
func (r BuRecommendation) Preview() RecommendationPreview {
	return RecommendationPreview{
		BusinessUnitCode: r.BusinessUnitCode,
		Role:             r.Role,
		Confidence:       r.Confidence,
	}
}

// SkuProposal is one ranked SKU suggestion within a business unit.
type SkuProposal struct {
	BusinessUnitCode string  `json:"businessUnitCode"`
	BuSkuID          string  `json:"buSkuId"`
	Rank             int     `json:"rank"`
	Confidence       float64 `json:"confidence"`
	Rationale        string  `json:"rationale"`
}

// FinalResult is the immutable outcome snapshot of a completed session.
type FinalResult struct {
	Summary           string             `json:"summary"`
	BuRecommendations []BuRecommendation `json:"buRecommendations"`
	SkuProposals      []SkuProposal      `json:"skuProposals"`
	AgentMessages     []AgentMessage     `json:"agentMessages"`
}

// RoutingConstraints is the static routing policy applied to a session.
type RoutingConstraints struct {
	MaxBusinessUnits          int          `json:"maxBusinessUnits" yaml:"maxBusinessUnits"`
	MaxCrossSell              int          `json:"maxCrossSell" yaml:"maxCrossSell"`
	MaxSkuPerBusinessUnit     int          `json:"maxSkuPerBusinessUnit" yaml:"maxSkuPerBusinessUnit"`
	MinBusinessUnitConfidence float64      `json:"minBusinessUnitConfidence" yaml:"minBusinessUnitConfidence"`
	MessageRules              MessageRules `json:"messageRules" yaml:"messageRules"`
}

// MessageRules bounds conversation size in the routing policy.
type MessageRules struct {
	MaxConversationMessages int `json:"maxConversationMessages" yaml:"maxConversationMessages"`
	MaxSummaryLength        int `json:"maxSummaryLength" yaml:"maxSummaryLength"`
}
