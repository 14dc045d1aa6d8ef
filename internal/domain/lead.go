package domain

import "time"

// Lead is a prospective project/customer record.
type Lead struct {
	ID            string     `json:"id"`
	ProjectName   string     `json:"projectName"`
	LocationText  string     `json:"locationText"`
	CurrentStatus string     `json:"currentStatus"`
	CreatedAt     *time.Time `json:"createdAt"`
}

// LeadFact is a normalized key/value attribute extracted from a lead.
type LeadFact struct {
	FactKey    string  `json:"factKey"`
	FactValue  string  `json:"factValue"`
	Confidence float64 `json:"confidence"`
}

// LeadSnapshot bundles a lead with its extracted facts. Lead is nil when the
// lead does not exist.
type LeadSnapshot struct {
	Lead  *Lead      `json:"lead"`
	Facts []LeadFact `json:"facts"`
}

// BusinessUnit is a product/service division eligible for cross-sell.
type BusinessUnit struct {
	ID          string `json:"id"`
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// BusinessUnitProfile is a catalog summary for one business unit.
// BusinessUnit is nil when the code is unknown or inactive.
type BusinessUnitProfile struct {
	BusinessUnit       *BusinessUnit `json:"businessUnit"`
	ActiveRuleSetCount int           `json:"activeRuleSetCount"`
	ConditionCount     int           `json:"conditionCount"`
	ActiveSkuCount     int           `json:"activeSkuCount"`
}

// Sku is a sellable catalog item belonging to a business unit.
type Sku struct {
	ID               string `json:"id"`
	BusinessUnitCode string `json:"businessUnitCode"`
	SkuCode          string `json:"skuCode"`
	SkuName          string `json:"skuName"`
	SkuCategory      string `json:"skuCategory"`
}

// SimilarLead is a lead that shares recognized fact values with the current one.
type SimilarLead struct {
	LeadID        string `json:"leadId"`
	ProjectName   string `json:"projectName"`
	LocationText  string `json:"locationText"`
	CurrentStatus string `json:"currentStatus"`
	MatchCount    int    `json:"matchCount"`
}

// MarketSignal is a normalized external search result.
type MarketSignal struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}
