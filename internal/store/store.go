// Package store provides read-only access to the lead and catalog data the
// routing application maintains.
package store

import (
	"context"

	"github.com/leadops/synergy-agents/internal/domain"
)

// Repository defines the read model consumed by the delegation workflow.
type Repository interface {
	// GetLeadSnapshot retrieves a lead with its facts. The snapshot's Lead
	// is nil when the lead does not exist.
	GetLeadSnapshot(ctx context.Context, leadID string) (domain.LeadSnapshot, error)

	// ListBusinessUnits retrieves active business units, alphabetical by name.
	ListBusinessUnits(ctx context.Context) ([]domain.BusinessUnit, error)

	// GetBusinessUnitProfile retrieves a business unit with its active
	// rule-set, condition and SKU counts. The profile's BusinessUnit is nil
	// when the code is unknown or inactive.
	GetBusinessUnitProfile(ctx context.Context, code string) (domain.BusinessUnitProfile, error)

	// ListSkus retrieves the active SKUs of an active business unit,
	// ordered by SKU code.
	ListSkus(ctx context.Context, businessUnitCode string) ([]domain.Sku, error)

	// FindSimilarLeads retrieves up to five leads sharing recognized fact
	// values with the given normalized facts, ranked by match count then
	// recency. Returns an empty slice when no recognized key is present.
	FindSimilarLeads(ctx context.Context, facts map[string]string) ([]domain.SimilarLead, error)

	// Ping verifies database connectivity.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
