package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/leadops/synergy-agents/internal/domain"
	_ "modernc.org/sqlite"
)

// recognizedFactKeys are the lead fact keys usable for similarity matching.
var recognizedFactKeys = map[string]struct{}{
	"project_type":     {},
	"project_stage":    {},
	"development_type": {},
	"region":           {},
}

// SQLiteStore implements Repository using SQLite. All workflow-facing
// operations are reads; the routing application owns the writes.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Open database with WAL mode for better concurrency.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS leads (
		id TEXT PRIMARY KEY,
		project_name TEXT NOT NULL,
		location_text TEXT,
		current_status TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS lead_facts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		lead_id TEXT NOT NULL REFERENCES leads(id),
		fact_key TEXT NOT NULL,
		fact_value TEXT NOT NULL,
		confidence REAL NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_lead_facts_lead ON lead_facts(lead_id);
	CREATE INDEX IF NOT EXISTS idx_lead_facts_key_value ON lead_facts(fact_key, fact_value);

	CREATE TABLE IF NOT EXISTS business_units (
		id TEXT PRIMARY KEY,
		code TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		description TEXT,
		is_active INTEGER NOT NULL DEFAULT 1
	);

	CREATE TABLE IF NOT EXISTS bu_skus (
		id TEXT PRIMARY KEY,
		business_unit_id TEXT NOT NULL REFERENCES business_units(id),
		sku_code TEXT NOT NULL,
		sku_name TEXT NOT NULL,
		sku_category TEXT,
		is_active INTEGER NOT NULL DEFAULT 1
	);
	CREATE INDEX IF NOT EXISTS idx_bu_skus_bu ON bu_skus(business_unit_id);

	CREATE TABLE IF NOT EXISTS routing_rule_sets (
		id TEXT PRIMARY KEY,
		business_unit_id TEXT NOT NULL REFERENCES business_units(id),
		status TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_rule_sets_bu ON routing_rule_sets(business_unit_id);

	CREATE TABLE IF NOT EXISTS routing_rule_conditions (
		id TEXT PRIMARY KEY,
		rule_set_id TEXT NOT NULL REFERENCES routing_rule_sets(id)
	);
	CREATE INDEX IF NOT EXISTS idx_rule_conditions_set ON routing_rule_conditions(rule_set_id);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// GetLeadSnapshot retrieves a lead with its facts ordered by creation time.
func (s *SQLiteStore) GetLeadSnapshot(ctx context.Context, leadID string) (domain.LeadSnapshot, error) {
	query := `
		SELECT id, project_name, location_text, current_status, created_at
		FROM leads WHERE id = ?`

	row := s.db.QueryRowContext(ctx, query, leadID)

	var lead domain.Lead
	var locationText sql.NullString
	var createdAt int64

	err := row.Scan(&lead.ID, &lead.ProjectName, &locationText, &lead.CurrentStatus, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.LeadSnapshot{Facts: []domain.LeadFact{}}, nil
	}
	if err != nil {
		return domain.LeadSnapshot{}, fmt.Errorf("scan lead row: %w", err)
	}

	lead.LocationText = locationText.String
	created := time.Unix(createdAt, 0).UTC()
	lead.CreatedAt = &created

	facts, err := s.listLeadFacts(ctx, leadID)
	if err != nil {
		return domain.LeadSnapshot{}, err
	}

	return domain.LeadSnapshot{Lead: &lead, Facts: facts}, nil
}

func (s *SQLiteStore) listLeadFacts(ctx context.Context, leadID string) ([]domain.LeadFact, error) {
	query := `
		SELECT fact_key, fact_value, confidence
		FROM lead_facts WHERE lead_id = ?
		ORDER BY created_at ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, query, leadID)
	if err != nil {
		return nil, fmt.Errorf("query lead facts: %w", err)
	}
	defer closeRows(rows, "lead facts")

	facts := []domain.LeadFact{}
	for rows.Next() {
		var fact domain.LeadFact
		if err := rows.Scan(&fact.FactKey, &fact.FactValue, &fact.Confidence); err != nil {
			return nil, fmt.Errorf("scan lead fact row: %w", err)
		}
		facts = append(facts, fact)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lead facts: %w", err)
	}

	return facts, nil
}

// ListBusinessUnits retrieves active business units, alphabetical by name.
func (s *SQLiteStore) ListBusinessUnits(ctx context.Context) ([]domain.BusinessUnit, error) {
	query := `
		SELECT id, code, name, description
		FROM business_units
		WHERE is_active = 1
		ORDER BY name ASC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query business units: %w", err)
	}
	defer closeRows(rows, "business units")

	units := []domain.BusinessUnit{}
	for rows.Next() {
		var unit domain.BusinessUnit
		var description sql.NullString
		if err := rows.Scan(&unit.ID, &unit.Code, &unit.Name, &description); err != nil {
			return nil, fmt.Errorf("scan business unit row: %w", err)
		}
		unit.Description = description.String
		units = append(units, unit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate business units: %w", err)
	}

	return units, nil
}

// GetBusinessUnitProfile retrieves a business unit with its catalog counts.
func (s *SQLiteStore) GetBusinessUnitProfile(ctx context.Context, code string) (domain.BusinessUnitProfile, error) {
	query := `
		SELECT id, code, name, description
		FROM business_units
		WHERE code = ? AND is_active = 1`

	row := s.db.QueryRowContext(ctx, query, code)

	var unit domain.BusinessUnit
	var description sql.NullString
	err := row.Scan(&unit.ID, &unit.Code, &unit.Name, &description)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.BusinessUnitProfile{}, nil
	}
	if err != nil {
		return domain.BusinessUnitProfile{}, fmt.Errorf("scan business unit row: %w", err)
	}
	unit.Description = description.String

	profile := domain.BusinessUnitProfile{BusinessUnit: &unit}

	ruleQuery := `
		SELECT COUNT(*), COALESCE(SUM(condition_count), 0)
		FROM (
			SELECT rs.id, COUNT(rc.id) AS condition_count
			FROM routing_rule_sets rs
			LEFT JOIN routing_rule_conditions rc ON rc.rule_set_id = rs.id
			WHERE rs.business_unit_id = ? AND rs.status = 'ACTIVE'
			GROUP BY rs.id
		)`
	if err := s.db.QueryRowContext(ctx, ruleQuery, unit.ID).
		Scan(&profile.ActiveRuleSetCount, &profile.ConditionCount); err != nil {
		return domain.BusinessUnitProfile{}, fmt.Errorf("scan rule counts: %w", err)
	}

	skuQuery := `SELECT COUNT(*) FROM bu_skus WHERE business_unit_id = ? AND is_active = 1`
	if err := s.db.QueryRowContext(ctx, skuQuery, unit.ID).Scan(&profile.ActiveSkuCount); err != nil {
		return domain.BusinessUnitProfile{}, fmt.Errorf("scan sku count: %w", err)
	}

	return profile, nil
}

// ListSkus retrieves active SKUs of an active business unit, ordered by SKU code.
func (s *SQLiteStore) ListSkus(ctx context.Context, businessUnitCode string) ([]domain.Sku, error) {
	query := `
		SELECT sku.id, bu.code, sku.sku_code, sku.sku_name, sku.sku_category
		FROM bu_skus sku
		INNER JOIN business_units bu ON bu.id = sku.business_unit_id
		WHERE bu.code = ? AND bu.is_active = 1 AND sku.is_active = 1
		ORDER BY sku.sku_code ASC`

	rows, err := s.db.QueryContext(ctx, query, businessUnitCode)
	if err != nil {
		return nil, fmt.Errorf("query skus: %w", err)
	}
	defer closeRows(rows, "skus")

	skus := []domain.Sku{}
	for rows.Next() {
		var sku domain.Sku
		var category sql.NullString
		if err := rows.Scan(&sku.ID, &sku.BusinessUnitCode, &sku.SkuCode, &sku.SkuName, &category); err != nil {
			return nil, fmt.Errorf("scan sku row: %w", err)
		}
		sku.SkuCategory = category.String
		skus = append(skus, sku)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate skus: %w", err)
	}

	return skus, nil
}

// FindSimilarLeads ranks leads sharing recognized fact values with the given
// normalized facts, top 5 by match count then recency.
func (s *SQLiteStore) FindSimilarLeads(ctx context.Context, facts map[string]string) ([]domain.SimilarLead, error) {
	var clauses []string
	var params []any
	for key, value := range facts {
		if _, ok := recognizedFactKeys[key]; !ok || value == "" {
			continue
		}
		clauses = append(clauses, "(lf.fact_key = ? AND lf.fact_value = ?)")
		params = append(params, key, value)
	}
	if len(clauses) == 0 {
		return []domain.SimilarLead{}, nil
	}

	query := fmt.Sprintf(`
		SELECT l.id, l.project_name, l.location_text, l.current_status, COUNT(*) AS match_count
		FROM leads l
		INNER JOIN lead_facts lf ON lf.lead_id = l.id
		WHERE %s
		GROUP BY l.id
		ORDER BY match_count DESC, l.created_at DESC
		LIMIT 5`, strings.Join(clauses, " OR "))

	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("query similar leads: %w", err)
	}
	defer closeRows(rows, "similar leads")

	leads := []domain.SimilarLead{}
	for rows.Next() {
		var lead domain.SimilarLead
		var locationText sql.NullString
		if err := rows.Scan(&lead.LeadID, &lead.ProjectName, &locationText, &lead.CurrentStatus, &lead.MatchCount); err != nil {
			return nil, fmt.Errorf("scan similar lead row: %w", err)
		}
		lead.LocationText = locationText.String
		leads = append(leads, lead)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate similar leads: %w", err)
	}

	return leads, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

func closeRows(rows *sql.Rows, what string) {
	if err := rows.Close(); err != nil {
		slog.Warn("failed to close rows", "query", what, "error", err)
	}
}
