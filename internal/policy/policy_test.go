package policy

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	t.Parallel()

	got := Default()
	if got.MaxBusinessUnits != 3 || got.MaxCrossSell != 2 || got.MaxSkuPerBusinessUnit != 3 {
		t.Errorf("unexpected defaults: %+v", got)
	}
	if got.MinBusinessUnitConfidence != 0.2 {
		t.Errorf("unexpected confidence floor: %f", got.MinBusinessUnitConfidence)
	}
	if got.MessageRules.MaxConversationMessages != 12 || got.MessageRules.MaxSummaryLength != 500 {
		t.Errorf("unexpected message rules: %+v", got.MessageRules)
	}
}

func TestLoadEmptyPathYieldsDefaults(t *testing.T) {
	t.Parallel()

	got, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got != Default() {
		t.Errorf("expected defaults, got %+v", got)
	}
}

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	t.Parallel()

	got, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got != Default() {
		t.Errorf("expected defaults, got %+v", got)
	}
}

func TestLoadMergesOverrides(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "policy.yaml")
	contents := "maxBusinessUnits: 5\nmessageRules:\n  maxSummaryLength: 900\n"
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write policy file: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got.MaxBusinessUnits != 5 {
		t.Errorf("expected override 5, got %d", got.MaxBusinessUnits)
	}
	if got.MessageRules.MaxSummaryLength != 900 {
		t.Errorf("expected override 900, got %d", got.MessageRules.MaxSummaryLength)
	}
	// Untouched fields keep their defaults.
	if got.MaxCrossSell != 2 || got.MaxSkuPerBusinessUnit != 3 || got.MinBusinessUnitConfidence != 0.2 {
		t.Errorf("defaults were lost: %+v", got)
	}
	if got.MessageRules.MaxConversationMessages != 12 {
		t.Errorf("expected default conversation limit, got %d", got.MessageRules.MaxConversationMessages)
	}
}

func TestLoadMalformedFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "policy.yaml")
	if err := os.WriteFile(path, []byte("maxBusinessUnits: [not a number"), 0o600); err != nil {
		t.Fatalf("write policy file: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("expected an error for malformed yaml")
	}
}
