package recommend

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/leadops/synergy-agents/internal/agentrt"
	"github.com/leadops/synergy-agents/internal/domain"
)

type fakeInvoker struct {
	raw json.RawMessage
	err error

	prompts []agentrt.Prompt
}

func (f *fakeInvoker) Invoke(_ context.Context, prompt agentrt.Prompt) (json.RawMessage, error) {
	f.prompts = append(f.prompts, prompt)
	return f.raw, f.err
}

func modelInput() Input {
	return Input{
		Snapshot:      domain.LeadSnapshot{Lead: &domain.Lead{ID: "lead-1"}},
		BusinessUnits: catalog("SAG", "GCAST"),
		Constraints:   domain.RoutingConstraints{MaxBusinessUnits: 2},
	}
}

func TestModelStrategyNilInvoker(t *testing.T) {
	t.Parallel()

	got, err := NewModelStrategy(nil).Select(context.Background(), modelInput())
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if got != nil {
		t.Fatalf("expected no result, got %v", got)
	}
}

func TestModelStrategyAcceptsValidPayload(t *testing.T) {
	t.Parallel()

	invoker := &fakeInvoker{raw: json.RawMessage(`{
		"buRecommendations": [
			{"businessUnitCode": "GCAST", "finalScore": 0.8, "confidence": 0.9, "reasonSummary": "Strong precast fit."},
			{"businessUnitCode": "SAG"}
		]
	}`)}

	got, err := NewModelStrategy(invoker).Select(context.Background(), modelInput())
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 recommendations, got %d", len(got))
	}
	if got[0].BusinessUnitCode != "GCAST" || got[0].Role != domain.RolePrimary {
		t.Errorf("unexpected first entry: %+v", got[0])
	}
	if got[0].FinalScore != 0.8 || got[0].Confidence != 0.9 {
		t.Errorf("expected model-provided scores, got %+v", got[0])
	}
	if got[1].Role != domain.RoleCrossSell {
		t.Errorf("expected CROSS_SELL for second entry, got %s", got[1].Role)
	}
	if got[1].FinalScore != 0.5 || got[1].Confidence != 0.5 {
		t.Errorf("expected default scores, got %+v", got[1])
	}
	if got[1].ReasonSummary != "Recommended by deep agent." {
		t.Errorf("expected default reason, got %q", got[1].ReasonSummary)
	}

	if len(invoker.prompts) != 1 {
		t.Fatalf("expected one invocation, got %d", len(invoker.prompts))
	}
	if invoker.prompts[0].Policy == "" {
		t.Error("expected the coordination policy in the prompt")
	}
}

func TestModelStrategyAcceptsStringPayload(t *testing.T) {
	t.Parallel()

	encoded, err := json.Marshal(`{"buRecommendations": [{"businessUnitCode": "SAG"}]}`)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	invoker := &fakeInvoker{raw: encoded}

	got, selErr := NewModelStrategy(invoker).Select(context.Background(), modelInput())
	if selErr != nil {
		t.Fatalf("Select failed: %v", selErr)
	}
	if len(got) != 1 || got[0].BusinessUnitCode != "SAG" {
		t.Fatalf("expected SAG from string payload, got %v", got)
	}
}

func TestModelStrategyDropsCandidatesWithoutCode(t *testing.T) {
	t.Parallel()

	invoker := &fakeInvoker{raw: json.RawMessage(`{
		"buRecommendations": [
			{"businessUnitCode": "  "},
			{"businessUnitCode": "MAKNA"}
		]
	}`)}

	got, err := NewModelStrategy(invoker).Select(context.Background(), modelInput())
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 recommendation, got %d", len(got))
	}
	if got[0].BusinessUnitCode != "MAKNA" || got[0].Role != domain.RolePrimary {
		t.Errorf("expected MAKNA as PRIMARY, got %+v", got[0])
	}
}

func TestModelStrategyTruncatesToCap(t *testing.T) {
	t.Parallel()

	invoker := &fakeInvoker{raw: json.RawMessage(`{
		"buRecommendations": [
			{"businessUnitCode": "A"},
			{"businessUnitCode": "B"},
			{"businessUnitCode": "C"}
		]
	}`)}

	got, err := NewModelStrategy(invoker).Select(context.Background(), modelInput())
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected truncation to 2, got %d", len(got))
	}
}

func TestModelStrategyNoResultCases(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		invoker *fakeInvoker
	}{
		{"invoker error", &fakeInvoker{err: errors.New("boom")}},
		{"not json", &fakeInvoker{raw: json.RawMessage(`definitely not json`)}},
		{"missing list", &fakeInvoker{raw: json.RawMessage(`{"other": 1}`)}},
		{"list not an array", &fakeInvoker{raw: json.RawMessage(`{"buRecommendations": "nope"}`)}},
		{"all candidates dropped", &fakeInvoker{raw: json.RawMessage(`{"buRecommendations": [{"businessUnitCode": ""}]}`)}},
		{"empty list", &fakeInvoker{raw: json.RawMessage(`{"buRecommendations": []}`)}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := NewModelStrategy(tt.invoker).Select(context.Background(), modelInput())
			if err != nil {
				t.Fatalf("Select failed: %v", err)
			}
			if got != nil {
				t.Fatalf("expected no result, got %v", got)
			}
		})
	}
}

func TestSourceFallsBackToHeuristic(t *testing.T) {
	t.Parallel()

	in := factInput(catalog("SAG", "STARKEN_AAC"), map[string]string{"development_type": "fit_out"})

	source := NewSource(NewModelStrategy(&fakeInvoker{err: errors.New("down")}), NewHeuristicStrategy())
	got, err := source.Select(context.Background(), in)
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if len(got) == 0 {
		t.Fatal("expected heuristic recommendations after model failure")
	}
	if got[0].BusinessUnitCode != "SAG" {
		t.Errorf("expected heuristic ranking, got %s first", got[0].BusinessUnitCode)
	}
}

func TestSourcePrefersModelResult(t *testing.T) {
	t.Parallel()

	invoker := &fakeInvoker{raw: json.RawMessage(`{"buRecommendations": [{"businessUnitCode": "GCAST"}]}`)}
	source := NewSource(NewModelStrategy(invoker), NewHeuristicStrategy())

	got, err := source.Select(context.Background(), modelInput())
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if len(got) != 1 || got[0].BusinessUnitCode != "GCAST" {
		t.Fatalf("expected the model result, got %v", got)
	}
}

func TestSourceWithoutPrimary(t *testing.T) {
	t.Parallel()

	source := NewSource(nil, NewHeuristicStrategy())
	got, err := source.Select(context.Background(), factInput(catalog("SAG"), nil))
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if len(got) != 1 || got[0].Role != domain.RolePrimary {
		t.Fatalf("expected a single PRIMARY heuristic entry, got %v", got)
	}
}
