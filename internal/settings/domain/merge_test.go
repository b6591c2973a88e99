package domain

import "testing"

func TestDeepMergePreservesNestedSiblings(t *testing.T) {
	base := map[string]any{
		"pricing": map[string]any{
			"minimum_job_price": 150.0,
			"base_rates": map[string]any{
				"concrete": 0.15,
				"brick":    0.18,
			},
		},
	}
	override := map[string]any{
		"pricing": map[string]any{
			"base_rates": map[string]any{
				"concrete": 0.20,
			},
		},
	}

	merged := DeepMerge(base, override)

	pricing := merged["pricing"].(map[string]any)
	rates := pricing["base_rates"].(map[string]any)

	if got := rates["concrete"]; got != 0.20 {
		t.Errorf("concrete = %v, want 0.20", got)
	}
	if got := rates["brick"]; got != 0.18 {
		t.Errorf("brick = %v, want 0.18 (sibling must survive the merge)", got)
	}
	if got := pricing["minimum_job_price"]; got != 150.0 {
		t.Errorf("minimum_job_price = %v, want 150.0", got)
	}
}

func TestDeepMergeDoesNotMutateInputs(t *testing.T) {
	base := map[string]any{
		"pricing": map[string]any{"base_rates": map[string]any{"concrete": 0.15}},
	}
	override := map[string]any{
		"pricing": map[string]any{"base_rates": map[string]any{"concrete": 0.20}},
	}

	_ = DeepMerge(base, override)

	baseRates := base["pricing"].(map[string]any)["base_rates"].(map[string]any)
	if baseRates["concrete"] != 0.15 {
		t.Errorf("base mutated: concrete = %v", baseRates["concrete"])
	}
}

func TestDeepMergeReplacesListsWholesale(t *testing.T) {
	base := map[string]any{
		"scheduling": map[string]any{
			"working_days": []any{"monday", "tuesday", "wednesday"},
		},
	}
	override := map[string]any{
		"scheduling": map[string]any{
			"working_days": []any{"saturday"},
		},
	}

	merged := DeepMerge(base, override)

	days := merged["scheduling"].(map[string]any)["working_days"].([]any)
	if len(days) != 1 || days[0] != "saturday" {
		t.Errorf("working_days = %v, want [saturday]", days)
	}
}

func TestDeepMergeAddsNewKeys(t *testing.T) {
	base := map[string]any{"pricing": map[string]any{"currency": "USD"}}
	override := map[string]any{
		"pricing": map[string]any{"tax_rate_percent": 9.5},
		"weather": map[string]any{"wind_speed_limit_mph": 20.0},
	}

	merged := DeepMerge(base, override)

	pricing := merged["pricing"].(map[string]any)
	if pricing["currency"] != "USD" || pricing["tax_rate_percent"] != 9.5 {
		t.Errorf("pricing = %v", pricing)
	}
	if _, ok := merged["weather"]; !ok {
		t.Error("new top-level key dropped")
	}
}

func TestDeepMergeScalarOverMapReplaces(t *testing.T) {
	base := map[string]any{"dm": map[string]any{"auto_response_enabled": true}}
	override := map[string]any{"dm": "disabled"}

	merged := DeepMerge(base, override)

	if merged["dm"] != "disabled" {
		t.Errorf("dm = %v, want scalar replacement", merged["dm"])
	}
}
