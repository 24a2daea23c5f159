package agent

import (
	"reflect"
	"testing"
)

func TestNormalizeRequestDefaultsAndClamps(t *testing.T) {
	cases := []struct {
		name string
		raw  map[string]interface{}
		want NormalizedRequest
	}{
		{
			name: "empty payload uses defaults",
			raw:  map[string]interface{}{},
			want: NormalizedRequest{Days: 3, People: 1, Budget: 300, BudgetScope: "total", GroupType: "group", Interests: []string{}},
		},
		{
			name: "days clamped to upper bound",
			raw:  map[string]interface{}{"days": float64(999)},
			want: NormalizedRequest{Days: 30, People: 1, Budget: 300, BudgetScope: "total", GroupType: "group", Interests: []string{}},
		},
		{
			name: "unparseable days falls back to default",
			raw:  map[string]interface{}{"days": "abc"},
			want: NormalizedRequest{Days: 3, People: 1, Budget: 300, BudgetScope: "total", GroupType: "group", Interests: []string{}},
		},
		{
			name: "large budget treated as dong and converted",
			raw:  map[string]interface{}{"budget": float64(6000000)},
			want: NormalizedRequest{Days: 3, People: 1, Budget: 240, BudgetScope: "total", GroupType: "group", Interests: []string{}},
		},
		{
			name: "small budget stays in dollars",
			raw:  map[string]interface{}{"budget": float64(200)},
			want: NormalizedRequest{Days: 3, People: 1, Budget: 200, BudgetScope: "total", GroupType: "group", Interests: []string{}},
		},
		{
			name: "per person budget multiplied by people",
			raw:  map[string]interface{}{"budget": float64(100), "budget_scope": "per_person", "people": float64(4)},
			want: NormalizedRequest{Days: 3, People: 4, Budget: 400, BudgetScope: "per_person", GroupType: "group", Interests: []string{}},
		},
		{
			name: "NaN budget falls back to default",
			raw:  map[string]interface{}{"budget": "NaN"},
			want: NormalizedRequest{Days: 3, People: 1, Budget: 300, BudgetScope: "total", GroupType: "group", Interests: []string{}},
		},
		{
			name: "NaN days falls back to default",
			raw:  map[string]interface{}{"days": "NaN", "people": "-Inf"},
			want: NormalizedRequest{Days: 3, People: 1, Budget: 300, BudgetScope: "total", GroupType: "group", Interests: []string{}},
		},
		{
			name: "infinite budget clamped to upper bound then converted",
			raw:  map[string]interface{}{"budget": "+Inf"},
			want: NormalizedRequest{Days: 3, People: 1, Budget: maxBudget / vndPerUSD, BudgetScope: "total", GroupType: "group", Interests: []string{}},
		},
		{
			name: "interests accept comma separated string",
			raw:  map[string]interface{}{"interests": "food, beaches , ", "group_type": "Family", "origin": " Hanoi "},
			want: NormalizedRequest{Days: 3, People: 1, Budget: 300, BudgetScope: "total", GroupType: "family", Interests: []string{"food", "beaches"}, Origin: "Hanoi"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := NormalizeRequest(tc.raw)
			if got.Interests == nil {
				got.Interests = []string{}
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("NormalizeRequest mismatch:\n got %+v\nwant %+v", got, tc.want)
			}
		})
	}
}

func TestNormalizeRequestNilPayload(t *testing.T) {
	got := NormalizeRequest(nil)
	if got.Days != 3 || got.People != 1 || got.Budget != 300 {
		t.Fatalf("expected defaults for nil payload, got %+v", got)
	}
}

func TestNormalizeRequestIdempotent(t *testing.T) {
	raw := map[string]interface{}{"days": float64(5), "people": float64(2), "budget": float64(500)}
	first := NormalizeRequest(raw)
	second := NormalizeRequest(raw)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("normalization not deterministic: %+v vs %+v", first, second)
	}
}

func TestNormalizeCandidate(t *testing.T) {
	c, ok := NormalizeCandidate(map[string]interface{}{
		"name":              " Hue ",
		"region":            "central",
		"min_days":          float64(4),
		"max_days":          float64(2),
		"base_cost_per_day": float64(55),
		"best_for":          []interface{}{"couple"},
		"tags":              "food,history",
	})
	if !ok {
		t.Fatalf("expected candidate to be accepted")
	}
	if c.Name != "Hue" || c.Region != "central" {
		t.Fatalf("unexpected name/region: %+v", c)
	}
	if c.MinDays != 4 || c.MaxDays != 4 {
		t.Fatalf("expected max_days clamped up to min_days, got %d..%d", c.MinDays, c.MaxDays)
	}
	if c.BaseCostPerDay != 55 {
		t.Fatalf("unexpected cost: %v", c.BaseCostPerDay)
	}
	if len(c.Tags) != 2 || c.Tags[0] != "food" {
		t.Fatalf("unexpected tags: %v", c.Tags)
	}
}

func TestNormalizeCandidateRejectsMissingName(t *testing.T) {
	if _, ok := NormalizeCandidate(map[string]interface{}{"region": "north"}); ok {
		t.Fatalf("expected rejection without a name")
	}
	if _, ok := NormalizeCandidate(map[string]interface{}{"name": "   "}); ok {
		t.Fatalf("expected rejection for blank name")
	}
}

func TestNormalizeCandidateDefaults(t *testing.T) {
	c, ok := NormalizeCandidate(map[string]interface{}{"name": "Sapa"})
	if !ok {
		t.Fatalf("expected candidate to be accepted")
	}
	if c.MinDays != 2 || c.MaxDays != 5 || c.BaseCostPerDay != 40 {
		t.Fatalf("unexpected defaults: %+v", c)
	}
}

func TestDefaultCandidateDerivesFromRequest(t *testing.T) {
	nr := NormalizedRequest{Days: 7, GroupType: "family", Interests: []string{"food"}}
	c := defaultCandidate("Hoi An", nr)
	if c.MinDays != 6 || c.MaxDays != 8 {
		t.Fatalf("expected day window around request, got %d..%d", c.MinDays, c.MaxDays)
	}
	if len(c.BestFor) != 1 || c.BestFor[0] != "family" {
		t.Fatalf("unexpected best_for: %v", c.BestFor)
	}

	short := defaultCandidate("Hanoi", NormalizedRequest{Days: 1})
	if short.MinDays != 2 || short.MaxDays != 3 {
		t.Fatalf("expected floors for short trips, got %d..%d", short.MinDays, short.MaxDays)
	}
}
