package agent

import (
	"math"
	"strconv"
	"strings"
)

// Normalization defaults and clamp ranges for the raw request.
const (
	defaultDays   = 3
	defaultPeople = 1
	defaultBudget = 300.0

	minDays   = 1
	maxDays   = 30
	minPeople = 1
	maxPeople = 20
	minBudget = 0.0
	maxBudget = 1e7
)

// vndThreshold marks the point above which a budget is treated as Vietnamese
// dong and converted to USD at vndPerUSD. This is a policy heuristic carried
// over from the original service, not a correctness guarantee.
const (
	vndThreshold = 5000.0
	vndPerUSD    = 25000.0
)

// asInt parses an arbitrary value into an int, falling back to def on any
// parse failure and clamping the result to [min, max].
func asInt(v interface{}, def, min, max int) int {
	parsed := def
	switch t := v.(type) {
	case int:
		parsed = t
	case int64:
		parsed = int(t)
	case float64:
		parsed = int(t)
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(t)); err == nil {
			parsed = n
		} else if f, err := strconv.ParseFloat(strings.TrimSpace(t), 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			parsed = int(f)
		}
	}
	if parsed < min {
		return min
	}
	if parsed > max {
		return max
	}
	return parsed
}

// asFloat parses an arbitrary value into a float64, falling back to def on any
// parse failure and clamping the result to [min, max].
func asFloat(v interface{}, def, min, max float64) float64 {
	parsed := def
	switch t := v.(type) {
	case float64:
		parsed = t
	case int:
		parsed = float64(t)
	case int64:
		parsed = float64(t)
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(t), 64); err == nil {
			parsed = f
		}
	}
	// NaN slips past both clamp comparisons; Inf is handled by them.
	if math.IsNaN(parsed) {
		parsed = def
	}
	if parsed < min {
		return min
	}
	if parsed > max {
		return max
	}
	return parsed
}

func asString(v interface{}) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

// asStringList accepts either a comma-separated string or a sequence and
// returns the non-empty trimmed elements in order.
func asStringList(v interface{}) []string {
	var parts []string
	switch t := v.(type) {
	case string:
		parts = strings.Split(t, ",")
	case []string:
		parts = t
	case []interface{}:
		for _, item := range t {
			if s, ok := item.(string); ok {
				parts = append(parts, s)
			}
		}
	}
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// NormalizeRequest turns an untyped payload into a NormalizedRequest. It never
// fails: malformed fields coerce to documented defaults, numeric fields are
// clamped, and the budget is converted to a total USD amount.
func NormalizeRequest(raw map[string]interface{}) NormalizedRequest {
	if raw == nil {
		raw = map[string]interface{}{}
	}
	days := asInt(raw["days"], defaultDays, minDays, maxDays)
	people := asInt(raw["people"], defaultPeople, minPeople, maxPeople)
	budget := asFloat(raw["budget"], defaultBudget, minBudget, maxBudget)

	budgetScope := strings.ToLower(asString(raw["budget_scope"]))
	if budgetScope == "" {
		budgetScope = "total"
	}
	groupType := strings.ToLower(asString(raw["group_type"]))
	if groupType == "" {
		groupType = "group"
	}

	budgetUSD := budget
	if budget > vndThreshold {
		budgetUSD = budget / vndPerUSD
	}
	totalBudget := budgetUSD
	if budgetScope == "per_person" {
		totalBudget = budgetUSD * float64(people)
	}

	return NormalizedRequest{
		Days:        days,
		People:      people,
		Budget:      totalBudget,
		BudgetScope: budgetScope,
		GroupType:   groupType,
		Interests:   asStringList(raw["interests"]),
		Origin:      asString(raw["origin"]),
		Season:      asString(raw["season"]),
		Query:       asString(raw["query"]),
	}
}

// Candidate attribute defaults applied when generation output omits fields.
const (
	defaultCandidateMinDays = 2
	defaultCandidateMaxDays = 5
	defaultCandidateCost    = 40.0
)

// NormalizeCandidate coerces one extracted record into a Candidate, applying
// defaults for missing fields. Records without a non-empty name are rejected.
func NormalizeCandidate(raw map[string]interface{}) (Candidate, bool) {
	name := asString(raw["name"])
	if name == "" {
		return Candidate{}, false
	}
	minD := asInt(raw["min_days"], defaultCandidateMinDays, 1, maxDays)
	maxD := asInt(raw["max_days"], defaultCandidateMaxDays, 1, maxDays)
	if maxD < minD {
		maxD = minD
	}
	return Candidate{
		Name:           name,
		Region:         asString(raw["region"]),
		MinDays:        minD,
		MaxDays:        maxD,
		BaseCostPerDay: asFloat(raw["base_cost_per_day"], defaultCandidateCost, 0, maxBudget),
		BestFor:        asStringList(raw["best_for"]),
		Tags:           asStringList(raw["tags"]),
	}, true
}

// defaultCandidate builds a Candidate for heuristic stages, deriving its
// attributes from the normalized request.
func defaultCandidate(name string, nr NormalizedRequest) Candidate {
	minD := nr.Days - 1
	if minD < 2 {
		minD = 2
	}
	maxD := nr.Days + 1
	if maxD < 3 {
		maxD = 3
	}
	return Candidate{
		Name:           name,
		MinDays:        minD,
		MaxDays:        maxD,
		BaseCostPerDay: defaultCandidateCost,
		BestFor:        []string{nr.GroupType},
		Tags:           nr.Interests,
	}
}
