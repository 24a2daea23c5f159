package agent

import "math"

// budgetSlack lets estimates exceed the stated budget by 20% before a
// candidate is filtered out.
const budgetSlack = 1.2

// fallbackLimit caps how many unfiltered candidates are returned when the
// filter would otherwise empty a non-empty set.
const fallbackLimit = 5

// groupMultiplier returns the cost multiplier for a group type. Unrecognized
// group types use 1.0.
func groupMultiplier(groupType string) float64 {
	switch groupType {
	case "solo":
		return 1.10
	case "couple":
		return 1.00
	case "family":
		return 0.95
	case "group":
		return 0.90
	default:
		return 1.00
	}
}

// EstimateTripCost computes the deterministic trip cost estimate, rounded to
// two decimal places.
func EstimateTripCost(days, people int, baseCostPerDay float64, groupType string) float64 {
	cost := float64(days) * float64(people) * baseCostPerDay * groupMultiplier(groupType)
	return math.Round(cost*100) / 100
}

// ScoreAndFilter attaches cost estimates to all candidates and keeps those
// matching the trip duration and budget. If filtering empties a non-empty
// candidate set, the first few unfiltered candidates are returned instead so
// the caller always has something to present.
func ScoreAndFilter(nr NormalizedRequest, candidates []Candidate) []ScoredCandidate {
	if len(candidates) == 0 {
		return nil
	}
	scored := make([]ScoredCandidate, 0, len(candidates))
	for _, c := range candidates {
		scored = append(scored, ScoredCandidate{
			Candidate:     c,
			EstimatedCost: EstimateTripCost(nr.Days, nr.People, c.BaseCostPerDay, nr.GroupType),
		})
	}

	var filtered []ScoredCandidate
	for _, sc := range scored {
		if nr.Days < sc.MinDays || nr.Days > sc.MaxDays {
			continue
		}
		if sc.EstimatedCost > nr.Budget*budgetSlack {
			continue
		}
		filtered = append(filtered, sc)
	}
	if len(filtered) > 0 {
		return filtered
	}
	if len(scored) > fallbackLimit {
		scored = scored[:fallbackLimit]
	}
	return scored
}
