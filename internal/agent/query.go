package agent

import (
	"fmt"
	"strings"
)

// BuildSearchQuery constructs the research query for a normalized request.
// When the request carries a free-text query it is used verbatim; otherwise a
// fixed template is augmented, in order, with origin, season, and interests.
func BuildSearchQuery(nr NormalizedRequest, region string) string {
	if nr.Query != "" {
		return nr.Query
	}
	var b strings.Builder
	fmt.Fprintf(&b, "best travel destinations in %s for %d days %s", region, nr.Days, nr.GroupType)
	if nr.Origin != "" {
		fmt.Fprintf(&b, " from %s", nr.Origin)
	}
	if nr.Season != "" {
		fmt.Fprintf(&b, " %s season", nr.Season)
	}
	if len(nr.Interests) > 0 {
		b.WriteString(" " + strings.Join(nr.Interests, " "))
	}
	return b.String()
}
