package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/tuanvm/tripagent/internal/llm"
)

// Bounds for the flatten stage and generation excerpts.
const (
	minBlobString  = 20
	maxBlobChars   = 8000
	maxTitleCount  = 40
	strictExcerpt  = 2000
	relaxedExcerpt = 4000
	heuristicCap   = 8
)

const extractionTemperature = 0.2

// clip truncates s to at most limit bytes, backing off to a rune boundary so
// the cut never produces invalid UTF-8.
func clip(s string, limit int) string {
	if limit >= len(s) {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}

// Extractor turns raw browse/search output into structured candidates through
// a strictly ordered chain of fallback strategies: strict generation
// extraction, a relaxed retry, a title heuristic, and a free-text phrase
// heuristic. The first strategy to produce at least one candidate wins, so a
// run costs at most two generation calls plus local text processing.
type Extractor struct {
	llm    llm.Provider
	logger *log.Logger
}

// NewExtractor creates an extractor backed by the given generation provider.
func NewExtractor(provider llm.Provider, logger *log.Logger) *Extractor {
	if logger == nil {
		logger = log.New(log.Writer(), "[EXTRACT] ", log.LstdFlags)
	}
	return &Extractor{llm: provider, logger: logger}
}

// flattened is the output of the flatten pass over raw tool results.
type flattened struct {
	blob   string
	titles []string
}

// flattenResults walks every result payload depth-first, gathering long
// string values into one bounded text blob and collecting the short title
// strings separately.
func flattenResults(results []RawToolResult) flattened {
	var flat flattened
	var blob strings.Builder

	appendText := func(s string) {
		s = strings.TrimSpace(s)
		if len(s) < minBlobString || blob.Len() >= maxBlobChars {
			return
		}
		if blob.Len() > 0 {
			blob.WriteByte('\n')
		}
		s = clip(s, maxBlobChars-blob.Len())
		blob.WriteString(s)
	}

	var walk func(v interface{})
	walk = func(v interface{}) {
		switch t := v.(type) {
		case string:
			appendText(t)
		case []interface{}:
			for _, item := range t {
				walk(item)
			}
		case []string:
			for _, item := range t {
				appendText(item)
			}
		case map[string]interface{}:
			keys := make([]string, 0, len(t))
			for k := range t {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				walk(t[k])
			}
		}
	}

	for _, r := range results {
		for _, title := range r.Titles {
			if title = strings.TrimSpace(title); title != "" && len(flat.titles) < maxTitleCount {
				flat.titles = append(flat.titles, title)
			}
		}
		if r.Raw != nil {
			walk(r.Raw)
		} else {
			appendText(r.Text)
		}
	}
	flat.blob = blob.String()
	return flat
}

// Extract runs the fallback chain over the accumulated tool results. An empty
// return value is a valid outcome, not an error. When the flatten pass finds
// no usable text at all, extraction stops before any generation call.
func (e *Extractor) Extract(ctx context.Context, nr NormalizedRequest, results []RawToolResult) []Candidate {
	flat := flattenResults(results)
	if flat.blob == "" {
		return nil
	}

	if out := e.generate(ctx, nr, flat, false); len(out) > 0 {
		return out
	}
	if out := e.generate(ctx, nr, flat, true); len(out) > 0 {
		return out
	}
	if out := titleCandidates(flat.titles, nr); len(out) > 0 {
		return out
	}
	return phraseCandidates(flat.blob, nr)
}

// generate asks the LLM for a JSON array of destination records and
// normalizes whatever can be recovered from the response. Any generation or
// parse failure yields nil so the next strategy can take over.
func (e *Extractor) generate(ctx context.Context, nr NormalizedRequest, flat flattened, relaxed bool) []Candidate {
	if e.llm == nil {
		return nil
	}
	text, err := e.llm.Chat(ctx, extractionMessages(nr, flat, relaxed), extractionTemperature)
	if err != nil {
		e.logger.Printf("generation failed (relaxed=%v): %v", relaxed, err)
		return nil
	}
	items := DecodeCandidateList(text)
	if items == nil {
		e.logger.Printf("generation output not parseable as a list (relaxed=%v)", relaxed)
		return nil
	}
	var out []Candidate
	for _, item := range items {
		if c, ok := NormalizeCandidate(item); ok {
			out = append(out, c)
		}
	}
	return out
}

func extractionMessages(nr NormalizedRequest, flat flattened, relaxed bool) []llm.Message {
	limit := strictExcerpt
	if relaxed {
		limit = relaxedExcerpt
	}
	excerpt := clip(flat.blob, limit)
	titles := flat.titles
	if len(titles) > 10 {
		titles = titles[:10]
	}

	reqJSON, _ := json.Marshal(nr)
	var b strings.Builder
	b.WriteString("Extract travel destination candidates from the search results below. ")
	b.WriteString(`Reply with a JSON array of objects with fields {"name", "region", "min_days", "max_days", "base_cost_per_day", "best_for", "tags"}. `)
	if relaxed {
		b.WriteString("Use reasonable defaults if fields are missing. ")
	} else {
		b.WriteString("Only include destinations explicitly supported by the results. ")
	}
	b.WriteString("No prose outside the JSON array.\n")
	fmt.Fprintf(&b, "Traveler context: %s\n", reqJSON)
	if len(titles) > 0 {
		fmt.Fprintf(&b, "Result titles: %s\n", strings.Join(titles, "; "))
	}
	fmt.Fprintf(&b, "Result text: %s", excerpt)

	return []llm.Message{
		{Role: "system", Content: "You are a travel data extractor. Respond with a JSON array only."},
		{Role: "user", Content: b.String()},
	}
}

var (
	parenYearRe  = regexp.MustCompile(`\(\s*\d{4}\s*\)`)
	digitRe      = regexp.MustCompile(`\d`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// titleBoilerplate lists site, brand, and marketing words stripped from raw
// result titles before they can become destination names.
var titleBoilerplate = map[string]struct{}{
	"best": {}, "top": {}, "guide": {}, "travel": {}, "tourism": {},
	"official": {}, "website": {}, "blog": {}, "review": {}, "reviews": {},
	"tips": {}, "vacation": {}, "holiday": {}, "destinations": {},
	"destination": {}, "itinerary": {}, "booking": {}, "tripadvisor": {},
}

// cleanTitle reduces a raw result title to a plausible destination name.
// Returns "" when nothing useful remains.
func cleanTitle(title string) string {
	for _, sep := range []string{" - ", " | ", "|"} {
		if i := strings.Index(title, sep); i >= 0 {
			title = title[:i]
		}
	}
	if loc := parenYearRe.FindStringIndex(title); loc != nil {
		title = title[:loc[0]]
	}
	words := strings.Fields(title)
	kept := make([]string, 0, len(words))
	for _, w := range words {
		if _, drop := titleBoilerplate[strings.ToLower(strings.Trim(w, ".,:;!?"))]; drop {
			continue
		}
		kept = append(kept, w)
	}
	title = whitespaceRe.ReplaceAllString(strings.Join(kept, " "), " ")
	title = strings.TrimSpace(title)
	if len(title) < 4 || digitRe.MatchString(title) {
		return ""
	}
	return title
}

// titleCandidates derives candidates from result titles, with uniform default
// attributes taken from the request.
func titleCandidates(titles []string, nr NormalizedRequest) []Candidate {
	var out []Candidate
	seen := make(map[string]struct{})
	for _, title := range titles {
		name := cleanTitle(title)
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, defaultCandidate(name, nr))
		if len(out) >= heuristicCap {
			break
		}
	}
	return out
}

var phraseRe = regexp.MustCompile(`[A-Z][a-z]+(?:\s[A-Z][a-z]+){0,3}`)

// phraseStoplist rejects generic travel or marketing phrases and search
// engine names picked up from page chrome.
var phraseStoplist = map[string]struct{}{
	"the": {}, "this": {}, "that": {}, "your": {}, "our": {},
	"best": {}, "top": {}, "travel": {}, "tourism": {}, "guide": {},
	"tips": {}, "vacation": {}, "holiday": {}, "destination": {},
	"destinations": {}, "places": {}, "visit": {}, "search": {},
	"results": {}, "google": {}, "bing": {}, "duckduckgo": {}, "yahoo": {},
}

// phraseCandidates scans the flattened text for capitalized multi-word
// phrases that look like place names.
func phraseCandidates(blob string, nr NormalizedRequest) []Candidate {
	var out []Candidate
	seen := make(map[string]struct{})
	for _, phrase := range phraseRe.FindAllString(blob, -1) {
		phrase = whitespaceRe.ReplaceAllString(strings.TrimSpace(phrase), " ")
		if len(phrase) < 4 {
			continue
		}
		rejected := false
		for _, w := range strings.Fields(phrase) {
			if _, stop := phraseStoplist[strings.ToLower(w)]; stop {
				rejected = true
				break
			}
		}
		if rejected {
			continue
		}
		key := strings.ToLower(phrase)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, defaultCandidate(phrase, nr))
		if len(out) >= heuristicCap {
			break
		}
	}
	return out
}
