// Package constraint turns hard-constraint DSL snippets into sparse
// constraint records.
//
// The DSL is quasi-code that assigns a boolean to result. It is matched
// against a fixed table of patterns rather than parsed as a language: text no
// pattern recognises leaves its key unconstrained and never fails the parse.
package constraint

import (
	"regexp"
	"strings"
)

// Result is the outcome of parsing one DSL expression.
type Result struct {
	// Merged is parsed from the whole text. Its AllSatisfy field tells
	// whether every group must hold (true) or any one of them (false).
	Merged Record `json:"merged"`
	// Groups holds one record per disjunct, or just Merged when the text
	// carries no disjunction.
	Groups []Record `json:"groups"`
}

var appendRe = regexp.MustCompile(`\bresult_list\s*\.\s*append\(\s*result\s*\)`)

// Parse extracts the constraints in dsl. It never fails.
func Parse(dsl string, qc QueryContext) Result {
	merged := parseSnippet(dsl, qc)

	chunks := appendRe.Split(dsl, -1)
	if !strings.Contains(dsl, "result_list") || len(chunks) < 2 {
		merged.AllSatisfy = Constrained(true)
		return Result{Merged: merged, Groups: []Record{merged}}
	}

	merged.AllSatisfy = Constrained(false)
	// Text after the last append only combines the list; it is not a disjunct.
	groups := make([]Record, 0, len(chunks)-1)
	for _, chunk := range chunks[:len(chunks)-1] {
		groups = append(groups, parseSnippet(chunk, qc))
	}
	return Result{Merged: merged, Groups: groups}
}

// ParseLines joins lines with newlines and parses them as one expression.
func ParseLines(lines []string, qc QueryContext) Result {
	return Parse(strings.Join(lines, "\n"), qc)
}

func parseSnippet(snippet string, qc QueryContext) Record {
	var rec Record
	for _, r := range rules {
		ms := r.re.FindAllStringSubmatch(snippet, -1)
		if len(ms) == 0 {
			continue
		}
		r.extract(ms, snippet, qc, &rec)
	}

	if !rec.MustSeeAttraction.IsSet() {
		rec.MustSeeAttraction = Constrained([]string{})
	}
	if !rec.MustVisitRestaurant.IsSet() {
		rec.MustVisitRestaurant = Constrained([]string{})
	}
	return rec
}
