// Package search evaluates free-text AND/OR queries against positions,
// entirely in memory over the snapshot the caller already holds.
package search

import (
	"regexp"
	"strings"

	"github.com/dkravets/orgview/internal/fields"
	"github.com/dkravets/orgview/internal/position"
)

// Query is a parsed search query: the outer conditions are ANDed, the terms
// inside each condition are ORed. There is no nesting and no quoting, so the
// literal words "and"/"or" cannot appear inside a term; that limitation is
// part of the grammar, not a parsing bug.
type Query struct {
	Conditions []Condition
}

// Condition is one AND group: it matches when any of its terms matches.
type Condition struct {
	Terms []string
}

var (
	andSplit = regexp.MustCompile(`(?i) and `)
	orSplit  = regexp.MustCompile(`(?i) or `)
)

// Parse parses a query string. AND is the outer operator, OR the inner one:
// "Sales and Manager or Lead" means Sales AND (Manager OR Lead). Operators
// are case-insensitive. An empty query parses to zero conditions.
func Parse(query string) *Query {
	query = strings.TrimSpace(query)
	if query == "" {
		return &Query{}
	}

	var conditions []Condition
	for _, part := range andSplit.Split(query, -1) {
		var terms []string
		for _, term := range orSplit.Split(part, -1) {
			if term = strings.TrimSpace(term); term != "" {
				terms = append(terms, term)
			}
		}
		if len(terms) > 0 {
			conditions = append(conditions, Condition{Terms: terms})
		}
	}
	return &Query{Conditions: conditions}
}

// Matcher evaluates queries against positions. The definition set is used to
// resolve value-id lists back to searchable text.
type Matcher struct {
	defs fields.Set
}

// NewMatcher returns a Matcher over the given definitions.
func NewMatcher(defs fields.Set) *Matcher {
	return &Matcher{defs: defs}
}

// Match reports whether the position matches the query string. An empty or
// whitespace-only query matches everything.
func (m *Matcher) Match(p *position.Position, query string) bool {
	return m.MatchParsed(p, Parse(query))
}

// MatchParsed evaluates an already-parsed query: every condition must match,
// and a condition matches when at least one of its terms is found. A term is
// matched against each searchable field on its own, so a term cannot span
// the boundary between, say, the name and the description.
func (m *Matcher) MatchParsed(p *position.Position, q *Query) bool {
	if q == nil || len(q.Conditions) == 0 {
		return true
	}
	haystacks := m.haystacks(p)
	for _, cond := range q.Conditions {
		matched := false
		for _, term := range cond.Terms {
			if termMatches(haystacks, term) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}

func termMatches(haystacks []string, term string) bool {
	term = strings.ToLower(term)
	for _, h := range haystacks {
		if strings.Contains(h, term) {
			return true
		}
	}
	return false
}

// Filter returns the positions matching the query, preserving input order.
// An empty query returns the input unchanged.
func (m *Matcher) Filter(positions []position.Position, query string) []position.Position {
	q := Parse(query)
	if len(q.Conditions) == 0 {
		return positions
	}
	var out []position.Position
	for i := range positions {
		if m.MatchParsed(&positions[i], q) {
			out = append(out, positions[i])
		}
	}
	return out
}

// haystacks returns the position's independently-searched texts: name,
// description, and employee name each stand alone, while every custom-field
// fragment joins into one haystack so field text remains matchable as a
// whole.
func (m *Matcher) haystacks(p *position.Position) []string {
	var parts []string

	// Flat mapping: stored values, with ids resolved to display text when a
	// definition knows them.
	for key, raw := range p.CustomFields {
		if raw == "" {
			continue
		}
		parts = append(parts, raw)
		if def, ok := m.defs[key]; ok {
			if av := def.Resolve(raw); av != nil {
				parts = append(parts, av.Value)
			}
		}
	}

	// Structured entries: labels, values, and all linked text.
	for _, e := range p.Entries {
		parts = append(parts, e.FieldLabel, e.Value)
		for _, lf := range e.LinkedFields {
			parts = append(parts, lf.Label)
			for _, lv := range lf.Values {
				parts = append(parts, lv.Value)
			}
		}
	}

	// Value-id list: resolved back through the definitions' allowed values,
	// including their linked bindings.
	if len(p.ValueIDs) > 0 {
		idSet := make(map[string]bool, len(p.ValueIDs))
		for _, id := range p.ValueIDs {
			idSet[id] = true
		}
		for _, def := range m.defs {
			for _, av := range def.AllowedValues {
				if av.ValueID == "" || !idSet[av.ValueID] {
					continue
				}
				parts = append(parts, av.Value)
				for _, lf := range av.LinkedFields {
					parts = append(parts, lf.Label)
					for _, lv := range lf.Values {
						parts = append(parts, lv.Value)
					}
				}
			}
		}
	}

	return []string{
		strings.ToLower(p.Name),
		strings.ToLower(p.Description),
		strings.ToLower(p.EmployeeFullName),
		strings.ToLower(strings.Join(parts, " ")),
	}
}
