package fields

import "strings"

// fuzzyMinLen is the minimum term length before the fuzzy fallback applies.
const fuzzyMinLen = 3

// fuzzyRatio is the minimum length ratio for a fuzzy match.
const fuzzyRatio = 0.7

// Resolve maps a stored raw value (value id, literal text, or the main part
// of a composite string) to one of the definition's allowed values.
//
// An exact pass compares the trimmed raw value against each allowed value's
// id and text in definition order. If nothing matches and the raw value is at
// least three characters long, a fuzzy pass accepts an allowed value whose
// text and the raw value contain one another with a length ratio of at least
// 0.7. This fallback is a legacy-compat rule for hand-typed values; it can
// merge short similar labels and is kept deliberately.
//
// Returns nil when the raw value is empty or nothing matches; callers treat
// nil as "no value for this field".
func (d *Definition) Resolve(raw string) *AllowedValue {
	if d == nil {
		return nil
	}
	search := strings.TrimSpace(raw)
	if search == "" {
		return nil
	}

	for i := range d.AllowedValues {
		av := &d.AllowedValues[i]
		if av.ValueID != "" && strings.TrimSpace(av.ValueID) == search {
			return av
		}
		if strings.TrimSpace(av.Value) == search {
			return av
		}
	}

	if len([]rune(search)) < fuzzyMinLen {
		return nil
	}
	for i := range d.AllowedValues {
		av := &d.AllowedValues[i]
		if fuzzyMatch(strings.TrimSpace(av.Value), search) {
			return av
		}
	}
	return nil
}

// fuzzyMatch reports whether a and b are mutual substrings of one another
// (either direction) and close enough in length. Both must be at least
// fuzzyMinLen runes long.
func fuzzyMatch(a, b string) bool {
	ra, rb := []rune(a), []rune(b)
	if len(ra) < fuzzyMinLen || len(rb) < fuzzyMinLen {
		return false
	}
	if !strings.Contains(a, b) && !strings.Contains(b, a) {
		return false
	}
	minLen, maxLen := len(ra), len(rb)
	if minLen > maxLen {
		minLen, maxLen = maxLen, minLen
	}
	return float64(minLen)/float64(maxLen) >= fuzzyRatio
}

// SplitComposite breaks a hand-typed combined display string into its main
// text and candidate linked texts.
//
// The parenthesis form "Sales (EMEA, Tier-1)" takes the text before the first
// '(' as main and comma-splits the parenthesized tail. Otherwise the legacy
// form "Sales - EMEA - Tier-1" is split on the literal " - " separator, so
// values containing bare hyphens survive. Anything that fits neither shape is
// returned whole as the main text with no candidates.
func SplitComposite(s string) (main string, linked []string) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}

	open := strings.Index(s, "(")
	end := strings.LastIndex(s, ")")
	if open > 0 && end > open {
		main = strings.TrimSpace(s[:open])
		for _, part := range strings.Split(s[open+1:end], ",") {
			if p := strings.TrimSpace(part); p != "" {
				linked = append(linked, p)
			}
		}
		return main, linked
	}

	parts := strings.Split(s, " - ")
	var clean []string
	for _, part := range parts {
		if p := strings.TrimSpace(part); p != "" {
			clean = append(clean, p)
		}
	}
	if len(clean) == 0 {
		return s, nil
	}
	main = clean[0]
	if len(clean) > 1 {
		linked = clean[1:]
	}
	return main, linked
}

// filterLinked keeps only the linked-field bindings of av whose values match
// at least one candidate text, and within each kept binding only the matching
// values. Comparison is case-insensitive: exact first, then the shared fuzzy
// rule. With no candidates all bindings are kept as-is.
func filterLinked(av *AllowedValue, candidates []string) []LinkedField {
	if av == nil || len(av.LinkedFields) == 0 {
		return nil
	}
	if len(candidates) == 0 {
		out := make([]LinkedField, len(av.LinkedFields))
		copy(out, av.LinkedFields)
		return out
	}

	lower := make([]string, 0, len(candidates))
	for _, c := range candidates {
		lower = append(lower, strings.ToLower(strings.TrimSpace(c)))
	}

	var out []LinkedField
	for _, lf := range av.LinkedFields {
		kept := lf
		kept.Values = nil
		for _, lv := range lf.Values {
			if linkedValueMatches(lv, lower) {
				kept.Values = append(kept.Values, lv)
			}
		}
		if len(kept.Values) > 0 {
			out = append(out, kept)
		}
	}
	return out
}

func linkedValueMatches(lv LinkedValue, candidates []string) bool {
	text := strings.ToLower(strings.TrimSpace(lv.Value))
	id := strings.ToLower(strings.TrimSpace(lv.ValueID))
	for _, c := range candidates {
		if c == text || (id != "" && c == id) {
			return true
		}
	}
	for _, c := range candidates {
		if fuzzyMatch(text, c) {
			return true
		}
	}
	return false
}
