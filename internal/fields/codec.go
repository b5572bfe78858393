package fields

import (
	"log"
	"sort"
	"strings"
)

// Codec converts position custom fields between the flat UI mapping
// {fieldKey: storedValue} and the structured API entry list.
type Codec struct {
	defs Set
}

// NewCodec returns a Codec over the given definitions.
func NewCodec(defs Set) *Codec {
	return &Codec{defs: defs}
}

// ToEntries converts a flat field map to structured entries.
//
// Keys are visited in the explicit order first, remaining keys in sorted
// order, so output is deterministic. Empty values are skipped. Composite
// display strings are split into main and linked candidates; the main text is
// resolved against the definition and the candidates prune the matched
// value's linked-field bindings. Keys with no known definition are dropped
// silently: a stale client snapshot must not fail a save.
func (c *Codec) ToEntries(fieldsMap map[string]string, order []string) []Entry {
	if len(fieldsMap) == 0 {
		return nil
	}

	var entries []Entry
	for _, key := range orderedKeys(fieldsMap, order) {
		raw := strings.TrimSpace(fieldsMap[key])
		if raw == "" {
			continue
		}

		def, ok := c.defs[key]
		if !ok {
			log.Printf("fields: dropping unknown field key %q", key)
			continue
		}

		main, candidates := SplitComposite(raw)
		av := def.Resolve(main)

		entry := Entry{
			FieldID:    def.ID,
			FieldKey:   def.Key,
			FieldLabel: def.Label,
		}
		if av != nil {
			entry.Value = av.Value
			entry.ValueID = av.ValueID
			entry.LinkedFields = filterLinked(av, candidates)
		} else {
			entry.Value = main
		}
		entries = append(entries, entry)
	}
	return entries
}

// ToMap converts structured entries back to the flat field map plus an
// explicit key order.
//
// The value id is preferred over the display text so a later save resolves
// by id and round-trips losslessly. After the explicit entries, each linked
// binding whose key is not already present seeds the map from its first
// linked value; this reconstructs implied field values for display without
// re-deriving them from the definitions on every render.
func (c *Codec) ToMap(entries []Entry) (map[string]string, []string) {
	fieldsMap := make(map[string]string, len(entries))
	var order []string

	put := func(key, valueID, value string) {
		if key == "" {
			return
		}
		if _, exists := fieldsMap[key]; exists {
			return
		}
		stored := valueID
		if stored == "" {
			stored = value
		}
		if stored == "" {
			return
		}
		fieldsMap[key] = stored
		order = append(order, key)
	}

	for _, e := range entries {
		put(e.FieldKey, e.ValueID, e.Value)
	}
	for _, e := range entries {
		for _, lf := range e.LinkedFields {
			if len(lf.Values) == 0 {
				continue
			}
			put(lf.Key, lf.Values[0].ValueID, lf.Values[0].Value)
		}
	}
	return fieldsMap, order
}

// DisplayValue resolves a stored raw value to its allowed-value text, or
// returns the raw text unchanged when nothing resolves.
func (c *Codec) DisplayValue(key, raw string) string {
	def, ok := c.defs[key]
	if !ok {
		return strings.TrimSpace(raw)
	}
	main, _ := SplitComposite(raw)
	if av := def.Resolve(main); av != nil {
		return av.Value
	}
	return strings.TrimSpace(raw)
}

// orderedKeys returns the map's keys following the explicit order slice
// first, then any remaining keys sorted.
func orderedKeys(m map[string]string, order []string) []string {
	keys := make([]string, 0, len(m))
	seen := make(map[string]bool, len(m))
	for _, k := range order {
		if _, ok := m[k]; ok && !seen[k] {
			keys = append(keys, k)
			seen[k] = true
		}
	}
	var rest []string
	for k := range m {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(keys, rest...)
}
