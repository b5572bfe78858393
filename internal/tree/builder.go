package tree

import (
	"log"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/dkravets/orgview/internal/fields"
	"github.com/dkravets/orgview/internal/position"
)

// Builder materializes position collections into trees. It is a pure
// transformation over the snapshot it is handed: the same inputs always
// yield a structurally identical tree, so callers can rebuild on every
// input change.
type Builder struct {
	defs     fields.Set
	collator *collate.Collator
}

// NewBuilder returns a Builder resolving values against defs and ordering
// sibling groups with a collator for the given language.
func NewBuilder(defs fields.Set, tag language.Tag) *Builder {
	return &Builder{defs: defs, collator: collate.New(tag)}
}

// resolvedPosition carries one position together with its per-level display
// values, so each stored value is resolved once (not once per level visit).
type resolvedPosition struct {
	pos     *position.Position
	display map[string]string
	matched map[string]*fields.AllowedValue
}

// Build partitions the positions into a tree following the grouping levels.
//
// Positions are grouped by the exact resolved display text of each level's
// field, so two stored representations of the same allowed value (id vs.
// literal text) merge into one group. Positions lacking a value at a level
// stay at that level as leaves, after the sorted groups, in input order.
// When no position has a value for any level the whole set is collected into
// a single "out of structure" group, and as a last resort a non-empty input
// always produces at least a flat list of leaves.
func (b *Builder) Build(positions []position.Position, levels []Level) *Node {
	root := &Node{Type: NodeRoot, Children: []*Node{}}
	if len(positions) == 0 {
		return root
	}

	eff := b.knownLevels(NormalizeLevels(levels))
	if len(eff) == 0 {
		for i := range positions {
			root.Children = append(root.Children, leaf(&positions[i]))
		}
		return root
	}

	resolved := b.resolveAll(positions, eff)
	children := b.partition(resolved, eff, 0)

	hasGroup := false
	for _, c := range children {
		if c.Type == NodeGroup {
			hasGroup = true
			break
		}
	}
	if !hasGroup {
		// Nobody landed in a group at the first level: gather the whole set
		// under one catch-all group instead of showing bare leaves.
		group := &Node{
			Type:       NodeGroup,
			FieldValue: OutOfStructureLabel,
			Children:   children,
		}
		children = []*Node{group}
	}

	if len(children) == 0 {
		for i := range positions {
			children = append(children, leaf(&positions[i]))
		}
	}

	root.Children = children
	return root
}

// knownLevels drops levels whose field key has no definition; a dangling
// level produces no groups rather than an error.
func (b *Builder) knownLevels(levels []Level) []Level {
	var out []Level
	for _, lvl := range levels {
		if _, ok := b.defs[lvl.CustomFieldKey]; !ok {
			log.Printf("tree: skipping level with unknown field key %q", lvl.CustomFieldKey)
			continue
		}
		out = append(out, lvl)
	}
	return out
}

func (b *Builder) resolveAll(positions []position.Position, levels []Level) []*resolvedPosition {
	out := make([]*resolvedPosition, 0, len(positions))
	for i := range positions {
		p := &positions[i]
		rp := &resolvedPosition{
			pos:     p,
			display: make(map[string]string, len(levels)),
			matched: make(map[string]*fields.AllowedValue, len(levels)),
		}
		for _, lvl := range levels {
			key := lvl.CustomFieldKey
			raw := strings.TrimSpace(p.CustomFields[key])
			if raw == "" {
				continue
			}
			main, _ := fields.SplitComposite(raw)
			if av := b.defs[key].Resolve(main); av != nil {
				rp.display[key] = av.Value
				rp.matched[key] = av
			}
		}
		out = append(out, rp)
	}
	return out
}

// partition recursively splits candidates at the given level: positions with
// a resolved value for the level's field go into per-value groups, the rest
// become leaves placed after the groups.
func (b *Builder) partition(candidates []*resolvedPosition, levels []Level, levelIndex int) []*Node {
	if levelIndex == len(levels) {
		nodes := make([]*Node, 0, len(candidates))
		for _, rp := range candidates {
			nodes = append(nodes, leaf(rp.pos))
		}
		return nodes
	}

	lvl := levels[levelIndex]
	key := lvl.CustomFieldKey

	groups := make(map[string][]*resolvedPosition)
	var values []string
	var withoutValue []*resolvedPosition

	for _, rp := range candidates {
		v := rp.display[key]
		if v == "" {
			withoutValue = append(withoutValue, rp)
			continue
		}
		if _, ok := groups[v]; !ok {
			values = append(values, v)
		}
		groups[v] = append(groups[v], rp)
	}

	b.collator.SortStrings(values)

	var nodes []*Node
	for _, v := range values {
		members := groups[v]
		node := &Node{
			Type:       NodeGroup,
			LevelOrder: lvl.Order,
			FieldKey:   key,
			FieldValue: v,
			Children:   b.partition(members, levels, levelIndex+1),
		}
		if av := members[0].matched[key]; av != nil {
			node.LinkedFields = av.LinkedFields
		}
		nodes = append(nodes, node)
	}

	for _, rp := range withoutValue {
		nodes = append(nodes, leaf(rp.pos))
	}
	return nodes
}

func leaf(p *position.Position) *Node {
	return &Node{
		Type:             NodePosition,
		PositionID:       p.ID,
		PositionName:     p.Name,
		EmployeeFullName: p.EmployeeFullName,
		Children:         []*Node{},
	}
}
