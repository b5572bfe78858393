package tree

import "strings"

// UntitledLabel is shown when a node has no display text at all.
const UntitledLabel = "Untitled"

// OutOfStructureLabel names the catch-all group for positions lacking any
// grouping-level value.
const OutOfStructureLabel = "Out of structure"

// CombinedLabel produces the user-facing label of a node: the base text plus
// any linked values joined by " - ", in the order the bindings appear on the
// node. Repeated linked values are preserved, not de-duplicated.
func CombinedLabel(n *Node) string {
	if n == nil {
		return UntitledLabel
	}

	base := n.FieldValue
	if n.Type == NodePosition {
		base = n.PositionName
	}
	base = strings.TrimSpace(base)

	var linked []string
	for _, lf := range n.LinkedFields {
		for _, lv := range lf.Values {
			if v := strings.TrimSpace(lv.Value); v != "" {
				linked = append(linked, v)
			}
		}
	}

	if base == "" && len(linked) == 0 {
		return UntitledLabel
	}
	if len(linked) == 0 {
		return base
	}
	if base == "" {
		return strings.Join(linked, " - ")
	}
	return base + " - " + strings.Join(linked, " - ")
}

// CountPositions returns the number of position leaves in the subtree,
// counting the node itself when it is a position.
func CountPositions(n *Node) int {
	if n == nil {
		return 0
	}
	count := 0
	if n.Type == NodePosition {
		count = 1
	}
	for _, child := range n.Children {
		count += CountPositions(child)
	}
	return count
}

// CountSubgroups returns the number of group nodes in the subtree,
// excluding the node itself.
func CountSubgroups(n *Node) int {
	if n == nil {
		return 0
	}
	count := 0
	for _, child := range n.Children {
		if child.Type == NodeGroup {
			count++
		}
		count += CountSubgroups(child)
	}
	return count
}
