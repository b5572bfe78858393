package tree

import (
	"sort"
	"time"

	"github.com/dkravets/orgview/internal/fields"
)

// Level is one grouping level of a tree definition.
type Level struct {
	Order          int    `json:"order"`
	CustomFieldKey string `json:"custom_field_key"`
}

// Definition is a named grouping order for viewing the position hierarchy.
type Definition struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	IsDefault   bool      `json:"is_default"`
	Levels      []Level   `json:"levels"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NodeType discriminates the tree node variants.
type NodeType string

const (
	NodeRoot     NodeType = "root"
	NodeGroup    NodeType = "group"
	NodePosition NodeType = "position"
)

// Node is a node of a materialized tree: the synthetic root, a field-value
// group, or a position leaf. Group children are groups for the next level
// and/or position leaves; position nodes are always childless.
type Node struct {
	Type             NodeType             `json:"type"`
	LevelOrder       int                  `json:"level_order,omitempty"`
	FieldKey         string               `json:"field_key,omitempty"`
	FieldValue       string               `json:"field_value,omitempty"`
	LinkedFields     []fields.LinkedField `json:"linked_fields,omitempty"`
	PositionID       int64                `json:"position_id,omitempty"`
	PositionName     string               `json:"position_name,omitempty"`
	EmployeeFullName string               `json:"employee_full_name,omitempty"`
	Children         []*Node              `json:"children"`
}

// Structure is a materialized tree together with the definition it was built
// from, as served to viewers.
type Structure struct {
	TreeID string  `json:"tree_id"`
	Name   string  `json:"name"`
	Levels []Level `json:"levels"`
	Root   *Node   `json:"root"`
}

// NormalizeLevels sorts levels by their order and reassigns a dense
// ascending sequence starting at 1. Ties keep their relative order.
func NormalizeLevels(levels []Level) []Level {
	out := make([]Level, len(levels))
	copy(out, levels)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	for i := range out {
		out[i].Order = i + 1
	}
	return out
}
