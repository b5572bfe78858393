package position

import (
	"strings"
	"time"

	"github.com/dkravets/orgview/internal/fields"
)

// Position is a job position record. Custom field values are stored as a
// flat key-to-value mapping; the stored value is either the allowed value's
// id, its literal text, or a hand-typed composite string. Entries and
// ValueIDs are alternate representations a client may carry instead of the
// map; the core accepts any of the three. The employee name part fields are
// accepted on input only and combined into EmployeeFullName before storage.
type Position struct {
	ID                 int64             `json:"id"`
	Name               string            `json:"name"`
	Description        string            `json:"description,omitempty"`
	EmployeeFullName   string            `json:"employee_full_name,omitempty"`
	EmployeeLastName   string            `json:"employee_last_name,omitempty"`
	EmployeeFirstName  string            `json:"employee_first_name,omitempty"`
	EmployeeMiddleName string            `json:"employee_middle_name,omitempty"`
	EmployeeExternalID string            `json:"employee_external_id,omitempty"`
	EmployeeProfileURL string            `json:"employee_profile_url,omitempty"`
	CustomFields       map[string]string `json:"custom_fields"`
	CustomFieldsOrder  []string          `json:"custom_fields_order,omitempty"`
	Entries            []fields.Entry    `json:"custom_fields_entries,omitempty"`
	ValueIDs           []string          `json:"custom_field_value_ids,omitempty"`
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`
}

// CombineName joins the non-empty name parts into a full name
// (last, first, middle order).
func CombineName(last, first, middle string) string {
	var parts []string
	for _, p := range []string{last, first, middle} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}
