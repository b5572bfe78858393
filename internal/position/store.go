package position

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dkravets/orgview/internal/db"
)

// Store provides CRUD operations for positions.
type Store struct {
	db *db.DB
}

// NewStore creates a new position store.
func NewStore(d *db.DB) *Store {
	return &Store{db: d}
}

// Create inserts a new position and assigns its id.
func (s *Store) Create(ctx context.Context, p *Position) error {
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	cf, order, err := encodeCustomFields(p)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO positions (name, description, employee_full_name, employee_external_id,
		 employee_profile_url, custom_fields, custom_fields_order, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.Name, p.Description, p.EmployeeFullName, p.EmployeeExternalID,
		p.EmployeeProfileURL, cf, order, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating position: %w", err)
	}
	p.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading position id: %w", err)
	}
	return nil
}

// Get retrieves a position by id.
func (s *Store) Get(ctx context.Context, id int64) (*Position, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, description, employee_full_name, employee_external_id,
		 employee_profile_url, custom_fields, custom_fields_order, created_at, updated_at
		 FROM positions WHERE id = ?`, id)
	return scanPosition(row)
}

// List returns positions in creation order with the given offset and limit.
// A limit of zero or less means no limit.
func (s *Store) List(ctx context.Context, offset, limit int) ([]Position, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, description, employee_full_name, employee_external_id,
		 employee_profile_url, custom_fields, custom_fields_order, created_at, updated_at
		 FROM positions ORDER BY id LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing positions: %w", err)
	}
	defer rows.Close()

	var positions []Position
	for rows.Next() {
		p, err := scanPosition(rows)
		if err != nil {
			return nil, err
		}
		positions = append(positions, *p)
	}
	return positions, rows.Err()
}

// Update updates a position's fields.
func (s *Store) Update(ctx context.Context, p *Position) error {
	p.UpdatedAt = time.Now().UTC()

	cf, order, err := encodeCustomFields(p)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE positions SET name=?, description=?, employee_full_name=?,
		 employee_external_id=?, employee_profile_url=?, custom_fields=?,
		 custom_fields_order=?, updated_at=? WHERE id=?`,
		p.Name, p.Description, p.EmployeeFullName, p.EmployeeExternalID,
		p.EmployeeProfileURL, cf, order, p.UpdatedAt, p.ID,
	)
	if err != nil {
		return fmt.Errorf("updating position: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a position by id.
func (s *Store) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM positions WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("deleting position: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func encodeCustomFields(p *Position) (string, string, error) {
	if p.CustomFields == nil {
		p.CustomFields = map[string]string{}
	}
	cf, err := json.Marshal(p.CustomFields)
	if err != nil {
		return "", "", fmt.Errorf("encoding custom fields: %w", err)
	}
	if p.CustomFieldsOrder == nil {
		p.CustomFieldsOrder = []string{}
	}
	order, err := json.Marshal(p.CustomFieldsOrder)
	if err != nil {
		return "", "", fmt.Errorf("encoding custom fields order: %w", err)
	}
	return string(cf), string(order), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPosition(row rowScanner) (*Position, error) {
	var p Position
	var description, fullName, externalID, profileURL sql.NullString
	var cf, order string
	err := row.Scan(&p.ID, &p.Name, &description, &fullName, &externalID,
		&profileURL, &cf, &order, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scanning position: %w", err)
	}
	p.Description = description.String
	p.EmployeeFullName = fullName.String
	p.EmployeeExternalID = externalID.String
	p.EmployeeProfileURL = profileURL.String
	if err := json.Unmarshal([]byte(cf), &p.CustomFields); err != nil {
		return nil, fmt.Errorf("decoding custom fields: %w", err)
	}
	if err := json.Unmarshal([]byte(order), &p.CustomFieldsOrder); err != nil {
		return nil, fmt.Errorf("decoding custom fields order: %w", err)
	}
	return &p, nil
}
