package fields

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dkravets/orgview/internal/db"
)

// ErrDuplicateKey is returned when a definition with the same key exists.
var ErrDuplicateKey = fmt.Errorf("field key already exists")

// Store provides CRUD operations for custom field definitions.
type Store struct {
	db *db.DB
}

// NewStore creates a new field definition store.
func NewStore(d *db.DB) *Store {
	return &Store{db: d}
}

// Create inserts a new definition. Value ids are assigned to allowed values
// that lack one so stored positions can reference them stably.
func (s *Store) Create(ctx context.Context, def *Definition) error {
	if def.ID == "" {
		def.ID = uuid.NewString()
	}
	def.Key = strings.TrimSpace(def.Key)
	assignValueIDs(def)
	now := time.Now().UTC()
	def.CreatedAt = now
	def.UpdatedAt = now

	values, err := json.Marshal(def.AllowedValues)
	if err != nil {
		return fmt.Errorf("encoding allowed values: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO custom_fields (id, key, label, allowed_values, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		def.ID, def.Key, def.Label, string(values), def.CreatedAt, def.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("creating field definition: %w", err)
	}
	return nil
}

// Get retrieves a definition by id.
func (s *Store) Get(ctx context.Context, id string) (*Definition, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, key, label, allowed_values, created_at, updated_at
		 FROM custom_fields WHERE id = ?`, id)
	return scanDefinition(row)
}

// List returns all definitions ordered by key.
func (s *Store) List(ctx context.Context) ([]Definition, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, key, label, allowed_values, created_at, updated_at
		 FROM custom_fields ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("listing field definitions: %w", err)
	}
	defer rows.Close()

	var defs []Definition
	for rows.Next() {
		def, err := scanDefinition(rows)
		if err != nil {
			return nil, err
		}
		defs = append(defs, *def)
	}
	return defs, rows.Err()
}

// Update updates a definition's label and allowed values. The key is
// immutable once created.
func (s *Store) Update(ctx context.Context, def *Definition) error {
	assignValueIDs(def)
	def.UpdatedAt = time.Now().UTC()

	values, err := json.Marshal(def.AllowedValues)
	if err != nil {
		return fmt.Errorf("encoding allowed values: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE custom_fields SET label=?, allowed_values=?, updated_at=? WHERE id=?`,
		def.Label, string(values), def.UpdatedAt, def.ID,
	)
	if err != nil {
		return fmt.Errorf("updating field definition: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a definition by id.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM custom_fields WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("deleting field definition: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// LoadSet loads all definitions as a key-indexed Set.
func (s *Store) LoadSet(ctx context.Context) (Set, error) {
	defs, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return NewSet(defs), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDefinition(row rowScanner) (*Definition, error) {
	var def Definition
	var values string
	if err := row.Scan(&def.ID, &def.Key, &def.Label, &values, &def.CreatedAt, &def.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scanning field definition: %w", err)
	}
	if err := json.Unmarshal([]byte(values), &def.AllowedValues); err != nil {
		return nil, fmt.Errorf("decoding allowed values: %w", err)
	}
	return &def, nil
}

func assignValueIDs(def *Definition) {
	for i := range def.AllowedValues {
		if def.AllowedValues[i].ValueID == "" {
			def.AllowedValues[i].ValueID = uuid.NewString()
		}
	}
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
