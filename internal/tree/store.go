package tree

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dkravets/orgview/internal/db"
)

// Store provides CRUD operations for tree definitions.
type Store struct {
	db *db.DB
}

// NewStore creates a new tree definition store.
func NewStore(d *db.DB) *Store {
	return &Store{db: d}
}

// Create inserts a new definition. Level orders are normalized to a dense
// ascending sequence; marking the definition default clears the flag on
// every other definition.
func (s *Store) Create(ctx context.Context, def *Definition) error {
	if def.ID == "" {
		def.ID = uuid.NewString()
	}
	def.Levels = NormalizeLevels(def.Levels)
	now := time.Now().UTC()
	def.CreatedAt = now
	def.UpdatedAt = now

	levels, err := json.Marshal(def.Levels)
	if err != nil {
		return fmt.Errorf("encoding levels: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if def.IsDefault {
		if _, err := tx.ExecContext(ctx, `UPDATE tree_definitions SET is_default=0`); err != nil {
			return fmt.Errorf("clearing default flag: %w", err)
		}
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO tree_definitions (id, name, description, is_default, levels, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		def.ID, def.Name, def.Description, def.IsDefault, string(levels), def.CreatedAt, def.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating tree definition: %w", err)
	}
	return tx.Commit()
}

// Get retrieves a definition by id.
func (s *Store) Get(ctx context.Context, id string) (*Definition, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, description, is_default, levels, created_at, updated_at
		 FROM tree_definitions WHERE id = ?`, id)
	return scanDefinition(row)
}

// List returns all definitions, default first, then by name.
func (s *Store) List(ctx context.Context) ([]Definition, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, description, is_default, levels, created_at, updated_at
		 FROM tree_definitions ORDER BY is_default DESC, name`)
	if err != nil {
		return nil, fmt.Errorf("listing tree definitions: %w", err)
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

// Update updates a definition's fields, normalizing levels and keeping the
// default flag unique.
func (s *Store) Update(ctx context.Context, def *Definition) error {
	def.Levels = NormalizeLevels(def.Levels)
	def.UpdatedAt = time.Now().UTC()

	levels, err := json.Marshal(def.Levels)
	if err != nil {
		return fmt.Errorf("encoding levels: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if def.IsDefault {
		if _, err := tx.ExecContext(ctx, `UPDATE tree_definitions SET is_default=0 WHERE id<>?`, def.ID); err != nil {
			return fmt.Errorf("clearing default flag: %w", err)
		}
	}
	res, err := tx.ExecContext(ctx,
		`UPDATE tree_definitions SET name=?, description=?, is_default=?, levels=?, updated_at=?
		 WHERE id=?`,
		def.Name, def.Description, def.IsDefault, string(levels), def.UpdatedAt, def.ID,
	)
	if err != nil {
		return fmt.Errorf("updating tree definition: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return sql.ErrNoRows
	}
	return tx.Commit()
}

// Delete removes a definition by id.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tree_definitions WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("deleting tree definition: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDefinition(row rowScanner) (*Definition, error) {
	var def Definition
	var description sql.NullString
	var levels string
	err := row.Scan(&def.ID, &def.Name, &description, &def.IsDefault, &levels,
		&def.CreatedAt, &def.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scanning tree definition: %w", err)
	}
	def.Description = description.String
	if err := json.Unmarshal([]byte(levels), &def.Levels); err != nil {
		return nil, fmt.Errorf("decoding levels: %w", err)
	}
	return &def, nil
}
