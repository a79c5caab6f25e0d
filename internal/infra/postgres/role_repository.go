package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/orgstackio/api/pkg/domain/role"
	"github.com/orgstackio/api/pkg/domain/shared"
)

// RoleRepository implements role.Repository using PostgreSQL.
type RoleRepository struct {
	db *DB
}

// NewRoleRepository creates a new RoleRepository.
func NewRoleRepository(db *DB) *RoleRepository {
	return &RoleRepository{db: db}
}

// Create persists a new role.
func (r *RoleRepository) Create(ctx context.Context, ro *role.Role) error {
	query := `
		INSERT INTO roles (
			id, organization_id, name, description, parent_id, level,
			share_data_with_peers, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.ExecContext(ctx, query,
		ro.ID().String(),
		ro.OrganizationID().String(),
		ro.Name(),
		ro.Description(),
		nullID(ro.ParentID()),
		ro.Level(),
		ro.ShareDataWithPeers(),
		ro.CreatedAt(),
		ro.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to create role: %w", err)
	}

	return nil
}

// GetByID retrieves a role by ID.
func (r *RoleRepository) GetByID(ctx context.Context, id shared.ID) (*role.Role, error) {
	query := `
		SELECT id, organization_id, name, description, parent_id, level,
			   share_data_with_peers, created_at, updated_at
		FROM roles
		WHERE id = $1
	`

	ro, err := scanRole(r.db.QueryRowContext(ctx, query, id.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, role.ErrRoleNotFound
		}
		return nil, err
	}
	return ro, nil
}

// ListByOrganization retrieves the flat role collection, oldest first.
func (r *RoleRepository) ListByOrganization(ctx context.Context, organizationID shared.ID) ([]*role.Role, error) {
	query := `
		SELECT id, organization_id, name, description, parent_id, level,
			   share_data_with_peers, created_at, updated_at
		FROM roles
		WHERE organization_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, organizationID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	defer rows.Close()

	var roles []*role.Role
	for rows.Next() {
		ro, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		roles = append(roles, ro)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate roles: %w", err)
	}

	return roles, nil
}

// Update updates an existing role.
func (r *RoleRepository) Update(ctx context.Context, ro *role.Role) error {
	query := `
		UPDATE roles
		SET name = $2, description = $3, share_data_with_peers = $4, updated_at = $5
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		ro.ID().String(),
		ro.Name(),
		ro.Description(),
		ro.ShareDataWithPeers(),
		ro.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to update role: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return role.ErrRoleNotFound
	}

	return nil
}

// DeleteTree removes the role and every descendant, children before
// parents, inside a single transaction. Grants and unit/user assignments
// on the deleted roles go with them via ON DELETE CASCADE.
func (r *RoleRepository) DeleteTree(ctx context.Context, id shared.ID) error {
	return r.db.Transaction(ctx, func(tx *sql.Tx) error {
		return deleteRoleSubtree(ctx, tx, id)
	})
}

func deleteRoleSubtree(ctx context.Context, tx *sql.Tx, id shared.ID) error {
	rows, err := tx.QueryContext(ctx, `SELECT id FROM roles WHERE parent_id = $1`, id.String())
	if err != nil {
		return fmt.Errorf("failed to query child roles: %w", err)
	}

	var childIDs []shared.ID
	for rows.Next() {
		var childID shared.ID
		if err := rows.Scan(&childID); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan child role: %w", err)
		}
		childIDs = append(childIDs, childID)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("failed to iterate child roles: %w", err)
	}
	rows.Close()

	for _, childID := range childIDs {
		if err := deleteRoleSubtree(ctx, tx, childID); err != nil {
			return err
		}
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM roles WHERE id = $1`, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete role: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return role.ErrRoleNotFound
	}

	return nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for shared scan helpers.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRole(row rowScanner) (*role.Role, error) {
	var (
		id                 shared.ID
		organizationID     shared.ID
		name               string
		description        sql.NullString
		parentID           sql.NullString
		level              int
		shareDataWithPeers bool
		createdAt          time.Time
		updatedAt          time.Time
	)

	err := row.Scan(
		&id, &organizationID, &name, &description, &parentID,
		&level, &shareDataWithPeers, &createdAt, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan role: %w", err)
	}

	return role.Reconstitute(
		id,
		organizationID,
		name,
		nullStringValue(description),
		parseNullID(parentID),
		level,
		shareDataWithPeers,
		createdAt,
		updatedAt,
	), nil
}
