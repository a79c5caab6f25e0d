package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/orgstackio/api/pkg/domain/permission"
	"github.com/orgstackio/api/pkg/domain/shared"
)

// PermissionRepository implements permission.Repository using PostgreSQL.
type PermissionRepository struct {
	db *DB
}

// NewPermissionRepository creates a new PermissionRepository.
func NewPermissionRepository(db *DB) *PermissionRepository {
	return &PermissionRepository{db: db}
}

// Create persists a new permission.
func (r *PermissionRepository) Create(ctx context.Context, p *permission.Permission) error {
	query := `
		INSERT INTO permissions (
			id, organization_id, name, description, category, resource,
			is_active, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.ExecContext(ctx, query,
		p.ID().String(),
		p.OrganizationID().String(),
		p.Name(),
		p.Description(),
		p.Category().String(),
		p.Resource(),
		p.IsActive(),
		p.CreatedAt(),
		p.UpdatedAt(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: permission name already exists", shared.ErrConflict)
		}
		return fmt.Errorf("failed to create permission: %w", err)
	}

	return nil
}

// GetByID retrieves a permission by ID.
func (r *PermissionRepository) GetByID(ctx context.Context, id shared.ID) (*permission.Permission, error) {
	query := `
		SELECT id, organization_id, name, description, category, resource,
			   is_active, created_at, updated_at
		FROM permissions
		WHERE id = $1
	`

	p, err := scanPermission(r.db.QueryRowContext(ctx, query, id.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, permission.ErrPermissionNotFound
		}
		return nil, err
	}
	return p, nil
}

// ListByOrganization retrieves active permissions ordered by category
// then name.
func (r *PermissionRepository) ListByOrganization(ctx context.Context, organizationID shared.ID) ([]*permission.Permission, error) {
	query := `
		SELECT id, organization_id, name, description, category, resource,
			   is_active, created_at, updated_at
		FROM permissions
		WHERE organization_id = $1 AND is_active = TRUE
		ORDER BY category ASC, name ASC
	`

	rows, err := r.db.QueryContext(ctx, query, organizationID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list permissions: %w", err)
	}
	defer rows.Close()

	var permissions []*permission.Permission
	for rows.Next() {
		p, err := scanPermission(rows)
		if err != nil {
			return nil, err
		}
		permissions = append(permissions, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate permissions: %w", err)
	}

	return permissions, nil
}

func scanPermission(row rowScanner) (*permission.Permission, error) {
	var (
		id             shared.ID
		organizationID shared.ID
		name           string
		description    sql.NullString
		category       string
		resource       string
		isActive       bool
		createdAt      time.Time
		updatedAt      time.Time
	)

	err := row.Scan(
		&id, &organizationID, &name, &description, &category,
		&resource, &isActive, &createdAt, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan permission: %w", err)
	}

	return permission.Reconstitute(
		id,
		organizationID,
		name,
		nullStringValue(description),
		permission.Category(category),
		resource,
		isActive,
		createdAt,
		updatedAt,
	), nil
}

// GrantRepository implements permission.GrantRepository using PostgreSQL.
// Only direct grants are stored; inherited grants are derived at read
// time by the resolver.
type GrantRepository struct {
	db *DB
}

// NewGrantRepository creates a new GrantRepository.
func NewGrantRepository(db *DB) *GrantRepository {
	return &GrantRepository{db: db}
}

// ListByRole retrieves the role's direct grants with catalog details
// hydrated.
func (r *GrantRepository) ListByRole(ctx context.Context, roleID shared.ID) ([]*permission.Grant, error) {
	query := `
		SELECT g.role_id, g.permission_id, g.granted, g.can_delegate, g.created_at, g.updated_at,
			   p.id, p.organization_id, p.name, p.description, p.category, p.resource,
			   p.is_active, p.created_at, p.updated_at
		FROM role_permission_grants g
		JOIN permissions p ON p.id = g.permission_id
		WHERE g.role_id = $1
		ORDER BY p.category ASC, p.name ASC
	`

	rows, err := r.db.QueryContext(ctx, query, roleID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list grants: %w", err)
	}
	defer rows.Close()

	var grants []*permission.Grant
	for rows.Next() {
		g, err := scanGrantWithPermission(rows)
		if err != nil {
			return nil, err
		}
		grants = append(grants, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate grants: %w", err)
	}

	return grants, nil
}

// ListByRoles retrieves direct grants for several roles at once, keyed by
// role.
func (r *GrantRepository) ListByRoles(ctx context.Context, roleIDs []shared.ID) (map[shared.ID][]*permission.Grant, error) {
	grants := make(map[shared.ID][]*permission.Grant, len(roleIDs))
	if len(roleIDs) == 0 {
		return grants, nil
	}

	ids := make([]string, 0, len(roleIDs))
	for _, id := range roleIDs {
		ids = append(ids, id.String())
	}

	query := `
		SELECT g.role_id, g.permission_id, g.granted, g.can_delegate, g.created_at, g.updated_at,
			   p.id, p.organization_id, p.name, p.description, p.category, p.resource,
			   p.is_active, p.created_at, p.updated_at
		FROM role_permission_grants g
		JOIN permissions p ON p.id = g.permission_id
		WHERE g.role_id = ANY($1)
		ORDER BY p.category ASC, p.name ASC
	`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to list grants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		g, err := scanGrantWithPermission(rows)
		if err != nil {
			return nil, err
		}
		grants[g.RoleID] = append(grants[g.RoleID], g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate grants: %w", err)
	}

	return grants, nil
}

// Upsert creates the grant or, if one exists for (RoleID, PermissionID),
// overwrites its granted and delegation flags.
func (r *GrantRepository) Upsert(ctx context.Context, g *permission.Grant) error {
	query := `
		INSERT INTO role_permission_grants (role_id, permission_id, granted, can_delegate, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (role_id, permission_id)
		DO UPDATE SET granted = EXCLUDED.granted, can_delegate = EXCLUDED.can_delegate, updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.ExecContext(ctx, query,
		g.RoleID.String(),
		g.PermissionID.String(),
		g.Granted,
		g.CanDelegate,
		g.CreatedAt,
		g.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert grant: %w", err)
	}

	return nil
}

// Delete removes a direct grant.
func (r *GrantRepository) Delete(ctx context.Context, roleID, permissionID shared.ID) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM role_permission_grants WHERE role_id = $1 AND permission_id = $2`,
		roleID.String(), permissionID.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to delete grant: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return permission.ErrGrantNotFound
	}

	return nil
}

func scanGrantWithPermission(row rowScanner) (*permission.Grant, error) {
	g := &permission.Grant{}
	var (
		permID         shared.ID
		organizationID shared.ID
		name           string
		description    sql.NullString
		category       string
		resource       string
		isActive       bool
		createdAt      time.Time
		updatedAt      time.Time
	)

	err := row.Scan(
		&g.RoleID, &g.PermissionID, &g.Granted, &g.CanDelegate, &g.CreatedAt, &g.UpdatedAt,
		&permID, &organizationID, &name, &description, &category,
		&resource, &isActive, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan grant: %w", err)
	}

	g.Permission = permission.Reconstitute(
		permID,
		organizationID,
		name,
		nullStringValue(description),
		permission.Category(category),
		resource,
		isActive,
		createdAt,
		updatedAt,
	)

	return g, nil
}
