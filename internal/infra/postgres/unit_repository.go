package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/orgstackio/api/pkg/domain/role"
	"github.com/orgstackio/api/pkg/domain/shared"
	"github.com/orgstackio/api/pkg/domain/unit"
	"github.com/orgstackio/api/pkg/domain/user"
)

// UnitRepository implements unit.Repository using PostgreSQL.
type UnitRepository struct {
	db *DB
}

// NewUnitRepository creates a new UnitRepository.
func NewUnitRepository(db *DB) *UnitRepository {
	return &UnitRepository{db: db}
}

// Create persists a new unit.
func (r *UnitRepository) Create(ctx context.Context, u *unit.Unit) error {
	query := `
		INSERT INTO units (
			id, organization_id, name, description, parent_id, level,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.ExecContext(ctx, query,
		u.ID().String(),
		u.OrganizationID().String(),
		u.Name(),
		u.Description(),
		nullID(u.ParentID()),
		u.Level(),
		u.CreatedAt(),
		u.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to create unit: %w", err)
	}

	return nil
}

// GetByID retrieves a unit by ID without hydrated relations.
func (r *UnitRepository) GetByID(ctx context.Context, id shared.ID) (*unit.Unit, error) {
	query := `
		SELECT id, organization_id, name, description, parent_id, level,
			   created_at, updated_at
		FROM units
		WHERE id = $1
	`

	u, err := scanUnit(r.db.QueryRowContext(ctx, query, id.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, unit.ErrUnitNotFound
		}
		return nil, err
	}
	return u, nil
}

// GetDetail retrieves a unit with role and user assignments hydrated.
func (r *UnitRepository) GetDetail(ctx context.Context, id shared.ID) (*unit.Unit, error) {
	u, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := r.hydrateAssignments(ctx, map[shared.ID]*unit.Unit{u.ID(): u}); err != nil {
		return nil, err
	}

	return u, nil
}

// ListByOrganization retrieves the flat unit collection with assignments
// hydrated, ordered by level then creation time.
func (r *UnitRepository) ListByOrganization(ctx context.Context, organizationID shared.ID) ([]*unit.Unit, error) {
	query := `
		SELECT id, organization_id, name, description, parent_id, level,
			   created_at, updated_at
		FROM units
		WHERE organization_id = $1
		ORDER BY level ASC, created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, organizationID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list units: %w", err)
	}
	defer rows.Close()

	var units []*unit.Unit
	index := make(map[shared.ID]*unit.Unit)
	for rows.Next() {
		u, err := scanUnit(rows)
		if err != nil {
			return nil, err
		}
		units = append(units, u)
		index[u.ID()] = u
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate units: %w", err)
	}

	if len(units) == 0 {
		return units, nil
	}

	if err := r.hydrateAssignments(ctx, index); err != nil {
		return nil, err
	}

	return units, nil
}

// Update updates an existing unit.
func (r *UnitRepository) Update(ctx context.Context, u *unit.Unit) error {
	query := `
		UPDATE units
		SET name = $2, description = $3, updated_at = $4
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		u.ID().String(),
		u.Name(),
		u.Description(),
		u.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to update unit: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return unit.ErrUnitNotFound
	}

	return nil
}

// DeleteTree removes the unit and every descendant, children before
// parents, inside a single transaction. Assignments and sharing rules on
// the deleted units go with them via ON DELETE CASCADE.
func (r *UnitRepository) DeleteTree(ctx context.Context, id shared.ID) error {
	return r.db.Transaction(ctx, func(tx *sql.Tx) error {
		return deleteUnitSubtree(ctx, tx, id)
	})
}

func deleteUnitSubtree(ctx context.Context, tx *sql.Tx, id shared.ID) error {
	rows, err := tx.QueryContext(ctx, `SELECT id FROM units WHERE parent_id = $1`, id.String())
	if err != nil {
		return fmt.Errorf("failed to query child units: %w", err)
	}

	var childIDs []shared.ID
	for rows.Next() {
		var childID shared.ID
		if err := rows.Scan(&childID); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan child unit: %w", err)
		}
		childIDs = append(childIDs, childID)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("failed to iterate child units: %w", err)
	}
	rows.Close()

	for _, childID := range childIDs {
		if err := deleteUnitSubtree(ctx, tx, childID); err != nil {
			return err
		}
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM units WHERE id = $1`, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete unit: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return unit.ErrUnitNotFound
	}

	return nil
}

// ReplaceAssignments rewrites the unit's role and user assignment sets in
// one transaction. A nil slice leaves that set untouched.
func (r *UnitRepository) ReplaceAssignments(ctx context.Context, unitID shared.ID, roleIDs []shared.ID, users []unit.UserRef) error {
	if roleIDs == nil && users == nil {
		return nil
	}

	return r.db.Transaction(ctx, func(tx *sql.Tx) error {
		now := time.Now().UTC()

		if roleIDs != nil {
			if _, err := tx.ExecContext(ctx, `DELETE FROM unit_role_assignments WHERE unit_id = $1`, unitID.String()); err != nil {
				return fmt.Errorf("failed to clear role assignments: %w", err)
			}
			for _, roleID := range roleIDs {
				_, err := tx.ExecContext(ctx, `
					INSERT INTO unit_role_assignments (id, unit_id, role_id, created_at, updated_at)
					VALUES ($1, $2, $3, $4, $5)
				`, shared.NewID().String(), unitID.String(), roleID.String(), now, now)
				if err != nil {
					return fmt.Errorf("failed to create role assignment: %w", err)
				}
			}
		}

		if users != nil {
			if _, err := tx.ExecContext(ctx, `DELETE FROM user_unit_assignments WHERE unit_id = $1`, unitID.String()); err != nil {
				return fmt.Errorf("failed to clear user assignments: %w", err)
			}
			for _, ref := range users {
				_, err := tx.ExecContext(ctx, `
					INSERT INTO user_unit_assignments (id, user_id, unit_id, role_id, notes, created_at, updated_at)
					VALUES ($1, $2, $3, $4, $5, $6, $7)
				`, shared.NewID().String(), ref.UserID.String(), unitID.String(), ref.RoleID.String(), "", now, now)
				if err != nil {
					return fmt.Errorf("failed to create user assignment: %w", err)
				}
			}
		}

		return nil
	})
}

// AssignRole links a role to a unit.
func (r *UnitRepository) AssignRole(ctx context.Context, unitID, roleID shared.ID) (*unit.RoleAssignment, error) {
	a := unit.NewRoleAssignment(unitID, roleID)

	query := `
		INSERT INTO unit_role_assignments (id, unit_id, role_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.ExecContext(ctx, query,
		a.ID.String(),
		a.UnitID.String(),
		a.RoleID.String(),
		a.CreatedAt,
		a.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, unit.ErrRoleAssignmentExists
		}
		return nil, fmt.Errorf("failed to assign role to unit: %w", err)
	}

	return a, nil
}

// RemoveRole unlinks a role from a unit.
func (r *UnitRepository) RemoveRole(ctx context.Context, unitID, roleID shared.ID) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM unit_role_assignments WHERE unit_id = $1 AND role_id = $2`,
		unitID.String(), roleID.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to remove role from unit: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return unit.ErrRoleAssignmentNotFound
	}

	return nil
}

// UpsertUserAssignment creates the assignment or, if one exists for
// (userID, unitID), overwrites its role and notes.
func (r *UnitRepository) UpsertUserAssignment(ctx context.Context, userID, unitID, roleID shared.ID, notes string) (*unit.UserAssignment, error) {
	a := unit.NewUserAssignment(userID, unitID, roleID, notes)

	query := `
		INSERT INTO user_unit_assignments (id, user_id, unit_id, role_id, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id, unit_id)
		DO UPDATE SET role_id = EXCLUDED.role_id, notes = EXCLUDED.notes, updated_at = EXCLUDED.updated_at
		RETURNING id, created_at
	`

	err := r.db.QueryRowContext(ctx, query,
		a.ID.String(),
		a.UserID.String(),
		a.UnitID.String(),
		a.RoleID.String(),
		a.Notes,
		a.CreatedAt,
		a.UpdatedAt,
	).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user assignment: %w", err)
	}

	return a, nil
}

// RemoveUserAssignment removes a user's assignment to a unit.
func (r *UnitRepository) RemoveUserAssignment(ctx context.Context, userID, unitID shared.ID) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM user_unit_assignments WHERE user_id = $1 AND unit_id = $2`,
		userID.String(), unitID.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to remove user assignment: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return unit.ErrUserAssignmentNotFound
	}

	return nil
}

// ListUserAssignments returns a user's assignments with unit and role
// details hydrated, newest first.
func (r *UnitRepository) ListUserAssignments(ctx context.Context, userID shared.ID) ([]*unit.UserAssignment, error) {
	query := `
		SELECT a.id, a.user_id, a.unit_id, a.role_id, a.notes, a.created_at, a.updated_at,
			   un.id, un.organization_id, un.name, un.description, un.parent_id, un.level,
			   un.created_at, un.updated_at,
			   ro.id, ro.organization_id, ro.name, ro.description, ro.parent_id, ro.level,
			   ro.share_data_with_peers, ro.created_at, ro.updated_at
		FROM user_unit_assignments a
		JOIN units un ON un.id = a.unit_id
		JOIN roles ro ON ro.id = a.role_id
		WHERE a.user_id = $1
		ORDER BY a.created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list user assignments: %w", err)
	}
	defer rows.Close()

	var assignments []*unit.UserAssignment
	for rows.Next() {
		a, err := scanUserAssignmentWithRelations(rows)
		if err != nil {
			return nil, err
		}
		assignments = append(assignments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate user assignments: %w", err)
	}

	return assignments, nil
}

// hydrateAssignments attaches role and user assignments to every unit in
// the index.
func (r *UnitRepository) hydrateAssignments(ctx context.Context, index map[shared.ID]*unit.Unit) error {
	unitIDs := make([]string, 0, len(index))
	for id := range index {
		unitIDs = append(unitIDs, id.String())
	}

	roleQuery := `
		SELECT a.id, a.unit_id, a.role_id, a.created_at, a.updated_at,
			   ro.id, ro.organization_id, ro.name, ro.description, ro.parent_id, ro.level,
			   ro.share_data_with_peers, ro.created_at, ro.updated_at
		FROM unit_role_assignments a
		JOIN roles ro ON ro.id = a.role_id
		WHERE a.unit_id = ANY($1)
		ORDER BY a.created_at ASC
	`

	roleRows, err := r.db.QueryContext(ctx, roleQuery, pq.Array(unitIDs))
	if err != nil {
		return fmt.Errorf("failed to query role assignments: %w", err)
	}
	defer roleRows.Close()

	roleAssignments := make(map[shared.ID][]*unit.RoleAssignment)
	for roleRows.Next() {
		a := &unit.RoleAssignment{}
		ro, err := scanRoleAssignment(roleRows, a)
		if err != nil {
			return err
		}
		a.Role = ro
		roleAssignments[a.UnitID] = append(roleAssignments[a.UnitID], a)
	}
	if err := roleRows.Err(); err != nil {
		return fmt.Errorf("failed to iterate role assignments: %w", err)
	}

	userQuery := `
		SELECT a.id, a.user_id, a.unit_id, a.role_id, a.notes, a.created_at, a.updated_at,
			   u.id, u.organization_id, u.email, u.first_name, u.last_name, u.avatar,
			   u.department, u.created_at, u.updated_at,
			   ro.id, ro.organization_id, ro.name, ro.description, ro.parent_id, ro.level,
			   ro.share_data_with_peers, ro.created_at, ro.updated_at
		FROM user_unit_assignments a
		JOIN users u ON u.id = a.user_id
		JOIN roles ro ON ro.id = a.role_id
		WHERE a.unit_id = ANY($1)
		ORDER BY a.created_at ASC
	`

	userRows, err := r.db.QueryContext(ctx, userQuery, pq.Array(unitIDs))
	if err != nil {
		return fmt.Errorf("failed to query user assignments: %w", err)
	}
	defer userRows.Close()

	userAssignments := make(map[shared.ID][]*unit.UserAssignment)
	for userRows.Next() {
		a, err := scanUserAssignmentWithUser(userRows)
		if err != nil {
			return err
		}
		userAssignments[a.UnitID] = append(userAssignments[a.UnitID], a)
	}
	if err := userRows.Err(); err != nil {
		return fmt.Errorf("failed to iterate user assignments: %w", err)
	}

	for id, u := range index {
		u.SetRoleAssignments(roleAssignments[id])
		u.SetUserAssignments(userAssignments[id])
	}

	return nil
}

func scanUnit(row rowScanner) (*unit.Unit, error) {
	var (
		id             shared.ID
		organizationID shared.ID
		name           string
		description    sql.NullString
		parentID       sql.NullString
		level          int
		createdAt      time.Time
		updatedAt      time.Time
	)

	err := row.Scan(
		&id, &organizationID, &name, &description, &parentID,
		&level, &createdAt, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan unit: %w", err)
	}

	return unit.Reconstitute(
		id,
		organizationID,
		name,
		nullStringValue(description),
		parseNullID(parentID),
		level,
		createdAt,
		updatedAt,
	), nil
}

// scanRoleAssignment scans an assignment row joined with its role. The
// assignment fields are written into a; the role is returned.
func scanRoleAssignment(row rowScanner, a *unit.RoleAssignment) (*role.Role, error) {
	var (
		roleID             shared.ID
		roleOrgID          shared.ID
		roleName           string
		roleDescription    sql.NullString
		roleParentID       sql.NullString
		roleLevel          int
		shareDataWithPeers bool
		roleCreatedAt      time.Time
		roleUpdatedAt      time.Time
	)

	err := row.Scan(
		&a.ID, &a.UnitID, &a.RoleID, &a.CreatedAt, &a.UpdatedAt,
		&roleID, &roleOrgID, &roleName, &roleDescription, &roleParentID,
		&roleLevel, &shareDataWithPeers, &roleCreatedAt, &roleUpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan role assignment: %w", err)
	}

	return role.Reconstitute(
		roleID,
		roleOrgID,
		roleName,
		nullStringValue(roleDescription),
		parseNullID(roleParentID),
		roleLevel,
		shareDataWithPeers,
		roleCreatedAt,
		roleUpdatedAt,
	), nil
}

// scanUserAssignmentWithUser scans an assignment joined with its user and
// role details.
func scanUserAssignmentWithUser(row rowScanner) (*unit.UserAssignment, error) {
	a := &unit.UserAssignment{}
	var (
		notes sql.NullString

		userID         shared.ID
		userOrgID      shared.ID
		email          string
		firstName      sql.NullString
		lastName       sql.NullString
		avatar         sql.NullString
		department     sql.NullString
		userCreatedAt  time.Time
		userUpdatedAt  time.Time

		roleID             shared.ID
		roleOrgID          shared.ID
		roleName           string
		roleDescription    sql.NullString
		roleParentID       sql.NullString
		roleLevel          int
		shareDataWithPeers bool
		roleCreatedAt      time.Time
		roleUpdatedAt      time.Time
	)

	err := row.Scan(
		&a.ID, &a.UserID, &a.UnitID, &a.RoleID, &notes, &a.CreatedAt, &a.UpdatedAt,
		&userID, &userOrgID, &email, &firstName, &lastName, &avatar,
		&department, &userCreatedAt, &userUpdatedAt,
		&roleID, &roleOrgID, &roleName, &roleDescription, &roleParentID,
		&roleLevel, &shareDataWithPeers, &roleCreatedAt, &roleUpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan user assignment: %w", err)
	}

	a.Notes = nullStringValue(notes)
	a.User = user.Reconstitute(
		userID,
		userOrgID,
		email,
		nullStringValue(firstName),
		nullStringValue(lastName),
		nullStringValue(avatar),
		nullStringValue(department),
		userCreatedAt,
		userUpdatedAt,
	)
	a.Role = role.Reconstitute(
		roleID,
		roleOrgID,
		roleName,
		nullStringValue(roleDescription),
		parseNullID(roleParentID),
		roleLevel,
		shareDataWithPeers,
		roleCreatedAt,
		roleUpdatedAt,
	)

	return a, nil
}

// scanUserAssignmentWithRelations scans an assignment joined with its unit
// and role details.
func scanUserAssignmentWithRelations(row rowScanner) (*unit.UserAssignment, error) {
	a := &unit.UserAssignment{}
	var (
		notes sql.NullString

		unitID          shared.ID
		unitOrgID       shared.ID
		unitName        string
		unitDescription sql.NullString
		unitParentID    sql.NullString
		unitLevel       int
		unitCreatedAt   time.Time
		unitUpdatedAt   time.Time

		roleID             shared.ID
		roleOrgID          shared.ID
		roleName           string
		roleDescription    sql.NullString
		roleParentID       sql.NullString
		roleLevel          int
		shareDataWithPeers bool
		roleCreatedAt      time.Time
		roleUpdatedAt      time.Time
	)

	err := row.Scan(
		&a.ID, &a.UserID, &a.UnitID, &a.RoleID, &notes, &a.CreatedAt, &a.UpdatedAt,
		&unitID, &unitOrgID, &unitName, &unitDescription, &unitParentID,
		&unitLevel, &unitCreatedAt, &unitUpdatedAt,
		&roleID, &roleOrgID, &roleName, &roleDescription, &roleParentID,
		&roleLevel, &shareDataWithPeers, &roleCreatedAt, &roleUpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan user assignment: %w", err)
	}

	a.Notes = nullStringValue(notes)
	a.Unit = unit.Reconstitute(
		unitID,
		unitOrgID,
		unitName,
		nullStringValue(unitDescription),
		parseNullID(unitParentID),
		unitLevel,
		unitCreatedAt,
		unitUpdatedAt,
	)
	a.Role = role.Reconstitute(
		roleID,
		roleOrgID,
		roleName,
		nullStringValue(roleDescription),
		parseNullID(roleParentID),
		roleLevel,
		shareDataWithPeers,
		roleCreatedAt,
		roleUpdatedAt,
	)

	return a, nil
}
