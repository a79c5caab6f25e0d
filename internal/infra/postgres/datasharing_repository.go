package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/orgstackio/api/pkg/domain/datasharing"
	"github.com/orgstackio/api/pkg/domain/shared"
	"github.com/orgstackio/api/pkg/domain/unit"
)

// DataSharingRepository implements datasharing.Repository using PostgreSQL.
type DataSharingRepository struct {
	db *DB
}

// NewDataSharingRepository creates a new DataSharingRepository.
func NewDataSharingRepository(db *DB) *DataSharingRepository {
	return &DataSharingRepository{db: db}
}

// Create persists a new data-sharing rule.
func (r *DataSharingRepository) Create(ctx context.Context, rule *datasharing.Rule) error {
	query := `
		INSERT INTO data_sharing_rules (
			id, organization_id, name, description, source_unit_id, target_unit_id,
			data_types, access_level, conditions, is_active, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.db.ExecContext(ctx, query,
		rule.ID().String(),
		rule.OrganizationID().String(),
		rule.Name(),
		rule.Description(),
		rule.SourceUnitID().String(),
		rule.TargetUnitID().String(),
		pq.Array(emptyIfNil(rule.DataTypes())),
		rule.AccessLevel().String(),
		pq.Array(emptyIfNil(rule.Conditions())),
		rule.IsActive(),
		rule.CreatedAt(),
		rule.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to create data sharing rule: %w", err)
	}

	return nil
}

// GetByID retrieves a rule by ID.
func (r *DataSharingRepository) GetByID(ctx context.Context, id shared.ID) (*datasharing.Rule, error) {
	query := `
		SELECT id, organization_id, name, description, source_unit_id, target_unit_id,
			   data_types, access_level, conditions, is_active, created_at, updated_at
		FROM data_sharing_rules
		WHERE id = $1
	`

	rule, err := scanRule(r.db.QueryRowContext(ctx, query, id.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, datasharing.ErrRuleNotFound
		}
		return nil, err
	}
	return rule, nil
}

// ListByOrganization retrieves rules with source and target units
// hydrated, newest first.
func (r *DataSharingRepository) ListByOrganization(ctx context.Context, organizationID shared.ID) ([]*datasharing.Detail, error) {
	query := `
		SELECT r.id, r.organization_id, r.name, r.description, r.source_unit_id, r.target_unit_id,
			   r.data_types, r.access_level, r.conditions, r.is_active, r.created_at, r.updated_at,
			   s.id, s.organization_id, s.name, s.description, s.parent_id, s.level, s.created_at, s.updated_at,
			   t.id, t.organization_id, t.name, t.description, t.parent_id, t.level, t.created_at, t.updated_at
		FROM data_sharing_rules r
		JOIN units s ON s.id = r.source_unit_id
		JOIN units t ON t.id = r.target_unit_id
		WHERE r.organization_id = $1
		ORDER BY r.created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, organizationID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list data sharing rules: %w", err)
	}
	defer rows.Close()

	var details []*datasharing.Detail
	for rows.Next() {
		d, err := scanRuleDetail(rows)
		if err != nil {
			return nil, err
		}
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate data sharing rules: %w", err)
	}

	return details, nil
}

// Update updates an existing rule.
func (r *DataSharingRepository) Update(ctx context.Context, rule *datasharing.Rule) error {
	query := `
		UPDATE data_sharing_rules
		SET name = $2, description = $3, data_types = $4, access_level = $5,
			conditions = $6, is_active = $7, updated_at = $8
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		rule.ID().String(),
		rule.Name(),
		rule.Description(),
		pq.Array(emptyIfNil(rule.DataTypes())),
		rule.AccessLevel().String(),
		pq.Array(emptyIfNil(rule.Conditions())),
		rule.IsActive(),
		rule.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to update data sharing rule: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return datasharing.ErrRuleNotFound
	}

	return nil
}

// Delete removes a rule.
func (r *DataSharingRepository) Delete(ctx context.Context, id shared.ID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM data_sharing_rules WHERE id = $1`, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete data sharing rule: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return datasharing.ErrRuleNotFound
	}

	return nil
}

func scanRule(row rowScanner) (*datasharing.Rule, error) {
	var (
		id             shared.ID
		organizationID shared.ID
		name           string
		description    sql.NullString
		sourceUnitID   shared.ID
		targetUnitID   shared.ID
		dataTypes      pq.StringArray
		accessLevel    string
		conditions     pq.StringArray
		isActive       bool
		createdAt      time.Time
		updatedAt      time.Time
	)

	err := row.Scan(
		&id, &organizationID, &name, &description, &sourceUnitID, &targetUnitID,
		&dataTypes, &accessLevel, &conditions, &isActive, &createdAt, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan data sharing rule: %w", err)
	}

	return datasharing.Reconstitute(
		id,
		organizationID,
		name,
		nullStringValue(description),
		sourceUnitID,
		targetUnitID,
		dataTypes,
		datasharing.AccessLevel(accessLevel),
		conditions,
		isActive,
		createdAt,
		updatedAt,
	), nil
}

func scanRuleDetail(row rowScanner) (*datasharing.Detail, error) {
	var (
		id             shared.ID
		organizationID shared.ID
		name           string
		description    sql.NullString
		sourceUnitID   shared.ID
		targetUnitID   shared.ID
		dataTypes      pq.StringArray
		accessLevel    string
		conditions     pq.StringArray
		isActive       bool
		createdAt      time.Time
		updatedAt      time.Time

		srcID          shared.ID
		srcOrgID       shared.ID
		srcName        string
		srcDescription sql.NullString
		srcParentID    sql.NullString
		srcLevel       int
		srcCreatedAt   time.Time
		srcUpdatedAt   time.Time

		tgtID          shared.ID
		tgtOrgID       shared.ID
		tgtName        string
		tgtDescription sql.NullString
		tgtParentID    sql.NullString
		tgtLevel       int
		tgtCreatedAt   time.Time
		tgtUpdatedAt   time.Time
	)

	err := row.Scan(
		&id, &organizationID, &name, &description, &sourceUnitID, &targetUnitID,
		&dataTypes, &accessLevel, &conditions, &isActive, &createdAt, &updatedAt,
		&srcID, &srcOrgID, &srcName, &srcDescription, &srcParentID, &srcLevel, &srcCreatedAt, &srcUpdatedAt,
		&tgtID, &tgtOrgID, &tgtName, &tgtDescription, &tgtParentID, &tgtLevel, &tgtCreatedAt, &tgtUpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan data sharing rule detail: %w", err)
	}

	return &datasharing.Detail{
		Rule: datasharing.Reconstitute(
			id,
			organizationID,
			name,
			nullStringValue(description),
			sourceUnitID,
			targetUnitID,
			dataTypes,
			datasharing.AccessLevel(accessLevel),
			conditions,
			isActive,
			createdAt,
			updatedAt,
		),
		SourceUnit: unit.Reconstitute(
			srcID,
			srcOrgID,
			srcName,
			nullStringValue(srcDescription),
			parseNullID(srcParentID),
			srcLevel,
			srcCreatedAt,
			srcUpdatedAt,
		),
		TargetUnit: unit.Reconstitute(
			tgtID,
			tgtOrgID,
			tgtName,
			nullStringValue(tgtDescription),
			parseNullID(tgtParentID),
			tgtLevel,
			tgtCreatedAt,
			tgtUpdatedAt,
		),
	}, nil
}
