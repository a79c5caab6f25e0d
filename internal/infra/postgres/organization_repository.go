package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/orgstackio/api/pkg/domain/organization"
	"github.com/orgstackio/api/pkg/domain/shared"
)

// OrganizationRepository implements organization.Repository using PostgreSQL.
type OrganizationRepository struct {
	db *DB
}

// NewOrganizationRepository creates a new OrganizationRepository.
func NewOrganizationRepository(db *DB) *OrganizationRepository {
	return &OrganizationRepository{db: db}
}

// Create persists a new organization.
func (r *OrganizationRepository) Create(ctx context.Context, org *organization.Organization) error {
	query := `
		INSERT INTO organizations (id, name, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.db.ExecContext(ctx, query,
		org.ID().String(),
		org.Name(),
		org.CreatedAt(),
		org.UpdatedAt(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: organization name already exists", shared.ErrConflict)
		}
		return fmt.Errorf("failed to create organization: %w", err)
	}

	return nil
}

// GetByID retrieves an organization by ID.
func (r *OrganizationRepository) GetByID(ctx context.Context, id shared.ID) (*organization.Organization, error) {
	query := `
		SELECT id, name, created_at, updated_at
		FROM organizations
		WHERE id = $1
	`

	return r.scanOrganization(r.db.QueryRowContext(ctx, query, id.String()))
}

// GetByName retrieves an organization by name.
func (r *OrganizationRepository) GetByName(ctx context.Context, name string) (*organization.Organization, error) {
	query := `
		SELECT id, name, created_at, updated_at
		FROM organizations
		WHERE name = $1
	`

	return r.scanOrganization(r.db.QueryRowContext(ctx, query, name))
}

func (r *OrganizationRepository) scanOrganization(row *sql.Row) (*organization.Organization, error) {
	var (
		id        shared.ID
		name      string
		createdAt time.Time
		updatedAt time.Time
	)

	err := row.Scan(&id, &name, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, organization.ErrOrganizationNotFound
		}
		return nil, fmt.Errorf("failed to scan organization: %w", err)
	}

	return organization.Reconstitute(id, name, createdAt, updatedAt), nil
}
