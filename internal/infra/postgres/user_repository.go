package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/orgstackio/api/pkg/domain/shared"
	"github.com/orgstackio/api/pkg/domain/user"
)

// UserRepository implements user.Repository using PostgreSQL.
type UserRepository struct {
	db *DB
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create persists a new user.
func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	query := `
		INSERT INTO users (
			id, organization_id, email, first_name, last_name, avatar,
			department, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.ExecContext(ctx, query,
		u.ID().String(),
		u.OrganizationID().String(),
		u.Email(),
		nullString(u.FirstName()),
		nullString(u.LastName()),
		nullString(u.Avatar()),
		nullString(u.Department()),
		u.CreatedAt(),
		u.UpdatedAt(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return user.ErrEmailExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id shared.ID) (*user.User, error) {
	query := `
		SELECT id, organization_id, email, first_name, last_name, avatar,
			   department, created_at, updated_at
		FROM users
		WHERE id = $1
	`

	u, err := scanUser(r.db.QueryRowContext(ctx, query, id.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, user.ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

// GetByEmail retrieves a user by organization and email.
func (r *UserRepository) GetByEmail(ctx context.Context, organizationID shared.ID, email string) (*user.User, error) {
	query := `
		SELECT id, organization_id, email, first_name, last_name, avatar,
			   department, created_at, updated_at
		FROM users
		WHERE organization_id = $1 AND email = $2
	`

	u, err := scanUser(r.db.QueryRowContext(ctx, query, organizationID.String(), email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, user.ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

// List retrieves users ordered by creation time, newest first.
func (r *UserRepository) List(ctx context.Context, organizationID shared.ID) ([]*user.User, error) {
	query := `
		SELECT id, organization_id, email, first_name, last_name, avatar,
			   department, created_at, updated_at
		FROM users
		WHERE organization_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, organizationID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*user.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}

	return users, nil
}

func scanUser(row rowScanner) (*user.User, error) {
	var (
		id             shared.ID
		organizationID shared.ID
		email          string
		firstName      sql.NullString
		lastName       sql.NullString
		avatar         sql.NullString
		department     sql.NullString
		createdAt      time.Time
		updatedAt      time.Time
	)

	err := row.Scan(
		&id, &organizationID, &email, &firstName, &lastName,
		&avatar, &department, &createdAt, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}

	return user.Reconstitute(
		id,
		organizationID,
		email,
		nullStringValue(firstName),
		nullStringValue(lastName),
		nullStringValue(avatar),
		nullStringValue(department),
		createdAt,
		updatedAt,
	), nil
}
