package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orgstackio/api/pkg/domain/shared"
	"github.com/orgstackio/api/pkg/domain/user"
	"github.com/orgstackio/api/pkg/logger"
)

func TestUserServiceCreateUser(t *testing.T) {
	ctx := context.Background()
	repo := &fakeUserRepo{}
	svc := NewUserService(repo, logger.NewNop())
	orgID := shared.NewID()

	t.Run("creates a user", func(t *testing.T) {
		u, err := svc.CreateUser(ctx, CreateUserInput{
			OrganizationID: orgID.String(),
			Email:          "alice@example.com",
			FirstName:      "Alice",
			LastName:       "Nguyen",
		})

		require.NoError(t, err)
		assert.Equal(t, "alice@example.com", u.Email())
		assert.Equal(t, "Alice Nguyen", u.FullName())
	})

	t.Run("duplicate email within the organization", func(t *testing.T) {
		_, err := svc.CreateUser(ctx, CreateUserInput{
			OrganizationID: orgID.String(),
			Email:          "alice@example.com",
		})

		assert.ErrorIs(t, err, user.ErrEmailExists)
	})

	t.Run("same email in another organization is allowed", func(t *testing.T) {
		_, err := svc.CreateUser(ctx, CreateUserInput{
			OrganizationID: shared.NewID().String(),
			Email:          "alice@example.com",
		})

		assert.NoError(t, err)
	})
}

func TestUserServiceListUsers(t *testing.T) {
	ctx := context.Background()
	repo := &fakeUserRepo{}
	svc := NewUserService(repo, logger.NewNop())
	orgID := shared.NewID()

	for _, email := range []string{"a@example.com", "b@example.com"} {
		_, err := svc.CreateUser(ctx, CreateUserInput{OrganizationID: orgID.String(), Email: email})
		require.NoError(t, err)
	}
	_, err := svc.CreateUser(ctx, CreateUserInput{OrganizationID: shared.NewID().String(), Email: "other@example.com"})
	require.NoError(t, err)

	users, err := svc.ListUsers(ctx, orgID.String())

	require.NoError(t, err)
	assert.Len(t, users, 2)
}

func TestUserServiceGetUser(t *testing.T) {
	ctx := context.Background()
	svc := NewUserService(&fakeUserRepo{}, logger.NewNop())

	_, err := svc.GetUser(ctx, shared.NewID().String())
	assert.ErrorIs(t, err, user.ErrUserNotFound)

	_, err = svc.GetUser(ctx, "bad-id")
	assert.True(t, shared.IsValidation(err))
}
