package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orgstackio/api/pkg/domain/organization"
	"github.com/orgstackio/api/pkg/domain/shared"
	"github.com/orgstackio/api/pkg/logger"
)

func TestOrganizationServiceEnsureOrganization(t *testing.T) {
	ctx := context.Background()

	t.Run("creates when missing", func(t *testing.T) {
		svc := NewOrganizationService(newFakeOrgRepo(), logger.NewNop())

		org, err := svc.EnsureOrganization(ctx, "Acme Corp")

		require.NoError(t, err)
		assert.Equal(t, "Acme Corp", org.Name())
	})

	t.Run("returns the existing organization", func(t *testing.T) {
		svc := NewOrganizationService(newFakeOrgRepo(), logger.NewNop())

		first, err := svc.EnsureOrganization(ctx, "Acme Corp")
		require.NoError(t, err)
		second, err := svc.EnsureOrganization(ctx, "Acme Corp")
		require.NoError(t, err)

		assert.True(t, first.ID().Equals(second.ID()))
	})

	t.Run("empty name is a validation error", func(t *testing.T) {
		svc := NewOrganizationService(newFakeOrgRepo(), logger.NewNop())

		_, err := svc.EnsureOrganization(ctx, "")

		assert.True(t, shared.IsValidation(err))
	})
}

func TestOrganizationServiceGetOrganization(t *testing.T) {
	ctx := context.Background()
	repo := newFakeOrgRepo()
	svc := NewOrganizationService(repo, logger.NewNop())

	org, err := svc.EnsureOrganization(ctx, "Acme Corp")
	require.NoError(t, err)

	t.Run("found", func(t *testing.T) {
		got, err := svc.GetOrganization(ctx, org.ID().String())
		require.NoError(t, err)
		assert.Equal(t, "Acme Corp", got.Name())
	})

	t.Run("not found", func(t *testing.T) {
		_, err := svc.GetOrganization(ctx, shared.NewID().String())
		assert.ErrorIs(t, err, organization.ErrOrganizationNotFound)
	})

	t.Run("invalid id", func(t *testing.T) {
		_, err := svc.GetOrganization(ctx, "nope")
		assert.True(t, shared.IsValidation(err))
	})
}
