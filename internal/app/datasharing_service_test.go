package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orgstackio/api/pkg/domain/datasharing"
	"github.com/orgstackio/api/pkg/domain/shared"
	"github.com/orgstackio/api/pkg/domain/unit"
	"github.com/orgstackio/api/pkg/logger"
)

func newDataSharingServiceForTest(t *testing.T) (*DataSharingService, shared.ID, *unit.Unit, *unit.Unit) {
	t.Helper()
	ctx := context.Background()
	orgID := shared.NewID()

	unitRepo := newFakeUnitRepo()
	source, err := unit.New(orgID, "Engineering", "", nil, 0)
	require.NoError(t, err)
	target, err := unit.New(orgID, "Headquarters", "", nil, 0)
	require.NoError(t, err)
	require.NoError(t, unitRepo.Create(ctx, source))
	require.NoError(t, unitRepo.Create(ctx, target))

	svc := NewDataSharingService(&fakeRuleRepo{}, unitRepo, logger.NewNop())
	return svc, orgID, source, target
}

func TestDataSharingServiceCreateRule(t *testing.T) {
	ctx := context.Background()

	t.Run("creates a rule between two units", func(t *testing.T) {
		svc, orgID, source, target := newDataSharingServiceForTest(t)

		rule, err := svc.CreateRule(ctx, CreateRuleInput{
			OrganizationID: orgID.String(),
			Name:           "Engineering reports",
			SourceUnitID:   source.ID().String(),
			TargetUnitID:   target.ID().String(),
			DataTypes:      []string{"reports"},
			AccessLevel:    "read",
			IsActive:       true,
		})

		require.NoError(t, err)
		assert.Equal(t, datasharing.AccessRead, rule.AccessLevel())
		assert.True(t, rule.IsActive())
	})

	t.Run("self-share is rejected", func(t *testing.T) {
		svc, orgID, source, _ := newDataSharingServiceForTest(t)

		_, err := svc.CreateRule(ctx, CreateRuleInput{
			OrganizationID: orgID.String(),
			Name:           "Loop",
			SourceUnitID:   source.ID().String(),
			TargetUnitID:   source.ID().String(),
			AccessLevel:    "read",
		})

		assert.True(t, shared.IsValidation(err))
	})

	t.Run("unit from another organization is rejected", func(t *testing.T) {
		svc, _, source, target := newDataSharingServiceForTest(t)

		_, err := svc.CreateRule(ctx, CreateRuleInput{
			OrganizationID: shared.NewID().String(),
			Name:           "Cross-org",
			SourceUnitID:   source.ID().String(),
			TargetUnitID:   target.ID().String(),
			AccessLevel:    "read",
		})

		assert.True(t, shared.IsValidation(err))
	})

	t.Run("unknown unit is rejected", func(t *testing.T) {
		svc, orgID, source, _ := newDataSharingServiceForTest(t)

		_, err := svc.CreateRule(ctx, CreateRuleInput{
			OrganizationID: orgID.String(),
			Name:           "Missing target",
			SourceUnitID:   source.ID().String(),
			TargetUnitID:   shared.NewID().String(),
			AccessLevel:    "read",
		})

		assert.ErrorIs(t, err, unit.ErrUnitNotFound)
	})

	t.Run("invalid access level is rejected", func(t *testing.T) {
		svc, orgID, source, target := newDataSharingServiceForTest(t)

		_, err := svc.CreateRule(ctx, CreateRuleInput{
			OrganizationID: orgID.String(),
			Name:           "Bad level",
			SourceUnitID:   source.ID().String(),
			TargetUnitID:   target.ID().String(),
			AccessLevel:    "superuser",
		})

		assert.True(t, shared.IsValidation(err))
	})
}

func TestDataSharingServiceUpdateRule(t *testing.T) {
	ctx := context.Background()
	svc, orgID, source, target := newDataSharingServiceForTest(t)

	rule, err := svc.CreateRule(ctx, CreateRuleInput{
		OrganizationID: orgID.String(),
		Name:           "Engineering reports",
		SourceUnitID:   source.ID().String(),
		TargetUnitID:   target.ID().String(),
		AccessLevel:    "read",
		IsActive:       true,
	})
	require.NoError(t, err)

	updated, err := svc.UpdateRule(ctx, rule.ID().String(), UpdateRuleInput{
		Name:        "Engineering reports",
		AccessLevel: "write",
		IsActive:    false,
	})

	require.NoError(t, err)
	assert.Equal(t, datasharing.AccessWrite, updated.AccessLevel())
	assert.False(t, updated.IsActive())
	// Source and target are fixed at creation.
	assert.True(t, updated.SourceUnitID().Equals(source.ID()))
}

func TestDataSharingServiceDeleteRule(t *testing.T) {
	ctx := context.Background()
	svc, orgID, source, target := newDataSharingServiceForTest(t)

	rule, err := svc.CreateRule(ctx, CreateRuleInput{
		OrganizationID: orgID.String(),
		Name:           "Engineering reports",
		SourceUnitID:   source.ID().String(),
		TargetUnitID:   target.ID().String(),
		AccessLevel:    "read",
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteRule(ctx, rule.ID().String()))

	err = svc.DeleteRule(ctx, rule.ID().String())
	assert.ErrorIs(t, err, datasharing.ErrRuleNotFound)
}
