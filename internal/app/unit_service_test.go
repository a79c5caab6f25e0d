package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orgstackio/api/pkg/domain/role"
	"github.com/orgstackio/api/pkg/domain/shared"
	"github.com/orgstackio/api/pkg/domain/unit"
	"github.com/orgstackio/api/pkg/domain/user"
	"github.com/orgstackio/api/pkg/logger"
)

func newUnitServiceForTest() (*UnitService, *fakeUnitRepo, *fakeRoleRepo, *fakeUserRepo) {
	unitRepo := newFakeUnitRepo()
	roleRepo := &fakeRoleRepo{}
	userRepo := &fakeUserRepo{}
	svc := NewUnitService(unitRepo, roleRepo, userRepo, logger.NewNop())
	return svc, unitRepo, roleRepo, userRepo
}

func mustCreateUnit(t *testing.T, svc *UnitService, orgID shared.ID, name, parentID string) *unit.Unit {
	t.Helper()
	u, err := svc.CreateUnit(context.Background(), CreateUnitInput{
		OrganizationID: orgID.String(),
		Name:           name,
		ParentID:       parentID,
	})
	require.NoError(t, err)
	return u
}

func seedRole(t *testing.T, repo *fakeRoleRepo, orgID shared.ID, name string) *role.Role {
	t.Helper()
	ro, err := role.New(orgID, name, "", nil, 0, false)
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), ro))
	return ro
}

func seedUser(t *testing.T, repo *fakeUserRepo, orgID shared.ID, email string) *user.User {
	t.Helper()
	u, err := user.New(orgID, email, "", "", "")
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), u))
	return u
}

func TestUnitServiceCreateUnit(t *testing.T) {
	t.Run("root unit gets level 0", func(t *testing.T) {
		svc, _, _, _ := newUnitServiceForTest()
		u := mustCreateUnit(t, svc, shared.NewID(), "HQ", "")

		assert.Equal(t, 0, u.Level())
		assert.Nil(t, u.ParentID())
	})

	t.Run("child level derives from parent", func(t *testing.T) {
		svc, _, _, _ := newUnitServiceForTest()
		orgID := shared.NewID()
		parent := mustCreateUnit(t, svc, orgID, "HQ", "")
		child := mustCreateUnit(t, svc, orgID, "Engineering", parent.ID().String())

		assert.Equal(t, 1, child.Level())
		require.NotNil(t, child.ParentID())
		assert.True(t, child.ParentID().Equals(parent.ID()))
	})

	t.Run("parent from another organization is rejected", func(t *testing.T) {
		svc, _, _, _ := newUnitServiceForTest()
		parent := mustCreateUnit(t, svc, shared.NewID(), "Other HQ", "")

		_, err := svc.CreateUnit(context.Background(), CreateUnitInput{
			OrganizationID: shared.NewID().String(),
			Name:           "Stray",
			ParentID:       parent.ID().String(),
		})

		assert.True(t, shared.IsValidation(err))
	})

	t.Run("attaches initial role and user assignments", func(t *testing.T) {
		svc, unitRepo, roleRepo, userRepo := newUnitServiceForTest()
		orgID := shared.NewID()
		ro := seedRole(t, roleRepo, orgID, "VP")
		member := seedUser(t, userRepo, orgID, "alice@example.com")

		u, err := svc.CreateUnit(context.Background(), CreateUnitInput{
			OrganizationID: orgID.String(),
			Name:           "Engineering",
			RoleIDs:        []string{ro.ID().String()},
			Users:          []UserRefInput{{UserID: member.ID().String(), RoleID: ro.ID().String()}},
		})

		require.NoError(t, err)
		assert.Len(t, unitRepo.roleAssignments[u.ID()], 1)
		assert.Len(t, u.RoleAssignments(), 1)
		assert.Len(t, u.UserAssignments(), 1)
	})
}

func TestUnitServiceGetUnitTree(t *testing.T) {
	svc, _, _, _ := newUnitServiceForTest()
	orgID := shared.NewID()

	root := mustCreateUnit(t, svc, orgID, "HQ", "")
	eng := mustCreateUnit(t, svc, orgID, "Engineering", root.ID().String())
	mustCreateUnit(t, svc, orgID, "Platform", eng.ID().String())
	mustCreateUnit(t, svc, orgID, "Sales", root.ID().String())

	forest, err := svc.GetUnitTree(context.Background(), orgID.String())

	require.NoError(t, err)
	require.Len(t, forest, 1)
	assert.Len(t, forest[0].Children(), 2)

	stats, err := svc.UnitTreeStats(context.Background(), orgID.String(), 2)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.TotalNodes)
	assert.Equal(t, 3, stats.MaxDepth)
	assert.Equal(t, 2, stats.LeafCount)
	assert.Equal(t, 0.5, stats.ExpansionRatio)
}

func TestUnitServiceUpdateUnit(t *testing.T) {
	t.Run("nil assignment sets are left untouched", func(t *testing.T) {
		svc, unitRepo, _, _ := newUnitServiceForTest()
		orgID := shared.NewID()
		u := mustCreateUnit(t, svc, orgID, "HQ", "")

		_, err := svc.UpdateUnit(context.Background(), u.ID().String(), UpdateUnitInput{
			Name: "Headquarters",
		})

		require.NoError(t, err)
		assert.Empty(t, unitRepo.replacedRoles)
		assert.Empty(t, unitRepo.replacedUsers)
	})

	t.Run("empty slices clear the assignment sets", func(t *testing.T) {
		svc, unitRepo, roleRepo, _ := newUnitServiceForTest()
		orgID := shared.NewID()
		ro := seedRole(t, roleRepo, orgID, "VP")
		u, err := svc.CreateUnit(context.Background(), CreateUnitInput{
			OrganizationID: orgID.String(),
			Name:           "Engineering",
			RoleIDs:        []string{ro.ID().String()},
		})
		require.NoError(t, err)

		updated, err := svc.UpdateUnit(context.Background(), u.ID().String(), UpdateUnitInput{
			Name:    "Engineering",
			RoleIDs: []string{},
			Users:   []UserRefInput{},
		})

		require.NoError(t, err)
		assert.Empty(t, updated.RoleAssignments())
		assert.Empty(t, unitRepo.roleAssignments[u.ID()])
	})

	t.Run("unknown unit", func(t *testing.T) {
		svc, _, _, _ := newUnitServiceForTest()

		_, err := svc.UpdateUnit(context.Background(), shared.NewID().String(), UpdateUnitInput{Name: "X"})

		assert.ErrorIs(t, err, unit.ErrUnitNotFound)
	})
}

func TestUnitServiceDeleteUnit(t *testing.T) {
	svc, unitRepo, _, _ := newUnitServiceForTest()
	orgID := shared.NewID()
	u := mustCreateUnit(t, svc, orgID, "HQ", "")

	require.NoError(t, svc.DeleteUnit(context.Background(), u.ID().String()))
	assert.Equal(t, []shared.ID{u.ID()}, unitRepo.deletedTrees)

	err := svc.DeleteUnit(context.Background(), u.ID().String())
	assert.ErrorIs(t, err, unit.ErrUnitNotFound)
}

func TestUnitServiceAssignRole(t *testing.T) {
	svc, _, roleRepo, _ := newUnitServiceForTest()
	ctx := context.Background()
	orgID := shared.NewID()
	u := mustCreateUnit(t, svc, orgID, "HQ", "")
	ro := seedRole(t, roleRepo, orgID, "VP")

	a, err := svc.AssignRole(ctx, u.ID().String(), ro.ID().String())
	require.NoError(t, err)
	assert.True(t, a.RoleID.Equals(ro.ID()))

	t.Run("duplicate assignment is a conflict", func(t *testing.T) {
		_, err := svc.AssignRole(ctx, u.ID().String(), ro.ID().String())
		assert.ErrorIs(t, err, unit.ErrRoleAssignmentExists)
	})

	t.Run("unknown role is rejected before writing", func(t *testing.T) {
		_, err := svc.AssignRole(ctx, u.ID().String(), shared.NewID().String())
		assert.ErrorIs(t, err, role.ErrRoleNotFound)
	})

	t.Run("remove then reassign", func(t *testing.T) {
		require.NoError(t, svc.RemoveRole(ctx, u.ID().String(), ro.ID().String()))
		_, err := svc.AssignRole(ctx, u.ID().String(), ro.ID().String())
		assert.NoError(t, err)
	})
}

func TestUnitServiceAssignUser(t *testing.T) {
	svc, _, roleRepo, userRepo := newUnitServiceForTest()
	ctx := context.Background()
	orgID := shared.NewID()
	u := mustCreateUnit(t, svc, orgID, "Engineering", "")
	vp := seedRole(t, roleRepo, orgID, "VP")
	manager := seedRole(t, roleRepo, orgID, "Manager")
	member := seedUser(t, userRepo, orgID, "alice@example.com")

	first, err := svc.AssignUser(ctx, AssignUserInput{
		UserID: member.ID().String(),
		UnitID: u.ID().String(),
		RoleID: vp.ID().String(),
		Notes:  "initial",
	})
	require.NoError(t, err)

	t.Run("reassigning overwrites role and notes", func(t *testing.T) {
		second, err := svc.AssignUser(ctx, AssignUserInput{
			UserID: member.ID().String(),
			UnitID: u.ID().String(),
			RoleID: manager.ID().String(),
			Notes:  "moved to management",
		})

		require.NoError(t, err)
		assert.True(t, second.ID.Equals(first.ID))
		assert.True(t, second.RoleID.Equals(manager.ID()))
		assert.Equal(t, "moved to management", second.Notes)

		assignments, err := svc.ListUserAssignments(ctx, member.ID().String())
		require.NoError(t, err)
		assert.Len(t, assignments, 1)
	})

	t.Run("unknown user is rejected", func(t *testing.T) {
		_, err := svc.AssignUser(ctx, AssignUserInput{
			UserID: shared.NewID().String(),
			UnitID: u.ID().String(),
			RoleID: vp.ID().String(),
		})
		assert.ErrorIs(t, err, user.ErrUserNotFound)
	})

	t.Run("remove assignment", func(t *testing.T) {
		require.NoError(t, svc.RemoveUser(ctx, member.ID().String(), u.ID().String()))

		err := svc.RemoveUser(ctx, member.ID().String(), u.ID().String())
		assert.ErrorIs(t, err, unit.ErrUserAssignmentNotFound)
	})
}
