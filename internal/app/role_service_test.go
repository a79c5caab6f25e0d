package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orgstackio/api/pkg/domain/permission"
	"github.com/orgstackio/api/pkg/domain/role"
	"github.com/orgstackio/api/pkg/domain/shared"
	"github.com/orgstackio/api/pkg/logger"
)

func newRoleServiceForTest() (*RoleService, *fakeRoleRepo, *fakePermRepo, *fakeGrantRepo) {
	roleRepo := &fakeRoleRepo{}
	permRepo := &fakePermRepo{}
	grantRepo := newFakeGrantRepo()
	svc := NewRoleService(roleRepo, permRepo, grantRepo, logger.NewNop())
	return svc, roleRepo, permRepo, grantRepo
}

func mustCreateRole(t *testing.T, svc *RoleService, orgID shared.ID, name, parentID string) *role.Role {
	t.Helper()
	ro, err := svc.CreateRole(context.Background(), CreateRoleInput{
		OrganizationID: orgID.String(),
		Name:           name,
		ParentID:       parentID,
	})
	require.NoError(t, err)
	return ro
}

func TestRoleServiceCreateRole(t *testing.T) {
	svc, _, _, _ := newRoleServiceForTest()
	orgID := shared.NewID()

	t.Run("root role gets level 0", func(t *testing.T) {
		ro := mustCreateRole(t, svc, orgID, "CEO", "")

		assert.Equal(t, 0, ro.Level())
		assert.Nil(t, ro.ParentID())
	})

	t.Run("child level derives from parent", func(t *testing.T) {
		parent := mustCreateRole(t, svc, orgID, "VP", "")
		child := mustCreateRole(t, svc, orgID, "Manager", parent.ID().String())
		grandchild := mustCreateRole(t, svc, orgID, "Engineer", child.ID().String())

		assert.Equal(t, 1, child.Level())
		assert.Equal(t, 2, grandchild.Level())
	})

	t.Run("parent from another organization is rejected", func(t *testing.T) {
		otherOrgParent := mustCreateRole(t, svc, shared.NewID(), "Other", "")

		_, err := svc.CreateRole(context.Background(), CreateRoleInput{
			OrganizationID: orgID.String(),
			Name:           "Stray",
			ParentID:       otherOrgParent.ID().String(),
		})

		assert.True(t, shared.IsValidation(err))
	})

	t.Run("unknown parent is rejected", func(t *testing.T) {
		_, err := svc.CreateRole(context.Background(), CreateRoleInput{
			OrganizationID: orgID.String(),
			Name:           "Orphan",
			ParentID:       shared.NewID().String(),
		})

		assert.ErrorIs(t, err, role.ErrRoleNotFound)
	})

	t.Run("invalid organization id is a validation error", func(t *testing.T) {
		_, err := svc.CreateRole(context.Background(), CreateRoleInput{
			OrganizationID: "not-a-uuid",
			Name:           "X",
		})

		assert.True(t, shared.IsValidation(err))
	})
}

func TestRoleServiceGetRoleTree(t *testing.T) {
	svc, _, _, _ := newRoleServiceForTest()
	orgID := shared.NewID()

	root := mustCreateRole(t, svc, orgID, "CEO", "")
	mustCreateRole(t, svc, orgID, "VP Engineering", root.ID().String())
	mustCreateRole(t, svc, orgID, "VP Sales", root.ID().String())

	forest, err := svc.GetRoleTree(context.Background(), orgID.String())

	require.NoError(t, err)
	require.Len(t, forest, 1)
	assert.Len(t, forest[0].Children(), 2)
}

func TestRoleServiceRoleTreeStats(t *testing.T) {
	svc, _, _, _ := newRoleServiceForTest()
	orgID := shared.NewID()

	root := mustCreateRole(t, svc, orgID, "CEO", "")
	_, err := svc.CreateRole(context.Background(), CreateRoleInput{
		OrganizationID:     orgID.String(),
		Name:               "VP",
		ParentID:           root.ID().String(),
		ShareDataWithPeers: true,
	})
	require.NoError(t, err)

	stats, err := svc.RoleTreeStats(context.Background(), orgID.String(), 1)

	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalNodes)
	assert.Equal(t, 2, stats.MaxDepth)
	assert.Equal(t, 1, stats.SharedRoles)
	assert.Equal(t, 0.5, stats.ExpansionRatio)
}

func TestRoleServiceDeleteRole(t *testing.T) {
	svc, roleRepo, _, _ := newRoleServiceForTest()
	orgID := shared.NewID()
	ro := mustCreateRole(t, svc, orgID, "CEO", "")

	require.NoError(t, svc.DeleteRole(context.Background(), ro.ID().String()))
	assert.Equal(t, []shared.ID{ro.ID()}, roleRepo.deletedTrees)

	err := svc.DeleteRole(context.Background(), ro.ID().String())
	assert.ErrorIs(t, err, role.ErrRoleNotFound)
}

func TestRoleServiceSetRolePermission(t *testing.T) {
	svc, _, permRepo, grantRepo := newRoleServiceForTest()
	orgID := shared.NewID()
	ro := mustCreateRole(t, svc, orgID, "CEO", "")

	p, err := permission.New(orgID, "View Reports", "", permission.CategoryRead, "reports")
	require.NoError(t, err)
	require.NoError(t, permRepo.Create(context.Background(), p))

	t.Run("grants and attaches catalog details", func(t *testing.T) {
		g, err := svc.SetRolePermission(context.Background(), ro.ID().String(), SetPermissionInput{
			PermissionID: p.ID().String(),
			CanDelegate:  true,
		})

		require.NoError(t, err)
		assert.True(t, g.CanDelegate)
		require.NotNil(t, g.Permission)
		assert.Equal(t, "View Reports", g.Permission.Name())
	})

	t.Run("regrant overwrites the delegation flag", func(t *testing.T) {
		g, err := svc.SetRolePermission(context.Background(), ro.ID().String(), SetPermissionInput{
			PermissionID: p.ID().String(),
			CanDelegate:  false,
		})

		require.NoError(t, err)
		assert.False(t, g.CanDelegate)
		assert.Len(t, grantRepo.grants, 1)
	})

	t.Run("unknown permission is rejected", func(t *testing.T) {
		_, err := svc.SetRolePermission(context.Background(), ro.ID().String(), SetPermissionInput{
			PermissionID: shared.NewID().String(),
		})

		assert.ErrorIs(t, err, permission.ErrPermissionNotFound)
	})

	t.Run("unknown role is rejected", func(t *testing.T) {
		_, err := svc.SetRolePermission(context.Background(), shared.NewID().String(), SetPermissionInput{
			PermissionID: p.ID().String(),
		})

		assert.ErrorIs(t, err, role.ErrRoleNotFound)
	})
}

func TestRoleServiceGetRolePermissions(t *testing.T) {
	svc, _, permRepo, _ := newRoleServiceForTest()
	ctx := context.Background()
	orgID := shared.NewID()

	grandparent := mustCreateRole(t, svc, orgID, "CEO", "")
	parent := mustCreateRole(t, svc, orgID, "VP", grandparent.ID().String())
	child := mustCreateRole(t, svc, orgID, "Manager", parent.ID().String())

	delegated, err := permission.New(orgID, "View Reports", "", permission.CategoryRead, "reports")
	require.NoError(t, err)
	held, err := permission.New(orgID, "Manage Members", "", permission.CategoryAdmin, "members")
	require.NoError(t, err)
	own, err := permission.New(orgID, "Edit Budgets", "", permission.CategoryWrite, "budgets")
	require.NoError(t, err)
	for _, p := range []*permission.Permission{delegated, held, own} {
		require.NoError(t, permRepo.Create(ctx, p))
	}

	// Grandparent delegates one permission; parent holds another without
	// delegating; child has a direct grant of its own.
	_, err = svc.SetRolePermission(ctx, grandparent.ID().String(), SetPermissionInput{PermissionID: delegated.ID().String(), CanDelegate: true})
	require.NoError(t, err)
	_, err = svc.SetRolePermission(ctx, parent.ID().String(), SetPermissionInput{PermissionID: held.ID().String(), CanDelegate: false})
	require.NoError(t, err)
	_, err = svc.SetRolePermission(ctx, child.ID().String(), SetPermissionInput{PermissionID: own.ID().String(), CanDelegate: false})
	require.NoError(t, err)

	perms, err := svc.GetRolePermissions(ctx, child.ID().String())
	require.NoError(t, err)

	require.Len(t, perms.Direct, 1)
	assert.True(t, perms.Direct[0].PermissionID.Equals(own.ID()))

	// Only the grandparent's delegable grant flows down; the parent's
	// non-delegable one stops at the parent.
	require.Len(t, perms.Inherited, 1)
	assert.True(t, perms.Inherited[0].PermissionID.Equals(delegated.ID()))
	require.NotNil(t, perms.Inherited[0].InheritedFrom)
	assert.True(t, perms.Inherited[0].InheritedFrom.Equals(grandparent.ID()))

	assert.Len(t, perms.Effective, 2)
}

func TestRoleServiceRemoveRolePermission(t *testing.T) {
	svc, _, permRepo, _ := newRoleServiceForTest()
	ctx := context.Background()
	orgID := shared.NewID()

	ro := mustCreateRole(t, svc, orgID, "CEO", "")
	p, err := permission.New(orgID, "View Reports", "", permission.CategoryRead, "reports")
	require.NoError(t, err)
	require.NoError(t, permRepo.Create(ctx, p))

	_, err = svc.SetRolePermission(ctx, ro.ID().String(), SetPermissionInput{PermissionID: p.ID().String()})
	require.NoError(t, err)

	require.NoError(t, svc.RemoveRolePermission(ctx, ro.ID().String(), p.ID().String()))

	err = svc.RemoveRolePermission(ctx, ro.ID().String(), p.ID().String())
	assert.ErrorIs(t, err, permission.ErrGrantNotFound)
}
