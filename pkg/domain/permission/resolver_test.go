package permission

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orgstackio/api/pkg/domain/shared"
)

// chain builds an ancestry where each role's parent is the next entry:
// chain(a, b, c) makes b the parent of a and c the parent of b.
func chain(ids ...shared.ID) Ancestry {
	ancestry := make(Ancestry, len(ids))
	for i, id := range ids {
		if i+1 < len(ids) {
			parent := ids[i+1]
			ancestry[id] = &parent
		} else {
			ancestry[id] = nil
		}
	}
	return ancestry
}

func TestResolverInherited(t *testing.T) {
	resolver := NewResolver()
	permID := shared.NewID()

	t.Run("delegable grant flows down", func(t *testing.T) {
		child, parent := shared.NewID(), shared.NewID()
		grants := map[shared.ID][]*Grant{
			parent: {NewGrant(parent, permID, true)},
		}

		inherited := resolver.Inherited(child, chain(child, parent), grants)

		require.Len(t, inherited, 1)
		assert.True(t, inherited[0].PermissionID.Equals(permID))
		assert.True(t, inherited[0].RoleID.Equals(child))
		require.NotNil(t, inherited[0].InheritedFrom)
		assert.True(t, inherited[0].InheritedFrom.Equals(parent))
	})

	t.Run("non-delegable grant stops at its holder", func(t *testing.T) {
		child, parent := shared.NewID(), shared.NewID()
		grants := map[shared.ID][]*Grant{
			parent: {NewGrant(parent, permID, false)},
		}

		inherited := resolver.Inherited(child, chain(child, parent), grants)

		assert.Empty(t, inherited)
	})

	t.Run("delegable grant crosses multiple levels", func(t *testing.T) {
		child, parent, grandparent := shared.NewID(), shared.NewID(), shared.NewID()
		grants := map[shared.ID][]*Grant{
			grandparent: {NewGrant(grandparent, permID, true)},
		}

		inherited := resolver.Inherited(child, chain(child, parent, grandparent), grants)

		require.Len(t, inherited, 1)
		assert.True(t, inherited[0].InheritedFrom.Equals(grandparent))
	})

	t.Run("nearer non-delegable regrant shadows farther delegable grant", func(t *testing.T) {
		child, parent, grandparent := shared.NewID(), shared.NewID(), shared.NewID()
		grants := map[shared.ID][]*Grant{
			parent:      {NewGrant(parent, permID, false)},
			grandparent: {NewGrant(grandparent, permID, true)},
		}

		inherited := resolver.Inherited(child, chain(child, parent, grandparent), grants)

		// The parent holds the permission without delegating, so the
		// grandparent's delegable grant never reaches the child.
		assert.Empty(t, inherited)
	})

	t.Run("revoked grant is skipped", func(t *testing.T) {
		child, parent := shared.NewID(), shared.NewID()
		revoked := NewGrant(parent, permID, true)
		revoked.Granted = false
		grants := map[shared.ID][]*Grant{
			parent: {revoked},
		}

		inherited := resolver.Inherited(child, chain(child, parent), grants)

		assert.Empty(t, inherited)
	})

	t.Run("original grant is not mutated", func(t *testing.T) {
		child, parent := shared.NewID(), shared.NewID()
		g := NewGrant(parent, permID, true)
		grants := map[shared.ID][]*Grant{parent: {g}}

		resolver.Inherited(child, chain(child, parent), grants)

		assert.Nil(t, g.InheritedFrom)
		assert.True(t, g.RoleID.Equals(parent))
	})

	t.Run("parent cycle terminates", func(t *testing.T) {
		a, b := shared.NewID(), shared.NewID()
		ancestry := Ancestry{a: &b, b: &a}
		grants := map[shared.ID][]*Grant{
			b: {NewGrant(b, permID, true)},
		}

		inherited := resolver.Inherited(a, ancestry, grants)

		require.Len(t, inherited, 1)
	})

	t.Run("root role inherits nothing", func(t *testing.T) {
		root := shared.NewID()
		assert.Empty(t, resolver.Inherited(root, chain(root), nil))
	})
}

func TestResolverEffective(t *testing.T) {
	resolver := NewResolver()
	permID := shared.NewID()

	t.Run("union of direct and inherited", func(t *testing.T) {
		child, parent := shared.NewID(), shared.NewID()
		otherPerm := shared.NewID()
		grants := map[shared.ID][]*Grant{
			child:  {NewGrant(child, permID, false)},
			parent: {NewGrant(parent, otherPerm, true)},
		}

		effective := resolver.Effective(child, chain(child, parent), grants)

		require.Len(t, effective, 2)
		assert.Nil(t, effective[0].InheritedFrom)
		assert.NotNil(t, effective[1].InheritedFrom)
	})

	t.Run("direct grant wins over inherited duplicate", func(t *testing.T) {
		child, parent := shared.NewID(), shared.NewID()
		direct := NewGrant(child, permID, false)
		grants := map[shared.ID][]*Grant{
			child:  {direct},
			parent: {NewGrant(parent, permID, true)},
		}

		effective := resolver.Effective(child, chain(child, parent), grants)

		require.Len(t, effective, 1)
		assert.Same(t, direct, effective[0])
		assert.False(t, effective[0].CanDelegate)
	})

	t.Run("revoked direct grant does not appear", func(t *testing.T) {
		role := shared.NewID()
		revoked := NewGrant(role, permID, false)
		revoked.Granted = false
		grants := map[shared.ID][]*Grant{role: {revoked}}

		assert.Empty(t, resolver.Effective(role, chain(role), grants))
	})
}

func TestResolverHasPermission(t *testing.T) {
	resolver := NewResolver()
	permID := shared.NewID()
	child, parent := shared.NewID(), shared.NewID()
	grants := map[shared.ID][]*Grant{
		parent: {NewGrant(parent, permID, true)},
	}
	ancestry := chain(child, parent)

	assert.True(t, resolver.HasPermission(child, permID, ancestry, grants))
	assert.False(t, resolver.HasPermission(child, shared.NewID(), ancestry, grants))
}

func TestGrantIsDirect(t *testing.T) {
	g := NewGrant(shared.NewID(), shared.NewID(), false)
	assert.True(t, g.IsDirect())

	from := shared.NewID()
	g.InheritedFrom = &from
	assert.False(t, g.IsDirect())
}
