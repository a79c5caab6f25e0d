package permission

import "github.com/orgstackio/api/pkg/domain/shared"

// Resolver computes effective permissions for a role from its ancestor
// chain. It is pure: callers fetch the grants and the parent chain, the
// resolver only walks in-memory data.
type Resolver struct{}

// NewResolver creates a new Resolver.
func NewResolver() *Resolver {
	return &Resolver{}
}

// Ancestry maps each role to its parent, nil for roots. It is the
// resolver's view of the role taxonomy.
type Ancestry map[shared.ID]*shared.ID

// Inherited returns the grants a role receives from its ancestors: the
// parent's direct grants plus everything the parent itself inherited,
// filtered to entries marked delegable. A grant whose holder never
// delegates it stops at that holder, regardless of how deep the taxonomy
// is.
//
// The walk visits ancestors nearest-first, and the nearest ancestor
// holding a direct grant for a permission is authoritative for it: a
// non-delegable regrant closer to the role shadows a delegable grant
// further up. Each returned entry is a derived copy with InheritedFrom
// set to the ancestor the permission came from. A visited set guards
// against corrupt parent chains; a cycle terminates the walk rather than
// recursing forever.
func (r *Resolver) Inherited(roleID shared.ID, ancestry Ancestry, grants map[shared.ID][]*Grant) []*Grant {
	visited := map[shared.ID]bool{roleID: true}
	claimed := make(map[shared.ID]bool)
	var inherited []*Grant

	parent := ancestry[roleID]
	for parent != nil && !visited[*parent] {
		parentID := *parent
		visited[parentID] = true

		for _, g := range grants[parentID] {
			if !g.Granted || claimed[g.PermissionID] {
				continue
			}
			claimed[g.PermissionID] = true
			if !g.CanDelegate {
				continue
			}

			derived := *g
			derived.InheritedFrom = &parentID
			derived.RoleID = roleID
			inherited = append(inherited, &derived)
		}

		parent = ancestry[parentID]
	}

	return inherited
}

// Effective returns the union of a role's direct grants and its inherited
// grants. When a permission appears in both, the direct grant wins: its
// own CanDelegate flag is authoritative for further delegation.
func (r *Resolver) Effective(roleID shared.ID, ancestry Ancestry, grants map[shared.ID][]*Grant) []*Grant {
	direct := make(map[shared.ID]bool)
	var effective []*Grant

	for _, g := range grants[roleID] {
		if !g.Granted {
			continue
		}
		direct[g.PermissionID] = true
		effective = append(effective, g)
	}

	for _, g := range r.Inherited(roleID, ancestry, grants) {
		if direct[g.PermissionID] {
			continue
		}
		effective = append(effective, g)
	}

	return effective
}

// HasPermission reports whether the role's effective set contains the
// permission.
func (r *Resolver) HasPermission(roleID, permissionID shared.ID, ancestry Ancestry, grants map[shared.ID][]*Grant) bool {
	for _, g := range r.Effective(roleID, ancestry, grants) {
		if g.PermissionID.Equals(permissionID) {
			return true
		}
	}
	return false
}
