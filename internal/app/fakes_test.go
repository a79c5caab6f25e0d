package app

import (
	"context"

	"github.com/orgstackio/api/pkg/domain/datasharing"
	"github.com/orgstackio/api/pkg/domain/organization"
	"github.com/orgstackio/api/pkg/domain/permission"
	"github.com/orgstackio/api/pkg/domain/role"
	"github.com/orgstackio/api/pkg/domain/shared"
	"github.com/orgstackio/api/pkg/domain/unit"
	"github.com/orgstackio/api/pkg/domain/user"
)

// In-memory repository fakes shared by the service tests.

type fakeOrgRepo struct {
	byID   map[shared.ID]*organization.Organization
	byName map[string]*organization.Organization
}

func newFakeOrgRepo() *fakeOrgRepo {
	return &fakeOrgRepo{
		byID:   make(map[shared.ID]*organization.Organization),
		byName: make(map[string]*organization.Organization),
	}
}

func (f *fakeOrgRepo) Create(_ context.Context, org *organization.Organization) error {
	if _, ok := f.byName[org.Name()]; ok {
		return shared.ErrConflict
	}
	f.byID[org.ID()] = org
	f.byName[org.Name()] = org
	return nil
}

func (f *fakeOrgRepo) GetByID(_ context.Context, id shared.ID) (*organization.Organization, error) {
	org, ok := f.byID[id]
	if !ok {
		return nil, organization.ErrOrganizationNotFound
	}
	return org, nil
}

func (f *fakeOrgRepo) GetByName(_ context.Context, name string) (*organization.Organization, error) {
	org, ok := f.byName[name]
	if !ok {
		return nil, organization.ErrOrganizationNotFound
	}
	return org, nil
}

type fakeRoleRepo struct {
	roles        []*role.Role
	deletedTrees []shared.ID
}

func (f *fakeRoleRepo) Create(_ context.Context, r *role.Role) error {
	f.roles = append(f.roles, r)
	return nil
}

func (f *fakeRoleRepo) GetByID(_ context.Context, id shared.ID) (*role.Role, error) {
	for _, r := range f.roles {
		if r.ID().Equals(id) {
			return r, nil
		}
	}
	return nil, role.ErrRoleNotFound
}

func (f *fakeRoleRepo) ListByOrganization(_ context.Context, organizationID shared.ID) ([]*role.Role, error) {
	var result []*role.Role
	for _, r := range f.roles {
		if r.OrganizationID().Equals(organizationID) {
			result = append(result, r)
		}
	}
	return result, nil
}

func (f *fakeRoleRepo) Update(_ context.Context, r *role.Role) error {
	for i, existing := range f.roles {
		if existing.ID().Equals(r.ID()) {
			f.roles[i] = r
			return nil
		}
	}
	return role.ErrRoleNotFound
}

func (f *fakeRoleRepo) DeleteTree(_ context.Context, id shared.ID) error {
	for i, r := range f.roles {
		if r.ID().Equals(id) {
			f.roles = append(f.roles[:i], f.roles[i+1:]...)
			f.deletedTrees = append(f.deletedTrees, id)
			return nil
		}
	}
	return role.ErrRoleNotFound
}

type grantKey struct {
	roleID       shared.ID
	permissionID shared.ID
}

type fakeGrantRepo struct {
	grants map[grantKey]*permission.Grant
}

func newFakeGrantRepo() *fakeGrantRepo {
	return &fakeGrantRepo{grants: make(map[grantKey]*permission.Grant)}
}

func (f *fakeGrantRepo) ListByRole(_ context.Context, roleID shared.ID) ([]*permission.Grant, error) {
	var result []*permission.Grant
	for key, g := range f.grants {
		if key.roleID.Equals(roleID) {
			result = append(result, g)
		}
	}
	return result, nil
}

func (f *fakeGrantRepo) ListByRoles(_ context.Context, roleIDs []shared.ID) (map[shared.ID][]*permission.Grant, error) {
	result := make(map[shared.ID][]*permission.Grant)
	for _, id := range roleIDs {
		for key, g := range f.grants {
			if key.roleID.Equals(id) {
				result[id] = append(result[id], g)
			}
		}
	}
	return result, nil
}

func (f *fakeGrantRepo) Upsert(_ context.Context, g *permission.Grant) error {
	f.grants[grantKey{roleID: g.RoleID, permissionID: g.PermissionID}] = g
	return nil
}

func (f *fakeGrantRepo) Delete(_ context.Context, roleID, permissionID shared.ID) error {
	key := grantKey{roleID: roleID, permissionID: permissionID}
	if _, ok := f.grants[key]; !ok {
		return permission.ErrGrantNotFound
	}
	delete(f.grants, key)
	return nil
}

type fakePermRepo struct {
	permissions []*permission.Permission
}

func (f *fakePermRepo) Create(_ context.Context, p *permission.Permission) error {
	f.permissions = append(f.permissions, p)
	return nil
}

func (f *fakePermRepo) GetByID(_ context.Context, id shared.ID) (*permission.Permission, error) {
	for _, p := range f.permissions {
		if p.ID().Equals(id) {
			return p, nil
		}
	}
	return nil, permission.ErrPermissionNotFound
}

func (f *fakePermRepo) ListByOrganization(_ context.Context, organizationID shared.ID) ([]*permission.Permission, error) {
	var result []*permission.Permission
	for _, p := range f.permissions {
		if p.OrganizationID().Equals(organizationID) {
			result = append(result, p)
		}
	}
	return result, nil
}

type userAssignmentKey struct {
	userID shared.ID
	unitID shared.ID
}

type fakeUnitRepo struct {
	units           []*unit.Unit
	roleAssignments map[shared.ID][]*unit.RoleAssignment
	userAssignments map[userAssignmentKey]*unit.UserAssignment
	deletedTrees    []shared.ID
	replacedRoles   map[shared.ID][]shared.ID
	replacedUsers   map[shared.ID][]unit.UserRef
}

func newFakeUnitRepo() *fakeUnitRepo {
	return &fakeUnitRepo{
		roleAssignments: make(map[shared.ID][]*unit.RoleAssignment),
		userAssignments: make(map[userAssignmentKey]*unit.UserAssignment),
		replacedRoles:   make(map[shared.ID][]shared.ID),
		replacedUsers:   make(map[shared.ID][]unit.UserRef),
	}
}

func (f *fakeUnitRepo) Create(_ context.Context, u *unit.Unit) error {
	f.units = append(f.units, u)
	return nil
}

func (f *fakeUnitRepo) GetByID(_ context.Context, id shared.ID) (*unit.Unit, error) {
	for _, u := range f.units {
		if u.ID().Equals(id) {
			return u, nil
		}
	}
	return nil, unit.ErrUnitNotFound
}

func (f *fakeUnitRepo) GetDetail(ctx context.Context, id shared.ID) (*unit.Unit, error) {
	u, err := f.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	u.SetRoleAssignments(f.roleAssignments[id])
	var userAssignments []*unit.UserAssignment
	for key, a := range f.userAssignments {
		if key.unitID.Equals(id) {
			userAssignments = append(userAssignments, a)
		}
	}
	u.SetUserAssignments(userAssignments)
	return u, nil
}

func (f *fakeUnitRepo) ListByOrganization(_ context.Context, organizationID shared.ID) ([]*unit.Unit, error) {
	var result []*unit.Unit
	for _, u := range f.units {
		if u.OrganizationID().Equals(organizationID) {
			result = append(result, u)
		}
	}
	return result, nil
}

func (f *fakeUnitRepo) Update(_ context.Context, u *unit.Unit) error {
	for i, existing := range f.units {
		if existing.ID().Equals(u.ID()) {
			f.units[i] = u
			return nil
		}
	}
	return unit.ErrUnitNotFound
}

func (f *fakeUnitRepo) DeleteTree(_ context.Context, id shared.ID) error {
	for i, u := range f.units {
		if u.ID().Equals(id) {
			f.units = append(f.units[:i], f.units[i+1:]...)
			f.deletedTrees = append(f.deletedTrees, id)
			return nil
		}
	}
	return unit.ErrUnitNotFound
}

func (f *fakeUnitRepo) ReplaceAssignments(_ context.Context, unitID shared.ID, roleIDs []shared.ID, users []unit.UserRef) error {
	if roleIDs != nil {
		f.replacedRoles[unitID] = roleIDs
		assignments := make([]*unit.RoleAssignment, 0, len(roleIDs))
		for _, roleID := range roleIDs {
			assignments = append(assignments, unit.NewRoleAssignment(unitID, roleID))
		}
		f.roleAssignments[unitID] = assignments
	}
	if users != nil {
		f.replacedUsers[unitID] = users
		for key := range f.userAssignments {
			if key.unitID.Equals(unitID) {
				delete(f.userAssignments, key)
			}
		}
		for _, ref := range users {
			key := userAssignmentKey{userID: ref.UserID, unitID: unitID}
			f.userAssignments[key] = unit.NewUserAssignment(ref.UserID, unitID, ref.RoleID, "")
		}
	}
	return nil
}

func (f *fakeUnitRepo) AssignRole(_ context.Context, unitID, roleID shared.ID) (*unit.RoleAssignment, error) {
	for _, a := range f.roleAssignments[unitID] {
		if a.RoleID.Equals(roleID) {
			return nil, unit.ErrRoleAssignmentExists
		}
	}
	a := unit.NewRoleAssignment(unitID, roleID)
	f.roleAssignments[unitID] = append(f.roleAssignments[unitID], a)
	return a, nil
}

func (f *fakeUnitRepo) RemoveRole(_ context.Context, unitID, roleID shared.ID) error {
	assignments := f.roleAssignments[unitID]
	for i, a := range assignments {
		if a.RoleID.Equals(roleID) {
			f.roleAssignments[unitID] = append(assignments[:i], assignments[i+1:]...)
			return nil
		}
	}
	return unit.ErrRoleAssignmentNotFound
}

func (f *fakeUnitRepo) UpsertUserAssignment(_ context.Context, userID, unitID, roleID shared.ID, notes string) (*unit.UserAssignment, error) {
	key := userAssignmentKey{userID: userID, unitID: unitID}
	if existing, ok := f.userAssignments[key]; ok {
		existing.RoleID = roleID
		existing.Notes = notes
		return existing, nil
	}
	a := unit.NewUserAssignment(userID, unitID, roleID, notes)
	f.userAssignments[key] = a
	return a, nil
}

func (f *fakeUnitRepo) RemoveUserAssignment(_ context.Context, userID, unitID shared.ID) error {
	key := userAssignmentKey{userID: userID, unitID: unitID}
	if _, ok := f.userAssignments[key]; !ok {
		return unit.ErrUserAssignmentNotFound
	}
	delete(f.userAssignments, key)
	return nil
}

func (f *fakeUnitRepo) ListUserAssignments(_ context.Context, userID shared.ID) ([]*unit.UserAssignment, error) {
	var result []*unit.UserAssignment
	for key, a := range f.userAssignments {
		if key.userID.Equals(userID) {
			result = append(result, a)
		}
	}
	return result, nil
}

type fakeUserRepo struct {
	users []*user.User
}

func (f *fakeUserRepo) Create(_ context.Context, u *user.User) error {
	f.users = append(f.users, u)
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id shared.ID) (*user.User, error) {
	for _, u := range f.users {
		if u.ID().Equals(id) {
			return u, nil
		}
	}
	return nil, user.ErrUserNotFound
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, organizationID shared.ID, email string) (*user.User, error) {
	for _, u := range f.users {
		if u.OrganizationID().Equals(organizationID) && u.Email() == email {
			return u, nil
		}
	}
	return nil, user.ErrUserNotFound
}

func (f *fakeUserRepo) List(_ context.Context, organizationID shared.ID) ([]*user.User, error) {
	var result []*user.User
	for _, u := range f.users {
		if u.OrganizationID().Equals(organizationID) {
			result = append(result, u)
		}
	}
	return result, nil
}

type fakeRuleRepo struct {
	rules []*datasharing.Rule
}

func (f *fakeRuleRepo) Create(_ context.Context, r *datasharing.Rule) error {
	f.rules = append(f.rules, r)
	return nil
}

func (f *fakeRuleRepo) GetByID(_ context.Context, id shared.ID) (*datasharing.Rule, error) {
	for _, r := range f.rules {
		if r.ID().Equals(id) {
			return r, nil
		}
	}
	return nil, datasharing.ErrRuleNotFound
}

func (f *fakeRuleRepo) ListByOrganization(_ context.Context, organizationID shared.ID) ([]*datasharing.Detail, error) {
	var result []*datasharing.Detail
	for _, r := range f.rules {
		if r.OrganizationID().Equals(organizationID) {
			result = append(result, &datasharing.Detail{Rule: r})
		}
	}
	return result, nil
}

func (f *fakeRuleRepo) Update(_ context.Context, r *datasharing.Rule) error {
	for i, existing := range f.rules {
		if existing.ID().Equals(r.ID()) {
			f.rules[i] = r
			return nil
		}
	}
	return datasharing.ErrRuleNotFound
}

func (f *fakeRuleRepo) Delete(_ context.Context, id shared.ID) error {
	for i, r := range f.rules {
		if r.ID().Equals(id) {
			f.rules = append(f.rules[:i], f.rules[i+1:]...)
			return nil
		}
	}
	return datasharing.ErrRuleNotFound
}
