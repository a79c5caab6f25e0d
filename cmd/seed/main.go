// Command seed loads a YAML fixture into the database. It is meant for
// local development and demo environments.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/orgstackio/api/internal/app"
	"github.com/orgstackio/api/internal/config"
	"github.com/orgstackio/api/internal/infra/postgres"
	"github.com/orgstackio/api/pkg/logger"
)

var (
	flagFile  string
	flagClean bool
)

var rootCmd = &cobra.Command{
	Use:           "seed",
	Short:         "Load a YAML fixture into the database",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return run(cmd.Context())
	},
}

func init() {
	rootCmd.Flags().StringVarP(&flagFile, "file", "f", "scripts/seed.yaml", "Path to the fixture file")
	rootCmd.Flags().BoolVar(&flagClean, "clean", false, "Delete existing data before seeding")
}

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// Fixture mirrors the YAML layout of a seed file.
type Fixture struct {
	Organization string              `yaml:"organization"`
	Permissions  []PermissionFixture `yaml:"permissions"`
	Roles        []RoleFixture       `yaml:"roles"`
	Units        []UnitFixture       `yaml:"units"`
	Users        []UserFixture       `yaml:"users"`
	Assignments  []AssignmentFixture `yaml:"assignments"`
	Rules        []RuleFixture       `yaml:"rules"`
}

// PermissionFixture describes a catalog permission.
type PermissionFixture struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Category    string `yaml:"category"`
	Resource    string `yaml:"resource"`
}

// RoleFixture describes a role subtree. Grants reference permissions by
// name.
type RoleFixture struct {
	Name               string         `yaml:"name"`
	Description        string         `yaml:"description"`
	ShareDataWithPeers bool           `yaml:"share_data_with_peers"`
	Grants             []GrantFixture `yaml:"grants"`
	Children           []RoleFixture  `yaml:"children"`
}

// GrantFixture references a permission by name.
type GrantFixture struct {
	Permission  string `yaml:"permission"`
	CanDelegate bool   `yaml:"can_delegate"`
}

// UnitFixture describes a unit subtree. Roles are referenced by name.
type UnitFixture struct {
	Name        string        `yaml:"name"`
	Description string        `yaml:"description"`
	Roles       []string      `yaml:"roles"`
	Children    []UnitFixture `yaml:"children"`
}

// UserFixture describes a directory user.
type UserFixture struct {
	Email      string `yaml:"email"`
	FirstName  string `yaml:"first_name"`
	LastName   string `yaml:"last_name"`
	Department string `yaml:"department"`
}

// AssignmentFixture places a user in a unit with a role. All references
// are by name or email.
type AssignmentFixture struct {
	User  string `yaml:"user"`
	Unit  string `yaml:"unit"`
	Role  string `yaml:"role"`
	Notes string `yaml:"notes"`
}

// RuleFixture describes a data-sharing rule between two units.
type RuleFixture struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Source      string   `yaml:"source"`
	Target      string   `yaml:"target"`
	DataTypes   []string `yaml:"data_types"`
	AccessLevel string   `yaml:"access_level"`
	Conditions  []string `yaml:"conditions"`
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log := logger.New(logger.Config{Level: cfg.Log.Level, Format: "text"})

	data, err := os.ReadFile(flagFile)
	if err != nil {
		return fmt.Errorf("failed to read fixture: %w", err)
	}

	var fixture Fixture
	if err := yaml.Unmarshal(data, &fixture); err != nil {
		return fmt.Errorf("failed to parse fixture: %w", err)
	}
	if fixture.Organization == "" {
		return fmt.Errorf("fixture has no organization name")
	}

	db, err := postgres.New(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if flagClean {
		if err := cleanDatabase(ctx, db); err != nil {
			return fmt.Errorf("failed to clean database: %w", err)
		}
		log.Info("existing data removed")
	}

	s := &seeder{
		log:         log,
		orgs:        app.NewOrganizationService(postgres.NewOrganizationRepository(db), log),
		units:       app.NewUnitService(postgres.NewUnitRepository(db), postgres.NewRoleRepository(db), postgres.NewUserRepository(db), log),
		roles:       app.NewRoleService(postgres.NewRoleRepository(db), postgres.NewPermissionRepository(db), postgres.NewGrantRepository(db), log),
		permissions: app.NewPermissionService(postgres.NewPermissionRepository(db), log),
		users:       app.NewUserService(postgres.NewUserRepository(db), log),
		rules:       app.NewDataSharingService(postgres.NewDataSharingRepository(db), postgres.NewUnitRepository(db), log),

		permissionIDs: make(map[string]string),
		roleIDs:       make(map[string]string),
		unitIDs:       make(map[string]string),
		userIDs:       make(map[string]string),
	}

	if err := s.seed(ctx, &fixture); err != nil {
		return err
	}

	log.Info("seed completed",
		"permissions", len(s.permissionIDs),
		"roles", len(s.roleIDs),
		"units", len(s.unitIDs),
		"users", len(s.userIDs),
	)
	return nil
}

// cleanDatabase removes all data. Child tables cascade from their
// parents; organizations is the root of every FK chain.
func cleanDatabase(ctx context.Context, db *postgres.DB) error {
	_, err := db.ExecContext(ctx, `DELETE FROM organizations`)
	return err
}

type seeder struct {
	log         *logger.Logger
	orgs        *app.OrganizationService
	units       *app.UnitService
	roles       *app.RoleService
	permissions *app.PermissionService
	users       *app.UserService
	rules       *app.DataSharingService

	orgID         string
	permissionIDs map[string]string
	roleIDs       map[string]string
	unitIDs       map[string]string
	userIDs       map[string]string
}

func (s *seeder) seed(ctx context.Context, f *Fixture) error {
	org, err := s.orgs.EnsureOrganization(ctx, f.Organization)
	if err != nil {
		return fmt.Errorf("failed to ensure organization: %w", err)
	}
	s.orgID = org.ID().String()
	s.log.Info("organization ready", "name", org.Name(), "id", s.orgID)

	for _, p := range f.Permissions {
		created, err := s.permissions.CreatePermission(ctx, app.CreatePermissionInput{
			OrganizationID: s.orgID,
			Name:           p.Name,
			Description:    p.Description,
			Category:       p.Category,
			Resource:       p.Resource,
		})
		if err != nil {
			return fmt.Errorf("failed to create permission %q: %w", p.Name, err)
		}
		s.permissionIDs[p.Name] = created.ID().String()
	}

	for _, r := range f.Roles {
		if err := s.seedRole(ctx, r, ""); err != nil {
			return err
		}
	}

	for _, u := range f.Units {
		if err := s.seedUnit(ctx, u, ""); err != nil {
			return err
		}
	}

	for _, u := range f.Users {
		created, err := s.users.CreateUser(ctx, app.CreateUserInput{
			OrganizationID: s.orgID,
			Email:          u.Email,
			FirstName:      u.FirstName,
			LastName:       u.LastName,
			Department:     u.Department,
		})
		if err != nil {
			return fmt.Errorf("failed to create user %q: %w", u.Email, err)
		}
		s.userIDs[u.Email] = created.ID().String()
	}

	for _, a := range f.Assignments {
		input := app.AssignUserInput{Notes: a.Notes}
		var ok bool
		if input.UserID, ok = s.userIDs[a.User]; !ok {
			return fmt.Errorf("assignment references unknown user %q", a.User)
		}
		if input.UnitID, ok = s.unitIDs[a.Unit]; !ok {
			return fmt.Errorf("assignment references unknown unit %q", a.Unit)
		}
		if input.RoleID, ok = s.roleIDs[a.Role]; !ok {
			return fmt.Errorf("assignment references unknown role %q", a.Role)
		}
		if _, err := s.units.AssignUser(ctx, input); err != nil {
			return fmt.Errorf("failed to assign %q to %q: %w", a.User, a.Unit, err)
		}
	}

	for _, r := range f.Rules {
		sourceID, ok := s.unitIDs[r.Source]
		if !ok {
			return fmt.Errorf("rule %q references unknown unit %q", r.Name, r.Source)
		}
		targetID, ok := s.unitIDs[r.Target]
		if !ok {
			return fmt.Errorf("rule %q references unknown unit %q", r.Name, r.Target)
		}
		if _, err := s.rules.CreateRule(ctx, app.CreateRuleInput{
			OrganizationID: s.orgID,
			Name:           r.Name,
			Description:    r.Description,
			SourceUnitID:   sourceID,
			TargetUnitID:   targetID,
			DataTypes:      r.DataTypes,
			AccessLevel:    r.AccessLevel,
			Conditions:     r.Conditions,
			IsActive:       true,
		}); err != nil {
			return fmt.Errorf("failed to create rule %q: %w", r.Name, err)
		}
	}

	return nil
}

func (s *seeder) seedRole(ctx context.Context, f RoleFixture, parentID string) error {
	created, err := s.roles.CreateRole(ctx, app.CreateRoleInput{
		OrganizationID:     s.orgID,
		Name:               f.Name,
		Description:        f.Description,
		ParentID:           parentID,
		ShareDataWithPeers: f.ShareDataWithPeers,
	})
	if err != nil {
		return fmt.Errorf("failed to create role %q: %w", f.Name, err)
	}
	id := created.ID().String()
	s.roleIDs[f.Name] = id

	for _, g := range f.Grants {
		permID, ok := s.permissionIDs[g.Permission]
		if !ok {
			return fmt.Errorf("role %q references unknown permission %q", f.Name, g.Permission)
		}
		if _, err := s.roles.SetRolePermission(ctx, id, app.SetPermissionInput{
			PermissionID: permID,
			CanDelegate:  g.CanDelegate,
		}); err != nil {
			return fmt.Errorf("failed to grant %q to role %q: %w", g.Permission, f.Name, err)
		}
	}

	for _, child := range f.Children {
		if err := s.seedRole(ctx, child, id); err != nil {
			return err
		}
	}
	return nil
}

func (s *seeder) seedUnit(ctx context.Context, f UnitFixture, parentID string) error {
	roleIDs := make([]string, 0, len(f.Roles))
	for _, name := range f.Roles {
		id, ok := s.roleIDs[name]
		if !ok {
			return fmt.Errorf("unit %q references unknown role %q", f.Name, name)
		}
		roleIDs = append(roleIDs, id)
	}

	created, err := s.units.CreateUnit(ctx, app.CreateUnitInput{
		OrganizationID: s.orgID,
		Name:           f.Name,
		Description:    f.Description,
		ParentID:       parentID,
		RoleIDs:        roleIDs,
	})
	if err != nil {
		return fmt.Errorf("failed to create unit %q: %w", f.Name, err)
	}
	id := created.ID().String()
	s.unitIDs[f.Name] = id

	for _, child := range f.Children {
		if err := s.seedUnit(ctx, child, id); err != nil {
			return err
		}
	}
	return nil
}
