// Package routes registers all HTTP routes for the API.
// Routes are organized by domain for maintainability.
package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/orgstackio/api/internal/infra/http/handler"
	"github.com/orgstackio/api/internal/metrics"
)

// Handlers holds all HTTP handlers for route registration.
type Handlers struct {
	Health       *handler.HealthHandler
	Organization *handler.OrganizationHandler
	Unit         *handler.UnitHandler
	Role         *handler.RoleHandler
	Permission   *handler.PermissionHandler
	User         *handler.UserHandler
	DataSharing  *handler.DataSharingHandler
}

// Register registers all application routes. This keeps route
// definitions in the infrastructure layer, not in main.
func Register(r chi.Router, h Handlers) {
	registerHealthRoutes(r, h.Health)

	r.Route("/api/v1", func(r chi.Router) {
		registerOrganizationRoutes(r, h)
		registerUnitRoutes(r, h.Unit)
		registerRoleRoutes(r, h.Role)
		registerPermissionRoutes(r, h.Permission)
		registerUserRoutes(r, h.User, h.Unit)
		registerAssignmentRoutes(r, h.Unit)
		registerDataSharingRoutes(r, h.DataSharing)
	})
}

// registerHealthRoutes registers health check and metrics endpoints.
func registerHealthRoutes(r chi.Router, h *handler.HealthHandler) {
	r.Get("/health", h.Health)
	r.Get("/api/v1/health", h.Health)
	r.Method("GET", "/metrics", metrics.Handler())
}

// registerOrganizationRoutes registers organization endpoints and the
// organization-scoped collections.
func registerOrganizationRoutes(r chi.Router, h Handlers) {
	r.Route("/organizations", func(r chi.Router) {
		r.Post("/ensure", h.Organization.EnsureOrganization)

		r.Route("/{orgID}", func(r chi.Router) {
			r.Get("/", h.Organization.GetOrganization)

			r.Route("/units", func(r chi.Router) {
				r.Get("/", h.Unit.GetUnitTree)
				r.Post("/", h.Unit.CreateUnit)
				r.Get("/stats", h.Unit.GetUnitStats)
			})

			r.Route("/roles", func(r chi.Router) {
				r.Get("/", h.Role.GetRoleTree)
				r.Post("/", h.Role.CreateRole)
				r.Get("/stats", h.Role.GetRoleStats)
			})

			r.Route("/permissions", func(r chi.Router) {
				r.Get("/", h.Permission.ListPermissions)
				r.Post("/", h.Permission.CreatePermission)
			})

			r.Route("/users", func(r chi.Router) {
				r.Get("/", h.User.ListUsers)
				r.Post("/", h.User.CreateUser)
			})

			r.Route("/data-sharing", func(r chi.Router) {
				r.Get("/", h.DataSharing.ListRules)
				r.Post("/", h.DataSharing.CreateRule)
			})
		})
	})
}

// registerUnitRoutes registers unit item endpoints and unit-role links.
func registerUnitRoutes(r chi.Router, h *handler.UnitHandler) {
	r.Route("/units/{unitID}", func(r chi.Router) {
		r.Get("/", h.GetUnit)
		r.Put("/", h.UpdateUnit)
		r.Delete("/", h.DeleteUnit)

		r.Post("/roles", h.AssignRole)
		r.Delete("/roles/{roleID}", h.RemoveRole)
	})
}

// registerRoleRoutes registers role item endpoints and permission
// grants.
func registerRoleRoutes(r chi.Router, h *handler.RoleHandler) {
	r.Route("/roles/{roleID}", func(r chi.Router) {
		r.Get("/", h.GetRole)
		r.Put("/", h.UpdateRole)
		r.Delete("/", h.DeleteRole)

		r.Get("/permissions", h.GetRolePermissions)
		r.Post("/permissions", h.SetRolePermission)
		r.Delete("/permissions/{permissionID}", h.RemoveRolePermission)
	})
}

// registerPermissionRoutes registers permission item endpoints.
func registerPermissionRoutes(r chi.Router, h *handler.PermissionHandler) {
	r.Get("/permissions/{permissionID}", h.GetPermission)
}

// registerUserRoutes registers user item endpoints and the user's
// assignment views.
func registerUserRoutes(r chi.Router, users *handler.UserHandler, units *handler.UnitHandler) {
	r.Route("/users/{userID}", func(r chi.Router) {
		r.Get("/", users.GetUser)

		r.Get("/assignments", units.ListUserAssignments)
		r.Delete("/assignments/{unitID}", units.RemoveUser)
	})
}

// registerAssignmentRoutes registers the user-to-unit assignment
// endpoint.
func registerAssignmentRoutes(r chi.Router, h *handler.UnitHandler) {
	r.Post("/assignments", h.AssignUser)
}

// registerDataSharingRoutes registers data-sharing rule item endpoints.
func registerDataSharingRoutes(r chi.Router, h *handler.DataSharingHandler) {
	r.Route("/data-sharing/{ruleID}", func(r chi.Router) {
		r.Get("/", h.GetRule)
		r.Put("/", h.UpdateRule)
		r.Delete("/", h.DeleteRule)
	})
}
