package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/orgstackio/api/internal/app"
	"github.com/orgstackio/api/internal/config"
	"github.com/orgstackio/api/internal/infra/http"
	"github.com/orgstackio/api/internal/infra/http/handler"
	"github.com/orgstackio/api/internal/infra/http/routes"
	"github.com/orgstackio/api/internal/infra/postgres"
	"github.com/orgstackio/api/pkg/logger"
	"github.com/orgstackio/api/pkg/validator"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	// ==========================================================================
	// Configuration & Logger
	// ==========================================================================
	cfg, err := config.Load()
	if err != nil {
		log := logger.NewDefault()
		log.Error("failed to load configuration", "error", err)
		return 1
	}

	log := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
	log.Info("starting application", "app", cfg.App.Name, "env", cfg.App.Env, "version", version)

	// ==========================================================================
	// Infrastructure
	// ==========================================================================
	db, err := postgres.New(&cfg.Database)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		return 1
	}
	defer closeWithLog(db, "database", log)
	log.Info("database connected")

	// ==========================================================================
	// Repositories
	// ==========================================================================
	orgRepo := postgres.NewOrganizationRepository(db)
	unitRepo := postgres.NewUnitRepository(db)
	roleRepo := postgres.NewRoleRepository(db)
	permRepo := postgres.NewPermissionRepository(db)
	grantRepo := postgres.NewGrantRepository(db)
	userRepo := postgres.NewUserRepository(db)
	ruleRepo := postgres.NewDataSharingRepository(db)

	// ==========================================================================
	// Services
	// ==========================================================================
	orgService := app.NewOrganizationService(orgRepo, log)
	unitService := app.NewUnitService(unitRepo, roleRepo, userRepo, log)
	roleService := app.NewRoleService(roleRepo, permRepo, grantRepo, log)
	permService := app.NewPermissionService(permRepo, log)
	userService := app.NewUserService(userRepo, log)
	ruleService := app.NewDataSharingService(ruleRepo, unitRepo, log)
	log.Info("services initialized")

	// ==========================================================================
	// HTTP Server
	// ==========================================================================
	v := validator.New()
	handlers := routes.Handlers{
		Health:       handler.NewHealthHandler(db, version),
		Organization: handler.NewOrganizationHandler(orgService, v, log),
		Unit:         handler.NewUnitHandler(unitService, v, log),
		Role:         handler.NewRoleHandler(roleService, v, log),
		Permission:   handler.NewPermissionHandler(permService, v, log),
		User:         handler.NewUserHandler(userService, v, log),
		DataSharing:  handler.NewDataSharingHandler(ruleService, v, log),
	}

	server := http.NewServer(cfg, log)
	routes.Register(server.Router(), handlers)

	go func() {
		if err := server.Start(); err != nil {
			log.Error("server error", "error", err)
		}
	}()
	log.Info("application started", "http_addr", cfg.Server.Addr())

	// ==========================================================================
	// Graceful Shutdown
	// ==========================================================================
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
		return 1
	}

	log.Info("application stopped")
	return 0
}

type closer interface {
	Close() error
}

func closeWithLog(c closer, name string, log *logger.Logger) {
	if err := c.Close(); err != nil {
		log.Error("failed to close "+name, "error", err)
	}
}
