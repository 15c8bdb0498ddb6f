package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/atelierhub/workshop-management/internal"
	"github.com/atelierhub/workshop-management/internal/auth"
	authpostgres "github.com/atelierhub/workshop-management/internal/auth/postgres"
	"github.com/atelierhub/workshop-management/internal/configuration"
	configurationpostgres "github.com/atelierhub/workshop-management/internal/configuration/postgres"
	"github.com/atelierhub/workshop-management/internal/core/events"
	"github.com/atelierhub/workshop-management/internal/dashboard"
	dashboardpostgres "github.com/atelierhub/workshop-management/internal/dashboard/postgres"
	"github.com/atelierhub/workshop-management/internal/export"
	"github.com/atelierhub/workshop-management/internal/history"
	historypostgres "github.com/atelierhub/workshop-management/internal/history/postgres"
	"github.com/atelierhub/workshop-management/internal/permission"
	permissionpostgres "github.com/atelierhub/workshop-management/internal/permission/postgres"
	"github.com/atelierhub/workshop-management/internal/role"
	rolepostgres "github.com/atelierhub/workshop-management/internal/role/postgres"
	"github.com/atelierhub/workshop-management/internal/task"
	taskpostgres "github.com/atelierhub/workshop-management/internal/task/postgres"
	"github.com/atelierhub/workshop-management/internal/transport/rest"
	"github.com/atelierhub/workshop-management/internal/user"
	userpostgres "github.com/atelierhub/workshop-management/internal/user/postgres"
	"github.com/atelierhub/workshop-management/internal/workorder"
	workorderpostgres "github.com/atelierhub/workshop-management/internal/workorder/postgres"
	"github.com/atelierhub/workshop-management/pkg/logger"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config *internal.Config
	DB     *sqlx.DB
	Router *chi.Mux
	Logger *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	slog.Info("Starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:         addr,
		Handler:      deps.Router,
		ReadTimeout:  deps.Config.Server.ReadTimeout,
		WriteTimeout: deps.Config.Server.WriteTimeout,
		IdleTimeout:  deps.Config.Server.IdleTimeout,
	}

	// Signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		slog.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}
		if err := deps.DB.Close(); err != nil {
			slog.Error("Database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}

	slog.Info("Server stopped")
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.InitWith(config.Observability.Logging.Level, config.Observability.Logging.Format)
	lg := logger.L()

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gormDB, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: db.DB}), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize orm: %w", err)
	}

	router := chi.NewRouter()
	handlers, gate := buildHandlers(config, gormDB, lg)
	rest.RegisterAllRoutes(router, db.DB, handlers, gate, config.Server.AllowedOrigins, lg)

	return &Dependencies{
		Config: config,
		Logger: lg,
		DB:     db,
		Router: router,
	}, nil
}

// buildHandlers wires repositories, services and handlers for every feature.
func buildHandlers(config *internal.Config, gormDB *gorm.DB, lg *slog.Logger) (rest.Handlers, *auth.Gate) {
	bus := events.NewEventBus(lg)

	tokenGen := auth.NewJWTTokenGenerator(
		config.Security.AccessTokenSecret,
		config.Security.RefreshTokenSecret,
		config.Security.AccessTokenDuration,
		config.Security.RefreshTokenDuration,
	)
	authService := auth.NewService(authpostgres.NewRepository(gormDB), tokenGen, config.Security.BCryptCost)
	gate := auth.NewGate(auth.NewPermissionChecker(), lg)

	userService := user.NewService(userpostgres.NewUserRepository(gormDB), authService, lg)
	roleService := role.NewService(rolepostgres.NewRoleRepository(gormDB), lg)
	permissionService := permission.NewService(permissionpostgres.NewPermissionRepository(gormDB), lg)
	configService := configuration.NewService(configurationpostgres.NewConfigurationRepository(gormDB), lg)
	workOrderService := workorder.NewService(workorderpostgres.NewWorkOrderRepository(gormDB), lg)
	taskService := task.NewService(taskpostgres.NewTaskRepository(gormDB), configService, workOrderService, bus, lg)
	historyService := history.NewService(historypostgres.NewHistoryRepository(gormDB), lg)
	dashboardService := dashboard.NewService(dashboardpostgres.NewDashboardRepository(gormDB), historyService, lg)
	exportService := export.NewService(userService, workOrderService, historyService, lg)

	// Every task transition lands in the activity history.
	history.RegisterRecorder(bus, historyService)

	return rest.Handlers{
		Auth:          auth.NewHandler(authService),
		User:          user.NewHandler(userService),
		Role:          role.NewHandler(roleService),
		Permission:    permission.NewHandler(permissionService),
		WorkOrder:     workorder.NewHandler(workOrderService),
		Task:          task.NewHandler(taskService),
		History:       history.NewHandler(historyService),
		Dashboard:     dashboard.NewHandler(dashboardService),
		Export:        export.NewHandler(exportService),
		Configuration: configuration.NewHandler(configService),
	}, gate
}

// initDB initializes the database connection
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	// verify connection; close underlying *sql.DB on failure
	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}
