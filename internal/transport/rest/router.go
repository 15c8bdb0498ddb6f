package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"

	"github.com/atelierhub/workshop-management/internal/auth"
	"github.com/atelierhub/workshop-management/internal/configuration"
	"github.com/atelierhub/workshop-management/internal/dashboard"
	"github.com/atelierhub/workshop-management/internal/export"
	"github.com/atelierhub/workshop-management/internal/history"
	"github.com/atelierhub/workshop-management/internal/permission"
	"github.com/atelierhub/workshop-management/internal/role"
	"github.com/atelierhub/workshop-management/internal/task"
	"github.com/atelierhub/workshop-management/internal/transport/middleware"
	"github.com/atelierhub/workshop-management/internal/transport/swagger"
	"github.com/atelierhub/workshop-management/internal/user"
	"github.com/atelierhub/workshop-management/internal/workorder"
)

// Handlers bundles every feature handler the router mounts.
type Handlers struct {
	Auth          *auth.Handler
	User          *user.Handler
	Role          *role.Handler
	Permission    *permission.Handler
	WorkOrder     *workorder.Handler
	Task          *task.Handler
	History       *history.Handler
	Dashboard     *dashboard.Handler
	Export        *export.Handler
	Configuration *configuration.Handler
}

func RegisterAllRoutes(router *chi.Mux, db *sql.DB, h Handlers, gate *auth.Gate, allowedOrigins string, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db)

	// Apply global middleware
	router.Use(middleware.CORSWithOrigins(allowedOrigins))
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.RecoveryMiddleware(logger))

	// Serve OpenAPI spec at root (outside API prefix)
	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	// Swagger UI route at root
	router.Handle("/swagger/*", swagger.Handler())

	// Mount API under /api/v1 to match OpenAPI basePath
	router.Route("/api/v1", func(r chi.Router) {
		// Health check route
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		// Auth routes
		r.Route("/auth", func(sr chi.Router) {
			sr.Post("/login", h.Auth.Login)
			sr.Post("/refresh", h.Auth.RefreshToken)
			sr.Post("/logout", h.Auth.Logout)
			sr.Group(func(ar chi.Router) {
				ar.Use(h.Auth.AuthMiddleware)
				ar.Get("/me", h.Auth.Me)
			})
		})

		// Protected routes that require authentication
		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.AuthMiddleware)

			// Current user and configuration are readable by anyone logged in;
			// the screens need them to decide what to render.
			pr.Get("/users/me", h.User.GetCurrentUser)
			pr.Get("/configuration", h.Configuration.GetConfiguration)

			pr.Group(func(gr chi.Router) {
				gr.Use(gate.RequireManageConfig())
				gr.Patch("/configuration", h.Configuration.UpdateConfiguration)
			})

			pr.Route("/users", func(ur chi.Router) {
				ur.Use(gate.RequireManageUsers())
				ur.Get("/", h.User.ListUsers)
				ur.Post("/", h.User.CreateUser)
				ur.Get("/{id}", h.User.GetUser)
				ur.Patch("/{id}", h.User.UpdateUser)
				ur.Delete("/{id}", h.User.HideUser)
			})

			pr.Group(func(gr chi.Router) {
				gr.Use(gate.RequireAny(auth.PermUserManage, auth.PermTaskManage, auth.PermWorkOrderView, auth.PermWorkOrderManage))
				gr.Get("/technicians", h.User.ListTechnicians)
			})

			pr.Route("/roles", func(rr chi.Router) {
				rr.Use(gate.RequireManageRoles())
				rr.Get("/", h.Role.ListRoles)
				rr.Post("/", h.Role.CreateRole)
				rr.Get("/{id}", h.Role.GetRole)
				rr.Patch("/{id}", h.Role.UpdateRole)
				rr.Delete("/{id}", h.Role.DeleteRole)
				rr.Put("/{id}/permissions", h.Role.SetRolePermissions)
			})

			pr.Route("/permissions", func(pmr chi.Router) {
				pmr.Use(gate.RequireManagePermissions())
				pmr.Get("/", h.Permission.ListPermissions)
				pmr.Get("/main", h.Permission.ListMainPermissions)
				pmr.Post("/", h.Permission.CreatePermission)
				pmr.Get("/{id}", h.Permission.GetPermission)
				pmr.Patch("/{id}", h.Permission.UpdatePermission)
				pmr.Delete("/{id}", h.Permission.DeletePermission)
				pmr.Put("/{id}/secondaries", h.Permission.SetPermissionSecondaries)
			})

			pr.Route("/work-orders", func(wr chi.Router) {
				wr.Group(func(vr chi.Router) {
					vr.Use(gate.RequireViewWorkOrders())
					vr.Get("/", h.WorkOrder.ListWorkOrders)
					vr.Get("/{id}", h.WorkOrder.GetWorkOrder)
					vr.Get("/{id}/tasks", h.Task.ListWorkOrderTasks)
				})
				wr.Group(func(mr chi.Router) {
					mr.Use(gate.RequireManageWorkOrders())
					mr.Post("/", h.WorkOrder.CreateWorkOrder)
					mr.Patch("/{id}", h.WorkOrder.UpdateWorkOrder)
					mr.Delete("/{id}", h.WorkOrder.DeleteWorkOrder)
				})
				wr.Group(func(tr chi.Router) {
					tr.Use(gate.RequireManageTasks())
					tr.Post("/{id}/tasks", h.Task.CreateTask)
				})
			})

			pr.Route("/tasks", func(tr chi.Router) {
				tr.Group(func(vr chi.Router) {
					vr.Use(gate.RequireViewWorkOrders())
					vr.Get("/", h.Task.ListTasks)
					vr.Get("/{id}", h.Task.GetTask)
				})
				tr.Group(func(mr chi.Router) {
					mr.Use(gate.RequireManageTasks())
					mr.Patch("/{id}", h.Task.UpdateTask)
					mr.Delete("/{id}", h.Task.DeleteTask)
					mr.Post("/{id}/start", h.Task.StartTask)
					mr.Post("/{id}/pause", h.Task.PauseTask)
					mr.Post("/{id}/resume", h.Task.ResumeTask)
					mr.Post("/{id}/end", h.Task.EndTask)
					mr.Post("/{id}/restart", h.Task.RestartTask)
					mr.Post("/{id}/join", h.Task.JoinTask)
				})
			})

			pr.Route("/history", func(hr chi.Router) {
				// Badging is self-service for any authenticated user.
				hr.Post("/badge", h.History.Badge)
				hr.Post("/break", h.History.Break)

				hr.Group(func(vr chi.Router) {
					vr.Use(gate.RequireViewHistory())
					vr.Get("/", h.History.ListHistory)
					vr.Get("/today/{technicianId}", h.History.TodayHistory)
				})
				hr.Group(func(vr chi.Router) {
					vr.Use(gate.RequireAny(auth.PermHistoryView, auth.PermDashboardView))
					vr.Get("/presence", h.History.PresenceDigest)
				})
			})

			pr.Group(func(dr chi.Router) {
				dr.Use(gate.RequireViewDashboard())
				dr.Get("/dashboard/stats", h.Dashboard.GetStats)
			})

			pr.Group(func(er chi.Router) {
				er.Use(gate.RequireExportData())
				er.Get("/export/{dataset}", h.Export.ExportDataset)
			})
		})
	})
}
