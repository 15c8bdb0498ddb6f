package auth

import (
	"log/slog"
	"net/http"

	"github.com/atelierhub/workshop-management/internal"
)

// Permission codes are dot-scoped: the prefix is the feature, the suffix the
// action. PermAdmin grants everything.
const (
	PermAdmin = "admin"

	PermUserManage       = "user.manage"
	PermRoleManage       = "role.manage"
	PermPermissionManage = "permission.manage"
	PermWorkOrderView    = "workorder.view"
	PermWorkOrderManage  = "workorder.manage"
	PermTaskManage       = "task.manage"
	PermHistoryView      = "history.view"
	PermConfigManage     = "config.manage"
	PermDashboardView    = "dashboard.view"
	PermExportData       = "export.data"
)

// Gate builds route middleware from permission requirements.
type Gate struct {
	checker PermissionChecker
	logger  *slog.Logger
}

func NewGate(checker PermissionChecker, logger *slog.Logger) *Gate {
	return &Gate{
		checker: checker,
		logger:  logger,
	}
}

// RequireAny allows the request through when the session user holds at least
// one of the given permissions or is an admin.
func (g *Gate) RequireAny(permissions ...string) func(http.Handler) http.Handler {
	required := append([]string{PermAdmin}, permissions...)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := internal.UserFromContext(r.Context())
			if !ok || user == nil {
				g.logger.Warn("authorization check failed: user not found in context")
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			if !g.checker.HasAnyPermission(user.Permissions, required) {
				g.logger.WarnContext(r.Context(), "access denied: insufficient permissions",
					"user_id", user.ID,
					"required_permissions", permissions,
					"user_permissions", user.Permissions)
				http.Error(w, "Forbidden: insufficient permissions", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (g *Gate) RequireManageUsers() func(http.Handler) http.Handler {
	return g.RequireAny(PermUserManage)
}

func (g *Gate) RequireManageRoles() func(http.Handler) http.Handler {
	return g.RequireAny(PermRoleManage)
}

func (g *Gate) RequireManagePermissions() func(http.Handler) http.Handler {
	return g.RequireAny(PermPermissionManage)
}

func (g *Gate) RequireViewWorkOrders() func(http.Handler) http.Handler {
	return g.RequireAny(PermWorkOrderView, PermWorkOrderManage)
}

func (g *Gate) RequireManageWorkOrders() func(http.Handler) http.Handler {
	return g.RequireAny(PermWorkOrderManage)
}

func (g *Gate) RequireManageTasks() func(http.Handler) http.Handler {
	return g.RequireAny(PermTaskManage)
}

func (g *Gate) RequireViewHistory() func(http.Handler) http.Handler {
	return g.RequireAny(PermHistoryView)
}

func (g *Gate) RequireManageConfig() func(http.Handler) http.Handler {
	return g.RequireAny(PermConfigManage)
}

func (g *Gate) RequireViewDashboard() func(http.Handler) http.Handler {
	return g.RequireAny(PermDashboardView)
}

func (g *Gate) RequireExportData() func(http.Handler) http.Handler {
	return g.RequireAny(PermExportData)
}
