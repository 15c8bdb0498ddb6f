package auth

type PermissionChecker interface {
	CanManageUsers(userPermissions []string) bool
	CanManageRoles(userPermissions []string) bool
	CanManagePermissions(userPermissions []string) bool
	CanViewWorkOrders(userPermissions []string) bool
	CanManageTasks(userPermissions []string) bool
	CanManageConfig(userPermissions []string) bool
	CanViewDashboard(userPermissions []string) bool
	CanExportData(userPermissions []string) bool
	HasAnyPermission(userPermissions []string, requiredPermissions []string) bool
	IsAdmin(userPermissions []string) bool
}

type DefaultPermissionChecker struct{}

func NewPermissionChecker() PermissionChecker {
	return &DefaultPermissionChecker{}
}

func (c *DefaultPermissionChecker) CanManageUsers(userPermissions []string) bool {
	return c.HasAnyPermission(userPermissions, []string{PermUserManage, PermAdmin})
}

func (c *DefaultPermissionChecker) CanManageRoles(userPermissions []string) bool {
	return c.HasAnyPermission(userPermissions, []string{PermRoleManage, PermAdmin})
}

func (c *DefaultPermissionChecker) CanManagePermissions(userPermissions []string) bool {
	return c.HasAnyPermission(userPermissions, []string{PermPermissionManage, PermAdmin})
}

func (c *DefaultPermissionChecker) CanViewWorkOrders(userPermissions []string) bool {
	return c.HasAnyPermission(userPermissions, []string{PermWorkOrderView, PermWorkOrderManage, PermAdmin})
}

func (c *DefaultPermissionChecker) CanManageTasks(userPermissions []string) bool {
	return c.HasAnyPermission(userPermissions, []string{PermTaskManage, PermAdmin})
}

func (c *DefaultPermissionChecker) CanManageConfig(userPermissions []string) bool {
	return c.HasAnyPermission(userPermissions, []string{PermConfigManage, PermAdmin})
}

func (c *DefaultPermissionChecker) CanViewDashboard(userPermissions []string) bool {
	return c.HasAnyPermission(userPermissions, []string{PermDashboardView, PermAdmin})
}

func (c *DefaultPermissionChecker) CanExportData(userPermissions []string) bool {
	return c.HasAnyPermission(userPermissions, []string{PermExportData, PermAdmin})
}

func (c *DefaultPermissionChecker) HasAnyPermission(userPermissions []string, requiredPermissions []string) bool {
	for _, userPerm := range userPermissions {
		for _, requiredPerm := range requiredPermissions {
			if userPerm == requiredPerm {
				return true
			}
		}
	}
	return false
}

func (c *DefaultPermissionChecker) IsAdmin(userPermissions []string) bool {
	return c.HasAnyPermission(userPermissions, []string{PermAdmin})
}
