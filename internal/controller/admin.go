package controller

import (
	"github.com/gin-gonic/gin"
	"github.com/nsxzhou1114/folio-api/internal/dto"
	"github.com/nsxzhou1114/folio-api/internal/service"
	"github.com/nsxzhou1114/folio-api/pkg/response"
	"go.uber.org/zap"
)

// AdminApi 用户管理API控制器
type AdminApi struct {
	logger      *zap.SugaredLogger
	users       *service.UserService
	permissions *service.PermissionService
}

// NewAdminApi 创建用户管理API控制器
func NewAdminApi(svcs *service.Services, logger *zap.SugaredLogger) *AdminApi {
	return &AdminApi{logger: logger, users: svcs.Users, permissions: svcs.Permissions}
}

// Users 用户列表
func (api *AdminApi) Users(c *gin.Context) {
	var req dto.UserListRequest
	if !bindQuery(c, &req) {
		return
	}
	list, total, params, err := api.users.List(c.Request.Context(), currentUser(c), &req)
	if err != nil {
		handleError(c, api.logger, "获取用户列表", err)
		return
	}
	response.SuccessPage(c, "获取成功", dto.UserListResponse{Total: total, List: list}, params, total)
}

// SetRole 设置角色
func (api *AdminApi) SetRole(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.SetRoleRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := api.permissions.SetRole(c.Request.Context(), id, req.Role); err != nil {
		handleError(c, api.logger, "设置角色", err)
		return
	}
	api.logger.Infof("管理员 %d 将用户 %d 设为 %s", currentUser(c).ID, id, req.Role)
	response.Success(c, "设置成功", nil)
}

// SetStaff 设置管理员标记
func (api *AdminApi) SetStaff(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.SetStaffRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := api.permissions.SetStaff(c.Request.Context(), id, *req.IsStaff); err != nil {
		handleError(c, api.logger, "设置管理员", err)
		return
	}
	response.Success(c, "设置成功", nil)
}

// Permissions 用户权限列表
func (api *AdminApi) Permissions(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	codes, err := api.permissions.List(c.Request.Context(), id)
	if err != nil {
		handleError(c, api.logger, "获取权限", err)
		return
	}
	response.Success(c, "获取成功", dto.PermissionListResponse{UserID: id, Permissions: codes})
}

// Grant 授予权限
func (api *AdminApi) Grant(c *gin.Context) {
	api.changePermission(c, true)
}

// Revoke 撤销权限
func (api *AdminApi) Revoke(c *gin.Context) {
	api.changePermission(c, false)
}

func (api *AdminApi) changePermission(c *gin.Context, grant bool) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.PermissionRequest
	if !bindJSON(c, &req) {
		return
	}
	change, action := api.permissions.Revoke, "撤销权限"
	if grant {
		change, action = api.permissions.Grant, "授予权限"
	}
	if err := change(c.Request.Context(), id, req.Codename); err != nil {
		handleError(c, api.logger, action, err)
		return
	}
	codes, err := api.permissions.List(c.Request.Context(), id)
	if err != nil {
		handleError(c, api.logger, action, err)
		return
	}
	response.Success(c, action+"成功", dto.PermissionListResponse{UserID: id, Permissions: codes})
}

// RoleApi 角色面板API控制器
type RoleApi struct {
	logger      *zap.SugaredLogger
	permissions *service.PermissionService
}

// NewRoleApi 创建角色面板API控制器
func NewRoleApi(svcs *service.Services, logger *zap.SugaredLogger) *RoleApi {
	return &RoleApi{logger: logger, permissions: svcs.Permissions}
}

// Dashboard 返回指定角色的面板处理函数
func (api *RoleApi) Dashboard(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp, err := api.permissions.RoleDashboard(c.Request.Context(), role)
		if err != nil {
			handleError(c, api.logger, "获取角色面板", err)
			return
		}
		response.Success(c, "获取成功", resp)
	}
}
