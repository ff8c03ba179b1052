package controller

import (
	"github.com/gin-gonic/gin"
	"github.com/nsxzhou1114/folio-api/internal/dto"
	"github.com/nsxzhou1114/folio-api/internal/service"
	"github.com/nsxzhou1114/folio-api/pkg/pagination"
	"github.com/nsxzhou1114/folio-api/pkg/response"
	"go.uber.org/zap"
)

// NotificationApi 通知API控制器
type NotificationApi struct {
	logger        *zap.SugaredLogger
	notifications *service.NotificationService
}

// NewNotificationApi 创建通知API控制器
func NewNotificationApi(svcs *service.Services, logger *zap.SugaredLogger) *NotificationApi {
	return &NotificationApi{logger: logger, notifications: svcs.Notifications}
}

// List 通知列表，查看后全部标记为已读
func (api *NotificationApi) List(c *gin.Context) {
	var req dto.PageRequest
	if !bindQuery(c, &req) {
		return
	}
	params := pagination.New(req.Page, req.PageSize, 20, req.Ordering)
	list, total, err := api.notifications.List(c.Request.Context(), currentUser(c).ID, params)
	if err != nil {
		handleError(c, api.logger, "获取通知", err)
		return
	}
	response.SuccessPage(c, "获取成功", dto.NotificationListResponse{Total: total, List: list}, params, total)
}

// UnreadCount 未读通知数
func (api *NotificationApi) UnreadCount(c *gin.Context) {
	n, err := api.notifications.UnreadCount(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		handleError(c, api.logger, "获取未读通知数", err)
		return
	}
	response.Success(c, "获取成功", dto.UnreadCountResponse{UnreadCount: n})
}

// MarkRead 标记单条通知已读
func (api *NotificationApi) MarkRead(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := api.notifications.MarkRead(c.Request.Context(), currentUser(c).ID, id); err != nil {
		handleError(c, api.logger, "标记通知", err)
		return
	}
	response.Success(c, "已标记为已读", nil)
}

// MarkAllRead 全部标记已读
func (api *NotificationApi) MarkAllRead(c *gin.Context) {
	if err := api.notifications.MarkAllRead(c.Request.Context(), currentUser(c).ID); err != nil {
		handleError(c, api.logger, "标记通知", err)
		return
	}
	response.Success(c, "已全部标记为已读", nil)
}

// Delete 删除通知
func (api *NotificationApi) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := api.notifications.Delete(c.Request.Context(), currentUser(c).ID, id); err != nil {
		handleError(c, api.logger, "删除通知", err)
		return
	}
	response.Success(c, "删除成功", nil)
}
