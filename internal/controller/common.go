package controller

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/nsxzhou1114/folio-api/internal/middleware"
	"github.com/nsxzhou1114/folio-api/internal/model"
	"github.com/nsxzhou1114/folio-api/internal/service"
	"github.com/nsxzhou1114/folio-api/pkg/response"
	"github.com/nsxzhou1114/folio-api/pkg/validate"
	"go.uber.org/zap"
)

// parseID 解析路径中的ID参数，失败时写入400响应
func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		response.BadRequest(c, "无效的ID", err)
		return 0, false
	}
	return uint(id), true
}

// bindJSON 绑定请求体，校验失败时写入字段级错误
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		bindError(c, err)
		return false
	}
	return true
}

// bindQuery 绑定查询参数
func bindQuery(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		bindError(c, err)
		return false
	}
	return true
}

func bindError(c *gin.Context, err error) {
	if fields, ok := validate.Translate(err); ok {
		response.ValidationError(c, "参数错误", fields)
		return
	}
	response.BadRequest(c, "参数错误", err)
}

// handleError 将业务错误映射为HTTP响应
func handleError(c *gin.Context, logger *zap.SugaredLogger, action string, err error) {
	var svcErr *service.Error
	switch {
	case errors.As(err, &svcErr) && len(svcErr.Fields) > 0 &&
		(errors.Is(err, service.ErrInvalid) || errors.Is(err, service.ErrConflict)):
		response.ValidationError(c, svcErr.Error(), svcErr.Fields)
	case errors.Is(err, service.ErrInvalid), errors.Is(err, service.ErrConflict):
		response.BadRequest(c, err.Error(), nil)
	case errors.Is(err, service.ErrForbidden):
		response.Forbidden(c, err.Error(), nil)
	case errors.Is(err, service.ErrNotFound):
		response.NotFound(c, err.Error(), nil)
	default:
		logger.Errorf("%s失败: %v", action, err)
		response.InternalServerError(c, action+"失败", err)
	}
}

func currentUser(c *gin.Context) *model.User {
	return middleware.CurrentUser(c)
}
