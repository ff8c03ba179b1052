package controller

import (
	"github.com/gin-gonic/gin"
	"github.com/nsxzhou1114/folio-api/internal/dto"
	"github.com/nsxzhou1114/folio-api/internal/service"
	"github.com/nsxzhou1114/folio-api/pkg/response"
	"go.uber.org/zap"
)

// TagApi 标签API控制器
type TagApi struct {
	logger *zap.SugaredLogger
	tags   *service.TagService
	posts  *service.PostService
}

// NewTagApi 创建标签API控制器
func NewTagApi(svcs *service.Services, logger *zap.SugaredLogger) *TagApi {
	return &TagApi{logger: logger, tags: svcs.Tags, posts: svcs.Posts}
}

// List 全部标签
func (api *TagApi) List(c *gin.Context) {
	tags, err := api.tags.List(c.Request.Context())
	if err != nil {
		handleError(c, api.logger, "获取标签", err)
		return
	}
	response.Success(c, "获取成功", tags)
}

// Cloud 标签云
func (api *TagApi) Cloud(c *gin.Context) {
	cloud, err := api.tags.Cloud(c.Request.Context())
	if err != nil {
		handleError(c, api.logger, "获取标签云", err)
		return
	}
	response.Success(c, "获取成功", cloud)
}

// Posts 标签下的文章
func (api *TagApi) Posts(c *gin.Context) {
	var req dto.PageRequest
	if !bindQuery(c, &req) {
		return
	}
	resp, params, err := api.posts.ByTag(c.Request.Context(), c.Param("slug"), &req)
	if err != nil {
		handleError(c, api.logger, "获取标签文章", err)
		return
	}
	response.SuccessPage(c, "获取成功", resp, params, resp.Total)
}
