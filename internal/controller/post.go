package controller

import (
	"github.com/gin-gonic/gin"
	"github.com/nsxzhou1114/folio-api/internal/dto"
	"github.com/nsxzhou1114/folio-api/internal/service"
	"github.com/nsxzhou1114/folio-api/pkg/pagination"
	"github.com/nsxzhou1114/folio-api/pkg/response"
	"go.uber.org/zap"
)

// PostApi 文章API控制器
type PostApi struct {
	logger       *zap.SugaredLogger
	posts        *service.PostService
	interactions *service.PostInteractionService
}

// NewPostApi 创建文章API控制器
func NewPostApi(svcs *service.Services, logger *zap.SugaredLogger) *PostApi {
	return &PostApi{logger: logger, posts: svcs.Posts, interactions: svcs.Interactions}
}

func (api *PostApi) page(c *gin.Context, action string, list []dto.PostResponse, total int64, params pagination.Params, err error) {
	if err != nil {
		handleError(c, api.logger, action, err)
		return
	}
	response.SuccessPage(c, "获取成功", dto.PostListResponse{Total: total, List: list}, params, total)
}

// List 已发布文章列表
func (api *PostApi) List(c *gin.Context) {
	var req dto.PostListRequest
	if !bindQuery(c, &req) {
		return
	}
	list, total, params, err := api.posts.List(c.Request.Context(), &req)
	api.page(c, "获取文章列表", list, total, params, err)
}

// Search 搜索文章
func (api *PostApi) Search(c *gin.Context) {
	var req dto.PostSearchRequest
	if !bindQuery(c, &req) {
		return
	}
	list, total, params, err := api.posts.Search(c.Request.Context(), &req)
	api.page(c, "搜索文章", list, total, params, err)
}

// Drafts 当前用户的草稿
func (api *PostApi) Drafts(c *gin.Context) {
	var req dto.PageRequest
	if !bindQuery(c, &req) {
		return
	}
	list, total, params, err := api.posts.Drafts(c.Request.Context(), currentUser(c).ID, &req)
	api.page(c, "获取草稿", list, total, params, err)
}

// Feed 关注用户的文章
func (api *PostApi) Feed(c *gin.Context) {
	var req dto.PageRequest
	if !bindQuery(c, &req) {
		return
	}
	list, total, params, err := api.posts.Feed(c.Request.Context(), currentUser(c).ID, &req)
	api.page(c, "获取关注动态", list, total, params, err)
}

// ByUser 指定用户的文章
func (api *PostApi) ByUser(c *gin.Context) {
	var req dto.PageRequest
	if !bindQuery(c, &req) {
		return
	}
	list, total, params, err := api.posts.ByUser(c.Request.Context(), c.Param("username"), &req)
	api.page(c, "获取用户文章", list, total, params, err)
}

// Get 文章详情
func (api *PostApi) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	post, err := api.posts.Get(c.Request.Context(), currentUser(c), id)
	if err != nil {
		handleError(c, api.logger, "获取文章", err)
		return
	}
	response.Success(c, "获取成功", post)
}

// GetBySlug 根据slug获取文章详情
func (api *PostApi) GetBySlug(c *gin.Context) {
	post, err := api.posts.GetBySlug(c.Request.Context(), currentUser(c), c.Param("slug"))
	if err != nil {
		handleError(c, api.logger, "获取文章", err)
		return
	}
	response.Success(c, "获取成功", post)
}

// Create 创建文章
func (api *PostApi) Create(c *gin.Context) {
	var req dto.PostCreateRequest
	if !bindJSON(c, &req) {
		return
	}
	post, err := api.posts.Create(c.Request.Context(), currentUser(c), &req)
	if err != nil {
		handleError(c, api.logger, "创建文章", err)
		return
	}
	response.Created(c, "创建成功", post)
}

// Update 整体更新文章
func (api *PostApi) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.PostCreateRequest
	if !bindJSON(c, &req) {
		return
	}
	post, err := api.posts.Update(c.Request.Context(), currentUser(c), id, &req)
	if err != nil {
		handleError(c, api.logger, "更新文章", err)
		return
	}
	response.Success(c, "更新成功", post)
}

// Patch 部分更新文章
func (api *PostApi) Patch(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.PostPatchRequest
	if !bindJSON(c, &req) {
		return
	}
	post, err := api.posts.Patch(c.Request.Context(), currentUser(c), id, &req)
	if err != nil {
		handleError(c, api.logger, "更新文章", err)
		return
	}
	response.Success(c, "更新成功", post)
}

// Delete 删除文章
func (api *PostApi) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := api.posts.Delete(c.Request.Context(), currentUser(c), id); err != nil {
		handleError(c, api.logger, "删除文章", err)
		return
	}
	response.Success(c, "删除成功", nil)
}

// Like 点赞
func (api *PostApi) Like(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	user := currentUser(c)
	post, err := api.posts.Visible(c.Request.Context(), user, id)
	if err != nil {
		handleError(c, api.logger, "点赞", err)
		return
	}
	resp, err := api.interactions.Like(c.Request.Context(), user, post)
	if err != nil {
		handleError(c, api.logger, "点赞", err)
		return
	}
	response.Success(c, "点赞成功", resp)
}

// Unlike 取消点赞
func (api *PostApi) Unlike(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	user := currentUser(c)
	post, err := api.posts.Visible(c.Request.Context(), user, id)
	if err != nil {
		handleError(c, api.logger, "取消点赞", err)
		return
	}
	resp, err := api.interactions.Unlike(c.Request.Context(), user, post)
	if err != nil {
		handleError(c, api.logger, "取消点赞", err)
		return
	}
	response.Success(c, "已取消点赞", resp)
}

// Sidebar 博客侧栏
func (api *PostApi) Sidebar(c *gin.Context) {
	resp, err := api.posts.Sidebar(c.Request.Context())
	if err != nil {
		handleError(c, api.logger, "获取侧栏", err)
		return
	}
	response.Success(c, "获取成功", resp)
}
