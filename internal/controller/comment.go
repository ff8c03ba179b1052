package controller

import (
	"github.com/gin-gonic/gin"
	"github.com/nsxzhou1114/folio-api/internal/dto"
	"github.com/nsxzhou1114/folio-api/internal/model"
	"github.com/nsxzhou1114/folio-api/internal/service"
	"github.com/nsxzhou1114/folio-api/pkg/response"
	"go.uber.org/zap"
)

// CommentApi 评论API控制器
type CommentApi struct {
	logger   *zap.SugaredLogger
	posts    *service.PostService
	comments *service.CommentService
}

// NewCommentApi 创建评论API控制器
func NewCommentApi(svcs *service.Services, logger *zap.SugaredLogger) *CommentApi {
	return &CommentApi{logger: logger, posts: svcs.Posts, comments: svcs.Comments}
}

// post 加载当前用户可见的文章
func (api *CommentApi) post(c *gin.Context, action string) (*model.Post, bool) {
	id, ok := parseID(c, "id")
	if !ok {
		return nil, false
	}
	post, err := api.posts.Visible(c.Request.Context(), currentUser(c), id)
	if err != nil {
		handleError(c, api.logger, action, err)
		return nil, false
	}
	return post, true
}

// List 文章评论树，按顶层评论分页
func (api *CommentApi) List(c *gin.Context) {
	var req dto.PageRequest
	if !bindQuery(c, &req) {
		return
	}
	post, ok := api.post(c, "获取评论")
	if !ok {
		return
	}
	list, total, params, err := api.comments.List(c.Request.Context(), currentUser(c), post, &req)
	if err != nil {
		handleError(c, api.logger, "获取评论", err)
		return
	}
	response.SuccessPage(c, "获取成功", dto.CommentListResponse{Total: total, List: list}, params, total)
}

// Create 发表评论或回复
func (api *CommentApi) Create(c *gin.Context) {
	var req dto.CommentCreateRequest
	if !bindJSON(c, &req) {
		return
	}
	post, ok := api.post(c, "发表评论")
	if !ok {
		return
	}
	comment, err := api.comments.Create(c.Request.Context(), currentUser(c), post, &req)
	if err != nil {
		handleError(c, api.logger, "发表评论", err)
		return
	}
	message := "评论成功"
	if !comment.Approved {
		message = "评论已提交，等待审核"
	}
	response.Created(c, message, comment)
}

// Update 编辑评论
func (api *CommentApi) Update(c *gin.Context) {
	postID, ok := parseID(c, "id")
	if !ok {
		return
	}
	id, ok := parseID(c, "cid")
	if !ok {
		return
	}
	var req dto.CommentUpdateRequest
	if !bindJSON(c, &req) {
		return
	}
	comment, err := api.comments.Update(c.Request.Context(), currentUser(c), postID, id, &req)
	if err != nil {
		handleError(c, api.logger, "编辑评论", err)
		return
	}
	response.Success(c, "编辑成功", comment)
}

// Delete 删除评论及其回复
func (api *CommentApi) Delete(c *gin.Context) {
	postID, ok := parseID(c, "id")
	if !ok {
		return
	}
	id, ok := parseID(c, "cid")
	if !ok {
		return
	}
	if err := api.comments.Delete(c.Request.Context(), currentUser(c), postID, id); err != nil {
		handleError(c, api.logger, "删除评论", err)
		return
	}
	response.Success(c, "删除成功", nil)
}

// Approve 审核通过评论
func (api *CommentApi) Approve(c *gin.Context) {
	postID, ok := parseID(c, "id")
	if !ok {
		return
	}
	id, ok := parseID(c, "cid")
	if !ok {
		return
	}
	comment, err := api.comments.Approve(c.Request.Context(), currentUser(c), postID, id)
	if err != nil {
		handleError(c, api.logger, "审核评论", err)
		return
	}
	response.Success(c, "审核通过", comment)
}

// Pending 待审核评论
func (api *CommentApi) Pending(c *gin.Context) {
	var req dto.PageRequest
	if !bindQuery(c, &req) {
		return
	}
	list, total, params, err := api.comments.Pending(c.Request.Context(), &req)
	if err != nil {
		handleError(c, api.logger, "获取待审核评论", err)
		return
	}
	response.SuccessPage(c, "获取成功", dto.CommentListResponse{Total: total, List: list}, params, total)
}

// ByUser 指定用户的评论
func (api *CommentApi) ByUser(c *gin.Context) {
	var req dto.PageRequest
	if !bindQuery(c, &req) {
		return
	}
	list, total, params, err := api.comments.ByUser(c.Request.Context(), currentUser(c), c.Param("username"), &req)
	if err != nil {
		handleError(c, api.logger, "获取用户评论", err)
		return
	}
	response.SuccessPage(c, "获取成功", dto.CommentListResponse{Total: total, List: list}, params, total)
}
