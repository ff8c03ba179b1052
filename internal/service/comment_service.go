package service

import (
	"context"
	"errors"
	"strings"

	"github.com/nsxzhou1114/folio-api/internal/dto"
	"github.com/nsxzhou1114/folio-api/internal/model"
	"github.com/nsxzhou1114/folio-api/pkg/pagination"
	"github.com/nsxzhou1114/folio-api/pkg/sanitize"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CommentMaxLen 评论最大长度
const CommentMaxLen = 2000

// CommentService 评论服务
type CommentService struct {
	db        *gorm.DB
	logger    *zap.SugaredLogger
	sensitive *SensitiveService
}

// NewCommentService 创建评论服务实例，sensitive 为空时不做审核
func NewCommentService(db *gorm.DB, logger *zap.SugaredLogger, sensitive *SensitiveService) *CommentService {
	return &CommentService{db: db, logger: logger, sensitive: sensitive}
}

// visibleComments 已通过的评论，加上当前用户自己的评论；文章作者和管理员可见全部
func visibleComments(viewer *model.User, post *model.Post) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if IsOwnerOrStaff(viewer, post.AuthorID) {
			return db
		}
		if viewer == nil {
			return db.Where("comments.approved = ?", true)
		}
		return db.Where("(comments.approved = ? OR comments.author_id = ?)", true, viewer.ID)
	}
}

// buildTree 组装回复树，父评论不可见的回复一并隐藏
func buildTree(comments []model.Comment) []*model.Comment {
	byID := make(map[uint]*model.Comment, len(comments))
	for i := range comments {
		comments[i].Children = nil
		byID[comments[i].ID] = &comments[i]
	}
	roots := make([]*model.Comment, 0)
	for i := range comments {
		c := &comments[i]
		if c.ParentID == nil {
			roots = append(roots, c)
			continue
		}
		if parent, ok := byID[*c.ParentID]; ok {
			parent.Children = append(parent.Children, c)
		}
	}
	return roots
}

func countTree(roots []*model.Comment) int64 {
	var n int64
	for _, c := range roots {
		n += 1 + countTree(c.Children)
	}
	return n
}

// Tree 文章的评论树及可见评论总数
func (s *CommentService) Tree(ctx context.Context, viewer *model.User, post *model.Post) ([]dto.CommentResponse, int64, error) {
	var comments []model.Comment
	err := s.db.WithContext(ctx).
		Where("comments.post_id = ?", post.ID).
		Scopes(visibleComments(viewer, post)).
		Preload("Author.Profile").
		Order("comments.created_at ASC").Order("comments.id ASC").
		Find(&comments).Error
	if err != nil {
		return nil, 0, err
	}
	roots := buildTree(comments)
	list := make([]dto.CommentResponse, 0, len(roots))
	for _, c := range roots {
		list = append(list, toCommentResponse(c))
	}
	return list, countTree(roots), nil
}

// List 分页的顶层评论，附带可见回复
func (s *CommentService) List(ctx context.Context, viewer *model.User, post *model.Post, req *dto.PageRequest) ([]dto.CommentResponse, int64, pagination.Params, error) {
	params := pagination.New(req.Page, req.PageSize, 10, req.Ordering)
	all, _, err := s.Tree(ctx, viewer, post)
	if err != nil {
		return nil, 0, params, err
	}
	if params.Ordering == "-created_at" {
		for i, j := 0, len(all)-1; i < j; i, j = i+1, j-1 {
			all[i], all[j] = all[j], all[i]
		}
	}
	total := int64(len(all))
	start := params.Offset()
	if start > len(all) {
		start = len(all)
	}
	end := start + params.Limit()
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, params, nil
}

// Get 获取文章下的单条评论
func (s *CommentService) Get(ctx context.Context, postID, id uint) (*model.Comment, error) {
	var comment model.Comment
	err := s.db.WithContext(ctx).
		Preload("Author.Profile").
		Preload("Post").
		Where("id = ? AND post_id = ?", id, postID).
		First(&comment).Error
	if err != nil {
		return nil, wrapDB(err, "评论不存在")
	}
	return &comment, nil
}

// needsModeration 命中敏感词且评论者不是文章作者或管理员时需要审核
func (s *CommentService) needsModeration(user *model.User, post *model.Post, content string) bool {
	if s.sensitive == nil || IsOwnerOrStaff(user, post.AuthorID) {
		return false
	}
	if s.sensitive.Contains(content) {
		s.logger.Infof("评论命中敏感词，等待审核: %v", s.sensitive.FindAll(content))
		return true
	}
	return false
}

func cleanComment(content string) (string, error) {
	content = sanitize.Text(content, CommentMaxLen)
	if strings.TrimSpace(content) == "" {
		return "", fieldError("content", "评论内容不能为空")
	}
	return content, nil
}

// Create 发表评论或回复
func (s *CommentService) Create(ctx context.Context, user *model.User, post *model.Post, req *dto.CommentCreateRequest) (*dto.CommentResponse, error) {
	content, err := cleanComment(req.Content)
	if err != nil {
		return nil, err
	}
	if !post.IsPublished() && !IsOwnerOrStaff(user, post.AuthorID) {
		return nil, notFound("文章不存在")
	}

	var parent *model.Comment
	if req.ParentID != nil && *req.ParentID > 0 {
		var p model.Comment
		if err := s.db.WithContext(ctx).First(&p, *req.ParentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fieldError("parent_id", "回复的评论不存在")
			}
			return nil, err
		}
		if p.PostID != post.ID {
			return nil, fieldError("parent_id", "不能回复其他文章的评论")
		}
		parent = &p
	}

	comment := &model.Comment{
		Content:  content,
		PostID:   post.ID,
		AuthorID: user.ID,
		Approved: !s.needsModeration(user, post, content),
	}
	if parent != nil {
		comment.ParentID = &parent.ID
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Post", "Author").Create(comment).Error; err != nil {
			return err
		}
		if !comment.Approved {
			return nil
		}
		return notifyComment(tx, comment, post, parent)
	})
	if err != nil {
		return nil, err
	}

	comment.Author = *user
	resp := toCommentResponse(comment)
	return &resp, nil
}

// Update 编辑评论，仅评论作者或管理员
func (s *CommentService) Update(ctx context.Context, user *model.User, postID, id uint, req *dto.CommentUpdateRequest) (*dto.CommentResponse, error) {
	comment, err := s.Get(ctx, postID, id)
	if err != nil {
		return nil, err
	}
	if !IsOwnerOrStaff(user, comment.AuthorID) {
		return nil, forbidden("您无权修改该评论")
	}
	content, err := cleanComment(req.Content)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"content":   content,
		"is_edited": true,
	}
	if comment.Approved && s.needsModeration(user, &comment.Post, content) {
		updates["approved"] = false
	}
	if err := s.db.WithContext(ctx).Model(&model.Comment{Base: model.Base{ID: comment.ID}}).Updates(updates).Error; err != nil {
		return nil, err
	}

	updated, err := s.Get(ctx, postID, id)
	if err != nil {
		return nil, err
	}
	resp := toCommentResponse(updated)
	return &resp, nil
}

// Delete 删除评论及其回复，评论作者、文章作者或管理员可操作
func (s *CommentService) Delete(ctx context.Context, user *model.User, postID, id uint) error {
	comment, err := s.Get(ctx, postID, id)
	if err != nil {
		return err
	}
	if !IsOwnerOrStaff(user, comment.AuthorID) && !IsOwnerOrStaff(user, comment.Post.AuthorID) {
		return forbidden("您无权删除该评论")
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		n, err := deleteCommentTreesTx(tx, []uint{comment.ID})
		if err != nil {
			return err
		}
		s.logger.Infof("用户 %d 删除评论 %d，共删除 %d 条", user.ID, comment.ID, n)
		return nil
	})
}

// Approve 审核通过评论，文章作者或管理员可操作
func (s *CommentService) Approve(ctx context.Context, user *model.User, postID, id uint) (*dto.CommentResponse, error) {
	comment, err := s.Get(ctx, postID, id)
	if err != nil {
		return nil, err
	}
	if !IsOwnerOrStaff(user, comment.Post.AuthorID) {
		return nil, forbidden("您无权审核该评论")
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.Comment{}).
			Where("id = ? AND approved = ?", comment.ID, false).
			Update("approved", true)
		if result.Error != nil || result.RowsAffected == 0 {
			return result.Error
		}

		// 编辑后重新审核的评论已经通知过
		var sent int64
		if err := tx.Model(&model.Notification{}).Where("target_comment_id = ?", comment.ID).Count(&sent).Error; err != nil {
			return err
		}
		if sent > 0 {
			return nil
		}

		var parent *model.Comment
		if comment.ParentID != nil {
			var p model.Comment
			if err := tx.First(&p, *comment.ParentID).Error; err != nil {
				return err
			}
			parent = &p
		}
		return notifyComment(tx, comment, &comment.Post, parent)
	})
	if err != nil {
		return nil, err
	}
	comment.Approved = true
	resp := toCommentResponse(comment)
	return &resp, nil
}

// notifyComment 回复通知父评论作者，否则通知文章作者
func notifyComment(tx *gorm.DB, comment *model.Comment, post *model.Post, parent *model.Comment) error {
	postID, commentID := post.ID, comment.ID
	if parent != nil {
		return notify(tx, parent.AuthorID, comment.AuthorID, model.VerbReply, &postID, &commentID)
	}
	return notify(tx, post.AuthorID, comment.AuthorID, model.VerbComment, &postID, &commentID)
}

// Pending 待审核评论
func (s *CommentService) Pending(ctx context.Context, req *dto.PageRequest) ([]dto.CommentResponse, int64, pagination.Params, error) {
	params := pagination.New(req.Page, req.PageSize, 10, req.Ordering)
	query := s.db.WithContext(ctx).Model(&model.Comment{}).
		Where("comments.approved = ?", false).
		Scopes(searchScope(req.Search, "comments.content"))
	return s.page(ctx, query, params)
}

// ByUser 用户的评论，本人和管理员可见待审核评论
func (s *CommentService) ByUser(ctx context.Context, viewer *model.User, username string, req *dto.PageRequest) ([]dto.CommentResponse, int64, pagination.Params, error) {
	params := pagination.New(req.Page, req.PageSize, 10, req.Ordering)
	var user model.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, 0, params, wrapDB(err, "用户不存在")
	}
	query := s.db.WithContext(ctx).Model(&model.Comment{}).
		Where("comments.author_id = ?", user.ID).
		Where("comments.post_id IN (?)", s.db.Model(&model.Post{}).Select("id").Where("status = ?", model.PostStatusPublished))
	if !IsOwnerOrStaff(viewer, user.ID) {
		query = query.Where("comments.approved = ?", true)
	}
	return s.page(ctx, query, params)
}

// Recent 最新的已通过评论
func (s *CommentService) Recent(ctx context.Context, limit int) ([]dto.CommentResponse, error) {
	var comments []model.Comment
	err := s.db.WithContext(ctx).
		Where("comments.approved = ?", true).
		Where("comments.post_id IN (?)", s.db.Model(&model.Post{}).Select("id").Where("status = ?", model.PostStatusPublished)).
		Preload("Author.Profile").
		Order("comments.created_at DESC").Order("comments.id DESC").
		Limit(limit).
		Find(&comments).Error
	if err != nil {
		return nil, err
	}
	return toCommentResponses(comments), nil
}

func (s *CommentService) page(ctx context.Context, query *gorm.DB, params pagination.Params) ([]dto.CommentResponse, int64, pagination.Params, error) {
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, params, err
	}
	var comments []model.Comment
	order := params.OrderClause(map[string]string{"created_at": "comments.created_at"}, "-created_at")
	err := query.Preload("Author.Profile").
		Order(order).Order("comments.id DESC").
		Scopes(paginate(params)).
		Find(&comments).Error
	if err != nil {
		return nil, 0, params, err
	}
	return toCommentResponses(comments), total, params, nil
}
