package service

import (
	"context"
	"strings"
	"time"

	"github.com/nsxzhou1114/folio-api/internal/dto"
	"github.com/nsxzhou1114/folio-api/internal/model"
	"github.com/nsxzhou1114/folio-api/pkg/markdown"
	"github.com/nsxzhou1114/folio-api/pkg/pagination"
	"github.com/nsxzhou1114/folio-api/pkg/sanitize"
	"github.com/nsxzhou1114/folio-api/pkg/slug"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var postOrdering = map[string]string{
	"published_at": "posts.published_at",
	"created_at":   "posts.created_at",
	"updated_at":   "posts.updated_at",
	"views":        "posts.views",
	"title":        "posts.title",
}

const postTagMatch = `EXISTS (SELECT 1 FROM post_tags JOIN tags ON tags.id = post_tags.tag_id
WHERE post_tags.post_id = posts.id AND LOWER(tags.name) LIKE ? ESCAPE '!')`

func publishedPosts(db *gorm.DB) *gorm.DB {
	return db.Where("posts.status = ?", model.PostStatusPublished)
}

// postSearch 标题、正文、摘要或任一标签名包含关键词，不区分大小写
func postSearch(term string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		term = strings.TrimSpace(term)
		if term == "" {
			return db
		}
		p := likePattern(term)
		return db.Where(
			"("+likeClause("posts.title")+" OR "+likeClause("posts.content")+" OR "+
				likeClause("posts.excerpt")+" OR "+postTagMatch+")",
			p, p, p, p,
		)
	}
}

func withTagSlug(tagSlug string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(`EXISTS (SELECT 1 FROM post_tags JOIN tags ON tags.id = post_tags.tag_id
WHERE post_tags.post_id = posts.id AND tags.slug = ?)`, tagSlug)
	}
}

// PostService 文章服务
type PostService struct {
	db       *gorm.DB
	logger   *zap.SugaredLogger
	tags     *TagService
	comments *CommentService
	indexer  PostIndexer
}

// NewPostService 创建文章服务实例，indexer 可为空
func NewPostService(db *gorm.DB, logger *zap.SugaredLogger, tags *TagService, comments *CommentService, indexer PostIndexer) *PostService {
	return &PostService{
		db:       db,
		logger:   logger,
		tags:     tags,
		comments: comments,
		indexer:  indexer,
	}
}

// list 统计、分页查询并转换文章列表
func (s *PostService) list(ctx context.Context, query *gorm.DB, params pagination.Params, fallback string) ([]dto.PostResponse, int64, error) {
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var posts []model.Post
	err := query.
		Preload("Author.Profile").
		Preload("Tags").
		Order(params.OrderClause(postOrdering, fallback)).
		Order("posts.id DESC").
		Scopes(paginate(params)).
		Find(&posts).Error
	if err != nil {
		return nil, 0, err
	}
	list, err := s.responses(ctx, posts)
	return list, total, err
}

type postCount struct {
	PostID uint
	N      int64
}

// responses 批量填充点赞数和评论数
func (s *PostService) responses(ctx context.Context, posts []model.Post) ([]dto.PostResponse, error) {
	list := make([]dto.PostResponse, 0, len(posts))
	if len(posts) == 0 {
		return list, nil
	}
	ids := make([]uint, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.ID)
	}

	db := s.db.WithContext(ctx)
	var likes, comments []postCount
	if err := db.Model(&model.PostLike{}).Select("post_id, COUNT(*) AS n").
		Where("post_id IN ?", ids).Group("post_id").Scan(&likes).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&model.Comment{}).Select("post_id, COUNT(*) AS n").
		Where("post_id IN ? AND approved = ?", ids, true).Group("post_id").Scan(&comments).Error; err != nil {
		return nil, err
	}
	likeCounts := make(map[uint]int64, len(likes))
	for _, c := range likes {
		likeCounts[c.PostID] = c.N
	}
	commentCounts := make(map[uint]int64, len(comments))
	for _, c := range comments {
		commentCounts[c.PostID] = c.N
	}

	for i := range posts {
		resp := toPostResponse(&posts[i])
		resp.LikesCount = likeCounts[posts[i].ID]
		resp.CommentsCount = commentCounts[posts[i].ID]
		list = append(list, resp)
	}
	return list, nil
}

// List 已发布文章列表
func (s *PostService) List(ctx context.Context, req *dto.PostListRequest) ([]dto.PostResponse, int64, pagination.Params, error) {
	params := pagination.New(req.Page, req.PageSize, 10, req.Ordering)
	term := req.Q
	if term == "" {
		term = req.Search
	}
	query := s.db.WithContext(ctx).Model(&model.Post{}).Scopes(publishedPosts, postSearch(term))
	if req.Tag != "" {
		query = query.Scopes(withTagSlug(req.Tag))
	}
	if req.Author != "" {
		query = query.Where("posts.author_id IN (?)", s.db.Model(&model.User{}).Select("id").Where("username = ?", req.Author))
	}
	list, total, err := s.list(ctx, query, params, "-published_at")
	return list, total, params, err
}

// Search 搜索已发布文章，启用索引时优先使用索引，失败时回退到数据库
func (s *PostService) Search(ctx context.Context, req *dto.PostSearchRequest) ([]dto.PostResponse, int64, pagination.Params, error) {
	params := pagination.New(req.Page, req.PageSize, 10, "")
	q := strings.TrimSpace(req.Q)
	if len([]rune(q)) < 2 {
		return nil, 0, params, fieldError("q", "搜索关键词至少2个字符")
	}

	if s.indexer != nil {
		list, total, err := s.searchIndex(ctx, q, params)
		if err == nil {
			return list, total, params, nil
		}
		s.logger.Warnf("索引搜索失败，回退到数据库: %v", err)
	}

	query := s.db.WithContext(ctx).Model(&model.Post{}).Scopes(publishedPosts, postSearch(q))
	list, total, err := s.list(ctx, query, params, "-published_at")
	return list, total, params, err
}

func (s *PostService) searchIndex(ctx context.Context, q string, params pagination.Params) ([]dto.PostResponse, int64, error) {
	ids, total, err := s.indexer.SearchPostIDs(ctx, q, params.Offset(), params.Limit())
	if err != nil {
		return nil, 0, err
	}
	if len(ids) == 0 {
		return []dto.PostResponse{}, total, nil
	}

	var posts []model.Post
	err = s.db.WithContext(ctx).Scopes(publishedPosts).
		Preload("Author.Profile").Preload("Tags").
		Where("posts.id IN ?", ids).
		Find(&posts).Error
	if err != nil {
		return nil, 0, err
	}
	byID := make(map[uint]model.Post, len(posts))
	for _, p := range posts {
		byID[p.ID] = p
	}
	ordered := make([]model.Post, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			ordered = append(ordered, p)
		}
	}
	list, err := s.responses(ctx, ordered)
	return list, total, err
}

// Drafts 当前用户的草稿
func (s *PostService) Drafts(ctx context.Context, userID uint, req *dto.PageRequest) ([]dto.PostResponse, int64, pagination.Params, error) {
	params := pagination.New(req.Page, req.PageSize, 10, req.Ordering)
	query := s.db.WithContext(ctx).Model(&model.Post{}).
		Where("posts.author_id = ? AND posts.status = ?", userID, model.PostStatusDraft).
		Scopes(postSearch(req.Search))
	list, total, err := s.list(ctx, query, params, "-updated_at")
	return list, total, params, err
}

// Feed 关注用户的已发布文章
func (s *PostService) Feed(ctx context.Context, userID uint, req *dto.PageRequest) ([]dto.PostResponse, int64, pagination.Params, error) {
	params := pagination.New(req.Page, req.PageSize, 10, req.Ordering)
	following := s.db.Model(&model.UserFollow{}).Select("followed_id").Where("follower_id = ?", userID)
	query := s.db.WithContext(ctx).Model(&model.Post{}).
		Scopes(publishedPosts).
		Where("posts.author_id IN (?)", following)
	list, total, err := s.list(ctx, query, params, "-published_at")
	return list, total, params, err
}

// ByUser 指定用户的已发布文章
func (s *PostService) ByUser(ctx context.Context, username string, req *dto.PageRequest) ([]dto.PostResponse, int64, pagination.Params, error) {
	params := pagination.New(req.Page, req.PageSize, 10, req.Ordering)
	var user model.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, 0, params, wrapDB(err, "用户不存在")
	}
	query := s.db.WithContext(ctx).Model(&model.Post{}).
		Scopes(publishedPosts).
		Where("posts.author_id = ?", user.ID)
	list, total, err := s.list(ctx, query, params, "-published_at")
	return list, total, params, err
}

// ByTag 标签下的已发布文章及相关标签
func (s *PostService) ByTag(ctx context.Context, tagSlug string, req *dto.PageRequest) (*dto.TagPostsResponse, pagination.Params, error) {
	params := pagination.New(req.Page, req.PageSize, 10, req.Ordering)
	tag, err := s.tags.GetBySlug(ctx, tagSlug)
	if err != nil {
		return nil, params, err
	}
	query := s.db.WithContext(ctx).Model(&model.Post{}).Scopes(publishedPosts, withTagSlug(tagSlug))
	posts, total, err := s.list(ctx, query, params, "-published_at")
	if err != nil {
		return nil, params, err
	}
	related, err := s.tags.Related(ctx, tag.ID, 10)
	if err != nil {
		return nil, params, err
	}
	return &dto.TagPostsResponse{Tag: *tag, Total: total, Posts: posts, RelatedTags: related}, params, nil
}

func (s *PostService) find(ctx context.Context, where string, arg interface{}) (*model.Post, error) {
	var post model.Post
	err := s.db.WithContext(ctx).
		Preload("Author.Profile").
		Preload("Tags").
		Where(where, arg).
		First(&post).Error
	if err != nil {
		return nil, wrapDB(err, "文章不存在")
	}
	return &post, nil
}

// visible 未发布的文章仅作者和管理员可见
func visible(viewer *model.User, post *model.Post) bool {
	return post.IsPublished() || IsOwnerOrStaff(viewer, post.AuthorID)
}

// Get 文章详情，浏览量加一
func (s *PostService) Get(ctx context.Context, viewer *model.User, id uint) (*dto.PostDetailResponse, error) {
	post, err := s.find(ctx, "posts.id = ?", id)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, viewer, post)
}

// GetBySlug 根据slug获取文章详情，浏览量加一
func (s *PostService) GetBySlug(ctx context.Context, viewer *model.User, postSlug string) (*dto.PostDetailResponse, error) {
	post, err := s.find(ctx, "posts.slug = ?", postSlug)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, viewer, post)
}

func (s *PostService) view(ctx context.Context, viewer *model.User, post *model.Post) (*dto.PostDetailResponse, error) {
	if !visible(viewer, post) {
		return nil, notFound("文章不存在")
	}
	err := s.db.WithContext(ctx).Model(&model.Post{}).
		Where("id = ?", post.ID).
		UpdateColumn("views", gorm.Expr("views + ?", 1)).Error
	if err != nil {
		return nil, err
	}
	post.Views++
	return s.detail(ctx, viewer, post)
}

// Visible 获取当前用户可见的文章
func (s *PostService) Visible(ctx context.Context, viewer *model.User, id uint) (*model.Post, error) {
	post, err := s.find(ctx, "posts.id = ?", id)
	if err != nil {
		return nil, err
	}
	if !visible(viewer, post) {
		return nil, notFound("文章不存在")
	}
	return post, nil
}

func (s *PostService) detail(ctx context.Context, viewer *model.User, post *model.Post) (*dto.PostDetailResponse, error) {
	base, err := s.responses(ctx, []model.Post{*post})
	if err != nil {
		return nil, err
	}
	resp := &dto.PostDetailResponse{
		PostResponse: base[0],
		Content:      post.Content,
		ImageCaption: post.ImageCaption,
	}
	if html, err := markdown.ToHTML(post.Content); err == nil {
		resp.ContentHTML = html
	} else {
		s.logger.Warnf("渲染文章 %d 失败: %v", post.ID, err)
	}

	db := s.db.WithContext(ctx)
	if viewer != nil {
		var cnt int64
		if err := db.Model(&model.PostLike{}).Where("post_id = ? AND user_id = ?", post.ID, viewer.ID).Count(&cnt).Error; err != nil {
			return nil, err
		}
		resp.UserHasLiked = cnt > 0
	}

	resp.Comments, resp.TotalComments, err = s.comments.Tree(ctx, viewer, post)
	if err != nil {
		return nil, err
	}

	resp.RelatedPosts, err = s.related(ctx, post, 3)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// related 与文章共享标签的其他已发布文章
func (s *PostService) related(ctx context.Context, post *model.Post, limit int) ([]dto.PostResponse, error) {
	if len(post.Tags) == 0 {
		return []dto.PostResponse{}, nil
	}
	tagIDs := make([]uint, 0, len(post.Tags))
	for _, t := range post.Tags {
		tagIDs = append(tagIDs, t.ID)
	}
	shared := s.db.Model(&model.PostTag{}).Select("post_id").Where("tag_id IN ?", tagIDs)

	var posts []model.Post
	err := s.db.WithContext(ctx).
		Scopes(publishedPosts).
		Where("posts.id <> ? AND posts.id IN (?)", post.ID, shared).
		Preload("Author.Profile").Preload("Tags").
		Order("posts.published_at DESC").
		Limit(limit).
		Find(&posts).Error
	if err != nil {
		return nil, err
	}
	return s.responses(ctx, posts)
}

// postChanges 文章写入字段，nil 表示不修改
type postChanges struct {
	Title        *string
	Slug         *string
	Content      *string
	Excerpt      *string
	Status       *string
	Tags         *string
	ImageCaption *string
}

func (c *postChanges) normalize() error {
	if c.Title != nil {
		title := sanitize.Text(*c.Title, 200)
		if title == "" {
			return fieldError("title", "标题不能为空")
		}
		c.Title = &title
	}
	if c.Content != nil && strings.TrimSpace(*c.Content) == "" {
		return fieldError("content", "内容不能为空")
	}
	if c.Status != nil {
		switch *c.Status {
		case model.PostStatusDraft, model.PostStatusPublished, model.PostStatusArchived:
		default:
			return fieldError("status", "无效的文章状态")
		}
	}
	if c.ImageCaption != nil {
		caption := sanitize.Text(*c.ImageCaption, 200)
		c.ImageCaption = &caption
	}
	return nil
}

// Create 创建文章，作者取当前用户
func (s *PostService) Create(ctx context.Context, author *model.User, req *dto.PostCreateRequest) (*dto.PostDetailResponse, error) {
	status := req.Status
	if status == "" {
		status = model.PostStatusPublished
	}
	changes := postChanges{
		Title:        &req.Title,
		Content:      &req.Content,
		Status:       &status,
		Tags:         &req.Tags,
		ImageCaption: &req.ImageCaption,
	}
	if req.Slug != "" {
		changes.Slug = &req.Slug
	}
	if req.Excerpt != "" {
		changes.Excerpt = &req.Excerpt
	}
	if err := changes.normalize(); err != nil {
		return nil, err
	}

	post := &model.Post{
		Title:        *changes.Title,
		Content:      *changes.Content,
		Status:       status,
		AuthorID:     author.ID,
		ImageCaption: *changes.ImageCaption,
	}
	if changes.Excerpt != nil {
		post.Excerpt = sanitize.Text(*changes.Excerpt, markdown.ExcerptMaxLen)
	} else {
		post.Excerpt = markdown.Excerpt(post.Content)
	}
	if post.IsPublished() {
		now := time.Now()
		post.PublishedAt = &now
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		post.Slug, err = s.slugFor(tx, changes.Slug, post.Title, 0)
		if err != nil {
			return err
		}
		if err := tx.Omit("Tags", "Author").Create(post).Error; err != nil {
			return wrapUnique(err, "slug", "该slug已存在")
		}
		return s.replaceTags(tx, post, *changes.Tags)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Infof("用户 %d 创建文章 %d", author.ID, post.ID)
	s.afterWrite(ctx, post.ID)

	created, err := s.find(ctx, "posts.id = ?", post.ID)
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, author, created)
}

// Update 整体更新文章
func (s *PostService) Update(ctx context.Context, user *model.User, id uint, req *dto.PostCreateRequest) (*dto.PostDetailResponse, error) {
	excerpt := req.Excerpt
	changes := postChanges{
		Title:        &req.Title,
		Content:      &req.Content,
		Excerpt:      &excerpt,
		Tags:         &req.Tags,
		ImageCaption: &req.ImageCaption,
	}
	if req.Slug != "" {
		changes.Slug = &req.Slug
	}
	if req.Status != "" {
		changes.Status = &req.Status
	}
	return s.apply(ctx, user, id, changes)
}

// Patch 部分更新文章
func (s *PostService) Patch(ctx context.Context, user *model.User, id uint, req *dto.PostPatchRequest) (*dto.PostDetailResponse, error) {
	return s.apply(ctx, user, id, postChanges{
		Title:        req.Title,
		Slug:         req.Slug,
		Content:      req.Content,
		Excerpt:      req.Excerpt,
		Status:       req.Status,
		Tags:         req.Tags,
		ImageCaption: req.ImageCaption,
	})
}

func (s *PostService) apply(ctx context.Context, user *model.User, id uint, changes postChanges) (*dto.PostDetailResponse, error) {
	post, err := s.find(ctx, "posts.id = ?", id)
	if err != nil {
		return nil, err
	}
	if !IsOwnerOrStaff(user, post.AuthorID) {
		return nil, forbidden("您无权修改该文章")
	}
	if err := changes.normalize(); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if changes.Title != nil {
		updates["title"] = *changes.Title
	}
	content := post.Content
	if changes.Content != nil {
		content = *changes.Content
		updates["content"] = content
	}
	if changes.Excerpt != nil {
		if strings.TrimSpace(*changes.Excerpt) == "" {
			updates["excerpt"] = markdown.Excerpt(content)
		} else {
			updates["excerpt"] = sanitize.Text(*changes.Excerpt, markdown.ExcerptMaxLen)
		}
	}
	if changes.Status != nil {
		updates["status"] = *changes.Status
		if *changes.Status == model.PostStatusPublished && post.PublishedAt == nil {
			updates["published_at"] = time.Now()
		}
	}
	if changes.ImageCaption != nil {
		updates["image_caption"] = *changes.ImageCaption
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if changes.Slug != nil && *changes.Slug != post.Slug {
			newSlug, err := s.slugFor(tx, changes.Slug, post.Title, post.ID)
			if err != nil {
				return err
			}
			updates["slug"] = newSlug
		}
		if len(updates) > 0 {
			if err := tx.Model(&model.Post{Base: model.Base{ID: post.ID}}).Updates(updates).Error; err != nil {
				return wrapUnique(err, "slug", "该slug已存在")
			}
		}
		if changes.Tags != nil {
			return s.replaceTags(tx, post, *changes.Tags)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.afterWrite(ctx, post.ID)

	updated, err := s.find(ctx, "posts.id = ?", post.ID)
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, user, updated)
}

// slugFor 显式指定的slug冲突时报错，由标题生成时自动追加序号
func (s *PostService) slugFor(tx *gorm.DB, explicit *string, title string, excludeID uint) (string, error) {
	opts := slug.Options{Table: "posts", Column: "slug", MaxLen: slug.DefaultMaxLen, DefaultBase: "post", ExcludeID: excludeID}
	if explicit == nil {
		return slug.Unique(tx, opts, title)
	}
	want := slug.Make(*explicit)
	if want == "" {
		return "", fieldError("slug", "slug只能包含字母、数字和连字符")
	}
	got, err := slug.Unique(tx, opts, want)
	if err != nil {
		return "", err
	}
	if got != want {
		return "", conflict("slug", "该slug已存在")
	}
	return got, nil
}

func (s *PostService) replaceTags(tx *gorm.DB, post *model.Post, csv string) error {
	tags, err := resolveTags(tx, ParseTags(csv))
	if err != nil {
		return err
	}
	target := &model.Post{Base: model.Base{ID: post.ID}}
	if len(tags) == 0 {
		return tx.Model(target).Association("Tags").Clear()
	}
	return tx.Model(target).Association("Tags").Replace(tags)
}

// afterWrite 提交后清理标签缓存并同步索引
func (s *PostService) afterWrite(ctx context.Context, postID uint) {
	s.tags.Invalidate(ctx)
	if s.indexer == nil {
		return
	}
	post, err := s.find(ctx, "posts.id = ?", postID)
	if err != nil {
		s.logger.Warnf("同步文章索引失败: %v", err)
		return
	}
	if post.IsPublished() {
		err = s.indexer.IndexPost(ctx, post)
	} else {
		err = s.indexer.DeletePost(ctx, post.ID)
	}
	if err != nil {
		s.logger.Warnf("同步文章索引失败: %v", err)
	}
}

// Delete 删除文章及其评论、点赞
func (s *PostService) Delete(ctx context.Context, user *model.User, id uint) error {
	var post model.Post
	if err := s.db.WithContext(ctx).First(&post, id).Error; err != nil {
		return wrapDB(err, "文章不存在")
	}
	if !IsOwnerOrStaff(user, post.AuthorID) {
		return forbidden("您无权删除该文章")
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return deletePostsTx(tx, []uint{post.ID})
	})
	if err != nil {
		return err
	}
	s.tags.Invalidate(ctx)
	if s.indexer != nil {
		if err := s.indexer.DeletePost(ctx, post.ID); err != nil {
			s.logger.Warnf("删除文章索引失败: %v", err)
		}
	}
	s.logger.Infof("用户 %d 删除文章 %d", user.ID, post.ID)
	return nil
}

// Sidebar 热门标签、最新评论和热门文章
func (s *PostService) Sidebar(ctx context.Context) (*dto.SidebarResponse, error) {
	tags, err := s.tags.Popular(ctx, 10)
	if err != nil {
		return nil, err
	}
	comments, err := s.comments.Recent(ctx, 5)
	if err != nil {
		return nil, err
	}
	var posts []model.Post
	err = s.db.WithContext(ctx).Scopes(publishedPosts).
		Preload("Author.Profile").Preload("Tags").
		Order("posts.views DESC").Order("posts.id DESC").
		Limit(5).
		Find(&posts).Error
	if err != nil {
		return nil, err
	}
	popular, err := s.responses(ctx, posts)
	if err != nil {
		return nil, err
	}
	return &dto.SidebarResponse{PopularTags: tags, RecentComments: comments, PopularPosts: popular}, nil
}

// Reindex 重建全部已发布文章的索引，返回索引数量
func (s *PostService) Reindex(ctx context.Context) (int, error) {
	if s.indexer == nil {
		return 0, invalid("未启用搜索索引")
	}
	var posts []model.Post
	indexed := 0
	result := s.db.WithContext(ctx).Scopes(publishedPosts).
		Preload("Author").Preload("Tags").
		FindInBatches(&posts, 100, func(tx *gorm.DB, batch int) error {
			for i := range posts {
				if err := s.indexer.IndexPost(ctx, &posts[i]); err != nil {
					return err
				}
				indexed++
			}
			return nil
		})
	if result.Error != nil {
		return indexed, result.Error
	}
	return indexed, nil
}
