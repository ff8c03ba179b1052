package dto

import "time"

// PostCreateRequest 创建/整体更新文章请求
type PostCreateRequest struct {
	Title        string `json:"title" binding:"required,min=1,max=200"`
	Slug         string `json:"slug" binding:"omitempty,max=250"`
	Content      string `json:"content" binding:"required"`
	Excerpt      string `json:"excerpt" binding:"omitempty,max=500"`
	Status       string `json:"status" binding:"omitempty,oneof=draft published archived"`
	Tags         string `json:"tags" binding:"omitempty,max=500"` // 逗号分隔
	ImageCaption string `json:"image_caption" binding:"omitempty,max=200"`
}

// PostPatchRequest 部分更新文章请求
type PostPatchRequest struct {
	Title        *string `json:"title" binding:"omitempty,min=1,max=200"`
	Slug         *string `json:"slug" binding:"omitempty,max=250"`
	Content      *string `json:"content" binding:"omitempty,min=1"`
	Excerpt      *string `json:"excerpt" binding:"omitempty,max=500"`
	Status       *string `json:"status" binding:"omitempty,oneof=draft published archived"`
	Tags         *string `json:"tags" binding:"omitempty,max=500"`
	ImageCaption *string `json:"image_caption" binding:"omitempty,max=200"`
}

// PostListRequest 文章列表请求
type PostListRequest struct {
	PageRequest
	Tag    string `form:"tag" binding:"omitempty,max=60"`
	Author string `form:"author" binding:"omitempty,max=150"`
	Q      string `form:"q" binding:"omitempty,max=100"`
}

// PostSearchRequest 文章搜索请求
type PostSearchRequest struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	Q        string `form:"q" binding:"required,min=2,max=100"`
}

// TagBrief 标签简要信息
type TagBrief struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// PostResponse 文章列表项响应
type PostResponse struct {
	ID            uint       `json:"id"`
	Title         string     `json:"title"`
	Slug          string     `json:"slug"`
	Excerpt       string     `json:"excerpt"`
	Status        string     `json:"status"`
	Views         uint       `json:"views"`
	Author        UserBrief  `json:"author"`
	Tags          []TagBrief `json:"tags"`
	TagList       string     `json:"tag_list"`
	LikesCount    int64      `json:"likes_count"`
	CommentsCount int64      `json:"comments_count"`
	ReadingTime   string     `json:"reading_time"`
	PublishedAt   *time.Time `json:"published_at"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// PostDetailResponse 文章详情响应
type PostDetailResponse struct {
	PostResponse
	Content       string            `json:"content"`
	ContentHTML   string            `json:"content_html"`
	ImageCaption  string            `json:"image_caption"`
	UserHasLiked  bool              `json:"user_has_liked"`
	TotalComments int64             `json:"total_comments"`
	Comments      []CommentResponse `json:"comments"`
	RelatedPosts  []PostResponse    `json:"related_posts"`
}

// PostListResponse 文章列表响应
type PostListResponse struct {
	Total int64          `json:"total"`
	List  []PostResponse `json:"list"`
}

// SidebarResponse 博客侧栏
type SidebarResponse struct {
	PopularTags    []TagResponse     `json:"popular_tags"`
	RecentComments []CommentResponse `json:"recent_comments"`
	PopularPosts   []PostResponse    `json:"popular_posts"`
}

// LikeResponse 点赞结果
type LikeResponse struct {
	Liked      bool  `json:"liked"`
	LikesCount int64 `json:"likes_count"`
}
