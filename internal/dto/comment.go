package dto

import "time"

// CommentCreateRequest 创建评论请求
type CommentCreateRequest struct {
	Content  string `json:"content" binding:"required,min=1,max=2000"`
	ParentID *uint  `json:"parent_id"`
}

// CommentUpdateRequest 更新评论请求
type CommentUpdateRequest struct {
	Content string `json:"content" binding:"required,min=1,max=2000"`
}

// CommentResponse 评论响应
type CommentResponse struct {
	ID        uint              `json:"id"`
	PostID    uint              `json:"post_id"`
	ParentID  *uint             `json:"parent_id"`
	Content   string            `json:"content"`
	Approved  bool              `json:"approved"`
	IsEdited  bool              `json:"is_edited"`
	Author    UserBrief         `json:"author"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
	Replies   []CommentResponse `json:"replies,omitempty"`
}

// CommentListResponse 评论列表响应
type CommentListResponse struct {
	Total int64             `json:"total"`
	List  []CommentResponse `json:"list"`
}
