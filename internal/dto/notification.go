package dto

import "time"

// NotificationResponse 通知响应
type NotificationResponse struct {
	ID              uint      `json:"id"`
	Verb            string    `json:"verb"`
	Read            bool      `json:"read"`
	Actor           UserBrief `json:"actor"`
	TargetPostID    *uint     `json:"target_post_id"`
	TargetPostTitle string    `json:"target_post_title,omitempty"`
	TargetCommentID *uint     `json:"target_comment_id"`
	Timestamp       time.Time `json:"timestamp"`
}

// NotificationListResponse 通知列表响应
type NotificationListResponse struct {
	Total int64                  `json:"total"`
	List  []NotificationResponse `json:"list"`
}

// UnreadCountResponse 未读数
type UnreadCountResponse struct {
	UnreadCount int64 `json:"unread_count"`
}
