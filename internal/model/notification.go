package model

// 通知动作
const (
	VerbFollow  = "started following you"
	VerbLike    = "liked your post"
	VerbComment = "commented on your post"
	VerbReply   = "replied to your comment"
)

// Notification 通知模型
type Notification struct {
	Base
	RecipientID     uint   `gorm:"not null;index" json:"recipient_id"`
	ActorID         uint   `gorm:"not null;index" json:"actor_id"`
	Verb            string `gorm:"type:varchar(100);not null" json:"verb"`
	TargetPostID    *uint  `gorm:"index" json:"target_post_id"`
	TargetCommentID *uint  `gorm:"index" json:"target_comment_id"`
	Read            bool   `gorm:"column:is_read;not null;default:false;index" json:"read"`

	// 关联
	Recipient     User     `gorm:"foreignKey:RecipientID" json:"recipient,omitempty"`
	Actor         User     `gorm:"foreignKey:ActorID" json:"actor,omitempty"`
	TargetPost    *Post    `gorm:"foreignKey:TargetPostID" json:"target_post,omitempty"`
	TargetComment *Comment `gorm:"foreignKey:TargetCommentID" json:"target_comment,omitempty"`
}

// TableName 指定表名
func (Notification) TableName() string {
	return "notifications"
}
