package model

// UserFollow 用户关注模型
type UserFollow struct {
	Base
	FollowerID uint `gorm:"not null;uniqueIndex:idx_follow_pair" json:"follower_id"`
	FollowedID uint `gorm:"not null;uniqueIndex:idx_follow_pair;index" json:"followed_id"`

	// 关联
	Follower User `gorm:"foreignKey:FollowerID" json:"follower,omitempty"`
	Followed User `gorm:"foreignKey:FollowedID" json:"followed,omitempty"`
}

// TableName 指定表名
func (UserFollow) TableName() string {
	return "user_follows"
}

// PostLike 文章点赞模型
type PostLike struct {
	Base
	UserID uint `gorm:"not null;uniqueIndex:idx_like_user_post" json:"user_id"`
	PostID uint `gorm:"not null;uniqueIndex:idx_like_user_post;index" json:"post_id"`

	// 关联
	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// TableName 指定表名
func (PostLike) TableName() string {
	return "post_likes"
}
