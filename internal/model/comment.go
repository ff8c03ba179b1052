package model

// Comment 评论模型
type Comment struct {
	Base
	Content  string `gorm:"type:text;not null" json:"content"`
	PostID   uint   `gorm:"not null;index" json:"post_id"`
	AuthorID uint   `gorm:"not null;index" json:"author_id"`
	ParentID *uint  `gorm:"index" json:"parent_id"`
	Approved bool   `gorm:"not null;index" json:"approved"`
	IsEdited bool   `gorm:"not null;default:false" json:"is_edited"`

	// 关联
	Post     Post       `gorm:"foreignKey:PostID" json:"post,omitempty"`
	Author   User       `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Children []*Comment `gorm:"-" json:"children,omitempty"`
}

// TableName 指定表名
func (Comment) TableName() string {
	return "comments"
}
