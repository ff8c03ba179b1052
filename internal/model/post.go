package model

import "time"

// 文章状态
const (
	PostStatusDraft     = "draft"
	PostStatusPublished = "published"
	PostStatusArchived  = "archived"
)

// Post 文章模型
type Post struct {
	Base
	Title        string     `gorm:"type:varchar(200);not null" json:"title"`
	Slug         string     `gorm:"type:varchar(250);not null;uniqueIndex" json:"slug"`
	Content      string     `gorm:"type:text;not null" json:"content"`
	Excerpt      string     `gorm:"type:varchar(500)" json:"excerpt"`
	Status       string     `gorm:"type:varchar(20);not null;default:'draft';index" json:"status"`
	Views        uint       `gorm:"not null;default:0" json:"views"`
	AuthorID     uint       `gorm:"not null;index" json:"author_id"`
	ImageCaption string     `gorm:"type:varchar(200)" json:"image_caption"`
	PublishedAt  *time.Time `gorm:"index" json:"published_at"`

	// 关联
	Author User  `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Tags   []Tag `gorm:"many2many:post_tags;" json:"tags,omitempty"`
}

// TableName 指定表名
func (Post) TableName() string {
	return "posts"
}

// IsPublished 是否已发布
func (p *Post) IsPublished() bool {
	return p.Status == PostStatusPublished
}
