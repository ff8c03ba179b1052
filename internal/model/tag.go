package model

// Tag 标签模型
type Tag struct {
	Base
	Name string `gorm:"type:varchar(50);not null;uniqueIndex" json:"name"`
	Slug string `gorm:"type:varchar(60);not null;uniqueIndex" json:"slug"`

	Posts []*Post `gorm:"many2many:post_tags;" json:"posts,omitempty"`
}

// TableName 指定表名
func (Tag) TableName() string {
	return "tags"
}

// PostTag 文章-标签关联模型
type PostTag struct {
	PostID uint `gorm:"primaryKey;not null" json:"post_id"`
	TagID  uint `gorm:"primaryKey;not null;index" json:"tag_id"`
}

// TableName 指定表名
func (PostTag) TableName() string {
	return "post_tags"
}
