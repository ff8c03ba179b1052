package dto

// TagResponse 标签响应
type TagResponse struct {
	ID         uint   `json:"id"`
	Name       string `json:"name"`
	Slug       string `json:"slug"`
	PostsCount int64  `json:"posts_count"`
}

// TagCloudItem 标签云条目
type TagCloudItem struct {
	TagResponse
	FontSize string `json:"font_size"`
}

// TagPostsResponse 标签下的文章
type TagPostsResponse struct {
	Tag         TagResponse    `json:"tag"`
	Total       int64          `json:"total"`
	Posts       []PostResponse `json:"posts"`
	RelatedTags []TagResponse  `json:"related_tags"`
}
