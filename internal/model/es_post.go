package model

import "time"

// ESPost Elasticsearch文章文档
type ESPost struct {
	PostID      uint       `json:"post_id"`
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	Content     string     `json:"content"` // 纯文本
	Excerpt     string     `json:"excerpt"`
	AuthorID    uint       `json:"author_id"`
	AuthorName  string     `json:"author_name"`
	Tags        []string   `json:"tags"`
	Status      string     `json:"status"`
	Views       uint       `json:"views"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at"`

	index string
}

// NewESPost 创建指定索引名的文档模型
func NewESPost(index string) *ESPost {
	return &ESPost{index: index}
}

// ESIndexName 返回ES索引名称
func (p ESPost) ESIndexName() string {
	if p.index == "" {
		return "posts"
	}
	return p.index
}

// ESMapping 返回ES索引映射
func (ESPost) ESMapping() string {
	return `{
		"settings": {
			"number_of_shards": 1,
			"number_of_replicas": 0,
			"analysis": {
				"analyzer": {
					"text_analyzer": {
						"type": "custom",
						"tokenizer": "standard",
						"char_filter": ["html_strip"],
						"filter": ["lowercase", "asciifolding"]
					}
				}
			}
		},
		"mappings": {
			"properties": {
				"post_id": { "type": "long" },
				"title": {
					"type": "text",
					"analyzer": "text_analyzer",
					"fields": { "keyword": { "type": "keyword", "ignore_above": 256 } }
				},
				"slug": { "type": "keyword" },
				"content": { "type": "text", "analyzer": "text_analyzer" },
				"excerpt": { "type": "text", "analyzer": "text_analyzer" },
				"author_id": { "type": "long" },
				"author_name": { "type": "keyword" },
				"tags": { "type": "keyword" },
				"status": { "type": "keyword" },
				"views": { "type": "long" },
				"published_at": { "type": "date" },
				"updated_at": { "type": "date" }
			}
		}
	}`
}
