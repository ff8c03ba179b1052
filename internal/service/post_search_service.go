package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/nsxzhou1114/folio-api/internal/model"
	"github.com/nsxzhou1114/folio-api/pkg/markdown"
	"go.uber.org/zap"
)

// PostIndexer 文章全文索引
type PostIndexer interface {
	IndexPost(ctx context.Context, post *model.Post) error
	DeletePost(ctx context.Context, postID uint) error
	// SearchPostIDs 返回已发布文章的ID，按相关度排序
	SearchPostIDs(ctx context.Context, q string, offset, limit int) ([]uint, int64, error)
}

// ESPostIndexer 基于Elasticsearch的文章索引
type ESPostIndexer struct {
	client *elasticsearch.Client
	index  string
	logger *zap.SugaredLogger
}

// NewESPostIndexer 创建文章索引实例
func NewESPostIndexer(client *elasticsearch.Client, index string, logger *zap.SugaredLogger) *ESPostIndexer {
	return &ESPostIndexer{
		client: client,
		index:  model.NewESPost(index).ESIndexName(),
		logger: logger,
	}
}

// Index 索引名称
func (s *ESPostIndexer) Index() string {
	return s.index
}

func postDocument(post *model.Post) model.ESPost {
	return model.ESPost{
		PostID:      post.ID,
		Title:       post.Title,
		Slug:        post.Slug,
		Content:     markdown.PlainText(post.Content),
		Excerpt:     post.Excerpt,
		AuthorID:    post.AuthorID,
		AuthorName:  post.Author.Username,
		Tags:        tagNames(post.Tags),
		Status:      post.Status,
		Views:       post.Views,
		PublishedAt: post.PublishedAt,
		UpdatedAt:   post.UpdatedAt,
	}
}

// IndexPost 写入或覆盖文章文档
func (s *ESPostIndexer) IndexPost(ctx context.Context, post *model.Post) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(postDocument(post)); err != nil {
		return err
	}
	res, err := s.client.Index(
		s.index,
		&buf,
		s.client.Index.WithContext(ctx),
		s.client.Index.WithDocumentID(strconv.FormatUint(uint64(post.ID), 10)),
	)
	if err != nil {
		return fmt.Errorf("索引文章失败: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("索引文章返回错误: %s", res.String())
	}
	return nil
}

// DeletePost 删除文章文档，文档不存在时忽略
func (s *ESPostIndexer) DeletePost(ctx context.Context, postID uint) error {
	res, err := s.client.Delete(
		s.index,
		strconv.FormatUint(uint64(postID), 10),
		s.client.Delete.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("删除文章索引失败: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("删除文章索引返回错误: %s", res.String())
	}
	return nil
}

type esSearchResult struct {
	Hits struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		Hits []struct {
			Source model.ESPost `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// SearchPostIDs 在标题、正文、摘要和标签中检索已发布文章
func (s *ESPostIndexer) SearchPostIDs(ctx context.Context, q string, offset, limit int) ([]uint, int64, error) {
	query := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must": []map[string]interface{}{
					{
						"multi_match": map[string]interface{}{
							"query":  q,
							"fields": []string{"title^3", "excerpt^2", "content", "tags"},
							"type":   "best_fields",
						},
					},
				},
				"filter": []map[string]interface{}{
					{"term": map[string]interface{}{"status": model.PostStatusPublished}},
				},
			},
		},
		"from":    offset,
		"size":    limit,
		"_source": []string{"post_id"},
		"sort": []map[string]interface{}{
			{"_score": map[string]interface{}{"order": "desc"}},
			{"published_at": map[string]interface{}{"order": "desc"}},
		},
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(query); err != nil {
		return nil, 0, err
	}

	res, err := s.client.Search(
		s.client.Search.WithContext(ctx),
		s.client.Search.WithIndex(s.index),
		s.client.Search.WithBody(&buf),
		s.client.Search.WithTrackTotalHits(true),
	)
	if err != nil {
		return nil, 0, fmt.Errorf("搜索文章失败: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, 0, fmt.Errorf("ES搜索错误: %s", res.String())
	}

	var result esSearchResult
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return nil, 0, err
	}
	ids := make([]uint, 0, len(result.Hits.Hits))
	for _, hit := range result.Hits.Hits {
		ids = append(ids, hit.Source.PostID)
	}
	return ids, result.Hits.Total.Value, nil
}
