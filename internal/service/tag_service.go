package service

import (
	"context"
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/nsxzhou1114/folio-api/internal/dto"
	"github.com/nsxzhou1114/folio-api/internal/model"
	"github.com/nsxzhou1114/folio-api/pkg/cache"
	"github.com/nsxzhou1114/folio-api/pkg/slug"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const tagCounts = `SELECT tags.*, COUNT(post_tags.post_id) AS num_posts FROM tags
LEFT JOIN post_tags ON post_tags.tag_id = tags.id
GROUP BY tags.id ORDER BY num_posts DESC, tags.name ASC`

const relatedTags = `SELECT tags.*, COUNT(post_tags.post_id) AS num_posts FROM tags
JOIN post_tags ON post_tags.tag_id = tags.id
WHERE tags.id IN (
	SELECT pt.tag_id FROM post_tags pt JOIN posts ON posts.id = pt.post_id
	WHERE posts.status = ? AND pt.post_id IN (SELECT post_id FROM post_tags WHERE tag_id = ?)
) AND tags.id <> ?
GROUP BY tags.id ORDER BY num_posts DESC, tags.name ASC LIMIT ?`

type tagRow struct {
	model.Tag
	NumPosts int64
}

func (r *tagRow) response() dto.TagResponse {
	return dto.TagResponse{ID: r.ID, Name: r.Name, Slug: r.Slug, PostsCount: r.NumPosts}
}

func tagResponses(rows []tagRow) []dto.TagResponse {
	list := make([]dto.TagResponse, 0, len(rows))
	for i := range rows {
		list = append(list, rows[i].response())
	}
	return list
}

// ParseTags 解析逗号分隔的标签，去空白、小写并去重，保持输入顺序
func ParseTags(csv string) []string {
	seen := make(map[string]struct{})
	names := make([]string, 0)
	for _, part := range strings.Split(csv, ",") {
		name := strings.ToLower(strings.TrimSpace(part))
		if name == "" {
			continue
		}
		if r := []rune(name); len(r) > 50 {
			name = string(r[:50])
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names
}

// resolveTags 查找或创建标签
func resolveTags(tx *gorm.DB, names []string) ([]model.Tag, error) {
	tags := make([]model.Tag, 0, len(names))
	for _, name := range names {
		var tag model.Tag
		if err := tx.Where("name = ?", name).Limit(1).Find(&tag).Error; err != nil {
			return nil, err
		}
		if tag.ID == 0 {
			s, err := slug.Unique(tx, slug.Options{Table: "tags", Column: "slug", MaxLen: 60, DefaultBase: "tag"}, name)
			if err != nil {
				return nil, err
			}
			tag = model.Tag{Name: name, Slug: s}
			if err := tx.Create(&tag).Error; err != nil {
				return nil, wrapUnique(err, "tags", "标签已存在，请重试")
			}
		}
		tags = append(tags, tag)
	}
	return tags, nil
}

// TagService 标签服务
type TagService struct {
	db     *gorm.DB
	logger *zap.SugaredLogger
	cache  cache.Cache
}

// NewTagService 创建标签服务实例
func NewTagService(db *gorm.DB, logger *zap.SugaredLogger, c cache.Cache) *TagService {
	if c == nil {
		c = cache.NewMemoryCache()
	}
	return &TagService{db: db, logger: logger, cache: c}
}

// List 全部标签及文章数，按文章数降序
func (s *TagService) List(ctx context.Context) ([]dto.TagResponse, error) {
	var rows []tagRow
	if err := s.db.WithContext(ctx).Raw(tagCounts).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return tagResponses(rows), nil
}

// Popular 文章数最多的标签
func (s *TagService) Popular(ctx context.Context, limit int) ([]dto.TagResponse, error) {
	var cached []dto.TagResponse
	if err := s.cache.GetJSON(ctx, cache.PopularTagsKey, &cached); err == nil {
		return head(cached, limit), nil
	} else if !errors.Is(err, cache.ErrMiss) {
		s.logger.Warnf("读取标签缓存失败: %v", err)
	}

	list, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.cache.SetJSON(ctx, cache.PopularTagsKey, list, cache.TagCloudExpires); err != nil {
		s.logger.Warnf("写入标签缓存失败: %v", err)
	}
	return head(list, limit), nil
}

func head(list []dto.TagResponse, n int) []dto.TagResponse {
	if n > 0 && len(list) > n {
		return list[:n]
	}
	return list
}

// FontSize 标签云字号，文章数线性映射到 10px..30px
func FontSize(n, lo, hi int64) string {
	if hi == lo {
		return "15px"
	}
	size := 10 + float64(n-lo)/float64(hi-lo)*20
	size = math.Round(size*10) / 10
	return strconv.FormatFloat(size, 'f', -1, 64) + "px"
}

// Cloud 标签云
func (s *TagService) Cloud(ctx context.Context) ([]dto.TagCloudItem, error) {
	var cached []dto.TagCloudItem
	if err := s.cache.GetJSON(ctx, cache.TagCloudKey, &cached); err == nil {
		return cached, nil
	} else if !errors.Is(err, cache.ErrMiss) {
		s.logger.Warnf("读取标签云缓存失败: %v", err)
	}

	tags, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	items := make([]dto.TagCloudItem, 0, len(tags))
	if len(tags) > 0 {
		hi, lo := tags[0].PostsCount, tags[len(tags)-1].PostsCount
		for _, t := range tags {
			items = append(items, dto.TagCloudItem{TagResponse: t, FontSize: FontSize(t.PostsCount, lo, hi)})
		}
	}
	if err := s.cache.SetJSON(ctx, cache.TagCloudKey, items, cache.TagCloudExpires); err != nil {
		s.logger.Warnf("写入标签云缓存失败: %v", err)
	}
	return items, nil
}

// GetBySlug 根据slug获取标签及其文章数
func (s *TagService) GetBySlug(ctx context.Context, tagSlug string) (*dto.TagResponse, error) {
	var tag model.Tag
	if err := s.db.WithContext(ctx).Where("slug = ?", tagSlug).First(&tag).Error; err != nil {
		return nil, wrapDB(err, "标签不存在")
	}
	row := tagRow{Tag: tag}
	if err := s.db.WithContext(ctx).Model(&model.PostTag{}).Where("tag_id = ?", tag.ID).Count(&row.NumPosts).Error; err != nil {
		return nil, err
	}
	resp := row.response()
	return &resp, nil
}

// Related 与指定标签同时出现在已发布文章上的标签
func (s *TagService) Related(ctx context.Context, tagID uint, limit int) ([]dto.TagResponse, error) {
	var rows []tagRow
	err := s.db.WithContext(ctx).
		Raw(relatedTags, model.PostStatusPublished, tagID, tagID, limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return tagResponses(rows), nil
}

// Invalidate 标签变化后清理缓存
func (s *TagService) Invalidate(ctx context.Context) {
	if err := s.cache.Delete(ctx, cache.TagCloudKey, cache.PopularTagsKey); err != nil {
		s.logger.Warnf("清理标签缓存失败: %v", err)
	}
}
