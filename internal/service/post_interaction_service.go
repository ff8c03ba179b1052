package service

import (
	"context"
	"errors"

	"github.com/nsxzhou1114/folio-api/internal/dto"
	"github.com/nsxzhou1114/folio-api/internal/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PostInteractionService 文章点赞服务
type PostInteractionService struct {
	db     *gorm.DB
	logger *zap.SugaredLogger
}

// NewPostInteractionService 创建点赞服务实例
func NewPostInteractionService(db *gorm.DB, logger *zap.SugaredLogger) *PostInteractionService {
	return &PostInteractionService{db: db, logger: logger}
}

// Like 点赞，重复点赞返回错误
func (s *PostInteractionService) Like(ctx context.Context, user *model.User, post *model.Post) (*dto.LikeResponse, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cnt int64
		if err := tx.Model(&model.PostLike{}).
			Where("user_id = ? AND post_id = ?", user.ID, post.ID).
			Count(&cnt).Error; err != nil {
			return err
		}
		if cnt > 0 {
			return invalid("已经点赞过该文章")
		}
		like := model.PostLike{UserID: user.ID, PostID: post.ID}
		if err := tx.Omit("User").Create(&like).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return invalid("已经点赞过该文章")
			}
			return err
		}
		postID := post.ID
		return notify(tx, post.AuthorID, user.ID, model.VerbLike, &postID, nil)
	})
	if err != nil {
		return nil, err
	}
	return s.state(ctx, user.ID, post.ID)
}

// Unlike 取消点赞，未点赞时返回错误
func (s *PostInteractionService) Unlike(ctx context.Context, user *model.User, post *model.Post) (*dto.LikeResponse, error) {
	result := s.db.WithContext(ctx).
		Where("user_id = ? AND post_id = ?", user.ID, post.ID).
		Delete(&model.PostLike{})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, invalid("尚未点赞该文章")
	}
	return s.state(ctx, user.ID, post.ID)
}

func (s *PostInteractionService) state(ctx context.Context, userID, postID uint) (*dto.LikeResponse, error) {
	db := s.db.WithContext(ctx)
	var resp dto.LikeResponse
	if err := db.Model(&model.PostLike{}).Where("post_id = ?", postID).Count(&resp.LikesCount).Error; err != nil {
		return nil, err
	}
	var mine int64
	if err := db.Model(&model.PostLike{}).Where("post_id = ? AND user_id = ?", postID, userID).Count(&mine).Error; err != nil {
		return nil, err
	}
	resp.Liked = mine > 0
	return &resp, nil
}
