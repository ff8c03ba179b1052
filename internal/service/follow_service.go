package service

import (
	"context"

	"github.com/nsxzhou1114/folio-api/internal/dto"
	"github.com/nsxzhou1114/folio-api/internal/model"
	"github.com/nsxzhou1114/folio-api/pkg/pagination"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FollowService 关注关系服务
type FollowService struct {
	db     *gorm.DB
	logger *zap.SugaredLogger
}

// NewFollowService 创建关注服务实例
func NewFollowService(db *gorm.DB, logger *zap.SugaredLogger) *FollowService {
	return &FollowService{db: db, logger: logger}
}

// Follow 关注用户，已关注时不做任何修改
func (s *FollowService) Follow(ctx context.Context, followerID, targetID uint) (*dto.FollowResponse, error) {
	if followerID == targetID {
		return nil, invalid("不能关注自己")
	}
	if err := ensureUser(s.db.WithContext(ctx), targetID); err != nil {
		return nil, err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		edge := model.UserFollow{FollowerID: followerID, FollowedID: targetID}
		result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&edge)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}
		return notify(tx, targetID, followerID, model.VerbFollow, nil, nil)
	})
	if err != nil {
		return nil, err
	}
	return s.state(ctx, followerID, targetID)
}

// Unfollow 取消关注，未关注时不做任何修改
func (s *FollowService) Unfollow(ctx context.Context, followerID, targetID uint) (*dto.FollowResponse, error) {
	if followerID == targetID {
		return nil, invalid("不能取消关注自己")
	}
	if err := ensureUser(s.db.WithContext(ctx), targetID); err != nil {
		return nil, err
	}
	err := s.db.WithContext(ctx).
		Where("follower_id = ? AND followed_id = ?", followerID, targetID).
		Delete(&model.UserFollow{}).Error
	if err != nil {
		return nil, err
	}
	return s.state(ctx, followerID, targetID)
}

// IsFollowing 是否已关注
func (s *FollowService) IsFollowing(ctx context.Context, followerID, targetID uint) (bool, error) {
	var cnt int64
	err := s.db.WithContext(ctx).Model(&model.UserFollow{}).
		Where("follower_id = ? AND followed_id = ?", followerID, targetID).
		Count(&cnt).Error
	return cnt > 0, err
}

// Followers 粉丝列表
func (s *FollowService) Followers(ctx context.Context, userID uint, params pagination.Params) ([]dto.UserBrief, int64, error) {
	if err := ensureUser(s.db.WithContext(ctx), userID); err != nil {
		return nil, 0, err
	}
	sub := s.db.Model(&model.UserFollow{}).Select("follower_id").Where("followed_id = ?", userID)
	return s.users(ctx, sub, params)
}

// Following 关注列表
func (s *FollowService) Following(ctx context.Context, userID uint, params pagination.Params) ([]dto.UserBrief, int64, error) {
	if err := ensureUser(s.db.WithContext(ctx), userID); err != nil {
		return nil, 0, err
	}
	sub := s.db.Model(&model.UserFollow{}).Select("followed_id").Where("follower_id = ?", userID)
	return s.users(ctx, sub, params)
}

func (s *FollowService) users(ctx context.Context, ids *gorm.DB, params pagination.Params) ([]dto.UserBrief, int64, error) {
	query := s.db.WithContext(ctx).Model(&model.User{}).Where("id IN (?)", ids)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var users []model.User
	if err := query.Preload("Profile").Order("username ASC").Scopes(paginate(params)).Find(&users).Error; err != nil {
		return nil, 0, err
	}
	list := make([]dto.UserBrief, 0, len(users))
	for i := range users {
		list = append(list, toUserBrief(&users[i]))
	}
	return list, total, nil
}

func (s *FollowService) state(ctx context.Context, followerID, targetID uint) (*dto.FollowResponse, error) {
	following, err := s.IsFollowing(ctx, followerID, targetID)
	if err != nil {
		return nil, err
	}
	resp := &dto.FollowResponse{Following: following}
	err = s.db.WithContext(ctx).Model(&model.UserFollow{}).
		Where("followed_id = ?", targetID).
		Count(&resp.FollowersCount).Error
	return resp, err
}
