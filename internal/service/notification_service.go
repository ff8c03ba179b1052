package service

import (
	"context"
	"time"

	"github.com/nsxzhou1114/folio-api/internal/dto"
	"github.com/nsxzhou1114/folio-api/internal/model"
	"github.com/nsxzhou1114/folio-api/pkg/pagination"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// notify 在事务内创建通知，接收者为操作者本人时跳过
func notify(tx *gorm.DB, recipientID, actorID uint, verb string, postID, commentID *uint) error {
	if recipientID == actorID {
		return nil
	}
	n := &model.Notification{
		RecipientID:     recipientID,
		ActorID:         actorID,
		Verb:            verb,
		TargetPostID:    postID,
		TargetCommentID: commentID,
	}
	return tx.Create(n).Error
}

// NotificationService 通知服务
type NotificationService struct {
	db     *gorm.DB
	logger *zap.SugaredLogger
}

// NewNotificationService 创建通知服务实例
func NewNotificationService(db *gorm.DB, logger *zap.SugaredLogger) *NotificationService {
	return &NotificationService{db: db, logger: logger}
}

// List 获取通知列表，并将该用户全部通知标记为已读
//
// 返回的是标记前的状态，便于客户端区分新通知。
func (s *NotificationService) List(ctx context.Context, userID uint, params pagination.Params) ([]dto.NotificationResponse, int64, error) {
	db := s.db.WithContext(ctx)
	query := db.Model(&model.Notification{}).Where("recipient_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var notifications []model.Notification
	err := query.
		Preload("Actor.Profile").
		Preload("TargetPost").
		Order(params.OrderClause(map[string]string{"created_at": "created_at"}, "-created_at")).
		Order("id DESC").
		Scopes(paginate(params)).
		Find(&notifications).Error
	if err != nil {
		return nil, 0, err
	}

	if err := s.MarkAllRead(ctx, userID); err != nil {
		return nil, 0, err
	}

	list := make([]dto.NotificationResponse, 0, len(notifications))
	for i := range notifications {
		list = append(list, toNotificationResponse(&notifications[i]))
	}
	return list, total, nil
}

// UnreadCount 未读通知数
func (s *NotificationService) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	var cnt int64
	err := s.db.WithContext(ctx).Model(&model.Notification{}).
		Where("recipient_id = ? AND is_read = ?", userID, false).
		Count(&cnt).Error
	return cnt, err
}

// MarkRead 标记单条通知为已读
func (s *NotificationService) MarkRead(ctx context.Context, userID, id uint) error {
	result := s.db.WithContext(ctx).Model(&model.Notification{}).
		Where("id = ? AND recipient_id = ?", id, userID).
		Update("is_read", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return s.ensureOwned(ctx, userID, id)
	}
	return nil
}

// MarkAllRead 标记全部通知为已读
func (s *NotificationService) MarkAllRead(ctx context.Context, userID uint) error {
	return s.db.WithContext(ctx).Model(&model.Notification{}).
		Where("recipient_id = ? AND is_read = ?", userID, false).
		Update("is_read", true).Error
}

// Delete 删除通知
func (s *NotificationService) Delete(ctx context.Context, userID, id uint) error {
	result := s.db.WithContext(ctx).
		Where("id = ? AND recipient_id = ?", id, userID).
		Delete(&model.Notification{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return notFound("通知不存在")
	}
	return nil
}

// CleanupRead 清理早于指定时间的已读通知
func (s *NotificationService) CleanupRead(ctx context.Context, before time.Time) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("is_read = ? AND created_at < ?", true, before).
		Delete(&model.Notification{})
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected > 0 {
		s.logger.Infof("清理已读通知 %d 条", result.RowsAffected)
	}
	return result.RowsAffected, nil
}

// 已读的通知再次标记时影响行数可能为0，需要区分不存在
func (s *NotificationService) ensureOwned(ctx context.Context, userID, id uint) error {
	var cnt int64
	err := s.db.WithContext(ctx).Model(&model.Notification{}).
		Where("id = ? AND recipient_id = ?", id, userID).
		Count(&cnt).Error
	if err != nil {
		return err
	}
	if cnt == 0 {
		return notFound("通知不存在")
	}
	return nil
}
