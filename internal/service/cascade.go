package service

import (
	"github.com/nsxzhou1114/folio-api/internal/model"
	"gorm.io/gorm"
)

// 外键约束不随迁移创建，级联删除统一在事务内显式执行

// deletePostsTx 删除文章及其评论、点赞、标签关联和相关通知
func deletePostsTx(tx *gorm.DB, postIDs []uint) error {
	if len(postIDs) == 0 {
		return nil
	}
	commentIDs := tx.Model(&model.Comment{}).Select("id").Where("post_id IN ?", postIDs)
	if err := tx.Where("target_post_id IN ? OR target_comment_id IN (?)", postIDs, commentIDs).
		Delete(&model.Notification{}).Error; err != nil {
		return err
	}
	if err := tx.Where("post_id IN ?", postIDs).Delete(&model.Comment{}).Error; err != nil {
		return err
	}
	if err := tx.Where("post_id IN ?", postIDs).Delete(&model.PostLike{}).Error; err != nil {
		return err
	}
	if err := tx.Where("post_id IN ?", postIDs).Delete(&model.PostTag{}).Error; err != nil {
		return err
	}
	return tx.Where("id IN ?", postIDs).Delete(&model.Post{}).Error
}

// collectCommentTree 收集评论及其全部回复的ID
func collectCommentTree(tx *gorm.DB, rootIDs []uint) ([]uint, error) {
	ids := append([]uint(nil), rootIDs...)
	frontier := rootIDs
	for len(frontier) > 0 {
		var children []uint
		if err := tx.Model(&model.Comment{}).Where("parent_id IN ?", frontier).Pluck("id", &children).Error; err != nil {
			return nil, err
		}
		ids = append(ids, children...)
		frontier = children
	}
	return ids, nil
}

// deleteCommentTreesTx 删除评论及其回复子树，返回删除的评论数
func deleteCommentTreesTx(tx *gorm.DB, rootIDs []uint) (int64, error) {
	if len(rootIDs) == 0 {
		return 0, nil
	}
	ids, err := collectCommentTree(tx, rootIDs)
	if err != nil {
		return 0, err
	}
	if err := tx.Where("target_comment_id IN ?", ids).Delete(&model.Notification{}).Error; err != nil {
		return 0, err
	}
	result := tx.Where("id IN ?", ids).Delete(&model.Comment{})
	return result.RowsAffected, result.Error
}

// deleteBooksTx 删除图书及其馆藏关联
func deleteBooksTx(tx *gorm.DB, bookIDs []uint) error {
	if len(bookIDs) == 0 {
		return nil
	}
	if err := tx.Where("book_id IN ?", bookIDs).Delete(&model.LibraryBook{}).Error; err != nil {
		return err
	}
	return tx.Where("id IN ?", bookIDs).Delete(&model.Book{}).Error
}
