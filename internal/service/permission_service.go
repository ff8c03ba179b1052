package service

import (
	"context"

	"github.com/nsxzhou1114/folio-api/internal/dto"
	"github.com/nsxzhou1114/folio-api/internal/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// IsStaff 是否为管理员
func IsStaff(u *model.User) bool {
	return u != nil && (u.IsStaff || u.IsSuperuser)
}

// IsOwnerOrStaff 是否为资源所有者或管理员
func IsOwnerOrStaff(u *model.User, ownerID uint) bool {
	if u == nil {
		return false
	}
	return u.ID == ownerID || IsStaff(u)
}

// HasRole 角色判断，按字符串精确比较
func HasRole(u *model.User, role string) bool {
	return u != nil && u.Profile.Role == role
}

func validPermission(code string) bool {
	for _, c := range model.PermissionCodes {
		if c == code {
			return true
		}
	}
	return false
}

func validRole(role string) bool {
	for _, r := range model.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// PermissionService 权限与角色服务
type PermissionService struct {
	db     *gorm.DB
	logger *zap.SugaredLogger
}

// NewPermissionService 创建权限服务实例
func NewPermissionService(db *gorm.DB, logger *zap.SugaredLogger) *PermissionService {
	return &PermissionService{db: db, logger: logger}
}

// HasPermission 判断用户是否拥有权限代码，超级用户拥有全部权限
func (s *PermissionService) HasPermission(ctx context.Context, u *model.User, code string) (bool, error) {
	if u == nil {
		return false, nil
	}
	if u.IsSuperuser {
		return true, nil
	}
	var cnt int64
	err := s.db.WithContext(ctx).Model(&model.UserPermission{}).
		Where("user_id = ? AND codename = ?", u.ID, code).
		Count(&cnt).Error
	if err != nil {
		return false, err
	}
	return cnt > 0, nil
}

// List 用户拥有的权限代码
func (s *PermissionService) List(ctx context.Context, userID uint) ([]string, error) {
	if err := ensureUser(s.db.WithContext(ctx), userID); err != nil {
		return nil, err
	}
	codes := make([]string, 0)
	err := s.db.WithContext(ctx).Model(&model.UserPermission{}).
		Where("user_id = ?", userID).
		Order("codename ASC").
		Pluck("codename", &codes).Error
	return codes, err
}

// Grant 授予权限，重复授予不报错
func (s *PermissionService) Grant(ctx context.Context, userID uint, code string) error {
	if !validPermission(code) {
		return fieldError("codename", "未知的权限代码")
	}
	if err := ensureUser(s.db.WithContext(ctx), userID); err != nil {
		return err
	}
	perm := model.UserPermission{UserID: userID, Codename: code}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&perm).Error
	if err != nil {
		return err
	}
	s.logger.Infof("授予用户 %d 权限 %s", userID, code)
	return nil
}

// Revoke 撤销权限
func (s *PermissionService) Revoke(ctx context.Context, userID uint, code string) error {
	if !validPermission(code) {
		return fieldError("codename", "未知的权限代码")
	}
	if err := ensureUser(s.db.WithContext(ctx), userID); err != nil {
		return err
	}
	return s.db.WithContext(ctx).
		Where("user_id = ? AND codename = ?", userID, code).
		Delete(&model.UserPermission{}).Error
}

// SetRole 设置用户角色
func (s *PermissionService) SetRole(ctx context.Context, userID uint, role string) error {
	if !validRole(role) {
		return fieldError("role", "未知的角色")
	}
	if err := ensureUser(s.db.WithContext(ctx), userID); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Model(&model.Profile{}).
		Where("user_id = ?", userID).
		Update("role", role).Error
}

// SetStaff 设置管理员标记
func (s *PermissionService) SetStaff(ctx context.Context, userID uint, staff bool) error {
	if err := ensureUser(s.db.WithContext(ctx), userID); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", userID).
		Update("is_staff", staff).Error
}

type counter struct {
	key   string
	query *gorm.DB
}

// RoleDashboard 角色面板数据
func (s *PermissionService) RoleDashboard(ctx context.Context, role string) (*dto.RoleDashboardResponse, error) {
	db := s.db.WithContext(ctx)
	books := func() *gorm.DB { return db.Model(&model.Book{}) }
	available := func() *gorm.DB { return db.Model(&model.Book{}).Where("is_available = ?", true) }

	resp := &dto.RoleDashboardResponse{Role: role, Stats: make(map[string]int64)}
	var counters []counter
	switch role {
	case model.RoleAdmin:
		resp.Message = "欢迎，管理员"
		counters = []counter{
			{"users", db.Model(&model.User{})},
			{"books", books()},
			{"libraries", db.Model(&model.Library{})},
			{"authors", db.Model(&model.Author{})},
		}
	case model.RoleLibrarian:
		resp.Message = "欢迎，馆员"
		counters = []counter{
			{"books", books()},
			{"available_books", available()},
			{"libraries", db.Model(&model.Library{})},
		}
	default:
		resp.Message = "欢迎，会员"
		counters = []counter{{"available_books", available()}}
	}

	for _, c := range counters {
		var n int64
		if err := c.query.Count(&n).Error; err != nil {
			return nil, err
		}
		resp.Stats[c.key] = n
	}
	return resp, nil
}
