package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/nsxzhou1114/folio-api/internal/dto"
	"github.com/nsxzhou1114/folio-api/internal/model"
	"github.com/nsxzhou1114/folio-api/pkg/auth"
	"github.com/nsxzhou1114/folio-api/pkg/pagination"
	"github.com/nsxzhou1114/folio-api/pkg/sanitize"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// UserService 用户服务
type UserService struct {
	db      *gorm.DB
	logger  *zap.SugaredLogger
	indexer PostIndexer
	tags    *TagService
}

// NewUserService 创建用户服务实例，tags 用于注销后清理标签缓存
func NewUserService(db *gorm.DB, logger *zap.SugaredLogger, indexer PostIndexer, tags *TagService) *UserService {
	return &UserService{db: db, logger: logger, indexer: indexer, tags: tags}
}

// NewUser 创建用户参数
type NewUser struct {
	Username    string
	Email       string
	Password    string
	Bio         string
	Role        string
	IsStaff     bool
	IsSuperuser bool
}

// Create 创建用户及其资料、令牌
func (s *UserService) Create(ctx context.Context, in NewUser) (*model.User, string, error) {
	username := sanitize.Name(in.Username)
	email := sanitize.Email(in.Email)
	if username == "" {
		return nil, "", fieldError("username", "用户名不能为空")
	}
	if len([]rune(in.Password)) < 8 {
		return nil, "", fieldError("password", "密码长度不能少于8位")
	}

	db := s.db.WithContext(ctx)
	var cnt int64
	if err := db.Model(&model.User{}).Where("username = ?", username).Count(&cnt).Error; err != nil {
		return nil, "", err
	}
	if cnt > 0 {
		return nil, "", conflict("username", "用户名已存在")
	}
	if err := db.Model(&model.User{}).Where("email = ?", email).Count(&cnt).Error; err != nil {
		return nil, "", err
	}
	if cnt > 0 {
		return nil, "", conflict("email", "邮箱已被注册")
	}

	hashed, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, "", err
	}

	role := in.Role
	if role == "" {
		role = model.RoleMember
	}
	user := &model.User{
		Username:    username,
		Email:       email,
		Password:    hashed,
		IsStaff:     in.IsStaff,
		IsSuperuser: in.IsSuperuser,
		IsActive:    true,
		Profile: model.Profile{
			Role: role,
			Bio:  sanitize.Bio(in.Bio),
		},
	}

	var key string
	err = db.Transaction(func(tx *gorm.DB) error {
		// 资料由 AfterCreate 钩子创建
		if err := tx.Omit("Profile").Create(user).Error; err != nil {
			return wrapUnique(err, "username", "用户名已存在")
		}
		var err error
		key, err = ensureAPIToken(tx, user.ID)
		return err
	})
	if err != nil {
		return nil, "", err
	}
	s.logger.Infof("用户注册成功: %s", user.Username)
	return user, key, nil
}

// Register 注册
func (s *UserService) Register(ctx context.Context, req *dto.RegisterRequest) (*model.User, string, error) {
	return s.Create(ctx, NewUser{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Bio:      req.Bio,
	})
}

// Login 登录，返回用户及其静态令牌
func (s *UserService) Login(ctx context.Context, req *dto.LoginRequest) (*model.User, string, error) {
	var user model.User
	err := s.db.WithContext(ctx).Preload("Profile").
		Where("username = ?", strings.TrimSpace(req.Username)).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", invalid("用户名或密码错误")
		}
		return nil, "", err
	}
	if !auth.CheckPassword(user.Password, req.Password) {
		return nil, "", invalid("用户名或密码错误")
	}
	if !user.IsActive {
		return nil, "", forbidden("账号已被禁用")
	}

	var key string
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		if err := tx.Model(&user).Update("last_login_at", now).Error; err != nil {
			return err
		}
		user.LastLoginAt = &now
		var err error
		key, err = ensureAPIToken(tx, user.ID)
		return err
	})
	if err != nil {
		return nil, "", err
	}
	return &user, key, nil
}

// ensureAPIToken 获取用户静态令牌，不存在时创建
func ensureAPIToken(tx *gorm.DB, userID uint) (string, error) {
	var token model.APIToken
	err := tx.Where("user_id = ?", userID).Limit(1).Find(&token).Error
	if err != nil {
		return "", err
	}
	if token.Key != "" {
		return token.Key, nil
	}
	token = model.APIToken{Key: auth.GenerateAPIKey(), UserID: userID}
	if err := tx.Create(&token).Error; err != nil {
		return "", err
	}
	return token.Key, nil
}

func ensureUser(db *gorm.DB, userID uint) error {
	var cnt int64
	if err := db.Model(&model.User{}).Where("id = ?", userID).Count(&cnt).Error; err != nil {
		return err
	}
	if cnt == 0 {
		return notFound("用户不存在")
	}
	return nil
}

// GetByID 根据ID获取用户
func (s *UserService) GetByID(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).Preload("Profile").First(&user, id).Error; err != nil {
		return nil, wrapDB(err, "用户不存在")
	}
	return &user, nil
}

// GetByUsername 根据用户名获取用户
func (s *UserService) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).Preload("Profile").Where("username = ?", username).First(&user).Error; err != nil {
		return nil, wrapDB(err, "用户不存在")
	}
	return &user, nil
}

// GetByAPIKey 根据静态令牌获取用户
func (s *UserService) GetByAPIKey(ctx context.Context, key string) (*model.User, error) {
	var token model.APIToken
	if err := s.db.WithContext(ctx).Preload("User.Profile").Where(&model.APIToken{Key: key}).First(&token).Error; err != nil {
		return nil, wrapDB(err, "无效的令牌")
	}
	return &token.User, nil
}

// Profile 获取用户资料，viewer 可为空
func (s *UserService) Profile(ctx context.Context, viewer *model.User, userID uint) (*dto.UserProfileResponse, error) {
	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp, err := s.profileResponse(ctx, viewer, user)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *UserService) profileResponse(ctx context.Context, viewer, user *model.User) (dto.UserProfileResponse, error) {
	resp := dto.UserProfileResponse{
		ID:             user.ID,
		Username:       user.Username,
		Bio:            user.Profile.Bio,
		ProfilePicture: user.Profile.ProfilePicture,
		Website:        user.Profile.Website,
		Location:       user.Profile.Location,
		Role:           user.Profile.Role,
		IsStaff:        user.IsStaff,
		DateJoined:     user.CreatedAt,
	}
	if IsOwnerOrStaff(viewer, user.ID) {
		resp.Email = user.Email
	}

	db := s.db.WithContext(ctx).Model(&model.UserFollow{})
	if err := db.Where("followed_id = ?", user.ID).Count(&resp.FollowersCount).Error; err != nil {
		return resp, err
	}
	db = s.db.WithContext(ctx).Model(&model.UserFollow{})
	if err := db.Where("follower_id = ?", user.ID).Count(&resp.FollowingCount).Error; err != nil {
		return resp, err
	}
	if viewer != nil && viewer.ID != user.ID {
		var cnt int64
		err := s.db.WithContext(ctx).Model(&model.UserFollow{}).
			Where("follower_id = ? AND followed_id = ?", viewer.ID, user.ID).
			Count(&cnt).Error
		if err != nil {
			return resp, err
		}
		resp.IsFollowing = cnt > 0
	}
	return resp, nil
}

// UpdateProfile 更新个人资料
func (s *UserService) UpdateProfile(ctx context.Context, userID uint, req *dto.UpdateProfileRequest) (*dto.UserProfileResponse, error) {
	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	profileUpdates := map[string]interface{}{}
	if req.Bio != nil {
		profileUpdates["bio"] = sanitize.Bio(*req.Bio)
	}
	if req.Website != nil {
		profileUpdates["website"] = strings.TrimSpace(*req.Website)
	}
	if req.Location != nil {
		profileUpdates["location"] = sanitize.Text(*req.Location, 100)
	}
	if req.ProfilePicture != nil {
		profileUpdates["profile_picture"] = strings.TrimSpace(*req.ProfilePicture)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if req.Email != nil {
			email := sanitize.Email(*req.Email)
			var cnt int64
			if err := tx.Model(&model.User{}).Where("email = ? AND id <> ?", email, userID).Count(&cnt).Error; err != nil {
				return err
			}
			if cnt > 0 {
				return conflict("email", "邮箱已被注册")
			}
			if err := tx.Model(user).Update("email", email).Error; err != nil {
				return wrapUnique(err, "email", "邮箱已被注册")
			}
		}
		if len(profileUpdates) > 0 {
			return tx.Model(&model.Profile{}).Where("user_id = ?", userID).Updates(profileUpdates).Error
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Profile(ctx, user, userID)
}

// ChangePassword 修改密码
func (s *UserService) ChangePassword(ctx context.Context, userID uint, req *dto.ChangePasswordRequest) error {
	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if !auth.CheckPassword(user.Password, req.OldPassword) {
		return fieldError("old_password", "原密码错误")
	}
	if req.NewPassword != req.NewPasswordConfirm {
		return fieldError("new_password_confirm", "两次输入的密码不一致")
	}
	return s.setPassword(ctx, userID, req.NewPassword)
}

// ResetPassword 重置密码，无需校验原密码
func (s *UserService) ResetPassword(ctx context.Context, username, password string) error {
	user, err := s.GetByUsername(ctx, username)
	if err != nil {
		return err
	}
	if len([]rune(password)) < 8 {
		return fieldError("password", "密码长度不能少于8位")
	}
	return s.setPassword(ctx, user.ID, password)
}

func (s *UserService) setPassword(ctx context.Context, userID uint, password string) error {
	hashed, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", userID).Update("password", hashed).Error
}

// DeleteAccount 注销账号，级联删除该用户的全部数据
func (s *UserService) DeleteAccount(ctx context.Context, userID uint, password string) error {
	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if !auth.CheckPassword(user.Password, password) {
		return fieldError("password", "密码错误")
	}
	return s.Delete(ctx, userID)
}

// Delete 删除用户及其关联数据
func (s *UserService) Delete(ctx context.Context, userID uint) error {
	var postIDs []uint
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Post{}).Where("author_id = ?", userID).Pluck("id", &postIDs).Error; err != nil {
			return err
		}
		if err := deletePostsTx(tx, postIDs); err != nil {
			return err
		}

		var commentIDs []uint
		if err := tx.Model(&model.Comment{}).Where("author_id = ?", userID).Pluck("id", &commentIDs).Error; err != nil {
			return err
		}
		if _, err := deleteCommentTreesTx(tx, commentIDs); err != nil {
			return err
		}

		steps := []struct {
			model interface{}
			query string
			args  []interface{}
		}{
			{&model.PostLike{}, "user_id = ?", []interface{}{userID}},
			{&model.UserFollow{}, "follower_id = ? OR followed_id = ?", []interface{}{userID, userID}},
			{&model.Notification{}, "recipient_id = ? OR actor_id = ?", []interface{}{userID, userID}},
			{&model.APIToken{}, "user_id = ?", []interface{}{userID}},
			{&model.UserPermission{}, "user_id = ?", []interface{}{userID}},
			{&model.Profile{}, "user_id = ?", []interface{}{userID}},
		}
		for _, step := range steps {
			if err := tx.Where(step.query, step.args...).Delete(step.model).Error; err != nil {
				return err
			}
		}

		if err := tx.Model(&model.Book{}).Where("created_by_id = ?", userID).Update("created_by_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&model.User{}, userID).Error
	})
	if err != nil {
		return err
	}

	if s.indexer != nil {
		for _, id := range postIDs {
			if err := s.indexer.DeletePost(ctx, id); err != nil {
				s.logger.Warnf("删除文章索引失败: %v", err)
			}
		}
	}
	if len(postIDs) > 0 && s.tags != nil {
		s.tags.Invalidate(ctx)
	}
	s.logger.Infof("用户 %d 已注销", userID)
	return nil
}

// List 用户列表
func (s *UserService) List(ctx context.Context, viewer *model.User, req *dto.UserListRequest) ([]dto.UserProfileResponse, int64, pagination.Params, error) {
	params := pagination.New(req.Page, req.PageSize, 20, req.Ordering)
	query := s.db.WithContext(ctx).Model(&model.User{}).Scopes(searchScope(req.Search, "username", "email"))

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, params, err
	}

	var users []model.User
	order := params.OrderClause(map[string]string{
		"username":    "username",
		"date_joined": "created_at",
	}, "username")
	if err := query.Preload("Profile").Order(order).Scopes(paginate(params)).Find(&users).Error; err != nil {
		return nil, 0, params, err
	}

	list := make([]dto.UserProfileResponse, 0, len(users))
	for i := range users {
		resp, err := s.profileResponse(ctx, viewer, &users[i])
		if err != nil {
			return nil, 0, params, err
		}
		list = append(list, resp)
	}
	return list, total, params, nil
}
