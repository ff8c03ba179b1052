package dto

import "time"

// RegisterRequest 注册请求
type RegisterRequest struct {
	Username        string `json:"username" binding:"required,min=3,max=150,username"`
	Email           string `json:"email" binding:"required,email,max=254"`
	Password        string `json:"password" binding:"required,min=8,max=128"`
	PasswordConfirm string `json:"password_confirm" binding:"omitempty,eqfield=Password"`
	Bio             string `json:"bio" binding:"omitempty,max=500"`
}

// LoginRequest 登录请求
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse 注册/登录响应
type AuthResponse struct {
	Token            string              `json:"token"`
	SessionExpiresIn int                 `json:"session_expires_in"`
	User             UserProfileResponse `json:"user"`
}

// UpdateProfileRequest 更新个人资料请求
type UpdateProfileRequest struct {
	Email          *string `json:"email" binding:"omitempty,email,max=254"`
	Bio            *string `json:"bio" binding:"omitempty,max=500"`
	Website        *string `json:"website" binding:"omitempty,url,max=200"`
	Location       *string `json:"location" binding:"omitempty,max=100"`
	ProfilePicture *string `json:"profile_picture" binding:"omitempty,url,max=255"`
}

// ChangePasswordRequest 修改密码请求
type ChangePasswordRequest struct {
	OldPassword        string `json:"old_password" binding:"required"`
	NewPassword        string `json:"new_password" binding:"required,min=8,max=128"`
	NewPasswordConfirm string `json:"new_password_confirm" binding:"required,eqfield=NewPassword"`
}

// DeleteAccountRequest 注销账号请求
type DeleteAccountRequest struct {
	Password string `json:"password" binding:"required"`
}

// UserProfileResponse 用户资料响应
type UserProfileResponse struct {
	ID             uint      `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email,omitempty"`
	Bio            string    `json:"bio"`
	ProfilePicture string    `json:"profile_picture"`
	Website        string    `json:"website"`
	Location       string    `json:"location"`
	Role           string    `json:"role"`
	IsStaff        bool      `json:"is_staff"`
	FollowersCount int64     `json:"followers_count"`
	FollowingCount int64     `json:"following_count"`
	IsFollowing    bool      `json:"is_following"`
	DateJoined     time.Time `json:"date_joined"`
}

// UserListRequest 用户列表请求
type UserListRequest struct {
	PageRequest
}

// UserListResponse 用户列表响应
type UserListResponse struct {
	Total int64                 `json:"total"`
	List  []UserProfileResponse `json:"list"`
}

// FollowResponse 关注操作响应
type FollowResponse struct {
	Following      bool  `json:"following"`
	FollowersCount int64 `json:"followers_count"`
}

// SetRoleRequest 设置角色请求
type SetRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=Admin Librarian Member"`
}

// SetStaffRequest 设置管理员标记请求
type SetStaffRequest struct {
	IsStaff *bool `json:"is_staff" binding:"required"`
}

// PermissionRequest 授权请求
type PermissionRequest struct {
	Codename string `json:"codename" binding:"required,oneof=can_create can_delete can_add_book can_change_book can_delete_book"`
}

// PermissionListResponse 用户权限列表
type PermissionListResponse struct {
	UserID      uint     `json:"user_id"`
	Permissions []string `json:"permissions"`
}
