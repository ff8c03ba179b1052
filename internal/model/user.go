package model

import (
	"time"

	"gorm.io/gorm"
)

// 角色
const (
	RoleAdmin     = "Admin"
	RoleLibrarian = "Librarian"
	RoleMember    = "Member"
)

// 权限代码
const (
	PermCanCreate     = "can_create"
	PermCanDelete     = "can_delete"
	PermCanAddBook    = "can_add_book"
	PermCanChangeBook = "can_change_book"
	PermCanDeleteBook = "can_delete_book"
)

// PermissionCodes 所有合法的权限代码
var PermissionCodes = []string{
	PermCanCreate, PermCanDelete, PermCanAddBook, PermCanChangeBook, PermCanDeleteBook,
}

// Roles 所有合法的角色
var Roles = []string{RoleAdmin, RoleLibrarian, RoleMember}

// User 用户模型
type User struct {
	Base
	Username    string     `gorm:"type:varchar(150);not null;uniqueIndex" json:"username"`
	Email       string     `gorm:"type:varchar(254);not null;uniqueIndex" json:"email"`
	Password    string     `gorm:"type:varchar(100);not null" json:"-"`
	IsStaff     bool       `gorm:"not null;default:false" json:"is_staff"`
	IsSuperuser bool       `gorm:"not null;default:false" json:"is_superuser"`
	IsActive    bool       `gorm:"not null" json:"is_active"`
	LastLoginAt *time.Time `json:"last_login_at"`

	// 关联
	Profile Profile `gorm:"foreignKey:UserID" json:"profile"`
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}

// AfterCreate 创建用户时同步创建资料
func (u *User) AfterCreate(tx *gorm.DB) error {
	if u.Profile.ID != 0 {
		return nil
	}
	profile := u.Profile
	profile.UserID = u.ID
	if profile.Role == "" {
		profile.Role = RoleMember
	}
	if err := tx.Create(&profile).Error; err != nil {
		return err
	}
	u.Profile = profile
	return nil
}

// Profile 用户资料
type Profile struct {
	Base
	UserID         uint   `gorm:"not null;uniqueIndex" json:"user_id"`
	Role           string `gorm:"type:varchar(20);not null;default:'Member'" json:"role"`
	Bio            string `gorm:"type:varchar(500)" json:"bio"`
	ProfilePicture string `gorm:"type:varchar(255)" json:"profile_picture"`
	Website        string `gorm:"type:varchar(200)" json:"website"`
	Location       string `gorm:"type:varchar(100)" json:"location"`
}

// TableName 指定表名
func (Profile) TableName() string {
	return "profiles"
}

// UserPermission 用户权限
type UserPermission struct {
	Base
	UserID   uint   `gorm:"not null;uniqueIndex:idx_user_codename" json:"user_id"`
	Codename string `gorm:"type:varchar(50);not null;uniqueIndex:idx_user_codename" json:"codename"`
}

// TableName 指定表名
func (UserPermission) TableName() string {
	return "user_permissions"
}

// APIToken 每个用户一个的静态接口令牌
type APIToken struct {
	Key       string    `gorm:"type:varchar(40);primaryKey" json:"key"`
	UserID    uint      `gorm:"not null;uniqueIndex" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

// TableName 指定表名
func (APIToken) TableName() string {
	return "api_tokens"
}
