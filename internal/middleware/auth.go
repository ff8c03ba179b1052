package middleware

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nsxzhou1114/folio-api/internal/model"
	"github.com/nsxzhou1114/folio-api/internal/service"
	"github.com/nsxzhou1114/folio-api/pkg/auth"
	"github.com/nsxzhou1114/folio-api/pkg/response"
	"go.uber.org/zap"
)

// 上下文键
const (
	CurrentUserKey  = "currentUser"
	UserIDKey       = "userID"
	SessionTokenKey = "sessionToken"
)

var errNoCredentials = errors.New("未提供认证信息")

// Auth 认证与授权中间件
type Auth struct {
	users       *service.UserService
	permissions *service.PermissionService
	tokens      *auth.Manager
	cookieName  string
	buffer      time.Duration
	logger      *zap.SugaredLogger
}

// AuthOptions 认证中间件选项
type AuthOptions struct {
	CookieName string
	// Buffer 会话令牌剩余有效期低于该值时在响应头中提示刷新
	Buffer time.Duration
	Logger *zap.SugaredLogger
}

// NewAuth 创建认证中间件
func NewAuth(users *service.UserService, permissions *service.PermissionService, tokens *auth.Manager, opts AuthOptions) *Auth {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}
	return &Auth{
		users:       users,
		permissions: permissions,
		tokens:      tokens,
		cookieName:  opts.CookieName,
		buffer:      opts.Buffer,
		logger:      opts.Logger,
	}
}

// authenticate 依次尝试 Token 静态令牌、Bearer 会话令牌和会话Cookie
//
// Cookie 中的会话失效时视同未登录。
func (a *Auth) authenticate(c *gin.Context) (*model.User, error) {
	if header := c.GetHeader("Authorization"); header != "" {
		scheme, credential, ok := strings.Cut(strings.TrimSpace(header), " ")
		credential = strings.TrimSpace(credential)
		if !ok || credential == "" {
			return nil, errors.New("Authorization格式错误")
		}
		switch {
		case strings.EqualFold(scheme, "Token"):
			user, err := a.users.GetByAPIKey(c.Request.Context(), credential)
			if err != nil {
				return nil, err
			}
			return a.active(user)
		case strings.EqualFold(scheme, "Bearer"):
			return a.session(c, credential)
		default:
			return nil, fmt.Errorf("不支持的认证方式: %s", scheme)
		}
	}

	if a.cookieName != "" {
		if cookie, err := c.Cookie(a.cookieName); err == nil && cookie != "" {
			user, err := a.session(c, cookie)
			if err != nil {
				a.logger.Debugf("会话Cookie无效: %v", err)
				return nil, errNoCredentials
			}
			return user, nil
		}
	}
	return nil, errNoCredentials
}

func (a *Auth) session(c *gin.Context, token string) (*model.User, error) {
	claims, err := a.tokens.ParseToken(token)
	if err != nil {
		return nil, err
	}
	user, err := a.users.GetByID(c.Request.Context(), claims.UserID)
	if err != nil {
		return nil, err
	}
	if a.buffer > 0 && time.Until(claims.ExpiresAt.Time) < a.buffer {
		c.Header("X-Token-Expire-Soon", "true")
	}
	c.Set(SessionTokenKey, token)
	return a.active(user)
}

func (a *Auth) active(user *model.User) (*model.User, error) {
	if !user.IsActive {
		return nil, errors.New("账号已被禁用")
	}
	return user, nil
}

func setUser(c *gin.Context, user *model.User) {
	c.Set(CurrentUserKey, user)
	c.Set(UserIDKey, user.ID)
}

// require 认证失败时写入响应并中止，返回是否通过
func (a *Auth) require(c *gin.Context) bool {
	if CurrentUser(c) != nil {
		return true
	}
	user, err := a.authenticate(c)
	if err != nil {
		if errors.Is(err, errNoCredentials) {
			response.Forbidden(c, "请先登录", nil)
		} else {
			a.logger.Warnf("认证失败: %v", err)
			response.Unauthorized(c, "无效的认证信息", err)
		}
		c.Abort()
		return false
	}
	setUser(c, user)
	return true
}

// Required 要求登录
func (a *Auth) Required() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !a.require(c) {
			return
		}
		c.Next()
	}
}

// Optional 可选认证，认证失败时按匿名用户处理
func (a *Auth) Optional() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := a.authenticate(c)
		if err == nil {
			setUser(c, user)
		} else if !errors.Is(err, errNoCredentials) {
			a.logger.Warnf("可选认证失败，按匿名处理: %v", err)
		}
		c.Next()
	}
}

func (a *Auth) guard(message string, allow func(c *gin.Context, user *model.User) (bool, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !a.require(c) {
			return
		}
		ok, err := allow(c, CurrentUser(c))
		if err != nil {
			a.logger.Errorf("权限检查失败: %v", err)
			response.InternalServerError(c, "权限检查失败", err)
			c.Abort()
			return
		}
		if !ok {
			response.Forbidden(c, message, nil)
			c.Abort()
			return
		}
		c.Next()
	}
}

// Staff 要求管理员
func (a *Auth) Staff() gin.HandlerFunc {
	return a.guard("需要管理员权限", func(_ *gin.Context, user *model.User) (bool, error) {
		return service.IsStaff(user), nil
	})
}

// Role 要求指定角色
func (a *Auth) Role(role string) gin.HandlerFunc {
	return a.guard(fmt.Sprintf("需要%s角色", role), func(_ *gin.Context, user *model.User) (bool, error) {
		return service.HasRole(user, role), nil
	})
}

// Permission 要求拥有权限代码
func (a *Auth) Permission(code string) gin.HandlerFunc {
	return a.guard(fmt.Sprintf("缺少权限: %s", code), func(c *gin.Context, user *model.User) (bool, error) {
		return a.permissions.HasPermission(c.Request.Context(), user, code)
	})
}

// CurrentUser 当前登录用户，未登录返回nil
func CurrentUser(c *gin.Context) *model.User {
	v, ok := c.Get(CurrentUserKey)
	if !ok {
		return nil
	}
	user, _ := v.(*model.User)
	return user
}

// GetUserID 从上下文中获取用户ID
func GetUserID(c *gin.Context) (uint, bool) {
	userID, exists := c.Get(UserIDKey)
	if !exists {
		return 0, false
	}
	id, ok := userID.(uint)
	return id, ok
}

// SessionToken 本次请求使用的会话令牌，使用静态令牌时为空
func SessionToken(c *gin.Context) string {
	return c.GetString(SessionTokenKey)
}
