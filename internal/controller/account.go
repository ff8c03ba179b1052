package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nsxzhou1114/folio-api/internal/dto"
	"github.com/nsxzhou1114/folio-api/internal/middleware"
	"github.com/nsxzhou1114/folio-api/internal/model"
	"github.com/nsxzhou1114/folio-api/internal/service"
	"github.com/nsxzhou1114/folio-api/pkg/auth"
	"github.com/nsxzhou1114/folio-api/pkg/pagination"
	"github.com/nsxzhou1114/folio-api/pkg/response"
	"go.uber.org/zap"
)

// SessionCookie 会话Cookie设置
type SessionCookie struct {
	Name   string
	Secure bool
}

// AccountApi 账号API控制器
type AccountApi struct {
	logger  *zap.SugaredLogger
	users   *service.UserService
	follows *service.FollowService
	tokens  *auth.Manager
	cookie  SessionCookie
}

// NewAccountApi 创建账号API控制器
func NewAccountApi(svcs *service.Services, tokens *auth.Manager, cookie SessionCookie, logger *zap.SugaredLogger) *AccountApi {
	return &AccountApi{
		logger:  logger,
		users:   svcs.Users,
		follows: svcs.Follows,
		tokens:  tokens,
		cookie:  cookie,
	}
}

// startSession 签发会话令牌并写入Cookie
func (api *AccountApi) startSession(c *gin.Context, user *model.User, key string) (*dto.AuthResponse, error) {
	session, _, err := api.tokens.GenerateToken(user.ID)
	if err != nil {
		return nil, err
	}
	maxAge := int(api.tokens.Expire().Seconds())
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(api.cookie.Name, session, maxAge, "/", "", api.cookie.Secure, true)

	profile, err := api.users.Profile(c.Request.Context(), user, user.ID)
	if err != nil {
		return nil, err
	}
	return &dto.AuthResponse{Token: key, SessionExpiresIn: maxAge, User: *profile}, nil
}

// Register 注册
func (api *AccountApi) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}
	user, key, err := api.users.Register(c.Request.Context(), &req)
	if err != nil {
		handleError(c, api.logger, "注册", err)
		return
	}
	resp, err := api.startSession(c, user, key)
	if err != nil {
		handleError(c, api.logger, "注册", err)
		return
	}
	response.Created(c, "注册成功", resp)
}

// Login 登录
func (api *AccountApi) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !bindJSON(c, &req) {
		return
	}
	user, key, err := api.users.Login(c.Request.Context(), &req)
	if err != nil {
		handleError(c, api.logger, "登录", err)
		return
	}
	resp, err := api.startSession(c, user, key)
	if err != nil {
		handleError(c, api.logger, "登录", err)
		return
	}
	response.Success(c, "登录成功", resp)
}

// Logout 登出，撤销会话令牌并清除Cookie，静态令牌保留
func (api *AccountApi) Logout(c *gin.Context) {
	token := middleware.SessionToken(c)
	if token == "" {
		token, _ = c.Cookie(api.cookie.Name)
	}
	if token != "" {
		if err := api.tokens.RevokeToken(token); err != nil {
			api.logger.Warnf("撤销会话令牌失败: %v", err)
		}
	}
	c.SetCookie(api.cookie.Name, "", -1, "/", "", api.cookie.Secure, true)
	response.Success(c, "已退出登录", nil)
}

// Me 当前用户资料
func (api *AccountApi) Me(c *gin.Context) {
	user := currentUser(c)
	profile, err := api.users.Profile(c.Request.Context(), user, user.ID)
	if err != nil {
		handleError(c, api.logger, "获取个人资料", err)
		return
	}
	response.Success(c, "获取成功", profile)
}

// UpdateMe 更新当前用户资料
func (api *AccountApi) UpdateMe(c *gin.Context) {
	var req dto.UpdateProfileRequest
	if !bindJSON(c, &req) {
		return
	}
	profile, err := api.users.UpdateProfile(c.Request.Context(), currentUser(c).ID, &req)
	if err != nil {
		handleError(c, api.logger, "更新个人资料", err)
		return
	}
	response.Success(c, "更新成功", profile)
}

// ChangePassword 修改密码
func (api *AccountApi) ChangePassword(c *gin.Context) {
	var req dto.ChangePasswordRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := api.users.ChangePassword(c.Request.Context(), currentUser(c).ID, &req); err != nil {
		handleError(c, api.logger, "修改密码", err)
		return
	}
	response.Success(c, "密码修改成功", nil)
}

// DeleteAccount 注销账号
func (api *AccountApi) DeleteAccount(c *gin.Context) {
	var req dto.DeleteAccountRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := api.users.DeleteAccount(c.Request.Context(), currentUser(c).ID, req.Password); err != nil {
		handleError(c, api.logger, "注销账号", err)
		return
	}
	c.SetCookie(api.cookie.Name, "", -1, "/", "", api.cookie.Secure, true)
	response.Success(c, "账号已注销", nil)
}

// UserProfile 用户公开资料
func (api *AccountApi) UserProfile(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	profile, err := api.users.Profile(c.Request.Context(), currentUser(c), id)
	if err != nil {
		handleError(c, api.logger, "获取用户资料", err)
		return
	}
	response.Success(c, "获取成功", profile)
}

// Follow 关注用户
func (api *AccountApi) Follow(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	resp, err := api.follows.Follow(c.Request.Context(), currentUser(c).ID, id)
	if err != nil {
		handleError(c, api.logger, "关注", err)
		return
	}
	response.Success(c, "关注成功", resp)
}

// Unfollow 取消关注
func (api *AccountApi) Unfollow(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	resp, err := api.follows.Unfollow(c.Request.Context(), currentUser(c).ID, id)
	if err != nil {
		handleError(c, api.logger, "取消关注", err)
		return
	}
	response.Success(c, "已取消关注", resp)
}

type followList func(ctx *gin.Context, userID uint, params pagination.Params) ([]dto.UserBrief, int64, error)

func (api *AccountApi) listFollows(c *gin.Context, userID uint, list followList) {
	var req dto.PageRequest
	if !bindQuery(c, &req) {
		return
	}
	params := pagination.New(req.Page, req.PageSize, 20, "")
	users, total, err := list(c, userID, params)
	if err != nil {
		handleError(c, api.logger, "获取关注列表", err)
		return
	}
	response.SuccessPage(c, "获取成功", gin.H{"total": total, "list": users}, params, total)
}

func (api *AccountApi) followers(c *gin.Context, userID uint, params pagination.Params) ([]dto.UserBrief, int64, error) {
	return api.follows.Followers(c.Request.Context(), userID, params)
}

func (api *AccountApi) following(c *gin.Context, userID uint, params pagination.Params) ([]dto.UserBrief, int64, error) {
	return api.follows.Following(c.Request.Context(), userID, params)
}

// MyFollowers 当前用户的粉丝
func (api *AccountApi) MyFollowers(c *gin.Context) {
	api.listFollows(c, currentUser(c).ID, api.followers)
}

// MyFollowing 当前用户关注的人
func (api *AccountApi) MyFollowing(c *gin.Context) {
	api.listFollows(c, currentUser(c).ID, api.following)
}

// UserFollowers 指定用户的粉丝
func (api *AccountApi) UserFollowers(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	api.listFollows(c, id, api.followers)
}

// UserFollowing 指定用户关注的人
func (api *AccountApi) UserFollowing(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	api.listFollows(c, id, api.following)
}
