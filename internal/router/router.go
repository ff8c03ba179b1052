package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nsxzhou1114/folio-api/internal/config"
	"github.com/nsxzhou1114/folio-api/internal/controller"
	"github.com/nsxzhou1114/folio-api/internal/logger"
	"github.com/nsxzhou1114/folio-api/internal/middleware"
	"github.com/nsxzhou1114/folio-api/internal/model"
	"github.com/nsxzhou1114/folio-api/internal/service"
	"github.com/nsxzhou1114/folio-api/pkg/auth"
	"github.com/nsxzhou1114/folio-api/pkg/response"
	"github.com/nsxzhou1114/folio-api/pkg/validate"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Deps 路由依赖
type Deps struct {
	DB       *gorm.DB
	Services *service.Services
	Tokens   *auth.Manager
	Config   *config.Config
	Logger   *zap.SugaredLogger
}

// New 创建HTTP引擎并注册全部路由
func New(d Deps) *gin.Engine {
	if d.Logger == nil {
		d.Logger = logger.Nop()
	}
	validate.Register()

	r := gin.New()
	r.Use(middleware.RequestID(), logger.GinLogger(), gin.Recovery(), middleware.Cors(d.Config.App.Cors))
	r.GET("/healthz", health(d.DB))
	Setup(r, d)
	return r
}

func health(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			response.Error(c, http.StatusServiceUnavailable, "数据库不可用", err)
			return
		}
		response.Success(c, "ok", gin.H{"status": "ok"})
	}
}

// Setup 设置API路由
func Setup(r *gin.Engine, d Deps) {
	authn := middleware.NewAuth(d.Services.Users, d.Services.Permissions, d.Tokens, middleware.AuthOptions{
		CookieName: d.Config.JWT.CookieName,
		Buffer:     d.Config.JWT.Buffer(),
		Logger:     d.Logger,
	})

	api := r.Group("/api")

	setupAccountRoutes(api, authn, d)
	setupCatalogRoutes(api, authn, d)
	setupPostRoutes(api, authn, d)
	setupTagRoutes(api, d)
	setupNotificationRoutes(api, authn, d)
	setupAdminRoutes(api, authn, d)
}

// setupAccountRoutes 账号、资料与关注
func setupAccountRoutes(api *gin.RouterGroup, authn *middleware.Auth, d Deps) {
	accountApi := controller.NewAccountApi(d.Services, d.Tokens, controller.SessionCookie{
		Name:   d.Config.JWT.CookieName,
		Secure: d.Config.JWT.CookieSecure,
	}, d.Logger)

	accounts := api.Group("/accounts")
	{
		accounts.POST("/register", accountApi.Register)
		accounts.POST("/login", accountApi.Login)
		accounts.GET("/users/:id", authn.Optional(), accountApi.UserProfile)
		accounts.GET("/users/:id/followers", accountApi.UserFollowers)
		accounts.GET("/users/:id/following", accountApi.UserFollowing)
	}

	me := api.Group("/accounts", authn.Required())
	{
		me.POST("/logout", accountApi.Logout)
		me.GET("/profile", accountApi.Me)
		me.PUT("/profile", accountApi.UpdateMe)
		me.POST("/change-password", accountApi.ChangePassword)
		me.POST("/delete-account", accountApi.DeleteAccount)
		me.GET("/followers", accountApi.MyFollowers)
		me.GET("/following", accountApi.MyFollowing)
	}

	api.POST("/follow/:id", authn.Required(), accountApi.Follow)
	api.POST("/unfollow/:id", authn.Required(), accountApi.Unfollow)
}

// bookGuards 图书路由各操作的中间件
type bookGuards struct {
	read, create, update, remove []gin.HandlerFunc
}

func registerBooks(g *gin.RouterGroup, bookApi *controller.BookApi, guards bookGuards) {
	g.GET("", append(guards.read, bookApi.List)...)
	g.GET("/:id", append(guards.read, bookApi.Get)...)
	g.POST("", append(guards.create, bookApi.Create)...)
	g.PUT("/:id", append(guards.update, bookApi.Update)...)
	g.PATCH("/:id", append(guards.update, bookApi.Patch)...)
	g.DELETE("/:id", append(guards.remove, bookApi.Delete)...)
}

func handlers(h ...gin.HandlerFunc) []gin.HandlerFunc {
	return h
}

// setupCatalogRoutes 图书、作者、图书馆与角色面板
func setupCatalogRoutes(api *gin.RouterGroup, authn *middleware.Auth, d Deps) {
	plain := controller.NewBookApi(d.Services, service.BookListOptions{}, d.Logger)
	shelf := controller.NewBookApi(d.Services, service.BookListOptions{SearchDescription: true}, d.Logger)

	// 公开浏览，登录后可修改
	registerBooks(api.Group("/books"), plain, bookGuards{
		create: handlers(authn.Required()),
		update: handlers(authn.Required()),
		remove: handlers(authn.Required()),
	})
	// 登录后浏览，仅管理员可修改
	registerBooks(api.Group("/books-all"), plain, bookGuards{
		read:   handlers(authn.Required()),
		create: handlers(authn.Staff()),
		update: handlers(authn.Staff()),
		remove: handlers(authn.Staff()),
	})
	// 按权限代码控制
	registerBooks(api.Group("/bookshelf/books"), shelf, bookGuards{
		create: handlers(authn.Permission(model.PermCanCreate)),
		update: handlers(authn.Permission(model.PermCanCreate)),
		remove: handlers(authn.Permission(model.PermCanDelete)),
	})
	api.GET("/bookshelf/dashboard", authn.Required(), shelf.Dashboard)
	registerBooks(api.Group("/library-books"), plain, bookGuards{
		create: handlers(authn.Permission(model.PermCanAddBook)),
		update: handlers(authn.Permission(model.PermCanChangeBook)),
		remove: handlers(authn.Permission(model.PermCanDeleteBook)),
	})

	authorApi := controller.NewAuthorApi(d.Services, d.Logger)
	authors := api.Group("/authors")
	{
		authors.GET("", authorApi.List)
		authors.GET("/:id", authorApi.Get)
		authors.POST("", authn.Required(), authorApi.Create)
		authors.PUT("/:id", authn.Required(), authorApi.Update)
		authors.DELETE("/:id", authn.Required(), authorApi.Delete)
	}

	libraryApi := controller.NewLibraryApi(d.Services, d.Logger)
	libraries := api.Group("/libraries")
	{
		libraries.GET("", libraryApi.List)
		libraries.GET("/:id", libraryApi.Get)
	}
	staffLibraries := api.Group("/libraries", authn.Staff())
	{
		staffLibraries.POST("", libraryApi.Create)
		staffLibraries.PUT("/:id", libraryApi.Update)
		staffLibraries.DELETE("/:id", libraryApi.Delete)
		staffLibraries.POST("/:id/books/:bookId", libraryApi.AddBook)
		staffLibraries.DELETE("/:id/books/:bookId", libraryApi.RemoveBook)
		staffLibraries.PUT("/:id/librarian", libraryApi.SetLibrarian)
		staffLibraries.DELETE("/:id/librarian", libraryApi.RemoveLibrarian)
	}

	roleApi := controller.NewRoleApi(d.Services, d.Logger)
	roles := api.Group("/roles")
	{
		roles.GET("/admin", authn.Role(model.RoleAdmin), roleApi.Dashboard(model.RoleAdmin))
		roles.GET("/librarian", authn.Role(model.RoleLibrarian), roleApi.Dashboard(model.RoleLibrarian))
		roles.GET("/member", authn.Role(model.RoleMember), roleApi.Dashboard(model.RoleMember))
	}
}

// setupPostRoutes 文章、点赞与评论
func setupPostRoutes(api *gin.RouterGroup, authn *middleware.Auth, d Deps) {
	postApi := controller.NewPostApi(d.Services, d.Logger)
	commentApi := controller.NewCommentApi(d.Services, d.Logger)

	posts := api.Group("/posts")
	{
		posts.GET("", postApi.List)
		posts.GET("/search", postApi.Search)
		posts.GET("/sidebar", postApi.Sidebar)
		posts.GET("/drafts", authn.Required(), postApi.Drafts)
		posts.GET("/feed", authn.Required(), postApi.Feed)
		posts.GET("/slug/:slug", authn.Optional(), postApi.GetBySlug)
		posts.GET("/:id", authn.Optional(), postApi.Get)
		posts.POST("", authn.Required(), postApi.Create)
		posts.PUT("/:id", authn.Required(), postApi.Update)
		posts.PATCH("/:id", authn.Required(), postApi.Patch)
		posts.DELETE("/:id", authn.Required(), postApi.Delete)
		posts.POST("/:id/like", authn.Required(), postApi.Like)
		posts.POST("/:id/unlike", authn.Required(), postApi.Unlike)

		posts.GET("/:id/comments", authn.Optional(), commentApi.List)
		posts.POST("/:id/comments", authn.Required(), commentApi.Create)
		posts.PUT("/:id/comments/:cid", authn.Required(), commentApi.Update)
		posts.DELETE("/:id/comments/:cid", authn.Required(), commentApi.Delete)
		posts.PUT("/:id/comments/:cid/approve", authn.Required(), commentApi.Approve)
	}

	users := api.Group("/users/:username", authn.Optional())
	{
		users.GET("/posts", postApi.ByUser)
		users.GET("/comments", commentApi.ByUser)
	}
}

// setupTagRoutes 标签
func setupTagRoutes(api *gin.RouterGroup, d Deps) {
	tagApi := controller.NewTagApi(d.Services, d.Logger)
	tags := api.Group("/tags")
	{
		tags.GET("", tagApi.List)
		tags.GET("/cloud", tagApi.Cloud)
		tags.GET("/:slug/posts", tagApi.Posts)
	}
}

// setupNotificationRoutes 通知
func setupNotificationRoutes(api *gin.RouterGroup, authn *middleware.Auth, d Deps) {
	notificationApi := controller.NewNotificationApi(d.Services, d.Logger)
	notifications := api.Group("/notifications", authn.Required())
	{
		notifications.GET("", notificationApi.List)
		notifications.GET("/unread-count", notificationApi.UnreadCount)
		notifications.PUT("/read-all", notificationApi.MarkAllRead)
		notifications.PUT("/:id/read", notificationApi.MarkRead)
		notifications.DELETE("/:id", notificationApi.Delete)
	}
}

// setupAdminRoutes 管理后台
func setupAdminRoutes(api *gin.RouterGroup, authn *middleware.Auth, d Deps) {
	adminApi := controller.NewAdminApi(d.Services, d.Logger)
	commentApi := controller.NewCommentApi(d.Services, d.Logger)

	admin := api.Group("/admin", authn.Staff())
	{
		admin.GET("/users", adminApi.Users)
		admin.PUT("/users/:id/role", adminApi.SetRole)
		admin.PUT("/users/:id/staff", adminApi.SetStaff)
		admin.GET("/users/:id/permissions", adminApi.Permissions)
		admin.POST("/users/:id/permissions", adminApi.Grant)
		admin.DELETE("/users/:id/permissions", adminApi.Revoke)
		admin.GET("/comments/pending", commentApi.Pending)
	}
}
