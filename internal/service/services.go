package service

import (
	"github.com/nsxzhou1114/folio-api/internal/config"
	"github.com/nsxzhou1114/folio-api/pkg/cache"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Options 服务依赖
type Options struct {
	Logger *zap.SugaredLogger
	// Cache 为空时使用进程内缓存
	Cache cache.Cache
	// Indexer 为空时搜索直接走数据库
	Indexer    PostIndexer
	Moderation config.ModerationConfig
}

// Services 服务集合
type Services struct {
	Permissions   *PermissionService
	Users         *UserService
	Follows       *FollowService
	Notifications *NotificationService
	Authors       *AuthorService
	Books         *BookService
	Libraries     *LibraryService
	Tags          *TagService
	Comments      *CommentService
	Posts         *PostService
	Interactions  *PostInteractionService
	Sensitive     *SensitiveService
}

// New 组装全部服务
func New(db *gorm.DB, opts Options) *Services {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	s := &Services{}
	s.Sensitive = NewSensitiveService(opts.Moderation, log)
	s.Permissions = NewPermissionService(db, log)
	s.Follows = NewFollowService(db, log)
	s.Notifications = NewNotificationService(db, log)
	s.Authors = NewAuthorService(db, log)
	s.Books = NewBookService(db, log, s.Permissions)
	s.Libraries = NewLibraryService(db, log)
	s.Tags = NewTagService(db, log, opts.Cache)
	s.Users = NewUserService(db, log, opts.Indexer, s.Tags)
	s.Comments = NewCommentService(db, log, s.Sensitive)
	s.Posts = NewPostService(db, log, s.Tags, s.Comments, opts.Indexer)
	s.Interactions = NewPostInteractionService(db, log)
	return s
}
