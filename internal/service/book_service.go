package service

import (
	"context"
	"strings"
	"time"

	"github.com/nsxzhou1114/folio-api/internal/dto"
	"github.com/nsxzhou1114/folio-api/internal/model"
	"github.com/nsxzhou1114/folio-api/pkg/pagination"
	"github.com/nsxzhou1114/folio-api/pkg/sanitize"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var bookOrdering = map[string]string{
	"title":            "books.title",
	"publication_year": "books.publication_year",
	"created_at":       "books.created_at",
}

// BookListOptions 图书列表选项
type BookListOptions struct {
	// SearchDescription 搜索时同时匹配简介
	SearchDescription bool
}

// BookService 图书服务
type BookService struct {
	db          *gorm.DB
	logger      *zap.SugaredLogger
	permissions *PermissionService
}

// NewBookService 创建图书服务实例
func NewBookService(db *gorm.DB, logger *zap.SugaredLogger, permissions *PermissionService) *BookService {
	return &BookService{db: db, logger: logger, permissions: permissions}
}

// List 图书列表，支持过滤、搜索、排序和分页
func (s *BookService) List(ctx context.Context, req *dto.BookListRequest, opts BookListOptions) ([]dto.BookResponse, int64, pagination.Params, error) {
	params := pagination.New(req.Page, req.PageSize, 25, req.Ordering)

	cols := []string{"books.title", "authors.name"}
	if opts.SearchDescription {
		cols = append(cols, "books.description")
	}
	query := s.db.WithContext(ctx).Model(&model.Book{}).
		Joins("LEFT JOIN authors ON authors.id = books.author_id").
		Scopes(searchScope(req.Search, cols...))

	if req.AuthorID != nil {
		query = query.Where("books.author_id = ?", *req.AuthorID)
	}
	if req.PublicationYear != nil {
		query = query.Where("books.publication_year = ?", *req.PublicationYear)
	}
	if req.PublicationYearGte != nil {
		query = query.Where("books.publication_year >= ?", *req.PublicationYearGte)
	}
	if req.PublicationYearLte != nil {
		query = query.Where("books.publication_year <= ?", *req.PublicationYearLte)
	}
	if req.IsAvailable != nil {
		query = query.Where("books.is_available = ?", *req.IsAvailable)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, params, err
	}

	var books []model.Book
	err := query.Select("books.*").
		Preload("Author").
		Order(params.OrderClause(bookOrdering, "title")).
		Order("books.id ASC").
		Scopes(paginate(params)).
		Find(&books).Error
	if err != nil {
		return nil, 0, params, err
	}
	return toBookResponses(books), total, params, nil
}

// Get 图书详情
func (s *BookService) Get(ctx context.Context, id uint) (*dto.BookResponse, error) {
	book, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toBookResponse(book)
	return &resp, nil
}

func (s *BookService) find(ctx context.Context, id uint) (*model.Book, error) {
	var book model.Book
	if err := s.db.WithContext(ctx).Preload("Author").First(&book, id).Error; err != nil {
		return nil, wrapDB(err, "图书不存在")
	}
	return &book, nil
}

func (s *BookService) validate(ctx context.Context, year int, authorID uint) error {
	if year > time.Now().Year() {
		return fieldError("publication_year", "出版年份不能晚于今年")
	}
	var cnt int64
	if err := s.db.WithContext(ctx).Model(&model.Author{}).Where("id = ?", authorID).Count(&cnt).Error; err != nil {
		return err
	}
	if cnt == 0 {
		return fieldError("author_id", "作者不存在")
	}
	return nil
}

// Create 创建图书，创建者取当前用户
func (s *BookService) Create(ctx context.Context, userID uint, req *dto.BookCreateRequest) (*dto.BookResponse, error) {
	if err := s.validate(ctx, req.PublicationYear, req.AuthorID); err != nil {
		return nil, err
	}
	book := model.Book{
		Title:           sanitize.Text(req.Title, 200),
		PublicationYear: req.PublicationYear,
		ISBN:            strings.TrimSpace(req.ISBN),
		IsAvailable:     req.IsAvailable == nil || *req.IsAvailable,
		Description:     sanitize.Text(req.Description, 5000),
		AuthorID:        req.AuthorID,
	}
	if userID != 0 {
		book.CreatedByID = &userID
	}
	if err := s.db.WithContext(ctx).Create(&book).Error; err != nil {
		return nil, err
	}
	return s.Get(ctx, book.ID)
}

// Update 整体更新图书
func (s *BookService) Update(ctx context.Context, id uint, req *dto.BookCreateRequest) (*dto.BookResponse, error) {
	book, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.validate(ctx, req.PublicationYear, req.AuthorID); err != nil {
		return nil, err
	}
	updates := map[string]interface{}{
		"title":            sanitize.Text(req.Title, 200),
		"publication_year": req.PublicationYear,
		"isbn":             strings.TrimSpace(req.ISBN),
		"is_available":     req.IsAvailable == nil || *req.IsAvailable,
		"description":      sanitize.Text(req.Description, 5000),
		"author_id":        req.AuthorID,
	}
	if err := s.db.WithContext(ctx).Model(book).Updates(updates).Error; err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// Patch 部分更新图书
func (s *BookService) Patch(ctx context.Context, id uint, req *dto.BookPatchRequest) (*dto.BookResponse, error) {
	book, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	year, authorID := book.PublicationYear, book.AuthorID
	updates := map[string]interface{}{}
	if req.Title != nil {
		updates["title"] = sanitize.Text(*req.Title, 200)
	}
	if req.PublicationYear != nil {
		year = *req.PublicationYear
		updates["publication_year"] = year
	}
	if req.ISBN != nil {
		updates["isbn"] = strings.TrimSpace(*req.ISBN)
	}
	if req.IsAvailable != nil {
		updates["is_available"] = *req.IsAvailable
	}
	if req.Description != nil {
		updates["description"] = sanitize.Text(*req.Description, 5000)
	}
	if req.AuthorID != nil {
		authorID = *req.AuthorID
		updates["author_id"] = authorID
	}
	if len(updates) == 0 {
		resp := toBookResponse(book)
		return &resp, nil
	}
	if err := s.validate(ctx, year, authorID); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(book).Updates(updates).Error; err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// Delete 删除图书
func (s *BookService) Delete(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cnt int64
		if err := tx.Model(&model.Book{}).Where("id = ?", id).Count(&cnt).Error; err != nil {
			return err
		}
		if cnt == 0 {
			return notFound("图书不存在")
		}
		return deleteBooksTx(tx, []uint{id})
	})
}

// Dashboard 书架面板
func (s *BookService) Dashboard(ctx context.Context, user *model.User) (*dto.BookshelfDashboardResponse, error) {
	var resp dto.BookshelfDashboardResponse
	var err error
	if resp.CanCreate, err = s.permissions.HasPermission(ctx, user, model.PermCanCreate); err != nil {
		return nil, err
	}
	if resp.CanDelete, err = s.permissions.HasPermission(ctx, user, model.PermCanDelete); err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)
	if err := db.Model(&model.Book{}).Count(&resp.TotalBooks).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&model.Book{}).Where("is_available = ?", true).Count(&resp.AvailableBooks).Error; err != nil {
		return nil, err
	}
	return &resp, nil
}
