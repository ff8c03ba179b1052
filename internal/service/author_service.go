package service

import (
	"context"
	"strings"

	"github.com/nsxzhou1114/folio-api/internal/dto"
	"github.com/nsxzhou1114/folio-api/internal/model"
	"github.com/nsxzhou1114/folio-api/pkg/pagination"
	"github.com/nsxzhou1114/folio-api/pkg/sanitize"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const authorBooksCount = "(SELECT COUNT(*) FROM books WHERE books.author_id = authors.id) AS books_count"

type authorRow struct {
	model.Author
	BooksCount int64
}

func (r *authorRow) response() dto.AuthorResponse {
	return dto.AuthorResponse{
		ID:         r.ID,
		Name:       r.Name,
		BooksCount: r.BooksCount,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

// AuthorService 作者服务
type AuthorService struct {
	db     *gorm.DB
	logger *zap.SugaredLogger
}

// NewAuthorService 创建作者服务实例
func NewAuthorService(db *gorm.DB, logger *zap.SugaredLogger) *AuthorService {
	return &AuthorService{db: db, logger: logger}
}

// List 作者列表
func (s *AuthorService) List(ctx context.Context, req *dto.PageRequest) ([]dto.AuthorResponse, int64, pagination.Params, error) {
	params := pagination.New(req.Page, req.PageSize, 25, req.Ordering)
	query := s.db.WithContext(ctx).Model(&model.Author{}).Scopes(searchScope(req.Search, "authors.name"))

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, params, err
	}

	var rows []authorRow
	order := params.OrderClause(map[string]string{
		"name":       "authors.name",
		"created_at": "authors.created_at",
	}, "name")
	err := query.Select("authors.*, " + authorBooksCount).
		Order(order).
		Scopes(paginate(params)).
		Scan(&rows).Error
	if err != nil {
		return nil, 0, params, err
	}

	list := make([]dto.AuthorResponse, 0, len(rows))
	for i := range rows {
		list = append(list, rows[i].response())
	}
	return list, total, params, nil
}

// Get 作者详情，包含其图书
func (s *AuthorService) Get(ctx context.Context, id uint) (*dto.AuthorDetailResponse, error) {
	var author model.Author
	err := s.db.WithContext(ctx).
		Preload("Books", func(db *gorm.DB) *gorm.DB { return db.Order("title ASC") }).
		First(&author, id).Error
	if err != nil {
		return nil, wrapDB(err, "作者不存在")
	}
	for i := range author.Books {
		author.Books[i].Author = model.Author{Base: author.Base, Name: author.Name}
	}
	row := authorRow{Author: author, BooksCount: int64(len(author.Books))}
	return &dto.AuthorDetailResponse{
		AuthorResponse: row.response(),
		Books:          toBookResponses(author.Books),
	}, nil
}

// Create 创建作者
func (s *AuthorService) Create(ctx context.Context, req *dto.AuthorRequest) (*dto.AuthorResponse, error) {
	name := sanitize.Name(req.Name)
	if name == "" {
		return nil, fieldError("name", "作者姓名不能为空")
	}
	author := model.Author{Name: name}
	if err := s.db.WithContext(ctx).Create(&author).Error; err != nil {
		return nil, err
	}
	row := authorRow{Author: author}
	resp := row.response()
	return &resp, nil
}

// Update 更新作者
func (s *AuthorService) Update(ctx context.Context, id uint, req *dto.AuthorRequest) (*dto.AuthorResponse, error) {
	name := sanitize.Name(req.Name)
	if name == "" {
		return nil, fieldError("name", "作者姓名不能为空")
	}
	var author model.Author
	db := s.db.WithContext(ctx)
	if err := db.First(&author, id).Error; err != nil {
		return nil, wrapDB(err, "作者不存在")
	}
	if err := db.Model(&author).Update("name", name).Error; err != nil {
		return nil, err
	}

	row := authorRow{Author: author}
	if err := db.Model(&model.Book{}).Where("author_id = ?", id).Count(&row.BooksCount).Error; err != nil {
		return nil, err
	}
	resp := row.response()
	return &resp, nil
}

// Delete 删除作者及其全部图书
func (s *AuthorService) Delete(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var author model.Author
		if err := tx.First(&author, id).Error; err != nil {
			return wrapDB(err, "作者不存在")
		}
		var bookIDs []uint
		if err := tx.Model(&model.Book{}).Where("author_id = ?", id).Pluck("id", &bookIDs).Error; err != nil {
			return err
		}
		if err := deleteBooksTx(tx, bookIDs); err != nil {
			return err
		}
		if err := tx.Delete(&author).Error; err != nil {
			return err
		}
		s.logger.Infof("删除作者 %s 及其 %d 本图书", author.Name, len(bookIDs))
		return nil
	})
}

// FindOrCreate 按姓名查找作者，不存在时创建
func (s *AuthorService) FindOrCreate(ctx context.Context, name string) (*model.Author, error) {
	name = strings.TrimSpace(name)
	var author model.Author
	err := s.db.WithContext(ctx).Where(model.Author{Name: name}).FirstOrCreate(&author).Error
	if err != nil {
		return nil, err
	}
	return &author, nil
}
