package service

import (
	"context"

	"github.com/nsxzhou1114/folio-api/internal/dto"
	"github.com/nsxzhou1114/folio-api/internal/model"
	"github.com/nsxzhou1114/folio-api/pkg/pagination"
	"github.com/nsxzhou1114/folio-api/pkg/sanitize"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const libraryBooksCount = "(SELECT COUNT(*) FROM library_books WHERE library_books.library_id = libraries.id) AS books_count"

type libraryRow struct {
	model.Library
	BooksCount int64
}

func (r *libraryRow) response() dto.LibraryResponse {
	return dto.LibraryResponse{
		ID:         r.ID,
		Name:       r.Name,
		BooksCount: r.BooksCount,
		Librarian:  toLibrarianResponse(r.Librarian),
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

// LibraryService 图书馆服务
type LibraryService struct {
	db     *gorm.DB
	logger *zap.SugaredLogger
}

// NewLibraryService 创建图书馆服务实例
func NewLibraryService(db *gorm.DB, logger *zap.SugaredLogger) *LibraryService {
	return &LibraryService{db: db, logger: logger}
}

// List 图书馆列表
func (s *LibraryService) List(ctx context.Context, req *dto.PageRequest) ([]dto.LibraryResponse, int64, pagination.Params, error) {
	params := pagination.New(req.Page, req.PageSize, 25, req.Ordering)
	query := s.db.WithContext(ctx).Model(&model.Library{}).Scopes(searchScope(req.Search, "libraries.name"))

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, params, err
	}

	var rows []libraryRow
	order := params.OrderClause(map[string]string{
		"name":       "libraries.name",
		"created_at": "libraries.created_at",
	}, "name")
	err := query.Select("libraries.*, " + libraryBooksCount).
		Order(order).
		Scopes(paginate(params)).
		Scan(&rows).Error
	if err != nil {
		return nil, 0, params, err
	}

	if len(rows) > 0 {
		ids := make([]uint, 0, len(rows))
		for _, r := range rows {
			ids = append(ids, r.ID)
		}
		var librarians []model.Librarian
		if err := s.db.WithContext(ctx).Where("library_id IN ?", ids).Find(&librarians).Error; err != nil {
			return nil, 0, params, err
		}
		byLibrary := make(map[uint]*model.Librarian, len(librarians))
		for i := range librarians {
			byLibrary[librarians[i].LibraryID] = &librarians[i]
		}
		for i := range rows {
			rows[i].Librarian = byLibrary[rows[i].ID]
		}
	}

	list := make([]dto.LibraryResponse, 0, len(rows))
	for i := range rows {
		list = append(list, rows[i].response())
	}
	return list, total, params, nil
}

// Get 图书馆详情，包含馆藏图书及作者、馆员
func (s *LibraryService) Get(ctx context.Context, id uint) (*dto.LibraryDetailResponse, error) {
	var library model.Library
	err := s.db.WithContext(ctx).
		Preload("Books", func(db *gorm.DB) *gorm.DB { return db.Order("books.title ASC") }).
		Preload("Books.Author").
		Preload("Librarian").
		First(&library, id).Error
	if err != nil {
		return nil, wrapDB(err, "图书馆不存在")
	}
	row := libraryRow{Library: library, BooksCount: int64(len(library.Books))}
	return &dto.LibraryDetailResponse{
		LibraryResponse: row.response(),
		Books:           toBookResponses(library.Books),
	}, nil
}

func (s *LibraryService) checkName(db *gorm.DB, name string, excludeID uint) error {
	if name == "" {
		return fieldError("name", "图书馆名称不能为空")
	}
	q := db.Model(&model.Library{}).Where("name = ?", name)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	var cnt int64
	if err := q.Count(&cnt).Error; err != nil {
		return err
	}
	if cnt > 0 {
		return conflict("name", "图书馆名称已存在")
	}
	return nil
}

// Create 创建图书馆
func (s *LibraryService) Create(ctx context.Context, req *dto.LibraryRequest) (*dto.LibraryDetailResponse, error) {
	name := sanitize.Name(req.Name)
	db := s.db.WithContext(ctx)
	if err := s.checkName(db, name, 0); err != nil {
		return nil, err
	}
	library := model.Library{Name: name}
	if err := db.Create(&library).Error; err != nil {
		return nil, wrapUnique(err, "name", "图书馆名称已存在")
	}
	return s.Get(ctx, library.ID)
}

// Update 更新图书馆
func (s *LibraryService) Update(ctx context.Context, id uint, req *dto.LibraryRequest) (*dto.LibraryDetailResponse, error) {
	name := sanitize.Name(req.Name)
	db := s.db.WithContext(ctx)
	var library model.Library
	if err := db.First(&library, id).Error; err != nil {
		return nil, wrapDB(err, "图书馆不存在")
	}
	if err := s.checkName(db, name, id); err != nil {
		return nil, err
	}
	if err := db.Model(&library).Update("name", name).Error; err != nil {
		return nil, wrapUnique(err, "name", "图书馆名称已存在")
	}
	return s.Get(ctx, id)
}

// Delete 删除图书馆及其馆藏关联、馆员
func (s *LibraryService) Delete(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var library model.Library
		if err := tx.First(&library, id).Error; err != nil {
			return wrapDB(err, "图书馆不存在")
		}
		if err := tx.Where("library_id = ?", id).Delete(&model.LibraryBook{}).Error; err != nil {
			return err
		}
		if err := tx.Where("library_id = ?", id).Delete(&model.Librarian{}).Error; err != nil {
			return err
		}
		return tx.Delete(&library).Error
	})
}

func (s *LibraryService) ensure(db *gorm.DB, libraryID, bookID uint) error {
	var cnt int64
	if err := db.Model(&model.Library{}).Where("id = ?", libraryID).Count(&cnt).Error; err != nil {
		return err
	}
	if cnt == 0 {
		return notFound("图书馆不存在")
	}
	if bookID == 0 {
		return nil
	}
	if err := db.Model(&model.Book{}).Where("id = ?", bookID).Count(&cnt).Error; err != nil {
		return err
	}
	if cnt == 0 {
		return notFound("图书不存在")
	}
	return nil
}

// AddBook 将图书加入馆藏，重复加入不报错
func (s *LibraryService) AddBook(ctx context.Context, libraryID, bookID uint) (*dto.LibraryDetailResponse, error) {
	db := s.db.WithContext(ctx)
	if err := s.ensure(db, libraryID, bookID); err != nil {
		return nil, err
	}
	link := model.LibraryBook{LibraryID: libraryID, BookID: bookID}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&link).Error; err != nil {
		return nil, err
	}
	return s.Get(ctx, libraryID)
}

// RemoveBook 将图书移出馆藏
func (s *LibraryService) RemoveBook(ctx context.Context, libraryID, bookID uint) (*dto.LibraryDetailResponse, error) {
	db := s.db.WithContext(ctx)
	if err := s.ensure(db, libraryID, bookID); err != nil {
		return nil, err
	}
	if err := db.Where("library_id = ? AND book_id = ?", libraryID, bookID).Delete(&model.LibraryBook{}).Error; err != nil {
		return nil, err
	}
	return s.Get(ctx, libraryID)
}

// SetLibrarian 指定馆员，已有馆员时更新姓名
func (s *LibraryService) SetLibrarian(ctx context.Context, libraryID uint, req *dto.LibrarianRequest) (*dto.LibrarianResponse, error) {
	name := sanitize.Name(req.Name)
	if name == "" {
		return nil, fieldError("name", "馆员姓名不能为空")
	}
	var librarian model.Librarian
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.ensure(tx, libraryID, 0); err != nil {
			return err
		}
		if err := tx.Where("library_id = ?", libraryID).Limit(1).Find(&librarian).Error; err != nil {
			return err
		}
		if librarian.ID != 0 {
			return tx.Model(&librarian).Update("name", name).Error
		}
		librarian = model.Librarian{Name: name, LibraryID: libraryID}
		return tx.Create(&librarian).Error
	})
	if err != nil {
		return nil, err
	}
	return toLibrarianResponse(&librarian), nil
}

// RemoveLibrarian 移除馆员
func (s *LibraryService) RemoveLibrarian(ctx context.Context, libraryID uint) error {
	db := s.db.WithContext(ctx)
	if err := s.ensure(db, libraryID, 0); err != nil {
		return err
	}
	result := db.Where("library_id = ?", libraryID).Delete(&model.Librarian{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return notFound("该图书馆没有馆员")
	}
	return nil
}
