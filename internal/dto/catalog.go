package dto

import "time"

// AuthorRequest 创建/更新作者请求
type AuthorRequest struct {
	Name string `json:"name" binding:"required,min=1,max=100"`
}

// AuthorResponse 作者响应
type AuthorResponse struct {
	ID         uint      `json:"id"`
	Name       string    `json:"name"`
	BooksCount int64     `json:"books_count"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// AuthorDetailResponse 作者详情，包含其图书
type AuthorDetailResponse struct {
	AuthorResponse
	Books []BookResponse `json:"books"`
}

// AuthorListResponse 作者列表响应
type AuthorListResponse struct {
	Total int64            `json:"total"`
	List  []AuthorResponse `json:"list"`
}

// BookCreateRequest 创建/整体更新图书请求
type BookCreateRequest struct {
	Title           string `json:"title" binding:"required,min=1,max=200"`
	PublicationYear int    `json:"publication_year" binding:"required,min=1"`
	ISBN            string `json:"isbn" binding:"omitempty,max=13,numeric"`
	IsAvailable     *bool  `json:"is_available"`
	Description     string `json:"description" binding:"omitempty,max=5000"`
	AuthorID        uint   `json:"author_id" binding:"required"`
}

// BookPatchRequest 部分更新图书请求
type BookPatchRequest struct {
	Title           *string `json:"title" binding:"omitempty,min=1,max=200"`
	PublicationYear *int    `json:"publication_year" binding:"omitempty,min=1"`
	ISBN            *string `json:"isbn" binding:"omitempty,max=13,numeric"`
	IsAvailable     *bool   `json:"is_available"`
	Description     *string `json:"description" binding:"omitempty,max=5000"`
	AuthorID        *uint   `json:"author_id" binding:"omitempty,min=1"`
}

// BookListRequest 图书列表请求
type BookListRequest struct {
	PageRequest
	AuthorID           *uint `form:"author"`
	PublicationYear    *int  `form:"publication_year"`
	PublicationYearGte *int  `form:"publication_year__gte"`
	PublicationYearLte *int  `form:"publication_year__lte"`
	IsAvailable        *bool `form:"is_available"`
}

// BookResponse 图书响应
type BookResponse struct {
	ID              uint      `json:"id"`
	Title           string    `json:"title"`
	PublicationYear int       `json:"publication_year"`
	ISBN            string    `json:"isbn"`
	IsAvailable     bool      `json:"is_available"`
	Description     string    `json:"description"`
	AuthorID        uint      `json:"author_id"`
	AuthorName      string    `json:"author_name"`
	CreatedByID     *uint     `json:"created_by_id"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// BookListResponse 图书列表响应
type BookListResponse struct {
	Total int64          `json:"total"`
	List  []BookResponse `json:"list"`
}

// BookshelfDashboardResponse 书架面板
type BookshelfDashboardResponse struct {
	CanCreate      bool  `json:"can_create"`
	CanDelete      bool  `json:"can_delete"`
	TotalBooks     int64 `json:"total_books"`
	AvailableBooks int64 `json:"available_books"`
}

// LibraryRequest 创建/更新图书馆请求
type LibraryRequest struct {
	Name string `json:"name" binding:"required,min=1,max=100"`
}

// LibrarianRequest 指定馆员请求
type LibrarianRequest struct {
	Name string `json:"name" binding:"required,min=1,max=100"`
}

// LibrarianResponse 馆员响应
type LibrarianResponse struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	LibraryID uint   `json:"library_id"`
}

// LibraryResponse 图书馆响应
type LibraryResponse struct {
	ID         uint               `json:"id"`
	Name       string             `json:"name"`
	BooksCount int64              `json:"books_count"`
	Librarian  *LibrarianResponse `json:"librarian"`
	CreatedAt  time.Time          `json:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at"`
}

// LibraryDetailResponse 图书馆详情，包含馆藏及作者
type LibraryDetailResponse struct {
	LibraryResponse
	Books []BookResponse `json:"books"`
}

// LibraryListResponse 图书馆列表响应
type LibraryListResponse struct {
	Total int64             `json:"total"`
	List  []LibraryResponse `json:"list"`
}

// RoleDashboardResponse 角色面板
type RoleDashboardResponse struct {
	Role    string           `json:"role"`
	Message string           `json:"message"`
	Stats   map[string]int64 `json:"stats"`
}
