package controller

import (
	"github.com/gin-gonic/gin"
	"github.com/nsxzhou1114/folio-api/internal/dto"
	"github.com/nsxzhou1114/folio-api/internal/service"
	"github.com/nsxzhou1114/folio-api/pkg/response"
	"go.uber.org/zap"
)

// BookApi 图书API控制器，不同路由组共用，权限由路由中间件控制
type BookApi struct {
	logger *zap.SugaredLogger
	books  *service.BookService
	opts   service.BookListOptions
}

// NewBookApi 创建图书API控制器
func NewBookApi(svcs *service.Services, opts service.BookListOptions, logger *zap.SugaredLogger) *BookApi {
	return &BookApi{logger: logger, books: svcs.Books, opts: opts}
}

// List 图书列表
func (api *BookApi) List(c *gin.Context) {
	var req dto.BookListRequest
	if !bindQuery(c, &req) {
		return
	}
	list, total, params, err := api.books.List(c.Request.Context(), &req, api.opts)
	if err != nil {
		handleError(c, api.logger, "获取图书列表", err)
		return
	}
	response.SuccessPage(c, "获取成功", dto.BookListResponse{Total: total, List: list}, params, total)
}

// Get 图书详情
func (api *BookApi) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	book, err := api.books.Get(c.Request.Context(), id)
	if err != nil {
		handleError(c, api.logger, "获取图书", err)
		return
	}
	response.Success(c, "获取成功", book)
}

// Create 创建图书
func (api *BookApi) Create(c *gin.Context) {
	var req dto.BookCreateRequest
	if !bindJSON(c, &req) {
		return
	}
	book, err := api.books.Create(c.Request.Context(), currentUser(c).ID, &req)
	if err != nil {
		handleError(c, api.logger, "创建图书", err)
		return
	}
	response.Created(c, "创建成功", book)
}

// Update 整体更新图书
func (api *BookApi) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.BookCreateRequest
	if !bindJSON(c, &req) {
		return
	}
	book, err := api.books.Update(c.Request.Context(), id, &req)
	if err != nil {
		handleError(c, api.logger, "更新图书", err)
		return
	}
	response.Success(c, "更新成功", book)
}

// Patch 部分更新图书
func (api *BookApi) Patch(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.BookPatchRequest
	if !bindJSON(c, &req) {
		return
	}
	book, err := api.books.Patch(c.Request.Context(), id, &req)
	if err != nil {
		handleError(c, api.logger, "更新图书", err)
		return
	}
	response.Success(c, "更新成功", book)
}

// Delete 删除图书
func (api *BookApi) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := api.books.Delete(c.Request.Context(), id); err != nil {
		handleError(c, api.logger, "删除图书", err)
		return
	}
	response.Success(c, "删除成功", nil)
}

// Dashboard 书架面板
func (api *BookApi) Dashboard(c *gin.Context) {
	resp, err := api.books.Dashboard(c.Request.Context(), currentUser(c))
	if err != nil {
		handleError(c, api.logger, "获取书架面板", err)
		return
	}
	response.Success(c, "获取成功", resp)
}

// AuthorApi 作者API控制器
type AuthorApi struct {
	logger  *zap.SugaredLogger
	authors *service.AuthorService
}

// NewAuthorApi 创建作者API控制器
func NewAuthorApi(svcs *service.Services, logger *zap.SugaredLogger) *AuthorApi {
	return &AuthorApi{logger: logger, authors: svcs.Authors}
}

// List 作者列表
func (api *AuthorApi) List(c *gin.Context) {
	var req dto.PageRequest
	if !bindQuery(c, &req) {
		return
	}
	list, total, params, err := api.authors.List(c.Request.Context(), &req)
	if err != nil {
		handleError(c, api.logger, "获取作者列表", err)
		return
	}
	response.SuccessPage(c, "获取成功", dto.AuthorListResponse{Total: total, List: list}, params, total)
}

// Get 作者详情
func (api *AuthorApi) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	author, err := api.authors.Get(c.Request.Context(), id)
	if err != nil {
		handleError(c, api.logger, "获取作者", err)
		return
	}
	response.Success(c, "获取成功", author)
}

// Create 创建作者
func (api *AuthorApi) Create(c *gin.Context) {
	var req dto.AuthorRequest
	if !bindJSON(c, &req) {
		return
	}
	author, err := api.authors.Create(c.Request.Context(), &req)
	if err != nil {
		handleError(c, api.logger, "创建作者", err)
		return
	}
	response.Created(c, "创建成功", author)
}

// Update 更新作者
func (api *AuthorApi) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.AuthorRequest
	if !bindJSON(c, &req) {
		return
	}
	author, err := api.authors.Update(c.Request.Context(), id, &req)
	if err != nil {
		handleError(c, api.logger, "更新作者", err)
		return
	}
	response.Success(c, "更新成功", author)
}

// Delete 删除作者及其图书
func (api *AuthorApi) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := api.authors.Delete(c.Request.Context(), id); err != nil {
		handleError(c, api.logger, "删除作者", err)
		return
	}
	response.Success(c, "删除成功", nil)
}

// LibraryApi 图书馆API控制器
type LibraryApi struct {
	logger    *zap.SugaredLogger
	libraries *service.LibraryService
}

// NewLibraryApi 创建图书馆API控制器
func NewLibraryApi(svcs *service.Services, logger *zap.SugaredLogger) *LibraryApi {
	return &LibraryApi{logger: logger, libraries: svcs.Libraries}
}

// List 图书馆列表
func (api *LibraryApi) List(c *gin.Context) {
	var req dto.PageRequest
	if !bindQuery(c, &req) {
		return
	}
	list, total, params, err := api.libraries.List(c.Request.Context(), &req)
	if err != nil {
		handleError(c, api.logger, "获取图书馆列表", err)
		return
	}
	response.SuccessPage(c, "获取成功", dto.LibraryListResponse{Total: total, List: list}, params, total)
}

// Get 图书馆详情
func (api *LibraryApi) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	library, err := api.libraries.Get(c.Request.Context(), id)
	if err != nil {
		handleError(c, api.logger, "获取图书馆", err)
		return
	}
	response.Success(c, "获取成功", library)
}

// Create 创建图书馆
func (api *LibraryApi) Create(c *gin.Context) {
	var req dto.LibraryRequest
	if !bindJSON(c, &req) {
		return
	}
	library, err := api.libraries.Create(c.Request.Context(), &req)
	if err != nil {
		handleError(c, api.logger, "创建图书馆", err)
		return
	}
	response.Created(c, "创建成功", library)
}

// Update 更新图书馆
func (api *LibraryApi) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.LibraryRequest
	if !bindJSON(c, &req) {
		return
	}
	library, err := api.libraries.Update(c.Request.Context(), id, &req)
	if err != nil {
		handleError(c, api.logger, "更新图书馆", err)
		return
	}
	response.Success(c, "更新成功", library)
}

// Delete 删除图书馆
func (api *LibraryApi) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := api.libraries.Delete(c.Request.Context(), id); err != nil {
		handleError(c, api.logger, "删除图书馆", err)
		return
	}
	response.Success(c, "删除成功", nil)
}

// AddBook 加入馆藏
func (api *LibraryApi) AddBook(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	bookID, ok := parseID(c, "bookId")
	if !ok {
		return
	}
	library, err := api.libraries.AddBook(c.Request.Context(), id, bookID)
	if err != nil {
		handleError(c, api.logger, "加入馆藏", err)
		return
	}
	response.Success(c, "已加入馆藏", library)
}

// RemoveBook 移出馆藏
func (api *LibraryApi) RemoveBook(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	bookID, ok := parseID(c, "bookId")
	if !ok {
		return
	}
	library, err := api.libraries.RemoveBook(c.Request.Context(), id, bookID)
	if err != nil {
		handleError(c, api.logger, "移出馆藏", err)
		return
	}
	response.Success(c, "已移出馆藏", library)
}

// SetLibrarian 指定馆员
func (api *LibraryApi) SetLibrarian(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.LibrarianRequest
	if !bindJSON(c, &req) {
		return
	}
	librarian, err := api.libraries.SetLibrarian(c.Request.Context(), id, &req)
	if err != nil {
		handleError(c, api.logger, "指定馆员", err)
		return
	}
	response.Success(c, "指定成功", librarian)
}

// RemoveLibrarian 移除馆员
func (api *LibraryApi) RemoveLibrarian(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := api.libraries.RemoveLibrarian(c.Request.Context(), id); err != nil {
		handleError(c, api.logger, "移除馆员", err)
		return
	}
	response.Success(c, "移除成功", nil)
}
