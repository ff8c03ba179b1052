package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nsxzhou1114/folio-api/internal/config"
	"github.com/nsxzhou1114/folio-api/internal/database"
	"github.com/nsxzhou1114/folio-api/internal/logger"
	"github.com/nsxzhou1114/folio-api/internal/model"
	"github.com/nsxzhou1114/folio-api/internal/service"
	"github.com/nsxzhou1114/folio-api/pkg/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type testServer struct {
	t      *testing.T
	engine *gin.Engine
	db     *gorm.DB
	svcs   *service.Services
	cfg    *config.Config
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Meta    json.RawMessage `json:"meta"`
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "folio.db")), database.GormConfig("silent"))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, model.InitTables(db))

	cfg := config.Default()
	svcs := service.New(db, service.Options{
		Logger:     logger.Nop(),
		Moderation: config.ModerationConfig{Words: []string{"spam"}},
	})
	tokens := auth.NewManager("test-secret", "folio-test", time.Hour, auth.NewTokenBlacklist(0))
	engine := New(Deps{DB: db, Services: svcs, Tokens: tokens, Config: cfg, Logger: logger.Nop()})
	return &testServer{t: t, engine: engine, db: db, svcs: svcs, cfg: cfg}
}

// do 发送请求，headers 为 key, value 交替
func (s *testServer) do(method, path string, body interface{}, headers ...string) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, data interface{}) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	if data != nil {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env
}

func (s *testServer) count(m interface{}) int64 {
	s.t.Helper()
	var n int64
	require.NoError(s.t, s.db.Model(m).Count(&n).Error)
	return n
}

type registered struct {
	ID     uint
	Token  string
	Header []string
}

func (s *testServer) register(username string) registered {
	s.t.Helper()
	w := s.do(http.MethodPost, "/api/accounts/register", gin.H{
		"username": username,
		"email":    username + "@example.com",
		"password": "password123",
	})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	var data struct {
		Token string `json:"token"`
		User  struct {
			ID uint `json:"id"`
		} `json:"user"`
	}
	decode(s.t, w, &data)
	return registered{ID: data.User.ID, Token: data.Token, Header: []string{"Authorization", "Token " + data.Token}}
}

func (s *testServer) createPost(author registered, title string) uint {
	s.t.Helper()
	w := s.do(http.MethodPost, "/api/posts", gin.H{"title": title, "content": "some content", "tags": "go"}, author.Header...)
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	var post struct {
		ID uint `json:"id"`
	}
	decode(s.t, w, &post)
	return post.ID
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)
	w := s.do(http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = s.do(http.MethodGet, "/healthz", nil, "X-Request-ID", "abc-123")
	assert.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))
}

func TestUnauthenticatedWritesAreForbidden(t *testing.T) {
	s := newTestServer(t)
	cases := []struct {
		method, path string
		body         gin.H
	}{
		{http.MethodPost, "/api/books", gin.H{"title": "x", "publication_year": 2000, "author_id": 1}},
		{http.MethodPost, "/api/authors", gin.H{"name": "x"}},
		{http.MethodPost, "/api/posts", gin.H{"title": "x", "content": "y"}},
		{http.MethodDelete, "/api/posts/1", nil},
		{http.MethodPost, "/api/posts/1/like", nil},
		{http.MethodPost, "/api/follow/1", nil},
	}
	for _, tc := range cases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			w := s.do(tc.method, tc.path, tc.body)
			assert.Equal(t, http.StatusForbidden, w.Code)
			env := decode(t, w, nil)
			assert.Equal(t, "请先登录", env.Message)
		})
	}
	assert.Zero(t, s.count(&model.Book{}))
	assert.Zero(t, s.count(&model.Author{}))
	assert.Zero(t, s.count(&model.Post{}))
}

func TestInvalidCredentialsAreUnauthorized(t *testing.T) {
	s := newTestServer(t)
	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/api/accounts/profile", nil, "Authorization", "Token nope").Code)
	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/api/accounts/profile", nil, "Authorization", "Bearer garbage").Code)
	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/api/accounts/profile", nil, "Authorization", "Basic abc").Code)

	// 可选认证的路由按匿名处理
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/posts", nil, "Authorization", "Token nope").Code)
}

func TestCatalogCreateReturnsPersistedRepresentation(t *testing.T) {
	s := newTestServer(t)
	alice := s.register("alice")

	w := s.do(http.MethodPost, "/api/authors", gin.H{"name": "George Orwell"}, alice.Header...)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var author struct {
		ID   uint   `json:"id"`
		Name string `json:"name"`
	}
	decode(t, w, &author)
	assert.Equal(t, "George Orwell", author.Name)

	w = s.do(http.MethodPost, "/api/books", gin.H{
		"title":            "Animal Farm",
		"publication_year": 1945,
		"author_id":        author.ID,
		"created_by_id":    999,
	}, alice.Header...)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var book struct {
		ID          uint   `json:"id"`
		AuthorName  string `json:"author_name"`
		CreatedByID *uint  `json:"created_by_id"`
		IsAvailable bool   `json:"is_available"`
	}
	decode(t, w, &book)
	assert.Equal(t, "George Orwell", book.AuthorName)
	require.NotNil(t, book.CreatedByID)
	assert.Equal(t, alice.ID, *book.CreatedByID)
	assert.True(t, book.IsAvailable)
	assert.Equal(t, int64(1), s.count(&model.Book{}))

	w = s.do(http.MethodPost, "/api/books", gin.H{
		"title":            "Future",
		"publication_year": time.Now().Year() + 1,
		"author_id":        author.ID,
	}, alice.Header...)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	var errs struct {
		Errors map[string]string `json:"errors"`
	}
	decode(t, w, &errs)
	assert.Contains(t, errs.Errors, "publication_year")

	w = s.do(http.MethodGet, "/api/books?search=animal&page_size=5", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Total int64 `json:"total"`
	}
	env := decode(t, w, &list)
	assert.Equal(t, int64(1), list.Total)
	assert.Contains(t, string(env.Meta), `"total_pages":1`)

	w = s.do(http.MethodGet, fmt.Sprintf("/api/books/%d", book.ID+100), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRegisterValidation(t *testing.T) {
	s := newTestServer(t)
	w := s.do(http.MethodPost, "/api/accounts/register", gin.H{
		"username": "bad name!",
		"email":    "not-an-email",
		"password": "short",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	var data struct {
		Errors map[string]string `json:"errors"`
	}
	decode(t, w, &data)
	assert.Contains(t, data.Errors, "username")
	assert.Contains(t, data.Errors, "email")
	assert.Contains(t, data.Errors, "password")

	s.register("alice")
	w = s.do(http.MethodPost, "/api/accounts/register", gin.H{
		"username": "alice",
		"email":    "another@example.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	decode(t, w, &data)
	assert.Contains(t, data.Errors, "username")
	assert.Equal(t, int64(1), s.count(&model.User{}))
}

func TestLikeTwiceIsRejected(t *testing.T) {
	s := newTestServer(t)
	alice := s.register("alice")
	bob := s.register("bob")
	postID := s.createPost(alice, "Hello")

	path := fmt.Sprintf("/api/posts/%d/like", postID)
	assert.Equal(t, http.StatusOK, s.do(http.MethodPost, path, nil, bob.Header...).Code)
	w := s.do(http.MethodPost, path, nil, bob.Header...)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "已经点赞过该文章", decode(t, w, nil).Message)
	assert.Equal(t, int64(1), s.count(&model.PostLike{}))

	assert.Equal(t, http.StatusOK, s.do(http.MethodPost, fmt.Sprintf("/api/posts/%d/unlike", postID), nil, bob.Header...).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, fmt.Sprintf("/api/posts/%d/unlike", postID), nil, bob.Header...).Code)
}

func TestDeletePostRemovesCommentsAndLikes(t *testing.T) {
	s := newTestServer(t)
	alice := s.register("alice")
	bob := s.register("bob")
	postID := s.createPost(alice, "Doomed")

	w := s.do(http.MethodPost, fmt.Sprintf("/api/posts/%d/comments", postID), gin.H{"content": "nice"}, bob.Header...)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.Equal(t, http.StatusOK, s.do(http.MethodPost, fmt.Sprintf("/api/posts/%d/like", postID), nil, bob.Header...).Code)

	assert.Equal(t, http.StatusForbidden, s.do(http.MethodDelete, fmt.Sprintf("/api/posts/%d", postID), nil, bob.Header...).Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodDelete, fmt.Sprintf("/api/posts/%d", postID), nil, alice.Header...).Code)
	assert.Zero(t, s.count(&model.Post{}))
	assert.Zero(t, s.count(&model.Comment{}))
	assert.Zero(t, s.count(&model.PostLike{}))
}

func TestFollowUnfollowOverHTTP(t *testing.T) {
	s := newTestServer(t)
	alice := s.register("alice")
	bob := s.register("bob")

	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, fmt.Sprintf("/api/follow/%d", alice.ID), nil, alice.Header...).Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodPost, fmt.Sprintf("/api/follow/%d", bob.ID), nil, alice.Header...).Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodPost, fmt.Sprintf("/api/follow/%d", bob.ID), nil, alice.Header...).Code)
	assert.Equal(t, int64(1), s.count(&model.UserFollow{}))

	w := s.do(http.MethodGet, "/api/notifications", nil, bob.Header...)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Total int64 `json:"total"`
		List  []struct {
			Verb string `json:"verb"`
		} `json:"list"`
	}
	decode(t, w, &list)
	require.Equal(t, int64(1), list.Total)
	assert.Equal(t, model.VerbFollow, list.List[0].Verb)

	var unread struct {
		UnreadCount int64 `json:"unread_count"`
	}
	decode(t, s.do(http.MethodGet, "/api/notifications/unread-count", nil, bob.Header...), &unread)
	assert.Zero(t, unread.UnreadCount)

	assert.Equal(t, http.StatusOK, s.do(http.MethodPost, fmt.Sprintf("/api/unfollow/%d", bob.ID), nil, alice.Header...).Code)
	assert.Zero(t, s.count(&model.UserFollow{}))
}

func TestStaffRoleAndPermissionGuards(t *testing.T) {
	s := newTestServer(t)
	alice := s.register("alice")

	assert.Equal(t, http.StatusForbidden, s.do(http.MethodPost, "/api/libraries", gin.H{"name": "Central"}, alice.Header...).Code)
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, "/api/admin/users", nil, alice.Header...).Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/roles/member", nil, alice.Header...).Code)
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, "/api/roles/admin", nil, alice.Header...).Code)

	author, err := s.svcs.Authors.FindOrCreate(context.Background(), "Jane Austen")
	require.NoError(t, err)
	book := gin.H{"title": "Emma", "publication_year": 1815, "author_id": author.ID}
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodPost, "/api/bookshelf/books", book, alice.Header...).Code)
	require.NoError(t, s.svcs.Permissions.Grant(context.Background(), alice.ID, model.PermCanCreate))
	assert.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/api/bookshelf/books", book, alice.Header...).Code)

	var dash struct {
		CanCreate  bool  `json:"can_create"`
		CanDelete  bool  `json:"can_delete"`
		TotalBooks int64 `json:"total_books"`
	}
	decode(t, s.do(http.MethodGet, "/api/bookshelf/dashboard", nil, alice.Header...), &dash)
	assert.True(t, dash.CanCreate)
	assert.False(t, dash.CanDelete)
	assert.Equal(t, int64(1), dash.TotalBooks)

	require.NoError(t, s.svcs.Permissions.SetStaff(context.Background(), alice.ID, true))
	assert.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/api/libraries", gin.H{"name": "Central"}, alice.Header...).Code)
	w := s.do(http.MethodPut, fmt.Sprintf("/api/admin/users/%d/role", alice.ID), gin.H{"role": "Admin"}, alice.Header...)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/roles/admin", nil, alice.Header...).Code)
}

func TestSessionCookieAndLogout(t *testing.T) {
	s := newTestServer(t)
	s.register("alice")

	w := s.do(http.MethodPost, "/api/accounts/login", gin.H{"username": "alice", "password": "wrong-password"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "用户名或密码错误", decode(t, w, nil).Message)

	w = s.do(http.MethodPost, "/api/accounts/login", gin.H{"username": "alice", "password": "password123"})
	require.Equal(t, http.StatusOK, w.Code)
	var session string
	for _, c := range w.Result().Cookies() {
		if c.Name == s.cfg.JWT.CookieName {
			session = c.Value
		}
	}
	require.NotEmpty(t, session)

	cookie := fmt.Sprintf("%s=%s", s.cfg.JWT.CookieName, session)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/accounts/profile", nil, "Cookie", cookie).Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/accounts/profile", nil, "Authorization", "Bearer "+session).Code)

	assert.Equal(t, http.StatusOK, s.do(http.MethodPost, "/api/accounts/logout", nil, "Authorization", "Bearer "+session).Code)
	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/api/accounts/profile", nil, "Authorization", "Bearer "+session).Code)
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, "/api/accounts/profile", nil, "Cookie", cookie).Code)
}

func TestPostSearchValidation(t *testing.T) {
	s := newTestServer(t)
	alice := s.register("alice")
	s.createPost(alice, "Learning Go")
	s.createPost(alice, "Cooking")

	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/api/posts/search?q=a", nil).Code)

	w := s.do(http.MethodGet, "/api/posts/search?q=LEARN", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Total int64 `json:"total"`
		List  []struct {
			Title string `json:"title"`
		} `json:"list"`
	}
	decode(t, w, &list)
	require.Equal(t, int64(1), list.Total)
	assert.Equal(t, "Learning Go", list.List[0].Title)
}
