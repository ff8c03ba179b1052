package service

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/nsxzhou1114/folio-api/internal/config"
	"github.com/nsxzhou1114/folio-api/internal/database"
	"github.com/nsxzhou1114/folio-api/internal/dto"
	"github.com/nsxzhou1114/folio-api/internal/model"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "folio.db")), database.GormConfig("silent"))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, model.InitTables(db))
	return db
}

func newTestServices(t *testing.T) (*Services, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	svcs := New(db, Options{
		Moderation: config.ModerationConfig{Words: []string{"spam", "scam"}},
	})
	return svcs, db
}

func mustUser(t *testing.T, svcs *Services, username string) *model.User {
	t.Helper()
	user, key, err := svcs.Users.Create(context.Background(), NewUser{
		Username: username,
		Email:    fmt.Sprintf("%s@example.com", username),
		Password: "password123",
	})
	require.NoError(t, err)
	require.Len(t, key, 40)
	loaded, err := svcs.Users.GetByID(context.Background(), user.ID)
	require.NoError(t, err)
	return loaded
}

func mustStaff(t *testing.T, svcs *Services, username string) *model.User {
	t.Helper()
	u := mustUser(t, svcs, username)
	require.NoError(t, svcs.Permissions.SetStaff(context.Background(), u.ID, true))
	u.IsStaff = true
	return u
}

func mustPost(t *testing.T, svcs *Services, author *model.User, title, content, tags string) *dto.PostDetailResponse {
	t.Helper()
	post, err := svcs.Posts.Create(context.Background(), author, &dto.PostCreateRequest{
		Title:   title,
		Content: content,
		Tags:    tags,
	})
	require.NoError(t, err)
	return post
}

func loadPost(t *testing.T, svcs *Services, viewer *model.User, id uint) *model.Post {
	t.Helper()
	post, err := svcs.Posts.Visible(context.Background(), viewer, id)
	require.NoError(t, err)
	return post
}

func count(t *testing.T, db *gorm.DB, m interface{}, where string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	q := db.Model(m)
	if where != "" {
		q = q.Where(where, args...)
	}
	require.NoError(t, q.Count(&n).Error)
	return n
}
