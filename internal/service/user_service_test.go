package service

import (
	"context"
	"testing"

	"github.com/nsxzhou1114/folio-api/internal/dto"
	"github.com/nsxzhou1114/folio-api/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterCreatesProfileAndToken(t *testing.T) {
	svcs, db := newTestServices(t)
	ctx := context.Background()

	user, key, err := svcs.Users.Register(ctx, &dto.RegisterRequest{
		Username: "alice",
		Email:    " Alice@Example.COM ",
		Password: "password123",
		Bio:      "<script>x</script>hello & welcome",
	})
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.Equal(t, int64(1), count(t, db, &model.Profile{}, "user_id = ?", user.ID))
	assert.Equal(t, int64(1), count(t, db, &model.APIToken{}, "user_id = ?", user.ID))

	byKey, err := svcs.Users.GetByAPIKey(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, user.ID, byKey.ID)
	assert.Equal(t, model.RoleMember, byKey.Profile.Role)
	assert.Equal(t, "hello & welcome", byKey.Profile.Bio)

	_, _, err = svcs.Users.Register(ctx, &dto.RegisterRequest{Username: "alice", Email: "other@example.com", Password: "password123"})
	var svcErr *Error
	require.ErrorAs(t, err, &svcErr)
	assert.ErrorIs(t, err, ErrConflict)
	assert.Contains(t, svcErr.Fields, "username")

	_, _, err = svcs.Users.Register(ctx, &dto.RegisterRequest{Username: "bob", Email: "ALICE@example.com", Password: "password123"})
	require.ErrorAs(t, err, &svcErr)
	assert.Contains(t, svcErr.Fields, "email")

	_, err = svcs.Users.GetByAPIKey(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLogin(t *testing.T) {
	svcs, db := newTestServices(t)
	ctx := context.Background()
	alice := mustUser(t, svcs, "alice")

	_, _, err := svcs.Users.Login(ctx, &dto.LoginRequest{Username: "alice", Password: "wrong-password"})
	assert.ErrorIs(t, err, ErrInvalid)
	_, _, err = svcs.Users.Login(ctx, &dto.LoginRequest{Username: "nobody", Password: "password123"})
	assert.ErrorIs(t, err, ErrInvalid)

	user, key, err := svcs.Users.Login(ctx, &dto.LoginRequest{Username: "alice", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, alice.ID, user.ID)
	assert.NotNil(t, user.LastLoginAt)
	_, again, err := svcs.Users.Login(ctx, &dto.LoginRequest{Username: "alice", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, key, again)

	require.NoError(t, db.Model(&model.User{}).Where("id = ?", alice.ID).Update("is_active", false).Error)
	_, _, err = svcs.Users.Login(ctx, &dto.LoginRequest{Username: "alice", Password: "password123"})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestChangeAndResetPassword(t *testing.T) {
	svcs, _ := newTestServices(t)
	ctx := context.Background()
	alice := mustUser(t, svcs, "alice")

	err := svcs.Users.ChangePassword(ctx, alice.ID, &dto.ChangePasswordRequest{OldPassword: "bad", NewPassword: "newpassword1", NewPasswordConfirm: "newpassword1"})
	assert.ErrorIs(t, err, ErrInvalid)
	require.NoError(t, svcs.Users.ChangePassword(ctx, alice.ID, &dto.ChangePasswordRequest{OldPassword: "password123", NewPassword: "newpassword1", NewPasswordConfirm: "newpassword1"}))
	_, _, err = svcs.Users.Login(ctx, &dto.LoginRequest{Username: "alice", Password: "newpassword1"})
	require.NoError(t, err)

	assert.ErrorIs(t, svcs.Users.ResetPassword(ctx, "alice", "short"), ErrInvalid)
	require.NoError(t, svcs.Users.ResetPassword(ctx, "alice", "resetpassword"))
	_, _, err = svcs.Users.Login(ctx, &dto.LoginRequest{Username: "alice", Password: "resetpassword"})
	require.NoError(t, err)
}

func TestUpdateProfile(t *testing.T) {
	svcs, _ := newTestServices(t)
	ctx := context.Background()
	alice := mustUser(t, svcs, "alice")
	mustUser(t, svcs, "bob")

	bio, site := "reader", "https://alice.example.com"
	resp, err := svcs.Users.UpdateProfile(ctx, alice.ID, &dto.UpdateProfileRequest{Bio: &bio, Website: &site})
	require.NoError(t, err)
	assert.Equal(t, "reader", resp.Bio)
	assert.Equal(t, site, resp.Website)
	assert.Equal(t, "alice@example.com", resp.Email)

	taken := "bob@example.com"
	_, err = svcs.Users.UpdateProfile(ctx, alice.ID, &dto.UpdateProfileRequest{Email: &taken})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestDeleteAccountCascades(t *testing.T) {
	svcs, db := newTestServices(t)
	ctx := context.Background()
	alice := mustUser(t, svcs, "alice")
	bob := mustUser(t, svcs, "bob")

	author, err := svcs.Authors.Create(ctx, &dto.AuthorRequest{Name: "Ursula K. Le Guin"})
	require.NoError(t, err)
	book, err := svcs.Books.Create(ctx, alice.ID, &dto.BookCreateRequest{Title: "The Dispossessed", PublicationYear: 1974, AuthorID: author.ID})
	require.NoError(t, err)

	alicePost := loadPost(t, svcs, bob, mustPost(t, svcs, alice, "Alice writes", "content", "go").ID)
	bobPost := loadPost(t, svcs, alice, mustPost(t, svcs, bob, "Bob writes", "content", "go").ID)
	bobComment, err := svcs.Comments.Create(ctx, bob, alicePost, &dto.CommentCreateRequest{Content: "hi alice"})
	require.NoError(t, err)
	aliceComment, err := svcs.Comments.Create(ctx, alice, bobPost, &dto.CommentCreateRequest{Content: "hi bob"})
	require.NoError(t, err)
	_, err = svcs.Comments.Create(ctx, bob, bobPost, &dto.CommentCreateRequest{Content: "thanks", ParentID: &aliceComment.ID})
	require.NoError(t, err)
	_, err = svcs.Interactions.Like(ctx, alice, bobPost)
	require.NoError(t, err)
	_, err = svcs.Follows.Follow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	require.NoError(t, svcs.Permissions.Grant(ctx, alice.ID, model.PermCanCreate))

	assert.ErrorIs(t, svcs.Users.DeleteAccount(ctx, alice.ID, "wrong"), ErrInvalid)
	require.NoError(t, svcs.Users.DeleteAccount(ctx, alice.ID, "password123"))

	assert.Equal(t, int64(0), count(t, db, &model.User{}, "id = ?", alice.ID))
	assert.Equal(t, int64(0), count(t, db, &model.Profile{}, "user_id = ?", alice.ID))
	assert.Equal(t, int64(0), count(t, db, &model.APIToken{}, "user_id = ?", alice.ID))
	assert.Equal(t, int64(0), count(t, db, &model.Post{}, "author_id = ?", alice.ID))
	assert.Equal(t, int64(0), count(t, db, &model.Comment{}, "id = ?", bobComment.ID))
	assert.Equal(t, int64(0), count(t, db, &model.Comment{}, "post_id = ?", bobPost.ID))
	assert.Equal(t, int64(0), count(t, db, &model.PostLike{}, ""))
	assert.Equal(t, int64(0), count(t, db, &model.UserFollow{}, ""))
	assert.Equal(t, int64(0), count(t, db, &model.UserPermission{}, ""))
	assert.Equal(t, int64(0), count(t, db, &model.Notification{}, ""))
	assert.Equal(t, int64(1), count(t, db, &model.Post{}, "id = ?", bobPost.ID))
	assert.Equal(t, int64(1), count(t, db, &model.Book{}, "id = ? AND created_by_id IS NULL", book.ID))
}
