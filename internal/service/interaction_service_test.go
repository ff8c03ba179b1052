package service

import (
	"context"
	"testing"
	"time"

	"github.com/nsxzhou1114/folio-api/internal/dto"
	"github.com/nsxzhou1114/folio-api/internal/model"
	"github.com/nsxzhou1114/folio-api/pkg/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLikeTwiceIsRejected(t *testing.T) {
	svcs, db := newTestServices(t)
	ctx := context.Background()
	alice := mustUser(t, svcs, "alice")
	bob := mustUser(t, svcs, "bob")
	post := loadPost(t, svcs, bob, mustPost(t, svcs, alice, "Likeable", "content", "").ID)

	resp, err := svcs.Interactions.Like(ctx, bob, post)
	require.NoError(t, err)
	assert.True(t, resp.Liked)
	assert.Equal(t, int64(1), resp.LikesCount)

	_, err = svcs.Interactions.Like(ctx, bob, post)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalid)
	assert.Equal(t, "已经点赞过该文章", err.Error())

	assert.Equal(t, int64(1), count(t, db, &model.PostLike{}, "post_id = ?", post.ID))
	assert.Equal(t, int64(1), count(t, db, &model.Notification{}, "recipient_id = ? AND verb = ?", alice.ID, model.VerbLike))

	resp, err = svcs.Interactions.Unlike(ctx, bob, post)
	require.NoError(t, err)
	assert.False(t, resp.Liked)
	assert.Equal(t, int64(0), resp.LikesCount)

	_, err = svcs.Interactions.Unlike(ctx, bob, post)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestLikeOwnPostDoesNotNotify(t *testing.T) {
	svcs, db := newTestServices(t)
	alice := mustUser(t, svcs, "alice")
	post := loadPost(t, svcs, alice, mustPost(t, svcs, alice, "Mine", "content", "").ID)

	_, err := svcs.Interactions.Like(context.Background(), alice, post)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count(t, db, &model.Notification{}, ""))
}

func TestFollowUnfollowRoundTrip(t *testing.T) {
	svcs, db := newTestServices(t)
	ctx := context.Background()
	alice := mustUser(t, svcs, "alice")
	bob := mustUser(t, svcs, "bob")

	_, err := svcs.Follows.Follow(ctx, alice.ID, alice.ID)
	assert.ErrorIs(t, err, ErrInvalid)
	_, err = svcs.Follows.Follow(ctx, alice.ID, 999)
	assert.ErrorIs(t, err, ErrNotFound)

	_, total, err := svcs.Follows.Followers(ctx, bob.ID, pagination.New(1, 0, 20, ""))
	require.NoError(t, err)
	assert.Zero(t, total)

	resp, err := svcs.Follows.Follow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, resp.Following)
	assert.Equal(t, int64(1), resp.FollowersCount)

	resp, err = svcs.Follows.Follow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), resp.FollowersCount)
	assert.Equal(t, int64(1), count(t, db, &model.Notification{}, "recipient_id = ? AND verb = ?", bob.ID, model.VerbFollow))

	following, _, err := svcs.Follows.Following(ctx, alice.ID, pagination.New(1, 0, 20, ""))
	require.NoError(t, err)
	require.Len(t, following, 1)
	assert.Equal(t, "bob", following[0].Username)

	profile, err := svcs.Users.Profile(ctx, alice, bob.ID)
	require.NoError(t, err)
	assert.True(t, profile.IsFollowing)
	assert.Equal(t, int64(1), profile.FollowersCount)
	assert.Empty(t, profile.Email)

	resp, err = svcs.Follows.Unfollow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, resp.Following)
	_, err = svcs.Follows.Unfollow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	followers, total, err := svcs.Follows.Followers(ctx, bob.ID, pagination.New(1, 0, 20, ""))
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, followers)
}

func TestCommentNotificationsAndReplies(t *testing.T) {
	svcs, db := newTestServices(t)
	ctx := context.Background()
	alice := mustUser(t, svcs, "alice")
	bob := mustUser(t, svcs, "bob")
	carol := mustUser(t, svcs, "carol")
	post := loadPost(t, svcs, bob, mustPost(t, svcs, alice, "Thread", "content", "").ID)

	top, err := svcs.Comments.Create(ctx, bob, post, &dto.CommentCreateRequest{Content: "  <b>great</b> post "})
	require.NoError(t, err)
	assert.Equal(t, "great post", top.Content)
	assert.True(t, top.Approved)

	reply, err := svcs.Comments.Create(ctx, carol, post, &dto.CommentCreateRequest{Content: "agreed", ParentID: &top.ID})
	require.NoError(t, err)
	assert.Equal(t, top.ID, *reply.ParentID)

	assert.Equal(t, int64(1), count(t, db, &model.Notification{}, "recipient_id = ? AND verb = ?", alice.ID, model.VerbComment))
	assert.Equal(t, int64(1), count(t, db, &model.Notification{}, "recipient_id = ? AND verb = ?", bob.ID, model.VerbReply))
	assert.Equal(t, int64(0), count(t, db, &model.Notification{}, "recipient_id = ? AND verb = ?", alice.ID, model.VerbReply))

	other := loadPost(t, svcs, bob, mustPost(t, svcs, alice, "Other", "content", "").ID)
	_, err = svcs.Comments.Create(ctx, bob, other, &dto.CommentCreateRequest{Content: "x", ParentID: &top.ID})
	assert.ErrorIs(t, err, ErrInvalid)

	tree, total, err := svcs.Comments.Tree(ctx, nil, post)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, tree, 1)
	require.Len(t, tree[0].Replies, 1)
	assert.Equal(t, "carol", tree[0].Replies[0].Author.Username)

	_, err = svcs.Comments.Update(ctx, carol, post.ID, top.ID, &dto.CommentUpdateRequest{Content: "hijack"})
	assert.ErrorIs(t, err, ErrForbidden)
	edited, err := svcs.Comments.Update(ctx, bob, post.ID, top.ID, &dto.CommentUpdateRequest{Content: "really great"})
	require.NoError(t, err)
	assert.True(t, edited.IsEdited)

	assert.ErrorIs(t, svcs.Comments.Delete(ctx, carol, post.ID, top.ID), ErrForbidden)
	require.NoError(t, svcs.Comments.Delete(ctx, alice, post.ID, top.ID))
	assert.Equal(t, int64(0), count(t, db, &model.Comment{}, "post_id = ?", post.ID))
	assert.Equal(t, int64(0), count(t, db, &model.Notification{}, "target_comment_id IS NOT NULL AND target_post_id = ?", post.ID))
}

func TestCommentModeration(t *testing.T) {
	svcs, db := newTestServices(t)
	ctx := context.Background()
	alice := mustUser(t, svcs, "alice")
	bob := mustUser(t, svcs, "bob")
	carol := mustUser(t, svcs, "carol")
	staff := mustStaff(t, svcs, "root")
	post := loadPost(t, svcs, bob, mustPost(t, svcs, alice, "Moderated", "content", "").ID)

	held, err := svcs.Comments.Create(ctx, bob, post, &dto.CommentCreateRequest{Content: "buy SPAM now"})
	require.NoError(t, err)
	assert.False(t, held.Approved)
	assert.Zero(t, count(t, db, &model.Notification{}, "recipient_id = ? AND verb = ?", alice.ID, model.VerbComment))

	own, err := svcs.Comments.Create(ctx, alice, post, &dto.CommentCreateRequest{Content: "spam is fine here"})
	require.NoError(t, err)
	assert.True(t, own.Approved)

	_, total, err := svcs.Comments.Tree(ctx, carol, post)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	_, total, err = svcs.Comments.Tree(ctx, bob, post)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	_, total, err = svcs.Comments.Tree(ctx, alice, post)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	pending, total, _, err := svcs.Comments.Pending(ctx, &dto.PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, held.ID, pending[0].ID)

	_, err = svcs.Comments.Approve(ctx, carol, post.ID, held.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	approved, err := svcs.Comments.Approve(ctx, staff, post.ID, held.ID)
	require.NoError(t, err)
	assert.True(t, approved.Approved)
	assert.Equal(t, int64(1), count(t, db, &model.Notification{}, "recipient_id = ? AND verb = ?", alice.ID, model.VerbComment))

	// 重复审核、编辑后再次审核都不重复通知
	_, err = svcs.Comments.Approve(ctx, staff, post.ID, held.ID)
	require.NoError(t, err)
	_, err = svcs.Comments.Update(ctx, bob, post.ID, held.ID, &dto.CommentUpdateRequest{Content: "more spam"})
	require.NoError(t, err)
	_, err = svcs.Comments.Approve(ctx, alice, post.ID, held.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count(t, db, &model.Notification{}, "recipient_id = ? AND verb = ?", alice.ID, model.VerbComment))

	_, total, err = svcs.Comments.Tree(ctx, nil, post)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}

func TestNotificationsListMarksRead(t *testing.T) {
	svcs, db := newTestServices(t)
	ctx := context.Background()
	alice := mustUser(t, svcs, "alice")
	bob := mustUser(t, svcs, "bob")

	_, err := svcs.Follows.Follow(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	post := loadPost(t, svcs, bob, mustPost(t, svcs, alice, "Post", "content", "").ID)
	_, err = svcs.Interactions.Like(ctx, bob, post)
	require.NoError(t, err)

	unread, err := svcs.Notifications.UnreadCount(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), unread)

	list, total, err := svcs.Notifications.List(ctx, alice.ID, pagination.New(1, 0, 20, ""))
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Equal(t, model.VerbLike, list[0].Verb)
	assert.Equal(t, "Post", list[0].TargetPostTitle)
	assert.Equal(t, "bob", list[0].Actor.Username)
	assert.False(t, list[0].Read)

	unread, err = svcs.Notifications.UnreadCount(ctx, alice.ID)
	require.NoError(t, err)
	assert.Zero(t, unread)

	assert.ErrorIs(t, svcs.Notifications.Delete(ctx, bob.ID, list[0].ID), ErrNotFound)
	assert.ErrorIs(t, svcs.Notifications.MarkRead(ctx, bob.ID, list[0].ID), ErrNotFound)
	require.NoError(t, svcs.Notifications.MarkRead(ctx, alice.ID, list[0].ID))

	n, err := svcs.Notifications.CleanupRead(ctx, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Equal(t, int64(0), count(t, db, &model.Notification{}, ""))
}
