package service

import (
	"context"
	"math"
	"strings"
	"testing"

	"github.com/nsxzhou1114/folio-api/internal/dto"
	"github.com/nsxzhou1114/folio-api/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePostDerivesFields(t *testing.T) {
	svcs, db := newTestServices(t)
	alice := mustUser(t, svcs, "alice")

	long := strings.Repeat("word ", 150)
	post := mustPost(t, svcs, alice, "Hello Go World", long, " Go, golang ,GO, web ")

	assert.Equal(t, "hello-go-world", post.Slug)
	assert.Equal(t, model.PostStatusPublished, post.Status)
	assert.NotNil(t, post.PublishedAt)
	assert.Len(t, []rune(post.Excerpt), 500)
	assert.True(t, strings.HasSuffix(post.Excerpt, "..."))
	assert.Equal(t, "go, golang, web", post.TagList)
	assert.Equal(t, "alice", post.Author.Username)
	assert.Equal(t, int64(1), count(t, db, &model.Post{}, ""))
	assert.Equal(t, int64(3), count(t, db, &model.Tag{}, ""))

	second := mustPost(t, svcs, alice, "Hello Go World", "short", "go")
	assert.Equal(t, "hello-go-world-2", second.Slug)
	assert.Equal(t, "short", second.Excerpt)
	assert.Equal(t, int64(3), count(t, db, &model.Tag{}, ""))
}

func TestCreatePostExplicitSlugConflict(t *testing.T) {
	svcs, _ := newTestServices(t)
	alice := mustUser(t, svcs, "alice")
	mustPost(t, svcs, alice, "First", "content", "")

	_, err := svcs.Posts.Create(context.Background(), alice, &dto.PostCreateRequest{
		Title:   "Other",
		Slug:    "first",
		Content: "content",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConflict)
	var se *Error
	require.ErrorAs(t, err, &se)
	assert.Contains(t, se.Fields, "slug")
}

func TestDraftPublishSetsPublishedAtOnce(t *testing.T) {
	svcs, _ := newTestServices(t)
	ctx := context.Background()
	alice := mustUser(t, svcs, "alice")

	draft, err := svcs.Posts.Create(ctx, alice, &dto.PostCreateRequest{Title: "Draft", Content: "wip", Status: model.PostStatusDraft})
	require.NoError(t, err)
	assert.Nil(t, draft.PublishedAt)

	drafts, total, _, err := svcs.Posts.Drafts(ctx, alice.ID, &dto.PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, draft.ID, drafts[0].ID)

	status := model.PostStatusPublished
	published, err := svcs.Posts.Patch(ctx, alice, draft.ID, &dto.PostPatchRequest{Status: &status})
	require.NoError(t, err)
	require.NotNil(t, published.PublishedAt)
	first := *published.PublishedAt

	title := "Renamed"
	again, err := svcs.Posts.Patch(ctx, alice, draft.ID, &dto.PostPatchRequest{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", again.Title)
	assert.True(t, first.Equal(*again.PublishedAt))
	assert.Equal(t, draft.Slug, again.Slug)
}

func TestPostVisibilityAndViews(t *testing.T) {
	svcs, db := newTestServices(t)
	ctx := context.Background()
	alice := mustUser(t, svcs, "alice")
	bob := mustUser(t, svcs, "bob")
	staff := mustStaff(t, svcs, "root")

	draft, err := svcs.Posts.Create(ctx, alice, &dto.PostCreateRequest{Title: "Secret", Content: "wip", Status: model.PostStatusDraft})
	require.NoError(t, err)

	_, err = svcs.Posts.Get(ctx, bob, draft.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svcs.Posts.Get(ctx, nil, draft.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svcs.Posts.Get(ctx, alice, draft.ID)
	require.NoError(t, err)
	detail, err := svcs.Posts.GetBySlug(ctx, staff, draft.Slug)
	require.NoError(t, err)
	assert.Equal(t, uint(2), detail.Views)

	var views uint
	require.NoError(t, db.Model(&model.Post{}).Where("id = ?", draft.ID).Pluck("views", &views).Error)
	assert.Equal(t, uint(2), views)
}

func TestPostDetailContent(t *testing.T) {
	svcs, _ := newTestServices(t)
	ctx := context.Background()
	alice := mustUser(t, svcs, "alice")

	p1 := mustPost(t, svcs, alice, "One", "# Title\n\n<script>alert(1)</script>**bold**", "go")
	p2 := mustPost(t, svcs, alice, "Two", "two", "go,web")
	mustPost(t, svcs, alice, "Three", "three", "python")

	detail, err := svcs.Posts.Get(ctx, nil, p1.ID)
	require.NoError(t, err)
	assert.Contains(t, detail.ContentHTML, "<strong>bold</strong>")
	assert.NotContains(t, detail.ContentHTML, "<script>")
	assert.Equal(t, "1 min read", detail.ReadingTime)
	require.Len(t, detail.RelatedPosts, 1)
	assert.Equal(t, p2.ID, detail.RelatedPosts[0].ID)
	assert.False(t, detail.UserHasLiked)
}

func TestUpdatePostPermissions(t *testing.T) {
	svcs, _ := newTestServices(t)
	ctx := context.Background()
	alice := mustUser(t, svcs, "alice")
	bob := mustUser(t, svcs, "bob")
	staff := mustStaff(t, svcs, "root")
	post := mustPost(t, svcs, alice, "Mine", "content", "go")

	req := &dto.PostCreateRequest{Title: "Hijacked", Content: "x"}
	_, err := svcs.Posts.Update(ctx, bob, post.ID, req)
	assert.ErrorIs(t, err, ErrForbidden)
	assert.ErrorIs(t, svcs.Posts.Delete(ctx, bob, post.ID), ErrForbidden)

	updated, err := svcs.Posts.Update(ctx, staff, post.ID, &dto.PostCreateRequest{Title: "Edited", Content: "new body", Tags: ""})
	require.NoError(t, err)
	assert.Equal(t, "Edited", updated.Title)
	assert.Equal(t, "new body", updated.Excerpt)
	assert.Empty(t, updated.Tags)
	assert.Equal(t, "alice", updated.Author.Username)
}

func TestDeletePostCascades(t *testing.T) {
	svcs, db := newTestServices(t)
	ctx := context.Background()
	alice := mustUser(t, svcs, "alice")
	bob := mustUser(t, svcs, "bob")
	post := mustPost(t, svcs, alice, "Doomed", "content", "go")
	other := mustPost(t, svcs, alice, "Survivor", "content", "go")

	p := loadPost(t, svcs, bob, post.ID)
	c, err := svcs.Comments.Create(ctx, bob, p, &dto.CommentCreateRequest{Content: "nice"})
	require.NoError(t, err)
	_, err = svcs.Comments.Create(ctx, alice, p, &dto.CommentCreateRequest{Content: "thanks", ParentID: &c.ID})
	require.NoError(t, err)
	_, err = svcs.Interactions.Like(ctx, bob, p)
	require.NoError(t, err)
	_, err = svcs.Interactions.Like(ctx, bob, loadPost(t, svcs, bob, other.ID))
	require.NoError(t, err)

	require.NoError(t, svcs.Posts.Delete(ctx, alice, post.ID))

	assert.Equal(t, int64(0), count(t, db, &model.Post{}, "id = ?", post.ID))
	assert.Equal(t, int64(0), count(t, db, &model.Comment{}, "post_id = ?", post.ID))
	assert.Equal(t, int64(0), count(t, db, &model.PostLike{}, "post_id = ?", post.ID))
	assert.Equal(t, int64(0), count(t, db, &model.PostTag{}, "post_id = ?", post.ID))
	assert.Equal(t, int64(0), count(t, db, &model.Notification{}, "target_post_id = ?", post.ID))
	assert.Equal(t, int64(1), count(t, db, &model.PostLike{}, "post_id = ?", other.ID))
	assert.Equal(t, int64(1), count(t, db, &model.Tag{}, ""))

	_, err = svcs.Posts.Get(ctx, alice, post.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostSearchIsCaseInsensitiveSubstring(t *testing.T) {
	svcs, _ := newTestServices(t)
	ctx := context.Background()
	alice := mustUser(t, svcs, "alice")

	mustPost(t, svcs, alice, "Learning GOLANG", "basics", "")
	mustPost(t, svcs, alice, "Cooking", "a golang-free recipe", "")
	mustPost(t, svcs, alice, "Travel", "nothing here", "GoLangers")
	mustPost(t, svcs, alice, "Unrelated", "100% pure", "misc")
	_, err := svcs.Posts.Create(ctx, alice, &dto.PostCreateRequest{Title: "golang draft", Content: "x", Status: model.PostStatusDraft})
	require.NoError(t, err)

	list, total, _, err := svcs.Posts.Search(ctx, &dto.PostSearchRequest{Q: "GoLang"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	titles := make([]string, 0, len(list))
	for _, p := range list {
		titles = append(titles, p.Title)
	}
	assert.ElementsMatch(t, []string{"Learning GOLANG", "Cooking", "Travel"}, titles)

	_, total, _, err = svcs.Posts.Search(ctx, &dto.PostSearchRequest{Q: "0%"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	_, total, _, err = svcs.Posts.Search(ctx, &dto.PostSearchRequest{Q: "_x"})
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)

	_, _, _, err = svcs.Posts.Search(ctx, &dto.PostSearchRequest{Q: "g"})
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestPostListFiltersAndPagination(t *testing.T) {
	svcs, _ := newTestServices(t)
	ctx := context.Background()
	alice := mustUser(t, svcs, "alice")
	bob := mustUser(t, svcs, "bob")

	for i := 0; i < 3; i++ {
		mustPost(t, svcs, alice, "Alice post", "content", "go")
	}
	mustPost(t, svcs, bob, "Bob post", "content", "rust")

	list, total, params, err := svcs.Posts.List(ctx, &dto.PostListRequest{Tag: "go"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, list, 3)
	assert.Equal(t, 10, params.PageSize)

	_, total, _, err = svcs.Posts.List(ctx, &dto.PostListRequest{Author: "bob"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	list, total, _, err = svcs.Posts.List(ctx, &dto.PostListRequest{PageRequest: dto.PageRequest{Page: 9, PageSize: 2}})
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
	assert.Empty(t, list)

	list, total, _, err = svcs.Posts.List(ctx, &dto.PostListRequest{PageRequest: dto.PageRequest{Page: math.MaxInt / 2, PageSize: 4}})
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
	assert.Empty(t, list)

	list, _, _, err = svcs.Posts.List(ctx, &dto.PostListRequest{PageRequest: dto.PageRequest{Ordering: "title"}})
	require.NoError(t, err)
	assert.Equal(t, "Alice post", list[0].Title)
	assert.Equal(t, "Bob post", list[3].Title)

	_, _, err = svcs.Posts.ByTag(ctx, "missing", &dto.PageRequest{})
	assert.ErrorIs(t, err, ErrNotFound)

	byTag, _, err := svcs.Posts.ByTag(ctx, "go", &dto.PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), byTag.Total)
	assert.Equal(t, int64(3), byTag.Tag.PostsCount)
}

func TestFeedContainsFollowedAuthorsOnly(t *testing.T) {
	svcs, _ := newTestServices(t)
	ctx := context.Background()
	alice := mustUser(t, svcs, "alice")
	bob := mustUser(t, svcs, "bob")
	carol := mustUser(t, svcs, "carol")

	mustPost(t, svcs, bob, "From bob", "content", "")
	mustPost(t, svcs, carol, "From carol", "content", "")

	_, err := svcs.Follows.Follow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	feed, total, _, err := svcs.Posts.Feed(ctx, alice.ID, &dto.PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "From bob", feed[0].Title)
}

func TestSidebar(t *testing.T) {
	svcs, _ := newTestServices(t)
	ctx := context.Background()
	alice := mustUser(t, svcs, "alice")
	p := mustPost(t, svcs, alice, "Popular", "content", "go")
	mustPost(t, svcs, alice, "Quiet", "content", "go,web")

	_, err := svcs.Posts.Get(ctx, nil, p.ID)
	require.NoError(t, err)
	_, err = svcs.Comments.Create(ctx, alice, loadPost(t, svcs, alice, p.ID), &dto.CommentCreateRequest{Content: "first"})
	require.NoError(t, err)

	side, err := svcs.Posts.Sidebar(ctx)
	require.NoError(t, err)
	require.Len(t, side.PopularPosts, 2)
	assert.Equal(t, "Popular", side.PopularPosts[0].Title)
	assert.Equal(t, int64(1), side.PopularPosts[0].CommentsCount)
	require.Len(t, side.RecentComments, 1)
	require.Len(t, side.PopularTags, 2)
	assert.Equal(t, "go", side.PopularTags[0].Name)
}
