package service

import (
	"strings"

	"github.com/jinzhu/copier"
	"github.com/nsxzhou1114/folio-api/internal/dto"
	"github.com/nsxzhou1114/folio-api/internal/model"
	"github.com/nsxzhou1114/folio-api/pkg/markdown"
)

func toUserBrief(u *model.User) dto.UserBrief {
	return dto.UserBrief{
		ID:             u.ID,
		Username:       u.Username,
		ProfilePicture: u.Profile.ProfilePicture,
	}
}

func toBookResponse(b *model.Book) dto.BookResponse {
	var resp dto.BookResponse
	_ = copier.Copy(&resp, b)
	resp.AuthorName = b.Author.Name
	return resp
}

func toBookResponses(books []model.Book) []dto.BookResponse {
	list := make([]dto.BookResponse, 0, len(books))
	for i := range books {
		list = append(list, toBookResponse(&books[i]))
	}
	return list
}

func toLibrarianResponse(l *model.Librarian) *dto.LibrarianResponse {
	if l == nil || l.ID == 0 {
		return nil
	}
	var resp dto.LibrarianResponse
	_ = copier.Copy(&resp, l)
	return &resp
}

func tagNames(tags []model.Tag) []string {
	names := make([]string, 0, len(tags))
	for _, t := range tags {
		names = append(names, t.Name)
	}
	return names
}

func toPostResponse(p *model.Post) dto.PostResponse {
	tags := make([]dto.TagBrief, 0, len(p.Tags))
	for _, t := range p.Tags {
		tags = append(tags, dto.TagBrief{ID: t.ID, Name: t.Name, Slug: t.Slug})
	}
	return dto.PostResponse{
		ID:          p.ID,
		Title:       p.Title,
		Slug:        p.Slug,
		Excerpt:     p.Excerpt,
		Status:      p.Status,
		Views:       p.Views,
		Author:      toUserBrief(&p.Author),
		Tags:        tags,
		TagList:     strings.Join(tagNames(p.Tags), ", "),
		ReadingTime: markdown.ReadingTime(p.Content),
		PublishedAt: p.PublishedAt,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func toCommentResponse(c *model.Comment) dto.CommentResponse {
	resp := dto.CommentResponse{
		ID:        c.ID,
		PostID:    c.PostID,
		ParentID:  c.ParentID,
		Content:   c.Content,
		Approved:  c.Approved,
		IsEdited:  c.IsEdited,
		Author:    toUserBrief(&c.Author),
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
	for _, child := range c.Children {
		resp.Replies = append(resp.Replies, toCommentResponse(child))
	}
	return resp
}

func toCommentResponses(comments []model.Comment) []dto.CommentResponse {
	list := make([]dto.CommentResponse, 0, len(comments))
	for i := range comments {
		list = append(list, toCommentResponse(&comments[i]))
	}
	return list
}

func toNotificationResponse(n *model.Notification) dto.NotificationResponse {
	resp := dto.NotificationResponse{
		ID:              n.ID,
		Verb:            n.Verb,
		Read:            n.Read,
		Actor:           toUserBrief(&n.Actor),
		TargetPostID:    n.TargetPostID,
		TargetCommentID: n.TargetCommentID,
		Timestamp:       n.CreatedAt,
	}
	if n.TargetPost != nil {
		resp.TargetPostTitle = n.TargetPost.Title
	}
	return resp
}
