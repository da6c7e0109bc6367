package lifecycle

import (
	"context"

	"github.com/rpupo63/rooms-blog-backend/content"
	"github.com/rpupo63/rooms-blog-backend/errs"
	"github.com/rpupo63/rooms-blog-backend/membership"
	"github.com/rpupo63/rooms-blog-backend/models"
)

// FetchForEdit loads a blog and its content for its author's editor.
func (m *Manager) FetchForEdit(ctx context.Context, userID, roomSlug, blogSlug string) (*models.Blog, *content.BlogDocument, error) {
	if roomSlug == "" || blogSlug == "" {
		return nil, nil, errs.NewBadRequestError("Room slug and blog slug are required")
	}
	if err := requireCaller(userID); err != nil {
		return nil, nil, err
	}

	room, err := m.rooms.FindBySlug(ctx, roomSlug)
	if err != nil {
		return nil, nil, dbFailure("find room", err)
	}
	blog, err := m.blogs.FindBySlug(ctx, room.ID, blogSlug)
	if err != nil {
		return nil, nil, dbFailure("find blog", err)
	}
	if !membership.IsAuthorOf(blog, userID) {
		return nil, nil, errs.NewPermissionDeniedError("You can only edit your own blogs")
	}

	ref, err := blog.DocumentRef()
	if err != nil {
		return nil, nil, errs.NewInternalError(err.Error())
	}
	doc, err := m.content.Get(ctx, ref)
	if err != nil {
		if errs.IsNotFound(err) {
			return nil, nil, errs.NewNotFoundError("Content not found")
		}
		return nil, nil, asDependencyFailure("fetch document", err)
	}
	return blog, doc, nil
}
