package lifecycle

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rpupo63/rooms-blog-backend/content"
	"github.com/rpupo63/rooms-blog-backend/errs"
	"github.com/rpupo63/rooms-blog-backend/membership"
	"github.com/rpupo63/rooms-blog-backend/models"
)

// UpdateDraft patches a draft in place. Only the author may call it and
// only before publishing. The content document is patched first; the row's
// title and excerpt are a projection and are updated only if they changed.
// If the row update fails the content store stays ahead of the row.
func (m *Manager) UpdateDraft(ctx context.Context, userID string, blogID uuid.UUID, in UpdateInput) (*models.Blog, error) {
	if err := requireCaller(userID); err != nil {
		return nil, err
	}

	blog, err := m.blogs.FindByID(ctx, blogID)
	if err != nil {
		return nil, dbFailure("find blog", err)
	}
	if !membership.CanEditBlog(blog, userID) {
		return nil, errs.NewPermissionDeniedError("You cannot edit this blog (already published or not the author)")
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	ref, err := blog.DocumentRef()
	if err != nil {
		return nil, errs.NewInternalError(err.Error())
	}

	var title *string
	if in.Title != nil {
		t := strings.TrimSpace(*in.Title)
		title = &t
	}

	patch := content.DocumentPatch{Title: title, Content: in.Content, Excerpt: in.Excerpt}
	if !patch.Empty() {
		if err := m.content.Patch(ctx, ref, patch); err != nil {
			return nil, asDependencyFailure("patch draft", err)
		}
	}

	update := models.BlogMetadataUpdate{Title: title, UpdatedAt: m.now()}
	excerptUpdate(in.Excerpt, &update)
	if update.Empty() {
		return blog, nil
	}
	return m.updateMetadata(ctx, blog.ID, ref, update)
}

// Edit replaces title, content and excerpt of a blog the caller wrote,
// published or not. The caller must still belong to the blog's room.
func (m *Manager) Edit(ctx context.Context, userID string, blogID uuid.UUID, in EditInput) (*models.Blog, error) {
	if err := requireCaller(userID); err != nil {
		return nil, err
	}

	blog, err := m.blogs.FindByID(ctx, blogID)
	if err != nil {
		return nil, dbFailure("find blog", err)
	}
	if !membership.IsAuthorOf(blog, userID) {
		return nil, errs.NewPermissionDeniedError("You can only edit your own blogs")
	}
	isMember, err := m.perms.IsMember(ctx, blog.RoomID, userID)
	if err := m.authorize(isMember, err, "edit", "You must be a room member to edit this blog"); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	ref, err := blog.DocumentRef()
	if err != nil {
		return nil, errs.NewInternalError(err.Error())
	}

	title := strings.TrimSpace(in.Title)
	excerpt := derefExcerpt(in.Excerpt)
	patch := content.DocumentPatch{Title: &title, Content: in.Content, Excerpt: &excerpt}
	if err := m.content.Patch(ctx, ref, patch); err != nil {
		return nil, asDependencyFailure("patch document", err)
	}

	update := models.BlogMetadataUpdate{Title: &title, UpdatedAt: m.now()}
	excerptUpdate(&excerpt, &update)
	return m.updateMetadata(ctx, blog.ID, ref, update)
}

func (m *Manager) updateMetadata(ctx context.Context, blogID uuid.UUID, ref models.DocumentRef, update models.BlogMetadataUpdate) (*models.Blog, error) {
	updated, err := m.blogs.UpdateMetadata(ctx, blogID, update)
	if err != nil {
		m.logger.Warn().
			Err(err).
			Str("blogID", blogID.String()).
			Str("documentID", ref.ID()).
			Msg("content document updated but blog metadata was not")
		return nil, dbFailure("update blog metadata", err)
	}
	return updated, nil
}
