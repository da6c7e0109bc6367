package lifecycle

import (
	"context"

	"github.com/google/uuid"
	"github.com/rpupo63/rooms-blog-backend/errs"
	"github.com/rpupo63/rooms-blog-backend/membership"
	"github.com/rpupo63/rooms-blog-backend/models"
	"github.com/rpupo63/rooms-blog-backend/saga"
)

// Publish moves a draft to its published identity. The published document
// is created, the draft deleted, and the row flipped with a compare-and-swap
// on published=false. A failed row update restores the draft and removes the
// published copy. A failed draft delete is not compensated: both documents
// stay and the blog is flagged for reconciliation.
func (m *Manager) Publish(ctx context.Context, userID string, blogID uuid.UUID) (*models.Blog, error) {
	if err := requireCaller(userID); err != nil {
		return nil, err
	}

	blog, err := m.blogs.FindByID(ctx, blogID)
	if err != nil {
		return nil, dbFailure("find blog", err)
	}
	if !membership.IsAuthorOf(blog, userID) {
		return nil, errs.NewPermissionDeniedError("Only the author can publish this blog")
	}
	if blog.Published {
		return nil, errs.NewAlreadyPublishedError()
	}

	ref, err := blog.DocumentRef()
	if err != nil {
		return nil, errs.NewInternalError(err.Error())
	}
	draft, ok := ref.(models.DraftRef)
	if !ok {
		m.logger.Error().Str("blogID", blogID.String()).Str("documentID", ref.ID()).Msg("unpublished blog points at a published document")
		return nil, errs.NewInternalError("blog content is in an inconsistent state")
	}

	snapshot, err := m.content.Get(ctx, draft)
	if err != nil {
		if errs.IsNotFound(err) {
			return nil, errs.NewNotFoundError("Blog content not found")
		}
		return nil, asDependencyFailure("fetch draft", err)
	}

	now := m.now()
	published := draft.Published()
	publishedDoc := snapshot.Clone()
	publishedDoc.PublishedAt = &now

	var updated *models.Blog
	run := saga.New("publish blog", m.logger,
		saga.Step{
			Name: "create published document",
			Do: func(ctx context.Context) error {
				return m.content.Create(ctx, published, publishedDoc)
			},
			Undo: func(ctx context.Context) error {
				return m.content.Delete(ctx, published)
			},
		},
		saga.Step{
			Name: "delete draft document",
			Do: func(ctx context.Context) error {
				return saga.Halt(m.content.Delete(ctx, draft))
			},
			Undo: func(ctx context.Context) error {
				return m.content.Create(ctx, draft, *snapshot)
			},
		},
		saga.Step{
			Name: "mark blog published",
			Do: func(ctx context.Context) error {
				var err error
				updated, err = m.blogs.MarkPublished(ctx, blogID, published, now)
				if errs.IsAlreadyPublished(err) {
					// another request won; its row already points at the
					// published document so nothing may be undone
					return saga.Halt(err)
				}
				return dbFailure("mark blog published", err)
			},
		},
	)

	if err := run.Run(ctx); err != nil {
		if errs.IsAlreadyPublished(err) {
			return nil, errs.NewAlreadyPublishedError()
		}
		return nil, m.sagaFailed(ctx, "publish", blogID, err, []models.DocumentRef{draft, published}, *snapshot)
	}

	m.logger.Info().
		Str("blogID", blogID.String()).
		Str("documentID", published.ID()).
		Msg("blog published")
	return updated, nil
}
