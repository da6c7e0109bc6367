package lifecycle

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rpupo63/rooms-blog-backend/content"
	"github.com/rpupo63/rooms-blog-backend/models"
	"github.com/rpupo63/rooms-blog-backend/saga"
	"github.com/rpupo63/rooms-blog-backend/slug"
)

// CreateDraft stores a new draft. The content document is written first and
// deleted again if the relational insert fails.
func (m *Manager) CreateDraft(ctx context.Context, userID string, in CreateInput) (*models.Blog, error) {
	if err := requireCaller(userID); err != nil {
		return nil, err
	}
	roomID, err := in.validate()
	if err != nil {
		return nil, err
	}

	canWrite, err := m.perms.CanWriteInRoom(ctx, roomID, userID)
	if err := m.authorize(canWrite, err, "create", "You do not have permission to write in this room"); err != nil {
		return nil, err
	}

	room, err := m.rooms.FindByID(ctx, roomID)
	if err != nil {
		return nil, dbFailure("find room", err)
	}

	existing, err := m.blogs.SlugsInRoom(ctx, roomID)
	if err != nil {
		return nil, dbFailure("list blog slugs", err)
	}

	title := strings.TrimSpace(in.Title)
	blogSlug := slug.Unique(title, slug.Set(existing))
	ref := models.NewDraftRef()
	now := m.now()

	doc := content.BlogDocument{
		Title:    title,
		Slug:     content.SlugField{Current: blogSlug},
		RoomSlug: room.Slug,
		AuthorID: userID,
		Content:  in.Content,
		Excerpt:  derefExcerpt(in.Excerpt),
		Tone:     in.Tone,
		Language: in.Language,
	}
	blog := &models.Blog{
		ID:        uuid.New(),
		RoomID:    roomID,
		AuthorID:  userID,
		Title:     title,
		Slug:      blogSlug,
		Excerpt:   nullableExcerpt(in.Excerpt),
		SanityID:  ref.ID(),
		Published: false,
		CreatedAt: now,
		UpdatedAt: now,
	}

	run := saga.New("create blog", m.logger,
		saga.Step{
			Name: "create draft document",
			Do: func(ctx context.Context) error {
				return m.content.Create(ctx, ref, doc)
			},
			Undo: func(ctx context.Context) error {
				return m.content.Delete(ctx, ref)
			},
		},
		saga.Step{
			Name: "insert blog row",
			Do: func(ctx context.Context) error {
				return dbFailure("insert blog", m.blogs.Add(ctx, blog))
			},
		},
	)
	if err := run.Run(ctx); err != nil {
		return nil, m.sagaFailed(ctx, "create", blog.ID, err, []models.DocumentRef{ref}, doc)
	}

	m.logger.Info().
		Str("blogID", blog.ID.String()).
		Str("roomID", roomID.String()).
		Str("documentID", ref.ID()).
		Msg("draft created")
	return blog, nil
}
