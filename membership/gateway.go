// Package membership answers who may do what in a room. Every answer is a
// point lookup against the relational store; nothing is cached.
package membership

import (
	"context"

	"github.com/google/uuid"
	"github.com/rpupo63/rooms-blog-backend/errs"
	"github.com/rpupo63/rooms-blog-backend/models"
)

// Store is the relational lookups the gateway needs. Both methods return an
// errs NotFound error on a miss.
type Store interface {
	FindRole(ctx context.Context, roomID uuid.UUID, userID string) (models.MemberRole, error)
	FindBlog(ctx context.Context, blogID uuid.UUID) (*models.Blog, error)
}

// Gateway turns lookups into yes/no answers. A miss is false, never an
// error. Store failures are returned so callers can fail closed.
type Gateway struct {
	store Store
}

func NewGateway(store Store) *Gateway {
	return &Gateway{store: store}
}

// RoleOf returns the caller's role in the room, or "" when not a member.
func (g *Gateway) RoleOf(ctx context.Context, roomID uuid.UUID, userID string) (models.MemberRole, error) {
	if userID == "" {
		return "", nil
	}
	role, err := g.store.FindRole(ctx, roomID, userID)
	if errs.IsNotFound(err) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return role, nil
}

func (g *Gateway) IsMember(ctx context.Context, roomID uuid.UUID, userID string) (bool, error) {
	role, err := g.RoleOf(ctx, roomID, userID)
	return role.Valid(), err
}

func (g *Gateway) IsAdmin(ctx context.Context, roomID uuid.UUID, userID string) (bool, error) {
	role, err := g.RoleOf(ctx, roomID, userID)
	return role == models.RoleAdmin, err
}

// CanWriteInRoom is the right to create posts: any member may.
func (g *Gateway) CanWriteInRoom(ctx context.Context, roomID uuid.UUID, userID string) (bool, error) {
	return g.IsMember(ctx, roomID, userID)
}

// IsAuthor and CanEdit load the blog by id. Callers that already hold the
// blog row use IsAuthorOf and CanEditBlog instead of a second lookup.
func (g *Gateway) IsAuthor(ctx context.Context, blogID uuid.UUID, userID string) (bool, error) {
	blog, ok, err := g.blog(ctx, blogID)
	if !ok {
		return false, err
	}
	return IsAuthorOf(blog, userID), nil
}

// CanEdit allows the metadata-update path only while the blog is a draft.
func (g *Gateway) CanEdit(ctx context.Context, blogID uuid.UUID, userID string) (bool, error) {
	blog, ok, err := g.blog(ctx, blogID)
	if !ok {
		return false, err
	}
	return CanEditBlog(blog, userID), nil
}

func (g *Gateway) blog(ctx context.Context, blogID uuid.UUID) (*models.Blog, bool, error) {
	blog, err := g.store.FindBlog(ctx, blogID)
	if errs.IsNotFound(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return blog, blog != nil, nil
}

// IsAuthorOf checks an already loaded blog.
func IsAuthorOf(blog *models.Blog, userID string) bool {
	return blog != nil && userID != "" && blog.AuthorID == userID
}

// CanEditBlog is IsAuthorOf for a blog that is still a draft.
func CanEditBlog(blog *models.Blog, userID string) bool {
	return IsAuthorOf(blog, userID) && !blog.Published
}
