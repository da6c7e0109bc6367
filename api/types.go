package api

import (
	"context"
	"io"

	"github.com/google/uuid"
	"github.com/rpupo63/rooms-blog-backend/content"
	"github.com/rpupo63/rooms-blog-backend/lifecycle"
	"github.com/rpupo63/rooms-blog-backend/models"
	"github.com/rpupo63/rooms-blog-backend/rooms"
	"github.com/rpupo63/rooms-blog-backend/services"
)

// BlogLifecycle drives drafts through creation, editing and publishing.
type BlogLifecycle interface {
	CreateDraft(ctx context.Context, userID string, in lifecycle.CreateInput) (*models.Blog, error)
	UpdateDraft(ctx context.Context, userID string, blogID uuid.UUID, in lifecycle.UpdateInput) (*models.Blog, error)
	Edit(ctx context.Context, userID string, blogID uuid.UUID, in lifecycle.EditInput) (*models.Blog, error)
	Publish(ctx context.Context, userID string, blogID uuid.UUID) (*models.Blog, error)
	FetchForEdit(ctx context.Context, userID, roomSlug, blogSlug string) (*models.Blog, *content.BlogDocument, error)
}

type RoomService interface {
	Create(ctx context.Context, userID string, in rooms.CreateInput) (*models.Room, error)
	Join(ctx context.Context, userID, code string) (*models.Room, error)
	Get(ctx context.Context, userID, roomSlug string) (*rooms.Summary, error)
	Members(ctx context.Context, userID, roomSlug string) ([]models.MemberWithProfile, error)
}

type ImageUploader interface {
	Upload(ctx context.Context, userID string, roomID uuid.UUID, file io.Reader) (*services.UploadedImage, error)
}

type DraftGenerator interface {
	Generate(ctx context.Context, in services.GenerateInput) (*services.GeneratedDraft, error)
}

// ReconciliationCounter reports how many flagged tasks are still open.
type ReconciliationCounter interface {
	CountOpen(ctx context.Context) (int64, error)
}

// routeHandlers contains all the handlers for different route types
type routeHandlers struct {
	blogHandler   blogHandler
	roomHandler   roomHandler
	uploadHandler uploadHandler
	aiHandler     aiHandler
	healthHandler healthHandler
}

// ErrorResponse represents an error response from the API
// @Description Error response structure
type ErrorResponse struct {
	Error   string `json:"error" example:"Internal Server Error"`
	Status  string `json:"status" example:"error"`
	Field   string `json:"field,omitempty" example:"title"`
	Details string `json:"details,omitempty" example:"Additional error details"`
	Cause   string `json:"cause,omitempty" example:"Underlying error cause"`
}
