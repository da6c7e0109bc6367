// Package lifecycle keeps a blog's relational row and its content-store
// document in step. The two stores share no transaction, so create and
// publish run as sagas with compensating steps.
package lifecycle

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rpupo63/rooms-blog-backend/content"
	"github.com/rpupo63/rooms-blog-backend/errs"
	"github.com/rpupo63/rooms-blog-backend/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// RoomStore reads rooms. Misses are errs NotFound errors.
type RoomStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Room, error)
	FindBySlug(ctx context.Context, slug string) (*models.Room, error)
}

// BlogStore is the relational side of a blog. MarkPublished must only succeed
// while the row is still unpublished and report errs AlreadyPublished
// otherwise.
type BlogStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Blog, error)
	FindBySlug(ctx context.Context, roomID uuid.UUID, slug string) (*models.Blog, error)
	SlugsInRoom(ctx context.Context, roomID uuid.UUID) ([]string, error)
	Add(ctx context.Context, blog *models.Blog) error
	UpdateMetadata(ctx context.Context, id uuid.UUID, update models.BlogMetadataUpdate) (*models.Blog, error)
	MarkPublished(ctx context.Context, id uuid.UUID, ref models.PublishedRef, at time.Time) (*models.Blog, error)
}

// Permissions answers room membership questions.
type Permissions interface {
	CanWriteInRoom(ctx context.Context, roomID uuid.UUID, userID string) (bool, error)
	IsMember(ctx context.Context, roomID uuid.UUID, userID string) (bool, error)
}

// Reconciler records state the sagas could not clean up.
type Reconciler interface {
	Flag(ctx context.Context, task *models.ReconciliationTask) error
}

type Manager struct {
	rooms      RoomStore
	blogs      BlogStore
	content    content.Store
	perms      Permissions
	reconciler Reconciler
	now        func() time.Time
	logger     zerolog.Logger
}

func WithClock(now func() time.Time) func(*Manager) {
	return func(m *Manager) {
		m.now = now
	}
}

func WithLogger(logger zerolog.Logger) func(*Manager) {
	return func(m *Manager) {
		m.logger = logger
	}
}

func NewManager(rooms RoomStore, blogs BlogStore, store content.Store, perms Permissions, reconciler Reconciler, opts ...func(*Manager)) *Manager {
	m := &Manager{
		rooms:      rooms,
		blogs:      blogs,
		content:    store,
		perms:      perms,
		reconciler: reconciler,
		now:        func() time.Time { return time.Now().UTC() },
		logger:     log.With().Str("component", "blogLifecycle").Logger(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// authorize turns a permission answer into an error. Lookup failures deny.
func (m *Manager) authorize(allowed bool, err error, operation, message string) error {
	if err != nil {
		m.logger.Error().Err(err).Str("operation", operation).Msg("permission lookup failed, denying")
		denied := errs.NewPermissionDeniedError(message)
		denied.Cause = err
		return denied
	}
	if !allowed {
		return errs.NewPermissionDeniedError(message)
	}
	return nil
}

func requireCaller(userID string) error {
	if userID == "" {
		return errs.Unauthorized
	}
	return nil
}

// storeFailure keeps the errors a caller can act on (missing entities and
// conflicts) and reports anything else as a failure of the named store.
func storeFailure(store, operation string, err error) error {
	if err == nil {
		return nil
	}
	var apiErr *errs.ApiErr
	if errors.As(err, &apiErr) {
		switch {
		case errs.IsNotFound(apiErr), errs.IsConflict(apiErr), errs.IsAlreadyExists(apiErr), errs.IsDependencyFailure(apiErr):
			return apiErr
		}
	}
	return errs.NewDependencyFailure(store, operation, err)
}

func asDependencyFailure(operation string, err error) error {
	return storeFailure("content store", operation, err)
}

func dbFailure(operation string, err error) error {
	return storeFailure("database", operation, err)
}
