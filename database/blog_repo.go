package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rpupo63/rooms-blog-backend/errs"
	"github.com/rpupo63/rooms-blog-backend/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BlogRepo struct {
	db *gorm.DB
}

func NewBlogRepo(db *gorm.DB) *BlogRepo {
	return &BlogRepo{db}
}

// GetDB returns the underlying database connection for debugging purposes
func (r *BlogRepo) GetDB() *gorm.DB {
	return r.db
}

// FindByID returns a blog by its ID
func (r *BlogRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Blog, error) {
	var blog models.Blog
	if err := r.db.WithContext(ctx).First(&blog, "id = ?", id).Error; err != nil {
		return nil, errs.NewDatabaseError("find", "blog", err)
	}
	return &blog, nil
}

// FindBySlug returns the blog with the given slug inside a room
func (r *BlogRepo) FindBySlug(ctx context.Context, roomID uuid.UUID, slug string) (*models.Blog, error) {
	var blog models.Blog
	err := r.db.WithContext(ctx).
		Where("room_id = ? AND slug = ?", roomID, slug).
		First(&blog).Error
	if err != nil {
		return nil, errs.NewDatabaseError("find", "blog", err)
	}
	return &blog, nil
}

// SlugsInRoom lists every blog slug already used in a room
func (r *BlogRepo) SlugsInRoom(ctx context.Context, roomID uuid.UUID) ([]string, error) {
	var slugs []string
	err := r.db.WithContext(ctx).
		Model(&models.Blog{}).
		Where("room_id = ?", roomID).
		Pluck("slug", &slugs).Error
	if err != nil {
		return nil, errs.NewDatabaseError("list slugs of", "blogs", err)
	}
	return slugs, nil
}

// Add inserts a new blog into the database
func (r *BlogRepo) Add(ctx context.Context, blog *models.Blog) error {
	if err := r.db.WithContext(ctx).Create(blog).Error; err != nil {
		return errs.NewDatabaseError("create", "blog", err)
	}
	return nil
}

// UpdateMetadata writes the projected title/excerpt columns and returns the
// updated row.
func (r *BlogRepo) UpdateMetadata(ctx context.Context, id uuid.UUID, update models.BlogMetadataUpdate) (*models.Blog, error) {
	if update.UpdatedAt.IsZero() {
		update.UpdatedAt = time.Now().UTC()
	}
	columns := map[string]any{"updated_at": update.UpdatedAt}
	if update.Title != nil {
		columns["title"] = *update.Title
	}
	switch {
	case update.ClearExcerpt:
		columns["excerpt"] = nil
	case update.Excerpt != nil:
		columns["excerpt"] = *update.Excerpt
	}

	var blog models.Blog
	res := r.db.WithContext(ctx).
		Model(&blog).
		Clauses(clause.Returning{}).
		Where("id = ?", id).
		Updates(columns)
	if res.Error != nil {
		return nil, errs.NewDatabaseError("update", "blog", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, errs.NewNotFound("blog")
	}
	return &blog, nil
}

// MarkPublished flips published to true only if it is still false, pointing
// the row at the published document. Losing the race returns an
// already-published error.
func (r *BlogRepo) MarkPublished(ctx context.Context, id uuid.UUID, ref models.PublishedRef, at time.Time) (*models.Blog, error) {
	var blog models.Blog
	res := r.db.WithContext(ctx).
		Model(&blog).
		Clauses(clause.Returning{}).
		Where("id = ? AND published = ?", id, false).
		Updates(map[string]any{
			"published":    true,
			"published_at": at,
			"sanity_id":    ref.ID(),
			"updated_at":   at,
		})
	if res.Error != nil {
		return nil, errs.NewDatabaseError("publish", "blog", res.Error)
	}
	if res.RowsAffected == 1 {
		return &blog, nil
	}

	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Blog{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return nil, errs.NewDatabaseError("find", "blog", err)
	}
	if count == 0 {
		return nil, errs.NewNotFound("blog")
	}
	return nil, errs.NewAlreadyPublishedError()
}

// CountPublished returns the number of published blogs in a room
func (r *BlogRepo) CountPublished(ctx context.Context, roomID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Blog{}).
		Where("room_id = ? AND published = ?", roomID, true).
		Count(&count).Error
	if err != nil {
		return 0, errs.NewDatabaseError("count", "blogs", err)
	}
	return count, nil
}
