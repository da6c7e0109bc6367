package database

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rpupo63/rooms-blog-backend/errs"
	"github.com/rpupo63/rooms-blog-backend/models"
	"gorm.io/gorm"
)

// Unique index names on the rooms table
const (
	RoomSlugIndex     = "idx_rooms_slug"
	RoomJoinCodeIndex = "idx_rooms_join_code"
)

type RoomRepo struct {
	db *gorm.DB
}

func NewRoomRepo(db *gorm.DB) *RoomRepo {
	return &RoomRepo{db}
}

// GetDB returns the underlying database connection for debugging purposes
func (r *RoomRepo) GetDB() *gorm.DB {
	return r.db
}

// FindByID returns a room by its ID
func (r *RoomRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Room, error) {
	var room models.Room
	if err := r.db.WithContext(ctx).First(&room, "id = ?", id).Error; err != nil {
		return nil, errs.NewDatabaseError("find", "room", err)
	}
	return &room, nil
}

// FindBySlug returns a room by its slug
func (r *RoomRepo) FindBySlug(ctx context.Context, slug string) (*models.Room, error) {
	var room models.Room
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&room).Error; err != nil {
		return nil, errs.NewDatabaseError("find", "room", err)
	}
	return &room, nil
}

// FindByJoinCode returns the room a join code opens
func (r *RoomRepo) FindByJoinCode(ctx context.Context, code string) (*models.Room, error) {
	var room models.Room
	if err := r.db.WithContext(ctx).Where("join_code = ?", code).First(&room).Error; err != nil {
		return nil, errs.NewDatabaseError("find", "room", err)
	}
	return &room, nil
}

// JoinCodeExists reports whether a join code is already assigned
func (r *RoomRepo) JoinCodeExists(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Room{}).Where("join_code = ?", code).Count(&count).Error
	if err != nil {
		return false, errs.NewDatabaseError("check", "join code", err)
	}
	return count > 0, nil
}

// SlugsWithPrefix lists room slugs starting with prefix, for suffixing
func (r *RoomRepo) SlugsWithPrefix(ctx context.Context, prefix string) ([]string, error) {
	var slugs []string
	err := r.db.WithContext(ctx).
		Model(&models.Room{}).
		Where("slug LIKE ?", escapeLike(prefix)+"%").
		Pluck("slug", &slugs).Error
	if err != nil {
		return nil, errs.NewDatabaseError("list slugs of", "rooms", err)
	}
	return slugs, nil
}

// CreateWithAdmin inserts the room and its creator's admin membership in one
// transaction.
func (r *RoomRepo) CreateWithAdmin(ctx context.Context, room *models.Room) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(room).Error; err != nil {
			return err
		}
		return tx.Create(&models.RoomMember{
			RoomID: room.ID,
			UserID: room.CreatedBy,
			Role:   models.RoleAdmin,
		}).Error
	})
	if err == nil {
		return nil
	}

	switch {
	case errs.ViolatedConstraint(err, RoomSlugIndex):
		return errs.NewConflictError("A room with this name already exists. Please try a different name.")
	case errs.ViolatedConstraint(err, RoomJoinCodeIndex):
		return errs.NewConflictError("Join code conflict. Please try again.")
	}
	return errs.NewDatabaseError("create", "room", err)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
