package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/rpupo63/rooms-blog-backend/errs"
	"github.com/rpupo63/rooms-blog-backend/models"
	"gorm.io/gorm"
)

type RoomMemberRepo struct {
	db *gorm.DB
}

func NewRoomMemberRepo(db *gorm.DB) *RoomMemberRepo {
	return &RoomMemberRepo{db}
}

// GetDB returns the underlying database connection for debugging purposes
func (r *RoomMemberRepo) GetDB() *gorm.DB {
	return r.db
}

// FindRole returns the role of a user inside a room
func (r *RoomMemberRepo) FindRole(ctx context.Context, roomID uuid.UUID, userID string) (models.MemberRole, error) {
	var member models.RoomMember
	err := r.db.WithContext(ctx).
		Select("role").
		Where("room_id = ? AND user_id = ?", roomID, userID).
		First(&member).Error
	if err != nil {
		return "", errs.NewDatabaseError("find", "room member", err)
	}
	return member.Role, nil
}

// Add inserts a membership. A second row for the same (room, user) is an
// already-member conflict.
func (r *RoomMemberRepo) Add(ctx context.Context, member *models.RoomMember) error {
	if err := r.db.WithContext(ctx).Create(member).Error; err != nil {
		if errs.IsUniqueViolation(err) {
			return errs.NewAlreadyMemberError()
		}
		return errs.NewDatabaseError("create", "room member", err)
	}
	return nil
}

// Count returns the number of members in a room
func (r *RoomMemberRepo) Count(ctx context.Context, roomID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.RoomMember{}).Where("room_id = ?", roomID).Count(&count).Error
	if err != nil {
		return 0, errs.NewDatabaseError("count", "room members", err)
	}
	return count, nil
}

// ListWithProfiles returns the members of a room joined with their public
// profile, oldest first
func (r *RoomMemberRepo) ListWithProfiles(ctx context.Context, roomID uuid.UUID) ([]models.MemberWithProfile, error) {
	var members []models.MemberWithProfile
	err := r.db.WithContext(ctx).
		Table("room_members AS m").
		Select("m.room_id, m.user_id, m.role, m.joined_at, p.display_name, p.avatar_url").
		Joins("LEFT JOIN profiles AS p ON p.id = m.user_id").
		Where("m.room_id = ?", roomID).
		Order("m.joined_at ASC").
		Scan(&members).Error
	if err != nil {
		return nil, errs.NewDatabaseError("list", "room members", err)
	}
	return members, nil
}
