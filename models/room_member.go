package models

import (
	"time"

	"github.com/google/uuid"
)

// MemberRole is the role a user holds inside a room
type MemberRole string

const (
	RoleAdmin  MemberRole = "admin"
	RoleMember MemberRole = "member"
)

func (r MemberRole) Valid() bool {
	return r == RoleAdmin || r == RoleMember
}

// RoomMember links a user to a room. There is at most one row per (room, user).
type RoomMember struct {
	ID       uuid.UUID  `json:"id" db:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid();not null"`
	RoomID   uuid.UUID  `json:"room_id" db:"room_id" gorm:"type:uuid;not null;uniqueIndex:idx_room_members_room_user"`
	UserID   string     `json:"user_id" db:"user_id" gorm:"type:text;not null;uniqueIndex:idx_room_members_room_user;index:idx_room_members_user"`
	Role     MemberRole `json:"role" db:"role" gorm:"type:text;not null;default:member"`
	JoinedAt time.Time  `json:"joined_at" db:"joined_at" gorm:"type:timestamptz;not null;default:CURRENT_TIMESTAMP"`

	Room Room `json:"-" gorm:"foreignKey:RoomID;references:ID;constraint:OnDelete:CASCADE"`
}

func (RoomMember) TableName() string { return "room_members" }

// MemberWithProfile is a room member joined with the public profile columns
type MemberWithProfile struct {
	RoomID      uuid.UUID  `json:"room_id"`
	UserID      string     `json:"user_id"`
	Role        MemberRole `json:"role"`
	JoinedAt    time.Time  `json:"joined_at"`
	DisplayName *string    `json:"display_name,omitempty"`
	AvatarURL   *string    `json:"avatar_url,omitempty"`
}
