package models

import (
	"time"

	"github.com/google/uuid"
)

// Room is a community space that users join with a four digit code
type Room struct {
	ID          uuid.UUID `json:"id" db:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid();not null"`
	Name        string    `json:"name" db:"name" gorm:"type:text;not null"`
	Slug        string    `json:"slug" db:"slug" gorm:"type:text;not null;uniqueIndex:idx_rooms_slug"`
	JoinCode    string    `json:"join_code" db:"join_code" gorm:"type:char(4);not null;uniqueIndex:idx_rooms_join_code"`
	Description *string   `json:"description,omitempty" db:"description" gorm:"type:text"`
	CreatedBy   string    `json:"created_by" db:"created_by" gorm:"type:text;not null;index:idx_rooms_created_by"`
	CreatedAt   time.Time `json:"created_at" db:"created_at" gorm:"type:timestamptz;not null;default:CURRENT_TIMESTAMP"`
}

func (Room) TableName() string { return "rooms" }
