package models

import "time"

// Profile holds the public details of an auth user. Rows are written by the
// auth provider's signup hook; this service only reads them.
type Profile struct {
	ID          string    `json:"id" db:"id" gorm:"type:text;primaryKey;not null"`
	DisplayName *string   `json:"display_name,omitempty" db:"display_name" gorm:"type:text"`
	AvatarURL   *string   `json:"avatar_url,omitempty" db:"avatar_url" gorm:"type:text"`
	CreatedAt   time.Time `json:"created_at" db:"created_at" gorm:"type:timestamptz;not null;default:CURRENT_TIMESTAMP"`
}

func (Profile) TableName() string { return "profiles" }
