package models

import (
	"time"

	"github.com/google/uuid"
)

// Blog is the relational metadata of a post. The body lives in the content
// store under SanityID, a draft document while Published is false and a
// published document afterwards.
type Blog struct {
	ID          uuid.UUID  `json:"id" db:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid();not null"`
	RoomID      uuid.UUID  `json:"room_id" db:"room_id" gorm:"type:uuid;not null;uniqueIndex:idx_blogs_room_slug"`
	AuthorID    string     `json:"author_id" db:"author_id" gorm:"type:text;not null;index:idx_blogs_author"`
	Title       string     `json:"title" db:"title" gorm:"type:text;not null"`
	Slug        string     `json:"slug" db:"slug" gorm:"type:text;not null;uniqueIndex:idx_blogs_room_slug"`
	Excerpt     *string    `json:"excerpt,omitempty" db:"excerpt" gorm:"type:text"`
	SanityID    string     `json:"sanity_id" db:"sanity_id" gorm:"column:sanity_id;type:text;not null;uniqueIndex:idx_blogs_sanity_id"`
	Published   bool       `json:"published" db:"published" gorm:"not null;default:false"`
	PublishedAt *time.Time `json:"published_at,omitempty" db:"published_at" gorm:"type:timestamptz"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at" gorm:"type:timestamptz;not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at" gorm:"type:timestamptz;not null;default:CURRENT_TIMESTAMP"`

	Room Room `json:"-" gorm:"foreignKey:RoomID;references:ID;constraint:OnDelete:CASCADE"`
}

func (Blog) TableName() string { return "blogs" }

// DocumentRef parses SanityID into its typed reference.
func (b Blog) DocumentRef() (DocumentRef, error) {
	return ParseDocumentRef(b.SanityID)
}

// BlogMetadataUpdate lists the relational columns an edit may touch. Nil
// fields are left alone; ClearExcerpt stores NULL.
type BlogMetadataUpdate struct {
	Title        *string
	Excerpt      *string
	ClearExcerpt bool
	UpdatedAt    time.Time
}

// Empty reports whether the update changes no metadata column.
func (u BlogMetadataUpdate) Empty() bool {
	return u.Title == nil && u.Excerpt == nil && !u.ClearExcerpt
}
