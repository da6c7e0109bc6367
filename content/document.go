package content

import (
	"time"

	"github.com/rpupo63/rooms-blog-backend/models"
)

// DocumentType is the content store schema type of a blog body
const DocumentType = "blogPost"

// SlugField mirrors the content store's slug object.
type SlugField struct {
	Current string `json:"current"`
}

// BlogDocument is the body-of-record of a blog in the content store
type BlogDocument struct {
	ID          string          `json:"_id"`
	Type        string          `json:"_type"`
	Title       string          `json:"title"`
	Slug        SlugField       `json:"slug"`
	RoomSlug    string          `json:"roomSlug"`
	AuthorID    string          `json:"authorId"`
	Content     models.Blocks   `json:"content"`
	Excerpt     string          `json:"excerpt"`
	Tone        models.Tone     `json:"tone"`
	Language    models.Language `json:"language"`
	PublishedAt *time.Time      `json:"publishedAt,omitempty"`
}

// Clone returns a copy that does not share the content slice.
func (d BlogDocument) Clone() BlogDocument {
	c := d
	if d.Content != nil {
		c.Content = append(models.Blocks(nil), d.Content...)
	}
	if d.PublishedAt != nil {
		t := *d.PublishedAt
		c.PublishedAt = &t
	}
	return c
}

// DocumentPatch is a field-level update. Nil fields are left untouched.
type DocumentPatch struct {
	Title   *string
	Content models.Blocks
	Excerpt *string
}

func (p DocumentPatch) Empty() bool {
	return p.Title == nil && p.Content == nil && p.Excerpt == nil
}

// Apply writes the patch onto doc.
func (p DocumentPatch) Apply(doc *BlogDocument) {
	if p.Title != nil {
		doc.Title = *p.Title
	}
	if p.Content != nil {
		doc.Content = p.Content
	}
	if p.Excerpt != nil {
		doc.Excerpt = *p.Excerpt
	}
}
