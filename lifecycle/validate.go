package lifecycle

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rpupo63/rooms-blog-backend/errs"
	"github.com/rpupo63/rooms-blog-backend/models"
)

const (
	minTitleLength   = 3
	maxTitleLength   = 200
	maxExcerptLength = 1000
)

// CreateInput is the body of a draft creation
type CreateInput struct {
	RoomID   string          `json:"roomId"`
	Title    string          `json:"title"`
	Content  models.Blocks   `json:"content"`
	Excerpt  *string         `json:"excerpt,omitempty"`
	Tone     models.Tone     `json:"tone"`
	Language models.Language `json:"language"`
}

// UpdateInput is a partial draft edit. Absent fields stay as they are.
type UpdateInput struct {
	Title   *string       `json:"title,omitempty"`
	Content models.Blocks `json:"content,omitempty"`
	Excerpt *string       `json:"excerpt,omitempty"`
}

// EditInput replaces title, content and excerpt of a blog in any state
type EditInput struct {
	Title   string        `json:"title"`
	Content models.Blocks `json:"content"`
	Excerpt *string       `json:"excerpt,omitempty"`
}

func (in CreateInput) validate() (uuid.UUID, error) {
	if strings.TrimSpace(in.RoomID) == "" {
		return uuid.Nil, errs.NewValidationError("roomId", "roomId is required")
	}
	roomID, err := uuid.Parse(in.RoomID)
	if err != nil {
		return uuid.Nil, errs.NewValidationError("roomId", "roomId must be a UUID")
	}
	if err := validateTitle(in.Title); err != nil {
		return uuid.Nil, err
	}
	if err := validateContent(in.Content); err != nil {
		return uuid.Nil, err
	}
	if err := validateExcerpt(in.Excerpt); err != nil {
		return uuid.Nil, err
	}
	if !in.Tone.Valid() {
		return uuid.Nil, errs.NewValidationError("tone", fmt.Sprintf("unsupported tone %q", in.Tone))
	}
	if !in.Language.Valid() {
		return uuid.Nil, errs.NewValidationError("language", fmt.Sprintf("unsupported language %q", in.Language))
	}
	return roomID, nil
}

func (in UpdateInput) validate() error {
	if in.Title != nil {
		if err := validateTitle(*in.Title); err != nil {
			return err
		}
	}
	if in.Content != nil {
		if err := validateContent(in.Content); err != nil {
			return err
		}
	}
	return validateExcerpt(in.Excerpt)
}

func (in EditInput) validate() error {
	if err := validateTitle(in.Title); err != nil {
		return err
	}
	if err := validateContent(in.Content); err != nil {
		return err
	}
	return validateExcerpt(in.Excerpt)
}

func validateTitle(title string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(title))
	if n < minTitleLength || n > maxTitleLength {
		return errs.NewValidationError("title", fmt.Sprintf("title must be between %d and %d characters", minTitleLength, maxTitleLength))
	}
	return nil
}

func validateContent(content models.Blocks) error {
	if len(content) == 0 {
		return errs.NewValidationError("content", "content must contain at least one block")
	}
	if err := content.Validate(); err != nil {
		return errs.NewValidationError("content", err.Error())
	}
	return nil
}

func validateExcerpt(excerpt *string) error {
	if excerpt != nil && utf8.RuneCountInString(*excerpt) > maxExcerptLength {
		return errs.NewValidationError("excerpt", fmt.Sprintf("excerpt must be at most %d characters", maxExcerptLength))
	}
	return nil
}

// excerptUpdate maps an optional excerpt onto the nullable column: absent
// leaves it alone, empty stores NULL.
func excerptUpdate(excerpt *string, update *models.BlogMetadataUpdate) {
	switch {
	case excerpt == nil:
	case *excerpt == "":
		update.ClearExcerpt = true
	default:
		update.Excerpt = excerpt
	}
}

func nullableExcerpt(excerpt *string) *string {
	if excerpt == nil || *excerpt == "" {
		return nil
	}
	e := *excerpt
	return &e
}

func derefExcerpt(excerpt *string) string {
	if excerpt == nil {
		return ""
	}
	return *excerpt
}
