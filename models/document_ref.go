package models

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const (
	draftPrefix     = "draft-"
	publishedPrefix = "published-"
)

// DocumentRef identifies a content-store document. It is either a DraftRef or
// a PublishedRef; both share the random token so a draft maps to exactly one
// published identity.
type DocumentRef interface {
	ID() string
	Token() string
	IsPublished() bool
	documentRef()
}

// DraftRef points at the mutable draft copy of a post
type DraftRef struct {
	token string
}

// NewDraftRef allocates a fresh draft identity.
func NewDraftRef() DraftRef {
	return DraftRef{token: strings.ReplaceAll(uuid.NewString(), "-", "")}
}

// DraftRefFromToken rebuilds a draft reference from its token.
func DraftRefFromToken(token string) DraftRef {
	return DraftRef{token: token}
}

func (d DraftRef) ID() string        { return draftPrefix + d.token }
func (d DraftRef) Token() string     { return d.token }
func (d DraftRef) IsPublished() bool { return false }
func (DraftRef) documentRef()        {}

// Published returns the identity the draft takes once published.
func (d DraftRef) Published() PublishedRef {
	return PublishedRef{token: d.token}
}

// PublishedRef points at the immutable published copy of a post
type PublishedRef struct {
	token string
}

func (p PublishedRef) ID() string        { return publishedPrefix + p.token }
func (p PublishedRef) Token() string     { return p.token }
func (p PublishedRef) IsPublished() bool { return true }
func (PublishedRef) documentRef()        {}

// ParseDocumentRef turns a stored document id back into its typed reference.
func ParseDocumentRef(id string) (DocumentRef, error) {
	switch {
	case strings.HasPrefix(id, draftPrefix) && len(id) > len(draftPrefix):
		return DraftRef{token: strings.TrimPrefix(id, draftPrefix)}, nil
	case strings.HasPrefix(id, publishedPrefix) && len(id) > len(publishedPrefix):
		return PublishedRef{token: strings.TrimPrefix(id, publishedPrefix)}, nil
	default:
		return nil, fmt.Errorf("unrecognised content document id %q", id)
	}
}
