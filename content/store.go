// Package content talks to the headless content store that owns blog bodies.
// Documents are keyed by caller supplied ids so a draft can be re-created
// under a new published identity.
package content

import (
	"context"

	"github.com/rpupo63/rooms-blog-backend/models"
)

// Store is the narrow contract the blog lifecycle needs. No operation is
// transactional across documents. Get returns an errs NotFound error when the
// document does not exist.
type Store interface {
	Create(ctx context.Context, ref models.DocumentRef, doc BlogDocument) error
	Patch(ctx context.Context, ref models.DocumentRef, patch DocumentPatch) error
	Delete(ctx context.Context, ref models.DocumentRef) error
	Get(ctx context.Context, ref models.DocumentRef) (*BlogDocument, error)
}
