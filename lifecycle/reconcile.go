package lifecycle

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/rpupo63/rooms-blog-backend/content"
	"github.com/rpupo63/rooms-blog-backend/errs"
	"github.com/rpupo63/rooms-blog-backend/models"
	"github.com/rpupo63/rooms-blog-backend/saga"
	"gorm.io/datatypes"
)

// sagaFailed maps a failed run onto the error the caller sees. A fully
// compensated run surfaces the step's own error. Anything that left state
// behind is flagged for reconciliation and reported as a partial failure.
func (m *Manager) sagaFailed(ctx context.Context, operation string, blogID uuid.UUID, err error, refs []models.DocumentRef, snapshot content.BlogDocument) error {
	var sagaErr *saga.Error
	if !errors.As(err, &sagaErr) || sagaErr.Clean() {
		return asDependencyFailure(operation, err)
	}

	m.flag(ctx, operation, blogID, sagaErr, refs, snapshot)
	return errs.NewPartialFailureError(operation, sagaErr.FailedSteps(), sagaErr)
}

func (m *Manager) flag(ctx context.Context, operation string, blogID uuid.UUID, sagaErr *saga.Error, refs []models.DocumentRef, snapshot content.BlogDocument) {
	ids := make([]string, 0, len(refs))
	for _, ref := range refs {
		ids = append(ids, ref.ID())
	}
	idsJSON, _ := json.Marshal(ids)
	snapshotJSON, marshalErr := json.Marshal(snapshot)
	if marshalErr != nil {
		m.logger.Error().Err(marshalErr).Msg("could not snapshot document for reconciliation")
	}

	task := &models.ReconciliationTask{
		ID:          uuid.New(),
		BlogID:      blogID,
		Operation:   operation,
		FailedStep:  sagaErr.Step,
		Reason:      sagaErr.Error(),
		DocumentIDs: datatypes.JSON(idsJSON),
		Snapshot:    datatypes.JSON(snapshotJSON),
		CreatedAt:   m.now(),
	}

	m.logger.Error().
		Err(sagaErr.Err).
		Str("operation", operation).
		Str("blogID", blogID.String()).
		Strs("documentIDs", ids).
		Strs("failedSteps", sagaErr.FailedSteps()).
		Msg("cross-store state left inconsistent, flagging for reconciliation")

	if m.reconciler == nil {
		return
	}
	// the request may already be gone; the task must still be written
	if err := m.reconciler.Flag(context.WithoutCancel(ctx), task); err != nil {
		m.logger.Error().Err(err).Str("blogID", blogID.String()).Msg("failed to record reconciliation task")
	}
}
