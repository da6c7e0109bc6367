package services

import (
	"context"
	"fmt"
	"html"
	"time"

	"github.com/rpupo63/rooms-blog-backend/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type ReconciliationStore interface {
	Add(ctx context.Context, task *models.ReconciliationTask) error
}

// Alerter tells operators about a task. It may be nil.
type Alerter interface {
	Alert(ctx context.Context, subject, body string) error
}

// Reconciler persists reconciliation tasks and alerts operators. Only a
// failed write is returned; a failed alert is logged.
type Reconciler struct {
	tasks   ReconciliationStore
	alerter Alerter
	logger  zerolog.Logger
}

func NewReconciler(tasks ReconciliationStore, alerter Alerter) *Reconciler {
	return &Reconciler{
		tasks:   tasks,
		alerter: alerter,
		logger:  log.With().Str("component", "reconciler").Logger(),
	}
}

func (r *Reconciler) Flag(ctx context.Context, task *models.ReconciliationTask) error {
	if err := r.tasks.Add(ctx, task); err != nil {
		return err
	}
	r.logger.Warn().
		Str("taskID", task.ID.String()).
		Str("blogID", task.BlogID.String()).
		Str("operation", task.Operation).
		Str("failedStep", task.FailedStep).
		Msg("reconciliation task recorded")

	if r.alerter == nil {
		return nil
	}
	subject := fmt.Sprintf("[rooms] %s of blog %s needs reconciliation", task.Operation, task.BlogID)
	if err := r.alerter.Alert(ctx, subject, alertBody(task)); err != nil {
		r.logger.Error().Err(err).Str("taskID", task.ID.String()).Msg("failed to send reconciliation alert")
	}
	return nil
}

func alertBody(task *models.ReconciliationTask) string {
	return fmt.Sprintf(
		"<p>Operation <b>%s</b> stopped at <b>%s</b> at %s.</p><p>Blog: %s<br>Documents: <code>%s</code></p><p>%s</p>",
		html.EscapeString(task.Operation),
		html.EscapeString(task.FailedStep),
		task.CreatedAt.Format(time.RFC3339),
		task.BlogID,
		html.EscapeString(string(task.DocumentIDs)),
		html.EscapeString(task.Reason),
	)
}
