package database

import (
	"context"

	"github.com/rpupo63/rooms-blog-backend/errs"
	"github.com/rpupo63/rooms-blog-backend/models"
	"gorm.io/gorm"
)

type ReconciliationRepo struct {
	db *gorm.DB
}

func NewReconciliationRepo(db *gorm.DB) *ReconciliationRepo {
	return &ReconciliationRepo{db}
}

// Add records a cross-store inconsistency for an operator
func (r *ReconciliationRepo) Add(ctx context.Context, task *models.ReconciliationTask) error {
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return errs.NewDatabaseError("create", "reconciliation task", err)
	}
	return nil
}

// CountOpen returns how many tasks are still unresolved
func (r *ReconciliationRepo) CountOpen(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ReconciliationTask{}).
		Where("resolved_at IS NULL").
		Count(&count).Error
	if err != nil {
		return 0, errs.NewDatabaseError("count", "reconciliation tasks", err)
	}
	return count, nil
}
