package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ReconciliationTask records a cross-store inconsistency that could not be
// compensated automatically and needs an operator.
type ReconciliationTask struct {
	ID          uuid.UUID      `json:"id" db:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid();not null"`
	BlogID      uuid.UUID      `json:"blog_id" db:"blog_id" gorm:"type:uuid;not null;index:idx_reconciliation_blog"`
	Operation   string         `json:"operation" db:"operation" gorm:"type:text;not null"`
	FailedStep  string         `json:"failed_step" db:"failed_step" gorm:"type:text;not null"`
	Reason      string         `json:"reason" db:"reason" gorm:"type:text;not null"`
	DocumentIDs datatypes.JSON `json:"document_ids" db:"document_ids" gorm:"type:jsonb"`
	Snapshot    datatypes.JSON `json:"snapshot,omitempty" db:"snapshot" gorm:"type:jsonb"`
	CreatedAt   time.Time      `json:"created_at" db:"created_at" gorm:"type:timestamptz;not null;default:CURRENT_TIMESTAMP"`
	ResolvedAt  *time.Time     `json:"resolved_at,omitempty" db:"resolved_at" gorm:"type:timestamptz"`
}

func (ReconciliationTask) TableName() string { return "reconciliation_tasks" }
