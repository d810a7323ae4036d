package models

import "time"

// SyncJobStatus is the worker-owned status row for one run of a sync job.
// The monitor only reads these rows; a new row is inserted by the worker on
// every start/restart with a fresh run_id.
type SyncJobStatus struct {
	ID             string       `gorm:"column:id;primaryKey"`
	UserID         string       `gorm:"column:user_id;index"`
	JobKind        JobKind      `gorm:"column:job_kind;index"`
	RunID          string       `gorm:"column:run_id"`
	Lifecycle      JobLifecycle `gorm:"column:lifecycle"`
	ErrorMessage   *string      `gorm:"column:error_message"`
	TotalUnits     *int         `gorm:"column:total_units"`
	ProcessedUnits *int         `gorm:"column:processed_units"`
	StartedAt      *time.Time   `gorm:"column:started_at"`
	CompletedAt    *time.Time   `gorm:"column:completed_at"`
	CreatedAt      time.Time    `gorm:"column:created_at"`
	UpdatedAt      time.Time    `gorm:"column:updated_at"`
}

// TableName specifies the table name for GORM
func (SyncJobStatus) TableName() string {
	return "sync_job_status"
}
