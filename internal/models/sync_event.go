package models

import "time"

// SyncEvent is one progress/log event emitted by a sync job run. Events are
// written by the worker and reach the monitor twice: pushed over NATS and
// polled from the sync_event table. The same struct serves both transports.
type SyncEvent struct {
	ID        string    `gorm:"column:id;primaryKey" json:"id"`
	UserID    string    `gorm:"column:user_id;index" json:"user_id"`
	JobKind   JobKind   `gorm:"column:job_kind;index" json:"job_kind"`
	RunID     string    `gorm:"column:run_id;index" json:"run_id"`
	Message   string    `gorm:"column:message" json:"message"`
	Timestamp time.Time `gorm:"column:event_time;index" json:"timestamp"`
}

// TableName specifies the table name for GORM
func (SyncEvent) TableName() string {
	return "sync_event"
}

// LogEntry is an admitted event (or a monitor-generated notice) as shown in
// the activity log. Append-only; removed only by clearing the whole log.
type LogEntry struct {
	ID        string
	JobKind   JobKind
	Message   string
	Timestamp time.Time
}

// ConnectionState describes whether the user's Google account integration is
// currently authorized.
type ConnectionState struct {
	Authorized     bool
	LastVerifiedAt *time.Time
}
