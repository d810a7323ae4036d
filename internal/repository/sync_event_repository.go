package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/vipul43/kiwis-monitor/internal/models"
	"gorm.io/gorm"
)

type SyncEventRepository struct {
	db *gorm.DB
}

func NewSyncEventRepository(db *gorm.DB) *SyncEventRepository {
	return &SyncEventRepository{db: db}
}

// EventsSince retrieves events for a run after the given cursor timestamp,
// in ascending time order, bounded by limit. A nil cursor returns the run's
// events from the beginning.
func (r *SyncEventRepository) EventsSince(ctx context.Context, userID string, kind models.JobKind, runID string, since *time.Time, limit int) ([]models.SyncEvent, error) {
	query := r.db.WithContext(ctx).
		Where("user_id = ? AND job_kind = ? AND run_id = ?", userID, kind, runID)
	if since != nil {
		query = query.Where("event_time > ?", *since)
	}

	var events []models.SyncEvent
	result := query.Order("event_time ASC").Limit(limit).Find(&events)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to query sync events: %w", result.Error)
	}
	return events, nil
}
