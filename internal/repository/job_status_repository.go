package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/vipul43/kiwis-monitor/internal/models"
	"gorm.io/gorm"
)

type JobStatusRepository struct {
	db *gorm.DB
}

func NewJobStatusRepository(db *gorm.DB) *JobStatusRepository {
	return &JobStatusRepository{db: db}
}

// GetLatest retrieves the most recent status row for the job kind, or nil if
// the job has never been started.
func (r *JobStatusRepository) GetLatest(ctx context.Context, userID string, kind models.JobKind) (*models.SyncJobStatus, error) {
	var status models.SyncJobStatus
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND job_kind = ?", userID, kind).
		Order("created_at DESC").
		First(&status)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest job status: %w", result.Error)
	}
	return &status, nil
}
