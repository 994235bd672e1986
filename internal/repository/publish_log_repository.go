package repository

import (
	"context"
	"fmt"
	"time"

	"backoffice-core/internal/entity"

	"gorm.io/gorm"
)

// Errors surfaced to the admin layer with stable meanings.
var (
	ErrPublishInFlight     = fmt.Errorf("a publish for this article and platform is already pending or running")
	ErrPublishNotRetryable = fmt.Errorf("only failed publishes can be retried")
	ErrRetryLimitReached   = fmt.Errorf("retry limit reached")
	ErrDeleteRunning       = fmt.Errorf("a running publish log cannot be deleted")
)

// PublishLogRepository defines the interface for the publish state machine.
// At most one non-terminal log may exist per (article, platform); CreatePending
// enforces that inside a transaction.
type PublishLogRepository interface {
	CreatePending(ctx context.Context, log *entity.PublishLog) error
	GetByID(ctx context.Context, id uint) (*entity.PublishLog, error)
	MarkRunning(ctx context.Context, id uint, taskID string) error
	MarkSuccess(ctx context.Context, id uint, platformArticleID, platformURL string, at time.Time) error
	MarkFailure(ctx context.Context, id uint, message string) error
	ResetForRetry(ctx context.Context, id uint) (*entity.PublishLog, error)
	Delete(ctx context.Context, id uint) error
	DeleteBatch(ctx context.Context, ids []uint) error
	List(ctx context.Context, scopes []func(*gorm.DB) *gorm.DB, offset, limit int) ([]entity.PublishLog, int64, error)
}

// NewPublishLogRepository creates a new instance of PublishLogRepository.
func NewPublishLogRepository(db *gorm.DB) PublishLogRepository {
	return &publishLogRepository{db: db}
}

type publishLogRepository struct {
	db *gorm.DB
}

func (r *publishLogRepository) CreatePending(ctx context.Context, log *entity.PublishLog) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var inFlight int64
		err := tx.Model(&entity.PublishLog{}).
			Where("article_id = ? AND platform = ?", log.ArticleID, log.Platform).
			Where("status IN ?", []string{entity.PublishStatusPending, entity.PublishStatusRunning}).
			Count(&inFlight).Error
		if err != nil {
			return err
		}
		if inFlight > 0 {
			return ErrPublishInFlight
		}
		log.Status = entity.PublishStatusPending
		return tx.Create(log).Error
	})
}

func (r *publishLogRepository) GetByID(ctx context.Context, id uint) (*entity.PublishLog, error) {
	var log entity.PublishLog
	if err := r.db.WithContext(ctx).First(&log, id).Error; err != nil {
		return nil, err
	}
	return &log, nil
}

func (r *publishLogRepository) MarkRunning(ctx context.Context, id uint, taskID string) error {
	return r.db.WithContext(ctx).Model(&entity.PublishLog{}).
		Where("id = ? AND status = ?", id, entity.PublishStatusPending).
		Updates(map[string]interface{}{
			"status":  entity.PublishStatusRunning,
			"task_id": taskID,
		}).Error
}

func (r *publishLogRepository) MarkSuccess(ctx context.Context, id uint, platformArticleID, platformURL string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&entity.PublishLog{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":              entity.PublishStatusSuccess,
			"platform_article_id": platformArticleID,
			"platform_url":        platformURL,
			"error_message":       nil,
			"published_at":        at,
		}).Error
}

// truncateErrorMessage caps a failure message at the column limit on a rune
// boundary; utf8mb4 rejects a byte-sliced multi-byte tail.
func truncateErrorMessage(message string) string {
	runes := []rune(message)
	if len(runes) <= entity.MaxErrorMessageLen {
		return message
	}
	return string(runes[:entity.MaxErrorMessageLen])
}

func (r *publishLogRepository) MarkFailure(ctx context.Context, id uint, message string) error {
	message = truncateErrorMessage(message)
	return r.db.WithContext(ctx).Model(&entity.PublishLog{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":        entity.PublishStatusFailure,
			"error_message": message,
		}).Error
}

// ResetForRetry flips a FAILURE log back to PENDING, bumping the retry
// counter under the cap.
func (r *publishLogRepository) ResetForRetry(ctx context.Context, id uint) (*entity.PublishLog, error) {
	var log entity.PublishLog
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&log, id).Error; err != nil {
			return err
		}
		if log.Status != entity.PublishStatusFailure {
			return ErrPublishNotRetryable
		}
		if log.RetryCount >= entity.MaxPublishRetries {
			return ErrRetryLimitReached
		}
		log.Status = entity.PublishStatusPending
		log.RetryCount++
		log.ErrorMessage = nil
		return tx.Model(&log).Updates(map[string]interface{}{
			"status":        log.Status,
			"retry_count":   log.RetryCount,
			"error_message": nil,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &log, nil
}

func (r *publishLogRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var log entity.PublishLog
		if err := tx.First(&log, id).Error; err != nil {
			return err
		}
		if log.Status == entity.PublishStatusRunning {
			return ErrDeleteRunning
		}
		return tx.Delete(&log).Error
	})
}

// DeleteBatch removes a set of logs in one transaction. A single RUNNING log
// in the set aborts the whole batch.
func (r *publishLogRepository) DeleteBatch(ctx context.Context, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var running int64
		err := tx.Model(&entity.PublishLog{}).
			Where("id IN ?", ids).
			Where("status = ?", entity.PublishStatusRunning).
			Count(&running).Error
		if err != nil {
			return err
		}
		if running > 0 {
			return ErrDeleteRunning
		}
		return tx.Where("id IN ?", ids).Delete(&entity.PublishLog{}).Error
	})
}

func (r *publishLogRepository) List(ctx context.Context, scopes []func(*gorm.DB) *gorm.DB, offset, limit int) ([]entity.PublishLog, int64, error) {
	var (
		logs  []entity.PublishLog
		total int64
	)
	q := r.db.WithContext(ctx).Model(&entity.PublishLog{}).Scopes(scopes...)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := q.Order("id DESC").Offset(offset).Limit(limit).Find(&logs).Error; err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}
