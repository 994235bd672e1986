package repository

import (
	"context"
	"fmt"
	"time"

	"backoffice-core/internal/entity"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ErrBuiltinAccount rejects destroy attempts on seeded accounts.
var ErrBuiltinAccount = fmt.Errorf("builtin account cannot be deleted")

// PlatformAccountRepository defines the interface for platform login sessions.
type PlatformAccountRepository interface {
	Create(ctx context.Context, account *entity.PlatformAccount) error
	Update(ctx context.Context, account *entity.PlatformAccount) error
	Delete(ctx context.Context, id uint) error
	GetByID(ctx context.Context, id uint) (*entity.PlatformAccount, error)
	GetActiveByPlatform(ctx context.Context, platform string) (*entity.PlatformAccount, error)
	UpdateCookieBundle(ctx context.Context, id uint, bundle datatypes.JSON, userAgent string) error
	MarkVerified(ctx context.Context, id uint, at time.Time) error
	SetStatus(ctx context.Context, id uint, status int) error
	List(ctx context.Context, scopes []func(*gorm.DB) *gorm.DB, offset, limit int) ([]entity.PlatformAccount, int64, error)
}

// NewPlatformAccountRepository creates a new instance of PlatformAccountRepository.
func NewPlatformAccountRepository(db *gorm.DB) PlatformAccountRepository {
	return &platformAccountRepository{db: db}
}

type platformAccountRepository struct {
	db *gorm.DB
}

func (r *platformAccountRepository) Create(ctx context.Context, account *entity.PlatformAccount) error {
	return r.db.WithContext(ctx).Create(account).Error
}

func (r *platformAccountRepository) Update(ctx context.Context, account *entity.PlatformAccount) error {
	return r.db.WithContext(ctx).Save(account).Error
}

func (r *platformAccountRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var account entity.PlatformAccount
		if err := tx.First(&account, id).Error; err != nil {
			return err
		}
		if account.IsBuiltin {
			return ErrBuiltinAccount
		}
		return tx.Delete(&account).Error
	})
}

func (r *platformAccountRepository) GetByID(ctx context.Context, id uint) (*entity.PlatformAccount, error) {
	var account entity.PlatformAccount
	if err := r.db.WithContext(ctx).First(&account, id).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

// GetActiveByPlatform returns the most recently verified enabled account for
// a platform.
func (r *platformAccountRepository) GetActiveByPlatform(ctx context.Context, platform string) (*entity.PlatformAccount, error) {
	var account entity.PlatformAccount
	err := r.db.WithContext(ctx).
		Where("platform = ?", platform).
		Where("status = ?", entity.StatusEnabled).
		Order("last_verified_at DESC").
		First(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *platformAccountRepository) UpdateCookieBundle(ctx context.Context, id uint, bundle datatypes.JSON, userAgent string) error {
	updates := map[string]interface{}{"cookie_bundle": bundle}
	if userAgent != "" {
		updates["user_agent"] = userAgent
	}
	return r.db.WithContext(ctx).Model(&entity.PlatformAccount{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// MarkVerified records a successful verification. A live session also
// re-enables the account; verification is the only path that flips status
// automatically.
func (r *platformAccountRepository) MarkVerified(ctx context.Context, id uint, at time.Time) error {
	return r.db.WithContext(ctx).Model(&entity.PlatformAccount{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"last_verified_at": at,
			"status":           entity.StatusEnabled,
		}).Error
}

func (r *platformAccountRepository) SetStatus(ctx context.Context, id uint, status int) error {
	return r.db.WithContext(ctx).Model(&entity.PlatformAccount{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *platformAccountRepository) List(ctx context.Context, scopes []func(*gorm.DB) *gorm.DB, offset, limit int) ([]entity.PlatformAccount, int64, error) {
	var (
		accounts []entity.PlatformAccount
		total    int64
	)
	q := r.db.WithContext(ctx).Model(&entity.PlatformAccount{}).Scopes(scopes...)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := q.Offset(offset).Limit(limit).Find(&accounts).Error; err != nil {
		return nil, 0, err
	}
	return accounts, total, nil
}
