package repository

import (
	"context"
	"encoding/json"
	"time"

	"backoffice-core/internal/entity"
	"backoffice-core/pkg/common"
	"backoffice-core/pkg/logger"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const sysConfigCacheTTL = 10 * time.Minute

// SysConfigRepository defines the interface for typed runtime configuration.
// Reads go through a per-group Redis cache; any write invalidates the group.
type SysConfigRepository interface {
	GetGroup(ctx context.Context, group string) (map[string]interface{}, error)
	GetKey(ctx context.Context, key string) (*entity.SysConfig, error)
	Set(ctx context.Context, cfg *entity.SysConfig) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context, scopes []func(*gorm.DB) *gorm.DB, offset, limit int) ([]entity.SysConfig, int64, error)
}

// NewSysConfigRepository creates a new instance of SysConfigRepository.
func NewSysConfigRepository(db *gorm.DB, cache redis.UniversalClient, log *logger.Logger) SysConfigRepository {
	return &sysConfigRepository{db: db, cache: cache, logger: log}
}

type sysConfigRepository struct {
	db     *gorm.DB
	cache  redis.UniversalClient
	logger *logger.Logger
}

func (r *sysConfigRepository) GetGroup(ctx context.Context, group string) (map[string]interface{}, error) {
	cacheKey := common.KeySysConfigGroup + group

	if r.cache != nil {
		raw, err := r.cache.Get(ctx, cacheKey).Result()
		if err == nil {
			var out map[string]interface{}
			if err := json.Unmarshal([]byte(raw), &out); err == nil {
				return out, nil
			}
		} else if err != redis.Nil {
			r.logger.Warn("sys_config cache read failed, falling back to db", logger.ErrorField(err))
		}
	}

	var rows []entity.SysConfig
	if err := r.db.WithContext(ctx).Where("config_group = ?", group).Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make(map[string]interface{}, len(rows))
	for i := range rows {
		v, err := rows[i].TypedValue()
		if err != nil {
			r.logger.Warn("skipping undecodable sys_config row",
				logger.StringField("config_key", rows[i].ConfigKey), logger.ErrorField(err))
			continue
		}
		out[rows[i].ConfigKey] = v
	}

	if r.cache != nil {
		if raw, err := json.Marshal(out); err == nil {
			if err := r.cache.Set(ctx, cacheKey, raw, sysConfigCacheTTL).Err(); err != nil {
				r.logger.Warn("sys_config cache write failed", logger.ErrorField(err))
			}
		}
	}
	return out, nil
}

func (r *sysConfigRepository) GetKey(ctx context.Context, key string) (*entity.SysConfig, error) {
	var cfg entity.SysConfig
	if err := r.db.WithContext(ctx).Where("config_key = ?", key).First(&cfg).Error; err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (r *sysConfigRepository) Set(ctx context.Context, cfg *entity.SysConfig) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "config_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"config_group", "config_value", "value_type", "remark", "updated_at"}),
	}).Create(cfg).Error
	if err != nil {
		return err
	}
	r.invalidate(ctx, cfg.ConfigGroup)
	return nil
}

func (r *sysConfigRepository) Delete(ctx context.Context, key string) error {
	var cfg entity.SysConfig
	if err := r.db.WithContext(ctx).Where("config_key = ?", key).First(&cfg).Error; err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Delete(&cfg).Error; err != nil {
		return err
	}
	r.invalidate(ctx, cfg.ConfigGroup)
	return nil
}

func (r *sysConfigRepository) List(ctx context.Context, scopes []func(*gorm.DB) *gorm.DB, offset, limit int) ([]entity.SysConfig, int64, error) {
	var (
		rows  []entity.SysConfig
		total int64
	)
	q := r.db.WithContext(ctx).Model(&entity.SysConfig{}).Scopes(scopes...)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := q.Order("config_group ASC, config_key ASC").Offset(offset).Limit(limit).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *sysConfigRepository) invalidate(ctx context.Context, group string) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Del(ctx, common.KeySysConfigGroup+group).Err(); err != nil {
		r.logger.Warn("sys_config cache invalidation failed",
			logger.StringField("config_group", group), logger.ErrorField(err))
	}
}
