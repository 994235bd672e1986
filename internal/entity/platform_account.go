package entity

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Content platforms supported by the publisher.
const (
	PlatformZhihu  = "zhihu"
	PlatformJuejin = "juejin"
)

// PlatformAccount holds one captured login session on a content platform.
// The cookie bundle is write-only from the operator's perspective and must be
// masked in list responses.
type PlatformAccount struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	Platform       string         `gorm:"type:varchar(32);index;not null" json:"platform"`
	AccountName    string         `gorm:"type:varchar(64);not null" json:"account_name"`
	CookieBundle   datatypes.JSON `gorm:"type:json" json:"-"`
	UserAgent      string         `gorm:"type:varchar(512)" json:"user_agent"`
	Status         int            `gorm:"default:1" json:"status"`
	IsBuiltin      bool           `gorm:"default:false" json:"is_builtin"`
	LastVerifiedAt *time.Time     `json:"last_verified_at"`
	CreatedAt      time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

func (PlatformAccount) TableName() string {
	return TablePrefix + "publisher_platform_accounts"
}
