package entity

import (
	"time"

	"gorm.io/gorm"
)

// Article is an operator-authored Markdown article. The publisher consumes it
// read-only.
type Article struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	Title      string         `gorm:"type:varchar(255);not null" json:"title"`
	Content    string         `gorm:"type:longtext" json:"content"`
	Summary    string         `gorm:"type:varchar(512)" json:"summary"`
	CoverImage string         `gorm:"type:varchar(512)" json:"cover_image"`
	Category   string         `gorm:"type:varchar(64);index" json:"category"`
	Tags       []string       `gorm:"serializer:json;type:json" json:"tags"`
	Status     int            `gorm:"default:1" json:"status"`
	CreatedAt  time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Article) TableName() string {
	return TablePrefix + "publisher_articles"
}
