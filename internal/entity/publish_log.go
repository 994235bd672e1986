package entity

import "time"

// Publish log statuses. PENDING and RUNNING are non-terminal; at most one
// non-terminal log may exist per (article, platform) at any moment.
const (
	PublishStatusPending = "PENDING"
	PublishStatusRunning = "RUNNING"
	PublishStatusSuccess = "SUCCESS"
	PublishStatusFailure = "FAILURE"
)

// MaxPublishRetries caps explicit retries of a FAILURE log.
const MaxPublishRetries = 3

// MaxErrorMessageLen truncates stored failure messages.
const MaxErrorMessageLen = 500

// PublishLog is the audit and state-machine row for one article-platform
// submission attempt.
type PublishLog struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	ArticleID         uint       `gorm:"index:idx_article_platform;not null" json:"article_id"`
	Platform          string     `gorm:"type:varchar(32);index:idx_article_platform;not null" json:"platform"`
	PlatformAccountID uint       `gorm:"not null" json:"platform_account_id"`
	Status            string     `gorm:"type:varchar(16);index;not null;default:PENDING" json:"status"`
	PlatformArticleID *string    `gorm:"type:varchar(64)" json:"platform_article_id"`
	PlatformURL       *string    `gorm:"type:varchar(512)" json:"platform_url"`
	ErrorMessage      *string    `gorm:"type:varchar(500)" json:"error_message"`
	RetryCount        int        `gorm:"default:0" json:"retry_count"`
	TaskID            *string    `gorm:"type:varchar(64)" json:"task_id"`
	PublishedAt       *time.Time `json:"published_at"`
	CreatedAt         time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (PublishLog) TableName() string {
	return TablePrefix + "publisher_publish_logs"
}

// Terminal reports whether the log reached a final state.
func (l *PublishLog) Terminal() bool {
	return l.Status == PublishStatusSuccess || l.Status == PublishStatusFailure
}
