package queue

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Task types routed by the worker service.
const (
	TaskSyncStockList    = "sync:stock_list"
	TaskSyncIndustryList = "sync:industry_list"
	TaskSyncConceptList  = "sync:concept_list"

	// Fanout tasks enqueue one per-target task per parent.
	TaskFanoutIndustryRelation = "fanout:industry_relation"
	TaskFanoutConceptRelation  = "fanout:concept_relation"
	TaskFanoutKline1D          = "fanout:kline_1d"

	// Per-target tasks carry a payload naming their target.
	TaskSyncIndustryRelation = "sync:industry_relation"
	TaskSyncConceptRelation  = "sync:concept_relation"
	TaskSyncStockKline1D     = "sync:stock_kline_1d"
	TaskPublishArticle       = "publish:article"
)

// Task is the envelope carried on the Redis streams. Payload is task-type
// specific JSON.
type Task struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
}

// NewTask wraps a payload into a task envelope with a fresh id.
func NewTask(taskType string, payload interface{}) (*Task, error) {
	var raw json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		raw = b
	}
	return &Task{
		ID:         uuid.NewString(),
		Type:       taskType,
		Payload:    raw,
		EnqueuedAt: time.Now(),
	}, nil
}

// SyncSectorRelationPayload targets one industry or concept parent.
type SyncSectorRelationPayload struct {
	SectorCode string `json:"sector_code"`
}

// SyncStockKlinePayload targets one stock's daily candles.
type SyncStockKlinePayload struct {
	StockID   uint   `json:"stock_id"`
	StockCode string `json:"stock_code"`
}

// PublishArticlePayload targets one publish log.
type PublishArticlePayload struct {
	PublishLogID uint `json:"publish_log_id"`
}
