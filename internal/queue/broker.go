package queue

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"backoffice-core/pkg/logger"

	"github.com/redis/go-redis/v9"
)

const delayedSuffix = ":delayed"

// Broker produces tasks onto Redis streams. Delayed tasks park in a sorted
// set scored by due time until PromoteDue moves them onto the stream.
type Broker struct {
	redisClient  *redis.Client
	logger       *logger.Logger
	streamMaxLen int64
}

// NewBroker creates a new Broker.
func NewBroker(redisClient *redis.Client, log *logger.Logger, streamMaxLen int64) *Broker {
	if streamMaxLen <= 0 {
		streamMaxLen = 10000
	}
	return &Broker{
		redisClient:  redisClient,
		logger:       log,
		streamMaxLen: streamMaxLen,
	}
}

// Enqueue publishes a task onto a stream immediately.
func (b *Broker) Enqueue(ctx context.Context, stream string, task *Task) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return err
	}
	err = b.redisClient.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: map[string]interface{}{"payload": payload},
		MaxLen: b.streamMaxLen,
		Approx: true,
	}).Err()
	if err != nil {
		return err
	}
	b.logger.Debug("task enqueued",
		logger.StringField("stream", stream),
		logger.StringField("task_id", task.ID),
		logger.StringField("task_type", task.Type))
	return nil
}

// EnqueueIn parks a task in the stream's delayed set, due after countdown.
func (b *Broker) EnqueueIn(ctx context.Context, stream string, task *Task, countdown time.Duration) error {
	if countdown <= 0 {
		return b.Enqueue(ctx, stream, task)
	}
	payload, err := json.Marshal(task)
	if err != nil {
		return err
	}
	due := float64(time.Now().Add(countdown).UnixMilli())
	return b.redisClient.ZAdd(ctx, stream+delayedSuffix, redis.Z{
		Score:  due,
		Member: payload,
	}).Err()
}

// PromoteDue moves every due delayed task onto its stream. Called from a
// ticker in the worker service. A task is removed from the set only after a
// successful XAdd so a crash between the two cannot lose it.
func (b *Broker) PromoteDue(ctx context.Context, stream string) {
	now := time.Now().UnixMilli()
	members, err := b.redisClient.ZRangeByScore(ctx, stream+delayedSuffix, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   formatMilli(now),
		Count: 100,
	}).Result()
	if err != nil {
		if err != redis.Nil && err != context.Canceled {
			b.logger.Error("failed to read delayed tasks", logger.StringField("stream", stream), logger.ErrorField(err))
		}
		return
	}

	for _, member := range members {
		err := b.redisClient.XAdd(ctx, &redis.XAddArgs{
			Stream: stream,
			Values: map[string]interface{}{"payload": member},
			MaxLen: b.streamMaxLen,
			Approx: true,
		}).Err()
		if err != nil {
			b.logger.Error("failed to promote delayed task", logger.StringField("stream", stream), logger.ErrorField(err))
			return
		}
		if err := b.redisClient.ZRem(ctx, stream+delayedSuffix, member).Err(); err != nil {
			b.logger.Error("failed to remove promoted task", logger.StringField("stream", stream), logger.ErrorField(err))
			return
		}
	}
}

func formatMilli(ms int64) string {
	return strconv.FormatInt(ms, 10)
}
