package queue

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"backoffice-core/pkg/common"
	"backoffice-core/pkg/logger"
	"backoffice-core/pkg/utils"

	"github.com/redis/go-redis/v9"
)

// Handler processes one task. A non-nil error leaves the message acked; tasks
// own their retry semantics through the publish log or the scheduler.
type Handler func(ctx context.Context, task *Task) error

// Consumer reads tasks from Redis streams through a consumer group and
// dispatches them by task type.
type Consumer struct {
	redisClient *redis.Client
	logger      *logger.Logger
	broker      *Broker
	handlers    map[string]Handler
	streams     []string
	timeout     time.Duration
	stopChan    chan struct{}
	wg          sync.WaitGroup
}

// NewConsumer creates a new Consumer.
func NewConsumer(redisClient *redis.Client, broker *Broker, log *logger.Logger, timeout time.Duration) *Consumer {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &Consumer{
		redisClient: redisClient,
		logger:      log,
		broker:      broker,
		handlers:    make(map[string]Handler),
		timeout:     timeout,
		stopChan:    make(chan struct{}),
	}
}

// Register binds a task type to its handler.
func (c *Consumer) Register(taskType string, handler Handler) {
	c.handlers[taskType] = handler
}

// Start creates the consumer groups and begins the processing loops, one per
// stream plus a promotion ticker for delayed tasks.
func (c *Consumer) Start(ctx context.Context, streams ...string) error {
	c.streams = streams
	for _, stream := range streams {
		err := c.redisClient.XGroupCreateMkStream(ctx, stream, common.RedisStreamGroup, "0").Err()
		if err != nil && err.Error() != "BUSYGROUP Consumer Group name already exists" {
			return err
		}
		c.registerStreamLoop(ctx, stream)
	}
	c.registerPromotionTicker(ctx)
	c.logger.Info("queue consumer started", logger.IntField("streams", len(streams)))
	return nil
}

func (c *Consumer) registerStreamLoop(ctx context.Context, stream string) {
	c.wg.Add(1)
	utils.GoSafe(func() {
		defer c.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case <-c.stopChan:
				return
			default:
				c.processOne(ctx, stream)
			}
		}
	})
}

func (c *Consumer) registerPromotionTicker(ctx context.Context) {
	c.wg.Add(1)
	utils.GoSafe(func() {
		defer c.wg.Done()
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				for _, stream := range c.streams {
					c.broker.PromoteDue(ctx, stream)
				}
			case <-ctx.Done():
				return
			case <-c.stopChan:
				return
			}
		}
	})
}

func (c *Consumer) processOne(ctx context.Context, stream string) {
	streams, err := c.redisClient.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    common.RedisStreamGroup,
		Consumer: common.RedisStreamConsumer,
		Streams:  []string{stream, ">"},
		Count:    1,
		Block:    2 * time.Second,
	}).Result()
	if err != nil {
		if err == context.Canceled || err == redis.Nil {
			return
		}
		c.logger.Error("failed to read from stream", logger.StringField("stream", stream), logger.ErrorField(err))
		return
	}
	if len(streams) == 0 || len(streams[0].Messages) == 0 {
		return
	}

	message := streams[0].Messages[0]
	defer func() {
		if err := c.redisClient.XAck(ctx, stream, common.RedisStreamGroup, message.ID).Err(); err != nil {
			c.logger.Error("failed to ack message", logger.Field("message_id", message.ID), logger.ErrorField(err))
		}
	}()

	payload, ok := message.Values["payload"].(string)
	if !ok {
		c.logger.Error("field 'payload' not found or not a string in stream message", logger.Field("message_id", message.ID))
		return
	}

	var task Task
	if err := json.Unmarshal([]byte(payload), &task); err != nil {
		c.logger.Error("failed to unmarshal task", logger.ErrorField(err), logger.Field("message_id", message.ID))
		return
	}

	handler, ok := c.handlers[task.Type]
	if !ok {
		c.logger.Error("no handler registered for task type", logger.StringField("task_type", task.Type))
		return
	}

	taskCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	c.logger.Info("processing task",
		logger.StringField("task_id", task.ID),
		logger.StringField("task_type", task.Type))
	if err := handler(taskCtx, &task); err != nil {
		c.logger.Error("task failed",
			logger.StringField("task_id", task.ID),
			logger.StringField("task_type", task.Type),
			logger.ErrorField(err))
	}
}

// Stop gracefully shuts down the consumer.
func (c *Consumer) Stop() {
	close(c.stopChan)
	c.wg.Wait()
	c.logger.Info("queue consumer stopped")
}
