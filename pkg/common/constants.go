package common

import "time"

// Redis stream names consumed by the worker service.
const (
	StreamMarketSync     = "market.sync"
	StreamArticlePublish = "publisher.article.publish"

	RedisStreamGroup    = "worker-group"
	RedisStreamConsumer = "worker-consumer"
)

// Redis key families shared across processes.
const (
	KeyTableExistsPrefix = "sharding:table_exists:"
	KeyTableLockPrefix   = "sharding:lock:"
	KeyShardingHealth    = "sharding:health_check"
	KeySysConfigGroup    = "sys_config:group:"
)

// Sharding cache tuning.
const (
	TableExistsTTL = 5 * time.Minute
	TableLockTTL   = 60 * time.Second
)
