package sharding

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"backoffice-core/pkg/common"
	"backoffice-core/pkg/logger"

	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	lockWaitSleep    = 100 * time.Millisecond
	lockWaitAttempts = 50
	healthMemoKey    = "cache_degraded"
	healthOKMemoKey  = "cache_healthy"
)

var tableCommentRe = regexp.MustCompile(`COMMENT='[^']*'`)

// TableMaker lazily creates shard tables from their prototype, coordinated
// across processes through Redis. When Redis is unreachable it degrades to
// direct information_schema probing without locks.
type TableMaker struct {
	db     *gorm.DB
	cache  redis.UniversalClient
	local  *gocache.Cache
	logger *logger.Logger
}

// NewTableMaker builds a TableMaker. cache may be nil, which forces degraded
// mode permanently (used by tests and cache-less deployments).
func NewTableMaker(db *gorm.DB, cache redis.UniversalClient, log *logger.Logger) *TableMaker {
	return &TableMaker{
		db:     db,
		cache:  cache,
		local:  gocache.New(time.Minute, 5*time.Minute),
		logger: log,
	}
}

// EnsureTableExists guarantees the physical table base_suffix exists, creating
// it from the prototype if needed. Returns true iff the table is known to
// exist after the call.
func (m *TableMaker) EnsureTableExists(ctx context.Context, prototype, base, suffix string) (bool, error) {
	table := base + "_" + suffix

	if exists, ok := m.lookupCache(ctx, table); ok && exists {
		return true, nil
	}

	if !m.cacheHealthy(ctx) {
		return m.ensureDirect(ctx, prototype, table)
	}

	lockKey := common.KeyTableLockPrefix + table
	acquired, err := m.cache.SetNX(ctx, lockKey, "1", common.TableLockTTL).Result()
	if err != nil {
		m.logger.Warn("sharding lock unavailable, probing table directly", logger.ErrorField(err))
		return m.ensureDirect(ctx, prototype, table)
	}

	if !acquired {
		// Another process is creating the table; poll the cache it will prime.
		for i := 0; i < lockWaitAttempts; i++ {
			time.Sleep(lockWaitSleep)
			if exists, ok := m.lookupCache(ctx, table); ok && exists {
				return true, nil
			}
		}
		return m.tableExistsDB(ctx, table)
	}

	defer func() {
		if err := m.cache.Del(context.WithoutCancel(ctx), lockKey).Err(); err != nil {
			m.logger.Warn("failed to release sharding lock", logger.StringField("table", table), logger.ErrorField(err))
		}
	}()

	exists, err := m.tableExistsDB(ctx, table)
	if err != nil {
		return false, err
	}
	if exists {
		m.primeCache(ctx, table, true)
		return true, nil
	}

	if err := m.createFromPrototype(ctx, prototype, table); err != nil {
		return false, err
	}
	m.primeCache(ctx, table, true)
	return true, nil
}

// BatchCreateTables ensures every suffix in order.
func (m *TableMaker) BatchCreateTables(ctx context.Context, prototype, base string, suffixes []string) error {
	for _, suffix := range suffixes {
		if _, err := m.EnsureTableExists(ctx, prototype, base, suffix); err != nil {
			return fmt.Errorf("ensure table %s_%s: %w", base, suffix, err)
		}
	}
	return nil
}

// TableExists checks existence without creating, consulting the cache first.
// A cached positive never triggers IO; a cached negative is re-verified only
// after the entry expires.
func (m *TableMaker) TableExists(ctx context.Context, table string) (bool, error) {
	if exists, ok := m.lookupCache(ctx, table); ok {
		return exists, nil
	}
	exists, err := m.tableExistsDB(ctx, table)
	if err != nil {
		return false, err
	}
	m.primeCache(ctx, table, exists)
	return exists, nil
}

func (m *TableMaker) ensureDirect(ctx context.Context, prototype, table string) (bool, error) {
	exists, err := m.tableExistsDB(ctx, table)
	if err != nil || exists {
		return exists, err
	}
	if err := m.createFromPrototype(ctx, prototype, table); err != nil {
		return false, err
	}
	return true, nil
}

func (m *TableMaker) createFromPrototype(ctx context.Context, prototype, table string) error {
	var name, ddl string
	row := m.db.WithContext(ctx).Raw(fmt.Sprintf("SHOW CREATE TABLE `%s`", prototype)).Row()
	if err := row.Scan(&name, &ddl); err != nil {
		return fmt.Errorf("show create table %s: %w", prototype, err)
	}

	ddl = strings.Replace(ddl, fmt.Sprintf("CREATE TABLE `%s`", prototype), fmt.Sprintf("CREATE TABLE IF NOT EXISTS `%s`", table), 1)
	if idx := strings.LastIndex(ddl, ")"); idx >= 0 {
		tail := tableCommentRe.ReplaceAllString(ddl[idx:], fmt.Sprintf("COMMENT='shard of %s'", prototype))
		ddl = ddl[:idx] + tail
	}

	if err := m.db.WithContext(ctx).Exec(ddl).Error; err != nil {
		// MySQL 1050: table already exists. Someone else won a race we could
		// not observe; treat as success.
		if strings.Contains(err.Error(), "already exists") || strings.Contains(err.Error(), "Error 1050") {
			return nil
		}
		return fmt.Errorf("create shard table %s: %w", table, err)
	}

	m.logger.Info("shard table created", logger.StringField("table", table))
	return nil
}

func (m *TableMaker) tableExistsDB(ctx context.Context, table string) (bool, error) {
	var count int64
	err := m.db.WithContext(ctx).
		Raw("SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = DATABASE() AND table_name = ?", table).
		Scan(&count).Error
	if err != nil {
		return false, fmt.Errorf("probe information_schema for %s: %w", table, err)
	}
	return count > 0, nil
}

func (m *TableMaker) lookupCache(ctx context.Context, table string) (exists, ok bool) {
	if v, found := m.local.Get(table); found {
		return v.(bool), true
	}
	if !m.cacheHealthy(ctx) {
		return false, false
	}
	v, err := m.cache.Get(ctx, common.KeyTableExistsPrefix+table).Result()
	if err != nil {
		return false, false
	}
	exists = v == "1"
	if exists {
		m.local.SetDefault(table, true)
	}
	return exists, true
}

func (m *TableMaker) primeCache(ctx context.Context, table string, exists bool) {
	if exists {
		m.local.SetDefault(table, true)
	}
	if !m.cacheHealthy(ctx) {
		return
	}
	v := "0"
	if exists {
		v = "1"
	}
	if err := m.cache.Set(ctx, common.KeyTableExistsPrefix+table, v, common.TableExistsTTL).Err(); err != nil {
		m.logger.Warn("failed to prime table existence cache", logger.StringField("table", table), logger.ErrorField(err))
	}
}

// cacheHealthy probes Redis once a minute; a failed probe puts the maker in
// degraded mode until the memo expires.
func (m *TableMaker) cacheHealthy(ctx context.Context) bool {
	if m.cache == nil {
		return false
	}
	if _, degraded := m.local.Get(healthMemoKey); degraded {
		return false
	}
	if _, healthy := m.local.Get(healthOKMemoKey); healthy {
		return true
	}
	if err := m.cache.Set(ctx, common.KeyShardingHealth, "1", common.TableExistsTTL).Err(); err != nil {
		m.logger.Warn("sharding cache unreachable, degrading to direct DB probing", logger.ErrorField(err))
		m.local.SetDefault(healthMemoKey, true)
		return false
	}
	m.local.SetDefault(healthOKMemoKey, true)
	return true
}
