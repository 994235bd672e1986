package mysql

import (
	"fmt"
	"net/url"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Config holds the connection settings for the shared MySQL pool.
type Config struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	TimeZone        string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime string
	LogLevel        string
}

// DB wraps the gorm handle.
type DB struct {
	DB *gorm.DB
}

const pingRetries = 3

// NewDB opens the MySQL pool and verifies connectivity, retrying with a
// linear backoff so the service survives a database restarting underneath it.
func NewDB(cfg Config) (*DB, error) {
	tz := cfg.TimeZone
	if tz == "" {
		tz = "Asia/Shanghai"
	}
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.DBName, url.QueryEscape(tz))

	gormCfg := &gorm.Config{Logger: gormlogger.Default.LogMode(logLevel(cfg.LogLevel))}

	db, err := gorm.Open(mysql.Open(dsn), gormCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open mysql connection: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	lifetime := 30 * time.Minute
	if cfg.ConnMaxLifetime != "" {
		if d, err := time.ParseDuration(cfg.ConnMaxLifetime); err == nil {
			lifetime = d
		}
	}
	sqlDB.SetConnMaxLifetime(lifetime)

	var pingErr error
	for i := 1; i <= pingRetries; i++ {
		if pingErr = sqlDB.Ping(); pingErr == nil {
			break
		}
		time.Sleep(time.Duration(i) * time.Second)
	}
	if pingErr != nil {
		return nil, fmt.Errorf("database unreachable after %d attempts: %w", pingRetries, pingErr)
	}

	return &DB{DB: db}, nil
}

func logLevel(level string) gormlogger.LogLevel {
	switch level {
	case "silent":
		return gormlogger.Silent
	case "info":
		return gormlogger.Info
	case "warn":
		return gormlogger.Warn
	default:
		return gormlogger.Error
	}
}
