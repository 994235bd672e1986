package config

import (
	"time"

	"backoffice-core/internal/market"
	"backoffice-core/internal/publisher"
	"backoffice-core/internal/scheduler"
	"backoffice-core/internal/syncer"
	"backoffice-core/pkg/config"
)

// Worker tunes the queue consumer.
type Worker struct {
	TaskTimeout time.Duration `mapstructure:"task_timeout"`
}

// Config is the full configuration for both services.
type Config struct {
	App        config.App                 `mapstructure:"app"`
	Logger     config.Logger              `mapstructure:"logger"`
	Database   config.Database            `mapstructure:"database"`
	Redis      config.Redis               `mapstructure:"redis"`
	API        config.API                 `mapstructure:"api"`
	Telegram   config.Telegram            `mapstructure:"telegram"`
	Market     market.Config              `mapstructure:"market"`
	Syncer     syncer.Config              `mapstructure:"syncer"`
	Scheduler  scheduler.Config           `mapstructure:"scheduler"`
	Browser    publisher.BrowserConfig    `mapstructure:"browser"`
	AntiDetect publisher.AntiDetectConfig `mapstructure:"anti_detect"`
	Worker     Worker                     `mapstructure:"worker"`
}

// New loads the configuration from path.
func New(path string) (*Config, error) {
	cfg := &Config{
		Scheduler:  scheduler.DefaultConfig(),
		AntiDetect: publisher.DefaultAntiDetectConfig(),
	}
	if err := config.Load(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
