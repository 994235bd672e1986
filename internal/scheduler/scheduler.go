package scheduler

import (
	"context"

	"backoffice-core/internal/queue"
	"backoffice-core/pkg/common"
	"backoffice-core/pkg/logger"

	"github.com/robfig/cron/v3"
)

// Config maps cron expressions to the scheduled jobs. Empty expression
// disables a job.
type Config struct {
	StockListCron        string `mapstructure:"stock_list_cron"`
	IndustryListCron     string `mapstructure:"industry_list_cron"`
	ConceptListCron      string `mapstructure:"concept_list_cron"`
	IndustryRelationCron string `mapstructure:"industry_relation_cron"`
	ConceptRelationCron  string `mapstructure:"concept_relation_cron"`
	Kline1DCron          string `mapstructure:"kline_1d_cron"`
}

// DefaultConfig schedules syncs around the mainland close (timezone is the
// process default, configured to Asia/Shanghai in deployment).
func DefaultConfig() Config {
	return Config{
		StockListCron:        "30 15 * * 1-5",
		IndustryListCron:     "40 15 * * 1-5",
		ConceptListCron:      "45 15 * * 1-5",
		IndustryRelationCron: "0 16 * * 1-5",
		ConceptRelationCron:  "30 16 * * 1-5",
		Kline1DCron:          "0 17 * * 1-5",
	}
}

// Scheduler registers cron entries that enqueue sync tasks. Ticks never do
// vendor work themselves; the worker consumers do.
type Scheduler struct {
	cfg    Config
	broker *queue.Broker
	cron   *cron.Cron
	logger *logger.Logger
}

// NewScheduler creates a new Scheduler.
func NewScheduler(cfg Config, broker *queue.Broker, log *logger.Logger) *Scheduler {
	return &Scheduler{
		cfg:    cfg,
		broker: broker,
		cron:   cron.New(),
		logger: log,
	}
}

// Start registers the entries and runs the cron loop until ctx is done.
func (s *Scheduler) Start(ctx context.Context) error {
	entries := []struct {
		expr     string
		taskType string
	}{
		{s.cfg.StockListCron, queue.TaskSyncStockList},
		{s.cfg.IndustryListCron, queue.TaskSyncIndustryList},
		{s.cfg.ConceptListCron, queue.TaskSyncConceptList},
		{s.cfg.IndustryRelationCron, queue.TaskFanoutIndustryRelation},
		{s.cfg.ConceptRelationCron, queue.TaskFanoutConceptRelation},
		{s.cfg.Kline1DCron, queue.TaskFanoutKline1D},
	}
	for _, entry := range entries {
		if entry.expr == "" {
			continue
		}
		taskType := entry.taskType
		_, err := s.cron.AddFunc(entry.expr, func() {
			s.enqueue(ctx, taskType)
		})
		if err != nil {
			return err
		}
		s.logger.Info("scheduled job registered",
			logger.StringField("task_type", taskType),
			logger.StringField("cron", entry.expr))
	}

	s.cron.Start()
	go func() {
		<-ctx.Done()
		s.cron.Stop()
		s.logger.Info("scheduler stopped")
	}()
	return nil
}

func (s *Scheduler) enqueue(ctx context.Context, taskType string) {
	task, err := queue.NewTask(taskType, nil)
	if err != nil {
		s.logger.Error("failed to build scheduled task", logger.ErrorField(err))
		return
	}
	if err := s.broker.Enqueue(ctx, common.StreamMarketSync, task); err != nil {
		s.logger.Error("failed to enqueue scheduled task",
			logger.StringField("task_type", taskType), logger.ErrorField(err))
		return
	}
	s.logger.Info("scheduled task enqueued", logger.StringField("task_type", taskType))
}
