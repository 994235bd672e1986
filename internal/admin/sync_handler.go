package admin

import (
	"errors"

	"backoffice-core/internal/queue"
	"backoffice-core/internal/repository"
	"backoffice-core/pkg/common"
	"backoffice-core/pkg/logger"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// SyncHandler exposes manual triggers for the market sync jobs. Triggers only
// enqueue; the worker service does the fetching.
type SyncHandler struct {
	broker    *queue.Broker
	stockRepo repository.StockRepository
	env       *Envelope
	logger    *logger.Logger
}

// NewSyncHandler creates a new SyncHandler.
func NewSyncHandler(broker *queue.Broker, stockRepo repository.StockRepository, env *Envelope, log *logger.Logger) *SyncHandler {
	return &SyncHandler{broker: broker, stockRepo: stockRepo, env: env, logger: log}
}

// RegisterRoutes registers the sync trigger routes to the Echo group.
func (h *SyncHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/stocks", h.trigger(queue.TaskSyncStockList))
	g.POST("/industries", h.trigger(queue.TaskSyncIndustryList))
	g.POST("/concepts", h.trigger(queue.TaskSyncConceptList))
	g.POST("/industry-relations", h.trigger(queue.TaskFanoutIndustryRelation))
	g.POST("/concept-relations", h.trigger(queue.TaskFanoutConceptRelation))
	g.POST("/klines", h.trigger(queue.TaskFanoutKline1D))
	g.POST("/klines/:stock_id", h.TriggerSingleKline)
}

// TriggerSingleKline enqueues a daily-candle sync for one stock.
func (h *SyncHandler) TriggerSingleKline(c echo.Context) error {
	id, err := paramUint(c, "stock_id")
	if err != nil {
		return h.env.BadRequest(c, "invalid stock id", err)
	}
	ctx := c.Request().Context()
	stock, err := h.stockRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return h.env.NotFound(c, "stock not found")
		}
		return h.env.Internal(c, "failed to load stock", err)
	}

	task, err := queue.NewTask(queue.TaskSyncStockKline1D, queue.SyncStockKlinePayload{
		StockID:   stock.ID,
		StockCode: stock.StockCode,
	})
	if err != nil {
		return h.env.Internal(c, "failed to build task", err)
	}
	if err := h.broker.Enqueue(ctx, common.StreamMarketSync, task); err != nil {
		return h.env.Internal(c, "failed to enqueue sync task", err)
	}
	h.logger.Info("manual kline sync triggered", logger.StringField("stock_code", stock.StockCode))
	return h.env.OK(c, echo.Map{"task_id": task.ID, "stock_code": stock.StockCode})
}

func (h *SyncHandler) trigger(taskType string) echo.HandlerFunc {
	return func(c echo.Context) error {
		task, err := queue.NewTask(taskType, nil)
		if err != nil {
			return h.env.Internal(c, "failed to build task", err)
		}
		if err := h.broker.Enqueue(c.Request().Context(), common.StreamMarketSync, task); err != nil {
			return h.env.Internal(c, "failed to enqueue sync task", err)
		}
		h.logger.Info("manual sync triggered", logger.StringField("task_type", taskType))
		return h.env.OK(c, echo.Map{"task_id": task.ID, "task_type": taskType})
	}
}
