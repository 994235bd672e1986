package admin

import (
	"errors"
	"time"

	"backoffice-core/internal/repository"
	"backoffice-core/internal/sharding"
	"backoffice-core/pkg/logger"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

var stockFields = FieldSpec{
	"stock_code":   FieldText,
	"stock_name":   FieldText,
	"market":       FieldExact,
	"exchange":     FieldExact,
	"stock_type":   FieldExact,
	"trade_status": FieldExact,
	"industry_id":  FieldExact,
	"updated_at":   FieldRange,
}

const maxKlineQueryTables = 10

// MarketHandler handles read access to the stock master and the sharded
// candle history.
type MarketHandler struct {
	stockRepo   repository.StockRepository
	klineRouter *sharding.Router
	env         *Envelope
	logger      *logger.Logger
}

// NewMarketHandler creates a new MarketHandler.
func NewMarketHandler(stockRepo repository.StockRepository, klineRouter *sharding.Router, env *Envelope, log *logger.Logger) *MarketHandler {
	return &MarketHandler{stockRepo: stockRepo, klineRouter: klineRouter, env: env, logger: log}
}

// RegisterRoutes registers the market routes to the Echo group.
func (h *MarketHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/stocks", h.ListStocks)
	g.GET("/stocks/:code/klines", h.Klines)
}

func (h *MarketHandler) ListStocks(c echo.Context) error {
	q, err := ParseListQuery(c.QueryParams(), stockFields)
	if err != nil {
		return h.env.BadRequest(c, err.Error(), nil)
	}
	stocks, total, err := h.stockRepo.List(c.Request().Context(), q.Scopes, q.Offset(), q.Size)
	if err != nil {
		return h.env.Internal(c, "failed to list stocks", err)
	}
	return h.env.OK(c, ListData{Items: stocks, Total: total, Page: q.Page, Size: q.Size})
}

// Klines reads daily candles across the yearly shards. Both bounds are
// required; unbounded scans are rejected by the router.
func (h *MarketHandler) Klines(c echo.Context) error {
	code := c.Param("code")
	stock, err := h.stockRepo.GetByCode(c.Request().Context(), code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return h.env.NotFound(c, "stock not found")
		}
		return h.env.Internal(c, "failed to load stock", err)
	}

	start, err := time.Parse("2006-01-02", c.QueryParam("start"))
	if err != nil {
		return h.env.BadRequest(c, "start must be YYYY-MM-DD", err)
	}
	end, err := time.Parse("2006-01-02", c.QueryParam("end"))
	if err != nil {
		return h.env.BadRequest(c, "end must be YYYY-MM-DD", err)
	}

	rows, err := h.klineRouter.QueryMultiTables(c.Request().Context(), start, end,
		sharding.Row{"stock_id": stock.ID}, "trade_time asc", 0, maxKlineQueryTables)
	if err != nil {
		if errors.Is(err, sharding.ErrUnboundedQuery) {
			return h.env.BadRequest(c, err.Error(), nil)
		}
		return h.env.Internal(c, "failed to query klines", err)
	}
	return h.env.OK(c, rows)
}
