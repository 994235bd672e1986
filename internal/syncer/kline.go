package syncer

import (
	"context"
	"time"

	"backoffice-core/internal/queue"
	"backoffice-core/internal/sharding"
	"backoffice-core/pkg/common"
	"backoffice-core/pkg/logger"
	"backoffice-core/pkg/utils"
)

// maxKlineShardScan caps how many yearly shards a latest-date probe touches.
const maxKlineShardScan = 40

// SyncKline1D fans out one spaced task per trading A-share.
func (s *Service) SyncKline1D(ctx context.Context) error {
	stocks, err := s.stockRepo.GetTradingAShares(ctx)
	if err != nil {
		return err
	}
	for i := range stocks {
		task, err := queue.NewTask(queue.TaskSyncStockKline1D, queue.SyncStockKlinePayload{
			StockID:   stocks[i].ID,
			StockCode: stocks[i].StockCode,
		})
		if err != nil {
			return err
		}
		if err := s.broker.EnqueueIn(ctx, common.StreamMarketSync, task, time.Duration(i)*s.cfg.KlineTaskSpacing); err != nil {
			return err
		}
	}
	s.logger.Info("kline fanout enqueued", logger.IntField("stocks", len(stocks)))
	return nil
}

// SyncSingleStockKline1D pulls the missing daily candles for one stock and
// upserts them through the shard router. Returns how many rows were written;
// zero means the stock was already current.
func (s *Service) SyncSingleStockKline1D(ctx context.Context, stockID uint, stockCode string) (int, error) {
	now := utils.TimeNowCST()

	latest, err := s.latestTradeDate(ctx, stockID, now)
	if err != nil {
		return 0, err
	}

	begin, end, current := incrementalWindow(latest, now, s.cfg.KlineHistoryYears)
	if current {
		s.logger.Debug("kline already current", logger.StringField("stock_code", stockCode))
		return 0, nil
	}

	klines, err := s.marketAPI.FetchKline1D(ctx, stockCode, begin, end)
	if err != nil {
		return 0, err
	}
	if len(klines) == 0 {
		return 0, nil
	}

	rows := make([]sharding.Row, 0, len(klines))
	for i := range klines {
		rows = append(rows, sharding.Row{
			"stock_id":      stockID,
			"stock_code":    stockCode,
			"trade_time":    klines[i].TradeTime,
			"open_price":    klines[i].Open,
			"close_price":   klines[i].Close,
			"high_price":    klines[i].High,
			"low_price":     klines[i].Low,
			"volume":        klines[i].Volume,
			"amount":        klines[i].Amount,
			"turnover_rate": klines[i].TurnoverRate,
			"amplitude":     klines[i].Amplitude,
			"change_pct":    klines[i].ChangePct,
			"change_amount": klines[i].ChangeAmount,
		})
	}

	written, err := s.klineRouter.BatchUpsert(ctx, rows)
	if err != nil {
		return 0, err
	}
	s.logger.Info("kline synced",
		logger.StringField("stock_code", stockCode),
		logger.IntField("rows", written))
	return written, nil
}

// latestTradeDate probes the yearly shards newest-first for the stock's most
// recent candle. Nil means the stock has no history yet.
func (s *Service) latestTradeDate(ctx context.Context, stockID uint, now time.Time) (*time.Time, error) {
	start := now.AddDate(-s.cfg.KlineHistoryYears, 0, 0)
	rows, err := s.klineRouter.QueryMultiTables(ctx, start, now,
		sharding.Row{"stock_id": stockID}, "trade_time desc", 1, maxKlineShardScan)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	t, ok := rows[0]["trade_time"].(time.Time)
	if !ok {
		return nil, nil
	}
	return &t, nil
}

// incrementalWindow computes the fetch range. With no history the window
// covers the full configured backfill; otherwise it starts the day after the
// latest stored candle. current is true when there is nothing to fetch.
func incrementalWindow(latest *time.Time, now time.Time, historyYears int) (begin, end time.Time, current bool) {
	end = utils.TruncateToDay(now)
	if latest == nil {
		return end.AddDate(-historyYears, 0, 0), end, false
	}
	begin = utils.TruncateToDay(*latest).AddDate(0, 0, 1)
	if begin.After(end) {
		return begin, end, true
	}
	return begin, end, false
}
