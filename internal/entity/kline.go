package entity

import "time"

// KlinePeriod is a candle aggregation period.
type KlinePeriod string

const (
	Kline1m    KlinePeriod = "1m"
	Kline1mMin KlinePeriod = "1m_minimal"
	Kline5m    KlinePeriod = "5m"
	Kline15m   KlinePeriod = "15m"
	Kline30m   KlinePeriod = "30m"
	Kline60m   KlinePeriod = "60m"
	Kline1d    KlinePeriod = "1d"
	Kline1w    KlinePeriod = "1w"
)

// KlineBar is the logical candle row. Physical tables are time-sharded; the
// declared table name (suffix _0) is the prototype the table maker clones.
// (stock_id, trade_time) is unique within one shard, deduplicated by upsert.
type KlineBar struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	StockID      uint      `gorm:"uniqueIndex:uk_stock_time;not null" json:"stock_id"`
	StockCode    string    `gorm:"type:varchar(16);index;not null" json:"stock_code"`
	TradeTime    time.Time `gorm:"uniqueIndex:uk_stock_time;not null" json:"trade_time"`
	OpenPrice    *float64  `gorm:"type:decimal(20,4)" json:"open_price"`
	ClosePrice   *float64  `gorm:"type:decimal(20,4)" json:"close_price"`
	HighPrice    *float64  `gorm:"type:decimal(20,4)" json:"high_price"`
	LowPrice     *float64  `gorm:"type:decimal(20,4)" json:"low_price"`
	Volume       *float64  `gorm:"type:decimal(20,2)" json:"volume"`
	Amount       *float64  `gorm:"type:decimal(20,2)" json:"amount"`
	TurnoverRate *float64  `gorm:"type:decimal(10,4)" json:"turnover_rate"`
	Amplitude    *float64  `gorm:"type:decimal(10,4)" json:"amplitude"`
	ChangePct    *float64  `gorm:"type:decimal(10,4)" json:"change_pct"`
	ChangeAmount *float64  `gorm:"type:decimal(20,4)" json:"change_amount"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// KlineTableName returns the prototype table name for a period, e.g.
// bo_market_kline_1d_0. The shard router strips the trailing _0 to derive the
// base name.
func KlineTableName(period KlinePeriod) string {
	return TablePrefix + "market_kline_" + string(period) + "_0"
}

// KlineColumns lists the insertable columns of a candle shard, in the order
// the router emits them.
func KlineColumns() []string {
	return []string{
		"stock_id", "stock_code", "trade_time",
		"open_price", "close_price", "high_price", "low_price",
		"volume", "amount", "turnover_rate", "amplitude",
		"change_pct", "change_amount",
		"created_at", "updated_at",
	}
}

// KlineUniqueColumns lists the natural-key columns used for conflict
// detection within one shard.
func KlineUniqueColumns() []string {
	return []string{"stock_id", "trade_time"}
}
