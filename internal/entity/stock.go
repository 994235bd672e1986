package entity

import (
	"time"

	"gorm.io/gorm"
)

// Market identifies the listing venue of a stock.
type Market string

const (
	MarketSH  Market = "SH"
	MarketSZ  Market = "SZ"
	MarketBSE Market = "BSE"
	MarketHK  Market = "HK"
	MarketUS  Market = "US"
)

// Exchange identifies the physical exchange.
type Exchange string

const (
	ExchangeSSE    Exchange = "SSE"
	ExchangeSZSE   Exchange = "SZSE"
	ExchangeBSE    Exchange = "BSE"
	ExchangeHKEX   Exchange = "HKEX"
	ExchangeNASDAQ Exchange = "NASDAQ"
	ExchangeNYSE   Exchange = "NYSE"
	ExchangeAMEX   Exchange = "AMEX"
)

// StockType is the board classification within a market.
type StockType string

const (
	StockTypeMain    StockType = "MAIN"
	StockTypeChiNext StockType = "CHINEXT"
	StockTypeSTAR    StockType = "STAR"
	StockTypeBSE     StockType = "BSE"
	StockTypeOther   StockType = "OTHER"
)

// Trade statuses inferred from the vendor quote.
const (
	TradeStatusTrading = "TRADING"
	TradeStatusHalted  = "HALTED"
)

// Stock is the master row for one listed security. Quote fields are
// overwritten wholesale on every list sync; IndustryID is owned by the
// industry relation sync job.
type Stock struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	StockCode   string    `gorm:"type:varchar(16);uniqueIndex;not null" json:"stock_code"`
	StockName   string    `gorm:"type:varchar(64);not null" json:"stock_name"`
	Market      Market    `gorm:"type:varchar(8);index;not null" json:"market"`
	Exchange    Exchange  `gorm:"type:varchar(16)" json:"exchange"`
	StockType   StockType `gorm:"type:varchar(16)" json:"stock_type"`
	IndustryID  *uint     `gorm:"index" json:"industry_id"`
	TradeStatus string    `gorm:"type:varchar(16)" json:"trade_status"`
	IsST        bool      `gorm:"default:false" json:"is_st"`
	ListDate    *time.Time `json:"list_date"`

	// Live quote snapshot, nullable because some venues omit indicators.
	LatestPrice    *float64 `gorm:"type:decimal(20,4)" json:"latest_price"`
	OpenPrice      *float64 `gorm:"type:decimal(20,4)" json:"open_price"`
	ClosePrice     *float64 `gorm:"type:decimal(20,4)" json:"close_price"`
	HighPrice      *float64 `gorm:"type:decimal(20,4)" json:"high_price"`
	LowPrice       *float64 `gorm:"type:decimal(20,4)" json:"low_price"`
	ChangePct      *float64 `gorm:"type:decimal(10,4)" json:"change_pct"`
	ChangeAmount   *float64 `gorm:"type:decimal(20,4)" json:"change_amount"`
	Volume         *float64 `gorm:"type:decimal(20,2);comment:成交量(万手)" json:"volume"`
	Turnover       *float64 `gorm:"type:decimal(20,2);comment:成交额(亿元)" json:"turnover"`
	TurnoverRate   *float64 `gorm:"type:decimal(10,4)" json:"turnover_rate"`
	Amplitude      *float64 `gorm:"type:decimal(10,4)" json:"amplitude"`
	PERatio        *float64 `gorm:"type:decimal(12,4)" json:"pe_ratio"`
	PBRatio        *float64 `gorm:"type:decimal(12,4)" json:"pb_ratio"`
	TotalMarketCap *float64 `gorm:"type:decimal(20,4);comment:总市值(亿元)" json:"total_market_cap"`
	FloatMarketCap *float64 `gorm:"type:decimal(20,4);comment:流通市值(亿元)" json:"float_market_cap"`
	Change5Min     *float64 `gorm:"column:change_5_min;type:decimal(10,4)" json:"change_5_min"`
	Change60Day    *float64 `gorm:"column:change_60_day;type:decimal(10,4)" json:"change_60_day"`
	ChangeYTD      *float64 `gorm:"column:change_ytd;type:decimal(10,4)" json:"change_ytd"`

	Status    int            `gorm:"default:1" json:"status"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Stock) TableName() string {
	return TablePrefix + "market_stocks"
}
