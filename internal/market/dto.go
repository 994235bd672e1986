package market

import "time"

// Vendor responses are DataFrame-shaped: lists of column-name→value rows.
// Column names differ per market and are in the vendor's locale.

// A-share quote columns (23-column frame).
const (
	ColIndex        = "序号"
	ColCode         = "代码"
	ColName         = "名称"
	ColLatest       = "最新价"
	ColChangePct    = "涨跌幅"
	ColChangeAmount = "涨跌额"
	ColVolume       = "成交量"
	ColTurnover     = "成交额"
	ColAmplitude    = "振幅"
	ColHigh         = "最高"
	ColLow          = "最低"
	ColOpen         = "今开"
	ColPrevClose    = "昨收"
	ColVolumeRatio  = "量比"
	ColTurnoverRate = "换手率"
	ColPERatio      = "市盈率-动态"
	ColPBRatio      = "市净率"
	ColTotalCap     = "总市值"
	ColFloatCap     = "流通市值"
	ColSpeed        = "涨速"
	ColChange5Min   = "5分钟涨跌"
	ColChange60Day  = "60日涨跌幅"
	ColChangeYTD    = "年初至今涨跌幅"
)

// US quote columns that differ from the A-share frame.
const (
	ColUSOpen      = "开盘价"
	ColUSHigh      = "最高价"
	ColUSLow       = "最低价"
	ColUSPrevClose = "昨收价"
	ColUSPERatio   = "市盈率"
)

// Sector (industry/concept) rollup columns.
const (
	ColSectorCode       = "板块代码"
	ColSectorName       = "板块名称"
	ColLeadingStock     = "领涨股票"
	ColLeadingStockCode = "领涨股票代码"
	ColUpCount          = "上涨家数"
	ColDownCount        = "下跌家数"
)

// ListFrame is the generic list response envelope.
type ListFrame struct {
	Data struct {
		Total int                      `json:"total"`
		Diff  []map[string]interface{} `json:"diff"`
	} `json:"data"`
}

// KlineFrame is the candle response envelope; each kline entry is a
// comma-joined record.
type KlineFrame struct {
	Data *struct {
		Code   string   `json:"code"`
		Name   string   `json:"name"`
		Klines []string `json:"klines"`
	} `json:"data"`
}

// KlineRow is one normalized candle.
type KlineRow struct {
	TradeTime    time.Time
	Open         *float64
	Close        *float64
	High         *float64
	Low          *float64
	Volume       *float64
	Amount       *float64
	Amplitude    *float64
	ChangePct    *float64
	ChangeAmount *float64
	TurnoverRate *float64
}

// SectorRow is one normalized industry/concept rollup.
type SectorRow struct {
	Code             string
	Name             string
	ChangePct        *float64
	TotalMarketCap   *float64
	UpCount          *int
	DownCount        *int
	LeadingStockName *string
	LeadingStockCode *string
}

// SectorKind selects the rollup family.
type SectorKind string

const (
	SectorIndustry SectorKind = "industry"
	SectorConcept  SectorKind = "concept"
)
