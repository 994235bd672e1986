package market

import (
	"fmt"
	"math"
	"strings"

	"backoffice-core/internal/entity"

	"github.com/shopspring/decimal"
)

// Code prefixes for the three US exchanges carried on the vendor wire.
const (
	usPrefixNASDAQ = "105."
	usPrefixNYSE   = "106."
	usPrefixAMEX   = "107."
)

// InferAShareVenue derives market, exchange and board from the first
// characters of a bare A-share code.
func InferAShareVenue(code string) (entity.Market, entity.Exchange, entity.StockType, error) {
	if len(code) < 3 {
		return "", "", "", fmt.Errorf("stock code %q too short", code)
	}
	p2, p3 := code[:2], code[:3]

	switch p3 {
	case "600", "601", "603", "605":
		return entity.MarketSH, entity.ExchangeSSE, entity.StockTypeMain, nil
	case "688":
		return entity.MarketSH, entity.ExchangeSSE, entity.StockTypeSTAR, nil
	case "000", "001", "002", "003":
		return entity.MarketSZ, entity.ExchangeSZSE, entity.StockTypeMain, nil
	case "300", "301":
		return entity.MarketSZ, entity.ExchangeSZSE, entity.StockTypeChiNext, nil
	}
	switch p2 {
	case "43", "83", "87", "88":
		return entity.MarketBSE, entity.ExchangeBSE, entity.StockTypeBSE, nil
	}
	return "", "", "", fmt.Errorf("unrecognized A-share code prefix %q", code)
}

// InferTradeStatus maps a missing or sentinel latest price to HALTED.
func InferTradeStatus(latest *float64) string {
	if latest == nil || *latest <= 0 {
		return entity.TradeStatusHalted
	}
	return entity.TradeStatusTrading
}

// InferST flags special-treatment stocks by the vendor's name convention.
func InferST(name string) bool {
	return strings.Contains(name, "ST")
}

// YuanToYi converts a yuan amount to 亿元 without float drift.
func YuanToYi(v *float64) *float64 {
	if v == nil {
		return nil
	}
	out, _ := decimal.NewFromFloat(*v).Div(decimal.NewFromInt(1e8)).Float64()
	return &out
}

// YiToYuan is the inverse conversion, applied to query parameters before they
// reach the DB.
func YiToYuan(v float64) float64 {
	out, _ := decimal.NewFromFloat(v).Mul(decimal.NewFromInt(1e8)).Float64()
	return out
}

// SharesToWan converts a raw share count to 万.
func SharesToWan(v *float64) *float64 {
	if v == nil {
		return nil
	}
	out, _ := decimal.NewFromFloat(*v).Div(decimal.NewFromInt(1e4)).Float64()
	return &out
}

// ParseAShareRow normalizes one 23-column A-share frame row.
func ParseAShareRow(row map[string]interface{}) (*entity.Stock, error) {
	code := getString(row, ColCode)
	if code == "" {
		return nil, fmt.Errorf("row has no stock code")
	}
	market, exchange, stockType, err := InferAShareVenue(code)
	if err != nil {
		return nil, err
	}
	name := getString(row, ColName)
	latest := getFloat(row, ColLatest)

	s := &entity.Stock{
		StockCode:   code + "." + string(market),
		StockName:   name,
		Market:      market,
		Exchange:    exchange,
		StockType:   stockType,
		TradeStatus: InferTradeStatus(latest),
		IsST:        InferST(name),

		LatestPrice:    latest,
		OpenPrice:      getFloat(row, ColOpen),
		ClosePrice:     getFloat(row, ColPrevClose),
		HighPrice:      getFloat(row, ColHigh),
		LowPrice:       getFloat(row, ColLow),
		ChangePct:      getFloat(row, ColChangePct),
		ChangeAmount:   getFloat(row, ColChangeAmount),
		Volume:         SharesToWan(getFloat(row, ColVolume)),
		Turnover:       YuanToYi(getFloat(row, ColTurnover)),
		TurnoverRate:   getFloat(row, ColTurnoverRate),
		Amplitude:      getFloat(row, ColAmplitude),
		PERatio:        getFloat(row, ColPERatio),
		PBRatio:        getFloat(row, ColPBRatio),
		TotalMarketCap: YuanToYi(getFloat(row, ColTotalCap)),
		FloatMarketCap: YuanToYi(getFloat(row, ColFloatCap)),
		Change5Min:     getFloat(row, ColChange5Min),
		Change60Day:    getFloat(row, ColChange60Day),
		ChangeYTD:      getFloat(row, ColChangeYTD),
		Status:         entity.StatusEnabled,
	}
	return s, nil
}

// ParseHKRow normalizes one 12-column HK frame row. PE/PB, market caps and
// the advanced indicators are absent on the HK wire and stay NULL.
func ParseHKRow(row map[string]interface{}) (*entity.Stock, error) {
	code := getString(row, ColCode)
	if code == "" {
		return nil, fmt.Errorf("row has no stock code")
	}
	name := getString(row, ColName)
	latest := getFloat(row, ColLatest)

	return &entity.Stock{
		StockCode:   code + ".HK",
		StockName:   name,
		Market:      entity.MarketHK,
		Exchange:    entity.ExchangeHKEX,
		StockType:   entity.StockTypeOther,
		TradeStatus: InferTradeStatus(latest),
		IsST:        InferST(name),

		LatestPrice:  latest,
		OpenPrice:    getFloat(row, ColOpen),
		ClosePrice:   getFloat(row, ColPrevClose),
		HighPrice:    getFloat(row, ColHigh),
		LowPrice:     getFloat(row, ColLow),
		ChangePct:    getFloat(row, ColChangePct),
		ChangeAmount: getFloat(row, ColChangeAmount),
		Volume:       SharesToWan(getFloat(row, ColVolume)),
		Turnover:     YuanToYi(getFloat(row, ColTurnover)),
		Status:       entity.StatusEnabled,
	}, nil
}

// ParseUSRow normalizes one 16-column US frame row. The code carries an
// exchange prefix which maps the exchange and is stripped afterwards.
func ParseUSRow(row map[string]interface{}) (*entity.Stock, error) {
	raw := getString(row, ColCode)
	if raw == "" {
		return nil, fmt.Errorf("row has no stock code")
	}

	var exchange entity.Exchange
	switch {
	case strings.HasPrefix(raw, usPrefixNASDAQ):
		exchange = entity.ExchangeNASDAQ
	case strings.HasPrefix(raw, usPrefixNYSE):
		exchange = entity.ExchangeNYSE
	case strings.HasPrefix(raw, usPrefixAMEX):
		exchange = entity.ExchangeAMEX
	default:
		return nil, fmt.Errorf("unrecognized US exchange prefix in %q", raw)
	}
	code := raw[len(usPrefixNASDAQ):]

	name := getString(row, ColName)
	latest := getFloat(row, ColLatest)

	return &entity.Stock{
		StockCode:   code + ".US",
		StockName:   name,
		Market:      entity.MarketUS,
		Exchange:    exchange,
		StockType:   entity.StockTypeOther,
		TradeStatus: InferTradeStatus(latest),

		LatestPrice:    latest,
		OpenPrice:      getFloat(row, ColUSOpen),
		ClosePrice:     getFloat(row, ColUSPrevClose),
		HighPrice:      getFloat(row, ColUSHigh),
		LowPrice:       getFloat(row, ColUSLow),
		ChangePct:      getFloat(row, ColChangePct),
		ChangeAmount:   getFloat(row, ColChangeAmount),
		Volume:         SharesToWan(getFloat(row, ColVolume)),
		Turnover:       YuanToYi(getFloat(row, ColTurnover)),
		TurnoverRate:   getFloat(row, ColTurnoverRate),
		Amplitude:      getFloat(row, ColAmplitude),
		PERatio:        getFloat(row, ColUSPERatio),
		TotalMarketCap: YuanToYi(getFloat(row, ColTotalCap)),
		Status:         entity.StatusEnabled,
	}, nil
}

// ParseSectorRow normalizes one industry/concept rollup row.
func ParseSectorRow(row map[string]interface{}) (*SectorRow, error) {
	code := getString(row, ColSectorCode)
	if code == "" {
		return nil, fmt.Errorf("sector row has no code")
	}
	s := &SectorRow{
		Code:           code,
		Name:           getString(row, ColSectorName),
		ChangePct:      getFloat(row, ColChangePct),
		TotalMarketCap: YuanToYi(getFloat(row, ColTotalCap)),
		UpCount:        getInt(row, ColUpCount),
		DownCount:      getInt(row, ColDownCount),
	}
	if v := getString(row, ColLeadingStock); v != "" {
		s.LeadingStockName = &v
	}
	if v := getString(row, ColLeadingStockCode); v != "" {
		s.LeadingStockCode = &v
	}
	return s, nil
}

// getFloat reads a numeric cell; NaN, infinities, JSON nulls and the vendor's
// "-" placeholder all become nil so they reach the DB as NULL.
func getFloat(row map[string]interface{}, key string) *float64 {
	v, ok := row[key]
	if !ok || v == nil {
		return nil
	}
	switch n := v.(type) {
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return nil
		}
		return &n
	case int:
		f := float64(n)
		return &f
	case string:
		if n == "-" || n == "" {
			return nil
		}
		d, err := decimal.NewFromString(n)
		if err != nil {
			return nil
		}
		f, _ := d.Float64()
		return &f
	default:
		return nil
	}
}

func getInt(row map[string]interface{}, key string) *int {
	f := getFloat(row, key)
	if f == nil {
		return nil
	}
	n := int(*f)
	return &n
}

func getString(row map[string]interface{}, key string) string {
	if v, ok := row[key].(string); ok {
		return v
	}
	return ""
}
