package market

import (
	"math"
	"testing"

	"backoffice-core/internal/entity"
	"backoffice-core/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInferAShareVenue(t *testing.T) {
	tests := []struct {
		code      string
		market    entity.Market
		stockType entity.StockType
	}{
		{"600000", entity.MarketSH, entity.StockTypeMain},
		{"601398", entity.MarketSH, entity.StockTypeMain},
		{"688981", entity.MarketSH, entity.StockTypeSTAR},
		{"000001", entity.MarketSZ, entity.StockTypeMain},
		{"300750", entity.MarketSZ, entity.StockTypeChiNext},
		{"301234", entity.MarketSZ, entity.StockTypeChiNext},
		{"430047", entity.MarketBSE, entity.StockTypeBSE},
		{"835174", entity.MarketBSE, entity.StockTypeBSE},
	}
	for _, tt := range tests {
		market, _, stockType, err := InferAShareVenue(tt.code)
		require.NoError(t, err, tt.code)
		assert.Equal(t, tt.market, market, tt.code)
		assert.Equal(t, tt.stockType, stockType, tt.code)
	}

	_, _, _, err := InferAShareVenue("999999")
	assert.Error(t, err)
}

func TestInferTradeStatus(t *testing.T) {
	price := 10.5
	zero := 0.0
	assert.Equal(t, entity.TradeStatusTrading, InferTradeStatus(&price))
	assert.Equal(t, entity.TradeStatusHalted, InferTradeStatus(nil))
	assert.Equal(t, entity.TradeStatusHalted, InferTradeStatus(&zero))
}

func TestInferST(t *testing.T) {
	assert.True(t, InferST("ST康美"))
	assert.True(t, InferST("*ST海航"))
	assert.False(t, InferST("浦发银行"))
}

func TestUnitConversionRoundTrip(t *testing.T) {
	yuan := 123_456_789_000.0
	yi := YuanToYi(&yuan)
	require.NotNil(t, yi)
	assert.InDelta(t, 1234.56789, *yi, 1e-9)
	assert.InDelta(t, yuan, YiToYuan(*yi), 1e-3)
	assert.Nil(t, YuanToYi(nil))
}

func TestParseAShareRow(t *testing.T) {
	row := map[string]interface{}{
		ColCode:      "600000",
		ColName:      "浦发银行",
		ColLatest:    10.5,
		ColOpen:      10.2,
		ColPrevClose: 10.3,
		ColHigh:      10.8,
		ColLow:       10.1,
		ColChangePct: 1.94,
		ColVolume:    1_234_500.0,
		ColTurnover:  1_300_000_000.0,
		ColTotalCap:  308_000_000_000.0,
		ColPERatio:   5.2,
	}
	s, err := ParseAShareRow(row)
	require.NoError(t, err)
	assert.Equal(t, "600000.SH", s.StockCode)
	assert.Equal(t, entity.MarketSH, s.Market)
	assert.Equal(t, entity.TradeStatusTrading, s.TradeStatus)
	assert.False(t, s.IsST)
	require.NotNil(t, s.TotalMarketCap)
	assert.InDelta(t, 3080.0, *s.TotalMarketCap, 1e-9)
	require.NotNil(t, s.Volume)
	assert.InDelta(t, 123.45, *s.Volume, 1e-9)
}

func TestParseAShareRowScrubsNaN(t *testing.T) {
	row := map[string]interface{}{
		ColCode:    "600000",
		ColName:    "浦发银行",
		ColLatest:  10.5,
		ColPERatio: math.NaN(),
		ColPBRatio: "-",
	}
	s, err := ParseAShareRow(row)
	require.NoError(t, err)
	assert.Nil(t, s.PERatio, "NaN must become NULL")
	assert.Nil(t, s.PBRatio, "vendor placeholder must become NULL")
}

func TestParseHKRowLeavesMissingIndicatorsNull(t *testing.T) {
	row := map[string]interface{}{
		ColCode:   "00700",
		ColName:   "腾讯控股",
		ColLatest: 350.0,
	}
	s, err := ParseHKRow(row)
	require.NoError(t, err)
	assert.Equal(t, "00700.HK", s.StockCode)
	assert.Equal(t, entity.ExchangeHKEX, s.Exchange)
	assert.Nil(t, s.PERatio)
	assert.Nil(t, s.PBRatio)
	assert.Nil(t, s.TotalMarketCap)
}

func TestParseUSRowStripsExchangePrefix(t *testing.T) {
	tests := []struct {
		raw      string
		code     string
		exchange entity.Exchange
	}{
		{"105.AAPL", "AAPL.US", entity.ExchangeNASDAQ},
		{"106.BRK", "BRK.US", entity.ExchangeNYSE},
		{"107.IMO", "IMO.US", entity.ExchangeAMEX},
	}
	for _, tt := range tests {
		row := map[string]interface{}{
			ColCode:   tt.raw,
			ColName:   "x",
			ColLatest: 1.0,
			ColUSOpen: 0.9,
		}
		s, err := ParseUSRow(row)
		require.NoError(t, err, tt.raw)
		assert.Equal(t, tt.code, s.StockCode)
		assert.Equal(t, tt.exchange, s.Exchange)
		require.NotNil(t, s.OpenPrice)
		assert.InDelta(t, 0.9, *s.OpenPrice, 1e-9)
	}

	_, err := ParseUSRow(map[string]interface{}{ColCode: "AAPL"})
	assert.Error(t, err)
}

func TestParseKlines(t *testing.T) {
	records := []string{
		"2024-01-02,10.0,10.5,10.8,9.9,123456,9876543,8.1,5.0,0.5,1.2",
		"garbage",
		"2024-01-03,10.5,10.6,10.9,10.4,-,9876543,8.1,0.95,0.1,1.1",
	}
	rows, err := ParseKlines(records, logger.NewNop())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "2024-01-02", rows[0].TradeTime.Format("2006-01-02"))
	require.NotNil(t, rows[0].Close)
	assert.InDelta(t, 10.5, *rows[0].Close, 1e-9)
	assert.Nil(t, rows[1].Volume, "vendor placeholder stays NULL")
}
