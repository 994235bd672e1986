package market

import (
	"strings"
	"time"

	"backoffice-core/pkg/logger"
)

// Candle records arrive as comma-joined strings:
// date,open,close,high,low,volume,amount,amplitude,changePct,changeAmount,turnoverRate
const klineFieldCount = 11

// ParseKlines converts vendor candle records into normalized rows. Bad rows
// are skipped, not fatal; only the layout of the whole payload can abort.
func ParseKlines(records []string, log *logger.Logger) ([]KlineRow, error) {
	rows := make([]KlineRow, 0, len(records))
	for _, rec := range records {
		fields := strings.Split(rec, ",")
		if len(fields) < klineFieldCount {
			log.Warn("skipping malformed kline record", logger.StringField("record", rec))
			continue
		}
		tradeTime, err := time.Parse("2006-01-02", fields[0])
		if err != nil {
			log.Warn("skipping kline record with bad date", logger.StringField("record", rec))
			continue
		}
		rows = append(rows, KlineRow{
			TradeTime:    tradeTime,
			Open:         parseDecimalField(fields[1]),
			Close:        parseDecimalField(fields[2]),
			High:         parseDecimalField(fields[3]),
			Low:          parseDecimalField(fields[4]),
			Volume:       parseDecimalField(fields[5]),
			Amount:       parseDecimalField(fields[6]),
			Amplitude:    parseDecimalField(fields[7]),
			ChangePct:    parseDecimalField(fields[8]),
			ChangeAmount: parseDecimalField(fields[9]),
			TurnoverRate: parseDecimalField(fields[10]),
		})
	}
	return rows, nil
}

func parseDecimalField(s string) *float64 {
	return getFloat(map[string]interface{}{"v": s}, "v")
}
