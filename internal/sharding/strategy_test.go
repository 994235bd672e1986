package sharding

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestTimeBasedSuffix(t *testing.T) {
	tests := []struct {
		granularity Granularity
		key         time.Time
		want        string
	}{
		{GranularityYear, day(2024, time.February, 13), "2024"},
		{GranularityMonth, day(2024, time.February, 13), "202402"},
		{GranularityDay, day(2024, time.February, 13), "20240213"},
	}
	for _, tt := range tests {
		s := NewTimeBasedStrategy("trade_time", tt.granularity)
		got, err := s.Suffix(tt.key)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestTimeBasedRangeYearly(t *testing.T) {
	s := NewTimeBasedStrategy("trade_time", GranularityYear)

	got, err := s.RangeSuffixes(day(2022, time.December, 29), day(2024, time.January, 5))
	require.NoError(t, err)
	assert.Equal(t, []string{"2022", "2023", "2024"}, got)

	// Argument order must not matter.
	reversed, err := s.RangeSuffixes(day(2024, time.January, 5), day(2022, time.December, 29))
	require.NoError(t, err)
	assert.Equal(t, got, reversed)
}

func TestTimeBasedRangeSingleDay(t *testing.T) {
	s := NewTimeBasedStrategy("trade_time", GranularityYear)
	got, err := s.RangeSuffixes(day(2024, time.March, 1), day(2024, time.March, 1))
	require.NoError(t, err)
	assert.Equal(t, []string{"2024"}, got)
}

func TestTimeBasedRangeMonthly(t *testing.T) {
	s := NewTimeBasedStrategy("trade_time", GranularityMonth)
	got, err := s.RangeSuffixes(day(2023, time.November, 20), day(2024, time.January, 2))
	require.NoError(t, err)
	assert.Equal(t, []string{"202311", "202312", "202401"}, got)
}

func TestTimeBasedRejectsBadKey(t *testing.T) {
	s := NewTimeBasedStrategy("trade_time", GranularityYear)
	_, err := s.Suffix(struct{}{})
	assert.Error(t, err)
}

func TestIdBasedSuffix(t *testing.T) {
	s := NewIdBasedStrategy("stock_id", 8)

	got, err := s.Suffix(42)
	require.NoError(t, err)
	assert.Equal(t, "2", got)

	// Range queries fan out to every bucket.
	all, err := s.RangeSuffixes(1, 100)
	require.NoError(t, err)
	assert.Len(t, all, 8)
	assert.Equal(t, "0", all[0])
	assert.Equal(t, "7", all[7])
	assert.False(t, s.SupportsRange())
}

func TestHashBasedSuffixDeterministic(t *testing.T) {
	for _, algo := range []HashAlgo{HashMD5, HashSHA1, HashSHA256} {
		s := NewHashBasedStrategy("stock_code", 16, algo)
		a, err := s.Suffix("600000.SH")
		require.NoError(t, err)
		b, err := s.Suffix("600000.SH")
		require.NoError(t, err)
		assert.Equal(t, a, b, "algo %s must be deterministic", algo)

		all, err := s.RangeSuffixes(nil, nil)
		require.NoError(t, err)
		assert.Len(t, all, 16)
	}
}

func TestBaseTableName(t *testing.T) {
	assert.Equal(t, "bo_market_kline_1d", BaseTableName("bo_market_kline_1d_0"))
	assert.Equal(t, "bo_market_kline_1d", BaseTableName("bo_market_kline_1d_2024"))
	assert.Equal(t, "bo_market_stocks", BaseTableName("bo_market_stocks"))
}
