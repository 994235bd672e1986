package syncer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestIncrementalWindowNoHistory(t *testing.T) {
	now := date(2024, time.June, 15).Add(10 * time.Hour)
	begin, end, current := incrementalWindow(nil, now, 30)
	assert.False(t, current)
	assert.Equal(t, date(1994, time.June, 15), begin)
	assert.Equal(t, date(2024, time.June, 15), end)
}

func TestIncrementalWindowPartialHistory(t *testing.T) {
	latest := date(2024, time.June, 10)
	now := date(2024, time.June, 15)
	begin, end, current := incrementalWindow(&latest, now, 30)
	assert.False(t, current)
	assert.Equal(t, date(2024, time.June, 11), begin)
	assert.Equal(t, date(2024, time.June, 15), end)
}

func TestIncrementalWindowAlreadyCurrent(t *testing.T) {
	latest := date(2024, time.June, 15)
	now := latest.Add(14 * time.Hour)
	_, _, current := incrementalWindow(&latest, now, 30)
	assert.True(t, current, "a candle stored today means nothing to fetch")
}

func TestIncrementalWindowNextDayResumes(t *testing.T) {
	latest := date(2024, time.June, 15)
	now := date(2024, time.June, 16).Add(9 * time.Hour)
	begin, end, current := incrementalWindow(&latest, now, 30)
	assert.False(t, current)
	assert.Equal(t, date(2024, time.June, 16), begin)
	assert.Equal(t, begin, end)
}

func TestIncrementalWindowIgnoresLatestClock(t *testing.T) {
	latest := date(2024, time.June, 10).Add(15 * time.Hour)
	now := date(2024, time.June, 12)
	begin, _, current := incrementalWindow(&latest, now, 30)
	assert.False(t, current)
	assert.Equal(t, date(2024, time.June, 11), begin)
}
