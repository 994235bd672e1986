package sharding

import (
	"context"
	"testing"
	"time"

	"backoffice-core/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testModel() TableModel {
	return TableModel{
		PrototypeTable: "bo_market_kline_1d_0",
		Columns:        []string{"stock_id", "trade_time", "close_price", "created_at", "updated_at"},
		UniqueColumns:  []string{"stock_id", "trade_time"},
	}
}

func testRouter() *Router {
	return NewRouter(nil, testModel(), NewTimeBasedStrategy("trade_time", GranularityYear), nil, logger.NewNop())
}

func TestRouterBaseTable(t *testing.T) {
	assert.Equal(t, "bo_market_kline_1d", testRouter().BaseTable())
}

func TestShardFor(t *testing.T) {
	table, err := testRouter().ShardFor(day(2024, time.January, 2))
	require.NoError(t, err)
	assert.Equal(t, "bo_market_kline_1d_2024", table)
}

func TestBatchUpsertEmptyInput(t *testing.T) {
	// Must return 0 without touching the DB; the router holds a nil handle
	// here so any DB contact would panic.
	n, err := testRouter().BatchUpsert(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestQueryMultiTablesRequiresRange(t *testing.T) {
	r := testRouter()
	_, err := r.QueryMultiTables(context.Background(), nil, nil, nil, "", 0, 0)
	assert.ErrorIs(t, err, ErrUnboundedQuery)

	_, err = r.Count(context.Background(), day(2024, time.January, 1), nil, nil)
	assert.ErrorIs(t, err, ErrUnboundedQuery)
}

func TestDuplicateClauseSkipsKeysAndCreatedAt(t *testing.T) {
	r := testRouter()
	clause := r.duplicateClause(r.insertColumns())
	assert.Contains(t, clause, "`close_price`=VALUES(`close_price`)")
	assert.Contains(t, clause, "`updated_at`=VALUES(`updated_at`)")
	assert.NotContains(t, clause, "created_at")
	assert.NotContains(t, clause, "stock_id")
	assert.NotContains(t, clause, "trade_time")
}

func TestParseOrderBy(t *testing.T) {
	allowed := []string{"trade_time", "close_price"}

	terms, err := parseOrderBy("trade_time desc, close_price", allowed)
	require.NoError(t, err)
	require.Len(t, terms, 2)
	assert.True(t, terms[0].desc)
	assert.False(t, terms[1].desc)

	_, err = parseOrderBy("trade_time sideways", allowed)
	assert.Error(t, err)

	_, err = parseOrderBy("secret_col asc", allowed)
	assert.Error(t, err)
}

func TestSortRowsNullIsMaximum(t *testing.T) {
	rows := []Row{
		{"close_price": 3.0},
		{"close_price": nil},
		{"close_price": 1.0},
	}

	sortRows(rows, []orderTerm{{column: "close_price"}})
	assert.Equal(t, 1.0, rows[0]["close_price"])
	assert.Equal(t, 3.0, rows[1]["close_price"])
	assert.Nil(t, rows[2]["close_price"], "ASC puts NULLs last")

	sortRows(rows, []orderTerm{{column: "close_price", desc: true}})
	assert.Nil(t, rows[0]["close_price"], "DESC puts NULLs first")
	assert.Equal(t, 3.0, rows[1]["close_price"])
}

func TestSortRowsStable(t *testing.T) {
	t1 := day(2024, time.January, 2)
	rows := []Row{
		{"trade_time": t1, "close_price": 1.0},
		{"trade_time": t1, "close_price": 2.0},
		{"trade_time": day(2023, time.December, 29), "close_price": 9.0},
	}
	sortRows(rows, []orderTerm{{column: "trade_time"}})
	assert.Equal(t, 9.0, rows[0]["close_price"])
	assert.Equal(t, 1.0, rows[1]["close_price"], "equal keys keep input order")
	assert.Equal(t, 2.0, rows[2]["close_price"])
}

func TestCompareValuesMixed(t *testing.T) {
	assert.Equal(t, 0, compareValues(nil, nil))
	assert.Equal(t, 1, compareValues(nil, 5.0))
	assert.Equal(t, -1, compareValues(5.0, nil))
	assert.Equal(t, -1, compareValues(int64(3), 4.0))
	assert.Equal(t, 1, compareValues("b", "a"))

	t0, t1 := day(2023, time.May, 1), day(2024, time.May, 1)
	assert.Equal(t, -1, compareValues(t0, t1))
	assert.Equal(t, 1, compareValues(t1, t0))
}
