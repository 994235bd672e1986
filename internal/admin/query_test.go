package admin

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSpec = FieldSpec{
	"title":      FieldText,
	"status":     FieldExact,
	"created_at": FieldRange,
}

func TestParseListQueryDefaults(t *testing.T) {
	q, err := ParseListQuery(url.Values{}, testSpec)
	require.NoError(t, err)
	assert.Equal(t, 1, q.Page)
	assert.Equal(t, defaultPageSize, q.Size)
	assert.Zero(t, q.Offset())
	assert.Empty(t, q.Scopes)
}

func TestParseListQueryPagination(t *testing.T) {
	q, err := ParseListQuery(url.Values{"page": {"3"}, "size": {"50"}}, testSpec)
	require.NoError(t, err)
	assert.Equal(t, 100, q.Offset())

	_, err = ParseListQuery(url.Values{"page": {"0"}}, testSpec)
	assert.Error(t, err)
	_, err = ParseListQuery(url.Values{"size": {"5000"}}, testSpec)
	assert.Error(t, err)
}

func TestParseListQueryFilters(t *testing.T) {
	values := url.Values{
		"title":            {"golang"},
		"status":           {"1"},
		"created_at_start": {"2024-01-01"},
		"created_at_end":   {"2024-12-31"},
	}
	q, err := ParseListQuery(values, testSpec)
	require.NoError(t, err)
	assert.Len(t, q.Scopes, 4)
}

func TestParseListQueryRejectsUnknownField(t *testing.T) {
	_, err := ParseListQuery(url.Values{"password": {"x"}}, testSpec)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown filter field")
}

func TestParseListQueryRejectsRangeOnScalarField(t *testing.T) {
	_, err := ParseListQuery(url.Values{"status_start": {"1"}}, testSpec)
	assert.Error(t, err)
}

func TestParseListQueryRejectsBareRangeField(t *testing.T) {
	_, err := ParseListQuery(url.Values{"created_at": {"2024-01-01"}}, testSpec)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "created_at_start")
}

func TestParseListQuerySortStringForm(t *testing.T) {
	q, err := ParseListQuery(url.Values{"sort": {"created_at desc, title asc"}}, testSpec)
	require.NoError(t, err)
	assert.Len(t, q.Scopes, 2)

	_, err = ParseListQuery(url.Values{"sort": {"created_at sideways"}}, testSpec)
	assert.Error(t, err)
	_, err = ParseListQuery(url.Values{"sort": {"secret desc"}}, testSpec)
	assert.Error(t, err)
}

func TestParseListQuerySortMapForm(t *testing.T) {
	q, err := ParseListQuery(url.Values{"sort[created_at]": {"desc"}}, testSpec)
	require.NoError(t, err)
	assert.Len(t, q.Scopes, 1)

	_, err = ParseListQuery(url.Values{"sort[secret]": {"asc"}}, testSpec)
	assert.Error(t, err)
	_, err = ParseListQuery(url.Values{"sort[created_at]": {"up"}}, testSpec)
	assert.Error(t, err)
}
