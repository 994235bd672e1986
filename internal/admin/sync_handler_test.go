package admin

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"backoffice-core/internal/entity"
	"backoffice-core/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeStockRepo struct {
	stocks map[uint]*entity.Stock
}

func (r *fakeStockRepo) BulkUpsert(ctx context.Context, stocks []entity.Stock) error { return nil }

func (r *fakeStockRepo) GetByID(ctx context.Context, id uint) (*entity.Stock, error) {
	stock, ok := r.stocks[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return stock, nil
}

func (r *fakeStockRepo) GetByCode(ctx context.Context, code string) (*entity.Stock, error) {
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeStockRepo) GetByCodes(ctx context.Context, codes []string) ([]entity.Stock, error) {
	return nil, nil
}

func (r *fakeStockRepo) GetTradingAShares(ctx context.Context) ([]entity.Stock, error) {
	return nil, nil
}

func (r *fakeStockRepo) SetIndustry(ctx context.Context, stockIDs []uint, industryID uint) error {
	return nil
}

func (r *fakeStockRepo) List(ctx context.Context, scopes []func(*gorm.DB) *gorm.DB, offset, limit int) ([]entity.Stock, int64, error) {
	return nil, 0, nil
}

func triggerSingleKline(t *testing.T, repo *fakeStockRepo, stockID string) (int, Response) {
	t.Helper()
	h := NewSyncHandler(nil, repo, NewEnvelope(false), logger.NewNop())

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("stock_id")
	c.SetParamValues(stockID)
	require.NoError(t, h.TriggerSingleKline(c))

	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec.Code, resp
}

func TestTriggerSingleKlineRejectsBadID(t *testing.T) {
	status, resp := triggerSingleKline(t, &fakeStockRepo{}, "not-a-number")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "invalid stock id", resp.Message)
}

func TestTriggerSingleKlineUnknownStock(t *testing.T) {
	repo := &fakeStockRepo{stocks: map[uint]*entity.Stock{}}
	status, resp := triggerSingleKline(t, repo, "42")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "stock not found", resp.Message)
}
