package repository

import (
	"context"

	"backoffice-core/internal/entity"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StockRepository defines the interface for interacting with the stock master.
type StockRepository interface {
	BulkUpsert(ctx context.Context, stocks []entity.Stock) error
	GetByID(ctx context.Context, id uint) (*entity.Stock, error)
	GetByCode(ctx context.Context, code string) (*entity.Stock, error)
	GetByCodes(ctx context.Context, codes []string) ([]entity.Stock, error)
	GetTradingAShares(ctx context.Context) ([]entity.Stock, error)
	SetIndustry(ctx context.Context, stockIDs []uint, industryID uint) error
	List(ctx context.Context, scopes []func(*gorm.DB) *gorm.DB, offset, limit int) ([]entity.Stock, int64, error)
}

// NewStockRepository creates a new instance of StockRepository.
func NewStockRepository(db *gorm.DB) StockRepository {
	return &stockRepository{db: db}
}

type stockRepository struct {
	db *gorm.DB
}

// quoteColumns are the fields overwritten wholesale on every list sync.
// IndustryID is deliberately absent; it is owned by the relation sync.
var quoteColumns = []string{
	"stock_name", "trade_status", "is_st",
	"latest_price", "open_price", "close_price", "high_price", "low_price",
	"change_pct", "change_amount", "volume", "turnover", "turnover_rate",
	"amplitude", "pe_ratio", "pb_ratio", "total_market_cap", "float_market_cap",
	"change_5_min", "change_60_day", "change_ytd", "updated_at",
}

func (r *stockRepository) BulkUpsert(ctx context.Context, stocks []entity.Stock) error {
	if len(stocks) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "stock_code"}},
		DoUpdates: clause.AssignmentColumns(quoteColumns),
	}).CreateInBatches(stocks, 500).Error
}

func (r *stockRepository) GetByID(ctx context.Context, id uint) (*entity.Stock, error) {
	var stock entity.Stock
	if err := r.db.WithContext(ctx).First(&stock, id).Error; err != nil {
		return nil, err
	}
	return &stock, nil
}

func (r *stockRepository) GetByCode(ctx context.Context, code string) (*entity.Stock, error) {
	var stock entity.Stock
	if err := r.db.WithContext(ctx).Where("stock_code = ?", code).First(&stock).Error; err != nil {
		return nil, err
	}
	return &stock, nil
}

func (r *stockRepository) GetByCodes(ctx context.Context, codes []string) ([]entity.Stock, error) {
	if len(codes) == 0 {
		return nil, nil
	}
	var stocks []entity.Stock
	if err := r.db.WithContext(ctx).Where("stock_code IN ?", codes).Find(&stocks).Error; err != nil {
		return nil, err
	}
	return stocks, nil
}

// GetTradingAShares returns the enabled, non-halted mainland universe used by
// the kline fanout.
func (r *stockRepository) GetTradingAShares(ctx context.Context) ([]entity.Stock, error) {
	var stocks []entity.Stock
	err := r.db.WithContext(ctx).
		Where("market IN ?", []entity.Market{entity.MarketSH, entity.MarketSZ, entity.MarketBSE}).
		Where("trade_status = ?", entity.TradeStatusTrading).
		Where("status = ?", entity.StatusEnabled).
		Find(&stocks).Error
	if err != nil {
		return nil, err
	}
	return stocks, nil
}

func (r *stockRepository) SetIndustry(ctx context.Context, stockIDs []uint, industryID uint) error {
	if len(stockIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&entity.Stock{}).
		Where("id IN ?", stockIDs).
		Update("industry_id", industryID).Error
}

func (r *stockRepository) List(ctx context.Context, scopes []func(*gorm.DB) *gorm.DB, offset, limit int) ([]entity.Stock, int64, error) {
	var (
		stocks []entity.Stock
		total  int64
	)
	q := r.db.WithContext(ctx).Model(&entity.Stock{}).Scopes(scopes...)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := q.Offset(offset).Limit(limit).Find(&stocks).Error; err != nil {
		return nil, 0, err
	}
	return stocks, total, nil
}
