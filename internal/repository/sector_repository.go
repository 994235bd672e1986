package repository

import (
	"context"
	"time"

	"backoffice-core/internal/entity"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SectorRepository defines the interface for industries, concepts, their daily
// log snapshots and the stock-concept relation.
type SectorRepository interface {
	UpsertIndustries(ctx context.Context, industries []entity.Industry) error
	UpsertConcepts(ctx context.Context, concepts []entity.Concept) error
	UpsertIndustryLogs(ctx context.Context, logs []entity.IndustryLog) error
	UpsertConceptLogs(ctx context.Context, logs []entity.ConceptLog) error
	GetIndustries(ctx context.Context) ([]entity.Industry, error)
	GetConcepts(ctx context.Context) ([]entity.Concept, error)
	GetIndustryByCode(ctx context.Context, code string) (*entity.Industry, error)
	GetConceptByCode(ctx context.Context, code string) (*entity.Concept, error)
	ReplaceConceptStocks(ctx context.Context, conceptID uint, stockIDs []uint) error
	ListIndustryLogs(ctx context.Context, industryID uint, from, to time.Time) ([]entity.IndustryLog, error)
}

// NewSectorRepository creates a new instance of SectorRepository.
func NewSectorRepository(db *gorm.DB) SectorRepository {
	return &sectorRepository{db: db}
}

type sectorRepository struct {
	db *gorm.DB
}

var sectorRollupColumns = []string{
	"leading_stock_code", "leading_stock_name", "up_count", "down_count",
	"change_pct", "total_market_cap", "updated_at",
}

var sectorLogColumns = []string{
	"change_pct", "up_count", "down_count", "total_market_cap", "updated_at",
}

func (r *sectorRepository) UpsertIndustries(ctx context.Context, industries []entity.Industry) error {
	if len(industries) == 0 {
		return nil
	}
	cols := append([]string{"industry_name"}, sectorRollupColumns...)
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "industry_code"}},
		DoUpdates: clause.AssignmentColumns(cols),
	}).CreateInBatches(industries, 200).Error
}

func (r *sectorRepository) UpsertConcepts(ctx context.Context, concepts []entity.Concept) error {
	if len(concepts) == 0 {
		return nil
	}
	cols := append([]string{"concept_name"}, sectorRollupColumns...)
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "concept_code"}},
		DoUpdates: clause.AssignmentColumns(cols),
	}).CreateInBatches(concepts, 200).Error
}

// UpsertIndustryLogs keeps at most one snapshot per industry per calendar
// day; a re-sync on the same day updates in place.
func (r *sectorRepository) UpsertIndustryLogs(ctx context.Context, logs []entity.IndustryLog) error {
	if len(logs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "industry_id"}, {Name: "record_date"}},
		DoUpdates: clause.AssignmentColumns(sectorLogColumns),
	}).CreateInBatches(logs, 200).Error
}

func (r *sectorRepository) UpsertConceptLogs(ctx context.Context, logs []entity.ConceptLog) error {
	if len(logs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "concept_id"}, {Name: "record_date"}},
		DoUpdates: clause.AssignmentColumns(sectorLogColumns),
	}).CreateInBatches(logs, 200).Error
}

func (r *sectorRepository) GetIndustries(ctx context.Context) ([]entity.Industry, error) {
	var industries []entity.Industry
	if err := r.db.WithContext(ctx).Where("status = ?", entity.StatusEnabled).Find(&industries).Error; err != nil {
		return nil, err
	}
	return industries, nil
}

func (r *sectorRepository) GetConcepts(ctx context.Context) ([]entity.Concept, error) {
	var concepts []entity.Concept
	if err := r.db.WithContext(ctx).Where("status = ?", entity.StatusEnabled).Find(&concepts).Error; err != nil {
		return nil, err
	}
	return concepts, nil
}

func (r *sectorRepository) GetIndustryByCode(ctx context.Context, code string) (*entity.Industry, error) {
	var industry entity.Industry
	if err := r.db.WithContext(ctx).Where("industry_code = ?", code).First(&industry).Error; err != nil {
		return nil, err
	}
	return &industry, nil
}

func (r *sectorRepository) GetConceptByCode(ctx context.Context, code string) (*entity.Concept, error) {
	var concept entity.Concept
	if err := r.db.WithContext(ctx).Where("concept_code = ?", code).First(&concept).Error; err != nil {
		return nil, err
	}
	return &concept, nil
}

// ReplaceConceptStocks swaps a concept's membership atomically so readers
// never observe a half-written relation.
func (r *sectorRepository) ReplaceConceptStocks(ctx context.Context, conceptID uint, stockIDs []uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("concept_id = ?", conceptID).Delete(&entity.StockConcept{}).Error; err != nil {
			return err
		}
		if len(stockIDs) == 0 {
			return nil
		}
		relations := make([]entity.StockConcept, 0, len(stockIDs))
		for _, id := range stockIDs {
			relations = append(relations, entity.StockConcept{StockID: id, ConceptID: conceptID})
		}
		return tx.CreateInBatches(relations, 500).Error
	})
}

func (r *sectorRepository) ListIndustryLogs(ctx context.Context, industryID uint, from, to time.Time) ([]entity.IndustryLog, error) {
	var logs []entity.IndustryLog
	err := r.db.WithContext(ctx).
		Where("industry_id = ?", industryID).
		Where("record_date BETWEEN ? AND ?", from, to).
		Order("record_date ASC").
		Find(&logs).Error
	if err != nil {
		return nil, err
	}
	return logs, nil
}
