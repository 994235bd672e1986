package entity

import (
	"time"

	"gorm.io/gorm"
)

// Industry is a vendor-defined industry sector with its daily rollup stats.
type Industry struct {
	ID               uint     `gorm:"primaryKey" json:"id"`
	IndustryCode     string   `gorm:"type:varchar(16);uniqueIndex;not null" json:"industry_code"`
	IndustryName     string   `gorm:"type:varchar(64);not null" json:"industry_name"`
	LeadingStockCode *string  `gorm:"type:varchar(16)" json:"leading_stock_code"`
	LeadingStockName *string  `gorm:"type:varchar(64)" json:"leading_stock_name"`
	UpCount          *int     `json:"up_count"`
	DownCount        *int     `json:"down_count"`
	ChangePct        *float64 `gorm:"type:decimal(10,4)" json:"change_pct"`
	TotalMarketCap   *float64 `gorm:"type:decimal(20,4);comment:总市值(亿元)" json:"total_market_cap"`

	Status    int            `gorm:"default:1" json:"status"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Industry) TableName() string {
	return TablePrefix + "market_industries"
}

// IndustryLog is the append-only daily snapshot of an industry rollup.
// At most one row per (industry_id, record_date); a re-sync on the same
// calendar day updates in place.
type IndustryLog struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	IndustryID     uint      `gorm:"uniqueIndex:uk_industry_date;not null" json:"industry_id"`
	RecordDate     time.Time `gorm:"type:date;uniqueIndex:uk_industry_date;not null" json:"record_date"`
	ChangePct      *float64  `gorm:"type:decimal(10,4)" json:"change_pct"`
	UpCount        *int      `json:"up_count"`
	DownCount      *int      `json:"down_count"`
	TotalMarketCap *float64  `gorm:"type:decimal(20,4)" json:"total_market_cap"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (IndustryLog) TableName() string {
	return TablePrefix + "market_industry_logs"
}

// Concept is a thematic sector. Stocks relate many-to-many through
// StockConcept, managed exclusively by the concept relation sync.
type Concept struct {
	ID               uint     `gorm:"primaryKey" json:"id"`
	ConceptCode      string   `gorm:"type:varchar(16);uniqueIndex;not null" json:"concept_code"`
	ConceptName      string   `gorm:"type:varchar(64);not null" json:"concept_name"`
	LeadingStockCode *string  `gorm:"type:varchar(16)" json:"leading_stock_code"`
	LeadingStockName *string  `gorm:"type:varchar(64)" json:"leading_stock_name"`
	UpCount          *int     `json:"up_count"`
	DownCount        *int     `json:"down_count"`
	ChangePct        *float64 `gorm:"type:decimal(10,4)" json:"change_pct"`
	TotalMarketCap   *float64 `gorm:"type:decimal(20,4);comment:总市值(亿元)" json:"total_market_cap"`

	Status    int            `gorm:"default:1" json:"status"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Concept) TableName() string {
	return TablePrefix + "market_concepts"
}

// ConceptLog is the daily snapshot of a concept rollup, same keying rule as
// IndustryLog.
type ConceptLog struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	ConceptID      uint      `gorm:"uniqueIndex:uk_concept_date;not null" json:"concept_id"`
	RecordDate     time.Time `gorm:"type:date;uniqueIndex:uk_concept_date;not null" json:"record_date"`
	ChangePct      *float64  `gorm:"type:decimal(10,4)" json:"change_pct"`
	UpCount        *int      `json:"up_count"`
	DownCount      *int      `json:"down_count"`
	TotalMarketCap *float64  `gorm:"type:decimal(20,4)" json:"total_market_cap"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (ConceptLog) TableName() string {
	return TablePrefix + "market_concept_logs"
}

// StockConcept links a stock to a concept. The relation sync replaces a
// concept's rows atomically, so there is no UpdatedAt.
type StockConcept struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	StockID   uint      `gorm:"uniqueIndex:uk_stock_concept;not null" json:"stock_id"`
	ConceptID uint      `gorm:"uniqueIndex:uk_stock_concept;not null" json:"concept_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (StockConcept) TableName() string {
	return TablePrefix + "market_stock_concepts"
}
