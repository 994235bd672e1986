package syncer

import (
	"context"
	"time"

	"backoffice-core/internal/entity"
	"backoffice-core/internal/market"
	"backoffice-core/internal/queue"
	"backoffice-core/internal/repository"
	"backoffice-core/internal/sharding"
	"backoffice-core/pkg/common"
	"backoffice-core/pkg/logger"
	"backoffice-core/pkg/telegram"
	"backoffice-core/pkg/utils"
)

// Config tunes the sync jobs.
type Config struct {
	RelationTaskSpacing time.Duration `mapstructure:"relation_task_spacing"`
	KlineTaskSpacing    time.Duration `mapstructure:"kline_task_spacing"`
	KlineHistoryYears   int           `mapstructure:"kline_history_years"`
}

// Service implements the market ETL jobs. Fanout methods only enqueue; the
// per-target work happens in queue handlers.
type Service struct {
	cfg         Config
	marketAPI   *market.Client
	stockRepo   repository.StockRepository
	sectorRepo  repository.SectorRepository
	klineRouter *sharding.Router
	broker      *queue.Broker
	notifier    telegram.Notifier
	logger      *logger.Logger
}

// NewService creates a new Service.
func NewService(
	cfg Config,
	marketAPI *market.Client,
	stockRepo repository.StockRepository,
	sectorRepo repository.SectorRepository,
	klineRouter *sharding.Router,
	broker *queue.Broker,
	notifier telegram.Notifier,
	log *logger.Logger,
) *Service {
	if cfg.KlineHistoryYears <= 0 {
		cfg.KlineHistoryYears = 30
	}
	if cfg.RelationTaskSpacing <= 0 {
		cfg.RelationTaskSpacing = 3 * time.Second
	}
	if cfg.KlineTaskSpacing <= 0 {
		cfg.KlineTaskSpacing = 500 * time.Millisecond
	}
	return &Service{
		cfg:         cfg,
		marketAPI:   marketAPI,
		stockRepo:   stockRepo,
		sectorRepo:  sectorRepo,
		klineRouter: klineRouter,
		broker:      broker,
		notifier:    notifier,
		logger:      log,
	}
}

// SyncStockList refreshes the stock master from every vendor list endpoint.
// Rows upsert by stock_code so the quote snapshot is overwritten wholesale.
func (s *Service) SyncStockList(ctx context.Context) error {
	var processed, failed int

	for _, m := range []entity.Market{entity.MarketSH, entity.MarketSZ, entity.MarketBSE, entity.MarketHK, entity.MarketUS} {
		rows, err := s.marketAPI.FetchStockList(ctx, m)
		if err != nil {
			s.logger.Error("stock list fetch failed", logger.StringField("market", string(m)), logger.ErrorField(err))
			failed++
			continue
		}

		stocks := make([]entity.Stock, 0, len(rows))
		for _, row := range rows {
			stock, err := parseListRow(m, row)
			if err != nil {
				s.logger.Warn("skipping unparseable stock row", logger.StringField("market", string(m)), logger.ErrorField(err))
				continue
			}
			stocks = append(stocks, *stock)
		}

		if err := s.stockRepo.BulkUpsert(ctx, stocks); err != nil {
			s.logger.Error("stock list upsert failed", logger.StringField("market", string(m)), logger.ErrorField(err))
			failed++
			continue
		}
		processed += len(stocks)
		s.logger.Info("stock list synced",
			logger.StringField("market", string(m)),
			logger.IntField("count", len(stocks)))
	}

	if err := s.notifier.NotifySyncSummary("stock_list", processed, failed); err != nil {
		s.logger.Warn("sync notification failed", logger.ErrorField(err))
	}
	return nil
}

func parseListRow(m entity.Market, row map[string]interface{}) (*entity.Stock, error) {
	switch m {
	case entity.MarketHK:
		return market.ParseHKRow(row)
	case entity.MarketUS:
		return market.ParseUSRow(row)
	default:
		return market.ParseAShareRow(row)
	}
}

// SyncIndustryList refreshes the industry rollups and writes the daily
// snapshot logs.
func (s *Service) SyncIndustryList(ctx context.Context) error {
	rows, err := s.marketAPI.FetchSectorList(ctx, market.SectorIndustry)
	if err != nil {
		return err
	}

	industries := make([]entity.Industry, 0, len(rows))
	for _, row := range rows {
		sr, err := market.ParseSectorRow(row)
		if err != nil {
			s.logger.Warn("skipping unparseable industry row", logger.ErrorField(err))
			continue
		}
		industries = append(industries, entity.Industry{
			IndustryCode:     sr.Code,
			IndustryName:     sr.Name,
			LeadingStockCode: sr.LeadingStockCode,
			LeadingStockName: sr.LeadingStockName,
			UpCount:          sr.UpCount,
			DownCount:        sr.DownCount,
			ChangePct:        sr.ChangePct,
			TotalMarketCap:   sr.TotalMarketCap,
			Status:           entity.StatusEnabled,
		})
	}
	if err := s.sectorRepo.UpsertIndustries(ctx, industries); err != nil {
		return err
	}

	// Snapshot needs the assigned ids, so read the rollups back.
	stored, err := s.sectorRepo.GetIndustries(ctx)
	if err != nil {
		return err
	}
	today := utils.TruncateToDay(utils.TimeNowCST())
	logs := make([]entity.IndustryLog, 0, len(stored))
	for i := range stored {
		logs = append(logs, entity.IndustryLog{
			IndustryID:     stored[i].ID,
			RecordDate:     today,
			ChangePct:      stored[i].ChangePct,
			UpCount:        stored[i].UpCount,
			DownCount:      stored[i].DownCount,
			TotalMarketCap: stored[i].TotalMarketCap,
		})
	}
	if err := s.sectorRepo.UpsertIndustryLogs(ctx, logs); err != nil {
		return err
	}

	s.logger.Info("industry list synced", logger.IntField("count", len(industries)))
	return nil
}

// SyncConceptList refreshes the concept rollups and writes the daily
// snapshot logs.
func (s *Service) SyncConceptList(ctx context.Context) error {
	rows, err := s.marketAPI.FetchSectorList(ctx, market.SectorConcept)
	if err != nil {
		return err
	}

	concepts := make([]entity.Concept, 0, len(rows))
	for _, row := range rows {
		sr, err := market.ParseSectorRow(row)
		if err != nil {
			s.logger.Warn("skipping unparseable concept row", logger.ErrorField(err))
			continue
		}
		concepts = append(concepts, entity.Concept{
			ConceptCode:      sr.Code,
			ConceptName:      sr.Name,
			LeadingStockCode: sr.LeadingStockCode,
			LeadingStockName: sr.LeadingStockName,
			UpCount:          sr.UpCount,
			DownCount:        sr.DownCount,
			ChangePct:        sr.ChangePct,
			TotalMarketCap:   sr.TotalMarketCap,
			Status:           entity.StatusEnabled,
		})
	}
	if err := s.sectorRepo.UpsertConcepts(ctx, concepts); err != nil {
		return err
	}

	stored, err := s.sectorRepo.GetConcepts(ctx)
	if err != nil {
		return err
	}
	today := utils.TruncateToDay(utils.TimeNowCST())
	logs := make([]entity.ConceptLog, 0, len(stored))
	for i := range stored {
		logs = append(logs, entity.ConceptLog{
			ConceptID:      stored[i].ID,
			RecordDate:     today,
			ChangePct:      stored[i].ChangePct,
			UpCount:        stored[i].UpCount,
			DownCount:      stored[i].DownCount,
			TotalMarketCap: stored[i].TotalMarketCap,
		})
	}
	if err := s.sectorRepo.UpsertConceptLogs(ctx, logs); err != nil {
		return err
	}

	s.logger.Info("concept list synced", logger.IntField("count", len(concepts)))
	return nil
}

// enqueueSpaced parks one task per code with countdown = index * spacing so a
// fanout does not burst the vendor.
func (s *Service) enqueueSpaced(ctx context.Context, taskType string, codes []string, spacing time.Duration) error {
	for i, code := range codes {
		task, err := queue.NewTask(taskType, queue.SyncSectorRelationPayload{SectorCode: code})
		if err != nil {
			return err
		}
		if err := s.broker.EnqueueIn(ctx, common.StreamMarketSync, task, time.Duration(i)*spacing); err != nil {
			return err
		}
	}
	return nil
}
