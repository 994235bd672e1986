package syncer

import (
	"context"
	"fmt"

	"backoffice-core/internal/market"
	"backoffice-core/internal/queue"
	"backoffice-core/pkg/logger"
)

// SyncIndustryRelation fans out one spaced task per industry.
func (s *Service) SyncIndustryRelation(ctx context.Context) error {
	industries, err := s.sectorRepo.GetIndustries(ctx)
	if err != nil {
		return err
	}
	codes := make([]string, 0, len(industries))
	for i := range industries {
		codes = append(codes, industries[i].IndustryCode)
	}
	if err := s.enqueueSpaced(ctx, queue.TaskSyncIndustryRelation, codes, s.cfg.RelationTaskSpacing); err != nil {
		return err
	}
	s.logger.Info("industry relation fanout enqueued", logger.IntField("industries", len(codes)))
	return nil
}

// SyncConceptRelation fans out one spaced task per concept.
func (s *Service) SyncConceptRelation(ctx context.Context) error {
	concepts, err := s.sectorRepo.GetConcepts(ctx)
	if err != nil {
		return err
	}
	codes := make([]string, 0, len(concepts))
	for i := range concepts {
		codes = append(codes, concepts[i].ConceptCode)
	}
	if err := s.enqueueSpaced(ctx, queue.TaskSyncConceptRelation, codes, s.cfg.RelationTaskSpacing); err != nil {
		return err
	}
	s.logger.Info("concept relation fanout enqueued", logger.IntField("concepts", len(codes)))
	return nil
}

// SyncSingleIndustryRelation points every constituent's industry_id at the
// industry. Stocks that left the industry keep their stale pointer until
// their new industry claims them; the vendor partitions stocks so every
// listed stock belongs to exactly one industry.
func (s *Service) SyncSingleIndustryRelation(ctx context.Context, industryCode string) error {
	industry, err := s.sectorRepo.GetIndustryByCode(ctx, industryCode)
	if err != nil {
		return fmt.Errorf("industry %s not found: %w", industryCode, err)
	}

	stockIDs, err := s.resolveConstituents(ctx, market.SectorIndustry, industryCode)
	if err != nil {
		return err
	}
	if err := s.stockRepo.SetIndustry(ctx, stockIDs, industry.ID); err != nil {
		return err
	}

	s.logger.Info("industry relation synced",
		logger.StringField("industry_code", industryCode),
		logger.IntField("constituents", len(stockIDs)))
	return nil
}

// SyncSingleConceptRelation replaces the concept's membership wholesale in
// one transaction.
func (s *Service) SyncSingleConceptRelation(ctx context.Context, conceptCode string) error {
	concept, err := s.sectorRepo.GetConceptByCode(ctx, conceptCode)
	if err != nil {
		return fmt.Errorf("concept %s not found: %w", conceptCode, err)
	}

	stockIDs, err := s.resolveConstituents(ctx, market.SectorConcept, conceptCode)
	if err != nil {
		return err
	}
	if err := s.sectorRepo.ReplaceConceptStocks(ctx, concept.ID, stockIDs); err != nil {
		return err
	}

	s.logger.Info("concept relation synced",
		logger.StringField("concept_code", conceptCode),
		logger.IntField("constituents", len(stockIDs)))
	return nil
}

// resolveConstituents maps the vendor's constituent codes onto stored stock
// ids. Unknown codes are skipped; the next stock list sync will pick them up.
func (s *Service) resolveConstituents(ctx context.Context, kind market.SectorKind, sectorCode string) ([]uint, error) {
	raw, err := s.marketAPI.FetchSectorConstituents(ctx, kind, sectorCode)
	if err != nil {
		return nil, err
	}
	// Constituent rows carry bare vendor codes; the master keys on the
	// venue-qualified form.
	codes := make([]string, 0, len(raw))
	for _, code := range raw {
		m, _, _, err := market.InferAShareVenue(code)
		if err != nil {
			s.logger.Warn("skipping constituent with unknown venue prefix",
				logger.StringField("code", code))
			continue
		}
		codes = append(codes, code+"."+string(m))
	}
	stocks, err := s.stockRepo.GetByCodes(ctx, codes)
	if err != nil {
		return nil, err
	}
	if len(stocks) < len(codes) {
		s.logger.Debug("some constituents are not in the stock master",
			logger.StringField("sector_code", sectorCode),
			logger.IntField("fetched", len(codes)),
			logger.IntField("matched", len(stocks)))
	}
	ids := make([]uint, 0, len(stocks))
	for i := range stocks {
		ids = append(ids, stocks[i].ID)
	}
	return ids, nil
}

