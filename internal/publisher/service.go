package publisher

import (
	"context"
	"errors"
	"fmt"

	"backoffice-core/internal/entity"
	"backoffice-core/internal/queue"
	"backoffice-core/internal/repository"
	"backoffice-core/pkg/common"
	"backoffice-core/pkg/logger"
	"backoffice-core/pkg/telegram"
	"backoffice-core/pkg/utils"
)

// Service owns the publish state machine. Submission creates a PENDING log
// and enqueues a task; the worker moves it RUNNING and lands on SUCCESS or
// FAILURE. Cookie expiry during publish fails the log but never flips the
// account status; only an explicit verify may mark a session dead.
type Service struct {
	accountRepo repository.PlatformAccountRepository
	articleRepo repository.ArticleRepository
	logRepo     repository.PublishLogRepository
	handlers    map[string]Driver
	antiDetect  *AntiDetect
	broker      *queue.Broker
	notifier    telegram.Notifier
	logger      *logger.Logger
}

// NewService creates a new Service.
func NewService(
	accountRepo repository.PlatformAccountRepository,
	articleRepo repository.ArticleRepository,
	logRepo repository.PublishLogRepository,
	handlers map[string]Driver,
	antiDetect *AntiDetect,
	broker *queue.Broker,
	notifier telegram.Notifier,
	log *logger.Logger,
) *Service {
	return &Service{
		accountRepo: accountRepo,
		articleRepo: articleRepo,
		logRepo:     logRepo,
		handlers:    handlers,
		antiDetect:  antiDetect,
		broker:      broker,
		notifier:    notifier,
		logger:      log,
	}
}

// SubmitPublish creates a PENDING log for one article and enqueues its task.
// The uniqueness pre-check runs inside the log creation transaction.
func (s *Service) SubmitPublish(ctx context.Context, articleID uint, platform string) (*entity.PublishLog, error) {
	if _, ok := s.handlers[platform]; !ok {
		return nil, fmt.Errorf("unsupported platform %q", platform)
	}
	if _, err := s.articleRepo.GetByID(ctx, articleID); err != nil {
		return nil, fmt.Errorf("article %d not found: %w", articleID, err)
	}
	account, err := s.accountRepo.GetActiveByPlatform(ctx, platform)
	if err != nil {
		return nil, fmt.Errorf("no enabled account for platform %s: %w", platform, err)
	}

	log := &entity.PublishLog{
		ArticleID:         articleID,
		Platform:          platform,
		PlatformAccountID: account.ID,
	}
	if err := s.logRepo.CreatePending(ctx, log); err != nil {
		return nil, err
	}
	if err := s.enqueue(ctx, log); err != nil {
		return nil, err
	}
	return log, nil
}

// BatchResult reports the per-article outcome of a batch submission.
type BatchResult struct {
	ArticleID uint   `json:"article_id"`
	LogID     uint   `json:"log_id,omitempty"`
	Error     string `json:"error,omitempty"`
}

// SubmitBatch submits each article independently; one duplicate does not
// poison the rest.
func (s *Service) SubmitBatch(ctx context.Context, articleIDs []uint, platform string) []BatchResult {
	results := make([]BatchResult, 0, len(articleIDs))
	for _, id := range articleIDs {
		log, err := s.SubmitPublish(ctx, id, platform)
		if err != nil {
			results = append(results, BatchResult{ArticleID: id, Error: err.Error()})
			continue
		}
		results = append(results, BatchResult{ArticleID: id, LogID: log.ID})
	}
	return results
}

// Retry flips a FAILURE log back to PENDING and re-enqueues it, bounded by
// the retry cap.
func (s *Service) Retry(ctx context.Context, logID uint) (*entity.PublishLog, error) {
	log, err := s.logRepo.ResetForRetry(ctx, logID)
	if err != nil {
		return nil, err
	}
	if err := s.enqueue(ctx, log); err != nil {
		return nil, err
	}
	return log, nil
}

// ProcessPublishTask is the queue handler for one publish log.
func (s *Service) ProcessPublishTask(ctx context.Context, taskID string, logID uint) error {
	log, err := s.logRepo.GetByID(ctx, logID)
	if err != nil {
		return fmt.Errorf("publish log %d not found: %w", logID, err)
	}
	if log.Status != entity.PublishStatusPending {
		s.logger.Warn("skipping publish log not in PENDING",
			logger.IntField("log_id", int(logID)),
			logger.StringField("status", log.Status))
		return nil
	}
	if err := s.logRepo.MarkRunning(ctx, logID, taskID); err != nil {
		return err
	}

	article, err := s.articleRepo.GetByID(ctx, log.ArticleID)
	if err != nil {
		return s.fail(ctx, log, article, fmt.Sprintf("article %d not found", log.ArticleID))
	}
	account, err := s.accountRepo.GetByID(ctx, log.PlatformAccountID)
	if err != nil {
		return s.fail(ctx, log, article, fmt.Sprintf("account %d not found", log.PlatformAccountID))
	}
	handler := s.handlers[log.Platform]
	if handler == nil {
		return s.fail(ctx, log, article, fmt.Sprintf("unsupported platform %q", log.Platform))
	}

	result, err := handler.Publish(ctx, account, article)
	if err != nil {
		// Cookie expiry is reported verbatim; the account stays enabled.
		return s.fail(ctx, log, article, err.Error())
	}

	now := utils.TimeNowCST()
	if err := s.logRepo.MarkSuccess(ctx, logID, result.PlatformArticleID, result.PlatformURL, now); err != nil {
		return err
	}
	if err := s.notifier.NotifyPublishResult(article.Title, log.Platform, true, result.PlatformURL); err != nil {
		s.logger.Warn("publish notification failed", logger.ErrorField(err))
	}
	s.logger.Info("article published",
		logger.IntField("log_id", int(logID)),
		logger.StringField("platform", log.Platform),
		logger.StringField("url", result.PlatformURL))
	return nil
}

// VerifyAccount checks a session's liveness, honoring the per-account rate
// limit before any browser work.
func (s *Service) VerifyAccount(ctx context.Context, accountID uint) error {
	account, err := s.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return err
	}
	handler := s.handlers[account.Platform]
	if handler == nil {
		return fmt.Errorf("unsupported platform %q", account.Platform)
	}

	now := utils.TimeNowCST()
	if err := s.antiDetect.CheckVerifyInterval(account.LastVerifiedAt, now); err != nil {
		return err
	}

	if err := handler.Verify(ctx, account); err != nil {
		if errors.Is(err, ErrCookieExpired) {
			// Verification is the one place a dead session disables the account.
			if setErr := s.accountRepo.SetStatus(ctx, accountID, entity.StatusDisabled); setErr != nil {
				s.logger.Error("failed to disable account after failed verify",
					logger.IntField("account_id", int(accountID)), logger.ErrorField(setErr))
			}
			return ErrCookieExpired
		}
		return err
	}
	// MarkVerified re-enables the account alongside the timestamp bump.
	return s.accountRepo.MarkVerified(ctx, accountID, utils.TimeNowCST())
}

// FetchQuestions pulls the recommended question feed for an account's
// platform, sorted hottest first.
func (s *Service) FetchQuestions(ctx context.Context, accountID uint) ([]Question, error) {
	account, err := s.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	handler := s.handlers[account.Platform]
	if handler == nil {
		return nil, fmt.Errorf("unsupported platform %q", account.Platform)
	}
	return handler.FetchQuestions(ctx, account)
}

func (s *Service) enqueue(ctx context.Context, log *entity.PublishLog) error {
	task, err := queue.NewTask(queue.TaskPublishArticle, queue.PublishArticlePayload{PublishLogID: log.ID})
	if err != nil {
		return err
	}
	if err := s.broker.Enqueue(ctx, common.StreamArticlePublish, task); err != nil {
		// The log would dangle in PENDING forever; surface it as FAILURE.
		if markErr := s.logRepo.MarkFailure(ctx, log.ID, "enqueue failed: "+err.Error()); markErr != nil {
			s.logger.Error("failed to mark unenqueued log", logger.ErrorField(markErr))
		}
		return err
	}
	return nil
}

func (s *Service) fail(ctx context.Context, log *entity.PublishLog, article *entity.Article, message string) error {
	if err := s.logRepo.MarkFailure(ctx, log.ID, message); err != nil {
		return err
	}
	title := fmt.Sprintf("article %d", log.ArticleID)
	if article != nil {
		title = article.Title
	}
	if err := s.notifier.NotifyPublishResult(title, log.Platform, false, message); err != nil {
		s.logger.Warn("publish notification failed", logger.ErrorField(err))
	}
	s.logger.Warn("publish failed",
		logger.IntField("log_id", int(log.ID)),
		logger.StringField("platform", log.Platform),
		logger.StringField("reason", message))
	return nil
}
