package admin

import (
	"errors"

	"backoffice-core/internal/publisher"
	"backoffice-core/internal/repository"
	"backoffice-core/pkg/logger"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

var publishLogFields = FieldSpec{
	"article_id":   FieldExact,
	"platform":     FieldExact,
	"status":       FieldExact,
	"created_at":   FieldRange,
	"published_at": FieldRange,
}

// PublishHandler handles HTTP requests for the publish workflow.
type PublishHandler struct {
	publishSvc *publisher.Service
	logRepo    repository.PublishLogRepository
	env        *Envelope
	logger     *logger.Logger
}

// NewPublishHandler creates a new PublishHandler.
func NewPublishHandler(publishSvc *publisher.Service, logRepo repository.PublishLogRepository, env *Envelope, log *logger.Logger) *PublishHandler {
	return &PublishHandler{publishSvc: publishSvc, logRepo: logRepo, env: env, logger: log}
}

// RegisterRoutes registers the publish routes to the Echo group.
func (h *PublishHandler) RegisterRoutes(g *echo.Group) {
	g.POST("", h.Submit)
	g.POST("/batch", h.SubmitBatch)
	g.GET("/logs", h.ListLogs)
	g.GET("/logs/:id", h.GetLog)
	g.POST("/logs/:id/retry", h.Retry)
	g.DELETE("/logs/:id", h.DeleteLog)
	g.DELETE("/logs", h.DeleteLogs)
}

type submitRequest struct {
	ArticleID uint   `json:"article_id"`
	Platform  string `json:"platform"`
}

func (h *PublishHandler) Submit(c echo.Context) error {
	var req submitRequest
	if err := c.Bind(&req); err != nil {
		return h.env.BadRequest(c, "invalid request payload", err)
	}
	if req.ArticleID == 0 || req.Platform == "" {
		return h.env.BadRequest(c, "article_id and platform are required", nil)
	}

	log, err := h.publishSvc.SubmitPublish(c.Request().Context(), req.ArticleID, req.Platform)
	if err != nil {
		if errors.Is(err, repository.ErrPublishInFlight) {
			return h.env.Conflict(c, err.Error())
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return h.env.NotFound(c, err.Error())
		}
		return h.env.Internal(c, "failed to submit publish", err)
	}
	return h.env.Created(c, log)
}

type batchSubmitRequest struct {
	ArticleIDs []uint `json:"article_ids"`
	Platform   string `json:"platform"`
}

func (h *PublishHandler) SubmitBatch(c echo.Context) error {
	var req batchSubmitRequest
	if err := c.Bind(&req); err != nil {
		return h.env.BadRequest(c, "invalid request payload", err)
	}
	if len(req.ArticleIDs) == 0 || req.Platform == "" {
		return h.env.BadRequest(c, "article_ids and platform are required", nil)
	}
	results := h.publishSvc.SubmitBatch(c.Request().Context(), req.ArticleIDs, req.Platform)
	return h.env.OK(c, results)
}

func (h *PublishHandler) ListLogs(c echo.Context) error {
	q, err := ParseListQuery(c.QueryParams(), publishLogFields)
	if err != nil {
		return h.env.BadRequest(c, err.Error(), nil)
	}
	logs, total, err := h.logRepo.List(c.Request().Context(), q.Scopes, q.Offset(), q.Size)
	if err != nil {
		return h.env.Internal(c, "failed to list publish logs", err)
	}
	return h.env.OK(c, ListData{Items: logs, Total: total, Page: q.Page, Size: q.Size})
}

func (h *PublishHandler) GetLog(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return h.env.BadRequest(c, "invalid log id", err)
	}
	log, err := h.logRepo.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return h.env.NotFound(c, "publish log not found")
		}
		return h.env.Internal(c, "failed to load publish log", err)
	}
	return h.env.OK(c, log)
}

func (h *PublishHandler) Retry(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return h.env.BadRequest(c, "invalid log id", err)
	}
	log, err := h.publishSvc.Retry(c.Request().Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrPublishNotRetryable), errors.Is(err, repository.ErrRetryLimitReached):
			return h.env.Conflict(c, err.Error())
		case errors.Is(err, gorm.ErrRecordNotFound):
			return h.env.NotFound(c, "publish log not found")
		default:
			return h.env.Internal(c, "failed to retry publish", err)
		}
	}
	return h.env.OK(c, log)
}

type deleteLogsRequest struct {
	IDs []uint `json:"ids"`
}

// DeleteLogs bulk-deletes publish logs; any RUNNING log aborts the batch.
func (h *PublishHandler) DeleteLogs(c echo.Context) error {
	var req deleteLogsRequest
	if err := c.Bind(&req); err != nil {
		return h.env.BadRequest(c, "invalid request payload", err)
	}
	if len(req.IDs) == 0 {
		return h.env.BadRequest(c, "ids are required", nil)
	}
	if err := h.logRepo.DeleteBatch(c.Request().Context(), req.IDs); err != nil {
		if errors.Is(err, repository.ErrDeleteRunning) {
			return h.env.Conflict(c, err.Error())
		}
		return h.env.Internal(c, "failed to delete publish logs", err)
	}
	return h.env.OK(c, echo.Map{"deleted": len(req.IDs)})
}

func (h *PublishHandler) DeleteLog(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return h.env.BadRequest(c, "invalid log id", err)
	}
	if err := h.logRepo.Delete(c.Request().Context(), id); err != nil {
		switch {
		case errors.Is(err, repository.ErrDeleteRunning):
			return h.env.Conflict(c, err.Error())
		case errors.Is(err, gorm.ErrRecordNotFound):
			return h.env.NotFound(c, "publish log not found")
		default:
			return h.env.Internal(c, "failed to delete publish log", err)
		}
	}
	return h.env.OK(c, nil)
}
