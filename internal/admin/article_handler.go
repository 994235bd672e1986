package admin

import (
	"errors"

	"backoffice-core/internal/entity"
	"backoffice-core/internal/publisher"
	"backoffice-core/internal/repository"
	"backoffice-core/pkg/logger"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

var articleFields = FieldSpec{
	"title":      FieldText,
	"category":   FieldExact,
	"status":     FieldExact,
	"created_at": FieldRange,
	"updated_at": FieldRange,
}

// ArticleHandler handles HTTP requests for articles.
type ArticleHandler struct {
	articleRepo repository.ArticleRepository
	env         *Envelope
	logger      *logger.Logger
}

// NewArticleHandler creates a new ArticleHandler.
func NewArticleHandler(articleRepo repository.ArticleRepository, env *Envelope, log *logger.Logger) *ArticleHandler {
	return &ArticleHandler{articleRepo: articleRepo, env: env, logger: log}
}

// RegisterRoutes registers the article routes to the Echo group.
func (h *ArticleHandler) RegisterRoutes(g *echo.Group) {
	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
}

type articleRequest struct {
	Title      string   `json:"title"`
	Content    string   `json:"content"`
	Summary    string   `json:"summary"`
	CoverImage string   `json:"cover_image"`
	Category   string   `json:"category"`
	Tags       []string `json:"tags"`
}

func (h *ArticleHandler) List(c echo.Context) error {
	q, err := ParseListQuery(c.QueryParams(), articleFields)
	if err != nil {
		return h.env.BadRequest(c, err.Error(), nil)
	}
	articles, total, err := h.articleRepo.List(c.Request().Context(), q.Scopes, q.Offset(), q.Size)
	if err != nil {
		return h.env.Internal(c, "failed to list articles", err)
	}
	return h.env.OK(c, ListData{Items: articles, Total: total, Page: q.Page, Size: q.Size})
}

func (h *ArticleHandler) Create(c echo.Context) error {
	var req articleRequest
	if err := c.Bind(&req); err != nil {
		return h.env.BadRequest(c, "invalid request payload", err)
	}
	if req.Title == "" || req.Content == "" {
		return h.env.BadRequest(c, "title and content are required", nil)
	}

	summary := req.Summary
	if summary == "" && publisher.ContainsHTML(req.Content) {
		summary = publisher.SummaryFromHTML(req.Content, 200)
	}

	article := &entity.Article{
		Title:      req.Title,
		Content:    req.Content,
		Summary:    summary,
		CoverImage: req.CoverImage,
		Category:   req.Category,
		Tags:       req.Tags,
		Status:     entity.StatusEnabled,
	}
	if err := h.articleRepo.Create(c.Request().Context(), article); err != nil {
		return h.env.Internal(c, "failed to create article", err)
	}
	return h.env.Created(c, article)
}

func (h *ArticleHandler) Get(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return h.env.BadRequest(c, "invalid article id", err)
	}
	article, err := h.articleRepo.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return h.env.NotFound(c, "article not found")
		}
		return h.env.Internal(c, "failed to load article", err)
	}
	return h.env.OK(c, article)
}

// Update rewrites the article, tags included; gorm serializes the tag list
// wholesale so the relink is atomic with the row update.
func (h *ArticleHandler) Update(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return h.env.BadRequest(c, "invalid article id", err)
	}
	var req articleRequest
	if err := c.Bind(&req); err != nil {
		return h.env.BadRequest(c, "invalid request payload", err)
	}

	ctx := c.Request().Context()
	article, err := h.articleRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return h.env.NotFound(c, "article not found")
		}
		return h.env.Internal(c, "failed to load article", err)
	}

	if req.Title != "" {
		article.Title = req.Title
	}
	if req.Content != "" {
		article.Content = req.Content
	}
	if req.Summary != "" {
		article.Summary = req.Summary
	}
	if req.CoverImage != "" {
		article.CoverImage = req.CoverImage
	}
	if req.Category != "" {
		article.Category = req.Category
	}
	if req.Tags != nil {
		article.Tags = req.Tags
	}
	if err := h.articleRepo.Update(ctx, article); err != nil {
		return h.env.Internal(c, "failed to update article", err)
	}
	return h.env.OK(c, article)
}

func (h *ArticleHandler) Delete(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return h.env.BadRequest(c, "invalid article id", err)
	}
	if err := h.articleRepo.Delete(c.Request().Context(), id); err != nil {
		return h.env.Internal(c, "failed to delete article", err)
	}
	return h.env.OK(c, nil)
}
