package admin

import (
	"errors"
	"strconv"
	"time"

	"backoffice-core/internal/entity"
	"backoffice-core/internal/publisher"
	"backoffice-core/internal/repository"
	"backoffice-core/pkg/logger"

	"github.com/labstack/echo/v4"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var accountFields = FieldSpec{
	"platform":     FieldExact,
	"account_name": FieldText,
	"status":       FieldExact,
	"created_at":   FieldRange,
}

// AccountHandler handles HTTP requests for platform accounts.
type AccountHandler struct {
	accountRepo repository.PlatformAccountRepository
	publishSvc  *publisher.Service
	env         *Envelope
	logger      *logger.Logger
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accountRepo repository.PlatformAccountRepository, publishSvc *publisher.Service, env *Envelope, log *logger.Logger) *AccountHandler {
	return &AccountHandler{accountRepo: accountRepo, publishSvc: publishSvc, env: env, logger: log}
}

// RegisterRoutes registers the account routes to the Echo group.
func (h *AccountHandler) RegisterRoutes(g *echo.Group) {
	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
	g.POST("/:id/status", h.SetStatus)
	g.POST("/:id/verify", h.Verify)
	g.GET("/:id/questions", h.Questions)
}

// accountView masks the cookie bundle; only its presence is exposed.
type accountView struct {
	ID             uint       `json:"id"`
	Platform       string     `json:"platform"`
	AccountName    string     `json:"account_name"`
	UserAgent      string     `json:"user_agent"`
	Status         int        `json:"status"`
	IsBuiltin      bool       `json:"is_builtin"`
	HasCookies     bool       `json:"has_cookies"`
	LastVerifiedAt *time.Time `json:"last_verified_at"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func toAccountView(a *entity.PlatformAccount) accountView {
	return accountView{
		ID:             a.ID,
		Platform:       a.Platform,
		AccountName:    a.AccountName,
		UserAgent:      a.UserAgent,
		Status:         a.Status,
		IsBuiltin:      a.IsBuiltin,
		HasCookies:     len(a.CookieBundle) > 0,
		LastVerifiedAt: a.LastVerifiedAt,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
}

type accountRequest struct {
	Platform     string         `json:"platform"`
	AccountName  string         `json:"account_name"`
	CookieBundle datatypes.JSON `json:"cookie_bundle"`
	UserAgent    string         `json:"user_agent"`
}

func (h *AccountHandler) List(c echo.Context) error {
	q, err := ParseListQuery(c.QueryParams(), accountFields)
	if err != nil {
		return h.env.BadRequest(c, err.Error(), nil)
	}
	accounts, total, err := h.accountRepo.List(c.Request().Context(), q.Scopes, q.Offset(), q.Size)
	if err != nil {
		return h.env.Internal(c, "failed to list accounts", err)
	}
	views := make([]accountView, 0, len(accounts))
	for i := range accounts {
		views = append(views, toAccountView(&accounts[i]))
	}
	return h.env.OK(c, ListData{Items: views, Total: total, Page: q.Page, Size: q.Size})
}

func (h *AccountHandler) Create(c echo.Context) error {
	var req accountRequest
	if err := c.Bind(&req); err != nil {
		return h.env.BadRequest(c, "invalid request payload", err)
	}
	if req.Platform == "" || req.AccountName == "" {
		return h.env.BadRequest(c, "platform and account_name are required", nil)
	}
	if _, ok := publisher.ProfileFor(req.Platform); !ok {
		return h.env.BadRequest(c, "unsupported platform", nil)
	}
	if len(req.CookieBundle) > 0 {
		if _, err := publisher.ParseCookieBundle(req.CookieBundle); err != nil {
			return h.env.BadRequest(c, "cookie bundle is not a valid cookie export", err)
		}
	}

	account := &entity.PlatformAccount{
		Platform:     req.Platform,
		AccountName:  req.AccountName,
		CookieBundle: req.CookieBundle,
		UserAgent:    req.UserAgent,
		Status:       entity.StatusEnabled,
	}
	if err := h.accountRepo.Create(c.Request().Context(), account); err != nil {
		return h.env.Internal(c, "failed to create account", err)
	}
	return h.env.Created(c, toAccountView(account))
}

func (h *AccountHandler) Get(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return h.env.BadRequest(c, "invalid account id", err)
	}
	account, err := h.accountRepo.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return h.env.NotFound(c, "account not found")
		}
		return h.env.Internal(c, "failed to load account", err)
	}
	return h.env.OK(c, toAccountView(account))
}

func (h *AccountHandler) Update(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return h.env.BadRequest(c, "invalid account id", err)
	}
	var req accountRequest
	if err := c.Bind(&req); err != nil {
		return h.env.BadRequest(c, "invalid request payload", err)
	}

	ctx := c.Request().Context()
	account, err := h.accountRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return h.env.NotFound(c, "account not found")
		}
		return h.env.Internal(c, "failed to load account", err)
	}

	if req.AccountName != "" {
		account.AccountName = req.AccountName
	}
	if req.UserAgent != "" {
		account.UserAgent = req.UserAgent
	}
	if len(req.CookieBundle) > 0 {
		if _, err := publisher.ParseCookieBundle(req.CookieBundle); err != nil {
			return h.env.BadRequest(c, "cookie bundle is not a valid cookie export", err)
		}
		account.CookieBundle = req.CookieBundle
	}
	if err := h.accountRepo.Update(ctx, account); err != nil {
		return h.env.Internal(c, "failed to update account", err)
	}
	return h.env.OK(c, toAccountView(account))
}

func (h *AccountHandler) Delete(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return h.env.BadRequest(c, "invalid account id", err)
	}
	if err := h.accountRepo.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, repository.ErrBuiltinAccount) {
			return h.env.Conflict(c, err.Error())
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return h.env.NotFound(c, "account not found")
		}
		return h.env.Internal(c, "failed to delete account", err)
	}
	return h.env.OK(c, nil)
}

type setStatusRequest struct {
	Status int `json:"status"`
}

func (h *AccountHandler) SetStatus(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return h.env.BadRequest(c, "invalid account id", err)
	}
	var req setStatusRequest
	if err := c.Bind(&req); err != nil {
		return h.env.BadRequest(c, "invalid request payload", err)
	}
	if req.Status != entity.StatusEnabled && req.Status != entity.StatusDisabled {
		return h.env.BadRequest(c, "status must be 0 or 1", nil)
	}

	ctx := c.Request().Context()
	account, err := h.accountRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return h.env.NotFound(c, "account not found")
		}
		return h.env.Internal(c, "failed to load account", err)
	}
	account.Status = req.Status
	if err := h.accountRepo.Update(ctx, account); err != nil {
		return h.env.Internal(c, "failed to update account", err)
	}
	return h.env.OK(c, toAccountView(account))
}

// Verify runs a synchronous liveness check of the account's session.
func (h *AccountHandler) Verify(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return h.env.BadRequest(c, "invalid account id", err)
	}
	if err := h.publishSvc.VerifyAccount(c.Request().Context(), id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return h.env.NotFound(c, "account not found")
		}
		// Rate-limit and cookie-expiry messages are operator-facing.
		return h.env.Conflict(c, err.Error())
	}
	return h.env.OK(c, echo.Map{"verified": true})
}

// Questions fetches the platform's recommended question feed, hottest first.
func (h *AccountHandler) Questions(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return h.env.BadRequest(c, "invalid account id", err)
	}
	questions, err := h.publishSvc.FetchQuestions(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return h.env.NotFound(c, "account not found")
		}
		return h.env.Internal(c, "failed to fetch questions", err)
	}
	return h.env.OK(c, questions)
}

func paramID(c echo.Context) (uint, error) {
	return paramUint(c, "id")
}

func paramUint(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
