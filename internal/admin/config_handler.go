package admin

import (
	"errors"

	"backoffice-core/internal/entity"
	"backoffice-core/internal/repository"
	"backoffice-core/pkg/logger"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

var sysConfigFields = FieldSpec{
	"config_group": FieldExact,
	"config_key":   FieldText,
	"value_type":   FieldExact,
}

// ConfigHandler handles HTTP requests for runtime configuration.
type ConfigHandler struct {
	configRepo repository.SysConfigRepository
	env        *Envelope
	logger     *logger.Logger
}

// NewConfigHandler creates a new ConfigHandler.
func NewConfigHandler(configRepo repository.SysConfigRepository, env *Envelope, log *logger.Logger) *ConfigHandler {
	return &ConfigHandler{configRepo: configRepo, env: env, logger: log}
}

// RegisterRoutes registers the config routes to the Echo group.
func (h *ConfigHandler) RegisterRoutes(g *echo.Group) {
	g.GET("", h.List)
	g.GET("/groups/:group", h.GetGroup)
	g.PUT("", h.Set)
	g.DELETE("/:key", h.Delete)
}

func (h *ConfigHandler) List(c echo.Context) error {
	q, err := ParseListQuery(c.QueryParams(), sysConfigFields)
	if err != nil {
		return h.env.BadRequest(c, err.Error(), nil)
	}
	rows, total, err := h.configRepo.List(c.Request().Context(), q.Scopes, q.Offset(), q.Size)
	if err != nil {
		return h.env.Internal(c, "failed to list configs", err)
	}
	return h.env.OK(c, ListData{Items: rows, Total: total, Page: q.Page, Size: q.Size})
}

// GetGroup returns a group's decoded values, served from the Redis cache
// when warm.
func (h *ConfigHandler) GetGroup(c echo.Context) error {
	group := c.Param("group")
	values, err := h.configRepo.GetGroup(c.Request().Context(), group)
	if err != nil {
		return h.env.Internal(c, "failed to load config group", err)
	}
	return h.env.OK(c, values)
}

type setConfigRequest struct {
	ConfigGroup string      `json:"config_group"`
	ConfigKey   string      `json:"config_key"`
	Value       interface{} `json:"value"`
	ValueType   string      `json:"value_type"`
	Remark      string      `json:"remark"`
}

func (h *ConfigHandler) Set(c echo.Context) error {
	var req setConfigRequest
	if err := c.Bind(&req); err != nil {
		return h.env.BadRequest(c, "invalid request payload", err)
	}
	if req.ConfigGroup == "" || req.ConfigKey == "" {
		return h.env.BadRequest(c, "config_group and config_key are required", nil)
	}
	if req.ValueType == "" {
		req.ValueType = entity.ConfigTypeString
	}

	encoded, err := entity.EncodeConfigValue(req.Value, req.ValueType)
	if err != nil {
		return h.env.BadRequest(c, "value does not match value_type", err)
	}
	cfg := &entity.SysConfig{
		ConfigGroup: req.ConfigGroup,
		ConfigKey:   req.ConfigKey,
		ConfigValue: encoded,
		ValueType:   req.ValueType,
		Remark:      req.Remark,
	}
	if err := h.configRepo.Set(c.Request().Context(), cfg); err != nil {
		return h.env.Internal(c, "failed to save config", err)
	}
	return h.env.OK(c, cfg)
}

func (h *ConfigHandler) Delete(c echo.Context) error {
	key := c.Param("key")
	if err := h.configRepo.Delete(c.Request().Context(), key); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return h.env.NotFound(c, "config not found")
		}
		return h.env.Internal(c, "failed to delete config", err)
	}
	return h.env.OK(c, nil)
}
