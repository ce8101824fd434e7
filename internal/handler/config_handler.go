package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/thesis-go-api/internal/dto"
	"github.com/noah-isme/thesis-go-api/internal/middleware"
	"github.com/noah-isme/thesis-go-api/internal/service"
	"github.com/noah-isme/thesis-go-api/internal/utils"
)

// ConfigHandler exposes the policy configuration endpoints.
type ConfigHandler struct {
	provider service.ConfigProvider
	logger   zerolog.Logger
}

// NewConfigHandler constructs the handler.
func NewConfigHandler(provider service.ConfigProvider, logger zerolog.Logger) *ConfigHandler {
	return &ConfigHandler{
		provider: provider,
		logger:   logger.With().Str("component", "config_handler").Logger(),
	}
}

// Register attaches configuration routes to the router group.
func (h *ConfigHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Put("/:key", middleware.WithAuth(h.update, middleware.AuthOptions{Roles: middleware.AdminOnly}))
}

func (h *ConfigHandler) list(c *fiber.Ctx) error {
	entries, err := h.provider.List(c.UserContext())
	if err != nil {
		return respondError(c, h.logger, err, "failed to list configuration")
	}
	return utils.SendSuccess(c, "configuration", entries)
}

func (h *ConfigHandler) update(c *fiber.Ctx) error {
	var payload dto.UpdateConfigRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	entry, err := h.provider.SetValue(c.UserContext(), actorFromContext(c), c.Params("key"), payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to update configuration")
	}
	return utils.SendSuccess(c, "configuration updated", entry)
}
