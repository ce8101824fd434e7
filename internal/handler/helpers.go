package handler

import (
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/thesis-go-api/internal/middleware"
	"github.com/noah-isme/thesis-go-api/internal/service"
	"github.com/noah-isme/thesis-go-api/internal/utils"
)

// FieldError describes one failed validation rule.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

func parseQueryInt(c *fiber.Ctx, key string) (int, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return 0, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	return parsed, nil
}

func parseQueryUint(c *fiber.Ctx, key string) (uint, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return 0, nil
	}
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(parsed), nil
}

func parseIDParam(c *fiber.Ctx, key string) (uint, error) {
	id, err := c.ParamsInt(key)
	if err != nil || id <= 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid "+strings.ReplaceAll(key, "Id", " id"))
	}
	return uint(id), nil
}

func actorFromContext(c *fiber.Ctx) service.Actor {
	return service.Actor{
		ID:    middleware.UserID(c),
		Roles: middleware.UserRoles(c),
	}
}

func requestLogger(base zerolog.Logger, c *fiber.Ctx) *zerolog.Logger {
	logger := base
	if c != nil {
		if correlation := middleware.GetCorrelationID(c); correlation != "" {
			logger = base.With().Str("correlation_id", correlation).Logger()
		}
	}
	return &logger
}

func statusForKind(kind service.ErrorKind) int {
	switch kind {
	case service.KindNotFound:
		return fiber.StatusNotFound
	case service.KindConflict:
		return fiber.StatusConflict
	case service.KindForbidden:
		return fiber.StatusForbidden
	case service.KindInvalidState:
		return fiber.StatusUnprocessableEntity
	case service.KindValidation:
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

// respondError maps service failures onto the JSON envelope. Unknown errors are logged and
// reported with the generic fallback message.
func respondError(c *fiber.Ctx, logger zerolog.Logger, err error, fallback string) error {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return utils.SendError(c, fiberErr.Code, fiberErr.Message)
	}

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		fields := make([]FieldError, 0, len(validationErrors))
		for _, fe := range validationErrors {
			fields = append(fields, FieldError{Field: fe.Field(), Rule: fe.Tag()})
		}
		return utils.Fail(c, fiber.StatusBadRequest, "validation failed", fields)
	}

	if svcErr, ok := service.AsError(err); ok {
		status := statusForKind(svcErr.Kind)
		if status >= fiber.StatusInternalServerError {
			requestLogger(logger, c).Error().Err(err).Str("code", svcErr.Code).Msg(fallback)
			return utils.SendError(c, status, fallback)
		}
		return utils.Fail(c, status, svcErr.Message, errorDetails(svcErr))
	}

	requestLogger(logger, c).Error().Err(err).Msg(fallback)
	return utils.SendError(c, fiber.StatusInternalServerError, fallback)
}

func errorDetails(err *service.Error) interface{} {
	if err.Details != nil {
		return fiber.Map{"code": err.Code, "errors": err.Details}
	}
	return fiber.Map{"code": err.Code}
}
