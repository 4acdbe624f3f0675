package controller

import (
	"context"
	"errors"

	"github.com/benbeisheim/checkers-backend/internal/advisor"
	"github.com/benbeisheim/checkers-backend/internal/checkers"
	"github.com/benbeisheim/checkers-backend/internal/model"
	"github.com/benbeisheim/checkers-backend/internal/service"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// statusFor maps an error family to the HTTP status clients see.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrGameNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, service.ErrNotInGame):
		return fiber.StatusForbidden
	case errors.Is(err, checkers.ErrIllegalMove),
		errors.Is(err, checkers.ErrNotation),
		errors.Is(err, model.ErrBadMoveRequest):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, checkers.ErrInvalidState),
		errors.Is(err, service.ErrGameFull),
		errors.Is(err, service.ErrAdvisorThinking),
		errors.Is(err, model.ErrAlreadyQueued):
		return fiber.StatusConflict
	case errors.Is(err, service.ErrNoAdvisor):
		return fiber.StatusServiceUnavailable
	case errors.Is(err, advisor.ErrNoMove):
		return fiber.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return fiber.StatusGatewayTimeout
	}
	return fiber.StatusInternalServerError
}

func fail(c *fiber.Ctx, err error) error {
	status := statusFor(err)
	event := log.Debug()
	if status >= fiber.StatusInternalServerError {
		event = log.Error()
	}
	event.Err(err).Str("path", c.Path()).Int("status", status).Msg("request failed")

	return c.Status(status).JSON(fiber.Map{
		"error": err.Error(),
	})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": msg,
	})
}
