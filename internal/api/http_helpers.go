package api

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/ifla/internal/services"
)

func apiError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"error": message})
}

// respondServiceError maps the service error categories onto HTTP statuses.
func (handler *Handler) respondServiceError(c *fiber.Ctx, err error) error {
	var validationErr *services.ValidationError
	if errors.As(err, &validationErr) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":  "validation failed",
			"fields": validationErr.Fields,
		})
	}

	switch {
	case errors.Is(err, services.ErrValidation):
		return apiError(c, fiber.StatusBadRequest, errorMessage(err))
	case errors.Is(err, services.ErrConflict):
		return apiError(c, fiber.StatusConflict, errorMessage(err))
	case errors.Is(err, services.ErrNotFound):
		return apiError(c, fiber.StatusNotFound, errorMessage(err))
	case errors.Is(err, services.ErrAuthorization):
		return apiError(c, fiber.StatusForbidden, errorMessage(err))
	case errors.Is(err, services.ErrExternalService):
		handler.report(c, err)
		return apiError(c, fiber.StatusBadGateway, "upstream service unavailable")
	}

	handler.report(c, err)
	return apiError(c, fiber.StatusInternalServerError, "internal error")
}

func (handler *Handler) report(c *fiber.Ctx, err error) {
	if handler.reporter == nil {
		return
	}
	extras := map[string]interface{}{
		"method": c.Method(),
		"path":   c.Path(),
	}
	if requestID, ok := c.Locals(contextRequestIDKey).(string); ok && requestID != "" {
		extras["request_id"] = requestID
	}
	handler.reporter.Error(err, extras)
}

// errorMessage drops the category suffix that service errors carry.
func errorMessage(err error) string {
	message := err.Error()
	if head, _, found := strings.Cut(message, ": "); found {
		return head
	}
	return message
}

func parseIDParam(c *fiber.Ctx, name string) (uint, error) {
	raw := strings.TrimSpace(c.Params(name))
	value, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || value == 0 {
		return 0, singleFieldError(name, "must be a positive integer")
	}
	return uint(value), nil
}

// bindJSON decodes the body into target and runs its validate tags.
func bindJSON(c *fiber.Ctx, target any) error {
	if err := c.BodyParser(target); err != nil {
		return singleFieldError("body", "invalid request body")
	}
	return services.ValidateStruct(target)
}

// flexibleString accepts a JSON string or number so lenient fields can parse it later.
type flexibleString string

func (value *flexibleString) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*value = ""
		return nil
	}
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		*value = flexibleString(text)
		return nil
	}
	*value = flexibleString(trimmed)
	return nil
}
