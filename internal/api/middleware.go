package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/ifla/internal/models"
)

const (
	authCookieName      = "ifla_auth"
	authCookiePurpose   = "auth"
	contextUserKey      = "current_user"
	contextRequestIDKey = "requestid"
)

func currentUser(c *fiber.Ctx) (*models.User, bool) {
	user, ok := c.Locals(contextUserKey).(*models.User)
	return user, ok && user != nil
}

func (handler *Handler) AuthRequired(c *fiber.Ctx) error {
	user, err := handler.authenticateRequest(c)
	if err != nil {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	if !user.IsActive {
		handler.clearAuthCookie(c)
		return apiError(c, fiber.StatusForbidden, "account is deactivated")
	}

	c.Locals(contextUserKey, user)
	return c.Next()
}

func (handler *Handler) StaffOnly(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	if !user.CanManage() {
		return apiError(c, fiber.StatusForbidden, "staff access required")
	}
	return c.Next()
}
