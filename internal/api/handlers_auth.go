package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/ifla/internal/models"
	"github.com/terraincognita07/ifla/internal/services"
)

func (handler *Handler) Health(c *fiber.Ctx) error {
	sqlDB, err := handler.db.DB()
	if err != nil || sqlDB.PingContext(c.UserContext()) != nil {
		return apiError(c, fiber.StatusServiceUnavailable, "database unavailable")
	}
	return c.JSON(fiber.Map{"status": "ok"})
}

func (handler *Handler) IssuePasscode(c *fiber.Ctx) error {
	var request passcodeRequest
	if err := bindJSON(c, &request); err != nil {
		return handler.respondServiceError(c, err)
	}

	err := handler.passcodes.IssuePasscode(c.UserContext(), request.Email, services.SignupInput{
		FirstName: request.FirstName,
		LastName:  request.LastName,
		Username:  request.Username,
		Password:  request.Password,
	})
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"ok": true})
}

func (handler *Handler) ResendPasscode(c *fiber.Ctx) error {
	var request resendPasscodeRequest
	if err := bindJSON(c, &request); err != nil {
		return handler.respondServiceError(c, err)
	}
	if err := handler.passcodes.ResendPasscode(c.UserContext(), request.Email); err != nil {
		return handler.respondServiceError(c, err)
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"ok": true})
}

// VerifyPasscode creates the account and opens a session.
func (handler *Handler) VerifyPasscode(c *fiber.Ctx) error {
	var request verifyPasscodeRequest
	if err := bindJSON(c, &request); err != nil {
		return handler.respondServiceError(c, err)
	}

	key := attemptKey(c, request.Email)
	if retryAfter, blocked := handler.passcodeLimiter.blocked(key); blocked {
		return tooManyAttempts(c, retryAfter, "too many verification attempts")
	}

	user, err := handler.passcodes.VerifyAndCreate(request.Email, request.Code)
	if err != nil {
		handler.passcodeLimiter.fail(key)
		return handler.respondServiceError(c, err)
	}
	handler.passcodeLimiter.clear(key)

	if err := handler.setAuthCookie(c, &user, false); err != nil {
		return apiError(c, fiber.StatusInternalServerError, "failed to create session")
	}
	return c.Status(fiber.StatusCreated).JSON(userPayload(user))
}

func (handler *Handler) Login(c *fiber.Ctx) error {
	var request loginRequest
	if err := bindJSON(c, &request); err != nil {
		return handler.respondServiceError(c, err)
	}

	key := attemptKey(c, request.Email)
	if retryAfter, blocked := handler.loginLimiter.blocked(key); blocked {
		return tooManyAttempts(c, retryAfter, "too many login attempts")
	}

	user, err := handler.authService.Authenticate(request.Email, request.Password)
	if err != nil {
		handler.loginLimiter.fail(key)
		if errors.Is(err, services.ErrInvalidCredentials) {
			return apiError(c, fiber.StatusUnauthorized, "invalid credentials")
		}
		return handler.respondServiceError(c, err)
	}
	handler.loginLimiter.clear(key)

	if err := handler.setAuthCookie(c, &user, request.RememberMe); err != nil {
		return apiError(c, fiber.StatusInternalServerError, "failed to create session")
	}
	return c.JSON(userPayload(user))
}

func (handler *Handler) GoogleSignIn(c *fiber.Ctx) error {
	var request googleSignInRequest
	if err := bindJSON(c, &request); err != nil {
		return handler.respondServiceError(c, err)
	}

	user, err := handler.authService.GoogleSignIn(c.UserContext(), request.IDToken)
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	if err := handler.setAuthCookie(c, &user, true); err != nil {
		return apiError(c, fiber.StatusInternalServerError, "failed to create session")
	}
	return c.JSON(userPayload(user))
}

func (handler *Handler) Logout(c *fiber.Ctx) error {
	handler.clearAuthCookie(c)
	return c.JSON(fiber.Map{"ok": true})
}

func (handler *Handler) Me(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	return c.JSON(userPayload(*user))
}

func (handler *Handler) ChangePassword(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	var request changePasswordRequest
	if err := bindJSON(c, &request); err != nil {
		return handler.respondServiceError(c, err)
	}

	err := handler.authService.ChangePassword(*user, services.PasswordChange{
		Current: request.CurrentPassword,
		New:     request.NewPassword,
		Confirm: request.ConfirmPassword,
	})
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func userPayload(user models.User) fiber.Map {
	return fiber.Map{
		"user": user,
		"role": user.Role(),
	}
}
