package api

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/ifla/internal/db"
	"github.com/terraincognita07/ifla/internal/services"
)

func (handler *Handler) AdminStats(c *fiber.Ctx) error {
	stats, err := handler.admin.Stats()
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	return c.JSON(stats)
}

func (handler *Handler) AdminAnalytics(c *fiber.Ctx) error {
	analytics, err := handler.admin.Analytics()
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	return c.JSON(analytics)
}

func (handler *Handler) AdminListUsers(c *fiber.Ctx) error {
	filter := db.UserFilter{
		Search: strings.TrimSpace(c.Query("search")),
		Role:   strings.TrimSpace(c.Query("role")),
	}
	if raw := strings.TrimSpace(c.Query("active")); raw != "" {
		active := c.QueryBool("active")
		filter.Active = &active
	}
	users, err := handler.admin.ListUsers(filter)
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	return c.JSON(users)
}

func (handler *Handler) AdminGetUser(c *fiber.Ctx) error {
	userID, err := parseIDParam(c, "id")
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	user, err := handler.admin.GetUser(userID)
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	return c.JSON(user)
}

func (handler *Handler) AdminAddUser(c *fiber.Ctx) error {
	actor, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	var request userRequest
	if err := bindJSON(c, &request); err != nil {
		return handler.respondServiceError(c, err)
	}
	user, generated, err := handler.admin.AddUser(*actor, request.input())
	if err != nil {
		return handler.respondServiceError(c, err)
	}

	payload := fiber.Map{"user": user}
	if generated != "" {
		payload["temporary_password"] = generated
	}
	return c.Status(fiber.StatusCreated).JSON(payload)
}

func (handler *Handler) AdminUpdateUser(c *fiber.Ctx) error {
	actor, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	userID, err := parseIDParam(c, "id")
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	var request userRequest
	if err := bindJSON(c, &request); err != nil {
		return handler.respondServiceError(c, err)
	}
	user, err := handler.admin.UpdateUser(*actor, userID, request.input())
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	return c.JSON(user)
}

func (handler *Handler) AdminToggleUser(c *fiber.Ctx) error {
	actor, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	userID, err := parseIDParam(c, "id")
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	user, err := handler.admin.ToggleUserActive(*actor, userID)
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	return c.JSON(user)
}

func (handler *Handler) AdminDeactivateUser(c *fiber.Ctx) error {
	actor, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	userID, err := parseIDParam(c, "id")
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	user, err := handler.admin.DeactivateUser(*actor, userID)
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	return c.JSON(user)
}

func (handler *Handler) SubmitContact(c *fiber.Ctx) error {
	var input services.ContactInput
	if err := c.BodyParser(&input); err != nil {
		return handler.respondServiceError(c, singleFieldError("body", "invalid request body"))
	}
	message, err := handler.contact.Submit(c.UserContext(), input)
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": message.ID})
}

func (handler *Handler) AdminListContact(c *fiber.Ctx) error {
	messages, err := handler.contact.List(c.QueryBool("unread", false))
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	return c.JSON(messages)
}

func (handler *Handler) AdminMarkContactRead(c *fiber.Ctx) error {
	messageID, err := parseIDParam(c, "id")
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	if err := handler.contact.MarkRead(messageID); err != nil {
		return handler.respondServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (request userRequest) input() services.UserInput {
	return services.UserInput{
		Email:     request.Email,
		Username:  request.Username,
		Password:  request.Password,
		FirstName: request.FirstName,
		LastName:  request.LastName,
		Phone:     request.Phone,
		IsStaff:   request.IsStaff,
		IsStudent: request.IsStudent,
		IsActive:  request.IsActive,
	}
}
