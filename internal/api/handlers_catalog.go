package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/ifla/internal/services"
)

func (handler *Handler) ListLanguages(c *fiber.Ctx) error {
	languages, err := handler.catalog.ListLanguages(true)
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	return c.JSON(languages)
}

func (handler *Handler) GetLanguage(c *fiber.Ctx) error {
	languageID, err := parseIDParam(c, "id")
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	language, err := handler.catalog.GetLanguage(languageID)
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	if !language.IsActive {
		return handler.respondServiceError(c, services.ErrLanguageNotFound)
	}
	return c.JSON(language)
}

func (handler *Handler) ListLevels(c *fiber.Ctx) error {
	languageID, err := parseIDParam(c, "id")
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	levels, err := handler.catalog.ListLevels(languageID)
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	return c.JSON(levels)
}

func (handler *Handler) ListSchedules(c *fiber.Ctx) error {
	levelID, err := parseIDParam(c, "id")
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	schedules, err := handler.catalog.ListSchedules(levelID)
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	return c.JSON(schedules)
}

func (handler *Handler) AdminListLanguages(c *fiber.Ctx) error {
	languages, err := handler.catalog.ListLanguages(c.QueryBool("active_only", false))
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	return c.JSON(languages)
}

func (handler *Handler) AdminCreateLanguage(c *fiber.Ctx) error {
	var request languageRequest
	if err := bindJSON(c, &request); err != nil {
		return handler.respondServiceError(c, err)
	}
	language, err := handler.catalog.CreateLanguage(request.input())
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(language)
}

func (handler *Handler) AdminUpdateLanguage(c *fiber.Ctx) error {
	languageID, err := parseIDParam(c, "id")
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	var request languageRequest
	if err := bindJSON(c, &request); err != nil {
		return handler.respondServiceError(c, err)
	}
	language, err := handler.catalog.UpdateLanguage(languageID, request.input())
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	return c.JSON(language)
}

func (handler *Handler) AdminDeleteLanguage(c *fiber.Ctx) error {
	languageID, err := parseIDParam(c, "id")
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	if err := handler.catalog.DeleteLanguage(languageID); err != nil {
		return handler.respondServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (handler *Handler) AdminCreateLevel(c *fiber.Ctx) error {
	languageID, err := parseIDParam(c, "id")
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	var request levelRequest
	if err := bindJSON(c, &request); err != nil {
		return handler.respondServiceError(c, err)
	}
	level, err := handler.catalog.CreateLevel(languageID, request.input())
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(level)
}

func (handler *Handler) AdminUpdateLevel(c *fiber.Ctx) error {
	levelID, err := parseIDParam(c, "id")
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	var request levelRequest
	if err := bindJSON(c, &request); err != nil {
		return handler.respondServiceError(c, err)
	}
	level, err := handler.catalog.UpdateLevel(levelID, request.input())
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	return c.JSON(level)
}

func (handler *Handler) AdminDeleteLevel(c *fiber.Ctx) error {
	levelID, err := parseIDParam(c, "id")
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	if err := handler.catalog.DeleteLevel(levelID); err != nil {
		return handler.respondServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (request languageRequest) input() services.LanguageInput {
	return services.LanguageInput{
		Name:        request.Name,
		Code:        request.Code,
		Flag:        request.Flag,
		Description: request.Description,
		Category:    request.Category,
		IsActive:    request.IsActive,
	}
}

func (request levelRequest) input() services.LevelInput {
	return services.LevelInput{
		Level:         request.Level,
		Price:         request.Price,
		DurationWeeks: request.DurationWeeks,
		Description:   request.Description,
		IsActive:      request.IsActive,
	}
}
