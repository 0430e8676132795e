package api

import (
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/ifla/internal/db"
	"github.com/terraincognita07/ifla/internal/services"
)

const maxUploadBytes = 5 << 20

// SubmitApplication accepts the multipart enrollment form with photo, verification_document
// and signature files.
func (handler *Handler) SubmitApplication(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	form, err := c.MultipartForm()
	if err != nil {
		return handler.respondServiceError(c, singleFieldError("body", "expected a multipart form"))
	}

	input, err := submissionFromForm(form)
	if err != nil {
		return handler.respondServiceError(c, err)
	}

	documents := services.Documents{}
	if documents.Photo, err = readFormDocument(form, "photo"); err != nil {
		return handler.respondServiceError(c, err)
	}
	if documents.IDDocument, err = readFormDocument(form, "verification_document"); err != nil {
		return handler.respondServiceError(c, err)
	}
	if documents.Signature, err = readFormDocument(form, "signature"); err != nil {
		return handler.respondServiceError(c, err)
	}

	application, err := handler.applications.Submit(c.UserContext(), *user, input, documents)
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(application)
}

func (handler *Handler) ListMyApplications(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	applications, err := handler.applications.ListForUser(user.ID)
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	return c.JSON(applications)
}

func (handler *Handler) GetApplication(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	applicationID, err := parseIDParam(c, "id")
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	application, err := handler.applications.Get(applicationID, *user)
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	return c.JSON(application)
}

func (handler *Handler) ApplicationDocument(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	applicationID, err := parseIDParam(c, "id")
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	content, err := handler.applications.Document(c.UserContext(), applicationID, c.Params("kind"), *user)
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	c.Set(fiber.HeaderContentType, http.DetectContentType(content))
	return c.Send(content)
}

func (handler *Handler) CreateOrder(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	applicationID, err := parseIDParam(c, "id")
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	order, err := handler.applications.CreateOrder(c.UserContext(), applicationID, *user)
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(order)
}

// ConfirmPayment is the owner's return from checkout. It approves and enrolls idempotently.
func (handler *Handler) ConfirmPayment(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	applicationID, err := parseIDParam(c, "id")
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	enrollments, err := handler.applications.ConfirmAndEnroll(c.UserContext(), applicationID, *user)
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"enrollments": enrollments})
}

// PaymentWebhook receives gateway callbacks. The raw body is needed for signature checks.
func (handler *Handler) PaymentWebhook(c *fiber.Ctx) error {
	body := append([]byte(nil), c.Body()...)
	outcome, err := handler.applications.HandleGatewayNotification(c.UserContext(), body, func(name string) string {
		return c.Get(name)
	})
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"status": outcome.Status, "application_id": outcome.ApplicationID})
}

func (handler *Handler) AdminListApplications(c *fiber.Ctx) error {
	applications, err := handler.applications.List(db.ApplicationFilter{
		Status:        strings.TrimSpace(c.Query("status")),
		PaymentStatus: strings.TrimSpace(c.Query("payment_status")),
	})
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	return c.JSON(applications)
}

func (handler *Handler) AdminSetApplicationStatus(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	applicationID, err := parseIDParam(c, "id")
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	var request statusRequest
	if err := bindJSON(c, &request); err != nil {
		return handler.respondServiceError(c, err)
	}
	application, err := handler.applications.StaffSetStatus(c.UserContext(), applicationID, request.Status, *user)
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	return c.JSON(application)
}

func submissionFromForm(form *multipart.Form) (services.SubmissionInput, error) {
	value := func(name string) string {
		if values := form.Value[name]; len(values) > 0 {
			return strings.TrimSpace(values[0])
		}
		return ""
	}

	validationErr := services.NewValidationError()
	input := services.SubmissionInput{
		FullName:      value("full_name"),
		DateOfBirth:   value("date_of_birth"),
		Phone:         value("phone_number"),
		Email:         value("email"),
		Address:       value("address"),
		ScheduleType:  value("schedule_type"),
		PreferredHour: value("preferred_hour"),
	}

	if raw := value("language"); raw != "" {
		languageID, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			validationErr.Add("language", "must be a positive integer")
		}
		input.LanguageID = uint(languageID)
	}
	for _, raw := range form.Value["levels"] {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			levelID, err := strconv.ParseUint(part, 10, 64)
			if err != nil {
				validationErr.Add("levels", "must be a list of level ids")
				continue
			}
			input.LevelIDs = append(input.LevelIDs, uint(levelID))
		}
	}
	return input, validationErr.OrNil()
}

func readFormDocument(form *multipart.Form, field string) (*services.Document, error) {
	files := form.File[field]
	if len(files) == 0 {
		return nil, nil
	}
	header := files[0]
	if header.Size > maxUploadBytes {
		return nil, singleFieldError(field, "file must be 5 MB or smaller")
	}

	file, err := header.Open()
	if err != nil {
		return nil, singleFieldError(field, "file could not be read")
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		return nil, singleFieldError(field, "file could not be read")
	}
	return &services.Document{Filename: header.Filename, Content: content}, nil
}

func singleFieldError(field string, message string) error {
	validationErr := services.NewValidationError()
	validationErr.Add(field, message)
	return validationErr
}
