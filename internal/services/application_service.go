package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/terraincognita07/ifla/internal/db"
	"github.com/terraincognita07/ifla/internal/models"
	"github.com/terraincognita07/ifla/internal/payments"
	"github.com/terraincognita07/ifla/internal/render"
	"github.com/terraincognita07/ifla/internal/storage"
	"gorm.io/datatypes"
)

const (
	maxDocumentBytes = 5 << 20
	photoMaxEdge     = 1200
	dateOfBirthRange = 100
)

type ApplicationRepository interface {
	Create(application *models.Application) error
	FindByID(applicationID uint) (models.Application, error)
	FindByGatewayOrderID(orderID string) (models.Application, error)
	List(filter db.ApplicationFilter) ([]models.Application, error)
	AttachOrder(applicationID uint, orderID string) (bool, error)
	ApplyCapture(applicationID uint, paymentID string, now time.Time) (bool, error)
	ApplyFailure(applicationID uint) (bool, error)
	SetStatus(applicationID uint, status string) error
	ApproveAndEnroll(applicationID uint, options db.ApprovalOptions) ([]models.Enrollment, error)
}

type PaymentEventRepository interface {
	Create(event *models.PaymentGatewayEvent) error
	MarkOutcome(eventID uint, status string, applicationID *uint, message string) error
}

type LevelResolver interface {
	ResolveLevels(languageID uint, levelIDs []uint) ([]models.CourseLevel, error)
}

// SubmissionInput is the personal part of an enrollment application.
type SubmissionInput struct {
	LanguageID    uint   `json:"language" validate:"required"`
	LevelIDs      []uint `json:"levels" validate:"required,min=1"`
	FullName      string `json:"full_name" validate:"required,max=200"`
	DateOfBirth   string `json:"date_of_birth" validate:"required,datetime=2006-01-02"`
	Phone         string `json:"phone_number" validate:"required,max=20"`
	Email         string `json:"email" validate:"required,email"`
	Address       string `json:"address" validate:"required"`
	ScheduleType  string `json:"schedule_type" validate:"required,oneof=weekday weekend"`
	PreferredHour string `json:"preferred_hour" validate:"required_if=ScheduleType weekday"`
}

type Document struct {
	Filename string
	Content  []byte
}

type Documents struct {
	Photo      *Document
	IDDocument *Document
	Signature  *Document
}

// WebhookOutcome summarizes what a gateway notification changed.
type WebhookOutcome struct {
	Status        string
	ApplicationID uint
}

type ApplicationService struct {
	applications ApplicationRepository
	events       PaymentEventRepository
	levels       LevelResolver
	gateway      payments.Gateway
	store        storage.Store
	currency     string
	now          func() time.Time
}

func NewApplicationService(
	applications ApplicationRepository,
	events PaymentEventRepository,
	levels LevelResolver,
	gateway payments.Gateway,
	store storage.Store,
	currency string,
) *ApplicationService {
	if strings.TrimSpace(currency) == "" {
		currency = "INR"
	}
	return &ApplicationService{
		applications: applications,
		events:       events,
		levels:       levels,
		gateway:      gateway,
		store:        store,
		currency:     strings.ToUpper(strings.TrimSpace(currency)),
		now:          time.Now,
	}
}

// Submit validates the form and documents, stores the documents and persists the
// application with its total frozen at the current level prices.
func (service *ApplicationService) Submit(ctx context.Context, owner models.User, input SubmissionInput, documents Documents) (models.Application, error) {
	input = normalizeSubmissionInput(input)
	now := service.now().UTC()

	validationErr := NewValidationError()
	if err := ValidateStruct(input); err != nil {
		var fieldErrs *ValidationError
		if !errors.As(err, &fieldErrs) {
			return models.Application{}, err
		}
		for field, message := range fieldErrs.Fields {
			validationErr.Add(field, message)
		}
	}

	dateOfBirth, dobErr := parseDateOfBirth(input.DateOfBirth, now)
	if dobErr != "" && input.DateOfBirth != "" {
		validationErr.Add("date_of_birth", dobErr)
	}

	photo, problem := prepareDocument(documents.Photo, true, false)
	if problem != "" {
		validationErr.Add("photo", problem)
	}
	idDocument, problem := prepareDocument(documents.IDDocument, false, true)
	if problem != "" {
		validationErr.Add("verification_document", problem)
	}
	signature, problem := prepareDocument(documents.Signature, false, false)
	if problem != "" {
		validationErr.Add("signature", problem)
	}

	var levels []models.CourseLevel
	if input.LanguageID != 0 && len(input.LevelIDs) > 0 {
		resolved, err := service.levels.ResolveLevels(input.LanguageID, input.LevelIDs)
		var levelErrs *ValidationError
		switch {
		case errors.As(err, &levelErrs):
			for field, message := range levelErrs.Fields {
				validationErr.Add(field, message)
			}
		case err != nil:
			return models.Application{}, err
		}
		levels = resolved
	}

	if err := validationErr.OrNil(); err != nil {
		return models.Application{}, err
	}

	var total int64
	for _, level := range levels {
		total += level.Price
	}

	stored := make([]string, 0, 3)
	cleanup := func() {
		for _, key := range stored {
			if deleteErr := service.store.Delete(context.WithoutCancel(ctx), key); deleteErr != nil {
				log.Printf("applications: remove orphaned document %s failed: %v", key, deleteErr)
			}
		}
	}
	put := func(folder string, document preparedDocument) (string, error) {
		key := storage.NewObjectKey(folder, document.filename)
		if err := service.store.Put(ctx, key, document.content, document.contentType); err != nil {
			return "", fmt.Errorf("%w: store document: %v", ErrExternalService, err)
		}
		stored = append(stored, key)
		return key, nil
	}

	photoKey, putErr := put("applications/photos", photo)
	if putErr != nil {
		cleanup()
		return models.Application{}, putErr
	}
	idKey, putErr := put("applications/id_documents", idDocument)
	if putErr != nil {
		cleanup()
		return models.Application{}, putErr
	}
	signatureKey, putErr := put("applications/signatures", signature)
	if putErr != nil {
		cleanup()
		return models.Application{}, putErr
	}

	preferredHour := input.PreferredHour
	if input.ScheduleType != models.ScheduleWeekday {
		preferredHour = ""
	}

	application := models.Application{
		UserID:         owner.ID,
		LanguageID:     input.LanguageID,
		Levels:         levels,
		FullName:       input.FullName,
		DateOfBirth:    dateOfBirth,
		Phone:          input.Phone,
		Email:          input.Email,
		Address:        input.Address,
		PhotoPath:      photoKey,
		IDDocumentPath: idKey,
		SignaturePath:  signatureKey,
		TotalAmount:    total,
		Status:         models.ApplicationSubmitted,
		PaymentStatus:  models.PaymentPending,
		ScheduleType:   input.ScheduleType,
		PreferredHour:  preferredHour,
		SubmittedAt:    &now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := service.applications.Create(&application); err != nil {
		cleanup()
		return models.Application{}, err
	}

	return service.applications.FindByID(application.ID)
}

// Get returns the application when the requester owns it or manages the school.
func (service *ApplicationService) Get(applicationID uint, requester models.User) (models.Application, error) {
	application, err := service.find(applicationID)
	if err != nil {
		return models.Application{}, err
	}
	if application.UserID != requester.ID && !requester.CanManage() {
		return models.Application{}, ErrApplicationNotOwned
	}
	return application, nil
}

func (service *ApplicationService) ListForUser(userID uint) ([]models.Application, error) {
	return service.applications.List(db.ApplicationFilter{UserID: userID})
}

func (service *ApplicationService) List(filter db.ApplicationFilter) ([]models.Application, error) {
	if filter.Status != "" && !models.IsValidApplicationStatus(filter.Status) {
		return nil, ErrInvalidStatus
	}
	return service.applications.List(filter)
}

// CreateOrder opens a gateway order for the application's frozen total.
func (service *ApplicationService) CreateOrder(ctx context.Context, applicationID uint, requester models.User) (payments.Order, error) {
	application, err := service.find(applicationID)
	if err != nil {
		return payments.Order{}, err
	}
	if application.UserID != requester.ID {
		return payments.Order{}, ErrApplicationNotOwned
	}
	if application.PaymentStatus == models.PaymentSuccess {
		return payments.Order{}, ErrAlreadyPaid
	}

	request := payments.OrderRequest{
		AmountMinor: application.TotalAmount * 100,
		Currency:    service.currency,
		Receipt:     "IFLA_" + strconv.FormatUint(uint64(application.ID), 10),
		Notes: map[string]string{
			"application_id": strconv.FormatUint(uint64(application.ID), 10),
			"user_email":     application.Email,
			"user_name":      application.FullName,
		},
		Customer: payments.Customer{
			Name:  application.FullName,
			Email: application.Email,
			Phone: application.Phone,
		},
	}

	order, err := service.gateway.CreateOrder(ctx, request)
	if err != nil {
		log.Printf("applications: create %s order for application %d failed: %v", service.gateway.Name(), application.ID, err)
		return payments.Order{}, fmt.Errorf("%w: %v", ErrPaymentGateway, err)
	}

	attached, err := service.applications.AttachOrder(application.ID, order.OrderID)
	if err != nil {
		return payments.Order{}, err
	}
	if !attached {
		return payments.Order{}, ErrAlreadyPaid
	}
	return order, nil
}

// HandleGatewayNotification authenticates a gateway callback and applies it. Unknown
// orders and repeated deliveries are accepted without changes.
func (service *ApplicationService) HandleGatewayNotification(ctx context.Context, body []byte, header func(string) string) (WebhookOutcome, error) {
	notification, err := service.gateway.ParseNotification(body, header)
	if err != nil {
		switch {
		case errors.Is(err, payments.ErrInvalidSignature):
			return WebhookOutcome{}, ErrInvalidNotification
		case errors.Is(err, payments.ErrMalformedPayload):
			return WebhookOutcome{}, fieldError("payload", err.Error())
		}
		return WebhookOutcome{}, err
	}

	event := models.PaymentGatewayEvent{
		Provider:   service.gateway.Name(),
		EventType:  notification.Type,
		OrderID:    notification.OrderID,
		PaymentID:  notification.PaymentID,
		Payload:    datatypes.JSON(notification.Raw),
		Status:     models.GatewayEventReceived,
		ReceivedAt: service.now().UTC(),
	}
	if err := service.events.Create(&event); err != nil {
		return WebhookOutcome{}, err
	}

	outcome, message, applyErr := service.applyNotification(notification)
	status := outcome.Status
	if applyErr != nil {
		status = models.GatewayEventFailed
		message = applyErr.Error()
	}
	var applicationID *uint
	if outcome.ApplicationID != 0 {
		applicationID = &outcome.ApplicationID
	}
	if err := service.events.MarkOutcome(event.ID, status, applicationID, message); err != nil {
		log.Printf("payments: record outcome for event %d failed: %v", event.ID, err)
	}
	if applyErr != nil {
		return WebhookOutcome{}, applyErr
	}
	return outcome, nil
}

func (service *ApplicationService) applyNotification(notification payments.Notification) (WebhookOutcome, string, error) {
	if notification.Event == payments.EventOther {
		return WebhookOutcome{Status: models.GatewayEventIgnored}, "event not handled", nil
	}
	if notification.OrderID == "" {
		return WebhookOutcome{Status: models.GatewayEventIgnored}, "no order id", nil
	}

	application, err := service.applications.FindByGatewayOrderID(notification.OrderID)
	if err != nil {
		if isRecordNotFound(err) {
			return WebhookOutcome{Status: models.GatewayEventIgnored}, "unknown order", nil
		}
		return WebhookOutcome{}, "", err
	}

	outcome := WebhookOutcome{ApplicationID: application.ID}
	var applied bool
	switch notification.Event {
	case payments.EventCaptured:
		applied, err = service.applications.ApplyCapture(application.ID, notification.PaymentID, service.now().UTC())
	case payments.EventFailed:
		applied, err = service.applications.ApplyFailure(application.ID)
	}
	if err != nil {
		return outcome, "", err
	}
	if !applied {
		outcome.Status = models.GatewayEventIgnored
		return outcome, "payment already captured", nil
	}
	outcome.Status = models.GatewayEventProcessed
	return outcome, string(notification.Event), nil
}

// ConfirmAndEnroll approves the owner's application as paid and materializes one ledger
// entry per level. Repeated calls return the same entries.
func (service *ApplicationService) ConfirmAndEnroll(ctx context.Context, applicationID uint, requester models.User) ([]models.Enrollment, error) {
	application, err := service.find(applicationID)
	if err != nil {
		return nil, err
	}
	if application.UserID != requester.ID {
		return nil, ErrApplicationNotOwned
	}

	return service.applications.ApproveAndEnroll(application.ID, db.ApprovalOptions{
		MarkPaid: true,
		Now:      service.now().UTC(),
	})
}

// StaffSetStatus moves an application to any status. Approval enrolls the student even
// when no payment succeeded; the application then records ApprovedWithoutPayment.
func (service *ApplicationService) StaffSetStatus(ctx context.Context, applicationID uint, status string, actor models.User) (models.Application, error) {
	if !actor.CanManage() {
		return models.Application{}, ErrStaffOnly
	}
	status = strings.TrimSpace(status)
	if !models.IsValidApplicationStatus(status) {
		return models.Application{}, ErrInvalidStatus
	}
	if _, err := service.find(applicationID); err != nil {
		return models.Application{}, err
	}

	if status == models.ApplicationApproved {
		if _, err := service.applications.ApproveAndEnroll(applicationID, db.ApprovalOptions{Now: service.now().UTC()}); err != nil {
			return models.Application{}, err
		}
	} else if err := service.applications.SetStatus(applicationID, status); err != nil {
		return models.Application{}, err
	}

	log.Printf("applications: staff %d set application %d to %s", actor.ID, applicationID, status)
	return service.applications.FindByID(applicationID)
}

// Document returns a stored upload of the application for its owner or staff.
func (service *ApplicationService) Document(ctx context.Context, applicationID uint, kind string, requester models.User) ([]byte, error) {
	application, err := service.Get(applicationID, requester)
	if err != nil {
		return nil, err
	}

	var key string
	switch kind {
	case "photo":
		key = application.PhotoPath
	case "verification_document":
		key = application.IDDocumentPath
	case "signature":
		key = application.SignaturePath
	default:
		return nil, fieldError("document", "unknown document kind")
	}
	if key == "" {
		return nil, fmt.Errorf("document missing: %w", ErrNotFound)
	}

	content, err := service.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, fmt.Errorf("document missing: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("%w: %v", ErrExternalService, err)
	}
	return content, nil
}

func (service *ApplicationService) find(applicationID uint) (models.Application, error) {
	application, err := service.applications.FindByID(applicationID)
	if err != nil {
		if isRecordNotFound(err) {
			return models.Application{}, ErrApplicationNotFound
		}
		return models.Application{}, err
	}
	return application, nil
}

type preparedDocument struct {
	filename    string
	contentType string
	content     []byte
}

// prepareDocument checks an upload and returns a user-facing message when it is unusable.
// Photos are re-encoded as bounded JPEG.
func prepareDocument(document *Document, isPhoto bool, allowPDF bool) (preparedDocument, string) {
	if document == nil || len(document.Content) == 0 {
		return preparedDocument{}, "this file is required"
	}
	if len(document.Content) > maxDocumentBytes {
		return preparedDocument{}, "file must be 5 MB or smaller"
	}

	contentType := http.DetectContentType(document.Content)
	switch {
	case contentType == "image/jpeg", contentType == "image/png":
	case contentType == "application/pdf" && allowPDF:
	default:
		if allowPDF {
			return preparedDocument{}, "upload a JPEG, PNG or PDF file"
		}
		return preparedDocument{}, "upload a JPEG or PNG image"
	}

	if !isPhoto {
		return preparedDocument{filename: document.Filename, contentType: contentType, content: document.Content}, ""
	}

	normalized, err := render.NormalizePhoto(document.Content, photoMaxEdge)
	if err != nil {
		return preparedDocument{}, "photo could not be read as an image"
	}
	return preparedDocument{filename: "photo.jpg", contentType: "image/jpeg", content: normalized}, ""
}

func parseDateOfBirth(raw string, now time.Time) (time.Time, string) {
	parsed, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, "use the format YYYY-MM-DD"
	}
	if parsed.After(now) {
		return time.Time{}, "date of birth cannot be in the future"
	}
	if parsed.Before(now.AddDate(-dateOfBirthRange, 0, 0)) {
		return time.Time{}, "date of birth is out of range"
	}
	return parsed, ""
}

func normalizeSubmissionInput(input SubmissionInput) SubmissionInput {
	input.FullName = strings.TrimSpace(input.FullName)
	input.DateOfBirth = strings.TrimSpace(input.DateOfBirth)
	input.Phone = strings.TrimSpace(input.Phone)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.Address = strings.TrimSpace(input.Address)
	input.ScheduleType = strings.ToLower(strings.TrimSpace(input.ScheduleType))
	input.PreferredHour = strings.TrimSpace(input.PreferredHour)
	return input
}
