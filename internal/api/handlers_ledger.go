package api

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/ifla/internal/db"
	"github.com/terraincognita07/ifla/internal/services"
)

func (handler *Handler) ListMyEnrollments(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	enrollments, err := handler.ledger.ListForUser(user.ID)
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	return c.JSON(enrollments)
}

func (handler *Handler) Enroll(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	var request enrollRequest
	if err := bindJSON(c, &request); err != nil {
		return handler.respondServiceError(c, err)
	}
	enrollment, err := handler.ledger.Enroll(*user, request.CourseLevelID)
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(enrollment)
}

func (handler *Handler) DownloadCertificate(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	certificateID, err := parseIDParam(c, "id")
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	certificate, content, err := handler.certificates.Download(c.UserContext(), certificateID, *user)
	if err != nil {
		return handler.respondServiceError(c, err)
	}

	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", "certificate_"+certificate.CertificateNumber+".pdf"))
	return c.Send(content)
}

func (handler *Handler) AdminListEnrollments(c *fiber.Ctx) error {
	enrollments, err := handler.ledger.List(db.EnrollmentFilter{
		Status:     strings.TrimSpace(c.Query("status")),
		UserID:     uint(c.QueryInt("user_id", 0)),
		LanguageID: uint(c.QueryInt("language_id", 0)),
	})
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	return c.JSON(enrollments)
}

func (handler *Handler) AdminGetEnrollment(c *fiber.Ctx) error {
	enrollmentID, err := parseIDParam(c, "id")
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	enrollment, err := handler.ledger.Get(enrollmentID)
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	return c.JSON(enrollment)
}

func (handler *Handler) AdminUpdateProgress(c *fiber.Ctx) error {
	enrollmentID, err := parseIDParam(c, "id")
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	var request progressRequest
	if err := bindJSON(c, &request); err != nil {
		return handler.respondServiceError(c, err)
	}
	enrollment, err := handler.ledger.UpdateProgress(enrollmentID, services.ProgressUpdate{
		Status:   request.Status,
		Progress: string(request.Progress),
	})
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	return c.JSON(enrollment)
}

func (handler *Handler) AdminAssignSchedule(c *fiber.Ctx) error {
	enrollmentID, err := parseIDParam(c, "id")
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	var request scheduleRequest
	if err := bindJSON(c, &request); err != nil {
		return handler.respondServiceError(c, err)
	}
	enrollment, err := handler.ledger.AssignSchedule(enrollmentID, request.ScheduleID)
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	return c.JSON(enrollment)
}

func (handler *Handler) AdminListCertificates(c *fiber.Ctx) error {
	certificates, err := handler.certificates.List(db.CertificateFilter{
		Status: strings.TrimSpace(c.Query("status")),
		UserID: uint(c.QueryInt("user_id", 0)),
	})
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	return c.JSON(certificates)
}

// AdminApproveCertificate approves the enrollment's certificate. A document failure after
// approval still answers 200 with a warning so staff can regenerate later.
func (handler *Handler) AdminApproveCertificate(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	enrollmentID, err := parseIDParam(c, "id")
	if err != nil {
		return handler.respondServiceError(c, err)
	}

	certificate, err := handler.certificates.Approve(c.UserContext(), enrollmentID, *user)
	var failure *services.RenderFailure
	if errors.As(err, &failure) {
		handler.report(c, err)
		return c.JSON(fiber.Map{
			"certificate": certificate,
			"warning":     "certificate approved but the document could not be generated",
		})
	}
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"certificate": certificate})
}

func (handler *Handler) AdminRejectCertificate(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	enrollmentID, err := parseIDParam(c, "id")
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	certificate, err := handler.certificates.Reject(c.UserContext(), enrollmentID, *user)
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"certificate": certificate})
}

func (handler *Handler) AdminRegenerateCertificate(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	certificateID, err := parseIDParam(c, "id")
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	certificate, err := handler.certificates.Regenerate(c.UserContext(), certificateID, *user)
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"certificate": certificate})
}
