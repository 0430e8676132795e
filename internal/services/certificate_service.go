package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/terraincognita07/ifla/internal/db"
	"github.com/terraincognita07/ifla/internal/models"
	"github.com/terraincognita07/ifla/internal/render"
	"github.com/terraincognita07/ifla/internal/storage"
)

type CertificateRepository interface {
	FindByID(certificateID uint) (models.Certificate, error)
	FindByEnrollment(enrollmentID uint) (models.Certificate, error)
	List(filter db.CertificateFilter) ([]models.Certificate, error)
	Decide(enrollmentID uint, decision db.CertificateDecision, next db.NumberGenerator) (models.Certificate, error)
	AttachFile(certificateID uint, filePath string) error
}

type CertificateService struct {
	certificates CertificateRepository
	renderer     render.Renderer
	store        storage.Store
	numbers      db.NumberGenerator
	now          func() time.Time
}

func NewCertificateService(certificates CertificateRepository, renderer render.Renderer, store storage.Store) *CertificateService {
	return &CertificateService{
		certificates: certificates,
		renderer:     renderer,
		store:        store,
		numbers:      NewCertificateNumber,
		now:          time.Now,
	}
}

// Approve commits the approval first and renders the document afterwards. When rendering or
// storing fails the approved certificate is returned together with a *RenderFailure.
func (service *CertificateService) Approve(ctx context.Context, enrollmentID uint, approver models.User) (models.Certificate, error) {
	if !approver.CanManage() {
		return models.Certificate{}, ErrStaffOnly
	}

	certificate, err := service.decide(enrollmentID, models.CertificateApproved, approver)
	if err != nil {
		return models.Certificate{}, err
	}

	full, err := service.certificates.FindByID(certificate.ID)
	if err != nil {
		return certificate, &RenderFailure{CertificateID: certificate.ID, Cause: err}
	}

	key, err := service.issueDocument(ctx, full)
	if err != nil {
		log.Printf("certificates: document for %s failed: %v", full.CertificateNumber, err)
		return full, &RenderFailure{CertificateID: full.ID, Cause: err}
	}
	full.FilePath = key
	return full, nil
}

func (service *CertificateService) Reject(ctx context.Context, enrollmentID uint, approver models.User) (models.Certificate, error) {
	if !approver.CanManage() {
		return models.Certificate{}, ErrStaffOnly
	}
	return service.decide(enrollmentID, models.CertificateRejected, approver)
}

// Download returns the stored PDF of an approved certificate to its holder or staff.
func (service *CertificateService) Download(ctx context.Context, certificateID uint, requester models.User) (models.Certificate, []byte, error) {
	certificate, err := service.certificates.FindByID(certificateID)
	if err != nil {
		if isRecordNotFound(err) {
			return models.Certificate{}, nil, ErrCertificateNotFound
		}
		return models.Certificate{}, nil, err
	}
	if certificate.Enrollment == nil || (certificate.Enrollment.UserID != requester.ID && !requester.CanManage()) {
		return models.Certificate{}, nil, ErrCertificateNotOwned
	}
	if certificate.Status != models.CertificateApproved {
		return models.Certificate{}, nil, ErrCertificateNotApproved
	}
	if certificate.FilePath == "" {
		return models.Certificate{}, nil, ErrCertificateUnavailable
	}

	content, err := service.store.Get(ctx, certificate.FilePath)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return models.Certificate{}, nil, ErrCertificateUnavailable
		}
		return models.Certificate{}, nil, fmt.Errorf("%w: %v", ErrExternalService, err)
	}
	return certificate, content, nil
}

// Regenerate re-renders the document of an approved certificate, e.g. after a failed approval render.
func (service *CertificateService) Regenerate(ctx context.Context, certificateID uint, actor models.User) (models.Certificate, error) {
	if !actor.CanManage() {
		return models.Certificate{}, ErrStaffOnly
	}
	certificate, err := service.certificates.FindByID(certificateID)
	if err != nil {
		if isRecordNotFound(err) {
			return models.Certificate{}, ErrCertificateNotFound
		}
		return models.Certificate{}, err
	}
	if certificate.Status != models.CertificateApproved {
		return models.Certificate{}, ErrCertificateNotApproved
	}

	key, err := service.issueDocument(ctx, certificate)
	if err != nil {
		return certificate, &RenderFailure{CertificateID: certificate.ID, Cause: err}
	}
	certificate.FilePath = key
	return certificate, nil
}

func (service *CertificateService) List(filter db.CertificateFilter) ([]models.Certificate, error) {
	return service.certificates.List(filter)
}

func (service *CertificateService) decide(enrollmentID uint, status string, approver models.User) (models.Certificate, error) {
	certificate, err := service.certificates.Decide(enrollmentID, db.CertificateDecision{
		Status:     status,
		ApproverID: approver.ID,
		Now:        service.now().UTC(),
	}, service.numbers)
	if err != nil {
		switch {
		case isRecordNotFound(err):
			return models.Certificate{}, ErrEnrollmentNotFound
		case errors.Is(err, db.ErrNumberSpaceExhausted):
			return models.Certificate{}, ErrCertificateNumbers
		}
		return models.Certificate{}, err
	}
	log.Printf("certificates: %s %s by user %d", certificate.CertificateNumber, status, approver.ID)
	return certificate, nil
}

func (service *CertificateService) issueDocument(ctx context.Context, certificate models.Certificate) (string, error) {
	if service.renderer == nil || service.store == nil {
		return "", errors.New("certificate rendering is not configured")
	}
	enrollment := certificate.Enrollment
	if enrollment == nil || enrollment.User == nil || enrollment.CourseLevel == nil {
		return "", errors.New("certificate enrollment details unavailable")
	}

	languageName, flag := "", ""
	if enrollment.CourseLevel.Language != nil {
		languageName = enrollment.CourseLevel.Language.Name
		flag = enrollment.CourseLevel.Language.Flag
	}
	issuedOn := certificate.IssuedAt
	if certificate.ApprovedAt != nil {
		issuedOn = *certificate.ApprovedAt
	}

	document, err := service.renderer.Render(render.CertificateDocument{
		Number:        certificate.CertificateNumber,
		RecipientName: enrollment.User.DisplayName(),
		CourseLabel:   render.CourseLabel(flag, languageName, enrollment.CourseLevel.Display()),
		IssuedOn:      issuedOn,
	})
	if err != nil {
		return "", fmt.Errorf("render: %w", err)
	}

	key := CertificateObjectKey(certificate.CertificateNumber, enrollment.UserID)
	if err := service.store.Put(ctx, key, document, "application/pdf"); err != nil {
		return "", fmt.Errorf("store: %w", err)
	}
	if err := service.certificates.AttachFile(certificate.ID, key); err != nil {
		return "", fmt.Errorf("attach: %w", err)
	}
	return key, nil
}

func CertificateObjectKey(number string, userID uint) string {
	return fmt.Sprintf("certificates/certificate_%s_%d.pdf", number, userID)
}
