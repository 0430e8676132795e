package api

import (
	"errors"
	"time"

	"github.com/terraincognita07/ifla/internal/db"
	"github.com/terraincognita07/ifla/internal/notify"
	"github.com/terraincognita07/ifla/internal/payments"
	"github.com/terraincognita07/ifla/internal/render"
	"github.com/terraincognita07/ifla/internal/services"
	"github.com/terraincognita07/ifla/internal/storage"
	"gorm.io/gorm"
)

const (
	defaultAuthTokenTTL  = 7 * 24 * time.Hour
	rememberAuthTokenTTL = 30 * 24 * time.Hour

	loginAttemptsLimit     = 8
	loginAttemptsWindow    = 15 * time.Minute
	passcodeAttemptsLimit  = 10
	passcodeAttemptsWindow = 15 * time.Minute
)

// ErrorReporter receives unexpected and upstream failures.
type ErrorReporter interface {
	Error(err error, extras map[string]interface{})
}

// Dependencies are the outward-facing collaborators chosen by configuration.
type Dependencies struct {
	Gateway    payments.Gateway
	Store      storage.Store
	Sender     notify.Sender
	Renderer   render.Renderer
	Google     services.GoogleTokenVerifier
	Reporter   ErrorReporter
	AdminEmail string
	Currency   string
	// PreviousSecrets are retired secret keys whose sessions are still accepted.
	PreviousSecrets []string
}

type Handler struct {
	db           *gorm.DB
	signingKey   []byte
	verifyKeys   [][]byte
	cookieSecure bool
	cookieCodec  *secureCookieCodec
	reporter     ErrorReporter

	repositories *db.Repositories
	authService  *services.AuthService
	passcodes    *services.PasscodeService
	catalog      *services.CatalogService
	applications *services.ApplicationService
	ledger       *services.LedgerService
	certificates *services.CertificateService
	admin        *services.AdminService
	contact      *services.ContactService

	loginLimiter    *attemptLimiter
	passcodeLimiter *attemptLimiter
}

func NewHandler(database *gorm.DB, secret string, cookieSecure bool, deps Dependencies) (*Handler, error) {
	if database == nil {
		return nil, errors.New("database is required")
	}
	if deps.Gateway == nil {
		return nil, errors.New("payment gateway is required")
	}
	if deps.Store == nil {
		return nil, errors.New("document store is required")
	}
	if deps.Sender == nil {
		deps.Sender = notify.LogSender{}
	}
	if deps.Renderer == nil {
		renderer, err := render.NewCertificateRenderer("")
		if err != nil {
			return nil, err
		}
		deps.Renderer = renderer
	}

	previous := make([][]byte, 0, len(deps.PreviousSecrets))
	for _, retired := range deps.PreviousSecrets {
		previous = append(previous, []byte(retired))
	}
	codec, err := newSecureCookieCodec([]byte(secret), previous...)
	if err != nil {
		return nil, err
	}

	handler := &Handler{
		db:              database,
		signingKey:      []byte(secret),
		verifyKeys:      append([][]byte{[]byte(secret)}, previous...),
		cookieSecure:    cookieSecure,
		cookieCodec:     codec,
		reporter:        deps.Reporter,
		loginLimiter:    newAttemptLimiter(loginAttemptsLimit, loginAttemptsWindow),
		passcodeLimiter: newAttemptLimiter(passcodeAttemptsLimit, passcodeAttemptsWindow),
	}
	return handler.withDependencies(deps), nil
}

func (handler *Handler) withDependencies(deps Dependencies) *Handler {
	repos := db.NewRepositories(handler.db)
	handler.repositories = repos

	handler.authService = services.NewAuthService(repos.Users, deps.Google)
	handler.passcodes = services.NewPasscodeService(repos.Passcodes, repos.Users, deps.Sender)
	handler.catalog = services.NewCatalogService(repos.Catalog)
	handler.applications = services.NewApplicationService(repos.Applications, repos.PaymentEvents, handler.catalog, deps.Gateway, deps.Store, deps.Currency)
	handler.ledger = services.NewLedgerService(repos.Enrollments, repos.Catalog)
	handler.certificates = services.NewCertificateService(repos.Certificates, deps.Renderer, deps.Store)
	handler.admin = services.NewAdminService(repos.Users, repos.Applications, repos.Enrollments, repos.Catalog, repos.Certificates)
	handler.contact = services.NewContactService(repos.Contacts, deps.Sender, deps.AdminEmail)
	return handler
}
