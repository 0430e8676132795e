package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/terraincognita07/ifla/internal/auth"
	"github.com/terraincognita07/ifla/internal/db"
	"github.com/terraincognita07/ifla/internal/models"
	"golang.org/x/crypto/bcrypt"
)

const maxUsernameSuffix = 1000

type AuthUserRepository interface {
	FindByNormalizedEmail(email string) (models.User, error)
	FindByGoogleID(googleID string) (models.User, error)
	FindByID(userID uint) (models.User, error)
	ExistsByUsername(username string) (bool, error)
	Create(user *models.User) error
	UpdateByID(userID uint, updates map[string]any) error
}

type GoogleTokenVerifier interface {
	Verify(ctx context.Context, idToken string) (auth.GoogleIdentity, error)
}

type AuthService struct {
	users  AuthUserRepository
	google GoogleTokenVerifier
	now    func() time.Time
}

func NewAuthService(users AuthUserRepository, google GoogleTokenVerifier) *AuthService {
	return &AuthService{users: users, google: google, now: time.Now}
}

// Authenticate checks email and password. Unknown email and wrong password are indistinguishable.
func (service *AuthService) Authenticate(emailRaw string, password string) (models.User, error) {
	email, password, err := NormalizeCredentialsInput(emailRaw, password)
	if err != nil {
		return models.User{}, err
	}

	user, err := service.users.FindByNormalizedEmail(email)
	if err != nil {
		if isRecordNotFound(err) {
			return models.User{}, ErrInvalidCredentials
		}
		return models.User{}, err
	}
	if strings.TrimSpace(user.PasswordHash) == "" {
		return models.User{}, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return models.User{}, ErrInvalidCredentials
	}
	if !user.IsActive {
		return models.User{}, ErrUserInactive
	}
	return user, nil
}

func (service *AuthService) FindByID(userID uint) (models.User, error) {
	user, err := service.users.FindByID(userID)
	if err != nil {
		if isRecordNotFound(err) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

// GoogleSignIn resolves a verified Google identity to an account: by Google id, then by
// email (linking the id), otherwise a new verified student.
func (service *AuthService) GoogleSignIn(ctx context.Context, idToken string) (models.User, error) {
	if service.google == nil {
		return models.User{}, fmt.Errorf("%w: %v", ErrExternalService, auth.ErrGoogleNotConfigured)
	}

	identity, err := service.google.Verify(ctx, idToken)
	if err != nil {
		if errors.Is(err, auth.ErrGoogleNotConfigured) {
			return models.User{}, fmt.Errorf("%w: %v", ErrExternalService, err)
		}
		return models.User{}, fmt.Errorf("%w: %v", ErrAuthorization, err)
	}

	user, err := service.users.FindByGoogleID(identity.Subject)
	if err == nil {
		if !user.IsActive {
			return models.User{}, ErrUserInactive
		}
		return user, nil
	}
	if !isRecordNotFound(err) {
		return models.User{}, err
	}

	email := NormalizeAuthEmail(identity.Email)
	if email == "" {
		return models.User{}, fieldError("email", "google account has no usable email")
	}

	user, err = service.users.FindByNormalizedEmail(email)
	if err == nil {
		if !user.IsActive {
			return models.User{}, ErrUserInactive
		}
		subject := identity.Subject
		if err := service.users.UpdateByID(user.ID, map[string]any{"google_id": subject, "is_verified": true}); err != nil {
			return models.User{}, err
		}
		user.GoogleID = &subject
		user.IsVerified = true
		return user, nil
	}
	if !isRecordNotFound(err) {
		return models.User{}, err
	}

	username, err := service.uniqueUsername(UsernameFromEmail(email))
	if err != nil {
		return models.User{}, err
	}
	firstName, lastName := splitDisplayName(identity.Name)
	subject := identity.Subject
	created := models.User{
		Email:      email,
		Username:   username,
		FirstName:  firstName,
		LastName:   lastName,
		GoogleID:   &subject,
		IsVerified: true,
		IsStudent:  true,
		IsActive:   true,
		CreatedAt:  service.now().UTC(),
	}
	if err := service.users.Create(&created); err != nil {
		if db.IsUniqueViolation(err) {
			return models.User{}, ErrEmailTaken
		}
		return models.User{}, err
	}
	return created, nil
}

// uniqueUsername appends a counter to base until no account holds it.
func (service *AuthService) uniqueUsername(base string) (string, error) {
	if len(base) < 3 {
		base = "student"
	}
	candidate := base
	for suffix := 1; suffix <= maxUsernameSuffix; suffix++ {
		taken, err := service.users.ExistsByUsername(candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s%d", base, suffix)
	}
	return "", ErrUsernameTaken
}

func splitDisplayName(name string) (string, string) {
	fields := strings.Fields(name)
	switch len(fields) {
	case 0:
		return "", ""
	case 1:
		return fields[0], ""
	default:
		return fields[0], strings.Join(fields[1:], " ")
	}
}
