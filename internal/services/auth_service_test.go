package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/terraincognita07/ifla/internal/auth"
	"github.com/terraincognita07/ifla/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type stubAuthUserRepo struct {
	users []models.User
}

func (repo *stubAuthUserRepo) FindByNormalizedEmail(email string) (models.User, error) {
	for _, user := range repo.users {
		if strings.ToLower(user.Email) == email {
			return user, nil
		}
	}
	return models.User{}, gorm.ErrRecordNotFound
}

func (repo *stubAuthUserRepo) FindByGoogleID(googleID string) (models.User, error) {
	for _, user := range repo.users {
		if user.GoogleID != nil && *user.GoogleID == googleID {
			return user, nil
		}
	}
	return models.User{}, gorm.ErrRecordNotFound
}

func (repo *stubAuthUserRepo) FindByID(userID uint) (models.User, error) {
	for _, user := range repo.users {
		if user.ID == userID {
			return user, nil
		}
	}
	return models.User{}, gorm.ErrRecordNotFound
}

func (repo *stubAuthUserRepo) ExistsByUsername(username string) (bool, error) {
	for _, user := range repo.users {
		if user.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (repo *stubAuthUserRepo) Create(user *models.User) error {
	user.ID = uint(len(repo.users) + 1)
	repo.users = append(repo.users, *user)
	return nil
}

func (repo *stubAuthUserRepo) UpdateByID(userID uint, updates map[string]any) error {
	for index := range repo.users {
		if repo.users[index].ID != userID {
			continue
		}
		if googleID, ok := updates["google_id"].(string); ok {
			repo.users[index].GoogleID = &googleID
		}
		if passwordHash, ok := updates["password_hash"].(string); ok {
			repo.users[index].PasswordHash = passwordHash
		}
		return nil
	}
	return gorm.ErrRecordNotFound
}

type stubGoogleVerifier struct {
	identity auth.GoogleIdentity
	err      error
}

func (verifier stubGoogleVerifier) Verify(context.Context, string) (auth.GoogleIdentity, error) {
	return verifier.identity, verifier.err
}

func mustHashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return string(hash)
}

func TestAuthenticate(t *testing.T) {
	repo := &stubAuthUserRepo{users: []models.User{
		{ID: 1, Email: "asha@example.com", Username: "asha", PasswordHash: mustHashPassword(t, "StrongPass1"), IsActive: true},
		{ID: 2, Email: "off@example.com", Username: "off", PasswordHash: mustHashPassword(t, "StrongPass1"), IsActive: false},
	}}
	service := NewAuthService(repo, nil)

	type testCase struct {
		name     string
		email    string
		password string
		wantErr  error
	}
	tests := []testCase{
		{name: "valid", email: " ASHA@example.com", password: "StrongPass1"},
		{name: "wrong password", email: "asha@example.com", password: "WrongPass1", wantErr: ErrInvalidCredentials},
		{name: "unknown email", email: "nobody@example.com", password: "StrongPass1", wantErr: ErrInvalidCredentials},
		{name: "inactive", email: "off@example.com", password: "StrongPass1", wantErr: ErrUserInactive},
		{name: "blank", email: "", password: "", wantErr: ErrAuthCredentialsInvalid},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			user, err := service.Authenticate(testCase.email, testCase.password)
			if testCase.wantErr == nil {
				if err != nil {
					t.Fatalf("Authenticate() unexpected error: %v", err)
				}
				if user.ID != 1 {
					t.Fatalf("expected user 1, got %d", user.ID)
				}
				return
			}
			if !errors.Is(err, testCase.wantErr) {
				t.Fatalf("expected %v, got %v", testCase.wantErr, err)
			}
		})
	}
}

func TestGoogleSignInLinksExistingAccountByEmail(t *testing.T) {
	repo := &stubAuthUserRepo{users: []models.User{
		{ID: 1, Email: "asha@example.com", Username: "asha", IsActive: true},
	}}
	service := NewAuthService(repo, stubGoogleVerifier{identity: auth.GoogleIdentity{
		Subject: "google-sub-1", Email: "asha@example.com", Name: "Asha Rao",
	}})

	user, err := service.GoogleSignIn(context.Background(), "token")
	if err != nil {
		t.Fatalf("GoogleSignIn() unexpected error: %v", err)
	}
	if user.ID != 1 || user.GoogleID == nil || *user.GoogleID != "google-sub-1" {
		t.Fatalf("expected linked account 1, got %#v", user)
	}
	if len(repo.users) != 1 {
		t.Fatalf("expected no new account, got %d users", len(repo.users))
	}
}

func TestGoogleSignInCreatesStudentWithUniqueUsername(t *testing.T) {
	repo := &stubAuthUserRepo{users: []models.User{
		{ID: 1, Email: "other@example.com", Username: "asha", IsActive: true},
		{ID: 2, Email: "third@example.com", Username: "asha1", IsActive: true},
	}}
	service := NewAuthService(repo, stubGoogleVerifier{identity: auth.GoogleIdentity{
		Subject: "google-sub-2", Email: "asha@example.com", Name: "Asha Devi Rao",
	}})

	user, err := service.GoogleSignIn(context.Background(), "token")
	if err != nil {
		t.Fatalf("GoogleSignIn() unexpected error: %v", err)
	}
	if user.Username != "asha2" {
		t.Fatalf("expected username asha2, got %q", user.Username)
	}
	if user.FirstName != "Asha" || user.LastName != "Devi Rao" {
		t.Fatalf("unexpected name split %q / %q", user.FirstName, user.LastName)
	}
	if !user.IsVerified || !user.IsStudent {
		t.Fatalf("expected verified student, got %#v", user)
	}
}

func TestGoogleSignInRejectsInvalidToken(t *testing.T) {
	service := NewAuthService(&stubAuthUserRepo{}, stubGoogleVerifier{err: auth.ErrGoogleTokenInvalid})

	_, err := service.GoogleSignIn(context.Background(), "token")
	if !errors.Is(err, ErrAuthorization) {
		t.Fatalf("expected authorization error, got %v", err)
	}
}

func TestGoogleSignInWithoutConfiguration(t *testing.T) {
	service := NewAuthService(&stubAuthUserRepo{}, auth.NewGoogleVerifier(""))

	_, err := service.GoogleSignIn(context.Background(), "token")
	if !errors.Is(err, ErrExternalService) {
		t.Fatalf("expected external service error, got %v", err)
	}
}
