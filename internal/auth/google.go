package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	verifier "github.com/futurenda/google-auth-id-token-verifier"
)

var (
	ErrGoogleNotConfigured = errors.New("google sign-in is not configured")
	ErrGoogleTokenInvalid  = errors.New("google id token invalid")
)

type GoogleIdentity struct {
	Subject string
	Email   string
	Name    string
}

// GoogleVerifier checks Google ID tokens against the configured client id.
type GoogleVerifier struct {
	clientID string
}

func NewGoogleVerifier(clientID string) *GoogleVerifier {
	return &GoogleVerifier{clientID: strings.TrimSpace(clientID)}
}

func (googleVerifier *GoogleVerifier) Verify(ctx context.Context, idToken string) (GoogleIdentity, error) {
	if googleVerifier.clientID == "" {
		return GoogleIdentity{}, ErrGoogleNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return GoogleIdentity{}, err
	}

	token := strings.TrimSpace(idToken)
	if token == "" {
		return GoogleIdentity{}, ErrGoogleTokenInvalid
	}

	checker := verifier.Verifier{}
	if err := checker.VerifyIDToken(token, []string{googleVerifier.clientID}); err != nil {
		return GoogleIdentity{}, fmt.Errorf("%w: %v", ErrGoogleTokenInvalid, err)
	}

	claims, err := verifier.Decode(token)
	if err != nil {
		return GoogleIdentity{}, fmt.Errorf("%w: %v", ErrGoogleTokenInvalid, err)
	}
	if strings.TrimSpace(claims.Sub) == "" || strings.TrimSpace(claims.Email) == "" {
		return GoogleIdentity{}, ErrGoogleTokenInvalid
	}

	return GoogleIdentity{
		Subject: claims.Sub,
		Email:   strings.ToLower(strings.TrimSpace(claims.Email)),
		Name:    strings.TrimSpace(claims.Name),
	}, nil
}
