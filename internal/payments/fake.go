package payments

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
)

const FakeSignatureHeader = "X-Fake-Signature"

// Fake is an in-memory gateway for development and tests. Notifications use the
// webhook envelope shape signed with HMAC-SHA256 over the raw body.
type Fake struct {
	secret []byte

	mu       sync.Mutex
	sequence int
	requests []OrderRequest
	failNext error
}

func NewFake(secret string) *Fake {
	return &Fake{secret: []byte(secret)}
}

func (gateway *Fake) Name() string {
	return "fake"
}

func (gateway *Fake) CreateOrder(ctx context.Context, request OrderRequest) (Order, error) {
	if err := ctx.Err(); err != nil {
		return Order{}, err
	}

	gateway.mu.Lock()
	defer gateway.mu.Unlock()

	if gateway.failNext != nil {
		err := gateway.failNext
		gateway.failNext = nil
		return Order{}, err
	}
	if request.AmountMinor <= 0 {
		return Order{}, errors.New("amount must be positive")
	}

	gateway.sequence++
	gateway.requests = append(gateway.requests, request)
	return Order{
		OrderID:     fmt.Sprintf("order_fake_%d", gateway.sequence),
		AmountMinor: request.AmountMinor,
		Currency:    request.Currency,
	}, nil
}

func (gateway *Fake) ParseNotification(body []byte, header func(string) string) (Notification, error) {
	signature := strings.TrimSpace(header(FakeSignatureHeader))
	if signature == "" || !hmac.Equal([]byte(strings.ToLower(signature)), []byte(gateway.Sign(body))) {
		return Notification{}, ErrInvalidSignature
	}
	return ParseWebhookEnvelope(body)
}

// Sign returns the hex signature a caller must send for body.
func (gateway *Fake) Sign(body []byte) string {
	mac := hmac.New(sha256.New, gateway.secret)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// FailNextOrder makes the next CreateOrder call return err.
func (gateway *Fake) FailNextOrder(err error) {
	gateway.mu.Lock()
	defer gateway.mu.Unlock()
	gateway.failNext = err
}

func (gateway *Fake) Requests() []OrderRequest {
	gateway.mu.Lock()
	defer gateway.mu.Unlock()
	return append([]OrderRequest(nil), gateway.requests...)
}
