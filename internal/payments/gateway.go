package payments

import (
	"context"
	"errors"
)

type Event string

const (
	EventCaptured Event = "captured"
	EventFailed   Event = "failed"
	EventOther    Event = "other"
)

var (
	ErrInvalidSignature = errors.New("invalid gateway signature")
	ErrMalformedPayload = errors.New("malformed gateway payload")
)

type Customer struct {
	Name  string
	Email string
	Phone string
}

type OrderRequest struct {
	AmountMinor int64
	Currency    string
	Receipt     string
	Notes       map[string]string
	Customer    Customer
}

type Order struct {
	OrderID     string `json:"order_id"`
	AmountMinor int64  `json:"amount"`
	Currency    string `json:"currency"`
	RedirectURL string `json:"redirect_url,omitempty"`
}

// Notification is a verified gateway callback normalized across providers.
type Notification struct {
	Event     Event
	Type      string
	OrderID   string
	PaymentID string
	Raw       []byte
}

// Gateway creates payment orders and authenticates inbound notifications.
// ParseNotification must verify the signature before returning any payload data.
type Gateway interface {
	Name() string
	CreateOrder(ctx context.Context, request OrderRequest) (Order, error)
	ParseNotification(body []byte, header func(string) string) (Notification, error)
}

// RunBounded waits for call until ctx is done. The SDK clients take no context,
// so an abandoned call finishes in the background and its result is dropped.
func RunBounded[T any](ctx context.Context, call func() (T, error)) (T, error) {
	type outcome struct {
		value T
		err   error
	}
	done := make(chan outcome, 1)
	go func() {
		value, err := call()
		done <- outcome{value: value, err: err}
	}()

	select {
	case result := <-done:
		return result.value, result.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
