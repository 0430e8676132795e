package midtrans

import (
	"context"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	sdk "github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"
	"github.com/terraincognita07/ifla/internal/payments"
)

type Config struct {
	ServerKey  string
	Production bool
	Timeout    time.Duration
}

type Gateway struct {
	client    snap.Client
	serverKey string
	timeout   time.Duration
	now       func() time.Time
}

func New(config Config) (*Gateway, error) {
	if strings.TrimSpace(config.ServerKey) == "" {
		return nil, errors.New("midtrans server key is required")
	}

	gateway := &Gateway{
		serverKey: config.ServerKey,
		timeout:   config.Timeout,
		now:       time.Now,
	}
	if config.Production {
		gateway.client.New(config.ServerKey, sdk.Production)
	} else {
		gateway.client.New(config.ServerKey, sdk.Sandbox)
	}
	return gateway, nil
}

func (gateway *Gateway) Name() string {
	return "midtrans"
}

// CreateOrder opens a Snap transaction. Snap takes whole currency units, and each
// call gets a fresh order id so a retried checkout is not rejected as a duplicate.
func (gateway *Gateway) CreateOrder(ctx context.Context, request payments.OrderRequest) (payments.Order, error) {
	if gateway.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, gateway.timeout)
		defer cancel()
	}

	orderID := fmt.Sprintf("%s-%d", request.Receipt, gateway.now().Unix())
	gross := request.AmountMinor / 100
	firstName, lastName := splitName(request.Customer.Name)

	snapRequest := &snap.Request{
		TransactionDetails: sdk.TransactionDetails{
			OrderID:  orderID,
			GrossAmt: gross,
		},
		CustomerDetail: &sdk.CustomerDetails{
			FName: firstName,
			LName: lastName,
			Email: request.Customer.Email,
			Phone: request.Customer.Phone,
		},
		Items: &[]sdk.ItemDetails{
			{
				ID:    request.Receipt,
				Price: gross,
				Qty:   1,
				Name:  truncate("Course application "+request.Receipt, 50),
			},
		},
		CustomField1: truncate(request.Notes["application_id"], 40),
	}

	response, err := payments.RunBounded(ctx, func() (*snap.Response, error) {
		response, snapErr := gateway.client.CreateTransaction(snapRequest)
		if snapErr != nil {
			return nil, errors.New(snapErr.GetMessage())
		}
		return response, nil
	})
	if err != nil {
		return payments.Order{}, fmt.Errorf("midtrans create transaction: %w", err)
	}

	return payments.Order{
		OrderID:     orderID,
		AmountMinor: request.AmountMinor,
		Currency:    request.Currency,
		RedirectURL: response.RedirectURL,
	}, nil
}

type notification struct {
	TransactionStatus string `json:"transaction_status"`
	StatusCode        string `json:"status_code"`
	SignatureKey      string `json:"signature_key"`
	OrderID           string `json:"order_id"`
	GrossAmount       string `json:"gross_amount"`
	FraudStatus       string `json:"fraud_status"`
	TransactionID     string `json:"transaction_id"`
}

// ParseNotification checks signature_key = sha512(order_id + status_code + gross_amount + server_key).
func (gateway *Gateway) ParseNotification(body []byte, _ func(string) string) (payments.Notification, error) {
	var payload notification
	if err := json.Unmarshal(body, &payload); err != nil {
		return payments.Notification{}, payments.ErrInvalidSignature
	}

	want := strings.ToLower(strings.TrimSpace(payload.SignatureKey))
	digest := sha512.Sum512([]byte(payload.OrderID + payload.StatusCode + payload.GrossAmount + gateway.serverKey))
	got := hex.EncodeToString(digest[:])
	if want == "" || subtle.ConstantTimeCompare([]byte(want), []byte(got)) != 1 {
		return payments.Notification{}, payments.ErrInvalidSignature
	}

	return payments.Notification{
		Event:     classify(payload.TransactionStatus, payload.FraudStatus),
		Type:      payload.TransactionStatus,
		OrderID:   strings.TrimSpace(payload.OrderID),
		PaymentID: strings.TrimSpace(payload.TransactionID),
		Raw:       body,
	}, nil
}

func classify(transactionStatus string, fraudStatus string) payments.Event {
	switch transactionStatus {
	case "capture":
		if fraudStatus == "challenge" || fraudStatus == "deny" {
			return payments.EventOther
		}
		return payments.EventCaptured
	case "settlement":
		return payments.EventCaptured
	case "deny", "cancel", "expire", "failure":
		return payments.EventFailed
	default:
		return payments.EventOther
	}
}

func splitName(name string) (string, string) {
	parts := strings.Fields(name)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	default:
		return parts[0], strings.Join(parts[1:], " ")
	}
}

// truncate keeps at most limit characters of value.
func truncate(value string, limit int) string {
	if utf8.RuneCountInString(value) <= limit {
		return value
	}
	runes := []rune(value)
	return string(runes[:limit])
}
