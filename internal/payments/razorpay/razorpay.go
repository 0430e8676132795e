package razorpay

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	sdk "github.com/razorpay/razorpay-go"
	"github.com/razorpay/razorpay-go/utils"
	"github.com/terraincognita07/ifla/internal/payments"
)

const SignatureHeader = "X-Razorpay-Signature"

type Config struct {
	KeyID         string
	KeySecret     string
	WebhookSecret string
	Timeout       time.Duration
}

type Gateway struct {
	client        *sdk.Client
	webhookSecret string
	timeout       time.Duration
}

func New(config Config) (*Gateway, error) {
	if strings.TrimSpace(config.KeyID) == "" || strings.TrimSpace(config.KeySecret) == "" {
		return nil, errors.New("razorpay key id and secret are required")
	}
	if strings.TrimSpace(config.WebhookSecret) == "" {
		return nil, errors.New("razorpay webhook secret is required")
	}

	client := sdk.NewClient(config.KeyID, config.KeySecret)
	if config.Timeout > 0 {
		client.SetTimeout(int16(config.Timeout / time.Second))
	}

	return &Gateway{
		client:        client,
		webhookSecret: config.WebhookSecret,
		timeout:       config.Timeout,
	}, nil
}

func (gateway *Gateway) Name() string {
	return "razorpay"
}

func (gateway *Gateway) CreateOrder(ctx context.Context, request payments.OrderRequest) (payments.Order, error) {
	if gateway.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, gateway.timeout)
		defer cancel()
	}

	notes := make(map[string]interface{}, len(request.Notes))
	for key, value := range request.Notes {
		notes[key] = value
	}
	data := map[string]interface{}{
		"amount":   request.AmountMinor,
		"currency": request.Currency,
		"receipt":  request.Receipt,
		"notes":    notes,
	}

	body, err := payments.RunBounded(ctx, func() (map[string]interface{}, error) {
		return gateway.client.Order.Create(data, nil)
	})
	if err != nil {
		return payments.Order{}, fmt.Errorf("razorpay create order: %w", err)
	}

	orderID, _ := body["id"].(string)
	if strings.TrimSpace(orderID) == "" {
		return payments.Order{}, errors.New("razorpay create order: response has no id")
	}

	order := payments.Order{
		OrderID:     orderID,
		AmountMinor: request.AmountMinor,
		Currency:    request.Currency,
	}
	if amount, ok := body["amount"].(float64); ok {
		order.AmountMinor = int64(amount)
	}
	if currency, ok := body["currency"].(string); ok && currency != "" {
		order.Currency = currency
	}
	return order, nil
}

func (gateway *Gateway) ParseNotification(body []byte, header func(string) string) (payments.Notification, error) {
	signature := strings.TrimSpace(header(SignatureHeader))
	if signature == "" || !utils.VerifyWebhookSignature(string(body), signature, gateway.webhookSecret) {
		return payments.Notification{}, payments.ErrInvalidSignature
	}
	return payments.ParseWebhookEnvelope(body)
}
