package payments

import (
	"errors"
	"testing"
)

func TestParseWebhookEnvelope(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantEvent Event
		wantOrder string
		wantPay   string
	}{
		{
			name:      "captured prefers order entity",
			body:      `{"event":"payment.captured","payload":{"payment":{"entity":{"id":"pay_1","order_id":"order_from_payment"}},"order":{"entity":{"id":"order_1"}}}}`,
			wantEvent: EventCaptured,
			wantOrder: "order_1",
			wantPay:   "pay_1",
		},
		{
			name:      "falls back to payment order id",
			body:      `{"event":"payment.failed","payload":{"payment":{"entity":{"id":"pay_2","order_id":"order_2"}}}}`,
			wantEvent: EventFailed,
			wantOrder: "order_2",
			wantPay:   "pay_2",
		},
		{
			name:      "flat payment and order fields",
			body:      `{"event":"payment.captured","payload":{"payment":{"id":"pay_3","order_id":"order_from_payment"},"order":{"id":"order_3"}}}`,
			wantEvent: EventCaptured,
			wantOrder: "order_3",
			wantPay:   "pay_3",
		},
		{
			name:      "flat payment without order",
			body:      `{"event":"order.paid","payload":{"payment":{"id":"pay_4","order_id":"order_4"}}}`,
			wantEvent: EventCaptured,
			wantOrder: "order_4",
			wantPay:   "pay_4",
		},
		{
			name:      "unknown events are other",
			body:      `{"event":"refund.created","payload":{}}`,
			wantEvent: EventOther,
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			notification, err := ParseWebhookEnvelope([]byte(testCase.body))
			if err != nil {
				t.Fatalf("parse envelope: %v", err)
			}
			if notification.Event != testCase.wantEvent {
				t.Fatalf("event = %q, want %q", notification.Event, testCase.wantEvent)
			}
			if notification.OrderID != testCase.wantOrder {
				t.Fatalf("order = %q, want %q", notification.OrderID, testCase.wantOrder)
			}
			if notification.PaymentID != testCase.wantPay {
				t.Fatalf("payment = %q, want %q", notification.PaymentID, testCase.wantPay)
			}
		})
	}
}

func TestParseWebhookEnvelopeRejectsMalformedBody(t *testing.T) {
	for _, body := range []string{`not-json`, `{"payload":{}}`} {
		if _, err := ParseWebhookEnvelope([]byte(body)); !errors.Is(err, ErrMalformedPayload) {
			t.Fatalf("expected ErrMalformedPayload for %q, got %v", body, err)
		}
	}
}
