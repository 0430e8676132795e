package payments

import (
	"encoding/json"
	"fmt"
	"strings"
)

type paymentFields struct {
	ID      string `json:"id"`
	OrderID string `json:"order_id"`
}

type orderFields struct {
	ID string `json:"id"`
}

type webhookEnvelope struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			paymentFields
			Entity paymentFields `json:"entity"`
		} `json:"payment"`
		Order struct {
			orderFields
			Entity orderFields `json:"entity"`
		} `json:"order"`
	} `json:"payload"`
}

// ParseWebhookEnvelope decodes the {event, payload.payment.{id, order_id}, payload.order.id}
// callback. Fields nested under "entity" win over the flat ones. The order id comes from the
// order, else from the payment.
func ParseWebhookEnvelope(body []byte) (Notification, error) {
	var envelope webhookEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return Notification{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	eventType := strings.TrimSpace(envelope.Event)
	if eventType == "" {
		return Notification{}, fmt.Errorf("%w: missing event", ErrMalformedPayload)
	}

	payment := envelope.Payload.Payment
	order := envelope.Payload.Order
	orderID := firstNonEmpty(order.Entity.ID, order.ID, payment.Entity.OrderID, payment.OrderID)

	return Notification{
		Event:     classifyWebhookEvent(eventType),
		Type:      eventType,
		OrderID:   orderID,
		PaymentID: firstNonEmpty(payment.Entity.ID, payment.ID),
		Raw:       body,
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func classifyWebhookEvent(eventType string) Event {
	switch eventType {
	case "payment.captured", "order.paid":
		return EventCaptured
	case "payment.failed":
		return EventFailed
	default:
		return EventOther
	}
}
