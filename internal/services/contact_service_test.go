package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/terraincognita07/ifla/internal/notify"
)

func TestContactSubmitStoresAndForwards(t *testing.T) {
	fixture := newWorkflowFixture(t)
	outbox := &notify.Outbox{}
	service := NewContactService(fixture.repos.Contacts, outbox, "office@ifla.example")

	message, err := service.Submit(context.Background(), ContactInput{
		Name:    " Meera ",
		Email:   "Meera@Example.com",
		Subject: "Weekend batches",
		Message: "Do you run a weekend A1 batch for French?",
	})
	if err != nil {
		t.Fatalf("Submit() unexpected error: %v", err)
	}
	if message.ID == 0 || message.Name != "Meera" || message.Email != "meera@example.com" {
		t.Fatalf("unexpected stored message %#v", message)
	}

	sent := outbox.Messages()
	if len(sent) != 1 || sent[0].To != "office@ifla.example" {
		t.Fatalf("expected one forwarded message to the office, got %#v", sent)
	}
	if !strings.Contains(sent[0].TextBody, "meera@example.com") || sent[0].Subject != "Contact form: Weekend batches" {
		t.Fatalf("unexpected forwarded message %#v", sent[0])
	}

	unread, err := service.List(true)
	if err != nil || len(unread) != 1 {
		t.Fatalf("expected one unread message, got %d / %v", len(unread), err)
	}
	if err := service.MarkRead(message.ID); err != nil {
		t.Fatalf("MarkRead() unexpected error: %v", err)
	}
	unread, _ = service.List(true)
	if len(unread) != 0 {
		t.Fatalf("expected no unread messages after MarkRead, got %d", len(unread))
	}
	if err := service.MarkRead(9999); !errors.Is(err, ErrContactNotFound) {
		t.Fatalf("expected ErrContactNotFound, got %v", err)
	}
}

func TestContactSubmitToleratesDeliveryFailure(t *testing.T) {
	fixture := newWorkflowFixture(t)
	outbox := &notify.Outbox{}
	outbox.FailWith(errors.New("smtp down"))
	service := NewContactService(fixture.repos.Contacts, outbox, "office@ifla.example")

	if _, err := service.Submit(context.Background(), ContactInput{Name: "Ravi", Email: "ravi@example.com", Message: "Hello"}); err != nil {
		t.Fatalf("expected delivery failure to be swallowed, got %v", err)
	}
	stored, _ := service.List(false)
	if len(stored) != 1 {
		t.Fatalf("expected the message to be stored, got %d", len(stored))
	}
}

func TestContactSubmitValidation(t *testing.T) {
	service := NewContactService(nil, nil, "")

	_, err := service.Submit(context.Background(), ContactInput{Name: "", Email: "nope", Message: ""})
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	for _, field := range []string{"name", "email", "message"} {
		if _, ok := validationErr.Fields[field]; !ok {
			t.Fatalf("expected field error for %s, got %#v", field, validationErr.Fields)
		}
	}
}
