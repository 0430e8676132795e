package notify

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
)

type Message struct {
	To       string
	Subject  string
	TextBody string
	HTMLBody string
}

// Sender delivers a message. Callers on best-effort paths log the error and continue.
type Sender interface {
	Send(ctx context.Context, message Message) error
}

// LogSender writes messages to the process log instead of delivering them.
type LogSender struct{}

func (LogSender) Send(_ context.Context, message Message) error {
	log.Printf("mail to=%s subject=%q\n%s", message.To, message.Subject, message.TextBody)
	return nil
}

// Outbox records messages in memory.
type Outbox struct {
	mu       sync.Mutex
	messages []Message
	err      error
}

func (outbox *Outbox) Send(_ context.Context, message Message) error {
	outbox.mu.Lock()
	defer outbox.mu.Unlock()
	if outbox.err != nil {
		return outbox.err
	}
	outbox.messages = append(outbox.messages, message)
	return nil
}

func (outbox *Outbox) FailWith(err error) {
	outbox.mu.Lock()
	defer outbox.mu.Unlock()
	outbox.err = err
}

func (outbox *Outbox) Messages() []Message {
	outbox.mu.Lock()
	defer outbox.mu.Unlock()
	return append([]Message(nil), outbox.messages...)
}

func PasscodeMessage(email string, code string, ttlMinutes int) Message {
	return Message{
		To:      email,
		Subject: "Your verification code",
		TextBody: fmt.Sprintf(
			"Your IFLA verification code is %s.\nIt expires in %d minutes. If you did not request it, ignore this email.",
			code, ttlMinutes,
		),
		HTMLBody: fmt.Sprintf(
			"<p>Your IFLA verification code is <strong>%s</strong>.</p><p>It expires in %d minutes. If you did not request it, ignore this email.</p>",
			code, ttlMinutes,
		),
	}
}

func ContactMessage(adminEmail string, name string, email string, phone string, subject string, body string) Message {
	if strings.TrimSpace(subject) == "" {
		subject = "New contact message"
	}
	return Message{
		To:       adminEmail,
		Subject:  "Contact form: " + subject,
		TextBody: fmt.Sprintf("From: %s <%s>\nPhone: %s\n\n%s", name, email, phone, body),
	}
}
