package notify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

var (
	sendGridHost     = "https://api.sendgrid.com"
	sendGridEndpoint = "/v3/mail/send"
)

type SendGridConfig struct {
	APIKey    string
	FromName  string
	FromEmail string
	Timeout   time.Duration
}

type SendGridSender struct {
	key        string
	from       *sgmail.Email
	subjPrefix string
	timeout    time.Duration
}

func NewSendGridSender(config SendGridConfig) (*SendGridSender, error) {
	if strings.TrimSpace(config.APIKey) == "" {
		return nil, errors.New("sendgrid api key is required")
	}
	return &SendGridSender{
		key:        config.APIKey,
		from:       sgmail.NewEmail(config.FromName, config.FromEmail),
		subjPrefix: "[" + config.FromName + "] ",
		timeout:    config.Timeout,
	}, nil
}

func (sender *SendGridSender) Send(ctx context.Context, message Message) error {
	if sender.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, sender.timeout)
		defer cancel()
	}

	request := sendgrid.GetRequest(sender.key, sendGridEndpoint, sendGridHost)
	request.Method = http.MethodPost
	request.Body = sgmail.GetRequestBody(sender.prepare(message))

	response, err := sendgrid.MakeRequestWithContext(ctx, request)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if response.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sendgrid send: status %d: %s", response.StatusCode, response.Body)
	}
	return nil
}

func (sender *SendGridSender) prepare(message Message) *sgmail.SGMailV3 {
	personalization := sgmail.NewPersonalization()
	personalization.Subject = sender.subjPrefix + message.Subject
	personalization.AddTos(sgmail.NewEmail("", message.To))

	mail := sgmail.NewV3Mail()
	mail.SetFrom(sender.from)
	mail.AddPersonalizations(personalization)
	mail.AddContent(sgmail.NewContent("text/plain", message.TextBody))
	if message.HTMLBody != "" {
		mail.AddContent(sgmail.NewContent("text/html", message.HTMLBody))
	}
	return mail
}
