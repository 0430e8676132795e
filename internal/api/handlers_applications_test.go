package api

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/terraincognita07/ifla/internal/payments"
)

type submittedApplication struct {
	ID            uint   `json:"id"`
	Status        string `json:"status"`
	PaymentStatus string `json:"payment_status"`
	TotalAmount   int64  `json:"total_amount"`
}

func (env *testEnv) applicationFields() map[string][]string {
	return map[string][]string{
		"language":       {strconv.FormatUint(uint64(env.language.ID), 10)},
		"levels":         {fmt.Sprintf("%d,%d", env.levels[0].ID, env.levels[1].ID)},
		"full_name":      {"Asha Rao"},
		"date_of_birth":  {"1998-04-12"},
		"phone_number":   {"+919800000000"},
		"email":          {"asha@example.com"},
		"address":        {"12 MG Road, Bengaluru"},
		"schedule_type":  {"weekend"},
		"preferred_hour": {"10:00"},
	}
}

func (env *testEnv) submitApplication(t *testing.T, cookie string) submittedApplication {
	t.Helper()
	body, contentType := applicationForm(t, env.applicationFields())
	request := httptest.NewRequest(http.MethodPost, "/api/applications", body)
	request.Header.Set("Content-Type", contentType)
	request.Header.Set("Cookie", cookie)

	response := env.doRaw(t, request)
	if response.StatusCode != http.StatusCreated {
		message := readAPIError(t, response.Body)
		t.Fatalf("expected status 201, got %d (%s)", response.StatusCode, message)
	}
	var application submittedApplication
	decodeJSON(t, response, &application)
	return application
}

func (env *testEnv) postWebhook(t *testing.T, event string, orderID string, signature string) *http.Response {
	t.Helper()
	payload := []byte(fmt.Sprintf(
		`{"event":%q,"payload":{"payment":{"entity":{"id":"pay_1","order_id":%q}},"order":{"entity":{"id":%q}}}}`,
		event, orderID, orderID,
	))
	if signature == "" {
		signature = env.gateway.Sign(payload)
	}
	request := httptest.NewRequest(http.MethodPost, "/api/payments/webhook", bytes.NewReader(payload))
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set(payments.FakeSignatureHeader, signature)
	return env.doRaw(t, request)
}

func TestSubmitApplicationFreezesTotal(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "asha@example.com", "Lang4ever", false)
	cookie := env.login(t, "asha@example.com", "Lang4ever")

	application := env.submitApplication(t, cookie)
	if application.TotalAmount != 26000 {
		t.Fatalf("expected total 26000, got %d", application.TotalAmount)
	}
	if application.Status != "submitted" || application.PaymentStatus != "pending" {
		t.Fatalf("unexpected status pair %q/%q", application.Status, application.PaymentStatus)
	}

	response := env.do(t, http.MethodGet, fmt.Sprintf("/api/applications/%d/documents/photo", application.ID), cookie, nil)
	defer response.Body.Close()
	if response.StatusCode != http.StatusOK {
		t.Fatalf("expected document status 200, got %d", response.StatusCode)
	}
	if contentType := response.Header.Get("Content-Type"); contentType != "image/jpeg" {
		t.Fatalf("expected photo normalized to image/jpeg, got %q", contentType)
	}
}

func TestSubmitApplicationReportsMissingFields(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "asha@example.com", "Lang4ever", false)
	cookie := env.login(t, "asha@example.com", "Lang4ever")

	fields := env.applicationFields()
	delete(fields, "full_name")
	fields["levels"] = []string{"abc"}
	body, contentType := applicationForm(t, fields, "signature")
	request := httptest.NewRequest(http.MethodPost, "/api/applications", body)
	request.Header.Set("Content-Type", contentType)
	request.Header.Set("Cookie", cookie)

	response := env.doRaw(t, request)
	if response.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", response.StatusCode)
	}
	var payload struct {
		Error  string            `json:"error"`
		Fields map[string]string `json:"fields"`
	}
	decodeJSON(t, response, &payload)
	if _, ok := payload.Fields["levels"]; !ok {
		t.Fatalf("expected levels field error, got %#v", payload.Fields)
	}
}

func TestApplicationsAreOwnerScoped(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "asha@example.com", "Lang4ever", false)
	env.createUser(t, "other@example.com", "Lang4ever", false)
	owner := env.login(t, "asha@example.com", "Lang4ever")
	stranger := env.login(t, "other@example.com", "Lang4ever")

	application := env.submitApplication(t, owner)

	response := env.do(t, http.MethodGet, fmt.Sprintf("/api/applications/%d", application.ID), stranger, nil)
	response.Body.Close()
	if response.StatusCode != http.StatusForbidden {
		t.Fatalf("expected status 403 for stranger, got %d", response.StatusCode)
	}

	response = env.do(t, http.MethodPost, fmt.Sprintf("/api/applications/%d/order", application.ID), stranger, nil)
	response.Body.Close()
	if response.StatusCode != http.StatusForbidden {
		t.Fatalf("expected status 403 for stranger order, got %d", response.StatusCode)
	}
}

func TestPaymentFlowThroughWebhookAndConfirm(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "asha@example.com", "Lang4ever", false)
	cookie := env.login(t, "asha@example.com", "Lang4ever")
	application := env.submitApplication(t, cookie)

	response := env.do(t, http.MethodPost, fmt.Sprintf("/api/applications/%d/order", application.ID), cookie, nil)
	if response.StatusCode != http.StatusCreated {
		t.Fatalf("expected order status 201, got %d", response.StatusCode)
	}
	var order payments.Order
	decodeJSON(t, response, &order)
	if order.AmountMinor != 2600000 || order.Currency != "INR" {
		t.Fatalf("unexpected order %#v", order)
	}

	forged := env.postWebhook(t, "payment.captured", order.OrderID, "deadbeef")
	forged.Body.Close()
	if forged.StatusCode != http.StatusForbidden {
		t.Fatalf("expected status 403 for forged signature, got %d", forged.StatusCode)
	}

	response = env.postWebhook(t, "payment.captured", order.OrderID, "")
	if response.StatusCode != http.StatusOK {
		t.Fatalf("expected webhook status 200, got %d", response.StatusCode)
	}
	var outcome struct {
		Status        string `json:"status"`
		ApplicationID uint   `json:"application_id"`
	}
	decodeJSON(t, response, &outcome)
	if outcome.Status != "processed" || outcome.ApplicationID != application.ID {
		t.Fatalf("unexpected webhook outcome %#v", outcome)
	}

	replay := env.postWebhook(t, "payment.captured", order.OrderID, "")
	decodeJSON(t, replay, &outcome)
	if outcome.Status != "ignored" {
		t.Fatalf("expected redelivery to be ignored, got %q", outcome.Status)
	}

	for attempt := 0; attempt < 2; attempt++ {
		confirm := env.do(t, http.MethodPost, fmt.Sprintf("/api/applications/%d/confirm", application.ID), cookie, nil)
		if confirm.StatusCode != http.StatusOK {
			t.Fatalf("confirm %d: expected status 200, got %d", attempt+1, confirm.StatusCode)
		}
		var payload struct {
			Enrollments []struct {
				CourseLevelID uint `json:"course_level_id"`
			} `json:"enrollments"`
		}
		decodeJSON(t, confirm, &payload)
		if len(payload.Enrollments) != 2 {
			t.Fatalf("confirm %d: expected 2 enrollments, got %d", attempt+1, len(payload.Enrollments))
		}
	}

	mine := env.do(t, http.MethodGet, "/api/enrollments", cookie, nil)
	var enrollments []map[string]any
	decodeJSON(t, mine, &enrollments)
	if len(enrollments) != 2 {
		t.Fatalf("expected 2 ledger entries, got %d", len(enrollments))
	}

	again := env.do(t, http.MethodPost, fmt.Sprintf("/api/applications/%d/order", application.ID), cookie, nil)
	again.Body.Close()
	if again.StatusCode != http.StatusConflict {
		t.Fatalf("expected status 409 for a paid application, got %d", again.StatusCode)
	}
}

func TestCreateOrderGatewayFailureIsBadGateway(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "asha@example.com", "Lang4ever", false)
	cookie := env.login(t, "asha@example.com", "Lang4ever")
	application := env.submitApplication(t, cookie)

	env.gateway.FailNextOrder(fmt.Errorf("connection reset"))
	response := env.do(t, http.MethodPost, fmt.Sprintf("/api/applications/%d/order", application.ID), cookie, nil)
	defer response.Body.Close()
	if response.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected status 502, got %d", response.StatusCode)
	}
	if message := readAPIError(t, response.Body); strings.Contains(message, "connection reset") {
		t.Fatalf("gateway detail leaked to client: %q", message)
	}
	if env.reporter.count() != 1 {
		t.Fatalf("expected one reported error, got %d", env.reporter.count())
	}
}

func TestCompletionApprovalAndDownload(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "asha@example.com", "Lang4ever", false)
	env.createUser(t, "teacher@example.com", "Lang4ever", true)
	student := env.login(t, "asha@example.com", "Lang4ever")
	staff := env.login(t, "teacher@example.com", "Lang4ever")

	response := env.do(t, http.MethodPost, "/api/enrollments", student, map[string]any{"course_level_id": env.levels[0].ID})
	if response.StatusCode != http.StatusCreated {
		t.Fatalf("expected enroll status 201, got %d", response.StatusCode)
	}
	var enrollment struct {
		ID uint `json:"id"`
	}
	decodeJSON(t, response, &enrollment)

	progressPath := fmt.Sprintf("/api/admin/enrollments/%d/progress", enrollment.ID)
	response = env.do(t, http.MethodPatch, progressPath, staff, map[string]any{"status": "completed", "progress_percentage": "140"})
	var updated struct {
		Status   string `json:"status"`
		Progress int    `json:"progress_percentage"`
	}
	decodeJSON(t, response, &updated)
	if updated.Progress != 100 || updated.Status != "completed" {
		t.Fatalf("expected clamped completion, got %#v", updated)
	}

	response = env.do(t, http.MethodPost, fmt.Sprintf("/api/admin/enrollments/%d/certificate/approve", enrollment.ID), staff, nil)
	if response.StatusCode != http.StatusOK {
		t.Fatalf("expected approve status 200, got %d", response.StatusCode)
	}
	var approved struct {
		Certificate struct {
			ID                uint   `json:"id"`
			CertificateNumber string `json:"certificate_number"`
			Status            string `json:"status"`
		} `json:"certificate"`
		Warning string `json:"warning"`
	}
	decodeJSON(t, response, &approved)
	if approved.Certificate.Status != "approved" || approved.Warning != "" {
		t.Fatalf("unexpected approval payload %#v", approved)
	}
	if !strings.HasPrefix(approved.Certificate.CertificateNumber, "IFLA-") {
		t.Fatalf("unexpected certificate number %q", approved.Certificate.CertificateNumber)
	}

	response = env.do(t, http.MethodGet, fmt.Sprintf("/api/certificates/%d/download", approved.Certificate.ID), student, nil)
	defer response.Body.Close()
	if response.StatusCode != http.StatusOK {
		t.Fatalf("expected download status 200, got %d", response.StatusCode)
	}
	if contentType := response.Header.Get("Content-Type"); contentType != "application/pdf" {
		t.Fatalf("expected application/pdf, got %q", contentType)
	}
	disposition := response.Header.Get("Content-Disposition")
	if !strings.Contains(disposition, "certificate_"+approved.Certificate.CertificateNumber+".pdf") {
		t.Fatalf("unexpected content disposition %q", disposition)
	}
	content, err := io.ReadAll(response.Body)
	if err != nil {
		t.Fatalf("read pdf: %v", err)
	}
	if !bytes.HasPrefix(content, []byte("%PDF")) {
		t.Fatal("expected a PDF document")
	}
}

func TestEnrollTwiceConflicts(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "asha@example.com", "Lang4ever", false)
	cookie := env.login(t, "asha@example.com", "Lang4ever")

	first := env.do(t, http.MethodPost, "/api/enrollments", cookie, map[string]any{"course_level_id": env.levels[0].ID})
	first.Body.Close()
	second := env.do(t, http.MethodPost, "/api/enrollments", cookie, map[string]any{"course_level_id": env.levels[0].ID})
	second.Body.Close()
	if second.StatusCode != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", second.StatusCode)
	}
}
