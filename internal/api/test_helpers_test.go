package api

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/ifla/internal/db"
	"github.com/terraincognita07/ifla/internal/models"
	"github.com/terraincognita07/ifla/internal/notify"
	"github.com/terraincognita07/ifla/internal/payments"
	"github.com/terraincognita07/ifla/internal/storage"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type recordingReporter struct {
	mu     sync.Mutex
	errors []error
}

func (reporter *recordingReporter) Error(err error, _ map[string]interface{}) {
	reporter.mu.Lock()
	defer reporter.mu.Unlock()
	reporter.errors = append(reporter.errors, err)
}

func (reporter *recordingReporter) count() int {
	reporter.mu.Lock()
	defer reporter.mu.Unlock()
	return len(reporter.errors)
}

type testEnv struct {
	app      *fiber.App
	handler  *Handler
	repos    *db.Repositories
	gateway  *payments.Fake
	outbox   *notify.Outbox
	reporter *recordingReporter
	language models.Language
	levels   []models.CourseLevel
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dir := t.TempDir()
	database, err := db.OpenSQLite(filepath.Join(dir, "ifla.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := database.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })

	store, err := storage.NewLocalStore(filepath.Join(dir, "media"))
	if err != nil {
		t.Fatalf("local store: %v", err)
	}

	env := &testEnv{
		gateway:  payments.NewFake("webhook-secret"),
		outbox:   &notify.Outbox{},
		reporter: &recordingReporter{},
	}
	handler, err := NewHandler(database, testSecret, false, Dependencies{
		Gateway:    env.gateway,
		Store:      store,
		Sender:     env.outbox,
		Reporter:   env.reporter,
		AdminEmail: "office@ifla.example",
		Currency:   "INR",
	})
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}

	app := fiber.New()
	RegisterRoutes(app, handler)

	env.app = app
	env.handler = handler
	env.repos = handler.repositories

	env.language = models.Language{Name: "French", Code: "fr", Flag: "🇫🇷", Category: models.CategoryEuropean, IsActive: true}
	if err := env.repos.Catalog.CreateLanguage(&env.language); err != nil {
		t.Fatalf("create language: %v", err)
	}
	for _, seed := range []struct {
		code  string
		price int64
	}{{models.LevelA1, 12000}, {models.LevelA2, 14000}} {
		level := models.CourseLevel{LanguageID: env.language.ID, Level: seed.code, Price: seed.price, DurationWeeks: 12, IsActive: true}
		if err := env.repos.Catalog.CreateLevel(&level); err != nil {
			t.Fatalf("create level: %v", err)
		}
		env.levels = append(env.levels, level)
	}
	return env
}

func (env *testEnv) createUser(t *testing.T, email string, password string, staff bool) models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := models.User{
		Email:        email,
		Username:     email[:bytes.IndexByte([]byte(email), '@')],
		PasswordHash: string(hash),
		FirstName:    "Test",
		LastName:     "User",
		IsStaff:      staff,
		IsStudent:    !staff,
		IsActive:     true,
		IsVerified:   true,
	}
	if err := env.repos.Users.Create(&user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

// login returns the Cookie header value for an authenticated session.
func (env *testEnv) login(t *testing.T, email string, password string) string {
	t.Helper()
	response := env.do(t, http.MethodPost, "/api/auth/login", "", map[string]any{"email": email, "password": password})
	defer response.Body.Close()
	if response.StatusCode != fiber.StatusOK {
		t.Fatalf("login expected 200, got %d", response.StatusCode)
	}
	value := responseCookieValue(response.Cookies(), authCookieName)
	if value == "" {
		t.Fatal("login did not set the auth cookie")
	}
	return authCookieName + "=" + value
}

func (env *testEnv) do(t *testing.T, method string, path string, cookie string, payload any) *http.Response {
	t.Helper()

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("encode payload: %v", err)
		}
		body = bytes.NewReader(encoded)
	}
	request := httptest.NewRequest(method, path, body)
	if payload != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	if cookie != "" {
		request.Header.Set("Cookie", cookie)
	}

	response, err := env.app.Test(request, -1)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, path, err)
	}
	return response
}

func (env *testEnv) doRaw(t *testing.T, request *http.Request) *http.Response {
	t.Helper()
	response, err := env.app.Test(request, -1)
	if err != nil {
		t.Fatalf("%s %s failed: %v", request.Method, request.URL.Path, err)
	}
	return response
}

func decodeJSON(t *testing.T, response *http.Response, target any) {
	t.Helper()
	defer response.Body.Close()
	if err := json.NewDecoder(response.Body).Decode(target); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func responseCookieValue(cookies []*http.Cookie, name string) string {
	for _, cookie := range cookies {
		if cookie.Name == name {
			return cookie.Value
		}
	}
	return ""
}

func readAPIError(t *testing.T, body io.Reader) string {
	t.Helper()

	payload := map[string]any{}
	bytes, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("read response body: %v", err)
	}
	if err := json.Unmarshal(bytes, &payload); err != nil {
		t.Fatalf("decode response body: %v", err)
	}
	message, _ := payload["error"].(string)
	return message
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	canvas := image.NewRGBA(image.Rect(0, 0, 24, 24))
	canvas.Set(3, 3, color.RGBA{G: 180, A: 255})
	var buffer bytes.Buffer
	if err := png.Encode(&buffer, canvas); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buffer.Bytes()
}

// applicationForm builds the multipart enrollment form. Files named in skip are left out.
func applicationForm(t *testing.T, fields map[string][]string, skip ...string) (*bytes.Buffer, string) {
	t.Helper()

	skipped := map[string]bool{}
	for _, name := range skip {
		skipped[name] = true
	}

	var buffer bytes.Buffer
	writer := multipart.NewWriter(&buffer)
	for name, values := range fields {
		for _, value := range values {
			if err := writer.WriteField(name, value); err != nil {
				t.Fatalf("write field: %v", err)
			}
		}
	}
	files := map[string]struct {
		filename string
		content  []byte
	}{
		"photo":                 {"photo.png", pngBytes(t)},
		"verification_document": {"id.pdf", []byte("%PDF-1.4\n%test\n")},
		"signature":             {"signature.png", pngBytes(t)},
	}
	for field, file := range files {
		if skipped[field] {
			continue
		}
		part, err := writer.CreateFormFile(field, file.filename)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := part.Write(file.content); err != nil {
			t.Fatalf("write form file: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	return &buffer, writer.FormDataContentType()
}
