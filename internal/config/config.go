package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const minSecretKeyLength = 32

var insecureSecretKeys = map[string]struct{}{
	"change_me_in_production":                    {},
	"replace_with_at_least_32_random_characters": {},
}

type Config struct {
	SecretKey string
	// PreviousSecretKeys still open sessions issued before SECRET_KEY was rotated.
	PreviousSecretKeys []string
	Port               string
	CookieSecure       bool
	Timezone           string
	CORSOrigins        string

	DBDriver      string
	DBDSN         string
	DBMaxOpen     int
	DBMaxIdle     int
	DBMaxLifetime time.Duration

	PaymentProvider      string
	PaymentCurrency      string
	PaymentTimeout       time.Duration
	RazorpayKeyID        string
	RazorpayKeySecret    string
	RazorpayWebhookToken string
	MidtransServerKey    string
	MidtransProduction   bool
	FakeGatewaySecret    string

	MailProvider   string
	SendGridAPIKey string
	MailFromName   string
	MailFromEmail  string
	AdminEmail     string
	MailTimeout    time.Duration

	StorageDriver      string
	StorageRoot        string
	OSSEndpoint        string
	OSSAccessKeyID     string
	OSSAccessSecret    string
	OSSBucket          string
	OSSPrefix          string
	CertificateBgImage string

	GoogleClientID string

	RollbarToken string
	Environment  string
	Build        string
}

// Load reads an optional .env file and then the process environment.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, file := range envFiles {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", file, err)
		}
	}

	secretKey, err := resolveSecretKey()
	if err != nil {
		return Config{}, err
	}
	port, err := resolvePort()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		SecretKey:          secretKey,
		PreviousSecretKeys: getList("SECRET_KEY_PREVIOUS"),
		Port:               port,
		CookieSecure:       getBool("COOKIE_SECURE", false),
		Timezone:           getEnv("TZ", "UTC"),
		CORSOrigins:        getEnv("CORS_ORIGINS", ""),

		DBDriver:      strings.ToLower(getEnv("DB_DRIVER", "sqlite")),
		DBDSN:         getEnv("DB_DSN", filepath.Join("data", "ifla.db")),
		DBMaxOpen:     getInt("DB_MAX_OPEN_CONNS", 10),
		DBMaxIdle:     getInt("DB_MAX_IDLE_CONNS", 5),
		DBMaxLifetime: getDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),

		PaymentProvider:      strings.ToLower(getEnv("PAYMENT_PROVIDER", "fake")),
		PaymentCurrency:      strings.ToUpper(getEnv("PAYMENT_CURRENCY", "INR")),
		PaymentTimeout:       getDuration("PAYMENT_TIMEOUT", 15*time.Second),
		RazorpayKeyID:        getEnv("RAZORPAY_KEY_ID", ""),
		RazorpayKeySecret:    getEnv("RAZORPAY_KEY_SECRET", ""),
		RazorpayWebhookToken: getEnv("RAZORPAY_WEBHOOK_SECRET", ""),
		MidtransServerKey:    getEnv("MIDTRANS_SERVER_KEY", ""),
		MidtransProduction:   getBool("MIDTRANS_PRODUCTION", false),
		FakeGatewaySecret:    getEnv("FAKE_GATEWAY_SECRET", secretKey),

		MailProvider:   strings.ToLower(getEnv("MAIL_PROVIDER", "log")),
		SendGridAPIKey: getEnv("SENDGRID_API_KEY", ""),
		MailFromName:   getEnv("MAIL_FROM_NAME", "IFLA"),
		MailFromEmail:  getEnv("MAIL_FROM_EMAIL", "no-reply@ifla.local"),
		AdminEmail:     getEnv("ADMIN_EMAIL", ""),
		MailTimeout:    getDuration("MAIL_TIMEOUT", 10*time.Second),

		StorageDriver:      strings.ToLower(getEnv("STORAGE_DRIVER", "local")),
		StorageRoot:        getEnv("STORAGE_ROOT", filepath.Join("data", "media")),
		OSSEndpoint:        getEnv("ALI_OSS_ENDPOINT", ""),
		OSSAccessKeyID:     getEnv("ALI_OSS_ACCESS_KEY", ""),
		OSSAccessSecret:    getEnv("ALI_OSS_SECRET_KEY", ""),
		OSSBucket:          getEnv("ALI_OSS_BUCKET", ""),
		OSSPrefix:          getEnv("ALI_OSS_PREFIX", "ifla"),
		CertificateBgImage: getEnv("CERTIFICATE_TEMPLATE", ""),

		GoogleClientID: getEnv("GOOGLE_CLIENT_ID", ""),

		RollbarToken: getEnv("ROLLBAR_TOKEN", ""),
		Environment:  getEnv("APP_ENV", "development"),
		Build:        getEnv("APP_BUILD", "dev"),
	}
	return cfg, nil
}

func resolveSecretKey() (string, error) {
	secret := strings.TrimSpace(os.Getenv("SECRET_KEY"))
	if secret == "" {
		return "", errors.New("SECRET_KEY is required")
	}
	if _, insecure := insecureSecretKeys[strings.ToLower(secret)]; insecure {
		return "", errors.New("SECRET_KEY uses an insecure placeholder value")
	}
	if len(secret) < minSecretKeyLength {
		return "", fmt.Errorf("SECRET_KEY must be at least %d characters", minSecretKeyLength)
	}
	return secret, nil
}

func resolvePort() (string, error) {
	raw := strings.TrimSpace(getEnv("PORT", "8080"))
	port, err := strconv.Atoi(raw)
	if err != nil {
		return "", fmt.Errorf("invalid PORT %q", raw)
	}
	if port < 1 || port > 65535 {
		return "", fmt.Errorf("PORT out of range: %d", port)
	}
	return strconv.Itoa(port), nil
}

func getEnv(key string, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func getBool(key string, fallback bool) bool {
	value, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return value
}

func getInt(key string, fallback int) int {
	value, err := strconv.Atoi(getEnv(key, ""))
	if err != nil || value < 0 {
		return fallback
	}
	return value
}

func getDuration(key string, fallback time.Duration) time.Duration {
	value, err := time.ParseDuration(getEnv(key, ""))
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}

func getList(key string) []string {
	var values []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			values = append(values, part)
		}
	}
	return values
}
