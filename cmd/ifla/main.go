package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/terraincognita07/ifla/internal/api"
	"github.com/terraincognita07/ifla/internal/auth"
	"github.com/terraincognita07/ifla/internal/config"
	"github.com/terraincognita07/ifla/internal/db"
	"github.com/terraincognita07/ifla/internal/notify"
	"github.com/terraincognita07/ifla/internal/payments"
	"github.com/terraincognita07/ifla/internal/payments/midtrans"
	"github.com/terraincognita07/ifla/internal/payments/razorpay"
	"github.com/terraincognita07/ifla/internal/render"
	"github.com/terraincognita07/ifla/internal/reporting"
	"github.com/terraincognita07/ifla/internal/storage"
	"gorm.io/gorm"
)

const (
	maxRequestBodyBytes = 20 << 20
	requestsPerMinute   = 300
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	time.Local = mustLoadLocation(cfg.Timezone)

	database, err := db.Open(cfg.DBDriver, cfg.DBDSN, db.PoolConfig{
		MaxOpenConns:    cfg.DBMaxOpen,
		MaxIdleConns:    cfg.DBMaxIdle,
		ConnMaxLifetime: cfg.DBMaxLifetime,
	})
	if err != nil {
		log.Fatalf("database init failed: %v", err)
	}

	if len(os.Args) > 1 {
		if err := runCommand(database, os.Args[1], os.Args[2:]); err != nil {
			log.Fatalf("%s: %v", os.Args[1], err)
		}
		return
	}

	if err := serve(cfg, database); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}

func serve(cfg config.Config, database *gorm.DB) error {
	host, _ := os.Hostname()
	reporter := reporting.New(reporting.Config{
		Token:       cfg.RollbarToken,
		Environment: cfg.Environment,
		Host:        host,
		Build:       cfg.Build,
	})
	defer reporter.Close()

	deps, err := buildDependencies(cfg)
	if err != nil {
		return err
	}
	deps.Reporter = reporter

	handler, err := api.NewHandler(database, cfg.SecretKey, cfg.CookieSecure, deps)
	if err != nil {
		return fmt.Errorf("handler init failed: %w", err)
	}
	app := newApp(cfg, handler, reporter)

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()

	go func() {
		<-sigCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			log.Printf("server shutdown failed: %v", err)
		}
	}()

	log.Printf("IFLA listening on http://0.0.0.0:%s (db: %s, payments: %s, storage: %s)",
		cfg.Port, cfg.DBDriver, deps.Gateway.Name(), cfg.StorageDriver)
	return app.Listen(":" + cfg.Port)
}

func newApp(cfg config.Config, handler *api.Handler, reporter api.ErrorReporter) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "IFLA",
		DisableStartupMessage: true,
		BodyLimit:             maxRequestBodyBytes,
		ErrorHandler:          errorHandler(reporter),
	})

	app.Use(requestid.New(requestid.Config{
		Generator:  uuid.NewString,
		ContextKey: "requestid",
	}))
	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c *fiber.Ctx, value interface{}) {
			reporter.Error(fmt.Errorf("panic: %v", value), map[string]interface{}{"path": c.Path()})
		},
	}))
	app.Use(logger.New(logger.Config{
		Format: "${time} ${locals:requestid} ${status} ${method} ${path} ${latency}\n",
	}))
	app.Use(compress.New())
	if cfg.CORSOrigins != "" {
		app.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORSOrigins,
			AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
			AllowHeaders:     "Origin, Content-Type, Accept",
			AllowCredentials: true,
		}))
	}
	app.Use(limiter.New(limiter.Config{
		Max:        requestsPerMinute,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Path() == "/api/payments/webhook" || c.Path() == "/healthz"
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "too many requests"})
		},
	}))

	api.RegisterRoutes(app, handler)
	return app
}

// errorHandler answers errors that escape the handlers, such as oversized bodies.
func errorHandler(reporter api.ErrorReporter) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return c.Status(fiberErr.Code).JSON(fiber.Map{"error": fiberErr.Message})
		}
		reporter.Error(err, map[string]interface{}{"method": c.Method(), "path": c.Path()})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
}

func buildDependencies(cfg config.Config) (api.Dependencies, error) {
	gateway, err := newGateway(cfg)
	if err != nil {
		return api.Dependencies{}, fmt.Errorf("payment gateway: %w", err)
	}
	store, err := newStore(cfg)
	if err != nil {
		return api.Dependencies{}, fmt.Errorf("document storage: %w", err)
	}
	sender, err := newSender(cfg)
	if err != nil {
		return api.Dependencies{}, fmt.Errorf("mail: %w", err)
	}
	renderer, err := render.NewCertificateRenderer(cfg.CertificateBgImage)
	if err != nil {
		return api.Dependencies{}, fmt.Errorf("certificate renderer: %w", err)
	}

	return api.Dependencies{
		Gateway:    gateway,
		Store:      store,
		Sender:     sender,
		Renderer:   renderer,
		Google:     auth.NewGoogleVerifier(cfg.GoogleClientID),
		AdminEmail: cfg.AdminEmail,
		Currency:   cfg.PaymentCurrency,

		PreviousSecrets: cfg.PreviousSecretKeys,
	}, nil
}

func newGateway(cfg config.Config) (payments.Gateway, error) {
	switch cfg.PaymentProvider {
	case "", "fake":
		return payments.NewFake(cfg.FakeGatewaySecret), nil
	case "razorpay":
		return razorpay.New(razorpay.Config{
			KeyID:         cfg.RazorpayKeyID,
			KeySecret:     cfg.RazorpayKeySecret,
			WebhookSecret: cfg.RazorpayWebhookToken,
			Timeout:       cfg.PaymentTimeout,
		})
	case "midtrans":
		return midtrans.New(midtrans.Config{
			ServerKey:  cfg.MidtransServerKey,
			Production: cfg.MidtransProduction,
			Timeout:    cfg.PaymentTimeout,
		})
	default:
		return nil, fmt.Errorf("unsupported provider %q", cfg.PaymentProvider)
	}
}

func newStore(cfg config.Config) (storage.Store, error) {
	switch cfg.StorageDriver {
	case "", "local":
		return storage.NewLocalStore(cfg.StorageRoot)
	case "oss":
		return storage.NewOSSStore(storage.OSSConfig{
			Endpoint:        cfg.OSSEndpoint,
			AccessKeyID:     cfg.OSSAccessKeyID,
			AccessKeySecret: cfg.OSSAccessSecret,
			Bucket:          cfg.OSSBucket,
			Prefix:          cfg.OSSPrefix,
		})
	default:
		return nil, fmt.Errorf("unsupported driver %q", cfg.StorageDriver)
	}
}

func newSender(cfg config.Config) (notify.Sender, error) {
	switch cfg.MailProvider {
	case "", "log":
		return notify.LogSender{}, nil
	case "sendgrid":
		return notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromName:  cfg.MailFromName,
			FromEmail: cfg.MailFromEmail,
			Timeout:   cfg.MailTimeout,
		})
	default:
		return nil, fmt.Errorf("unsupported provider %q", cfg.MailProvider)
	}
}

func mustLoadLocation(name string) *time.Location {
	location, err := time.LoadLocation(name)
	if err != nil {
		log.Printf("invalid TZ %q, falling back to UTC", name)
		return time.UTC
	}
	return location
}
