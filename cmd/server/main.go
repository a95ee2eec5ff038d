package main

import (
	"rental-service/internal/handler"
	"rental-service/internal/middleware"
	"rental-service/internal/mpesa"
	"rental-service/internal/notify"
	"rental-service/internal/repository"
	"rental-service/internal/transport"
	"rental-service/pkg/config"
	"rental-service/pkg/database"
	"rental-service/pkg/jwtutil"
	"rental-service/pkg/logger"
	"rental-service/prometheus"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	// Load configuration from .env file and environment variables
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger with config
	logger.InitLogger(cfg)
	log := logger.GetLogger()
	log.Info("Starting rental service...", zap.String("environment", cfg.Server.Env))

	jwtutil.SetSigningKey(cfg.JWT.SigningKey)

	// Initialize database (now includes migrations automatically)
	if err := database.InitDB(cfg); err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	log.Info("Database connection established and migrations completed")

	// Initialize Prometheus metrics
	prometheus.InitMetrics(cfg)
	log.Info("Prometheus metrics initialized")

	// Wire repository, channel transports and services
	store := repository.New(database.GetDB())
	sms := transport.NewSMSClient(cfg.SMS.BaseURL, cfg.SMS.APIKey, cfg.SMS.SenderID)
	email := transport.NewEmailClient(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.From)
	whatsapp := transport.NewWhatsAppClient(cfg.WhatsApp.BaseURL, cfg.WhatsApp.InstanceID, cfg.WhatsApp.Token)
	dispatcher := notify.NewDispatcher(store, sms, email, whatsapp, cfg.Billing.Currency, log)
	gateway := mpesa.NewClient(cfg.Mpesa, log)
	watcher := mpesa.NewWatcher(gateway, store, cfg.Mpesa.PollInterval, cfg.Mpesa.MaxPollTries, log)
	handler.Init(cfg, store, dispatcher, gateway, watcher)

	// Initialize Echo framework
	e := echo.New()

	// Apply global middleware - order matters
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(middleware.RequestIDMiddleware)
	e.Use(logger.Middleware(log))
	e.Use(prometheus.MetricsMiddleware())

	// Public routes - no authentication required
	e.GET("/", handler.Hello)
	e.GET("/health", handler.HealthCheck)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Owner authentication
	auth := e.Group("/auth")
	auth.POST("/register", handler.RegisterOwner)
	auth.POST("/login", handler.LoginOwner)

	// Owner-scoped API
	api := e.Group("/api")
	api.Use(middleware.OwnerAuthMiddleware)

	api.POST("/properties", handler.CreateProperty)
	api.GET("/properties", handler.ListProperties)

	api.POST("/tenants", handler.CreateTenant)
	api.GET("/tenants", handler.ListTenants)
	api.GET("/tenants/:id", handler.GetTenant)
	api.GET("/tenants/:id/dues", handler.GetTenantDues)
	api.GET("/tenants/:id/payments", handler.ListTenantPayments)

	api.POST("/dues/refresh", handler.RefreshDues)

	api.POST("/notifications", handler.SendNotification)
	api.GET("/notifications", handler.ListNotifications)
	api.DELETE("/notifications/:id", handler.DeleteNotification)

	api.POST("/invoices", handler.CreateInvoice)
	api.GET("/invoices", handler.ListInvoices)
	api.POST("/payments/initiate", handler.InitiatePayment)
	api.GET("/payments/status/:checkoutId", handler.PaymentStatus)

	// Start server
	port := cfg.Server.Port
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Failed to start server", zap.Error(err))
	}
}
