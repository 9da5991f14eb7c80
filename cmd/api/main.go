package main

import (
	"os"
	"strings"
	"time"

	"github.com/nimasrn/invite-gateway/internal/config"
	gateway "github.com/nimasrn/invite-gateway/internal/gateways"
	"github.com/nimasrn/invite-gateway/internal/handlers"
	"github.com/nimasrn/invite-gateway/internal/queue"
	"github.com/nimasrn/invite-gateway/internal/repository"
	"github.com/nimasrn/invite-gateway/internal/services"
	xhttp "github.com/nimasrn/invite-gateway/pkg/http"
	"github.com/nimasrn/invite-gateway/pkg/logger"
	"github.com/nimasrn/invite-gateway/pkg/pg"
	"github.com/nimasrn/invite-gateway/pkg/prom"
	"github.com/nimasrn/invite-gateway/pkg/redis"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {

	err := config.Load(argContainsEnvPath())
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return
	}
	logger.Info("starting api", "version", version, "commit", commit, "date", date)

	// transport (tcp for now)
	s := xhttp.NewServer(xhttp.DefaultServerOption)
	s.Server.ReadBufferSize = 1024 * 16
	s.Server.WriteBufferSize = 1024 * 16
	s.Use(xhttp.CompressMiddleware(6))
	s.Use(xhttp.TimeoutMiddleware(config.Get().HttpRequestTimeout))
	s.Use(xhttp.CORSMiddleware(config.Get().HttpCorsOrigin))
	s.Use(xhttp.RequestIDMiddleware)
	s.Use(xhttp.RequestLoggerMiddleware)
	s.Use(xhttp.RecoverMiddleware)
	s.Router = xhttp.CreateDefaultRouter()

	readConf := pg.Config{
		User:     config.Get().PostgresReadUser,
		Host:     config.Get().PostgresReadHost,
		Port:     config.Get().PostgresReadPort,
		Password: config.Get().PostgresReadPassword,
		Database: config.Get().PostgresReadDatabase,
		SSLMode:  config.Get().PostgresSSLMode,
	}
	writeConf := pg.Config{
		User:     config.Get().PostgresWriteUser,
		Host:     config.Get().PostgresWriteHost,
		Port:     config.Get().PostgresWritePort,
		Password: config.Get().PostgresWritePassword,
		Database: config.Get().PostgresWriteDatabase,
		SSLMode:  config.Get().PostgresSSLMode,
	}

	pgDebug := false
	if config.Get().AppEnv == "dev" {
		pgDebug = true
	}
	db, err := pg.CreateReadWrite(readConf, writeConf, pgDebug)
	if err != nil {
		logger.Error("failed connecting to pg", "error", err)
		return
	}
	defer db.Close()

	// redis only backs the async sale queue; the api runs without it
	var redisAdap redis.RedisAdapter
	redisAdap, err = redis.NewRedisAdapter("default", config.Get().RedisUniversalKeyPrefix, &redis.Options{
		Addrs:      []string{config.Get().RedisAddr},
		ClientName: "default",
		DB:         config.Get().RedisDatabase,
		Username:   config.Get().RedisUsername,
		Password:   config.Get().RedisPassword,
	})
	if err != nil {
		logger.Warn("redis unavailable", "error", err)
		redisAdap = nil
	}

	client, err := gateway.NewClient(gateway.Config{
		BaseURL:                 config.Get().PaymentGatewayBaseURL,
		AccessToken:             config.Get().PaymentGatewayAccessToken,
		Timeout:                 config.Get().PaymentGatewayTimeout,
		CircuitBreakerThreshold: config.Get().PaymentGatewayCBThreshold,
		CircuitBreakerTimeout:   config.Get().PaymentGatewayCBTimeout,
	})
	if err != nil {
		logger.Error("failed to create payment gateway client", "error", err)
		return
	}
	defer client.Close()

	purchaseRepo := repository.NewPurchaseRepository(db)
	tableRepo := repository.NewTableRepository(db)
	reservationRepo := repository.NewReservationRepository(db)
	vendorRepo := repository.NewVendorRepository(db)

	// services
	purchaseService := services.NewPurchaseService(purchaseRepo, client, services.PreferenceConfig{
		Enabled:         config.Get().PaymentCreatePreference,
		FrontendURL:     config.Get().FrontendURL,
		NotificationURL: config.Get().NotificationURL,
	})
	paymentService := services.NewPaymentService(purchaseRepo, client, services.PaymentDefaults{
		StatementDescriptor: config.Get().StatementDescriptor,
		NotificationURL:     config.Get().NotificationURL,
	})
	vendorService := services.NewVendorService(vendorRepo, db)
	tableService := services.NewTableService(tableRepo, reservationRepo, purchaseService, db)

	var saleRecorder services.SaleRecorder = vendorService
	if config.Get().VendorSalesAsync {
		if redisAdap == nil {
			logger.Error("async vendor sales need redis")
			return
		}
		q, err := queue.NewQueue(redisAdap, queueConfig())
		if err != nil {
			logger.Error("failed creating queue", "error", err)
			return
		}
		saleRecorder = services.NewQueuedSaleRecorder(q)
	}
	reconciliationService := services.NewReconciliationService(purchaseRepo, purchaseService, client, saleRecorder)

	healthService := services.NewHealthService(db, redisAdap)

	g := s.Router.Group("/api")
	handlers.RegisterPurchaseRoutes(g, handlers.NewPurchaseHandler(purchaseService))
	handlers.RegisterPaymentRoutes(g, handlers.NewPaymentHandler(paymentService))
	handlers.RegisterReconciliationRoutes(g, handlers.NewReconciliationHandler(reconciliationService, webhookTimeout()))
	handlers.RegisterTableRoutes(g, handlers.NewTableHandler(tableService))
	handlers.RegisterVendorRoutes(g, handlers.NewVendorHandler(vendorService))
	handlers.RegisterHealthRoutes(g, handlers.NewHealthHandler(healthService))

	var hostname string
	hostname, err = os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	err = prom.Create(hostname, config.Get().AppEnv, config.Get().PromNamespace)
	if err != nil {
		logger.Error("failed to create prometheus metrics", "error", err)
		return
	}
	if config.Get().MetricsAddr != "" {
		go prom.ListenAndServer(config.Get().MetricsAddr, config.Get().MetricsURI)
	}

	s.CloseOnSignal()
	if err := s.ListenAndServe(config.Get().HttpListenAddr); err != nil {
		logger.Error("error in running http-server", "error", err)
	}
}

func queueConfig() queue.QueueConfig {
	return queue.QueueConfig{
		Name:              config.Get().QueueName,
		ConsumerGroup:     config.Get().QueueConsumerGroup,
		ConsumerName:      config.Get().QueueConsumerName,
		MaxRetries:        int64(config.Get().QueueMaxRetries),
		VisibilityTimeout: config.Get().QueueVisibilityTimeout,
		PollInterval:      config.Get().QueuePollInterval,
		BatchSize:         config.Get().QueueBatchSize,
		MaxLen:            config.Get().QueueMaxLen,
		EnableDLQ:         config.Get().QueueEnableDLQ,
	}
}

func argContainsEnvPath() string {
	for _, v := range os.Args {
		if strings.Contains(v, "--env=") {
			s := strings.Split(v, "=")
			if _, err := os.Stat(s[1]); err != nil {
				logger.Error("failed to open the passed env file, got error" + err.Error())
				return ""
			}
			return s[1]
		}
	}
	return ""
}

// webhookTimeout keeps notification work inside the request timeout.
func webhookTimeout() time.Duration {
	d, limit := config.Get().WebhookTimeout, config.Get().HttpRequestTimeout
	if d <= 0 || d >= limit {
		d = limit * 4 / 5
		logger.Warn("WEBHOOK_TIMEOUT must be below HTTP_REQUEST_TIMEOUT", "using", d)
	}
	return d
}
