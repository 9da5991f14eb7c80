package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/nimasrn/invite-gateway/internal/broker"
	"github.com/nimasrn/invite-gateway/internal/config"
	gateway "github.com/nimasrn/invite-gateway/internal/gateways"
	"github.com/nimasrn/invite-gateway/internal/processor"
	"github.com/nimasrn/invite-gateway/internal/queue"
	"github.com/nimasrn/invite-gateway/internal/repository"
	"github.com/nimasrn/invite-gateway/internal/services"
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

type publisher interface {
	processor.EventPublisher
	Close() error
}

func main() {

	err := config.Load(argContainsEnvPath())
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return
	}
	logger.Info("starting processor", "version", version, "commit", commit, "date", date)

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

	redisAdap, err := redis.NewRedisAdapter("default", config.Get().RedisUniversalKeyPrefix, &redis.Options{
		Addrs:      []string{config.Get().RedisAddr},
		ClientName: "default",
		DB:         config.Get().RedisDatabase,
		Username:   config.Get().RedisUsername,
		Password:   config.Get().RedisPassword,
	})
	if err != nil {
		logger.Error("failed connecting to redis", "error", err)
		return
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
	vendorRepo := repository.NewVendorRepository(db)

	vendorService := services.NewVendorService(vendorRepo, db)
	purchaseService := services.NewPurchaseService(purchaseRepo, client, services.PreferenceConfig{})
	// the sweep writes sales inline so it never depends on its own queue
	reconciliationService := services.NewReconciliationService(purchaseRepo, purchaseService, client, vendorService)

	var events publisher = broker.NopPublisher{}
	if config.Get().AmqpURL != "" {
		events = broker.NewRabbitPublisher(config.Get().AmqpURL, config.Get().AmqpQueue)
	}
	defer events.Close()

	// Initialize idempotency service
	idempotencyConfig := processor.DefaultIdempotencyConfig()
	idempotencyConfig.MaxRetries = config.Get().QueueMaxRetries
	idempotencyService := processor.NewIdempotencyService(redisAdap, idempotencyConfig)

	service := processor.NewProcessorService(redisAdap, processor.Options{
		Queue: queue.QueueConfig{
			Name:              config.Get().QueueName,
			ConsumerGroup:     config.Get().QueueConsumerGroup,
			ConsumerName:      config.Get().QueueConsumerName,
			MaxRetries:        int64(config.Get().QueueMaxRetries),
			VisibilityTimeout: config.Get().QueueVisibilityTimeout,
			PollInterval:      config.Get().QueuePollInterval,
			BatchSize:         config.Get().QueueBatchSize,
			MaxLen:            config.Get().QueueMaxLen,
			EnableDLQ:         config.Get().QueueEnableDLQ,
		},
		Consumers: config.Get().QueueConsumers,
		Workers:   config.Get().QueueWorkers,
	})
	service.RegisterProcessor(processor.NewSaleEventProcessor(vendorService, idempotencyService, events))

	sweeper, err := processor.NewPendingSweeper(reconciliationService, processor.SweeperConfig{
		Interval: config.Get().SweepInterval,
		MinAge:   config.Get().SweepMinAge,
		Batch:    config.Get().SweepBatch,
	})
	if err != nil {
		logger.Error("failed to create pending sweeper", "error", err)
		return
	}

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

	metricsAddr := config.Get().MetricsAddr
	if metricsAddr == "" {
		metricsAddr = ":9100"
	}
	go func() {
		prom.ListenAndServer(metricsAddr, config.Get().MetricsURI)
	}()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := service.Start(ctx); err != nil {
		logger.Error("failed to start processor", "error", err)
		return
	}
	sweeper.Start()

	<-c
	if err := sweeper.Stop(); err != nil {
		logger.Error("failed to stop sweeper", "error", err)
	}
	service.Stop()
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
