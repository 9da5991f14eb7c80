package config

import (
	"time"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"github.com/nimasrn/invite-gateway/pkg/logger"
	"github.com/pkg/errors"
)

var config *Config

// Config is the only place configuration is read into. Packages below cmd/
// receive the values they need through constructors and never call Get.
type Config struct {
	AppEnv  string `env:"APP_ENV,default=dev"`
	AppName string `env:"APP_NAME,default=invite_gateway"`

	HttpListenAddr     string        `env:"HTTP_LISTEN_ADDR,default=:8080"`
	HttpRequestTimeout time.Duration `env:"HTTP_REQUEST_TIMEOUT,default=15s"`
	HttpCorsOrigin     string        `env:"HTTP_CORS_ORIGIN,default=*"`
	WebhookTimeout     time.Duration `env:"WEBHOOK_TIMEOUT,default=12s"`

	PostgresReadHost     string `env:"POSTGRES_READ_HOST,default=localhost"`
	PostgresReadPort     string `env:"POSTGRES_READ_PORT,default=5432"`
	PostgresReadUser     string `env:"POSTGRES_READ_USER,default=postgres"`
	PostgresReadPassword string `env:"POSTGRES_READ_PASSWORD"`
	PostgresReadDatabase string `env:"POSTGRES_READ_DBNAME,default=invites"`

	PostgresWriteHost     string `env:"POSTGRES_WRITE_HOST,default=localhost"`
	PostgresWritePort     string `env:"POSTGRES_WRITE_PORT,default=5432"`
	PostgresWriteUser     string `env:"POSTGRES_WRITE_USER,default=postgres"`
	PostgresWritePassword string `env:"POSTGRES_WRITE_PASSWORD"`
	PostgresWriteDatabase string `env:"POSTGRES_WRITE_DBNAME,default=invites"`
	PostgresSSLMode       string `env:"POSTGRES_SSLMODE,default=disable"`

	RedisAddr               string `env:"REDIS_ADDR,default=localhost:6379"`
	RedisUsername           string `env:"REDIS_USER"`
	RedisPassword           string `env:"REDIS_PASS"`
	RedisDatabase           int    `env:"REDIS_DATABASE,default=0"`
	RedisUniversalKeyPrefix string `env:"REDIS_UNIVERSAL_KEY_PREFIX,default=invite:"`

	PromNamespace string `env:"PROM_NAMESPACE,default=invite_gateway"`
	MetricsAddr   string `env:"METRICS_ADDR"`
	MetricsURI    string `env:"METRICS_URI,default=/metrics"`

	QueueName              string        `env:"QUEUE_NAME,default=vendor-sales"`
	QueueConsumerGroup     string        `env:"QUEUE_CONSUMER_GROUP,default=sales-processors"`
	QueueConsumerName      string        `env:"QUEUE_CONSUMER_NAME,default=processor-1"`
	QueueMaxRetries        int           `env:"QUEUE_MAX_RETRIES,default=3"`
	QueueVisibilityTimeout time.Duration `env:"QUEUE_VISIBILITY_TIMEOUT,default=30s"`
	QueuePollInterval      time.Duration `env:"QUEUE_POLL_INTERVAL,default=500ms"`
	QueueBatchSize         int64         `env:"QUEUE_BATCH_SIZE,default=50"`
	QueueMaxLen            int64         `env:"QUEUE_MAX_LEN,default=100000"`
	QueueEnableDLQ         bool          `env:"QUEUE_ENABLE_DLQ,default=true"`
	QueueWorkers           int           `env:"QUEUE_WORKERS,default=4"`
	QueueConsumers         int           `env:"QUEUE_CONSUMERS,default=2"`

	PaymentGatewayBaseURL     string        `env:"PAYMENT_GATEWAY_BASE_URL,default=https://api.mercadopago.com"`
	PaymentGatewayAccessToken string        `env:"PAYMENT_GATEWAY_ACCESS_TOKEN"`
	PaymentGatewayTimeout     time.Duration `env:"PAYMENT_GATEWAY_TIMEOUT,default=10s"`
	PaymentGatewayCBThreshold int           `env:"PAYMENT_GATEWAY_CB_THRESHOLD,default=5"`
	PaymentGatewayCBTimeout   time.Duration `env:"PAYMENT_GATEWAY_CB_TIMEOUT,default=30s"`

	PaymentCreatePreference bool   `env:"PAYMENT_CREATE_PREFERENCE,default=false"`
	FrontendURL             string `env:"FRONTEND_URL"`
	NotificationURL         string `env:"NOTIFICATION_URL"`
	StatementDescriptor     string `env:"STATEMENT_DESCRIPTOR,default=CONVITES"`

	VendorSalesAsync bool `env:"VENDOR_SALES_ASYNC,default=false"`

	SweepInterval time.Duration `env:"SWEEP_INTERVAL,default=5m"`
	SweepMinAge   time.Duration `env:"SWEEP_MIN_AGE,default=10m"`
	SweepBatch    int           `env:"SWEEP_BATCH,default=100"`

	AmqpURL   string `env:"AMQP_URL"`
	AmqpQueue string `env:"AMQP_QUEUE,default=purchase.approved"`
}

func Load(path string) error {
	logger.Info("loading configs..", "path", path)
	c := &Config{}
	if path != "" {
		logger.Info("loading env file", "path", path)
		if err := godotenv.Load(path); err != nil {
			return errors.Wrapf(err, "failed to load configuration file %s", path)
		}
	}

	if _, err := env.UnmarshalFromEnviron(c); err != nil {
		return errors.Wrap(err, "failed to map env variables to Config")
	}

	config = c
	return nil
}

func Get() *Config {
	if config == nil {
		logger.Panic("Config is not initialized")
	}
	return config
}
