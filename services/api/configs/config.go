package configs

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/nimeshabuddhika/garmentix-payments/pkg/utils"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Config holds application configuration for the payments API.
type Config struct {
	Port               string        `mapstructure:"PORT" validate:"required"`
	PrimaryDbAddr      string        `mapstructure:"PRIMARY_DB_ADDR" validate:"required"`
	ReadDbAddr         string        `mapstructure:"READ_DB_ADDR"`
	MaxDbCons          int32         `mapstructure:"MAX_DB_CONNECTIONS" validate:"min=1"`
	MinDbCons          int32         `mapstructure:"MIN_DB_CONNECTIONS" validate:"min=1"`
	RedisAddr          string        `mapstructure:"REDIS_ADDR" validate:"required"`
	RedisPassword      string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB            int           `mapstructure:"REDIS_DB" validate:"min=0"`
	KafkaBrokers       string        `mapstructure:"KAFKA_BROKERS" validate:"required"`
	KafkaPaymentTopic  string        `mapstructure:"KAFKA_PAYMENT_TOPIC" validate:"required"`
	KafkaPartition     int           `mapstructure:"KAFKA_PARTITION" validate:"min=1"`
	KafkaRetry         int           `mapstructure:"KAFKA_RETRY" validate:"min=0"`
	KafkaRetention     time.Duration `mapstructure:"KAFKA_RETENTION" validate:"required"`
	StripeSecretKey    string        `mapstructure:"STRIPE_SECRET_KEY" validate:"required"`
	StripeAPIURL       string        `mapstructure:"STRIPE_API_URL" validate:"omitempty,url"`
	Currency           string        `mapstructure:"CURRENCY" validate:"required,len=3"`
	SiteURL            string        `mapstructure:"SITE_URL" validate:"required,url"`
	FirebaseProjectID  string        `mapstructure:"FIREBASE_PROJECT_ID" validate:"required"`
	FirebaseCertsURL   string        `mapstructure:"FIREBASE_CERTS_URL" validate:"omitempty,url"`
	HTTPClientTimeout  time.Duration `mapstructure:"HTTP_CLIENT_TIMEOUT" validate:"required"`
	CheckoutRateLimit  int           `mapstructure:"CHECKOUT_RATE_LIMIT" validate:"min=0"`  // requests/sec per replica, 0 disables
	CheckoutBurst      int           `mapstructure:"CHECKOUT_BURST" validate:"min=0"`
	CheckoutIPLimit    int64         `mapstructure:"CHECKOUT_IP_LIMIT" validate:"min=0"` // per client IP per window across replicas
	CheckoutIPWindow   time.Duration `mapstructure:"CHECKOUT_IP_WINDOW" validate:"required"`
	OutboxPollInterval time.Duration `mapstructure:"OUTBOX_POLL_INTERVAL" validate:"required"`
	OutboxBatchSize    int           `mapstructure:"OUTBOX_BATCH_SIZE" validate:"min=1"`
	OutboxMaxBackoff   time.Duration `mapstructure:"OUTBOX_MAX_BACKOFF" validate:"required"`
	ShutdownTimeout    time.Duration `mapstructure:"SHUTDOWN_TIMEOUT" validate:"required"`
}

func Load(logger *zap.Logger) (*Config, error) {
	viper.SetEnvPrefix("app") // Prefix for env vars
	viper.AutomaticEnv()

	// Default values
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("MAX_DB_CONNECTIONS", "10")
	viper.SetDefault("MIN_DB_CONNECTIONS", "2")
	viper.SetDefault("REDIS_DB", "0")
	viper.SetDefault("KAFKA_PAYMENT_TOPIC", "payments.recorded")
	viper.SetDefault("KAFKA_PARTITION", "3")
	viper.SetDefault("KAFKA_RETRY", "3")
	viper.SetDefault("KAFKA_RETENTION", "168h")
	viper.SetDefault("CURRENCY", "usd")
	viper.SetDefault("HTTP_CLIENT_TIMEOUT", "10s")
	viper.SetDefault("CHECKOUT_RATE_LIMIT", "20")
	viper.SetDefault("CHECKOUT_BURST", "40")
	viper.SetDefault("CHECKOUT_IP_LIMIT", "30")
	viper.SetDefault("CHECKOUT_IP_WINDOW", "1m")
	viper.SetDefault("OUTBOX_POLL_INTERVAL", "1s")
	viper.SetDefault("OUTBOX_BATCH_SIZE", "50")
	viper.SetDefault("OUTBOX_MAX_BACKOFF", "30s")
	viper.SetDefault("SHUTDOWN_TIMEOUT", "10s")

	// Optional: Read from config.yaml if exists
	if gin.ReleaseMode == gin.Mode() {
		viper.SetConfigName("config.prod")
	} else if gin.TestMode == gin.Mode() {
		logger.Warn("running_in_test_mode")
		viper.SetConfigName("config.test")
	} else {
		logger.Warn("running_in_development_mode")
		viper.SetConfigName("config.dev")
	}
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./services/api/configs")
	_ = viper.ReadInConfig() // Ignore if no file

	var cfg Config
	if err := utils.ParseStructEnv(&cfg); err != nil {
		return nil, err
	}

	// Validate after unmarshal
	validate := validator.New()
	if err := validate.Struct(&cfg); err != nil {
		return nil, utils.FormatConfigErrors(logger, err, cfg)
	}
	return &cfg, nil
}
