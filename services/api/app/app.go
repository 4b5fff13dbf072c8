package app

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nimeshabuddhika/garmentix-payments/pkg"
	"github.com/nimeshabuddhika/garmentix-payments/pkg/auth"
	"github.com/nimeshabuddhika/garmentix-payments/pkg/cache"
	"github.com/nimeshabuddhika/garmentix-payments/pkg/database"
	"github.com/nimeshabuddhika/garmentix-payments/pkg/gateway"
	kafkautils "github.com/nimeshabuddhika/garmentix-payments/pkg/kafka"
	middleware "github.com/nimeshabuddhika/garmentix-payments/pkg/middlewares"
	"github.com/nimeshabuddhika/garmentix-payments/pkg/outbox"
	"github.com/nimeshabuddhika/garmentix-payments/pkg/repositories"
	"github.com/nimeshabuddhika/garmentix-payments/pkg/tracking"
	"github.com/nimeshabuddhika/garmentix-payments/pkg/utils"
	"github.com/nimeshabuddhika/garmentix-payments/services/api/configs"
	_ "github.com/nimeshabuddhika/garmentix-payments/services/api/docs"
	"github.com/nimeshabuddhika/garmentix-payments/services/api/internal/handlers"
	"github.com/nimeshabuddhika/garmentix-payments/services/api/internal/services"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// App is the wired payments API: the HTTP server plus the outbox dispatcher that runs beside it.
type App struct {
	Server          *http.Server
	Dispatcher      *outbox.Dispatcher
	ShutdownTimeout time.Duration
}

// NewApp wires dependencies, builds the Gin engine, and returns the App and a cleanup func.
// It reads configuration via configs.Load.
func NewApp(ctx context.Context, logger *zap.Logger) (*App, func(), error) {
	// Load config
	cfg, err := configs.Load(logger)
	if err != nil {
		return nil, nil, err
	}

	// Initialize postgres db
	dbConfig := database.Config{
		PrimaryDSN: cfg.PrimaryDbAddr,
		ReadDSNs:   []string{cfg.ReadDbAddr},
		MaxConns:   cfg.MaxDbCons,
		MinConns:   cfg.MinDbCons,
	}
	db, disconnect, err := database.New(ctx, logger, dbConfig)
	if err != nil {
		return nil, nil, err
	}
	closers := []func(){disconnect}
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	// Run migrations on primary
	if err = database.RunMigrations(logger, cfg.PrimaryDbAddr); err != nil {
		cleanup()
		return nil, nil, err
	}

	// Redis backs the cross-replica checkout rate limit
	redisClient, closeRedis, err := cache.New(ctx, logger, cache.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	closers = append(closers, closeRedis)
	limiter := pkg.NewDistributedLimiter(redisClient, pkg.LimiterConfig{
		Prefix:      "rl:checkout",
		LocalRate:   cfg.CheckoutRateLimit,
		LocalBurst:  cfg.CheckoutBurst,
		WindowLimit: cfg.CheckoutIPLimit,
		Window:      cfg.CheckoutIPWindow,
	}, logger)

	// Kafka topic + producer for outbox events
	err = kafkautils.InitKafkaTopics(ctx, logger, kafkautils.KafkaConfig{
		BootstrapServers: cfg.KafkaBrokers,
		Topics: []kafkautils.TopicConfig{
			{
				Topic:             cfg.KafkaPaymentTopic,
				NumPartitions:     cfg.KafkaPartition,
				ReplicationFactor: 1,
				Config: map[string]string{
					"cleanup.policy": "delete",
					"retention.ms":   fmt.Sprintf("%d", cfg.KafkaRetention.Milliseconds()),
				},
			},
		},
	})
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	publisher, err := kafkautils.NewPublisher(logger, cfg.KafkaBrokers, cfg.KafkaPaymentTopic, cfg.KafkaRetry)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	closers = append(closers, publisher.Close)

	// Outbound HTTP: stripe API and google certificates
	httpClient := utils.NewHTTPClient(utils.WithClientTimeout(cfg.HTTPClientTimeout))
	stripeGateway := gateway.NewStripeGateway(logger, gateway.StripeConfig{
		SecretKey: cfg.StripeSecretKey,
		SiteURL:   strings.TrimRight(cfg.SiteURL, "/"),
		Currency:  cfg.Currency,
		APIURL:    cfg.StripeAPIURL,
	}, httpClient)
	certsURL := cfg.FirebaseCertsURL
	if utils.IsEmpty(certsURL) {
		certsURL = auth.GoogleCertsURL
	}
	verifier := auth.NewFirebaseVerifier(cfg.FirebaseProjectID, auth.NewCertSource(logger, httpClient, certsURL))

	// Setup dependencies
	orderRepo := repositories.NewOrderRepository()
	paymentRepo := repositories.NewPaymentRepository()
	outboxRepo := repositories.NewOutboxRepository()
	productRepo := repositories.NewProductRepository()
	userRepo := repositories.NewUserRepository()

	paymentService := services.NewPaymentService(logger, db, stripeGateway, tracking.NewGenerator(), orderRepo, paymentRepo, outboxRepo)
	orderService := services.NewOrderService(logger, db, orderRepo)
	productService := services.NewProductService(logger, db, productRepo)
	userService := services.NewUserService(logger, db, userRepo)

	baseHandler := handlers.NewBaseHandler(logger, db)
	paymentHandler := handlers.NewPaymentHandler(logger, paymentService)
	orderHandler := handlers.NewOrderHandler(logger, orderService)
	productHandler := handlers.NewProductHandler(logger, productService)
	userHandler := handlers.NewUserHandler(logger, userService)

	dispatcher := outbox.NewDispatcher(logger, db, outboxRepo, publisher, outbox.Config{
		PollInterval: cfg.OutboxPollInterval,
		BatchSize:    cfg.OutboxBatchSize,
		MaxBackoff:   cfg.OutboxMaxBackoff,
	})

	// Router
	r := gin.Default()

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	baseHandler.RegisterRoutes(r)

	api := r.Group("/")
	api.Use(middleware.TraceID())
	api.Use(middleware.Metrics())

	requireAuth := middleware.Auth(logger, verifier)
	paymentHandler.RegisterRoutes(api, middleware.RateLimit(logger, limiter), requireAuth)
	orderHandler.RegisterRoutes(api, requireAuth)
	productHandler.RegisterRoutes(api)
	userHandler.RegisterRoutes(api)

	addr := fmt.Sprintf(":%s", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{Server: srv, Dispatcher: dispatcher, ShutdownTimeout: cfg.ShutdownTimeout}, cleanup, nil
}

// Migrate applies pending schema migrations and exits.
func Migrate(logger *zap.Logger) error {
	cfg, err := configs.Load(logger)
	if err != nil {
		return err
	}
	return database.RunMigrations(logger, cfg.PrimaryDbAddr)
}
