package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/fjod/go_shop/internal/cart"
	"github.com/fjod/go_shop/internal/cart/cache"
	cartrepo "github.com/fjod/go_shop/internal/cart/repository"
	"github.com/fjod/go_shop/internal/checkout"
	shophttp "github.com/fjod/go_shop/internal/http"
	"github.com/fjod/go_shop/internal/payment"
	"github.com/fjod/go_shop/internal/pricing"
	"github.com/fjod/go_shop/internal/publisher"
	"github.com/fjod/go_shop/internal/repository"
)

type Config struct {
	HTTPPort string

	PostgresHost     string
	PostgresPort     int
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	MigrationsPath   string

	MongoURI  string
	MongoDB   string
	RedisAddr string

	KafkaBrokers []string

	GatewayBaseURL string
	GatewayAPIKey  string
	WebhookSecret  string
	GatewayTimeout time.Duration

	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

func loadConfig() *Config {
	return &Config{
		HTTPPort: getEnv("HTTP_PORT", "8080"),

		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnvInt("POSTGRES_PORT", 5432),
		PostgresUser:     getEnv("POSTGRES_USER", "postgres"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "postgres"),
		PostgresDB:       getEnv("POSTGRES_DB", "shop"),
		MigrationsPath:   getEnv("MIGRATIONS_PATH", "internal/repository/migrations"),

		MongoURI:  getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:   getEnv("MONGO_DB", "shop"),
		RedisAddr: getEnv("REDIS_ADDR", "localhost:6379"),

		KafkaBrokers: strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),

		GatewayBaseURL: getEnv("PAYMENT_GATEWAY_URL", "http://localhost:9090"),
		GatewayAPIKey:  getEnv("PAYMENT_GATEWAY_API_KEY", ""),
		WebhookSecret:  getEnv("PAYMENT_WEBHOOK_SECRET", ""),
		GatewayTimeout: 10 * time.Second,

		RequestTimeout:  30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func main() {
	cfg := loadConfig()

	if cfg.WebhookSecret == "" {
		log.Fatal("PAYMENT_WEBHOOK_SECRET must be set")
	}

	cred := &repository.Credentials{
		Host:              cfg.PostgresHost,
		Port:              cfg.PostgresPort,
		User:              cfg.PostgresUser,
		Password:          cfg.PostgresPassword,
		DBName:            cfg.PostgresDB,
		MigrationsDirPath: cfg.MigrationsPath,
	}

	repo, err := repository.NewRepository(cred)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer repo.Close()

	if err := repo.RunMigrations(cred); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	mongoClient, err := cartrepo.NewMongoClient(ctx, cfg.MongoURI)
	cancel()
	if err != nil {
		log.Fatalf("failed to connect to mongo: %v", err)
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			log.Printf("mongo disconnect: %v", err)
		}
	}()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer redisClient.Close()

	cartService := cart.NewService(
		cartrepo.NewMongoRepository(mongoClient.Database(cfg.MongoDB)),
		cache.NewRedisCache(redisClient),
	)

	gateway := payment.NewHTTPGateway(cfg.GatewayBaseURL, cfg.GatewayAPIKey, cfg.GatewayTimeout)
	verifier := pricing.NewVerifier(repo)
	notifier := publisher.NewNotifier(cfg.KafkaBrokers...)
	checkoutService := checkout.NewService(repo, gateway, verifier, notifier)

	router := shophttp.NewRouter(shophttp.RouterDeps{
		Checkout:       checkoutService,
		Webhook:        shophttp.NewWebhookHandler(cfg.WebhookSecret, checkoutService),
		Orders:         repo,
		Catalog:        repo,
		Cart:           cartService,
		Admin:          repo,
		Roles:          repo,
		RequestTimeout: cfg.RequestTimeout,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(router, "shop"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("shop server starting on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}
}
