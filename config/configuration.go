package config

import (
	"log/slog"
	"strings"

	"github.com/alexflint/go-arg"
	"github.com/joho/godotenv"
)

type AppConfig struct {
	DevMode    bool   `arg:"--dev,env:DEV_MODE" default:"false"`
	Port       int    `arg:"-p,--port,env:LISTEN_PORT" default:"8010"`
	LogLevel   string `arg:"--log-level,env:LOG_LEVEL" default:"default" help:"Log level to use.  Valid values are: debug, info, and warn/warning.  If default the level will be info or debug in dev mode."`
	DBHost     string `arg:"--db-host,env:DB_HOST" default:"localhost"`
	DBName     string `arg:"--db-name,env:DB_NAME" default:"funnel"`
	DBPort     int    `arg:"--db-port,env:DB_PORT" default:"5432"`
	DBMaxConns int    `arg:"--db-max-conns,env:DB_MAX_CONNS" default:"10"`
	DBMinConns int    `arg:"--db-min-conns,env:DB_MIN_CONNS" default:"1"`
	DBSSLMode  string `arg:"--db-ssl-mode,env:DB_SSL_MODE" default:"disable"`
	DBUsername string `arg:"--db-username,env:DB_USERNAME" default:"funnel"`
	DBPassword string `arg:"--db-password,env:DB_PASSWORD" default:"badpassword"`

	// Ingress authentication and outbound signing.
	IngestTokens  []string `arg:"--ingest-token,env:INGEST_TOKENS" help:"Bearer tokens accepted on POST /events. Repeatable flag, comma-separated in env."`
	SigningSecret string   `arg:"--signing-secret,env:SIGNING_SECRET" default:"" help:"HMAC-SHA256 secret for outbound payload signing and inbound subscribe verification. Empty disables signing."`

	// Webhook URL policy.
	AllowedHosts []string `arg:"--allowed-host,env:ALLOWED_HOSTS" help:"Hostnames allowed for webhook endpoint URLs. Repeatable flag, comma-separated in env."`

	// Durable queue tuning.
	QueueBatchSize         int `arg:"--queue-batch-size,env:QUEUE_BATCH_SIZE" default:"100"`
	QueuePollIntervalMS    int `arg:"--queue-poll-interval-ms,env:QUEUE_POLL_INTERVAL_MS" default:"250"`
	QueueVisibilitySeconds int `arg:"--queue-visibility-seconds,env:QUEUE_VISIBILITY_SECONDS" default:"60"`
	QueueRetryBudget       int `arg:"--queue-retry-budget,env:QUEUE_RETRY_BUDGET" default:"5"`

	// Fan-out tuning.
	FanoutMaxWorkers     int `arg:"--fanout-max-workers,env:FANOUT_MAX_WORKERS" default:"8"`
	DeliveryAttempts     int `arg:"--delivery-attempts,env:DELIVERY_ATTEMPTS" default:"4"`
	DeliveryTimeoutSecs  int `arg:"--delivery-timeout-seconds,env:DELIVERY_TIMEOUT_SECONDS" default:"5"`

	// Rate limits (per client IP, per node).
	SubscribeRateLimit int `arg:"--subscribe-rate-limit,env:SUBSCRIBE_RATE_LIMIT" default:"100" help:"Subscription registrations allowed per client IP per hour."`
	SampleRateLimit    int `arg:"--sample-rate-limit,env:SAMPLE_RATE_LIMIT" default:"60" help:"Sample requests allowed per client IP per hour."`

	// Dead-letter retention.
	DLQRetentionDays int `arg:"--dlq-retention-days,env:DLQ_RETENTION_DAYS" default:"7"`
}

func LoadConfig() (*AppConfig, error) {
	var appConfig AppConfig
	arg.MustParse(&appConfig)

	if appConfig.DevMode {
		err := godotenv.Load(".env")
		if err == nil {
			// re-parse to get env vars from .env
			slog.Info("Loaded .env")
			arg.MustParse(&appConfig)
		}
	}

	if appConfig.LogLevel == "default" {
		if appConfig.DevMode {
			logLevel.Set(slog.LevelDebug)
		} else {
			logLevel.Set(slog.LevelInfo)
		}
	} else {
		intendedLevel := strings.ToLower(appConfig.LogLevel)
		switch intendedLevel {
		case "debug":
			logLevel.Set(slog.LevelDebug)
		case "info":
			logLevel.Set(slog.LevelInfo)
		case "warn", "warning":
			logLevel.Set(slog.LevelWarn)
		default:
			slog.Error("Unable to configure log level", "level", appConfig.LogLevel)
		}
	}

	return &appConfig, nil
}
