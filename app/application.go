package app

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sweater-ventures/funnel/config"
	"github.com/sweater-ventures/funnel/db"
)

type Application struct {
	Config           config.AppConfig
	DB               db.Querier
	Bus              *LifecycleBus
	Tokens           *TokenStore
	Validator        *SchemaValidator
	Metrics          *MetricsStore
	DLQ              *DLQStore
	Subscriptions    *SubscriptionCache
	SubscribeLimiter *RateLimiter
	SampleLimiter    *RateLimiter
	HTTPClient       *http.Client
	StartedAt        time.Time
	dbconn           *pgxpool.Pool
	stopQueue        func()
}

func NewApp(config *config.AppConfig) (*Application, error) {
	conn, err := connectToDB(config)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		return nil, err
	}
	queries := db.New(conn)

	tokens, err := NewTokenStore(config.IngestTokens)
	if err != nil {
		return nil, err
	}

	validator, err := NewSchemaValidator()
	if err != nil {
		return nil, err
	}

	retention := time.Duration(config.DLQRetentionDays) * 24 * time.Hour

	return &Application{
		Config:           *config,
		DB:               queries,
		Bus:              NewLifecycleBus(),
		Tokens:           tokens,
		Validator:        validator,
		Metrics:          NewMetricsStore(queries),
		DLQ:              NewDLQStore(queries, retention),
		Subscriptions:    NewSubscriptionCache(queries),
		SubscribeLimiter: NewRateLimiter(config.SubscribeRateLimit),
		SampleLimiter:    NewRateLimiter(config.SampleRateLimit),
		HTTPClient:       &http.Client{},
		StartedAt:        time.Now().UTC(),
		dbconn:           conn,
		stopQueue:        func() {},
	}, nil
}

func (funnel *Application) SetStopQueue(fn func()) {
	funnel.stopQueue = fn
}

func (funnel *Application) StopQueue() {
	funnel.stopQueue()
}

// DLQRetention exposes the configured dead-letter retention window.
func (funnel *Application) DLQRetention() time.Duration {
	return time.Duration(funnel.Config.DLQRetentionDays) * 24 * time.Hour
}
