package testutil

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/sweater-ventures/funnel/app"
	"github.com/sweater-ventures/funnel/config"
	"github.com/sweater-ventures/funnel/db"
)

// NewUUID returns a pgtype.UUID with a new time-ordered UUID.
func NewUUID() pgtype.UUID {
	return pgtype.UUID{Bytes: uuid.Must(uuid.NewV7()), Valid: true}
}

// NewTimestamp returns a pgtype.Timestamptz set to now.
func NewTimestamp() pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: time.Now().UTC(), Valid: true}
}

// EventOpt is a functional option for building test Events.
type EventOpt func(*db.Event)

// NewEvent creates a db.Event with sensible defaults. Use options to override.
func NewEvent(opts ...EventOpt) db.Event {
	e := db.Event{
		EventID:    uuid.Must(uuid.NewV7()).String(),
		EventType:  "test_event",
		Timestamp:  NewTimestamp(),
		Payload:    json.RawMessage(`{"key":"value"}`),
		Metadata:   json.RawMessage(`{}`),
		Status:     "pending",
		RetryCount: 0,
		CreatedAt:  NewTimestamp(),
		UpdatedAt:  NewTimestamp(),
	}
	for _, opt := range opts {
		opt(&e)
	}
	return e
}

// SubscriptionOpt is a functional option for building test subscriptions.
type SubscriptionOpt func(*db.WebhookSubscription)

// NewSubscription creates a db.WebhookSubscription with sensible defaults.
func NewSubscription(opts ...SubscriptionOpt) db.WebhookSubscription {
	s := db.WebhookSubscription{
		ID:        NewUUID(),
		Url:       "https://hooks.example.com/hooks/test",
		Status:    "active",
		CreatedAt: NewTimestamp(),
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// EnvelopeOpt is a functional option for building test envelopes.
type EnvelopeOpt func(*app.Envelope)

// NewEnvelope creates a schema-valid app.Envelope. Use options to override.
func NewEnvelope(opts ...EnvelopeOpt) app.Envelope {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	e := app.Envelope{
		EventID:   uuid.Must(uuid.NewV7()).String(),
		EventType: "test_event",
		Timestamp: now,
		Payload: map[string]json.RawMessage{
			"key": json.RawMessage(`"value"`),
		},
		Metadata:  map[string]string{"correlation_id": uuid.Must(uuid.NewV7()).String()},
		CreatedAt: now,
	}
	for _, opt := range opts {
		opt(&e)
	}
	return e
}

// QueueMessageOpt is a functional option for building test queue messages.
type QueueMessageOpt func(*db.QueueMessage)

// NewQueueMessage creates a db.QueueMessage carrying the given envelope.
func NewQueueMessage(env app.Envelope, opts ...QueueMessageOpt) db.QueueMessage {
	payload, _ := env.Marshal()
	m := db.QueueMessage{
		ID:            NewUUID(),
		EventID:       env.EventID,
		CorrelationID: env.Metadata["correlation_id"],
		Envelope:      payload,
		Attempts:      1,
		Step:          "",
		VisibleAt:     NewTimestamp(),
		EnqueuedAt:    NewTimestamp(),
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

// ConfigOpt mutates the test configuration before the Application is built.
type ConfigOpt func(*config.AppConfig)

// NewTestApp builds an app.Application backed by the given querier with test
// defaults: short timeouts, localhost-friendly policy, no signing secret.
func NewTestApp(querier db.Querier, opts ...ConfigOpt) *app.Application {
	cfg := config.AppConfig{
		Port:                   8010,
		QueueBatchSize:         100,
		QueuePollIntervalMS:    10,
		QueueVisibilitySeconds: 60,
		QueueRetryBudget:       5,
		FanoutMaxWorkers:       4,
		DeliveryAttempts:       4,
		DeliveryTimeoutSecs:    2,
		SubscribeRateLimit:     100,
		SampleRateLimit:        60,
		DLQRetentionDays:       7,
		AllowedHosts:           []string{"hooks.example.com"},
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	validator, err := app.NewSchemaValidator()
	if err != nil {
		panic(err)
	}
	tokens, err := app.NewTokenStore(cfg.IngestTokens)
	if err != nil {
		panic(err)
	}

	retention := time.Duration(cfg.DLQRetentionDays) * 24 * time.Hour
	return &app.Application{
		Config:           cfg,
		DB:               querier,
		Bus:              app.NewLifecycleBus(),
		Tokens:           tokens,
		Validator:        validator,
		Metrics:          app.NewMetricsStore(querier),
		DLQ:              app.NewDLQStore(querier, retention),
		Subscriptions:    app.NewSubscriptionCache(querier),
		SubscribeLimiter: app.NewRateLimiter(cfg.SubscribeRateLimit),
		SampleLimiter:    app.NewRateLimiter(cfg.SampleRateLimit),
		HTTPClient:       &http.Client{},
		StartedAt:        time.Now().UTC(),
	}
}
