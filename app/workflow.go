package app

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/sweater-ventures/funnel/db"
)

// Workflow step names, persisted on the queue message as the last completed
// step so a redelivery resumes where the previous attempt stopped.
const (
	StepValidate = "validate"
	StepStore    = "store"
	StepMetrics  = "metrics"
)

var stepOrder = map[string]int{
	"":           0,
	StepValidate: 1,
	StepStore:    2,
	StepMetrics:  3,
}

// ProcessMessage runs the event workflow for one queue message:
// validate, store, update metrics, then fan out and mark delivered.
// A nil return acknowledges the message; an error leaves it for redelivery.
// Terminal failures (invariant violations) are recorded and acknowledged.
func ProcessMessage(ctx context.Context, funnel *Application, msg db.QueueMessage) error {
	logger := log(ctx).With("event_id", msg.EventID, "correlation_id", msg.CorrelationID, "attempt", msg.Attempts)
	completed := stepOrder[msg.Step]

	env, err := UnmarshalEnvelope(msg.Envelope)
	if err != nil {
		logger.Error("Queue message envelope is unreadable", "error", err)
		markEventFailed(ctx, funnel, msg.EventID, err.Error(), msg.CorrelationID, retryCount(msg), metricsRecorded(msg))
		return nil
	}

	// Step 1: validate. Invariant violations are terminal, never retried.
	if completed < stepOrder[StepValidate] {
		if err := funnel.Validator.ValidateEnvelope(env); err != nil {
			logger.Warn("Event failed validation", "error", err)
			markEventFailed(ctx, funnel, env.EventID, err.Error(), msg.CorrelationID, retryCount(msg), metricsRecorded(msg))
			return nil
		}
		persistStep(ctx, funnel, msg.ID, StepValidate)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	// Step 2: store. Insert-or-get; retryable on store errors.
	if completed < stepOrder[StepStore] {
		now := time.Now().UTC()
		_, err := funnel.DB.UpsertEvent(ctx, db.UpsertEventParams{
			EventID:    env.EventID,
			EventType:  env.EventType,
			Timestamp:  PgTime(env.ParsedTimestamp()),
			Payload:    env.PayloadJSON(),
			Metadata:   env.MetadataJSON(),
			Status:     "pending",
			RetryCount: retryCount(msg),
			CreatedAt:  PgTime(now),
			UpdatedAt:  PgTime(now),
		})
		if err != nil {
			return WrapError(KindTransientStore, "EVENT_STORE_FAILED", "could not persist event", err)
		}
		persistStep(ctx, funnel, msg.ID, StepStore)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	// Step 3: update metrics. Secondary; failures are logged inside the
	// store and never fail the workflow.
	if completed < stepOrder[StepMetrics] {
		funnel.Metrics.Inc(ctx, MetricEventsTotal)
		funnel.Metrics.Inc(ctx, MetricEventsPending)
		funnel.Metrics.SetTime(ctx, MetricLastProcessedAt, time.Now().UTC())
		persistStep(ctx, funnel, msg.ID, StepMetrics)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	// Step 4: fan out, then mark delivered. Replays of an already-delivered
	// event are a no-op at the store and metrics layers.
	event, err := funnel.DB.GetEventByID(ctx, env.EventID)
	if err == nil && event.Status == "delivered" {
		logger.Debug("Event already delivered, skipping fan-out")
		return nil
	}

	if err := Fanout(ctx, funnel, env, msg.CorrelationID); err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	if _, err := funnel.DB.UpdateEventStatus(ctx, db.UpdateEventStatusParams{
		Status:     "delivered",
		RetryCount: retryCount(msg),
		UpdatedAt:  PgTime(time.Now().UTC()),
		EventID:    env.EventID,
	}); err != nil {
		return WrapError(KindTransientStore, "EVENT_UPDATE_FAILED", "could not mark event delivered", err)
	}

	funnel.Metrics.Dec(ctx, MetricEventsPending)
	funnel.Metrics.Inc(ctx, MetricEventsDelivered)
	funnel.Bus.Publish(BusMessage{
		Type:      BusMessageStatusChanged,
		EventID:   env.EventID,
		EventType: env.EventType,
		Status:    "delivered",
	})
	logger.Info("Event delivered")
	return nil
}

// markEventFailed transitions an event to its terminal failed state and
// records the failure in the dead-letter namespace. counted reports whether
// the metrics step already ran for this event: when it has not, the event was
// never added to events.total or events.pending, so the totals are settled
// here instead of decrementing a pending count the event never held.
func markEventFailed(ctx context.Context, funnel *Application, eventID string, reason string, correlationID string, retries int32, counted bool) {
	_, err := funnel.DB.UpdateEventStatus(ctx, db.UpdateEventStatusParams{
		Status:     "failed",
		RetryCount: retries,
		UpdatedAt:  PgTime(time.Now().UTC()),
		EventID:    eventID,
	})
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		log(ctx).Error("Failed to mark event failed", "error", err, "event_id", eventID)
	}

	funnel.DLQ.RecordEventFailure(ctx, eventID, reason, correlationID)
	if counted {
		funnel.Metrics.Dec(ctx, MetricEventsPending)
	} else {
		funnel.Metrics.Inc(ctx, MetricEventsTotal)
	}
	funnel.Metrics.Inc(ctx, MetricEventsFailed)
	funnel.Bus.Publish(BusMessage{
		Type:    BusMessageStatusChanged,
		EventID: eventID,
		Status:  "failed",
	})
}

// persistStep records the last completed workflow step on the queue message.
// A failure here only costs a re-run of an idempotent step on redelivery.
func persistStep(ctx context.Context, funnel *Application, msgID pgtype.UUID, step string) {
	err := funnel.DB.SetMessageStep(ctx, db.SetMessageStepParams{
		Step: step,
		ID:   msgID,
	})
	if err != nil {
		log(ctx).Warn("Failed to persist workflow step", "error", err, "step", step)
	}
}

// metricsRecorded reports whether the message's persisted step shows the
// metrics step completed on a prior attempt.
func metricsRecorded(msg db.QueueMessage) bool {
	return stepOrder[msg.Step] >= stepOrder[StepMetrics]
}

func retryCount(msg db.QueueMessage) int32 {
	if msg.Attempts > 0 {
		return msg.Attempts - 1
	}
	return 0
}
