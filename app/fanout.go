package app

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/sweater-ventures/funnel/db"
)

const deliveryUserAgent = "funnel/1.0"

// deliveryOutcome tracks the terminal result of delivering one event to one
// subscription.
type deliveryOutcome struct {
	succeeded  bool
	attempts   int
	lastError  string
	statusCode int
}

// Fanout delivers an event to every deliverable subscription (active or
// failing) using a bounded worker pool. Per-subscription failures are
// recorded on the subscription row and in the dead-letter log; they never
// fail the event. Only an inability to enumerate subscriptions is returned
// as an error.
func Fanout(ctx context.Context, funnel *Application, env Envelope, correlationID string) error {
	subscriptions, err := funnel.Subscriptions.Deliverable(ctx)
	if err != nil {
		return err
	}

	if len(subscriptions) == 0 {
		log(ctx).Debug("No deliverable subscriptions for event", "event_id", env.EventID)
		return nil
	}

	body, err := env.Marshal()
	if err != nil {
		return WrapError(KindInternal, "ENVELOPE_ENCODE_FAILED", "envelope could not be serialized", err)
	}

	workers := min(len(subscriptions), funnel.Config.FanoutMaxWorkers)
	tasks := make(chan db.WebhookSubscription)

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for sub := range tasks {
				deliverToSubscription(ctx, funnel, sub, env, body, correlationID)
			}
		}()
	}

	for _, sub := range subscriptions {
		tasks <- sub
	}
	close(tasks)
	wg.Wait()

	return nil
}

// deliverToSubscription runs the full per-subscription delivery: schema
// validation, signing, timed POST, bounded retry with backoff, and terminal
// bookkeeping.
func deliverToSubscription(ctx context.Context, funnel *Application, sub db.WebhookSubscription, env Envelope, body []byte, correlationID string) {
	logger := log(ctx).With(
		"event_id", env.EventID,
		"subscription_id", UuidToString(sub.ID),
		"endpoint_url", sub.Url,
	)

	// Pre-delivery validation. A failure here is our fault, not the
	// subscriber's: record it without touching subscription status.
	if err := funnel.Validator.ValidateEnvelope(env); err != nil {
		logger.Error("Outbound payload failed schema validation", "error", err)
		if dbErr := funnel.DB.SetSubscriptionError(ctx, db.SetSubscriptionErrorParams{
			LastError: PgText(truncateError(err.Error())),
			ID:        sub.ID,
		}); dbErr != nil {
			logger.Error("Failed to record validation error on subscription", "error", dbErr)
		}
		funnel.Metrics.Inc(ctx, MetricWebhookFailed)
		return
	}

	outcome := attemptDelivery(ctx, funnel, sub, env, body, correlationID, logger)

	if outcome.succeeded {
		if _, err := funnel.DB.MarkSubscriptionDelivered(ctx, db.MarkSubscriptionDeliveredParams{
			LastTestedAt: PgTime(time.Now().UTC()),
			ID:           sub.ID,
		}); err != nil {
			logger.Error("Failed to mark subscription delivered", "error", err)
		}
		funnel.Metrics.Inc(ctx, MetricWebhookDelivered)
		logger.Info("Delivery succeeded", "status_code", outcome.statusCode, "attempts", outcome.attempts)
		return
	}

	if ctx.Err() != nil {
		// Shutdown mid-delivery: no terminal bookkeeping, the event stays
		// retryable at the workflow level.
		logger.Warn("Delivery abandoned on shutdown", "attempts", outcome.attempts)
		return
	}

	if _, err := funnel.DB.MarkSubscriptionFailing(ctx, db.MarkSubscriptionFailingParams{
		LastError: PgText(truncateError(outcome.lastError)),
		ID:        sub.ID,
	}); err != nil {
		logger.Error("Failed to mark subscription failing", "error", err)
	}
	funnel.DLQ.RecordDeliveryFailure(ctx, sub.ID, env.EventID, sub.Url, correlationID, outcome.lastError, outcome.statusCode)
	funnel.Metrics.Inc(ctx, MetricWebhookFailed)
	logger.Warn("Delivery budget exhausted",
		"attempts", outcome.attempts,
		"last_error", outcome.lastError,
	)
}

// attemptDelivery runs the bounded retry loop for one subscription. Backoff
// before attempts 2..n doubles from 2s; a numeric Retry-After on a 429 is
// added on top of the backoff.
func attemptDelivery(ctx context.Context, funnel *Application, sub db.WebhookSubscription, env Envelope, body []byte, correlationID string, logger *slog.Logger) deliveryOutcome {
	outcome := deliveryOutcome{}
	var retryAfter time.Duration

	for attempt := 1; attempt <= funnel.Config.DeliveryAttempts; attempt++ {
		if attempt > 1 {
			delay := time.Duration(1<<(attempt-1)) * time.Second
			delay += retryAfter
			logger.Info("Scheduling delivery retry",
				"attempt", attempt,
				"delay_seconds", delay.Seconds(),
			)
			select {
			case <-ctx.Done():
				return outcome
			case <-time.After(delay):
			}
		}

		outcome.attempts = attempt
		statusCode, nextRetryAfter, errMsg := postEvent(ctx, funnel, sub, env, body, correlationID, attempt)
		retryAfter = nextRetryAfter

		attemptStatus := "failed"
		if statusCode >= 200 && statusCode < 300 {
			attemptStatus = "succeeded"
		}
		funnel.Bus.Publish(BusMessage{
			Type:               BusMessageDeliveryAttempt,
			EventID:            env.EventID,
			EventType:          env.EventType,
			Endpoint:           sub.Url,
			AttemptStatus:      attemptStatus,
			ResponseStatusCode: statusCode,
		})

		if attemptStatus == "succeeded" {
			outcome.succeeded = true
			outcome.statusCode = statusCode
			return outcome
		}

		outcome.statusCode = statusCode
		outcome.lastError = errMsg
		logger.Warn("Delivery attempt failed",
			"attempt", attempt,
			"status_code", statusCode,
			"error", errMsg,
		)

		if ctx.Err() != nil {
			return outcome
		}
	}
	return outcome
}

// postEvent performs a single outbound POST with the per-attempt timeout.
// Returns the response status code (0 on transport error), the parsed
// Retry-After duration for 429 responses, and an error description for
// anything other than a 2xx.
func postEvent(ctx context.Context, funnel *Application, sub db.WebhookSubscription, env Envelope, body []byte, correlationID string, attempt int) (int, time.Duration, string) {
	timeout := time.Duration(funnel.Config.DeliveryTimeoutSecs) * time.Second
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, sub.Url, bytes.NewReader(body))
	if err != nil {
		return 0, 0, fmt.Sprintf("request creation failed: %v", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", deliveryUserAgent)
	req.Header.Set("X-Event-ID", env.EventID)
	req.Header.Set("X-Correlation-ID", correlationID)
	req.Header.Set("X-Attempt", strconv.Itoa(attempt))
	if funnel.Config.SigningSecret != "" {
		req.Header.Set(SignatureHeader, SignatureHeaderValue(body, funnel.Config.SigningSecret))
	}

	resp, err := funnel.HTTPClient.Do(req)
	if err != nil {
		return 0, 0, fmt.Sprintf("request failed: %v", err)
	}
	defer resp.Body.Close()

	// Drain so the connection can be reused; cap reads against hostile bodies.
	io.Copy(io.Discard, io.LimitReader(resp.Body, 1024*1024))

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp.StatusCode, 0, ""
	}

	var retryAfter time.Duration
	if resp.StatusCode == http.StatusTooManyRequests {
		if seconds, parseErr := strconv.Atoi(resp.Header.Get("Retry-After")); parseErr == nil && seconds > 0 {
			retryAfter = time.Duration(seconds) * time.Second
		}
	}

	return resp.StatusCode, retryAfter, fmt.Sprintf("HTTP %d", resp.StatusCode)
}
