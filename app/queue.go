package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sweater-ventures/funnel/db"
)

// Enqueue places an event envelope on the durable queue. The event row must
// already exist before this is called.
func Enqueue(ctx context.Context, funnel *Application, env Envelope, correlationID string) error {
	payload, err := env.Marshal()
	if err != nil {
		return WrapError(KindInternal, "ENVELOPE_ENCODE_FAILED", "envelope could not be serialized", err)
	}

	now := time.Now().UTC()
	_, err = funnel.DB.EnqueueMessage(ctx, db.EnqueueMessageParams{
		ID:            NewPgUUID(),
		EventID:       env.EventID,
		CorrelationID: correlationID,
		Envelope:      payload,
		VisibleAt:     PgTime(now),
		EnqueuedAt:    PgTime(now),
	})
	if err != nil {
		return WrapError(KindTransientStore, "ENQUEUE_FAILED", "could not enqueue event", err)
	}
	return nil
}

// StartQueueRunner launches the poll loop that drains the durable queue
// through the workflow. Dequeued messages become invisible for the configured
// visibility timeout; an unacknowledged message (crash, handler error past
// its delay) surfaces again automatically, which is also how interrupted
// workflows resume after a restart. Returns a stop function that blocks until
// the in-flight batch finishes.
func StartQueueRunner(funnel *Application) func() {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		defer close(done)
		interval := time.Duration(funnel.Config.QueuePollIntervalMS) * time.Millisecond
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				runQueueBatch(ctx, funnel)
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}
}

// runQueueBatch dequeues up to one batch and processes the messages
// concurrently, waiting for all of them before returning.
func runQueueBatch(ctx context.Context, funnel *Application) {
	visibility := time.Duration(funnel.Config.QueueVisibilitySeconds) * time.Second
	messages, err := funnel.DB.DequeueMessages(ctx, db.DequeueMessagesParams{
		VisibleAt: PgTime(time.Now().UTC().Add(visibility)),
		Limit:     int32(funnel.Config.QueueBatchSize),
	})
	if err != nil {
		if ctx.Err() == nil {
			log(ctx).Error("Failed to dequeue messages", "error", err)
		}
		return
	}

	if len(messages) == 0 {
		return
	}

	var wg sync.WaitGroup
	wg.Add(len(messages))
	for _, msg := range messages {
		go func(msg db.QueueMessage) {
			defer wg.Done()
			handleQueueMessage(ctx, funnel, msg)
		}(msg)
	}
	wg.Wait()
}

// handleQueueMessage runs one message through the workflow and settles it:
// ack on success or terminal failure, delayed redelivery on retryable error,
// terminal failure once the retry budget is exhausted.
func handleQueueMessage(ctx context.Context, funnel *Application, msg db.QueueMessage) {
	logger := log(ctx).With("event_id", msg.EventID, "attempt", msg.Attempts)

	if int(msg.Attempts) > funnel.Config.QueueRetryBudget {
		logger.Warn("Queue retry budget exhausted, failing event terminally")
		markEventFailed(ctx, funnel, msg.EventID,
			fmt.Sprintf("retry budget exhausted after %d attempts", msg.Attempts-1),
			msg.CorrelationID, retryCount(msg), metricsRecorded(msg))
		ackMessage(ctx, funnel, msg)
		return
	}

	err := ProcessMessage(ctx, funnel, msg)
	if err == nil {
		ackMessage(ctx, funnel, msg)
		return
	}

	if ctx.Err() != nil {
		// Shutdown: leave the message untouched, the visibility timeout
		// surfaces it again on the next start.
		return
	}

	delay := redeliveryBackoff(msg.Attempts)
	logger.Warn("Workflow failed, scheduling redelivery", "error", err, "delay_seconds", delay.Seconds())
	if delayErr := funnel.DB.DelayMessage(ctx, db.DelayMessageParams{
		VisibleAt: PgTime(time.Now().UTC().Add(delay)),
		ID:        msg.ID,
	}); delayErr != nil {
		logger.Error("Failed to delay message", "error", delayErr)
	}
}

func ackMessage(ctx context.Context, funnel *Application, msg db.QueueMessage) {
	if err := funnel.DB.AckMessage(ctx, msg.ID); err != nil {
		log(ctx).Error("Failed to ack message", "error", err, "event_id", msg.EventID)
	}
}

// redeliveryBackoff doubles from 2s per prior attempt, capped at one minute.
func redeliveryBackoff(attempts int32) time.Duration {
	if attempts < 1 {
		attempts = 1
	}
	delay := time.Duration(1<<attempts) * time.Second
	if delay > time.Minute {
		delay = time.Minute
	}
	return delay
}
