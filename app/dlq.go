package app

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/sweater-ventures/funnel/db"
)

const dlqPurgeInterval = time.Hour

// DLQStore records terminal failures for post-hoc inspection. Delivery
// failures are keyed by (subscription_id, event_id); workflow-terminal event
// failures live in their own namespace keyed by event_id. Writes are
// secondary: errors are logged and swallowed.
type DLQStore struct {
	db        db.Querier
	retention time.Duration
}

func NewDLQStore(querier db.Querier, retention time.Duration) *DLQStore {
	return &DLQStore{db: querier, retention: retention}
}

// RecordDeliveryFailure writes or refreshes the dead-letter entry for a
// subscription that exhausted its delivery budget for an event.
func (s *DLQStore) RecordDeliveryFailure(ctx context.Context, subscriptionID pgtype.UUID, eventID string, webhookURL string, correlationID string, lastError string, statusCode int) {
	var code pgtype.Int4
	if statusCode > 0 {
		code = pgtype.Int4{Int32: int32(statusCode), Valid: true}
	}
	err := s.db.UpsertDlqEntry(ctx, db.UpsertDlqEntryParams{
		SubscriptionID: subscriptionID,
		EventID:        eventID,
		WebhookUrl:     webhookURL,
		CorrelationID:  correlationID,
		LastError:      truncateError(lastError),
		LastStatusCode: code,
		FailedAt:       PgTime(time.Now().UTC()),
	})
	if err != nil {
		log(ctx).Error("Failed to write dead-letter entry", "error", err,
			"subscription_id", UuidToString(subscriptionID), "event_id", eventID)
	}
}

// RecordEventFailure writes the workflow-terminal failure record for an event.
func (s *DLQStore) RecordEventFailure(ctx context.Context, eventID string, reason string, correlationID string) {
	err := s.db.InsertEventFailure(ctx, db.InsertEventFailureParams{
		EventID:       eventID,
		Reason:        truncateError(reason),
		CorrelationID: correlationID,
		FailedAt:      PgTime(time.Now().UTC()),
	})
	if err != nil {
		log(ctx).Error("Failed to write event failure record", "error", err, "event_id", eventID)
	}
}

// ListEntries returns delivery dead-letter entries within the retention
// window, newest first.
func (s *DLQStore) ListEntries(ctx context.Context, limit int32) ([]db.DlqEntry, error) {
	cutoff := time.Now().UTC().Add(-s.retention)
	entries, err := s.db.ListDlqEntries(ctx, db.ListDlqEntriesParams{
		FailedAt: PgTime(cutoff),
		Limit:    limit,
	})
	if err != nil {
		return nil, WrapError(KindTransientStore, "DLQ_READ_FAILED", "could not read dead-letter entries", err)
	}
	return entries, nil
}

// ListEventFailures returns workflow-terminal event failures within retention.
func (s *DLQStore) ListEventFailures(ctx context.Context, limit int32) ([]db.EventFailure, error) {
	cutoff := time.Now().UTC().Add(-s.retention)
	failures, err := s.db.ListEventFailures(ctx, db.ListEventFailuresParams{
		FailedAt: PgTime(cutoff),
		Limit:    limit,
	})
	if err != nil {
		return nil, WrapError(KindTransientStore, "DLQ_READ_FAILED", "could not read event failures", err)
	}
	return failures, nil
}

// Purge deletes entries past retention from both namespaces.
func (s *DLQStore) Purge(ctx context.Context) {
	cutoff := PgTime(time.Now().UTC().Add(-s.retention))

	removed, err := s.db.PurgeDlqEntries(ctx, cutoff)
	if err != nil {
		log(ctx).Error("Failed to purge dead-letter entries", "error", err)
	} else if removed > 0 {
		log(ctx).Info("Purged expired dead-letter entries", "removed", removed)
	}

	removed, err = s.db.PurgeEventFailures(ctx, cutoff)
	if err != nil {
		log(ctx).Error("Failed to purge event failure records", "error", err)
	} else if removed > 0 {
		log(ctx).Info("Purged expired event failure records", "removed", removed)
	}
}

// StartPurger runs Purge hourly until the context is cancelled.
func (s *DLQStore) StartPurger(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(dlqPurgeInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Purge(ctx)
			}
		}
	}()
}

// truncateError bounds stored error text so a pathological response body
// cannot bloat the table.
func truncateError(msg string) string {
	const maxLen = 512
	if len(msg) > maxLen {
		return msg[:maxLen]
	}
	return msg
}
