package api

import (
	"net/http"
	"time"

	"github.com/sweater-ventures/funnel/app"
	"github.com/sweater-ventures/funnel/db"
)

func init() {
	registerRoute(func(funnel *app.Application, router *http.ServeMux) {
		router.Handle("GET /metrics", routeHandler(funnel, metricsHandler))
		router.Handle("GET /dlq", routeHandler(funnel, dlqHandler))
	})
}

type DLQEntryResponse struct {
	SubscriptionID string    `json:"subscription_id"`
	EventID        string    `json:"event_id"`
	WebhookURL     string    `json:"webhook_url"`
	CorrelationID  string    `json:"correlation_id"`
	LastError      string    `json:"last_error"`
	LastStatusCode *int32    `json:"last_status_code"`
	FailedAt       time.Time `json:"failed_at"`
}

type EventFailureResponse struct {
	EventID       string    `json:"event_id"`
	Reason        string    `json:"reason"`
	CorrelationID string    `json:"correlation_id"`
	FailedAt      time.Time `json:"failed_at"`
}

func metricsHandler(funnel *app.Application, w http.ResponseWriter, r *http.Request) {
	snapshot, err := funnel.Metrics.Snapshot(r.Context(), funnel.StartedAt, funnel.DLQRetention())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJsonResponse(w, http.StatusOK, snapshot)
}

func dlqHandler(funnel *app.Application, w http.ResponseWriter, r *http.Request) {
	limit := int32(queryInt(r, "limit", 100, 500))

	entries, err := funnel.DLQ.ListEntries(r.Context(), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	failures, err := funnel.DLQ.ListEventFailures(r.Context(), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}

	entryResponses := make([]DLQEntryResponse, 0, len(entries))
	for _, entry := range entries {
		entryResponses = append(entryResponses, toDLQEntryResponse(entry))
	}
	failureResponses := make([]EventFailureResponse, 0, len(failures))
	for _, failure := range failures {
		failureResponses = append(failureResponses, EventFailureResponse{
			EventID:       failure.EventID,
			Reason:        failure.Reason,
			CorrelationID: failure.CorrelationID,
			FailedAt:      failure.FailedAt.Time.UTC(),
		})
	}

	writeJsonResponse(w, http.StatusOK, map[string]any{
		"entries":        entryResponses,
		"event_failures": failureResponses,
	})
}

func toDLQEntryResponse(entry db.DlqEntry) DLQEntryResponse {
	response := DLQEntryResponse{
		SubscriptionID: app.UuidToString(entry.SubscriptionID),
		EventID:        entry.EventID,
		WebhookURL:     entry.WebhookUrl,
		CorrelationID:  entry.CorrelationID,
		LastError:      entry.LastError,
		FailedAt:       entry.FailedAt.Time.UTC(),
	}
	if entry.LastStatusCode.Valid {
		code := entry.LastStatusCode.Int32
		response.LastStatusCode = &code
	}
	return response
}
