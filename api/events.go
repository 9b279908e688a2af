package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/sweater-ventures/funnel/app"
	"github.com/sweater-ventures/funnel/db"
	"github.com/sweater-ventures/funnel/middleware"
)

// Ingress bodies larger than this are rejected with 413.
const maxEventBodyBytes = 1 << 20

func init() {
	registerRoute(func(funnel *app.Application, router *http.ServeMux) {
		router.Handle("POST /events", routeHandler(funnel, createEventHandler))
		router.Handle("GET /events/{id}", routeHandler(funnel, getEventHandler))
		router.Handle("GET /inbox", routeHandler(funnel, inboxHandler))
	})
}

type IngestRequest struct {
	EventID   *string                    `json:"event_id"`
	EventType *string                    `json:"event_type"`
	Timestamp *string                    `json:"timestamp"`
	Payload   map[string]json.RawMessage `json:"payload"`
	Metadata  map[string]string          `json:"metadata"`
}

type IngestResponse struct {
	EventID   string `json:"event_id"`
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Warning   string `json:"warning,omitempty"`
}

type EventResponse struct {
	EventID    string          `json:"event_id"`
	EventType  string          `json:"event_type"`
	Timestamp  time.Time       `json:"timestamp"`
	Payload    json.RawMessage `json:"payload"`
	Metadata   json.RawMessage `json:"metadata"`
	Status     string          `json:"status"`
	RetryCount int32           `json:"retry_count"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

func createEventHandler(funnel *app.Application, w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	token, err := app.BearerToken(r.Header.Get("Authorization"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !funnel.Tokens.Validate(token) {
		writeError(w, r, app.NewError(app.KindAuth, "INVALID_TOKEN", "bearer token is not recognized"))
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxEventBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJsonResponse(w, http.StatusRequestEntityTooLarge, errorResponse{
				Error:         errorBody{Code: "BODY_TOO_LARGE", Message: "request body exceeds 1 MiB"},
				CorrelationID: middleware.CorrelationID(ctx),
			})
			return
		}
		writeError(w, r, app.WrapError(app.KindInternal, "BODY_READ_FAILED", "could not read request body", err))
		return
	}

	var req IngestRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, r, app.WrapError(app.KindValidation, "INVALID_JSON", "request body is not valid JSON", err))
		return
	}

	if req.Payload == nil {
		writeError(w, r, app.NewError(app.KindValidation, "PAYLOAD_REQUIRED", "payload object is required"))
		return
	}

	now := time.Now().UTC()
	correlationID := middleware.CorrelationID(ctx)

	env := app.Envelope{
		EventType: "event",
		Timestamp: now.Format(time.RFC3339Nano),
		Payload:   req.Payload,
		Metadata:  map[string]string{},
		CreatedAt: now.Format(time.RFC3339Nano),
	}
	if req.EventID != nil && *req.EventID != "" {
		env.EventID = *req.EventID
	} else {
		env.EventID = uuid.Must(uuid.NewV7()).String()
	}
	if req.EventType != nil && *req.EventType != "" {
		env.EventType = *req.EventType
	}
	if req.Timestamp != nil && *req.Timestamp != "" {
		env.Timestamp = *req.Timestamp
	}
	for key, value := range req.Metadata {
		env.Metadata[key] = value
	}
	if _, ok := env.Metadata["correlation_id"]; !ok {
		env.Metadata["correlation_id"] = correlationID
	}
	if _, ok := env.Metadata["source_ip"]; !ok {
		env.Metadata["source_ip"] = clientIP(r)
	}
	if _, ok := env.Metadata["user_agent"]; !ok {
		if ua := r.Header.Get("User-Agent"); ua != "" {
			env.Metadata["user_agent"] = ua
		}
	}

	// Persist before enqueue. A conflict on event_id means the event was
	// already accepted: return the existing record without a second enqueue.
	event, err := funnel.DB.InsertEvent(ctx, db.InsertEventParams{
		EventID:    env.EventID,
		EventType:  env.EventType,
		Timestamp:  app.PgTime(env.ParsedTimestamp()),
		Payload:    env.PayloadJSON(),
		Metadata:   env.MetadataJSON(),
		Status:     "pending",
		RetryCount: 0,
		CreatedAt:  app.PgTime(now),
		UpdatedAt:  app.PgTime(now),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			existing, getErr := funnel.DB.GetEventByID(ctx, env.EventID)
			if getErr != nil {
				writeError(w, r, app.WrapError(app.KindTransientStore, "EVENT_PERSIST_FAILED", "could not load existing event", getErr))
				return
			}
			log(ctx).Info("Duplicate event accepted", "event_id", env.EventID)
			writeJsonResponse(w, http.StatusOK, IngestResponse{
				EventID:   existing.EventID,
				Status:    "accepted",
				Timestamp: existing.CreatedAt.Time.UTC().Format(time.RFC3339Nano),
			})
			return
		}
		writeError(w, r, app.WrapError(app.KindTransientStore, "EVENT_PERSIST_FAILED", "could not persist event", err))
		return
	}

	funnel.Bus.Publish(app.BusMessage{
		Type:      app.BusMessageAccepted,
		EventID:   event.EventID,
		EventType: event.EventType,
		Status:    event.Status,
	})

	response := IngestResponse{
		EventID:   event.EventID,
		Status:    "accepted",
		Timestamp: now.Format(time.RFC3339Nano),
	}

	// The event row exists, so a failed enqueue is recoverable: accept with
	// a warning instead of failing the request.
	if err := app.Enqueue(ctx, funnel, env, correlationID); err != nil {
		log(ctx).Error("Failed to enqueue accepted event", "error", err, "event_id", event.EventID)
		response.Warning = "event accepted but queueing is delayed"
		writeJsonResponse(w, http.StatusAccepted, response)
		return
	}

	log(ctx).Info("Event accepted", "event_id", event.EventID, "event_type", event.EventType)
	writeJsonResponse(w, http.StatusOK, response)
}

func getEventHandler(funnel *app.Application, w http.ResponseWriter, r *http.Request) {
	event, err := funnel.DB.GetEventByID(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, r, app.NewError(app.KindNotFound, "EVENT_NOT_FOUND", "no event with that id"))
			return
		}
		writeError(w, r, app.WrapError(app.KindTransientStore, "EVENT_READ_FAILED", "could not load event", err))
		return
	}
	writeJsonResponse(w, http.StatusOK, toEventResponse(event))
}

func inboxHandler(funnel *app.Application, w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50, 200)
	offset := queryInt(r, "offset", 0, 1<<30)

	events, err := funnel.DB.ListEvents(r.Context(), db.ListEventsParams{
		Limit:  int32(limit),
		Offset: int32(offset),
	})
	if err != nil {
		writeError(w, r, app.WrapError(app.KindTransientStore, "EVENT_READ_FAILED", "could not list events", err))
		return
	}

	response := make([]EventResponse, 0, len(events))
	for _, event := range events {
		response = append(response, toEventResponse(event))
	}
	writeJsonResponse(w, http.StatusOK, map[string]any{
		"events": response,
		"limit":  limit,
		"offset": offset,
	})
}

func toEventResponse(event db.Event) EventResponse {
	return EventResponse{
		EventID:    event.EventID,
		EventType:  event.EventType,
		Timestamp:  event.Timestamp.Time.UTC(),
		Payload:    json.RawMessage(event.Payload),
		Metadata:   json.RawMessage(event.Metadata),
		Status:     event.Status,
		RetryCount: event.RetryCount,
		CreatedAt:  event.CreatedAt.Time.UTC(),
		UpdatedAt:  event.UpdatedAt.Time.UTC(),
	}
}

func queryInt(r *http.Request, name string, fallback int, max int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return fallback
	}
	if value > max {
		return max
	}
	return value
}
