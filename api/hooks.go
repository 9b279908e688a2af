package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/sweater-ventures/funnel/app"
	"github.com/sweater-ventures/funnel/db"
	"github.com/sweater-ventures/funnel/middleware"
)

// Subscription bodies larger than this are rejected with 413.
const maxHookBodyBytes = 10 << 20

// Postgres unique violation.
const pgUniqueViolation = "23505"

func init() {
	registerRoute(func(funnel *app.Application, router *http.ServeMux) {
		router.Handle("POST /zapier/hook", routeHandler(funnel, subscribeHandler))
		router.Handle("GET /zapier/hook", routeHandler(funnel, sampleHandler))
		router.Handle("DELETE /zapier/hook", routeHandler(funnel, unsubscribeHandler))
	})
}

type HookRequest struct {
	URL string `json:"url"`
}

type SubscriptionResponse struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

func subscribeHandler(funnel *app.Application, w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if !checkRateLimit(funnel.SubscribeLimiter, w, r) {
		return
	}

	if mediaType := r.Header.Get("Content-Type"); !strings.HasPrefix(mediaType, "application/json") {
		writeError(w, r, app.NewError(app.KindValidation, "INVALID_CONTENT_TYPE", "content-type must be application/json"))
		return
	}

	body, ok := readHookBody(funnel, w, r)
	if !ok {
		return
	}

	var req HookRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, r, app.WrapError(app.KindValidation, "INVALID_JSON", "request body is not valid JSON", err))
		return
	}

	if err := app.ValidateWebhookURL(req.URL, funnel.Config.AllowedHosts); err != nil {
		writeError(w, r, err)
		return
	}

	subscription, err := funnel.DB.InsertSubscription(ctx, db.InsertSubscriptionParams{
		ID:        app.NewPgUUID(),
		Url:       req.URL,
		Status:    "active",
		CreatedAt: app.PgTime(time.Now().UTC()),
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			writeError(w, r, app.NewError(app.KindConflict, "SUBSCRIPTION_EXISTS", "a subscription for that url already exists"))
			return
		}
		writeError(w, r, app.WrapError(app.KindTransientStore, "SUBSCRIPTION_PERSIST_FAILED", "could not create subscription", err))
		return
	}

	funnel.Subscriptions.Flush()
	log(ctx).Info("Subscription registered", "subscription_id", app.UuidToString(subscription.ID), "url", subscription.Url)

	writeJsonResponse(w, http.StatusCreated, SubscriptionResponse{
		ID:        app.UuidToString(subscription.ID),
		URL:       subscription.Url,
		Status:    subscription.Status,
		CreatedAt: subscription.CreatedAt.Time.UTC(),
	})
}

func sampleHandler(funnel *app.Application, w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if !checkRateLimit(funnel.SampleLimiter, w, r) {
		return
	}

	now := time.Now().UTC()
	sample := app.Envelope{
		EventID:   uuid.Must(uuid.NewV7()).String(),
		EventType: "sample_event",
		Timestamp: now.Format(time.RFC3339Nano),
		Payload: map[string]json.RawMessage{
			"message": json.RawMessage(`"This is a sample event"`),
			"sample":  json.RawMessage(`true`),
		},
		Metadata: map[string]string{
			"correlation_id": middleware.CorrelationID(ctx),
		},
		CreatedAt: now.Format(time.RFC3339Nano),
	}

	// A generated sample that fails its own schema is an invariant violation.
	if err := funnel.Validator.ValidateEnvelope(sample); err != nil {
		writeError(w, r, app.WrapError(app.KindInternal, "SAMPLE_INVALID", "generated sample failed schema validation", err))
		return
	}

	payload, err := sample.Marshal()
	if err != nil {
		writeError(w, r, app.WrapError(app.KindInternal, "SAMPLE_ENCODE_FAILED", "could not serialize sample", err))
		return
	}

	if funnel.Config.SigningSecret != "" {
		w.Header().Set(app.SignatureHeader, app.SignatureHeaderValue(payload, funnel.Config.SigningSecret))
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("["))
	w.Write(payload)
	w.Write([]byte("]"))
}

func unsubscribeHandler(funnel *app.Application, w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, ok := readHookBody(funnel, w, r)
	if !ok {
		return
	}

	var req HookRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, r, app.WrapError(app.KindValidation, "INVALID_JSON", "request body is not valid JSON", err))
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		writeError(w, r, app.NewError(app.KindValidation, "URL_REQUIRED", "url is required"))
		return
	}

	removed, err := funnel.DB.DeleteSubscriptionByURL(ctx, req.URL)
	if err != nil {
		writeError(w, r, app.WrapError(app.KindTransientStore, "SUBSCRIPTION_DELETE_FAILED", "could not delete subscription", err))
		return
	}
	if removed == 0 {
		writeError(w, r, app.NewError(app.KindNotFound, "SUBSCRIPTION_NOT_FOUND", "no subscription for that url"))
		return
	}

	funnel.Subscriptions.Flush()
	log(ctx).Info("Subscription removed", "url", req.URL)

	writeJsonResponse(w, http.StatusOK, map[string]string{
		"url":    req.URL,
		"status": "removed",
	})
}

// readHookBody enforces the size cap and, when a signing secret is configured
// and the caller is not local, a valid X-Signature over the exact body bytes.
func readHookBody(funnel *app.Application, w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxHookBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJsonResponse(w, http.StatusRequestEntityTooLarge, errorResponse{
				Error:         errorBody{Code: "BODY_TOO_LARGE", Message: "request body exceeds 10 MiB"},
				CorrelationID: middleware.CorrelationID(r.Context()),
			})
			return nil, false
		}
		writeError(w, r, app.WrapError(app.KindInternal, "BODY_READ_FAILED", "could not read request body", err))
		return nil, false
	}

	if funnel.Config.SigningSecret != "" && !isLocalhost(r) {
		header := r.Header.Get(app.SignatureHeader)
		if header == "" {
			writeError(w, r, app.NewError(app.KindAuth, "SIGNATURE_REQUIRED", "X-Signature header is required"))
			return nil, false
		}
		if err := app.VerifyHeader(body, header, funnel.Config.SigningSecret); err != nil {
			writeError(w, r, err)
			return nil, false
		}
	}

	return body, true
}
