package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"

	"github.com/sweater-ventures/funnel/app"
	"github.com/sweater-ventures/funnel/config"
	"github.com/sweater-ventures/funnel/middleware"
)

type routeRegistrationFunc func(funnel *app.Application, router *http.ServeMux)

var routes []routeRegistrationFunc

func registerRoute(r routeRegistrationFunc) {
	routes = append(routes, r)
}

func AddApis(funnel *app.Application, router *http.ServeMux) {
	slog.Debug("Registering all API Endpoints", "count", len(routes))
	for _, r := range routes {
		r(funnel, router)
	}
}

func log(ctx context.Context) *slog.Logger {
	log := ctx.Value(config.LoggerContextKey)
	if log == nil {
		return slog.Default()
	} else {
		return log.(*slog.Logger)
	}
}

type appHandler func(funnel *app.Application, w http.ResponseWriter, r *http.Request)

func routeHandler(funnel *app.Application, handler appHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handler(funnel, w, r)
	})
}

func writeJsonResponse(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error         errorBody `json:"error"`
	CorrelationID string    `json:"correlation_id"`
}

// writeError maps an error kind to an HTTP status and writes the standard
// error body with the request's correlation id.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *app.Error
	kind := app.KindInternal
	code := "INTERNAL_ERROR"
	message := "internal error"
	if errors.As(err, &appErr) {
		kind = appErr.Kind
		code = appErr.Code
		message = appErr.Message
	}

	status := http.StatusInternalServerError
	switch kind {
	case app.KindValidation:
		status = http.StatusBadRequest
	case app.KindAuth:
		status = http.StatusUnauthorized
	case app.KindRateLimit:
		status = http.StatusTooManyRequests
	case app.KindNotFound:
		status = http.StatusNotFound
	case app.KindConflict:
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		log(r.Context()).Error("Request failed", "error", err)
	}

	writeJsonResponse(w, status, errorResponse{
		Error:         errorBody{Code: code, Message: message},
		CorrelationID: middleware.CorrelationID(r.Context()),
	})
}

// clientIP extracts the client address without the port.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// isLocalhost reports whether the request originated from a loopback address.
func isLocalhost(r *http.Request) bool {
	ip := net.ParseIP(clientIP(r))
	return ip != nil && ip.IsLoopback()
}

// checkRateLimit applies a limiter decision, writing the X-RateLimit-*
// headers on every response and Retry-After when the quota is exhausted.
// Returns false if the request was rejected.
func checkRateLimit(limiter *app.RateLimiter, w http.ResponseWriter, r *http.Request) bool {
	decision := limiter.Allow(clientIP(r))

	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(decision.Reset.Unix(), 10))

	if decision.Allowed {
		return true
	}

	retryAfter := int(decision.RetryAfter.Seconds())
	if retryAfter < 1 {
		retryAfter = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	writeError(w, r, app.NewError(app.KindRateLimit, "RATE_LIMITED", "rate limit exceeded, retry later"))
	return false
}
