package e2e

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sweater-ventures/funnel/api"
)

func hookRequest(t *testing.T, method, url string) *http.Request {
	t.Helper()
	payload, err := json.Marshal(api.HookRequest{URL: url})
	if err != nil {
		t.Fatalf("hookRequest marshal: %v", err)
	}
	req := httptest.NewRequest(method, "/zapier/hook", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestSubscriptionLifecycle(t *testing.T) {
	truncateAll(t)

	funnel := newTestApp(t)
	router := newTestRouter(t, funnel)

	const hookURL = "https://hooks.example.com/hooks/lifecycle"

	// Register
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, hookRequest(t, "POST", hookURL))
	if rec.Code != http.StatusCreated {
		t.Fatalf("subscribe returned %d: %s", rec.Code, rec.Body.String())
	}
	var created api.SubscriptionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("unmarshal subscription: %v", err)
	}
	if created.URL != hookURL || created.Status != "active" {
		t.Errorf("created = %+v", created)
	}

	// Registering the same URL again conflicts
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, hookRequest(t, "POST", hookURL))
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate subscribe returned %d: %s", rec.Code, rec.Body.String())
	}

	// Remove
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, hookRequest(t, "DELETE", hookURL))
	if rec.Code != http.StatusOK {
		t.Fatalf("unsubscribe returned %d: %s", rec.Code, rec.Body.String())
	}

	// Removing again reports not found
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, hookRequest(t, "DELETE", hookURL))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("second unsubscribe returned %d: %s", rec.Code, rec.Body.String())
	}
}

func TestSampleEndpointServesValidEnvelope(t *testing.T) {
	truncateAll(t)

	funnel := newTestApp(t)
	router := newTestRouter(t, funnel)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/zapier/hook", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("sample returned %d: %s", rec.Code, rec.Body.String())
	}

	var samples []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &samples); err != nil {
		t.Fatalf("sample body is not a JSON array: %v", err)
	}
	if len(samples) != 1 {
		t.Fatalf("samples = %d, want 1", len(samples))
	}
	if samples[0]["event_type"] != "sample_event" {
		t.Errorf("event_type = %v, want sample_event", samples[0]["event_type"])
	}
}
