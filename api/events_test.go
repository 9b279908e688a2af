package api

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sweater-ventures/funnel/app"
	"github.com/sweater-ventures/funnel/config"
	"github.com/sweater-ventures/funnel/db"
	"github.com/sweater-ventures/funnel/testutil"
)

const testIngestToken = "test-ingest-token"

func newIngestApp(mockDB *testutil.MockQuerier, opts ...testutil.ConfigOpt) *app.Application {
	opts = append([]testutil.ConfigOpt{func(cfg *config.AppConfig) {
		cfg.IngestTokens = []string{testIngestToken}
	}}, opts...)
	return testutil.NewTestApp(mockDB, opts...)
}

func callHandler(funnel *app.Application, handler appHandler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	routeHandler(funnel, handler).ServeHTTP(rec, req)
	return rec
}

func TestCreateEvent_RequiresBearerToken(t *testing.T) {
	mockDB := new(testutil.MockQuerier)
	funnel := newIngestApp(mockDB)

	req := testutil.NewJSONRequest(t, "POST", "/events", map[string]any{"payload": map[string]any{}})
	rec := callHandler(funnel, createEventHandler, req)

	testutil.AssertJSONError(t, rec, http.StatusUnauthorized, "MISSING_BEARER_TOKEN")
	mockDB.AssertNotCalled(t, "InsertEvent", mock.Anything, mock.Anything)
}

func TestCreateEvent_RejectsUnknownToken(t *testing.T) {
	mockDB := new(testutil.MockQuerier)
	funnel := newIngestApp(mockDB)

	req := testutil.WithBearer(testutil.NewJSONRequest(t, "POST", "/events", map[string]any{
		"payload": map[string]any{},
	}), "wrong-token")
	rec := callHandler(funnel, createEventHandler, req)

	testutil.AssertJSONError(t, rec, http.StatusUnauthorized, "INVALID_TOKEN")
}

func TestCreateEvent_RejectsMalformedJSON(t *testing.T) {
	mockDB := new(testutil.MockQuerier)
	funnel := newIngestApp(mockDB)

	req := httptest.NewRequest("POST", "/events", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	rec := callHandler(funnel, createEventHandler, testutil.WithBearer(req, testIngestToken))

	testutil.AssertJSONError(t, rec, http.StatusBadRequest, "INVALID_JSON")
}

func TestCreateEvent_RequiresPayload(t *testing.T) {
	mockDB := new(testutil.MockQuerier)
	funnel := newIngestApp(mockDB)

	req := testutil.WithBearer(testutil.NewJSONRequest(t, "POST", "/events", map[string]any{
		"event_type": "user_created",
	}), testIngestToken)
	rec := callHandler(funnel, createEventHandler, req)

	testutil.AssertJSONError(t, rec, http.StatusBadRequest, "PAYLOAD_REQUIRED")
}

func TestCreateEvent_RejectsOversizedBody(t *testing.T) {
	mockDB := new(testutil.MockQuerier)
	funnel := newIngestApp(mockDB)

	big := bytes.Repeat([]byte("a"), maxEventBodyBytes+1)
	req := httptest.NewRequest("POST", "/events", bytes.NewReader(big))
	req.Header.Set("Content-Type", "application/json")
	rec := callHandler(funnel, createEventHandler, testutil.WithBearer(req, testIngestToken))

	testutil.AssertJSONError(t, rec, http.StatusRequestEntityTooLarge, "BODY_TOO_LARGE")
}

func TestCreateEvent_AcceptsBodyAtExactLimit(t *testing.T) {
	mockDB := new(testutil.MockQuerier)
	funnel := newIngestApp(mockDB)

	mockDB.On("InsertEvent", mock.Anything, mock.Anything).Return(testutil.NewEvent(func(e *db.Event) {
		e.EventID = "evt-max"
	}), nil)
	mockDB.On("EnqueueMessage", mock.Anything, mock.Anything).Return(db.QueueMessage{}, nil)

	prefix := `{"event_id":"evt-max","payload":{"pad":"`
	suffix := `"}}`
	pad := bytes.Repeat([]byte("a"), maxEventBodyBytes-len(prefix)-len(suffix))
	body := append(append([]byte(prefix), pad...), suffix...)
	require.Len(t, body, maxEventBodyBytes)

	req := httptest.NewRequest("POST", "/events", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := callHandler(funnel, createEventHandler, testutil.WithBearer(req, testIngestToken))

	var resp IngestResponse
	testutil.AssertJSONResponse(t, rec, http.StatusOK, &resp)
	assert.Equal(t, "evt-max", resp.EventID)
	assert.Equal(t, "accepted", resp.Status)
}

func TestCreateEvent_AcceptsAndEnqueues(t *testing.T) {
	mockDB := new(testutil.MockQuerier)
	funnel := newIngestApp(mockDB)

	var inserted db.InsertEventParams
	mockDB.On("InsertEvent", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		inserted = args.Get(1).(db.InsertEventParams)
	}).Return(testutil.NewEvent(func(e *db.Event) {
		e.EventID = "evt-1"
		e.EventType = "user_created"
	}), nil)
	mockDB.On("EnqueueMessage", mock.Anything, mock.MatchedBy(func(arg db.EnqueueMessageParams) bool {
		return arg.EventID == "evt-1"
	})).Return(db.QueueMessage{}, nil)

	req := testutil.WithBearer(testutil.NewJSONRequest(t, "POST", "/events", map[string]any{
		"event_id":   "evt-1",
		"event_type": "user_created",
		"payload":    map[string]any{"user": "alice"},
	}), testIngestToken)
	rec := callHandler(funnel, createEventHandler, req)

	var resp IngestResponse
	testutil.AssertJSONResponse(t, rec, http.StatusOK, &resp)
	assert.Equal(t, "evt-1", resp.EventID)
	assert.Equal(t, "accepted", resp.Status)
	assert.Empty(t, resp.Warning)

	assert.Equal(t, "pending", inserted.Status)
	assert.Equal(t, "user_created", inserted.EventType)
	mockDB.AssertExpectations(t)
}

func TestCreateEvent_GeneratesEventIDAndMetadata(t *testing.T) {
	mockDB := new(testutil.MockQuerier)
	funnel := newIngestApp(mockDB)

	var inserted db.InsertEventParams
	mockDB.On("InsertEvent", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		inserted = args.Get(1).(db.InsertEventParams)
	}).Return(testutil.NewEvent(), nil)
	mockDB.On("EnqueueMessage", mock.Anything, mock.Anything).Return(db.QueueMessage{}, nil)

	req := testutil.WithBearer(testutil.NewJSONRequest(t, "POST", "/events", map[string]any{
		"payload": map[string]any{"n": 1},
	}), testIngestToken)
	req.Header.Set("User-Agent", "ingest-test/1.0")
	rec := callHandler(funnel, createEventHandler, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEmpty(t, inserted.EventID)
	assert.Equal(t, "event", inserted.EventType)
	assert.Contains(t, string(inserted.Metadata), "source_ip")
	assert.Contains(t, string(inserted.Metadata), "ingest-test/1.0")
}

func TestCreateEvent_DuplicateReturnsExisting(t *testing.T) {
	mockDB := new(testutil.MockQuerier)
	funnel := newIngestApp(mockDB)

	existing := testutil.NewEvent(func(e *db.Event) { e.EventID = "evt-dup" })
	mockDB.On("InsertEvent", mock.Anything, mock.Anything).Return(db.Event{}, pgx.ErrNoRows)
	mockDB.On("GetEventByID", mock.Anything, "evt-dup").Return(existing, nil)

	req := testutil.WithBearer(testutil.NewJSONRequest(t, "POST", "/events", map[string]any{
		"event_id": "evt-dup",
		"payload":  map[string]any{},
	}), testIngestToken)
	rec := callHandler(funnel, createEventHandler, req)

	var resp IngestResponse
	testutil.AssertJSONResponse(t, rec, http.StatusOK, &resp)
	assert.Equal(t, "evt-dup", resp.EventID)
	assert.Equal(t, "accepted", resp.Status)

	mockDB.AssertNotCalled(t, "EnqueueMessage", mock.Anything, mock.Anything)
}

func TestCreateEvent_EnqueueFailureStillAccepts(t *testing.T) {
	mockDB := new(testutil.MockQuerier)
	funnel := newIngestApp(mockDB)

	mockDB.On("InsertEvent", mock.Anything, mock.Anything).Return(testutil.NewEvent(func(e *db.Event) {
		e.EventID = "evt-2"
	}), nil)
	mockDB.On("EnqueueMessage", mock.Anything, mock.Anything).Return(db.QueueMessage{}, assert.AnError)

	req := testutil.WithBearer(testutil.NewJSONRequest(t, "POST", "/events", map[string]any{
		"event_id": "evt-2",
		"payload":  map[string]any{},
	}), testIngestToken)
	rec := callHandler(funnel, createEventHandler, req)

	var resp IngestResponse
	testutil.AssertJSONResponse(t, rec, http.StatusAccepted, &resp)
	assert.Equal(t, "evt-2", resp.EventID)
	assert.NotEmpty(t, resp.Warning)
}

func TestGetEvent_NotFound(t *testing.T) {
	mockDB := new(testutil.MockQuerier)
	funnel := newIngestApp(mockDB)

	mockDB.On("GetEventByID", mock.Anything, "missing").Return(db.Event{}, pgx.ErrNoRows)

	req := httptest.NewRequest("GET", "/events/missing", nil)
	req.SetPathValue("id", "missing")
	rec := callHandler(funnel, getEventHandler, req)

	testutil.AssertJSONError(t, rec, http.StatusNotFound, "EVENT_NOT_FOUND")
}

func TestGetEvent_ReturnsStoredEvent(t *testing.T) {
	mockDB := new(testutil.MockQuerier)
	funnel := newIngestApp(mockDB)

	stored := testutil.NewEvent(func(e *db.Event) {
		e.EventID = "evt-3"
		e.Status = "delivered"
	})
	mockDB.On("GetEventByID", mock.Anything, "evt-3").Return(stored, nil)

	req := httptest.NewRequest("GET", "/events/evt-3", nil)
	req.SetPathValue("id", "evt-3")
	rec := callHandler(funnel, getEventHandler, req)

	var resp EventResponse
	testutil.AssertJSONResponse(t, rec, http.StatusOK, &resp)
	assert.Equal(t, "evt-3", resp.EventID)
	assert.Equal(t, "delivered", resp.Status)
}

func TestInbox_AppliesLimitAndOffset(t *testing.T) {
	mockDB := new(testutil.MockQuerier)
	funnel := newIngestApp(mockDB)

	mockDB.On("ListEvents", mock.Anything, db.ListEventsParams{Limit: 10, Offset: 5}).
		Return([]db.Event{testutil.NewEvent(), testutil.NewEvent()}, nil)

	req := httptest.NewRequest("GET", "/inbox?limit=10&offset=5", nil)
	rec := callHandler(funnel, inboxHandler, req)

	var resp struct {
		Events []EventResponse `json:"events"`
		Limit  int             `json:"limit"`
		Offset int             `json:"offset"`
	}
	testutil.AssertJSONResponse(t, rec, http.StatusOK, &resp)
	assert.Len(t, resp.Events, 2)
	assert.Equal(t, 10, resp.Limit)
	assert.Equal(t, 5, resp.Offset)
}

func TestInbox_ClampsOversizedLimit(t *testing.T) {
	mockDB := new(testutil.MockQuerier)
	funnel := newIngestApp(mockDB)

	mockDB.On("ListEvents", mock.Anything, db.ListEventsParams{Limit: 200, Offset: 0}).
		Return([]db.Event{}, nil)

	req := httptest.NewRequest("GET", "/inbox?limit=9999", nil)
	rec := callHandler(funnel, inboxHandler, req)

	require.Equal(t, http.StatusOK, rec.Code)
	mockDB.AssertExpectations(t)
}
