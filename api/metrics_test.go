package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/sweater-ventures/funnel/app"
	"github.com/sweater-ventures/funnel/db"
	"github.com/sweater-ventures/funnel/testutil"
)

func TestMetrics_ReturnsSnapshot(t *testing.T) {
	mockDB := new(testutil.MockQuerier)
	funnel := testutil.NewTestApp(mockDB)
	funnel.StartedAt = time.Now().UTC().Add(-10 * time.Second)

	processedAt := testutil.NewTimestamp()
	mockDB.On("GetMetrics", mock.Anything, mock.Anything).Return([]db.Metric{
		{Key: app.MetricEventsTotal, Value: 42},
		{Key: app.MetricEventsPending, Value: 2},
		{Key: app.MetricEventsDelivered, Value: 38},
		{Key: app.MetricEventsFailed, Value: 2},
		{Key: app.MetricLastProcessedAt, TsValue: processedAt},
	}, nil)
	mockDB.On("CountQueueMessages", mock.Anything).Return(int64(3), nil)
	mockDB.On("CountDlqEntries", mock.Anything, mock.Anything).Return(int64(1), nil)

	rec := callHandler(funnel, metricsHandler, httptest.NewRequest("GET", "/metrics", nil))

	var snapshot app.MetricsSnapshot
	testutil.AssertJSONResponse(t, rec, http.StatusOK, &snapshot)
	assert.Equal(t, int64(42), snapshot.TotalEvents)
	assert.Equal(t, int64(2), snapshot.Pending)
	assert.Equal(t, int64(38), snapshot.Delivered)
	assert.Equal(t, int64(2), snapshot.Failed)
	assert.Equal(t, int64(3), snapshot.QueueDepth)
	assert.Equal(t, int64(1), snapshot.DLQCount)
	assert.NotNil(t, snapshot.LastProcessedAt)
	assert.Greater(t, snapshot.ProcessingRate, 0.0)
}

func TestMetrics_StoreErrorIsInternal(t *testing.T) {
	mockDB := new(testutil.MockQuerier)
	funnel := testutil.NewTestApp(mockDB)

	mockDB.On("GetMetrics", mock.Anything, mock.Anything).Return([]db.Metric{}, assert.AnError)

	rec := callHandler(funnel, metricsHandler, httptest.NewRequest("GET", "/metrics", nil))
	testutil.AssertJSONError(t, rec, http.StatusInternalServerError, "METRICS_READ_FAILED")
}

func TestDLQ_ListsEntriesAndEventFailures(t *testing.T) {
	mockDB := new(testutil.MockQuerier)
	funnel := testutil.NewTestApp(mockDB)

	subID := testutil.NewUUID()
	mockDB.On("ListDlqEntries", mock.Anything, mock.MatchedBy(func(arg db.ListDlqEntriesParams) bool {
		return arg.Limit == 100
	})).Return([]db.DlqEntry{{
		SubscriptionID: subID,
		EventID:        "evt-dead",
		WebhookUrl:     "https://hooks.example.com/hooks/a",
		CorrelationID:  "corr-d",
		LastError:      "HTTP 503",
		LastStatusCode: pgtype.Int4{Int32: 503, Valid: true},
		FailedAt:       testutil.NewTimestamp(),
	}}, nil)
	mockDB.On("ListEventFailures", mock.Anything, mock.Anything).Return([]db.EventFailure{{
		EventID:       "evt-bad",
		Reason:        "schema validation failed",
		CorrelationID: "corr-e",
		FailedAt:      testutil.NewTimestamp(),
	}}, nil)

	rec := callHandler(funnel, dlqHandler, httptest.NewRequest("GET", "/dlq", nil))

	var resp struct {
		Entries       []DLQEntryResponse     `json:"entries"`
		EventFailures []EventFailureResponse `json:"event_failures"`
	}
	testutil.AssertJSONResponse(t, rec, http.StatusOK, &resp)

	assert.Len(t, resp.Entries, 1)
	assert.Equal(t, "evt-dead", resp.Entries[0].EventID)
	assert.Equal(t, "HTTP 503", resp.Entries[0].LastError)
	assert.NotNil(t, resp.Entries[0].LastStatusCode)
	assert.Equal(t, int32(503), *resp.Entries[0].LastStatusCode)

	assert.Len(t, resp.EventFailures, 1)
	assert.Equal(t, "evt-bad", resp.EventFailures[0].EventID)
	assert.Equal(t, "schema validation failed", resp.EventFailures[0].Reason)
}

func TestDLQ_EmptyListsAreArrays(t *testing.T) {
	mockDB := new(testutil.MockQuerier)
	funnel := testutil.NewTestApp(mockDB)

	mockDB.On("ListDlqEntries", mock.Anything, mock.Anything).Return([]db.DlqEntry{}, nil)
	mockDB.On("ListEventFailures", mock.Anything, mock.Anything).Return([]db.EventFailure{}, nil)

	rec := callHandler(funnel, dlqHandler, httptest.NewRequest("GET", "/dlq", nil))

	body := rec.Body.String()
	assert.Contains(t, body, `"entries":[]`)
	assert.Contains(t, body, `"event_failures":[]`)
}
