package app_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sweater-ventures/funnel/app"
	"github.com/sweater-ventures/funnel/db"
	"github.com/sweater-ventures/funnel/testutil"
)

func TestProcessMessage_HappyPath(t *testing.T) {
	mockDB := new(testutil.MockQuerier)
	funnel := testutil.NewTestApp(mockDB)
	allowMetrics(mockDB)

	env := testutil.NewEnvelope()
	msg := testutil.NewQueueMessage(env)

	stored := testutil.NewEvent(func(e *db.Event) { e.EventID = env.EventID })

	mockDB.On("SetMessageStep", mock.Anything, mock.Anything).Return(nil)
	mockDB.On("UpsertEvent", mock.Anything, mock.MatchedBy(func(arg db.UpsertEventParams) bool {
		return arg.EventID == env.EventID && arg.Status == "pending"
	})).Return(stored, nil)
	mockDB.On("GetEventByID", mock.Anything, env.EventID).Return(stored, nil)
	mockDB.On("ListDeliverableSubscriptions", mock.Anything).Return([]db.WebhookSubscription{}, nil)
	mockDB.On("UpdateEventStatus", mock.Anything, mock.MatchedBy(func(arg db.UpdateEventStatusParams) bool {
		return arg.EventID == env.EventID && arg.Status == "delivered"
	})).Return(stored, nil)

	err := app.ProcessMessage(context.Background(), funnel, msg)
	require.NoError(t, err)

	mockDB.AssertCalled(t, "AddToMetric", mock.Anything, metricCall(app.MetricEventsTotal))
	mockDB.AssertCalled(t, "AddToMetric", mock.Anything, metricCall(app.MetricEventsDelivered))
	mockDB.AssertExpectations(t)
}

func TestProcessMessage_ValidationFailureIsTerminal(t *testing.T) {
	mockDB := new(testutil.MockQuerier)
	funnel := testutil.NewTestApp(mockDB)
	allowMetrics(mockDB)

	env := testutil.NewEnvelope(func(e *app.Envelope) { e.EventType = "" })
	msg := testutil.NewQueueMessage(env)

	mockDB.On("UpdateEventStatus", mock.Anything, mock.MatchedBy(func(arg db.UpdateEventStatusParams) bool {
		return arg.EventID == env.EventID && arg.Status == "failed"
	})).Return(db.Event{}, nil)
	mockDB.On("InsertEventFailure", mock.Anything, mock.MatchedBy(func(arg db.InsertEventFailureParams) bool {
		return arg.EventID == env.EventID
	})).Return(nil)

	err := app.ProcessMessage(context.Background(), funnel, msg)
	require.NoError(t, err, "terminal failures must acknowledge the message")

	// The failed event is counted into the totals it never reached through
	// the metrics step, and it holds no pending count to give back.
	mockDB.AssertCalled(t, "AddToMetric", mock.Anything, metricDelta(app.MetricEventsTotal, 1))
	mockDB.AssertCalled(t, "AddToMetric", mock.Anything, metricDelta(app.MetricEventsFailed, 1))
	mockDB.AssertNotCalled(t, "AddToMetric", mock.Anything, metricDelta(app.MetricEventsPending, -1))
	mockDB.AssertNotCalled(t, "UpsertEvent", mock.Anything, mock.Anything)
	mockDB.AssertNotCalled(t, "ListDeliverableSubscriptions", mock.Anything)
	mockDB.AssertExpectations(t)
}

func TestProcessMessage_FailureAfterMetricsStepReturnsPendingCount(t *testing.T) {
	mockDB := new(testutil.MockQuerier)
	funnel := testutil.NewTestApp(mockDB)
	allowMetrics(mockDB)

	env := testutil.NewEnvelope()
	// Redelivery whose metrics step completed before the envelope was
	// corrupted in flight.
	msg := testutil.NewQueueMessage(env, func(m *db.QueueMessage) {
		m.Step = app.StepMetrics
		m.Attempts = 2
		m.Envelope = []byte("{not json")
	})

	mockDB.On("UpdateEventStatus", mock.Anything, mock.MatchedBy(func(arg db.UpdateEventStatusParams) bool {
		return arg.EventID == env.EventID && arg.Status == "failed"
	})).Return(db.Event{}, nil)
	mockDB.On("InsertEventFailure", mock.Anything, mock.Anything).Return(nil)

	err := app.ProcessMessage(context.Background(), funnel, msg)
	require.NoError(t, err)

	// Already counted into events.total and events.pending on the first
	// attempt: only the pending count moves.
	mockDB.AssertCalled(t, "AddToMetric", mock.Anything, metricDelta(app.MetricEventsPending, -1))
	mockDB.AssertCalled(t, "AddToMetric", mock.Anything, metricDelta(app.MetricEventsFailed, 1))
	mockDB.AssertNotCalled(t, "AddToMetric", mock.Anything, metricDelta(app.MetricEventsTotal, 1))
	mockDB.AssertExpectations(t)
}

func TestProcessMessage_StoreErrorIsRetryable(t *testing.T) {
	mockDB := new(testutil.MockQuerier)
	funnel := testutil.NewTestApp(mockDB)
	allowMetrics(mockDB)

	env := testutil.NewEnvelope()
	msg := testutil.NewQueueMessage(env)

	mockDB.On("SetMessageStep", mock.Anything, mock.Anything).Return(nil)
	mockDB.On("UpsertEvent", mock.Anything, mock.Anything).Return(db.Event{}, errors.New("connection reset"))

	err := app.ProcessMessage(context.Background(), funnel, msg)
	require.Error(t, err)
	assert.True(t, app.Retryable(err))
	assert.Equal(t, "EVENT_STORE_FAILED", app.CodeOf(err))
}

func TestProcessMessage_AlreadyDeliveredIsNoOp(t *testing.T) {
	mockDB := new(testutil.MockQuerier)
	funnel := testutil.NewTestApp(mockDB)
	allowMetrics(mockDB)

	env := testutil.NewEnvelope()
	// Redelivery that already completed every persisted step
	msg := testutil.NewQueueMessage(env, func(m *db.QueueMessage) {
		m.Step = app.StepMetrics
		m.Attempts = 2
	})

	delivered := testutil.NewEvent(func(e *db.Event) {
		e.EventID = env.EventID
		e.Status = "delivered"
	})
	mockDB.On("GetEventByID", mock.Anything, env.EventID).Return(delivered, nil)

	err := app.ProcessMessage(context.Background(), funnel, msg)
	require.NoError(t, err)

	mockDB.AssertNotCalled(t, "UpsertEvent", mock.Anything, mock.Anything)
	mockDB.AssertNotCalled(t, "ListDeliverableSubscriptions", mock.Anything)
	mockDB.AssertNotCalled(t, "UpdateEventStatus", mock.Anything, mock.Anything)
	mockDB.AssertExpectations(t)
}

func TestProcessMessage_ResumesAfterCompletedSteps(t *testing.T) {
	mockDB := new(testutil.MockQuerier)
	funnel := testutil.NewTestApp(mockDB)
	allowMetrics(mockDB)

	env := testutil.NewEnvelope()
	msg := testutil.NewQueueMessage(env, func(m *db.QueueMessage) {
		m.Step = app.StepStore
		m.Attempts = 2
	})

	pending := testutil.NewEvent(func(e *db.Event) { e.EventID = env.EventID })
	mockDB.On("SetMessageStep", mock.Anything, mock.Anything).Return(nil)
	mockDB.On("GetEventByID", mock.Anything, env.EventID).Return(pending, nil)
	mockDB.On("ListDeliverableSubscriptions", mock.Anything).Return([]db.WebhookSubscription{}, nil)
	mockDB.On("UpdateEventStatus", mock.Anything, mock.Anything).Return(pending, nil)

	err := app.ProcessMessage(context.Background(), funnel, msg)
	require.NoError(t, err)

	// validate and store already ran on the first attempt
	mockDB.AssertNotCalled(t, "UpsertEvent", mock.Anything, mock.Anything)
	mockDB.AssertCalled(t, "AddToMetric", mock.Anything, metricCall(app.MetricEventsTotal))
	mockDB.AssertExpectations(t)
}
