package app_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sweater-ventures/funnel/app"
	"github.com/sweater-ventures/funnel/db"
	"github.com/sweater-ventures/funnel/testutil"
)

func TestEnqueue_CarriesEnvelope(t *testing.T) {
	mockDB := new(testutil.MockQuerier)
	funnel := testutil.NewTestApp(mockDB)

	env := testutil.NewEnvelope()
	mockDB.On("EnqueueMessage", mock.Anything, mock.MatchedBy(func(arg db.EnqueueMessageParams) bool {
		var stored app.Envelope
		if err := json.Unmarshal(arg.Envelope, &stored); err != nil {
			return false
		}
		return arg.EventID == env.EventID &&
			arg.CorrelationID == "corr-9" &&
			stored.EventID == env.EventID
	})).Return(db.QueueMessage{}, nil)

	err := app.Enqueue(context.Background(), funnel, env, "corr-9")
	require.NoError(t, err)
	mockDB.AssertExpectations(t)
}

func TestQueueRunner_AcksProcessedMessage(t *testing.T) {
	mockDB := new(testutil.MockQuerier)
	funnel := testutil.NewTestApp(mockDB)
	allowMetrics(mockDB)

	env := testutil.NewEnvelope()
	msg := testutil.NewQueueMessage(env)
	stored := testutil.NewEvent(func(e *db.Event) { e.EventID = env.EventID })

	acked := make(chan struct{})

	mockDB.On("DequeueMessages", mock.Anything, mock.Anything).Return([]db.QueueMessage{msg}, nil).Once()
	mockDB.On("DequeueMessages", mock.Anything, mock.Anything).Return([]db.QueueMessage{}, nil)
	mockDB.On("SetMessageStep", mock.Anything, mock.Anything).Return(nil)
	mockDB.On("UpsertEvent", mock.Anything, mock.Anything).Return(stored, nil)
	mockDB.On("GetEventByID", mock.Anything, env.EventID).Return(stored, nil)
	mockDB.On("ListDeliverableSubscriptions", mock.Anything).Return([]db.WebhookSubscription{}, nil)
	mockDB.On("UpdateEventStatus", mock.Anything, mock.Anything).Return(stored, nil)
	mockDB.On("AckMessage", mock.Anything, msg.ID).Run(func(args mock.Arguments) {
		close(acked)
	}).Return(nil)

	stop := app.StartQueueRunner(funnel)
	defer stop()

	select {
	case <-acked:
	case <-time.After(5 * time.Second):
		t.Fatal("message was never acknowledged")
	}
}

func TestQueueRunner_DelaysFailedMessage(t *testing.T) {
	mockDB := new(testutil.MockQuerier)
	funnel := testutil.NewTestApp(mockDB)
	allowMetrics(mockDB)

	env := testutil.NewEnvelope()
	msg := testutil.NewQueueMessage(env)

	delayed := make(chan db.DelayMessageParams, 1)

	mockDB.On("DequeueMessages", mock.Anything, mock.Anything).Return([]db.QueueMessage{msg}, nil).Once()
	mockDB.On("DequeueMessages", mock.Anything, mock.Anything).Return([]db.QueueMessage{}, nil)
	mockDB.On("SetMessageStep", mock.Anything, mock.Anything).Return(nil)
	mockDB.On("UpsertEvent", mock.Anything, mock.Anything).Return(db.Event{}, assert.AnError)
	mockDB.On("DelayMessage", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		select {
		case delayed <- args.Get(1).(db.DelayMessageParams):
		default:
		}
	}).Return(nil)

	stop := app.StartQueueRunner(funnel)
	defer stop()

	select {
	case arg := <-delayed:
		assert.Equal(t, msg.ID, arg.ID)
		assert.True(t, arg.VisibleAt.Time.After(time.Now()), "redelivery must be in the future")
	case <-time.After(5 * time.Second):
		t.Fatal("message was never delayed for redelivery")
	}

	mockDB.AssertNotCalled(t, "AckMessage", mock.Anything, mock.Anything)
}

func TestQueueRunner_BudgetExhaustionFailsEventTerminally(t *testing.T) {
	mockDB := new(testutil.MockQuerier)
	funnel := testutil.NewTestApp(mockDB)
	allowMetrics(mockDB)

	env := testutil.NewEnvelope()
	msg := testutil.NewQueueMessage(env, func(m *db.QueueMessage) {
		m.Attempts = 6 // over the default budget of 5
	})

	acked := make(chan struct{})

	mockDB.On("DequeueMessages", mock.Anything, mock.Anything).Return([]db.QueueMessage{msg}, nil).Once()
	mockDB.On("DequeueMessages", mock.Anything, mock.Anything).Return([]db.QueueMessage{}, nil)
	mockDB.On("UpdateEventStatus", mock.Anything, mock.MatchedBy(func(arg db.UpdateEventStatusParams) bool {
		return arg.EventID == env.EventID && arg.Status == "failed"
	})).Return(db.Event{}, nil)
	mockDB.On("InsertEventFailure", mock.Anything, mock.MatchedBy(func(arg db.InsertEventFailureParams) bool {
		return arg.EventID == env.EventID
	})).Return(nil)
	mockDB.On("AckMessage", mock.Anything, msg.ID).Run(func(args mock.Arguments) {
		close(acked)
	}).Return(nil)

	stop := app.StartQueueRunner(funnel)
	defer stop()

	select {
	case <-acked:
	case <-time.After(5 * time.Second):
		t.Fatal("exhausted message was never settled")
	}

	mockDB.AssertNotCalled(t, "UpsertEvent", mock.Anything, mock.Anything)
	mockDB.AssertNotCalled(t, "ListDeliverableSubscriptions", mock.Anything)
	// The event never passed its metrics step, so exhaustion settles the
	// totals here without touching a pending count it never held.
	mockDB.AssertCalled(t, "AddToMetric", mock.Anything, metricDelta(app.MetricEventsTotal, 1))
	mockDB.AssertCalled(t, "AddToMetric", mock.Anything, metricDelta(app.MetricEventsFailed, 1))
	mockDB.AssertNotCalled(t, "AddToMetric", mock.Anything, metricDelta(app.MetricEventsPending, -1))
}
