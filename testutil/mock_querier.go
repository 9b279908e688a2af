package testutil

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/mock"

	"github.com/sweater-ventures/funnel/db"
)

// MockQuerier is a testify mock implementation of db.Querier.
type MockQuerier struct {
	mock.Mock
}

var _ db.Querier = (*MockQuerier)(nil)

func (m *MockQuerier) AckMessage(ctx context.Context, id pgtype.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockQuerier) AddToMetric(ctx context.Context, arg db.AddToMetricParams) (db.Metric, error) {
	args := m.Called(ctx, arg)
	return args.Get(0).(db.Metric), args.Error(1)
}

func (m *MockQuerier) CountDlqEntries(ctx context.Context, failedAt pgtype.Timestamptz) (int64, error) {
	args := m.Called(ctx, failedAt)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockQuerier) CountQueueMessages(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockQuerier) DelayMessage(ctx context.Context, arg db.DelayMessageParams) error {
	args := m.Called(ctx, arg)
	return args.Error(0)
}

func (m *MockQuerier) DeleteSubscriptionByURL(ctx context.Context, url string) (int64, error) {
	args := m.Called(ctx, url)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockQuerier) DequeueMessages(ctx context.Context, arg db.DequeueMessagesParams) ([]db.QueueMessage, error) {
	args := m.Called(ctx, arg)
	return args.Get(0).([]db.QueueMessage), args.Error(1)
}

func (m *MockQuerier) EnqueueMessage(ctx context.Context, arg db.EnqueueMessageParams) (db.QueueMessage, error) {
	args := m.Called(ctx, arg)
	return args.Get(0).(db.QueueMessage), args.Error(1)
}

func (m *MockQuerier) GetEventByID(ctx context.Context, eventID string) (db.Event, error) {
	args := m.Called(ctx, eventID)
	return args.Get(0).(db.Event), args.Error(1)
}

func (m *MockQuerier) GetMetric(ctx context.Context, key string) (db.Metric, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(db.Metric), args.Error(1)
}

func (m *MockQuerier) GetMetrics(ctx context.Context, keys []string) ([]db.Metric, error) {
	args := m.Called(ctx, keys)
	return args.Get(0).([]db.Metric), args.Error(1)
}

func (m *MockQuerier) GetSubscriptionByURL(ctx context.Context, url string) (db.WebhookSubscription, error) {
	args := m.Called(ctx, url)
	return args.Get(0).(db.WebhookSubscription), args.Error(1)
}

func (m *MockQuerier) InsertEvent(ctx context.Context, arg db.InsertEventParams) (db.Event, error) {
	args := m.Called(ctx, arg)
	return args.Get(0).(db.Event), args.Error(1)
}

func (m *MockQuerier) InsertEventFailure(ctx context.Context, arg db.InsertEventFailureParams) error {
	args := m.Called(ctx, arg)
	return args.Error(0)
}

func (m *MockQuerier) InsertSubscription(ctx context.Context, arg db.InsertSubscriptionParams) (db.WebhookSubscription, error) {
	args := m.Called(ctx, arg)
	return args.Get(0).(db.WebhookSubscription), args.Error(1)
}

func (m *MockQuerier) ListDeliverableSubscriptions(ctx context.Context) ([]db.WebhookSubscription, error) {
	args := m.Called(ctx)
	return args.Get(0).([]db.WebhookSubscription), args.Error(1)
}

func (m *MockQuerier) ListDlqEntries(ctx context.Context, arg db.ListDlqEntriesParams) ([]db.DlqEntry, error) {
	args := m.Called(ctx, arg)
	return args.Get(0).([]db.DlqEntry), args.Error(1)
}

func (m *MockQuerier) ListEventFailures(ctx context.Context, arg db.ListEventFailuresParams) ([]db.EventFailure, error) {
	args := m.Called(ctx, arg)
	return args.Get(0).([]db.EventFailure), args.Error(1)
}

func (m *MockQuerier) ListEvents(ctx context.Context, arg db.ListEventsParams) ([]db.Event, error) {
	args := m.Called(ctx, arg)
	return args.Get(0).([]db.Event), args.Error(1)
}

func (m *MockQuerier) ListSubscriptions(ctx context.Context) ([]db.WebhookSubscription, error) {
	args := m.Called(ctx)
	return args.Get(0).([]db.WebhookSubscription), args.Error(1)
}

func (m *MockQuerier) MarkSubscriptionDelivered(ctx context.Context, arg db.MarkSubscriptionDeliveredParams) (db.WebhookSubscription, error) {
	args := m.Called(ctx, arg)
	return args.Get(0).(db.WebhookSubscription), args.Error(1)
}

func (m *MockQuerier) MarkSubscriptionFailing(ctx context.Context, arg db.MarkSubscriptionFailingParams) (db.WebhookSubscription, error) {
	args := m.Called(ctx, arg)
	return args.Get(0).(db.WebhookSubscription), args.Error(1)
}

func (m *MockQuerier) PurgeDlqEntries(ctx context.Context, failedAt pgtype.Timestamptz) (int64, error) {
	args := m.Called(ctx, failedAt)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockQuerier) PurgeEventFailures(ctx context.Context, failedAt pgtype.Timestamptz) (int64, error) {
	args := m.Called(ctx, failedAt)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockQuerier) ResetMetrics(ctx context.Context, keys []string) error {
	args := m.Called(ctx, keys)
	return args.Error(0)
}

func (m *MockQuerier) SetMessageStep(ctx context.Context, arg db.SetMessageStepParams) error {
	args := m.Called(ctx, arg)
	return args.Error(0)
}

func (m *MockQuerier) SetMetricTime(ctx context.Context, arg db.SetMetricTimeParams) error {
	args := m.Called(ctx, arg)
	return args.Error(0)
}

func (m *MockQuerier) SetMetricValue(ctx context.Context, arg db.SetMetricValueParams) error {
	args := m.Called(ctx, arg)
	return args.Error(0)
}

func (m *MockQuerier) SetSubscriptionError(ctx context.Context, arg db.SetSubscriptionErrorParams) error {
	args := m.Called(ctx, arg)
	return args.Error(0)
}

func (m *MockQuerier) UpdateEventStatus(ctx context.Context, arg db.UpdateEventStatusParams) (db.Event, error) {
	args := m.Called(ctx, arg)
	return args.Get(0).(db.Event), args.Error(1)
}

func (m *MockQuerier) UpsertDlqEntry(ctx context.Context, arg db.UpsertDlqEntryParams) error {
	args := m.Called(ctx, arg)
	return args.Error(0)
}

func (m *MockQuerier) UpsertEvent(ctx context.Context, arg db.UpsertEventParams) (db.Event, error) {
	args := m.Called(ctx, arg)
	return args.Get(0).(db.Event), args.Error(1)
}
