package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vansales-service/internal/models"
	"vansales-service/internal/service"
	"vansales-service/internal/testutil"
)

func TestHandleOrderEventRecordsOnce(t *testing.T) {
	st := testutil.NewMemoryStore()
	w := NewActivityWorker(nil, st)
	ctx := context.Background()

	remoteID := int64(5000)
	event := &models.OrderEvent{
		BaseEvent: models.BaseEvent{
			EventID:   "evt-1",
			EventType: models.EventTypeOrderSynced,
			Timestamp: time.Now(),
		},
		OrderID:            3,
		Status:             string(models.OrderStatusSynced),
		BigCommerceOrderID: &remoteID,
	}

	require.NoError(t, w.HandleOrderEvent(ctx, event))
	require.NoError(t, w.HandleOrderEvent(ctx, event))

	activity, err := st.ListOrderActivity(ctx, 3)
	require.NoError(t, err)
	require.Len(t, activity, 1)
	assert.Equal(t, "Created BigCommerce order 5000", activity[0].Detail)
	assert.Equal(t, "synced", activity[0].Status)
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "Sync failed: HTTP 422",
		describe(&models.OrderEvent{BaseEvent: models.BaseEvent{EventType: models.EventTypeOrderSyncFailed}, SyncError: "HTTP 422"}))
	assert.Equal(t, "Draft saved, total 7.5",
		describe(&models.OrderEvent{BaseEvent: models.BaseEvent{EventType: models.EventTypeOrderDrafted}, Total: "7.5"}))
}

type countingResyncer struct {
	calls int
	err   error
}

func (r *countingResyncer) Resync(ctx context.Context) (*service.ResyncResult, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	return &service.ResyncResult{Updated: 2}, nil
}

func TestResyncSchedulerRunOnce(t *testing.T) {
	r := &countingResyncer{}
	s := NewResyncScheduler(r, "0 */6 * * *")

	s.RunOnce()
	r.err = service.ErrResyncInProgress
	s.RunOnce()
	r.err = errors.New("db down")
	s.RunOnce()

	assert.Equal(t, 3, r.calls)
}

func TestResyncSchedulerStartStop(t *testing.T) {
	s := NewResyncScheduler(&countingResyncer{}, "*/30 * * * *")
	require.NoError(t, s.Start())
	assert.True(t, s.running)
	s.Stop()
	assert.False(t, s.running)

	disabled := NewResyncScheduler(&countingResyncer{}, "")
	require.NoError(t, disabled.Start())
	assert.False(t, disabled.running)

	bad := NewResyncScheduler(&countingResyncer{}, "not a schedule")
	assert.Error(t, bad.Start())
}
