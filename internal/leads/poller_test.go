package leads

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"provider-onboarding/internal/common/logger"
	"provider-onboarding/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Fake Source
// ==========================

// fakeSource serves scripted responses; each call can be gated on a channel
// to simulate slow round trips.
type fakeSource struct {
	mu        sync.Mutex
	responses []func() ([]models.Order, error)
	accepted  []int64
	acceptErr error
}

func (f *fakeSource) PendingOrders(ctx context.Context, category models.Category) ([]models.Order, error) {
	f.mu.Lock()
	if len(f.responses) == 0 {
		f.mu.Unlock()
		return nil, nil
	}
	next := f.responses[0]
	f.responses = f.responses[1:]
	f.mu.Unlock()
	return next()
}

func (f *fakeSource) AcceptOrder(ctx context.Context, orderID, technicianID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.acceptErr != nil {
		return f.acceptErr
	}
	f.accepted = append(f.accepted, orderID)
	return nil
}

func (f *fakeSource) push(orders []models.Order, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses = append(f.responses, func() ([]models.Order, error) { return orders, err })
}

func newTestPoller(t *testing.T, source Source) *Poller {
	t.Helper()
	return NewPoller(source, models.CategoryPickDrop, 42, time.Hour, logger.NewTestLogger(t))
}

// ==========================
// Refresh Tests
// ==========================

func TestPoller_Refresh_UpdatesSnapshot(t *testing.T) {
	source := &fakeSource{}
	source.push([]models.Order{{ID: 1, Price: 150}}, nil)

	p := newTestPoller(t, source)
	p.Refresh(context.Background())

	orders := p.Snapshot()
	require.Len(t, orders, 1)
	assert.Equal(t, int64(1), orders[0].ID)
}

func TestPoller_Refresh_ErrorKeepsLastGoodSnapshot(t *testing.T) {
	source := &fakeSource{}
	source.push([]models.Order{{ID: 1}}, nil)
	source.push(nil, fmt.Errorf("backend unavailable"))

	p := newTestPoller(t, source)
	ctx := context.Background()

	p.Refresh(ctx)
	p.Refresh(ctx)

	orders := p.Snapshot()
	require.Len(t, orders, 1, "failed poll must not clear the snapshot")
	assert.Equal(t, int64(1), orders[0].ID)
}

func TestPoller_Refresh_DropsStaleResponse(t *testing.T) {
	slowStarted := make(chan struct{})
	slowRelease := make(chan struct{})

	source := &fakeSource{}
	// first request is slow and carries the older view
	source.responses = append(source.responses, func() ([]models.Order, error) {
		close(slowStarted)
		<-slowRelease
		return []models.Order{{ID: 1}}, nil
	})
	// second request returns immediately with the newer view
	source.push([]models.Order{{ID: 2}}, nil)

	p := newTestPoller(t, source)
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		p.Refresh(ctx)
	}()

	<-slowStarted
	p.Refresh(ctx)

	close(slowRelease)
	wg.Wait()

	orders := p.Snapshot()
	require.Len(t, orders, 1)
	assert.Equal(t, int64(2), orders[0].ID, "the slow older response must not overwrite the newer one")
}

func TestPoller_Snapshot_ReturnsCopy(t *testing.T) {
	source := &fakeSource{}
	source.push([]models.Order{{ID: 1}}, nil)

	p := newTestPoller(t, source)
	p.Refresh(context.Background())

	first := p.Snapshot()
	first[0].ID = 99

	assert.Equal(t, int64(1), p.Snapshot()[0].ID)
}

// ==========================
// Accept Tests
// ==========================

func TestPoller_Accept_RefreshesAfterClaim(t *testing.T) {
	source := &fakeSource{}
	source.push([]models.Order{{ID: 1}, {ID: 2}}, nil)
	source.push([]models.Order{{ID: 2}}, nil)

	p := newTestPoller(t, source)
	ctx := context.Background()
	p.Refresh(ctx)

	require.NoError(t, p.Accept(ctx, 1))
	assert.Equal(t, []int64{1}, source.accepted)

	orders := p.Snapshot()
	require.Len(t, orders, 1)
	assert.Equal(t, int64(2), orders[0].ID)
}

func TestPoller_Accept_Error(t *testing.T) {
	source := &fakeSource{acceptErr: fmt.Errorf("already claimed")}
	p := newTestPoller(t, source)

	err := p.Accept(context.Background(), 1)
	require.Error(t, err)
	assert.Empty(t, p.Snapshot())
}

// ==========================
// Run Tests
// ==========================

func TestPoller_Run_StopsOnCancel(t *testing.T) {
	source := &fakeSource{}
	source.push([]models.Order{{ID: 1}}, nil)

	p := NewPoller(source, models.CategoryPickDrop, 42, 10*time.Millisecond, logger.NewTestLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	// wait for the immediate first poll to land
	require.Eventually(t, func() bool {
		return len(p.Snapshot()) == 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poller did not stop on context cancellation")
	}
}
