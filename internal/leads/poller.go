// Package leads keeps a live view of pending job orders for a resolved
// technician by polling the backend on a fixed interval.
package leads

import (
	"context"
	"sync"
	"time"

	"provider-onboarding/internal/common/logger"
	"provider-onboarding/internal/common/metrics"
	"provider-onboarding/internal/models"
)

// DefaultPollInterval matches the historical refresh cadence.
const DefaultPollInterval = 4 * time.Second

// Source is the slice of the backend client the poller needs.
type Source interface {
	PendingOrders(ctx context.Context, category models.Category) ([]models.Order, error)
	AcceptOrder(ctx context.Context, orderID, technicianID int64) error
}

type Poller struct {
	source       Source
	category     models.Category
	technicianID int64
	interval     time.Duration
	logger       logger.Logger

	mu      sync.Mutex
	seq     uint64 // sequence assigned to the most recent request
	applied uint64 // sequence of the response currently in the snapshot
	orders  []models.Order
}

func NewPoller(source Source, category models.Category, technicianID int64, interval time.Duration, log logger.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{
		source:       source,
		category:     category,
		technicianID: technicianID,
		interval:     interval,
		logger:       log.WithFields(map[string]interface{}{"component": "leads"}),
	}
}

// Run polls until the context is cancelled. The first poll fires
// immediately.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.Refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Refresh(ctx)
		}
	}
}

// Refresh performs one poll round trip. Responses are applied in issue
// order: a slow response that arrives after a newer one has already been
// applied is dropped, so the snapshot never moves backwards in time.
func (p *Poller) Refresh(ctx context.Context) {
	p.mu.Lock()
	p.seq++
	seq := p.seq
	p.mu.Unlock()

	started := time.Now()
	orders, err := p.source.PendingOrders(ctx, p.category)
	metrics.LeadsPollDuration.Observe(time.Since(started).Seconds())

	if err != nil {
		// snapshot keeps the last good state
		p.logger.Warn("pending orders poll failed", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if seq <= p.applied {
		metrics.LeadsStaleResponsesDropped.Inc()
		p.logger.Debug("dropped stale poll response", map[string]interface{}{
			"seq":     seq,
			"applied": p.applied,
		})
		return
	}
	p.applied = seq
	p.orders = orders
}

// Snapshot returns a copy of the most recently applied order list.
func (p *Poller) Snapshot() []models.Order {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]models.Order, len(p.orders))
	copy(out, p.orders)
	return out
}

// Accept claims an order and refreshes the snapshot so the claimed order
// disappears from the pending view without waiting for the next tick.
func (p *Poller) Accept(ctx context.Context, orderID int64) error {
	if err := p.source.AcceptOrder(ctx, orderID, p.technicianID); err != nil {
		return err
	}
	p.Refresh(ctx)
	return nil
}
