// Package trackers maintains the four independent chain caches named in
// spec.md §4.1: SlotTracker, BlockhashCache, BoardTracker, RoundTracker.
// Each is single-writer/many-reader, copying out under a short lock rather
// than holding one across an RPC call -- the same discipline as the
// teacher's snapshotMu/snapshotBlock pair in work/worker.go, generalized
// from "latest mined block" to "latest slot/board/round".
package trackers

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/klaytn/boardrush/internal/chainlog"
	"github.com/klaytn/boardrush/internal/rpcclient"
)

var slotLogger = chainlog.NewModuleLogger("trackers.slot")

// SlotTracker exposes the cluster's current slot, updated by subscription.
type SlotTracker struct {
	mu       sync.RWMutex
	slot     uint64
	lastSeen time.Time
	sub      *rpcclient.Subscription
}

// NewSlotTracker subscribes to slotSubscribe over wsEndpoints and starts
// updating in the background.
func NewSlotTracker(wsEndpoints []string) *SlotTracker {
	t := &SlotTracker{}
	t.sub = rpcclient.NewSubscription(wsEndpoints, "slotSubscribe")
	go t.sub.Run(t.onNotification)
	return t
}

func (t *SlotTracker) onNotification(raw json.RawMessage) {
	var note rpcclient.SlotNotification
	if err := json.Unmarshal(raw, &note); err != nil {
		slotLogger.Debug("ignoring malformed slot notification", "err", err)
		return
	}
	t.mu.Lock()
	t.slot = note.Slot
	t.lastSeen = time.Now()
	t.mu.Unlock()
}

// GetSlot returns the latest known slot; stale reads are acceptable
// (latest-write-wins) per spec.md §4.1.
func (t *SlotTracker) GetSlot() uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.slot
}

// TimeSinceLastSlot reports how long it has been since the last slot
// notification was observed, used to detect a stalled subscription.
func (t *SlotTracker) TimeSinceLastSlot() time.Duration {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.lastSeen.IsZero() {
		return 0
	}
	return time.Since(t.lastSeen)
}

// Close tears down the underlying subscription, if any.
func (t *SlotTracker) Close() {
	if t.sub != nil {
		t.sub.Close()
	}
}

// NewSlotTrackerPolling builds a SlotTracker for deployments with no
// WebSocket endpoint configured (e.g. a minimal stats-core deployment): it
// polls getSlot on an interval instead of subscribing.
func NewSlotTrackerPolling(ctx context.Context, client *rpcclient.Client, interval time.Duration) *SlotTracker {
	t := &SlotTracker{}
	go t.pollSlotFallback(ctx, client, interval)
	return t
}

func (t *SlotTracker) pollSlotFallback(ctx context.Context, client *rpcclient.Client, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			slot, err := client.GetSlot(ctx)
			if err != nil {
				slotLogger.Debug("getSlot poll failed", "err", err)
				continue
			}
			t.mu.Lock()
			t.slot = slot
			t.lastSeen = time.Now()
			t.mu.Unlock()
		}
	}
}
