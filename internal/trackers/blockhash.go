package trackers

import (
	"context"
	"sync"
	"time"

	"github.com/klaytn/boardrush/internal/chainenc"
	"github.com/klaytn/boardrush/internal/chainlog"
	"github.com/klaytn/boardrush/internal/rpcclient"
	"github.com/mr-tron/base58"
)

var blockhashLogger = chainlog.NewModuleLogger("trackers.blockhash")

const blockhashPollInterval = 200 * time.Millisecond

// BlockhashCache polls the cluster for a recent blockhash at ~200ms cadence
// (spec.md §4.1) and tracks slot hints so consumers can skip builds once
// the deploy window has already closed.
type BlockhashCache struct {
	mu              sync.RWMutex
	blockhash       [32]byte
	currentSlotHint uint64
	endSlotHint     uint64

	client *rpcclient.Client
	cancel context.CancelFunc
}

// NewBlockhashCache starts polling client for a recent blockhash.
func NewBlockhashCache(client *rpcclient.Client) *BlockhashCache {
	ctx, cancel := context.WithCancel(context.Background())
	c := &BlockhashCache{client: client, cancel: cancel}
	go c.pollLoop(ctx)
	return c
}

func (c *BlockhashCache) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(blockhashPollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.pollOnce(ctx)
		}
	}
}

func (c *BlockhashCache) pollOnce(ctx context.Context) {
	if c.skipBuild() {
		return
	}
	bh, err := c.client.GetLatestBlockhash(ctx)
	if err != nil {
		blockhashLogger.Debug("getLatestBlockhash poll failed", "err", err)
		return
	}
	decoded, err := base58.Decode(bh)
	if err != nil || len(decoded) != 32 {
		blockhashLogger.Debug("malformed blockhash in response", "blockhash", bh)
		return
	}
	var h [32]byte
	copy(h[:], decoded)
	c.mu.Lock()
	c.blockhash = h
	c.mu.Unlock()
}

// skipBuild reports whether the current slot hint has already passed the
// end slot hint, letting pollers skip an unnecessary fetch (spec.md §4.1).
func (c *BlockhashCache) skipBuild() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.endSlotHint != 0 && c.currentSlotHint >= c.endSlotHint
}

// GetBlockhash returns the cached blockhash, or the zero value until the
// first poll succeeds (spec.md §4.1).
func (c *BlockhashCache) GetBlockhash() chainenc.Blockhash {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return chainenc.Blockhash(c.blockhash)
}

// SetCurrentSlot records the consumer's latest known slot, used by
// skipBuild.
func (c *BlockhashCache) SetCurrentSlot(slot uint64) {
	c.mu.Lock()
	c.currentSlotHint = slot
	c.mu.Unlock()
}

// SetEndSlot records the consumer's current round end_slot, used by
// skipBuild.
func (c *BlockhashCache) SetEndSlot(slot uint64) {
	c.mu.Lock()
	c.endSlotHint = slot
	c.mu.Unlock()
}

// Close stops the polling loop.
func (c *BlockhashCache) Close() { c.cancel() }
