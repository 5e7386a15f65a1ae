package trackers

import (
	"encoding/base64"
	"encoding/json"
	"sync"

	"github.com/klaytn/boardrush/internal/chainenc"
	"github.com/klaytn/boardrush/internal/chainlog"
	"github.com/klaytn/boardrush/internal/rpcclient"
)

var roundLogger = chainlog.NewModuleLogger("trackers.round")

// RoundTracker subscribes to whichever round account is currently active,
// tearing down and reopening the subscription on SwitchRound (spec.md §4.1).
type RoundTracker struct {
	mu          sync.RWMutex
	round       *chainenc.Round
	haveSeen    bool
	activeID    uint64

	wsEndpoints []string
	addrForID   func(roundID uint64) string

	sub *rpcclient.Subscription
}

// NewRoundTracker subscribes to the round account for initialRoundID.
// addrForID derives the on-chain account address for a given round id
// (the crank/bot owns this PDA derivation, not the tracker).
func NewRoundTracker(wsEndpoints []string, initialRoundID uint64, addrForID func(uint64) string) *RoundTracker {
	t := &RoundTracker{wsEndpoints: wsEndpoints, addrForID: addrForID}
	t.openLocked(initialRoundID)
	return t
}

func (t *RoundTracker) openLocked(roundID uint64) {
	t.activeID = roundID
	t.haveSeen = false
	t.round = nil
	addr := t.addrForID(roundID)
	t.sub = rpcclient.NewSubscription(t.wsEndpoints, "accountSubscribe", addr, map[string]string{"encoding": "base64"})
	go t.sub.Run(t.onNotification)
}

// SwitchRound tears down the subscription for the previous round and opens
// one against newID, per spec.md §4.1.
func (t *RoundTracker) SwitchRound(newID uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if newID == t.activeID && t.sub != nil {
		return
	}
	if t.sub != nil {
		t.sub.Close()
	}
	t.openLocked(newID)
}

func (t *RoundTracker) onNotification(raw json.RawMessage) {
	var res accountSubResult
	if err := json.Unmarshal(raw, &res); err != nil {
		roundLogger.Debug("ignoring malformed round notification", "err", err)
		return
	}
	data, err := base64.StdEncoding.DecodeString(res.Value.Data[0])
	if err != nil {
		roundLogger.Warn("round account decode error, retaining previous cache value", "err", err)
		return
	}
	round, err := chainenc.DecodeRound(data)
	if err != nil {
		roundLogger.Warn("round account decode error, retaining previous cache value", "err", err)
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.round = round
	t.haveSeen = true
}

// GetRound returns the cached Round, or nil before the first successful
// decode for the currently-active round.
func (t *RoundTracker) GetRound() *chainenc.Round {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if !t.haveSeen {
		return nil
	}
	cp := *t.round
	return &cp
}

// Close tears down the underlying subscription.
func (t *RoundTracker) Close() {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.sub != nil {
		t.sub.Close()
	}
}
