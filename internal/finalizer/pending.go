package finalizer

import (
	"sync"

	"github.com/klaytn/boardrush/internal/chainenc"
)

// PendingLog accumulates per-(miner, square) deployment entries for the
// currently-open round, fed by every bot's Deploying-phase success (spec.md
// §4.6 step 1's "pending_deployments"). One process-wide log backs every
// managed authority; its Snapshot copy feeds CaptureSnapshot at round end,
// and the Watcher calls Reset once the board moves to the next round.
type PendingLog struct {
	mu      sync.Mutex
	entries []DeploymentEntry
}

// NewPendingLog builds an empty log.
func NewPendingLog() *PendingLog { return &PendingLog{} }

// Record appends one successful deploy's per-square amounts.
func (p *PendingLog) Record(miner chainenc.Pubkey, squareID uint8, amount, deployedSlot uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries = append(p.entries, DeploymentEntry{
		MinerPubkey:  miner,
		SquareID:     squareID,
		Amount:       amount,
		DeployedSlot: deployedSlot,
	})
}

// Snapshot returns a copy of every entry recorded so far.
func (p *PendingLog) Snapshot() []DeploymentEntry {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]DeploymentEntry, len(p.entries))
	copy(out, p.entries)
	return out
}

// Reset clears the log for the next round, called once a snapshot has been
// captured.
func (p *PendingLog) Reset() {
	p.mu.Lock()
	p.entries = nil
	p.mu.Unlock()
}
