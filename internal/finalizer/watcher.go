package finalizer

import (
	"context"
	"time"

	"github.com/klaytn/boardrush/internal/chainenc"
	"github.com/klaytn/boardrush/internal/rpcclient"
	"github.com/klaytn/boardrush/internal/trackers"
)

// WatchInterval is the cadence the watcher polls board state at, independent
// of any bot's own tick cadence (spec.md §4.6: "Runs alongside the RPC
// polling loop (independent of any bot)").
const WatchInterval = 200 * time.Millisecond

// MinerSource reads every miner account the finalizer should consider for
// the current round's snapshot.
type MinerSource func(ctx context.Context) (map[chainenc.Pubkey]chainenc.Miner, error)

// TreasurySource reads the current treasury state.
type TreasurySource func(ctx context.Context) (chainenc.Treasury, error)

// Watcher drives capture-then-finalize across round boundaries using the
// shared BoardTracker/SlotTracker caches (spec.md §4.6 steps 1-2).
type Watcher struct {
	Board     *trackers.BoardTracker
	Slot      *trackers.SlotTracker
	Client    *rpcclient.Client
	Pending   *PendingLog
	Miners    MinerSource
	Treasury  TreasurySource
	Finalizer *Finalizer

	captured    bool
	capturedFor uint64
	lastSnapshot *Snapshot
}

// Run polls board state at WatchInterval, capturing a snapshot the first
// time the current round is observed at or past its end slot, and finalizing
// once the board advances to a new round id (spec.md §4.6 steps 1-2).
func (w *Watcher) Run(ctx context.Context) {
	ticker := time.NewTicker(WatchInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

func (w *Watcher) tick(ctx context.Context) {
	board := w.Board.GetBoard()
	if board == nil {
		return
	}
	currentSlot := w.Slot.GetSlot()

	if !w.captured && board.EndSlot != chainenc.MaxEndSlot && currentSlot >= board.EndSlot {
		snap, err := w.capture(ctx, board)
		if err != nil {
			finalizerLogger.Warn("snapshot capture failed", "round_id", board.RoundID, "err", err)
			return
		}
		w.lastSnapshot = snap
		w.captured = true
		w.capturedFor = board.RoundID
		return
	}

	if w.captured && board.RoundID != w.capturedFor {
		snap := *w.lastSnapshot
		w.captured = false
		w.lastSnapshot = nil
		w.Pending.Reset()
		go func() {
			if err := w.Finalizer.Finalize(ctx, snap); err != nil {
				finalizerLogger.Warn("finalize failed", "round_id", snap.RoundID, "err", err)
			}
		}()
	}
}

func (w *Watcher) capture(ctx context.Context, board *chainenc.Board) (*Snapshot, error) {
	miners, err := w.Miners(ctx)
	if err != nil {
		return nil, err
	}
	treasury, err := w.Treasury(ctx)
	if err != nil {
		return nil, err
	}
	snap := CaptureSnapshot(board.RoundID, board.StartSlot, board.EndSlot, w.Pending.Snapshot(), miners, treasury)
	return &snap, nil
}
