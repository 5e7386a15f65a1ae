// Package finalizer captures round snapshots as rounds end, detects the
// chain's reset, derives prize attribution from slot_hash, and persists the
// result atomically to the analytics sink (spec.md §4.6). Grounded on
// work/worker.go's wait() (post-block persistence + mux.Post broadcast),
// generalized from "block mined" to "round reset", and on
// original_source/ore-stats/src/finalization.rs for the capture/finalize
// shape and the proportional-reward formula this spec's distillation left
// abstract.
package finalizer

import (
	"github.com/klaytn/boardrush/internal/chainenc"
)

// DeploymentEntry is one miner's recorded stake on one square, captured
// before the round resets.
type DeploymentEntry struct {
	MinerPubkey  chainenc.Pubkey
	SquareID     uint8
	Amount       uint64
	DeployedSlot uint64
}

// Snapshot is the pre-reset capture of everything finalization needs,
// keyed by round id (spec.md §4.6 step 1).
type Snapshot struct {
	RoundID     uint64
	StartSlot   uint64
	EndSlot     uint64
	Deployments []DeploymentEntry
	Miners      map[chainenc.Pubkey]chainenc.Miner
	Treasury    chainenc.Treasury
}

// CaptureSnapshot builds a Snapshot from the currently-cached board/round
// state, pending per-tick deployment records, and the miner set
// participating in roundID (spec.md §4.6 step 1: "copy the current
// (pending_deployments, round_miners subset, treasury, round) into a
// RoundSnapshot").
func CaptureSnapshot(roundID, startSlot, endSlot uint64, pendingDeployments []DeploymentEntry, allMiners map[chainenc.Pubkey]chainenc.Miner, treasury chainenc.Treasury) Snapshot {
	roundMiners := make(map[chainenc.Pubkey]chainenc.Miner)
	for pk, m := range allMiners {
		if m.RoundID == roundID {
			roundMiners[pk] = m
		}
	}
	deployments := make([]DeploymentEntry, len(pendingDeployments))
	copy(deployments, pendingDeployments)

	return Snapshot{
		RoundID:     roundID,
		StartSlot:   startSlot,
		EndSlot:     endSlot,
		Deployments: deployments,
		Miners:      roundMiners,
		Treasury:    treasury,
	}
}
