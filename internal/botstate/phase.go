// Package botstate implements the per-authority bot state machine (spec.md
// §4.4): a pure, total, idempotent phase-determination function plus the
// tick-driven loop that executes each phase's behavior. Grounded on
// work/worker.go's update()/commitNewWork() shape: read caches, decide, act,
// emit an event.
package botstate

// Phase is the ordered BotPhase enum from spec.md's GLOSSARY.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseWaiting
	PhaseDeploying
	PhaseDeployed
	PhaseCheckpointing
	PhaseClaiming
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "Idle"
	case PhaseWaiting:
		return "Waiting"
	case PhaseDeploying:
		return "Deploying"
	case PhaseDeployed:
		return "Deployed"
	case PhaseCheckpointing:
		return "Checkpointing"
	case PhaseClaiming:
		return "Claiming"
	default:
		return "Unknown"
	}
}

// Inputs is the minimal per-tick snapshot determine_phase needs: everything
// it reads is already resident in shared caches or this authority's own
// in-memory bookkeeping, per spec.md §4.4's "read from shared caches" step.
type Inputs struct {
	EndSlot             uint64
	CurrentSlot         uint64
	SlotsLeftThreshold  uint64
	LastDeployedRound   uint64
	HaveDeployedRound   bool
	LastCheckpointedRound uint64
	HaveCheckpointedRound bool
	RoundID             uint64
	// AwaitingClaim is set by the Checkpointing behavior when it observes
	// rewards_sol > 0 after checkpointing, so the very next tick's phase
	// computation routes straight to Claiming (spec.md §4.4: "if
	// rewards_sol > 0, immediately transition to Claiming").
	AwaitingClaim bool
}

// DeployStartSlot computes the slot at which the deploy window opens,
// per spec.md §4.4's threshold formula.
func DeployStartSlot(endSlot, slotsLeftThreshold uint64) uint64 {
	if slotsLeftThreshold > 10 {
		return endSlot - (slotsLeftThreshold - 1)
	}
	return endSlot - slotsLeftThreshold
}

// alreadyDeployedThisRound reports whether the bot has already recorded a
// deploy for in.RoundID.
func alreadyDeployedThisRound(in Inputs) bool {
	return in.HaveDeployedRound && in.LastDeployedRound == in.RoundID
}

const maxEndSlot = ^uint64(0)

// DeterminePhase is the pure, total, idempotent phase-selection function
// from spec.md §4.4, evaluated top to bottom:
//
//	board.end_slot == MAX                                           -> Idle
//	current_slot >= end_slot and already deployed this round        -> Deployed
//	current_slot >= end_slot and not deployed                       -> Idle
//	already deployed this round                                     -> Deployed
//	last_deployed_round set and last_checkpointed_round != that      -> Checkpointing
//	current_slot >= deploy_start_slot - 1                            -> Deploying
//	otherwise                                                        -> Waiting
//
// AwaitingClaim short-circuits straight to Claiming ahead of every other
// rule, since it represents an in-flight transition within the same tick
// cycle rather than a re-derivation from chain state.
func DeterminePhase(in Inputs) Phase {
	if in.AwaitingClaim {
		return PhaseClaiming
	}
	if in.EndSlot == maxEndSlot {
		return PhaseIdle
	}
	deployed := alreadyDeployedThisRound(in)
	if in.CurrentSlot >= in.EndSlot {
		if deployed {
			return PhaseDeployed
		}
		return PhaseIdle
	}
	if deployed {
		return PhaseDeployed
	}
	if in.HaveDeployedRound && (!in.HaveCheckpointedRound || in.LastCheckpointedRound != in.LastDeployedRound) {
		return PhaseCheckpointing
	}
	deployStart := DeployStartSlot(in.EndSlot, in.SlotsLeftThreshold)
	if in.CurrentSlot >= deployStart-1 {
		return PhaseDeploying
	}
	return PhaseWaiting
}
