package botstate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeterminePhase_IdleWhenNoRoundYet(t *testing.T) {
	assert.Equal(t, PhaseIdle, DeterminePhase(Inputs{EndSlot: maxEndSlot, CurrentSlot: 1000}))
}

func TestDeterminePhase_DeployedAfterEndSlotIfDeployed(t *testing.T) {
	in := Inputs{
		EndSlot: 100, CurrentSlot: 150,
		LastDeployedRound: 5, HaveDeployedRound: true, RoundID: 5,
	}
	assert.Equal(t, PhaseDeployed, DeterminePhase(in))
}

func TestDeterminePhase_IdleAfterEndSlotIfNotDeployed(t *testing.T) {
	in := Inputs{EndSlot: 100, CurrentSlot: 150, RoundID: 5}
	assert.Equal(t, PhaseIdle, DeterminePhase(in))
}

func TestDeterminePhase_DeployedMidRoundIfAlreadyDeployed(t *testing.T) {
	in := Inputs{
		EndSlot: 1000, CurrentSlot: 500,
		LastDeployedRound: 5, HaveDeployedRound: true, RoundID: 5,
	}
	assert.Equal(t, PhaseDeployed, DeterminePhase(in))
}

func TestDeterminePhase_CheckpointingWhenDeployedButNotCheckpointed(t *testing.T) {
	in := Inputs{
		EndSlot: 1000, CurrentSlot: 500,
		LastDeployedRound: 4, HaveDeployedRound: true, RoundID: 5,
	}
	assert.Equal(t, PhaseCheckpointing, DeterminePhase(in))
}

func TestDeterminePhase_CheckpointingOnZeroValueRounds(t *testing.T) {
	// Both last_deployed_round and last_checkpointed_round are 0 here, which
	// must not be mistaken for "already checkpointed".
	in := Inputs{
		EndSlot: 1000, CurrentSlot: 500,
		LastDeployedRound: 0, HaveDeployedRound: true, RoundID: 5,
	}
	assert.Equal(t, PhaseCheckpointing, DeterminePhase(in))
}

func TestDeterminePhase_DeployingNearEndSlot(t *testing.T) {
	in := Inputs{
		EndSlot: 1000, CurrentSlot: 991,
		LastDeployedRound: 4, HaveDeployedRound: true,
		LastCheckpointedRound: 4, HaveCheckpointedRound: true,
		RoundID: 5, SlotsLeftThreshold: 10,
	}
	assert.Equal(t, PhaseDeploying, DeterminePhase(in))
}

func TestDeterminePhase_WaitingFarFromEndSlot(t *testing.T) {
	in := Inputs{
		EndSlot: 1000, CurrentSlot: 500,
		LastDeployedRound: 4, HaveDeployedRound: true,
		LastCheckpointedRound: 4, HaveCheckpointedRound: true,
		RoundID: 5, SlotsLeftThreshold: 10,
	}
	assert.Equal(t, PhaseWaiting, DeterminePhase(in))
}

func TestDeterminePhase_AwaitingClaimShortCircuits(t *testing.T) {
	in := Inputs{EndSlot: 1000, CurrentSlot: 500, AwaitingClaim: true}
	assert.Equal(t, PhaseClaiming, DeterminePhase(in))
}

func TestDeterminePhase_IsTotalAndIdempotent(t *testing.T) {
	// Same inputs must always produce the same phase (idempotence), and
	// DeterminePhase must never panic on any reachable input combination.
	inputs := []Inputs{
		{},
		{EndSlot: maxEndSlot},
		{EndSlot: 10, CurrentSlot: 10},
		{EndSlot: 10, CurrentSlot: 5, SlotsLeftThreshold: 20},
	}
	for _, in := range inputs {
		first := DeterminePhase(in)
		second := DeterminePhase(in)
		assert.Equal(t, first, second)
	}
}

func TestDeployStartSlot(t *testing.T) {
	assert.Equal(t, uint64(90), DeployStartSlot(100, 10)) // threshold == 10: end - threshold
	assert.Equal(t, uint64(91), DeployStartSlot(100, 9))  // threshold < 10: end - threshold
	assert.Equal(t, uint64(80), DeployStartSlot(100, 21)) // threshold > 10: end - (threshold-1)
}
