package botstate

import (
	"context"
	"time"

	"github.com/klaytn/boardrush/internal/chainenc"
	"github.com/klaytn/boardrush/internal/chainlog"
	"github.com/klaytn/boardrush/internal/chainmetrics"
	"github.com/klaytn/boardrush/internal/finalizer"
	"github.com/klaytn/boardrush/internal/rpcclient"
	"github.com/klaytn/boardrush/internal/strategy"
	"github.com/klaytn/boardrush/internal/trackers"
	"github.com/klaytn/boardrush/internal/txbuilder"
	"github.com/klaytn/boardrush/internal/txpipeline"
)

var stateLogger = chainlog.NewModuleLogger("botstate")

// EventEmitter is the subset of internal/eventbus.Bus the state machine
// needs; kept as a local interface so this package doesn't import eventbus,
// avoiding a dependency cycle with eventbus's own consumers.
type EventEmitter interface {
	Emit(kind, authority string, data map[string]interface{})
}

// CheckpointSettleDelay is how long Checkpointing waits after confirmation
// before re-reading rewards, so the post-checkpoint balance has settled
// (spec.md §4.4's "first post-checkpoint reading taken after a short settle
// delay").
const CheckpointSettleDelay = 500 * time.Millisecond

// TickIdle, TickActive bound the tick loop's sleep per spec.md §4.4 ("looping
// on a short tick (~50-500ms depending on phase)").
const (
	TickIdle   = 500 * time.Millisecond
	TickActive = 50 * time.Millisecond
)

// State is one managed authority's bot state machine.
type State struct {
	Authority chainenc.Pubkey
	Signer    txbuilder.Signer
	Accounts  txbuilder.Accounts
	Strategy  strategy.Strategy

	SlotsLeftThreshold uint64
	Fees               txbuilder.Fees

	Board     *trackers.BoardTracker
	Slot      *trackers.SlotTracker
	Blockhash *trackers.BlockhashCache
	Client    *rpcclient.Client
	Submitter txpipeline.Submitter
	Emitter   EventEmitter
	Pending   *finalizer.PendingLog

	// Per-round bookkeeping, recovered from the miner account across
	// restarts (spec.md §4.4 step 2; "At-most-one deploy per round" in §9).
	lastDeployedRound     uint64
	haveDeployedRound     bool
	lastCheckpointedRound uint64
	haveCheckpointedRound bool
	awaitingClaim         bool

	preCheckpointSol  uint64
	preCheckpointOre  uint64
	claimableSol      uint64
}

// recoverFromMiner seeds last_deployed_round/last_checkpointed_round from
// the on-chain miner account, so a restarted bot never re-deploys or
// re-checkpoints a round it already handled (spec.md §9's restart-recovery
// scenario).
func (s *State) recoverFromMiner(ctx context.Context) error {
	data, err := s.Client.GetAccountInfo(ctx, s.Accounts.MinerAddr.String())
	if err != nil {
		return err
	}
	if data == nil {
		return nil // miner account not yet created
	}
	miner, err := chainenc.DecodeMiner(data)
	if err != nil {
		return err
	}
	s.lastDeployedRound = miner.RoundID
	s.haveDeployedRound = true
	s.lastCheckpointedRound = miner.CheckpointID
	s.haveCheckpointedRound = true
	return nil
}

// Run loops ticking the state machine until ctx is cancelled.
func (s *State) Run(ctx context.Context) {
	if err := s.recoverFromMiner(ctx); err != nil {
		stateLogger.Warn("initial miner read failed, starting with empty bookkeeping", "authority", s.Authority, "err", err)
	}

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		phase := s.Tick(ctx)

		sleep := TickIdle
		if phase == PhaseDeploying || phase == PhaseCheckpointing || phase == PhaseClaiming {
			sleep = TickActive
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(sleep):
		}
	}
}

// Tick runs exactly one iteration of spec.md §4.4's per-tick algorithm and
// returns the phase it computed, for Run's sleep-interval selection.
func (s *State) Tick(ctx context.Context) Phase {
	board := s.Board.GetBoard()
	if board == nil {
		return PhaseWaiting // board unavailable: abort tick (spec.md §4.4 step 1)
	}

	if newRoundID, ok := s.Board.CheckNewRound(); ok {
		stateLogger.Info("new round detected", "authority", s.Authority, "round_id", newRoundID)
		s.awaitingClaim = false
		if err := s.recoverFromMiner(ctx); err != nil {
			stateLogger.Warn("miner re-read on round transition failed", "authority", s.Authority, "err", err)
		}
	}

	currentSlot := s.Slot.GetSlot()
	s.Blockhash.SetCurrentSlot(currentSlot)
	s.Blockhash.SetEndSlot(board.EndSlot)

	if roundAddr, _, err := chainenc.RoundPDA(board.RoundID, s.Accounts.ProgramID); err == nil {
		s.Accounts.RoundAddr = roundAddr
	} else {
		stateLogger.Warn("derive round address failed", "authority", s.Authority, "round_id", board.RoundID, "err", err)
	}

	phase := DeterminePhase(Inputs{
		EndSlot:               board.EndSlot,
		CurrentSlot:           currentSlot,
		SlotsLeftThreshold:    s.SlotsLeftThreshold,
		LastDeployedRound:     s.lastDeployedRound,
		HaveDeployedRound:     s.haveDeployedRound,
		LastCheckpointedRound: s.lastCheckpointedRound,
		HaveCheckpointedRound: s.haveCheckpointedRound,
		RoundID:               board.RoundID,
		AwaitingClaim:         s.awaitingClaim,
	})

	s.emit("phase", map[string]interface{}{"phase": phase.String(), "round_id": board.RoundID})

	switch phase {
	case PhaseIdle, PhaseWaiting, PhaseDeployed:
		// no transactions
	case PhaseDeploying:
		s.runDeploy(ctx, board.RoundID, board.EndSlot)
	case PhaseCheckpointing:
		s.runCheckpoint(ctx, board.RoundID)
	case PhaseClaiming:
		s.runClaim(ctx)
		s.awaitingClaim = false
	}
	return phase
}

func (s *State) emit(kind string, data map[string]interface{}) {
	if s.Emitter == nil {
		return
	}
	s.Emitter.Emit(kind, s.Authority.String(), data)
}

func (s *State) runDeploy(ctx context.Context, roundID, endSlot uint64) {
	bh := s.Blockhash.GetBlockhash()
	build := txpipeline.DeployBuildFunc(s.Signer, s.Accounts, s.Strategy, bh, s.Fees)
	burst := txpipeline.Burst(ctx, s.Authority.String(), s.Strategy, build, s.Submitter, s.Slot.GetSlot, endSlot)
	report := txpipeline.ConfirmAndReport(ctx, s.Authority.String(), s.Client, burst)

	switch report.Outcome {
	case txpipeline.OutcomeDeployed:
		amount := s.readDeployedAmount(ctx)
		s.recordPending(ctx, roundID)
		s.lastDeployedRound = roundID
		s.haveDeployedRound = true
		s.emit("deployed", map[string]interface{}{"round_id": roundID, "amount": amount})
	case txpipeline.OutcomeSkipped:
		s.lastDeployedRound = roundID
		s.haveDeployedRound = true
		s.lastCheckpointedRound = roundID
		s.haveCheckpointedRound = true
		s.emit("skipped", map[string]interface{}{"round_id": roundID})
	case txpipeline.OutcomeMissed:
		s.lastDeployedRound = roundID
		s.haveDeployedRound = true
		s.lastCheckpointedRound = roundID
		s.haveCheckpointedRound = true
		s.emit("missed", map[string]interface{}{"round_id": roundID})
	}
}

func (s *State) readDeployedAmount(ctx context.Context) uint64 {
	data, err := s.Client.GetAccountInfo(ctx, s.Accounts.MinerAddr.String())
	if err != nil || data == nil {
		return 0
	}
	miner, err := chainenc.DecodeMiner(data)
	if err != nil {
		return 0
	}
	return miner.TotalDeployedThisRound()
}

// recordPending feeds the finalizer's process-wide pending-deployments log
// with this authority's per-square amounts, so round finalization can
// attribute rewards per (miner, square) (spec.md §4.6 step 1). A nil
// Pending (e.g. in unit tests) is a no-op.
func (s *State) recordPending(ctx context.Context, roundID uint64) {
	if s.Pending == nil {
		return
	}
	data, err := s.Client.GetAccountInfo(ctx, s.Accounts.MinerAddr.String())
	if err != nil || data == nil {
		return
	}
	miner, err := chainenc.DecodeMiner(data)
	if err != nil {
		return
	}
	currentSlot := s.Slot.GetSlot()
	for square, amount := range miner.Deployed {
		if amount == 0 {
			continue
		}
		s.Pending.Record(s.Authority, uint8(square), amount, currentSlot)
	}
}

func (s *State) runCheckpoint(ctx context.Context, roundID uint64) {
	pre := s.readMinerRewards(ctx)
	s.preCheckpointSol, s.preCheckpointOre = pre.sol, pre.ore

	bh := s.Blockhash.GetBlockhash()
	tx, err := txbuilder.BuildCheckpoint(s.Signer, s.Accounts, [32]byte(bh))
	if err != nil {
		stateLogger.Error("build checkpoint failed", "authority", s.Authority, "err", err)
		return
	}
	_, reverted, _, err := txpipeline.SendAndConfirm(ctx, s.Client, s.Submitter, tx)
	if err != nil || reverted {
		stateLogger.Warn("checkpoint not confirmed, retrying next tick", "authority", s.Authority, "err", err, "reverted", reverted)
		return // retried next tick, per spec.md §4.4 failure semantics
	}

	time.Sleep(CheckpointSettleDelay)
	post := s.readMinerRewards(ctx)

	won := post.sol > pre.sol || post.ore > pre.ore
	result := "lost"
	if won {
		result = "won"
	}
	chainmetrics.CheckpointOutcomes.WithLabelValues(result).Inc()
	s.lastCheckpointedRound = s.lastDeployedRound
	s.haveCheckpointedRound = true
	s.emit("checkpointed", map[string]interface{}{"round_id": roundID, "result": result})

	if post.sol > 0 {
		s.claimableSol = post.sol
		s.awaitingClaim = true
	}
}

type minerRewards struct {
	sol, ore uint64
}

func (s *State) readMinerRewards(ctx context.Context) minerRewards {
	data, err := s.Client.GetAccountInfo(ctx, s.Accounts.MinerAddr.String())
	if err != nil || data == nil {
		return minerRewards{}
	}
	miner, err := chainenc.DecodeMiner(data)
	if err != nil {
		return minerRewards{}
	}
	return minerRewards{sol: miner.RewardsSol, ore: miner.RewardsOre}
}

func (s *State) runClaim(ctx context.Context) {
	bh := s.Blockhash.GetBlockhash()
	tx, err := txbuilder.BuildClaimSol(s.Signer, s.Accounts, [32]byte(bh))
	if err != nil {
		stateLogger.Error("build claim_sol failed", "authority", s.Authority, "err", err)
		return
	}
	_, reverted, _, err := txpipeline.SendAndConfirm(ctx, s.Client, s.Submitter, tx)
	if err != nil || reverted {
		stateLogger.Warn("claim_sol not confirmed", "authority", s.Authority, "err", err, "reverted", reverted)
		return
	}
	chainmetrics.ClaimLamports.Add(float64(s.claimableSol))
	s.emit("claimed", map[string]interface{}{"lamports": s.claimableSol})
}
