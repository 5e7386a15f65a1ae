package finalizer

import (
	"bytes"
	"context"
	"math/bits"
	"sort"
	"time"

	"github.com/klaytn/boardrush/internal/chainenc"
	"github.com/klaytn/boardrush/internal/chainlog"
	"github.com/klaytn/boardrush/internal/chainmetrics"
	"github.com/klaytn/boardrush/internal/rpcclient"
	"github.com/klaytn/boardrush/internal/store"
	"github.com/pkg/errors"
)

var finalizerLogger = chainlog.NewModuleLogger("finalizer")

// SlotHashRetryWindow bounds how long Finalize waits for the finalized
// round account to show a non-zero slot_hash before giving up and recording
// a PartialRound (spec.md §4.6 step 2).
const SlotHashRetryWindow = 10 * time.Second

// SlotHashRetryInterval is the polling cadence within SlotHashRetryWindow.
const SlotHashRetryInterval = 500 * time.Millisecond

// EventEmitter is the subset of internal/eventbus.Bus the finalizer needs;
// kept local to avoid an import cycle, same pattern as internal/botstate.
type EventEmitter interface {
	Emit(kind, authority string, data map[string]interface{})
}

// Finalizer drives round finalization independent of any bot (spec.md
// §4.6's "Runs alongside the RPC polling loop").
type Finalizer struct {
	Client  *rpcclient.Client
	Store   *store.Store
	Emitter EventEmitter
	// RoundAddrForID derives the on-chain address of round roundID.
	RoundAddrForID func(roundID uint64) string
}

// Finalize re-reads the finalized round for snapshot.RoundID, derives prize
// attribution from its slot_hash, and persists the result atomically
// (spec.md §4.6 steps 2-5). It is safe to call more than once for the same
// round: Store.SaveFinalizedRound is a no-op if the round row already
// exists.
func (f *Finalizer) Finalize(ctx context.Context, snapshot Snapshot) error {
	round, err := f.awaitSlotHash(ctx, snapshot.RoundID)
	if err != nil {
		chainmetrics.PartialRounds.Inc()
		if saveErr := f.Store.SavePartialRound(snapshot.RoundID, err.Error()); saveErr != nil {
			finalizerLogger.Error("failed to record partial round", "round_id", snapshot.RoundID, "err", saveErr)
		}
		return err
	}

	rng := NewRNG(round.SlotHash)
	winningSquare := rng.WinningSquare()
	topMinerSample := rng.TopMinerSample(winningSquare)
	isSplit := rng.IsSplitReward()
	squareTotal := round.Deployed[winningSquare]

	winningMiners := winningMinersOnSquare(snapshot, winningSquare)
	var topMiner chainenc.Pubkey
	haveTopMiner := len(winningMiners) > 0
	if haveTopMiner {
		topMiner = winningMiners[topMinerSample%uint64(len(winningMiners))]
	}

	deploymentRows := make([]store.DeploymentRow, 0, len(snapshot.Deployments))
	for _, d := range snapshot.Deployments {
		isWinner := d.SquareID == winningSquare
		var solEarned, oreEarned uint64
		if isWinner && squareTotal > 0 {
			solEarned = proportionalShare(d.Amount, round.TotalWinnings, squareTotal)
			// DESIGN.md Open Question 1: ORE is credited through the same
			// per-square proportional accumulator as SOL, against the
			// treasury's current reward-pool-ore snapshot.
			oreEarned = proportionalShare(d.Amount, snapshot.Treasury.RewardPoolOre, squareTotal)
		}
		deploymentRows = append(deploymentRows, store.DeploymentRow{
			RoundID:      snapshot.RoundID,
			MinerPubkey:  d.MinerPubkey.String(),
			SquareID:     d.SquareID,
			Amount:       d.Amount,
			DeployedSlot: d.DeployedSlot,
			SolEarned:    solEarned,
			OreEarned:    oreEarned,
			IsWinner:     isWinner,
			IsTopMiner:   isWinner && haveTopMiner && d.MinerPubkey == topMiner,
		})
	}

	topMinerStr := ""
	if haveTopMiner {
		topMinerStr = topMiner.String()
	}

	roundRow := store.RoundRow{
		RoundID:          snapshot.RoundID,
		StartSlot:        snapshot.StartSlot,
		EndSlot:          snapshot.EndSlot,
		SlotHash:         round.SlotHash[:],
		WinningSquare:    winningSquare,
		RentPayer:        round.RentPayer.String(),
		TopMiner:         topMinerStr,
		TopMinerReward:   round.TopMinerReward,
		TotalDeployed:    round.TotalDeployed,
		TotalVaulted:     round.TotalVaulted,
		TotalWinnings:    round.TotalWinnings,
		Motherlode:       round.Motherlode,
		MotherlodeHit:    round.Motherlode > 0,
		TotalDeployments: uint32(len(deploymentRows)),
		UniqueMiners:     uint32(len(snapshot.Miners)),
		IsSplitReward:    isSplit,
		Source:           "live",
	}

	treasuryRow := store.TreasurySnapshotRow{
		RoundID:       snapshot.RoundID,
		TotalVaulted:  snapshot.Treasury.TotalVaulted,
		TotalWinnings: snapshot.Treasury.TotalWinnings,
		RewardPoolOre: snapshot.Treasury.RewardPoolOre,
	}

	minerRows := make([]store.MinerSnapshotRow, 0, len(snapshot.Miners))
	for pk, m := range snapshot.Miners {
		minerRows = append(minerRows, store.MinerSnapshotRow{
			RoundID:      snapshot.RoundID,
			MinerPubkey:  pk.String(),
			UnclaimedOre: m.RewardsOre,
			RefinedOre:   m.RefinedOre,
			LifetimeSol:  m.LifetimeSol,
			LifetimeOre:  m.LifetimeOre,
		})
	}

	if err := f.Store.SaveFinalizedRound(roundRow, treasuryRow, deploymentRows, minerRows); err != nil {
		return errors.Wrap(err, "save finalized round")
	}

	if f.Emitter != nil {
		f.Emitter.Emit("winning_square", "", map[string]interface{}{
			"round_id":       snapshot.RoundID,
			"winning_square": winningSquare,
			"motherlode_hit": roundRow.MotherlodeHit,
		})
	}
	return nil
}

func (f *Finalizer) awaitSlotHash(ctx context.Context, roundID uint64) (*chainenc.Round, error) {
	deadline := time.Now().Add(SlotHashRetryWindow)
	addr := f.RoundAddrForID(roundID)

	for {
		data, err := f.Client.GetAccountInfo(ctx, addr)
		if err == nil && data != nil {
			round, decErr := chainenc.DecodeRound(data)
			if decErr == nil && round.IsReset() {
				return round, nil
			}
		}
		if time.Now().After(deadline) {
			return nil, errors.Errorf("round %d still has no slot_hash after %s", roundID, SlotHashRetryWindow)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(SlotHashRetryInterval):
		}
	}
}

// winningMinersOnSquare returns every miner with a nonzero deploy on
// winningSquare, sorted by pubkey bytes. Go's map iteration order is
// randomized per call, so sorting is required: topMinerSample%len(...) in
// Finalize indexes into this slice to pick the top-miner authority, and
// that pick must be bit-exact and reproducible across retried Finalize
// calls over the identical snapshot (the on-chain derivation this mirrors
// iterates a deterministically-ordered collection).
func winningMinersOnSquare(snapshot Snapshot, winningSquare uint8) []chainenc.Pubkey {
	var out []chainenc.Pubkey
	for pk, m := range snapshot.Miners {
		if m.Deployed[winningSquare] > 0 {
			out = append(out, pk)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i][:], out[j][:]) < 0
	})
	return out
}

// proportionalShare computes amount*total/squareTotal with integer
// truncation (spec.md §4.6 step 4), widening the multiply to 128 bits via
// math/bits so a large treasury total can't overflow before the divide.
func proportionalShare(amount, total, squareTotal uint64) uint64 {
	if squareTotal == 0 {
		return 0
	}
	hi, lo := bits.Mul64(amount, total)
	q, _ := bits.Div64(hi, lo, squareTotal)
	return q
}
