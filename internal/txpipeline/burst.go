package txpipeline

import (
	"context"
	"time"

	"github.com/klaytn/boardrush/internal/chainenc"
	"github.com/klaytn/boardrush/internal/chainmetrics"
	"github.com/klaytn/boardrush/internal/strategy"
	"github.com/klaytn/boardrush/internal/txbuilder"
)

// BurstInterval is the fixed inter-send spacing within a burst (spec.md
// §4.3).
const BurstInterval = 100 * time.Millisecond

// BuildFunc builds one numbered copy of the deploy transaction for attempt.
type BuildFunc func(attempt uint32) (*chainenc.Transaction, error)

// SlotFunc reports the current slot, used to stop a burst early once the
// deploy window has closed.
type SlotFunc func() uint64

// BurstResult is one submitted copy's signature, or the build/submit error
// that kept it from being tracked.
type BurstResult struct {
	Attempt   uint32
	Signature string
	Err       error
}

// Burst submits s.BurstCopies() transaction copies at BurstInterval,
// stopping early if currentSlot reaches endSlot (spec.md §4.3). It performs
// no confirmation; callers pass the returned signatures to ConfirmAndReport.
func Burst(ctx context.Context, authority string, s strategy.Strategy, build BuildFunc, submit Submitter, currentSlot SlotFunc, endSlot uint64) []BurstResult {
	copies := s.BurstCopies()
	if copies < 1 {
		copies = 1
	}
	results := make([]BurstResult, 0, copies)

	for attempt := 0; attempt < copies; attempt++ {
		if endSlot != 0 && currentSlot() >= endSlot {
			pipelineLogger.Debug("stopping burst early, deploy window closed", "authority", authority, "sent", attempt)
			break
		}

		tx, err := build(uint32(attempt))
		if err != nil {
			results = append(results, BurstResult{Attempt: uint32(attempt), Err: err})
			continue
		}
		sig, err := submit.Submit(ctx, tx)
		chainmetrics.DeploysSent.WithLabelValues(authority).Inc()
		results = append(results, BurstResult{Attempt: uint32(attempt), Signature: sig, Err: err})

		if attempt < copies-1 {
			select {
			case <-ctx.Done():
				return results
			case <-time.After(BurstInterval):
			}
		}
	}
	return results
}

// DeployBuildFunc adapts txbuilder.BuildDeploy into a BuildFunc bound to a
// fixed signer/accounts/strategy/blockhash tuple, varying only attempt.
func DeployBuildFunc(signer txbuilder.Signer, acc txbuilder.Accounts, s strategy.Strategy, recentBlockhash chainenc.Blockhash, fees txbuilder.Fees) BuildFunc {
	return func(attempt uint32) (*chainenc.Transaction, error) {
		return txbuilder.BuildDeploy(signer, acc, s, attempt, [32]byte(recentBlockhash), fees)
	}
}
