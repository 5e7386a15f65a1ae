// Package strategy defines the deploy-strategy tagged variant (spec.md §3)
// as a Go sum type: one struct per variant and a shared interface through
// which instruction encoding and burst sizing dispatch; DecodeStrategyData
// switches on the discriminant byte to rebuild a variant. This mirrors the teacher's own
// tagged-transaction-type idiom (blockchain/types/tx_internal_data_*.go:
// one Go type per on-chain transaction kind, driven through a shared
// TxType discriminant).
package strategy

import (
	"fmt"

	"github.com/klaytn/boardrush/internal/chainenc"
)

// Strategy is implemented by each of the four deploy-strategy variants.
type Strategy interface {
	// BurstCopies is the number of transaction copies the pipeline should
	// fire for this strategy (spec.md §4.3): 1 for Percentage/Manual/Split,
	// >= 1 for EV.
	BurstCopies() int
	// Encode produces the nested 256-byte strategy buffer for copy number
	// `attempt` (EV varies its attempts field per copy; the others are
	// attempt-invariant since a single copy is sent). The caller wraps this
	// in chainenc.EncodeMMDeploy to get the full instruction payload.
	Encode(attempt uint32) [256]byte
	isStrategy()
}

// EV is the expected-value strategy: deploy a bankroll across squares,
// bounded per-square and by a minimum bet, retried up to `Attempts` times
// within one round's deploy window.
type EV struct {
	Bankroll     uint64
	MaxPerSquare uint64
	MinBet       uint64
	OreValue     uint64
	SlotsLeft    uint64
	Attempts     uint64
}

func (e EV) isStrategy() {}

func (e EV) BurstCopies() int {
	if e.Attempts == 0 {
		return 1
	}
	return int(e.Attempts)
}

func (e EV) Encode(attempt uint32) [256]byte {
	return chainenc.EncodeStrategyEV(e.Bankroll, e.MaxPerSquare, e.MinBet, e.OreValue, e.SlotsLeft, uint64(attempt))
}

// Percentage deploys a fixed percentage of bankroll spread across a chosen
// number of squares.
type Percentage struct {
	Bankroll      uint64
	PercentageBps uint16
	SquaresCount  uint8
}

func (p Percentage) isStrategy()    {}
func (p Percentage) BurstCopies() int { return 1 }
func (p Percentage) Encode(uint32) [256]byte {
	return chainenc.EncodeStrategyPercentage(p.Bankroll, uint64(p.PercentageBps), uint64(p.SquaresCount))
}

// Manual deploys an explicit lamport amount per square. This repo
// implements only the explicit Manual variant named by the on-chain
// encoding; a legacy bot path that falls back to EV instead of Manual is
// not reproduced here (see DESIGN.md's Open Question notes).
type Manual struct {
	Amounts [25]uint64
}

func (m Manual) isStrategy()      {}
func (m Manual) BurstCopies() int { return 1 }
func (m Manual) Encode(uint32) [256]byte {
	return chainenc.EncodeStrategyManual(m.Amounts)
}

// Split deploys a single lamport total, divided equally across all 25
// squares by the on-chain program.
type Split struct {
	Amount uint64
}

func (s Split) isStrategy()      {}
func (s Split) BurstCopies() int { return 1 }
func (s Split) Encode(uint32) [256]byte {
	return chainenc.EncodeStrategySplit(s.Amount)
}

// DecodeStrategyData inspects the discriminant byte of a decoded MMDeploy's
// nested strategy buffer and returns the matching Strategy, used by
// round-trip tests (spec.md §8: "Encoding an MMDeploy payload then decoding
// it yields the identical DeployStrategy").
func DecodeStrategyData(data [256]byte) (Strategy, error) {
	switch data[0] {
	case chainenc.StrategyEV:
		bankroll, maxPerSquare, minBet, oreValue, slotsLeft, attempts, err := chainenc.DecodeStrategyEV(data)
		if err != nil {
			return nil, err
		}
		return EV{
			Bankroll: bankroll, MaxPerSquare: maxPerSquare, MinBet: minBet,
			OreValue: oreValue, SlotsLeft: slotsLeft, Attempts: attempts,
		}, nil
	case chainenc.StrategyPercentage:
		bankroll, bps, squares, err := chainenc.DecodeStrategyPercentage(data)
		if err != nil {
			return nil, err
		}
		return Percentage{Bankroll: bankroll, PercentageBps: uint16(bps), SquaresCount: uint8(squares)}, nil
	case chainenc.StrategyManual:
		amounts, err := chainenc.DecodeStrategyManual(data)
		if err != nil {
			return nil, err
		}
		return Manual{Amounts: amounts}, nil
	case chainenc.StrategySplit:
		amount, err := chainenc.DecodeStrategySplit(data)
		if err != nil {
			return nil, err
		}
		return Split{Amount: amount}, nil
	default:
		return nil, fmt.Errorf("unknown deploy strategy discriminant byte %d", data[0])
	}
}
