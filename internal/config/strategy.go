package config

import (
	"fmt"

	"github.com/klaytn/boardrush/internal/strategy"
)

// BuildStrategy instantiates the configured deploy strategy variant.
func (s StrategyConfig) BuildStrategy() (strategy.Strategy, error) {
	switch s.Kind {
	case "ev":
		return strategy.EV{
			Bankroll: s.Bankroll, MaxPerSquare: s.MaxPerSquare, MinBet: s.MinBet,
			OreValue: s.OreValue, SlotsLeft: s.SlotsLeft, Attempts: s.Attempts,
		}, nil
	case "percentage":
		return strategy.Percentage{Bankroll: s.Bankroll, PercentageBps: s.PercentageBps, SquaresCount: s.SquaresCount}, nil
	case "manual":
		var amounts [25]uint64
		copy(amounts[:], s.ManualAmounts)
		return strategy.Manual{Amounts: amounts}, nil
	case "split":
		return strategy.Split{Amount: s.SplitAmount}, nil
	default:
		return nil, fmt.Errorf("config: unknown strategy kind %q", s.Kind)
	}
}
