package config

import (
	"testing"

	"github.com/klaytn/boardrush/internal/strategy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildStrategy_EV(t *testing.T) {
	s, err := StrategyConfig{Kind: "ev", Bankroll: 1000, Attempts: 3}.BuildStrategy()
	require.NoError(t, err)
	ev, ok := s.(strategy.EV)
	require.True(t, ok)
	assert.Equal(t, uint64(1000), ev.Bankroll)
	assert.Equal(t, uint64(3), ev.Attempts)
}

func TestBuildStrategy_Percentage(t *testing.T) {
	s, err := StrategyConfig{Kind: "percentage", Bankroll: 5000, PercentageBps: 2500, SquaresCount: 10}.BuildStrategy()
	require.NoError(t, err)
	p, ok := s.(strategy.Percentage)
	require.True(t, ok)
	assert.Equal(t, uint16(2500), p.PercentageBps)
}

func TestBuildStrategy_Manual(t *testing.T) {
	s, err := StrategyConfig{Kind: "manual", ManualAmounts: []uint64{1, 2, 3}}.BuildStrategy()
	require.NoError(t, err)
	m, ok := s.(strategy.Manual)
	require.True(t, ok)
	assert.Equal(t, uint64(1), m.Amounts[0])
	assert.Equal(t, uint64(3), m.Amounts[2])
	assert.Equal(t, uint64(0), m.Amounts[24])
}

func TestBuildStrategy_Split(t *testing.T) {
	s, err := StrategyConfig{Kind: "split", SplitAmount: 42}.BuildStrategy()
	require.NoError(t, err)
	sp, ok := s.(strategy.Split)
	require.True(t, ok)
	assert.Equal(t, uint64(42), sp.Amount)
}

func TestBuildStrategy_UnknownKindErrors(t *testing.T) {
	_, err := StrategyConfig{Kind: "bogus"}.BuildStrategy()
	assert.Error(t, err)
}
