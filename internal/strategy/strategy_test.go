package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEV_EncodeDecodeStrategyData_RoundTrip(t *testing.T) {
	ev := EV{Bankroll: 1000, MaxPerSquare: 200, MinBet: 10, OreValue: 5, SlotsLeft: 50, Attempts: 3}
	data := ev.Encode(2)
	got, err := DecodeStrategyData(data)
	require.NoError(t, err)
	decoded, ok := got.(EV)
	require.True(t, ok)
	assert.Equal(t, ev.Bankroll, decoded.Bankroll)
	assert.Equal(t, uint64(2), decoded.Attempts) // Encode's attempt arg overrides the struct's own
}

func TestPercentage_EncodeDecodeStrategyData_RoundTrip(t *testing.T) {
	p := Percentage{Bankroll: 5000, PercentageBps: 2500, SquaresCount: 10}
	got, err := DecodeStrategyData(p.Encode(0))
	require.NoError(t, err)
	decoded, ok := got.(Percentage)
	require.True(t, ok)
	assert.Equal(t, p, decoded)
}

func TestManual_EncodeDecodeStrategyData_RoundTrip(t *testing.T) {
	var amounts [25]uint64
	for i := range amounts {
		amounts[i] = uint64(i) * 7
	}
	m := Manual{Amounts: amounts}
	got, err := DecodeStrategyData(m.Encode(0))
	require.NoError(t, err)
	decoded, ok := got.(Manual)
	require.True(t, ok)
	assert.Equal(t, m, decoded)
}

func TestSplit_EncodeDecodeStrategyData_RoundTrip(t *testing.T) {
	s := Split{Amount: 999}
	got, err := DecodeStrategyData(s.Encode(0))
	require.NoError(t, err)
	decoded, ok := got.(Split)
	require.True(t, ok)
	assert.Equal(t, s, decoded)
}

func TestEV_BurstCopies(t *testing.T) {
	assert.Equal(t, 1, EV{Attempts: 0}.BurstCopies())
	assert.Equal(t, 5, EV{Attempts: 5}.BurstCopies())
}

func TestNonEVStrategies_AlwaysOneBurstCopy(t *testing.T) {
	assert.Equal(t, 1, Percentage{}.BurstCopies())
	assert.Equal(t, 1, Manual{}.BurstCopies())
	assert.Equal(t, 1, Split{}.BurstCopies())
}
