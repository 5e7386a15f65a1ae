package chainenc

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeStrategyEV_RoundTrip(t *testing.T) {
	data := EncodeStrategyEV(1000, 200, 10, 5, 50, 3)
	bankroll, maxPerSquare, minBet, oreValue, slotsLeft, attempts, err := DecodeStrategyEV(data)
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), bankroll)
	assert.Equal(t, uint64(200), maxPerSquare)
	assert.Equal(t, uint64(10), minBet)
	assert.Equal(t, uint64(5), oreValue)
	assert.Equal(t, uint64(50), slotsLeft)
	assert.Equal(t, uint64(3), attempts)
}

func TestEncodeStrategyEV_AttemptsVaryPerCopy(t *testing.T) {
	a := EncodeStrategyEV(1000, 200, 10, 5, 50, 1)
	b := EncodeStrategyEV(1000, 200, 10, 5, 50, 2)
	assert.NotEqual(t, a, b)
}

func TestEncodeDecodeStrategyPercentage_RoundTrip(t *testing.T) {
	data := EncodeStrategyPercentage(5000, 2500, 10)
	bankroll, bps, squares, err := DecodeStrategyPercentage(data)
	require.NoError(t, err)
	assert.Equal(t, uint64(5000), bankroll)
	assert.Equal(t, uint64(2500), bps)
	assert.Equal(t, uint64(10), squares)
}

func TestEncodeDecodeStrategyManual_RoundTrip(t *testing.T) {
	var amounts [numSquares]uint64
	for i := range amounts {
		amounts[i] = uint64(i) * 100
	}
	data := EncodeStrategyManual(amounts)
	got, err := DecodeStrategyManual(data)
	require.NoError(t, err)
	assert.Equal(t, amounts, got)
}

func TestEncodeDecodeStrategySplit_RoundTrip(t *testing.T) {
	data := EncodeStrategySplit(123456)
	amount, err := DecodeStrategySplit(data)
	require.NoError(t, err)
	assert.Equal(t, uint64(123456), amount)
}

func TestDecodeStrategyEV_RejectsWrongDiscriminant(t *testing.T) {
	data := EncodeStrategySplit(1)
	_, _, _, _, _, _, err := DecodeStrategyEV(data)
	assert.Error(t, err)
}

// TestEncodeMMDeploy_MatchesOriginalLayout pins the wrapped instruction's
// byte offsets to instruction.rs's MMDeploy struct: auth_id(8) at offset 1,
// bump at 9, allow_multi_deploy at 10, 6 bytes of padding, then the 256-byte
// strategy buffer starting at offset 17 -- not just a round trip against our
// own encoder.
func TestEncodeMMDeploy_MatchesOriginalLayout(t *testing.T) {
	strategyData := EncodeStrategySplit(42)
	data := EncodeMMDeploy(0x0102030405060708, 200, true, strategyData)

	require.Len(t, data, 1+mmDeployBodyLen)
	assert.Equal(t, DiscMMDeploy, data[0])
	assert.Equal(t, uint64(0x0102030405060708), binary.LittleEndian.Uint64(data[1:9]))
	assert.Equal(t, uint8(200), data[9])
	assert.Equal(t, uint8(1), data[10])
	for _, b := range data[11:17] {
		assert.Equal(t, byte(0), b)
	}
	assert.Equal(t, strategyData[:], data[17:17+strategyDataLen])
}

func TestEncodeDecodeMMDeploy_RoundTrip(t *testing.T) {
	strategyData := EncodeStrategyEV(1, 2, 3, 4, 5, 6)
	data := EncodeMMDeploy(99, 254, false, strategyData)

	authID, bump, allowMulti, gotStrategy, err := DecodeMMDeploy(data)
	require.NoError(t, err)
	assert.Equal(t, uint64(99), authID)
	assert.Equal(t, uint8(254), bump)
	assert.False(t, allowMulti)
	assert.Equal(t, strategyData, gotStrategy)
}

func TestEncodeDecodeCheckpoint_RoundTrip(t *testing.T) {
	data := EncodeCheckpoint(42, 250)
	assert.Equal(t, DiscMMCheckpoint, data[0])
	authID, bump, err := DecodeCheckpoint(data)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), authID)
	assert.Equal(t, uint8(250), bump)
}

func TestEncodeDecodeClaimSol_RoundTrip(t *testing.T) {
	data := EncodeClaimSol(42, 251)
	assert.Equal(t, DiscMMClaimSol, data[0])
	authID, bump, err := DecodeClaimSol(data)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), authID)
	assert.Equal(t, uint8(251), bump)
}

func TestEncodeDecodeClaimOre_RoundTrip(t *testing.T) {
	data := EncodeClaimOre(42, 252)
	assert.Equal(t, DiscMMClaimOre, data[0])
	authID, bump, err := DecodeClaimOre(data)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), authID)
	assert.Equal(t, uint8(252), bump)
}

func TestEncodeDecodeAutodeploy_RoundTrip(t *testing.T) {
	data := EncodeAutodeploy(7, 9000, 0x1FFFFFF, 250, 1000, 251, 252, 253)
	assert.Equal(t, DiscMMAutodeploy, data[0])
	authID, amount, mask, bpsFee, flatFee, deployerBump, autodeployBalanceBump, bump, err := DecodeAutodeploy(data)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), authID)
	assert.Equal(t, uint64(9000), amount)
	assert.Equal(t, uint32(0x1FFFFFF), mask)
	assert.Equal(t, uint64(250), bpsFee)
	assert.Equal(t, uint64(1000), flatFee)
	assert.Equal(t, uint8(251), deployerBump)
	assert.Equal(t, uint8(252), autodeployBalanceBump)
	assert.Equal(t, uint8(253), bump)
}

func TestPopCount(t *testing.T) {
	assert.Equal(t, 0, PopCount(0))
	assert.Equal(t, 25, PopCount(0x1FFFFFF))
	assert.Equal(t, 1, PopCount(1<<10))
}
