package chainenc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testProgramID() Pubkey {
	var pk Pubkey
	for i := range pk {
		pk[i] = byte(i + 1)
	}
	return pk
}

func TestManagedMinerAuth_Deterministic(t *testing.T) {
	programID := testProgramID()
	var manager Pubkey
	manager[0] = 42

	a, bumpA, err := ManagedMinerAuth(manager, 7, programID)
	require.NoError(t, err)
	b, bumpB, err := ManagedMinerAuth(manager, 7, programID)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, bumpA, bumpB)
}

func TestManagedMinerAuth_DistinctAuthIDsDontCollide(t *testing.T) {
	programID := testProgramID()
	var manager Pubkey
	manager[0] = 42

	a, _, err := ManagedMinerAuth(manager, 1, programID)
	require.NoError(t, err)
	b, _, err := ManagedMinerAuth(manager, 2, programID)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestBoardRoundMinerTreasuryPDA_Deterministic(t *testing.T) {
	programID := testProgramID()

	board1, _, err := BoardPDA(programID)
	require.NoError(t, err)
	board2, _, err := BoardPDA(programID)
	require.NoError(t, err)
	assert.Equal(t, board1, board2)

	round1, _, err := RoundPDA(5, programID)
	require.NoError(t, err)
	round2, _, err := RoundPDA(6, programID)
	require.NoError(t, err)
	assert.NotEqual(t, round1, round2)

	miner1, _, err := MinerPDA(board1, programID)
	require.NoError(t, err)
	miner2, _, err := MinerPDA(board1, programID)
	require.NoError(t, err)
	assert.Equal(t, miner1, miner2)

	treasury, _, err := TreasuryPDA(programID)
	require.NoError(t, err)
	assert.NotEqual(t, board1, treasury)
}

func TestDeployerPDA_DeterministicAndPerManager(t *testing.T) {
	programID := testProgramID()
	var managerA, managerB Pubkey
	managerA[0] = 1
	managerB[0] = 2

	a1, bumpA1, err := DeployerPDA(managerA, programID)
	require.NoError(t, err)
	a2, bumpA2, err := DeployerPDA(managerA, programID)
	require.NoError(t, err)
	assert.Equal(t, a1, a2)
	assert.Equal(t, bumpA1, bumpA2)

	b, _, err := DeployerPDA(managerB, programID)
	require.NoError(t, err)
	assert.NotEqual(t, a1, b)
}

func TestParsePubkey_RoundTrip(t *testing.T) {
	pk := testProgramID()
	encoded := pk.String()
	decoded, err := ParsePubkey(encoded)
	require.NoError(t, err)
	assert.Equal(t, pk, decoded)
}

func TestParsePubkey_RejectsWrongLength(t *testing.T) {
	_, err := ParsePubkey("abc")
	assert.Error(t, err)
}
