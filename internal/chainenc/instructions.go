package chainenc

import (
	"encoding/binary"
	"fmt"
)

// Outer instruction discriminant bytes, fixed by the on-chain program's
// Instructions enum (original_source/program/src/instruction.rs).
const (
	DiscCreateManager byte = 0
	DiscMMDeploy      byte = 1
	DiscMMCheckpoint  byte = 2
	DiscMMClaimSol    byte = 3
	DiscMMClaimOre    byte = 4
	// DiscMMAutodeploy is not declared in the retrieved instruction.rs (only
	// discriminants 0-4 are listed there), but
	// processor/process_mm_autodeploy.rs in the same pack proves a fifth
	// instruction variant exists and decodes an MMAutodeploy payload; 5 is
	// the next free value in the same Instructions enum.
	DiscMMAutodeploy byte = 5
)

// Strategy discriminants, nested inside MMDeploy's fixed 256-byte data
// buffer (original_source/program/src/instruction.rs's DeployStrategy enum
// discriminant() method).
const (
	StrategyEV         byte = 0
	StrategyPercentage byte = 1
	StrategyManual     byte = 2
	StrategySplit      byte = 3
)

// strategyDataLen is the fixed size of MMDeploy's nested strategy buffer.
const strategyDataLen = 256

// mmDeployBodyLen is auth_id(8) + bump(1) + allow_multi_deploy(1) + _pad(6)
// + data(256), matching instruction.rs's MMDeploy Pod struct exactly.
const mmDeployBodyLen = 8 + 1 + 1 + 6 + strategyDataLen

// AccountMeta is one account reference inside an instruction.
type AccountMeta struct {
	Pubkey     Pubkey
	IsSigner   bool
	IsWritable bool
}

// Instruction is a single on-chain instruction: a target program, the
// accounts it touches, and its opaque encoded payload.
type Instruction struct {
	ProgramID Pubkey
	Accounts  []AccountMeta
	Data      []byte
}

// buildStrategyData lays out one DeployStrategy variant's 256-byte buffer:
// byte 0 is the strategy discriminant, fill writes the variant's own fields
// starting at offset 1.
func buildStrategyData(discriminant byte, fill func(body []byte)) [strategyDataLen]byte {
	var data [strategyDataLen]byte
	data[0] = discriminant
	fill(data[1:])
	return data
}

// EncodeStrategyEV lays out the EV variant: bankroll, max_per_square,
// min_bet, ore_value, slots_left, attempts -- each a little-endian u64, in
// that order (instruction.rs's MMDeploy::new match arm). attempts must vary
// per retransmitted copy of "the same" logical deploy (spec.md §4.2) so
// that otherwise-identical instructions produce distinct signatures.
func EncodeStrategyEV(bankroll, maxPerSquare, minBet, oreValue, slotsLeft, attempts uint64) [strategyDataLen]byte {
	return buildStrategyData(StrategyEV, func(b []byte) {
		off := 0
		for _, v := range []uint64{bankroll, maxPerSquare, minBet, oreValue, slotsLeft, attempts} {
			binary.LittleEndian.PutUint64(b[off:], v)
			off += 8
		}
	})
}

// DecodeStrategyEV is the inverse of EncodeStrategyEV.
func DecodeStrategyEV(data [strategyDataLen]byte) (bankroll, maxPerSquare, minBet, oreValue, slotsLeft, attempts uint64, err error) {
	if data[0] != StrategyEV {
		return 0, 0, 0, 0, 0, 0, fmt.Errorf("not an EV strategy buffer")
	}
	vals := make([]uint64, 6)
	off := 1
	for i := range vals {
		vals[i] = binary.LittleEndian.Uint64(data[off:])
		off += 8
	}
	return vals[0], vals[1], vals[2], vals[3], vals[4], vals[5], nil
}

// EncodeStrategyPercentage lays out the Percentage variant: bankroll,
// percentage (basis points), squares_count -- each a little-endian u64,
// widened from this repo's narrower domain types (percentageBps fits a
// u16, squaresCount a u8) since the on-chain field width is u64 regardless.
func EncodeStrategyPercentage(bankroll uint64, percentageBps, squaresCount uint64) [strategyDataLen]byte {
	return buildStrategyData(StrategyPercentage, func(b []byte) {
		binary.LittleEndian.PutUint64(b[0:], bankroll)
		binary.LittleEndian.PutUint64(b[8:], percentageBps)
		binary.LittleEndian.PutUint64(b[16:], squaresCount)
	})
}

// DecodeStrategyPercentage is the inverse of EncodeStrategyPercentage.
func DecodeStrategyPercentage(data [strategyDataLen]byte) (bankroll, percentageBps, squaresCount uint64, err error) {
	if data[0] != StrategyPercentage {
		return 0, 0, 0, fmt.Errorf("not a Percentage strategy buffer")
	}
	return binary.LittleEndian.Uint64(data[1:]), binary.LittleEndian.Uint64(data[9:]), binary.LittleEndian.Uint64(data[17:]), nil
}

// EncodeStrategyManual lays out the Manual variant: 25 x u64 lamport
// amounts, one per square.
func EncodeStrategyManual(amounts [numSquares]uint64) [strategyDataLen]byte {
	return buildStrategyData(StrategyManual, func(b []byte) {
		off := 0
		for _, a := range amounts {
			binary.LittleEndian.PutUint64(b[off:], a)
			off += 8
		}
	})
}

// DecodeStrategyManual is the inverse of EncodeStrategyManual.
func DecodeStrategyManual(data [strategyDataLen]byte) (amounts [numSquares]uint64, err error) {
	if data[0] != StrategyManual {
		return amounts, fmt.Errorf("not a Manual strategy buffer")
	}
	off := 1
	for i := range amounts {
		amounts[i] = binary.LittleEndian.Uint64(data[off:])
		off += 8
	}
	return amounts, nil
}

// EncodeStrategySplit lays out the Split variant: amount, divided equally
// across 25 squares on-chain.
func EncodeStrategySplit(amount uint64) [strategyDataLen]byte {
	return buildStrategyData(StrategySplit, func(b []byte) {
		binary.LittleEndian.PutUint64(b[0:], amount)
	})
}

// DecodeStrategySplit is the inverse of EncodeStrategySplit.
func DecodeStrategySplit(data [strategyDataLen]byte) (amount uint64, err error) {
	if data[0] != StrategySplit {
		return 0, fmt.Errorf("not a Split strategy buffer")
	}
	return binary.LittleEndian.Uint64(data[1:]), nil
}

// EncodeMMDeploy wraps a strategy buffer in the MMDeploy instruction
// envelope: a leading outer discriminant byte, then auth_id, bump,
// allow_multi_deploy, 6 bytes of padding, and the 256-byte strategy data,
// matching instruction.rs's MMDeploy Pod struct field-for-field. auth_id
// and bump let the on-chain program locate and authorize the managed-miner
// PDA; allow_multi_deploy lets a caller permit more than one deploy per
// round for this authority.
func EncodeMMDeploy(authID uint64, bump uint8, allowMultiDeploy bool, strategyData [strategyDataLen]byte) []byte {
	buf := make([]byte, 1+mmDeployBodyLen)
	buf[0] = DiscMMDeploy
	off := 1
	binary.LittleEndian.PutUint64(buf[off:], authID)
	off += 8
	buf[off] = bump
	off++
	if allowMultiDeploy {
		buf[off] = 1
	}
	off++
	off += 6 // _pad, left zero
	copy(buf[off:], strategyData[:])
	return buf
}

// DecodeMMDeploy is the inverse of EncodeMMDeploy.
func DecodeMMDeploy(data []byte) (authID uint64, bump uint8, allowMultiDeploy bool, strategyData [strategyDataLen]byte, err error) {
	if len(data) < 1+mmDeployBodyLen || data[0] != DiscMMDeploy {
		return 0, 0, false, strategyData, fmt.Errorf("not an MMDeploy instruction")
	}
	off := 1
	authID = binary.LittleEndian.Uint64(data[off:])
	off += 8
	bump = data[off]
	off++
	allowMultiDeploy = data[off] != 0
	off++
	off += 6
	copy(strategyData[:], data[off:off+strategyDataLen])
	return authID, bump, allowMultiDeploy, strategyData, nil
}

// EncodeCheckpoint encodes MMCheckpoint{auth_id, bump}. round_id is not
// part of the payload: the program recovers it from the round account the
// caller already passed in as an account meta (instruction.rs's
// mm_checkpoint derives round_address client-side for exactly this reason).
func EncodeCheckpoint(authID uint64, bump uint8) []byte {
	buf := make([]byte, 1+8+1)
	buf[0] = DiscMMCheckpoint
	binary.LittleEndian.PutUint64(buf[1:], authID)
	buf[9] = bump
	return buf
}

// DecodeCheckpoint is the inverse of EncodeCheckpoint.
func DecodeCheckpoint(data []byte) (authID uint64, bump uint8, err error) {
	if len(data) < 10 || data[0] != DiscMMCheckpoint {
		return 0, 0, fmt.Errorf("not a checkpoint instruction")
	}
	return binary.LittleEndian.Uint64(data[1:]), data[9], nil
}

// EncodeClaimSol encodes MMClaimSOL{auth_id, bump}.
func EncodeClaimSol(authID uint64, bump uint8) []byte {
	buf := make([]byte, 1+8+1)
	buf[0] = DiscMMClaimSol
	binary.LittleEndian.PutUint64(buf[1:], authID)
	buf[9] = bump
	return buf
}

// DecodeClaimSol is the inverse of EncodeClaimSol.
func DecodeClaimSol(data []byte) (authID uint64, bump uint8, err error) {
	if len(data) < 10 || data[0] != DiscMMClaimSol {
		return 0, 0, fmt.Errorf("not a claim_sol instruction")
	}
	return binary.LittleEndian.Uint64(data[1:]), data[9], nil
}

// EncodeClaimOre encodes MMClaimORE{auth_id, bump}.
func EncodeClaimOre(authID uint64, bump uint8) []byte {
	buf := make([]byte, 1+8+1)
	buf[0] = DiscMMClaimOre
	binary.LittleEndian.PutUint64(buf[1:], authID)
	buf[9] = bump
	return buf
}

// DecodeClaimOre is the inverse of EncodeClaimOre.
func DecodeClaimOre(data []byte) (authID uint64, bump uint8, err error) {
	if len(data) < 10 || data[0] != DiscMMClaimOre {
		return 0, 0, fmt.Errorf("not a claim_ore instruction")
	}
	return binary.LittleEndian.Uint64(data[1:]), data[9], nil
}

// EncodeAutodeploy encodes the crank's MMAutodeploy payload: auth_id,
// amount, squares_mask, expected_bps_fee, expected_flat_fee (each a
// little-endian wide field per processor/process_mm_autodeploy.rs's
// accessors), followed by deployer_bump, autodeploy_balance_bump, and the
// managed-miner-auth bump, the three PDA proofs that processor re-derives
// and checks against the supplied account metas. Carrying the expected
// bps/flat fee lets the on-chain program reject fee tampering between the
// crank reading a Deployer account and submitting the autodeploy.
func EncodeAutodeploy(authID, amount uint64, squaresMask uint32, expectedBpsFee, expectedFlatFee uint64, deployerBump, autodeployBalanceBump, bump uint8) []byte {
	const bodyLen = 8 + 8 + 4 + 8 + 8 + 1 + 1 + 1
	buf := make([]byte, 1+bodyLen)
	buf[0] = DiscMMAutodeploy
	off := 1
	binary.LittleEndian.PutUint64(buf[off:], authID)
	off += 8
	binary.LittleEndian.PutUint64(buf[off:], amount)
	off += 8
	binary.LittleEndian.PutUint32(buf[off:], squaresMask)
	off += 4
	binary.LittleEndian.PutUint64(buf[off:], expectedBpsFee)
	off += 8
	binary.LittleEndian.PutUint64(buf[off:], expectedFlatFee)
	off += 8
	buf[off] = deployerBump
	off++
	buf[off] = autodeployBalanceBump
	off++
	buf[off] = bump
	return buf
}

// DecodeAutodeploy is the inverse of EncodeAutodeploy.
func DecodeAutodeploy(data []byte) (authID, amount uint64, squaresMask uint32, expectedBpsFee, expectedFlatFee uint64, deployerBump, autodeployBalanceBump, bump uint8, err error) {
	const bodyLen = 8 + 8 + 4 + 8 + 8 + 1 + 1 + 1
	if len(data) < 1+bodyLen || data[0] != DiscMMAutodeploy {
		return 0, 0, 0, 0, 0, 0, 0, 0, fmt.Errorf("not an autodeploy instruction")
	}
	off := 1
	authID = binary.LittleEndian.Uint64(data[off:])
	off += 8
	amount = binary.LittleEndian.Uint64(data[off:])
	off += 8
	squaresMask = binary.LittleEndian.Uint32(data[off:])
	off += 4
	expectedBpsFee = binary.LittleEndian.Uint64(data[off:])
	off += 8
	expectedFlatFee = binary.LittleEndian.Uint64(data[off:])
	off += 8
	deployerBump = data[off]
	off++
	autodeployBalanceBump = data[off]
	off++
	bump = data[off]
	return authID, amount, squaresMask, expectedBpsFee, expectedFlatFee, deployerBump, autodeployBalanceBump, bump, nil
}

// PopCount returns the number of squares selected by a squares mask, used
// by the crank to size required lamports (spec.md §4.5).
func PopCount(mask uint32) int {
	count := 0
	for mask != 0 {
		count++
		mask &= mask - 1
	}
	return count
}
