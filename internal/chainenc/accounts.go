package chainenc

import (
	"encoding/binary"
	"fmt"
)

// MaxEndSlot marks a board whose round has not yet opened (spec.md §3).
const MaxEndSlot = ^uint64(0)

const numSquares = 25

// Board mirrors the on-chain 32-byte layout: round_id | start_slot |
// end_slot | epoch_id, all little-endian u64.
type Board struct {
	RoundID   uint64
	StartSlot uint64
	EndSlot   uint64
	EpochID   uint64
}

const boardLen = 8 * 4

// DecodeBoard parses the fixed 32-byte Board account.
func DecodeBoard(data []byte) (*Board, error) {
	if len(data) < boardLen {
		return nil, fmt.Errorf("board account: want >= %d bytes, got %d", boardLen, len(data))
	}
	return &Board{
		RoundID:   binary.LittleEndian.Uint64(data[0:8]),
		StartSlot: binary.LittleEndian.Uint64(data[8:16]),
		EndSlot:   binary.LittleEndian.Uint64(data[16:24]),
		EpochID:   binary.LittleEndian.Uint64(data[24:32]),
	}, nil
}

// Round mirrors the on-chain Round account layout from spec.md §6.
type Round struct {
	ID              uint64
	Deployed        [numSquares]uint64
	SlotHash        [32]byte
	Count           [numSquares]uint64
	ExpiresAt       uint64
	Motherlode      uint64
	RentPayer       Pubkey
	TopMiner        Pubkey
	TopMinerReward  uint64
	TotalDeployed   uint64
	TotalMiners     uint64
	TotalVaulted    uint64
	TotalWinnings   uint64
}

const roundLen = 8 + numSquares*8 + 32 + numSquares*8 + 8 + 8 + 32 + 32 + 8 + 8 + 8 + 8 + 8

// DecodeRound parses the fixed-layout Round account.
func DecodeRound(data []byte) (*Round, error) {
	if len(data) < roundLen {
		return nil, fmt.Errorf("round account: want >= %d bytes, got %d", roundLen, len(data))
	}
	var r Round
	off := 0
	r.ID = binary.LittleEndian.Uint64(data[off:])
	off += 8
	for i := 0; i < numSquares; i++ {
		r.Deployed[i] = binary.LittleEndian.Uint64(data[off:])
		off += 8
	}
	copy(r.SlotHash[:], data[off:off+32])
	off += 32
	for i := 0; i < numSquares; i++ {
		r.Count[i] = binary.LittleEndian.Uint64(data[off:])
		off += 8
	}
	r.ExpiresAt = binary.LittleEndian.Uint64(data[off:])
	off += 8
	r.Motherlode = binary.LittleEndian.Uint64(data[off:])
	off += 8
	copy(r.RentPayer[:], data[off:off+32])
	off += 32
	copy(r.TopMiner[:], data[off:off+32])
	off += 32
	r.TopMinerReward = binary.LittleEndian.Uint64(data[off:])
	off += 8
	r.TotalDeployed = binary.LittleEndian.Uint64(data[off:])
	off += 8
	r.TotalMiners = binary.LittleEndian.Uint64(data[off:])
	off += 8
	r.TotalVaulted = binary.LittleEndian.Uint64(data[off:])
	off += 8
	r.TotalWinnings = binary.LittleEndian.Uint64(data[off:])
	return &r, nil
}

// IsReset reports whether the round has been finalized (slot_hash populated).
func (r *Round) IsReset() bool {
	for _, b := range r.SlotHash {
		if b != 0 {
			return true
		}
	}
	return false
}

// Miner mirrors spec.md §3's Miner account.
type Miner struct {
	Authority      Pubkey
	Deployed       [numSquares]uint64
	Cumulative     [numSquares]uint64
	CheckpointFee  uint64
	CheckpointID   uint64
	RewardsSol     uint64
	RewardsOre     uint64
	RefinedOre     uint64
	RoundID        uint64 // last played
	LifetimeDeploys uint64
	LifetimeWins    uint64
	LifetimeSol     uint64
	LifetimeOre     uint64
}

const minerLen = 32 + numSquares*8 + numSquares*8 + 8 + 8 + 8 + 8 + 8 + 8 + 8 + 8 + 8 + 8

// MinerAccountLen is minerLen exported for callers that need to filter
// getProgramAccounts scans by exact account size (e.g. the stats core
// enumerating every Miner account program-wide).
const MinerAccountLen = minerLen

// DecodeMiner parses the fixed-layout Miner account.
func DecodeMiner(data []byte) (*Miner, error) {
	if len(data) < minerLen {
		return nil, fmt.Errorf("miner account: want >= %d bytes, got %d", minerLen, len(data))
	}
	var m Miner
	off := 0
	copy(m.Authority[:], data[off:off+32])
	off += 32
	for i := 0; i < numSquares; i++ {
		m.Deployed[i] = binary.LittleEndian.Uint64(data[off:])
		off += 8
	}
	for i := 0; i < numSquares; i++ {
		m.Cumulative[i] = binary.LittleEndian.Uint64(data[off:])
		off += 8
	}
	fields := []*uint64{
		&m.CheckpointFee, &m.CheckpointID, &m.RewardsSol, &m.RewardsOre,
		&m.RefinedOre, &m.RoundID, &m.LifetimeDeploys, &m.LifetimeWins,
		&m.LifetimeSol, &m.LifetimeOre,
	}
	for _, f := range fields {
		*f = binary.LittleEndian.Uint64(data[off:])
		off += 8
	}
	return &m, nil
}

// TotalDeployedThisRound sums a miner's deployment across all squares.
func (m *Miner) TotalDeployedThisRound() uint64 {
	var total uint64
	for _, v := range m.Deployed {
		total += v
	}
	return total
}

// Deployer mirrors spec.md §3's crank-only Deployer grant.
type Deployer struct {
	ManagerKey     Pubkey
	DeployAuthority Pubkey
	BpsFee         uint16
	FlatFee        uint64
}

const deployerLen = 32 + 32 + 2 + 8

// DecodeDeployer parses the fixed-layout Deployer account.
func DecodeDeployer(data []byte) (*Deployer, error) {
	if len(data) < deployerLen {
		return nil, fmt.Errorf("deployer account: want >= %d bytes, got %d", deployerLen, len(data))
	}
	var d Deployer
	off := 0
	copy(d.ManagerKey[:], data[off:off+32])
	off += 32
	copy(d.DeployAuthority[:], data[off:off+32])
	off += 32
	d.BpsFee = binary.LittleEndian.Uint16(data[off:])
	off += 2
	d.FlatFee = binary.LittleEndian.Uint64(data[off:])
	return &d, nil
}

// Treasury, Config, Manager, and Automation are treated as opaque
// length-prefixed records per spec.md §6, except for the handful of fields
// the crank (§4.5) and finalizer (§4.6) actually read.
type Treasury struct {
	TotalVaulted  uint64
	TotalWinnings uint64
	RewardPoolOre uint64
}

const treasuryLen = 8 + 8 + 8

// DecodeTreasury parses the fields of Treasury that this repo consumes.
func DecodeTreasury(data []byte) (*Treasury, error) {
	if len(data) < treasuryLen {
		return nil, fmt.Errorf("treasury account: want >= %d bytes, got %d", treasuryLen, len(data))
	}
	return &Treasury{
		TotalVaulted:  binary.LittleEndian.Uint64(data[0:8]),
		TotalWinnings: binary.LittleEndian.Uint64(data[8:16]),
		RewardPoolOre: binary.LittleEndian.Uint64(data[16:24]),
	}, nil
}

// ProgramConfig is the subset of the on-chain Config account the crank
// consults to size autodeploy transactions.
type ProgramConfig struct {
	MinDeploy        uint64
	ProtocolFeeBps   uint16
	RentLamports     uint64
}

const programConfigLen = 8 + 2 + 8

func DecodeProgramConfig(data []byte) (*ProgramConfig, error) {
	if len(data) < programConfigLen {
		return nil, fmt.Errorf("config account: want >= %d bytes, got %d", programConfigLen, len(data))
	}
	return &ProgramConfig{
		MinDeploy:      binary.LittleEndian.Uint64(data[0:8]),
		ProtocolFeeBps: binary.LittleEndian.Uint16(data[8:10]),
		RentLamports:   binary.LittleEndian.Uint64(data[10:18]),
	}, nil
}

// Manager is the subset of the on-chain Manager account read by the crank.
type Manager struct {
	Owner       Pubkey
	TotalMiners uint32
}

const managerLen = 32 + 4

func DecodeManager(data []byte) (*Manager, error) {
	if len(data) < managerLen {
		return nil, fmt.Errorf("manager account: want >= %d bytes, got %d", managerLen, len(data))
	}
	return &Manager{
		Owner:       func() (p Pubkey) { copy(p[:], data[0:32]); return }(),
		TotalMiners: binary.LittleEndian.Uint32(data[32:36]),
	}, nil
}

// Automation is the subset of the on-chain Automation account read by the
// crank to decide whether a deployer-managed miner opted into autodeploy.
type Automation struct {
	Enabled bool
}

func DecodeAutomation(data []byte) (*Automation, error) {
	if len(data) < 1 {
		return nil, fmt.Errorf("automation account: want >= 1 byte, got %d", len(data))
	}
	return &Automation{Enabled: data[0] != 0}, nil
}
