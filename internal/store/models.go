// Package store persists finalized rounds to the analytics sink (spec.md
// §4.6, §6) via gorm over MySQL, grounded on klaytn's storage/database
// "one manager, several row types" shape -- narrowed here to the one
// backend (jinzhu/gorm + go-sql-driver/mysql) this spec's analytics sink
// actually needs, since there is no embedded-KV use case in this domain
// (see DESIGN.md's dropped-deps section for badger/leveldb/fastcache).
package store

// RoundRow is one finalized round (spec.md §4.6 step 5).
type RoundRow struct {
	RoundID          uint64 `gorm:"primary_key;column:round_id"`
	StartSlot        uint64
	EndSlot          uint64
	SlotHash         []byte `gorm:"type:binary(32)"`
	WinningSquare    uint8
	RentPayer        string
	TopMiner         string
	TopMinerReward   uint64
	TotalDeployed    uint64
	TotalVaulted     uint64
	TotalWinnings    uint64
	Motherlode       uint64
	MotherlodeHit    bool
	TotalDeployments uint32
	UniqueMiners     uint32
	IsSplitReward    bool
	Source           string // "live" | "backfill"
}

func (RoundRow) TableName() string { return "rounds" }

// DeploymentRow is one (miner, square) deployment entry within a finalized
// round.
type DeploymentRow struct {
	ID           uint64 `gorm:"primary_key;AUTO_INCREMENT"`
	RoundID      uint64 `gorm:"index:idx_round_id"`
	MinerPubkey  string `gorm:"index:idx_miner_pubkey"`
	SquareID     uint8
	Amount       uint64
	DeployedSlot uint64
	SolEarned    uint64
	OreEarned    uint64
	IsWinner     bool
	IsTopMiner   bool
}

func (DeploymentRow) TableName() string { return "deployments" }

// TreasurySnapshotRow captures the treasury's state at round-finalization
// time.
type TreasurySnapshotRow struct {
	ID            uint64 `gorm:"primary_key;AUTO_INCREMENT"`
	RoundID       uint64 `gorm:"unique_index"`
	TotalVaulted  uint64
	TotalWinnings uint64
	RewardPoolOre uint64
}

func (TreasurySnapshotRow) TableName() string { return "treasury_snapshots" }

// MinerSnapshotRow captures one participating miner's cumulative state as
// of round finalization.
type MinerSnapshotRow struct {
	ID            uint64 `gorm:"primary_key;AUTO_INCREMENT"`
	RoundID       uint64 `gorm:"index:idx_ms_round_id"`
	MinerPubkey   string `gorm:"index:idx_ms_miner_pubkey"`
	UnclaimedOre  uint64
	RefinedOre    uint64
	LifetimeSol   uint64
	LifetimeOre   uint64
}

func (MinerSnapshotRow) TableName() string { return "miner_snapshots" }

// RawTransactionRow is an append-only audit record of a submitted
// transaction signature, written before send and updated when the pipeline
// resolves it (spec.md §4.5's idempotency rule).
type RawTransactionRow struct {
	ID        uint64 `gorm:"primary_key;AUTO_INCREMENT"`
	Signature string `gorm:"unique_index"`
	Kind      string // deploy | checkpoint | claim_sol | claim_ore | autodeploy | crank_batch
	Status    string // pending | confirmed | failed | expired
	Authority string
}

func (RawTransactionRow) TableName() string { return "raw_transactions" }

// PartialRoundRow records a round that could not be fully finalized within
// the bounded retry window (spec.md §4.6 step 2), for later backfill.
type PartialRoundRow struct {
	RoundID uint64 `gorm:"primary_key;column:round_id"`
	Reason  string
}

func (PartialRoundRow) TableName() string { return "partial_rounds" }
