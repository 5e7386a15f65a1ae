// Package config loads the per-process TOML configuration shared by the
// bot fleet, crank, and stats core. Mirrors the teacher's plain-struct
// config-file idiom (node/sc/gen_config.go, cmd/kcn) decoded with the
// teacher's own TOML dependency.
package config

import (
	"os"
	"time"

	"github.com/naoina/toml"
	"github.com/pkg/errors"
)

// RPCConfig lists the cluster endpoints consulted by internal/rpcclient,
// in rotation order.
type RPCConfig struct {
	HTTPEndpoints []string `toml:"http_endpoints"`
	WSEndpoints   []string `toml:"ws_endpoints"`
	// MinInterval is the per-provider minimum gap between calls (rate gate).
	MinInterval time.Duration `toml:"min_interval"`
	MaxAttempts int           `toml:"max_attempts"`
	RetryDelay  time.Duration `toml:"retry_delay"`
}

// StrategyConfig carries one bot authority's deploy strategy parameters.
type StrategyConfig struct {
	Kind          string  `toml:"kind"` // ev | percentage | manual | split
	Bankroll      uint64  `toml:"bankroll"`
	MaxPerSquare  uint64  `toml:"max_per_square"`
	MinBet        uint64  `toml:"min_bet"`
	OreValue      uint64  `toml:"ore_value"`
	SlotsLeft     uint64  `toml:"slots_left"`
	Attempts      uint64  `toml:"attempts"`
	PercentageBps uint16  `toml:"percentage_bps"`
	SquaresCount  uint8   `toml:"squares_count"`
	ManualAmounts []uint64 `toml:"manual_amounts"`
	SplitAmount   uint64  `toml:"split_amount"`
}

// BotConfig configures one managed authority run by the bot fleet.
type BotConfig struct {
	ProgramID           string          `toml:"program_id"`
	ManagerKey          string          `toml:"manager_key"`
	SignerKeypairPath   string          `toml:"signer_keypair_path"`
	AuthID              uint32          `toml:"auth_id"`
	// AllowMultiDeploy permits more than one deploy per round for this
	// authority (instruction.rs's MMDeploy.allow_multi_deploy); left false
	// for the common one-deploy-per-round bot.
	AllowMultiDeploy    bool            `toml:"allow_multi_deploy"`
	SlotsLeftThreshold  uint64          `toml:"slots_left_threshold"`
	Strategy            StrategyConfig  `toml:"strategy"`
	PriorityFeeMicroLam uint64          `toml:"priority_fee_micro_lamports"`
	TipLamports         uint64          `toml:"tip_lamports"`
	TickInterval        time.Duration   `toml:"tick_interval"`
}

// CrankConfig configures the crank scheduler process.
type CrankConfig struct {
	CrankKeypairPath  string        `toml:"crank_keypair_path"`
	ProgramID         string        `toml:"program_id"`
	ScanInterval      time.Duration `toml:"scan_interval"`
	CUBudget          uint32        `toml:"cu_budget"`
	LookupTableAddr   string        `toml:"lookup_table_addr"`
	TipLamports       uint64        `toml:"tip_lamports"`
	RedisAddr         string        `toml:"redis_addr"`
	RedisAuditListTTL time.Duration `toml:"redis_audit_ttl"`
	ProtocolFeeBps    uint16        `toml:"protocol_fee_bps"`
	RentLamports      uint64        `toml:"rent_lamports"`

	// AuthIDRangeStart/End bound the managed-miner auth_id space the crank
	// scans per discovered deployer, since the on-chain program has no
	// index of a manager's managed miners -- the crank has to probe a
	// configured range rather than list them.
	AuthIDRangeStart uint32 `toml:"auth_id_range_start"`
	AuthIDRangeEnd   uint32 `toml:"auth_id_range_end"`

	// DefaultAmountPerSquare/DefaultSquaresMask are the flat autodeploy
	// parameters applied to every managed miner found funded for
	// autodeploy; per-miner strategy selection lives with the bot fleet,
	// not the crank (spec.md §4.5 scopes the crank to funding/batching,
	// not strategy).
	DefaultAmountPerSquare uint64 `toml:"default_amount_per_square"`
	DefaultSquaresMask     uint32 `toml:"default_squares_mask"`
}

// StoreConfig configures the analytics sink.
type StoreConfig struct {
	DSN             string `toml:"dsn"` // mysql DSN consumed by go-sql-driver/mysql
	MaxOpenConns    int    `toml:"max_open_conns"`
	KafkaBrokers    []string `toml:"kafka_brokers"`
	KafkaTopicPrefix string  `toml:"kafka_topic_prefix"`
}

// Config is the root document shared by all three processes; each process
// only reads the sub-sections it needs.
type Config struct {
	RPC           RPCConfig   `toml:"rpc"`
	Bots          []BotConfig `toml:"bot"`
	Crank         CrankConfig `toml:"crank"`
	Store         StoreConfig `toml:"store"`
	TipRecipients []string    `toml:"tip_recipients"` // base58 pubkeys, spec.md §3's fixed well-known set
}

// Load reads and decodes a TOML config file at path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open config %s", path)
	}
	defer f.Close()

	var cfg Config
	if err := toml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, errors.Wrapf(err, "decode config %s", path)
	}
	cfg.sanitize()
	return &cfg, nil
}

// sanitize fills in defaults for anything left zero, following the
// teacher's BridgeTxPoolConfig.sanitize() pattern.
func (c *Config) sanitize() {
	if c.RPC.MinInterval <= 0 {
		c.RPC.MinInterval = 50 * time.Millisecond
	}
	if c.RPC.MaxAttempts <= 0 {
		c.RPC.MaxAttempts = 10
	}
	if c.RPC.RetryDelay <= 0 {
		c.RPC.RetryDelay = 500 * time.Millisecond
	}
	if c.Crank.ScanInterval <= 0 {
		c.Crank.ScanInterval = 5 * time.Second
	}
	if c.Crank.CUBudget <= 0 {
		c.Crank.CUBudget = 1_400_000
	}
	if c.Crank.RedisAuditListTTL <= 0 {
		c.Crank.RedisAuditListTTL = 24 * time.Hour
	}
	for i := range c.Bots {
		if c.Bots[i].TickInterval <= 0 {
			c.Bots[i].TickInterval = 200 * time.Millisecond
		}
	}
}
