package crank

import "github.com/klaytn/boardrush/internal/chainenc"

// Compute-unit costs named in spec.md §4.5.
const (
	CUPerDeploy             = 70_000
	CUPerCheckpointRecycle  = 150_000
	CUBudgetCap             = 1_400_000
)

// MaxNewALTAddressesPerExtension bounds one Address Lookup Table extension
// transaction (spec.md §4.5).
const MaxNewALTAddressesPerExtension = 25

// Job is one managed-miner autodeploy obligation the scheduler may batch.
type Job struct {
	Deployer              Deployer
	DeployerAddr          chainenc.Pubkey
	DeployerBump          uint8
	AuthID                uint32
	MinerAuth             chainenc.Pubkey
	MinerAuthBump         uint8
	MinerAddr             chainenc.Pubkey
	BoardAddr             chainenc.Pubkey
	RoundAddr             chainenc.Pubkey
	AutodeployBalance     chainenc.Pubkey
	AutodeployBalanceBump uint8
	RoundID               uint64
	AmountPerSquare       uint64
	SquaresMask           uint32
	NeedsCheckpoint       bool // checkpoint_id < round_id
}

// RequiredLamports computes the lamports a job's autodeploy needs: deploy
// amount across the requested squares, plus deployer/protocol fees, plus
// worst-case rent for the auth PDA / checkpoint fee / first-time miner
// account creation (spec.md §4.5).
func RequiredLamports(job Job, protocolFeeBps uint16, rentLamports uint64, minerAccountExists bool) uint64 {
	squares := chainenc.PopCount(job.SquaresMask)
	deployTotal := job.AmountPerSquare * uint64(squares)

	deployerFee := job.Deployer.Account.FlatFee + (deployTotal*uint64(job.Deployer.Account.BpsFee))/10_000
	protocolFee := (deployTotal * uint64(protocolFeeBps)) / 10_000

	total := deployTotal + deployerFee + protocolFee
	total += rentLamports // worst-case managed-miner auth PDA rent
	if !minerAccountExists {
		total += rentLamports // first-time miner account creation
	}
	if job.NeedsCheckpoint {
		total += rentLamports // worst-case checkpoint-fee rent overhead
	}
	return total
}

// cuCost is a job's compute-unit footprint within a batch.
func cuCost(job Job) uint64 {
	cost := uint64(CUPerDeploy)
	if job.NeedsCheckpoint {
		cost += CUPerCheckpointRecycle
	}
	return cost
}

// Batch groups jobs up to CUBudgetCap, greedily filling in input order
// (spec.md §4.5: "batch ... into a single transaction up to a compute-unit
// budget"). Returns the batches in the order jobs were offered.
func Batch(jobs []Job) [][]Job {
	var batches [][]Job
	var current []Job
	var currentCU uint64

	for _, job := range jobs {
		cost := cuCost(job)
		if len(current) > 0 && currentCU+cost > CUBudgetCap {
			batches = append(batches, current)
			current = nil
			currentCU = 0
		}
		current = append(current, job)
		currentCU += cost
	}
	if len(current) > 0 {
		batches = append(batches, current)
	}
	return batches
}
