package crank

import (
	"testing"

	"github.com/klaytn/boardrush/internal/chainenc"
	"github.com/stretchr/testify/assert"
)

func TestRequiredLamports_DeployOnly(t *testing.T) {
	job := Job{
		Deployer:        Deployer{},
		AmountPerSquare: 1000,
		SquaresMask:     0b111, // 3 squares
	}
	got := RequiredLamports(job, 0, 0, true)
	assert.Equal(t, uint64(3000), got) // no fees, no rent, miner exists
}

func TestRequiredLamports_IncludesDeployerAndProtocolFees(t *testing.T) {
	job := Job{
		Deployer:        Deployer{Account: chainenc.Deployer{BpsFee: 500, FlatFee: 100}},
		AmountPerSquare: 1000,
		SquaresMask:     0b1, // 1 square
	}
	got := RequiredLamports(job, 250, 0, true)
	// deployTotal=1000, deployerFee = 100 + 1000*500/10000 = 150, protocolFee = 1000*250/10000 = 25
	assert.Equal(t, uint64(1000+150+25), got)
}

func TestRequiredLamports_AddsRentForNewMinerAccount(t *testing.T) {
	job := Job{AmountPerSquare: 100, SquaresMask: 0b1}
	withAccount := RequiredLamports(job, 0, 5000, true)
	withoutAccount := RequiredLamports(job, 0, 5000, false)
	assert.Equal(t, withAccount+5000, withoutAccount)
}

func TestRequiredLamports_AddsRentWhenCheckpointNeeded(t *testing.T) {
	base := Job{AmountPerSquare: 100, SquaresMask: 0b1}
	withCheckpoint := base
	withCheckpoint.NeedsCheckpoint = true
	assert.Equal(t,
		RequiredLamports(base, 0, 5000, true)+5000,
		RequiredLamports(withCheckpoint, 0, 5000, true))
}

func TestBatch_RespectsCUBudgetCap(t *testing.T) {
	perJobCU := uint64(CUPerDeploy)
	maxPerBatch := CUBudgetCap / int(perJobCU)

	jobs := make([]Job, maxPerBatch+5)
	batches := Batch(jobs)

	assert.Greater(t, len(batches), 1)
	for _, b := range batches {
		var total uint64
		for _, j := range b {
			total += cuCost(j)
		}
		assert.LessOrEqual(t, total, uint64(CUBudgetCap))
	}
}

func TestBatch_PreservesAllJobs(t *testing.T) {
	jobs := make([]Job, 10)
	for i := range jobs {
		jobs[i].RoundID = uint64(i)
	}
	batches := Batch(jobs)

	var total int
	for _, b := range batches {
		total += len(b)
	}
	assert.Equal(t, len(jobs), total)
}
