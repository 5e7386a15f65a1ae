// Package chainmetrics registers the prometheus counters and histograms
// read by operators of the bot fleet, crank, and stats core. One
// package-level metric per outcome, incremented at the point of
// classification, following the teacher's metrics.NewRegisteredCounter
// idiom (work/worker.go's timeLimitReachedCounter, node/sc/bridge_tx_pool.go's
// refusedTxCounter).
package chainmetrics

import "github.com/prometheus/client_golang/prometheus"

var (
	DeploysSent = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "boardrush_deploys_sent_total",
		Help: "Deploy transaction copies submitted, labeled by authority.",
	}, []string{"authority"})

	DeployOutcomes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "boardrush_deploy_outcomes_total",
		Help: "Deploy burst outcomes, labeled by classification.",
	}, []string{"outcome"}) // deployed | skipped | missed

	CheckpointOutcomes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "boardrush_checkpoint_outcomes_total",
		Help: "Checkpoint confirmations, labeled by won/lost.",
	}, []string{"result"})

	ClaimLamports = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "boardrush_claim_lamports_total",
		Help: "Cumulative lamports swept via claim_sol.",
	})

	ConfirmLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "boardrush_confirm_latency_seconds",
		Help:    "Time from burst submission to first confirmed signature.",
		Buckets: prometheus.DefBuckets,
	})

	CrankBatchSize = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "boardrush_crank_batch_deployers",
		Help:    "Number of deployers packed per crank batch transaction.",
		Buckets: []float64{1, 2, 4, 8, 16, 32, 64},
	})

	CrankBatchOutcomes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "boardrush_crank_batch_outcomes_total",
		Help: "Crank batch transaction outcomes.",
	}, []string{"status"}) // confirmed | failed | build_error | submit_error

	RPCRetries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "boardrush_rpc_retries_total",
		Help: "RPC call retries, labeled by method and provider.",
	}, []string{"method", "provider"})

	PartialRounds = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "boardrush_partial_rounds_total",
		Help: "Rounds finalized without an on-time slot_hash, requiring backfill.",
	})
)

func init() {
	prometheus.MustRegister(
		DeploysSent,
		DeployOutcomes,
		CheckpointOutcomes,
		ClaimLamports,
		ConfirmLatency,
		CrankBatchSize,
		CrankBatchOutcomes,
		RPCRetries,
		PartialRounds,
	)
}
