// Command crank runs the deployer-discovery and autodeploy-batching
// scheduler (spec.md §4.5): one process per crank keypair, scanning every
// Deployer account granted to it and submitting batched autodeploys for the
// managed miners it funds.
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/go-redis/redis/v7"
	"github.com/klaytn/boardrush/internal/chainenc"
	"github.com/klaytn/boardrush/internal/chainlog"
	"github.com/klaytn/boardrush/internal/config"
	"github.com/klaytn/boardrush/internal/crank"
	"github.com/klaytn/boardrush/internal/keypair"
	"github.com/klaytn/boardrush/internal/rpcclient"
	"github.com/klaytn/boardrush/internal/trackers"
	"github.com/klaytn/boardrush/internal/txbuilder"
	"github.com/klaytn/boardrush/internal/txpipeline"
	"github.com/urfave/cli"
)

var log = chainlog.NewModuleLogger("cmd.crank")

func main() {
	app := cli.NewApp()
	app.Name = "boardrush-crank"
	app.Usage = "discover and batch-autodeploy for managed miners"
	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "config", Value: "crank.toml", Usage: "path to config TOML"},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		log.Error("crank exited with error", "err", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}

	programID, err := chainenc.ParsePubkey(cfg.Crank.ProgramID)
	if err != nil {
		return err
	}
	signer, err := keypair.Load(cfg.Crank.CrankKeypairPath)
	if err != nil {
		return err
	}

	client, err := rpcclient.New(rpcclient.Config{
		HTTPEndpoints: cfg.RPC.HTTPEndpoints,
		WSEndpoints:   cfg.RPC.WSEndpoints,
		MinInterval:   cfg.RPC.MinInterval,
		MaxAttempts:   cfg.RPC.MaxAttempts,
		RetryDelay:    cfg.RPC.RetryDelay,
	})
	if err != nil {
		return err
	}

	discoverer, err := crank.NewDiscoverer(client, programID, signer.Pubkey)
	if err != nil {
		return err
	}

	boardAddr, _, err := chainenc.BoardPDA(programID)
	if err != nil {
		return err
	}
	board := trackers.NewBoardTracker(cfg.RPC.WSEndpoints, boardAddr.String())
	blockhash := trackers.NewBlockhashCache(client)

	var audit *crank.AuditLog
	if cfg.Crank.RedisAddr != "" {
		rc := redis.NewClient(&redis.Options{Addr: cfg.Crank.RedisAddr})
		audit = crank.NewAuditLog(rc)
	}

	tipRecipients := make([]chainenc.Pubkey, 0, len(cfg.TipRecipients))
	for _, s := range cfg.TipRecipients {
		pk, err := chainenc.ParsePubkey(s)
		if err != nil {
			log.Warn("skipping unparseable tip recipient", "value", s, "err", err)
			continue
		}
		tipRecipients = append(tipRecipients, pk)
	}

	scheduler := &crank.Scheduler{
		Discoverer: discoverer,
		Client:     client,
		Board:      board,
		Blockhash:  blockhash,
		Submitter:  txpipeline.NewRPCSubmitter(client),
		Audit:      audit,
		Signer:     signer,
		ProgramID:  programID,
		Fees: txbuilder.Fees{
			TipLamports:   cfg.Crank.TipLamports,
			TipRecipients: tipRecipients,
		},
		JobsForDeployer: jobsForDeployer(client, programID, cfg),
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	go func() {
		<-sigCh
		log.Info("received interrupt, shutting down")
		cancel()
	}()

	scheduler.Run(ctx)
	return nil
}

// jobsForDeployer probes this deployer's manager_key across the configured
// auth_id range for funded, unclaimed-this-round managed miners. The
// program keeps no on-chain index of a manager's managed miners, so the
// crank has to probe a range rather than list them -- the same
// account-layout bookkeeping internal/crank/scheduler.go's JobsForDeployer
// field documents as orthogonal to scheduling.
func jobsForDeployer(client *rpcclient.Client, programID chainenc.Pubkey, cfg *config.Config) func(ctx context.Context, d crank.Deployer, roundID uint64) ([]crank.Job, error) {
	return func(ctx context.Context, d crank.Deployer, roundID uint64) ([]crank.Job, error) {
		deployerBump := uint8(0)
		if _, bump, err := chainenc.DeployerPDA(d.Account.ManagerKey, programID); err == nil {
			deployerBump = bump
		}

		var jobs []crank.Job
		for authID := cfg.Crank.AuthIDRangeStart; authID <= cfg.Crank.AuthIDRangeEnd; authID++ {
			minerAuth, minerAuthBump, err := chainenc.ManagedMinerAuth(d.Account.ManagerKey, authID, programID)
			if err != nil {
				continue
			}
			balanceAddr, balanceBump, err := chainenc.AutodeployBalancePDA(minerAuth, programID)
			if err != nil {
				continue
			}
			balance, err := client.GetBalance(ctx, balanceAddr.String())
			if err != nil || balance == 0 {
				continue // not opted in, or no funds to autodeploy with
			}

			minerAddr, _, err := chainenc.MinerPDA(minerAuth, programID)
			if err != nil {
				continue
			}
			minerAccountExists := true
			needsCheckpoint := false
			if data, err := client.GetAccountInfo(ctx, minerAddr.String()); err != nil {
				continue
			} else if data == nil {
				minerAccountExists = false
			} else if miner, err := chainenc.DecodeMiner(data); err == nil {
				if miner.RoundID == roundID {
					continue // already deployed/claimed into this round
				}
				needsCheckpoint = miner.CheckpointID < miner.RoundID
			}

			required := crank.RequiredLamports(crank.Job{
				Deployer:        d,
				AmountPerSquare: cfg.Crank.DefaultAmountPerSquare,
				SquaresMask:     cfg.Crank.DefaultSquaresMask,
				NeedsCheckpoint: needsCheckpoint,
			}, cfg.Crank.ProtocolFeeBps, cfg.Crank.RentLamports, minerAccountExists)
			if balance < required {
				continue
			}

			boardAddr, _, err := chainenc.BoardPDA(programID)
			if err != nil {
				continue
			}
			roundAddr, _, err := chainenc.RoundPDA(roundID, programID)
			if err != nil {
				continue
			}

			jobs = append(jobs, crank.Job{
				Deployer:              d,
				DeployerAddr:          d.Address,
				DeployerBump:          deployerBump,
				AuthID:                authID,
				MinerAuth:             minerAuth,
				MinerAuthBump:         minerAuthBump,
				MinerAddr:             minerAddr,
				BoardAddr:             boardAddr,
				RoundAddr:             roundAddr,
				AutodeployBalance:     balanceAddr,
				AutodeployBalanceBump: balanceBump,
				RoundID:               roundID,
				AmountPerSquare:       cfg.Crank.DefaultAmountPerSquare,
				SquaresMask:           cfg.Crank.DefaultSquaresMask,
				NeedsCheckpoint:       needsCheckpoint,
			})
		}
		return jobs, nil
	}
}
