// Command bot runs the managed-authority deploy/checkpoint/claim state
// machine (spec.md §4.4) for every authority listed in the config file.
// Thin urfave/cli entrypoint, grounded on cmd/kcn/main.go's shape: one App,
// one action func that wires config into the real objects and runs them.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/klaytn/boardrush/internal/botstate"
	"github.com/klaytn/boardrush/internal/chainenc"
	"github.com/klaytn/boardrush/internal/chainlog"
	"github.com/klaytn/boardrush/internal/config"
	"github.com/klaytn/boardrush/internal/finalizer"
	"github.com/klaytn/boardrush/internal/keypair"
	"github.com/klaytn/boardrush/internal/rpcclient"
	"github.com/klaytn/boardrush/internal/trackers"
	"github.com/klaytn/boardrush/internal/txbuilder"
	"github.com/klaytn/boardrush/internal/txpipeline"
	"github.com/urfave/cli"
)

var log = chainlog.NewModuleLogger("cmd.bot")

func main() {
	app := cli.NewApp()
	app.Name = "boardrush-bot"
	app.Usage = "run the managed-authority deploy/checkpoint/claim state machine"
	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "config", Value: "bot.toml", Usage: "path to config TOML"},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		log.Error("bot exited with error", "err", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
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

	pending := finalizer.NewPendingLog()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	go func() {
		<-sigCh
		log.Info("received interrupt, shutting down")
		cancel()
	}()

	for _, botCfg := range cfg.Bots {
		state, err := buildState(botCfg, cfg, client, pending)
		if err != nil {
			log.Error("skipping misconfigured bot", "auth_id", botCfg.AuthID, "err", err)
			continue
		}
		go state.Run(ctx)
	}

	<-ctx.Done()
	return nil
}

func buildState(botCfg config.BotConfig, cfg *config.Config, client *rpcclient.Client, pending *finalizer.PendingLog) (*botstate.State, error) {
	programID, err := chainenc.ParsePubkey(botCfg.ProgramID)
	if err != nil {
		return nil, fmt.Errorf("program_id: %w", err)
	}
	manager, err := chainenc.ParsePubkey(botCfg.ManagerKey)
	if err != nil {
		return nil, fmt.Errorf("manager_key: %w", err)
	}
	signer, err := keypair.Load(botCfg.SignerKeypairPath)
	if err != nil {
		return nil, err
	}
	strat, err := botCfg.Strategy.BuildStrategy()
	if err != nil {
		return nil, err
	}

	minerAuth, minerAuthBump, err := chainenc.ManagedMinerAuth(manager, botCfg.AuthID, programID)
	if err != nil {
		return nil, fmt.Errorf("derive miner auth: %w", err)
	}
	minerAddr, _, err := chainenc.MinerPDA(minerAuth, programID)
	if err != nil {
		return nil, fmt.Errorf("derive miner addr: %w", err)
	}
	boardAddr, _, err := chainenc.BoardPDA(programID)
	if err != nil {
		return nil, fmt.Errorf("derive board addr: %w", err)
	}

	board := trackers.NewBoardTracker(cfg.RPC.WSEndpoints, boardAddr.String())
	slot := trackers.NewSlotTracker(cfg.RPC.WSEndpoints)
	blockhash := trackers.NewBlockhashCache(client)

	tipRecipients := make([]chainenc.Pubkey, 0, len(cfg.TipRecipients))
	for _, s := range cfg.TipRecipients {
		pk, err := chainenc.ParsePubkey(s)
		if err != nil {
			log.Warn("skipping unparseable tip recipient", "value", s, "err", err)
			continue
		}
		tipRecipients = append(tipRecipients, pk)
	}

	return &botstate.State{
		Authority:          minerAuth,
		Signer:             signer,
		Accounts: txbuilder.Accounts{
			ProgramID:        programID,
			Manager:          manager,
			AuthID:           uint64(botCfg.AuthID),
			MinerAuthBump:    minerAuthBump,
			AllowMultiDeploy: botCfg.AllowMultiDeploy,
			MinerAuth:        minerAuth,
			BoardAddr:        boardAddr,
			MinerAddr:        minerAddr,
		},
		Strategy:           strat,
		SlotsLeftThreshold: botCfg.SlotsLeftThreshold,
		Fees: txbuilder.Fees{
			PriorityFeeMicroLamports: botCfg.PriorityFeeMicroLam,
			TipLamports:              botCfg.TipLamports,
			TipRecipients:            tipRecipients,
		},
		Board:     board,
		Slot:      slot,
		Blockhash: blockhash,
		Client:    client,
		Submitter: txpipeline.NewRPCSubmitter(client),
		Pending:   pending,
	}, nil
}
