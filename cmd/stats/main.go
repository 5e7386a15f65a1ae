// Command stats runs the round-finalization watcher and analytics sink
// (spec.md §4.6): it watches board/round state independent of any bot,
// captures a snapshot at round end, derives winner/reward attribution, and
// persists to the MySQL-backed store, fanning out lifecycle events to an
// in-process bus and optional Kafka topic.
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/Shopify/sarama"
	"github.com/klaytn/boardrush/internal/chainenc"
	"github.com/klaytn/boardrush/internal/chainlog"
	"github.com/klaytn/boardrush/internal/config"
	"github.com/klaytn/boardrush/internal/eventbus"
	"github.com/klaytn/boardrush/internal/finalizer"
	"github.com/klaytn/boardrush/internal/rpcclient"
	"github.com/klaytn/boardrush/internal/store"
	"github.com/klaytn/boardrush/internal/trackers"
	"github.com/urfave/cli"
)

var log = chainlog.NewModuleLogger("cmd.stats")

func main() {
	app := cli.NewApp()
	app.Name = "boardrush-stats"
	app.Usage = "finalize rounds and persist round/miner/deployment analytics"
	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "config", Value: "stats.toml", Usage: "path to config TOML"},
		cli.StringFlag{Name: "program-id", Usage: "program id to watch"},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		log.Error("stats exited with error", "err", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	programID, err := chainenc.ParsePubkey(c.String("program-id"))
	if err != nil {
		return err
	}

	db, err := store.Open(cfg.Store.DSN)
	if err != nil {
		return err
	}
	defer db.Close()

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

	bus := eventbus.New()
	if len(cfg.Store.KafkaBrokers) > 0 {
		kcfg := sarama.NewConfig()
		kcfg.Producer.Return.Successes = false
		kcfg.Producer.Return.Errors = true
		producer, err := sarama.NewAsyncProducer(cfg.Store.KafkaBrokers, kcfg)
		if err != nil {
			log.Warn("kafka producer unavailable, running in-process only", "err", err)
		} else {
			bus.WithKafka(producer, cfg.Store.KafkaTopicPrefix+".events")
		}
	}

	boardAddr, _, err := chainenc.BoardPDA(programID)
	if err != nil {
		return err
	}
	treasuryAddr, _, err := chainenc.TreasuryPDA(programID)
	if err != nil {
		return err
	}

	board := trackers.NewBoardTracker(cfg.RPC.WSEndpoints, boardAddr.String())
	slot := trackers.NewSlotTracker(cfg.RPC.WSEndpoints)
	pending := finalizer.NewPendingLog()

	fin := &finalizer.Finalizer{
		Client:  client,
		Store:   db,
		Emitter: bus,
		RoundAddrForID: func(roundID uint64) string {
			addr, _, err := chainenc.RoundPDA(roundID, programID)
			if err != nil {
				return ""
			}
			return addr.String()
		},
	}

	watcher := &finalizer.Watcher{
		Board:   board,
		Slot:    slot,
		Client:  client,
		Pending: pending,
		Miners:  minerSource(client, programID),
		Treasury: func(ctx context.Context) (chainenc.Treasury, error) {
			data, err := client.GetAccountInfo(ctx, treasuryAddr.String())
			if err != nil || data == nil {
				return chainenc.Treasury{}, err
			}
			t, err := chainenc.DecodeTreasury(data)
			if err != nil {
				return chainenc.Treasury{}, err
			}
			return *t, nil
		},
		Finalizer: fin,
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

	watcher.Run(ctx)
	return nil
}

// minerSource enumerates every Miner account program-wide by exact account
// size, since the program keeps no index of all miners.
func minerSource(client *rpcclient.Client, programID chainenc.Pubkey) finalizer.MinerSource {
	return func(ctx context.Context) (map[chainenc.Pubkey]chainenc.Miner, error) {
		addrs, datas, err := client.GetProgramAccounts(ctx, programID.String(), chainenc.MinerAccountLen, nil)
		if err != nil {
			return nil, err
		}
		out := make(map[chainenc.Pubkey]chainenc.Miner, len(addrs))
		for i, addr := range addrs {
			pk, err := chainenc.ParsePubkey(addr)
			if err != nil {
				continue
			}
			miner, err := chainenc.DecodeMiner(datas[i])
			if err != nil {
				continue
			}
			out[pk] = *miner
		}
		return out, nil
	}
}
