package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/btcsuite/btcd/wire"
	"github.com/jessevdk/go-flags"
	"go.uber.org/zap"

	"github.com/goodnatureofminers/blockvault7000/internal/chaincfg"
	"github.com/goodnatureofminers/blockvault7000/internal/metrics"
	"github.com/goodnatureofminers/blockvault7000/internal/storage/blockstore"
	"github.com/goodnatureofminers/blockvault7000/internal/storage/flatfile"
)

type config struct {
	Network string `long:"network" env:"BLKINSPECT_NETWORK" description:"network name (mainnet, testnet, regtest)" default:"mainnet"`
	DataDir string `long:"data-dir" env:"BLKINSPECT_DATA_DIR" description:"directory holding block and undo files" default:"./data"`
	File    int32  `long:"file" env:"BLKINSPECT_FILE" description:"block file index to inspect" default:"0"`
	ECash   bool   `long:"ecash" env:"BLKINSPECT_ECASH" description:"display amounts in XEC units"`
}

func main() {
	cfg := config{}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := zap.NewDevelopment()
	if err != nil {
		panic("can't initialize zap logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync()
	}()

	if _, err := flags.ParseArgs(&cfg, os.Args); err != nil {
		var ferr *flags.Error
		if errors.As(err, &ferr) && ferr.Type == flags.ErrHelp {
			return
		}
		logger.Fatal("failed to parse flags", zap.Error(err))
	}

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("blkinspect failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg config, logger *zap.Logger) error {
	params, err := chaincfg.ParamsForNetwork(cfg.Network)
	if err != nil {
		return err
	}

	store, err := blockstore.New(logger, metrics.NewBlockStore(params.Name), blockstore.Config{
		Dir: cfg.DataDir,
		Net: params.Net,
	})
	if err != nil {
		return fmt.Errorf("open block store: %w", err)
	}

	count := 0
	err = store.ScanBlockFile(cfg.File, params, func(pos flatfile.Pos, block *wire.MsgBlock) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		var reward int64
		if len(block.Transactions) > 0 {
			for _, out := range block.Transactions[0].TxOut {
				reward += out.Value
			}
		}
		fmt.Printf("%s  hash=%s  txs=%d  size=%d  coinbase=%s\n",
			pos,
			block.BlockHash(),
			len(block.Transactions),
			blockstore.RecordHeaderSize+block.SerializeSize(),
			chaincfg.FormatAmount(reward, cfg.ECash),
		)
		count++
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info("scan complete", zap.Int32("file", cfg.File), zap.Int("records", count))
	return nil
}
