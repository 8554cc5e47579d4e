package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/jessevdk/go-flags"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/goodnatureofminers/blockvault7000/internal/chain"
	"github.com/goodnatureofminers/blockvault7000/internal/chaincfg"
	"github.com/goodnatureofminers/blockvault7000/internal/clock"
	"github.com/goodnatureofminers/blockvault7000/internal/importer"
	"github.com/goodnatureofminers/blockvault7000/internal/metrics"
	"github.com/goodnatureofminers/blockvault7000/internal/storage/blockstore"
)

const retryDelay = 5 * time.Second

type config struct {
	Network         string   `long:"network" env:"IMPORTD_NETWORK" description:"network name (mainnet, testnet, regtest)" default:"mainnet"`
	DataDir         string   `long:"data-dir" env:"IMPORTD_DATA_DIR" description:"directory for block and undo files" default:"./data"`
	ImportFiles     []string `long:"import-file" env:"IMPORTD_IMPORT_FILES" env-delim:"," description:"external block file to import; repeatable"`
	Workers         int      `long:"workers" env:"IMPORTD_WORKERS" description:"parallel import jobs" default:"2"`
	StopAfterImport bool     `long:"stop-after-block-import" env:"IMPORTD_STOP_AFTER_BLOCK_IMPORT" description:"exit after importing, without advancing the chain tip"`
	AssumeValid     string   `long:"assume-valid" env:"IMPORTD_ASSUME_VALID" description:"override the assume-valid block hash; 0 disables script skipping"`
	HTTPAddr        string   `long:"http-addr" env:"IMPORTD_HTTP_ADDR" description:"metrics/status listen address" default:":8002"`
	ECash           bool     `long:"ecash" env:"IMPORTD_ECASH" description:"display amounts in XEC units"`
	XEC             bool     `long:"xec" env:"IMPORTD_XEC" description:"alias of --ecash"`
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

	if len(cfg.ImportFiles) == 0 {
		logger.Fatal("at least one --import-file is required")
	}

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("importd failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg config, logger *zap.Logger) error {
	params, err := chaincfg.ParamsForNetwork(cfg.Network)
	if err != nil {
		return err
	}

	assumeValid, err := parseAssumeValid(cfg.AssumeValid)
	if err != nil {
		return fmt.Errorf("parse --assume-valid: %w", err)
	}

	store, err := blockstore.New(logger, metrics.NewBlockStore(params.Name), blockstore.Config{
		Dir: cfg.DataDir,
		Net: params.Net,
	})
	if err != nil {
		return fmt.Errorf("open block store: %w", err)
	}

	policy := chain.NewScriptPolicy(params, assumeValid)
	chainman, err := chain.NewChainstate(logger, params, store, policy)
	if err != nil {
		return err
	}

	coord, err := importer.New(logger, chainman, metrics.NewImporter(params.Name), params, importer.Options{
		Workers:         cfg.Workers,
		StopAfterImport: cfg.StopAfterImport,
	})
	if err != nil {
		return err
	}

	httpErr := serveHTTP(ctx, cfg.HTTPAddr, logger)

	started := time.Now()
	results, err := coord.ImportFiles(ctx, cfg.ImportFiles)
	if err != nil {
		return fmt.Errorf("import: %w", err)
	}

	// The storage layer never retries on its own; one retry of aborted
	// jobs is this daemon's policy.
	var retry []string
	for _, res := range results {
		if res.Err != nil && !errors.Is(res.Err, context.Canceled) {
			logger.Warn("import job aborted, will retry",
				zap.String("path", res.Path),
				zap.Error(res.Err),
			)
			retry = append(retry, res.Path)
		}
	}
	if len(retry) > 0 {
		if err := clock.SleepWithContext(ctx, retryDelay); err != nil {
			return err
		}
		retried, err := coord.ImportFiles(ctx, retry)
		if err != nil {
			return fmt.Errorf("retry import: %w", err)
		}
		results = append(results, retried...)
	}

	var imported, skipped, failed int
	for _, res := range results {
		imported += res.Imported
		skipped += res.Skipped
		failed += res.Failed
	}
	logger.Info("import complete",
		zap.Int("imported", imported),
		zap.Int("skipped", skipped),
		zap.Int("failed", failed),
		zap.Int32("tip_height", chainman.BestHeight()),
		zap.Duration("elapsed", time.Since(started)),
		zap.Bool("ecash_units", cfg.ECash || cfg.XEC),
	)

	if coord.StopAfterImport() {
		logger.Info("stop after block import requested; exiting")
		return nil
	}

	select {
	case <-ctx.Done():
		return nil
	case err := <-httpErr:
		return err
	}
}

// parseAssumeValid maps the flag value to a policy override: empty keeps
// the shipped constant, "0" disables skipping, anything else must be a
// block hash.
func parseAssumeValid(value string) (*chainhash.Hash, error) {
	switch value {
	case "":
		return nil, nil
	case "0":
		return &chainhash.Hash{}, nil
	default:
		return chainhash.NewHashFromStr(value)
	}
}

func serveHTTP(ctx context.Context, addr string, logger *zap.Logger) <-chan error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	s := &http.Server{
		Addr:              addr,
		Handler:           cors.Default().Handler(mux),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("serving metrics", zap.String("addr", addr))
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.Shutdown(shutdownCtx)
	}()
	return errCh
}
