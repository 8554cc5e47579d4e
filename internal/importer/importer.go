// Package importer streams externally produced block files into the storage
// engine and chain state at node startup.
package importer

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/btcsuite/btcd/wire"
	"go.uber.org/ratelimit"
	"go.uber.org/zap"

	"github.com/goodnatureofminers/blockvault7000/internal/chain"
	"github.com/goodnatureofminers/blockvault7000/internal/chaincfg"
	"github.com/goodnatureofminers/blockvault7000/internal/storage/blockstore"
	"github.com/goodnatureofminers/blockvault7000/pkg/workerpool"
)

// DefaultStopAfterBlockImport matches the node's default: keep running and
// advance the tip once import finishes.
const DefaultStopAfterBlockImport = false

const (
	defaultWorkerCount = 2

	readBufferSize = 1 << 20

	// progressLogsPerSecond paces the background progress reporter.
	progressLogsPerSecond = 1
)

// JobState is the lifecycle of one block within an import job.
type JobState string

const (
	StatePending    JobState = "pending"
	StateReading    JobState = "reading"
	StateDecoding   JobState = "decoding"
	StateConnecting JobState = "connecting"
	StateImported   JobState = "imported"
	StateSkipped    JobState = "skipped"
	StateFailed     JobState = "failed"
)

// Options configures a Coordinator.
type Options struct {
	// Workers is the number of source files imported in parallel.
	Workers int

	// StopAfterImport imports without advancing the active chain tip and
	// signals the caller to exit once every job finishes.
	StopAfterImport bool
}

// FileResult summarizes one source file's import job. Err is set only when
// the job aborted (I/O failure or cancellation); individual invalid blocks
// are counted in Failed and do not abort the job.
type FileResult struct {
	Path     string
	Imported int
	Skipped  int
	Failed   int
	Err      error
}

// Coordinator drives import jobs over disjoint source files. Workers share
// nothing but the chain-state manager's own locking and the byte/file
// counters below.
type Coordinator struct {
	logger          *zap.Logger
	net             wire.BitcoinNet
	assumedSizeGB   uint64
	chainman        ChainstateManager
	metrics         Metrics
	workers         int
	stopAfterImport bool

	importedBytes  atomic.Uint64
	completedFiles atomic.Int64
}

// New builds an import coordinator for the given network.
func New(logger *zap.Logger, chainman ChainstateManager, metrics Metrics, params *chaincfg.Params, opts Options) (*Coordinator, error) {
	if chainman == nil {
		return nil, errors.New("chainstate manager is required")
	}
	if metrics == nil {
		return nil, errors.New("importer metrics is required")
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = defaultWorkerCount
	}

	return &Coordinator{
		logger:          logger.Named("importer"),
		net:             params.Net,
		assumedSizeGB:   params.AssumedBlockchainSize,
		chainman:        chainman,
		metrics:         metrics,
		workers:         workers,
		stopAfterImport: opts.StopAfterImport,
	}, nil
}

// StopAfterImport reports whether the daemon should exit once import
// completes.
func (c *Coordinator) StopAfterImport() bool {
	return c.stopAfterImport
}

// ImportFiles runs one import job per source file across the worker pool
// and returns per-file results in input order. Unless configured to stop
// after import, it finishes by activating the best chain.
func (c *Coordinator) ImportFiles(ctx context.Context, paths []string) ([]FileResult, error) {
	if len(paths) == 0 {
		return nil, nil
	}

	results := make([]FileResult, len(paths))
	indexes := make([]int, len(paths))
	for i := range paths {
		indexes[i] = i
	}

	stopProgress := c.reportProgress(len(paths))
	defer stopProgress()

	err := workerpool.Process(ctx, c.workers, indexes, func(ctx context.Context, i int) error {
		results[i] = c.importFile(ctx, paths[i])
		c.completedFiles.Add(1)
		// Job-local failures stay in the result; only cancellation stops
		// sibling jobs.
		if errors.Is(results[i].Err, context.Canceled) {
			return results[i].Err
		}
		return nil
	})
	if err != nil {
		return results, err
	}

	if !c.stopAfterImport {
		if err := c.chainman.ActivateBestChain(ctx); err != nil {
			return results, fmt.Errorf("activate best chain: %w", err)
		}
	}
	return results, nil
}

// importFile imports every block record found in one source file. The file
// is scanned for magic preambles, so leading garbage and malformed records
// are skipped rather than fatal. Cancellation is honored between records,
// never mid-record.
func (c *Coordinator) importFile(ctx context.Context, path string) FileResult {
	started := time.Now()
	res := FileResult{Path: path}
	logger := c.logger.With(zap.String("path", path))

	f, err := os.Open(path)
	if err != nil {
		res.Err = fmt.Errorf("open import file: %w", err)
		c.metrics.ObserveFile(res.Err, started)
		logger.Error("import job failed", zap.Error(res.Err))
		return res
	}
	defer f.Close()

	br := bufio.NewReaderSize(f, readBufferSize)
	for {
		if err := ctx.Err(); err != nil {
			res.Err = err
			break
		}

		blockStarted := time.Now()

		if err := c.skipToMagic(br); err != nil {
			if !errors.Is(err, io.EOF) {
				res.Err = fmt.Errorf("scan import file: %w", err)
			}
			break
		}

		block, err := blockstore.DecodeBlockRecord(br, c.net)
		if err != nil {
			if errors.Is(err, blockstore.ErrTruncatedRecord) {
				// Partial trailing record: the file ends mid-block.
				logger.Warn("import file ends with a truncated record")
				break
			}
			if errors.Is(err, blockstore.ErrDeserialize) || errors.Is(err, blockstore.ErrCorruptRecord) {
				res.Failed++
				c.metrics.ObserveBlock(string(StateFailed), blockStarted)
				logger.Warn("skipping malformed block record", zap.Error(err))
				continue
			}
			res.Err = fmt.Errorf("read import file: %w", err)
			break
		}
		recordBytes := blockstore.RecordHeaderSize + block.SerializeSize()

		var state JobState
		flags := chain.BFNone
		if c.stopAfterImport {
			flags |= chain.BFFastAdd
		}
		accepted, err := c.chainman.ProcessBlock(ctx, block, flags)
		switch {
		case err == nil && accepted:
			state = StateImported
			res.Imported++
			c.importedBytes.Add(uint64(recordBytes))
			c.metrics.AddImportedBytes(recordBytes)
		case err == nil:
			state = StateSkipped
			res.Skipped++
		case errors.Is(err, chain.ErrInvalidBlock):
			state = StateFailed
			res.Failed++
			logger.Warn("block rejected", zap.Error(err))
		default:
			// Storage or state failure: abort this job, keep siblings.
			res.Err = err
			c.metrics.ObserveBlock(string(StateFailed), blockStarted)
			c.metrics.ObserveFile(res.Err, started)
			logger.Error("import job aborted", zap.Error(res.Err))
			return res
		}
		c.metrics.ObserveBlock(string(state), blockStarted)
	}

	c.metrics.ObserveFile(res.Err, started)
	logger.Info("import job finished",
		zap.Int("imported", res.Imported),
		zap.Int("skipped", res.Skipped),
		zap.Int("failed", res.Failed),
		zap.Error(res.Err),
	)
	return res
}

// skipToMagic advances the reader to the next record preamble, discarding
// any garbage bytes in between. Returns io.EOF when no further preamble
// exists.
func (c *Coordinator) skipToMagic(br *bufio.Reader) error {
	var magic [4]byte
	magic[0] = byte(c.net)
	magic[1] = byte(c.net >> 8)
	magic[2] = byte(c.net >> 16)
	magic[3] = byte(c.net >> 24)

	for {
		peeked, err := br.Peek(len(magic))
		if len(peeked) < len(magic) {
			if err == nil || errors.Is(err, io.EOF) {
				return io.EOF
			}
			return err
		}
		if bytes.Equal(peeked, magic[:]) {
			return nil
		}
		if _, err := br.Discard(1); err != nil {
			return err
		}
	}
}

// reportProgress starts a paced background logger of overall import
// progress and returns a stop function.
func (c *Coordinator) reportProgress(totalFiles int) func() {
	done := make(chan struct{})
	var wg sync.WaitGroup

	rl := ratelimit.New(progressLogsPerSecond)
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			rl.Take()
			select {
			case <-done:
				return
			default:
			}

			imported := c.importedBytes.Load()
			fields := []zap.Field{
				zap.Uint64("imported_bytes", imported),
				zap.Int64("files_done", c.completedFiles.Load()),
				zap.Int("files_total", totalFiles),
			}
			// The assumed blockchain size is a UX denominator only.
			if c.assumedSizeGB > 0 {
				pct := float64(imported) / (float64(c.assumedSizeGB) * 1e9) * 100
				fields = append(fields, zap.Float64("estimated_pct", pct))
			}
			c.logger.Info("import progress", fields...)
		}
	}()

	return func() {
		close(done)
		wg.Wait()
	}
}
