// Package blockstore implements the disk access layer for raw blocks and
// undo data: flat-file placement, canonical record framing, and the
// durable-before-visible write contract the chain index relies on.
package blockstore

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"go.uber.org/zap"

	"github.com/goodnatureofminers/blockvault7000/internal/chaincfg"
	"github.com/goodnatureofminers/blockvault7000/internal/model"
	"github.com/goodnatureofminers/blockvault7000/internal/storage/flatfile"
)

// Record classes, also the file name prefixes of their numbered files.
const (
	BlockClass = "blk"
	UndoClass  = "rev"
)

const (
	defaultMaxBlockFileSize = 128 * 1024 * 1024
	defaultMaxUndoFileSize  = 32 * 1024 * 1024

	// undoChecksumSize is the double-SHA256 trailer appended after each
	// undo record's framed payload.
	undoChecksumSize = chainhash.HashSize
)

// Metrics observes read and write outcomes per record class.
type Metrics interface {
	ObserveRead(class string, err error, started time.Time)
	ObserveWrite(class string, err error, started time.Time)
}

// Config carries the store's disk layout parameters.
type Config struct {
	Dir string
	Net wire.BitcoinNet

	// Zero values select the defaults.
	MaxBlockFileSize uint32
	MaxUndoFileSize  uint32
}

// Store composes the two flat-file sets with the record codec. Safe for
// concurrent use: position allocation is serialized per record class inside
// the file sets, reads of published positions are lock-free.
type Store struct {
	logger  *zap.Logger
	metrics Metrics
	net     wire.BitcoinNet
	blocks  *flatfile.FileSet
	undos   *flatfile.FileSet
}

// New opens (creating if needed) the block and undo file sets under
// cfg.Dir.
func New(logger *zap.Logger, metrics Metrics, cfg Config) (*Store, error) {
	if metrics == nil {
		return nil, errors.New("blockstore metrics is required")
	}
	if cfg.MaxBlockFileSize == 0 {
		cfg.MaxBlockFileSize = defaultMaxBlockFileSize
	}
	if cfg.MaxUndoFileSize == 0 {
		cfg.MaxUndoFileSize = defaultMaxUndoFileSize
	}

	blocks, err := flatfile.NewFileSet(logger, cfg.Dir, BlockClass, cfg.MaxBlockFileSize)
	if err != nil {
		return nil, err
	}
	undos, err := flatfile.NewFileSet(logger, cfg.Dir, UndoClass, cfg.MaxUndoFileSize)
	if err != nil {
		return nil, err
	}

	return &Store{
		logger:  logger.Named("blockstore"),
		metrics: metrics,
		net:     cfg.Net,
		blocks:  blocks,
		undos:   undos,
	}, nil
}

// ReadBlock reads and decodes the block stored at pos, then verifies the
// decoded header's proof of work against the network parameters. A block
// that decodes cleanly but fails those checks yields ErrBlockIndexCorrupted:
// the store holds data that cannot belong at this position.
func (s *Store) ReadBlock(pos flatfile.Pos, params *chaincfg.Params) (block *wire.MsgBlock, err error) {
	started := time.Now()
	defer func() { s.metrics.ObserveRead(BlockClass, err, started) }()

	if pos.IsNull() {
		return nil, ErrMissingPosition
	}

	f, err := s.blocks.OpenRead(pos)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	block, err = DecodeBlockRecord(f, s.net)
	if err != nil {
		return nil, fmt.Errorf("block at %s: %w", pos, err)
	}
	if err := chaincfg.CheckProofOfWork(&block.Header, params); err != nil {
		return nil, fmt.Errorf("%w: block at %s: %v", ErrBlockIndexCorrupted, pos, err)
	}
	return block, nil
}

// ReadBlockByIndex reads the block an index entry points at, additionally
// checking that the stored bytes hash to the entry's block hash.
func (s *Store) ReadBlockByIndex(node *model.BlockNode, params *chaincfg.Params) (*wire.MsgBlock, error) {
	if node == nil || !node.Status.HaveData() || node.DataPos.IsNull() {
		return nil, ErrMissingPosition
	}

	block, err := s.ReadBlock(node.DataPos, params)
	if err != nil {
		return nil, err
	}
	if hash := block.BlockHash(); hash != node.Hash {
		return nil, fmt.Errorf("%w: block at %s hashes to %s, index says %s",
			ErrBlockIndexCorrupted, node.DataPos, hash, node.Hash)
	}
	return block, nil
}

// SaveBlock durably writes a block and returns its position. The position
// is only ever handed out after the containing file has been synced, so the
// caller may publish it to the chain index immediately. A non-nil preferred
// position reuses an already-allocated slot instead of allocating a fresh
// one (re-writes during recovery).
func (s *Store) SaveBlock(block *wire.MsgBlock, height int32, preferred *flatfile.Pos) (pos flatfile.Pos, err error) {
	started := time.Now()
	defer func() { s.metrics.ObserveWrite(BlockClass, err, started) }()

	record, err := EncodeBlockRecord(s.net, block)
	if err != nil {
		return flatfile.NullPos, err
	}

	if preferred != nil {
		pos = *preferred
	} else {
		pos, err = s.blocks.Allocate(uint32(len(record)))
		if err != nil {
			return flatfile.NullPos, err
		}
	}

	if err = s.writeAt(s.blocks, pos, record); err != nil {
		return flatfile.NullPos, err
	}
	if err = s.blocks.Sync(pos.File); err != nil {
		return flatfile.NullPos, err
	}

	s.logger.Debug("block written",
		zap.Int32("height", height),
		zap.Stringer("pos", pos),
		zap.Int("bytes", len(record)),
	)
	return pos, nil
}

// SaveUndo durably writes a block's undo data and returns its position. The
// record is followed by a double-SHA256 of (previous block hash || payload),
// verified again on read.
func (s *Store) SaveUndo(undo *model.BlockUndo, node *model.BlockNode) (pos flatfile.Pos, err error) {
	started := time.Now()
	defer func() { s.metrics.ObserveWrite(UndoClass, err, started) }()

	var payload bytes.Buffer
	if err = undo.Serialize(&payload); err != nil {
		return flatfile.NullPos, fmt.Errorf("serialize undo: %w", err)
	}
	if payload.Len() > MaxRecordSize {
		return flatfile.NullPos, fmt.Errorf("undo of %d bytes exceeds max record size", payload.Len())
	}

	record := make([]byte, RecordHeaderSize+payload.Len(), RecordHeaderSize+payload.Len()+undoChecksumSize)
	putRecordHeader(record, s.net, uint32(payload.Len()))
	copy(record[RecordHeaderSize:], payload.Bytes())
	checksum := undoChecksum(&node.PrevHash, payload.Bytes())
	record = append(record, checksum[:]...)

	pos, err = s.undos.Allocate(uint32(len(record)))
	if err != nil {
		return flatfile.NullPos, err
	}
	if err = s.writeAt(s.undos, pos, record); err != nil {
		return flatfile.NullPos, err
	}
	if err = s.undos.Sync(pos.File); err != nil {
		return flatfile.NullPos, err
	}

	s.logger.Debug("undo written",
		zap.Int32("height", node.Height),
		zap.Stringer("pos", pos),
		zap.Int("bytes", len(record)),
	)
	return pos, nil
}

// ReadUndo reads the undo data an index entry points at.
func (s *Store) ReadUndo(node *model.BlockNode) (undo *model.BlockUndo, err error) {
	started := time.Now()
	defer func() { s.metrics.ObserveRead(UndoClass, err, started) }()

	if node == nil || !node.Status.HaveUndo() || node.UndoPos.IsNull() {
		return nil, ErrMissingUndoData
	}

	f, err := s.undos.OpenRead(node.UndoPos)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	length, err := readRecordHeader(f, s.net)
	if err != nil {
		return nil, fmt.Errorf("undo at %s: %w", node.UndoPos, err)
	}
	payload, err := readRecordPayload(f, length)
	if err != nil {
		return nil, fmt.Errorf("undo at %s: %w", node.UndoPos, err)
	}

	var stored chainhash.Hash
	if _, err = io.ReadFull(f, stored[:]); err != nil {
		return nil, fmt.Errorf("%w: undo at %s missing checksum", ErrTruncatedRecord, node.UndoPos)
	}
	if undoChecksum(&node.PrevHash, payload) != stored {
		return nil, fmt.Errorf("%w: undo checksum mismatch at %s", ErrCorruptRecord, node.UndoPos)
	}

	undo = &model.BlockUndo{}
	if err = undo.Deserialize(bytes.NewReader(payload)); err != nil {
		return nil, fmt.Errorf("%w: undo at %s: %v", ErrDeserialize, node.UndoPos, err)
	}
	return undo, nil
}

// ScanBlockFile walks every record of one numbered block file in position
// order, invoking fn for each. Scanning stops at end of file or on the first
// error from fn.
func (s *Store) ScanBlockFile(file int32, params *chaincfg.Params, fn func(flatfile.Pos, *wire.MsgBlock) error) error {
	pos := flatfile.Pos{File: file}
	f, err := s.blocks.OpenRead(pos)
	if err != nil {
		return err
	}
	defer f.Close()

	for {
		block, err := DecodeBlockRecord(f, s.net)
		if errors.Is(err, ErrTruncatedRecord) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("scan %s: %w", pos, err)
		}
		if err := fn(pos, block); err != nil {
			return err
		}
		pos.Offset += uint32(RecordHeaderSize + block.SerializeSize())
	}
}

// FlushAndSync makes the active file of the given record class durable.
func (s *Store) FlushAndSync(class string) error {
	switch class {
	case BlockClass:
		return s.blocks.FlushAndSync()
	case UndoClass:
		return s.undos.FlushAndSync()
	default:
		return fmt.Errorf("unknown record class %q", class)
	}
}

// PruneBlockFile deletes a whole numbered block file and its undo
// counterpart, after the caller has invalidated every index entry pointing
// into them.
func (s *Store) PruneBlockFile(file int32) error {
	if err := s.blocks.Prune(file); err != nil {
		return err
	}
	// Undo files lag block files: the counterpart may not exist yet, or may
	// still be the active undo file. Either way it is kept.
	err := s.undos.Prune(file)
	if err != nil && !errors.Is(err, os.ErrNotExist) && !errors.Is(err, flatfile.ErrActiveFile) {
		return err
	}
	return nil
}

func (s *Store) writeAt(set *flatfile.FileSet, pos flatfile.Pos, record []byte) error {
	f, err := set.OpenWrite(pos)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.Write(record); err != nil {
		return fmt.Errorf("write record at %s: %w", pos, err)
	}
	return nil
}

func undoChecksum(prev *chainhash.Hash, payload []byte) chainhash.Hash {
	buf := make([]byte, 0, len(prev)+len(payload))
	buf = append(buf, prev[:]...)
	buf = append(buf, payload...)
	return chainhash.DoubleHashH(buf)
}
