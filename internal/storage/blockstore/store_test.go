package blockstore

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/goodnatureofminers/blockvault7000/internal/chaincfg"
	"github.com/goodnatureofminers/blockvault7000/internal/model"
	"github.com/goodnatureofminers/blockvault7000/internal/storage/flatfile"
)

type nopMetrics struct{}

func (nopMetrics) ObserveRead(string, error, time.Time)  {}
func (nopMetrics) ObserveWrite(string, error, time.Time) {}

func newTestStore(t *testing.T, dir string) *Store {
	t.Helper()

	s, err := New(zap.NewNop(), nopMetrics{}, Config{
		Dir: dir,
		Net: chaincfg.RegtestParams.Net,
	})
	require.NoError(t, err)
	return s
}

func TestStore_SaveAndReadBlock(t *testing.T) {
	t.Parallel()

	s := newTestStore(t, t.TempDir())
	block := blockFromHex(t, regtestBlock1Hex)

	pos, err := s.SaveBlock(block, 1, nil)
	require.NoError(t, err)
	require.True(t, pos.Equal(flatfile.Pos{File: 0, Offset: 0}))

	got, err := s.ReadBlock(pos, &chaincfg.RegtestParams)
	require.NoError(t, err)
	require.Equal(t, block.BlockHash(), got.BlockHash())

	// Successive saves land at increasing offsets in the same file.
	next, err := s.SaveBlock(blockFromHex(t, regtestBlock2Hex), 2, nil)
	require.NoError(t, err)
	require.Equal(t, pos.File, next.File)
	require.Equal(t, uint32(RecordHeaderSize+block.SerializeSize()), next.Offset)
}

func TestStore_PositionsSurviveReopen(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s := newTestStore(t, dir)
	block := blockFromHex(t, regtestBlock1Hex)

	pos, err := s.SaveBlock(block, 1, nil)
	require.NoError(t, err)

	// A store reopened over the same directory serves the same position and
	// appends after the existing records instead of clobbering them.
	reopened := newTestStore(t, dir)
	got, err := reopened.ReadBlock(pos, &chaincfg.RegtestParams)
	require.NoError(t, err)
	require.Equal(t, block.BlockHash(), got.BlockHash())

	next, err := reopened.SaveBlock(blockFromHex(t, regtestBlock2Hex), 2, nil)
	require.NoError(t, err)
	require.Greater(t, next.Offset, pos.Offset)
}

func TestStore_ReadBlock_Errors(t *testing.T) {
	t.Parallel()

	s := newTestStore(t, t.TempDir())

	_, err := s.ReadBlock(flatfile.NullPos, &chaincfg.RegtestParams)
	require.ErrorIs(t, err, ErrMissingPosition)

	// A record that parses but whose header fails its own proof of work is
	// index corruption, not a decode failure.
	pos, err := s.SaveBlock(blockFromHex(t, regtestBadPowHex), 1, nil)
	require.NoError(t, err)
	_, err = s.ReadBlock(pos, &chaincfg.RegtestParams)
	require.ErrorIs(t, err, ErrBlockIndexCorrupted)
}

func TestStore_ReadBlockByIndex(t *testing.T) {
	t.Parallel()

	s := newTestStore(t, t.TempDir())
	block := blockFromHex(t, regtestBlock1Hex)

	pos, err := s.SaveBlock(block, 1, nil)
	require.NoError(t, err)

	node := model.NewBlockNode(block.BlockHash(), block.Header.PrevBlock, 1)
	node.DataPos = pos
	node.Status |= model.StatusHaveData

	got, err := s.ReadBlockByIndex(node, &chaincfg.RegtestParams)
	require.NoError(t, err)
	require.Equal(t, node.Hash, got.BlockHash())

	// An index entry whose hash does not match the stored bytes is corrupt.
	other := blockFromHex(t, regtestBlock2Hex)
	wrong := model.NewBlockNode(other.BlockHash(), other.Header.PrevBlock, 2)
	wrong.DataPos = pos
	wrong.Status |= model.StatusHaveData
	_, err = s.ReadBlockByIndex(wrong, &chaincfg.RegtestParams)
	require.ErrorIs(t, err, ErrBlockIndexCorrupted)

	// Entries without stored data never reach the disk.
	_, err = s.ReadBlockByIndex(nil, &chaincfg.RegtestParams)
	require.ErrorIs(t, err, ErrMissingPosition)
	bare := model.NewBlockNode(block.BlockHash(), block.Header.PrevBlock, 1)
	_, err = s.ReadBlockByIndex(bare, &chaincfg.RegtestParams)
	require.ErrorIs(t, err, ErrMissingPosition)
}

func TestStore_UndoRoundTrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s := newTestStore(t, dir)
	block := blockFromHex(t, regtestBlock1Hex)

	node := model.NewBlockNode(block.BlockHash(), block.Header.PrevBlock, 1)
	undo := &model.BlockUndo{
		Txs: []model.TxUndo{{
			Coins: []model.Coin{{
				Value:      5000000000,
				PkScript:   []byte{0x51},
				Height:     1,
				IsCoinbase: true,
			}},
		}},
	}

	pos, err := s.SaveUndo(undo, node)
	require.NoError(t, err)
	node.UndoPos = pos
	node.Status |= model.StatusHaveUndo

	got, err := s.ReadUndo(node)
	require.NoError(t, err)
	require.Equal(t, undo, got)

	// Flipping any stored byte must trip the checksum on the next read.
	path := filepath.Join(dir, "rev00000.dat")
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	raw[len(raw)-1] ^= 0xFF
	require.NoError(t, os.WriteFile(path, raw, 0o600))

	_, err = s.ReadUndo(node)
	require.ErrorIs(t, err, ErrCorruptRecord)
}

func TestStore_ReadUndo_MissingData(t *testing.T) {
	t.Parallel()

	s := newTestStore(t, t.TempDir())

	_, err := s.ReadUndo(nil)
	require.ErrorIs(t, err, ErrMissingUndoData)

	block := blockFromHex(t, regtestBlock1Hex)
	node := model.NewBlockNode(block.BlockHash(), block.Header.PrevBlock, 1)
	_, err = s.ReadUndo(node)
	require.ErrorIs(t, err, ErrMissingUndoData)
}

func TestStore_ScanBlockFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s := newTestStore(t, dir)
	blocks := []*wire.MsgBlock{
		blockFromHex(t, regtestBlock1Hex),
		blockFromHex(t, regtestBlock2Hex),
		blockFromHex(t, regtestBlock3Hex),
	}
	for i, b := range blocks {
		_, err := s.SaveBlock(b, int32(i+1), nil)
		require.NoError(t, err)
	}

	// A partially written trailing record ends the scan without an error.
	f, err := os.OpenFile(filepath.Join(dir, "blk00000.dat"), os.O_WRONLY|os.O_APPEND, 0o600)
	require.NoError(t, err)
	var hdr [RecordHeaderSize]byte
	binary.LittleEndian.PutUint32(hdr[0:4], uint32(chaincfg.RegtestParams.Net))
	binary.LittleEndian.PutUint32(hdr[4:8], 500)
	_, err = f.Write(hdr[:])
	require.NoError(t, err)
	_, err = f.Write([]byte{0x01, 0x02, 0x03})
	require.NoError(t, err)
	require.NoError(t, f.Close())

	var (
		hashes []string
		prev   = flatfile.NullPos
	)
	err = s.ScanBlockFile(0, &chaincfg.RegtestParams, func(pos flatfile.Pos, b *wire.MsgBlock) error {
		require.True(t, prev.IsNull() || prev.Less(pos))
		prev = pos
		hashes = append(hashes, b.BlockHash().String())
		return nil
	})
	require.NoError(t, err)

	require.Len(t, hashes, len(blocks))
	for i, b := range blocks {
		require.Equal(t, b.BlockHash().String(), hashes[i])
	}
}

func TestStore_PruneBlockFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s, err := New(zap.NewNop(), nopMetrics{}, Config{
		Dir:              dir,
		Net:              chaincfg.RegtestParams.Net,
		MaxBlockFileSize: 256,
	})
	require.NoError(t, err)

	// Two saves force a rotation so file 0 becomes prunable.
	_, err = s.SaveBlock(blockFromHex(t, regtestBlock1Hex), 1, nil)
	require.NoError(t, err)
	_, err = s.SaveBlock(blockFromHex(t, regtestBlock2Hex), 2, nil)
	require.NoError(t, err)

	// No undo counterpart exists for file 0; pruning tolerates that.
	require.NoError(t, s.PruneBlockFile(0))
	_, err = os.Stat(filepath.Join(dir, "blk00000.dat"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestStore_FlushAndSync(t *testing.T) {
	t.Parallel()

	s := newTestStore(t, t.TempDir())
	require.NoError(t, s.FlushAndSync(BlockClass))
	require.NoError(t, s.FlushAndSync(UndoClass))
	require.Error(t, s.FlushAndSync("bogus"))
}
