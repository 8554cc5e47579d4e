package model

import (
	"fmt"
	"io"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"

	"github.com/goodnatureofminers/blockvault7000/pkg/safe"
)

// Coin records one previously-unspent output consumed by a block, with the
// metadata needed to restore it on disconnect.
type Coin struct {
	Value      int64
	PkScript   []byte
	Height     uint32
	IsCoinbase bool
}

// TxUndo holds the coins spent by one transaction, in input order.
type TxUndo struct {
	Coins []Coin
}

// BlockUndo holds the undo data for every non-coinbase transaction of a
// block, in block order.
type BlockUndo struct {
	Txs []TxUndo
}

// Sanity caps on undo counts, well above anything a max-size block can
// produce.
const (
	maxUndoTxCount    = 1_000_000
	maxUndoCoinsPerTx = 1_000_000

	// maxScriptSize bounds a single stored output script, matching the
	// consensus script size limit.
	maxScriptSize = 10_000
)

// Serialize writes the canonical binary form of the undo data. The encoding
// is deterministic: varint counts, height<<1|coinbase, varint value, then
// the length-prefixed script.
func (u *BlockUndo) Serialize(w io.Writer) error {
	if err := wire.WriteVarInt(w, 0, uint64(len(u.Txs))); err != nil {
		return err
	}
	for _, tx := range u.Txs {
		if err := wire.WriteVarInt(w, 0, uint64(len(tx.Coins))); err != nil {
			return err
		}
		for _, coin := range tx.Coins {
			code := uint64(coin.Height) << 1
			if coin.IsCoinbase {
				code |= 1
			}
			if err := wire.WriteVarInt(w, 0, code); err != nil {
				return err
			}
			value, err := safe.Uint64(coin.Value)
			if err != nil {
				return fmt.Errorf("undo coin value: %w", err)
			}
			if err := wire.WriteVarInt(w, 0, value); err != nil {
				return err
			}
			if err := wire.WriteVarBytes(w, 0, coin.PkScript); err != nil {
				return err
			}
		}
	}
	return nil
}

// Deserialize parses undo data written by Serialize, validating counts and
// amounts before trusting them.
func (u *BlockUndo) Deserialize(r io.Reader) error {
	txCount, err := wire.ReadVarInt(r, 0)
	if err != nil {
		return err
	}
	if txCount > maxUndoTxCount {
		return fmt.Errorf("undo tx count %d exceeds max %d", txCount, maxUndoTxCount)
	}

	u.Txs = make([]TxUndo, txCount)
	for i := range u.Txs {
		coinCount, err := wire.ReadVarInt(r, 0)
		if err != nil {
			return err
		}
		if coinCount > maxUndoCoinsPerTx {
			return fmt.Errorf("undo coin count %d exceeds max %d", coinCount, maxUndoCoinsPerTx)
		}

		coins := make([]Coin, coinCount)
		for j := range coins {
			code, err := wire.ReadVarInt(r, 0)
			if err != nil {
				return err
			}
			value, err := wire.ReadVarInt(r, 0)
			if err != nil {
				return err
			}
			if value > uint64(btcutil.MaxSatoshi) {
				return fmt.Errorf("undo coin value %d exceeds max satoshi", value)
			}
			script, err := wire.ReadVarBytes(r, 0, maxScriptSize, "undo coin script")
			if err != nil {
				return err
			}
			coins[j] = Coin{
				Value:      int64(value),
				PkScript:   script,
				Height:     uint32(code >> 1),
				IsCoinbase: code&1 != 0,
			}
		}
		u.Txs[i] = TxUndo{Coins: coins}
	}
	return nil
}
