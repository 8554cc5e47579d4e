// Package model holds the chain-facing data types shared by the storage
// engine, the chain state and the importer.
package model

import (
	"math/big"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/goodnatureofminers/blockvault7000/internal/storage/flatfile"
)

// BlockStatus is a bitmask tracking how far a block has been validated and
// which of its records exist on disk.
type BlockStatus uint32

const (
	// StatusValidHeader means the header parsed and satisfies its claimed
	// proof of work.
	StatusValidHeader BlockStatus = 1

	// StatusValidTree means all parent headers are known and linked.
	StatusValidTree BlockStatus = 2

	// StatusValidTransactions means the block body passed context-free
	// transaction checks.
	StatusValidTransactions BlockStatus = 3

	// StatusValidScripts means scripts and signatures were verified, or
	// were skipped under the assume-valid policy.
	StatusValidScripts BlockStatus = 5

	statusValidMask BlockStatus = 0x07

	// StatusHaveData means the full block is stored in a blk file.
	StatusHaveData BlockStatus = 8

	// StatusHaveUndo means undo data is stored in a rev file.
	StatusHaveUndo BlockStatus = 16

	// StatusFailed means validation failed at some stage past the last
	// one recorded as valid.
	StatusFailed BlockStatus = 32
)

// HaveData reports whether the full block is on disk.
func (s BlockStatus) HaveData() bool { return s&StatusHaveData != 0 }

// HaveUndo reports whether the block's undo data is on disk.
func (s BlockStatus) HaveUndo() bool { return s&StatusHaveUndo != 0 }

// KnownFailed reports whether validation has failed for the block.
func (s BlockStatus) KnownFailed() bool { return s&StatusFailed != 0 }

// ValidUpTo reports whether the block reached at least the given validity
// stage.
func (s BlockStatus) ValidUpTo(stage BlockStatus) bool {
	return !s.KnownFailed() && s&statusValidMask >= stage
}

// BlockNode is one entry of the in-memory chain index. It owns the flat-file
// positions of the block's records. The storage layer never stores a
// position into a node before the corresponding write is durable.
type BlockNode struct {
	Hash     chainhash.Hash
	PrevHash chainhash.Hash
	Height   int32

	// Work is the cumulative proof of work of the chain ending here.
	Work *big.Int

	Parent *BlockNode
	Status BlockStatus

	DataPos flatfile.Pos
	UndoPos flatfile.Pos
}

// NewBlockNode builds an index entry with unassigned record positions.
func NewBlockNode(hash, prev chainhash.Hash, height int32) *BlockNode {
	return &BlockNode{
		Hash:     hash,
		PrevHash: prev,
		Height:   height,
		Work:     new(big.Int),
		DataPos:  flatfile.NullPos,
		UndoPos:  flatfile.NullPos,
	}
}

// Ancestor walks parent pointers back to the entry at the given height, or
// nil if height is out of range.
func (n *BlockNode) Ancestor(height int32) *BlockNode {
	if height < 0 || height > n.Height {
		return nil
	}
	walk := n
	for walk != nil && walk.Height != height {
		walk = walk.Parent
	}
	return walk
}

// IsAncestorOf reports whether n is on the chain leading to (or equal to)
// other.
func (n *BlockNode) IsAncestorOf(other *BlockNode) bool {
	return other != nil && other.Ancestor(n.Height) == n
}
