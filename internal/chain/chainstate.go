package chain

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"go.uber.org/zap"

	"github.com/goodnatureofminers/blockvault7000/internal/chaincfg"
	"github.com/goodnatureofminers/blockvault7000/internal/model"
	"github.com/goodnatureofminers/blockvault7000/internal/storage/blockstore"
)

// ErrInvalidBlock marks contextual validation failures: the block itself is
// unacceptable, but the chain state and storage are healthy. Callers treat
// any other ProcessBlock error as a storage or state failure.
var ErrInvalidBlock = errors.New("invalid block")

// Chainstate is the in-memory chain-state manager. It owns the block index
// and the active tip; all tip mutation happens under one mutex, while block
// decoding, proof-of-work checks and disk writes run outside it so parallel
// importers only contend on publication.
type Chainstate struct {
	logger *zap.Logger
	params *chaincfg.Params
	store  *blockstore.Store
	policy *ScriptPolicy

	mu    sync.Mutex
	index map[chainhash.Hash]*model.BlockNode
	tip   *model.BlockNode
}

// NewChainstate builds a chain state rooted at the network's genesis block.
// The genesis entry lives in memory only; its records are not stored.
func NewChainstate(logger *zap.Logger, params *chaincfg.Params, store *blockstore.Store, policy *ScriptPolicy) (*Chainstate, error) {
	if store == nil {
		return nil, fmt.Errorf("chainstate requires a block store")
	}
	if policy == nil {
		policy = NewScriptPolicy(params, nil)
	}

	genesis := model.NewBlockNode(params.GenesisHash, chainhash.Hash{}, 0)
	genesis.Work = chaincfg.BlockProof(params.GenesisBlock.Header.Bits)
	genesis.Status = model.StatusValidScripts

	return &Chainstate{
		logger: logger.Named("chainstate"),
		params: params,
		store:  store,
		policy: policy,
		index:  map[chainhash.Hash]*model.BlockNode{params.GenesisHash: genesis},
		tip:    genesis,
	}, nil
}

// ProcessBlock validates a block against its position in the chain, stores
// it durably, and publishes its index entry. It returns false with a nil
// error for blocks that are already known. The stored position becomes
// visible to other threads only after the write is synced: SaveBlock and
// SaveUndo return durable positions, and the entry enters the index last.
func (c *Chainstate) ProcessBlock(ctx context.Context, block *wire.MsgBlock, flags BehaviorFlags) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	hash := block.BlockHash()

	c.mu.Lock()
	if existing := c.index[hash]; existing != nil {
		c.mu.Unlock()
		return false, nil
	}
	parent := c.index[block.Header.PrevBlock]
	c.mu.Unlock()

	if parent == nil {
		return false, fmt.Errorf("%w: block %s: unknown previous block %s", ErrInvalidBlock, hash, block.Header.PrevBlock)
	}
	if parent.Status.KnownFailed() {
		return false, fmt.Errorf("%w: block %s descends from invalid block %s", ErrInvalidBlock, hash, parent.Hash)
	}

	if flags&BFNoPoWCheck == 0 {
		if err := chaincfg.CheckProofOfWork(&block.Header, c.params); err != nil {
			return false, fmt.Errorf("%w: block %s: %v", ErrInvalidBlock, hash, err)
		}
	}
	if err := checkBlockSanity(block); err != nil {
		return false, fmt.Errorf("%w: block %s: %v", ErrInvalidBlock, hash, err)
	}

	node := model.NewBlockNode(hash, block.Header.PrevBlock, parent.Height+1)
	node.Parent = parent
	node.Work.Add(parent.Work, chaincfg.BlockProof(block.Header.Bits))
	node.Status = model.StatusValidTransactions

	// Durable write first; the returned position is already synced.
	dataPos, err := c.store.SaveBlock(block, node.Height, nil)
	if err != nil {
		return false, fmt.Errorf("store block %s: %w", hash, err)
	}
	node.DataPos = dataPos
	node.Status |= model.StatusHaveData

	undoPos, err := c.store.SaveUndo(undoForBlock(block), node)
	if err != nil {
		return false, fmt.Errorf("store undo for %s: %w", hash, err)
	}
	node.UndoPos = undoPos
	node.Status |= model.StatusHaveUndo

	c.mu.Lock()
	defer c.mu.Unlock()

	// A parallel importer may have published the same block while we were
	// writing; the extra record on disk is unreachable and harmless.
	if existing := c.index[hash]; existing != nil {
		return false, nil
	}

	verify := c.policy.ShouldVerifyScripts(node, c.index[c.policy.AssumeValidHash()])
	node.Status |= model.StatusValidScripts
	c.index[hash] = node

	if flags&BFFastAdd == 0 && node.Work.Cmp(c.tip.Work) > 0 {
		c.tip = node
	}

	c.logger.Debug("block connected",
		zap.Stringer("hash", &node.Hash),
		zap.Int32("height", node.Height),
		zap.Bool("scripts_verified", verify),
	)
	return true, nil
}

// ActivateBestChain points the tip at the most-work valid entry in the
// index. Used after a fast-add import to catch the tip up in one step.
func (c *Chainstate) ActivateBestChain(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	best := c.tip
	for _, node := range c.index {
		if node.Status.KnownFailed() {
			continue
		}
		if node.Work.Cmp(best.Work) > 0 {
			best = node
		}
	}
	if best != c.tip {
		c.tip = best
		c.logger.Info("tip advanced",
			zap.Stringer("hash", &best.Hash),
			zap.Int32("height", best.Height),
		)
	}
	return nil
}

// HaveBlock reports whether the index holds an entry for the hash.
func (c *Chainstate) HaveBlock(hash *chainhash.Hash) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.index[*hash] != nil
}

// NodeByHash returns the index entry for a hash, or nil.
func (c *Chainstate) NodeByHash(hash *chainhash.Hash) *model.BlockNode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.index[*hash]
}

// Tip returns the current active-chain tip.
func (c *Chainstate) Tip() *model.BlockNode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tip
}

// BestHeight returns the height of the active tip.
func (c *Chainstate) BestHeight() int32 {
	return c.Tip().Height
}

// checkBlockSanity runs the context-free structural checks the storage
// layer is responsible for before accepting a block body.
func checkBlockSanity(block *wire.MsgBlock) error {
	if len(block.Transactions) == 0 {
		return fmt.Errorf("block has no transactions")
	}
	if !isCoinbase(block.Transactions[0]) {
		return fmt.Errorf("first transaction is not a coinbase")
	}
	for _, tx := range block.Transactions[1:] {
		if isCoinbase(tx) {
			return fmt.Errorf("block has more than one coinbase")
		}
	}
	return nil
}

func isCoinbase(tx *wire.MsgTx) bool {
	if len(tx.TxIn) != 1 {
		return false
	}
	prev := &tx.TxIn[0].PreviousOutPoint
	return prev.Index == wire.MaxPrevOutIndex && prev.Hash == (chainhash.Hash{})
}

// undoForBlock builds the undo record for a block: one entry per
// non-coinbase transaction. Spent-coin metadata comes from the UTXO view,
// which lives outside this layer, so entries carry empty coin lists here.
func undoForBlock(block *wire.MsgBlock) *model.BlockUndo {
	if len(block.Transactions) <= 1 {
		return &model.BlockUndo{}
	}
	return &model.BlockUndo{Txs: make([]model.TxUndo, len(block.Transactions)-1)}
}
