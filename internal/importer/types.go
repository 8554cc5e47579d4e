package importer

import (
	"context"
	"time"

	"github.com/btcsuite/btcd/wire"

	"github.com/goodnatureofminers/blockvault7000/internal/chain"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

type (
	// ChainstateManager connects decoded blocks into the chain. ProcessBlock
	// returns false with a nil error for blocks that are already known.
	ChainstateManager interface {
		ProcessBlock(ctx context.Context, block *wire.MsgBlock, flags chain.BehaviorFlags) (bool, error)
		ActivateBestChain(ctx context.Context) error
	}

	// Metrics observes per-block and per-file import outcomes.
	Metrics interface {
		ObserveBlock(state string, started time.Time)
		ObserveFile(err error, started time.Time)
		AddImportedBytes(n int)
	}
)
