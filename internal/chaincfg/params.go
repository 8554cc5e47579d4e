// Package chaincfg defines the per-network consensus constants consumed by
// the storage and validation layers. Parameters are resolved once at startup
// and injected; nothing in this package is mutated at runtime.
package chaincfg

import (
	"fmt"
	"math/big"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

const (
	NetworkMainnet = "mainnet"
	NetworkTestnet = "testnet"
	NetworkRegtest = "regtest"
)

// Params holds everything that varies per network. AssumeValid and
// MinimumChainWork are release-time checkpoints: blocks buried under
// MinimumChainWork on the path to AssumeValid may skip script validation.
// The assumed sizes are UX estimates (in GB) for sync progress, never
// consensus inputs.
type Params struct {
	Name string
	Net  wire.BitcoinNet

	GenesisBlock *wire.MsgBlock
	GenesisHash  chainhash.Hash

	PowLimit     *big.Int
	PowLimitBits uint32

	AssumeValid           chainhash.Hash
	MinimumChainWork      *big.Int
	AssumedBlockchainSize uint64
	AssumedChainstateSize uint64
}

var (
	bigOne = big.NewInt(1)

	// Main network proof of work limit: 2^224 - 1.
	mainPowLimit = new(big.Int).Sub(new(big.Int).Lsh(bigOne, 224), bigOne)

	// Regression test proof of work limit: 2^255 - 1.
	regtestPowLimit = new(big.Int).Sub(new(big.Int).Lsh(bigOne, 255), bigOne)
)

// MainnetParams are the consensus constants for the main network.
var MainnetParams = Params{
	Name:         NetworkMainnet,
	Net:          wire.MainNet,
	GenesisBlock: &mainnetGenesisBlock,
	GenesisHash:  mustHash("000000000019d6689c085ae165831e934ff763ae46a2a6c172b3f1b60a8ce26f"),
	PowLimit:     mainPowLimit,
	PowLimitBits: 0x1d00ffff,

	AssumeValid:           mustHash("0000000000000000095bcdbe2dc4dd86880fdf1ac8b5fb18789167794bcdc7ff"),
	MinimumChainWork:      mustChainWork("0000000000000000000000000000000000000000015dbe8716133bf777ad6f40"),
	AssumedBlockchainSize: 210,
	AssumedChainstateSize: 3,
}

// TestnetParams are the consensus constants for the public test network.
var TestnetParams = Params{
	Name:         NetworkTestnet,
	Net:          wire.TestNet3,
	GenesisBlock: &testnetGenesisBlock,
	GenesisHash:  mustHash("000000000933ea01ad0ee984209779baaec3ced90fa3f408719526f8d77f4943"),
	PowLimit:     mainPowLimit,
	PowLimitBits: 0x1d00ffff,

	AssumeValid:           mustHash("000000000007f86e6fd792cf89f896cc7fa852d23b2a1a85e16788824953ffd5"),
	MinimumChainWork:      mustChainWork("00000000000000000000000000000000000000000000006e91ff7d50c9d155b5"),
	AssumedBlockchainSize: 55,
	AssumedChainstateSize: 2,
}

// RegtestParams are the consensus constants for local regression testing.
// No assume-valid checkpoint ships for regtest: scripts are always verified.
var RegtestParams = Params{
	Name:         NetworkRegtest,
	Net:          wire.TestNet,
	GenesisBlock: &regtestGenesisBlock,
	GenesisHash:  mustHash("0f9188f13cb7b2c71f2a335e3a4fc328bf5beb436012afca590b1a11466e2206"),
	PowLimit:     regtestPowLimit,
	PowLimitBits: 0x207fffff,

	AssumeValid:           chainhash.Hash{},
	MinimumChainWork:      big.NewInt(0),
	AssumedBlockchainSize: 0,
	AssumedChainstateSize: 0,
}

// ParamsForNetwork resolves the constants table for a network name.
func ParamsForNetwork(name string) (*Params, error) {
	switch name {
	case NetworkMainnet:
		return &MainnetParams, nil
	case NetworkTestnet:
		return &TestnetParams, nil
	case NetworkRegtest:
		return &RegtestParams, nil
	default:
		return nil, fmt.Errorf("unknown network %q", name)
	}
}

func mustHash(s string) chainhash.Hash {
	h, err := chainhash.NewHashFromStr(s)
	if err != nil {
		panic("chaincfg: invalid hash " + s + ": " + err.Error())
	}
	return *h
}

func mustChainWork(hexWork string) *big.Int {
	w, ok := new(big.Int).SetString(hexWork, 16)
	if !ok {
		panic("chaincfg: invalid chain work " + hexWork)
	}
	return w
}
