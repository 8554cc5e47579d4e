package chaincfg

import (
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

func isZeroHash(h chainhash.Hash) bool {
	return h == chainhash.Hash{}
}

func TestGenesisHashes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		params *Params
	}{
		{name: NetworkMainnet, params: &MainnetParams},
		{name: NetworkTestnet, params: &TestnetParams},
		{name: NetworkRegtest, params: &RegtestParams},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			// The stored genesis hash must be the hash of the stored genesis
			// header, or every chain on this network starts broken.
			if got := tt.params.GenesisBlock.BlockHash(); got != tt.params.GenesisHash {
				t.Fatalf("genesis block hashes to %s, params say %s", got, tt.params.GenesisHash)
			}
			if tt.params.GenesisBlock.Header.Bits != tt.params.PowLimitBits {
				t.Fatalf("genesis bits 0x%08x, params say 0x%08x",
					tt.params.GenesisBlock.Header.Bits, tt.params.PowLimitBits)
			}
			if err := CheckProofOfWork(&tt.params.GenesisBlock.Header, tt.params); err != nil {
				t.Fatalf("genesis proof of work: %v", err)
			}
		})
	}
}

func TestParamsForNetwork(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		want    *Params
		wantErr bool
	}{
		{name: NetworkMainnet, want: &MainnetParams},
		{name: NetworkTestnet, want: &TestnetParams},
		{name: NetworkRegtest, want: &RegtestParams},
		{name: "signet", wantErr: true},
		{name: "", wantErr: true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ParamsForNetwork(tt.name)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.name)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParamsForNetwork: %v", err)
			}
			if got != tt.want {
				t.Fatalf("ParamsForNetwork(%q) returned wrong params table", tt.name)
			}
		})
	}
}

func TestNetworkConstants(t *testing.T) {
	t.Parallel()

	if MainnetParams.Net != wire.MainNet {
		t.Fatalf("mainnet magic = 0x%08x", uint32(MainnetParams.Net))
	}
	if MainnetParams.AssumedBlockchainSize != 210 || MainnetParams.AssumedChainstateSize != 3 {
		t.Fatalf("mainnet assumed sizes = %d/%d",
			MainnetParams.AssumedBlockchainSize, MainnetParams.AssumedChainstateSize)
	}
	if TestnetParams.AssumedBlockchainSize != 55 || TestnetParams.AssumedChainstateSize != 2 {
		t.Fatalf("testnet assumed sizes = %d/%d",
			TestnetParams.AssumedBlockchainSize, TestnetParams.AssumedChainstateSize)
	}

	// Regtest ships no assume-valid checkpoint: scripts always verify.
	if !isZeroHash(RegtestParams.AssumeValid) {
		t.Fatal("regtest must not ship an assume-valid hash")
	}
	if RegtestParams.MinimumChainWork.Sign() != 0 {
		t.Fatal("regtest must not require minimum chain work")
	}
	if isZeroHash(MainnetParams.AssumeValid) || isZeroHash(TestnetParams.AssumeValid) {
		t.Fatal("public networks must ship an assume-valid hash")
	}
	if MainnetParams.MinimumChainWork.Cmp(TestnetParams.MinimumChainWork) <= 0 {
		t.Fatal("mainnet minimum chain work must exceed testnet's")
	}
}
