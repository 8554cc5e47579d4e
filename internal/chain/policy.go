package chain

import (
	"math/big"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/goodnatureofminers/blockvault7000/internal/chaincfg"
	"github.com/goodnatureofminers/blockvault7000/internal/model"
)

// ScriptPolicy decides whether a block must run full script and signature
// verification, or may skip it under the assume-valid checkpoint. Skipping
// is a trust decision the operator can revoke: an override with a zero hash
// disables it entirely and always wins over the shipped constant.
type ScriptPolicy struct {
	assumeValid chainhash.Hash
	minWork     *big.Int
}

// NewScriptPolicy builds the policy from network parameters. A non-nil
// override replaces the shipped assume-valid hash; pass a zero hash to
// disable skipping.
func NewScriptPolicy(params *chaincfg.Params, override *chainhash.Hash) *ScriptPolicy {
	assumeValid := params.AssumeValid
	if override != nil {
		assumeValid = *override
	}
	return &ScriptPolicy{
		assumeValid: assumeValid,
		minWork:     params.MinimumChainWork,
	}
}

// AssumeValidHash returns the effective checkpoint hash; zero means
// skipping is disabled.
func (p *ScriptPolicy) AssumeValidHash() chainhash.Hash {
	return p.assumeValid
}

// ShouldVerifyScripts reports whether scripts must be verified for node.
// Skipping is offered only when the assume-valid entry is known to the
// index, node lies on the chain leading to it, and that chain's cumulative
// work meets the minimum chain work. Chain-work comparisons themselves are
// never shortcut.
func (p *ScriptPolicy) ShouldVerifyScripts(node, assumeValidNode *model.BlockNode) bool {
	if p.assumeValid == (chainhash.Hash{}) {
		return true
	}
	if node == nil || assumeValidNode == nil {
		return true
	}
	if !node.IsAncestorOf(assumeValidNode) {
		return true
	}
	if assumeValidNode.Work.Cmp(p.minWork) < 0 {
		return true
	}
	return false
}
