// Package chain provides the in-memory block index, the chain-state manager
// the importer connects blocks through, and the assume-valid script policy.
package chain

// BehaviorFlags tweaks block processing for callers that already hold
// stronger guarantees about a block than the default path assumes.
type BehaviorFlags uint32

const (
	// BFFastAdd indicates the block is known to extend a checkpointed
	// chain, so several contextual checks can be skipped.
	BFFastAdd BehaviorFlags = 1 << iota

	// BFNoPoWCheck skips the proof-of-work check. Only for blocks whose
	// work was already verified on another path.
	BFNoPoWCheck

	// BFNone is the default behavior.
	BFNone BehaviorFlags = 0
)
