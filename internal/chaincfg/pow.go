package chaincfg

import (
	"fmt"
	"math/big"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

var oneLsh256 = new(big.Int).Lsh(big.NewInt(1), 256)

// CompactToBig expands a 32-bit compact difficulty representation into the
// full 256-bit target. The compact form is the wire encoding used in block
// headers: the high byte is a base-256 exponent, the low 23 bits a mantissa,
// and bit 23 a sign (negative targets only appear in malformed headers).
func CompactToBig(compact uint32) *big.Int {
	mantissa := compact & 0x007fffff
	negative := compact&0x00800000 != 0
	exponent := uint(compact >> 24)

	var target *big.Int
	if exponent <= 3 {
		mantissa >>= 8 * (3 - exponent)
		target = big.NewInt(int64(mantissa))
	} else {
		target = big.NewInt(int64(mantissa))
		target.Lsh(target, 8*(exponent-3))
	}

	if negative {
		target.Neg(target)
	}
	return target
}

// HashToBig converts a block hash into the big-endian integer the target
// comparison is defined over.
func HashToBig(hash *chainhash.Hash) *big.Int {
	// Hash bytes are little-endian on the wire.
	buf := *hash
	for i, j := 0, len(buf)-1; i < j; i, j = i+1, j-1 {
		buf[i], buf[j] = buf[j], buf[i]
	}
	return new(big.Int).SetBytes(buf[:])
}

// CheckProofOfWork verifies that the header's hash satisfies its own claimed
// target and that the claimed target does not exceed the network limit.
func CheckProofOfWork(header *wire.BlockHeader, p *Params) error {
	target := CompactToBig(header.Bits)
	if target.Sign() <= 0 {
		return fmt.Errorf("target difficulty %064x is not positive", target)
	}
	if target.Cmp(p.PowLimit) > 0 {
		return fmt.Errorf("target difficulty %064x exceeds network limit %064x", target, p.PowLimit)
	}

	hash := header.BlockHash()
	if HashToBig(&hash).Cmp(target) > 0 {
		return fmt.Errorf("block hash %s exceeds target difficulty %064x", hash, target)
	}
	return nil
}

// BlockProof returns the amount of work a header with the given compact
// target contributes to its chain: 2^256 / (target + 1).
func BlockProof(bits uint32) *big.Int {
	target := CompactToBig(bits)
	if target.Sign() <= 0 {
		return big.NewInt(0)
	}
	denom := new(big.Int).Add(target, bigOne)
	return denom.Div(oneLsh256, denom)
}
