package chaincfg

import (
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// genesisCoinbaseTx is the single transaction shared by the genesis blocks of
// every supported network. The signature script carries the well-known
// newspaper headline.
var genesisCoinbaseTx = wire.MsgTx{
	Version: 1,
	TxIn: []*wire.TxIn{
		{
			PreviousOutPoint: wire.OutPoint{
				Hash:  chainhash.Hash{},
				Index: 0xffffffff,
			},
			SignatureScript: []byte{
				0x04, 0xff, 0xff, 0x00, 0x1d, 0x01, 0x04, 0x45, // |.......E|
				0x54, 0x68, 0x65, 0x20, 0x54, 0x69, 0x6d, 0x65, // |The Time|
				0x73, 0x20, 0x30, 0x33, 0x2f, 0x4a, 0x61, 0x6e, // |s 03/Jan|
				0x2f, 0x32, 0x30, 0x30, 0x39, 0x20, 0x43, 0x68, // |/2009 Ch|
				0x61, 0x6e, 0x63, 0x65, 0x6c, 0x6c, 0x6f, 0x72, // |ancellor|
				0x20, 0x6f, 0x6e, 0x20, 0x62, 0x72, 0x69, 0x6e, // | on brin|
				0x6b, 0x20, 0x6f, 0x66, 0x20, 0x73, 0x65, 0x63, // |k of sec|
				0x6f, 0x6e, 0x64, 0x20, 0x62, 0x61, 0x69, 0x6c, // |ond bail|
				0x6f, 0x75, 0x74, 0x20, 0x66, 0x6f, 0x72, 0x20, // |out for |
				0x62, 0x61, 0x6e, 0x6b, 0x73, // |banks|
			},
			Sequence: 0xffffffff,
		},
	},
	TxOut: []*wire.TxOut{
		{
			Value: 50 * 1e8,
			PkScript: []byte{
				0x41, // OP_DATA_65
				0x04, 0x67, 0x8a, 0xfd, 0xb0, 0xfe, 0x55, 0x48,
				0x27, 0x19, 0x67, 0xf1, 0xa6, 0x71, 0x30, 0xb7,
				0x10, 0x5c, 0xd6, 0xa8, 0x28, 0xe0, 0x39, 0x09,
				0xa6, 0x79, 0x62, 0xe0, 0xea, 0x1f, 0x61, 0xde,
				0xb6, 0x49, 0xf6, 0xbc, 0x3f, 0x4c, 0xef, 0x38,
				0xc4, 0xf3, 0x55, 0x04, 0xe5, 0x1e, 0xc1, 0x12,
				0xde, 0x5c, 0x38, 0x4d, 0xf7, 0xba, 0x0b, 0x8d,
				0x57, 0x8a, 0x4c, 0x70, 0x2b, 0x6b, 0xf1, 0x1d,
				0x5f,
				0xac, // OP_CHECKSIG
			},
		},
	},
	LockTime: 0,
}

// genesisMerkleRoot is the merkle root of every genesis block, which is the
// id of the lone coinbase transaction above.
var genesisMerkleRoot = mustHash("4a5e1e4baab89f3a32518a88c31bc87f618f76673e2cc77ab2127b7afdeda33b")

var mainnetGenesisBlock = wire.MsgBlock{
	Header: wire.BlockHeader{
		Version:    1,
		PrevBlock:  chainhash.Hash{},
		MerkleRoot: genesisMerkleRoot,
		Timestamp:  time.Unix(1231006505, 0),
		Bits:       0x1d00ffff,
		Nonce:      2083236893,
	},
	Transactions: []*wire.MsgTx{&genesisCoinbaseTx},
}

var testnetGenesisBlock = wire.MsgBlock{
	Header: wire.BlockHeader{
		Version:    1,
		PrevBlock:  chainhash.Hash{},
		MerkleRoot: genesisMerkleRoot,
		Timestamp:  time.Unix(1296688602, 0),
		Bits:       0x1d00ffff,
		Nonce:      414098458,
	},
	Transactions: []*wire.MsgTx{&genesisCoinbaseTx},
}

var regtestGenesisBlock = wire.MsgBlock{
	Header: wire.BlockHeader{
		Version:    1,
		PrevBlock:  chainhash.Hash{},
		MerkleRoot: genesisMerkleRoot,
		Timestamp:  time.Unix(1296688602, 0),
		Bits:       0x207fffff,
		Nonce:      2,
	},
	Transactions: []*wire.MsgTx{&genesisCoinbaseTx},
}
