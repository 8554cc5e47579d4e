package blockstore

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/btcsuite/btcd/wire"
)

const (
	// RecordHeaderSize is the fixed preamble of every stored record:
	// 4 magic bytes identifying the network, then the payload length as a
	// little-endian uint32.
	RecordHeaderSize = 8

	// MaxRecordSize bounds a single stored payload. Anything above this is
	// treated as framing corruption rather than attempted.
	MaxRecordSize = 32 * 1024 * 1024
)

// putRecordHeader writes magic || length_LE into an 8-byte buffer.
func putRecordHeader(buf []byte, net wire.BitcoinNet, length uint32) {
	binary.LittleEndian.PutUint32(buf[0:4], uint32(net))
	binary.LittleEndian.PutUint32(buf[4:8], length)
}

// readRecordHeader reads and validates a record preamble. The magic is
// checked before the length is trusted.
func readRecordHeader(r io.Reader, net wire.BitcoinNet) (uint32, error) {
	var hdr [RecordHeaderSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return 0, fmt.Errorf("%w: short record header", ErrTruncatedRecord)
		}
		return 0, fmt.Errorf("read record header: %w", err)
	}

	if got := wire.BitcoinNet(binary.LittleEndian.Uint32(hdr[0:4])); got != net {
		return 0, fmt.Errorf("%w: magic 0x%08x, want 0x%08x", ErrCorruptRecord, uint32(got), uint32(net))
	}
	length := binary.LittleEndian.Uint32(hdr[4:8])
	if length == 0 || length > MaxRecordSize {
		return 0, fmt.Errorf("%w: implausible record length %d", ErrCorruptRecord, length)
	}
	return length, nil
}

// readRecordPayload reads exactly length bytes, mapping a short read to the
// truncation error.
func readRecordPayload(r io.Reader, length uint32) ([]byte, error) {
	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: record declares %d bytes", ErrTruncatedRecord, length)
		}
		return nil, fmt.Errorf("read record payload: %w", err)
	}
	return payload, nil
}

// EncodeBlockRecord produces the canonical on-disk bytes of a block:
// magic || length_LE || wire-format block. The output is deterministic for a
// given block.
func EncodeBlockRecord(net wire.BitcoinNet, block *wire.MsgBlock) ([]byte, error) {
	var payload bytes.Buffer
	payload.Grow(block.SerializeSize())
	if err := block.Serialize(&payload); err != nil {
		return nil, fmt.Errorf("serialize block: %w", err)
	}
	if payload.Len() > MaxRecordSize {
		return nil, fmt.Errorf("block of %d bytes exceeds max record size", payload.Len())
	}

	out := make([]byte, RecordHeaderSize+payload.Len())
	putRecordHeader(out, net, uint32(payload.Len()))
	copy(out[RecordHeaderSize:], payload.Bytes())
	return out, nil
}

// DecodeBlockRecord reads one framed block record from r, verifying the
// preamble before parsing the payload.
func DecodeBlockRecord(r io.Reader, net wire.BitcoinNet) (*wire.MsgBlock, error) {
	length, err := readRecordHeader(r, net)
	if err != nil {
		return nil, err
	}
	payload, err := readRecordPayload(r, length)
	if err != nil {
		return nil, err
	}

	block := &wire.MsgBlock{}
	if err := block.Deserialize(bytes.NewReader(payload)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeserialize, err)
	}
	return block, nil
}
