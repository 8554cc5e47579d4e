package blockstore

import "errors"

// Every failure of this layer is attributable to exactly one of these kinds
// (possibly wrapped with context); callers distinguish them with errors.Is.
var (
	// ErrCorruptRecord means the record framing is wrong: bad network
	// magic, an implausible length, or a checksum mismatch.
	ErrCorruptRecord = errors.New("corrupt record")

	// ErrTruncatedRecord means fewer bytes were available than the record
	// header declared.
	ErrTruncatedRecord = errors.New("truncated record")

	// ErrDeserialize means the framing was intact but the payload did not
	// parse into a valid block or undo structure.
	ErrDeserialize = errors.New("deserialize record")

	// ErrBlockIndexCorrupted means a record decoded cleanly but fails the
	// structural checks for the position it was read from: the index and
	// the store disagree.
	ErrBlockIndexCorrupted = errors.New("block index corrupted")

	// ErrMissingPosition means the caller asked to read a block whose
	// index entry has no assigned position.
	ErrMissingPosition = errors.New("block position not set")

	// ErrMissingUndoData means the caller asked to read undo data that
	// was never written for the entry.
	ErrMissingUndoData = errors.New("undo data not available")
)
