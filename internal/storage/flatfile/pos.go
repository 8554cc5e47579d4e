// Package flatfile manages the numbered append-only files that hold raw
// block and undo records, and the positions that identify records within
// them.
package flatfile

import "fmt"

// Pos identifies where a stored record begins: a file index within a record
// class plus a byte offset into that file. A Pos is assigned exactly once,
// at write time, and never changes afterwards.
type Pos struct {
	File   int32
	Offset uint32
}

// NullPos is the position of a record that has not been written.
var NullPos = Pos{File: -1}

// IsNull reports whether the position has been assigned.
func (p Pos) IsNull() bool {
	return p.File < 0
}

// Equal reports whether two positions identify the same record.
func (p Pos) Equal(o Pos) bool {
	return p.File == o.File && p.Offset == o.Offset
}

// Less orders positions by (file, offset) for sequential scans.
func (p Pos) Less(o Pos) bool {
	if p.File != o.File {
		return p.File < o.File
	}
	return p.Offset < o.Offset
}

func (p Pos) String() string {
	if p.IsNull() {
		return "(null)"
	}
	return fmt.Sprintf("(file=%d, offset=%d)", p.File, p.Offset)
}
