package flatfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/goodnatureofminers/blockvault7000/pkg/safe"
)

// FileSet owns the numbered files of one record class ("blk" for blocks,
// "rev" for undo data). File names are deterministic from (prefix, index),
// so a restart re-enumerates existing files without an auxiliary catalog.
//
// Allocation and rotation are serialized by a single mutex. Reads of
// already-published positions take fresh read-only handles and need no lock:
// published records are immutable.
type FileSet struct {
	logger      *zap.Logger
	dir         string
	prefix      string
	maxFileSize uint32

	mu      sync.Mutex
	curFile int32
	curSize uint32
}

// NewFileSet opens (creating if needed) the directory for one record class
// and resumes allocation at the end of the highest-numbered existing file.
func NewFileSet(logger *zap.Logger, dir, prefix string, maxFileSize uint32) (*FileSet, error) {
	if maxFileSize == 0 {
		return nil, errors.New("max file size must be positive")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create %s directory: %w", prefix, err)
	}

	s := &FileSet{
		logger:      logger.With(zap.String("class", prefix)),
		dir:         dir,
		prefix:      prefix,
		maxFileSize: maxFileSize,
	}
	if err := s.scan(); err != nil {
		return nil, err
	}
	return s, nil
}

// FilePath returns the path of the numbered file for this record class.
func (s *FileSet) FilePath(file int32) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s%05d.dat", s.prefix, file))
}

// scan resumes the allocation cursor from whatever files already exist.
func (s *FileSet) scan() error {
	for {
		info, err := os.Stat(s.FilePath(s.curFile + 1))
		if errors.Is(err, os.ErrNotExist) {
			break
		}
		if err != nil {
			return fmt.Errorf("scan %s files: %w", s.prefix, err)
		}
		if info.IsDir() {
			return fmt.Errorf("scan %s files: %s is a directory", s.prefix, info.Name())
		}
		s.curFile++
	}

	info, err := os.Stat(s.FilePath(s.curFile))
	switch {
	case errors.Is(err, os.ErrNotExist):
		s.curSize = 0
	case err != nil:
		return fmt.Errorf("scan %s files: %w", s.prefix, err)
	default:
		size, err := safe.Uint32(info.Size())
		if err != nil {
			return fmt.Errorf("%s file %d size: %w", s.prefix, s.curFile, err)
		}
		s.curSize = size
	}

	s.logger.Debug("file set opened",
		zap.Int32("file", s.curFile),
		zap.Uint32("size", s.curSize),
	)
	return nil
}

// Allocate reserves room for a record of the given size and returns its
// position. It rotates to a new file index when the record would not fit
// whole in the current file; a record never straddles two files.
func (s *FileSet) Allocate(size uint32) (Pos, error) {
	if size > s.maxFileSize {
		return NullPos, fmt.Errorf("record size %d exceeds max file size %d", size, s.maxFileSize)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.curSize+size > s.maxFileSize {
		// Sync the file being retired before moving the cursor off it.
		if err := s.syncFile(s.curFile); err != nil {
			return NullPos, err
		}
		s.curFile++
		s.curSize = 0
		s.logger.Info("rotated to new file", zap.Int32("file", s.curFile))
	}

	pos := Pos{File: s.curFile, Offset: s.curSize}
	s.curSize += size
	return pos, nil
}

// OpenRead returns a read-only handle positioned at pos. The caller owns the
// handle and must close it on every path.
func (s *FileSet) OpenRead(pos Pos) (*os.File, error) {
	return s.open(pos, os.O_RDONLY)
}

// OpenWrite returns a writable handle positioned at pos, creating the file
// if it does not exist yet. The caller owns the handle and must close it on
// every path.
func (s *FileSet) OpenWrite(pos Pos) (*os.File, error) {
	return s.open(pos, os.O_RDWR|os.O_CREATE)
}

func (s *FileSet) open(pos Pos, flag int) (*os.File, error) {
	if pos.IsNull() {
		return nil, fmt.Errorf("open %s file: null position", s.prefix)
	}
	f, err := os.OpenFile(s.FilePath(pos.File), flag, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open %s file %d: %w", s.prefix, pos.File, err)
	}
	if _, err := f.Seek(int64(pos.Offset), 0); err != nil {
		f.Close()
		return nil, fmt.Errorf("seek %s file %d to %d: %w", s.prefix, pos.File, pos.Offset, err)
	}
	return f, nil
}

// Sync forces the named file's written data to durable storage. It must
// complete before any position inside that file is published to the chain
// index.
func (s *FileSet) Sync(file int32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.syncFile(file)
}

// FlushAndSync makes the active file of this record class durable.
func (s *FileSet) FlushAndSync() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.syncFile(s.curFile)
}

func (s *FileSet) syncFile(file int32) error {
	f, err := os.OpenFile(s.FilePath(file), os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return fmt.Errorf("open %s file %d for sync: %w", s.prefix, file, err)
	}
	defer f.Close()
	if err := f.Sync(); err != nil {
		return fmt.Errorf("sync %s file %d: %w", s.prefix, file, err)
	}
	return nil
}

// ErrActiveFile is returned when an operation targets the file the
// allocation cursor currently sits in.
var ErrActiveFile = errors.New("file is active")

// Prune deletes a whole numbered file. The caller must have invalidated
// every chain-index entry referencing positions in it first.
func (s *FileSet) Prune(file int32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if file == s.curFile {
		return fmt.Errorf("prune %s file %d: %w", s.prefix, file, ErrActiveFile)
	}
	if err := os.Remove(s.FilePath(file)); err != nil {
		return fmt.Errorf("prune %s file %d: %w", s.prefix, file, err)
	}
	s.logger.Info("pruned file", zap.Int32("file", file))
	return nil
}
