// Package archive implements the binary persistence codec and the
// atomic-rename save/load protocol.
package archive

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/sauronlib/sauron/internal/engine"
	pkgerrors "github.com/sauronlib/sauron/pkg/errors"
	"github.com/sauronlib/sauron/pkg/filesys"
)

const (
	magic            = "SAUR"
	currentVersion   = uint32(1)
	headerSize       = 16 // magic(4) + version(4) + entry_count(8)
	entrySize        = 6  // ip(4) + score(2)
	defaultBatchSize = 4096
	maxEntryCount    = 1 << 32
)

// Save writes the context behind e to path: a temp file in the same
// directory, written in full, synced, then renamed over the target so a
// crash mid-write never corrupts an existing archive. Scores of zero are
// never written. batchSize is how many entries the writer buffers before
// it touches the file descriptor again; 0 or negative selects
// defaultBatchSize (the options.DefaultArchiveBatchSize a Context passes
// through).
func Save(e *engine.Engine, path string, batchSize int) error {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	tmpPath := path + ".tmp." + strconv.Itoa(os.Getpid())
	e.Log().Infow("archive save starting", "path", path, "tmpPath", tmpPath)

	if dir := filepath.Dir(path); dir != "." {
		if err := filesys.CreateDir(dir, 0o755, true); err != nil {
			return pkgerrors.ClassifyIOError(err, "archive create directory", dir, 0)
		}
	}

	f, err := os.Create(tmpPath)
	if err != nil {
		return pkgerrors.ClassifyIOError(err, "archive create temp file", tmpPath, 0)
	}

	if err := writeArchive(e, f, batchSize); err != nil {
		f.Close()
		filesys.DeleteFile(tmpPath)
		return err
	}

	if err := f.Close(); err != nil {
		filesys.DeleteFile(tmpPath)
		return pkgerrors.ClassifyIOError(err, "archive close", tmpPath, 0)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		filesys.DeleteFile(tmpPath)
		return pkgerrors.ClassifyIOError(err, "archive rename", path, 0)
	}

	e.Log().Infow("archive save complete", "path", path)
	return nil
}

// writeArchive streams the header and every non-zero score to f, then
// seeks back to patch in the true entry count.
func writeArchive(e *engine.Engine, f *os.File, batchSize int) error {
	w := bufio.NewWriterSize(f, batchSize*entrySize)

	var header [headerSize]byte
	copy(header[0:4], magic)
	binary.LittleEndian.PutUint32(header[4:8], currentVersion)
	// entry_count placeholder; patched below once the true count is known.
	if _, err := w.Write(header[:]); err != nil {
		return pkgerrors.ClassifyIOError(err, "archive write header", f.Name(), 0)
	}

	var entryBuf [entrySize]byte
	var count uint64
	var writeErr error

	e.Foreach(func(ip uint32, score int16) bool {
		binary.LittleEndian.PutUint32(entryBuf[0:4], ip)
		binary.LittleEndian.PutUint16(entryBuf[4:6], uint16(score))
		if _, err := w.Write(entryBuf[:]); err != nil {
			writeErr = err
			return true
		}
		count++
		return false
	})
	if writeErr != nil {
		return pkgerrors.ClassifyIOError(writeErr, "archive write entry", f.Name(), int64(headerSize)+int64(count)*entrySize)
	}

	if err := w.Flush(); err != nil {
		return pkgerrors.ClassifyIOError(err, "archive flush", f.Name(), int64(headerSize)+int64(count)*entrySize)
	}

	if _, err := f.Seek(4, io.SeekStart); err != nil {
		return pkgerrors.ClassifyIOError(err, "archive seek count", f.Name(), 8)
	}
	var tail [4 + 8]byte
	binary.LittleEndian.PutUint32(tail[0:4], currentVersion)
	binary.LittleEndian.PutUint64(tail[4:12], count)
	if _, err := f.Write(tail[:]); err != nil {
		return pkgerrors.ClassifyIOError(err, "archive patch count", f.Name(), 4)
	}

	if err := f.Sync(); err != nil {
		return pkgerrors.ClassifyIOError(err, "archive sync", f.Name(), 0)
	}

	return nil
}

// Load validates the header at path, clears e's store, then repopulates it
// from the archive's entries. A missing file or a header that fails
// validation (short, bad magic, bad version, entry count over the cap) is
// rejected before e is touched; a short read in the entry stream leaves e
// cleared. batchSize behaves as in Save.
func Load(e *engine.Engine, path string, batchSize int) error {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	exists, err := filesys.Exists(path)
	if err != nil {
		return pkgerrors.ClassifyIOError(err, "archive stat", path, 0)
	}
	if !exists {
		return pkgerrors.NewArchiveError(nil, pkgerrors.ErrorCodeArchiveIO, "archive file does not exist").
			WithPath(path)
	}

	f, err := os.Open(path)
	if err != nil {
		return pkgerrors.ClassifyIOError(err, "archive open", path, 0)
	}
	defer f.Close()

	var header [headerSize]byte
	if _, err := io.ReadFull(f, header[:]); err != nil {
		return pkgerrors.NewArchiveError(err, pkgerrors.ErrorCodeArchiveTruncated, "archive header truncated").
			WithPath(path).WithOffset(0)
	}

	if string(header[0:4]) != magic {
		return pkgerrors.NewArchiveError(nil, pkgerrors.ErrorCodeArchiveMagic, "archive magic mismatch").
			WithPath(path).WithOffset(0)
	}

	version := binary.LittleEndian.Uint32(header[4:8])
	if version == 0 || version > currentVersion {
		return pkgerrors.NewArchiveError(nil, pkgerrors.ErrorCodeArchiveVersion, "unsupported archive version").
			WithPath(path).WithOffset(4).WithDetail("version", version)
	}

	count := binary.LittleEndian.Uint64(header[8:16])
	if count > maxEntryCount {
		return pkgerrors.NewArchiveError(nil, pkgerrors.ErrorCodeArchiveEntryCount, "archive entry count exceeds safety cap").
			WithPath(path).WithOffset(8).WithDetail("entryCount", count)
	}

	e.Log().Infow("archive load starting", "path", path, "version", version, "entryCount", count)
	e.Clear()

	r := bufio.NewReaderSize(f, batchSize*entrySize)
	var entryBuf [entrySize]byte

	for i := uint64(0); i < count; i++ {
		if _, err := io.ReadFull(r, entryBuf[:]); err != nil {
			return pkgerrors.NewArchiveError(err, pkgerrors.ErrorCodeArchiveTruncated, "archive entry truncated").
				WithPath(path).
				WithOffset(int64(headerSize)+int64(i)*entrySize).
				WithEntryIndex(int64(i))
		}

		ip := binary.LittleEndian.Uint32(entryBuf[0:4])
		score := int16(binary.LittleEndian.Uint16(entryBuf[4:6]))
		if score == 0 {
			continue
		}
		e.Set(ip, score)
	}

	e.Log().Infow("archive load complete", "path", path, "entryCount", count)
	return nil
}
