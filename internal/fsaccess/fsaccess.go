// Package fsaccess is the engine's port onto the filesystem: enumeration,
// checksums, stream copy with optional gzip compression, and JSON
// persistence. Strategies never touch the os package directly; everything
// goes through the Access interface so tests can substitute it.
package fsaccess

import (
	"errors"
	"time"

	"github.com/kebairia/snapvault/internal/snapshot"
)

// ErrUnknownAlgorithm indicates an unsupported checksum algorithm name.
var ErrUnknownAlgorithm = errors.New("unknown checksum algorithm")

// Filters narrows file enumeration. Exclude wins over include; if any
// include pattern is given, a file must match at least one to survive.
type Filters struct {
	Include []string
	Exclude []string
}

// Empty reports whether the filters restrict nothing.
func (f Filters) Empty() bool {
	return len(f.Include) == 0 && len(f.Exclude) == 0
}

// Access is the File Access Port consumed by the backup strategies.
type Access interface {
	// CreateDirectory creates path and any missing parents.
	CreateDirectory(path string) error

	// CollectFiles recursively expands path (a file or a directory)
	// into the list of regular files surviving the filters.
	CollectFiles(path string, filters Filters) ([]string, error)

	// Checksum computes the hex digest of the file at path using the
	// named algorithm (sha256, sha1, md5). Empty algorithm means sha256.
	Checksum(path, algorithm string) (string, error)

	// EncodePath maps a logical source path to a flat on-disk name.
	// The encoding is a lossless pure function of the input: lookups
	// are done by encoding the expected path and comparing, never by
	// decoding the stored name.
	EncodePath(path string) string

	FileExists(path string) bool
	IsDirectory(path string) bool

	// FileSize returns the on-disk size of the file at path.
	FileSize(path string) (int64, error)

	// ModifiedTime returns the file's modification time at whatever
	// resolution the underlying filesystem provides.
	ModifiedTime(path string) (time.Time, error)

	// CopyFile copies src into dst, gzip-compressing the stream when
	// compress is set, and returns the per-file backup record. The
	// checksum in the record is over the original (uncompressed) bytes.
	CopyFile(src, dst string, compress bool, level int) (snapshot.FileInfo, error)

	// RestoreFile copies a snapshot file back to target, decompressing
	// when the file was stored compressed.
	RestoreFile(src, dst string, compressed bool) error

	WriteJSON(path string, v any) error

	// WriteJSONAtomic replaces path with the encoded value through a
	// temp-file rename, so a concurrent reader sees either the old
	// content or the new, never a partial write.
	WriteJSONAtomic(path string, v any) error

	ReadJSON(path string, v any) error
}
