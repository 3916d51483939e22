package fsaccess

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/klauspost/compress/gzip"

	"github.com/kebairia/snapvault/internal/snapshot"
)

// Local is the production Access implementation backed by the local
// filesystem. It is stateless and safe for concurrent use.
type Local struct{}

var _ Access = Local{}

// NewLocal returns the local filesystem adapter.
func NewLocal() Local {
	return Local{}
}

func (Local) CreateDirectory(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", path, err)
	}
	return nil
}

func (l Local) CollectFiles(path string, filters Filters) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %q: %w", path, err)
	}

	if !info.IsDir() {
		if filters.Empty() || filters.match(path) {
			return []string{path}, nil
		}
		return nil, nil
	}

	var files []string
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		if filters.Empty() || filters.match(p) {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %q: %w", path, err)
	}
	return files, nil
}

// match applies the exclude-wins filter semantics to one file path.
// Patterns are matched against both the full path and the base name.
func (f Filters) match(path string) bool {
	for _, pat := range f.Exclude {
		if matchPattern(pat, path) {
			return false
		}
	}
	if len(f.Include) == 0 {
		return true
	}
	for _, pat := range f.Include {
		if matchPattern(pat, path) {
			return true
		}
	}
	return false
}

func matchPattern(pattern, path string) bool {
	if ok, err := filepath.Match(pattern, path); err == nil && ok {
		return true
	}
	ok, err := filepath.Match(pattern, filepath.Base(path))
	return err == nil && ok
}

func newHasher(algorithm string) (hash.Hash, error) {
	switch algorithm {
	case "", "sha256":
		return sha256.New(), nil
	case "sha1":
		return sha1.New(), nil
	case "md5":
		return md5.New(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, algorithm)
	}
}

func (Local) Checksum(path, algorithm string) (string, error) {
	h, err := newHasher(algorithm)
	if err != nil {
		return "", err
	}
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %q: %w", path, err)
	}
	defer f.Close()

	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("checksum %q: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// pathEncoder escapes the escape character itself first, then both path
// separators, so the mapping stays lossless without ever being decoded.
var pathEncoder = strings.NewReplacer(
	"%", "%25",
	"/", "%2F",
	"\\", "%5C",
	":", "%3A",
)

func (Local) EncodePath(path string) string {
	return pathEncoder.Replace(path)
}

func (Local) FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (Local) IsDirectory(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func (Local) FileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("stat %q: %w", path, err)
	}
	return info.Size(), nil
}

func (Local) ModifiedTime(path string) (time.Time, error) {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}, fmt.Errorf("stat %q: %w", path, err)
	}
	return info.ModTime(), nil
}

func (Local) CopyFile(src, dst string, compress bool, level int) (snapshot.FileInfo, error) {
	var record snapshot.FileInfo

	info, err := os.Stat(src)
	if err != nil {
		return record, fmt.Errorf("stat source %q: %w", src, err)
	}

	in, err := os.Open(src)
	if err != nil {
		return record, fmt.Errorf("open source %q: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return record, fmt.Errorf("create target %q: %w", dst, err)
	}
	defer out.Close()

	digest := sha256.New()
	reader := io.TeeReader(in, digest)

	if compress {
		if level == 0 {
			level = gzip.DefaultCompression
		}
		gz, err := gzip.NewWriterLevel(out, level)
		if err != nil {
			return record, fmt.Errorf("gzip writer for %q: %w", dst, err)
		}
		if _, err := io.Copy(gz, reader); err != nil {
			gz.Close()
			return record, fmt.Errorf("copy %q: %w", src, err)
		}
		if err := gz.Close(); err != nil {
			return record, fmt.Errorf("flush %q: %w", dst, err)
		}
	} else {
		if _, err := io.Copy(out, reader); err != nil {
			return record, fmt.Errorf("copy %q: %w", src, err)
		}
	}

	if err := out.Close(); err != nil {
		return record, fmt.Errorf("close %q: %w", dst, err)
	}

	record = snapshot.FileInfo{
		Path:         src,
		Size:         info.Size(),
		ModifiedTime: info.ModTime(),
		Checksum:     hex.EncodeToString(digest.Sum(nil)),
		Compressed:   compress,
	}
	return record, nil
}

func (l Local) RestoreFile(src, dst string, compressed bool) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open snapshot file %q: %w", src, err)
	}
	defer in.Close()

	var reader io.Reader = in
	if compressed {
		gz, err := gzip.NewReader(in)
		if err != nil {
			return fmt.Errorf("gzip reader for %q: %w", src, err)
		}
		defer gz.Close()
		reader = gz
	}

	if err := l.CreateDirectory(filepath.Dir(dst)); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create target %q: %w", dst, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, reader); err != nil {
		return fmt.Errorf("restore %q: %w", dst, err)
	}
	return out.Close()
}

func marshalJSON(path string, v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode JSON for %q: %w", path, err)
	}
	return data, nil
}

func (Local) WriteJSON(path string, v any) error {
	data, err := marshalJSON(path, v)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %q: %w", path, err)
	}
	return nil
}

func (Local) WriteJSONAtomic(path string, v any) error {
	data, err := marshalJSON(path, v)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("temp file for %q: %w", path, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write %q: %w", tmp.Name(), err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("chmod %q: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close %q: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace %q: %w", path, err)
	}
	return nil
}

func (Local) ReadJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %q: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode JSON from %q: %w", path, err)
	}
	return nil
}
