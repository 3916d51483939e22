package fsaccess

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestEncodePath_LosslessAndDeterministic(t *testing.T) {
	fs := NewLocal()

	paths := []string{
		"/srv/data/a.txt",
		"/srv/data/b.txt",
		"/srv/data%2Fa.txt", // would collide with an escaped sibling if encoding were naive
		"/srv/da%ta/a.txt",
		`C:\Users\x\file.txt`,
	}

	seen := make(map[string]string)
	for _, p := range paths {
		enc := fs.EncodePath(p)
		if filepath.Separator == '/' && filepath.Dir(enc) != "." {
			t.Errorf("encoded path %q still contains a separator", enc)
		}
		if prev, dup := seen[enc]; dup {
			t.Errorf("encoding collision: %q and %q both encode to %q", prev, p, enc)
		}
		seen[enc] = p

		// Lookup is by re-encoding, so the function must be pure.
		if again := fs.EncodePath(p); again != enc {
			t.Errorf("encoding of %q is not deterministic", p)
		}
	}
}

func TestFilters_Empty(t *testing.T) {
	if !(Filters{}).Empty() {
		t.Error("zero filters must report empty")
	}
	if (Filters{Include: []string{"*"}}).Empty() {
		t.Error("an include pattern means not empty")
	}
	if (Filters{Exclude: []string{"*"}}).Empty() {
		t.Error("an exclude pattern means not empty")
	}
}

func TestCollectFiles_FilterSemantics(t *testing.T) {
	fs := NewLocal()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "keep.txt"), "a")
	writeFile(t, filepath.Join(dir, "skip.tmp"), "b")
	writeFile(t, filepath.Join(dir, "nested", "keep.log"), "c")

	t.Run("no filters collects everything", func(t *testing.T) {
		files, err := fs.CollectFiles(dir, Filters{})
		if err != nil {
			t.Fatalf("CollectFiles: %v", err)
		}
		if len(files) != 3 {
			t.Errorf("expected 3 files, got %d: %v", len(files), files)
		}
	})

	t.Run("exclude wins", func(t *testing.T) {
		files, err := fs.CollectFiles(dir, Filters{
			Include: []string{"*"},
			Exclude: []string{"*.tmp"},
		})
		if err != nil {
			t.Fatalf("CollectFiles: %v", err)
		}
		for _, f := range files {
			if filepath.Ext(f) == ".tmp" {
				t.Errorf("excluded file survived: %s", f)
			}
		}
		if len(files) != 2 {
			t.Errorf("expected 2 files, got %d", len(files))
		}
	})

	t.Run("include requires a match", func(t *testing.T) {
		files, err := fs.CollectFiles(dir, Filters{Include: []string{"*.log"}})
		if err != nil {
			t.Fatalf("CollectFiles: %v", err)
		}
		if len(files) != 1 || filepath.Base(files[0]) != "keep.log" {
			t.Errorf("expected only keep.log, got %v", files)
		}
	})

	t.Run("single file source", func(t *testing.T) {
		files, err := fs.CollectFiles(filepath.Join(dir, "keep.txt"), Filters{})
		if err != nil {
			t.Fatalf("CollectFiles: %v", err)
		}
		if len(files) != 1 {
			t.Errorf("expected the file itself, got %v", files)
		}
	})
}

func TestChecksum_Algorithms(t *testing.T) {
	fs := NewLocal()
	path := filepath.Join(t.TempDir(), "sum.txt")
	writeFile(t, path, "checksum me")

	want := sha256.Sum256([]byte("checksum me"))
	got, err := fs.Checksum(path, "sha256")
	if err != nil {
		t.Fatalf("Checksum: %v", err)
	}
	if got != hex.EncodeToString(want[:]) {
		t.Errorf("sha256 mismatch: %s", got)
	}

	// Empty algorithm defaults to sha256.
	def, err := fs.Checksum(path, "")
	if err != nil {
		t.Fatalf("Checksum: %v", err)
	}
	if def != got {
		t.Errorf("default algorithm should be sha256")
	}

	if _, err := fs.Checksum(path, "crc1337"); !errors.Is(err, ErrUnknownAlgorithm) {
		t.Errorf("expected ErrUnknownAlgorithm, got %v", err)
	}
}

func TestCopyRestore_RoundTrip(t *testing.T) {
	fs := NewLocal()
	dir := t.TempDir()
	src := filepath.Join(dir, "payload.bin")
	writeFile(t, src, "some payload that should compress and come back intact")

	for _, compress := range []bool{false, true} {
		name := "plain"
		if compress {
			name = "compressed"
		}
		t.Run(name, func(t *testing.T) {
			stored := filepath.Join(dir, "stored-"+name)
			record, err := fs.CopyFile(src, stored, compress, 0)
			if err != nil {
				t.Fatalf("CopyFile: %v", err)
			}
			if record.Path != src {
				t.Errorf("record path should be the original source, got %q", record.Path)
			}
			if record.Compressed != compress {
				t.Errorf("record compressed flag = %v, want %v", record.Compressed, compress)
			}

			restored := filepath.Join(dir, "restored-"+name, "payload.bin")
			if err := fs.RestoreFile(stored, restored, compress); err != nil {
				t.Fatalf("RestoreFile: %v", err)
			}

			sum, err := fs.Checksum(restored, "sha256")
			if err != nil {
				t.Fatalf("Checksum: %v", err)
			}
			if sum != record.Checksum {
				t.Errorf("restored content differs from original: %s != %s", sum, record.Checksum)
			}
		})
	}
}

func TestWriteJSONAtomic_ReplacesWithoutLeavingTempFiles(t *testing.T) {
	fs := NewLocal()
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.json")

	if err := fs.WriteJSONAtomic(path, map[string]int{"v": 1}); err != nil {
		t.Fatalf("WriteJSONAtomic: %v", err)
	}
	if err := fs.WriteJSONAtomic(path, map[string]int{"v": 2}); err != nil {
		t.Fatalf("WriteJSONAtomic overwrite: %v", err)
	}

	var out map[string]int
	if err := fs.ReadJSON(path, &out); err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if out["v"] != 2 {
		t.Errorf("expected the replacing write to win, got %v", out)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "doc.json" {
		t.Errorf("expected only doc.json in %s, got %d entries", dir, len(entries))
	}
}

func TestWriteReadJSON(t *testing.T) {
	fs := NewLocal()
	path := filepath.Join(t.TempDir(), "doc.json")

	in := map[string][]string{"files": {"a", "b"}}
	if err := fs.WriteJSON(path, in); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}

	var out map[string][]string
	if err := fs.ReadJSON(path, &out); err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	got := out["files"]
	sort.Strings(got)
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("round trip mismatch: %v", out)
	}
}
