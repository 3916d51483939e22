package strategy

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/kebairia/snapvault/internal/fsaccess"
	"github.com/kebairia/snapvault/internal/logger"
	"github.com/kebairia/snapvault/internal/snapshot"
)

// catalogStub backs the ParentLookup with a plain map.
type catalogStub map[string]*snapshot.Metadata

func (c catalogStub) lookup(id string) (*snapshot.Metadata, bool) {
	meta, ok := c[id]
	return meta, ok
}

func TestIncremental_DeltaCorrectness(t *testing.T) {
	env := newTestEnv(t)
	pathA := env.writeSource(t, "a.txt", "alpha v1")
	pathB := env.writeSource(t, "b.txt", "bravo v1")

	// Pin modification times well in the past so "strictly newer"
	// comparisons never depend on filesystem clock resolution.
	past := time.Now().Add(-time.Hour)
	for _, p := range []string{pathA, pathB} {
		if err := os.Chtimes(p, past, past); err != nil {
			t.Fatalf("chtimes %s: %v", p, err)
		}
	}

	catalog := catalogStub{}
	strat := NewIncremental(env.fs, logger.Nop(), catalog.lookup)
	cfg := testConfig(false)

	// First run of the chain has no parent and backs up everything.
	full := strat.Backup(context.Background(), []string{env.sourceDir}, env.destDir, cfg, "", fsaccess.Filters{})
	if !full.Success {
		t.Fatalf("initial backup failed: %s", full.Error)
	}
	if len(full.Metadata.Files) != 2 {
		t.Fatalf("expected full collection without a parent, got %d files", len(full.Metadata.Files))
	}
	catalog[full.Metadata.ID] = full.Metadata

	// Modify only a.
	if err := os.WriteFile(pathA, []byte("alpha v2"), 0o644); err != nil {
		t.Fatalf("modify a: %v", err)
	}
	newer := past.Add(30 * time.Minute)
	if err := os.Chtimes(pathA, newer, newer); err != nil {
		t.Fatalf("chtimes a: %v", err)
	}

	delta := strat.Backup(context.Background(), []string{env.sourceDir}, env.destDir, cfg, full.Metadata.ID, fsaccess.Filters{})
	if !delta.Success {
		t.Fatalf("incremental backup failed: %s", delta.Error)
	}

	meta := delta.Metadata
	if meta.ParentBackupID != full.Metadata.ID {
		t.Errorf("parent id mismatch: %q", meta.ParentBackupID)
	}
	if len(meta.Files) != 1 {
		t.Fatalf("expected a sparse overlay with 1 file, got %d", len(meta.Files))
	}
	if meta.Files[0].Path != pathA {
		t.Errorf("expected only the changed file %q, got %q", pathA, meta.Files[0].Path)
	}
}

func TestIncremental_EqualModTimeMeansUnchanged(t *testing.T) {
	env := newTestEnv(t)
	pathA := env.writeSource(t, "a.txt", "alpha")

	past := time.Now().Add(-time.Hour)
	if err := os.Chtimes(pathA, past, past); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	catalog := catalogStub{}
	strat := NewIncremental(env.fs, logger.Nop(), catalog.lookup)
	cfg := testConfig(false)

	full := strat.Backup(context.Background(), []string{env.sourceDir}, env.destDir, cfg, "", fsaccess.Filters{})
	if !full.Success {
		t.Fatalf("initial backup failed: %s", full.Error)
	}
	catalog[full.Metadata.ID] = full.Metadata

	files, err := strat.CollectFiles(context.Background(), []string{env.sourceDir}, fsaccess.Filters{}, full.Metadata.ID)
	if err != nil {
		t.Fatalf("CollectFiles: %v", err)
	}
	if len(files) != 0 {
		t.Errorf("equal modification time must count as unchanged, got %v", files)
	}
}

func TestIncremental_NewFileIsAlwaysIncluded(t *testing.T) {
	env := newTestEnv(t)
	pathA := env.writeSource(t, "a.txt", "alpha")
	past := time.Now().Add(-time.Hour)
	if err := os.Chtimes(pathA, past, past); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	catalog := catalogStub{}
	strat := NewIncremental(env.fs, logger.Nop(), catalog.lookup)
	cfg := testConfig(false)

	full := strat.Backup(context.Background(), []string{env.sourceDir}, env.destDir, cfg, "", fsaccess.Filters{})
	catalog[full.Metadata.ID] = full.Metadata

	// A brand-new file, even with an ancient modification time, is
	// included: first seen is included.
	pathNew := env.writeSource(t, "new.txt", "fresh")
	ancient := past.Add(-24 * time.Hour)
	if err := os.Chtimes(pathNew, ancient, ancient); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	files, err := strat.CollectFiles(context.Background(), []string{env.sourceDir}, fsaccess.Filters{}, full.Metadata.ID)
	if err != nil {
		t.Fatalf("CollectFiles: %v", err)
	}
	if len(files) != 1 || files[0] != pathNew {
		t.Errorf("expected only the new file, got %v", files)
	}
}

func TestIncremental_UnknownParentFailsTheBackup(t *testing.T) {
	env := newTestEnv(t)
	env.writeSource(t, "a.txt", "alpha")

	strat := NewIncremental(env.fs, logger.Nop(), catalogStub{}.lookup)
	result := strat.Backup(context.Background(), []string{env.sourceDir}, env.destDir, testConfig(false), "gone", fsaccess.Filters{})

	if result.Success {
		t.Fatal("backup against a missing parent must fail")
	}
	if result.Metadata.Status != snapshot.StatusFailed {
		t.Errorf("expected failed status, got %s", result.Metadata.Status)
	}

	_, err := strat.CollectFiles(context.Background(), []string{env.sourceDir}, fsaccess.Filters{}, "gone")
	if !errors.Is(err, ErrParentNotFound) {
		t.Errorf("expected ErrParentNotFound, got %v", err)
	}
}
