package strategy

import (
	"context"
	"fmt"

	"github.com/kebairia/snapvault/internal/config"
	"github.com/kebairia/snapvault/internal/fsaccess"
	"github.com/kebairia/snapvault/internal/logger"
	"github.com/kebairia/snapvault/internal/snapshot"
)

// NameIncremental is the strategy name for delta backups.
const NameIncremental = "incremental"

// ParentLookup resolves a backup id to its catalog record. The manager
// supplies it so the strategy never holds a reference to the catalog.
type ParentLookup func(id string) (*snapshot.Metadata, bool)

// Incremental backs up only the files that are new or changed relative to
// a parent snapshot. Its snapshots are sparse overlays: files unchanged
// since the parent are neither copied nor listed.
type Incremental struct {
	core
	lookup ParentLookup
}

var _ Strategy = (*Incremental)(nil)

// NewIncremental returns the incremental strategy backed by the given
// port and parent resolver.
func NewIncremental(fs fsaccess.Access, log logger.Logger, lookup ParentLookup) *Incremental {
	return &Incremental{
		core:   core{name: NameIncremental, typ: snapshot.TypeIncremental, fs: fs, log: log},
		lookup: lookup,
	}
}

func (s *Incremental) Name() string { return s.name }

// CollectFiles expands the sources fully, then narrows to files whose
// current modification time is strictly newer than the parent's recorded
// entry for the same path. Files absent from the parent are always
// included; equal modification times count as unchanged.
func (s *Incremental) CollectFiles(ctx context.Context, sources []string, filters fsaccess.Filters, parentID string) ([]string, error) {
	files, err := s.collectDefault(ctx, sources, filters)
	if err != nil {
		return nil, err
	}
	if parentID == "" {
		// No parent means nothing to diff against: first run of a
		// chain behaves like a full collection.
		return files, nil
	}

	parent, ok := s.lookup(parentID)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrParentNotFound, parentID)
	}

	changed := make([]string, 0, len(files))
	for _, file := range files {
		record, known := parent.FileByPath(file)
		if !known {
			changed = append(changed, file)
			continue
		}
		modified, err := s.fs.ModifiedTime(file)
		if err != nil {
			return nil, fmt.Errorf("modification time of %q: %w", file, err)
		}
		if modified.After(record.ModifiedTime) {
			changed = append(changed, file)
		}
	}

	s.log.Debug("incremental collection",
		"parent_id", parentID,
		"candidates", len(files),
		"changed", len(changed),
	)
	return changed, nil
}

func (s *Incremental) Backup(ctx context.Context, sources []string, destination string, cfg config.BackupConfig, parentID string, filters fsaccess.Filters) *snapshot.BackupResult {
	return s.backup(ctx, s.CollectFiles, sources, destination, cfg, parentID, filters)
}

func (s *Incremental) Restore(ctx context.Context, meta *snapshot.Metadata, req snapshot.RestoreRequest, cfg config.BackupConfig) *snapshot.RestoreResult {
	return s.restore(ctx, meta, req, cfg)
}

func (s *Incremental) Validate(meta *snapshot.Metadata, cfg config.BackupConfig) bool {
	return s.validate(meta, cfg)
}
