// Package strategy implements the three backup strategies (file,
// directory, incremental) behind a single contract. The shared snapshot
// lifecycle lives in the composed core struct; each variant contributes
// its own file collection.
package strategy

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kebairia/snapvault/internal/config"
	"github.com/kebairia/snapvault/internal/fsaccess"
	"github.com/kebairia/snapvault/internal/logger"
	"github.com/kebairia/snapvault/internal/snapshot"
)

// MetadataFilename is the catalog record written inside every snapshot
// directory.
const MetadataFilename = "metadata.json"

// filesSubdir holds the backed-up file payloads inside a snapshot.
const filesSubdir = "files"

// ErrParentNotFound indicates an incremental backup referenced a parent
// snapshot the catalog no longer knows about.
var ErrParentNotFound = errors.New("parent backup not found")

// Strategy turns a list of source paths into a persisted snapshot and can
// later restore or validate it.
//
// Backup never returns a Go error: execution failures are captured in the
// result with Success=false and the metadata marked failed.
type Strategy interface {
	Name() string
	CollectFiles(ctx context.Context, sources []string, filters fsaccess.Filters, parentID string) ([]string, error)
	Backup(ctx context.Context, sources []string, destination string, cfg config.BackupConfig, parentID string, filters fsaccess.Filters) *snapshot.BackupResult
	Restore(ctx context.Context, meta *snapshot.Metadata, req snapshot.RestoreRequest, cfg config.BackupConfig) *snapshot.RestoreResult
	Validate(meta *snapshot.Metadata, cfg config.BackupConfig) bool
}

// collectFunc is the variant-specific half of a backup run.
type collectFunc func(ctx context.Context, sources []string, filters fsaccess.Filters, parentID string) ([]string, error)

// core carries the snapshot lifecycle shared by all variants.
type core struct {
	name string
	typ  snapshot.Type
	fs   fsaccess.Access
	log  logger.Logger
}

// collectDefault recursively expands every source through the port,
// applying the include/exclude filters.
func (c *core) collectDefault(ctx context.Context, sources []string, filters fsaccess.Filters) ([]string, error) {
	var files []string
	for _, source := range sources {
		if err := ctx.Err(); err != nil {
			return nil, context.Cause(ctx)
		}
		expanded, err := c.fs.CollectFiles(source, filters)
		if err != nil {
			return nil, fmt.Errorf("collect %q: %w", source, err)
		}
		files = append(files, expanded...)
	}
	return files, nil
}

// snapshotDir computes the deterministic snapshot directory. The id is
// embedded so two snapshots of the same job can never collide, even in
// the same millisecond.
func (c *core) snapshotDir(destination string, ts time.Time, id string) string {
	return filepath.Join(destination, c.name, fmt.Sprintf("%s-%s-%s", c.typ, encodeTimestamp(ts), id))
}

// encodeTimestamp renders an ISO-8601 UTC timestamp with ':' and '.'
// replaced by '-', keeping the directory name portable.
func encodeTimestamp(ts time.Time) string {
	iso := ts.UTC().Format("2006-01-02T15:04:05.000Z")
	return strings.NewReplacer(":", "-", ".", "-").Replace(iso)
}

// backup runs the shared snapshot lifecycle with the given collector.
func (c *core) backup(
	ctx context.Context,
	collect collectFunc,
	sources []string,
	destination string,
	cfg config.BackupConfig,
	parentID string,
	filters fsaccess.Filters,
) *snapshot.BackupResult {
	start := time.Now()
	meta := &snapshot.Metadata{
		ID:             uuid.NewString(),
		StrategyName:   c.name,
		Type:           c.typ,
		Timestamp:      start,
		StartTime:      start,
		Status:         snapshot.StatusRunning,
		Checksums:      make(map[string]string),
		ParentBackupID: parentID,
	}
	meta.BackupPath = c.snapshotDir(destination, start, meta.ID)

	err := c.writeSnapshot(ctx, collect, meta, sources, cfg, parentID, filters)
	if err != nil {
		meta.Status = snapshot.StatusFailed
		meta.ErrorMessage = err.Error()
		meta.EndTime = time.Now()
		c.log.Error("backup failed",
			"strategy", c.name,
			"backup_id", meta.ID,
			"error", err.Error(),
		)
		return &snapshot.BackupResult{
			Success:  false,
			Metadata: meta,
			Error:    err.Error(),
			Duration: time.Since(start),
		}
	}

	c.log.Info("backup completed",
		"strategy", c.name,
		"backup_id", meta.ID,
		"files", len(meta.Files),
		"size", meta.Size,
	)
	return &snapshot.BackupResult{
		Success:  true,
		Metadata: meta,
		Duration: time.Since(start),
	}
}

// writeSnapshot does the fallible part of a backup run against an
// already-initialized metadata record.
func (c *core) writeSnapshot(
	ctx context.Context,
	collect collectFunc,
	meta *snapshot.Metadata,
	sources []string,
	cfg config.BackupConfig,
	parentID string,
	filters fsaccess.Filters,
) error {
	files, err := collect(ctx, sources, filters, parentID)
	if err != nil {
		return err
	}

	payloadDir := filepath.Join(meta.BackupPath, filesSubdir)
	if err := c.fs.CreateDirectory(payloadDir); err != nil {
		return err
	}

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return context.Cause(ctx)
		}
		target := filepath.Join(payloadDir, c.fs.EncodePath(file))
		record, err := c.fs.CopyFile(file, target, cfg.Compression.Enabled, cfg.Compression.Level)
		if err != nil {
			return fmt.Errorf("copy %q: %w", file, err)
		}
		meta.Files = append(meta.Files, record)
		meta.Size += record.Size
		if record.Compressed {
			if stored, err := c.fs.FileSize(target); err == nil {
				meta.CompressedSize += stored
			}
		}
	}

	// The metadata file is written before its checksum is taken; the
	// checksum lives only in the in-memory catalog record and
	// authenticates the on-disk bytes as of this moment.
	metadataPath := filepath.Join(meta.BackupPath, MetadataFilename)
	if err := c.fs.WriteJSON(metadataPath, meta); err != nil {
		return err
	}
	sum, err := c.fs.Checksum(metadataPath, cfg.Verification.ChecksumAlgorithm)
	if err != nil {
		return err
	}
	meta.Checksums[snapshot.ChecksumBackup] = sum

	meta.Status = snapshot.StatusCompleted
	meta.EndTime = time.Now()
	return nil
}

// restore copies the requested subset of a snapshot back to disk.
// Each file's failure is recorded individually; the run never aborts on a
// single bad file.
func (c *core) restore(
	ctx context.Context,
	meta *snapshot.Metadata,
	req snapshot.RestoreRequest,
	cfg config.BackupConfig,
) *snapshot.RestoreResult {
	start := time.Now()
	result := &snapshot.RestoreResult{}

	files := meta.Files
	if len(req.Files) > 0 {
		wanted := make(map[string]struct{}, len(req.Files))
		for _, path := range req.Files {
			wanted[path] = struct{}{}
		}
		subset := make([]snapshot.FileInfo, 0, len(wanted))
		for _, f := range files {
			if _, ok := wanted[f.Path]; ok {
				subset = append(subset, f)
			}
		}
		files = subset
	}
	result.TotalFiles = len(files)

	if req.DryRun {
		result.Success = true
		result.RestoredFiles = len(files)
		result.Duration = time.Since(start)
		return result
	}

	if err := c.fs.CreateDirectory(req.TargetPath); err != nil {
		result.Errors = append(result.Errors, err.Error())
		result.Duration = time.Since(start)
		return result
	}

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			result.Errors = append(result.Errors, context.Cause(ctx).Error())
			break
		}
		target := filepath.Join(req.TargetPath, file.Path)
		if !req.Overwrite && c.fs.FileExists(target) {
			result.SkippedFiles++
			continue
		}
		source := filepath.Join(meta.BackupPath, filesSubdir, c.fs.EncodePath(file.Path))
		if err := c.fs.RestoreFile(source, target, file.Compressed); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", file.Path, err))
			continue
		}
		result.RestoredFiles++
	}

	result.Success = len(result.Errors) == 0
	result.Duration = time.Since(start)
	return result
}

// validate recomputes the checksum of the snapshot's metadata file and
// compares it against the recorded value. Any I/O failure collapses to
// false; "tampered" and "missing" are deliberately indistinguishable.
func (c *core) validate(meta *snapshot.Metadata, cfg config.BackupConfig) bool {
	want, ok := meta.Checksums[snapshot.ChecksumBackup]
	if !ok || want == "" {
		return false
	}
	metadataPath := filepath.Join(meta.BackupPath, MetadataFilename)
	got, err := c.fs.Checksum(metadataPath, cfg.Verification.ChecksumAlgorithm)
	if err != nil {
		return false
	}
	return got == want
}
