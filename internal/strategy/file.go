package strategy

import (
	"context"

	"github.com/kebairia/snapvault/internal/config"
	"github.com/kebairia/snapvault/internal/fsaccess"
	"github.com/kebairia/snapvault/internal/logger"
	"github.com/kebairia/snapvault/internal/snapshot"
)

// NameFile is the strategy name for full backups of individual files.
const NameFile = "file"

// File is the full-backup strategy for a flat list of source files.
type File struct {
	core
}

var _ Strategy = (*File)(nil)

// NewFile returns the file strategy backed by the given port.
func NewFile(fs fsaccess.Access, log logger.Logger) *File {
	return &File{core: core{name: NameFile, typ: snapshot.TypeFull, fs: fs, log: log}}
}

func (s *File) Name() string { return s.name }

func (s *File) CollectFiles(ctx context.Context, sources []string, filters fsaccess.Filters, _ string) ([]string, error) {
	return s.collectDefault(ctx, sources, filters)
}

func (s *File) Backup(ctx context.Context, sources []string, destination string, cfg config.BackupConfig, parentID string, filters fsaccess.Filters) *snapshot.BackupResult {
	return s.backup(ctx, s.CollectFiles, sources, destination, cfg, parentID, filters)
}

func (s *File) Restore(ctx context.Context, meta *snapshot.Metadata, req snapshot.RestoreRequest, cfg config.BackupConfig) *snapshot.RestoreResult {
	return s.restore(ctx, meta, req, cfg)
}

func (s *File) Validate(meta *snapshot.Metadata, cfg config.BackupConfig) bool {
	return s.validate(meta, cfg)
}
