package strategy

import (
	"context"

	"github.com/kebairia/snapvault/internal/config"
	"github.com/kebairia/snapvault/internal/fsaccess"
	"github.com/kebairia/snapvault/internal/logger"
	"github.com/kebairia/snapvault/internal/snapshot"
)

// NameDirectory is the strategy name for recursive directory backups.
const NameDirectory = "directory"

// Directory is the full-backup strategy for recursive directory trees.
// Collection is identical to the file strategy; keeping the variants
// separate preserves the strategy identity recorded in metadata, which
// restore relies on.
type Directory struct {
	core
}

var _ Strategy = (*Directory)(nil)

// NewDirectory returns the directory strategy backed by the given port.
func NewDirectory(fs fsaccess.Access, log logger.Logger) *Directory {
	return &Directory{core: core{name: NameDirectory, typ: snapshot.TypeFull, fs: fs, log: log}}
}

func (s *Directory) Name() string { return s.name }

func (s *Directory) CollectFiles(ctx context.Context, sources []string, filters fsaccess.Filters, _ string) ([]string, error) {
	return s.collectDefault(ctx, sources, filters)
}

func (s *Directory) Backup(ctx context.Context, sources []string, destination string, cfg config.BackupConfig, parentID string, filters fsaccess.Filters) *snapshot.BackupResult {
	return s.backup(ctx, s.CollectFiles, sources, destination, cfg, parentID, filters)
}

func (s *Directory) Restore(ctx context.Context, meta *snapshot.Metadata, req snapshot.RestoreRequest, cfg config.BackupConfig) *snapshot.RestoreResult {
	return s.restore(ctx, meta, req, cfg)
}

func (s *Directory) Validate(meta *snapshot.Metadata, cfg config.BackupConfig) bool {
	return s.validate(meta, cfg)
}
