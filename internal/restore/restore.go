// Package restore drives restore and validation against existing
// snapshots, inferring the right strategy from the recorded metadata.
package restore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kebairia/snapvault/internal/config"
	"github.com/kebairia/snapvault/internal/fsaccess"
	"github.com/kebairia/snapvault/internal/logger"
	"github.com/kebairia/snapvault/internal/snapshot"
	"github.com/kebairia/snapvault/internal/strategy"
)

var (
	// ErrNotCompleted indicates a restore was requested against a
	// snapshot that never completed. Partial snapshots are never
	// restored.
	ErrNotCompleted = errors.New("backup is not completed")

	// ErrUnknownStrategy indicates metadata whose recorded type or
	// strategy resolves to no known strategy.
	ErrUnknownStrategy = errors.New("unknown backup strategy")
)

// Option configures a Manager.
type Option func(*Manager)

// WithNotifier attaches a lifecycle event listener.
func WithNotifier(n snapshot.Notifier) Option {
	return func(m *Manager) { m.notify = n }
}

// Manager selects the correct strategy for an existing snapshot and
// delegates restore and validation to it. Restores take no cross-job
// lock: two restores may run concurrently, last writer wins.
type Manager struct {
	cfg config.BackupConfig
	log logger.Logger

	file        *strategy.File
	directory   *strategy.Directory
	incremental *strategy.Incremental

	notify snapshot.Notifier
}

// NewManager builds a restore manager over the given port.
func NewManager(cfg config.BackupConfig, fs fsaccess.Access, log logger.Logger, opts ...Option) *Manager {
	m := &Manager{
		cfg:       cfg,
		log:       log,
		file:      strategy.NewFile(fs, log),
		directory: strategy.NewDirectory(fs, log),
		// Restores never resolve parents, so no lookup is wired.
		incremental: strategy.NewIncremental(fs, log, nil),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Restore restores the snapshot described by meta according to req.
// Usage errors (non-completed snapshot, unresolvable strategy) come back
// as Go errors; per-file failures are accumulated inside the result.
func (m *Manager) Restore(ctx context.Context, meta *snapshot.Metadata, req snapshot.RestoreRequest) (*snapshot.RestoreResult, error) {
	if meta.Status != snapshot.StatusCompleted {
		return nil, fmt.Errorf("%w: backup %q has status %q", ErrNotCompleted, meta.ID, meta.Status)
	}
	strat, err := m.strategyFor(meta)
	if err != nil {
		return nil, err
	}

	m.notify.Emit(snapshot.Event{Kind: snapshot.EventStarted, BackupID: meta.ID, JobName: meta.JobName})
	m.log.Info("restore started",
		"backup_id", meta.ID,
		"strategy", strat.Name(),
		"target", req.TargetPath,
		"dry_run", req.DryRun,
	)

	result := strat.Restore(ctx, meta, req, m.cfg)

	if result.Success {
		m.notify.Emit(snapshot.Event{Kind: snapshot.EventCompleted, BackupID: meta.ID, JobName: meta.JobName})
		m.log.Info("restore completed",
			"backup_id", meta.ID,
			"restored", result.RestoredFiles,
			"skipped", result.SkippedFiles,
		)
	} else {
		m.notify.Emit(snapshot.Event{
			Kind:     snapshot.EventFailed,
			BackupID: meta.ID,
			JobName:  meta.JobName,
			Error:    strings.Join(result.Errors, "; "),
		})
		m.log.Error("restore finished with errors",
			"backup_id", meta.ID,
			"errors", len(result.Errors),
		)
	}
	return result, nil
}

// Validate checks the snapshot's metadata checksum using the strategy
// recorded in its metadata.
func (m *Manager) Validate(meta *snapshot.Metadata) (bool, error) {
	strat, err := m.strategyFor(meta)
	if err != nil {
		return false, err
	}
	return strat.Validate(meta, m.cfg), nil
}

// strategyFor resolves a strategy purely from recorded metadata. Full
// snapshots are disambiguated by a substring check on the strategy name.
func (m *Manager) strategyFor(meta *snapshot.Metadata) (strategy.Strategy, error) {
	switch meta.Type {
	case snapshot.TypeIncremental, snapshot.TypeDifferential:
		return m.incremental, nil
	case snapshot.TypeFull:
		if strings.Contains(meta.StrategyName, strategy.NameFile) {
			return m.file, nil
		}
		return m.directory, nil
	default:
		return nil, fmt.Errorf("%w: type %q, strategy %q", ErrUnknownStrategy, meta.Type, meta.StrategyName)
	}
}
