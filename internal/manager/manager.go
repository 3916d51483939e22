// Package manager owns the in-process snapshot catalog and drives backup
// jobs: one Manager holds the id-to-metadata map, the set of job names
// currently executing, and the three strategies it dispatches to.
package manager

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/kebairia/snapvault/internal/config"
	"github.com/kebairia/snapvault/internal/fsaccess"
	"github.com/kebairia/snapvault/internal/logger"
	"github.com/kebairia/snapvault/internal/snapshot"
	"github.com/kebairia/snapvault/internal/strategy"
)

var (
	// ErrBackupsDisabled indicates the engine is disabled globally.
	ErrBackupsDisabled = errors.New("backups are disabled")

	// ErrJobDisabled indicates the requested job is disabled.
	ErrJobDisabled = errors.New("backup job is disabled")

	// ErrJobRunning indicates a backup for the same job name is
	// already running.
	ErrJobRunning = errors.New("backup job already running")

	// ErrUnknownStrategy indicates a job type or strategy name that
	// resolves to no known strategy.
	ErrUnknownStrategy = errors.New("unknown backup strategy")

	// ErrBackupNotFound indicates the catalog has no entry for the id.
	ErrBackupNotFound = errors.New("backup not found")

	// ErrBackupTimeout is the cancellation cause when the configured
	// per-backup timeout elapses.
	ErrBackupTimeout = errors.New("backup timed out")
)

// Option configures a Manager.
type Option func(*Manager)

// WithNotifier attaches a lifecycle event listener.
func WithNotifier(n snapshot.Notifier) Option {
	return func(m *Manager) { m.notify = n }
}

// Manager is the backup catalog and job orchestrator.
type Manager struct {
	cfg config.BackupConfig
	fs  fsaccess.Access
	log logger.Logger

	file        *strategy.File
	directory   *strategy.Directory
	incremental *strategy.Incremental

	catalogMu sync.RWMutex
	catalog   map[string]*snapshot.Metadata

	execMu    sync.Mutex
	executing map[string]struct{}

	persistMu sync.Mutex

	notify snapshot.Notifier
}

// NewManager builds a Manager around the given port. The incremental
// strategy resolves parents through the manager's own catalog.
func NewManager(cfg config.BackupConfig, fs fsaccess.Access, log logger.Logger, opts ...Option) *Manager {
	m := &Manager{
		cfg:       cfg,
		fs:        fs,
		log:       log,
		catalog:   make(map[string]*snapshot.Metadata),
		executing: make(map[string]struct{}),
	}
	m.file = strategy.NewFile(fs, log)
	m.directory = strategy.NewDirectory(fs, log)
	m.incremental = strategy.NewIncremental(fs, log, m.lookup)

	for _, opt := range opts {
		opt(m)
	}
	return m
}

// lookup resolves a backup id against the catalog. Handed to the
// incremental strategy as its ParentLookup.
func (m *Manager) lookup(id string) (*snapshot.Metadata, bool) {
	m.catalogMu.RLock()
	defer m.catalogMu.RUnlock()
	meta, ok := m.catalog[id]
	return meta, ok
}

// CreateBackup runs one backup for the given job. Usage errors (disabled
// job, duplicate run, unknown strategy) come back as Go errors with no
// catalog mutation; execution failures come back inside the result with
// Success=false and a failed metadata record stored in the catalog.
func (m *Manager) CreateBackup(ctx context.Context, job config.JobConfig) (*snapshot.BackupResult, error) {
	if !m.cfg.Enabled {
		return nil, ErrBackupsDisabled
	}
	if !job.Enabled {
		return nil, fmt.Errorf("%w: %q", ErrJobDisabled, job.Name)
	}

	if err := m.markExecuting(job.Name); err != nil {
		return nil, err
	}
	defer m.clearExecuting(job.Name)

	strat, err := m.strategyForJob(job)
	if err != nil {
		return nil, err
	}

	// Only incremental jobs chain onto a parent; the parent must have
	// been completed at selection time and is not re-validated later.
	var parentID string
	if job.Type == string(snapshot.TypeIncremental) {
		if parent := m.latestCompleted(job.Name); parent != nil {
			parentID = parent.ID
		}
	}

	destination := job.Destination
	if destination == "" {
		destination = m.cfg.Destination
	}
	filters := fsaccess.Filters{Include: job.Include, Exclude: job.Exclude}

	if m.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeoutCause(ctx, m.cfg.Timeout, ErrBackupTimeout)
		defer cancel()
	}

	m.notify.Emit(snapshot.Event{Kind: snapshot.EventStarted, JobName: job.Name})
	m.log.Info("backup started", "job", job.Name, "strategy", strat.Name(), "parent_id", parentID)

	result := strat.Backup(ctx, job.Sources, destination, m.cfg, parentID, filters)
	meta := result.Metadata
	meta.JobName = job.Name

	// The record is mutable only until it is stored. Verification must
	// finish first: once the catalog holds the record, concurrent
	// readers (including catalog persistence) may see it at any time.
	if m.cfg.Verification.Enabled {
		if strat.Validate(meta, m.cfg) {
			meta.VerificationStatus = snapshot.VerificationPassed
		} else {
			meta.VerificationStatus = snapshot.VerificationFailed
		}
	}

	m.store(meta)
	m.persistCatalog()

	if result.Success {
		m.notify.Emit(snapshot.Event{Kind: snapshot.EventCompleted, BackupID: meta.ID, JobName: job.Name})
	} else {
		m.notify.Emit(snapshot.Event{Kind: snapshot.EventFailed, BackupID: meta.ID, JobName: job.Name, Error: result.Error})
	}
	return result, nil
}

func (m *Manager) markExecuting(name string) error {
	m.execMu.Lock()
	defer m.execMu.Unlock()
	if _, busy := m.executing[name]; busy {
		return fmt.Errorf("%w: %q", ErrJobRunning, name)
	}
	m.executing[name] = struct{}{}
	return nil
}

func (m *Manager) clearExecuting(name string) {
	m.execMu.Lock()
	defer m.execMu.Unlock()
	delete(m.executing, name)
}

// strategyForJob resolves the strategy from the job type. Full backups
// use the pinned strategy name when given, otherwise the shape of the
// sources decides: all-directories means the directory strategy.
func (m *Manager) strategyForJob(job config.JobConfig) (strategy.Strategy, error) {
	switch job.Type {
	case string(snapshot.TypeIncremental), string(snapshot.TypeDifferential):
		return m.incremental, nil
	case "", string(snapshot.TypeFull):
	default:
		return nil, fmt.Errorf("%w: job type %q", ErrUnknownStrategy, job.Type)
	}

	switch job.Strategy {
	case strategy.NameFile:
		return m.file, nil
	case strategy.NameDirectory:
		return m.directory, nil
	case "":
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, job.Strategy)
	}

	for _, source := range job.Sources {
		if !m.fs.IsDirectory(source) {
			return m.file, nil
		}
	}
	return m.directory, nil
}

// latestCompleted returns the most recent completed snapshot for the job
// name, newest timestamp first, or nil when the job has no history.
func (m *Manager) latestCompleted(jobName string) *snapshot.Metadata {
	m.catalogMu.RLock()
	defer m.catalogMu.RUnlock()

	var latest *snapshot.Metadata
	for _, meta := range m.catalog {
		if meta.JobName != jobName || meta.Status != snapshot.StatusCompleted {
			continue
		}
		if latest == nil || meta.Timestamp.After(latest.Timestamp) {
			latest = meta
		}
	}
	return latest
}

func (m *Manager) store(meta *snapshot.Metadata) {
	m.catalogMu.Lock()
	m.catalog[meta.ID] = meta
	m.catalogMu.Unlock()
}

// GetBackup returns the catalog entry for the id.
func (m *Manager) GetBackup(id string) (*snapshot.Metadata, error) {
	meta, ok := m.lookup(id)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrBackupNotFound, id)
	}
	return meta, nil
}

// ListBackups returns catalog entries sorted newest-first. A non-empty
// name filters by strategy identity, not job name.
func (m *Manager) ListBackups(name string) []*snapshot.Metadata {
	m.catalogMu.RLock()
	defer m.catalogMu.RUnlock()

	backups := make([]*snapshot.Metadata, 0, len(m.catalog))
	for _, meta := range m.catalog {
		if name != "" && meta.StrategyName != name {
			continue
		}
		backups = append(backups, meta)
	}
	sort.Slice(backups, func(i, j int) bool {
		return backups[i].Timestamp.After(backups[j].Timestamp)
	})
	return backups
}

// DeleteBackup removes the catalog entry only. On-disk snapshot data is
// left untouched: a later restore referencing the deleted id fails with
// "backup not found" even though bytes may still exist.
func (m *Manager) DeleteBackup(id string) error {
	m.catalogMu.Lock()
	meta, ok := m.catalog[id]
	if !ok {
		m.catalogMu.Unlock()
		return fmt.Errorf("%w: %q", ErrBackupNotFound, id)
	}
	delete(m.catalog, id)
	m.catalogMu.Unlock()
	m.persistCatalog()

	m.notify.Emit(snapshot.Event{Kind: snapshot.EventDeleted, BackupID: id, JobName: meta.JobName})
	m.log.Info("backup deleted from catalog", "backup_id", id)
	return nil
}

// Status is an aggregate view of the manager.
type Status struct {
	Enabled       bool
	ActiveBackups []string
	TotalBackups  int
	LastBackup    time.Time
	FailedBackups int
}

// GetStatus reports the current catalog and execution state.
func (m *Manager) GetStatus() Status {
	m.execMu.Lock()
	active := make([]string, 0, len(m.executing))
	for name := range m.executing {
		active = append(active, name)
	}
	m.execMu.Unlock()
	sort.Strings(active)

	m.catalogMu.RLock()
	defer m.catalogMu.RUnlock()

	status := Status{
		Enabled:       m.cfg.Enabled,
		ActiveBackups: active,
		TotalBackups:  len(m.catalog),
	}
	for _, meta := range m.catalog {
		if meta.Status == snapshot.StatusFailed {
			status.FailedBackups++
		}
		if meta.Timestamp.After(status.LastBackup) {
			status.LastBackup = meta.Timestamp
		}
	}
	return status
}

// Shutdown emits advisory cancelled events for every in-flight job.
// The underlying copies are not interrupted.
func (m *Manager) Shutdown() {
	m.execMu.Lock()
	defer m.execMu.Unlock()
	for name := range m.executing {
		m.notify.Emit(snapshot.Event{Kind: snapshot.EventCancelled, JobName: name})
	}
}
