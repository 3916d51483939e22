package cmd

import (
	"fmt"

	"github.com/kebairia/snapvault/internal/config"
	"github.com/kebairia/snapvault/internal/fsaccess"
	"github.com/kebairia/snapvault/internal/logger"
	"github.com/kebairia/snapvault/internal/manager"
	"github.com/kebairia/snapvault/internal/restore"
	"github.com/kebairia/snapvault/internal/snapshot"
)

// engine bundles the wired-up components every subcommand needs.
type engine struct {
	cfg config.Config
	mgr *manager.Manager
	rst *restore.Manager
	log logger.Logger
}

// newEngine loads the configuration, rehydrates the catalog, and wires
// the managers with a logging lifecycle listener.
func newEngine() (*engine, error) {
	var cfg config.Config
	if err := cfg.Load(ConfigFile); err != nil {
		return nil, err
	}

	log := logger.Global()
	fs := fsaccess.NewLocal()
	notify := lifecycleLogger(log)

	mgr := manager.NewManager(cfg.Backup, fs, log, manager.WithNotifier(notify))
	if err := mgr.LoadCatalog(); err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	rst := restore.NewManager(cfg.Backup, fs, log, restore.WithNotifier(notify))

	return &engine{cfg: cfg, mgr: mgr, rst: rst, log: log}, nil
}

// lifecycleLogger surfaces engine lifecycle events through the logger.
func lifecycleLogger(log logger.Logger) snapshot.Notifier {
	return func(e snapshot.Event) {
		switch e.Kind {
		case snapshot.EventFailed:
			log.Warn("lifecycle event",
				"kind", string(e.Kind),
				"backup_id", e.BackupID,
				"job", e.JobName,
				"error", e.Error,
			)
		default:
			log.Debug("lifecycle event",
				"kind", string(e.Kind),
				"backup_id", e.BackupID,
				"job", e.JobName,
			)
		}
	}
}
