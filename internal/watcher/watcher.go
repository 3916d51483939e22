// Package watcher turns filesystem activity under a job's sources into
// backup triggers. It is advisory plumbing around the manager: the engine
// is correct without it, it only saves the operator from running the
// backup command by hand.
package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/kebairia/snapvault/internal/config"
	"github.com/kebairia/snapvault/internal/logger"
)

// DefaultSettle is how long the sources must stay quiet before a change
// burst is considered finished.
const DefaultSettle = 2 * time.Second

// Trigger is invoked once per settled change burst.
type Trigger func(job config.JobConfig)

// Option configures a Watcher.
type Option func(*Watcher)

// WithSettle overrides the quiet period before triggering.
func WithSettle(d time.Duration) Option {
	return func(w *Watcher) { w.settle = d }
}

// Watcher observes one job's sources through fsnotify. Rapid event
// bursts (editor saves, rsync runs) collapse into a single trigger once
// the sources settle.
type Watcher struct {
	job     config.JobConfig
	trigger Trigger
	log     logger.Logger
	settle  time.Duration

	fsw *fsnotify.Watcher

	mu    sync.Mutex
	timer *time.Timer

	done chan struct{}
	wg   sync.WaitGroup
}

// New builds a watcher for the job. Call Start to begin observing.
func New(job config.JobConfig, trigger Trigger, log logger.Logger, opts ...Option) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	w := &Watcher{
		job:     job,
		trigger: trigger,
		log:     log,
		settle:  DefaultSettle,
		fsw:     fsw,
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Start registers the job's sources (directories recursively) and begins
// dispatching. It returns after setup; event handling runs until ctx is
// done or Close is called.
func (w *Watcher) Start(ctx context.Context) error {
	for _, source := range w.job.Sources {
		if err := w.addRecursive(source); err != nil {
			return err
		}
	}

	w.wg.Add(1)
	go w.loop(ctx)
	return nil
}

func (w *Watcher) addRecursive(path string) error {
	return filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		watch := p
		if !d.IsDir() {
			if p != path {
				return nil
			}
			// A plain-file source is observed through its parent.
			watch = filepath.Dir(p)
		}
		if err := w.fsw.Add(watch); err != nil {
			return fmt.Errorf("watch %q: %w", watch, err)
		}
		w.log.Debug("watching directory", "path", watch, "job", w.job.Name)
		return nil
	})
}

func (w *Watcher) loop(ctx context.Context) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn("watcher error", "job", w.job.Name, "error", err.Error())
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	const relevant = fsnotify.Create | fsnotify.Write | fsnotify.Remove | fsnotify.Rename
	if event.Op&relevant == 0 {
		return
	}

	// A newly created directory must be watched too; fsnotify does not
	// recurse on its own.
	if event.Op&fsnotify.Create != 0 {
		if err := w.fsw.Add(event.Name); err == nil {
			w.log.Debug("watching new path", "path", event.Name)
		}
	}

	w.log.Debug("change observed", "job", w.job.Name, "path", event.Name, "op", event.Op.String())
	w.bump()
}

// bump resets the settle timer; the trigger fires only once the sources
// have been quiet for the full settle period.
func (w *Watcher) bump() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.settle, func() {
		w.log.Info("sources settled, triggering backup", "job", w.job.Name)
		w.trigger(w.job)
	})
}

// Close stops event handling and releases the fsnotify watcher.
func (w *Watcher) Close() error {
	close(w.done)
	err := w.fsw.Close()
	w.wg.Wait()

	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
	return err
}
