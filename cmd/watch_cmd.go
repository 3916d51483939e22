package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kebairia/snapvault/internal/config"
	"github.com/kebairia/snapvault/internal/watcher"
)

var watchJobName string

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch job sources and back up on change",
	Long: `watch observes the sources of the selected jobs and runs a backup
whenever the files settle after a change burst. Incremental jobs chain
onto their latest completed snapshot as usual.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}

		jobs := eng.cfg.Jobs
		if watchJobName != "" {
			job, ok := eng.cfg.Job(watchJobName)
			if !ok {
				return fmt.Errorf("no job named %q in config", watchJobName)
			}
			jobs = []config.JobConfig{job}
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		trigger := func(job config.JobConfig) {
			result, err := eng.mgr.CreateBackup(ctx, job)
			if err != nil {
				eng.log.Error("triggered backup rejected", "job", job.Name, "error", err.Error())
				return
			}
			if !result.Success {
				eng.log.Error("triggered backup failed", "job", job.Name, "error", result.Error)
			}
		}

		watchers := make([]*watcher.Watcher, 0, len(jobs))
		for _, job := range jobs {
			if !job.Enabled {
				continue
			}
			w, err := watcher.New(job, trigger, eng.log)
			if err != nil {
				return err
			}
			if err := w.Start(ctx); err != nil {
				return fmt.Errorf("watch job %q: %w", job.Name, err)
			}
			watchers = append(watchers, w)
			eng.log.Info("watching job sources", "job", job.Name, "sources", len(job.Sources))
		}
		if len(watchers) == 0 {
			return fmt.Errorf("no enabled jobs to watch")
		}

		<-ctx.Done()
		eng.mgr.Shutdown()
		for _, w := range watchers {
			_ = w.Close()
		}
		return nil
	},
}

func init() {
	watchCmd.Flags().
		StringVarP(&watchJobName, "job", "j", "", "watch only the named job (default: all enabled jobs)")
}
