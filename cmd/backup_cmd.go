package cmd

import (
	"fmt"
	"sync"

	"github.com/spf13/cobra"

	"github.com/kebairia/snapvault/internal/config"
)

var backupJobName string

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Run configured backup jobs",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}

		jobs := eng.cfg.Jobs
		if backupJobName != "" {
			job, ok := eng.cfg.Job(backupJobName)
			if !ok {
				return fmt.Errorf("no job named %q in config", backupJobName)
			}
			jobs = []config.JobConfig{job}
		}

		ctx := cmd.Context()
		var (
			wg   sync.WaitGroup
			errs = make(chan error, len(jobs)) // buffered to avoid deadlock
		)

		for _, job := range jobs {
			wg.Add(1)
			go func(job config.JobConfig) {
				defer wg.Done()

				result, err := eng.mgr.CreateBackup(ctx, job)
				if err != nil {
					eng.log.Error("backup rejected",
						"job", job.Name,
						"error", err.Error(),
					)
					errs <- fmt.Errorf("backup of %q: %w", job.Name, err)
					return
				}
				if !result.Success {
					errs <- fmt.Errorf("backup of %q failed: %s", job.Name, result.Error)
					return
				}
				eng.log.Info("job finished",
					"job", job.Name,
					"backup_id", result.Metadata.ID,
					"files", len(result.Metadata.Files),
					"duration", result.Duration.String(),
				)
			}(job)
		}

		wg.Wait()
		close(errs)

		for err := range errs {
			return err // surface the first failure
		}
		return nil
	},
}

func init() {
	backupCmd.Flags().
		StringVarP(&backupJobName, "job", "j", "", "run only the named job (default: all enabled jobs)")
}
