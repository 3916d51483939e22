package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kebairia/snapvault/internal/snapshot"
)

var (
	restoreID        string
	restoreTarget    string
	restoreFiles     []string
	restoreOverwrite bool
	restoreDryRun    bool
)

var restoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Restore a snapshot to a target directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}

		meta, err := eng.mgr.GetBackup(restoreID)
		if err != nil {
			return err
		}

		result, err := eng.rst.Restore(cmd.Context(), meta, snapshot.RestoreRequest{
			BackupID:   restoreID,
			TargetPath: restoreTarget,
			Files:      restoreFiles,
			Overwrite:  restoreOverwrite,
			DryRun:     restoreDryRun,
		})
		if err != nil {
			return err
		}

		eng.log.Info("restore result",
			"backup_id", restoreID,
			"restored", result.RestoredFiles,
			"skipped", result.SkippedFiles,
			"total", result.TotalFiles,
			"dry_run", restoreDryRun,
			"duration", result.Duration.String(),
		)
		if !result.Success {
			return fmt.Errorf("restore of %q finished with %d error(s): %s",
				restoreID, len(result.Errors), result.Errors[0])
		}
		return nil
	},
}

func init() {
	restoreCmd.Flags().StringVar(&restoreID, "id", "", "backup id to restore")
	restoreCmd.Flags().StringVarP(&restoreTarget, "target", "t", "", "target directory")
	restoreCmd.Flags().
		StringSliceVar(&restoreFiles, "files", nil, "restore only these original source paths")
	restoreCmd.Flags().BoolVar(&restoreOverwrite, "overwrite", false, "overwrite existing files")
	restoreCmd.Flags().BoolVar(&restoreDryRun, "dry-run", false, "compute the restore without writing")
	_ = restoreCmd.MarkFlagRequired("id")
	_ = restoreCmd.MarkFlagRequired("target")
}
