package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var listStrategy string

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List cataloged snapshots, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}

		backups := eng.mgr.ListBackups(listStrategy)
		if len(backups) == 0 {
			fmt.Println("no backups in catalog")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tJOB\tSTRATEGY\tTYPE\tSTATUS\tFILES\tSIZE\tCREATED")
		for _, meta := range backups {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%d\t%s\n",
				meta.ID,
				meta.JobName,
				meta.StrategyName,
				meta.Type,
				meta.Status,
				len(meta.Files),
				meta.Size,
				meta.Timestamp.Format(time.RFC3339),
			)
		}
		return w.Flush()
	},
}

func init() {
	listCmd.Flags().
		StringVarP(&listStrategy, "strategy", "s", "", "filter by strategy name (file, directory, incremental)")
}
