package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/kebairia/snapvault/internal/logger"
)

// ConfigFile is the path to the YAML configuration.
var (
	ConfigFile string
	// rootCmd is the base command for snapvault.
	rootCmd = &cobra.Command{
		Use:   "snapvault",
		Short: "CLI tool for snapshot-based file backup and restore",
		Long: `snapvault takes content-addressed snapshots of configured source
paths (full file, recursive directory, or incremental delta) and can
restore or validate any snapshot later.`,
	}
)

// Execute runs the root command.
func Execute() {
	log, err := logger.Init()
	if err != nil {
		os.Exit(1)
	}
	defer logger.Cleanup()

	if err := rootCmd.Execute(); err != nil {
		log.Error("command failed", "error", err.Error())
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().
		StringVarP(&ConfigFile, "config", "c", "./configs/config.yaml", "path to YAML config file")

	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(restoreCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(watchCmd)
}
