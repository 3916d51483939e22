package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var validateID string

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Verify a snapshot's metadata checksum",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}

		meta, err := eng.mgr.GetBackup(validateID)
		if err != nil {
			return err
		}

		ok, err := eng.rst.Validate(meta)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("backup %q failed validation", validateID)
		}
		fmt.Printf("backup %s: valid\n", validateID)
		return nil
	},
}

func init() {
	validateCmd.Flags().StringVar(&validateID, "id", "", "backup id to validate")
	_ = validateCmd.MarkFlagRequired("id")
}
