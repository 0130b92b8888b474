package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export --sqlite FILE",
	Short: "Mirror an existing table into a SQLite database",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.SQLitePath == "" {
			return errors.New("export: --sqlite is required")
		}
		res, err := newPipeline().Export(cmd.Context(), cfg.SQLitePath)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "exported %d rows from %s to %s (run %s)\n",
			res.Rows, res.Output, cfg.SQLitePath, res.Export.RunID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
}
