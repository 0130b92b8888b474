package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var flattenCmd = &cobra.Command{
	Use:   "flatten",
	Short: "Write the curriculum table without merging progress",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := newPipeline().Flatten(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d rows)\n", res.Output, res.Rows)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(flattenCmd)
}
