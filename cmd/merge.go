package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Merge progress snapshots into an existing table",
	Long: `merge reads <prefix>information.csv and rewrites its progress columns
from the courseProgressQuery, getUserInfoForTopicProgressMastery-N and
quizAndUnitTestAttemptsQuery-N snapshots. Every other cell is left as is.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := newPipeline().Merge(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "updated %s\n%s", res.Output, res.Report)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mergeCmd)
}
