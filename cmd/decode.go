package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentic-research/kaextract/internal/keydecode"
)

var decodeKind string

var decodeCmd = &cobra.Command{
	Use:   "decode TOKEN",
	Short: "Print the parent id encoded in a quiz position key or unit test attempt id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := keydecode.ParseVariant(decodeKind)
		if err != nil {
			return err
		}
		parent, err := keydecode.Parent(v, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), parent)
		return nil
	},
}

func init() {
	decodeCmd.Flags().StringVarP(&decodeKind, "kind", "k", "quiz", "Token kind: quiz or unit-test")
	rootCmd.AddCommand(decodeCmd)
}
