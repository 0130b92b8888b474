package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"

	"github.com/agentic-research/kaextract/internal/config"
	"github.com/agentic-research/kaextract/internal/logger"
	"github.com/agentic-research/kaextract/internal/pipeline"
)

var (
	configFile string

	cfg *config.Config
	log *logger.Logger
)

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&configFile, "config", "c", "", "Path to a YAML config file")
	pf.StringP("path", "p", ".", "Directory holding the snapshot files")
	pf.StringP("prefix", "e", "", "File name prefix shared by the snapshot files")
	pf.String("sqlite", "", "Also mirror the final table into this SQLite database")
	pf.String("log-level", "info", "Log level (debug, info, warn, error)")
	pf.String("log-file", "", "Also write JSON logs to this file")
}

var rootCmd = &cobra.Command{
	Use:   "kaextract",
	Short: "Flatten Khan Academy course snapshots into a CSV with your progress merged in",
	Long: `kaextract reads the JSON responses captured from a course page
(contentForPath, courseProgressQuery, getUserInfoForTopicProgressMastery-N,
quizAndUnitTestAttemptsQuery-N) and writes <prefix>information.csv next to
them: one row per course, unit, lesson and content item, with mastery,
completion and attempt counts filled in.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfg, err = config.Load(configFile, cmd.Flags()); err != nil {
			return err
		}
		log, err = logger.New(logger.Options{Level: cfg.Log.Level, File: cfg.Log.File})
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			log.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := newPipeline().Run(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d rows, run %s)\n", res.Output, res.Rows, res.RunID)
		if res.Export != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d rows to %s\n", res.Export.Rows, cfg.SQLitePath)
		}
		return nil
	},
}

func newPipeline() *pipeline.Pipeline {
	return pipeline.New(osfs.New(cfg.Path), pipeline.Options{
		Prefix:     cfg.Prefix,
		SQLitePath: cfg.SQLitePath,
	}, log)
}

// Execute runs the root command. Failures are printed as "<kind>: <message>".
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", pipeline.Kind(err), err)
		os.Exit(1)
	}
}
