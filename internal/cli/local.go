package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dshills/mreview/internal/config"
	"github.com/dshills/mreview/internal/gitctx"
)

var localCmd = &cobra.Command{
	Use:   "local [rev-range]",
	Short: "Dry-run a review of a local revision range",
	Long: "Review a revision range of the local repository (default " + gitctx.DefaultRange + ") " +
		"and print the comments and summary a merge request would receive. Nothing is published.",
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(buildOverrides())
		if err != nil {
			return err
		}

		revRange := gitctx.DefaultRange
		if len(args) == 1 {
			revRange = args[0]
		}
		repo, err := gitctx.Open(cmd.Context(), ".", revRange)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitUsageError
			return nil
		}
		if cfg.ProjectDir == "" {
			if meta, err := gitctx.GetRepoMeta(cmd.Context(), "."); err == nil {
				cfg.ProjectDir = meta.Root
			}
		}

		runPass(cmd.Context(), cfg, target{store: repo, unit: repo.Unit(), recorder: &repo.Recorder})
		return nil
	},
}

func init() {
	addReviewFlags(localCmd)
}
