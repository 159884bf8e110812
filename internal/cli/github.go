package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/dshills/mreview/internal/config"
	"github.com/dshills/mreview/internal/github"
)

var (
	flagGHOwner string
	flagGHRepo  string
)

var githubCmd = &cobra.Command{
	Use:   "github <pr-number>",
	Short: "Review a GitHub pull request",
	Long:  "Review a GitHub pull request and publish review comments plus a summary comment. The token comes from GITHUB_TOKEN.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		prNumber, err := strconv.Atoi(args[0])
		if err != nil || prNumber <= 0 {
			fmt.Fprintf(os.Stderr, "Error: invalid PR number %q\n", args[0])
			exitCode = ExitUsageError
			return nil
		}

		cfg, err := config.Load(buildOverrides())
		if err != nil {
			return err
		}

		// Detect owner/repo if not provided
		owner, repo := flagGHOwner, flagGHRepo
		if owner == "" || repo == "" {
			detected, detectedRepo, err := github.DetectRepo(cmd.Context(), ".")
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\nUse --owner and --repo flags to specify manually.\n", err)
				exitCode = ExitUsageError
				return nil
			}
			if owner == "" {
				owner = detected
			}
			if repo == "" {
				repo = detectedRepo
			}
		}

		if cfg.GitHub.Token == "" {
			fmt.Fprintln(os.Stderr, "Error: GITHUB_TOKEN is not set")
			exitCode = ExitAuthError
			return nil
		}
		client, err := github.NewClient(cfg.GitHub.APIURL, cfg.GitHub.Token, owner, repo, prNumber)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitUsageError
			return nil
		}

		runPass(cmd.Context(), cfg, remoteTarget(client, client.Unit()))
		return nil
	},
}

func init() {
	addReviewFlags(githubCmd)
	githubCmd.Flags().StringVar(&flagGHOwner, "owner", "", "Repository owner (auto-detected from origin)")
	githubCmd.Flags().StringVar(&flagGHRepo, "repo", "", "Repository name (auto-detected from origin)")
	githubCmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "Print what would be posted instead of posting")
}
