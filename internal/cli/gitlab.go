package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dshills/mreview/internal/config"
	"github.com/dshills/mreview/internal/gitlab"
)

var (
	flagGLProject string
	flagGLMR      int
)

var gitlabCmd = &cobra.Command{
	Use:   "gitlab",
	Short: "Review a GitLab merge request",
	Long: "Review a GitLab merge request and publish inline comments plus a summary note. " +
		"The server, project and merge request default to the GitLab CI variables " +
		"(CI_SERVER_URL, CI_PROJECT_ID, CI_MERGE_REQUEST_IID); the token comes from GITLAB_TOKEN.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(buildOverrides())
		if err != nil {
			return err
		}

		project, mr := cfg.GitLab.ProjectID, cfg.GitLab.MRIID
		if flagGLProject != "" {
			project = flagGLProject
		}
		if flagGLMR > 0 {
			mr = flagGLMR
		}
		if cfg.GitLab.Token == "" {
			fmt.Fprintln(os.Stderr, "Error: GITLAB_TOKEN is not set")
			exitCode = ExitAuthError
			return nil
		}

		client, err := gitlab.NewClient(cfg.GitLab.URL, cfg.GitLab.Token, project, mr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\nSet CI_PROJECT_ID and CI_MERGE_REQUEST_IID or use --project and --mr.\n", err)
			exitCode = ExitUsageError
			return nil
		}

		runPass(cmd.Context(), cfg, remoteTarget(client, client.Unit()))
		return nil
	},
}

func init() {
	addReviewFlags(gitlabCmd)
	gitlabCmd.Flags().StringVar(&flagGLProject, "project", "", "Project ID or path (default: CI_PROJECT_ID)")
	gitlabCmd.Flags().IntVar(&flagGLMR, "mr", 0, "Merge request IID (default: CI_MERGE_REQUEST_IID)")
	gitlabCmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "Print what would be posted instead of posting")
}
