package cli

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/mreview/internal/config"
	"github.com/dshills/mreview/internal/providers"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Provider and model management",
}

var modelsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List providers, their default models and the one auto-detection picks",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(nil)
		if err != nil {
			return err
		}

		names := make([]string, 0, len(providers.DefaultModels))
		for name := range providers.DefaultModels {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			model := cfg.ModelFor(name)
			if model == "" {
				model = providers.DefaultModels[name]
			}
			fmt.Fprintf(os.Stdout, "%-10s %s\n", name, model)
		}

		detected, err := providers.Detect(cfg.Provider, os.Getenv)
		if err != nil {
			fmt.Fprintf(os.Stdout, "\nselected: none (%v)\n", err)
			return nil
		}
		fmt.Fprintf(os.Stdout, "\nselected: %s (provider setting %q)\n", detected, cfg.Provider)
		return nil
	},
}

var modelsDoctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Validate provider credentials",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(buildOverrides())
		if err != nil {
			return err
		}

		name, err := providers.Detect(cfg.Provider, os.Getenv)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FAIL: %v\n", err)
			exitCode = ExitAuthError
			return nil
		}
		fmt.Fprintf(os.Stdout, "Checking %s...\n", name)

		p, err := providers.New(name, cfg.ModelFor(name))
		if err != nil {
			fmt.Fprintf(os.Stderr, "FAIL: %v\n", err)
			exitCode = ExitAuthError
			return nil
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		_, err = p.Review(ctx, providers.ReviewRequest{
			SystemPrompt: "Respond with exactly: []",
			UserPrompt:   "ping",
			MaxTokens:    10,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "FAIL: %v\n", err)
			exitCode = exitCodeFor(err)
			return nil
		}

		fmt.Fprintf(os.Stdout, "OK: %s (%s) is configured and responding\n", p.Name(), p.Model())
		return nil
	},
}

func init() {
	modelsCmd.AddCommand(modelsListCmd)
	modelsCmd.AddCommand(modelsDoctorCmd)
	modelsDoctorCmd.Flags().StringVar(&flagProvider, "provider", "", "Provider to check")
	modelsDoctorCmd.Flags().StringVar(&flagModel, "model", "", "Model to check")
}
