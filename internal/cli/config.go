package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v2"

	"github.com/dshills/mreview/internal/config"
)

var configLocal bool

// configTarget is the file init and set write: the project's .mreview.yml
// with --local, otherwise the user config.
func configTarget() (string, error) {
	if configLocal {
		return config.LocalFile, nil
	}
	return config.ConfigPath()
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage mreview configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default configuration file",
	Long: "Create a default configuration file. With --local the file is " + config.LocalFile +
		" in the current directory, which CI jobs pick up from the checkout.",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := configTarget()
		if err != nil {
			return err
		}
		if _, err := os.Stat(path); err == nil {
			fmt.Fprintf(os.Stderr, "Config file already exists at %s\n", path)
			return nil
		}
		if err := config.SaveTo(config.Default(), path); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}
		fmt.Fprintf(os.Stdout, "Config file created at %s\n", path)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := configTarget()
		if err != nil {
			return err
		}
		cfg, err := config.LoadFileAt(path)
		if err != nil {
			return err
		}
		if err := config.SetField(&cfg, args[0], args[1]); err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		if err := config.SaveTo(cfg, path); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}
		fmt.Fprintf(os.Stdout, "Set %s = %s in %s\n", args[0], args[1], path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration (file, environment and defaults merged)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(nil)
		if err != nil {
			return err
		}
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return err
		}
		fmt.Fprint(os.Stdout, string(data))
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file that would be read",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.FilePath(".")
		if err != nil {
			return err
		}
		if _, err := os.Stat(path); err != nil {
			fmt.Fprintf(os.Stdout, "%s (not present, defaults apply)\n", path)
			return nil
		}
		fmt.Fprintln(os.Stdout, path)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.PersistentFlags().BoolVar(&configLocal, "local", false, "Write "+config.LocalFile+" in the current directory instead of the user config")
}
