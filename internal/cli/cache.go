package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dshills/mreview/internal/cache"
	"github.com/dshills/mreview/internal/config"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the advisory response cache",
}

var cacheExpiredOnly bool

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear all cached advisory responses",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(nil)
		if err != nil {
			return err
		}
		c, err := cache.New(true, cfg.Cache.Dir, cfg.Cache.TTLSeconds)
		if err != nil {
			return fmt.Errorf("opening cache: %w", err)
		}
		if cacheExpiredOnly {
			n, err := c.PruneExpired()
			if err != nil {
				return fmt.Errorf("pruning cache: %w", err)
			}
			fmt.Fprintf(os.Stdout, "Removed %d expired entries from %s.\n", n, c.Dir())
			return nil
		}
		n, err := c.Clear()
		if err != nil {
			return fmt.Errorf("clearing cache: %w", err)
		}
		fmt.Fprintf(os.Stdout, "Cache cleared (%d entries removed from %s).\n", n, c.Dir())
		return nil
	},
}

var cacheShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show cache statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(nil)
		if err != nil {
			return err
		}
		c, err := cache.New(cfg.Cache.Enabled, cfg.Cache.Dir, cfg.Cache.TTLSeconds)
		if err != nil {
			return fmt.Errorf("opening cache: %w", err)
		}
		if !c.Enabled() {
			fmt.Fprintln(os.Stdout, "Cache is disabled.")
			return nil
		}
		stats, err := c.GetStats()
		if err != nil {
			return fmt.Errorf("reading cache stats: %w", err)
		}
		fmt.Fprintf(os.Stdout, "Directory: %s\n", stats.Dir)
		fmt.Fprintf(os.Stdout, "Entries:   %d (%d expired)\n", stats.Entries, stats.Expired)
		fmt.Fprintf(os.Stdout, "Size:      %d bytes\n", stats.TotalBytes)
		fmt.Fprintf(os.Stdout, "TTL:       %ds\n", cfg.Cache.TTLSeconds)
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheShowCmd)
	cacheClearCmd.Flags().BoolVar(&cacheExpiredOnly, "expired", false, "Only remove entries past their TTL")
}
