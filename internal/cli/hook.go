package cli

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

const (
	hookMarkerStart = "# >>> mreview pre-push hook >>>"
	hookMarkerEnd   = "# <<< mreview pre-push hook <<<"
)

var (
	hookRange  string
	hookFormat string
)

var hookCmd = &cobra.Command{
	Use:   "hook",
	Short: "Manage a git pre-push hook that previews review comments",
}

var hookInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Run mreview local before every push",
	Long: "Install a pre-push hook that prints the comments mreview would post for the commits being pushed. " +
		"The hook never blocks a push.",
	RunE: func(cmd *cobra.Command, args []string) error {
		hookPath, err := getHookPath()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}

		existing, err := os.ReadFile(hookPath)
		if err != nil && !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Error reading hook file: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}

		block := hookBlock(hookRange, hookFormat)
		content := "#!/bin/sh\n" + block
		if len(existing) > 0 {
			content = upsertHookBlock(string(existing), block)
		}

		if err := os.MkdirAll(filepath.Dir(hookPath), 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "Error creating hooks directory: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}
		if err := os.WriteFile(hookPath, []byte(content), 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing hook file: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}

		fmt.Fprintf(os.Stdout, "Installed mreview pre-push hook at %s\n", hookPath)
		return nil
	},
}

var hookUninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Remove the mreview pre-push hook",
	RunE: func(cmd *cobra.Command, args []string) error {
		hookPath, err := getHookPath()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}

		existing, err := os.ReadFile(hookPath)
		if os.IsNotExist(err) {
			fmt.Fprintln(os.Stdout, "No pre-push hook found.")
			return nil
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading hook file: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}

		content := removeHookBlock(string(existing))
		if onlyShebang(content) {
			if err := os.Remove(hookPath); err != nil {
				fmt.Fprintf(os.Stderr, "Error removing hook file: %v\n", err)
				exitCode = ExitRuntimeError
				return nil
			}
			fmt.Fprintf(os.Stdout, "Removed mreview pre-push hook at %s\n", hookPath)
			return nil
		}

		if err := os.WriteFile(hookPath, []byte(content), 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing hook file: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}
		fmt.Fprintf(os.Stdout, "Removed mreview section from %s\n", hookPath)
		return nil
	},
}

func getHookPath() (string, error) {
	out, err := exec.Command("git", "rev-parse", "--git-path", "hooks").Output()
	if err != nil {
		return "", fmt.Errorf("not a git repository (git rev-parse --git-path hooks failed)")
	}
	return filepath.Join(strings.TrimSpace(string(out)), "pre-push"), nil
}

// hookBlock is the marked section of the pre-push script. Errors are
// reported and the push continues.
func hookBlock(revRange, format string) string {
	var b strings.Builder
	b.WriteString(hookMarkerStart + "\n")
	fmt.Fprintf(&b, "mreview local %q --format %s\n", revRange, format)
	b.WriteString("MREVIEW_EXIT=$?\n")
	b.WriteString("if [ $MREVIEW_EXIT -ne 0 ]; then\n")
	b.WriteString("  echo \"mreview: preview failed (exit $MREVIEW_EXIT), continuing push\" >&2\n")
	b.WriteString("fi\n")
	b.WriteString(hookMarkerEnd + "\n")
	return b.String()
}

// upsertHookBlock replaces an existing mreview block or appends one.
func upsertHookBlock(existing, block string) string {
	start := strings.Index(existing, hookMarkerStart)
	end := strings.Index(existing, hookMarkerEnd)
	if start == -1 || end == -1 || end < start {
		if !strings.HasSuffix(existing, "\n") {
			existing += "\n"
		}
		return existing + block
	}
	rest := strings.TrimPrefix(existing[end+len(hookMarkerEnd):], "\n")
	return existing[:start] + block + rest
}

func removeHookBlock(existing string) string {
	start := strings.Index(existing, hookMarkerStart)
	end := strings.Index(existing, hookMarkerEnd)
	if start == -1 || end == -1 || end < start {
		return existing
	}
	rest := strings.TrimPrefix(existing[end+len(hookMarkerEnd):], "\n")
	return existing[:start] + rest
}

func onlyShebang(script string) bool {
	switch strings.TrimSpace(script) {
	case "", "#!/bin/sh", "#!/bin/bash", "#!/usr/bin/env sh", "#!/usr/bin/env bash":
		return true
	}
	return false
}

func init() {
	hookCmd.AddCommand(hookInstallCmd)
	hookCmd.AddCommand(hookUninstallCmd)
	hookInstallCmd.Flags().StringVar(&hookRange, "range", "@{upstream}..HEAD", "Revision range previewed before each push")
	hookInstallCmd.Flags().StringVar(&hookFormat, "format", "text", "Output format (text, json)")
}
