package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

type compileFlags struct {
	seedsDir  string
	outputDir string
	now       string
	print     bool
}

func newCompileCommand() *cobra.Command {
	var f compileFlags
	cmd := &cobra.Command{
		Use:   "compile",
		Short: "Compile the seed tree once and write the output tree",
		Example: `  # Compile with the configured directories
  trailcal compile

  # Pin "today" and list every written path
  trailcal compile --now 2026-01-04 --print`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(cmd, f)
		},
	}
	cmd.Flags().StringVar(&f.seedsDir, "seeds", "", "Seed tree root (overrides config)")
	cmd.Flags().StringVar(&f.outputDir, "out", "", "Output directory (overrides config)")
	cmd.Flags().StringVar(&f.now, "now", "", "Compile as of this time (RFC 3339 or YYYY-MM-DD)")
	cmd.Flags().BoolVar(&f.print, "print", false, "Print the written paths")
	return cmd
}

func runCompile(cmd *cobra.Command, f compileFlags) error {
	if f.seedsDir != "" {
		cfg.SeedsDir = f.seedsDir
	}
	if f.outputDir != "" {
		cfg.OutputDir = f.outputDir
	}
	now, err := parseNow(f.now, cfg.Location())
	if err != nil {
		return err
	}

	snap, err := build(cmd.Context(), cfg, now)
	if err != nil {
		return err
	}

	if f.print {
		paths := make([]string, 0, len(snap.Files))
		for p := range snap.Files {
			paths = append(paths, p)
		}
		sort.Strings(paths)
		for _, p := range paths {
			fmt.Fprintln(cmd.OutOrStdout(), p)
		}
	}
	return nil
}
