package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"trailcal/internal/config"
	appLog "trailcal/internal/log"
)

const version = "0.1.0"

var (
	configPath string
	cfg        *config.Config
)

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trailcal",
		Short: "Compile trail-run seeds into JSON:API documents and ICS feeds",
		Long: "trailcal reads the authored seed tree (organizations, users, locations and\n" +
			"runs), expands every recurrence over the coming 53 weeks and writes the\n" +
			"resulting JSON:API documents and calendar feeds.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			c, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config %s: %w", configPath, err)
			}
			if err := c.Validate(); err != nil {
				return err
			}
			appLog.SetLevel(appLog.ParseLevel(c.LogLevel))
			cfg = c
			return nil
		},
	}
	cmd.CompletionOptions.DisableDefaultCmd = true
	cmd.PersistentFlags().StringVar(&configPath, "config", "./trailcal.yaml", "Path to config file")

	cmd.AddCommand(newCompileCommand(), newServeCommand())
	return cmd
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		appLog.Error("trailcal failed", err)
		os.Exit(1)
	}
}
