// Package app implements the main application commands.
package app

import (
	"github.com/spf13/cobra"

	"github.com/studentrep/portal/internal/config"
	"github.com/studentrep/portal/internal/logger"
)

func init() { //nolint: gochecknoinits
	rootCmd.PersistentFlags().StringVar(
		&configPath,
		"config",
		"./etc/",
		"Directory holding main.toml",
	)
}

var (
	configPath string // Path to the configuration directory

	cfg config.Config

	rootCmd = &cobra.Command{
		Use:   "portal",
		Short: "Student Rep Portal",
		Long: `Student Rep Portal is a small web portal for a student representative:
announcements, a contact form with attachments, a public file listing
and a password protected admin panel.`,
		Args:          cobra.OnlyValidArgs,
		SilenceUsage:  true,
		SilenceErrors: false,
	}
)

// loadConfig reads the configuration and initializes the logger.
// Commands that need either call it from PreRunE.
func loadConfig(_ *cobra.Command, _ []string) error {
	var err error

	if cfg, err = config.ReadConfig(configPath); err != nil {
		return err
	}

	return logger.Init(cfg.Log)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
