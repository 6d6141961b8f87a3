package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/zx06/pwclip/internal/errors"
	"github.com/zx06/pwclip/internal/log"
)

// Build-time variables (set by goreleaser)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Config holds the resolved configuration
type Config struct {
	FormatStr   string
	SettingsStr string
	LogLevelStr string
	Logger      *slog.Logger
}

// GlobalConfig holds the global configuration state
var GlobalConfig = &Config{}

// NewRootCommand creates the root command
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "pwclip",
		Short:         "Keep one password in the OS keyring and copy it to the clipboard on demand",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// CLI > ENV > default
			if !cmd.Flags().Changed("format") {
				if v := os.Getenv("PWCLIP_FORMAT"); v != "" {
					GlobalConfig.FormatStr = v
				}
			}
			if cmd.Flags().Changed("settings") && GlobalConfig.SettingsStr == "" {
				return errors.New(errors.CodeCfgInvalid, "settings path is empty", nil)
			}
			if !cmd.Flags().Changed("log-level") {
				if v := os.Getenv("PWCLIP_LOG_LEVEL"); v != "" {
					GlobalConfig.LogLevelStr = v
				}
			}

			level, ok := log.ParseLevel(GlobalConfig.LogLevelStr)
			if !ok {
				return errors.New(errors.CodeCfgInvalid, "invalid log level", map[string]any{"log_level": GlobalConfig.LogLevelStr})
			}
			GlobalConfig.Logger = log.NewWithLevel(os.Stderr, level)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&GlobalConfig.SettingsStr, "settings", "", "Settings file path (JSON); default: <user config dir>/pwclip/settings.json")
	root.PersistentFlags().StringVarP(&GlobalConfig.FormatStr, "format", "f", "auto", "Output format: json|yaml|table|csv|auto")
	root.PersistentFlags().StringVar(&GlobalConfig.LogLevelStr, "log-level", "warn", "Log level: debug|info|warn|error")

	return root
}
