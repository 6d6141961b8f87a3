package main

import (
	"github.com/spf13/cobra"

	"github.com/zx06/pwclip/internal/config"
	"github.com/zx06/pwclip/internal/errors"
	"github.com/zx06/pwclip/internal/output"
)

// SettingsView is the output shape of the settings commands
type SettingsView struct {
	Path     string          `json:"settings_path" yaml:"settings_path"`
	Settings config.Settings `json:"settings" yaml:"settings"`
}

// NewSettingsCommand creates the settings command group
func NewSettingsCommand(w *output.Writer) *cobra.Command {
	settingsCmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change persisted settings",
	}

	settingsCmd.AddCommand(newSettingsShowCommand(w))
	settingsCmd.AddCommand(newSettingsSetCommand(w))
	settingsCmd.AddCommand(newSettingsToggleCommand(w))

	return settingsCmd
}

func newSettingsShowCommand(w *output.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show persisted settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseOutputFormat(GlobalConfig.FormatStr)
			if err != nil {
				return err
			}
			ctrl, xe := newController()
			if xe != nil {
				return xe
			}
			return w.WriteOK(format, SettingsView{Path: ctrl.SettingsPath(), Settings: ctrl.Settings()})
		},
	}
}

func newSettingsSetCommand(w *output.Writer) *cobra.Command {
	var autoClear bool
	var timeout int
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Update and persist settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseOutputFormat(GlobalConfig.FormatStr)
			if err != nil {
				return err
			}
			var patch config.Overrides
			if cmd.Flags().Changed("auto-clear") {
				patch.AutoClear = &autoClear
			}
			if cmd.Flags().Changed("timeout") {
				patch.AutoClearSecs = &timeout
			}
			if patch.AutoClear == nil && patch.AutoClearSecs == nil {
				return errors.New(errors.CodeCfgInvalid, "nothing to update; pass --auto-clear and/or --timeout", nil)
			}

			ctrl, xe := newController()
			if xe != nil {
				return xe
			}
			st, xe := ctrl.UpdateSettings(patch)
			if xe != nil {
				return xe
			}
			return w.WriteOK(format, SettingsView{Path: ctrl.SettingsPath(), Settings: st})
		},
	}
	cmd.Flags().BoolVar(&autoClear, "auto-clear", config.DefaultAutoClear, "Enable or disable clipboard auto-clear")
	cmd.Flags().IntVar(&timeout, "timeout", config.DefaultAutoClearSecs, "Auto-clear timeout in seconds (>= 1)")
	return cmd
}

func newSettingsToggleCommand(w *output.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle",
		Short: "Toggle clipboard auto-clear",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseOutputFormat(GlobalConfig.FormatStr)
			if err != nil {
				return err
			}
			ctrl, xe := newController()
			if xe != nil {
				return xe
			}
			st, xe := ctrl.ToggleAutoClear()
			if xe != nil {
				return xe
			}
			return w.WriteOK(format, SettingsView{Path: ctrl.SettingsPath(), Settings: st})
		},
	}
}
