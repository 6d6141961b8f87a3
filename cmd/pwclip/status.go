package main

import (
	"github.com/spf13/cobra"

	"github.com/zx06/pwclip/internal/output"
)

// NewStatusCommand creates the status command
func NewStatusCommand(w *output.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show storage backend, password presence and settings",
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
			return w.WriteOK(format, ctrl.Status())
		},
	}
}
