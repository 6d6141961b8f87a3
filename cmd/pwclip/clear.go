package main

import (
	"github.com/spf13/cobra"

	"github.com/zx06/pwclip/internal/output"
)

// NewClearCommand creates the clear command
func NewClearCommand(w *output.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Forget the stored password and clear the clipboard",
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
			res, xe := ctrl.ClearPassword()
			if xe != nil {
				return xe
			}
			return w.WriteOK(format, res)
		},
	}
}
