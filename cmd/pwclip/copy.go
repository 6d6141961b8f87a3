package main

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/zx06/pwclip/internal/app"
	"github.com/zx06/pwclip/internal/config"
	"github.com/zx06/pwclip/internal/errors"
	"github.com/zx06/pwclip/internal/output"
)

// CopyFlags holds the flags for the copy command
type CopyFlags struct {
	Timeout    int
	TimeoutSet bool
	NoClear    bool
	NoWait     bool
	NoRemember bool
}

// NewCopyCommand creates the copy command
func NewCopyCommand(w *output.Writer) *cobra.Command {
	flags := &CopyFlags{}
	cmd := &cobra.Command{
		Use:   "copy",
		Short: "Copy the stored password to the clipboard",
		Long: "Copy the stored password to the clipboard. With auto-clear enabled the command\n" +
			"stays in the foreground until the clipboard is cleared (Ctrl-C clears early).\n" +
			"When no password is stored and stdin is a terminal, pwclip asks for one and\n" +
			"saves it unless --no-remember is given.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags.TimeoutSet = cmd.Flags().Changed("timeout")
			return runCopy(cmd, flags, w)
		},
	}
	cmd.Flags().IntVar(&flags.Timeout, "timeout", config.DefaultAutoClearSecs, fmt.Sprintf("Seconds before the clipboard is cleared (%d-%d)", config.MinAutoClearSecs, config.MaxAutoClearSecs))
	cmd.Flags().BoolVar(&flags.NoClear, "no-clear", false, "Do not clear the clipboard automatically")
	cmd.Flags().BoolVar(&flags.NoWait, "no-wait", false, "Return immediately; the clear only happens while pwclip is running")
	cmd.Flags().BoolVar(&flags.NoRemember, "no-remember", false, "Use a prompted password for this copy only, without saving it")
	return cmd
}

func runCopy(cmd *cobra.Command, flags *CopyFlags, w *output.Writer) error {
	format, err := parseOutputFormat(GlobalConfig.FormatStr)
	if err != nil {
		return err
	}
	env, xe := envOverrides()
	if xe != nil {
		return xe
	}

	var cli config.Overrides
	if flags.TimeoutSet {
		cli.AutoClearSecs = &flags.Timeout
	}
	if flags.NoClear {
		off := false
		cli.AutoClear = &off
	}

	ctrl, xe := newController()
	if xe != nil {
		return xe
	}
	opts := app.CopyOptions{Env: env, CLI: cli, Remember: !flags.NoRemember}
	if stdinIsTerminal() {
		opts.Prompt = func() (string, error) { return promptForPassword(cmd.ErrOrStderr()) }
	}
	res, xe := ctrl.Copy(opts)
	if xe != nil {
		return xe
	}
	if err := w.WriteOK(format, res); err != nil {
		return err
	}
	if !res.AutoClear || flags.NoWait {
		return nil
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := ctrl.Guard().Wait(ctx); err != nil {
		// 被中断时提前执行条件清除，不在剪贴板里留下密码
		ctrl.Guard().FirePending()
	}
	return nil
}

// envOverrides reads PWCLIP_AUTO_CLEAR_SECS
func envOverrides() (config.Overrides, *errors.XError) {
	var o config.Overrides
	raw := os.Getenv("PWCLIP_AUTO_CLEAR_SECS")
	if raw == "" {
		return o, nil
	}
	secs, err := strconv.Atoi(raw)
	if err != nil {
		return o, errors.Wrap(errors.CodeCfgInvalid, "invalid PWCLIP_AUTO_CLEAR_SECS", map[string]any{"value": raw}, err)
	}
	o.AutoClearSecs = &secs
	return o, nil
}
