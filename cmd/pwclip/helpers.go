package main

import (
	"log/slog"
	"os"

	"golang.org/x/term"

	"github.com/zx06/pwclip/internal/app"
	"github.com/zx06/pwclip/internal/clipboard"
	"github.com/zx06/pwclip/internal/config"
	"github.com/zx06/pwclip/internal/errors"
	"github.com/zx06/pwclip/internal/log"
	"github.com/zx06/pwclip/internal/output"
	"github.com/zx06/pwclip/internal/secret"
)

// newClipboard is replaced in tests so they never touch the real clipboard.
var newClipboard = func() clipboard.Clipboard {
	return clipboard.NewSystem()
}

// cliLogger returns the logger built from --log-level, or a discarding one
func cliLogger() *slog.Logger {
	if GlobalConfig.Logger == nil {
		return log.Discard()
	}
	return GlobalConfig.Logger
}

// newController wires SecretStore, ClipboardGuard and SettingsStore for one invocation
func newController() (*app.Controller, *errors.XError) {
	logger := cliLogger()

	path, xe := config.ResolvePath(config.PathOptions{
		CLIPath: GlobalConfig.SettingsStr,
		EnvPath: os.Getenv("PWCLIP_SETTINGS"),
	})
	if xe != nil {
		return nil, xe
	}

	secrets := secret.NewStore(secret.Options{Logger: logger})
	if notice := secrets.ProbeNotice(); notice != nil {
		logger.Warn(notice.Message, "code", notice.Code)
	}
	guard := clipboard.NewGuard(clipboard.Options{
		Clipboard: newClipboard(),
		Flusher:   clipboard.NewHistoryFlusher(),
		Logger:    logger,
		Claims:    clipboard.NewFileClaims(clipboard.ClaimPath(path)),
	})
	return app.NewController(secrets, guard, config.NewStore(path, logger), logger), nil
}

// parseOutputFormat parses and validates the output format string
func parseOutputFormat(s string) (output.Format, error) {
	f, ok := output.ParseFormat(s)
	if !ok {
		return "", errors.New(errors.CodeCfgInvalid, "invalid output format", map[string]any{"format": s, "valid": output.Formats()})
	}
	return resolveAuto(f), nil
}

// resolveFormatForError resolves the format for error output
func resolveFormatForError(s string) output.Format {
	f, ok := output.ParseFormat(s)
	if !ok {
		f = output.FormatAuto
	}
	return resolveAuto(f)
}

// resolveAuto resolves "auto" format to appropriate format based on TTY
func resolveAuto(f output.Format) output.Format {
	if f != output.FormatAuto {
		return f
	}
	if term.IsTerminal(int(os.Stdout.Fd())) {
		return output.FormatTable
	}
	return output.FormatJSON
}

// normalizeErr normalizes any error to XError
func normalizeErr(err error) *errors.XError {
	if xe, ok := errors.As(err); ok {
		return xe
	}
	// Preserve original error message
	return errors.Wrap(errors.CodeInternal, err.Error(), nil, err)
}
