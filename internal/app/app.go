package app

import (
	"github.com/zx06/pwclip/internal/errors"
	"github.com/zx06/pwclip/internal/output"
	"github.com/zx06/pwclip/internal/spec"
)

type App struct {
	Version string
	Commit  string
	Date    string
}

func New(version, commit, date string) App {
	return App{Version: version, Commit: commit, Date: date}
}

func (a App) BuildSpec() spec.Spec {
	globalFlags := []spec.FlagSpec{
		{Name: "settings", Env: "PWCLIP_SETTINGS", Default: "", Description: "Settings file path (JSON); default: <user config dir>/pwclip/settings.json"},
		{Name: "format", Shorthand: "f", Env: "PWCLIP_FORMAT", Default: "auto", Description: "Output format: json|yaml|table|csv|auto"},
		{Name: "log-level", Env: "PWCLIP_LOG_LEVEL", Default: "warn", Description: "Log level: debug|info|warn|error"},
	}
	with := func(extra ...spec.FlagSpec) []spec.FlagSpec {
		out := make([]spec.FlagSpec, 0, len(globalFlags)+len(extra))
		out = append(out, globalFlags...)
		return append(out, extra...)
	}
	return spec.Spec{
		SchemaVersion: output.SchemaVersion,
		Commands: []spec.CommandSpec{
			{Name: "spec", Description: "Export tool spec for scripts/agents", Flags: globalFlags},
			{Name: "version", Description: "Print version information", Flags: globalFlags},
			{Name: "status", Description: "Show storage backend, password presence and settings", Flags: globalFlags},
			{
				Name:        "set",
				Description: "Set or change the stored password",
				Flags:       with(spec.FlagSpec{Name: "stdin", Default: "false", Description: "Read the password from stdin instead of prompting"}),
			},
			{
				Name:        "copy",
				Description: "Copy the stored password to the clipboard and clear it after the timeout",
				Flags: with(
					spec.FlagSpec{Name: "timeout", Env: "PWCLIP_AUTO_CLEAR_SECS", Default: "20", Description: "Seconds before the clipboard is cleared (1-3600)"},
					spec.FlagSpec{Name: "no-clear", Default: "false", Description: "Do not clear the clipboard automatically"},
					spec.FlagSpec{Name: "no-wait", Default: "false", Description: "Return immediately; the clear only happens while pwclip is running"},
					spec.FlagSpec{Name: "no-remember", Default: "false", Description: "Use a prompted password for this copy only, without saving it"},
				),
			},
			{Name: "clear", Description: "Forget the stored password and clear the clipboard", Flags: globalFlags},
			{Name: "settings show", Description: "Show persisted settings", Flags: globalFlags},
			{
				Name:        "settings set",
				Description: "Update and persist settings",
				Flags: with(
					spec.FlagSpec{Name: "auto-clear", Description: "Enable or disable clipboard auto-clear"},
					spec.FlagSpec{Name: "timeout", Description: "Auto-clear timeout in seconds (>= 1)"},
				),
			},
			{Name: "settings toggle", Description: "Toggle clipboard auto-clear", Flags: globalFlags},
			{
				Name:        "mcp server",
				Description: "Start MCP server for AI assistant integration",
				Flags: with(
					spec.FlagSpec{Name: "transport", Env: "PWCLIP_MCP_TRANSPORT", Default: "stdio", Description: "MCP transport: stdio|streamable_http"},
					spec.FlagSpec{Name: "http-addr", Env: "PWCLIP_MCP_HTTP_ADDR", Default: "127.0.0.1:8788", Description: "Streamable HTTP listen address"},
					spec.FlagSpec{Name: "http-auth-token", Env: "PWCLIP_MCP_HTTP_AUTH_TOKEN", Description: "Bearer token (plain or keyring:<account>)"},
				),
			},
		},
		ErrorCodes: errors.AllCodes(),
	}
}

type VersionInfo struct {
	Version string `json:"version" yaml:"version"`
	Commit  string `json:"commit" yaml:"commit"`
	Date    string `json:"date" yaml:"date"`
}

func (a App) VersionInfo() VersionInfo {
	return VersionInfo{Version: a.Version, Commit: a.Commit, Date: a.Date}
}
