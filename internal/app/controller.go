package app

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/zx06/pwclip/internal/clipboard"
	"github.com/zx06/pwclip/internal/config"
	"github.com/zx06/pwclip/internal/errors"
	"github.com/zx06/pwclip/internal/log"
	"github.com/zx06/pwclip/internal/secret"
)

// Controller 把 SecretStore、ClipboardGuard、SettingsStore 组合成四个用户命令：
// copy、set/change、clear、更新自动清除设置。CLI 与 MCP server 都通过它操作。
type Controller struct {
	secrets  *secret.Store
	guard    *clipboard.Guard
	settings *config.Store
	logger   *slog.Logger

	mu      sync.Mutex
	current config.Settings
}

// NewController 在构造时加载一次设置。
func NewController(secrets *secret.Store, guard *clipboard.Guard, settings *config.Store, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = log.Discard()
	}
	return &Controller{
		secrets:  secrets,
		guard:    guard,
		settings: settings,
		logger:   logger,
		current:  settings.Load(),
	}
}

type SetResult struct {
	Backend    secret.Backend `json:"backend" yaml:"backend"`
	Persistent bool           `json:"persistent" yaml:"persistent"`
	Warning    *errors.XError `json:"warning,omitempty" yaml:"warning,omitempty"`
}

// SetPassword 保存（覆盖）密码。keyring 写入失败只作为警告返回。
// 不影响正在进行的剪贴板计时器。
func (c *Controller) SetPassword(password string) (SetResult, *errors.XError) {
	if password == "" {
		return SetResult{}, errors.New(errors.CodeCfgInvalid, "password cannot be empty", nil)
	}
	warn := c.secrets.Set(password)
	res := SetResult{
		Backend:    c.secrets.Backend(),
		Persistent: c.secrets.Persistent(),
		Warning:    warn,
	}
	c.logger.Info("password updated", "backend", res.Backend, "persistent", res.Persistent)
	return res, nil
}

type CopyOptions struct {
	Env config.Overrides
	CLI config.Overrides
	// Prompt 在尚未保存密码时向用户索取；nil 则直接返回 PWCLIP_SECRET_NOT_FOUND。
	Prompt func() (string, error)
	// Remember 为 true 时把索取到的密码保存到 SecretStore，否则只用于本次复制。
	Remember bool
}

type CopyResult struct {
	Backend     secret.Backend `json:"backend" yaml:"backend"`
	AutoClear   bool           `json:"auto_clear" yaml:"auto_clear"`
	TimeoutSecs int            `json:"timeout_secs,omitempty" yaml:"timeout_secs,omitempty"`
	Generation  uint64         `json:"generation" yaml:"generation"`
	ClearAt     *time.Time     `json:"clear_at,omitempty" yaml:"clear_at,omitempty"`
	Prompted    bool           `json:"prompted,omitempty" yaml:"prompted,omitempty"`
	Saved       bool           `json:"saved,omitempty" yaml:"saved,omitempty"`
	Warning     *errors.XError `json:"warning,omitempty" yaml:"warning,omitempty"`
}

// Copy 把保存的密码写入剪贴板，并按设置（叠加覆盖项）调度清除。
// 尚未保存密码时，若提供了 Prompt 则先向用户索取。
func (c *Controller) Copy(opts CopyOptions) (CopyResult, *errors.XError) {
	st, xe := config.Apply(c.Settings(), opts.Env, opts.CLI)
	if xe != nil {
		return CopyResult{}, xe
	}

	var res CopyResult
	pw, ok := c.secrets.Get()
	if !ok {
		if opts.Prompt == nil {
			return CopyResult{}, errors.New(errors.CodeSecretNotFound, "no password saved yet; run `pwclip set` first", nil)
		}
		pw, xe = c.promptPassword(opts.Prompt)
		if xe != nil {
			return CopyResult{}, xe
		}
		res.Prompted = true
		if opts.Remember {
			res.Warning = c.secrets.Set(pw)
			res.Saved = c.secrets.Persistent()
		}
	}
	if xe := c.guard.Write(pw, st.AutoClearSecs, st.AutoClear); xe != nil {
		return CopyResult{}, xe
	}

	timer := c.guard.State()
	res.Backend = c.secrets.Backend()
	res.AutoClear = st.AutoClear
	res.Generation = timer.Generation
	if st.AutoClear {
		res.TimeoutSecs = st.AutoClearSecs
		if timer.Pending {
			at := timer.Deadline
			res.ClearAt = &at
		}
	}
	c.logger.Info("password copied", "auto_clear", res.AutoClear, "timeout_secs", res.TimeoutSecs, "generation", res.Generation)
	return res, nil
}

func (c *Controller) promptPassword(prompt func() (string, error)) (string, *errors.XError) {
	pw, err := prompt()
	if err != nil {
		if xe, ok := errors.As(err); ok {
			return "", xe
		}
		return "", errors.Wrap(errors.CodeCfgInvalid, "failed to read password", nil, err)
	}
	if pw == "" {
		return "", errors.New(errors.CodeCfgInvalid, "password cannot be empty", nil)
	}
	return pw, nil
}

type ClearResult struct {
	Backend          secret.Backend   `json:"backend" yaml:"backend"`
	ClipboardCleared bool             `json:"clipboard_cleared" yaml:"clipboard_cleared"`
	Warnings         []*errors.XError `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// ClearPassword 删除保存的密码并立即清空剪贴板。两者的失败都只作为警告。
func (c *Controller) ClearPassword() (ClearResult, *errors.XError) {
	res := ClearResult{Backend: c.secrets.Backend()}
	if warn := c.secrets.Clear(); warn != nil {
		res.Warnings = append(res.Warnings, warn)
	}
	if warn := c.guard.ClearNow(); warn != nil {
		res.Warnings = append(res.Warnings, warn)
	} else {
		res.ClipboardCleared = true
	}
	c.logger.Info("password cleared", "clipboard_cleared", res.ClipboardCleared)
	return res, nil
}

// ClearClipboard 只清空剪贴板，不动保存的密码。
func (c *Controller) ClearClipboard() *errors.XError {
	return c.guard.ClearNow()
}

// Settings 返回当前缓存的设置。
func (c *Controller) Settings() config.Settings {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// SettingsPath 返回设置文件路径。
func (c *Controller) SettingsPath() string {
	return c.settings.Path
}

// UpdateSettings 校验并立即持久化；失败时缓存保持不变。
func (c *Controller) UpdateSettings(patch config.Overrides) (config.Settings, *errors.XError) {
	c.mu.Lock()
	defer c.mu.Unlock()

	next, xe := config.Apply(c.current, config.Overrides{}, patch)
	if xe != nil {
		return c.current, xe
	}
	if xe := c.settings.Save(next); xe != nil {
		return c.current, xe
	}
	c.current = next
	c.logger.Info("settings saved", "auto_clear", next.AutoClear, "auto_clear_secs", next.AutoClearSecs)
	return next, nil
}

// ToggleAutoClear 翻转 auto_clear 并保存。
func (c *Controller) ToggleAutoClear() (config.Settings, *errors.XError) {
	flipped := !c.Settings().AutoClear
	return c.UpdateSettings(config.Overrides{AutoClear: &flipped})
}

// ReloadSettings 重新从文件加载（文件被外部修改时调用）。
func (c *Controller) ReloadSettings() config.Settings {
	st := c.settings.Load()
	c.ApplySettings(st)
	return st
}

// ApplySettings 替换缓存，供 config.Store.Watch 回调使用。
func (c *Controller) ApplySettings(st config.Settings) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = st
}

// WatchSettings 监听设置文件的外部修改并刷新缓存，阻塞直到 ctx 结束。
func (c *Controller) WatchSettings(ctx context.Context) *errors.XError {
	return c.settings.Watch(ctx, func(st config.Settings) {
		c.ApplySettings(st)
		c.logger.Info("settings reloaded", "auto_clear", st.AutoClear, "auto_clear_secs", st.AutoClearSecs)
	})
}

type Status struct {
	Backend      secret.Backend       `json:"backend" yaml:"backend"`
	Persistent   bool                 `json:"persistent" yaml:"persistent"`
	Degraded     bool                 `json:"degraded" yaml:"degraded"`
	HasPassword  bool                 `json:"has_password" yaml:"has_password"`
	SettingsPath string               `json:"settings_path" yaml:"settings_path"`
	Settings     config.Settings      `json:"settings" yaml:"settings"`
	Clipboard    clipboard.TimerState `json:"clipboard" yaml:"clipboard"`
	Notice       *errors.XError       `json:"notice,omitempty" yaml:"notice,omitempty"`
}

// Status 汇总 UI 需要展示的状态；不包含密码本身。
func (c *Controller) Status() Status {
	_, has := c.secrets.Get()
	return Status{
		Backend:      c.secrets.Backend(),
		Persistent:   c.secrets.Persistent(),
		Degraded:     c.secrets.Degraded(),
		HasPassword:  has,
		SettingsPath: c.settings.Path,
		Settings:     c.Settings(),
		Clipboard:    c.guard.State(),
		Notice:       c.secrets.ProbeNotice(),
	}
}

// Guard 暴露剪贴板守卫，供需要等待计时器的前端（CLI copy）使用。
func (c *Controller) Guard() *clipboard.Guard {
	return c.guard
}
