package config

import (
	"os"
	"path/filepath"

	"github.com/zx06/pwclip/internal/errors"
)

const (
	appDirName       = "pwclip"
	settingsFileName = "settings.json"
)

// ResolvePath 计算设置文件路径：--settings > PWCLIP_SETTINGS > <UserConfigDir>/pwclip/settings.json。
// 无法确定任何可用目录时返回 PWCLIP_SETTINGS_DIR_UNAVAILABLE，这是唯一的致命启动错误。
func ResolvePath(opts PathOptions) (string, *errors.XError) {
	p := opts.CLIPath
	if p == "" {
		p = opts.EnvPath
	}
	if p != "" {
		if filepath.IsAbs(p) {
			return p, nil
		}
		workDir := opts.WorkDir
		if workDir == "" {
			wd, err := os.Getwd()
			if err != nil {
				return "", errors.Wrap(errors.CodeSettingsDirUnavailable, "cannot resolve working directory for settings path", map[string]any{"path": p}, err)
			}
			workDir = wd
		}
		return filepath.Join(workDir, p), nil
	}

	dir := opts.ConfigDir
	if dir == "" {
		d, err := os.UserConfigDir()
		if err != nil {
			return "", errors.Wrap(errors.CodeSettingsDirUnavailable, "cannot resolve per-user config directory; set PWCLIP_SETTINGS or --settings", nil, err)
		}
		dir = d
	}
	return filepath.Join(dir, appDirName, settingsFileName), nil
}

// Apply 合并覆盖项：CLI > ENV > 文件。cli 与 env 中 nil 字段表示未设置。
func Apply(base Settings, env, cli Overrides) (Settings, *errors.XError) {
	out := base
	for _, o := range []Overrides{env, cli} {
		if o.AutoClear != nil {
			out.AutoClear = *o.AutoClear
		}
		if o.AutoClearSecs != nil {
			out.AutoClearSecs = *o.AutoClearSecs
		}
	}
	if xe := Validate(out); xe != nil {
		return base, xe
	}
	return out, nil
}
