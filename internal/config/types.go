package config

// Settings 表示 settings.json 的内容（非敏感数据）。
type Settings struct {
	AutoClear     bool `json:"auto_clear" yaml:"auto_clear"`
	AutoClearSecs int  `json:"auto_clear_secs" yaml:"auto_clear_secs"`
}

const (
	DefaultAutoClear     = true
	DefaultAutoClearSecs = 20

	// 允许的超时范围（秒）。
	MinAutoClearSecs = 1
	MaxAutoClearSecs = 3600
)

// Defaults 返回缺省设置。
func Defaults() Settings {
	return Settings{AutoClear: DefaultAutoClear, AutoClearSecs: DefaultAutoClearSecs}
}

// Overrides 是单次调用的覆盖项（CLI / ENV），nil 表示未设置。
type Overrides struct {
	AutoClear     *bool
	AutoClearSecs *int
}

// PathOptions 控制设置文件路径解析。
type PathOptions struct {
	// CLIPath: --settings；非空时优先。
	CLIPath string
	// EnvPath: PWCLIP_SETTINGS（由调用方注入，便于测试）。
	EnvPath string
	// ConfigDir 用于默认路径计算（为空则使用 os.UserConfigDir）。
	ConfigDir string
	// WorkDir 用于解析相对路径（为空则使用进程当前工作目录）。
	WorkDir string
}
