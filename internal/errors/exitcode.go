package errors

// ExitCode 是进程退出码（稳定契约）。
type ExitCode int

const (
	ExitOK ExitCode = 0

	// 2: 参数/配置错误
	ExitConfig ExitCode = 2

	// 3: 尚未保存密码
	ExitNoSecret ExitCode = 3

	// 6: 剪贴板不可用或拒绝访问
	ExitClipboard ExitCode = 6

	// 10: 内部错误（含无法定位设置目录）
	ExitInternal ExitCode = 10
)

func ExitCodeFor(code Code) ExitCode {
	switch code {
	case CodeCfgInvalid, CodeSettingsCorrupt:
		return ExitConfig
	case CodeSecretNotFound:
		return ExitNoSecret
	case CodeClipboardFailed:
		return ExitClipboard
	case CodeSettingsDirUnavailable, CodeInternal:
		fallthrough
	default:
		// keyring 相关码只作为警告出现，不应走到这里
		return ExitInternal
	}
}
