package errors

// Code 是稳定错误码（字符串），供脚本与 agent 判断。
// 只增不改、不复用旧含义。
type Code string

const (
	// Config / args
	CodeCfgInvalid             Code = "PWCLIP_CFG_INVALID"
	CodeSettingsCorrupt        Code = "PWCLIP_SETTINGS_CORRUPT"
	CodeSettingsDirUnavailable Code = "PWCLIP_SETTINGS_DIR_UNAVAILABLE"

	// Secret
	CodeSecretNotFound     Code = "PWCLIP_SECRET_NOT_FOUND"
	CodeKeyringUnavailable Code = "PWCLIP_KEYRING_UNAVAILABLE"
	CodeKeyringWriteFailed Code = "PWCLIP_KEYRING_WRITE_FAILED"

	// Clipboard
	CodeClipboardFailed Code = "PWCLIP_CLIPBOARD_FAILED"

	// Internal
	CodeInternal Code = "PWCLIP_INTERNAL"
)

func AllCodes() []Code {
	return []Code{
		CodeCfgInvalid,
		CodeSettingsCorrupt,
		CodeSettingsDirUnavailable,
		CodeSecretNotFound,
		CodeKeyringUnavailable,
		CodeKeyringWriteFailed,
		CodeClipboardFailed,
		CodeInternal,
	}
}
