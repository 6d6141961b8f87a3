package secret

import (
	"strings"

	"github.com/zx06/pwclip/internal/errors"
)

const keyringPrefix = "keyring:"

// ResolveOptions 控制 secret 引用解析行为。
type ResolveOptions struct {
	AllowPlaintext bool       // 是否允许明文（默认 false）
	Keyring        KeyringAPI // 可注入的 keyring 实现（nil 则用默认）
}

// Resolve 解析配置中出现的 secret 值（例如 MCP HTTP token）：
//  1. keyring:xxx → 从 pwclip keyring service 的 xxx 条目读取
//  2. 否则若为明文且允许明文 → 直接返回
//  3. 否则报错
func Resolve(raw string, opts ResolveOptions) (string, *errors.XError) {
	if strings.HasPrefix(raw, keyringPrefix) {
		service, account, xe := parseKeyringRef(strings.TrimPrefix(raw, keyringPrefix))
		if xe != nil {
			return "", xe
		}
		kr := opts.Keyring
		if kr == nil {
			kr = defaultKeyring()
		}
		val, err := kr.Get(service, account)
		if err != nil {
			return "", errors.Wrap(errors.CodeSecretNotFound, "failed to read secret from keyring", map[string]any{"account": account}, err)
		}
		return val, nil
	}
	if opts.AllowPlaintext {
		return raw, nil
	}
	return "", errors.New(errors.CodeCfgInvalid, "plaintext secret not allowed; use keyring: reference or enable plaintext", nil)
}

func parseKeyringRef(ref string) (string, string, *errors.XError) {
	if ref == "" {
		return "", "", errors.New(errors.CodeCfgInvalid, "empty keyring reference", nil)
	}
	return ServiceName, ref, nil
}

// IsKeyringRef 判断值是否为 keyring 引用。
func IsKeyringRef(s string) bool {
	return strings.HasPrefix(s, keyringPrefix)
}
