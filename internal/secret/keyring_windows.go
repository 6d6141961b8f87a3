//go:build windows

package secret

import (
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"
)

func (o *osKeyring) Get(service, account string) (string, error) {
	val, err := keyring.Get(service, account)
	if err != nil {
		return "", err
	}
	return stripUTF16Padding(val), nil
}

func (o *osKeyring) Set(service, account, value string) error {
	err := keyring.Set(service, account, value)
	if stderrors.Is(err, keyring.ErrSetDataTooBig) {
		return fmt.Errorf("password is too long for Windows Credential Manager (%d bytes): %w", len(value), err)
	}
	return err
}

func (o *osKeyring) Delete(service, account string) error {
	return keyring.Delete(service, account)
}

// stripUTF16Padding 去掉 Windows Credential Manager 读回时夹在字符间的 NUL 字节。
func stripUTF16Padding(v string) string {
	return strings.ReplaceAll(v, "\x00", "")
}
