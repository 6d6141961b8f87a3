// Package clipboard 负责把密码写入系统剪贴板，并在超时后有条件地清除。
package clipboard

import (
	"github.com/atotto/clipboard"
)

// Clipboard 是系统剪贴板的最小抽象。
type Clipboard interface {
	WriteText(s string) error
	ReadText() (string, error)
	Clear() error
}

// System 通过 github.com/atotto/clipboard 访问系统剪贴板
// （Linux 下依赖 xclip/xsel/wl-clipboard）。
type System struct{}

func NewSystem() *System {
	return &System{}
}

func (*System) WriteText(s string) error {
	return clipboard.WriteAll(s)
}

func (*System) ReadText() (string, error) {
	return clipboard.ReadAll()
}

func (*System) Clear() error {
	return clipboard.WriteAll("")
}

// Supported 报告当前平台是否找到了可用的剪贴板工具。
func Supported() bool {
	return !clipboard.Unsupported
}

var _ Clipboard = (*System)(nil)
