//go:build windows

package clipboard

import (
	"fmt"

	"golang.org/x/sys/windows"
)

var (
	user32             = windows.NewLazySystemDLL("user32.dll")
	procOpenClipboard  = user32.NewProc("OpenClipboard")
	procEmptyClipboard = user32.NewProc("EmptyClipboard")
	procCloseClipboard = user32.NewProc("CloseClipboard")
)

// NewHistoryFlusher 在 Windows 上调用 EmptyClipboard 释放剪贴板缓冲。
// 注意：Win+V 剪贴板历史由系统单独维护，应用无法清除。
func NewHistoryFlusher() HistoryFlusher {
	return win32Flusher{}
}

type win32Flusher struct{}

func (win32Flusher) FlushHistory() error {
	if err := user32.Load(); err != nil {
		return err
	}
	r, _, err := procOpenClipboard.Call(0)
	if r == 0 {
		return fmt.Errorf("OpenClipboard: %w", err)
	}
	defer procCloseClipboard.Call()
	r, _, err = procEmptyClipboard.Call()
	if r == 0 {
		return fmt.Errorf("EmptyClipboard: %w", err)
	}
	return nil
}
