package clipboard

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/natefinch/atomic"
)

// ClaimFileName 是跨进程共享的剪贴板归属记录，与 settings.json 同目录。
const ClaimFileName = "clipboard.state"

// Claim 记录最近一次写入剪贴板的所有者。ID 为空表示剪贴板已被主动清空。
type Claim struct {
	ID       string    `json:"id"`
	Deadline time.Time `json:"deadline,omitempty"`
}

// ClaimStore 在多个 pwclip 进程之间共享剪贴板归属。
// 只有当前归属者的延迟清除才会执行。
type ClaimStore interface {
	Claim(c Claim) error
	Current() (Claim, error)
}

// ClaimPath 返回 settingsPath 同目录下的归属文件路径。
func ClaimPath(settingsPath string) string {
	return filepath.Join(filepath.Dir(settingsPath), ClaimFileName)
}

// FileClaims 把归属记录原子写入单个 JSON 文件。
type FileClaims struct {
	Path string
}

func NewFileClaims(path string) *FileClaims {
	return &FileClaims{Path: path}
}

func (f *FileClaims) Claim(c Claim) error {
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o700); err != nil {
		return fmt.Errorf("create claim directory: %w", err)
	}
	b, err := json.Marshal(c)
	if err != nil {
		return err
	}
	return atomic.WriteFile(f.Path, bytes.NewReader(b))
}

// Current 读取归属记录；文件不存在时返回 os.ErrNotExist。
func (f *FileClaims) Current() (Claim, error) {
	b, err := os.ReadFile(f.Path)
	if err != nil {
		return Claim{}, err
	}
	var c Claim
	if err := json.Unmarshal(b, &c); err != nil {
		return Claim{}, fmt.Errorf("decode claim file: %w", err)
	}
	return c, nil
}
