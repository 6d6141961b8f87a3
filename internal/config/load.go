package config

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"

	"github.com/zx06/pwclip/internal/errors"
	"github.com/zx06/pwclip/internal/log"
)

// Store 读写单个 settings.json。
type Store struct {
	Path   string
	logger *slog.Logger
}

func NewStore(path string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = log.Discard()
	}
	return &Store{Path: path, logger: logger}
}

// Load 读取设置。文件缺失或内容损坏时返回缺省值而不是失败；
// 缺失的键取缺省值，未知的键忽略，单个键类型错误只影响该键。
func (s *Store) Load() Settings {
	b, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.Debug("settings file not found, using defaults", "path", s.Path)
		} else {
			s.logger.Info("settings file unreadable, using defaults", "path", s.Path, "code", errors.CodeSettingsCorrupt, "err", err)
		}
		return Defaults()
	}
	st, xe := parse(b)
	if xe != nil {
		s.logger.Info("settings file corrupt, using defaults for unreadable keys", "path", s.Path, "code", xe.Code, "err", xe)
	}
	if st.AutoClearSecs < MinAutoClearSecs || st.AutoClearSecs > MaxAutoClearSecs {
		s.logger.Info("auto_clear_secs out of range, using default", "path", s.Path, "value", st.AutoClearSecs)
		st.AutoClearSecs = DefaultAutoClearSecs
	}
	return st
}

// parse 逐键解码：顶层不是 JSON 对象时整体回退缺省值，
// 否则只有解码失败的键回退，其余键保留。
func parse(b []byte) (Settings, *errors.XError) {
	st := Defaults()
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return Defaults(), errors.Wrap(errors.CodeSettingsCorrupt, "invalid settings file", nil, err)
	}

	var bad []string
	if v, ok := raw["auto_clear"]; ok {
		if err := json.Unmarshal(v, &st.AutoClear); err != nil {
			st.AutoClear = DefaultAutoClear
			bad = append(bad, "auto_clear")
		}
	}
	if v, ok := raw["auto_clear_secs"]; ok {
		if err := json.Unmarshal(v, &st.AutoClearSecs); err != nil {
			st.AutoClearSecs = DefaultAutoClearSecs
			bad = append(bad, "auto_clear_secs")
		}
	}
	if len(bad) > 0 {
		return st, errors.New(errors.CodeSettingsCorrupt, "invalid settings values", map[string]any{"keys": bad})
	}
	return st, nil
}

// Save 校验后原子写入（临时文件 + rename），中途崩溃不会留下半个文件。
func (s *Store) Save(st Settings) *errors.XError {
	if xe := Validate(st); xe != nil {
		return xe
	}
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o700); err != nil {
		return errors.Wrap(errors.CodeInternal, "failed to create settings directory", map[string]any{"path": s.Path}, err)
	}
	b, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return errors.Wrap(errors.CodeInternal, "failed to encode settings", nil, err)
	}
	b = append(b, '\n')
	if err := atomic.WriteFile(s.Path, bytes.NewReader(b)); err != nil {
		return errors.Wrap(errors.CodeInternal, "failed to write settings file", map[string]any{"path": s.Path}, err)
	}
	s.logger.Debug("settings saved", "path", s.Path)
	return nil
}

// Validate 检查设置是否可持久化。
func Validate(st Settings) *errors.XError {
	if st.AutoClearSecs < MinAutoClearSecs || st.AutoClearSecs > MaxAutoClearSecs {
		return errors.New(errors.CodeCfgInvalid, "auto_clear_secs out of range",
			map[string]any{"auto_clear_secs": st.AutoClearSecs, "min": MinAutoClearSecs, "max": MaxAutoClearSecs})
	}
	return nil
}
