package config

import (
	"context"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/zx06/pwclip/internal/errors"
)

// Watch 监听设置文件所在目录，文件被创建/写入/替换时以新的 Load 结果回调 fn。
// 监听目录而不是文件本身，因为原子写入会用 rename 替换 inode。
// 阻塞直到 ctx 结束。
func (s *Store) Watch(ctx context.Context, fn func(Settings)) *errors.XError {
	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return errors.Wrap(errors.CodeInternal, "failed to create settings directory", map[string]any{"dir": dir}, err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(errors.CodeInternal, "failed to create settings watcher", nil, err)
	}
	defer w.Close()
	if err := w.Add(dir); err != nil {
		return errors.Wrap(errors.CodeInternal, "failed to watch settings directory", map[string]any{"dir": dir}, err)
	}

	target := filepath.Clean(s.Path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Rename) {
				continue
			}
			s.logger.Debug("settings file changed", "path", s.Path, "op", ev.Op.String())
			fn(s.Load())
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("settings watcher error", "err", err)
		}
	}
}
