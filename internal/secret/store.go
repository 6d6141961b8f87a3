package secret

import (
	"log/slog"
	"sync"

	"github.com/zx06/pwclip/internal/errors"
	"github.com/zx06/pwclip/internal/log"
)

// Backend 表示密码实际存放的位置。启动时探测一次，进程生命周期内不变。
type Backend string

const (
	BackendKeyring Backend = "keyring"
	BackendMemory  Backend = "memory"
)

// Options 控制 Store 的构造。
type Options struct {
	Keyring KeyringAPI   // 可注入的 keyring 实现（nil 则用默认）
	Logger  *slog.Logger // nil 则丢弃日志

	// Service/Account 为空时使用 ServiceName/AccountName。
	Service string
	Account string
}

// Store 持有唯一的密码。
//
// keyring 后端下 keyring 是事实来源，每次 Get 都会读取，
// 这样其它 pwclip 进程的 set/clear 能立即可见。
// 内存后端（或写入失败后降级）时只使用进程内副本。
type Store struct {
	mu sync.Mutex

	kr      KeyringAPI
	service string
	account string
	logger  *slog.Logger

	backend  Backend
	notice   *errors.XError
	degraded bool
	mem      string
}

// NewStore 构造 Store 并执行唯一一次 keyring 探测。
func NewStore(opts Options) *Store {
	s := &Store{
		kr:      opts.Keyring,
		service: opts.Service,
		account: opts.Account,
		logger:  opts.Logger,
	}
	if s.kr == nil {
		s.kr = defaultKeyring()
	}
	if s.service == "" {
		s.service = ServiceName
	}
	if s.account == "" {
		s.account = AccountName
	}
	if s.logger == nil {
		s.logger = log.Discard()
	}
	s.probe()
	return s
}

func (s *Store) probe() {
	_, err := s.kr.Get(s.service, s.account)
	if err == nil || errors.Is(err, ErrNotFound) {
		s.backend = BackendKeyring
		s.logger.Debug("keyring available", "service", s.service)
		return
	}
	s.backend = BackendMemory
	s.notice = errors.Wrap(errors.CodeKeyringUnavailable,
		"OS keyring unavailable; password will be kept in memory for this session only",
		map[string]any{"service": s.service}, err)
	s.logger.Info("keyring unavailable, using in-memory store", "err", err)
}

// Backend 返回探测得到的后端类型。
func (s *Store) Backend() Backend {
	return s.backend
}

// ProbeNotice 返回探测失败时的提示（keyring 可用时为 nil）。
func (s *Store) ProbeNotice() *errors.XError {
	return s.notice
}

// Degraded 表示本会话内 keyring 写入曾失败，之后只使用内存副本。
func (s *Store) Degraded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.degraded
}

// Persistent 表示当前密码能否在进程退出后保留。
func (s *Store) Persistent() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.usesKeyring()
}

func (s *Store) usesKeyring() bool {
	return s.backend == BackendKeyring && !s.degraded
}

// Set 覆盖保存的密码。永远不会让调用失败：
// keyring 写入失败时保留内存副本并返回 PWCLIP_KEYRING_WRITE_FAILED 警告。
func (s *Store) Set(password string) *errors.XError {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.mem = password
	if !s.usesKeyring() {
		return nil
	}
	if err := s.kr.Set(s.service, s.account, password); err != nil {
		s.degraded = true
		s.logger.Warn("keyring write failed, falling back to memory", "service", s.service, "err", err)
		return errors.Wrap(errors.CodeKeyringWriteFailed,
			"failed to write password to keyring; kept in memory for this session",
			map[string]any{"service": s.service}, err)
	}
	return nil
}

// Get 返回当前密码；未设置（或读取失败）时第二个返回值为 false。
func (s *Store) Get() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.usesKeyring() {
		return s.mem, s.mem != ""
	}
	val, err := s.kr.Get(s.service, s.account)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Warn("keyring read failed", "service", s.service, "err", err)
		}
		return "", false
	}
	s.mem = val
	return val, val != ""
}

// Clear 删除密码；对空 store 重复调用是成功的空操作。
// keyring 删除失败时返回警告，但内存副本总会被清除。
func (s *Store) Clear() *errors.XError {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.mem = ""
	if s.backend != BackendKeyring {
		return nil
	}
	// 降级后也尝试删除，避免旧值在下一次启动时复活
	err := s.kr.Delete(s.service, s.account)
	if err == nil || errors.Is(err, ErrNotFound) {
		return nil
	}
	s.logger.Warn("keyring delete failed", "service", s.service, "err", err)
	return errors.Wrap(errors.CodeKeyringWriteFailed,
		"failed to remove password from keyring",
		map[string]any{"service": s.service}, err)
}
