package clipboard

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zx06/pwclip/internal/errors"
	"github.com/zx06/pwclip/internal/log"
)

// EventKind 描述一次延迟清除的结果。
type EventKind string

const (
	EventCleared    EventKind = "cleared"    // 剪贴板仍是写入的密码，已清除
	EventSkipped    EventKind = "skipped"    // 剪贴板已被用户改写，保持不动
	EventFailed     EventKind = "failed"     // 读取或清除剪贴板失败
	EventSuperseded EventKind = "superseded" // 其它进程之后写入了剪贴板，清除交给它
)

// MaxTimeoutSecs 是单次清除延迟的上限，超出部分按上限处理。
const MaxTimeoutSecs = 3600

type Event struct {
	Kind       EventKind
	Generation uint64
	Err        error
}

// TimerState 是清除计时器的快照；Pending=false 即 Idle。
type TimerState struct {
	Pending    bool      `json:"pending" yaml:"pending"`
	Generation uint64    `json:"generation" yaml:"generation"`
	Deadline   time.Time `json:"deadline,omitempty" yaml:"deadline,omitempty"`
}

type Options struct {
	Clipboard Clipboard      // 必填
	Flusher   HistoryFlusher // nil 则使用平台默认
	Clock     Clock          // nil 则使用 RealClock
	Logger    *slog.Logger
	OnEvent   func(Event) // 每次计时器触发（或 FirePending）后调用，可为 nil
	Claims    ClaimStore  // nil 则只在进程内判定取代
}

type pendingClear struct {
	generation uint64
	expected   string
	deadline   time.Time
	claimID    string
}

// Guard 写入剪贴板并调度条件清除。
//
// 任一时刻至多一个待执行的清除；新的 Write 通过递增 generation 使旧回调失效。
// 计时器回调运行在独立 goroutine 上，mu 保证回调与 Write/ClearNow 顺序执行。
type Guard struct {
	cb      Clipboard
	flusher HistoryFlusher
	clock   Clock
	logger  *slog.Logger
	onEvent func(Event)
	claims  ClaimStore

	mu         sync.Mutex
	generation uint64
	pending    *pendingClear
	idle       chan struct{}
}

func NewGuard(opts Options) *Guard {
	g := &Guard{
		cb:      opts.Clipboard,
		flusher: opts.Flusher,
		clock:   opts.Clock,
		logger:  opts.Logger,
		onEvent: opts.OnEvent,
		claims:  opts.Claims,
		idle:    make(chan struct{}),
	}
	close(g.idle)
	if g.flusher == nil {
		g.flusher = NewHistoryFlusher()
	}
	if g.clock == nil {
		g.clock = RealClock{}
	}
	if g.logger == nil {
		g.logger = log.Discard()
	}
	return g
}

// Write 把 password 写入剪贴板。enabled 时在 timeoutSecs 秒后清除，
// 但仅当剪贴板内容仍与写入值完全一致。任何先前的待清除都会被取代。
func (g *Guard) Write(password string, timeoutSecs int, enabled bool) *errors.XError {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.cb.WriteText(password); err != nil {
		g.logger.Warn("clipboard write failed", "err", err)
		return errors.Wrap(errors.CodeClipboardFailed, "failed to write to clipboard", nil, err)
	}

	g.generation++
	gen := g.generation
	g.cancelLocked()
	claimID := uuid.NewString()
	if !enabled {
		g.claimLocked(Claim{ID: claimID})
		g.logger.Debug("clipboard written without auto-clear", "generation", gen)
		return nil
	}

	if timeoutSecs < 1 {
		timeoutSecs = 1
	}
	if timeoutSecs > MaxTimeoutSecs {
		timeoutSecs = MaxTimeoutSecs
	}
	d := time.Duration(timeoutSecs) * time.Second
	deadline := g.clock.Now().Add(d)
	if !g.claimLocked(Claim{ID: claimID, Deadline: deadline}) {
		claimID = ""
	}
	g.pending = &pendingClear{generation: gen, expected: password, deadline: deadline, claimID: claimID}
	g.idle = make(chan struct{})
	g.clock.AfterFunc(d, func() { g.fire(gen) })
	g.logger.Debug("clipboard clear scheduled", "generation", gen, "timeout_secs", timeoutSecs)
	return nil
}

// ClearNow 立即清空剪贴板并取消待执行的清除。
func (g *Guard) ClearNow() *errors.XError {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.generation++
	g.cancelLocked()
	if err := g.cb.Clear(); err != nil {
		g.logger.Warn("clipboard clear failed", "err", err)
		return errors.Wrap(errors.CodeClipboardFailed, "failed to clear clipboard", nil, err)
	}
	g.claimLocked(Claim{})
	g.flushLocked()
	return nil
}

// FirePending 立即执行当前待执行的条件清除（若有）。
func (g *Guard) FirePending() {
	g.mu.Lock()
	gen := uint64(0)
	if g.pending != nil {
		gen = g.pending.generation
	}
	g.mu.Unlock()
	if gen != 0 {
		g.fire(gen)
	}
}

// State 返回计时器快照。
func (g *Guard) State() TimerState {
	g.mu.Lock()
	defer g.mu.Unlock()
	st := TimerState{Generation: g.generation}
	if g.pending != nil {
		st.Pending = true
		st.Deadline = g.pending.deadline
	}
	return st
}

// Wait 阻塞直到没有待执行的清除，或 ctx 结束。
func (g *Guard) Wait(ctx context.Context) error {
	for {
		g.mu.Lock()
		ch := g.idle
		g.mu.Unlock()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ch:
		}
		// 等待期间可能有新的 Write 重新进入 Pending
		if !g.State().Pending {
			return nil
		}
	}
}

func (g *Guard) fire(gen uint64) {
	ev, ok := g.fireLocked(gen)
	if ok && g.onEvent != nil {
		g.onEvent(ev)
	}
}

func (g *Guard) fireLocked(gen uint64) (Event, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.pending == nil || g.pending.generation != gen {
		// 已被取代或取消
		return Event{}, false
	}
	expected := g.pending.expected
	claimID := g.pending.claimID
	g.cancelLocked()

	if g.supersededLocked(claimID) {
		g.logger.Debug("clipboard claimed by a newer copy, leaving it", "generation", gen)
		return Event{Kind: EventSuperseded, Generation: gen}, true
	}

	current, err := g.cb.ReadText()
	if err != nil {
		g.logger.Warn("clipboard read failed, leaving content untouched", "generation", gen, "err", err)
		return Event{Kind: EventFailed, Generation: gen, Err: err}, true
	}
	if current != expected {
		g.logger.Debug("clipboard changed since copy, skipping clear", "generation", gen)
		return Event{Kind: EventSkipped, Generation: gen}, true
	}
	if err := g.cb.Clear(); err != nil {
		g.logger.Warn("clipboard clear failed", "generation", gen, "err", err)
		return Event{Kind: EventFailed, Generation: gen, Err: err}, true
	}
	g.flushLocked()
	g.logger.Info("clipboard cleared", "generation", gen)
	return Event{Kind: EventCleared, Generation: gen}, true
}

func (g *Guard) cancelLocked() {
	if g.pending == nil {
		return
	}
	g.pending = nil
	close(g.idle)
}

// claimLocked 报告归属是否已记录。
func (g *Guard) claimLocked(c Claim) bool {
	if g.claims == nil {
		return false
	}
	if err := g.claims.Claim(c); err != nil {
		g.logger.Warn("clipboard claim write failed", "err", err)
		return false
	}
	return true
}

// supersededLocked 报告共享记录是否已归属其它写入。
// 本次写入未能记录归属，或记录缺失、不可读时，退回进程内判定。
func (g *Guard) supersededLocked(claimID string) bool {
	if g.claims == nil || claimID == "" {
		return false
	}
	cur, err := g.claims.Current()
	if err != nil {
		if !os.IsNotExist(err) {
			g.logger.Warn("clipboard claim read failed", "err", err)
		}
		return false
	}
	return cur.ID != claimID
}

func (g *Guard) flushLocked() {
	if err := g.flusher.FlushHistory(); err != nil {
		g.logger.Debug("clipboard history flush failed", "err", err)
	}
}
