package clipboard

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/zx06/pwclip/internal/errors"
)

// fakeClipboard 是内存剪贴板，可注入错误。
type fakeClipboard struct {
	mu       sync.Mutex
	text     string
	writeErr error
	readErr  error
	clearErr error
	clears   int
}

func (f *fakeClipboard) WriteText(s string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	f.text = s
	return nil
}

func (f *fakeClipboard) ReadText() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readErr != nil {
		return "", f.readErr
	}
	return f.text, nil
}

func (f *fakeClipboard) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.clearErr != nil {
		return f.clearErr
	}
	f.clears++
	f.text = ""
	return nil
}

// setExternal 模拟其它应用改写剪贴板。
func (f *fakeClipboard) setExternal(s string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.text = s
}

func (f *fakeClipboard) get() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.text
}

type countingFlusher struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (c *countingFlusher) FlushHistory() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return c.err
}

// manualClock 只有在 Advance 时才触发到期回调。
type manualClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []manualTimer
}

type manualTimer struct {
	at time.Time
	f  func()
}

func newManualClock() *manualClock {
	return &manualClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) AfterFunc(d time.Duration, f func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.timers = append(c.timers, manualTimer{at: c.now.Add(d), f: f})
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	now := c.now
	var due, rest []manualTimer
	for _, t := range c.timers {
		if !t.at.After(now) {
			due = append(due, t)
		} else {
			rest = append(rest, t)
		}
	}
	c.timers = rest
	c.mu.Unlock()

	sort.SliceStable(due, func(i, j int) bool { return due[i].at.Before(due[j].at) })
	for _, t := range due {
		t.f()
	}
}

type eventRecorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *eventRecorder) record(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *eventRecorder) snapshot() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

func newTestGuard() (*Guard, *fakeClipboard, *manualClock, *eventRecorder, *countingFlusher) {
	cb := &fakeClipboard{}
	clk := newManualClock()
	rec := &eventRecorder{}
	fl := &countingFlusher{}
	g := NewGuard(Options{Clipboard: cb, Flusher: fl, Clock: clk, OnEvent: rec.record})
	return g, cb, clk, rec, fl
}

func TestGuard_ClearsAfterTimeout(t *testing.T) {
	g, cb, clk, rec, fl := newTestGuard()

	if xe := g.Write("hunter2", 1, true); xe != nil {
		t.Fatalf("Write failed: %v", xe)
	}
	if got := cb.get(); got != "hunter2" {
		t.Fatalf("clipboard=%q want hunter2 at t=0", got)
	}
	st := g.State()
	if !st.Pending || st.Generation != 1 {
		t.Fatalf("state=%+v want pending gen 1", st)
	}
	if want := clk.Now().Add(time.Second); !st.Deadline.Equal(want) {
		t.Fatalf("deadline=%v want %v", st.Deadline, want)
	}

	clk.Advance(1100 * time.Millisecond)
	if got := cb.get(); got != "" {
		t.Fatalf("clipboard=%q want empty at t=1.1s", got)
	}
	events := rec.snapshot()
	if len(events) != 1 || events[0].Kind != EventCleared || events[0].Generation != 1 {
		t.Fatalf("events=%+v", events)
	}
	if fl.calls != 1 {
		t.Fatalf("flush calls=%d want 1", fl.calls)
	}
	if g.State().Pending {
		t.Fatal("expected idle after fire")
	}
}

func TestGuard_SupersedesPreviousTimer(t *testing.T) {
	g, cb, clk, rec, _ := newTestGuard()

	if xe := g.Write("A", 5, true); xe != nil {
		t.Fatalf("Write A failed: %v", xe)
	}
	clk.Advance(time.Second)
	if xe := g.Write("B", 5, true); xe != nil {
		t.Fatalf("Write B failed: %v", xe)
	}

	// A 的计时器在 t=5 到期，但 generation 已过期
	clk.Advance(4500 * time.Millisecond)
	if got := cb.get(); got != "B" {
		t.Fatalf("clipboard=%q want B at t=5.5", got)
	}
	if n := len(rec.snapshot()); n != 0 {
		t.Fatalf("expected no events before B deadline, got %d", n)
	}
	if st := g.State(); !st.Pending || st.Generation != 2 {
		t.Fatalf("state=%+v want pending gen 2", st)
	}

	clk.Advance(500 * time.Millisecond)
	events := rec.snapshot()
	if len(events) != 1 {
		t.Fatalf("expected exactly one clear event, got %+v", events)
	}
	if events[0].Kind != EventCleared || events[0].Generation != 2 {
		t.Fatalf("event=%+v want cleared gen 2", events[0])
	}
	if cb.clears != 1 {
		t.Fatalf("clipboard cleared %d times, want 1", cb.clears)
	}

	clk.Advance(10 * time.Second)
	if n := len(rec.snapshot()); n != 1 {
		t.Fatalf("late fire produced extra events: %d", n)
	}
}

func TestGuard_DoesNotClobberExternalContent(t *testing.T) {
	g, cb, clk, rec, fl := newTestGuard()

	if xe := g.Write("A", 2, true); xe != nil {
		t.Fatalf("Write failed: %v", xe)
	}
	clk.Advance(time.Second)
	cb.setExternal("C")
	clk.Advance(time.Second)

	if got := cb.get(); got != "C" {
		t.Fatalf("clipboard=%q want C", got)
	}
	events := rec.snapshot()
	if len(events) != 1 || events[0].Kind != EventSkipped {
		t.Fatalf("events=%+v want one skipped", events)
	}
	if cb.clears != 0 || fl.calls != 0 {
		t.Fatalf("guard must not clear foreign content (clears=%d flush=%d)", cb.clears, fl.calls)
	}
	if g.State().Pending {
		t.Fatal("expected idle after skip")
	}
}

func TestGuard_DisabledLeavesContent(t *testing.T) {
	g, cb, clk, rec, _ := newTestGuard()

	if xe := g.Write("A", 1, false); xe != nil {
		t.Fatalf("Write failed: %v", xe)
	}
	if g.State().Pending {
		t.Fatal("disabled write must not schedule a clear")
	}
	clk.Advance(time.Hour)
	if got := cb.get(); got != "A" {
		t.Fatalf("clipboard=%q want A", got)
	}
	if len(rec.snapshot()) != 0 {
		t.Fatal("expected no events")
	}
}

func TestGuard_DisabledWriteCancelsPending(t *testing.T) {
	g, cb, clk, rec, _ := newTestGuard()

	if xe := g.Write("A", 2, true); xe != nil {
		t.Fatalf("Write A failed: %v", xe)
	}
	if xe := g.Write("B", 2, false); xe != nil {
		t.Fatalf("Write B failed: %v", xe)
	}
	clk.Advance(5 * time.Second)
	if got := cb.get(); got != "B" {
		t.Fatalf("clipboard=%q want B", got)
	}
	if len(rec.snapshot()) != 0 {
		t.Fatal("superseded clear must not fire")
	}
}

func TestGuard_ClearNowCancelsPending(t *testing.T) {
	g, cb, clk, rec, fl := newTestGuard()

	if xe := g.Write("A", 2, true); xe != nil {
		t.Fatalf("Write failed: %v", xe)
	}
	if xe := g.ClearNow(); xe != nil {
		t.Fatalf("ClearNow failed: %v", xe)
	}
	if got := cb.get(); got != "" {
		t.Fatalf("clipboard=%q want empty", got)
	}
	if g.State().Pending {
		t.Fatal("expected idle after ClearNow")
	}
	if fl.calls != 1 {
		t.Fatalf("flush calls=%d want 1", fl.calls)
	}

	// 用户随后复制了别的内容，旧计时器到期也不能动它
	cb.setExternal("A")
	clk.Advance(5 * time.Second)
	if got := cb.get(); got != "A" {
		t.Fatalf("cancelled timer cleared clipboard: %q", got)
	}
	if len(rec.snapshot()) != 0 {
		t.Fatal("cancelled timer produced an event")
	}
}

func TestGuard_ClearNowFailure(t *testing.T) {
	g, cb, _, _, _ := newTestGuard()
	cb.clearErr = stderrors.New("clipboard busy")
	xe := g.ClearNow()
	if xe == nil || xe.Code != errors.CodeClipboardFailed {
		t.Fatalf("expected PWCLIP_CLIPBOARD_FAILED, got %v", xe)
	}
}

func TestGuard_WriteFailureKeepsPreviousTimer(t *testing.T) {
	g, cb, clk, rec, _ := newTestGuard()

	if xe := g.Write("A", 2, true); xe != nil {
		t.Fatalf("Write A failed: %v", xe)
	}
	cb.writeErr = stderrors.New("clipboard busy")
	xe := g.Write("B", 2, true)
	if xe == nil || xe.Code != errors.CodeClipboardFailed {
		t.Fatalf("expected PWCLIP_CLIPBOARD_FAILED, got %v", xe)
	}
	if st := g.State(); !st.Pending || st.Generation != 1 {
		t.Fatalf("failed write must not supersede: %+v", st)
	}
	cb.writeErr = nil

	clk.Advance(2 * time.Second)
	events := rec.snapshot()
	if len(events) != 1 || events[0].Kind != EventCleared || events[0].Generation != 1 {
		t.Fatalf("events=%+v", events)
	}
}

func TestGuard_ReadFailureLeavesContent(t *testing.T) {
	g, cb, clk, rec, _ := newTestGuard()

	if xe := g.Write("A", 1, true); xe != nil {
		t.Fatalf("Write failed: %v", xe)
	}
	cb.readErr = stderrors.New("no display")
	clk.Advance(time.Second)

	events := rec.snapshot()
	if len(events) != 1 || events[0].Kind != EventFailed || events[0].Err == nil {
		t.Fatalf("events=%+v want one failed", events)
	}
	if cb.clears != 0 {
		t.Fatal("must not clear when content cannot be verified")
	}
	if g.State().Pending {
		t.Fatal("expected idle after failed fire")
	}
}

func TestGuard_FlushFailureIgnored(t *testing.T) {
	g, cb, clk, rec, fl := newTestGuard()
	fl.err = stderrors.New("OpenClipboard: access denied")

	if xe := g.Write("A", 1, true); xe != nil {
		t.Fatalf("Write failed: %v", xe)
	}
	clk.Advance(time.Second)
	if got := cb.get(); got != "" {
		t.Fatalf("clipboard=%q want empty", got)
	}
	if events := rec.snapshot(); len(events) != 1 || events[0].Kind != EventCleared {
		t.Fatalf("events=%+v", events)
	}
}

func TestGuard_NonPositiveTimeoutUsesOneSecond(t *testing.T) {
	g, cb, clk, _, _ := newTestGuard()

	if xe := g.Write("A", 0, true); xe != nil {
		t.Fatalf("Write failed: %v", xe)
	}
	clk.Advance(999 * time.Millisecond)
	if got := cb.get(); got != "A" {
		t.Fatalf("cleared too early: %q", got)
	}
	clk.Advance(time.Millisecond)
	if got := cb.get(); got != "" {
		t.Fatalf("clipboard=%q want empty after 1s", got)
	}
}

func TestGuard_FirePending(t *testing.T) {
	g, cb, clk, rec, _ := newTestGuard()

	g.FirePending() // idle: no-op
	if len(rec.snapshot()) != 0 {
		t.Fatal("FirePending on idle guard produced an event")
	}

	if xe := g.Write("A", 30, true); xe != nil {
		t.Fatalf("Write failed: %v", xe)
	}
	g.FirePending()
	if got := cb.get(); got != "" {
		t.Fatalf("clipboard=%q want empty", got)
	}
	clk.Advance(time.Minute)
	if n := len(rec.snapshot()); n != 1 {
		t.Fatalf("expected one event, got %d", n)
	}
}

func TestGuard_WaitReturnsWhenIdle(t *testing.T) {
	g, _, clk, _, _ := newTestGuard()

	// idle：立即返回
	if err := g.Wait(context.Background()); err != nil {
		t.Fatalf("Wait on idle guard: %v", err)
	}

	if xe := g.Write("A", 3, true); xe != nil {
		t.Fatalf("Write failed: %v", xe)
	}
	done := make(chan error, 1)
	go func() { done <- g.Wait(context.Background()) }()

	select {
	case err := <-done:
		t.Fatalf("Wait returned early: %v", err)
	case <-time.After(20 * time.Millisecond):
	}

	clk.Advance(3 * time.Second)
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Wait error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Wait did not return after fire")
	}
}

func TestGuard_WaitFollowsSupersession(t *testing.T) {
	g, _, clk, _, _ := newTestGuard()

	if xe := g.Write("A", 2, true); xe != nil {
		t.Fatalf("Write A failed: %v", xe)
	}
	done := make(chan error, 1)
	go func() { done <- g.Wait(context.Background()) }()

	if xe := g.Write("B", 5, true); xe != nil {
		t.Fatalf("Write B failed: %v", xe)
	}
	clk.Advance(2 * time.Second)
	select {
	case <-done:
		t.Fatal("Wait returned while B is still pending")
	case <-time.After(20 * time.Millisecond):
	}
	clk.Advance(3 * time.Second)
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Wait error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Wait did not return after B fired")
	}
}

func TestGuard_WaitContextCancel(t *testing.T) {
	g, _, _, _, _ := newTestGuard()
	if xe := g.Write("A", 60, true); xe != nil {
		t.Fatalf("Write failed: %v", xe)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := g.Wait(ctx); !stderrors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Wait err=%v want deadline exceeded", err)
	}
}

func TestGuard_RealClockEndToEnd(t *testing.T) {
	if testing.Short() {
		t.Skip("uses real timers")
	}
	cb := &fakeClipboard{}
	g := NewGuard(Options{Clipboard: cb, Flusher: NopFlusher{}})

	if xe := g.Write("hunter2", 1, true); xe != nil {
		t.Fatalf("Write failed: %v", xe)
	}
	if got := cb.get(); got != "hunter2" {
		t.Fatalf("clipboard=%q want hunter2", got)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := g.Wait(ctx); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if got := cb.get(); got != "" {
		t.Fatalf("clipboard=%q want empty", got)
	}
}

func TestGuard_TimeoutAboveMaxIsClamped(t *testing.T) {
	g, cb, clk, _, _ := newTestGuard()

	if xe := g.Write("A", int(^uint(0)>>1), true); xe != nil {
		t.Fatalf("Write failed: %v", xe)
	}
	st := g.State()
	if want := clk.Now().Add(MaxTimeoutSecs * time.Second); !st.Pending || !st.Deadline.Equal(want) {
		t.Fatalf("state=%+v want deadline %v", st, want)
	}
	clk.Advance(time.Second)
	if got := cb.get(); got != "A" {
		t.Fatalf("cleared early: %q", got)
	}
	clk.Advance(MaxTimeoutSecs * time.Second)
	if got := cb.get(); got != "" {
		t.Fatalf("clipboard=%q want empty after max timeout", got)
	}
}

// twoGuards 模拟两个 pwclip 进程：共享剪贴板、时钟与归属文件，各自持有计时器。
func twoGuards(t *testing.T) (*Guard, *Guard, *fakeClipboard, *manualClock, *eventRecorder) {
	t.Helper()
	cb := &fakeClipboard{}
	clk := newManualClock()
	rec := &eventRecorder{}
	path := ClaimPath(filepath.Join(t.TempDir(), "settings.json"))
	newGuard := func() *Guard {
		return NewGuard(Options{
			Clipboard: cb,
			Flusher:   NopFlusher{},
			Clock:     clk,
			OnEvent:   rec.record,
			Claims:    NewFileClaims(path),
		})
	}
	return newGuard(), newGuard(), cb, clk, rec
}

func TestGuard_NewerProcessKeepsClipboard(t *testing.T) {
	first, second, cb, clk, rec := twoGuards(t)

	if xe := first.Write("pw", 20, true); xe != nil {
		t.Fatalf("first Write failed: %v", xe)
	}
	clk.Advance(15 * time.Second)
	if xe := second.Write("pw", 20, true); xe != nil {
		t.Fatalf("second Write failed: %v", xe)
	}

	clk.Advance(6 * time.Second) // t=21
	if got := cb.get(); got != "pw" {
		t.Fatalf("clipboard=%q want pw at t=21", got)
	}
	events := rec.snapshot()
	if len(events) != 1 || events[0].Kind != EventSuperseded {
		t.Fatalf("events=%+v want one superseded", events)
	}
	if first.State().Pending {
		t.Fatal("first guard still pending after its timer fired")
	}

	clk.Advance(14 * time.Second) // t=35
	if got := cb.get(); got != "" {
		t.Fatalf("clipboard=%q want empty at t=35", got)
	}
	events = rec.snapshot()
	if len(events) != 2 || events[1].Kind != EventCleared {
		t.Fatalf("events=%+v", events)
	}
}

func TestGuard_FirePendingRespectsNewerProcess(t *testing.T) {
	first, second, cb, clk, rec := twoGuards(t)

	if xe := first.Write("pw", 20, true); xe != nil {
		t.Fatalf("first Write failed: %v", xe)
	}
	clk.Advance(5 * time.Second)
	if xe := second.Write("pw", 20, true); xe != nil {
		t.Fatalf("second Write failed: %v", xe)
	}

	first.FirePending() // 第一个进程收到中断
	if got := cb.get(); got != "pw" {
		t.Fatalf("clipboard=%q want pw after older FirePending", got)
	}
	if events := rec.snapshot(); len(events) != 1 || events[0].Kind != EventSuperseded {
		t.Fatalf("events=%+v", events)
	}

	second.FirePending()
	if got := cb.get(); got != "" {
		t.Fatalf("clipboard=%q want empty after newer FirePending", got)
	}
}

func TestGuard_ClearNowReleasesOlderClaim(t *testing.T) {
	first, second, cb, clk, rec := twoGuards(t)

	if xe := first.Write("pw", 10, true); xe != nil {
		t.Fatalf("Write failed: %v", xe)
	}
	if xe := second.ClearNow(); xe != nil {
		t.Fatalf("ClearNow failed: %v", xe)
	}
	cb.setExternal("pw")
	clk.Advance(10 * time.Second)
	if got := cb.get(); got != "pw" {
		t.Fatalf("clipboard=%q want untouched after explicit clear elsewhere", got)
	}
	if events := rec.snapshot(); len(events) != 1 || events[0].Kind != EventSuperseded {
		t.Fatalf("events=%+v", events)
	}
}

func TestGuard_MissingClaimFileFallsBack(t *testing.T) {
	first, _, cb, clk, rec := twoGuards(t)

	if xe := first.Write("pw", 1, true); xe != nil {
		t.Fatalf("Write failed: %v", xe)
	}
	if err := os.Remove(first.claims.(*FileClaims).Path); err != nil {
		t.Fatalf("remove claim file: %v", err)
	}
	clk.Advance(time.Second)
	if got := cb.get(); got != "" {
		t.Fatalf("clipboard=%q want cleared", got)
	}
	if events := rec.snapshot(); len(events) != 1 || events[0].Kind != EventCleared {
		t.Fatalf("events=%+v", events)
	}
}

func TestFileClaims_RoundTrip(t *testing.T) {
	fc := NewFileClaims(filepath.Join(t.TempDir(), "nested", ClaimFileName))
	if _, err := fc.Current(); !os.IsNotExist(err) {
		t.Fatalf("Current on missing file err=%v want not-exist", err)
	}
	want := Claim{ID: "abc", Deadline: time.Date(2026, 1, 1, 0, 0, 20, 0, time.UTC)}
	if err := fc.Claim(want); err != nil {
		t.Fatalf("Claim failed: %v", err)
	}
	got, err := fc.Current()
	if err != nil {
		t.Fatalf("Current failed: %v", err)
	}
	if got.ID != want.ID || !got.Deadline.Equal(want.Deadline) {
		t.Fatalf("got %+v want %+v", got, want)
	}
}

func TestClaimPath(t *testing.T) {
	dir := t.TempDir()
	if got, want := ClaimPath(filepath.Join(dir, "settings.json")), filepath.Join(dir, "clipboard.state"); got != want {
		t.Fatalf("ClaimPath=%q want %q", got, want)
	}
}

type failingClaims struct{ stale Claim }

func (f *failingClaims) Claim(Claim) error       { return stderrors.New("read-only") }
func (f *failingClaims) Current() (Claim, error) { return f.stale, nil }

func TestGuard_UnrecordedClaimStillClears(t *testing.T) {
	cb := &fakeClipboard{}
	clk := newManualClock()
	rec := &eventRecorder{}
	g := NewGuard(Options{
		Clipboard: cb,
		Flusher:   NopFlusher{},
		Clock:     clk,
		OnEvent:   rec.record,
		Claims:    &failingClaims{stale: Claim{ID: "left-by-an-old-process"}},
	})

	if xe := g.Write("pw", 1, true); xe != nil {
		t.Fatalf("Write failed: %v", xe)
	}
	clk.Advance(time.Second)
	if got := cb.get(); got != "" {
		t.Fatalf("clipboard=%q want cleared", got)
	}
	if events := rec.snapshot(); len(events) != 1 || events[0].Kind != EventCleared {
		t.Fatalf("events=%+v", events)
	}
}
