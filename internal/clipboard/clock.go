package clipboard

import "time"

// Clock 抽象时间源与延迟回调，测试时可替换为手动时钟。
// AfterFunc 不返回句柄：取消完全依赖 generation 比对。
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func())
}

// RealClock 基于 time 包。
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

func (RealClock) AfterFunc(d time.Duration, f func()) {
	time.AfterFunc(d, f)
}
