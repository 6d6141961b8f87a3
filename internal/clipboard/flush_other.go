//go:build !windows

package clipboard

// NewHistoryFlusher 在非 Windows 平台上没有可用机制，返回空实现。
func NewHistoryFlusher() HistoryFlusher {
	return NopFlusher{}
}
