package clipboard

// HistoryFlusher 尝试清空系统剪贴板的内部缓冲/历史条目。
// 只是尽力而为，失败会被忽略。
type HistoryFlusher interface {
	FlushHistory() error
}

// NopFlusher 不做任何事，用于不支持的平台与测试。
type NopFlusher struct{}

func (NopFlusher) FlushHistory() error { return nil }
