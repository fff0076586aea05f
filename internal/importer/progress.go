package importer

import "time"

// 进度事件类型
const (
	EventStart   = "start"
	EventInfo    = "info"
	EventWarning = "warning"
	EventDone    = "done"
	EventError   = "error"
)

// ProgressEvent 导入进度事件
type ProgressEvent struct {
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Percent   int       `json:"percent"`
	Timestamp time.Time `json:"timestamp"`
}

func reportProgress(progress func(ProgressEvent), eventType string, percent int, message string) {
	if progress == nil {
		return
	}
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	progress(ProgressEvent{
		Type:      eventType,
		Message:   message,
		Percent:   percent,
		Timestamp: time.Now(),
	})
}
