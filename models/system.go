package models

import "time"

type SystemHealth struct {
	Status    string        `json:"status"`
	Message   string        `json:"message"`
	Uptime    time.Duration `json:"uptime"`
	CheckedAt time.Time     `json:"checkedAt"`
}

type SystemMetrics struct {
	HeapUsedBytes  int64  `json:"heapUsedBytes"`
	HeapTotalBytes int64  `json:"heapTotalBytes"`
	RSSBytes       int64  `json:"rssBytes"`
	CPUUserMicros  int64  `json:"cpuUserMicros"`
	CPUSystemMicro int64  `json:"cpuSystemMicros"`
	RuntimeVersion string `json:"runtimeVersion,omitempty"`
}

type LogLevel string

const (
	LogInfo     LogLevel = "info"
	LogWarning  LogLevel = "warning"
	LogError    LogLevel = "error"
	LogCritical LogLevel = "critical"
)

type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Level     LogLevel  `json:"level"`
	Source    string    `json:"source,omitempty"`
	Message   string    `json:"message"`
}
