package services

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"
	"time"

	"auto-uc2-dashboard/api"
	"auto-uc2-dashboard/models"
)

// System reads the operational panels: health, process metrics and logs.
type System struct {
	d   Deps
	now func() time.Time
}

func NewSystem(d Deps) *System {
	return &System{d: d.withDefaults(), now: time.Now}
}

func (s *System) Health(ctx context.Context) (models.SystemHealth, error) {
	var body json.RawMessage
	err := s.d.API.Get(ctx, "/admin/system/health", &body)
	if err != nil && api.StatusOf(err) != 503 {
		return models.SystemHealth{}, err
	}
	var w struct {
		Status    string  `json:"status"`
		Message   string  `json:"message"`
		Uptime    float64 `json:"uptime"`
		Timestamp int64   `json:"timestamp"`
	}
	if len(body) > 0 {
		if raw, ok := api.Lookup(body, "health"); ok {
			body = raw
		}
		_ = json.Unmarshal(body, &w)
	}
	h := models.SystemHealth{
		Status:    "ok",
		Message:   w.Message,
		Uptime:    time.Duration(w.Uptime * float64(time.Second)),
		CheckedAt: s.now(),
	}
	if w.Timestamp > 0 {
		h.CheckedAt = time.UnixMilli(w.Timestamp)
	}
	if err != nil {
		h.Status = "degraded"
		h.Message = api.Message(err)
	} else if w.Status != "" && w.Status != "success" {
		h.Status = w.Status
	}
	return h, nil
}

func (s *System) Metrics(ctx context.Context) (models.SystemMetrics, error) {
	var body json.RawMessage
	if err := s.d.API.Get(ctx, "/admin/system/metrics", &body); err != nil {
		return models.SystemMetrics{}, err
	}
	w, err := api.Item[struct {
		Memory struct {
			HeapUsed  int64 `json:"heapUsed"`
			HeapTotal int64 `json:"heapTotal"`
			RSS       int64 `json:"rss"`
		} `json:"memoryUsage"`
		CPU struct {
			User   int64 `json:"user"`
			System int64 `json:"system"`
		} `json:"cpuUsage"`
		NodeVersion string `json:"nodeVersion"`
	}](body, "metrics")
	if err != nil {
		return models.SystemMetrics{}, err
	}
	return models.SystemMetrics{
		HeapUsedBytes:  w.Memory.HeapUsed,
		HeapTotalBytes: w.Memory.HeapTotal,
		RSSBytes:       w.Memory.RSS,
		CPUUserMicros:  w.CPU.User,
		CPUSystemMicro: w.CPU.System,
		RuntimeVersion: w.NodeVersion,
	}, nil
}

// Logs returns the backend's recent log lines, newest last. A non-empty level
// keeps only entries of that level.
func (s *System) Logs(ctx context.Context, level models.LogLevel) ([]models.LogEntry, error) {
	var body json.RawMessage
	if err := s.d.API.Get(ctx, "/admin/system/logs", &body); err != nil {
		return nil, err
	}
	lines, err := api.Collection[json.RawMessage](body, "logs")
	if err != nil {
		return nil, err
	}
	out := make([]models.LogEntry, 0, len(lines))
	for _, raw := range lines {
		e := ParseLogLine(raw)
		if level != "" && e.Level != level {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

var plainLogLine = regexp.MustCompile(`^(\S+)\s+\[?([A-Za-z]+)\]?:?\s+(.*)$`)

// ParseLogLine reads one backend log line. JSON lines carry
// {timestamp, level, message, service}; anything else is kept verbatim as info.
func ParseLogLine(raw json.RawMessage) models.LogEntry {
	var line string
	if err := json.Unmarshal(raw, &line); err != nil {
		line = string(raw)
	}
	line = strings.TrimSpace(line)

	var w struct {
		Timestamp string `json:"timestamp"`
		Level     string `json:"level"`
		Message   string `json:"message"`
		Service   string `json:"service"`
	}
	if strings.HasPrefix(line, "{") && json.Unmarshal([]byte(line), &w) == nil && w.Message != "" {
		return models.LogEntry{
			Timestamp: parseLogTime(w.Timestamp),
			Level:     parseLogLevel(w.Level),
			Source:    w.Service,
			Message:   w.Message,
		}
	}
	if m := plainLogLine.FindStringSubmatch(line); m != nil {
		if ts := parseLogTime(m[1]); !ts.IsZero() {
			return models.LogEntry{Timestamp: ts, Level: parseLogLevel(m[2]), Message: m[3]}
		}
	}
	return models.LogEntry{Level: models.LogInfo, Message: line}
}

func parseLogTime(s string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05", "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func parseLogLevel(s string) models.LogLevel {
	switch strings.ToLower(s) {
	case "warn", "warning":
		return models.LogWarning
	case "error":
		return models.LogError
	case "crit", "critical", "fatal", "emerg", "alert":
		return models.LogCritical
	default:
		return models.LogInfo
	}
}
