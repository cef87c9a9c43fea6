package models

import "time"

// Level is the severity stored in the log journal.
type Level string

const (
	LevelDebug   Level = "debug"
	LevelInfo    Level = "info"
	LevelWarn    Level = "warn"
	LevelError   Level = "error"
	LevelSuccess Level = "success"
)

// LogEntry is one record of the bounded log journal.
type LogEntry struct {
	Timestamp      time.Time      `json:"timestamp"`
	TimestampLocal string         `json:"timestampLocal"`
	Level          Level          `json:"level"`
	Message        string         `json:"message"`
	Data           map[string]any `json:"data,omitempty"`
}
