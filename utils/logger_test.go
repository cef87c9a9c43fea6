package utils

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"apartment-watcher/models"
)

type memorySink struct {
	entries []models.LogEntry
}

func (m *memorySink) Append(e models.LogEntry) error {
	m.entries = append(m.entries, e)
	return nil
}

func TestLoggerWritesJournalEntries(t *testing.T) {
	var buf bytes.Buffer
	loc := time.FixedZone("BRT", -3*60*60)
	l := NewLoggerWithOptions(LoggerOptions{Writer: &buf, Location: loc})
	sink := &memorySink{}
	l.SetSink(sink)

	l.Info("found %d apartments", 3)
	l.Debug("not journaled")
	l.Log(models.LevelSuccess, "done", Fields{"checkIndex": 7})

	require.Len(t, sink.entries, 2)
	assert.Equal(t, "found 3 apartments", sink.entries[0].Message)
	assert.Equal(t, models.LevelInfo, sink.entries[0].Level)
	assert.Nil(t, sink.entries[0].Data, "printf entries carry no data")
	assert.Equal(t, models.LevelSuccess, sink.entries[1].Level)
	assert.Equal(t, 7, sink.entries[1].Data["checkIndex"])
	assert.Contains(t, buf.String(), "found 3 apartments")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"debug", "DEBUG"},
		{"WARN", "WARN"},
		{"error", "ERROR"},
		{"", "INFO"},
		{"verbose", "INFO"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLevel(tt.in).String(), "ParseLevel(%q)", tt.in)
	}
}

func TestFormatLocal(t *testing.T) {
	loc := time.FixedZone("BRT", -3*60*60)
	ts := time.Date(2026, 10, 18, 17, 5, 9, 0, time.UTC)
	assert.Equal(t, "18/10/2026, 14:05:09", FormatLocal(ts, loc))
}
