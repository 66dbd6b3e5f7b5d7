package sched

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelString(t *testing.T) {
	assert.Equal(t, "debug", LevelDebug.String())
	assert.Equal(t, "info", LevelInfo.String())
	assert.Equal(t, "warn", LevelWarn.String())
	assert.Equal(t, "error", LevelError.String())
	assert.Equal(t, "unknown", Level(99).String())
}

func TestNoOpLoggerDiscardsEverything(t *testing.T) {
	var l NoOpLogger
	assert.False(t, l.IsEnabled(LevelError))
	assert.NotPanics(t, func() { l.Log(LogEntry{Level: LevelError, Message: "boom"}) })
}

func TestSetGlobalLoggerNilFallsBackToNoOp(t *testing.T) {
	t.Cleanup(func() { SetGlobalLogger(NoOpLogger{}) })

	SetGlobalLogger(nil)
	assert.IsType(t, NoOpLogger{}, getGlobalLogger())
}

type recordingLogger struct {
	entries []LogEntry
}

func (r *recordingLogger) Log(e LogEntry)       { r.entries = append(r.entries, e) }
func (r *recordingLogger) IsEnabled(Level) bool { return true }

func TestSetGlobalLoggerInstallsCustomSink(t *testing.T) {
	t.Cleanup(func() { SetGlobalLogger(NoOpLogger{}) })

	rec := &recordingLogger{}
	SetGlobalLogger(rec)
	logf(LevelWarn, "test", "hello")

	require := assert.New(t)
	require.Len(rec.entries, 1)
	require.Equal(LevelWarn, rec.entries[0].Level)
	require.Equal("test", rec.entries[0].Category)
	require.Equal("hello", rec.entries[0].Message)
}

func TestLogfSkipsDisabledLevels(t *testing.T) {
	t.Cleanup(func() { SetGlobalLogger(NoOpLogger{}) })
	SetGlobalLogger(NoOpLogger{})
	// NoOpLogger.IsEnabled always false: logf must not panic building an
	// entry it's going to discard anyway.
	assert.NotPanics(t, func() { logf(LevelError, "test", "should be skipped") })
}
