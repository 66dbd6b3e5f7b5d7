package sched

import (
	"testing"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// capturingWriter is a logiface.Writer[*stumpy.Event] double that records
// the level of every event it receives, without reaching into stumpy's
// internal JSON buffer.
type capturingWriter struct {
	levels []logiface.Level
}

func (w *capturingWriter) Write(e *stumpy.Event) error {
	w.levels = append(w.levels, e.Level())
	return nil
}

func TestStumpyLoggerLogsAtRequestedLevel(t *testing.T) {
	w := &capturingWriter{}
	l := NewStumpyLogger(w)

	l.Log(LogEntry{Level: LevelInfo, Category: "contextswitch", Message: "switched"})
	l.Log(LogEntry{Level: LevelError, Category: "rcu", Message: "callback failed"})

	require.Len(t, w.levels, 2)
	assert.Equal(t, logiface.LevelInformational, w.levels[0])
	assert.Equal(t, logiface.LevelError, w.levels[1])
}

func TestStumpyLoggerIsEnabledReflectsConfiguredLevel(t *testing.T) {
	l := NewStumpyLogger(&capturingWriter{})
	assert.True(t, l.IsEnabled(LevelInfo))
}

func TestStumpyLoggerNilWriterDefaultsRatherThanPanics(t *testing.T) {
	assert.NotPanics(t, func() {
		l := NewStumpyLogger(nil)
		l.Log(LogEntry{Level: LevelDebug, Message: "no writer configured"})
	})
}

func TestToLogifaceLevelMapsEveryLevel(t *testing.T) {
	assert.Equal(t, logiface.LevelDebug, toLogifaceLevel(LevelDebug))
	assert.Equal(t, logiface.LevelInformational, toLogifaceLevel(LevelInfo))
	assert.Equal(t, logiface.LevelWarning, toLogifaceLevel(LevelWarn))
	assert.Equal(t, logiface.LevelError, toLogifaceLevel(LevelError))
}
