package log

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetLoggerNeverNil(t *testing.T) {
	assert.NotNil(t, GetLogger())
}

func TestInitWithFileAppender(t *testing.T) {
	prev := GetLogger()
	defer SetLogger(prev)

	logPath := filepath.Join(t.TempDir(), "pktinfo.log")
	cfg := &LoggerConfig{
		Level:   "debug",
		Pattern: "[%level] %msg %field%n",
		Time:    DefaultTime,
		Appenders: []AppenderConfig{
			{Type: "file", Options: map[string]interface{}{"filename": logPath, "max_size": "10"}},
		},
	}
	require.NoError(t, Init(cfg))

	l := GetLogger()
	assert.True(t, l.IsDebugEnabled())
	assert.False(t, l.IsTraceEnabled())

	l.WithField("frames", 5).WithError(errors.New("bad frame")).Debug("run finished")

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	line := string(data)
	assert.Contains(t, line, "[debug] run finished")
	assert.Contains(t, line, "error=bad frame")
	assert.Contains(t, line, "frames=5")
	assert.True(t, strings.HasSuffix(line, "\n"))
}

func TestInitRejectsBadAppender(t *testing.T) {
	err := Init(&LoggerConfig{Level: "info", Appenders: []AppenderConfig{{Type: "kafka"}}})
	assert.Error(t, err)

	err = Init(&LoggerConfig{Level: "info", Appenders: []AppenderConfig{{Type: "file"}}})
	assert.Error(t, err)
}

func TestInitUnknownLevelFallsBackToInfo(t *testing.T) {
	l, err := newLogrusAdapter(&LoggerConfig{Level: "chatty"})
	require.NoError(t, err)
	assert.True(t, l.IsInfoEnabled())
	assert.False(t, l.IsDebugEnabled())
}

func TestFormatter(t *testing.T) {
	f := &formatter{pattern: "%time|%level|%msg|%field|%func%n", time: "15:04"}
	entry := &logrus.Entry{
		Logger:  logrus.New(),
		Time:    time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		Level:   logrus.WarnLevel,
		Message: "stream ended",
		Data:    logrus.Fields{"b": 2, "a": "x"},
	}

	out, err := f.Format(entry)
	require.NoError(t, err)
	assert.Equal(t, "03:04|warning|stream ended|a=x,b=2|unknown\n", string(out))
}

func TestMultiWriter(t *testing.T) {
	var a, b strings.Builder
	w := NewMultiWriter().Add(&a).Add(&b)

	n, err := w.Write([]byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, "hello", a.String())
	assert.Equal(t, "hello", b.String())
	assert.Equal(t, 2, w.Len())
}

func TestBuildWriterDefaultsToConsole(t *testing.T) {
	w, err := buildWriter(nil)
	require.NoError(t, err)
	assert.Equal(t, 1, w.Len())
}

func TestNewWriterLogger(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriterLogger(&buf, "warn")

	l.Info("hidden")
	l.WithField("frames", 3).Warn("stream ended")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "[warning]")
	assert.Contains(t, out, "stream ended")
	assert.Contains(t, out, "frames=3")
	assert.False(t, l.IsInfoEnabled())
}
