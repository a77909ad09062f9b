package utils

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringInSlice(t *testing.T) {
	list := []string{"speex", "sinc-fastest", "linear"}
	assert.True(t, StringInSlice("linear", list))
	assert.False(t, StringInSlice("Linear", list))
	assert.False(t, StringInSlice("", nil))
}

func TestOneOf(t *testing.T) {
	assert.Equal(t, "allowed values are [a, b]", OneOf([]string{"a", "b"}))
}

func TestParseLogLevel(t *testing.T) {
	for _, name := range LogLevels {
		_, _, err := ParseLogLevel(name)
		assert.NoError(t, err, name)
	}

	l, ok, err := ParseLogLevel("warn")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, slog.LevelWarn, l)

	_, ok, err = ParseLogLevel("none")
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = ParseLogLevel("verbose")
	assert.Error(t, err)
}

func TestNewLoggerText(t *testing.T) {
	var buf bytes.Buffer
	logger, f, err := NewLogger("warn", "", &buf)
	require.NoError(t, err)
	assert.Nil(t, f)

	logger.Info("hidden")
	logger.Warn("shown", "kind", "gsm")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "kind=gsm")
}

func TestNewLoggerNone(t *testing.T) {
	logger, f, err := NewLogger("none", "", os.Stdout)
	require.NoError(t, err)
	assert.Nil(t, f)
	assert.False(t, logger.Enabled(context.Background(), slog.LevelError))
}

func TestNewLoggerFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "remoteCodec.log")
	logger, f, err := NewLogger("debug", path, os.Stdout)
	require.NoError(t, err)
	require.NotNil(t, f)

	logger.Debug("session opened", "session", "abc")
	require.NoError(t, f.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var rec map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(data), &rec))
	assert.Equal(t, "session opened", rec["msg"])
	assert.Equal(t, "abc", rec["session"])
}

func TestNewLoggerInvalid(t *testing.T) {
	_, _, err := NewLogger("loud", "", os.Stdout)
	assert.Error(t, err)

	_, _, err = NewLogger("info", filepath.Join(t.TempDir(), "missing", "x.log"), os.Stdout)
	assert.Error(t, err)
}
