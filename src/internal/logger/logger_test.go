package logger

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsoleLevels(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)
	defer SetVerbose(false)

	Info("entry points: %d", 3)
	Warn("slow")
	Debug("hidden")
	assert.Equal(t, "[INFO] entry points: 3\n[WARN] slow\n", buf.String())

	SetVerbose(true)
	Debug("shown")
	assert.True(t, strings.HasSuffix(buf.String(), "[DEBUG] shown\n"))
}

func TestInitLoggerWritesFile(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)

	path, err := InitLogger(t.TempDir())
	require.NoError(t, err)
	InfoFileOnly("only in file")
	Error("boom")
	Close()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[INFO] only in file")
	assert.Contains(t, string(data), "[ERROR] boom")
	assert.NotContains(t, buf.String(), "only in file")
}
