package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZerologLoggerMethods(t *testing.T) {
	assert.NoError(t, os.Setenv("APP_ENV", "dev"))
	defer assert.NoError(t, os.Unsetenv("APP_ENV"))
	l := NewZerologLogger("test")
	if l == nil {
		t.Fatalf("nil logger")
	}
	l.Debugf("debug %d", 1)
	l.Debugw("debug", map[string]any{"k": 1})
	l.Infof("info %s", "test")
	l.Warnf("warn")
	l.Errorf("error")
}

func TestZerologLoggerLevelAndFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "engine", "warn")
	l.Infof("hidden")
	l.Warnf("dropped %d trips", 2)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "engine", entry["component"])
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "dropped 2 trips", entry["message"])
}

func TestZerologLoggerDebugw(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "engine", "debug")
	l.Debugw("dropped malformed trips", map[string]any{"dropped": 3})
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.EqualValues(t, 3, entry["dropped"])
}

func TestNopLogger(t *testing.T) {
	var l Logger = NopLogger{}
	l.Infof("nothing %d", 1)
}

func TestOutputSelection(t *testing.T) {
	assert.Equal(t, os.Stdout, output(""))
	assert.Equal(t, os.Stdout, output("stdout"))
	assert.Equal(t, os.Stderr, output("STDERR"))
}
