package log

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogging(t *testing.T) {
	buf := &bytes.Buffer{}
	SetOutput(buf)

	err := Start()
	require.NoError(t, err)
	assert.ErrorIs(t, Start(), ErrAlreadyStarted)

	SetLogLevel(TraceLevel)

	Trace("Trace")
	Debug("Debug")
	Info("Info")
	Warning("Warning")
	Error("Error")
	Critical("Critical")

	Tracef("Trace %s", "f")
	Debugf("Debug %s", "f")
	Infof("Info %s", "f")
	Warningf("Warning %s", "f")
	Errorf("Error %s", "f")
	Criticalf("Critical %s", "f")

	// filtered
	SetLogLevel(CriticalLevel)
	Warning("filtered warning")
	SetLogLevel(InfoLevel)

	Shutdown()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 12)
	assert.Contains(t, lines[0], "TRAC")
	assert.Contains(t, lines[0], "_test:")
	assert.Contains(t, lines[11], "CRIT")
	assert.Contains(t, lines[11], "Critical f")
	assert.NotContains(t, buf.String(), "filtered warning")
	assert.NotContains(t, buf.String(), "\033[", "no colors for custom writers")
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	for _, level := range []Severity{TraceLevel, DebugLevel, InfoLevel, WarningLevel, ErrorLevel, CriticalLevel} {
		assert.Equal(t, level, ParseLevel(level.Name()))
	}
	assert.Equal(t, Severity(0), ParseLevel("verbose"))

	levels, err := ParsePkgLevels("database=trace,storage=debug")
	require.NoError(t, err)
	assert.Equal(t, map[string]Severity{"database": TraceLevel, "storage": DebugLevel}, levels)

	_, err = ParsePkgLevels("database")
	assert.Error(t, err)
	_, err = ParsePkgLevels("database=loud")
	assert.Error(t, err)
}
