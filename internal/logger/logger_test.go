package logger

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	SetOutput(buf)
	t.Cleanup(func() {
		SetOutput(os.Stderr)
		SetVerbose(false)
	})
	return buf
}

func TestDebugGatedOnVerbose(t *testing.T) {
	buf := capture(t)

	Debug("hidden %d", 1)
	assert.Empty(t, buf.String())

	SetVerbose(true)
	Debug("shown %d", 2)
	assert.Contains(t, buf.String(), "[DEBUG] shown 2")
}

func TestWarnAlwaysPrints(t *testing.T) {
	buf := capture(t)

	Warn("sink %s skipped", "jira")

	assert.Contains(t, buf.String(), "[WARN] sink jira skipped")
}

func TestSection(t *testing.T) {
	buf := capture(t)

	Section("csv")
	assert.Empty(t, buf.String())

	SetVerbose(true)
	Section("csv")
	assert.Contains(t, buf.String(), "=== csv ===")
}
