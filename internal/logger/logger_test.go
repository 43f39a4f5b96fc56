package logger

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func captureOutput(t *testing.T, verboseOn bool) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(verboseOn)
	t.Cleanup(func() {
		SetVerbose(false)
		SetOutput(os.Stderr)
	})
	return &buf
}

func TestSetVerbose(t *testing.T) {
	captureOutput(t, false)
	assert.False(t, IsVerbose())

	SetVerbose(true)
	assert.True(t, IsVerbose())

	SetVerbose(false)
	assert.False(t, IsVerbose())
}

func TestLevels_WhenVerbose(t *testing.T) {
	tests := []struct {
		name string
		log  func(string, ...any)
		want string
	}{
		{"debug", Debug, "[DEBUG] folders: 3\n"},
		{"info", Info, "[INFO] folders: 3\n"},
		{"warn", Warn, "[WARN] folders: 3\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := captureOutput(t, true)
			tt.log("folders: %d", 3)
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestLevels_WhenQuiet(t *testing.T) {
	buf := captureOutput(t, false)

	Debug("hidden")
	Info("hidden")
	Warn("hidden")
	Section("hidden")
	ForSearch("abc").Warn("hidden")

	assert.Empty(t, buf.String())
}

func TestSection(t *testing.T) {
	buf := captureOutput(t, true)

	Section("Stage 1")

	assert.Equal(t, "\n=== Stage 1 ===\n", buf.String())
}

func TestForSearch_PrefixesLines(t *testing.T) {
	buf := captureOutput(t, true)

	ForSearch("1b4e28ba-2fa1-11d2-883f-0016d3cca427").Debug("scored %d files", 2)

	assert.Equal(t, "[DEBUG] [1b4e28ba] scored 2 files\n", buf.String())
}

func TestForSearch_ShortID(t *testing.T) {
	buf := captureOutput(t, true)

	ForSearch("abc").Info("done")

	assert.Equal(t, "[INFO] [abc] done\n", buf.String())
}
