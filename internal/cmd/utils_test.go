package cmd

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512 B", formatBytes(512))
	assert.Equal(t, "1.0 KiB", formatBytes(1024))
	assert.Equal(t, "1.5 MiB", formatBytes(1536*1024))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "1.234s", formatDuration(1234*time.Millisecond + 400*time.Microsecond))
}

func TestCommandsAreRegistered(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, name := range []string{"build", "clean", "debug", "default", "init", "release", "validate", "version"} {
		assert.True(t, names[name], name)
	}
}
