package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_LevelAndFormat(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Config{Level: "warn", JSONFormat: true, Stderr: &buf})
	require.NoError(t, err)
	defer l.Close()

	l.Info("hidden")
	l.WithField("scene", "Main.unity").Warn("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"scene":"Main.unity"`)
	assert.Equal(t, logrus.WarnLevel, l.GetLevel())
}

func TestNew_InvalidLevel(t *testing.T) {
	_, err := New(Config{Level: "loud"})
	assert.Error(t, err)
}

func TestNew_FileOutputAndRotation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "logs", "scan.log")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(strings.Repeat("x", 64)), 0644))

	var console bytes.Buffer
	l, err := New(Config{OutputFile: path, MaxSize: 32, Stderr: &console})
	require.NoError(t, err)
	l.Info("after rotation")
	require.NoError(t, l.Close())

	backup, err := os.ReadFile(path + ".1")
	require.NoError(t, err)
	assert.Len(t, backup, 64)

	current, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(current), "after rotation")
	assert.Contains(t, console.String(), "after rotation")
}
