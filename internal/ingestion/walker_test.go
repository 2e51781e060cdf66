package ingestion

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohankatakam/sceneaudit/internal/errors"
)

func TestValidateLayout(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "Assets"), 0755))
	writeFile(t, filepath.Join(root, "file.txt"), "x")

	tests := []struct {
		name    string
		root    string
		wantErr bool
	}{
		{"valid", root, false},
		{"missing root", filepath.Join(root, "nope"), true},
		{"root is a file", filepath.Join(root, "file.txt"), true},
		{"no asset dir", t.TempDir(), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assetRoot, err := ValidateLayout(tt.root, "Assets")
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsFatal(err))
				assert.Equal(t, errors.ErrorTypeLayout, errors.GetType(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, filepath.Join(tt.root, "Assets"), assetRoot)
		})
	}
}

func TestWalkScenes(t *testing.T) {
	root := t.TempDir()
	for _, rel := range []string{
		"Scenes/b.unity",
		"Scenes/a.UNITY",
		"Scenes/Nested/c.unity",
		"Scenes/notes.txt",
		".hidden/d.unity",
		"Library/e.unity",
		"Backup~/f.unity",
	} {
		writeFile(t, filepath.Join(root, filepath.FromSlash(rel)), "")
	}

	scenes, err := WalkScenes(root, []string{".unity"})
	require.NoError(t, err)

	want := []string{
		filepath.Join(root, "Scenes", "Nested", "c.unity"),
		filepath.Join(root, "Scenes", "a.UNITY"),
		filepath.Join(root, "Scenes", "b.unity"),
	}
	assert.Equal(t, want, scenes)
}

func TestShouldSkipDir(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{".git", true},
		{"Library", true},
		{"Temp", true},
		{"Old~", true},
		{"Scenes", false},
		{"Scripts", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, shouldSkipDir(tt.name))
		})
	}
}

func TestReadGUID(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"standard", "fileFormatVersion: 2\nguid: 0a1b2c\nMonoImporter:\n", "0a1b2c"},
		{"no guid", "fileFormatVersion: 2\n", ""},
		{"padded", "  guid:   ff00  \n", "ff00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".meta")
			writeFile(t, path, tt.content)
			got, err := ReadGUID(path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ReadGUID(filepath.Join(dir, "missing.meta"))
	assert.Error(t, err)
}

func TestLoadScriptRegistry(t *testing.T) {
	root := t.TempDir()
	scripts := filepath.Join(root, "Assets", "Scripts")
	writeScript(t, scripts, "Alpha.cs", "G1")
	writeScript(t, scripts, "Beta.cs", "G1") // duplicate guid, Alpha wins
	writeScript(t, scripts, "Gamma.cs", "G2")
	writeFile(t, filepath.Join(scripts, "Orphan.cs.meta"), "guid: G3\n")
	writeFile(t, filepath.Join(scripts, "NoGuid.cs"), "class NoGuid {}")
	writeFile(t, filepath.Join(scripts, "NoGuid.cs.meta"), "fileFormatVersion: 2\n")
	writeFile(t, filepath.Join(scripts, "Shader.shader.meta"), "guid: G4\n")

	logger, hook := test.NewNullLogger()
	registry, err := LoadScriptRegistry(root, filepath.Join(root, "Assets"), ".cs", ".meta", logger)
	require.NoError(t, err)

	require.Len(t, registry, 2)
	alpha, ok := registry.Lookup("G1")
	require.True(t, ok)
	assert.Equal(t, "Assets/Scripts/Alpha.cs", alpha.RelativePath)
	assert.True(t, filepath.IsAbs(alpha.Path))

	gamma, ok := registry.Lookup("G2")
	require.True(t, ok)
	assert.Equal(t, "Assets/Scripts/Gamma.cs", gamma.RelativePath)

	assert.False(t, registry.Has("G3"))
	assert.False(t, registry.Has("G4"))

	var warnings int
	for _, entry := range hook.AllEntries() {
		if entry.Level.String() == "warning" {
			warnings++
		}
	}
	assert.Equal(t, 2, warnings) // duplicate guid, missing guid
}
