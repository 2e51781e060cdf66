package ingestion

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rohankatakam/sceneaudit/internal/treesitter"
)

// stubExtractor serves canned declarations keyed by script file name.
type stubExtractor struct {
	mu     sync.Mutex
	fields map[string]treesitter.FieldSet
	calls  map[string]int
}

func newStubExtractor() *stubExtractor {
	return &stubExtractor{
		fields: map[string]treesitter.FieldSet{
			"Mover.cs":  treesitter.NewFieldSet("speed", "power"),
			"Unused.cs": treesitter.NewFieldSet("health"),
		},
		calls: make(map[string]int),
	}
}

func (s *stubExtractor) Extract(ctx context.Context, path string, src []byte) (treesitter.FieldSet, error) {
	name := filepath.Base(path)
	s.mu.Lock()
	s.calls[name]++
	s.mu.Unlock()

	fields, ok := s.fields[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, treesitter.ErrUnparsable)
	}
	return fields, nil
}

func (s *stubExtractor) Calls(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[name]
}

const mainScene = `%YAML 1.1
%TAG !u! tag:unity3d.com,2011:
--- !u!1 &100
GameObject:
  m_Component:
  - component: {fileID: 200}
  - component: {fileID: 300}
  m_Name: A
--- !u!4 &200
Transform:
  m_GameObject: {fileID: 100}
  m_Father: {fileID: 0}
--- !u!1 &101
GameObject:
  m_Component:
  - component: {fileID: 201}
  m_Name: B
--- !u!4 &201
Transform:
  m_GameObject: {fileID: 101}
  m_Father: {fileID: 200}
--- !u!114 &300
MonoBehaviour:
  m_GameObject: {fileID: 100}
  m_Enabled: 1
  m_Script: {fileID: 11500000, guid: G1, type: 3}
  speed: 3
`

const otherScene = `%YAML 1.1
%TAG !u! tag:unity3d.com,2011:
--- !u!1 &100
GameObject:
  m_Component:
  - component: {fileID: 200}
  m_Name: C
--- !u!4 &200
Transform:
  m_GameObject: {fileID: 100}
  m_Father: {fileID: 999}
--- !u!114 &300
MonoBehaviour:
  m_GameObject: {fileID: 100}
  m_Script: {fileID: 11500000, guid: G2, type: 3}
  health: 10
  turbo: 1
--- !u!114 &301
MonoBehaviour:
  m_GameObject: {fileID: 100}
  m_Script: {fileID: 11500000, guid: G3, type: 3}
  anything: 1
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func writeScript(t *testing.T, dir, name, guid string) {
	t.Helper()
	writeFile(t, filepath.Join(dir, name), "public class X : MonoBehaviour {}\n")
	writeFile(t, filepath.Join(dir, name+".meta"), fmt.Sprintf("fileFormatVersion: 2\nguid: %s\nMonoImporter:\n  serializedVersion: 2\n", guid))
}

// newProject lays out a small project: Mover (G1) used by Main, Unused (G2)
// referenced only with an undeclared property, Broken (G3) unparsable.
func newProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	scripts := filepath.Join(root, "Assets", "Scripts")
	writeScript(t, scripts, "Mover.cs", "G1")
	writeScript(t, scripts, "Unused.cs", "G2")
	writeScript(t, scripts, "Broken.cs", "G3")

	scenes := filepath.Join(root, "Assets", "Scenes")
	writeFile(t, filepath.Join(scenes, "Main.unity"), mainScene)
	writeFile(t, filepath.Join(scenes, "Other.unity"), otherScene)
	return root
}
