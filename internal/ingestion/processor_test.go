package ingestion

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/rohankatakam/sceneaudit/internal/cache"
	"github.com/rohankatakam/sceneaudit/internal/models"
	"github.com/rohankatakam/sceneaudit/internal/usage"
)

func newTestProcessor(t *testing.T, root, out string, workers int) (*Processor, *usage.Registry) {
	t.Helper()
	logger, _ := test.NewNullLogger()

	assetRoot, err := ValidateLayout(root, "Assets")
	require.NoError(t, err)
	scripts, err := LoadScriptRegistry(root, assetRoot, ".cs", ".meta", logger)
	require.NoError(t, err)

	used := usage.NewRegistry()
	declarations := cache.NewDeclarationCache(newStubExtractor(), logger)
	evaluator := usage.NewEvaluator(scripts, declarations, used, "")

	p := NewProcessor(&ProcessorConfig{
		Workers:     workers,
		ProjectRoot: root,
		OutputDir:   out,
	}, scripts, evaluator, logger)
	return p, used
}

func TestProcessScene_WritesDump(t *testing.T) {
	root := newProject(t)
	out := t.TempDir()
	p, used := newTestProcessor(t, root, out, 1)

	scenePath := filepath.Join(root, "Assets", "Scenes", "Main.unity")
	result, err := p.ProcessScene(context.Background(), scenePath)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(out, "Assets", "Scenes", "Main.unity.txt"), result.DumpPath)
	assert.Equal(t, 2, result.Nodes)
	assert.Equal(t, 1, result.Roots)
	assert.Equal(t, 1, result.Behaviors)
	assert.Equal(t, 1, result.ValidBehaviors)

	dump, err := os.ReadFile(result.DumpPath)
	require.NoError(t, err)
	assert.Equal(t, "A\n  B\n", string(dump))
	assert.True(t, used.Has("G1"))
}

func TestProcessScene_UnresolvedParentIsRoot(t *testing.T) {
	root := newProject(t)
	out := t.TempDir()
	p, used := newTestProcessor(t, root, out, 1)

	result, err := p.ProcessScene(context.Background(), filepath.Join(root, "Assets", "Scenes", "Other.unity"))
	require.NoError(t, err)

	assert.Equal(t, 1, result.Roots)
	assert.Equal(t, 1, result.Dangling)
	assert.Equal(t, 2, result.Behaviors)
	assert.Equal(t, 0, result.ValidBehaviors)
	assert.Equal(t, 1, result.ScriptErrors)

	dump, err := os.ReadFile(result.DumpPath)
	require.NoError(t, err)
	assert.Equal(t, "C\n", string(dump))

	// turbo is undeclared on G2, G3 does not parse
	assert.False(t, used.Has("G2"))
	assert.False(t, used.Has("G3"))
}

func TestProcessScenes_FailureDoesNotAbortOthers(t *testing.T) {
	defer goleak.VerifyNone(t)

	root := newProject(t)
	out := t.TempDir()
	p, used := newTestProcessor(t, root, out, 2)

	scenes := []string{
		filepath.Join(root, "Assets", "Scenes", "Missing.unity"),
		filepath.Join(root, "Assets", "Scenes", "Main.unity"),
		filepath.Join(root, "Assets", "Scenes", "Other.unity"),
	}
	run := p.ProcessScenes(context.Background(), scenes)

	assert.Equal(t, 3, run.ScenesTotal)
	assert.Equal(t, 2, run.ScenesProcessed)
	assert.Equal(t, 1, run.ScenesFailed)
	require.Len(t, run.Errors, 1)
	assert.Contains(t, run.Errors[0].Error(), "Missing.unity")

	require.Len(t, run.Scenes, 2)
	assert.Equal(t, scenes[1], run.Scenes[0].ScenePath)
	assert.Equal(t, scenes[2], run.Scenes[1].ScenePath)
	assert.True(t, used.Has("G1"))
}

func TestProcessScenes_Cancelled(t *testing.T) {
	defer goleak.VerifyNone(t)

	root := newProject(t)
	p, used := newTestProcessor(t, root, t.TempDir(), 2)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	run := p.ProcessScenes(ctx, []string{
		filepath.Join(root, "Assets", "Scenes", "Main.unity"),
		filepath.Join(root, "Assets", "Scenes", "Other.unity"),
	})
	assert.Equal(t, 2, run.ScenesFailed)
	assert.Empty(t, run.Scenes)
	assert.Equal(t, 0, used.Len())
}

func TestProcessScenes_SharedDeclarationsExtractOnce(t *testing.T) {
	root := newProject(t)
	scenes := filepath.Join(root, "Assets", "Scenes")
	var paths []string
	for _, name := range []string{"A", "B", "C", "D", "E", "F", "G", "H"} {
		path := filepath.Join(scenes, name+".unity")
		writeFile(t, path, mainScene)
		paths = append(paths, path)
	}

	logger, _ := test.NewNullLogger()
	assetRoot, err := ValidateLayout(root, "Assets")
	require.NoError(t, err)
	scripts, err := LoadScriptRegistry(root, assetRoot, ".cs", ".meta", logger)
	require.NoError(t, err)

	extractor := newStubExtractor()
	declarations := cache.NewDeclarationCache(extractor, logger)
	used := usage.NewRegistry()
	p := NewProcessor(&ProcessorConfig{Workers: 4, ProjectRoot: root, OutputDir: t.TempDir()},
		scripts, usage.NewEvaluator(scripts, declarations, used, ""), logger)

	run := p.ProcessScenes(context.Background(), paths)
	assert.Equal(t, len(paths), run.ScenesProcessed)
	assert.Equal(t, 1, extractor.Calls("Mover.cs"))
	assert.Equal(t, int64(1), declarations.Stats().Extractions)
}

func TestDumpPath(t *testing.T) {
	p := NewProcessor(&ProcessorConfig{
		ProjectRoot: filepath.Join("proj"),
		OutputDir:   filepath.Join("out"),
	}, models.ScriptRegistry{}, nil, nil)

	tests := []struct {
		name  string
		scene string
		want  string
	}{
		{"nested", filepath.Join("proj", "Assets", "Levels", "One.unity"), filepath.Join("out", "Assets", "Levels", "One.unity.txt")},
		{"outside root", filepath.Join("elsewhere", "Two.unity"), filepath.Join("out", "Two.unity.txt")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.DumpPath(tt.scene))
		})
	}
}
