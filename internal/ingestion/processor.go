package ingestion

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/rohankatakam/sceneaudit/internal/models"
	"github.com/rohankatakam/sceneaudit/internal/output"
	"github.com/rohankatakam/sceneaudit/internal/scene"
	"github.com/rohankatakam/sceneaudit/internal/unityyaml"
	"github.com/rohankatakam/sceneaudit/internal/usage"
)

// ProcessorConfig holds configuration for scene processing
type ProcessorConfig struct {
	Workers        int    // Number of concurrent scene workers (default: runtime.NumCPU())
	ProjectRoot    string // Dump paths mirror scene paths relative to this root
	OutputDir      string // Where tree dumps are written
	DumpExtension  string // Appended to the scene path (default: ".txt")
	Indent         string // Tree dump indent marker (default: two spaces)
	ReservedPrefix string // Engine-internal key prefix (default: "m_")
}

// DefaultProcessorConfig returns default configuration
func DefaultProcessorConfig() *ProcessorConfig {
	return &ProcessorConfig{
		Workers:        runtime.NumCPU(),
		DumpExtension:  ".txt",
		Indent:         output.DefaultIndent,
		ReservedPrefix: scene.DefaultReservedPrefix,
	}
}

// Processor runs classify → build → evaluate → dump for each scene. Scenes
// share only the evaluator's declaration cache and usage registry.
type Processor struct {
	config     *ProcessorConfig
	classifier *scene.Classifier
	evaluator  *usage.Evaluator
	formatter  *output.TreeFormatter
	logger     *logrus.Logger
}

// NewProcessor creates a new scene processor
func NewProcessor(config *ProcessorConfig, scripts models.ScriptRegistry, evaluator *usage.Evaluator, logger *logrus.Logger) *Processor {
	if config == nil {
		config = DefaultProcessorConfig()
	}
	if config.Workers <= 0 {
		config.Workers = runtime.NumCPU()
	}
	if config.DumpExtension == "" {
		config.DumpExtension = ".txt"
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Processor{
		config:     config,
		classifier: scene.NewClassifier(scripts, config.ReservedPrefix),
		evaluator:  evaluator,
		formatter:  output.NewTreeFormatter(config.Indent),
		logger:     logger,
	}
}

// SceneResult holds results from processing one scene
type SceneResult struct {
	ScenePath      string
	DumpPath       string
	Documents      int
	Malformed      int // Documents whose body did not decode
	Nodes          int
	Roots          int
	Dangling       int // Nodes made roots because their parent did not resolve
	CyclesBroken   int
	Behaviors      int // Behavior references with a registered script
	ValidBehaviors int
	Unregistered   int // Behavior references dropped for an unknown script
	ScriptErrors   int // Behavior references whose script could not be parsed
	Duration       time.Duration
}

// RunResult holds results from processing a batch of scenes
type RunResult struct {
	ScenesTotal     int
	ScenesProcessed int
	ScenesFailed    int
	Scenes          []*SceneResult // In input order, failed scenes omitted
	Errors          []error
	Duration        time.Duration
}

// ProcessScenes processes scenes on a bounded worker pool and returns once
// every worker has finished. A failing scene is recorded in Errors and does
// not stop the others.
func (p *Processor) ProcessScenes(ctx context.Context, scenes []string) *RunResult {
	startTime := time.Now()

	p.logger.WithFields(logrus.Fields{
		"scenes":  len(scenes),
		"workers": p.config.Workers,
	}).Info("Starting scene processing")

	results := make([]*SceneResult, len(scenes))
	errs := make([]error, len(scenes))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.config.Workers)

	for i, path := range scenes {
		i, path := i, path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				errs[i] = fmt.Errorf("%s: %w", path, err)
				return nil
			}
			result, err := p.ProcessScene(gctx, path)
			if err != nil {
				errs[i] = fmt.Errorf("%s: %w", path, err)
				p.logger.WithError(err).WithField("scene", path).Error("Scene processing failed")
				return nil
			}
			results[i] = result
			return nil
		})
	}
	_ = g.Wait() // Workers never return errors

	run := &RunResult{ScenesTotal: len(scenes)}
	for i := range scenes {
		if errs[i] != nil {
			run.Errors = append(run.Errors, errs[i])
			continue
		}
		run.Scenes = append(run.Scenes, results[i])
	}
	run.ScenesProcessed = len(run.Scenes)
	run.ScenesFailed = len(run.Errors)
	run.Duration = time.Since(startTime)

	p.logger.WithFields(logrus.Fields{
		"processed": run.ScenesProcessed,
		"failed":    run.ScenesFailed,
		"duration":  run.Duration.String(),
	}).Info("Scene processing complete")

	return run
}

// ProcessScene reads one scene, rebuilds its hierarchy, evaluates its
// behavior references and writes its tree dump.
func (p *Processor) ProcessScene(ctx context.Context, scenePath string) (*SceneResult, error) {
	startTime := time.Now()
	log := p.logger.WithField("scene", scenePath)

	f, err := os.Open(scenePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open scene: %w", err)
	}
	docs, err := unityyaml.Decode(f)
	f.Close()
	if err != nil {
		return nil, err
	}

	result := &SceneResult{
		ScenePath: scenePath,
		Documents: len(docs),
	}
	for i := range docs {
		if docs[i].Err != nil && docs[i].HasAnchor() {
			result.Malformed++
			log.WithError(docs[i].Err).Debug("Skipping malformed document")
		}
	}

	classified := p.classifier.Classify(docs)
	forest := scene.BuildForest(classified.Transforms, classified.Entities)

	result.Nodes = forest.Len()
	result.Roots = len(forest.Roots())
	result.Dangling = forest.Dangling
	result.CyclesBroken = forest.CyclesBroken
	result.Unregistered = classified.Unregistered
	result.Behaviors = len(classified.Behaviors)

	if forest.CyclesBroken > 0 {
		log.WithField("cycles", forest.CyclesBroken).Warn("Broke cyclic parent chains")
	}

	for _, ref := range classified.Behaviors {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		verdict := p.evaluator.Evaluate(ctx, ref)
		switch {
		case verdict.Err != nil:
			result.ScriptErrors++
		case verdict.Valid:
			result.ValidBehaviors++
		default:
			log.WithFields(logrus.Fields{
				"anchor":     ref.AnchorID,
				"guid":       ref.ScriptGUID,
				"undeclared": verdict.Undeclared,
			}).Debug("Behavior has undeclared properties")
		}
	}

	dumpPath, err := p.writeDump(scenePath, forest)
	if err != nil {
		return nil, err
	}
	result.DumpPath = dumpPath
	result.Duration = time.Since(startTime)

	log.WithFields(logrus.Fields{
		"nodes":     result.Nodes,
		"behaviors": result.Behaviors,
		"valid":     result.ValidBehaviors,
		"duration":  result.Duration.String(),
	}).Debug("Scene processed")

	return result, nil
}

// DumpPath returns where the tree dump for scenePath is written.
func (p *Processor) DumpPath(scenePath string) string {
	rel, err := filepath.Rel(p.config.ProjectRoot, scenePath)
	if err != nil || p.config.ProjectRoot == "" || rel == ".." || filepath.IsAbs(rel) || hasParentPrefix(rel) {
		rel = filepath.Base(scenePath)
	}
	return filepath.Join(p.config.OutputDir, rel+p.config.DumpExtension)
}

func (p *Processor) writeDump(scenePath string, forest *scene.Forest) (string, error) {
	dumpPath := p.DumpPath(scenePath)
	if err := os.MkdirAll(filepath.Dir(dumpPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create dump directory: %w", err)
	}

	f, err := os.Create(dumpPath)
	if err != nil {
		return "", fmt.Errorf("failed to create dump: %w", err)
	}
	if err := p.formatter.Format(forest, f); err != nil {
		f.Close()
		return "", fmt.Errorf("failed to write dump: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close dump: %w", err)
	}
	return dumpPath, nil
}

func hasParentPrefix(rel string) bool {
	return len(rel) >= 3 && rel[:2] == ".." && os.IsPathSeparator(rel[2])
}
