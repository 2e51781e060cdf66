package ingestion

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/rohankatakam/sceneaudit/internal/cache"
	"github.com/rohankatakam/sceneaudit/internal/config"
	"github.com/rohankatakam/sceneaudit/internal/models"
	"github.com/rohankatakam/sceneaudit/internal/output"
	"github.com/rohankatakam/sceneaudit/internal/usage"
)

// Orchestrator coordinates a full project scan
type Orchestrator struct {
	declarations *cache.DeclarationCache
	logger       *logrus.Logger
	config       *config.Config
}

// NewOrchestrator creates a new scan orchestrator
func NewOrchestrator(
	declarations *cache.DeclarationCache,
	logger *logrus.Logger,
	config *config.Config,
) *Orchestrator {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Orchestrator{
		declarations: declarations,
		logger:       logger,
		config:       config,
	}
}

// Report contains the results of a scan
type Report struct {
	RunID       string
	ProjectRoot string
	OutputDir   string
	Scripts     int
	UsedScripts int
	Unused      []models.Script
	ReportPath  string
	Run         *RunResult
	Cache       cache.Stats
	Duration    time.Duration
}

// Run scans projectRoot, writes one tree dump per scene and the unused
// script report into outputDir. Only layout problems and output failures
// abort the run; per-scene and per-script failures are logged and counted.
func (o *Orchestrator) Run(ctx context.Context, projectRoot, outputDir string) (*Report, error) {
	startTime := time.Now()
	runID := uuid.New().String()
	log := o.logger.WithFields(logrus.Fields{
		"run_id":  runID,
		"project": projectRoot,
	})
	log.Info("Starting project scan")

	// Phase 1: Layout
	assetRoot, err := ValidateLayout(projectRoot, o.config.Scan.AssetDir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	// Phase 2: Script registry
	scripts, err := LoadScriptRegistry(projectRoot, assetRoot, o.config.Scan.ScriptExtension, o.config.Scan.MetaExtension, o.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load script registry: %w", err)
	}

	// Phase 3: Scene discovery
	scenes, err := WalkScenes(assetRoot, o.config.Scan.SceneExtensions)
	if err != nil {
		return nil, fmt.Errorf("failed to discover scenes: %w", err)
	}
	log.WithFields(logrus.Fields{
		"scripts": len(scripts),
		"scenes":  len(scenes),
	}).Info("Discovered project contents")

	// Phase 4: Scenes. ProcessScenes returns only after every worker has
	// finished, so the usage registry is complete afterwards.
	used := usage.NewRegistry()
	evaluator := usage.NewEvaluator(scripts, o.declarations, used, o.config.Scripts.ReservedPrefix)
	processor := NewProcessor(&ProcessorConfig{
		Workers:        o.config.Scan.Workers,
		ProjectRoot:    projectRoot,
		OutputDir:      outputDir,
		DumpExtension:  o.config.Output.DumpExtension,
		Indent:         o.config.Output.Indent,
		ReservedPrefix: o.config.Scripts.ReservedPrefix,
	}, scripts, evaluator, o.logger)

	run := processor.ProcessScenes(ctx, scenes)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Phase 5: Unused script report
	unused := usage.Unused(scripts, used)
	reportPath := filepath.Join(outputDir, o.config.Output.ReportName)
	if err := writeReport(reportPath, unused); err != nil {
		return nil, err
	}

	report := &Report{
		RunID:       runID,
		ProjectRoot: projectRoot,
		OutputDir:   outputDir,
		Scripts:     len(scripts),
		UsedScripts: used.Len(),
		Unused:      unused,
		ReportPath:  reportPath,
		Run:         run,
		Duration:    time.Since(startTime),
	}
	if o.declarations != nil {
		report.Cache = o.declarations.Stats()
	}

	log.WithFields(logrus.Fields{
		"duration":      report.Duration.String(),
		"scenes":        run.ScenesProcessed,
		"scenes_failed": run.ScenesFailed,
		"used":          report.UsedScripts,
		"unused":        len(unused),
		"extractions":   report.Cache.Extractions,
	}).Info("Project scan completed")

	return report, nil
}

func writeReport(path string, unused []models.Script) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	if err := output.WriteUnusedCSV(f, unused); err != nil {
		f.Close()
		return fmt.Errorf("failed to write report: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close report: %w", err)
	}
	return nil
}
