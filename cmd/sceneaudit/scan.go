package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rohankatakam/sceneaudit/internal/cache"
	"github.com/rohankatakam/sceneaudit/internal/errors"
	"github.com/rohankatakam/sceneaudit/internal/ingestion"
	"github.com/rohankatakam/sceneaudit/internal/treesitter"
)

var scanCmd = &cobra.Command{
	Use:   "scan <project-root> <output-dir>",
	Short: "Dump scene hierarchies and report unused scripts",
	Long: `Scan a project and write two kinds of output into <output-dir>:

  • one tree dump per scene, at the scene's path relative to the project
    root plus ".txt", one line per object, two spaces per nesting level
  • UnusedScripts.csv, listing every script that no scene uses

A script counts as used when at least one scene object references it and
every property serialized on that object is a field declared by the script.

Exit status is 0 on success, 1 when the scan could not run, and 2 when the
outputs were written but some scenes could not be processed.

Examples:
  sceneaudit scan ./MyGame ./out
  sceneaudit scan ./MyGame ./out --workers 4 --cache .sceneaudit/declarations.db`,
	Args: cobra.ExactArgs(2),
	RunE: runScan,
}

func init() {
	addScanFlags(scanCmd)
}

func addScanFlags(cmd *cobra.Command) {
	cmd.Flags().Int("workers", 0, "concurrent scene workers (default: one per CPU)")
	cmd.Flags().String("cache", "", "persistent declaration cache file (bbolt)")
}

func runScan(cmd *cobra.Command, args []string) error {
	projectRoot, outputDir := args[0], args[1]

	if cmd.Flags().Changed("workers") {
		cfg.Scan.Workers, _ = cmd.Flags().GetInt("workers")
	}
	if cmd.Flags().Changed("cache") {
		cfg.Cache.Path, _ = cmd.Flags().GetString("cache")
	}

	validation := cfg.Validate()
	for _, warning := range validation.Warnings {
		logger.Warn(warning)
	}
	if err := validation.AsError(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	extractor := treesitter.NewFieldExtractor(treesitter.ExtractOptions{
		Accessibility:       cfg.Scripts.Accessibility,
		SerializeAttributes: cfg.Scripts.SerializeAttributes,
	})

	var opts []cache.Option
	if cfg.Cache.Path != "" {
		store, err := cache.OpenBoltStore(cfg.Cache.Path)
		if err != nil {
			return fmt.Errorf("failed to open declaration cache: %w", err)
		}
		defer store.Close()
		opts = append(opts, cache.WithStore(store, declarationFingerprint()))
	}
	declarations := cache.NewDeclarationCache(extractor, logger.Logger, opts...)

	orchestrator := ingestion.NewOrchestrator(declarations, logger.Logger, cfg)
	report, err := orchestrator.Run(ctx, projectRoot, outputDir)
	if err != nil {
		return err
	}

	fmt.Printf("Scanned %d scene(s) in %s\n", report.Run.ScenesTotal, report.Duration.Round(time.Millisecond))
	fmt.Printf("   Dumps:   %d written to %s\n", report.Run.ScenesProcessed, report.OutputDir)
	if report.Run.ScenesFailed > 0 {
		fmt.Printf("   Failed:  %d scene(s)\n", report.Run.ScenesFailed)
		for _, sceneErr := range report.Run.Errors {
			fmt.Printf("     - %v\n", sceneErr)
		}
	}
	fmt.Printf("   Scripts: %d registered, %d used, %d unused\n", report.Scripts, report.UsedScripts, len(report.Unused))
	if report.Cache.Failures > 0 {
		fmt.Printf("   Skipped: %d unparsable script(s)\n", report.Cache.Failures)
	}
	fmt.Printf("   Report:  %s\n", report.ReportPath)

	return incompleteScanError(report.Run)
}

// incompleteScanError reports scenes that failed in an otherwise complete
// run. The dumps and the report are already written when it is returned.
func incompleteScanError(run *ingestion.RunResult) error {
	if run == nil || run.ScenesFailed == 0 {
		return nil
	}
	err := errors.IncompleteScanErrorf("%d of %d scene(s) could not be processed", run.ScenesFailed, run.ScenesTotal)
	for i, sceneErr := range run.Errors {
		err.WithContext(fmt.Sprintf("scene_%d", i+1), sceneErr.Error())
	}
	return err
}

// declarationFingerprint identifies the extraction rules, so persisted
// declarations computed under different rules are never reused.
func declarationFingerprint() string {
	return strings.Join(cfg.Scripts.Accessibility, ",") + "|" + strings.Join(cfg.Scripts.SerializeAttributes, ",")
}
