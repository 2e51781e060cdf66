package main

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/rohankatakam/sceneaudit/internal/config"
	"github.com/rohankatakam/sceneaudit/internal/errors"
	"github.com/rohankatakam/sceneaudit/internal/logging"
)

// Exit codes
const (
	exitOK         = 0
	exitFailed     = 1 // The scan could not run, or failed outright
	exitIncomplete = 2 // Outputs were written but some scenes were left out
)

var (
	// Version information (set by build flags)
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"

	cfgFile string
	verbose bool
	logger  *logging.Logger
	cfg     *config.Config
)

func main() {
	err := rootCmd.Execute()
	if logger != nil {
		logger.Close()
	}
	os.Exit(reportError(os.Stderr, err, verbose))
}

// reportError prints err and returns the exit code for it. Structured
// errors are printed with their context when detailed is set.
func reportError(w io.Writer, err error, detailed bool) int {
	if err == nil {
		return exitOK
	}

	var e *errors.Error
	if detailed && stderrors.As(err, &e) {
		fmt.Fprintf(w, "Error: %s", e.DetailedString())
	} else {
		fmt.Fprintf(w, "Error: %v\n", err)
	}

	if !errors.IsFatal(err) && errors.GetType(err) == errors.ErrorTypeDocument {
		return exitIncomplete
	}
	return exitFailed
}

var rootCmd = &cobra.Command{
	Use:   "sceneaudit [project-root output-dir]",
	Short: "Rebuild scene hierarchies and find unused behavior scripts",
	Long: `sceneaudit reads every scene of a Unity-style project, writes the
reconstructed object hierarchy of each scene as an indented text dump, and
reports the behavior scripts that no scene uses with declared fields only.

With two arguments it behaves like 'sceneaudit scan'.`,
	Version:       Version,
	Args:          cobra.RangeArgs(0, 2),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return err
		}

		level := cfg.Log.Level
		if verbose {
			level = "debug"
		}
		logger, err = logging.New(logging.Config{
			Level:      level,
			OutputFile: cfg.Log.File,
			JSONFormat: cfg.Log.JSON,
		})
		return err
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return cmd.Help()
		}
		if len(args) != 2 {
			return fmt.Errorf("expected <project-root> <output-dir>, got %d argument(s)", len(args))
		}
		return runScan(cmd, args)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("sceneaudit %s\nBuild time: %s\nGit commit: %s\n", Version, BuildTime, GitCommit)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: .sceneaudit/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	addScanFlags(rootCmd)

	// Set custom version template
	rootCmd.SetVersionTemplate(`sceneaudit {{.Version}}
Build time: ` + BuildTime + `
Git commit: ` + GitCommit + `
`)

	// versionCmd has no use for config or logging
	versionCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error { return nil }

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(versionCmd)
}
