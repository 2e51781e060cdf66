package config

import (
	"fmt"
	"strings"

	"github.com/rohankatakam/sceneaudit/internal/errors"
)

// ValidationResult holds validation results
type ValidationResult struct {
	Valid    bool
	Errors   []string
	Warnings []string
}

// AddError adds an error to the validation result
func (vr *ValidationResult) AddError(format string, args ...interface{}) {
	vr.Valid = false
	vr.Errors = append(vr.Errors, fmt.Sprintf(format, args...))
}

// AddWarning adds a warning to the validation result
func (vr *ValidationResult) AddWarning(format string, args ...interface{}) {
	vr.Warnings = append(vr.Warnings, fmt.Sprintf(format, args...))
}

// HasErrors returns true if there are any errors
func (vr *ValidationResult) HasErrors() bool {
	return !vr.Valid || len(vr.Errors) > 0
}

// Error returns a formatted error message
func (vr *ValidationResult) Error() string {
	if !vr.HasErrors() {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("Configuration validation failed:\n")
	for _, err := range vr.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err))
	}

	if len(vr.Warnings) > 0 {
		sb.WriteString("\nWarnings:\n")
		for _, warn := range vr.Warnings {
			sb.WriteString(fmt.Sprintf("  - %s\n", warn))
		}
	}

	return sb.String()
}

// Validate checks settings that would make a scan meaningless.
func (c *Config) Validate() *ValidationResult {
	result := &ValidationResult{Valid: true}

	if strings.TrimSpace(c.Scan.AssetDir) == "" {
		result.AddError("scan.asset_dir must not be empty")
	}
	if len(c.Scan.SceneExtensions) == 0 {
		result.AddError("scan.scene_extensions must list at least one extension")
	}
	for _, ext := range c.Scan.SceneExtensions {
		if !strings.HasPrefix(ext, ".") {
			result.AddError("scan.scene_extensions: %q must start with a dot", ext)
		}
	}
	if !strings.HasPrefix(c.Scan.ScriptExtension, ".") {
		result.AddError("scan.script_extension: %q must start with a dot", c.Scan.ScriptExtension)
	}
	if !strings.HasPrefix(c.Scan.MetaExtension, ".") {
		result.AddError("scan.meta_extension: %q must start with a dot", c.Scan.MetaExtension)
	}
	if c.Scan.Workers < 0 {
		result.AddError("scan.workers must be zero (one per CPU) or positive, got %d", c.Scan.Workers)
	}

	if len(c.Scripts.Accessibility) == 0 && len(c.Scripts.SerializeAttributes) == 0 {
		result.AddError("scripts.accessibility and scripts.serialize_attributes cannot both be empty")
	}

	if c.Output.Indent == "" {
		result.AddError("output.indent must not be empty")
	} else if len(c.Output.Indent) != 2 {
		result.AddWarning("output.indent is %d characters; tree dumps normally use two", len(c.Output.Indent))
	}
	if strings.TrimSpace(c.Output.ReportName) == "" {
		result.AddError("output.report_name must not be empty")
	}

	return result
}

// AsError converts a failed validation into a fatal configuration error.
func (vr *ValidationResult) AsError() error {
	if !vr.HasErrors() {
		return nil
	}
	return errors.ConfigErrorf("%s", strings.TrimRight(vr.Error(), "\n"))
}
