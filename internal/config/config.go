package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. SCENEAUDIT_SCAN_WORKERS.
const EnvPrefix = "SCENEAUDIT"

// Config holds all configuration settings
type Config struct {
	// Project scanning
	Scan ScanConfig `yaml:"scan" mapstructure:"scan"`

	// Script declaration rules
	Scripts ScriptsConfig `yaml:"scripts" mapstructure:"scripts"`

	// Output files
	Output OutputConfig `yaml:"output" mapstructure:"output"`

	// Persistent declaration cache
	Cache CacheConfig `yaml:"cache" mapstructure:"cache"`

	// Logging
	Log LogConfig `yaml:"log" mapstructure:"log"`
}

type ScanConfig struct {
	AssetDir        string   `yaml:"asset_dir" mapstructure:"asset_dir"`               // Required directory under the project root
	SceneExtensions []string `yaml:"scene_extensions" mapstructure:"scene_extensions"` // Scene file extensions
	ScriptExtension string   `yaml:"script_extension" mapstructure:"script_extension"` // Script source extension
	MetaExtension   string   `yaml:"meta_extension" mapstructure:"meta_extension"`     // Sidecar metadata extension
	Workers         int      `yaml:"workers" mapstructure:"workers"`                   // 0 = one per CPU
}

type ScriptsConfig struct {
	ReservedPrefix      string   `yaml:"reserved_prefix" mapstructure:"reserved_prefix"` // Empty selects "m_"
	Accessibility       []string `yaml:"accessibility" mapstructure:"accessibility"`
	SerializeAttributes []string `yaml:"serialize_attributes" mapstructure:"serialize_attributes"`
}

type OutputConfig struct {
	Indent        string `yaml:"indent" mapstructure:"indent"`
	DumpExtension string `yaml:"dump_extension" mapstructure:"dump_extension"`
	ReportName    string `yaml:"report_name" mapstructure:"report_name"`
}

type CacheConfig struct {
	Path string `yaml:"path" mapstructure:"path"` // bbolt file; empty disables persistence
}

type LogConfig struct {
	Level string `yaml:"level" mapstructure:"level"`
	JSON  bool   `yaml:"json" mapstructure:"json"`
	File  string `yaml:"file" mapstructure:"file"`
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Scan: ScanConfig{
			AssetDir:        "Assets",
			SceneExtensions: []string{".unity"},
			ScriptExtension: ".cs",
			MetaExtension:   ".meta",
			Workers:         0,
		},
		Scripts: ScriptsConfig{
			ReservedPrefix:      "m_",
			Accessibility:       []string{"public"},
			SerializeAttributes: []string{"SerializeField"},
		},
		Output: OutputConfig{
			Indent:        "  ",
			DumpExtension: ".txt",
			ReportName:    "UnusedScripts.csv",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from file
func Load(path string) (*Config, error) {
	// Load .env files first (in order of precedence)
	loadEnvFiles()

	v := viper.New()
	v.SetConfigType("yaml")

	cfg := Default()
	setDefaults(v, cfg)

	// Load from environment variables
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Try to find config file
	if path != "" {
		v.SetConfigFile(path)
	} else {
		// Search for config in standard locations
		v.SetConfigName("config")
		v.AddConfigPath(".sceneaudit")
		v.AddConfigPath(".")
		homeDir, _ := os.UserHomeDir()
		v.AddConfigPath(filepath.Join(homeDir, ".sceneaudit"))
	}

	// Read config file if it exists
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	// Unmarshal into struct
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyEnvOverrides(cfg)

	return cfg, nil
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("scan.asset_dir", cfg.Scan.AssetDir)
	v.SetDefault("scan.scene_extensions", cfg.Scan.SceneExtensions)
	v.SetDefault("scan.script_extension", cfg.Scan.ScriptExtension)
	v.SetDefault("scan.meta_extension", cfg.Scan.MetaExtension)
	v.SetDefault("scan.workers", cfg.Scan.Workers)
	v.SetDefault("scripts.reserved_prefix", cfg.Scripts.ReservedPrefix)
	v.SetDefault("scripts.accessibility", cfg.Scripts.Accessibility)
	v.SetDefault("scripts.serialize_attributes", cfg.Scripts.SerializeAttributes)
	v.SetDefault("output.indent", cfg.Output.Indent)
	v.SetDefault("output.dump_extension", cfg.Output.DumpExtension)
	v.SetDefault("output.report_name", cfg.Output.ReportName)
	v.SetDefault("cache.path", cfg.Cache.Path)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.json", cfg.Log.JSON)
	v.SetDefault("log.file", cfg.Log.File)
}

// loadEnvFiles loads .env files in order of precedence
func loadEnvFiles() {
	envFiles := []string{
		".env.local", // Local overrides (highest precedence)
		".env",       // Main environment file
	}

	for _, file := range envFiles {
		if _, err := os.Stat(file); err == nil {
			// godotenv never overwrites variables that are already set,
			// so earlier files win.
			_ = godotenv.Load(file)
		}
	}
}

// applyEnvOverrides applies the short-form environment variables that
// predate the prefixed ones.
func applyEnvOverrides(cfg *Config) {
	if workers := os.Getenv("SCENEAUDIT_WORKERS"); workers != "" {
		if n, err := strconv.Atoi(workers); err == nil {
			cfg.Scan.Workers = n
		}
	}
	if level := os.Getenv("SCENEAUDIT_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if path := os.Getenv("SCENEAUDIT_CACHE"); path != "" {
		cfg.Cache.Path = path
	}
}
