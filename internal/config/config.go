// Package config loads project configuration for the CLI.
//
// Settings come from four layers, lowest to highest precedence:
// built-in defaults, an alectryon.yaml project file discovered upward
// from the working directory, ALECTRYON_-prefixed environment
// variables, and explicitly set command line flags.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// maxUpwardSearchLevels limits how far up the directory tree to search
// for a project file.
const maxUpwardSearchLevels = 10

// Default configuration values.
const (
	DefaultHTMLDialect       = "html5"
	DefaultWebpageStyle      = "centered"
	DefaultCacheCompression  = "none"
	DefaultLongLineThreshold = 72
)

var configNames = []string{"alectryon.yaml", "alectryon.yml"}

// Config holds every project-level setting.
type Config struct {
	ProjectRoot string `koanf:"-"`
	ConfigFile  string `koanf:"-"`

	CacheDirectory    string   `koanf:"cache_directory"`
	CacheCompression  string   `koanf:"cache_compression"`
	HTMLDialect       string   `koanf:"html_dialect"`
	HTMLMinification  bool     `koanf:"html_minification"`
	LongLineThreshold int      `koanf:"long_line_threshold"`
	WebpageStyle      string   `koanf:"webpage_style"`
	NoHeader          bool     `koanf:"no_header"`
	NoVersionNumbers  bool     `koanf:"no_version_numbers"`
	ProverBin         string   `koanf:"prover_bin"`
	ProverArgs        []string `koanf:"prover_args"`
}

func configIn(dir string) string {
	for _, name := range configNames {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

// findProjectConfig searches upward from startDir for a project file.
// Returns empty string if none is found within maxUpwardSearchLevels.
func findProjectConfig(startDir string) string {
	dir := startDir
	for i := 0; i < maxUpwardSearchLevels; i++ {
		if found := configIn(dir); found != "" {
			return found
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// Load builds the configuration. cfgFile pins an explicit project file;
// flags may be nil when no command line is involved.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"cache_directory":     "",
		"cache_compression":   DefaultCacheCompression,
		"html_dialect":        DefaultHTMLDialect,
		"html_minification":   false,
		"long_line_threshold": DefaultLongLineThreshold,
		"webpage_style":       DefaultWebpageStyle,
		"no_header":           false,
		"no_version_numbers":  false,
		"prover_bin":          "",
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Project file
	if cfgFile == "" {
		if cwd, err := os.Getwd(); err == nil {
			cfgFile = findProjectConfig(cwd)
		}
	}
	if cfgFile != "" {
		if err := k.Load(file.Provider(cfgFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", cfgFile, err)
		}
	}

	// 3. Environment variables: ALECTRYON_CACHE_DIRECTORY -> cache_directory
	if err := k.Load(env.Provider("ALECTRYON_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "ALECTRYON_"))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags, only those explicitly set
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			key := strings.ReplaceAll(f.Name, "-", "_")
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	cfg.ConfigFile = cfgFile
	if cfgFile != "" {
		if abs, err := filepath.Abs(cfgFile); err == nil {
			cfg.ProjectRoot = filepath.Dir(abs)
		}
	}
	if cfg.ProjectRoot == "" {
		cwd, _ := os.Getwd()
		if cwd == "" {
			cwd = "."
		}
		cfg.ProjectRoot = cwd
	}

	// A relative cache directory anchors at the project root, so runs
	// from subdirectories share the cache.
	if cfg.CacheDirectory != "" && !filepath.IsAbs(cfg.CacheDirectory) {
		cfg.CacheDirectory = filepath.Join(cfg.ProjectRoot, cfg.CacheDirectory)
	}
	return &cfg, nil
}
