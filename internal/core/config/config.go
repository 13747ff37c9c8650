package config

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Version       int                 `toml:"version"`
	Scan          Scan                `toml:"scan"`
	Languages     map[string]Language `toml:"languages"`
	Exclude       Exclude             `toml:"exclude"`
	Tests         Tests               `toml:"tests"`
	Impact        Impact              `toml:"impact"`
	Query         Query               `toml:"query"`
	Snapshot      Snapshot            `toml:"snapshot"`
	Observability Observability       `toml:"observability"`
}

type Scan struct {
	// Mode selects the parser variant: "ast" or "heuristic".
	Mode        string  `toml:"mode"`
	Concurrency int     `toml:"concurrency"`
	MaxFileSize int64   `toml:"max_file_size"`
	ReadRate    float64 `toml:"read_rate"` // file reads per second, 0 = unthrottled
	ReadBurst   int     `toml:"read_burst"`
}

type Language struct {
	Enabled    *bool    `toml:"enabled"`
	Extensions []string `toml:"extensions"`
}

type Exclude struct {
	Dirs  []string `toml:"dirs"`
	Files []string `toml:"files"`
}

type Tests struct {
	FileSuffixes []string `toml:"file_suffixes"`
	FilePrefixes []string `toml:"file_prefixes"`
	NamePrefixes []string `toml:"name_prefixes"`
}

type Impact struct {
	MaxDepth    int           `toml:"max_depth"`
	MaxReach    int           `toml:"max_reach"`    // reachable-set size below which risk can be LOW
	MinCoverage float64       `toml:"min_coverage"` // coverage ratio at or above which risk can be LOW
	Timeout     time.Duration `toml:"timeout"`
}

type Query struct {
	TestDepth  int           `toml:"test_depth"` // transitive depth for tests-for traversal
	MaxResults int           `toml:"max_results"`
	Timeout    time.Duration `toml:"timeout"`
}

type Snapshot struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

type Observability struct {
	MetricsAddr  string `toml:"metrics_addr"`
	OTLPEndpoint string `toml:"otlp_endpoint"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, err
	}

	ApplyDefaults(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a ready-to-use configuration without reading any file.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

func ApplyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}
	if cfg.Scan.Mode == "" {
		cfg.Scan.Mode = "ast"
	}
	if cfg.Scan.Concurrency <= 0 {
		cfg.Scan.Concurrency = runtime.NumCPU()
	}
	if cfg.Scan.MaxFileSize <= 0 {
		cfg.Scan.MaxFileSize = 2 << 20 // 2 MiB
	}
	if cfg.Scan.ReadBurst <= 0 {
		cfg.Scan.ReadBurst = 32
	}

	if len(cfg.Exclude.Dirs) == 0 {
		cfg.Exclude.Dirs = []string{
			".git", "node_modules", "vendor", "dist", "build",
			"__pycache__", ".venv", "target",
		}
	}

	if len(cfg.Tests.FileSuffixes) == 0 {
		cfg.Tests.FileSuffixes = []string{"_test.go", ".test.js", ".test.ts", ".spec.js", ".spec.ts", "_test.py"}
	}
	if len(cfg.Tests.FilePrefixes) == 0 {
		cfg.Tests.FilePrefixes = []string{"test_"}
	}
	if len(cfg.Tests.NamePrefixes) == 0 {
		cfg.Tests.NamePrefixes = []string{"Test", "test_"}
	}

	if cfg.Impact.MaxDepth <= 0 {
		cfg.Impact.MaxDepth = 10
	}
	if cfg.Impact.MaxReach <= 0 {
		cfg.Impact.MaxReach = 10
	}
	if cfg.Impact.MinCoverage <= 0 {
		cfg.Impact.MinCoverage = 0.5
	}
	if cfg.Impact.Timeout <= 0 {
		cfg.Impact.Timeout = 10 * time.Second
	}

	if cfg.Query.TestDepth <= 0 {
		cfg.Query.TestDepth = 3
	}
	if cfg.Query.MaxResults <= 0 {
		cfg.Query.MaxResults = 200
	}
	if cfg.Query.Timeout <= 0 {
		cfg.Query.Timeout = 10 * time.Second
	}

	if cfg.Snapshot.Path == "" {
		cfg.Snapshot.Path = ".codegraph/snapshots.db"
	}
}

func Validate(cfg *Config) error {
	switch cfg.Scan.Mode {
	case "ast", "heuristic":
	default:
		return fmt.Errorf("scan.mode must be \"ast\" or \"heuristic\", got %q", cfg.Scan.Mode)
	}
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported config version %d", cfg.Version)
	}
	if cfg.Impact.MinCoverage > 1 {
		return fmt.Errorf("impact.min_coverage must be in (0, 1], got %v", cfg.Impact.MinCoverage)
	}
	for lang, spec := range cfg.Languages {
		for _, ext := range spec.Extensions {
			if !strings.HasPrefix(ext, ".") {
				return fmt.Errorf("languages.%s extension %q must start with a dot", lang, ext)
			}
		}
	}
	return nil
}

// LanguageEnabled reports whether a language participates in scans.
// Languages absent from the config are enabled by default.
func (c *Config) LanguageEnabled(lang string) bool {
	spec, ok := c.Languages[lang]
	if !ok || spec.Enabled == nil {
		return true
	}
	return *spec.Enabled
}
