// Package config loads the deckmirror CLI configuration.
//
// Configuration is written in CUE and unified with the embedded #Config
// schema, which supplies defaults and rejects unknown fields:
//
//	log_level: "debug"
//	journal:   "deckmirror.db"
//	scenarios: ["internal/harness/testdata/scenarios/intro_ink.yaml"]
package config

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

//go:embed schema.cue
var schemaCUE string

// DefaultFile is the config file looked up in the working directory.
const DefaultFile = "deckmirror.cue"

// Config is the decoded configuration.
type Config struct {
	LogLevel  string   `json:"log_level"`
	Journal   string   `json:"journal"`
	Scenarios []string `json:"scenarios"`
	GoldenDir string   `json:"golden_dir"`
	Parallel  int      `json:"parallel"`

	// Dir is the directory relative paths resolve against.
	Dir string `json:"-"`
}

// Default returns the schema defaults.
func Default() *Config {
	cfg, err := Parse([]byte("{}"), "")
	if err != nil {
		panic(fmt.Sprintf("config: embedded schema: %v", err))
	}
	return cfg
}

// Load reads and validates a CUE config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err := Parse(data, path)
	if err != nil {
		return nil, err
	}
	cfg.Dir = filepath.Dir(path)
	return cfg, nil
}

// LoadOptional loads path, or DefaultFile when path is empty. A missing
// DefaultFile yields Default; a missing explicit path is an error.
func LoadOptional(path string) (*Config, error) {
	if path != "" {
		return Load(path)
	}
	if _, err := os.Stat(DefaultFile); os.IsNotExist(err) {
		return Default(), nil
	}
	return Load(DefaultFile)
}

// Parse unifies src with the schema. filename only labels error positions.
func Parse(src []byte, filename string) (*Config, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("building schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))

	var opts []cue.BuildOption
	if filename != "" {
		opts = append(opts, cue.Filename(filename))
	}
	v := ctx.CompileBytes(src, opts...)
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	unified := def.Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	var cfg Config
	if err := unified.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if cfg.Scenarios == nil {
		cfg.Scenarios = []string{}
	}
	return &cfg, nil
}

// SlogLevel maps LogLevel to a slog level.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Resolve makes a relative path relative to Dir.
func (c *Config) Resolve(path string) string {
	if path == "" || filepath.IsAbs(path) || c.Dir == "" {
		return path
	}
	return filepath.Join(c.Dir, path)
}

// ScenarioPaths returns Scenarios resolved against Dir.
func (c *Config) ScenarioPaths() []string {
	out := make([]string, len(c.Scenarios))
	for i, p := range c.Scenarios {
		out[i] = c.Resolve(p)
	}
	return out
}
