package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/viper"

	"apidoc/internal/inherit"
	"apidoc/internal/metadata"
	"apidoc/internal/slogutil"
)

const (
	// CurrentVersion is the config schema version written by Save.
	CurrentVersion = 1
	dirName        = ".apidoc"
	fileName       = "config.json"
	envPrefix      = "APIDOC"
)

// Config is the apidoc configuration, read from <root>/.apidoc/config.json
// with APIDOC_* environment overrides (APIDOC_LOGGING_LEVEL=debug).
type Config struct {
	Version int `json:"version" mapstructure:"version"`

	// Inputs are descriptor files or globs, relative to the project root.
	Inputs []string `json:"inputs" mapstructure:"inputs"`
	// DocFiles are XML documentation files checked by `apidoc check`.
	DocFiles []string `json:"docFiles" mapstructure:"docFiles"`

	MinAccessibility   string   `json:"minAccessibility" mapstructure:"minAccessibility"`
	InheritancePolicy  string   `json:"inheritancePolicy" mapstructure:"inheritancePolicy"`
	ExcludedAssemblies []string `json:"excludedAssemblies" mapstructure:"excludedAssemblies"`
	ExcludedNamespaces []string `json:"excludedNamespaces" mapstructure:"excludedNamespaces"`
	RootTypes          []string `json:"rootTypes" mapstructure:"rootTypes"`
	// Workers bounds parallelism; 0 means one per CPU.
	Workers int `json:"workers" mapstructure:"workers"`

	Storage StorageConfig `json:"storage" mapstructure:"storage"`
	Export  ExportConfig  `json:"export" mapstructure:"export"`
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`
}

// StorageConfig controls registry persistence.
type StorageConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Path    string `json:"path" mapstructure:"path"` // relative to the project root
	// KeepRuns is how many stored registries survive pruning; 0 keeps all.
	KeepRuns int `json:"keepRuns" mapstructure:"keepRuns"`
}

// ExportConfig holds export defaults.
type ExportConfig struct {
	Format   string `json:"format" mapstructure:"format"`
	Compress bool   `json:"compress" mapstructure:"compress"`
	Output   string `json:"output" mapstructure:"output"`
	Declared bool   `json:"declared" mapstructure:"declared"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Format     string `json:"format" mapstructure:"format"` // text | json
	Level      string `json:"level" mapstructure:"level"`
	File       string `json:"file" mapstructure:"file"` // relative to the project root
	MaxSize    string `json:"maxSize" mapstructure:"maxSize"`
	MaxBackups int    `json:"maxBackups" mapstructure:"maxBackups"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		Version:            CurrentVersion,
		Inputs:             []string{"metadata/*.json", "metadata/*.yaml", "metadata/*.toml"},
		DocFiles:           []string{},
		MinAccessibility:   string(metadata.Public),
		InheritancePolicy:  string(inherit.PolicyNonObject),
		ExcludedAssemblies: []string{},
		ExcludedNamespaces: []string{},
		RootTypes:          append([]string(nil), inherit.DefaultRoots...),
		Workers:            0,
		Storage: StorageConfig{
			Enabled:  true,
			Path:     filepath.Join(dirName, "apidoc.db"),
			KeepRuns: 10,
		},
		Export: ExportConfig{
			Format: "json",
		},
		Logging: LoggingConfig{
			Format:     "text",
			Level:      "info",
			MaxSize:    "10MB",
			MaxBackups: 3,
		},
	}
}

// Path returns the config file location under root.
func Path(root string) string {
	return filepath.Join(root, dirName, fileName)
}

func newViper(root string) *viper.Viper {
	v := viper.New()
	setDefaults(v, DefaultConfig())
	v.SetConfigFile(Path(root))
	v.SetConfigType("json")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// setDefaults registers every key so that partial files and environment
// overrides both merge over the defaults.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("version", d.Version)
	v.SetDefault("inputs", d.Inputs)
	v.SetDefault("docFiles", d.DocFiles)
	v.SetDefault("minAccessibility", d.MinAccessibility)
	v.SetDefault("inheritancePolicy", d.InheritancePolicy)
	v.SetDefault("excludedAssemblies", d.ExcludedAssemblies)
	v.SetDefault("excludedNamespaces", d.ExcludedNamespaces)
	v.SetDefault("rootTypes", d.RootTypes)
	v.SetDefault("workers", d.Workers)
	v.SetDefault("storage.enabled", d.Storage.Enabled)
	v.SetDefault("storage.path", d.Storage.Path)
	v.SetDefault("storage.keepRuns", d.Storage.KeepRuns)
	v.SetDefault("export.format", d.Export.Format)
	v.SetDefault("export.compress", d.Export.Compress)
	v.SetDefault("export.output", d.Export.Output)
	v.SetDefault("export.declared", d.Export.Declared)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.file", d.Logging.File)
	v.SetDefault("logging.maxSize", d.Logging.MaxSize)
	v.SetDefault("logging.maxBackups", d.Logging.MaxBackups)
}

// Keys lists every configuration key in file order.
var Keys = []string{
	"version", "inputs", "docFiles", "minAccessibility", "inheritancePolicy",
	"excludedAssemblies", "excludedNamespaces", "rootTypes", "workers",
	"storage.enabled", "storage.path", "storage.keepRuns",
	"export.format", "export.compress", "export.output", "export.declared",
	"logging.format", "logging.level", "logging.file", "logging.maxSize", "logging.maxBackups",
}

// EnvVar returns the environment variable that overrides key.
func EnvVar(key string) string {
	return envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// EnvOverride is a key currently overridden from the environment.
type EnvOverride struct {
	Key    string `json:"key"`
	EnvVar string `json:"envVar"`
	Value  string `json:"value"`
}

// EnvOverrides returns the overrides present in the environment.
func EnvOverrides() []EnvOverride {
	var out []EnvOverride
	for _, k := range Keys {
		name := EnvVar(k)
		if val, ok := os.LookupEnv(name); ok {
			out = append(out, EnvOverride{Key: k, EnvVar: name, Value: val})
		}
	}
	return out
}

func read(v *viper.Viper) error {
	err := v.ReadInConfig()
	if err == nil {
		return nil
	}
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// LoadConfig reads the configuration for root. A missing file yields the
// defaults, still subject to environment overrides. The result is validated.
func LoadConfig(root string) (*Config, error) {
	v := newViper(root)
	if err := read(v); err != nil {
		return nil, &ConfigError{Field: Path(root), Message: err.Error()}
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, &ConfigError{Field: Path(root), Message: err.Error()}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Set updates one key in the file under root, creating it from the
// defaults when needed, and returns the saved configuration.
func Set(root, key, value string) (*Config, error) {
	v := newViper(root)
	if err := read(v); err != nil {
		return nil, &ConfigError{Field: Path(root), Message: err.Error()}
	}
	if !isKnownKey(v, key) {
		return nil, &ConfigError{Field: key, Message: "unknown configuration key"}
	}
	switch v.Get(key).(type) {
	case []string, []any:
		v.Set(key, splitList(value))
	default:
		v.Set(key, value)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, &ConfigError{Field: key, Message: err.Error()}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Save(root); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func isKnownKey(v *viper.Viper, key string) bool {
	key = strings.ToLower(key)
	for _, k := range v.AllKeys() {
		if k == key {
			return true
		}
	}
	return false
}

func splitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Save writes the configuration to <root>/.apidoc/config.json.
func (c *Config) Save(root string) error {
	if err := os.MkdirAll(filepath.Join(root, dirName), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(Path(root), append(data, '\n'), 0o644)
}

// Validate checks enumerations and ranges.
func (c *Config) Validate() error {
	if c.Version != CurrentVersion {
		return &ConfigError{Field: "version", Message: fmt.Sprintf("unsupported config version %d", c.Version)}
	}
	if _, ok := metadata.ParseAccessibility(c.MinAccessibility); !ok {
		return &ConfigError{Field: "minAccessibility", Message: fmt.Sprintf("unknown accessibility %q", c.MinAccessibility)}
	}
	if _, err := inherit.ParsePolicy(c.InheritancePolicy); err != nil {
		return &ConfigError{Field: "inheritancePolicy", Message: err.Error()}
	}
	if c.Workers < 0 {
		return &ConfigError{Field: "workers", Message: "must not be negative"}
	}
	if c.Storage.Enabled && c.Storage.Path == "" {
		return &ConfigError{Field: "storage.path", Message: "required when storage is enabled"}
	}
	if c.Storage.KeepRuns < 0 {
		return &ConfigError{Field: "storage.keepRuns", Message: "must not be negative"}
	}
	switch c.Export.Format {
	case "text", "json", "toml", "scip":
	default:
		return &ConfigError{Field: "export.format", Message: fmt.Sprintf("unknown format %q", c.Export.Format)}
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return &ConfigError{Field: "logging.format", Message: fmt.Sprintf("unknown format %q", c.Logging.Format)}
	}
	if c.Logging.MaxSize != "" {
		if _, err := slogutil.ParseSize(c.Logging.MaxSize); err != nil {
			return &ConfigError{Field: "logging.maxSize", Message: err.Error()}
		}
	}
	return nil
}

// Policy returns the parsed inheritance policy. Validate has checked it.
func (c *Config) Policy() inherit.Policy {
	p, _ := inherit.ParsePolicy(c.InheritancePolicy)
	return p
}

// MinAccess returns the parsed minimum accessibility. Validate has checked it.
func (c *Config) MinAccess() metadata.Accessibility {
	a, _ := metadata.ParseAccessibility(c.MinAccessibility)
	return a
}

// Exclusions returns the descriptor exclusion lists.
func (c *Config) Exclusions() metadata.Exclusions {
	return metadata.Exclusions{Assemblies: c.ExcludedAssemblies, Namespaces: c.ExcludedNamespaces}
}

// WorkerCount resolves Workers, with 0 meaning one per CPU.
func (c *Config) WorkerCount() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.NumCPU()
}

// StoragePath returns the database path, resolved against root.
func (c *Config) StoragePath(root string) string {
	return resolve(root, c.Storage.Path)
}

// LogOptions builds logger options. levelOverride, when non-empty, wins
// over the configured level.
func (c *Config) LogOptions(root, levelOverride string) slogutil.Options {
	level := c.Logging.Level
	if levelOverride != "" {
		level = levelOverride
	}
	opts := slogutil.Options{
		Format:     c.Logging.Format,
		Level:      slogutil.LevelFromString(level),
		MaxSize:    c.Logging.MaxSize,
		MaxBackups: c.Logging.MaxBackups,
	}
	if c.Logging.File != "" {
		opts.File = resolve(root, c.Logging.File)
	}
	return opts
}

// ResolveInputs expands the input globs under root, in order, without
// duplicates.
func (c *Config) ResolveInputs(root string) ([]string, error) {
	return expand(root, c.Inputs)
}

// ResolveDocFiles expands the doc file globs under root.
func (c *Config) ResolveDocFiles(root string) ([]string, error) {
	return expand(root, c.DocFiles)
}

func expand(root string, patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	for _, p := range patterns {
		matches, err := filepath.Glob(resolve(root, p))
		if err != nil {
			return nil, &ConfigError{Field: "inputs", Message: fmt.Sprintf("bad pattern %q: %v", p, err)}
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				out = append(out, m)
			}
		}
	}
	return out, nil
}

func resolve(root, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}

// ConfigError represents a configuration error.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
