// Package config resolves commitflow settings from layered sources.
// Priority, highest to lowest: flags > environment > local .commitflow.yaml
// in the git root > global ~/.config/commitflow/config.yaml > defaults.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to upper-cased key names for environment lookup.
// Key "generate_count" maps to COMMITFLOW_GENERATE_COUNT.
const EnvPrefix = "COMMITFLOW_"

// Config file locations.
const (
	GlobalConfigDir  = "commitflow"
	GlobalConfigFile = "config.yaml"
	LocalConfigName  = ".commitflow.yaml"
)

// Known configuration keys.
const (
	KeyProvider     = "provider"
	KeyModel        = "model"
	KeyLocale       = "locale"
	KeyCount        = "generate_count"
	KeyStyle        = "commit_style"
	KeyMode         = "commit_mode"
	KeyExclude      = "exclude_files"
	KeyPush         = "push"
	KeyRemote       = "remote"
	KeyChangelog    = "changelog"
	KeyChangelogDir = "changelog_dir"
	KeyCreatePR     = "create_pr"
	KeyNoColor      = "no_color"
)

// Defaults holds the built-in default for every known key.
var Defaults = map[string]string{
	KeyProvider:     "claude",
	KeyModel:        "",
	KeyLocale:       "en",
	KeyCount:        "3",
	KeyStyle:        "general",
	KeyMode:         "auto",
	KeyExclude:      "",
	KeyPush:         "false",
	KeyRemote:       "origin",
	KeyChangelog:    "false",
	KeyChangelogDir: "changelogs",
	KeyCreatePR:     "false",
	KeyNoColor:      "false",
}

// Resolver merges the config layers for a repository.
type Resolver struct {
	globalPath string
	localPath  string
	gitRoot    string
	errWriter  io.Writer

	// Warnings collects non-fatal issues during resolution.
	Warnings []string
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithPaths overrides the global and local config file paths. Useful in
// tests.
func WithPaths(globalPath, localPath string) ResolverOption {
	return func(r *Resolver) {
		r.globalPath = globalPath
		r.localPath = localPath
	}
}

// WithErrWriter sets where warnings are written. Defaults to os.Stderr.
func WithErrWriter(w io.Writer) ResolverOption {
	return func(r *Resolver) {
		r.errWriter = w
	}
}

// NewResolver creates a resolver rooted at the given repository path.
func NewResolver(repoPath string, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		gitRoot:   repoPath,
		errWriter: os.Stderr,
	}
	if repoPath != "" {
		r.localPath = filepath.Join(repoPath, LocalConfigName)
	}
	if home, err := os.UserHomeDir(); err == nil {
		r.globalPath = filepath.Join(home, ".config", GlobalConfigDir, GlobalConfigFile)
	}

	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Resolver) warn(msg string) {
	r.Warnings = append(r.Warnings, msg)
	if r.errWriter != nil {
		fmt.Fprintf(r.errWriter, "Warning: %s\n", msg)
	}
}

// Resolved holds the merged configuration.
type Resolved struct {
	values  map[string]string
	sources map[string]Source
}

// Get returns the value for a key, or empty string if not set.
func (c *Resolved) Get(key string) string {
	return c.values[key]
}

// GetWithSource returns both the value and its source.
func (c *Resolved) GetWithSource(key string) (string, Source) {
	return c.values[key], c.sources[key]
}

// Int returns a key's value as an integer, or the fallback when unset or
// unparsable.
func (c *Resolved) Int(key string, fallback int) int {
	v := c.values[key]
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// Bool returns a key's value as a boolean. Accepts true/false, yes/no, 1/0.
func (c *Resolved) Bool(key string) bool {
	switch strings.ToLower(c.values[key]) {
	case "true", "yes", "1", "on":
		return true
	default:
		return false
	}
}

// List splits a comma-separated key into trimmed entries.
func (c *Resolved) List(key string) []string {
	v := c.values[key]
	if v == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// All returns a copy of all key-value pairs.
func (c *Resolved) All() map[string]string {
	result := make(map[string]string, len(c.values))
	for k, v := range c.values {
		result[k] = v
	}
	return result
}

// Resolve builds the final config by merging all layers.
func (r *Resolver) Resolve() *Resolved {
	cfg := &Resolved{
		values:  make(map[string]string),
		sources: make(map[string]Source),
	}

	for key, value := range Defaults {
		cfg.values[key] = value
		cfg.sources[key] = SourceDefault
	}

	r.applyFile(cfg, r.globalPath, SourceGlobal)
	r.applyFile(cfg, r.localPath, SourceLocal)
	r.applyEnv(cfg)

	return cfg
}

// ResolveWithFlags resolves config and applies flag overrides on top.
// Empty flag values are ignored.
func (r *Resolver) ResolveWithFlags(flags map[string]string) *Resolved {
	cfg := r.Resolve()

	for key, value := range flags {
		if value != "" {
			cfg.values[key] = value
			cfg.sources[key] = SourceFlag
		}
	}

	return cfg
}

func (r *Resolver) applyFile(cfg *Resolved, path string, source Source) {
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return // File doesn't exist - not an error
	}

	var parsed map[string]interface{}
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		r.warn(fmt.Sprintf("could not parse %s: %v", path, err))
		return
	}

	for key, value := range parsed {
		if _, known := Defaults[key]; !known {
			r.warn(fmt.Sprintf("unknown key %q in %s", key, path))
			continue
		}
		if strVal := toString(value); strVal != "" {
			cfg.values[key] = strVal
			cfg.sources[key] = source
		}
	}
}

func (r *Resolver) applyEnv(cfg *Resolved) {
	for key := range Defaults {
		envKey := EnvPrefix + strings.ToUpper(strings.ReplaceAll(key, "-", "_"))
		if value := os.Getenv(envKey); value != "" {
			cfg.values[key] = value
			cfg.sources[key] = SourceEnv
		}
	}

	// Standard NO_COLOR is honored regardless of prefix.
	if _, hasNoColor := os.LookupEnv("NO_COLOR"); hasNoColor {
		cfg.values[KeyNoColor] = "true"
		cfg.sources[KeyNoColor] = SourceEnv
	}
}

// GitRoot returns the repository root the resolver was created for.
func (r *Resolver) GitRoot() string {
	return r.gitRoot
}

// GlobalPath returns the path to the global config file.
func (r *Resolver) GlobalPath() string {
	return r.globalPath
}

// LocalPath returns the path to the local config file.
func (r *Resolver) LocalPath() string {
	return r.localPath
}

func toString(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case bool:
		if val {
			return "true"
		}
		return "false"
	case int, int64, float64:
		return fmt.Sprintf("%v", val)
	default:
		return ""
	}
}

// WriteTemplate writes a commented starter config to the given path,
// creating parent directories as needed. Existing files are not touched.
func WriteTemplate(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config already exists: %s", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	var b strings.Builder
	b.WriteString("# commitflow configuration\n")
	b.WriteString("# Values here are overridden by COMMITFLOW_* environment variables and flags.\n\n")
	for _, key := range []string{
		KeyProvider, KeyModel, KeyLocale, KeyCount, KeyStyle, KeyMode,
		KeyExclude, KeyPush, KeyRemote, KeyChangelog, KeyChangelogDir, KeyCreatePR,
	} {
		b.WriteString(fmt.Sprintf("# %s: %s\n", key, Defaults[key]))
	}

	return os.WriteFile(path, []byte(b.String()), 0o644)
}
