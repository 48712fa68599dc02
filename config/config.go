// Package config loads and defaults per-project configuration: the
// project.yml file the host reads at startup, and the per-language
// ServerCommand table describing how to launch a language server.
//
// The overlay pattern (defaults, then apply non-zero fields from the
// loaded file) mirrors the Config.Apply/NewDefaultConfig tolerant
// defaulting style used by Go language-server implementations of this
// era.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/solidlsp/solidlsp/internal/lsperr"
)

// DefaultToolTimeout is the default overall tool invocation timeout
//; configurations below MinToolTimeout are rejected.
const DefaultToolTimeout = 240 * time.Second

// MinToolTimeout is the smallest tool timeout LoadProjectConfig accepts.
const MinToolTimeout = 10 * time.Second

// ConfigDirName is the per-project directory holding project.yml, the
// document-symbol cache and memory files.
const ConfigDirName = ".solidlsp"

// ProjectConfig is the host's view of a project.
type ProjectConfig struct {
	Language                  string                 `yaml:"language"`
	IgnoredPaths              []string               `yaml:"ignored_paths"`
	IgnoreAllFilesInGitignore bool                   `yaml:"ignore_all_files_in_gitignore"`
	ReadOnly                  bool                   `yaml:"read_only"`
	ToolTimeoutSeconds        int                    `yaml:"tool_timeout_seconds"`
	DisableFileWatch          bool                   `yaml:"disable_file_watch"`
	InitializationOptions     map[string]interface{} `yaml:"initialization_options"`

	// Root is not read from YAML; it is set by LoadProjectConfig/Discover
	// to the resolved project root.
	Root string `yaml:"-"`
}

// ToolTimeout returns the configured tool timeout, defaulted when unset.
func (c ProjectConfig) ToolTimeout() time.Duration {
	if c.ToolTimeoutSeconds <= 0 {
		return DefaultToolTimeout
	}
	return time.Duration(c.ToolTimeoutSeconds) * time.Second
}

// Validate enforces the tool-timeout floor, rejecting a configured
// tool_timeout_seconds too small for any LSP request to plausibly
// complete beneath it.
func (c ProjectConfig) Validate() error {
	if c.ToolTimeoutSeconds != 0 && time.Duration(c.ToolTimeoutSeconds)*time.Second < MinToolTimeout {
		return &lsperr.ConfigError{Reason: fmt.Sprintf("tool_timeout_seconds %d is below the minimum of %s", c.ToolTimeoutSeconds, MinToolTimeout)}
	}
	return nil
}

// projectFilePath returns <root>/.solidlsp/project.yml.
func projectFilePath(root string) string {
	return filepath.Join(root, ConfigDirName, "project.yml")
}

// CachePath returns the document-symbol cache file for a given language.
func CachePath(root, languageID string) string {
	return filepath.Join(root, ConfigDirName, "cache", languageID, "document_symbols_cache_v1.gob")
}

// MemoryPath returns the path of a named memory file.
func MemoryPath(root, name string) string {
	return filepath.Join(root, ConfigDirName, "memories", name+".md")
}

// LoadProjectConfig reads <root>/.solidlsp/project.yml. A missing file is
// not an error: a zero-value, defaulted config is returned instead,
// rather than failing hard on first run. A present-but-malformed file is
// a ConfigError.
func LoadProjectConfig(root string) (ProjectConfig, error) {
	cfg := ProjectConfig{Root: root}

	data, err := os.ReadFile(projectFilePath(root))
	if err != nil {
		if os.IsNotExist(err) {
			cfg.Language = detectDominantLanguage(root)
			return cfg, nil
		}
		return cfg, &lsperr.ConfigError{Reason: fmt.Sprintf("reading project.yml: %v", err)}
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, &lsperr.ConfigError{Reason: fmt.Sprintf("parsing project.yml: %v", err)}
	}
	cfg.Root = root
	if cfg.Language == "" {
		cfg.Language = detectDominantLanguage(root)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// DiscoverProjectRoot walks upward from startDir looking for a
// .solidlsp/project.yml marker, falling back to startDir itself, as given
// and without logging, when none is found anywhere above it;
// LoadProjectConfig then returns a defaulted config for that root.
func DiscoverProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(projectFilePath(dir)); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return startDir, nil
		}
		dir = parent
	}
}

// languageExtensions maps a handful of common source extensions to a
// language id, used only to default ProjectConfig.Language when
// project.yml is absent or silent on the field.
var languageExtensions = map[string]string{
	".go":   "go",
	".py":   "python",
	".ts":   "typescript",
	".tsx":  "typescript",
	".js":   "javascript",
	".jsx":  "javascript",
	".java": "java",
	".rs":   "rust",
	".rb":   "ruby",
	".cs":   "csharp",
	".cpp":  "cpp",
	".c":    "c",
	".swift": "swift",
	".kt":   "kotlin",
}

func detectDominantLanguage(root string) string {
	counts := make(map[string]int)
	_ = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil || info == nil || info.IsDir() {
			return nil
		}
		if lang, ok := languageExtensions[filepath.Ext(path)]; ok {
			counts[lang]++
		}
		return nil
	})
	best, bestCount := "", 0
	for lang, n := range counts {
		if n > bestCount {
			best, bestCount = lang, n
		}
	}
	return best
}
