// Package ignore implements the host's ignore-rule evaluation: a
// git-wildmatch pattern set plus language-specific hidden/build-directory
// rules, and an optional "unsupported file" filter keyed by a language's
// source filename globs.
package ignore

import (
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// hiddenDirs lists build/artifact directory names considered
// language-hidden regardless of the configured pattern set, pooled
// across common languages.
var hiddenDirs = map[string]bool{
	"target":             true, // JVM, Rust
	"build":              true, // JVM, JS/TS
	"bin":                true, // JVM
	"out":                true, // JVM
	"classes":            true, // JVM
	"dist":               true, // JS/TS
	"lib":                true, // JVM
	"node_modules":       true, // JS/TS
	"coverage":           true, // JS/TS
	".build":             true, // Swift
	".swiftpm":           true, // Swift
	".terraform":         true, // Terraform
	"terraform.tfstate.d": true, // Terraform
}

// Spec evaluates whether a project-relative path should be excluded from
// host operations.
type Spec struct {
	patterns             []string
	ignoreUnsupported    bool
	sourceGlobs          []string
}

// New builds a Spec from the configured git-wildmatch ignore patterns.
// When ignoreUnsupportedFiles is true, a path whose filename does not
// match any of sourceGlobs is also ignored (the "active language's
// source filename matcher" rule).
func New(patterns []string, ignoreUnsupportedFiles bool, sourceGlobs []string) *Spec {
	return &Spec{patterns: patterns, ignoreUnsupported: ignoreUnsupportedFiles, sourceGlobs: sourceGlobs}
}

// IsIgnored reports whether relativePath (slash-separated, project-root
// relative) is ignored.
func (s *Spec) IsIgnored(relativePath string) bool {
	relativePath = filepathToSlash(relativePath)

	for _, comp := range strings.Split(relativePath, "/") {
		if comp == "" {
			continue
		}
		if strings.HasPrefix(comp, ".") && comp != "." && comp != ".." {
			return true
		}
		if hiddenDirs[comp] {
			return true
		}
	}

	for _, pat := range s.patterns {
		if matched, _ := doublestar.Match(pat, relativePath); matched {
			return true
		}
		// Also match the pattern against each path prefix, so a
		// directory-only pattern like "vendor" excludes everything
		// beneath it, matching git's directory-ignore semantics.
		if matched, _ := doublestar.Match(strings.TrimSuffix(pat, "/")+"/**", relativePath); matched {
			return true
		}
	}

	if s.ignoreUnsupported && len(s.sourceGlobs) > 0 {
		name := path.Base(relativePath)
		matchedAny := false
		for _, g := range s.sourceGlobs {
			if matched, _ := doublestar.Match(g, name); matched {
				matchedAny = true
				break
			}
		}
		if !matchedAny {
			return true
		}
	}

	return false
}

func filepathToSlash(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}
