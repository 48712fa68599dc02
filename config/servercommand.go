package config

import "time"

// DefaultCrossFileWait is the default cross-file-reference wait window
// most language servers are given before their first
// definition/references call in a session.
const DefaultCrossFileWait = 2 * time.Second

// ServerCommand is the per-language launch descriptor for a language
// server child process.
type ServerCommand struct {
	LanguageID            string
	Command               []string
	Env                    []string
	CrossFileWait          time.Duration
	InitializationOptions  interface{}
	// SourceFileGlobs, when non-empty, is used by the ignore rules
	// (ignore_unsupported_files) to recognize this language's own source
	// files; e.g. []string{"*.go"}.
	SourceFileGlobs []string
}

// crossFileWait returns sc.CrossFileWait, defaulted.
func (sc ServerCommand) crossFileWait() time.Duration {
	if sc.CrossFileWait <= 0 {
		return DefaultCrossFileWait
	}
	return sc.CrossFileWait
}

// Wait is the public accessor for the defaulted cross-file wait, used by
// the host.
func (sc ServerCommand) Wait() time.Duration { return sc.crossFileWait() }

// builtinServerCommands is a small table of defaults for common
// languages; it exists purely so callers and tests don't need to
// construct a ServerCommand by hand. Downloading and installing a
// language server runtime is out of scope here — Command names a
// binary the caller is responsible for having available on PATH.
var builtinServerCommands = map[string]ServerCommand{
	"go": {
		LanguageID:      "go",
		Command:         []string{"gopls", "serve"},
		CrossFileWait:   2 * time.Second,
		SourceFileGlobs: []string{"*.go"},
	},
	"python": {
		LanguageID:      "python",
		Command:         []string{"pyright-langserver", "--stdio"},
		CrossFileWait:   2 * time.Second,
		SourceFileGlobs: []string{"*.py"},
	},
	"typescript": {
		LanguageID:      "typescript",
		Command:         []string{"typescript-language-server", "--stdio"},
		CrossFileWait:   2 * time.Second,
		SourceFileGlobs: []string{"*.ts", "*.tsx", "*.js", "*.jsx"},
	},
	"rust": {
		LanguageID:      "rust",
		Command:         []string{"rust-analyzer"},
		CrossFileWait:   3 * time.Second,
		SourceFileGlobs: []string{"*.rs"},
	},
	"swift": {
		LanguageID:      "swift",
		Command:         []string{"sourcekit-lsp"},
		CrossFileWait:   10 * time.Second,
		SourceFileGlobs: []string{"*.swift"},
	},
}

// DefaultServerCommand returns the built-in ServerCommand for languageID,
// if any is known.
func DefaultServerCommand(languageID string) (ServerCommand, bool) {
	sc, ok := builtinServerCommands[languageID]
	return sc, ok
}
