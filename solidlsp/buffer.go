package solidlsp

import (
	"crypto/md5"
	"os"

	"github.com/solidlsp/solidlsp/protocol"
)

// Buffer is the host's in-memory mirror of one open file. It is owned exclusively by the Host and mutated only
// through OpenFile/edit operations.
type Buffer struct {
	URI          protocol.DocumentURI
	RelativePath string
	Contents     string
	Version      int
	LanguageID   string
	RefCount     int
	ContentHash  [16]byte

	// Stale is set by the watcher callback when the file changes on disk
	// outside the host's own edits. OpenFile refreshes a stale buffer
	// (logging a warning) and clears the flag the next time it is opened.
	Stale bool
}

func hashContents(s string) [16]byte {
	return md5.Sum([]byte(s))
}

func newBuffer(uri protocol.DocumentURI, relativePath, languageID, contents string) *Buffer {
	return &Buffer{
		URI:          uri,
		RelativePath: relativePath,
		Contents:     contents,
		Version:      1,
		LanguageID:   languageID,
		RefCount:     1,
		ContentHash:  hashContents(contents),
	}
}

// setContents records a new version of the buffer's contents, incrementing
// Version and recomputing ContentHash. It is the single mutation point
// every edit primitive funnels through, which is what makes invariant 1
// — version strictly increasing per edit — hold by construction.
func (b *Buffer) setContents(contents string) {
	b.Contents = contents
	b.Version++
	b.ContentHash = hashContents(contents)
}

// readFileContents reads a file's bytes from disk as UTF-8 text.
func readFileContents(absPath string) (string, error) {
	data, err := os.ReadFile(absPath)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
