package solidlsp

import (
	"encoding/gob"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/solidlsp/solidlsp/protocol"
	"github.com/solidlsp/solidlsp/symbol"
)

// wireSymbol is the document-symbol cache's on-disk shape: identical to
// symbol.Unified except it omits the Parent back-pointer, which would
// otherwise make the tree cyclic under gob encoding. Parent pointers are reconstructed after
// decoding.
type wireSymbol struct {
	Name           string
	Kind           protocol.SymbolKind
	Location       protocol.Location
	SelectionRange protocol.Range
	Body           string
	Children       []wireSymbol
}

func toWire(s *symbol.Unified) wireSymbol {
	w := wireSymbol{Name: s.Name, Kind: s.Kind, Location: s.Location, SelectionRange: s.SelectionRange, Body: s.Body}
	for _, c := range s.Children {
		w.Children = append(w.Children, toWire(c))
	}
	return w
}

func fromWire(w wireSymbol, parent *symbol.Unified) *symbol.Unified {
	s := &symbol.Unified{Name: w.Name, Kind: w.Kind, Location: w.Location, SelectionRange: w.SelectionRange, Body: w.Body, Parent: parent}
	for _, c := range w.Children {
		s.Children = append(s.Children, fromWire(c, s))
	}
	return s
}

// cacheEntry is the value half of the document-symbol cache map:
// content hash plus the normalized tree at that hash.
type cacheEntry struct {
	ContentHash [16]byte
	Roots       []wireSymbol
}

// diskCache implements the persistent (relativePath, includeBody) →
// (contentHash, result) mapping, with a dirty flag so an unchanged
// cache is never rewritten and corruption-tolerant load/save.
type diskCache struct {
	path string

	mu      sync.Mutex
	dirty   bool
	entries map[string]cacheEntry
}

func newDiskCache(path string) *diskCache {
	return &diskCache{path: path, entries: make(map[string]cacheEntry)}
}

// cacheKey uses a "{path}-{include_body}" format so the two
// includeBody views of a file never collide in the same cache entry.
func cacheKey(relativePath string, includeBody bool) string {
	return fmt.Sprintf("%s-%v", relativePath, includeBody)
}

// load reads the cache file, tolerating a missing or corrupted file by
// discarding and starting fresh rather than failing Host.Start.
func (c *diskCache) load(logger *log.Logger) {
	c.mu.Lock()
	defer c.mu.Unlock()

	f, err := os.Open(c.path)
	if err != nil {
		return // missing cache is not an error
	}
	defer f.Close()

	var entries map[string]cacheEntry
	if err := gob.NewDecoder(f).Decode(&entries); err != nil {
		logger.Printf("solidlsp: document symbol cache at %s is corrupted, discarding: %v", c.path, err)
		c.entries = make(map[string]cacheEntry)
		return
	}
	c.entries = entries
}

// save writes the cache file only when entries have changed since the
// last successful save (the dirty flag); it is a no-op otherwise.
func (c *diskCache) save(logger *log.Logger) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.dirty {
		return
	}

	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		logger.Printf("solidlsp: could not create cache directory: %v", err)
		return
	}
	tmp := c.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		logger.Printf("solidlsp: could not create cache file: %v", err)
		return
	}
	if err := gob.NewEncoder(f).Encode(c.entries); err != nil {
		f.Close()
		logger.Printf("solidlsp: could not encode cache: %v", err)
		return
	}
	if err := f.Close(); err != nil {
		logger.Printf("solidlsp: could not close cache file: %v", err)
		return
	}
	if err := os.Rename(tmp, c.path); err != nil {
		logger.Printf("solidlsp: could not rename cache file into place: %v", err)
		return
	}
	c.dirty = false
}

// get looks up a cached result; ok is false on a miss or a content-hash
// mismatch.
func (c *diskCache) get(relativePath string, includeBody bool, currentHash [16]byte) (roots []*symbol.Unified, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, found := c.entries[cacheKey(relativePath, includeBody)]
	if !found || entry.ContentHash != currentHash {
		return nil, false
	}
	for _, w := range entry.Roots {
		roots = append(roots, fromWire(w, nil))
	}
	return roots, true
}

// put stores a result, marking the cache dirty.
func (c *diskCache) put(relativePath string, includeBody bool, hash [16]byte, roots []*symbol.Unified) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var wireRoots []wireSymbol
	for _, r := range roots {
		wireRoots = append(wireRoots, toWire(r))
	}
	c.entries[cacheKey(relativePath, includeBody)] = cacheEntry{ContentHash: hash, Roots: wireRoots}
	c.dirty = true
}
