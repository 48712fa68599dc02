package solidlsp

import (
	"context"
	"os"
)

// WriteBackToDisk writes relativePath's open buffer contents to disk,
// overwriting the file. Used by the editor layer's _edited_file_context
// equivalent on a successful edit; it is never called when an edit
// operation returned an error, so the on-disk file stays untouched on
// failure.
func (h *Host) WriteBackToDisk(ctx context.Context, relativePath string) error {
	absPath, err := h.resolveRelative(relativePath)
	if err != nil {
		return err
	}
	h.mu.Lock()
	buf, ok := h.buffers[relativePath]
	h.mu.Unlock()
	if !ok {
		return nil
	}
	return os.WriteFile(absPath, []byte(buf.Contents), 0o644)
}
