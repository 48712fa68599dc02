package solidlsp

import "context"

// LineCount returns the number of lines in relativePath's open buffer.
func (h *Host) LineCount(ctx context.Context, relativePath string) (int, error) {
	buf, err := h.OpenFile(ctx, relativePath)
	if err != nil {
		return 0, err
	}
	defer h.CloseFile(ctx, relativePath)
	return len(splitLines(buf.Contents)), nil
}
