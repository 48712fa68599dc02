package solidlsp

import "context"

// RetrieveContentAroundLine is a non-LSP convenience read:
// it returns the lines around line, clamped to the file's bounds, along
// with the 0-based start/end line indices actually returned.
func (h *Host) RetrieveContentAroundLine(ctx context.Context, relativePath string, line, contextBefore, contextAfter int) (content string, startLine, endLine int, err error) {
	buf, err := h.OpenFile(ctx, relativePath)
	if err != nil {
		return "", 0, 0, err
	}
	defer h.CloseFile(ctx, relativePath)

	lines := splitLines(buf.Contents)
	if line < 0 {
		line = 0
	}
	if line >= len(lines) {
		line = len(lines) - 1
	}

	startLine = line - contextBefore
	if startLine < 0 {
		startLine = 0
	}
	endLine = line + contextAfter
	if endLine >= len(lines) {
		endLine = len(lines) - 1
	}

	return linesSlice(lines, startLine, endLine), startLine, endLine, nil
}

func linesSlice(lines []string, start, end int) string {
	if start > end || start < 0 || end >= len(lines) {
		return ""
	}
	out := lines[start]
	for i := start + 1; i <= end; i++ {
		out += "\n" + lines[i]
	}
	return out
}
