package livemd

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const fenceMarker = "```"

// A flushRule inspects the buffer and returns the byte index to cut at, or
// 0 when the rule does not apply. Rules never cut mid-rune.
type flushRule struct {
	name string
	cut  func(buf string, chunkSize int) int
}

// flushRules is evaluated in strict priority order; the first rule that
// returns a cut wins.
var flushRules = []flushRule{
	{name: "code-fence", cut: cutAfterCodeFence},
	{name: "table-row", cut: cutAfterTableRow},
	{name: "paragraph", cut: cutAfterParagraph},
	{name: "size-threshold", cut: cutAtSizeThreshold},
}

// findFlushBoundary returns the end of the longest prefix that is safe to
// hand to the renderer, or 0 when no boundary exists yet.
func findFlushBoundary(buf string, chunkSize int) int {
	if buf == "" {
		return 0
	}
	for _, rule := range flushRules {
		if cut := rule.cut(buf, chunkSize); cut > 0 {
			return cut
		}
	}
	return 0
}

// cutAfterCodeFence cuts immediately after the closing marker of a complete
// fenced block, so a code block is only ever rendered once fully closed.
func cutAfterCodeFence(buf string, _ int) int {
	open := strings.Index(buf, fenceMarker)
	if open < 0 {
		return 0
	}
	rest := buf[open+len(fenceMarker):]
	closing := strings.Index(rest, fenceMarker)
	if closing < 0 {
		return 0
	}
	cut := open + len(fenceMarker) + closing + len(fenceMarker)
	if cut < len(buf) && buf[cut] == '\n' {
		cut++
	}
	return cut
}

// cutAfterTableRow cuts after the current pipe-delimited row once the line
// that follows it is known not to start another row.
func cutAfterTableRow(buf string, _ int) int {
	pipe := strings.IndexByte(buf, '|')
	if pipe < 0 {
		return 0
	}
	rowEnd := strings.IndexByte(buf[pipe:], '\n')
	if rowEnd < 0 {
		return 0
	}
	cut := pipe + rowEnd + 1
	if cut < len(buf) && buf[cut] != '|' {
		return cut
	}
	return 0
}

// cutAfterParagraph cuts after a full run of consecutive newlines,
// preserving intentional blank-line spacing.
func cutAfterParagraph(buf string, _ int) int {
	idx := strings.Index(buf, "\n\n")
	if idx < 0 {
		return 0
	}
	cut := idx + 2
	for cut < len(buf) && buf[cut] == '\n' {
		cut++
	}
	return cut
}

// cutAtSizeThreshold applies once the buffer reaches the configured chunk
// size: prefer a sentence end, then other terminal punctuation before
// whitespace, then a comma, then a dash boundary, then a late whitespace
// boundary, and as a last resort a hard cut at the chunk size.
func cutAtSizeThreshold(buf string, chunkSize int) int {
	if chunkSize <= 0 || len(buf) < chunkSize {
		return 0
	}
	window := buf[:chunkSize]
	if idx := strings.LastIndex(window, ". "); idx >= 0 {
		return idx + 2
	}
	if idx := strings.LastIndexAny(window, ".!?:"); idx >= 0 {
		if r, size := utf8.DecodeRuneInString(buf[idx+1:]); size > 0 && unicode.IsSpace(r) {
			return idx + 1 + size
		}
	}
	if idx := strings.LastIndex(window, ", "); idx >= 0 {
		return idx + 2
	}
	if idx := strings.LastIndex(window, " - "); idx >= 0 {
		return idx + 3
	}
	if idx := strings.LastIndexFunc(window, unicode.IsSpace); idx >= 0 {
		// Only break here when far enough into the chunk to avoid tiny
		// fragments.
		if idx > chunkSize*3/4 {
			_, size := utf8.DecodeRuneInString(buf[idx:])
			cut := idx + size
			for cut < len(buf) && buf[cut] == '\n' {
				cut++
			}
			return cut
		}
	}
	// Hard cut. May split a word, never a rune.
	cut := chunkSize
	for cut > 0 && cut < len(buf) && !utf8.RuneStart(buf[cut]) {
		cut--
	}
	if cut == 0 {
		_, size := utf8.DecodeRuneInString(buf)
		return size
	}
	return cut
}
