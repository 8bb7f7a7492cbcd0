package livemd

import "bytes"

// Front matter (YAML "---", TOML "+++", JSON ";;;") at the very start of a
// stream is metadata for other tools, not content, and is withheld from
// rendering. Detection buffers input until the block is provably present or
// provably absent; everything after the closing delimiter passes through
// untouched, as does the whole stream when the opening line is anything
// else.

const frontMatterProbeLimit = 64 * 1024

type frontMatterFilter struct {
	decided bool
	probe   []byte
}

// accept consumes one chunk and returns the bytes cleared for rendering.
// While detection is still pending it returns nil and keeps the chunk.
func (f *frontMatterFilter) accept(chunk []byte) []byte {
	if f.decided || len(chunk) == 0 {
		return chunk
	}
	f.probe = append(f.probe, chunk...)
	if out, ok := f.examine(false); ok {
		return out
	}
	if len(f.probe) > frontMatterProbeLimit {
		return f.release()
	}
	return nil
}

// drain returns whatever is still withheld at end of input. An unclosed
// front matter block is rendered as ordinary text rather than dropped.
func (f *frontMatterFilter) drain() []byte {
	if f.decided || len(f.probe) == 0 {
		return nil
	}
	if out, ok := f.examine(true); ok {
		return out
	}
	return f.release()
}

// examine decides, once enough lines are buffered, whether the probe opens
// with a front matter block. It reports false while more input is needed.
func (f *frontMatterFilter) examine(eof bool) ([]byte, bool) {
	opening, afterOpen, ok := f.line(0, eof)
	if !ok {
		return nil, false
	}
	delim := frontMatterDelimiter(opening)
	if delim == nil {
		return f.release(), true
	}
	second, afterSecond, ok := f.line(afterOpen, eof)
	if !ok {
		return nil, false
	}
	if !looksLikeMetadata(second) {
		return f.release(), true
	}
	for idx := afterSecond; idx <= len(f.probe); {
		line, next, ok := f.line(idx, eof)
		if !ok {
			if eof {
				return f.release(), true
			}
			return nil, false
		}
		if bytes.Equal(bytes.TrimSpace(line), delim) {
			rest := f.probe[next:]
			f.decided = true
			f.probe = nil
			return rest, true
		}
		if next == idx {
			break
		}
		idx = next
		if idx == len(f.probe) && !eof {
			return nil, false
		}
	}
	if eof {
		return f.release(), true
	}
	return nil, false
}

// release gives up on detection and passes the whole probe through.
func (f *frontMatterFilter) release() []byte {
	out := f.probe
	f.decided = true
	f.probe = nil
	return out
}

// line returns the complete line starting at off, without its terminator,
// and the offset just past it. It reports false when the line is still
// incomplete and more input may arrive.
func (f *frontMatterFilter) line(off int, eof bool) ([]byte, int, bool) {
	if off >= len(f.probe) {
		if eof && off == len(f.probe) {
			return nil, off, true
		}
		return nil, 0, false
	}
	i := bytes.IndexByte(f.probe[off:], '\n')
	if i < 0 {
		if !eof {
			return nil, 0, false
		}
		return trimCR(f.probe[off:]), len(f.probe), true
	}
	return trimCR(f.probe[off : off+i]), off + i + 1, true
}

func frontMatterDelimiter(line []byte) []byte {
	trimmed := bytes.TrimSpace(trimBOM(line))
	for _, delim := range [][]byte{[]byte("---"), []byte("+++"), []byte(";;;")} {
		if bytes.Equal(trimmed, delim) {
			return delim
		}
	}
	return nil
}

// looksLikeMetadata reports whether a line plausibly belongs to a metadata
// block: a key-value pair or the start of a JSON document. A blank second
// line means the opening delimiter was a thematic break instead.
func looksLikeMetadata(line []byte) bool {
	trimmed := bytes.TrimSpace(line)
	if len(trimmed) == 0 {
		return false
	}
	if trimmed[0] == '{' || trimmed[0] == '[' {
		return true
	}
	return bytes.ContainsRune(trimmed, ':') || bytes.ContainsRune(trimmed, '=')
}

func trimCR(b []byte) []byte {
	if len(b) > 0 && b[len(b)-1] == '\r' {
		return b[:len(b)-1]
	}
	return b
}

func trimBOM(b []byte) []byte {
	if len(b) >= 3 && b[0] == 0xEF && b[1] == 0xBB && b[2] == 0xBF {
		return b[3:]
	}
	return b
}
