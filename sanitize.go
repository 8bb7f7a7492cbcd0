package livemd

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// Box-drawing glyphs removed from lines that are not part of a detected box
// banner. ASCII '+', '-', and '|' are deliberately absent: they are stripped
// only as part of a converted banner, never from ordinary text.
const boxGlyphs = "┏┓┗┛┃━─┌┐└┘│╔╗╚╝═"

const (
	boxTopGlyphs    = "┏┌╔"
	boxBottomGlyphs = "┗└╚"
	boxEdgeGlyphs   = "━─═-+"
	boxSideGlyphs   = "┃│|"
)

// stripANSI removes ANSI escape sequences (CSI, OSC and friends) from text.
func stripANSI(s string) string {
	if strings.IndexByte(s, 0x1b) < 0 {
		return s
	}
	return ansi.Strip(s)
}

// sanitizeBoxes cleans box-drawing noise from text. When convert is true,
// a three-line banner (border, single content line, border) is replaced by
// a blank line, a level-3 heading with the banner's inner text, and another
// blank line. Stray Unicode box glyphs on other lines are always removed;
// ASCII box characters are left alone outside converted banners.
func sanitizeBoxes(text string, convert bool) string {
	if !strings.ContainsAny(text, boxGlyphs) && !(convert && strings.ContainsAny(text, boxEdgeGlyphs)) {
		return text
	}
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for i := 0; i < len(lines); {
		if convert && i+2 < len(lines) &&
			isBoxBorder(lines[i], boxTopGlyphs) &&
			strings.ContainsAny(lines[i+1], boxSideGlyphs) &&
			isBoxBorder(lines[i+2], boxBottomGlyphs) {
			inner := strings.TrimSpace(dropRunes(lines[i+1], boxSideGlyphs))
			if inner != "" {
				out = append(out, "", "### "+inner, "")
			}
			i += 3
			continue
		}
		out = append(out, dropRunes(lines[i], boxGlyphs))
		i++
	}
	return strings.Join(out, "\n")
}

// isBoxBorder reports whether line is a pure border: non-empty and made up
// of only corner, edge, and whitespace runes.
func isBoxBorder(line, corners string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return false
	}
	for _, r := range trimmed {
		if !strings.ContainsRune(corners, r) && !strings.ContainsRune(boxEdgeGlyphs, r) &&
			!strings.ContainsRune(boxGlyphs, r) {
			return false
		}
	}
	return true
}

func dropRunes(s, set string) string {
	if !strings.ContainsAny(s, set) {
		return s
	}
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(set, r) {
			return -1
		}
		return r
	}, s)
}
