package livemd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const colorWhite = lipgloss.Color("15")

// Theme maps semantic style roles to terminal colors. A Theme is immutable
// after construction.
type Theme struct {
	name     string
	headings []lipgloss.Color
	code     lipgloss.Color
	bold     lipgloss.Color
	italic   lipgloss.Color
	link     lipgloss.Color
	list     lipgloss.Color
}

// ThemeSpec declares theme colors as #RRGGBB hex strings or named colors.
// Heading may hold a single entry applied to all levels or one entry per
// level starting at H1.
type ThemeSpec struct {
	Heading []string
	Code    string
	Bold    string
	Italic  string
	Link    string
	List    string
}

// NewTheme builds an immutable Theme from a spec.
func NewTheme(name string, spec ThemeSpec) *Theme {
	headings := make([]lipgloss.Color, 0, len(spec.Heading))
	for _, h := range spec.Heading {
		headings = append(headings, ParseColor(h))
	}
	return &Theme{
		name:     name,
		headings: headings,
		code:     ParseColor(spec.Code),
		bold:     ParseColor(spec.Bold),
		italic:   ParseColor(spec.Italic),
		link:     ParseColor(spec.Link),
		list:     ParseColor(spec.List),
	}
}

// Name returns the theme name.
func (t *Theme) Name() string { return t.name }

// HeadingColor returns the color for a heading level (1-6). Levels beyond
// the configured list reuse the last entry; an empty list falls back to
// white.
func (t *Theme) HeadingColor(level int) lipgloss.Color {
	if len(t.headings) == 0 {
		return colorWhite
	}
	idx := level - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(t.headings) {
		idx = len(t.headings) - 1
	}
	return t.headings[idx]
}

// Code returns the code color.
func (t *Theme) Code() lipgloss.Color { return t.code }

// Bold returns the strong-text color.
func (t *Theme) Bold() lipgloss.Color { return t.bold }

// Italic returns the emphasis color.
func (t *Theme) Italic() lipgloss.Color { return t.italic }

// Link returns the link color.
func (t *Theme) Link() lipgloss.Color { return t.link }

// List returns the list-bullet color.
func (t *Theme) List() lipgloss.Color { return t.list }

var namedColors = map[string]lipgloss.Color{
	"black":     lipgloss.Color("0"),
	"red":       lipgloss.Color("1"),
	"green":     lipgloss.Color("2"),
	"yellow":    lipgloss.Color("3"),
	"blue":      lipgloss.Color("4"),
	"magenta":   lipgloss.Color("5"),
	"cyan":      lipgloss.Color("6"),
	"white":     colorWhite,
	"dark_grey": lipgloss.Color("8"),
	"dark_gray": lipgloss.Color("8"),
	"grey":      lipgloss.Color("7"),
	"gray":      lipgloss.Color("7"),
}

// ParseColor parses a #RRGGBB hex string or a named color. Unrecognized
// values fall back to white.
func ParseColor(s string) lipgloss.Color {
	if len(s) == 7 && s[0] == '#' && isHex(s[1:]) {
		return lipgloss.Color(s)
	}
	if c, ok := namedColors[strings.ToLower(s)]; ok {
		return c
	}
	return colorWhite
}

func isHex(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}

var builtinThemes = map[string]*Theme{
	"dark": NewTheme("dark", ThemeSpec{
		Heading: []string{"#89b4fa"},
		Code:    "#1e1e2e",
		Bold:    "#cdd6f4",
		Italic:  "#f5c2e7",
		Link:    "#a6e3a1",
		List:    "#f9e2af",
	}),
	"light": NewTheme("light", ThemeSpec{
		Heading: []string{"#1e66f5"},
		Code:    "#eff1f5",
		Bold:    "#4c4f69",
		Italic:  "#ea76cb",
		Link:    "#40a02b",
		List:    "#df8e1d",
	}),
	"mono": NewTheme("mono", ThemeSpec{
		Heading: []string{"#4c4f69"},
		Code:    "#dce0e8",
		Bold:    "#4c4f69",
		Italic:  "#4c4f69",
		Link:    "#40a02b",
		List:    "#df8e1d",
	}),
}

// AvailableThemes returns the names of built-in themes.
func AvailableThemes() []string {
	names := make([]string, 0, len(builtinThemes))
	for name := range builtinThemes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ThemeByName returns a built-in theme by name. An empty name resolves to
// the default "dark" theme.
func ThemeByName(name string) (*Theme, bool) {
	if name == "" {
		return builtinThemes["dark"], true
	}
	theme, ok := builtinThemes[strings.ToLower(strings.TrimSpace(name))]
	return theme, ok
}

// DefaultTheme returns the default built-in theme.
func DefaultTheme() *Theme {
	return builtinThemes["dark"]
}

// themeFile mirrors the JSON theme file layout. The heading field accepts a
// single color string or a list of up to six level colors.
type themeFile struct {
	Heading json.RawMessage `json:"heading"`
	Code    string          `json:"code"`
	Bold    string          `json:"bold"`
	Italic  string          `json:"italic"`
	Link    string          `json:"link"`
	List    string          `json:"list"`
}

// LoadTheme reads a theme override from a JSON file.
func LoadTheme(path string) (*Theme, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load theme: %w", err)
	}
	var raw themeFile
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("load theme %s: %w", path, err)
	}
	spec := ThemeSpec{
		Heading: []string{"white"},
		Code:    raw.Code,
		Bold:    raw.Bold,
		Italic:  raw.Italic,
		Link:    raw.Link,
		List:    raw.List,
	}
	if len(raw.Heading) > 0 {
		var single string
		var multi []string
		switch {
		case json.Unmarshal(raw.Heading, &single) == nil:
			spec.Heading = []string{single}
		case json.Unmarshal(raw.Heading, &multi) == nil:
			spec.Heading = multi
		default:
			return nil, fmt.Errorf("load theme %s: heading must be a string or a list of strings", path)
		}
	}
	name := strings.TrimSuffix(strings.ToLower(filepath.Base(path)), ".json")
	return NewTheme(name, spec), nil
}
