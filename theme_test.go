package livemd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want lipgloss.Color
	}{
		{"#89b4fa", lipgloss.Color("#89b4fa")},
		{"#ABCDEF", lipgloss.Color("#ABCDEF")},
		{"red", lipgloss.Color("1")},
		{"White", lipgloss.Color("15")},
		{"dark_grey", lipgloss.Color("8")},
		{"#xyzxyz", lipgloss.Color("15")},
		{"#fff", lipgloss.Color("15")},
		{"nonsense", lipgloss.Color("15")},
		{"", lipgloss.Color("15")},
	}
	for _, tt := range tests {
		if got := ParseColor(tt.in); got != tt.want {
			t.Errorf("ParseColor(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestHeadingColorClamps(t *testing.T) {
	theme := NewTheme("test", ThemeSpec{Heading: []string{"red", "green", "blue"}})
	if got := theme.HeadingColor(2); got != lipgloss.Color("2") {
		t.Fatalf("level 2 = %q", got)
	}
	if got := theme.HeadingColor(7); got != lipgloss.Color("4") {
		t.Fatalf("level 7 should clamp to the last color, got %q", got)
	}
	if got := theme.HeadingColor(0); got != lipgloss.Color("1") {
		t.Fatalf("level 0 should clamp to the first color, got %q", got)
	}
}

func TestHeadingColorEmptyFallsBackToWhite(t *testing.T) {
	theme := NewTheme("bare", ThemeSpec{})
	if got := theme.HeadingColor(1); got != lipgloss.Color("15") {
		t.Fatalf("empty heading list = %q", got)
	}
}

func TestThemeByName(t *testing.T) {
	if theme, ok := ThemeByName("dark"); !ok || theme.Name() != "dark" {
		t.Fatalf("dark lookup: %v %v", theme, ok)
	}
	if theme, ok := ThemeByName(" Light "); !ok || theme.Name() != "light" {
		t.Fatalf("trimmed case-insensitive lookup failed")
	}
	if theme, ok := ThemeByName(""); !ok || theme.Name() != "dark" {
		t.Fatalf("empty name should resolve to dark")
	}
	if _, ok := ThemeByName("neon"); ok {
		t.Fatalf("unknown theme should not resolve")
	}
}

func TestAvailableThemesSorted(t *testing.T) {
	names := AvailableThemes()
	want := []string{"dark", "light", "mono"}
	if len(names) != len(want) {
		t.Fatalf("themes = %v", names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("themes = %v, want %v", names, want)
		}
	}
}

func TestLoadThemeSingleHeading(t *testing.T) {
	path := writeTheme(t, "ocean.json", `{"heading": "#123456", "bold": "red"}`)
	theme, err := LoadTheme(path)
	if err != nil {
		t.Fatalf("load theme: %v", err)
	}
	if theme.Name() != "ocean" {
		t.Fatalf("name = %q", theme.Name())
	}
	if got := theme.HeadingColor(4); got != lipgloss.Color("#123456") {
		t.Fatalf("heading = %q", got)
	}
	if got := theme.Bold(); got != lipgloss.Color("1") {
		t.Fatalf("bold = %q", got)
	}
}

func TestLoadThemeHeadingList(t *testing.T) {
	path := writeTheme(t, "levels.json", `{"heading": ["#111111", "#222222"]}`)
	theme, err := LoadTheme(path)
	if err != nil {
		t.Fatalf("load theme: %v", err)
	}
	if got := theme.HeadingColor(1); got != lipgloss.Color("#111111") {
		t.Fatalf("h1 = %q", got)
	}
	if got := theme.HeadingColor(6); got != lipgloss.Color("#222222") {
		t.Fatalf("h6 should clamp to last, got %q", got)
	}
}

func TestLoadThemeInvalid(t *testing.T) {
	if _, err := LoadTheme(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
	path := writeTheme(t, "bad.json", `{"heading": 42}`)
	if _, err := LoadTheme(path); err == nil {
		t.Fatal("expected error for numeric heading")
	}
	path = writeTheme(t, "junk.json", `not json`)
	if _, err := LoadTheme(path); err == nil {
		t.Fatal("expected error for malformed JSON")
	}
}

func writeTheme(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write theme: %v", err)
	}
	return path
}
