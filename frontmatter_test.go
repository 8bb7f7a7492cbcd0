package livemd

import (
	"context"
	"strings"
	"testing"
)

func TestStreamOmitsFrontMatter(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		contains []string
		omits    []string
	}{
		{
			name:     "yaml",
			src:      "---\ntitle: Post\ndate: 2026-02-09\n---\n\n# Hello\n\nBody.\n",
			contains: []string{"# Hello", "Body."},
			omits:    []string{"title: Post", "date: 2026-02-09"},
		},
		{
			name:     "toml",
			src:      "+++\ntitle = \"Post\"\n+++\n\n# Hello\n",
			contains: []string{"# Hello"},
			omits:    []string{"title = \"Post\""},
		},
		{
			name:     "json",
			src:      ";;;\n{\"title\": \"Post\"}\n;;;\n\n# Hello\n",
			contains: []string{"# Hello"},
			omits:    []string{"\"title\""},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s, sink := newCaptureStreamer(Config{})
			if err := s.StreamText(context.Background(), tc.src); err != nil {
				t.Fatalf("stream: %v", err)
			}
			out := sink.joined()
			for _, want := range tc.contains {
				if !strings.Contains(out, want) {
					t.Fatalf("missing %q in %q", want, out)
				}
			}
			for _, bad := range tc.omits {
				if strings.Contains(out, bad) {
					t.Fatalf("unexpected %q in %q", bad, out)
				}
			}
		})
	}
}

func TestFrontMatterOnlyCheckedAtStart(t *testing.T) {
	s, sink := newCaptureStreamer(Config{})
	src := "# Intro\n\n+++\ntitle = \"Keep me\"\n+++\n\nTail\n"
	if err := s.StreamText(context.Background(), src); err != nil {
		t.Fatalf("stream: %v", err)
	}
	out := sink.joined()
	for _, want := range []string{"# Intro", "title = \"Keep me\"", "Tail"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in %q", want, out)
		}
	}
}

func TestThematicBreakOpeningIsNotFrontMatter(t *testing.T) {
	s, sink := newCaptureStreamer(Config{})
	src := "---\n\nparagraph after a rule\n"
	if err := s.StreamText(context.Background(), src); err != nil {
		t.Fatalf("stream: %v", err)
	}
	if !strings.Contains(sink.joined(), "---") {
		t.Fatalf("rule dropped: %q", sink.joined())
	}
}

func TestUnclosedFrontMatterPassesThrough(t *testing.T) {
	s, sink := newCaptureStreamer(Config{})
	src := "---\ntitle: Post\nno closing delimiter\n"
	if err := s.StreamText(context.Background(), src); err != nil {
		t.Fatalf("stream: %v", err)
	}
	if !strings.Contains(sink.joined(), "title: Post") {
		t.Fatalf("unclosed block dropped: %q", sink.joined())
	}
}

func TestFrontMatterFilterAcrossChunks(t *testing.T) {
	var f frontMatterFilter
	var out []byte
	for _, chunk := range []string{"---\nti", "tle: Post\n--", "-\nbody\n"} {
		out = append(out, f.accept([]byte(chunk))...)
	}
	out = append(out, f.drain()...)
	if string(out) != "body\n" {
		t.Fatalf("chunked filter = %q", out)
	}
}
