package livemd

import (
	"context"
	"io"
	"strings"
	"testing"
)

type captureSink struct {
	segments []string
	closed   bool
}

func (c *captureSink) RenderSegment(segment string) error {
	c.segments = append(c.segments, segment)
	return nil
}

func (c *captureSink) Close() error {
	c.closed = true
	return nil
}

func (c *captureSink) joined() string {
	return strings.Join(c.segments, "")
}

func newCaptureStreamer(cfg Config) (*Streamer, *captureSink) {
	sink := &captureSink{}
	return NewStreamer(io.Discard, cfg, WithSink(sink)), sink
}

func TestStreamTextNoDataLoss(t *testing.T) {
	inputs := []string{
		"plain paragraph\n\nanother one\n",
		"# Title\n\nbody with *emphasis* and `code`\n\n- a\n- b\n",
		"```rust\nfn x(){}\n```\nmore text\n",
		"| a | b |\n| --- | --- |\n| 1 | 2 |\n\ntail\n",
		strings.Repeat("long sentence without breaks ", 40),
	}
	for _, input := range inputs {
		s, sink := newCaptureStreamer(Config{})
		if err := s.StreamText(context.Background(), input); err != nil {
			t.Fatalf("stream %q: %v", input[:20], err)
		}
		if got := sink.joined(); got != input {
			t.Fatalf("data loss:\ngot  %q\nwant %q", got, input)
		}
		if !sink.closed {
			t.Fatal("sink not closed")
		}
	}
}

func TestStreamTextFenceAtomic(t *testing.T) {
	s, sink := newCaptureStreamer(Config{})
	input := "```rust\nfn x(){}\n```\nmore text"
	if err := s.StreamText(context.Background(), input); err != nil {
		t.Fatalf("stream: %v", err)
	}
	for _, seg := range sink.segments {
		opens := strings.Count(seg, "```")
		if opens == 1 {
			t.Fatalf("fence split across segments: %q", seg)
		}
	}
	if sink.segments[0] != "```rust\nfn x(){}\n```\n" {
		t.Fatalf("first segment = %q", sink.segments[0])
	}
}

func TestStreamReaderCarriesSplitRunes(t *testing.T) {
	s, sink := newCaptureStreamer(Config{})
	text := "héllo wörld with ünïcode\n\nsecond\n"
	raw := []byte(text)
	r := iotest{data: raw, step: 3}
	if err := s.StreamReader(context.Background(), &r); err != nil {
		t.Fatalf("stream reader: %v", err)
	}
	if got := sink.joined(); got != text {
		t.Fatalf("split runes corrupted:\ngot  %q\nwant %q", got, text)
	}
	if strings.Contains(sink.joined(), "�") {
		t.Fatal("replacement character emitted for valid input")
	}
}

// iotest yields data in fixed-size steps to simulate a dribbling pipe.
type iotest struct {
	data []byte
	step int
	off  int
}

func (r *iotest) Read(p []byte) (int, error) {
	if r.off >= len(r.data) {
		return 0, io.EOF
	}
	end := r.off + r.step
	if end > len(r.data) {
		end = len(r.data)
	}
	n := copy(p, r.data[r.off:end])
	r.off += n
	return n, nil
}

func TestStreamReaderReplacesInvalidUTF8(t *testing.T) {
	s, sink := newCaptureStreamer(Config{})
	r := iotest{data: []byte("ok \xff\xfe bytes\n\nend\n"), step: 5}
	if err := s.StreamReader(context.Background(), &r); err != nil {
		t.Fatalf("stream reader: %v", err)
	}
	if !strings.Contains(sink.joined(), "�") {
		t.Fatalf("invalid bytes not replaced: %q", sink.joined())
	}
	if !strings.Contains(sink.joined(), "ok ") || !strings.Contains(sink.joined(), "end") {
		t.Fatalf("valid text lost: %q", sink.joined())
	}
}

func TestStreamTextStripsANSI(t *testing.T) {
	s, sink := newCaptureStreamer(Config{})
	if err := s.StreamText(context.Background(), "\x1b[31mred\x1b[0m text\n\n"); err != nil {
		t.Fatalf("stream: %v", err)
	}
	if got := sink.joined(); got != "red text\n\n" {
		t.Fatalf("ansi survived: %q", got)
	}
}

func TestStreamTextBoxStripping(t *testing.T) {
	s, sink := newCaptureStreamer(Config{StripBoxes: true})
	if err := s.StreamText(context.Background(), "+----+\n| hi |\n+----+\n\nafter\n"); err != nil {
		t.Fatalf("stream: %v", err)
	}
	got := sink.joined()
	if !strings.Contains(got, "### hi") {
		t.Fatalf("banner not converted: %q", got)
	}
	if !strings.Contains(got, "after") {
		t.Fatalf("trailing text lost: %q", got)
	}
}

func TestStreamTextWhitespaceOnlyRemainder(t *testing.T) {
	s, sink := newCaptureStreamer(Config{})
	if err := s.StreamText(context.Background(), "   \n "); err != nil {
		t.Fatalf("stream: %v", err)
	}
	if len(sink.segments) != 0 {
		t.Fatalf("whitespace remainder rendered: %q", sink.segments)
	}
	if !sink.closed {
		t.Fatal("sink not closed")
	}
}

func TestStreamQueryRequiresCommand(t *testing.T) {
	s, _ := newCaptureStreamer(Config{})
	if err := s.StreamQuery(context.Background(), "hello"); err == nil {
		t.Fatal("expected error with no LLM command configured")
	}
}

func TestStreamCommand(t *testing.T) {
	s, sink := newCaptureStreamer(Config{})
	err := s.StreamCommand(context.Background(), `printf '# Out\n\ndone\n'`)
	if err != nil {
		t.Fatalf("stream command: %v", err)
	}
	if got := sink.joined(); got != "# Out\n\ndone\n" {
		t.Fatalf("command output = %q", got)
	}
}

func TestStreamCommandEmpty(t *testing.T) {
	s, _ := newCaptureStreamer(Config{})
	if err := s.StreamCommand(context.Background(), "  "); err == nil {
		t.Fatal("expected error for empty command")
	}
}

func TestStreamCommandToleratesExitStatus(t *testing.T) {
	s, sink := newCaptureStreamer(Config{})
	err := s.StreamCommand(context.Background(), `printf 'partial\n'; exit 3`)
	if err != nil {
		t.Fatalf("non-zero exit should not fail: %v", err)
	}
	if !strings.Contains(sink.joined(), "partial") {
		t.Fatalf("partial output lost: %q", sink.joined())
	}
}

func TestStreamFileMissing(t *testing.T) {
	s, _ := newCaptureStreamer(Config{})
	if err := s.StreamFile(context.Background(), "does/not/exist.md"); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestStreamTextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s, _ := newCaptureStreamer(Config{Delay: DefaultDelay})
	input := "intro line\n" + strings.Repeat("sentence one. ", 200)
	if err := s.StreamText(ctx, input); err == nil {
		t.Fatal("expected context error after cancel")
	}
}

func TestShellQuote(t *testing.T) {
	if got := shellQuote("it's"); got != `'it'\''s'` {
		t.Fatalf("shellQuote = %q", got)
	}
	if got := shellQuote("plain"); got != "'plain'" {
		t.Fatalf("shellQuote = %q", got)
	}
}
