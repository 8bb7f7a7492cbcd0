package livemd

import (
	"context"
	"io"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	// DefaultChunkSize is the buffered length at which the size-threshold
	// boundary rule starts applying.
	DefaultChunkSize = 150
	// DefaultDelay is the pause inserted between flush bursts.
	DefaultDelay = time.Millisecond

	// Flush counts between pacing sleeps. Bulk sources (text, file) flush
	// more between sleeps than live sources (subprocess, query, stdin).
	bulkFlushesPerSleep = 5
	liveFlushesPerSleep = 3

	// textFeedStep is the synthetic chunk size used when streaming an
	// already-complete string, so bulk text still animates.
	textFeedStep = 240

	readBufSize = 4096
)

// Config bundles the immutable parameters of one streaming session.
type Config struct {
	// ChunkSize is the size-threshold for the fallback boundary rule.
	// Zero or negative selects DefaultChunkSize.
	ChunkSize int
	// Delay is the pause between flush bursts. Zero disables pacing.
	Delay time.Duration
	// StripBoxes converts three-line ASCII/Unicode box banners into
	// level-3 headings.
	StripBoxes bool
	// LLMCommand is the shell command prefix used by StreamQuery.
	LLMCommand string
	// InjectMarkdownHint prepends a "respond only in Markdown" instruction
	// to LLM queries.
	InjectMarkdownHint bool
	// FlushesPerSleep overrides the per-source pacing cadence when > 0.
	FlushesPerSleep int
	// Theme used by the default renderer sink.
	Theme *Theme
	// Width passed to the default renderer sink for horizontal rules.
	Width int
}

func (c Config) withDefaults() Config {
	if c.ChunkSize <= 0 {
		c.ChunkSize = DefaultChunkSize
	}
	if c.Theme == nil {
		c.Theme = DefaultTheme()
	}
	return c
}

// StreamerOption configures a Streamer beyond its Config.
type StreamerOption func(*Streamer)

// WithSink replaces the default renderer sink. Used for capture sinks in
// tests and alternative output backends.
func WithSink(sink Sink) StreamerOption {
	return func(s *Streamer) {
		if sink != nil {
			s.sink = sink
		}
	}
}

// Streamer owns the growing buffer of received-but-unrendered text, cuts it
// at safe flush boundaries, and paces delivery to its sink.
type Streamer struct {
	cfg  Config
	sink Sink

	buf     string
	front   frontMatterFilter
	tail    [utf8.UTFMax]byte
	tailLen int
}

// NewStreamer creates a Streamer rendering themed output to w.
func NewStreamer(w io.Writer, cfg Config, opts ...StreamerOption) *Streamer {
	cfg = cfg.withDefaults()
	s := &Streamer{
		cfg:  cfg,
		sink: NewRenderer(w, cfg.Theme, cfg.Width),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// feed appends raw bytes to the buffer, sanitizes it, and drains every safe
// prefix through the sink. Incomplete trailing runes are carried over to the
// next feed; invalid sequences are replaced with U+FFFD.
func (s *Streamer) feed(ctx context.Context, data []byte, flushEvery int) error {
	chunk := data
	if s.tailLen > 0 {
		combined := make([]byte, 0, s.tailLen+len(data))
		combined = append(combined, s.tail[:s.tailLen]...)
		combined = append(combined, data...)
		chunk = combined
		s.tailLen = 0
	}
	complete := chunk[:splitIncompleteRune(chunk)]
	s.tailLen = copy(s.tail[:], chunk[len(complete):])
	if cleared := s.front.accept(complete); len(cleared) > 0 {
		s.buf += strings.ToValidUTF8(string(cleared), string(utf8.RuneError))
		s.sanitize()
	}
	return s.drain(ctx, flushEvery)
}

func (s *Streamer) sanitize() {
	s.buf = stripANSI(s.buf)
	s.buf = sanitizeBoxes(s.buf, s.cfg.StripBoxes)
}

// drain repeatedly extracts the next safe-to-render prefix, sleeping every
// few flushes to produce a visible typing cadence.
func (s *Streamer) drain(ctx context.Context, flushEvery int) error {
	if s.cfg.FlushesPerSleep > 0 {
		flushEvery = s.cfg.FlushesPerSleep
	}
	flushed := 0
	for {
		cut := findFlushBoundary(s.buf, s.cfg.ChunkSize)
		if cut <= 0 {
			return nil
		}
		if cut > len(s.buf) {
			cut = len(s.buf)
		}
		segment := s.buf[:cut]
		s.buf = s.buf[cut:]
		if err := s.sink.RenderSegment(segment); err != nil {
			return err
		}
		flushed++
		if s.cfg.Delay > 0 && flushEvery > 0 && flushed%flushEvery == 0 {
			if err := sleepCtx(ctx, s.cfg.Delay); err != nil {
				return err
			}
		}
	}
}

// finish force-renders whatever remains in the buffer, bypassing boundary
// rules, and closes the sink.
func (s *Streamer) finish() error {
	var residue []byte
	if s.tailLen > 0 {
		residue = append(residue, s.front.accept(s.tail[:s.tailLen])...)
		s.tailLen = 0
	}
	residue = append(residue, s.front.drain()...)
	if len(residue) > 0 {
		s.buf += strings.ToValidUTF8(string(residue), string(utf8.RuneError))
		s.sanitize()
	}
	remainder := s.buf
	s.buf = ""
	if strings.TrimSpace(remainder) != "" {
		if err := s.sink.RenderSegment(remainder); err != nil {
			return err
		}
	}
	return s.sink.Close()
}

// splitIncompleteRune returns the length of the longest prefix of b that
// does not end in a truncated multi-byte rune.
func splitIncompleteRune(b []byte) int {
	n := len(b)
	if n == 0 {
		return 0
	}
	back := 1
	for back < utf8.UTFMax && back < n && !utf8.RuneStart(b[n-back]) {
		back++
	}
	start := n - back
	c := b[start]
	if c < utf8.RuneSelf || !utf8.RuneStart(c) || utf8.FullRune(b[start:]) {
		return n
	}
	return start
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
