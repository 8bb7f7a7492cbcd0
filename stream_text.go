package livemd

import (
	"context"
	"fmt"
	"os"
)

// StreamText renders an already-complete Markdown string with the live
// typing effect. The text is fed in small steps so the boundary rules and
// pacing apply exactly as they would to a live source.
func (s *Streamer) StreamText(ctx context.Context, text string) error {
	flushEvery := s.cadence(bulkFlushesPerSleep)
	data := []byte(text)
	for len(data) > 0 {
		step := textFeedStep
		if step > len(data) {
			step = len(data)
		}
		if err := s.feed(ctx, data[:step], flushEvery); err != nil {
			return err
		}
		data = data[step:]
	}
	return s.finish()
}

// StreamFile reads path in full and streams its contents like StreamText.
// HTTP(S) URLs are fetched and streamed live instead.
func (s *Streamer) StreamFile(ctx context.Context, path string) error {
	if isURL(path) {
		return s.StreamURL(ctx, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("stream file: %w", err)
	}
	return s.StreamText(ctx, string(data))
}

func (s *Streamer) cadence(def int) int {
	if s.cfg.FlushesPerSleep > 0 {
		return s.cfg.FlushesPerSleep
	}
	return def
}
