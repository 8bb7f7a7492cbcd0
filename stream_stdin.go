package livemd

import (
	"context"
	"io"
	"os"
)

// StreamReader renders Markdown arriving incrementally on r, such as a
// pipe, with the live cadence.
func (s *Streamer) StreamReader(ctx context.Context, r io.Reader) error {
	return s.streamFrom(ctx, r)
}

// StreamStdin streams from standard input until EOF.
func (s *Streamer) StreamStdin(ctx context.Context) error {
	return s.StreamReader(ctx, os.Stdin)
}
