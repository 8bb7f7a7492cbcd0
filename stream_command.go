package livemd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// markdownHint is prepended to LLM queries when InjectMarkdownHint is set,
// so the subprocess output stays within what the renderer understands.
const markdownHint = "Please respond only in Markdown.\n"

// StreamCommand runs command through the shell and renders its stdout
// incrementally as it is produced. A non-zero exit status is not an error
// as long as output was streamed; partial answers still render.
func (s *Streamer) StreamCommand(ctx context.Context, command string) error {
	if strings.TrimSpace(command) == "" {
		return errors.New("stream command: empty command")
	}
	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stream command: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("stream command: %w", err)
	}
	streamErr := s.streamFrom(ctx, stdout)
	waitErr := cmd.Wait()
	if streamErr != nil {
		return streamErr
	}
	var exitErr *exec.ExitError
	if waitErr != nil && !errors.As(waitErr, &exitErr) {
		return fmt.Errorf("stream command: %w", waitErr)
	}
	return nil
}

// StreamQuery appends the quoted query to the configured LLM command and
// streams the reply. The Markdown instruction is injected first unless
// disabled in the Config.
func (s *Streamer) StreamQuery(ctx context.Context, query string) error {
	if strings.TrimSpace(s.cfg.LLMCommand) == "" {
		return errors.New("stream query: no LLM command configured")
	}
	if s.cfg.InjectMarkdownHint {
		query = markdownHint + query
	}
	return s.StreamCommand(ctx, s.cfg.LLMCommand+" "+shellQuote(query))
}

// streamFrom feeds reader through the live cadence until EOF, then flushes
// the remainder. Mid-stream read errors abort before the final flush.
func (s *Streamer) streamFrom(ctx context.Context, r io.Reader) error {
	flushEvery := s.cadence(liveFlushesPerSleep)
	buf := make([]byte, readBufSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			if ferr := s.feed(ctx, buf[:n], flushEvery); ferr != nil {
				return ferr
			}
		}
		if err == io.EOF {
			return s.finish()
		}
		if err != nil {
			return fmt.Errorf("read stream: %w", err)
		}
	}
}

// shellQuote wraps s in single quotes for safe use as one sh argument.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
