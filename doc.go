// Package livemd streams Markdown to a terminal with a live typing effect.
//
// Content arrives from a slow or chunked source (a file, a subprocess, an
// LLM query, or stdin) and is rendered incrementally: a Streamer owns a
// growing text buffer and cuts it at structurally safe flush boundaries so
// that code fences, table rows, and paragraphs are never split, while a
// Renderer carries structural state (list nesting, open accumulators)
// across the delivered segments and writes themed ANSI output.
//
// Core properties:
//   - Boundary-aware chunking; a fenced code block is always flushed whole
//   - Stateful segment rendering; lists may span many segments
//   - Theme-driven styling with built-in presets and JSON theme files
//   - Paced emission for a visible typing cadence
//
// Example:
//
//	theme, _ := livemd.ThemeByName("dark")
//	streamer := livemd.NewStreamer(os.Stdout, livemd.Config{Theme: theme})
//	if err := streamer.StreamFile(context.Background(), "README.md"); err != nil {
//		log.Fatal(err)
//	}
package livemd
